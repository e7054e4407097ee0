// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Thermoquad/meridian/internal/capture"
	"github.com/Thermoquad/meridian/internal/metrics"
	"github.com/Thermoquad/meridian/pkg/lx200"
)

var (
	pollInterval      time.Duration
	pollStatsInterval time.Duration
	pollRounds        int
	pollRecord        string
	pollQuiet         bool
	pollMaxRate       float64
)

var pollCmd = &cobra.Command{
	Use:   "poll <command>...",
	Short: "Send commands repeatedly and monitor the link",
	Long: `Send the given commands in a loop and print every exchange.

Statistics are printed every --stats-interval and when polling stops. With
--metrics-addr, exchange counters and latencies are served for Prometheus.
--max-rate caps the number of exchanges per second for controllers that
drop commands sent back to back.

Press Ctrl+C to stop.`,
	Example: `  meridian poll --port /dev/ttyUSB0 ":GR#" ":GD#"
  meridian poll --tcp 10.0.0.5:9999 --interval 1s --metrics-addr :2112 ":GR#"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
	pollCmd.Flags().DurationVarP(&pollInterval, "interval", "i", 500*time.Millisecond, "Delay between rounds")
	pollCmd.Flags().DurationVar(&pollStatsInterval, "stats-interval", 10*time.Second, "Statistics print interval (0 disables)")
	pollCmd.Flags().IntVarP(&pollRounds, "rounds", "n", 0, "Stop after this many rounds (0 runs until interrupted)")
	pollCmd.Flags().StringVar(&pollRecord, "record", "", "Write exchanges to a CBOR capture file")
	pollCmd.Flags().BoolVarP(&pollQuiet, "quiet", "q", false, "Only print statistics")
	pollCmd.Flags().Float64Var(&pollMaxRate, "max-rate", 0, "Maximum exchanges per second (0 is unlimited)")
	pollCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :2112)")
}

func runPoll(cmd *cobra.Command, args []string) error {
	commands := make([][]byte, 0, len(args))
	for _, arg := range args {
		c, err := lx200.ParseCommand(arg)
		if err != nil {
			return err
		}
		commands = append(commands, c)
	}

	port, connInfo, err := OpenPort()
	if err != nil {
		return err
	}
	defer port.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := lx200.NewStatistics()
	opts := []lx200.Option{lx200.WithObserver(stats)}

	if !pollQuiet {
		opts = append(opts, lx200.WithObserver(lx200.ObserverFunc(func(r lx200.Record) {
			fmt.Print(lx200.FormatRecord(r))
		})))
	}

	if cfg.Metrics.Addr != "" {
		reg := metrics.NewRegistry()
		opts = append(opts, lx200.WithObserver(metrics.NewExchangeMetrics(reg)))
		srv := metrics.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		fmt.Printf("Metrics: http://%s%s\n", cfg.Metrics.Addr, cfg.Metrics.Path)
	}

	if pollRecord != "" {
		rec, err := capture.Create(pollRecord, connInfo)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Capture error: %v\n", err)
			}
			fmt.Printf("Recorded %d exchanges to %s\n", rec.Count(), pollRecord)
		}()
		opts = append(opts, lx200.WithObserver(rec))
	}

	t := lx200.NewTransceiver(port, transceiverOptions(opts...)...)

	fmt.Printf("Meridian - Poll\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	plan := pollPlan{
		interval:      pollInterval,
		statsInterval: pollStatsInterval,
		rounds:        pollRounds,
	}
	if pollMaxRate > 0 {
		plan.limiter = rate.NewLimiter(rate.Limit(pollMaxRate), 1)
	}
	pollLoop(ctx, os.Stdout, t, commands, stats, plan)

	fmt.Println()
	fmt.Print(stats.String())
	return nil
}

// pollPlan controls the pacing of pollLoop
type pollPlan struct {
	interval      time.Duration
	statsInterval time.Duration
	rounds        int           // 0 runs until ctx is done
	limiter       *rate.Limiter // nil sends without pacing
}

// pollLoop runs rounds of commands until ctx is done or the round limit is
// reached and returns the number of rounds completed. Exchange output comes
// from the transceiver's observers; periodic statistics go to out.
func pollLoop(ctx context.Context, out io.Writer, t *lx200.Transceiver, commands [][]byte, stats *lx200.Statistics, plan pollPlan) int {
	var statsTick <-chan time.Time
	if plan.statsInterval > 0 {
		ticker := time.NewTicker(plan.statsInterval)
		defer ticker.Stop()
		statsTick = ticker.C
	}

	var resp lx200.Response
	for round := 1; plan.rounds == 0 || round <= plan.rounds; round++ {
		for _, c := range commands {
			if plan.limiter != nil {
				if err := plan.limiter.Wait(ctx); err != nil {
					return round - 1
				}
			}
			if ctx.Err() != nil {
				return round - 1
			}
			_ = t.Exchange(c, &resp, t.Timeout())
		}

		select {
		case <-ctx.Done():
			return round
		case <-statsTick:
			fmt.Fprint(out, stats.String())
		default:
		}

		if round == plan.rounds {
			return round
		}
		select {
		case <-ctx.Done():
			return round
		case <-time.After(plan.interval):
		}
	}
	return plan.rounds
}
