// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/meridian/pkg/lx200"
)

var (
	pingCount    int
	pingInterval time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the link by sending the legacy ACK byte",
	Long: `Send the ACK byte (0x06) and wait for the one byte mount mode reply.

Every LX200 controller answers ACK with its mount type, so this works
regardless of mount state. The reply is decoded as:
  A - Alt-azimuth
  P - Polar (fork equatorial)
  G - German equatorial
  L - Land

Exit codes:
  0 - All pings answered
  1 - One or more pings timed out or failed
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVarP(&pingCount, "count", "c", 3, "Number of pings to send")
	pingCmd.Flags().DurationVar(&pingInterval, "interval", 100*time.Millisecond, "Delay between pings")
}

// mountModeName decodes the ACK reply
func mountModeName(b byte) string {
	switch b {
	case 'A':
		return "alt-azimuth"
	case 'P':
		return "polar"
	case 'G':
		return "german equatorial"
	case 'L':
		return "land"
	default:
		return fmt.Sprintf("unknown (%s)", lx200.FormatBytes([]byte{b}))
	}
}

func runPing(cmd *cobra.Command, args []string) error {
	port, connInfo, err := OpenPort()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer port.Close()

	stats := lx200.NewStatistics()
	t := lx200.NewTransceiver(port, transceiverOptions(lx200.WithObserver(stats))...)

	fmt.Printf("Meridian - Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %s per ping\n", t.Timeout())
	fmt.Printf("Count: %d pings\n\n", pingCount)

	ack := []byte{lx200.ACK}
	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		var resp lx200.Response
		start := time.Now()
		err := t.Exchange(ack, &resp, t.Timeout())
		rtt := time.Since(start)

		switch {
		case err == nil:
			fmt.Printf("mount=%s, rtt=%v\n", mountModeName(resp.Bytes()[0]), rtt.Round(time.Millisecond))
		case errors.Is(err, lx200.ErrTimeout):
			fmt.Printf("TIMEOUT (no reply in %s)\n", t.Timeout())
		default:
			fmt.Printf("FAILED: %v\n", err)
		}

		if i < pingCount {
			time.Sleep(pingInterval)
		}
	}

	// Summary
	snap := stats.Snapshot()
	failed := snap.Errors()
	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d replies received, %.0f%% loss, avg %s\n",
		pingCount, snap.Succeeded, float64(failed)/float64(max(pingCount, 1))*100,
		snap.AverageLatency.Round(time.Millisecond))

	if failed > 0 {
		_ = port.Close()
		os.Exit(1)
	}
	return nil
}
