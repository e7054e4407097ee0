// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/meridian/internal/capture"
	"github.com/Thermoquad/meridian/internal/logging"
	"github.com/Thermoquad/meridian/pkg/lx200"
)

var consoleRecord string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive TUI for sending LX200 commands",
	Long: `Type LX200 commands and watch the replies in an interactive terminal UI.

Features:
  - Command entry with history (Up/Down)
  - Reply shape, timeout and latency for every exchange
  - Live statistics
  - Decoded values for coordinate and time replies

Logging to the terminal is turned off while the TUI runs; use --log-file to
keep a log.`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().StringVar(&consoleRecord, "record", "", "Write exchanges to a CBOR capture file")
}

// consoleSession owns the transceiver used by the TUI. Exchanges run one
// at a time in tea commands; the observer keeps the record of the last one.
type consoleSession struct {
	t     *lx200.Transceiver
	stats *lx200.Statistics
	last  lx200.Record
}

func newConsoleSession(port lx200.Port, opts ...lx200.Option) *consoleSession {
	s := &consoleSession{stats: lx200.NewStatistics()}
	opts = append(opts,
		lx200.WithObserver(s.stats),
		lx200.WithObserver(lx200.ObserverFunc(func(r lx200.Record) { s.last = r })),
	)
	s.t = lx200.NewTransceiver(port, opts...)
	return s
}

// exchange runs c and returns the resulting record
func (s *consoleSession) exchange(c []byte) lx200.Record {
	s.last = lx200.Record{}
	var resp lx200.Response
	err := s.t.Exchange(c, &resp, s.t.Timeout())
	if s.last.Command == nil {
		// Rejected before any I/O, so nothing was published
		return lx200.Record{Time: time.Now(), Command: c, Err: err}
	}
	return s.last
}

func runConsole(cmd *cobra.Command, args []string) error {
	if cfg.Logging.Console {
		quiet := cfg.Logging
		quiet.Console = false
		l, err := logging.InitLogger(quiet)
		if err != nil {
			return err
		}
		logger = l
	}

	port, connInfo, err := OpenPort()
	if err != nil {
		return err
	}
	defer port.Close()

	var extra []lx200.Option
	if consoleRecord != "" {
		rec, err := capture.Create(consoleRecord, connInfo)
		if err != nil {
			return err
		}
		defer rec.Close()
		extra = append(extra, lx200.WithObserver(rec))
	}

	session := newConsoleSession(port, transceiverOptions(extra...)...)
	m := initialConsoleModel(session, connInfo)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	fmt.Print(session.stats.String())
	return nil
}
