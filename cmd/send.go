// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/meridian/internal/capture"
	"github.com/Thermoquad/meridian/pkg/lx200"
)

// Send modes
const (
	sendModeString = "string"
	sendModeBool   = "bool"
	sendModeBlind  = "blind"
	sendModeEcho   = "echo"
	sendModeRaw    = "raw"
)

var (
	sendMode    string
	sendRecord  string
	sendVerbose bool
)

var sendCmd = &cobra.Command{
	Use:   "send <command>...",
	Short: "Send LX200 commands and print the replies",
	Long: `Send one or more LX200 commands and print each reply.

Commands are given as typed, e.g. ":GR#". Non-printable bytes may be written
as \xNN escapes and the legacy ACK byte as <ACK>.

Modes:
  string - print the reply without its '#' terminator (default)
  bool   - print true or false for a one character reply
  blind  - send and discard the reply
  echo   - wrap each argument as :EC<arg># and discard the reply
  raw    - print the full exchange record, escaped

Exit code 1 if any exchange fails.`,
	Example: `  meridian send --port /dev/ttyUSB0 ":GR#" ":GD#"
  meridian send --tcp 192.168.0.1:9999 --mode bool ":MS#"
  meridian send --url ws://bridge.local/lx200 --record session.cbor ":GVP#"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendMode, "mode", "m", sendModeString, "Reply handling: string, bool, blind, echo, raw")
	sendCmd.Flags().StringVar(&sendRecord, "record", "", "Append exchanges to a CBOR capture file")
	sendCmd.Flags().BoolVarP(&sendVerbose, "verbose", "v", false, "Print exchange details to stderr")
}

func runSend(cmd *cobra.Command, args []string) error {
	switch sendMode {
	case sendModeString, sendModeBool, sendModeBlind, sendModeEcho, sendModeRaw:
	default:
		return fmt.Errorf("unknown mode %q", sendMode)
	}

	commands := make([]string, 0, len(args))
	for _, arg := range args {
		if sendMode == sendModeEcho {
			commands = append(commands, arg)
			continue
		}
		c, err := lx200.ParseCommand(arg)
		if err != nil {
			return err
		}
		commands = append(commands, string(c))
	}

	port, connInfo, err := OpenPort()
	if err != nil {
		return err
	}
	defer port.Close()

	stats := lx200.NewStatistics()
	extra := []lx200.Option{lx200.WithObserver(stats)}
	if sendRecord != "" {
		rec, err := capture.Create(sendRecord, connInfo)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Capture error: %v\n", err)
			}
		}()
		extra = append(extra, lx200.WithObserver(rec))
	}
	if sendVerbose {
		extra = append(extra, lx200.WithObserver(lx200.ObserverFunc(func(r lx200.Record) {
			fmt.Fprint(os.Stderr, lx200.FormatRecord(r))
		})))
	}

	t := lx200.NewTransceiver(port, transceiverOptions(extra...)...)

	for _, c := range commands {
		if err := sendOne(cmd.OutOrStdout(), t, sendMode, c); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", lx200.FormatBytes([]byte(c)), err)
		}
	}

	if failed := stats.Errors(); failed > 0 {
		return fmt.Errorf("%d of %d commands failed", failed, len(commands))
	}
	return nil
}

// sendOne runs one command through the transceiver and prints the reply
// as mode asks.
func sendOne(w io.Writer, t *lx200.Transceiver, mode, c string) error {
	switch mode {
	case sendModeBlind:
		return t.CommandBlind(c)
	case sendModeEcho:
		return t.CommandEcho(c)
	case sendModeBool:
		fmt.Fprintln(w, t.CommandBool(c))
		return nil
	case sendModeRaw:
		var resp lx200.Response
		err := t.Exchange([]byte(c), &resp, t.Timeout())
		fmt.Fprintln(w, lx200.FormatBytes(resp.Bytes()))
		return err
	default:
		reply, err := t.Command(c)
		if err != nil && !errors.Is(err, lx200.ErrTruncated) {
			fmt.Fprintln(w, "?")
			return err
		}
		fmt.Fprintln(w, lx200.FormatBytes([]byte(reply)))
		return err
	}
}
