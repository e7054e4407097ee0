// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/meridian/internal/capture"
	"github.com/Thermoquad/meridian/pkg/lx200"
)

var replaySimulate bool

var replayCmd = &cobra.Command{
	Use:   "replay <capture>",
	Short: "Display a recorded capture in human-readable format",
	Long: `Print every exchange in a capture written by send --record or
poll --record, followed by statistics.

With --simulate the recorded commands are sent again to a simulated
controller that answers with the recorded replies. Exchanges whose reply
shape, bytes or result differ from the recording are reported; this shows
how a capture taken with other settings reads with the current ones.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replaySimulate, "simulate", false, "Re-run the commands against the recorded replies")
}

func runReplay(cmd *cobra.Command, args []string) error {
	header, entries, err := capture.Open(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Meridian - Replay\n")
	fmt.Fprintf(out, "Capture: %s (%s)\n", args[0], header.Created.Format("2006-01-02 15:04:05"))
	if header.Link != "" {
		fmt.Fprintf(out, "Connection: %s\n", header.Link)
	}
	if header.Session != "" {
		fmt.Fprintf(out, "Session: %s\n", header.Session)
	}
	fmt.Fprintf(out, "Entries: %d\n\n", len(entries))

	if replaySimulate {
		mismatches := simulateCapture(out, entries, transceiverOptions()...)
		fmt.Fprintf(out, "\n%d of %d exchanges differ\n", mismatches, len(entries))
		if mismatches > 0 {
			return fmt.Errorf("%d mismatches", mismatches)
		}
		return nil
	}

	stats := lx200.NewStatistics()
	for _, e := range entries {
		r := e.Record()
		stats.Observe(r)
		fmt.Fprint(out, lx200.FormatRecord(r))
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, stats.String())
	return nil
}

// simulateCapture replays entries through a transceiver backed by a
// ReplayPort and prints each exchange that differs from the recording.
func simulateCapture(out io.Writer, entries []capture.Entry, opts ...lx200.Option) int {
	port := capture.NewReplayPort(entries)
	defer port.Close()
	t := lx200.NewTransceiver(port, opts...)

	mismatches := 0
	var resp lx200.Response
	for i, e := range entries {
		err := t.Exchange(e.Command, &resp, t.Timeout())
		got := capture.EntryFromRecord(lx200.Record{
			Command:  e.Command,
			Response: resp.Bytes(),
			Shape:    lx200.Classify(e.Command, t.Timeout()).Shape,
			Err:      err,
		})

		var diffs []string
		if got.Shape != e.Shape {
			diffs = append(diffs, fmt.Sprintf("shape %s -> %s", lx200.Shape(e.Shape), lx200.Shape(got.Shape)))
		}
		if !bytes.Equal(got.Response, e.Response) {
			diffs = append(diffs, fmt.Sprintf("reply %q -> %q",
				lx200.FormatBytes(e.Response), lx200.FormatBytes(got.Response)))
		}
		if got.Result != e.Result {
			diffs = append(diffs, fmt.Sprintf("result %q -> %q", resultName(e.Result), resultName(got.Result)))
		}
		if len(diffs) == 0 {
			continue
		}

		mismatches++
		fmt.Fprintf(out, "#%d %s:", i+1, lx200.FormatBytes(e.Command))
		for _, d := range diffs {
			fmt.Fprintf(out, " %s;", d)
		}
		fmt.Fprintln(out)
	}

	if misses := port.Misses(); len(misses) > 0 {
		fmt.Fprintf(out, "%d commands had no recorded reply\n", len(misses))
	}
	return mismatches
}

func resultName(r string) string {
	if r == capture.ResultOK {
		return "ok"
	}
	return r
}
