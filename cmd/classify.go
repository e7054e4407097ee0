// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/meridian/pkg/lx200"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <command>...",
	Short: "Show the expected reply shape and timeout of commands",
	Long: `Report how each command's reply will be read, without connecting.

For every command the reply shape (NONE, SHORT or FULL) and the effective
timeout after raising the base --timeout for slow commands are printed.`,
	Example: `  meridian classify ":GR#" ":MS#" ":Qn#" "<ACK>"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	return printClassification(cmd.OutOrStdout(), args, cfg.Protocol.Timeout)
}

func printClassification(out io.Writer, args []string, base time.Duration) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMMAND\tSHAPE\tTIMEOUT")
	for _, arg := range args {
		c, err := lx200.ParseCommand(arg)
		if err != nil {
			return err
		}
		class := lx200.Classify(c, base)
		fmt.Fprintf(w, "%s\t%s\t%s\n", lx200.FormatBytes(c), class.Shape, class.Timeout)
	}
	return w.Flush()
}
