// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/meridian/pkg/lx200"
)

var (
	convertFullRange bool
	convertUnsigned  bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert between LX200 text fields and numbers",
	Long: `Offline conversions between the text formats used by LX200 commands and
plain numbers. The --precision flag selects high (HH:MM:SS.ffff) or low
(HH:MM:SS) output.`,
}

var convertHMSCmd = &cobra.Command{
	Use:   "hms <HH:MM:SS[.ffff] | hours>",
	Short: "Parse HH:MM:SS to hours, or format hours as HH:MM:SS",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return convertHMS(cmd.OutOrStdout(), args[0], precision())
	},
}

var convertDMSCmd = &cobra.Command{
	Use:   "dms <sDD*MM:SS | DDD*MM:SS | degrees>",
	Short: "Parse an angle to degrees, or format degrees as an angle",
	Long: `Parse an angle to degrees, or format degrees as an angle.

Signed angles (declination, latitude) are the default. Use --unsigned for
0-360 angles such as azimuth and --full-range for three degree digits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return convertDMS(cmd.OutOrStdout(), args[0], !convertUnsigned, convertFullRange, precision())
	},
}

var convertDurationEncodeCmd = &cobra.Command{
	Use:   "duration-encode <seconds>",
	Short: "Quantize a duration in seconds to its one byte code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[0], err)
		}
		code := lx200.EncodeDuration(seconds)
		fmt.Fprintf(cmd.OutOrStdout(), "%d (decodes to %gs)\n", code, lx200.DecodeDuration(code))
		return nil
	},
}

var convertDurationDecodeCmd = &cobra.Command{
	Use:   "duration-decode <code>",
	Short: "Expand a one byte duration code to seconds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil {
			return fmt.Errorf("invalid code %q: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%g\n", lx200.DecodeDuration(uint8(code)))
		return nil
	},
}

var convertStripCmd = &cobra.Command{
	Use:   "strip <number>",
	Short: "Remove leading and trailing zeros from a decimal number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := lx200.ParseFloat(args[0], true); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), lx200.StripNumeric(args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.AddCommand(convertHMSCmd, convertDMSCmd, convertDurationEncodeCmd,
		convertDurationDecodeCmd, convertStripCmd)

	convertDMSCmd.Flags().BoolVar(&convertFullRange, "full-range", false, "Format with three degree digits")
	convertDMSCmd.Flags().BoolVar(&convertUnsigned, "unsigned", false, "Angle has no sign and spans 0-360")
}

// convertHMS parses arg as HH:MM:SS when it looks like one, otherwise as a
// number of hours to format.
func convertHMS(w io.Writer, arg string, p lx200.Precision) error {
	if hours, err := strconv.ParseFloat(arg, 64); err == nil {
		fmt.Fprintln(w, lx200.FormatHMSPrecision(hours, p))
		return nil
	}
	hours, err := lx200.ParseHMS(arg)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%.6f\n", hours)
	return nil
}

func convertDMS(w io.Writer, arg string, signed, fullRange bool, p lx200.Precision) error {
	if degrees, err := strconv.ParseFloat(arg, 64); err == nil {
		fmt.Fprintln(w, lx200.FormatDMSPrecision(degrees, fullRange, signed, p))
		return nil
	}
	degrees, err := lx200.ParseDMS(arg, signed)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%.6f\n", degrees)
	return nil
}
