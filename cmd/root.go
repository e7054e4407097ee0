// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/meridian/internal/config"
	"github.com/Thermoquad/meridian/internal/logging"
	"github.com/Thermoquad/meridian/pkg/lx200"
)

var (
	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "LX200 Command Tool",
	Long: `Meridian - A CLI tool for talking to LX200 telescope controllers.

Sends commands, classifies replies, converts coordinates, and monitors the
link to an LX200 compatible mount controller.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]
  TCP:       --tcp host:9999

Settings may also come from a config file (--config, $MERIDIAN_CONFIG or
./meridian.yaml) and MERIDIAN_* environment variables. Flags win.

For WebSocket authentication, the password is read from the MERIDIAN_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	config.AddFlags(rootCmd.PersistentFlags())
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	l, err := logging.InitLogger(c.Logging)
	if err != nil {
		return err
	}

	cfg = c
	logger = l
	logger.Debug("config loaded",
		zap.String("transport", c.Connection.Transport()),
		zap.Duration("timeout", c.Protocol.Timeout),
		zap.Bool("legacy_overflow", c.Protocol.LegacyOverflow),
	)
	return nil
}

// precision returns the configured angle/time precision
func precision() lx200.Precision {
	if cfg != nil && strings.EqualFold(cfg.Protocol.Precision, "low") {
		return lx200.PrecisionLow
	}
	return lx200.PrecisionHigh
}

// transceiverOptions returns the options every command shares
func transceiverOptions(extra ...lx200.Option) []lx200.Option {
	opts := []lx200.Option{
		lx200.WithTimeout(cfg.Protocol.Timeout),
		lx200.WithLegacyOverflow(cfg.Protocol.LegacyOverflow),
		lx200.WithLogger(logger.Named("lx200")),
	}
	return append(opts, extra...)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
