// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lx200

import (
	"time"

	"go.uber.org/zap"
)

// Config holds the transceiver configuration
type Config struct {
	// Timeout is the base timeout used by the command helpers
	Timeout time.Duration

	// Clock is used for deadlines and record timestamps
	Clock Clock

	// Logger receives one debug entry per exchange and warnings on failure
	Logger *zap.Logger

	// Observers are notified after every exchange
	Observers []Observer

	// LegacyOverflow keeps the controller firmware's behaviour for replies
	// longer than the buffer: the first bytes are kept and the exchange
	// still succeeds. Without it such an exchange returns ErrTruncated.
	LegacyOverflow bool
}

func defaultConfig() Config {
	return Config{
		Timeout: DefaultTimeout,
		Clock:   systemClock{},
		Logger:  zap.NewNop(),
	}
}

// Option is a functional option for configuring a Transceiver
type Option func(*Config)

// WithTimeout sets the base timeout used by Command and friends.
// Non-positive values are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithClock replaces the system clock
func WithClock(clock Clock) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithObserver registers an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(c *Config) {
		if o != nil {
			c.Observers = append(c.Observers, o)
		}
	}
}

// WithLegacyOverflow selects the firmware's silent truncation of long replies
func WithLegacyOverflow(legacy bool) Option {
	return func(c *Config) {
		c.LegacyOverflow = legacy
	}
}
