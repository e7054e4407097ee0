// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lx200

import (
	"io"
	"time"
)

// Port is the byte transport a Transceiver drives. A go.bug.st/serial port
// satisfies it as is; other transports wrap their connection.
//
// Read must honour the timeout last set with SetReadTimeout and return
// (0, nil) when it elapses without data.
type Port interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds how long a single Read may block
	SetReadTimeout(t time.Duration) error

	// Drain blocks until everything written has been transmitted
	Drain() error

	// ResetInputBuffer discards received bytes that have not been read
	ResetInputBuffer() error
}

// Clock supplies the current time for deadline arithmetic
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
