// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package lx200 provides a Go implementation of the LX200-style command
// protocol spoken by telescope mount controllers over a serial line or a
// WiFi bridge.
//
// The package decides what kind of reply a command produces, drives the
// transport through one timeout-bounded command/response exchange, and
// converts the fixed-format numeric payloads (hours, degrees, quantized
// durations) carried inside commands and replies. It does not interpret
// what a particular command does to the mount.
package lx200

import "time"

// Framing markers
const (
	FrameStandard = ':' // Standard command
	FrameChecksum = ';' // Checksum protocol, always answered with a full reply
	Terminator    = '#' // Ends full replies (and, by convention, commands)
	ACK           = 0x06
)

// Response buffer limits
const (
	ResponseBufferSize = 40                     // Including the trailing sentinel
	MaxResponseLength  = ResponseBufferSize - 1 // Bytes actually stored
	MaxCommandLength   = ResponseBufferSize - 1
)

// Timeouts raised by the classifier for slow commands
const (
	slowTimeout     = 300 * time.Millisecond
	verySlowTimeout = 1000 * time.Millisecond
)

// DefaultTimeout is the base timeout used by the command helpers when the
// caller does not configure one.
const DefaultTimeout = 100 * time.Millisecond

// Numeric field limits
const (
	maxIntLength = 6
	minIntValue  = -32767
	maxIntValue  = 32768

	maxAngleLength = 13
	degreeGlyph    = 223 // Degree sign as sent by LX200 handsets
)

// Precision selects the number of fractional second digits produced by the
// HMS and DMS formatters.
type Precision int

// Precision values
const (
	PrecisionHigh Precision = iota // HH:MM:SS.ffff and sDD*MM:SS.fff
	PrecisionLow                   // HH:MM:SS and sDD*MM:SS
)
