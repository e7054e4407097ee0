// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lx200

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat is returned when a numeric, time or angle field is
	// malformed or out of range.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrTimeout is returned when no reply byte arrived before the deadline.
	ErrTimeout = errors.New("response timeout")

	// ErrTruncated is returned when a full reply did not fit in the response
	// buffer. The stored bytes are still available from the Response.
	ErrTruncated = errors.New("response truncated")

	// ErrEmptyCommand is returned when asked to send a zero-length command.
	ErrEmptyCommand = errors.New("empty command")

	// ErrCommandTooLong is returned when a command exceeds MaxCommandLength.
	ErrCommandTooLong = errors.New("command too long")
)

// FormatError describes why a field could not be parsed.
type FormatError struct {
	Input  string
	Reason string
}

// Error implements the error interface
func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid format %q: %s", e.Input, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidFormat
func (e *FormatError) Unwrap() error {
	return ErrInvalidFormat
}

func formatErr(input, reason string) error {
	return &FormatError{Input: input, Reason: reason}
}
