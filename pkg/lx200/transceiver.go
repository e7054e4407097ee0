// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lx200

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Record describes one completed exchange
type Record struct {
	Time     time.Time
	Command  []byte
	Response []byte
	Shape    Shape
	Timeout  time.Duration // Effective timeout after classification
	Elapsed  time.Duration
	Err      error
}

// Observer is notified after every exchange
type Observer interface {
	Observe(r Record)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(r Record)

// Observe calls f(r)
func (f ObserverFunc) Observe(r Record) {
	f(r)
}

// Transceiver runs command/response exchanges over a Port.
//
// A Transceiver assumes exclusive use of the port and is not safe for
// concurrent use.
type Transceiver struct {
	port   Port
	config Config
}

// NewTransceiver creates a transceiver for port
func NewTransceiver(port Port, opts ...Option) *Transceiver {
	if port == nil {
		panic("lx200: port cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Transceiver{
		port:   port,
		config: cfg,
	}
}

// Port returns the underlying transport
func (t *Transceiver) Port() Port {
	return t.port
}

// Timeout returns the base timeout used by the command helpers
func (t *Transceiver) Timeout() time.Duration {
	return t.config.Timeout
}

// Exchange sends cmd and collects its reply into resp.
//
// Pending output is flushed and unread input discarded before the command
// is written. What happens next depends on Classify(cmd, timeout):
//   - ShapeNone: returns immediately with an empty response
//   - ShapeShort: waits for a single byte
//   - ShapeFull: collects bytes until '#' arrives or the deadline passes
//
// ErrTimeout is returned when no byte arrived in time. A reply whose first
// byte is NUL also counts as no reply; its bytes are kept in resp. A full
// reply that stops without '#' at the deadline is still a success. There is
// no retry.
func (t *Transceiver) Exchange(cmd []byte, resp *Response, timeout time.Duration) error {
	if resp == nil {
		return errors.New("lx200: nil response")
	}
	resp.Reset()
	if len(cmd) == 0 {
		return ErrEmptyCommand
	}
	if len(cmd) > MaxCommandLength {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCommandTooLong, len(cmd), MaxCommandLength)
	}

	class := Classify(cmd, timeout)
	start := t.config.Clock.Now()
	err := t.exchange(cmd, resp, class)
	t.publish(Record{
		Time:     start,
		Command:  append([]byte(nil), cmd...),
		Response: append([]byte(nil), resp.Bytes()...),
		Shape:    class.Shape,
		Timeout:  class.Timeout,
		Elapsed:  t.config.Clock.Now().Sub(start),
		Err:      err,
	})
	return err
}

func (t *Transceiver) exchange(cmd []byte, resp *Response, class Classification) error {
	if err := t.port.SetReadTimeout(class.Timeout); err != nil {
		return fmt.Errorf("set read timeout: %w", err)
	}
	if err := t.port.Drain(); err != nil {
		return fmt.Errorf("drain output: %w", err)
	}
	if err := t.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("reset input: %w", err)
	}
	if _, err := t.port.Write(cmd); err != nil {
		return fmt.Errorf("write command: %w", err)
	}

	if class.Shape == ShapeNone {
		return nil
	}

	deadline := t.config.Clock.Now().Add(class.Timeout)
	var b [1]byte
	for {
		remaining := deadline.Sub(t.config.Clock.Now())
		if remaining <= 0 {
			break
		}
		if err := t.port.SetReadTimeout(remaining); err != nil {
			return fmt.Errorf("set read timeout: %w", err)
		}
		n, err := t.port.Read(b[:])
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if n == 0 {
			continue
		}

		resp.append(b[0])
		if class.Shape == ShapeShort || b[0] == Terminator {
			break
		}
	}

	if resp.Len() == 0 {
		return ErrTimeout
	}
	if resp.Bytes()[0] == 0 {
		return fmt.Errorf("%w: reply starts with NUL", ErrTimeout)
	}
	if resp.Truncated() && !t.config.LegacyOverflow {
		return fmt.Errorf("%w: reply longer than %d bytes", ErrTruncated, MaxResponseLength)
	}
	return nil
}

func (t *Transceiver) publish(r Record) {
	log := t.config.Logger
	if r.Err != nil {
		log.Warn("exchange failed",
			zap.ByteString("cmd", r.Command),
			zap.Stringer("shape", r.Shape),
			zap.Duration("timeout", r.Timeout),
			zap.Duration("elapsed", r.Elapsed),
			zap.Int("bytes", len(r.Response)),
			zap.Error(r.Err),
		)
	} else {
		log.Debug("exchange",
			zap.ByteString("cmd", r.Command),
			zap.Stringer("shape", r.Shape),
			zap.Duration("timeout", r.Timeout),
			zap.Duration("elapsed", r.Elapsed),
			zap.ByteString("reply", r.Response),
		)
	}

	for _, o := range t.config.Observers {
		o.Observe(r)
	}
}
