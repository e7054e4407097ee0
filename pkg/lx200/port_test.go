// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lx200

import (
	"time"
)

// fakeClock only moves when told to
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// fakePort simulates a controller. Bytes in stale are waiting before the
// command is written; reply becomes readable once a command is written.
// An empty Read advances the clock by the current read timeout, a
// successful one by byteDelay.
type fakePort struct {
	clock     *fakeClock
	stale     []byte
	reply     []byte
	input     []byte
	byteDelay time.Duration

	readTimeout time.Duration
	readErr     error
	writeErr    error
	drainErr    error

	calls   []string
	written [][]byte
	reads   int
	timeout []time.Duration
	closed  bool
}

func newFakePort(clock *fakeClock, reply string) *fakePort {
	return &fakePort{
		clock:     clock,
		reply:     []byte(reply),
		byteDelay: time.Millisecond,
	}
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.calls = append(p.calls, "timeout")
	p.readTimeout = t
	p.timeout = append(p.timeout, t)
	return nil
}

func (p *fakePort) Drain() error {
	p.calls = append(p.calls, "drain")
	return p.drainErr
}

func (p *fakePort) ResetInputBuffer() error {
	p.calls = append(p.calls, "reset")
	p.stale = nil
	return nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.calls = append(p.calls, "write")
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.written = append(p.written, append([]byte(nil), b...))
	p.input = append(append(p.input, p.stale...), p.reply...)
	p.stale = nil
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.reads++
	if p.readErr != nil {
		return 0, p.readErr
	}
	if len(p.input) == 0 {
		p.clock.Advance(p.readTimeout)
		return 0, nil
	}
	n := copy(b, p.input)
	p.input = p.input[n:]
	p.clock.Advance(p.byteDelay)
	return n, nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}
