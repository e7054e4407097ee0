// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"errors"
	"sync"
	"time"
)

// ErrPortClosed is returned by I/O on a closed ReplayPort
var ErrPortClosed = errors.New("replay port closed")

// ReplayPort is an lx200.Port that answers commands with the replies from
// a capture. Replies for a command are served in recorded order and start
// over once exhausted. Commands never recorded get no reply.
type ReplayPort struct {
	mu      sync.Mutex
	replies map[string][][]byte
	next    map[string]int
	input   []byte
	timeout time.Duration
	misses  []string
	closed  bool

	// Sleep is called with the read timeout when a Read finds no data.
	// Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// NewReplayPort builds a port from captured entries
func NewReplayPort(entries []Entry) *ReplayPort {
	p := &ReplayPort{
		replies: make(map[string][][]byte),
		next:    make(map[string]int),
		Sleep:   time.Sleep,
	}
	for _, e := range entries {
		key := string(e.Command)
		p.replies[key] = append(p.replies[key], e.Response)
	}
	return p
}

// Write looks up the reply for cmd and makes it readable
func (p *ReplayPort) Write(cmd []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrPortClosed
	}

	key := string(cmd)
	replies, ok := p.replies[key]
	if !ok {
		p.misses = append(p.misses, key)
		return len(cmd), nil
	}
	i := p.next[key]
	p.input = append(p.input, replies[i]...)
	p.next[key] = (i + 1) % len(replies)
	return len(cmd), nil
}

// Read returns queued reply bytes, or (0, nil) after sleeping for the read
// timeout when there are none.
func (p *ReplayPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrPortClosed
	}
	if len(p.input) > 0 {
		n := copy(b, p.input)
		p.input = p.input[n:]
		p.mu.Unlock()
		return n, nil
	}
	timeout, sleep := p.timeout, p.Sleep
	p.mu.Unlock()

	if sleep != nil {
		sleep(timeout)
	}
	return 0, nil
}

// SetReadTimeout implements lx200.Port
func (p *ReplayPort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = t
	return nil
}

// Drain implements lx200.Port
func (p *ReplayPort) Drain() error {
	return nil
}

// ResetInputBuffer discards unread reply bytes
func (p *ReplayPort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.input = nil
	return nil
}

// Close implements io.Closer
func (p *ReplayPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Misses returns the commands written that had no recorded reply
func (p *ReplayPort) Misses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.misses...)
}
