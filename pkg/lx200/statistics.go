// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lx200

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Statistics tracks exchange counts and error rates. It implements Observer
// and may be read while a transceiver is updating it.
type Statistics struct {
	mu sync.Mutex

	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalExchanges  uint64
	Succeeded       uint64
	Timeouts        uint64
	Truncations     uint64
	TransportErrors uint64
	NoReply         uint64
	ShortReplies    uint64
	FullReplies     uint64
	TotalElapsed    time.Duration

	// Rates (calculated)
	ExchangeRate float64 // exchanges/sec
	ErrorRate    float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Observe implements Observer
func (s *Statistics) Observe(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalExchanges++
	s.TotalElapsed += r.Elapsed

	switch r.Shape {
	case ShapeNone:
		s.NoReply++
	case ShapeShort:
		s.ShortReplies++
	case ShapeFull:
		s.FullReplies++
	}

	switch {
	case r.Err == nil:
		s.Succeeded++
	case errors.Is(r.Err, ErrTimeout):
		s.Timeouts++
	case errors.Is(r.Err, ErrTruncated):
		s.Truncations++
	default:
		s.TransportErrors++
	}

	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates exchange and error rates
func (s *Statistics) CalculateRates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()
}

func (s *Statistics) calculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.ExchangeRate = float64(s.TotalExchanges) / elapsed
		s.ErrorRate = float64(s.errorCount()) / elapsed
	}
}

func (s *Statistics) errorCount() uint64 {
	return s.Timeouts + s.Truncations + s.TransportErrors
}

// Snapshot is a copy of the counters taken under the lock
type Snapshot struct {
	TotalExchanges  uint64
	Succeeded       uint64
	Timeouts        uint64
	Truncations     uint64
	TransportErrors uint64
	NoReply         uint64
	ShortReplies    uint64
	FullReplies     uint64
	AverageLatency  time.Duration
	ExchangeRate    float64
	ErrorRate       float64
}

// Errors returns the number of failed exchanges in the snapshot
func (s Snapshot) Errors() uint64 {
	return s.Timeouts + s.Truncations + s.TransportErrors
}

// Snapshot returns the current counters with freshly calculated rates
func (s *Statistics) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()

	snap := Snapshot{
		TotalExchanges:  s.TotalExchanges,
		Succeeded:       s.Succeeded,
		Timeouts:        s.Timeouts,
		Truncations:     s.Truncations,
		TransportErrors: s.TransportErrors,
		NoReply:         s.NoReply,
		ShortReplies:    s.ShortReplies,
		FullReplies:     s.FullReplies,
		ExchangeRate:    s.ExchangeRate,
		ErrorRate:       s.ErrorRate,
	}
	if s.TotalExchanges > 0 {
		snap.AverageLatency = s.TotalElapsed / time.Duration(s.TotalExchanges)
	}
	return snap
}

// Errors returns the number of failed exchanges
func (s *Statistics) Errors() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorCount()
}

// AverageLatency returns the mean exchange duration
func (s *Statistics) AverageLatency() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.TotalExchanges == 0 {
		return 0
	}
	return s.TotalElapsed / time.Duration(s.TotalExchanges)
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()

	var okPercent, timeoutPercent, truncPercent, transportPercent float64
	if s.TotalExchanges > 0 {
		total := float64(s.TotalExchanges)
		okPercent = float64(s.Succeeded) * 100.0 / total
		timeoutPercent = float64(s.Timeouts) * 100.0 / total
		truncPercent = float64(s.Truncations) * 100.0 / total
		transportPercent = float64(s.TransportErrors) * 100.0 / total
	}

	var avg time.Duration
	if s.TotalExchanges > 0 {
		avg = s.TotalElapsed / time.Duration(s.TotalExchanges)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Exchanges: %8d\n", s.TotalExchanges)
	result += fmt.Sprintf("Succeeded:       %8d (%.1f%%)\n", s.Succeeded, okPercent)

	if s.Timeouts > 0 {
		result += fmt.Sprintf("Timeouts:        %8d (%.1f%%)\n", s.Timeouts, timeoutPercent)
	}
	if s.Truncations > 0 {
		result += fmt.Sprintf("Truncated:       %8d (%.1f%%)\n", s.Truncations, truncPercent)
	}
	if s.TransportErrors > 0 {
		result += fmt.Sprintf("Transport Errors:%8d (%.1f%%)\n", s.TransportErrors, transportPercent)
	}

	result += fmt.Sprintf("  No reply:         %5d\n", s.NoReply)
	result += fmt.Sprintf("  Short replies:    %5d\n", s.ShortReplies)
	result += fmt.Sprintf("  Full replies:     %5d\n", s.FullReplies)
	result += fmt.Sprintf("Average Latency: %8s\n", avg.Round(time.Millisecond))
	result += fmt.Sprintf("Exchange Rate:   %8.1f /sec\n", s.ExchangeRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalExchanges = 0
	s.Succeeded = 0
	s.Timeouts = 0
	s.Truncations = 0
	s.TransportErrors = 0
	s.NoReply = 0
	s.ShortReplies = 0
	s.FullReplies = 0
	s.TotalElapsed = 0
	s.ExchangeRate = 0
	s.ErrorRate = 0
}
