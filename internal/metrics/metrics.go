// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exports exchange counters and latencies to Prometheus
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Thermoquad/meridian/pkg/lx200"
)

// Exchange results used as the "result" label
const (
	ResultOK        = "ok"
	ResultTimeout   = "timeout"
	ResultTruncated = "truncated"
	ResultTransport = "transport"
)

// NewRegistry creates a registry with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the scrape handler for reg
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// NewServer returns an HTTP server exposing reg at path
func NewServer(addr, path string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, Handler(reg))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ExchangeMetrics is an lx200.Observer feeding Prometheus collectors
type ExchangeMetrics struct {
	Exchanges    *prometheus.CounterVec   // labels: family, shape, result
	Latency      *prometheus.HistogramVec // labels: shape
	ReplyBytes   prometheus.Histogram
	LastExchange prometheus.Gauge
}

// NewExchangeMetrics registers and returns the exchange collectors
func NewExchangeMetrics(reg prometheus.Registerer) *ExchangeMetrics {
	m := &ExchangeMetrics{
		Exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lx200_exchanges_total",
			Help: "Command exchanges by command family, reply shape and result.",
		}, []string{"family", "shape", "result"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lx200_exchange_duration_seconds",
			Help:    "Time from writing a command to the end of its reply.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.3, 0.5, 1, 2},
		}, []string{"shape"}),
		ReplyBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lx200_reply_bytes",
			Help:    "Reply length in bytes.",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, float64(lx200.MaxResponseLength)},
		}),
		LastExchange: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lx200_last_exchange_timestamp_seconds",
			Help: "Unix time of the most recent exchange.",
		}),
	}
	reg.MustRegister(m.Exchanges, m.Latency, m.ReplyBytes, m.LastExchange)
	return m
}

// Observe implements lx200.Observer
func (m *ExchangeMetrics) Observe(r lx200.Record) {
	shape := r.Shape.String()
	m.Exchanges.WithLabelValues(Family(r.Command), shape, Result(r.Err)).Inc()
	if r.Shape != lx200.ShapeNone {
		m.Latency.WithLabelValues(shape).Observe(r.Elapsed.Seconds())
		m.ReplyBytes.Observe(float64(len(r.Response)))
	}
	m.LastExchange.Set(float64(r.Time.UnixNano()) / 1e9)
}

// Result maps an exchange error to its label value
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, lx200.ErrTimeout):
		return ResultTimeout
	case errors.Is(err, lx200.ErrTruncated):
		return ResultTruncated
	default:
		return ResultTransport
	}
}

// Family returns the command family letter used as a label. Anything that
// is not a framed command with a letter family is grouped so the label set
// stays small.
func Family(cmd []byte) string {
	if len(cmd) >= 1 && cmd[0] == lx200.ACK {
		return "ack"
	}
	if len(cmd) < 2 || (cmd[0] != lx200.FrameStandard && cmd[0] != lx200.FrameChecksum) {
		return "other"
	}
	c := cmd[1]
	if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '$' {
		return string(c)
	}
	return "other"
}
