// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/meridian/pkg/lx200"
)

func TestResult(t *testing.T) {
	assert.Equal(t, ResultOK, Result(nil))
	assert.Equal(t, ResultTimeout, Result(lx200.ErrTimeout))
	assert.Equal(t, ResultTruncated, Result(fmt.Errorf("%w: long", lx200.ErrTruncated)))
	assert.Equal(t, ResultTransport, Result(errors.New("write command: eof")))
}

func TestFamily(t *testing.T) {
	tests := map[string]string{
		":GR#":   "G",
		";GD#":   "G",
		":$QZ+#": "$",
		"\x06":   "ack",
		":#":     "other",
		"GR#":    "other",
		":":      "other",
		"":       "other",
	}
	for cmd, want := range tests {
		assert.Equal(t, want, Family([]byte(cmd)), "%q", cmd)
	}
}

func TestExchangeMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewExchangeMetrics(reg)
	at := time.Unix(1700000000, 0)

	m.Observe(lx200.Record{Time: at, Command: []byte(":GR#"), Response: []byte("12:34:56#"),
		Shape: lx200.ShapeFull, Elapsed: 20 * time.Millisecond})
	m.Observe(lx200.Record{Time: at, Command: []byte(":GR#"), Shape: lx200.ShapeFull,
		Elapsed: 300 * time.Millisecond, Err: lx200.ErrTimeout})
	m.Observe(lx200.Record{Time: at.Add(time.Second), Command: []byte(":Qn#"), Shape: lx200.ShapeNone})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exchanges.WithLabelValues("G", "FULL", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exchanges.WithLabelValues("G", "FULL", ResultTimeout)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exchanges.WithLabelValues("Q", "NONE", ResultOK)))
	assert.Equal(t, float64(1700000001), testutil.ToFloat64(m.LastExchange))

	// No-reply exchanges are not timed
	assert.Equal(t, 1, testutil.CollectAndCount(m.Latency))
	assert.Equal(t, 3, testutil.CollectAndCount(m.Exchanges))
}

func TestExchangeMetrics_AsTransceiverObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewExchangeMetrics(reg)

	var obs lx200.Observer = m
	obs.Observe(lx200.Record{Command: []byte(":MS#"), Response: []byte("0"), Shape: lx200.ShapeShort})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exchanges.WithLabelValues("M", "SHORT", ResultOK)))
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	m := NewExchangeMetrics(reg)
	m.Observe(lx200.Record{Command: []byte(":GV#"), Response: []byte("1#"), Shape: lx200.ShapeFull})

	srv := httptest.NewServer(NewServer("", "/metrics", reg).Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `lx200_exchanges_total{family="G",result="ok",shape="FULL"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
