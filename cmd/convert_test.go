// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/meridian/pkg/lx200"
)

func TestConvertHMS(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		p    lx200.Precision
		want string
	}{
		{"parse", "12:30:00", lx200.PrecisionHigh, "12.500000"},
		{"parse fraction", "06:00:36.0000", lx200.PrecisionHigh, "6.010000"},
		{"format high", "12.5", lx200.PrecisionHigh, "12:30:00.0000"},
		{"format low", "12.5", lx200.PrecisionLow, "12:30:00"},
		{"format negative", "-1.5", lx200.PrecisionLow, "-01:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, convertHMS(&out, tt.arg, tt.p))
			assert.Equal(t, tt.want+"\n", out.String())
		})
	}
}

func TestConvertHMS_Invalid(t *testing.T) {
	var out bytes.Buffer
	err := convertHMS(&out, "12h30m", lx200.PrecisionHigh)
	assert.ErrorIs(t, err, lx200.ErrInvalidFormat)
	assert.Empty(t, out.String())
}

func TestConvertDMS(t *testing.T) {
	tests := []struct {
		name      string
		arg       string
		signed    bool
		fullRange bool
		p         lx200.Precision
		want      string
	}{
		{"parse signed", "-45*30:00", true, false, lx200.PrecisionHigh, "-45.500000"},
		{"parse unsigned", "123*15:00", false, false, lx200.PrecisionHigh, "123.250000"},
		{"format signed", "-45.5", true, false, lx200.PrecisionHigh, "-45*30:00.000"},
		{"format positive low", "10.25", true, false, lx200.PrecisionLow, "+10*15:00"},
		{"format full range", "123.25", false, true, lx200.PrecisionLow, "123*15:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, convertDMS(&out, tt.arg, tt.signed, tt.fullRange, tt.p))
			assert.Equal(t, tt.want+"\n", out.String())
		})
	}
}

func TestConvertDMS_MissingSign(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorIs(t, convertDMS(&out, "45*30:00", true, false, lx200.PrecisionHigh), lx200.ErrInvalidFormat)
}

func TestPrintClassification(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printClassification(&out, []string{":GR#", ":MS#", ":Qn#", "<ACK>", ";GR#"}, 100*time.Millisecond))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, []string{"COMMAND", "SHAPE", "TIMEOUT"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{":GR#", "FULL", "300ms"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{":MS#", "SHORT", "100ms"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{":Qn#", "NONE", "100ms"}, strings.Fields(lines[3]))
	assert.Equal(t, []string{"<ACK>", "SHORT", "100ms"}, strings.Fields(lines[4]))
	assert.Equal(t, []string{";GR#", "FULL", "100ms"}, strings.Fields(lines[5]))
}

func TestPrintClassification_BadEscape(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, printClassification(&out, []string{`:GR\xZZ#`}, time.Second))
}

func TestMountModeName(t *testing.T) {
	assert.Equal(t, "alt-azimuth", mountModeName('A'))
	assert.Equal(t, "polar", mountModeName('P'))
	assert.Equal(t, "german equatorial", mountModeName('G'))
	assert.Equal(t, "land", mountModeName('L'))
	assert.Equal(t, `unknown (\x00)`, mountModeName(0))
}
