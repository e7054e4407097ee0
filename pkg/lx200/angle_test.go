// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lx200

import (
	"errors"
	"math"
	"testing"
)

const angleTolerance = 1e-9

func TestParseHMS(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "whole seconds", input: "12:34:56", want: 12 + 34.0/60 + 56.0/3600},
		{name: "fractional seconds", input: "01:02:03.5", want: 1 + 2.0/60 + 3.5/3600},
		{name: "four fraction digits", input: "23:59:59.9999", want: 23 + 59.0/60 + 59.9999/3600},
		{name: "leading spaces", input: "   06:00:00", want: 6},
		{name: "long input truncated", input: "12:34:56.12345", want: 12 + 34.0/60 + 56.1234/3600},
		{name: "midnight", input: "00:00:00", want: 0},
		{name: "hours out of range", input: "24:00:00", wantErr: true},
		{name: "minutes out of range", input: "12:60:00", wantErr: true},
		{name: "seconds out of range", input: "12:00:60", wantErr: true},
		{name: "wrong separator", input: "12-34-56", wantErr: true},
		{name: "second separator wrong", input: "12:34-56", wantErr: true},
		{name: "too short", input: "1:34:56", wantErr: true},
		{name: "length nine", input: "12:34:56.", wantErr: true},
		{name: "letters in seconds", input: "12:34:56.x", wantErr: true},
		{name: "signed hours", input: "-1:34:56", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHMS(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFormat) {
					t.Fatalf("ParseHMS(%q) = %v, %v; want ErrInvalidFormat", tt.input, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHMS(%q) error: %v", tt.input, err)
			}
			if math.Abs(got-tt.want) > angleTolerance {
				t.Errorf("ParseHMS(%q) = %.9f, want %.9f", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatHMS(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		precision Precision
		want      string
	}{
		{"high whole seconds", 12 + 34.0/60 + 56.0/3600, PrecisionHigh, "12:34:56.0000"},
		{"high fraction", 1 + 2.0/60 + 3.25/3600, PrecisionHigh, "01:02:03.2500"},
		{"high negative", -1.5, PrecisionHigh, "-01:30:00.0000"},
		{"high negative zero after rounding", -1e-12, PrecisionHigh, "00:00:00.0000"},
		{"low whole seconds", 12 + 34.0/60 + 56.0/3600, PrecisionLow, "12:34:56"},
		{"low rounds half second up", 1 - 0.4/3600, PrecisionLow, "01:00:00"},
		{"low negative", -(2 + 0.5/60), PrecisionLow, "-02:00:30"},
		{"low tiny negative", -0.0001, PrecisionLow, "00:00:00"},
		{"high rolls over to 24", 23.99999999, PrecisionHigh, "24:00:00.0000"},
		{"low rolls over to 24", 23.9999, PrecisionLow, "24:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatHMSPrecision(tt.value, tt.precision)
			if got != tt.want {
				t.Errorf("FormatHMSPrecision(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}

	if got := FormatHMS(6); got != "06:00:00.0000" {
		t.Errorf("FormatHMS(6) = %q, want high precision", got)
	}
}

func TestFormatHMS_RolloverDoesNotParse(t *testing.T) {
	text := FormatHMS(23.99999999)
	if _, err := ParseHMS(text); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("ParseHMS(%q) error = %v, want ErrInvalidFormat", text, err)
	}
}

func TestParseDMS(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		sign    bool
		want    float64
		wantErr bool
	}{
		{name: "signed positive", input: "+45*30:15", sign: true, want: 45 + 30.0/60 + 15.0/3600},
		{name: "signed negative", input: "-45*30:15", sign: true, want: -(45 + 30.0/60 + 15.0/3600)},
		{name: "negative below one degree", input: "-00*30:00", sign: true, want: -0.5},
		{name: "colon separator", input: "+10:20:30", sign: true, want: 10 + 20.0/60 + 30.0/3600},
		{name: "degree glyph", input: "+45\xdf30:15", sign: true, want: 45 + 30.0/60 + 15.0/3600},
		{name: "apostrophe", input: "+45*30'15", sign: true, want: 45 + 30.0/60 + 15.0/3600},
		{name: "fractional seconds", input: "+45*30:15.5", sign: true, want: 45 + 30.0/60 + 15.5/3600},
		{name: "pole", input: "+90*00:00", sign: true, want: 90},
		{name: "unsigned three digits", input: "123:45:06", want: 123 + 45.0/60 + 6.0/3600},
		{name: "unsigned full circle", input: "360:00:00", want: 360},
		{name: "unsigned fraction", input: "001*02:03.125", want: 1 + 2.0/60 + 3.125/3600},
		{name: "leading spaces", input: "  +01*00:00", sign: true, want: 1},
		{name: "beyond pole", input: "+91*00:00", sign: true, wantErr: true},
		{name: "beyond full circle", input: "361:00:00", wantErr: true},
		{name: "missing sign", input: "045*30:15", sign: true, wantErr: true},
		{name: "unexpected sign", input: "+45*30:15", sign: false, wantErr: true},
		{name: "length ten", input: "+45*30:15.", sign: true, wantErr: true},
		{name: "too short", input: "+45*30:1", sign: true, wantErr: true},
		{name: "minutes out of range", input: "+45*60:00", sign: true, wantErr: true},
		{name: "seconds out of range", input: "+45*30:60", sign: true, wantErr: true},
		{name: "bad degrees separator", input: "+45/30:15", sign: true, wantErr: true},
		{name: "bad minutes separator", input: "+45*30/15", sign: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDMS(tt.input, tt.sign)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFormat) {
					t.Fatalf("ParseDMS(%q, %v) = %v, %v; want ErrInvalidFormat", tt.input, tt.sign, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDMS(%q, %v) error: %v", tt.input, tt.sign, err)
			}
			if math.Abs(got-tt.want) > angleTolerance {
				t.Errorf("ParseDMS(%q) = %.9f, want %.9f", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatDMS(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		fullRange bool
		sign      bool
		precision Precision
		want      string
	}{
		{"signed high", 45 + 30.0/60 + 15.0/3600, false, true, PrecisionHigh, "+45*30:15.000"},
		{"negative high", -12.25, false, true, PrecisionHigh, "-12*15:00.000"},
		{"zero keeps plus", 0, false, true, PrecisionHigh, "+00*00:00.000"},
		{"full range unsigned", 123.75, true, false, PrecisionHigh, "123*45:00.000"},
		{"signed low", 45 + 30.0/60 + 15.0/3600, false, true, PrecisionLow, "+45*30:15"},
		{"full range low", 7.5, true, false, PrecisionLow, "007*30:00"},
		{"signed full range", -100.5, true, true, PrecisionLow, "-100*30:00"},
		{"unsigned negative drops sign", -5.5, false, false, PrecisionLow, "05*30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDMSPrecision(tt.value, tt.fullRange, tt.sign, tt.precision)
			if got != tt.want {
				t.Errorf("FormatDMSPrecision(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}

	if got := FormatDMS(-12.25, false, true); got != "-12*15:00.000" {
		t.Errorf("FormatDMS default precision = %q", got)
	}
}

func TestHMSRoundTrip_Boundaries(t *testing.T) {
	inputs := []string{"00:00:00.0000", "23:59:59.9999", "12:00:00.0001", "09:08:07.0600"}
	for _, in := range inputs {
		v, err := ParseHMS(in)
		if err != nil {
			t.Fatalf("ParseHMS(%q) error: %v", in, err)
		}
		if got := FormatHMS(v); got != in {
			t.Errorf("FormatHMS(ParseHMS(%q)) = %q", in, got)
		}
	}
}
