// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lx200

import (
	"fmt"
	"math"
	"strings"
)

// Rounding added before truncation in low precision: half a second of time
// (or half an arc-second), expressed in hours (or degrees).
const lowPrecisionEpsilon = 0.000139

// Fractional second digits emitted in high precision
const (
	hmsFractionDigits = 4
	dmsFractionDigits = 3
)

// ParseHMS converts "HH:MM:SS" or "HH:MM:SS.ffff" to hours. Leading spaces
// are ignored and anything past 13 characters is dropped.
func ParseHMS(s string) (float64, error) {
	in := s
	s = trimAngle(s)
	if len(s) != 8 && len(s) < 10 {
		return 0, formatErr(in, "expected HH:MM:SS[.ffff]")
	}

	h, err := ParseInt(s[0:2], false)
	if err != nil {
		return 0, formatErr(in, "bad hours")
	}
	if s[2] != ':' {
		return 0, formatErr(in, "expected ':' after hours")
	}
	m, err := ParseInt(s[3:5], false)
	if err != nil {
		return 0, formatErr(in, "bad minutes")
	}
	if s[5] != ':' {
		return 0, formatErr(in, "expected ':' after minutes")
	}
	sec, err := ParseFloat(s[6:], false)
	if err != nil {
		return 0, formatErr(in, "bad seconds")
	}

	if h > 23 || m > 59 || sec < 0 || sec > 59.9999 {
		return 0, formatErr(in, "component out of range")
	}
	return float64(h) + float64(m)/60.0 + sec/3600.0, nil
}

// FormatHMS formats hours as [-]HH:MM:SS.ffff. See FormatHMSPrecision for
// rounding at the top of the range.
func FormatHMS(v float64) string {
	return FormatHMSPrecision(v, PrecisionHigh)
}

// FormatHMSPrecision formats hours as [-]HH:MM:SS.ffff or, in low
// precision, [-]HH:MM:SS. The sign is only written when the rounded
// magnitude is non-zero. Rounding is not wrapped, so values just below 24
// hours come out as "24:00:00.0000", which ParseHMS rejects.
func FormatHMSPrecision(v float64, p Precision) string {
	h, m, s, frac, negative := splitSexagesimal(v, p, hmsFractionDigits)

	sign := ""
	if negative {
		sign = "-"
	}
	if p == PrecisionLow {
		return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%s%02d:%02d:%02d.%0*d", sign, h, m, s, hmsFractionDigits, frac)
}

// ParseDMS converts an angle to degrees. With signPresent the expected form
// is sDD:MM:SS[.fff] limited to [-90, 90]; otherwise DDD:MM:SS[.fff] limited
// to [0, 360]. The degrees separator may be ':', '*' or the degree glyph
// (0xDF); the seconds separator may be ':' or an apostrophe.
func ParseDMS(s string, signPresent bool) (float64, error) {
	in := s
	s = trimAngle(s)
	if len(s) != 9 && len(s) < 11 {
		return 0, formatErr(in, "expected sDD:MM:SS or DDD:MM:SS")
	}

	sign := 1.0
	var digits string
	if signPresent {
		switch s[0] {
		case '-':
			sign = -1.0
		case '+':
		default:
			return 0, formatErr(in, "missing sign")
		}
		digits = s[1:3]
	} else {
		digits = s[0:3]
	}
	d, err := ParseInt(digits, false)
	if err != nil {
		return 0, formatErr(in, "bad degrees")
	}

	pos := 3
	if c := s[pos]; c != ':' && c != '*' && c != degreeGlyph {
		return 0, formatErr(in, "bad degrees separator")
	}
	m, err := ParseInt(s[pos+1:pos+3], false)
	if err != nil {
		return 0, formatErr(in, "bad minutes")
	}
	if c := s[pos+3]; c != ':' && c != '\'' {
		return 0, formatErr(in, "bad minutes separator")
	}
	sec, err := ParseFloat(s[pos+4:], false)
	if err != nil {
		return 0, formatErr(in, "bad seconds")
	}

	low, high := 0, 360
	if signPresent {
		low, high = -90, 90
	}
	if d < low || d > high || m > 59 || sec < 0 || sec > 59.999 {
		return 0, formatErr(in, "component out of range")
	}
	return sign * (float64(d) + float64(m)/60.0 + sec/3600.0), nil
}

// FormatDMS formats degrees as sDD*MM:SS.fff. fullRange widens the degrees
// field to three digits; signPresent always writes a leading '+' or '-'.
func FormatDMS(v float64, fullRange, signPresent bool) string {
	return FormatDMSPrecision(v, fullRange, signPresent, PrecisionHigh)
}

// FormatDMSPrecision is FormatDMS with a selectable precision.
func FormatDMSPrecision(v float64, fullRange, signPresent bool, p Precision) string {
	d, m, s, frac, negative := splitSexagesimal(v, p, dmsFractionDigits)

	var b strings.Builder
	if signPresent {
		if negative {
			b.WriteByte('-')
		} else {
			b.WriteByte('+')
		}
	}
	width := 2
	if fullRange {
		width = 3
	}
	fmt.Fprintf(&b, "%0*d*%02d:%02d", width, d, m, s)
	if p == PrecisionHigh {
		fmt.Fprintf(&b, ".%0*d", dmsFractionDigits, frac)
	}
	return b.String()
}

// splitSexagesimal rounds |v| to the precision's smallest tick and splits it
// into whole units, minutes, seconds and fractional-second ticks.
func splitSexagesimal(v float64, p Precision, fracDigits int) (units, minutes, seconds, frac int64, negative bool) {
	scale := int64(1)
	if p == PrecisionHigh {
		for i := 0; i < fracDigits; i++ {
			scale *= 10
		}
	}
	perUnit := 3600 * scale

	var ticks int64
	if p == PrecisionLow {
		ticks = int64(math.Floor((math.Abs(v) + lowPrecisionEpsilon) * 3600))
	} else {
		ticks = int64(math.Floor(math.Abs(v)*float64(perUnit) + 0.5))
	}

	units = ticks / perUnit
	rem := ticks % perUnit
	minutes = rem / (60 * scale)
	rem %= 60 * scale
	seconds = rem / scale
	frac = rem % scale
	negative = v < 0 && ticks != 0
	return units, minutes, seconds, frac, negative
}

func trimAngle(s string) string {
	s = strings.TrimLeft(s, " ")
	if len(s) > maxAngleLength {
		s = s[:maxAngleLength]
	}
	return s
}
