// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lx200

import "strconv"

// ParseInt converts a short decimal field. The field must be 1 to 6
// characters of digits, optionally preceded by '+' or '-' when signAllowed
// is set, and the value must lie in [-32767, 32768].
func ParseInt(s string, signAllowed bool) (int, error) {
	if len(s) == 0 {
		return 0, formatErr(s, "empty integer")
	}
	if len(s) > maxIntLength {
		return 0, formatErr(s, "integer field too long")
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if i == 0 && signAllowed && (c == '+' || c == '-') {
			continue
		}
		if c < '0' || c > '9' {
			return 0, formatErr(s, "illegal character in integer")
		}
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, formatErr(s, "no digits")
	}
	if v < minIntValue || v > maxIntValue {
		return 0, formatErr(s, "integer out of range")
	}
	return v, nil
}

// ParseFloat converts a decimal field with at most one decimal point. A
// leading '+' or '-' is accepted only when signAllowed is set.
func ParseFloat(s string, signAllowed bool) (float64, error) {
	points := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if i == 0 && signAllowed && (c == '+' || c == '-') {
			continue
		}
		if c == '.' {
			points++
			if points > 1 {
				return 0, formatErr(s, "second decimal point")
			}
			continue
		}
		if c < '0' || c > '9' {
			return 0, formatErr(s, "illegal character in number")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, formatErr(s, "no digits")
	}
	return v, nil
}

// StripNumeric removes trailing zeros after a decimal point (and the point
// itself when nothing is left behind it) and then leading zeros, keeping a
// single zero in front of the decimal point.
func StripNumeric(s string) string {
	b := []byte(s)

	point := -1
	for i, c := range b {
		if c == '.' {
			point = i
			break
		}
	}
	if point != -1 {
		end := len(b)
		for end > point+1 && b[end-1] == '0' {
			end--
		}
		if end == point+1 {
			end = point
		}
		b = b[:end]
	}

	for len(b) > 1 && b[0] == '0' && b[1] != '.' {
		b = b[1:]
	}
	return string(b)
}
