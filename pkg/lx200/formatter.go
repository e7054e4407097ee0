// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lx200

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatRecord formats an exchange record into a human-readable line
func FormatRecord(r Record) string {
	timestamp := r.Time.Format("15:04:05.000")

	result := fmt.Sprintf("[%s] %s %s (timeout %s, %s)",
		timestamp, FormatBytes(r.Command), r.Shape, r.Timeout, r.Elapsed.Round(time.Millisecond))

	switch {
	case r.Err != nil && len(r.Response) > 0:
		result += fmt.Sprintf(" -> %s ERROR: %v", FormatBytes(r.Response), r.Err)
	case r.Err != nil:
		result += fmt.Sprintf(" ERROR: %v", r.Err)
	case r.Shape == ShapeNone:
		result += " -> (no reply expected)"
	default:
		result += " -> " + FormatBytes(r.Response)
	}
	return result + "\n"
}

// FormatBytes renders protocol bytes as text, escaping control and
// non-ASCII bytes (the ACK byte is shown as <ACK>).
func FormatBytes(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		switch {
		case c == ACK:
			sb.WriteString("<ACK>")
		case c == degreeGlyph:
			sb.WriteString("<DEG>")
		case c < 0x20 || c >= 0x7F:
			fmt.Fprintf(&sb, "\\x%02X", c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// ParseCommand is the inverse of FormatBytes for user input: "<ACK>" and
// "\xNN" escapes become the corresponding bytes.
func ParseCommand(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], "<ACK>"):
			out = append(out, ACK)
			i += len("<ACK>") - 1
		case strings.HasPrefix(s[i:], "<DEG>"):
			out = append(out, degreeGlyph)
			i += len("<DEG>") - 1
		case strings.HasPrefix(s[i:], "\\x"):
			if i+4 > len(s) {
				return nil, formatErr(s, "short \\x escape")
			}
			v, err := strconv.ParseUint(s[i+2:i+4], 16, 8)
			if err != nil {
				return nil, formatErr(s, "bad \\x escape")
			}
			out = append(out, byte(v))
			i += 3
		default:
			out = append(out, s[i])
		}
	}
	return out, nil
}
