// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lx200

import (
	"fmt"
	"time"
)

// Shape is the kind of reply a command produces
type Shape int

// Reply shapes
const (
	ShapeFull  Shape = iota // '#' terminated, variable length
	ShapeShort              // Exactly one byte, no terminator
	ShapeNone               // Nothing is sent back
)

// String returns the shape name
func (s Shape) String() string {
	switch s {
	case ShapeFull:
		return "FULL"
	case ShapeShort:
		return "SHORT"
	case ShapeNone:
		return "NONE"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Classification is the expected reply shape and the effective timeout for
// one command.
type Classification struct {
	Shape   Shape
	Timeout time.Duration
}

type rule struct {
	shape      Shape
	minTimeout time.Duration
}

// classifyRules lists, per command family, the sub-letters whose reply is
// not a plain full reply or that need more time than the caller's base
// timeout. The "$QZ" family is keyed on its fifth byte.
var classifyRules = []struct {
	family string
	subs   string
	rule   rule
}{
	{"G", "RDE", rule{ShapeFull, slowTimeout}},
	{"M", "ewnsg", rule{ShapeNone, 0}},
	{"M", "SAP", rule{ShapeShort, 0}},
	{"Q", "#ewns", rule{ShapeNone, 0}},
	{"A", "W123456789+", rule{ShapeShort, verySlowTimeout}},
	{"F", "+-QZHhF1234", rule{ShapeNone, 0}},
	{"F", "Ap", rule{ShapeShort, 0}},
	{"f", "+-QZHhF1234", rule{ShapeNone, 0}},
	{"f", "Ap", rule{ShapeShort, 0}},
	{"r", "+-PRFC<>Q1234", rule{ShapeNone, 0}},
	{"r", "~S", rule{ShapeShort, 0}},
	{"R", "AEGCMS0123456789", rule{ShapeNone, 0}},
	{"S", "CLSGtgMNOPrdhoTBX", rule{ShapeShort, 0}},
	{"L", "BNCDL!", rule{ShapeNone, 0}},
	{"L", "o$W", rule{ShapeShort, verySlowTimeout}},
	{"B", "+-", rule{ShapeNone, 0}},
	{"C", "S", rule{ShapeNone, 0}},
	{"h", "FC", rule{ShapeNone, verySlowTimeout}},
	{"h", "QPR", rule{ShapeShort, slowTimeout}},
	{"T", "QR+-SLK", rule{ShapeNone, 0}},
	{"T", "edrn", rule{ShapeShort, 0}},
	{"W", "?", rule{ShapeFull, 0}},
	{"$QZ", "+-Z/!", rule{ShapeNone, 0}},
}

// familyRules apply to every sub-letter of a family without an explicit
// entry in classifyRules.
var familyRules = map[byte]rule{
	'U': {ShapeNone, 0},
	'W': {ShapeNone, 0},
}

// dispatch maps family + sub-letter (e.g. "MS", "$QZ+") to its rule
var dispatch = buildDispatch()

func buildDispatch() map[string]rule {
	table := make(map[string]rule)
	for _, r := range classifyRules {
		for i := 0; i < len(r.subs); i++ {
			key := r.family + string(r.subs[i])
			if _, dup := table[key]; dup {
				panic(fmt.Sprintf("lx200: duplicate classify rule %q", key))
			}
			table[key] = r.rule
		}
	}
	return table
}

// Classify decides the reply shape of cmd and the timeout to wait for it.
// The returned timeout is never lower than base.
//
// Only commands framed by ':' or ';' are looked up; anything else expects a
// full reply, except the legacy ACK byte which always gets a one byte
// reply. Commands framed by ';' use the checksum protocol and always get a
// full reply within the base timeout.
func Classify(cmd []byte, base time.Duration) Classification {
	c := Classification{Shape: ShapeFull, Timeout: base}

	if isACK(cmd) {
		c.Shape = ShapeShort
		return c
	}
	// FrameChecksum and unframed input keep the full reply and base timeout
	if len(cmd) < 2 || cmd[0] != FrameStandard {
		return c
	}

	r, ok := lookup(cmd)
	if !ok {
		return c
	}
	c.Shape = r.shape
	if c.Timeout < r.minTimeout {
		c.Timeout = r.minTimeout
	}
	return c
}

func lookup(cmd []byte) (rule, bool) {
	family := cmd[1]
	if len(cmd) >= 3 {
		if family == '$' {
			if len(cmd) >= 5 && cmd[2] == 'Q' && cmd[3] == 'Z' {
				r, ok := dispatch[string(cmd[1:5])]
				return r, ok
			}
			return rule{}, false
		}
		if r, ok := dispatch[string(cmd[1:3])]; ok {
			return r, true
		}
	}
	r, ok := familyRules[family]
	return r, ok
}

func isACK(cmd []byte) bool {
	switch len(cmd) {
	case 1:
		return cmd[0] == ACK
	case 2:
		return cmd[0] == ACK && cmd[1] == 0
	}
	return false
}
