// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lx200

import "math"

// MaxDuration is the longest duration a code represents, in seconds.
const MaxDuration = 3600.0

// EncodeDuration quantizes a duration in seconds to a single byte. The
// mapping is piecewise linear, coarser as durations grow:
//
//	<= 0.0162      -> 0       (1/64 s)
//	<= 0.0313      -> 1       (1/32 s)
//	<= 0.0625      -> 2       (1/16 s)
//	<= 1           -> 2..10   (1/8 s steps)
//	<= 10          -> 10..46  (1/4 s steps)
//	<= 30          -> 46..86  (1/2 s steps)
//	<= 120         -> 86..176 (1 s steps)
//	<= 600         -> 176..208 (15 s steps)
//	<= 3360        -> 208..254 (1 min steps)
//	<= 3600        -> 255     (1 hour)
//
// Durations above an hour saturate at 255 and NaN encodes as 0. Handset
// firmware sends 10 (one second) for both; this encoder clamps instead.
func EncodeDuration(t float64) uint8 {
	var v float64
	switch {
	case math.IsNaN(t):
		v = 0
	case t <= 0.0162:
		v = 0
	case t <= 0.0313:
		v = 1
	case t <= 0.0625:
		v = 2
	case t <= 1.0:
		v = 2.0 + t*8.0
	case t <= 10.0:
		v = 6.0 + t*4.0
	case t <= 30.0:
		v = 26.0 + t*2.0
	case t <= 120.0:
		v = 56.0 + t
	case t <= 600.0:
		v = 168.0 + t/15.0
	case t <= 3360.0:
		v = 198.0 + t/60.0
	default:
		v = 255
	}

	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(math.Round(v))
}

// DecodeDuration returns the duration in seconds represented by a code
// produced by EncodeDuration.
func DecodeDuration(b uint8) float64 {
	switch {
	case b == 0:
		return 0.016125
	case b == 1:
		return 0.03125
	case b == 2:
		return 0.0625
	case b <= 10:
		return (float64(b) - 2.0) / 8.0
	case b <= 46:
		return (float64(b) - 6.0) / 4.0
	case b <= 86:
		return (float64(b) - 26.0) / 2.0
	case b <= 176:
		return float64(b) - 56.0
	case b <= 208:
		return (float64(b) - 168.0) * 15.0
	case b <= 254:
		return (float64(b) - 198.0) * 60.0
	default:
		return MaxDuration
	}
}
