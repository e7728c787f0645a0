// Copyright 2026 WinoFPGA Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fixedpoint implements the saturating fixed-point requantization
// arithmetic shared by the scalar kernels and the CFU model.
//
// A quantized multiplier is a Q0.31 fixed-point value in [1<<30, 1<<31)
// paired with a power-of-two shift. Rescaling an accumulator is
//
//	result = RoundingDivideByPOT(SRDHM(acc << leftShift, multiplier), rightShift)
//
// where a positive shift is applied on the left and a negative shift on the
// right. Both code paths must produce bit-identical results, so every
// rounding rule here is normative, not approximate.
package fixedpoint

import "math"

// SaturatingRoundingDoublingHighMul returns the high 32 bits of 2*a*b with
// round-to-nearest. The only saturating case is a == b == math.MinInt32,
// which yields math.MaxInt32.
func SaturatingRoundingDoublingHighMul(a, b int32) int32 {
	if a == math.MinInt32 && b == math.MinInt32 {
		return math.MaxInt32
	}
	ab := int64(a) * int64(b)
	var nudge int64
	if ab >= 0 {
		nudge = 1 << 30
	} else {
		nudge = 1 - (1 << 30)
	}
	// Truncating division, not an arithmetic shift: for negative products
	// the two round differently and the hardware post-processor truncates.
	return int32((ab + nudge) / (1 << 31))
}

// RoundingDivideByPOT divides x by 2^exponent, rounding half away from zero.
// exponent must be in [0, 31].
func RoundingDivideByPOT(x int32, exponent int) int32 {
	mask := int32(1)<<exponent - 1
	remainder := x & mask
	threshold := mask >> 1
	if x < 0 {
		threshold++
	}
	result := x >> exponent
	if remainder > threshold {
		result++
	}
	return result
}

// MultiplyByQuantizedMultiplier rescales a 32-bit accumulator by a quantized
// multiplier/shift pair. A positive shift is a left shift applied before the
// doubling high multiply; a negative shift is a rounding right shift applied
// after.
func MultiplyByQuantizedMultiplier(x, multiplier int32, shift int) int32 {
	leftShift := 0
	rightShift := 0
	if shift > 0 {
		leftShift = shift
	} else {
		rightShift = -shift
	}
	return RoundingDivideByPOT(
		SaturatingRoundingDoublingHighMul(x<<leftShift, multiplier), rightShift)
}

// MultiplyByQuantizedMultiplier64 rescales a 64-bit accumulator, as used by
// the 16-bit kernel. shift must be in [-31, 30]. The product
// acc * multiplier is assumed to fit in 64 bits; with accumulators bounded
// by the 2^16-tap window invariant this holds.
func MultiplyByQuantizedMultiplier64(acc int64, multiplier int32, shift int) int32 {
	totalShift := 31 - shift
	round := int64(1) << (totalShift - 1)
	result := acc*int64(multiplier) + round
	result >>= totalShift
	if result > math.MaxInt32 {
		return math.MaxInt32
	}
	if result < math.MinInt32 {
		return math.MinInt32
	}
	return int32(result)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi int32) int32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// ClampFloat limits x to [lo, hi].
func ClampFloat(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
