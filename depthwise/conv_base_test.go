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

package depthwise

import (
	"math"
	"testing"

	"github.com/2270142596/WinoFPGA/cfu"
	"github.com/2270142596/WinoFPGA/tensor"
)

// identityQuant returns a multiplier/shift pair representing identity
// scaling for every output channel.
func identityQuant(outputDepth int) (multiplier, shift []int32) {
	multiplier = make([]int32, outputDepth)
	shift = make([]int32, outputDepth)
	for i := range multiplier {
		multiplier[i] = 1 << 30
		shift[i] = 1
	}
	return multiplier, shift
}

func samePad3x3Params() *Params {
	return &Params{
		StrideWidth: 1, StrideHeight: 1,
		DilationWidth: 1, DilationHeight: 1,
		PadWidth: 1, PadHeight: 1,
		DepthMultiplier:        1,
		QuantizedActivationMin: -128,
		QuantizedActivationMax: 127,
	}
}

// paddedRefConv computes a single-channel 3x3 convolution over an
// explicitly built zero-padded grid. Structured deliberately unlike the
// kernel's tap-skipping loops so the two act as independent oracles.
func paddedRefConv(input []int64, h, w int, filter [3][3]int64, inputOffset int64) []int64 {
	pw := w + 2
	padded := make([]int64, (h+2)*pw)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			padded[(y+1)*pw+x+1] = input[y*w+x] + inputOffset
		}
	}
	out := make([]int64, h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc int64
			for fy := 0; fy < 3; fy++ {
				for fx := 0; fx < 3; fx++ {
					acc += filter[fy][fx] * padded[(y+fy)*pw+x+fx]
				}
			}
			out[y*w+x] = acc
		}
	}
	return out
}

// A filter whose only nonzero tap is the center reproduces its input under
// identity requantization.
func TestBaseConvPerChannelIdentityFilter(t *testing.T) {
	const h, w, depth = 6, 6, 3
	inputShape := tensor.NewShape(1, h, w, depth)
	filterShape := tensor.NewShape(1, 3, 3, depth)
	outputShape := inputShape

	input := make([]int8, inputShape.FlatSize())
	for i := range input {
		input[i] = int8(i*7%251 - 125)
	}
	filter := make([]int8, filterShape.FlatSize())
	for c := 0; c < depth; c++ {
		filter[filterShape.Offset(0, 1, 1, c)] = 1
	}
	output := make([]int8, outputShape.FlatSize())

	multiplier, shift := identityQuant(depth)
	BaseConvPerChannel(samePad3x3Params(), multiplier, shift,
		inputShape, input, filterShape, filter, nil, outputShape, output)

	for i := range output {
		if output[i] != input[i] {
			t.Fatalf("output[%d]: got %d, want %d", i, output[i], input[i])
		}
	}
}

// The manually verified boundary scenario: 8x8 input, 3x3 all-ones filter,
// stride 1, zero offsets, identity rescale. Both the scalar kernel and the
// accelerated path must match a direct convolution over an explicitly
// zero-padded grid.
func TestBaseConvPerChannelManual8x8(t *testing.T) {
	const h, w = 8, 8
	inputShape := tensor.NewShape(1, h, w, 1)
	filterShape := tensor.NewShape(1, 3, 3, 1)
	outputShape := inputShape

	input := make([]int8, h*w)
	ref := make([]int64, h*w)
	for i := range input {
		input[i] = int8(i%13 - 6)
		ref[i] = int64(input[i])
	}
	filter := make([]int8, filterShape.FlatSize())
	for i := range filter {
		filter[i] = 1
	}
	output := make([]int8, h*w)

	multiplier, shift := identityQuant(1)
	BaseConvPerChannel(samePad3x3Params(), multiplier, shift,
		inputShape, input, filterShape, filter, nil, outputShape, output)

	ones := [3][3]int64{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}
	want := paddedRefConv(ref, h, w, ones, 0)
	for i := range output {
		if int64(output[i]) != want[i] {
			t.Errorf("output[%d] (y=%d x=%d): got %d, want %d",
				i, i/w, i%w, output[i], want[i])
		}
	}

	// Same grid through the accelerated path.
	sim := cfu.NewSim()
	SetAccelerator(sim)
	defer SetAccelerator(nil)
	accelerated := make([]int8, h*w)
	ConvPerChannel(samePad3x3Params(), multiplier, shift,
		inputShape, input, filterShape, filter, nil, outputShape, accelerated)
	if sim.Runs() != 1 {
		t.Fatalf("device runs: got %d, want 1", sim.Runs())
	}
	for i := range accelerated {
		if int64(accelerated[i]) != want[i] {
			t.Errorf("accelerated output[%d] (y=%d x=%d): got %d, want %d",
				i, i/w, i%w, accelerated[i], want[i])
		}
	}
}

func TestBaseConvPerChannelBiasOffsetsAndClamp(t *testing.T) {
	// 1x1 filter with no padding keeps the arithmetic hand-checkable:
	// acc = 2*(10+5) = 30, +bias 4 = 34, *0.5 = 17, +outputOffset 3 = 20.
	inputShape := tensor.NewShape(1, 2, 2, 1)
	filterShape := tensor.NewShape(1, 1, 1, 1)
	outputShape := inputShape

	params := &Params{
		StrideWidth: 1, StrideHeight: 1,
		DilationWidth: 1, DilationHeight: 1,
		DepthMultiplier:        1,
		InputOffset:            5,
		OutputOffset:           3,
		QuantizedActivationMin: -128,
		QuantizedActivationMax: 127,
	}
	input := []int8{10, 10, 10, 10}
	filter := []int8{2}
	bias := []int32{4}
	output := make([]int8, 4)

	BaseConvPerChannel(params, []int32{1 << 30}, []int32{0},
		inputShape, input, filterShape, filter, bias, outputShape, output)
	for i, got := range output {
		if got != 20 {
			t.Errorf("output[%d]: got %d, want 20", i, got)
		}
	}

	// Same arithmetic with a tight activation ceiling must clamp.
	params.QuantizedActivationMax = 15
	BaseConvPerChannel(params, []int32{1 << 30}, []int32{0},
		inputShape, input, filterShape, filter, bias, outputShape, output)
	for i, got := range output {
		if got != 15 {
			t.Errorf("clamped output[%d]: got %d, want 15", i, got)
		}
	}
}

func TestBaseConvPerChannelDepthMultiplierAndStride(t *testing.T) {
	// 1x1 filter, stride 2, depth multiplier 2: channel 0 copies the
	// strided input, channel 1 negates it.
	inputShape := tensor.NewShape(1, 4, 4, 1)
	filterShape := tensor.NewShape(1, 1, 1, 2)
	outputShape := tensor.NewShape(1, 2, 2, 2)

	params := &Params{
		StrideWidth: 2, StrideHeight: 2,
		DilationWidth: 1, DilationHeight: 1,
		DepthMultiplier:        2,
		QuantizedActivationMin: -128,
		QuantizedActivationMax: 127,
	}
	input := make([]int8, 16)
	for i := range input {
		input[i] = int8(i + 1)
	}
	filter := []int8{1, -1}
	output := make([]int8, outputShape.FlatSize())

	multiplier, shift := identityQuant(2)
	BaseConvPerChannel(params, multiplier, shift,
		inputShape, input, filterShape, filter, nil, outputShape, output)

	for outY := 0; outY < 2; outY++ {
		for outX := 0; outX < 2; outX++ {
			in := int8(input[inputShape.Offset(0, 2*outY, 2*outX, 0)])
			if got := output[outputShape.Offset(0, outY, outX, 0)]; got != in {
				t.Errorf("channel 0 at (%d,%d): got %d, want %d", outY, outX, got, in)
			}
			if got := output[outputShape.Offset(0, outY, outX, 1)]; got != -in {
				t.Errorf("channel 1 at (%d,%d): got %d, want %d", outY, outX, got, -in)
			}
		}
	}
}

// A filter window of 2^16 taps at worst-case magnitudes stays just inside
// the 32-bit accumulator; a wrap would surface as a saturated negative.
func TestAccumulatorAtWindowBound(t *testing.T) {
	const n = 256 // 256*256 = 2^16 taps
	inputShape := tensor.NewShape(1, n, n, 1)
	filterShape := tensor.NewShape(1, n, n, 1)
	outputShape := tensor.NewShape(1, 1, 1, 1)

	params := &Params{
		StrideWidth: 1, StrideHeight: 1,
		DilationWidth: 1, DilationHeight: 1,
		DepthMultiplier:        1,
		InputOffset:            128,
		QuantizedActivationMin: -128,
		QuantizedActivationMax: 127,
	}
	input := make([]int8, inputShape.FlatSize())
	filter := make([]int8, filterShape.FlatSize())
	for i := range input {
		input[i] = 127
		filter[i] = 127
	}
	output := make([]int8, 1)

	// acc = 2^16 * 127 * 255 = 2122383360, within int32. Rescaling by 0.5
	// keeps the requant path free of left shifts (a positive shift would
	// wrap an accumulator this large on the 32-bit pre-shift) and still
	// clamps to 127. A wrapped accumulator would clamp to -128.
	BaseConvPerChannel(params, []int32{1 << 30}, []int32{0},
		inputShape, input, filterShape, filter, nil, outputShape, output)
	if output[0] != 127 {
		t.Errorf("accumulator wrapped: got %d, want 127", output[0])
	}
}

func TestBaseConvPerChannelInt16(t *testing.T) {
	const h, w = 4, 4
	inputShape := tensor.NewShape(1, h, w, 1)
	filterShape := tensor.NewShape(1, 3, 3, 1)
	outputShape := inputShape

	params := samePad3x3Params()
	params.QuantizedActivationMin = math.MinInt16
	params.QuantizedActivationMax = math.MaxInt16

	input := make([]int16, h*w)
	ref := make([]int64, h*w)
	for i := range input {
		input[i] = 100
		ref[i] = 100
	}
	filter := make([]int8, filterShape.FlatSize())
	for i := range filter {
		filter[i] = 1
	}
	bias := []int64{-150}
	output := make([]int16, h*w)

	multiplier, shift := identityQuant(1)
	BaseConvPerChannelInt16(params, multiplier, shift,
		inputShape, input, filterShape, filter, bias, outputShape, output)

	ones := [3][3]int64{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}
	want := paddedRefConv(ref, h, w, ones, 0)
	for i := range output {
		if int64(output[i]) != want[i]-150 {
			t.Errorf("output[%d]: got %d, want %d", i, output[i], want[i]-150)
		}
	}
}

func TestBaseConvHybridPerChannel(t *testing.T) {
	const h, w = 4, 4
	inputShape := tensor.NewShape(1, h, w, 1)
	filterShape := tensor.NewShape(1, 3, 3, 1)
	outputShape := inputShape

	params := samePad3x3Params()
	params.FloatActivationMin = 0
	params.FloatActivationMax = 8

	input := make([]int8, h*w)
	ref := make([]int64, h*w)
	for i := range input {
		input[i] = 10
		ref[i] = 10
	}
	filter := make([]int8, filterShape.FlatSize())
	for i := range filter {
		filter[i] = 1
	}
	output := make([]float32, h*w)

	// acc counts (10-2)=8 per in-image tap; scale 0.5*0.25 and bias 1.5
	// keep every expected value exact in float32.
	BaseConvHybridPerChannel(params, []float32{0.25},
		inputShape, input, filterShape, filter, []float32{1.5},
		outputShape, output, []float32{0.5}, []int32{2})

	ones := [3][3]int64{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}
	want := paddedRefConv(ref, h, w, ones, -2)
	for i := range output {
		expected := float32(want[i])*0.125 + 1.5
		if expected > 8 {
			expected = 8
		}
		if output[i] != expected {
			t.Errorf("output[%d]: got %v, want %v", i, output[i], expected)
		}
	}
}

func TestPreconditionViolationsPanic(t *testing.T) {
	inputShape := tensor.NewShape(1, 4, 4, 2)
	filterShape := tensor.NewShape(1, 3, 3, 2)
	outputShape := inputShape
	input := make([]int8, inputShape.FlatSize())
	filter := make([]int8, filterShape.FlatSize())
	output := make([]int8, outputShape.FlatSize())
	multiplier, shift := identityQuant(2)

	testCases := []struct {
		name string
		run  func()
	}{
		{"short_multiplier", func() {
			BaseConvPerChannel(samePad3x3Params(), multiplier[:1], shift,
				inputShape, input, filterShape, filter, nil, outputShape, output)
		}},
		{"short_shift", func() {
			BaseConvPerChannel(samePad3x3Params(), multiplier, shift[:1],
				inputShape, input, filterShape, filter, nil, outputShape, output)
		}},
		{"bias_length", func() {
			BaseConvPerChannel(samePad3x3Params(), multiplier, shift,
				inputShape, input, filterShape, filter, []int32{1},
				outputShape, output)
		}},
		{"inverted_activation_range", func() {
			p := samePad3x3Params()
			p.QuantizedActivationMin = 50
			p.QuantizedActivationMax = -50
			BaseConvPerChannel(p, multiplier, shift,
				inputShape, input, filterShape, filter, nil, outputShape, output)
		}},
		{"filter_output_channel_mismatch", func() {
			BaseConvPerChannel(samePad3x3Params(), multiplier, shift,
				inputShape, input, tensor.NewShape(1, 3, 3, 4), filter,
				nil, outputShape, output)
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("precondition violation did not panic")
				}
			}()
			tc.run()
		})
	}
}
