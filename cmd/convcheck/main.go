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

// Command convcheck cross-validates the accelerated depthwise convolution
// path against the scalar reference kernel over randomized shapes and data.
//
// Usage:
//
//	convcheck -iters 500 -seed 42
//	convcheck -mmio /dev/uio0                # validate real hardware
//	convcheck -csv > profile.csv
//
// By default it drives the functional device model, which makes it a fast
// host-side regression check; with -mmio it exercises the memory-mapped
// unit itself. Any output mismatch is reported with the failing shape and
// seed, and the exit status is nonzero.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/2270142596/WinoFPGA/depthwise"
	"github.com/2270142596/WinoFPGA/profiler"
	"github.com/2270142596/WinoFPGA/tensor"
)

var (
	seed     = flag.Int64("seed", 42, "Random seed for shapes and tensor data")
	iters    = flag.Int("iters", 200, "Number of random invocations to validate")
	maxSize  = flag.Int("maxsize", 40, "Largest input height/width to draw (rounded down to even)")
	maxDepth = flag.Int("maxdepth", 16, "Largest channel count to draw")
	csvOut   = flag.Bool("csv", false, "Emit the profile as CSV events instead of per-tag totals")
	mmioPath = flag.String("mmio", "", "UIO device path of the unit; empty runs the functional model")
	mmioOff  = flag.Int64("mmio-offset", 0, "Byte offset of the register block within the mapping")
)

func main() {
	flag.Parse()

	dev, cleanup, err := openDevice(*mmioPath, *mmioOff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "convcheck: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()
	depthwise.SetAccelerator(dev)

	prof := profiler.New()
	depthwise.SetProfiler(prof)

	rng := rand.New(rand.NewSource(*seed))
	failures := 0
	for i := 0; i < *iters; i++ {
		size := 2 * (1 + rng.Intn(*maxSize/2))
		depth := 1 + rng.Intn(*maxDepth)
		if !validate(rng, size, depth) {
			fmt.Fprintf(os.Stderr, "MISMATCH at iteration %d: size=%d depth=%d seed=%d\n",
				i, size, depth, *seed)
			failures++
		}
	}

	if *csvOut {
		prof.LogCsv(os.Stdout)
	} else {
		prof.LogTicksPerTag(os.Stdout)
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "convcheck: %d of %d iterations mismatched\n", failures, *iters)
		os.Exit(1)
	}
	fmt.Printf("convcheck: %d iterations matched the scalar reference\n", *iters)
}

// validate runs one random same-padded 3x3 invocation on both paths and
// reports whether the outputs are identical.
func validate(rng *rand.Rand, size, depth int) bool {
	params := &depthwise.Params{
		StrideWidth: 1, StrideHeight: 1,
		DilationWidth: 1, DilationHeight: 1,
		PadWidth: 1, PadHeight: 1,
		DepthMultiplier:        1,
		InputOffset:            int32(rng.Intn(201) - 100),
		OutputOffset:           int32(rng.Intn(201) - 100),
		QuantizedActivationMin: -128,
		QuantizedActivationMax: 127,
	}
	inputShape := tensor.NewShape(1, size, size, depth)
	filterShape := tensor.NewShape(1, 3, 3, depth)
	outputShape := inputShape

	input := make([]int8, inputShape.FlatSize())
	for i := range input {
		input[i] = int8(rng.Intn(256) - 128)
	}
	filter := make([]int8, filterShape.FlatSize())
	for i := range filter {
		filter[i] = int8(rng.Intn(256) - 128)
	}
	multiplier := make([]int32, depth)
	shift := make([]int32, depth)
	bias := make([]int32, depth)
	for ch := 0; ch < depth; ch++ {
		multiplier[ch] = 1<<30 + rng.Int31n(1<<30)
		shift[ch] = int32(-rng.Intn(7))
		bias[ch] = rng.Int31n(1<<15) - 1<<14
	}

	accelerated := make([]int8, outputShape.FlatSize())
	depthwise.ConvPerChannel(params, multiplier, shift,
		inputShape, input, filterShape, filter, bias, outputShape, accelerated)

	reference := make([]int8, outputShape.FlatSize())
	depthwise.BaseConvPerChannel(params, multiplier, shift,
		inputShape, input, filterShape, filter, bias, outputShape, reference)

	for i := range reference {
		if accelerated[i] != reference[i] {
			return false
		}
	}
	return true
}
