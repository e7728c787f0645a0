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
	"fmt"

	"github.com/2270142596/WinoFPGA/cfu"
)

// Params carries the convolution parameters for one invocation. The
// integer offsets and activation bounds apply to the quantized variants;
// the float bounds apply to the hybrid variant. Immutable for the duration
// of a call.
type Params struct {
	StrideWidth     int
	StrideHeight    int
	DilationWidth   int
	DilationHeight  int
	PadWidth        int
	PadHeight       int
	DepthMultiplier int

	// InputOffset is the negated input zero point; OutputOffset is the
	// output zero point.
	InputOffset  int32
	OutputOffset int32

	QuantizedActivationMin int32
	QuantizedActivationMax int32

	FloatActivationMin float32
	FloatActivationMax float32
}

// Profiler is the begin/end slice of the execution-time profiler consumed
// around convolution phases. Optional; correctness never depends on it.
type Profiler interface {
	BeginEvent(tag string) uint32
	EndEvent(handle uint32)
}

var (
	accel cfu.Device
	prof  Profiler
)

// SetAccelerator installs the device used for eligible int8 invocations.
// Passing nil removes it, forcing the scalar path. Like the device itself,
// this package-level binding is not synchronized; configure it before
// invoking kernels.
func SetAccelerator(d cfu.Device) { accel = d }

// Accelerator returns the installed device, or nil.
func Accelerator() cfu.Device { return accel }

// SetProfiler installs the profiler bracketing convolution phases.
// Passing nil disables instrumentation.
func SetProfiler(p Profiler) { prof = p }

func beginEvent(tag string) uint32 {
	if prof == nil {
		return 0
	}
	return prof.BeginEvent(tag)
}

func endEvent(handle uint32) {
	if prof != nil {
		prof.EndEvent(handle)
	}
}

// checkPerChannelArgs validates the per-channel array lengths and the
// activation range shared by the quantized variants. Violations are caller
// bugs, not runtime conditions, and abort.
func checkPerChannelArgs(outputMultiplier, outputShift []int32, biasLen int, haveBias bool, outputDepth int) {
	if len(outputMultiplier) != outputDepth {
		panic(fmt.Sprintf("depthwise: output multiplier length %d, want output depth %d",
			len(outputMultiplier), outputDepth))
	}
	if len(outputShift) != outputDepth {
		panic(fmt.Sprintf("depthwise: output shift length %d, want output depth %d",
			len(outputShift), outputDepth))
	}
	if haveBias && biasLen != outputDepth {
		panic(fmt.Sprintf("depthwise: bias length %d, want output depth %d",
			biasLen, outputDepth))
	}
}

func checkActivationRange(params *Params) {
	if params.QuantizedActivationMin > params.QuantizedActivationMax {
		panic(fmt.Sprintf("depthwise: activation min %d above max %d",
			params.QuantizedActivationMin, params.QuantizedActivationMax))
	}
}
