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

package cfu

import (
	"os"
	"strconv"
)

// Register identifies one slot of the CFU register file. The numbering
// matches the gateware's register-file instruction decoding and is part of
// the hardware contract.
type Register uint32

const (
	// RegInputDepthWords holds the number of packed input words streamed
	// per channel. Writing it also restarts the input store.
	RegInputDepthWords Register = 10

	// RegOutputDepth is accepted by the gateware but otherwise unused.
	RegOutputDepth Register = 11

	// RegInputOffset and RegOutputOffset are the quantization zero-point
	// corrections applied before multiplication and after rescaling.
	RegInputOffset  Register = 12
	RegOutputOffset Register = 13

	// RegActivationMin and RegActivationMax bound the rescaled outputs.
	RegActivationMin Register = 14
	RegActivationMax Register = 15

	// RegOutputBatchSize is the number of results produced per run.
	// Writing it restarts the parameter and filter stores; every
	// invocation must therefore program it before loading weights.
	RegOutputBatchSize Register = 20

	// Streaming parameter stores, consumed per output channel in the
	// order they were pushed.
	RegOutputMultiplier Register = 21
	RegOutputShift      Register = 22
	RegOutputBias       Register = 23
	RegFilterWord       Register = 24

	// RegInputWord is the input FIFO.
	RegInputWord Register = 25

	// RegStartRun triggers one per-channel compute pass.
	RegStartRun Register = 33

	// RegOutputWord is the read side of the output queue.
	RegOutputWord Register = 34

	// RegModeSwitch selects the tiled depthwise datapath when set to 1.
	RegModeSwitch Register = 35

	// RegTileCount is the number of 2x2 output tiles per channel.
	RegTileCount Register = 36

	// RegInputWidth is the packed row width in words (storeWidth).
	RegInputWidth Register = 37
)

// Device is the handle to one compute unit. Implementations are not safe
// for concurrent use; the register file and FIFOs hold per-invocation
// state, so callers sharing a Device across goroutines must serialize
// entire invocations externally.
//
// Set writes a scalar configuration register. Push appends a word to one of
// the streaming stores (multiplier, shift, bias, filter, input). Pop drains
// one word from the output queue, blocking until the unit has produced it.
type Device interface {
	Set(reg Register, value uint32)
	Push(reg Register, value uint32)
	Pop(reg Register) uint32
}

// NoAccelEnv reports whether the CFU_NO_ACCEL environment variable is set.
// When set, dispatch uses the scalar fallback regardless of the installed
// device. This is useful for testing and debugging.
func NoAccelEnv() bool {
	val := os.Getenv("CFU_NO_ACCEL")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}
