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
	"fmt"

	"github.com/2270142596/WinoFPGA/fixedpoint"
)

// Sim is a functional software model of the unit's tiled depthwise
// datapath. It reproduces the register-file semantics the driver relies on
// (restart on output-batch-size and input-depth writes, sequential
// consumption of the parameter stores) and the post-processor's arithmetic
// bit for bit, so it can stand in for the hardware in tests and on hosts
// without the FPGA.
//
// Not safe for concurrent use; see Device.
type Sim struct {
	inputDepthWords uint32
	inputOffset     int32
	outputOffset    int32
	activationMin   int32
	activationMax   int32
	outputBatchSize uint32
	modeSwitch      uint32
	tileCount       uint32
	inputWidth      uint32

	multipliers []int32
	shifts      []int32
	biases      []int32
	filterWords []uint32

	input  []uint32
	output []uint32

	channel int // next parameter-store index to consume
	runs    int
}

// NewSim returns a simulated device with empty stores.
func NewSim() *Sim {
	return &Sim{}
}

// Runs returns the number of compute passes triggered over the device's
// lifetime.
func (s *Sim) Runs() int { return s.runs }

// Set implements Device.
func (s *Sim) Set(reg Register, value uint32) {
	switch reg {
	case RegInputDepthWords:
		s.inputDepthWords = value
		s.input = s.input[:0]
	case RegOutputDepth:
		// Accepted, unused.
	case RegInputOffset:
		s.inputOffset = int32(value)
	case RegOutputOffset:
		s.outputOffset = int32(value)
	case RegActivationMin:
		s.activationMin = int32(value)
	case RegActivationMax:
		s.activationMax = int32(value)
	case RegOutputBatchSize:
		s.outputBatchSize = value
		s.multipliers = s.multipliers[:0]
		s.shifts = s.shifts[:0]
		s.biases = s.biases[:0]
		s.filterWords = s.filterWords[:0]
		s.channel = 0
	case RegStartRun:
		s.run()
	case RegModeSwitch:
		s.modeSwitch = value
	case RegTileCount:
		s.tileCount = value
	case RegInputWidth:
		s.inputWidth = value
	default:
		panic(fmt.Sprintf("cfu: Set on unknown register %d", reg))
	}
}

// Push implements Device.
func (s *Sim) Push(reg Register, value uint32) {
	switch reg {
	case RegOutputMultiplier:
		s.multipliers = append(s.multipliers, int32(value))
	case RegOutputShift:
		s.shifts = append(s.shifts, int32(value))
	case RegOutputBias:
		s.biases = append(s.biases, int32(value))
	case RegFilterWord:
		s.filterWords = append(s.filterWords, value)
	case RegInputWord:
		s.input = append(s.input, value)
	default:
		panic(fmt.Sprintf("cfu: Push on non-streaming register %d", reg))
	}
}

// Pop implements Device. The hardware blocks until the output queue has
// data; the model fails loudly instead of hanging.
func (s *Sim) Pop(reg Register) uint32 {
	if reg != RegOutputWord {
		panic(fmt.Sprintf("cfu: Pop on non-queue register %d", reg))
	}
	if len(s.output) == 0 {
		panic("cfu: output queue empty")
	}
	w := s.output[0]
	s.output = s.output[1:]
	return w
}

// run consumes one channel's streamed input and produces its packed output
// tiles. The input words form storeWidth rows of storeWidth tile words plus
// row padding; each word carries a 2x2 block of the zero-padded input, so
// the rows reassemble into the full (width+2)-square padded image.
func (s *Sim) run() {
	if s.modeSwitch != 1 {
		panic("cfu: only the tiled depthwise mode is modeled")
	}
	storeWidth := int(s.inputWidth)
	if storeWidth < 2 {
		panic(fmt.Sprintf("cfu: bad input width register %d", storeWidth))
	}
	rowWords := int(s.inputDepthWords) / storeWidth
	if rowWords*storeWidth != int(s.inputDepthWords) || rowWords < storeWidth {
		panic(fmt.Sprintf("cfu: input depth %d inconsistent with width %d",
			s.inputDepthWords, storeWidth))
	}
	if len(s.input) < int(s.inputDepthWords) {
		panic(fmt.Sprintf("cfu: input store underrun: have %d words, need %d",
			len(s.input), s.inputDepthWords))
	}
	ch := s.channel
	if ch >= len(s.multipliers) || ch >= len(s.shifts) || ch >= len(s.biases) {
		panic(fmt.Sprintf("cfu: parameter store underrun at channel %d", ch))
	}
	if 3*ch+2 >= len(s.filterWords) {
		panic(fmt.Sprintf("cfu: filter store underrun at channel %d", ch))
	}

	words := s.input[:s.inputDepthWords]

	// Reassemble the padded image. Tile word (r, c) covers padded rows
	// 2r..2r+1 and columns 2c..2c+1 in raster order; the trailing
	// rowWords-storeWidth pad words per row are discarded.
	padSize := 2 * storeWidth
	padded := make([]int8, padSize*padSize)
	for r := 0; r < storeWidth; r++ {
		for c := 0; c < storeWidth; c++ {
			w := words[r*rowWords+c]
			padded[(2*r)*padSize+2*c] = int8(w)
			padded[(2*r)*padSize+2*c+1] = int8(w >> 8)
			padded[(2*r+1)*padSize+2*c] = int8(w >> 16)
			padded[(2*r+1)*padSize+2*c+1] = int8(w >> 24)
		}
	}
	s.input = s.input[s.inputDepthWords:]

	// Unpack this channel's 3x3 taps from the three filter words.
	fw := s.filterWords[3*ch : 3*ch+3]
	taps := [3][3]int32{
		{int32(int8(fw[0])), int32(int8(fw[0] >> 8)), int32(int8(fw[0] >> 16))},
		{int32(int8(fw[0] >> 24)), int32(int8(fw[1])), int32(int8(fw[1] >> 8))},
		{int32(int8(fw[1] >> 16)), int32(int8(fw[1] >> 24)), int32(int8(fw[2]))},
	}

	multiplier := s.multipliers[ch]
	shift := int(s.shifts[ch])
	bias := s.biases[ch]

	// Dense 3x3 MACC over the padded image. Out-of-image taps were packed
	// as the negated input offset, so they contribute zero here just as
	// the omitted taps do on the scalar path.
	outSize := padSize - 2
	results := make([]int8, outSize*outSize)
	for y := 0; y < outSize; y++ {
		for x := 0; x < outSize; x++ {
			var acc int32
			for fy := 0; fy < 3; fy++ {
				for fx := 0; fx < 3; fx++ {
					in := int32(padded[(y+fy)*padSize+x+fx])
					acc += taps[fy][fx] * (in + s.inputOffset)
				}
			}
			acc += bias
			acc = fixedpoint.MultiplyByQuantizedMultiplier(acc, multiplier, shift)
			acc += s.outputOffset
			acc = fixedpoint.Clamp(acc, s.activationMin, s.activationMax)
			results[y*outSize+x] = int8(acc)
		}
	}

	// Queue 2x2 output blocks, one word per tile, in raster order.
	for y := 0; y < outSize; y += 2 {
		for x := 0; x < outSize; x += 2 {
			w := uint32(uint8(results[y*outSize+x])) |
				uint32(uint8(results[y*outSize+x+1]))<<8 |
				uint32(uint8(results[(y+1)*outSize+x]))<<16 |
				uint32(uint8(results[(y+1)*outSize+x+1]))<<24
			s.output = append(s.output, w)
		}
	}

	s.channel++
	s.runs++
}
