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
	"github.com/2270142596/WinoFPGA/tensor"
)

// maxAcceleratedHeight bounds the shapes handed to the unit. The value is
// a hardware tuning constant: heights above it were never validated on the
// FPGA. Do not raise it without gateware-side verification.
const maxAcceleratedHeight = 80

// maxStreamBytes is the unit's store capacity per direction. Eligible
// shapes that exceed it abort rather than corrupt device state.
const maxStreamBytes = 110000

// padWords maps storeWidth%4 to the number of zero words appended per
// packed row so the row length lands on the boundary the input store's
// word shifter expects.
var padWords = [4]int{2, 1, 0, 3}

// canAccelerate reports whether the invocation is inside the shape class
// the unit was validated on: 3x3 same-padded depthwise, stride 1, no
// dilation, depth multiplier 1, single batch, even square input no taller
// than maxAcceleratedHeight.
func canAccelerate(params *Params, inputShape, filterShape tensor.Shape) bool {
	return params.StrideHeight == 1 && params.StrideWidth == 1 &&
		params.DilationHeight == 1 && params.DilationWidth == 1 &&
		params.DepthMultiplier == 1 &&
		params.PadHeight == 1 && params.PadWidth == 1 &&
		filterShape.Height() == 3 && filterShape.Width() == 3 &&
		inputShape.Batches() == 1 &&
		inputShape.Height() == inputShape.Width() &&
		inputShape.Height()%2 == 0 &&
		inputShape.Height() <= maxAcceleratedHeight
}

// convPerChannelCFU runs one eligible int8 invocation on the device:
// configure, load per-channel parameters and filters, then per input
// channel stream the packed tiles, trigger a run and drain the results.
// Channels run in increasing order because the parameter stores are
// consumed sequentially in load order.
func convPerChannelCFU(dev cfu.Device, params *Params,
	outputMultiplier, outputShift []int32,
	inputShape tensor.Shape, input []int8,
	filterShape tensor.Shape, filter []int8,
	bias []int32,
	outputShape tensor.Shape, output []int8) {

	inputHeight := inputShape.Height()
	inputWidth := inputShape.Width()
	inputDepth := inputShape.Channels()
	outputHeight := outputShape.Height()
	outputWidth := outputShape.Width()
	outputDepth := outputShape.Channels()

	storeWidth := inputWidth/2 + 1
	pad := padWords[storeWidth%4]
	numTiles := (inputWidth / 2) * (inputWidth / 2)

	packedBytes := inputDepth * storeWidth * storeWidth * 4
	if packedBytes > maxStreamBytes {
		panic(fmt.Sprintf("depthwise: packed input stream %d bytes exceeds capacity %d",
			packedBytes, maxStreamBytes))
	}
	if outputDepth*numTiles*4 > maxStreamBytes {
		panic(fmt.Sprintf("depthwise: packed output stream %d bytes exceeds capacity %d",
			outputDepth*numTiles*4, maxStreamBytes))
	}

	// Build the 2x2-tile raster of the input, channel-major. Each tile
	// covers two rows and two columns of the padded image; taps outside
	// the input extent pack as the negated input offset, the quantized
	// encoding of zero.
	h := beginEvent("CFU_PACK_INPUT")
	packed := make([]int8, 0, packedBytes)
	for inChannel := 0; inChannel < inputDepth; inChannel++ {
		for outY := 0; outY < outputHeight+params.PadHeight; outY += 2 {
			inYOrigin := outY - params.PadHeight
			for outX := 0; outX < outputWidth+params.PadWidth; outX += 2 {
				inXOrigin := outX - params.PadWidth
				for i := 0; i < 2; i++ {
					for j := 0; j < 2; j++ {
						inY := inYOrigin + i
						inX := inXOrigin + j
						if inY >= 0 && inY < inputHeight && inX >= 0 && inX < inputWidth {
							packed = append(packed, input[inputShape.Offset(0, inY, inX, inChannel)])
						} else {
							packed = append(packed, int8(-params.InputOffset))
						}
					}
				}
			}
		}
	}
	endEvent(h)

	h = beginEvent("CFU_STREAM")

	// Configuration. Writing the output batch size restarts the parameter
	// stores, so it must precede the weight and filter loads.
	dev.Set(cfu.RegModeSwitch, 1)
	dev.Set(cfu.RegTileCount, uint32(numTiles))
	dev.Set(cfu.RegInputWidth, uint32(storeWidth))
	dev.Set(cfu.RegInputDepthWords, uint32(storeWidth*(storeWidth+pad)))
	dev.Set(cfu.RegOutputBatchSize, uint32(numTiles*4))
	dev.Set(cfu.RegInputOffset, uint32(params.InputOffset))
	dev.Set(cfu.RegOutputOffset, uint32(params.OutputOffset))
	dev.Set(cfu.RegActivationMin, uint32(params.QuantizedActivationMin))
	dev.Set(cfu.RegActivationMax, uint32(params.QuantizedActivationMax))

	loadChannelParams(dev, outputMultiplier, outputShift, bias, outputDepth)
	loadFilterWords(dev, filterShape, filter, outputDepth)

	outWords := make([]uint32, inputDepth*numTiles)
	word := 0
	for inChannel := 0; inChannel < inputDepth; inChannel++ {
		// One channel's tiles, row by row, each row closed out with the
		// zero words the store's shifter needs.
		for row := 0; row < storeWidth; row++ {
			for col := 0; col < storeWidth; col++ {
				b := packed[4*word : 4*word+4]
				dev.Push(cfu.RegInputWord,
					uint32(uint8(b[0]))|uint32(uint8(b[1]))<<8|
						uint32(uint8(b[2]))<<16|uint32(uint8(b[3]))<<24)
				word++
			}
			for k := 0; k < pad; k++ {
				dev.Push(cfu.RegInputWord, 0)
			}
		}
		dev.Set(cfu.RegStartRun, 1)
		for t := 0; t < numTiles; t++ {
			outWords[inChannel*numTiles+t] = dev.Pop(cfu.RegOutputWord)
		}
	}
	endEvent(h)

	// Scatter the packed 2x2 blocks back into tensor layout.
	h = beginEvent("CFU_UNPACK_OUTPUT")
	i := 0
	for outChannel := 0; outChannel < inputDepth; outChannel++ {
		for outY := 0; outY < outputHeight; outY += 2 {
			for outX := 0; outX < outputWidth; outX += 2 {
				w := outWords[i]
				i++
				output[outputShape.Offset(0, outY, outX, outChannel)] = int8(w)
				output[outputShape.Offset(0, outY, outX+1, outChannel)] = int8(w >> 8)
				output[outputShape.Offset(0, outY+1, outX, outChannel)] = int8(w >> 16)
				output[outputShape.Offset(0, outY+1, outX+1, outChannel)] = int8(w >> 24)
			}
		}
	}
	endEvent(h)
}

// loadChannelParams pushes each output channel's multiplier, shift and
// bias in channel order. A missing bias array loads zeros; the unit always
// consumes a bias word per channel.
func loadChannelParams(dev cfu.Device, outputMultiplier, outputShift []int32,
	bias []int32, outputDepth int) {
	for c := 0; c < outputDepth; c++ {
		dev.Push(cfu.RegOutputMultiplier, uint32(outputMultiplier[c]))
		dev.Push(cfu.RegOutputShift, uint32(outputShift[c]))
		if bias != nil {
			dev.Push(cfu.RegOutputBias, uint32(bias[c]))
		} else {
			dev.Push(cfu.RegOutputBias, 0)
		}
	}
}

// loadFilterWords packs each channel's 3x3 taps into three words: taps
// (0,0),(0,1),(0,2),(1,0), then (1,1),(1,2),(2,0),(2,1), then (2,2) alone.
// The layout is specific to 3x3 kernels and is not generalized.
func loadFilterWords(dev cfu.Device, filterShape tensor.Shape, filter []int8, outputDepth int) {
	tap := func(y, x, c int) uint32 {
		return uint32(uint8(filter[filterShape.Offset(0, y, x, c)]))
	}
	for c := 0; c < outputDepth; c++ {
		dev.Push(cfu.RegFilterWord,
			tap(0, 0, c)|tap(0, 1, c)<<8|tap(0, 2, c)<<16|tap(1, 0, c)<<24)
		dev.Push(cfu.RegFilterWord,
			tap(1, 1, c)|tap(1, 2, c)<<8|tap(2, 0, c)<<16|tap(2, 1, c)<<24)
		dev.Push(cfu.RegFilterWord, tap(2, 2, c))
	}
}
