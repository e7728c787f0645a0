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
	"github.com/2270142596/WinoFPGA/cfu"
	"github.com/2270142596/WinoFPGA/tensor"
)

// ConvPerChannel computes the int8 depthwise convolution, offloading to
// the installed accelerator when the shape qualifies and falling back to
// BaseConvPerChannel otherwise. Both paths produce identical output.
func ConvPerChannel(params *Params, outputMultiplier, outputShift []int32,
	inputShape tensor.Shape, input []int8,
	filterShape tensor.Shape, filter []int8,
	bias []int32,
	outputShape tensor.Shape, output []int8) {

	h := beginEvent("DEPTHWISE_CONV_2D")
	defer endEvent(h)

	if accel != nil && !cfu.NoAccelEnv() && canAccelerate(params, inputShape, filterShape) {
		outputDepth := tensor.MatchingChannels(filterShape, outputShape)
		checkPerChannelArgs(outputMultiplier, outputShift, len(bias), bias != nil, outputDepth)
		checkActivationRange(params)
		convPerChannelCFU(accel, params, outputMultiplier, outputShift,
			inputShape, input, filterShape, filter, bias, outputShape, output)
		return
	}

	BaseConvPerChannel(params, outputMultiplier, outputShift,
		inputShape, input, filterShape, filter, bias, outputShape, output)
}

// ConvPerChannelInt16 computes the 16-bit variant. No accelerator support
// exists for it; the scalar kernel always runs.
func ConvPerChannelInt16(params *Params, outputMultiplier, outputShift []int32,
	inputShape tensor.Shape, input []int16,
	filterShape tensor.Shape, filter []int8,
	bias []int64,
	outputShape tensor.Shape, output []int16) {

	h := beginEvent("DEPTHWISE_CONV_2D_INT16")
	defer endEvent(h)

	BaseConvPerChannelInt16(params, outputMultiplier, outputShift,
		inputShape, input, filterShape, filter, bias, outputShape, output)
}

// ConvHybridPerChannel computes the hybrid variant (int8 weights, float
// activations). No accelerator support exists for it.
func ConvHybridPerChannel(params *Params, scalingFactors []float32,
	inputShape tensor.Shape, input []int8,
	filterShape tensor.Shape, filter []int8,
	bias []float32,
	outputShape tensor.Shape, output []float32,
	perChannelScale []float32, inputOffset []int32) {

	h := beginEvent("DEPTHWISE_CONV_2D_HYBRID")
	defer endEvent(h)

	BaseConvHybridPerChannel(params, scalingFactors,
		inputShape, input, filterShape, filter, bias, outputShape, output,
		perChannelScale, inputOffset)
}
