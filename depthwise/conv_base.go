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
	"github.com/2270142596/WinoFPGA/fixedpoint"
	"github.com/2270142596/WinoFPGA/tensor"
)

// BaseConvPerChannel is the scalar reference kernel for the int8 variant.
// Zero padding is applied by omitting taps outside the input extent.
//
// The 32-bit accumulator holds each tap's |filter * (input + offset)|,
// which is bounded by 32512, so windows up to 2^16 taps cannot wrap. Larger
// filter windows are outside the kernel's contract and are not checked.
func BaseConvPerChannel(params *Params, outputMultiplier, outputShift []int32,
	inputShape tensor.Shape, input []int8,
	filterShape tensor.Shape, filter []int8,
	bias []int32,
	outputShape tensor.Shape, output []int8) {

	batches := tensor.MatchingBatches(inputShape, outputShape)
	outputDepth := tensor.MatchingChannels(filterShape, outputShape)
	checkPerChannelArgs(outputMultiplier, outputShift, len(bias), bias != nil, outputDepth)
	checkActivationRange(params)

	inputHeight := inputShape.Height()
	inputWidth := inputShape.Width()
	inputDepth := inputShape.Channels()
	filterHeight := filterShape.Height()
	filterWidth := filterShape.Width()
	outputHeight := outputShape.Height()
	outputWidth := outputShape.Width()

	for batch := 0; batch < batches; batch++ {
		for outY := 0; outY < outputHeight; outY++ {
			for outX := 0; outX < outputWidth; outX++ {
				for inChannel := 0; inChannel < inputDepth; inChannel++ {
					for m := 0; m < params.DepthMultiplier; m++ {
						outputChannel := m + inChannel*params.DepthMultiplier
						inXOrigin := outX*params.StrideWidth - params.PadWidth
						inYOrigin := outY*params.StrideHeight - params.PadHeight
						var acc int32
						for filterY := 0; filterY < filterHeight; filterY++ {
							inY := inYOrigin + params.DilationHeight*filterY
							for filterX := 0; filterX < filterWidth; filterX++ {
								inX := inXOrigin + params.DilationWidth*filterX
								if inX >= 0 && inX < inputWidth && inY >= 0 && inY < inputHeight {
									inputVal := int32(input[inputShape.Offset(batch, inY, inX, inChannel)])
									filterVal := int32(filter[filterShape.Offset(0, filterY, filterX, outputChannel)])
									acc += filterVal * (inputVal + params.InputOffset)
								}
							}
						}
						if bias != nil {
							acc += bias[outputChannel]
						}
						acc = fixedpoint.MultiplyByQuantizedMultiplier(
							acc, outputMultiplier[outputChannel], int(outputShift[outputChannel]))
						acc += params.OutputOffset
						acc = fixedpoint.Clamp(acc,
							params.QuantizedActivationMin, params.QuantizedActivationMax)
						output[outputShape.Offset(batch, outY, outX, outputChannel)] = int8(acc)
					}
				}
			}
		}
	}
}

// BaseConvPerChannelInt16 is the scalar kernel for the 16-bit variant:
// int16 activations, int8 filters, 64-bit accumulation and bias, no
// zero-point offsets (16-bit tensors are symmetric).
func BaseConvPerChannelInt16(params *Params, outputMultiplier, outputShift []int32,
	inputShape tensor.Shape, input []int16,
	filterShape tensor.Shape, filter []int8,
	bias []int64,
	outputShape tensor.Shape, output []int16) {

	batches := tensor.MatchingBatches(inputShape, outputShape)
	outputDepth := tensor.MatchingChannels(filterShape, outputShape)
	checkPerChannelArgs(outputMultiplier, outputShift, len(bias), bias != nil, outputDepth)
	checkActivationRange(params)

	inputHeight := inputShape.Height()
	inputWidth := inputShape.Width()
	inputDepth := inputShape.Channels()
	filterHeight := filterShape.Height()
	filterWidth := filterShape.Width()
	outputHeight := outputShape.Height()
	outputWidth := outputShape.Width()

	for batch := 0; batch < batches; batch++ {
		for outY := 0; outY < outputHeight; outY++ {
			for outX := 0; outX < outputWidth; outX++ {
				for inChannel := 0; inChannel < inputDepth; inChannel++ {
					for m := 0; m < params.DepthMultiplier; m++ {
						outputChannel := m + inChannel*params.DepthMultiplier
						inXOrigin := outX*params.StrideWidth - params.PadWidth
						inYOrigin := outY*params.StrideHeight - params.PadHeight
						var acc int64
						for filterY := 0; filterY < filterHeight; filterY++ {
							inY := inYOrigin + params.DilationHeight*filterY
							for filterX := 0; filterX < filterWidth; filterX++ {
								inX := inXOrigin + params.DilationWidth*filterX
								if inX >= 0 && inX < inputWidth && inY >= 0 && inY < inputHeight {
									inputVal := int64(input[inputShape.Offset(batch, inY, inX, inChannel)])
									filterVal := int64(filter[filterShape.Offset(0, filterY, filterX, outputChannel)])
									acc += filterVal * inputVal
								}
							}
						}
						if bias != nil {
							acc += bias[outputChannel]
						}
						scaled := fixedpoint.MultiplyByQuantizedMultiplier64(
							acc, outputMultiplier[outputChannel], int(outputShift[outputChannel]))
						scaled = fixedpoint.Clamp(scaled,
							params.QuantizedActivationMin, params.QuantizedActivationMax)
						output[outputShape.Offset(batch, outY, outX, outputChannel)] = int16(scaled)
					}
				}
			}
		}
	}
}

// BaseConvHybridPerChannel is the scalar kernel for hybrid inference:
// int8 filters against int8-quantized activations with per-batch offsets,
// rescaled to float32 outputs through perChannelScale and the per-batch
// scaling factors. Bias is added only for channels within the bias bounds.
func BaseConvHybridPerChannel(params *Params, scalingFactors []float32,
	inputShape tensor.Shape, input []int8,
	filterShape tensor.Shape, filter []int8,
	bias []float32,
	outputShape tensor.Shape, output []float32,
	perChannelScale []float32, inputOffset []int32) {

	batches := tensor.MatchingBatches(inputShape, outputShape)
	outputDepth := tensor.MatchingChannels(filterShape, outputShape)
	if len(perChannelScale) != outputDepth {
		panic("depthwise: per-channel scale length does not match output depth")
	}
	if len(scalingFactors) != batches || len(inputOffset) != batches {
		panic("depthwise: per-batch scaling factors and input offsets must match batch count")
	}

	inputHeight := inputShape.Height()
	inputWidth := inputShape.Width()
	inputDepth := inputShape.Channels()
	filterHeight := filterShape.Height()
	filterWidth := filterShape.Width()
	outputHeight := outputShape.Height()
	outputWidth := outputShape.Width()

	for batch := 0; batch < batches; batch++ {
		for outY := 0; outY < outputHeight; outY++ {
			for outX := 0; outX < outputWidth; outX++ {
				for inChannel := 0; inChannel < inputDepth; inChannel++ {
					for m := 0; m < params.DepthMultiplier; m++ {
						outputChannel := m + inChannel*params.DepthMultiplier
						inXOrigin := outX*params.StrideWidth - params.PadWidth
						inYOrigin := outY*params.StrideHeight - params.PadHeight
						var acc int32
						for filterY := 0; filterY < filterHeight; filterY++ {
							inY := inYOrigin + params.DilationHeight*filterY
							for filterX := 0; filterX < filterWidth; filterX++ {
								inX := inXOrigin + params.DilationWidth*filterX
								if inX >= 0 && inX < inputWidth && inY >= 0 && inY < inputHeight {
									inputVal := int32(input[inputShape.Offset(batch, inY, inX, inChannel)])
									filterVal := int32(filter[filterShape.Offset(0, filterY, filterX, outputChannel)])
									acc += filterVal * (inputVal - inputOffset[batch])
								}
							}
						}
						accFloat := float32(acc)
						accFloat *= perChannelScale[outputChannel] * scalingFactors[batch]
						if bias != nil && outputChannel < len(bias) {
							accFloat += bias[outputChannel]
						}
						output[outputShape.Offset(batch, outY, outX, outputChannel)] =
							fixedpoint.ClampFloat(accFloat,
								params.FloatActivationMin, params.FloatActivationMax)
					}
				}
			}
		}
	}
}
