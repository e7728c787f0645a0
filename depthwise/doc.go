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

// Package depthwise computes quantized depthwise 2D convolutions with
// per-channel requantization, offloading eligible shapes to the CFU.
//
// Three data-type variants are exposed, dispatched explicitly by the
// caller:
//
//   - ConvPerChannel: int8 activations, filters and outputs with a 32-bit
//     accumulator. Eligible shapes (stride 1, 3x3 filter, even square
//     input up to the accelerated height bound) run on the installed
//     cfu.Device; everything else uses the scalar path.
//   - ConvPerChannelInt16: int16 activations/outputs, int8 filters, 64-bit
//     accumulator and bias. Always scalar.
//   - ConvHybridPerChannel: int8 filters against float32 activations with
//     per-batch input offsets and scaling factors. Always scalar.
//
// The accelerated and scalar paths are bit-exact against each other; the
// shared rounding rules live in the fixedpoint package.
//
// All entry points are synchronous and single-invocation: the CFU register
// file and FIFOs hold per-call state, so concurrent calls sharing one
// device must be serialized by the caller.
//
// Shape or parameter-length violations are programming errors and panic;
// there is no recoverable failure mode.
package depthwise
