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

// Package tensor provides 4D NHWC shape handling and row-major offset
// computation for caller-owned flat buffers.
//
// A Shape never owns data: kernels read input/filter/bias slices and write
// output slices supplied by the caller, addressed through Offset.
package tensor

import "fmt"

// Shape describes a 4D tensor laid out batch-major, channel-minor
// (NHWC for activations, 1HWC for depthwise filters).
type Shape struct {
	batches  int
	height   int
	width    int
	channels int
}

// NewShape builds a 4D shape. Dimensions must be positive.
func NewShape(batches, height, width, channels int) Shape {
	if batches <= 0 || height <= 0 || width <= 0 || channels <= 0 {
		panic(fmt.Sprintf("tensor: non-positive dimension in shape [%d %d %d %d]",
			batches, height, width, channels))
	}
	return Shape{batches: batches, height: height, width: width, channels: channels}
}

// Batches returns the batch dimension.
func (s Shape) Batches() int { return s.batches }

// Height returns the height dimension.
func (s Shape) Height() int { return s.height }

// Width returns the width dimension.
func (s Shape) Width() int { return s.width }

// Channels returns the channel (depth) dimension.
func (s Shape) Channels() int { return s.channels }

// FlatSize returns the number of elements the shape addresses.
func (s Shape) FlatSize() int {
	return s.batches * s.height * s.width * s.channels
}

// Offset returns the flat index of element (b, y, x, c).
// Out-of-range indices are a caller error and are not checked.
func (s Shape) Offset(b, y, x, c int) int {
	return ((b*s.height+y)*s.width+x)*s.channels + c
}

// MatchingChannels returns the channel count shared by a and b,
// panicking if they disagree.
func MatchingChannels(a, b Shape) int {
	if a.channels != b.channels {
		panic(fmt.Sprintf("tensor: channel mismatch: %d vs %d", a.channels, b.channels))
	}
	return a.channels
}

// MatchingBatches returns the batch count shared by a and b,
// panicking if they disagree.
func MatchingBatches(a, b Shape) int {
	if a.batches != b.batches {
		panic(fmt.Sprintf("tensor: batch mismatch: %d vs %d", a.batches, b.batches))
	}
	return a.batches
}
