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

// Package cfu is the handle to the depthwise-convolution custom function
// unit: a register map shared with the gateware, a minimal Device
// interface (set scalar register, push word, pop word), a memory-mapped
// binding for real hardware, and a bit-exact software simulation.
//
// The unit is a strict pipeline. One invocation programs the configuration
// registers, pushes per-channel post-processing parameters and packed
// filter words, then per input channel streams packed input words, triggers
// a run, and drains the output queue. Ordering is enforced purely by
// program order; the register file holds invocation state, so a Device must
// never be shared between concurrent invocations.
//
//	dev := cfu.NewSim() // or cfu.OpenMMIO("/dev/uio0", 0)
//	dev.Set(cfu.RegModeSwitch, 1)
//	...
package cfu
