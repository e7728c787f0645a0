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

//go:build linux

package cfu

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmioSpan is the size of the mapped register block. Register n lives at
// byte offset 4n, so one page covers the whole file.
const mmioSpan = 4096

// MMIO drives a unit whose register file is exposed through a
// memory-mapped block, typically a UIO device node exported by the SoC
// bridge. Writes to streaming registers and reads from the output queue
// carry FIFO side effects in the gateware, so accesses go through
// sync/atomic to keep the compiler from coalescing or reordering them.
type MMIO struct {
	mem []byte
}

// OpenMMIO maps the register block found at offset within the device file.
func OpenMMIO(path string, offset int64) (*MMIO, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("cfu: open %s: %w", path, err)
	}
	mem, err := unix.Mmap(fd, offset, mmioSpan,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	unix.Close(fd) // the mapping keeps the registers reachable
	if err != nil {
		return nil, fmt.Errorf("cfu: mmap %s: %w", path, err)
	}
	return &MMIO{mem: mem}, nil
}

// Close unmaps the register block.
func (m *MMIO) Close() error {
	mem := m.mem
	m.mem = nil
	return unix.Munmap(mem)
}

func (m *MMIO) word(reg Register) *uint32 {
	off := 4 * int(reg)
	if off+4 > len(m.mem) {
		panic(fmt.Sprintf("cfu: register %d outside mapped block", reg))
	}
	return (*uint32)(unsafe.Pointer(&m.mem[off]))
}

// Set implements Device.
func (m *MMIO) Set(reg Register, value uint32) {
	atomic.StoreUint32(m.word(reg), value)
}

// Push implements Device. Streaming stores share the plain 32-bit write;
// the gateware distinguishes them by register number.
func (m *MMIO) Push(reg Register, value uint32) {
	atomic.StoreUint32(m.word(reg), value)
}

// Pop implements Device. The read itself advances the output queue; the
// unit stalls the bus until a word is available, which is also how the
// caller blocks on results.
func (m *MMIO) Pop(reg Register) uint32 {
	return atomic.LoadUint32(m.word(reg))
}
