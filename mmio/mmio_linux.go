// Copyright 2026 The go-i2chw Authors.
// SPDX-License-Identifier: Apache-2.0
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

package mmio

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	i2chw "github.com/tm4clab/go-i2chw"
)

const (
	devMem = "/dev/mem"

	// regWindow is the span of one instance's registers in the
	// physical map. The mmap window is rounded out to the host page
	// size, which exceeds 4 KiB on 16K/64K arm64 kernels.
	regWindow = 4096
)

// Window is one mapped register page. It implements i2chw.Registers.
// The instance's clock and power domain must be enabled before the
// first register access or the bus faults.
type Window struct {
	mem []byte
	bus i2chw.BusID
	off uint32
	fd  int
}

// mapWindow computes the page-aligned mmap base, the register page's
// offset within the mapping, and the mapping length.
func mapWindow(base, page uint32) (mapBase, off uint32, length int) {
	mapBase = base &^ (page - 1)
	off = base - mapBase
	length = int((off + regWindow + page - 1) &^ (page - 1))
	return mapBase, off, length
}

// Open claims a bus instance and maps its register page.
func Open(bus i2chw.BusID) (*Window, error) {
	base, ok := bus.Base()
	if !ok {
		return nil, fmt.Errorf("%w: no register page for %s", i2chw.ErrInvalidConfig, bus)
	}
	if err := claim(bus); err != nil {
		return nil, err
	}

	fd, err := unix.Open(devMem, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		release(bus)
		return nil, fmt.Errorf("open %s: %w", devMem, err)
	}
	mapBase, off, length := mapWindow(base, uint32(unix.Getpagesize()))
	mem, err := unix.Mmap(fd, int64(mapBase), length,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		release(bus)
		return nil, fmt.Errorf("mmap %s @%#x: %w", bus, base, err)
	}
	return &Window{mem: mem, fd: fd, bus: bus, off: off}, nil
}

// reg returns a pointer to the register word inside the mapping.
func (w *Window) reg(r i2chw.Reg) *uint32 {
	return (*uint32)(unsafe.Pointer(&w.mem[w.off+r.Offset()]))
}

// ReadReg implements i2chw.Registers. Atomic accesses keep the
// compiler from coalescing the status polls in the busy-wait loop.
func (w *Window) ReadReg(r i2chw.Reg) (uint32, error) {
	if w.mem == nil {
		return 0, fmt.Errorf("%w: %s window closed", i2chw.ErrRegisterAccess, w.bus)
	}
	return atomic.LoadUint32(w.reg(r)), nil
}

// WriteReg implements i2chw.Registers.
func (w *Window) WriteReg(r i2chw.Reg, v uint32) error {
	if w.mem == nil {
		return fmt.Errorf("%w: %s window closed", i2chw.ErrRegisterAccess, w.bus)
	}
	atomic.StoreUint32(w.reg(r), v)
	return nil
}

// Close unmaps the page and releases the instance claim.
func (w *Window) Close() error {
	if w.mem == nil {
		return nil
	}
	mem := w.mem
	w.mem = nil
	err := unix.Munmap(mem)
	if cerr := unix.Close(w.fd); err == nil {
		err = cerr
	}
	release(w.bus)
	if err != nil {
		return fmt.Errorf("close %s window: %w", w.bus, err)
	}
	return nil
}

var _ i2chw.Registers = (*Window)(nil)
