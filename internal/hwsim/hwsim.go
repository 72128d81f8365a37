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

// Package hwsim simulates the master-mode register file of a TM4C-style
// I2C controller so the transaction engine can be exercised without
// hardware or real timing.
//
// The simulator records every register write, serves scripted incoming
// bytes on data-register reads, and settles each strobed command after
// a configurable number of busy polls with either a clean status or a
// scripted fault. Bus occupancy follows START/STOP strobes the way the
// real controller's BUSBSY flag does.
package hwsim

import (
	"errors"

	i2chw "github.com/tm4clab/go-i2chw"
	"github.com/tm4clab/go-i2chw/internal/syncutil"
)

// ErrClosed is returned for register access after Close.
var ErrClosed = errors.New("hwsim: register file closed")

// Sim is a simulated controller register file. It implements
// i2chw.Registers. The zero value is not usable; call New.
type Sim struct {
	faults    map[int]i2chw.Status
	accessErr error

	// Write logs, in write order.
	Commands      []uint32
	AddrWrites    []uint32
	DataWritten   []byte
	TimeoutWrites []uint32
	ControlWrites []uint32
	TprWrites     []uint32

	readQueue []byte

	settled       i2chw.Status
	busyPolls     int
	pendingBusy   int
	foreignHolder int
	busHeld       bool
	closed        bool

	mu syncutil.Mutex
}

// New returns a simulator that reports each command busy for two
// status polls before settling, matching the pipeline lag the settle
// delay exists for.
func New() *Sim {
	return &Sim{
		busyPolls: 2,
		faults:    make(map[int]i2chw.Status),
	}
}

// QueueReadData appends bytes the simulated device will return on
// data-register reads, in order. Reads past the queue return 0xFF,
// which is what a released SDA line shifts in.
func (s *Sim) QueueReadData(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readQueue = append(s.readQueue, p...)
}

// FailCommand arranges for the n-th strobed command (0-based) to
// settle with the given status flags instead of a clean status.
func (s *Sim) FailCommand(n int, status i2chw.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[n] = status
}

// SetBusyPolls changes how many status polls each command stays busy
// for. Large values paired with a small controller poll budget
// exercise the software guard behind the hardware watchdog.
func (s *Sim) SetBusyPolls(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busyPolls = n
}

// HoldBusFor makes a foreign master hold the bus for the first n
// status polls: BUSBSY is reported set with the controller itself not
// busy, as seen when another master owns the wire.
func (s *Sim) HoldBusFor(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.foreignHolder = n
}

// SetAccessError makes every subsequent register access fail with err,
// simulating a broken backend (unreadable probe link, unmapped page).
func (s *Sim) SetAccessError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessErr = err
}

// BusHeld reports whether the simulated bus is held by this master,
// i.e. a START was strobed with no STOP completing since.
func (s *Sim) BusHeld() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busHeld
}

// ReadReg implements i2chw.Registers.
func (s *Sim) ReadReg(r i2chw.Reg) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if s.accessErr != nil {
		return 0, s.accessErr
	}
	switch r {
	case i2chw.RegStatus:
		return uint32(s.statusLocked()), nil
	case i2chw.RegData:
		if len(s.readQueue) == 0 {
			return 0xFF, nil
		}
		b := s.readQueue[0]
		s.readQueue = s.readQueue[1:]
		return uint32(b), nil
	default:
		return 0, nil
	}
}

func (s *Sim) statusLocked() i2chw.Status {
	if s.pendingBusy > 0 {
		s.pendingBusy--
		return s.settled | i2chw.StatusBusy | i2chw.StatusBusBusy
	}
	if s.foreignHolder > 0 {
		s.foreignHolder--
		return i2chw.StatusBusBusy
	}
	st := s.settled
	if s.busHeld {
		st |= i2chw.StatusBusBusy
	} else {
		st |= i2chw.StatusIdle
	}
	return st
}

// WriteReg implements i2chw.Registers.
func (s *Sim) WriteReg(r i2chw.Reg, v uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.accessErr != nil {
		return s.accessErr
	}
	switch r {
	case i2chw.RegCommand:
		idx := len(s.Commands)
		s.Commands = append(s.Commands, v)
		if v&i2chw.CmdStart != 0 {
			s.busHeld = true
		}
		if v&i2chw.CmdStop != 0 {
			s.busHeld = false
		}
		s.pendingBusy = s.busyPolls
		if fault, ok := s.faults[idx]; ok {
			s.settled = fault
		} else {
			s.settled = 0
		}
	case i2chw.RegAddress:
		s.AddrWrites = append(s.AddrWrites, v)
	case i2chw.RegData:
		s.DataWritten = append(s.DataWritten, byte(v))
	case i2chw.RegTimeout:
		s.TimeoutWrites = append(s.TimeoutWrites, v)
	case i2chw.RegControl:
		s.ControlWrites = append(s.ControlWrites, v)
	case i2chw.RegTimerPeriod:
		s.TprWrites = append(s.TprWrites, v)
	case i2chw.RegStatus:
		// Read-only view; real hardware ignores the write.
	}
	return nil
}

// Close implements i2chw.Registers.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ i2chw.Registers = (*Sim)(nil)
