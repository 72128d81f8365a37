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

package i2chw

// Reg identifies one register of the master-mode controller block.
// RegCommand and RegStatus share a hardware offset (I2CMCS); the
// command view is write-only and the status view is read-only, so they
// are kept as distinct logical registers.
type Reg uint8

const (
	// RegAddress is I2CMSA: 7-bit target address in bits 7:1, receive/
	// send bit in bit 0 (1 = read).
	RegAddress Reg = iota
	// RegCommand is the write view of I2CMCS: run/start/stop/ack strobes.
	RegCommand
	// RegStatus is the read view of I2CMCS: busy/error/arbitration/
	// NACK/timeout flags.
	RegStatus
	// RegData is I2CMDR: the outgoing or incoming data byte.
	RegData
	// RegTimerPeriod is I2CMTPR: the bus clock divisor.
	RegTimerPeriod
	// RegControl is I2CMCR: master function enable.
	RegControl
	// RegTimeout is I2CMCLKOCNT: the clock-low timeout watchdog budget.
	RegTimeout
)

func (r Reg) String() string {
	switch r {
	case RegAddress:
		return "MSA"
	case RegCommand:
		return "MCS"
	case RegStatus:
		return "MCS"
	case RegData:
		return "MDR"
	case RegTimerPeriod:
		return "MTPR"
	case RegControl:
		return "MCR"
	case RegTimeout:
		return "MCLKOCNT"
	default:
		return "?"
	}
}

// Registers is the access boundary to one controller instance. The
// mmio and probe subpackages implement it against real hardware; the
// internal/hwsim package implements it against a simulated register
// file for tests.
//
// A Registers value is owned by at most one Controller at a time.
type Registers interface {
	// ReadReg returns the current value of a register.
	ReadReg(r Reg) (uint32, error)

	// WriteReg stores a value into a register.
	WriteReg(r Reg, v uint32) error

	// Close releases whatever OS resource backs the register window.
	Close() error
}

// busBases is the physical base address of each instance's register
// page in the part's memory map.
var busBases = map[BusID]uint32{
	I2C0: 0x4002_0000,
	I2C1: 0x4002_1000,
	I2C2: 0x4002_2000,
	I2C3: 0x4002_3000,
}

// Base returns the physical base address of the instance's register
// page, for backends that reach the registers by address.
func (b BusID) Base() (uint32, bool) {
	base, ok := busBases[b]
	return base, ok
}

// Offset returns the register's byte offset within the instance page.
// RegCommand and RegStatus share the I2CMCS offset.
func (r Reg) Offset() uint32 {
	switch r {
	case RegAddress:
		return 0x000
	case RegCommand, RegStatus:
		return 0x004
	case RegData:
		return 0x008
	case RegTimerPeriod:
		return 0x00C
	case RegControl:
		return 0x020
	case RegTimeout:
		return 0x024
	default:
		return 0
	}
}

// Command strobe bits (I2CMCS write view).
const (
	CmdRun   uint32 = 1 << 0
	CmdStart uint32 = 1 << 1
	CmdStop  uint32 = 1 << 2
	CmdAck   uint32 = 1 << 3
)

// Control register bits (I2CMCR).
const (
	ctlMasterEnable uint32 = 1 << 4 // MFE
)

// Address register layout (I2CMSA).
const (
	addrDirRead uint32 = 1 << 0
)

// Timer period register (I2CMTPR).
const tprMask uint32 = 0x7F

// Watchdog budget written to RegTimeout before every busy-wait. The
// counter counts SCL clock periods in units of 16, so 1000>>4 allows
// 1000 clocks: 10 ms at 100 kHz.
const watchdogBudget uint32 = 1000 >> 4

// command is one elementary bus command: the strobe bits plus an
// optional data byte loaded into RegData in the same cycle.
type command struct {
	data    byte
	start   bool
	run     bool
	stop    bool
	ack     bool
	hasData bool
}

func (c command) bits() uint32 {
	var v uint32
	if c.run {
		v |= CmdRun
	}
	if c.start {
		v |= CmdStart
	}
	if c.stop {
		v |= CmdStop
	}
	if c.ack {
		v |= CmdAck
	}
	return v
}
