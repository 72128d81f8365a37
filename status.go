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

// Status is one snapshot of the controller status register.
type Status uint32

// Status register bits (I2CMCS read view).
const (
	StatusBusy         Status = 1 << 0
	StatusError        Status = 1 << 1
	StatusAddrNack     Status = 1 << 2 // ADRACK
	StatusDataNack     Status = 1 << 3 // DATACK
	StatusArbLost      Status = 1 << 4 // ARBLST
	StatusIdle         Status = 1 << 5
	StatusBusBusy      Status = 1 << 6 // BUSBSY: any master holds the bus
	StatusClockTimeout Status = 1 << 7 // CLKTO
)

// Busy reports whether the controller is still executing a command.
func (s Status) Busy() bool { return s&StatusBusy != 0 }

// BusBusy reports whether the bus itself is held, by this master or
// another one. Distinct from Busy: the bus stays busy between the
// START and STOP of a transaction even while the controller idles
// between commands.
func (s Status) BusBusy() bool { return s&StatusBusBusy != 0 }

// Idle reports whether the controller state machine is idle.
func (s Status) Idle() bool { return s&StatusIdle != 0 }

// Err reports whether the last command ended in error. The NACK
// sub-flags are only meaningful while this bit is set.
func (s Status) Err() bool { return s&StatusError != 0 }

// ArbitrationLost reports multi-master arbitration loss.
func (s Status) ArbitrationLost() bool { return s&StatusArbLost != 0 }

// AddrNack reports that the address phase was not acknowledged.
func (s Status) AddrNack() bool { return s&StatusAddrNack != 0 }

// DataNack reports that a transmitted data byte was not acknowledged.
func (s Status) DataNack() bool { return s&StatusDataNack != 0 }

// ClockTimeout reports that the clock-low timeout watchdog expired.
func (s Status) ClockTimeout() bool { return s&StatusClockTimeout != 0 }

// Classify maps a status snapshot to the error it represents, or nil
// for a clean status. Exactly one outcome is reported even when
// several flags are set, in fixed priority order: clock timeout, then
// arbitration loss, then address NACK, then data NACK. The error bit
// gates the NACK sub-flags; a NACK flag left over from an earlier
// command does not count unless the error bit is set with it.
func Classify(s Status) error {
	switch {
	case s.ClockTimeout():
		return ErrTimeout
	case s.ArbitrationLost():
		return ErrArbitrationLost
	case s.Err() && s.AddrNack():
		return ErrAddressNack
	case s.Err() && s.DataNack():
		return ErrDataNack
	default:
		return nil
	}
}
