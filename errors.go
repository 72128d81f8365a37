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

import (
	"errors"
	"fmt"
)

// Bus protocol outcomes. A transaction returns exactly one of these
// when the bus, not the caller, is at fault; the whole transaction is
// aborted and retrying it is the caller's decision.
var (
	// ErrTimeout means the clock-low watchdog expired while waiting
	// for the controller: a stuck bus or an absent clock.
	ErrTimeout = errors.New("bus timeout")
	// ErrArbitrationLost means another master won the bus. Only
	// meaningful on a true multi-master bus.
	ErrArbitrationLost = errors.New("arbitration lost")
	// ErrAddressNack means no device acknowledged the address phase.
	ErrAddressNack = errors.New("address not acknowledged")
	// ErrDataNack means the device stopped acknowledging mid-transfer.
	ErrDataNack = errors.New("data byte not acknowledged")
)

// Caller and backend errors - never produced by bus traffic.
var (
	ErrInvalidOperation = errors.New("zero-length operation")
	ErrInvalidAddress   = errors.New("address out of 7-bit range")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrBusClaimed       = errors.New("bus instance already claimed")
	ErrRegisterAccess   = errors.New("register access failed")
	ErrReleased         = errors.New("controller already released")
)

// BusError wraps a bus outcome with the operation and target address
// it occurred on. Use errors.Is against the sentinel outcomes above,
// or errors.As to recover the context.
type BusError struct {
	Err  error
	Op   string
	Addr Addr
}

func (e *BusError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("i2c 0x%02X: %v", byte(e.Addr), e.Err)
	}
	return fmt.Sprintf("i2c %s 0x%02X: %v", e.Op, byte(e.Addr), e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// IsNoAcknowledge reports whether err is either NACK outcome. A NACK
// usually means the device is absent, busy with an internal write
// cycle, or was handed more bytes than it accepts.
func IsNoAcknowledge(err error) bool {
	return errors.Is(err, ErrAddressNack) || errors.Is(err, ErrDataNack)
}

// IsBusStuck reports whether err indicates the bus itself is wedged
// (timeout or lost arbitration) rather than a device declining a byte.
// Callers seeing this should consider a controller reset before
// retrying.
func IsBusStuck(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrArbitrationLost)
}
