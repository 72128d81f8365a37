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

// Package periphbus adapts a Controller to periph.io's i2c.Bus, so the
// periph device driver ecosystem runs unchanged on top of the
// memory-mapped engine.
package periphbus

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	i2chw "github.com/tm4clab/go-i2chw"
	"github.com/tm4clab/go-i2chw/internal/syncutil"
)

// Bus wraps a Controller as an i2c.Bus. periph buses must tolerate
// concurrent callers, so Tx and SetSpeed serialize on a mutex; the
// controller underneath stays single-owner.
type Bus struct {
	ctrl *i2chw.Controller
	mu   syncutil.Mutex
}

// Wrap adapts ctrl to i2c.Bus. The controller must not be used
// directly while the wrapper is alive.
func Wrap(ctrl *i2chw.Controller) *Bus {
	return &Bus{ctrl: ctrl}
}

// String implements i2c.Bus.
func (b *Bus) String() string {
	return fmt.Sprintf("i2chw/%s", b.ctrl.Bus())
}

// Tx implements i2c.Bus: w (if any) then r (if any) as one
// transaction with a repeated START between them.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return fmt.Errorf("periphbus: 10-bit address %#x: %w", addr, i2chw.ErrInvalidAddress)
	}
	ops := make([]i2chw.Operation, 0, 2)
	if len(w) > 0 {
		ops = append(ops, i2chw.WriteOp(w))
	}
	if len(r) > 0 {
		ops = append(ops, i2chw.ReadOp(r))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctrl.Transaction(i2chw.Addr(addr), ops)
}

// SetSpeed implements i2c.Bus by reprogramming the clock divisor.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctrl.SetBusSpeed(f)
}

var _ i2c.Bus = (*Bus)(nil)

// Open returns a kernel-managed I2C bus by periph name ("1",
// "/dev/i2c-1", ...), initializing the host drivers first. It is the
// escape hatch for boards where the controller is owned by the OS
// rather than mapped directly; use Wrap for the memory-mapped path.
func Open(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periphbus: host init: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("periphbus: open %q: %w", name, err)
	}
	return bus, nil
}
