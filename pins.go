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

import "fmt"

// BusID selects one of the controller instances on the part.
type BusID uint8

const (
	I2C0 BusID = iota
	I2C1
	I2C2
	I2C3
	numBuses
)

func (b BusID) String() string {
	if b >= numBuses {
		return fmt.Sprintf("I2C?%d", uint8(b))
	}
	return fmt.Sprintf("I2C%d", uint8(b))
}

// Pin names a GPIO pin by port and number, e.g. "PB2".
type Pin string

// PinPair is the SCL/SDA pair a bus instance is wired to.
type PinPair struct {
	SCL Pin
	SDA Pin
}

// pinBindings lists which pins each bus instance can drive, per the
// part's signal map. Only these pairings route the controller's SCL
// and SDA to package pins; everything else is a wiring mistake the
// engine refuses at configuration time. Pin-mux programming itself is
// the caller's job.
var pinBindings = map[BusID]struct{ scl, sda []Pin }{
	I2C0: {scl: []Pin{"PB2"}, sda: []Pin{"PB3"}},
	I2C1: {scl: []Pin{"PG0"}, sda: []Pin{"PG1"}},
	I2C2: {scl: []Pin{"PL1", "PP5", "PN5"}, sda: []Pin{"PL0", "PN4"}},
	I2C3: {scl: []Pin{"PK4"}, sda: []Pin{"PK5"}},
}

// DefaultPins returns the first listed SCL/SDA pairing for a bus
// instance, for tools that don't care which of the routable pins is
// used.
func DefaultPins(bus BusID) (PinPair, bool) {
	binding, ok := pinBindings[bus]
	if !ok {
		return PinPair{}, false
	}
	return PinPair{SCL: binding.scl[0], SDA: binding.sda[0]}, true
}

func validatePins(bus BusID, pins PinPair) error {
	binding, ok := pinBindings[bus]
	if !ok {
		return fmt.Errorf("%w: unknown bus %s", ErrInvalidConfig, bus)
	}
	if !containsPin(binding.scl, pins.SCL) {
		return fmt.Errorf("%w: pin %s cannot drive %s SCL", ErrInvalidConfig, pins.SCL, bus)
	}
	if !containsPin(binding.sda, pins.SDA) {
		return fmt.Errorf("%w: pin %s cannot drive %s SDA", ErrInvalidConfig, pins.SDA, bus)
	}
	return nil
}

func containsPin(pins []Pin, p Pin) bool {
	for _, candidate := range pins {
		if candidate == p {
			return true
		}
	}
	return false
}
