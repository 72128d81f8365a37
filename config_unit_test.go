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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestTimerPeriod(t *testing.T) {
	tests := []struct {
		name     string
		sysClk   physic.Frequency
		freq     physic.Frequency
		expected uint32
		wantErr  bool
	}{
		{name: "100kHz at 16MHz", sysClk: 16 * physic.MegaHertz, freq: 100 * physic.KiloHertz, expected: 7},
		{name: "400kHz at 80MHz", sysClk: 80 * physic.MegaHertz, freq: 400 * physic.KiloHertz, expected: 9},
		{name: "100kHz at 120MHz", sysClk: 120 * physic.MegaHertz, freq: 100 * physic.KiloHertz, expected: 59},
		{name: "400kHz at 16MHz", sysClk: 16 * physic.MegaHertz, freq: 400 * physic.KiloHertz, expected: 1},
		{name: "divisor overflow", sysClk: 400 * physic.MegaHertz, freq: 100 * physic.KiloHertz, wantErr: true},
		{name: "zero frequency", sysClk: 16 * physic.MegaHertz, freq: 0, wantErr: true},
		{name: "zero sysclk", sysClk: 0, freq: 100 * physic.KiloHertz, wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tpr, err := timerPeriod(test.sysClk, test.freq)
			if test.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, tpr)
		})
	}
}

func TestValidatePins(t *testing.T) {
	assert.NoError(t, validatePins(I2C0, PinPair{SCL: "PB2", SDA: "PB3"}))
	assert.NoError(t, validatePins(I2C2, PinPair{SCL: "PP5", SDA: "PN4"}))

	err := validatePins(I2C0, PinPair{SCL: "PG0", SDA: "PB3"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = validatePins(I2C1, PinPair{SCL: "PG0", SDA: "PB3"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = validatePins(BusID(9), PinPair{SCL: "PB2", SDA: "PB3"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDefaultPins(t *testing.T) {
	pins, ok := DefaultPins(I2C0)
	assert.True(t, ok)
	assert.Equal(t, PinPair{SCL: "PB2", SDA: "PB3"}, pins)

	_, ok = DefaultPins(BusID(9))
	assert.False(t, ok)
}

func TestRegisterMap(t *testing.T) {
	base, ok := I2C1.Base()
	assert.True(t, ok)
	assert.Equal(t, uint32(0x4002_1000), base)

	_, ok = BusID(9).Base()
	assert.False(t, ok)

	// Command and status are the two faces of I2CMCS.
	assert.Equal(t, RegCommand.Offset(), RegStatus.Offset())
	assert.Equal(t, uint32(0x004), RegCommand.Offset())
	assert.Equal(t, uint32(0x000), RegAddress.Offset())
	assert.Equal(t, uint32(0x008), RegData.Offset())
}
