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

package i2chw_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	i2chw "github.com/tm4clab/go-i2chw"
	"github.com/tm4clab/go-i2chw/internal/hwsim"
)

// newTestController wires a controller to a fresh simulator with an
// instant settle delay and a small poll budget.
func newTestController(t *testing.T) (*i2chw.Controller, *hwsim.Sim) {
	t.Helper()
	sim := hwsim.New()
	ctrl, err := i2chw.New(sim, i2chw.Config{
		Bus:        i2chw.I2C0,
		Pins:       i2chw.PinPair{SCL: "PB2", SDA: "PB3"},
		Freq:       100 * physic.KiloHertz,
		SysClk:     16 * physic.MegaHertz,
		Settle:     func() {},
		PollBudget: 64,
	})
	require.NoError(t, err)
	return ctrl, sim
}

// countBits returns how many logged commands carry the given strobe.
func countBits(commands []uint32, bit uint32) int {
	n := 0
	for _, cmd := range commands {
		if cmd&bit != 0 {
			n++
		}
	}
	return n
}

func TestNewProgramsController(t *testing.T) {
	_, sim := newTestController(t)
	// Master enable, then the 100 kHz / 16 MHz divisor.
	require.Len(t, sim.ControlWrites, 1)
	assert.Equal(t, uint32(1<<4), sim.ControlWrites[0])
	require.Len(t, sim.TprWrites, 1)
	assert.Equal(t, uint32(7), sim.TprWrites[0])
	// Configuration alone issues no bus command.
	assert.Empty(t, sim.Commands)
	assert.Empty(t, sim.AddrWrites)
}

func TestNewRejectsBadPins(t *testing.T) {
	_, err := i2chw.New(hwsim.New(), i2chw.Config{
		Bus:    i2chw.I2C0,
		Pins:   i2chw.PinPair{SCL: "PG0", SDA: "PG1"},
		Freq:   100 * physic.KiloHertz,
		SysClk: 16 * physic.MegaHertz,
	})
	assert.ErrorIs(t, err, i2chw.ErrInvalidConfig)
}

func TestAllWriteTransaction(t *testing.T) {
	ctrl, sim := newTestController(t)

	err := ctrl.Transaction(0x50, []i2chw.Operation{
		i2chw.WriteOp([]byte{0x01, 0x02, 0x03}),
		i2chw.WriteOp([]byte{0x04}),
	})
	require.NoError(t, err)

	// Data register saw every byte in order.
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, sim.DataWritten)
	// One address phase, direction write.
	require.Len(t, sim.AddrWrites, 1)
	assert.Equal(t, uint32(0xA0), sim.AddrWrites[0])
	// One command per byte: exactly one START, exactly one STOP, and
	// every byte after the first is a continuation.
	require.Len(t, sim.Commands, 4)
	assert.Equal(t, 1, countBits(sim.Commands, i2chw.CmdStart))
	assert.Equal(t, 1, countBits(sim.Commands, i2chw.CmdStop))
	assert.Equal(t, i2chw.CmdStart|i2chw.CmdRun, sim.Commands[0])
	assert.Equal(t, i2chw.CmdRun, sim.Commands[1])
	assert.Equal(t, i2chw.CmdRun, sim.Commands[2])
	assert.Equal(t, i2chw.CmdRun|i2chw.CmdStop, sim.Commands[3])

	assert.False(t, sim.BusHeld(), "bus must be idle after the transaction")
}

func TestAllReadTransaction(t *testing.T) {
	ctrl, sim := newTestController(t)
	sim.QueueReadData([]byte{0xCA, 0xFE, 0x42})

	buf := make([]byte, 3)
	err := ctrl.Transaction(0x1C, []i2chw.Operation{i2chw.ReadOp(buf)})
	require.NoError(t, err)

	assert.Equal(t, []byte{0xCA, 0xFE, 0x42}, buf)
	// Address phase once, direction read.
	require.Len(t, sim.AddrWrites, 1)
	assert.Equal(t, uint32(0x39), sim.AddrWrites[0])
	// ACK on every byte but the last; the last NACK-terminates with STOP.
	require.Len(t, sim.Commands, 3)
	assert.Equal(t, i2chw.CmdStart|i2chw.CmdRun|i2chw.CmdAck, sim.Commands[0])
	assert.Equal(t, i2chw.CmdRun|i2chw.CmdAck, sim.Commands[1])
	assert.Equal(t, i2chw.CmdRun|i2chw.CmdStop, sim.Commands[2])
}

func TestWriteThenReadRepeatedStart(t *testing.T) {
	ctrl, sim := newTestController(t)
	sim.QueueReadData([]byte{0xAA, 0xBB})

	buf := make([]byte, 2)
	err := ctrl.WriteRead(0x50, []byte{0x10}, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, buf)

	// Address written twice with the direction bit flipped.
	require.Equal(t, []uint32{0xA0, 0xA1}, sim.AddrWrites)
	// Write leg START, read leg repeated START, no STOP in between.
	require.Len(t, sim.Commands, 3)
	assert.Equal(t, i2chw.CmdStart|i2chw.CmdRun, sim.Commands[0])
	assert.Equal(t, i2chw.CmdStart|i2chw.CmdRun|i2chw.CmdAck, sim.Commands[1])
	assert.Equal(t, i2chw.CmdRun|i2chw.CmdStop, sim.Commands[2])
	assert.Equal(t, []byte{0x10}, sim.DataWritten)
}

func TestReadThenWriteSuppressesAckAtBoundary(t *testing.T) {
	ctrl, sim := newTestController(t)
	sim.QueueReadData([]byte{0x11, 0x22})

	buf := make([]byte, 2)
	err := ctrl.Transaction(0x33, []i2chw.Operation{
		i2chw.ReadOp(buf),
		i2chw.WriteOp([]byte{0x7E}),
	})
	require.NoError(t, err)

	require.Len(t, sim.Commands, 3)
	assert.Equal(t, i2chw.CmdStart|i2chw.CmdRun|i2chw.CmdAck, sim.Commands[0])
	// Final read byte before the direction change must not ACK.
	assert.Equal(t, i2chw.CmdRun, sim.Commands[1])
	assert.Equal(t, i2chw.CmdStart|i2chw.CmdRun|i2chw.CmdStop, sim.Commands[2])
	require.Equal(t, []uint32{0x67, 0x66}, sim.AddrWrites)
}

func TestSingleByteWriteOneShot(t *testing.T) {
	ctrl, sim := newTestController(t)

	require.NoError(t, ctrl.WriteTo(0x50, []byte{0xAB}))

	// START, RUN and STOP collapsed into a single command.
	require.Len(t, sim.Commands, 1)
	assert.Equal(t, i2chw.CmdStart|i2chw.CmdRun|i2chw.CmdStop, sim.Commands[0])
	assert.Equal(t, []byte{0xAB}, sim.DataWritten)
	require.Len(t, sim.AddrWrites, 1)
	assert.Equal(t, uint32(0xA0), sim.AddrWrites[0])
	// The watchdog budget is programmed before the wait.
	assert.NotEmpty(t, sim.TimeoutWrites)
	assert.False(t, sim.BusHeld())
}

func TestSingleByteReadOneShot(t *testing.T) {
	ctrl, sim := newTestController(t)
	sim.QueueReadData([]byte{0x5A})

	buf := make([]byte, 1)
	require.NoError(t, ctrl.ReadFrom(0x68, buf))

	assert.Equal(t, byte(0x5A), buf[0])
	require.Len(t, sim.Commands, 1)
	// One-shot read: no ACK strobe, NACK-terminated by construction.
	assert.Equal(t, i2chw.CmdStart|i2chw.CmdRun|i2chw.CmdStop, sim.Commands[0])
}

func TestArbitrationLossAborts(t *testing.T) {
	ctrl, sim := newTestController(t)
	sim.FailCommand(0, i2chw.StatusError|i2chw.StatusArbLost)

	err := ctrl.WriteTo(0x50, []byte{0x01, 0x02, 0x03})
	require.ErrorIs(t, err, i2chw.ErrArbitrationLost)

	// No further data-phase command after the loss, and no STOP
	// strobe: the bus was never ours to release.
	require.Len(t, sim.Commands, 1)
	assert.Equal(t, []byte{0x01}, sim.DataWritten)
}

func TestAddressNackStopsBeforeReturn(t *testing.T) {
	ctrl, sim := newTestController(t)
	sim.FailCommand(0, i2chw.StatusError|i2chw.StatusAddrNack)

	err := ctrl.WriteTo(0x23, []byte{0x01, 0x02})
	require.ErrorIs(t, err, i2chw.ErrAddressNack)

	// The data command, then the recovery STOP.
	require.Len(t, sim.Commands, 2)
	assert.Equal(t, i2chw.CmdStop, sim.Commands[1])
	assert.False(t, sim.BusHeld(), "STOP must leave the bus idle")

	var be *i2chw.BusError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, i2chw.Addr(0x23), be.Addr)
}

func TestDataNackMidTransfer(t *testing.T) {
	ctrl, sim := newTestController(t)
	sim.FailCommand(1, i2chw.StatusError|i2chw.StatusDataNack)

	err := ctrl.WriteTo(0x50, []byte{0x01, 0x02, 0x03})
	require.ErrorIs(t, err, i2chw.ErrDataNack)

	// First byte went out clean, second NACKed, then the recovery
	// STOP; the third byte is never issued.
	require.Len(t, sim.Commands, 3)
	assert.Equal(t, i2chw.CmdStop, sim.Commands[2])
	assert.Equal(t, []byte{0x01, 0x02}, sim.DataWritten)
}

func TestTimeoutOutcome(t *testing.T) {
	ctrl, sim := newTestController(t)
	sim.FailCommand(0, i2chw.StatusClockTimeout)

	err := ctrl.WriteTo(0x50, []byte{0xAB})
	require.ErrorIs(t, err, i2chw.ErrTimeout)
	assert.True(t, i2chw.IsBusStuck(err))

	// Timeouts carry the register trace for post-mortem.
	te := i2chw.GetTrace(err)
	require.NotNil(t, te)
	assert.Equal(t, "I2C0", te.Bus)
	assert.NotEmpty(t, te.Trace)
}

func TestEmptyTransaction(t *testing.T) {
	ctrl, sim := newTestController(t)

	require.NoError(t, ctrl.Transaction(0x50, nil))

	// No register access at all.
	assert.Empty(t, sim.Commands)
	assert.Empty(t, sim.AddrWrites)
	assert.Empty(t, sim.DataWritten)
	assert.Empty(t, sim.TimeoutWrites)
}

func TestZeroLengthOperationRejected(t *testing.T) {
	ctrl, sim := newTestController(t)

	err := ctrl.Transaction(0x50, []i2chw.Operation{
		i2chw.WriteOp([]byte{0x01}),
		i2chw.ReadOp(nil),
	})
	require.ErrorIs(t, err, i2chw.ErrInvalidOperation)

	// Rejected before any register is touched.
	assert.Empty(t, sim.Commands)
	assert.Empty(t, sim.AddrWrites)
	assert.Empty(t, sim.DataWritten)
	assert.Empty(t, sim.TimeoutWrites)
}

func TestInvalidAddressRejected(t *testing.T) {
	ctrl, sim := newTestController(t)

	err := ctrl.WriteTo(0x9A, []byte{0x01})
	require.ErrorIs(t, err, i2chw.ErrInvalidAddress)
	assert.Empty(t, sim.Commands)
}

func TestWaitsOutForeignBusHolder(t *testing.T) {
	ctrl, sim := newTestController(t)
	sim.HoldBusFor(5)

	require.NoError(t, ctrl.WriteTo(0x50, []byte{0xAB}))
	require.Len(t, sim.Commands, 1)
}

func TestStuckBusBusyTimesOut(t *testing.T) {
	ctrl, sim := newTestController(t)
	// A bus that never idles (BUSBSY set, controller itself not busy)
	// must exhaust the poll budget instead of spinning forever.
	sim.HoldBusFor(1 << 30)

	err := ctrl.WriteTo(0x50, []byte{0x01})
	require.ErrorIs(t, err, i2chw.ErrTimeout)
	assert.Empty(t, sim.Commands, "no command may be issued while the bus is held")
}

func TestPollBudgetGuard(t *testing.T) {
	ctrl, sim := newTestController(t)
	// Controller never settles; the software guard must fire even
	// though the simulated watchdog bit never does.
	sim.SetBusyPolls(1 << 30)

	err := ctrl.WriteTo(0x50, []byte{0xAB})
	require.ErrorIs(t, err, i2chw.ErrTimeout)
}

func TestFreeReleasesRegisters(t *testing.T) {
	ctrl, sim := newTestController(t)

	regs := ctrl.Free()
	assert.Equal(t, i2chw.Registers(sim), regs)

	assert.ErrorIs(t, ctrl.WriteTo(0x50, []byte{0x01}), i2chw.ErrReleased)
	assert.ErrorIs(t, ctrl.SetBusSpeed(400*physic.KiloHertz), i2chw.ErrReleased)
}

func TestSetBusSpeed(t *testing.T) {
	ctrl, sim := newTestController(t)

	require.NoError(t, ctrl.SetBusSpeed(400*physic.KiloHertz))
	require.Len(t, sim.TprWrites, 2)
	// 400 kHz at 16 MHz sysclk.
	assert.Equal(t, uint32(1), sim.TprWrites[1])

	err := ctrl.SetBusSpeed(0)
	assert.ErrorIs(t, err, i2chw.ErrInvalidConfig)
}

func TestRegisterAccessFailureSurfaces(t *testing.T) {
	ctrl, sim := newTestController(t)
	sim.SetAccessError(hwsim.ErrClosed)

	err := ctrl.WriteTo(0x50, []byte{0x01})
	require.ErrorIs(t, err, i2chw.ErrRegisterAccess)
}

func TestAccessors(t *testing.T) {
	ctrl, _ := newTestController(t)
	assert.Equal(t, i2chw.I2C0, ctrl.Bus())
	assert.Equal(t, i2chw.PinPair{SCL: "PB2", SDA: "PB3"}, ctrl.Pins())
}
