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
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Config describes how a controller instance is set up for master
// mode. Bus, Pins, Freq and SysClk are mandatory; the remaining fields
// tune the busy-wait machinery and exist mostly for tests.
type Config struct {
	// Bus is the controller instance being driven.
	Bus BusID
	// Pins is the SCL/SDA pair the instance is wired to. Checked
	// against the part's signal map; pin-mux and clock/power-domain
	// programming are the caller's responsibility.
	Pins PinPair
	// Freq is the target bus frequency, typically 100 kHz or 400 kHz.
	Freq physic.Frequency
	// SysClk is the system clock feeding the controller. The bus
	// clock divisor is derived from it and must be reprogrammed via
	// SetBusSpeed whenever either clock changes.
	SysClk physic.Frequency
	// Settle, when non-nil, replaces the fixed settling delay between
	// writing a command and the first status poll. Tests substitute a
	// recorder; production code leaves it nil.
	Settle func()
	// PollBudget caps status polls per wait as a defence against a
	// backend that never reports the watchdog bit. 0 means the
	// default.
	PollBudget int
}

// Controller drives one bus instance in master mode.
//
// A Controller exclusively owns its Registers from New until Free and
// is not safe for concurrent use: run transactions from one goroutine
// or add external locking (the periphbus package does the latter).
type Controller struct {
	regs       Registers
	settle     func()
	trace      *traceBuffer
	bus        BusID
	pins       PinPair
	freq       physic.Frequency
	sysClk     physic.Frequency
	pollBudget int
}

const (
	// settleDelay gives the controller time to raise its busy flag
	// after a command write; the flag lags the strobe by several
	// peripheral clocks. This is a timing invariant of the silicon,
	// not a tunable.
	settleDelay = 10 * time.Microsecond

	defaultPollBudget = 1 << 20
)

// New validates cfg, enables master mode, programs the bus clock
// divisor and takes ownership of regs. The controller's clock and
// power domain must already be enabled; New only touches the I2C
// register page.
func New(regs Registers, cfg Config) (*Controller, error) {
	if regs == nil {
		return nil, fmt.Errorf("%w: nil registers", ErrInvalidConfig)
	}
	if err := validatePins(cfg.Bus, cfg.Pins); err != nil {
		return nil, err
	}
	tpr, err := timerPeriod(cfg.SysClk, cfg.Freq)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		regs:       regs,
		bus:        cfg.Bus,
		pins:       cfg.Pins,
		freq:       cfg.Freq,
		sysClk:     cfg.SysClk,
		settle:     cfg.Settle,
		pollBudget: cfg.PollBudget,
		trace:      newTraceBuffer(cfg.Bus.String()),
	}
	if c.settle == nil {
		c.settle = func() { time.Sleep(settleDelay) }
	}
	if c.pollBudget <= 0 {
		c.pollBudget = defaultPollBudget
	}

	if err := c.writeReg(RegControl, ctlMasterEnable); err != nil {
		return nil, err
	}
	if err := c.writeReg(RegTimerPeriod, tpr); err != nil {
		return nil, err
	}
	debugf("%s: master enabled, tpr=%d (%s bus at %s sysclk)", c.bus, tpr, cfg.Freq, cfg.SysClk)
	return c, nil
}

// SetBusSpeed reprograms the bus clock divisor for a new target
// frequency. Call it again after any system clock change; the divisor
// is only valid for the SysClk it was computed from.
func (c *Controller) SetBusSpeed(freq physic.Frequency) error {
	if c.regs == nil {
		return ErrReleased
	}
	tpr, err := timerPeriod(c.sysClk, freq)
	if err != nil {
		return err
	}
	if err := c.writeReg(RegTimerPeriod, tpr); err != nil {
		return err
	}
	c.freq = freq
	return nil
}

// Free releases ownership of the register window and returns it to
// the caller. The controller is unusable afterwards; every method
// returns ErrReleased.
func (c *Controller) Free() Registers {
	regs := c.regs
	c.regs = nil
	return regs
}

// Bus returns the bus instance this controller drives.
func (c *Controller) Bus() BusID { return c.bus }

// Pins returns the pin pair the controller was configured with.
func (c *Controller) Pins() PinPair { return c.pins }

// timerPeriod computes the I2CMTPR divisor:
//
//	tpr = round(sysclk / (2 * 10 * freq)) - 1
//
// The 2*10 term comes from the controller's fixed SCL_LP+SCL_HP clock
// period of 10 system clocks per half cycle.
func timerPeriod(sysClk, freq physic.Frequency) (uint32, error) {
	if freq <= 0 || sysClk <= 0 {
		return 0, fmt.Errorf("%w: frequencies must be positive", ErrInvalidConfig)
	}
	divisor := (int64(sysClk) + 10*int64(freq)) / (20 * int64(freq))
	tpr := divisor - 1
	if tpr < 0 || uint32(tpr) > tprMask {
		return 0, fmt.Errorf("%w: %s unreachable from %s sysclk", ErrInvalidConfig, freq, sysClk)
	}
	return uint32(tpr), nil
}
