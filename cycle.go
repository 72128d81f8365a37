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

// waitCond is a secondary condition a wait can insist on after the
// controller itself has gone not-busy, e.g. the whole bus going idle
// before a START is issued.
type waitCond struct {
	done func(Status) bool
	name string
}

var waitBusIdle = waitCond{
	name: "bus-idle",
	done: func(s Status) bool { return !s.BusBusy() },
}

// issue executes one elementary bus command: load the data byte if the
// command carries one, strobe the command register, then wait the
// command out. Any classified bus error aborts with that outcome.
func (c *Controller) issue(cmd command) error {
	if cmd.hasData {
		if err := c.writeReg(RegData, uint32(cmd.data)); err != nil {
			return err
		}
	}
	if err := c.writeReg(RegCommand, cmd.bits()); err != nil {
		return err
	}
	return c.busyWait(nil)
}

// busyWait spins until the controller reports not-busy, classifies the
// resulting status, and then, if extra is non-nil, keeps polling and
// classifying until the extra condition holds. The watchdog budget is
// programmed before each poll loop so a wedged bus surfaces as a
// clock-timeout status rather than a hang.
func (c *Controller) busyWait(extra *waitCond) error {
	// The busy flag lags the command strobe by several peripheral
	// clocks; polling immediately reads a stale not-busy.
	c.settle()

	if err := c.writeReg(RegTimeout, watchdogBudget); err != nil {
		return err
	}
	s, err := c.pollNotBusy()
	if err != nil {
		return err
	}
	if err := c.classifyAndRecover(s); err != nil {
		return err
	}

	if extra != nil {
		// The secondary wait shares the poll budget: a backend that
		// reports BUSBSY forever must surface as a timeout, not spin.
		for polls := 0; !extra.done(s); polls++ {
			if polls >= c.pollBudget {
				c.trace.record(RegStatus, uint32(s), true, extra.name+" wait budget exhausted")
				return ErrTimeout
			}
			s, err = c.pollNotBusy()
			if err != nil {
				return err
			}
			if err := c.classifyAndRecover(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// pollNotBusy reads the status register until the busy flag clears.
// The poll budget is a guard against register backends that never
// surface the hardware watchdog; on real silicon the clock-timeout
// flag fires long before the budget runs out.
func (c *Controller) pollNotBusy() (Status, error) {
	for i := 0; i < c.pollBudget; i++ {
		v, err := c.regs.ReadReg(RegStatus)
		if err != nil {
			return 0, fmt.Errorf("%w: status: %w", ErrRegisterAccess, err)
		}
		s := Status(v)
		if !s.Busy() {
			c.trace.record(RegStatus, v, true, "")
			return s, nil
		}
	}
	c.trace.record(RegStatus, 0, true, "poll budget exhausted")
	return 0, ErrTimeout
}

// classifyAndRecover maps a settled status to its outcome. On a NACK
// the controller still holds the bus, so a STOP is strobed first to
// leave it idle for the next caller; arbitration loss and timeout mean
// the bus was never ours to release.
func (c *Controller) classifyAndRecover(s Status) error {
	err := Classify(s)
	if err == nil {
		return nil
	}
	if IsNoAcknowledge(err) {
		if werr := c.writeReg(RegCommand, CmdStop); werr != nil {
			debugf("%s: stop after NACK failed: %v", c.bus, werr)
		}
	}
	return err
}

// writeReg writes one register through the backend, recording the
// access in the command trace.
func (c *Controller) writeReg(r Reg, v uint32) error {
	if err := c.regs.WriteReg(r, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRegisterAccess, r, err)
	}
	c.trace.record(r, v, false, "")
	return nil
}

// readData reads the incoming byte out of the data register.
func (c *Controller) readData() (byte, error) {
	v, err := c.regs.ReadReg(RegData)
	if err != nil {
		return 0, fmt.Errorf("%w: data: %w", ErrRegisterAccess, err)
	}
	c.trace.record(RegData, v, true, "")
	return byte(v), nil
}
