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

// Operation is one direction-homogeneous leg of a transaction: either
// a byte sequence to transmit or a buffer to fill. Construct with
// WriteOp or ReadOp.
type Operation struct {
	buf  []byte
	read bool
}

// WriteOp returns an operation transmitting p to the device. The
// slice is borrowed for the duration of the transaction only.
func WriteOp(p []byte) Operation { return Operation{buf: p} }

// ReadOp returns an operation filling p from the device. The buffer
// is fully populated only when the whole transaction succeeds.
func ReadOp(p []byte) Operation { return Operation{buf: p, read: true} }

// IsRead reports the operation's direction.
func (o Operation) IsRead() bool { return o.read }

// Len returns the operation's byte count.
func (o Operation) Len() int { return len(o.buf) }

// Transaction executes ops against the device at addr as one bus-level
// unit: a single START..STOP span with a repeated START at every
// direction change and ACK suppressed on the final read byte.
//
// An empty ops slice succeeds without touching a register. A
// zero-length operation anywhere in the slice rejects the whole call
// with ErrInvalidOperation before any register access. Any bus error
// aborts immediately with its outcome (drive STOP first on a NACK);
// there is no internal retry. On success every read buffer is filled
// in issue order, every write byte has been shifted out, and the bus
// is idle.
func (c *Controller) Transaction(addr Addr, ops []Operation) error {
	if c.regs == nil {
		return ErrReleased
	}
	if !addr.Valid() {
		return &BusError{Err: ErrInvalidAddress, Op: "transaction", Addr: addr}
	}
	if len(ops) == 0 {
		return nil
	}
	for _, op := range ops {
		if op.Len() == 0 {
			return &BusError{Err: ErrInvalidOperation, Op: "transaction", Addr: addr}
		}
	}

	c.trace.clear()
	if err := c.sequence(addr, ops); err != nil {
		return c.trace.wrapError(&BusError{Err: err, Op: "transaction", Addr: addr})
	}
	return nil
}

// sequence turns the operation list into elementary bus commands.
//
// A pending-START flag is true for the first operation and for the
// first operation after every direction change; lookahead to the next
// operation's direction decides repeated-START placement and whether
// the last byte of a read leg may still ACK.
func (c *Controller) sequence(addr Addr, ops []Operation) error {
	// Another master may hold the bus; claim it only once it idles.
	if err := c.busyWait(&waitBusIdle); err != nil {
		return err
	}

	if len(ops) == 1 && ops[0].Len() == 1 {
		return c.oneShot(addr, ops[0])
	}

	start := true
	for i := range ops {
		op := ops[i]
		lastOp := i == len(ops)-1
		dirChange := !lastOp && ops[i+1].read != op.read

		if start {
			// First leg or repeated START: (re)write the address
			// with the leg's direction bit.
			if err := c.writeReg(RegAddress, addr.withDir(op.read)); err != nil {
				return err
			}
		}

		n := op.Len()
		for b := 0; b < n; b++ {
			lastByte := lastOp && b == n-1
			cmd := command{run: true}
			if start && b == 0 {
				cmd.start = true
			}
			if lastByte {
				cmd.stop = true
			}
			if op.read {
				// The master NACK-terminates a read on its final
				// byte, and equally on the leg's final byte when a
				// repeated START to a write follows.
				cmd.ack = !lastByte && !(dirChange && b == n-1)
			} else {
				cmd.data, cmd.hasData = op.buf[b], true
			}
			if err := c.issue(cmd); err != nil {
				return err
			}
			if op.read {
				v, err := c.readData()
				if err != nil {
					return err
				}
				op.buf[b] = v
			}
		}
		start = dirChange
	}

	// Let the STOP finish so the bus is idle on return.
	return c.busyWait(&waitBusIdle)
}

// oneShot handles the single-operation single-byte case: START, RUN
// and STOP collapse into one command (with ACK suppressed for a read)
// instead of the general two-command split. Bus behavior is identical
// to the general path, just issued in one cycle.
func (c *Controller) oneShot(addr Addr, op Operation) error {
	if err := c.writeReg(RegAddress, addr.withDir(op.read)); err != nil {
		return err
	}
	cmd := command{start: true, run: true, stop: true}
	if !op.read {
		cmd.data, cmd.hasData = op.buf[0], true
	}
	if err := c.issue(cmd); err != nil {
		return err
	}
	if op.read {
		v, err := c.readData()
		if err != nil {
			return err
		}
		op.buf[0] = v
	}
	return nil
}

// WriteTo transmits p to the device at addr in one transaction.
func (c *Controller) WriteTo(addr Addr, p []byte) error {
	return c.Transaction(addr, []Operation{WriteOp(p)})
}

// ReadFrom fills p from the device at addr in one transaction.
func (c *Controller) ReadFrom(addr Addr, p []byte) error {
	return c.Transaction(addr, []Operation{ReadOp(p)})
}

// WriteRead writes w then reads into r with a repeated START between
// the two legs, the usual register-pointer-then-read idiom.
func (c *Controller) WriteRead(addr Addr, w, r []byte) error {
	return c.Transaction(addr, []Operation{WriteOp(w), ReadOp(r)})
}
