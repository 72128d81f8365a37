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

// Package probe reaches a controller's registers through a serial
// debug monitor, for bring-up setups where the target exposes a
// peek/poke console on a UART instead of a mappable /dev/mem.
//
// The line protocol is the common monitor one:
//
//	-> mr 40020004
//	<- 00000020
//	-> mw 40020008 000000ab
//	<- ok
//
// Responses are a single line; anything starting with "err" is
// reported as a register access failure. Latency makes this backend
// slow, but the engine's protocol behavior is identical.
package probe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"

	i2chw "github.com/tm4clab/go-i2chw"
)

const readTimeout = 500 * time.Millisecond

// ErrReplyTimeout means the monitor sent no reply line within the
// serial read timeout: a dead link or a hung monitor.
var ErrReplyTimeout = errors.New("probe reply timeout")

// Conn is a register window over a serial monitor. It implements
// i2chw.Registers.
type Conn struct {
	port     serial.Port
	portName string
	bus      i2chw.BusID
	base     uint32
}

// Open opens the named serial port at 115200 8N1 and binds it to a
// bus instance's register page.
func Open(portName string, bus i2chw.BusID) (*Conn, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open probe port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set probe timeout %s: %w", portName, err)
	}
	conn, err := New(port, bus)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	conn.portName = portName
	return conn, nil
}

// New binds an already-open port to a bus instance. Exposed so tests
// and non-standard links can supply their own serial.Port.
func New(port serial.Port, bus i2chw.BusID) (*Conn, error) {
	base, ok := bus.Base()
	if !ok {
		return nil, fmt.Errorf("%w: no register page for %s", i2chw.ErrInvalidConfig, bus)
	}
	return &Conn{
		port: port,
		bus:  bus,
		base: base,
	}, nil
}

// ReadReg implements i2chw.Registers.
func (c *Conn) ReadReg(r i2chw.Reg) (uint32, error) {
	line, err := c.roundTrip(fmt.Sprintf("mr %08x", c.base+r.Offset()))
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(line, "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("probe %s: bad read reply %q: %w", c.bus, line, err)
	}
	return uint32(v), nil
}

// WriteReg implements i2chw.Registers.
func (c *Conn) WriteReg(r i2chw.Reg, v uint32) error {
	line, err := c.roundTrip(fmt.Sprintf("mw %08x %08x", c.base+r.Offset(), v))
	if err != nil {
		return err
	}
	if line != "ok" {
		return fmt.Errorf("probe %s: write rejected: %q", c.bus, line)
	}
	return nil
}

// Close implements i2chw.Registers.
func (c *Conn) Close() error {
	if c.port == nil {
		return nil
	}
	port := c.port
	c.port = nil
	if err := port.Close(); err != nil {
		return fmt.Errorf("close probe port %s: %w", c.portName, err)
	}
	return nil
}

// roundTrip sends one command line and returns the trimmed reply.
func (c *Conn) roundTrip(cmd string) (string, error) {
	if c.port == nil {
		return "", fmt.Errorf("%w: probe closed", i2chw.ErrRegisterAccess)
	}
	if _, err := c.port.Write([]byte(cmd + "\n")); err != nil {
		return "", fmt.Errorf("probe %s: %q: %w", c.bus, cmd, err)
	}
	line, err := c.readLine()
	if err != nil {
		return "", fmt.Errorf("probe %s: no reply to %q: %w", c.bus, cmd, err)
	}
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "err") {
		return "", fmt.Errorf("probe %s: monitor error for %q: %s", c.bus, cmd, line)
	}
	return line, nil
}

// readLine accumulates one reply line. The serial layer turns its read
// timeout into a zero-byte read with a nil error, so that case is the
// per-command timeout rather than data in flight.
func (c *Conn) readLine() (string, error) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := c.port.Read(buf)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return "", ErrReplyTimeout
		}
		if buf[0] == '\n' {
			return string(line), nil
		}
		line = append(line, buf[0])
	}
}

var _ i2chw.Registers = (*Conn)(nil)
