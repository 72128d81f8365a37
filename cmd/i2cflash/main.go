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

// Command i2cflash reads and writes 24-series EEPROMs through the
// i2chw transaction engine.
//
// Examples:
//
//	i2cflash -device mem:i2c0 -addr 0x50 -count 32
//	i2cflash -device probe:/dev/ttyUSB0@i2c1 -addr 0x50 -offset 16 -write "DEADBEEF"
//	i2cflash -device sim -count 16
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/physic"

	i2chw "github.com/tm4clab/go-i2chw"
	"github.com/tm4clab/go-i2chw/internal/hwsim"
	"github.com/tm4clab/go-i2chw/mmio"
	"github.com/tm4clab/go-i2chw/probe"
)

var (
	flagDevice = flag.String("device", "sim", "register backend: sim, mem:i2cN or probe:PORT@i2cN")
	flagAddr   = flag.String("addr", "0x50", "7-bit EEPROM address")
	flagOffset = flag.Uint("offset", 0, "byte offset within the EEPROM")
	flagCount  = flag.Uint("count", 16, "bytes to read")
	flagWrite  = flag.String("write", "", "hex bytes to write at offset (read mode if empty)")
	flagFreq   = flag.Uint("freq", 100, "bus frequency in kHz")
	flagSysClk = flag.Uint("sysclk", 16, "system clock in MHz")
	flagDebug  = flag.Bool("debug", false, "enable debug output")
)

func main() {
	flag.Parse()
	if *flagDebug {
		i2chw.SetDebugEnabled(true)
	}
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "i2cflash: %v\n", err)
		if te := i2chw.GetTrace(err); te != nil {
			fmt.Fprint(os.Stderr, te.FormatTrace())
		}
		os.Exit(1)
	}
}

func run() error {
	addr, err := parseAddr(*flagAddr)
	if err != nil {
		return err
	}
	regs, bus, err := openRegisters(*flagDevice)
	if err != nil {
		return err
	}
	defer func() { _ = regs.Close() }()

	pins, ok := i2chw.DefaultPins(bus)
	if !ok {
		return fmt.Errorf("no default pins for %s", bus)
	}
	ctrl, err := i2chw.New(regs, i2chw.Config{
		Bus:    bus,
		Pins:   pins,
		Freq:   physic.Frequency(*flagFreq) * physic.KiloHertz,
		SysClk: physic.Frequency(*flagSysClk) * physic.MegaHertz,
	})
	if err != nil {
		return err
	}
	defer ctrl.Free()

	if *flagWrite != "" {
		return writeEEPROM(ctrl, addr)
	}
	return dumpEEPROM(ctrl, addr)
}

// dumpEEPROM performs a random read: one write leg setting the byte
// offset, then a read leg after a repeated START.
func dumpEEPROM(ctrl *i2chw.Controller, addr i2chw.Addr) error {
	buf := make([]byte, *flagCount)
	if err := ctrl.WriteRead(addr, []byte{byte(*flagOffset)}, buf); err != nil {
		return fmt.Errorf("read %d bytes at offset %d: %w", *flagCount, *flagOffset, err)
	}
	fmt.Print(hex.Dump(buf))
	return nil
}

// writeEEPROM issues a single page write: offset byte then data in one
// write leg. Page boundaries are the EEPROM's business; this tool
// trusts the caller to stay within one page.
func writeEEPROM(ctrl *i2chw.Controller, addr i2chw.Addr) error {
	data, err := hex.DecodeString(strings.TrimPrefix(*flagWrite, "0x"))
	if err != nil {
		return fmt.Errorf("bad -write payload: %w", err)
	}
	page := append([]byte{byte(*flagOffset)}, data...)
	if err := ctrl.WriteTo(addr, page); err != nil {
		return fmt.Errorf("write %d bytes at offset %d: %w", len(data), *flagOffset, err)
	}
	fmt.Printf("wrote %d bytes at offset %d\n", len(data), *flagOffset)
	return nil
}

func parseAddr(s string) (i2chw.Addr, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 8)
	if err != nil || v > 0x7F {
		return 0, fmt.Errorf("bad address %q: want a 7-bit hex value", s)
	}
	return i2chw.Addr(v), nil
}

func parseBus(s string) (i2chw.BusID, error) {
	switch strings.ToLower(s) {
	case "i2c0":
		return i2chw.I2C0, nil
	case "i2c1":
		return i2chw.I2C1, nil
	case "i2c2":
		return i2chw.I2C2, nil
	case "i2c3":
		return i2chw.I2C3, nil
	default:
		return 0, fmt.Errorf("unknown bus %q", s)
	}
}

// openRegisters picks the register backend from the -device syntax.
func openRegisters(device string) (i2chw.Registers, i2chw.BusID, error) {
	switch {
	case device == "sim":
		sim := hwsim.New()
		// Give the simulated EEPROM something recognizable to serve.
		fill := make([]byte, *flagCount)
		for i := range fill {
			fill[i] = byte(i)
		}
		sim.QueueReadData(fill)
		return sim, i2chw.I2C0, nil

	case strings.HasPrefix(device, "mem:"):
		bus, err := parseBus(strings.TrimPrefix(device, "mem:"))
		if err != nil {
			return nil, 0, err
		}
		win, err := mmio.Open(bus)
		if err != nil {
			return nil, 0, err
		}
		return win, bus, nil

	case strings.HasPrefix(device, "probe:"):
		spec := strings.TrimPrefix(device, "probe:")
		port, busName, ok := strings.Cut(spec, "@")
		if !ok {
			return nil, 0, fmt.Errorf("probe device %q: want probe:PORT@i2cN", device)
		}
		bus, err := parseBus(busName)
		if err != nil {
			return nil, 0, err
		}
		conn, err := probe.Open(port, bus)
		if err != nil {
			return nil, 0, err
		}
		return conn, bus, nil

	default:
		return nil, 0, fmt.Errorf("unknown device %q", device)
	}
}
