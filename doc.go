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

// Package i2chw drives a TM4C/Stellaris-style I2C bus controller in
// master mode through its memory-mapped control and status registers.
//
// The controller registers are reached through the Registers interface,
// so the same transaction engine runs against real hardware (see the
// mmio and probe subpackages) or against a simulated register file in
// tests. A Controller owns its Registers exclusively from New until
// Free; there is no internal locking and no interrupt or DMA support.
// Every wait is an active status poll bounded by the controller's
// clock-timeout watchdog.
//
// Typical usage:
//
//	regs, err := mmio.Open(i2chw.I2C0)
//	if err != nil { ... }
//	ctrl, err := i2chw.New(regs, i2chw.Config{
//		Bus:    i2chw.I2C0,
//		Pins:   i2chw.PinPair{SCL: "PB2", SDA: "PB3"},
//		Freq:   100 * physic.KiloHertz,
//		SysClk: 16 * physic.MegaHertz,
//	})
//	if err != nil { ... }
//	defer ctrl.Free().Close()
//
//	buf := make([]byte, 2)
//	err = ctrl.Transaction(0x50, []i2chw.Operation{
//		i2chw.WriteOp([]byte{0x10}),
//		i2chw.ReadOp(buf),
//	})
package i2chw
