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

//go:build !linux

package mmio

import (
	"errors"

	i2chw "github.com/tm4clab/go-i2chw"
)

// ErrUnsupported is returned on platforms without /dev/mem.
var ErrUnsupported = errors.New("mmio: /dev/mem mapping requires linux")

// Window is one mapped register page. Only available on linux.
type Window struct{}

// Open fails on non-linux platforms; use the probe backend or hwsim.
func Open(_ i2chw.BusID) (*Window, error) {
	return nil, ErrUnsupported
}

// ReadReg implements i2chw.Registers.
func (*Window) ReadReg(_ i2chw.Reg) (uint32, error) { return 0, ErrUnsupported }

// WriteReg implements i2chw.Registers.
func (*Window) WriteReg(_ i2chw.Reg, _ uint32) error { return ErrUnsupported }

// Close implements i2chw.Registers.
func (*Window) Close() error { return nil }

var _ i2chw.Registers = (*Window)(nil)
