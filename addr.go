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

// Addr is a 7-bit target address. Values above 0x7F are rejected by
// the transaction engine; 10-bit addressing is not supported by this
// controller block.
type Addr uint8

// Valid reports whether the address fits in 7 bits.
func (a Addr) Valid() bool { return a <= 0x7F }

// withDir returns the RegAddress encoding: the address in bits 7:1
// and the receive/send bit in bit 0.
func (a Addr) withDir(read bool) uint32 {
	v := uint32(a) << 1
	if read {
		v |= addrDirRead
	}
	return v
}
