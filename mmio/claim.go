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

// Package mmio maps a controller instance's register page from
// /dev/mem. The page is claimed process-wide on Open so two windows
// onto the same instance cannot coexist; the engine's single-owner
// discipline then covers the rest.
package mmio

import (
	"fmt"

	i2chw "github.com/tm4clab/go-i2chw"
	"github.com/tm4clab/go-i2chw/internal/syncutil"
)

var (
	claimMu syncutil.Mutex
	claimed = map[i2chw.BusID]bool{}
)

func claim(bus i2chw.BusID) error {
	claimMu.Lock()
	defer claimMu.Unlock()
	if claimed[bus] {
		return fmt.Errorf("%w: %s", i2chw.ErrBusClaimed, bus)
	}
	claimed[bus] = true
	return nil
}

func release(bus i2chw.BusID) {
	claimMu.Lock()
	defer claimMu.Unlock()
	delete(claimed, bus)
}
