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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceBufferEviction(t *testing.T) {
	tb := newTraceBuffer("I2C0")
	for i := 0; i < defaultTraceSize+5; i++ {
		tb.record(RegCommand, uint32(i), false, "")
	}
	require.Len(t, tb.entries, defaultTraceSize)
	// Oldest entries evicted first.
	assert.Equal(t, uint32(5), tb.entries[0].Value)
	assert.Equal(t, uint32(defaultTraceSize+4), tb.entries[defaultTraceSize-1].Value)
}

func TestTraceWrapError(t *testing.T) {
	tb := newTraceBuffer("I2C2")
	tb.record(RegAddress, 0xA0, false, "")
	tb.record(RegStatus, 0x20, true, "")

	assert.NoError(t, tb.wrapError(nil))

	err := tb.wrapError(ErrDataNack)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataNack)

	te := GetTrace(err)
	require.NotNil(t, te)
	assert.Equal(t, "I2C2", te.Bus)
	require.Len(t, te.Trace, 2)
	assert.Contains(t, te.FormatTrace(), "MSA")

	// The wrapped trace is a snapshot, not an alias.
	tb.clear()
	assert.Len(t, te.Trace, 2)
}

func TestGetTraceMiss(t *testing.T) {
	assert.Nil(t, GetTrace(errors.New("plain")))
	assert.Nil(t, GetTrace(nil))
}

func TestTraceEntryString(t *testing.T) {
	e := TraceEntry{Reg: RegCommand, Value: 0x07}
	assert.Equal(t, "> MCS 0x07", e.String())

	e = TraceEntry{Reg: RegStatus, Value: 0x20, Read: true, Note: "settled"}
	assert.Equal(t, "< MCS 0x20 (settled)", e.String())
}
