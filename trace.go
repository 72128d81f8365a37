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
	"fmt"
	"strings"
)

// TraceEntry records one register-level step of a transaction.
type TraceEntry struct {
	Note  string
	Reg   Reg
	Value uint32
	Read  bool
}

func (e TraceEntry) String() string {
	dir := ">"
	if e.Read {
		dir = "<"
	}
	if e.Note != "" {
		return fmt.Sprintf("%s %s 0x%02X (%s)", dir, e.Reg, e.Value, e.Note)
	}
	return fmt.Sprintf("%s %s 0x%02X", dir, e.Reg, e.Value)
}

// TraceableError wraps a transaction error with the register-level
// command trace that led to it. Extract it with errors.As:
//
//	var te *i2chw.TraceableError
//	if errors.As(err, &te) {
//	    log.Print(te.FormatTrace())
//	}
type TraceableError struct {
	Err   error
	Bus   string
	Trace []TraceEntry
}

func (e *TraceableError) Error() string { return e.Err.Error() }

func (e *TraceableError) Unwrap() error { return e.Err }

// FormatTrace returns a human-readable rendering of the trace.
func (e *TraceableError) FormatTrace() string {
	if len(e.Trace) == 0 {
		return fmt.Sprintf("[%s] (no trace data)", e.Bus)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] register trace (%d entries):\n", e.Bus, len(e.Trace))
	for _, entry := range e.Trace {
		fmt.Fprintf(&sb, "  %s\n", entry)
	}
	return sb.String()
}

// GetTrace extracts trace data from an error, or nil if none present.
func GetTrace(err error) *TraceableError {
	var te *TraceableError
	if errors.As(err, &te) {
		return te
	}
	return nil
}

// traceBuffer collects register-level entries for the command in
// flight. Fixed capacity; the oldest entry is evicted when full.
type traceBuffer struct {
	bus     string
	entries []TraceEntry
	maxSize int
}

const defaultTraceSize = 32

func newTraceBuffer(bus string) *traceBuffer {
	return &traceBuffer{
		bus:     bus,
		entries: make([]TraceEntry, 0, defaultTraceSize),
		maxSize: defaultTraceSize,
	}
}

func (tb *traceBuffer) record(reg Reg, value uint32, read bool, note string) {
	entry := TraceEntry{Reg: reg, Value: value, Read: read, Note: note}
	if len(tb.entries) >= tb.maxSize {
		copy(tb.entries, tb.entries[1:])
		tb.entries[len(tb.entries)-1] = entry
	} else {
		tb.entries = append(tb.entries, entry)
	}
}

func (tb *traceBuffer) clear() {
	tb.entries = tb.entries[:0]
}

// wrapError attaches the collected trace to err. Returns nil for nil.
func (tb *traceBuffer) wrapError(err error) error {
	if err == nil {
		return nil
	}
	trace := make([]TraceEntry, len(tb.entries))
	copy(trace, tb.entries)
	return &TraceableError{Err: err, Bus: tb.bus, Trace: trace}
}
