// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memory

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/aristanetworks/goarista/monotime"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"
)

// Tracker observes the allocations and deallocations an allocator performs.
// A TrackedAllocator invokes it after each Allocate/Reallocate and before
// each Free, passing the allocator the call went through. Zero-sized blocks
// are not reported.
type Tracker interface {
	TrackAllocation(a Allocator, requested int, b []byte)
	TrackDeallocation(a Allocator, b []byte)
}

// Use the environment variable MEMCORE_TRACKER_FRAMES to control how many
// frames up FullTracker looks when recording the caller of an allocation.
// The default of 2 skips TrackAllocation and the TrackedAllocator method;
// raise it when allocations funnel through helpers such as DataContainer
// factories or Vector growth.
const defTrackerFrames = 2

var trackerFrames = defTrackerFrames

func init() {
	if val, ok := os.LookupEnv("MEMCORE_TRACKER_FRAMES"); ok {
		if f, err := strconv.Atoi(val); err == nil {
			trackerFrames = f
		}
	}
}

type allocRecord struct {
	size int
	pc   uintptr
	line int
	at   uint64 // monotime.Now at allocation
}

// TestingT is the subset of testing.T used by AssertAllFreed, so that leak
// assertions work with any compatible harness.
type TestingT interface {
	Errorf(format string, args ...interface{})
	Helper()
}

// FullTracker is a Tracker that keeps per-block records of the live
// allocations it has seen, for leak detection at teardown. Each instance has
// a unique ID so reports from concurrently tracked allocators stay
// attributable.
//
// The zero value is not usable; construct with NewFullTracker.
type FullTracker struct {
	id uuid.UUID

	allocs           int64
	deallocs         int64
	allocatedBytes   int64
	deallocatedBytes int64

	mu     sync.Mutex
	active map[uintptr]*allocRecord
	trace  io.Writer
}

func NewFullTracker() *FullTracker {
	return &FullTracker{
		id:     uuid.New(),
		active: make(map[uintptr]*allocRecord),
	}
}

// ID returns the instance identifier used in trace lines and reports.
func (t *FullTracker) ID() uuid.UUID { return t.id }

// SetTraceWriter directs a line per tracked call to w, with monotonic
// timestamps. A nil w turns tracing off.
func (t *FullTracker) SetTraceWriter(w io.Writer) {
	t.mu.Lock()
	t.trace = w
	t.mu.Unlock()
}

func (t *FullTracker) TrackAllocation(a Allocator, requested int, b []byte) {
	if requested == 0 || len(b) == 0 {
		return
	}
	atomic.AddInt64(&t.allocs, 1)
	atomic.AddInt64(&t.allocatedBytes, int64(requested))

	rec := &allocRecord{size: requested, at: monotime.Now()}
	if pc, _, l, ok := runtime.Caller(trackerFrames); ok {
		rec.pc, rec.line = pc, l
	}

	ptr := addressOf(b)
	t.mu.Lock()
	t.active[ptr] = rec
	if t.trace != nil {
		fmt.Fprintf(t.trace, "tracker %s: allocate %d bytes -> %#x at %d\n", t.id, requested, ptr, rec.at)
	}
	t.mu.Unlock()
}

func (t *FullTracker) TrackDeallocation(a Allocator, b []byte) {
	if len(b) == 0 {
		return
	}
	ptr := addressOf(b)

	t.mu.Lock()
	rec, ok := t.active[ptr]
	if ok {
		delete(t.active, ptr)
	}
	if t.trace != nil {
		fmt.Fprintf(t.trace, "tracker %s: free %#x at %d\n", t.id, ptr, monotime.Now())
	}
	t.mu.Unlock()

	if !ok {
		logError("pointer does not correspond to an active allocation",
			"tracker", t.id.String(), "addr", fmt.Sprintf("%#x", ptr))
		return
	}
	atomic.AddInt64(&t.deallocs, 1)
	atomic.AddInt64(&t.deallocatedBytes, int64(rec.size))
}

// AllocationCount returns the number of non-empty allocations seen.
func (t *FullTracker) AllocationCount() int64 { return atomic.LoadInt64(&t.allocs) }

// DeallocationCount returns the number of matched deallocations seen.
func (t *FullTracker) DeallocationCount() int64 { return atomic.LoadInt64(&t.deallocs) }

// AllocatedBytes returns the total bytes handed out so far.
func (t *FullTracker) AllocatedBytes() int64 { return atomic.LoadInt64(&t.allocatedBytes) }

// DeallocatedBytes returns the total bytes returned so far.
func (t *FullTracker) DeallocatedBytes() int64 { return atomic.LoadInt64(&t.deallocatedBytes) }

// ActiveAllocationCount returns the number of allocations not yet freed.
func (t *FullTracker) ActiveAllocationCount() int64 {
	return t.AllocationCount() - t.DeallocationCount()
}

// ActiveBytes returns the bytes allocated and not yet freed.
func (t *FullTracker) ActiveBytes() int64 {
	return t.AllocatedBytes() - t.DeallocatedBytes()
}

// AssertAllFreed reports every live allocation as a test error, one line per
// leak with the recorded caller, then checks that the byte accounting is
// balanced.
func (t *FullTracker) AssertAllFreed(tt TestingT) {
	t.mu.Lock()
	for _, rec := range t.active {
		name := "unknown"
		if f := runtime.FuncForPC(rec.pc); f != nil {
			name = f.Name()
		}
		tt.Errorf("LEAK of %d bytes FROM %s line %d\n", rec.size, name, rec.line)
	}
	t.mu.Unlock()

	if sz := t.ActiveBytes(); sz != 0 {
		tt.Helper()
		tt.Errorf("invalid memory size exp=0, got=%d", sz)
	}
}

// CheckActive logs an ERROR when allocations are still live, typically at
// teardown of whatever owned the tracked allocator, and returns how many
// there were.
func (t *FullTracker) CheckActive() int {
	t.mu.Lock()
	n := len(t.active)
	t.mu.Unlock()
	if n > 0 {
		logError("allocations still active",
			"tracker", t.id.String(),
			"count", n,
			"bytes", t.ActiveBytes())
	}
	return n
}

type activeAllocation struct {
	Addr string `json:"addr"`
	Size int    `json:"size"`
	Func string `json:"func"`
	Line int    `json:"line"`
	Age  uint64 `json:"age_ns"`
}

type trackerReport struct {
	Tracker          string             `json:"tracker"`
	Allocations      int64              `json:"allocations"`
	Deallocations    int64              `json:"deallocations"`
	AllocatedBytes   int64              `json:"allocated_bytes"`
	DeallocatedBytes int64              `json:"deallocated_bytes"`
	Active           []activeAllocation `json:"active"`
}

// DumpActive writes a JSON report of the tracker totals and every live
// allocation, ordered by address, to w.
func (t *FullTracker) DumpActive(w io.Writer) error {
	now := monotime.Now()

	t.mu.Lock()
	addrs := make([]uintptr, 0, len(t.active))
	for ptr := range t.active {
		addrs = append(addrs, ptr)
	}
	slices.Sort(addrs)

	rep := trackerReport{
		Tracker:          t.id.String(),
		Allocations:      t.AllocationCount(),
		Deallocations:    t.DeallocationCount(),
		AllocatedBytes:   t.AllocatedBytes(),
		DeallocatedBytes: t.DeallocatedBytes(),
		Active:           make([]activeAllocation, 0, len(addrs)),
	}
	for _, ptr := range addrs {
		rec := t.active[ptr]
		f := runtime.FuncForPC(rec.pc)
		name := "unknown"
		if f != nil {
			name = f.Name()
		}
		rep.Active = append(rep.Active, activeAllocation{
			Addr: fmt.Sprintf("%#x", ptr),
			Size: rec.size,
			Func: name,
			Line: rec.line,
			Age:  now - rec.at,
		})
	}
	t.mu.Unlock()

	if err := json.NewEncoder(w).Encode(&rep); err != nil {
		return xerrors.Errorf("memory: dumping tracker report: %w", err)
	}
	return nil
}

var _ Tracker = (*FullTracker)(nil)
