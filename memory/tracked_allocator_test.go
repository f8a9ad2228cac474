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

package memory_test

import (
	"testing"

	"github.com/gfxkit/memcore/internal/memtest"
	"github.com/gfxkit/memcore/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackedAllocatorDelegation(t *testing.T) {
	parent := memtest.New(nil)
	mem := memory.NewTrackedAllocator(parent)
	assert.Equal(t, memory.Allocator(parent), mem.Parent())

	b := mem.Allocate(64)
	assert.Len(t, b, 64)
	assert.Equal(t, 1, parent.NumAllocated())

	b = mem.Reallocate(128, b)
	assert.Len(t, b, 128)

	mem.Free(b)
	assert.Equal(t, 0, parent.InUse())
}

func TestTrackedAllocatorNilParent(t *testing.T) {
	mem := memory.NewTrackedAllocator(nil)
	assert.Equal(t, memory.DefaultAllocator(), mem.Parent())

	b := mem.Allocate(32)
	assert.Len(t, b, 32)
	mem.Free(b)
}

func TestTrackedAllocatorSetTracker(t *testing.T) {
	mem := memory.NewTrackedAllocator(nil)
	assert.Nil(t, mem.Tracker())

	// Calls before a tracker is installed are not reported.
	early := mem.Allocate(16)

	tracker := memory.NewFullTracker()
	mem.SetTracker(tracker)
	assert.Equal(t, memory.Tracker(tracker), mem.Tracker())

	b := mem.Allocate(64)
	assert.EqualValues(t, 1, tracker.AllocationCount())
	mem.Free(b)
	assert.EqualValues(t, 1, tracker.DeallocationCount())

	// Removing the tracker stops reporting immediately.
	mem.SetTracker(nil)
	mem.Free(mem.Allocate(64))
	assert.EqualValues(t, 1, tracker.AllocationCount())

	mem.Free(early)
	tracker.AssertAllFreed(t)
}

func TestTrackedAllocatorLifetimeOverrides(t *testing.T) {
	defer resetDefaults()

	procShort := memtest.New(nil)
	memory.SetDefaultAllocatorForLifetime(memory.ShortTerm, procShort)

	mem := memory.NewTrackedAllocator(nil)
	assert.Equal(t, memory.Allocator(procShort), mem.AllocatorForLifetime(memory.ShortTerm))
	assert.Equal(t, memory.HeapAllocator(), mem.AllocatorForLifetime(memory.LongTerm))

	override := memtest.New(nil)
	mem.SetAllocatorForLifetime(memory.ShortTerm, override)
	assert.Equal(t, memory.Allocator(override), mem.AllocatorForLifetime(memory.ShortTerm))
	assert.Equal(t, memory.Allocator(override), memory.ForLifetime(mem, memory.ShortTerm))

	mem.SetAllocatorForLifetime(memory.ShortTerm, nil)
	assert.Equal(t, memory.Allocator(procShort), mem.AllocatorForLifetime(memory.ShortTerm))
}

func TestTrackedAllocatorFreeUnreportedBlock(t *testing.T) {
	lc := memtest.NewLogChecker()
	defer memory.SetLogger(memory.SetLogger(lc.Logger()))

	mem, tracker := memtest.NewTracked()
	mem.Free(make([]byte, 8))
	assert.True(t, lc.HasMessage("ERROR", "pointer does not correspond to an active allocation"))
	assert.EqualValues(t, 0, tracker.DeallocationCount())
}

func TestTrackedAllocatorReallocatePanicKeepsRecord(t *testing.T) {
	lc := memtest.NewLogChecker()
	defer memory.SetLogger(memory.SetLogger(lc.Logger()))

	tracker := memory.NewFullTracker()
	mem := memory.NewTrackedAllocator(memory.NewLimitAllocator(nil, 128))
	mem.SetTracker(tracker)

	b := mem.Allocate(64)

	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "the grow should have exceeded the budget")
			_, ok := r.(memory.OutOfMemoryError)
			require.True(t, ok, "expected OutOfMemoryError, got %v", r)
		}()
		mem.Reallocate(1<<20, b)
	}()

	// A rejected grow must leave the still-live block tracked.
	assert.EqualValues(t, 1, tracker.ActiveAllocationCount())
	assert.EqualValues(t, 64, tracker.ActiveBytes())
	assert.EqualValues(t, 1, tracker.AllocationCount())
	assert.EqualValues(t, 0, tracker.DeallocationCount())

	mem.Free(b)
	assert.False(t, lc.HasMessage("ERROR", "pointer does not correspond to an active allocation"))
	tracker.AssertAllFreed(t)
}
