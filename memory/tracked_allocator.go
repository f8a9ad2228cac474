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
	"sync"

	"github.com/gfxkit/memcore/internal/debug"
)

// TrackedAllocator delegates to a parent allocator while routing every call
// through an optional Tracker and resolving per-lifetime requests through an
// optional override table. It is the configurable building block that other
// allocators stay free of.
type TrackedAllocator struct {
	parent Allocator

	mu         sync.RWMutex
	tracker    Tracker
	byLifetime [NumLifetimes]Allocator
}

// NewTrackedAllocator wraps parent; a nil parent wraps the default allocator.
func NewTrackedAllocator(parent Allocator) *TrackedAllocator {
	return &TrackedAllocator{parent: NonNullAllocator(parent)}
}

// Parent returns the allocator calls are delegated to.
func (a *TrackedAllocator) Parent() Allocator { return a.parent }

// SetTracker installs t, replacing any previous tracker. Only subsequent
// calls are routed through it; a nil t turns tracking off.
func (a *TrackedAllocator) SetTracker(t Tracker) {
	a.mu.Lock()
	a.tracker = t
	a.mu.Unlock()
}

// Tracker returns the installed tracker, or nil.
func (a *TrackedAllocator) Tracker() Tracker {
	a.mu.RLock()
	t := a.tracker
	a.mu.RUnlock()
	return t
}

// SetAllocatorForLifetime overrides where allocations with the given expected
// lifetime are routed when this allocator is asked to resolve them. A nil d
// removes the override, falling back to the process-wide default.
func (a *TrackedAllocator) SetAllocatorForLifetime(lt Lifetime, d Allocator) {
	debug.Assert(lt.valid(), func() string { return "memory: override configured for invalid " + lt.String() })
	if !lt.valid() {
		return
	}
	a.mu.Lock()
	a.byLifetime[lt] = d
	a.mu.Unlock()
}

// AllocatorForLifetime returns the override for the given lifetime when one
// is set, else the process-wide default. Never nil.
func (a *TrackedAllocator) AllocatorForLifetime(lt Lifetime) Allocator {
	if lt.valid() {
		a.mu.RLock()
		d := a.byLifetime[lt]
		a.mu.RUnlock()
		if d != nil {
			return d
		}
	}
	return DefaultAllocatorForLifetime(lt)
}

func (a *TrackedAllocator) Allocate(size int) []byte {
	b := a.parent.Allocate(size)
	if t := a.Tracker(); t != nil {
		t.TrackAllocation(a, size, b)
	}
	return b
}

func (a *TrackedAllocator) Reallocate(size int, b []byte) []byte {
	// The old record is swapped out only after the parent succeeds, so a
	// panicking grow leaves the still-live block tracked.
	out := a.parent.Reallocate(size, b)
	if t := a.Tracker(); t != nil {
		t.TrackDeallocation(a, b)
		t.TrackAllocation(a, size, out)
	}
	return out
}

func (a *TrackedAllocator) Free(b []byte) {
	if t := a.Tracker(); t != nil {
		t.TrackDeallocation(a, b)
	}
	a.parent.Free(b)
}

var (
	_ Allocator        = (*TrackedAllocator)(nil)
	_ LifetimeResolver = (*TrackedAllocator)(nil)
)
