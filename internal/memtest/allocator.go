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

// Package memtest provides test doubles shared by the package tests:
// a counting allocator and an slog capture for asserting on diagnostics.
package memtest

import (
	"sync"

	"github.com/gfxkit/memcore/memory"
)

// Allocator counts the calls and bytes that flow through it, delegating the
// actual work to a parent allocator. Tests balance NumAllocated against
// NumDeallocated to prove ownership moved where it should.
type Allocator struct {
	parent memory.Allocator

	mu               sync.Mutex
	numAllocated     int
	numDeallocated   int
	bytesAllocated   int64
	bytesDeallocated int64
}

// New returns a counting allocator delegating to parent, or to the built-in
// heap allocator when parent is nil.
func New(parent memory.Allocator) *Allocator {
	if parent == nil {
		parent = memory.HeapAllocator()
	}
	return &Allocator{parent: parent}
}

// NewTracked returns a heap-backed tracked allocator with a fresh
// FullTracker installed, for tests that end with
// "defer tracker.AssertAllFreed(t)".
func NewTracked() (*memory.TrackedAllocator, *memory.FullTracker) {
	tracker := memory.NewFullTracker()
	a := memory.NewTrackedAllocator(memory.NewGoAllocator())
	a.SetTracker(tracker)
	return a, tracker
}

func (a *Allocator) Allocate(size int) []byte {
	b := a.parent.Allocate(size)
	a.mu.Lock()
	a.numAllocated++
	a.bytesAllocated += int64(size)
	a.mu.Unlock()
	return b
}

func (a *Allocator) Reallocate(size int, b []byte) []byte {
	out := a.parent.Reallocate(size, b)
	a.mu.Lock()
	a.numAllocated++
	a.bytesAllocated += int64(size)
	a.numDeallocated++
	a.bytesDeallocated += int64(len(b))
	a.mu.Unlock()
	return out
}

func (a *Allocator) Free(b []byte) {
	if len(b) == 0 {
		return
	}
	a.mu.Lock()
	a.numDeallocated++
	a.bytesDeallocated += int64(len(b))
	a.mu.Unlock()
	a.parent.Free(b)
}

// NumAllocated returns how many allocations were served.
func (a *Allocator) NumAllocated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.numAllocated
}

// NumDeallocated returns how many blocks came back.
func (a *Allocator) NumDeallocated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.numDeallocated
}

// BytesAllocated returns the total bytes handed out.
func (a *Allocator) BytesAllocated() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bytesAllocated
}

// BytesDeallocated returns the total bytes returned.
func (a *Allocator) BytesDeallocated() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bytesDeallocated
}

// InUse returns the number of outstanding allocations.
func (a *Allocator) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.numAllocated - a.numDeallocated
}

var _ memory.Allocator = (*Allocator)(nil)
