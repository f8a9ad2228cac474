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

import "sync/atomic"

// LimitAllocator enforces a byte budget on top of a parent allocator. A
// request that would push the outstanding total past the limit panics with
// OutOfMemoryError before reaching the parent; callers that treat the budget
// as a soft failure may recover it.
type LimitAllocator struct {
	limit     int64
	allocated int64
	maxUsed   int64
	parent    Allocator
}

// NewLimitAllocator wraps parent with a budget of limit bytes outstanding at
// a time. A nil parent wraps the default allocator.
func NewLimitAllocator(parent Allocator, limit int64) *LimitAllocator {
	return &LimitAllocator{limit: limit, parent: NonNullAllocator(parent)}
}

// Limit returns the configured budget in bytes.
func (a *LimitAllocator) Limit() int64 { return a.limit }

// Allocated returns the bytes currently outstanding.
func (a *LimitAllocator) Allocated() int64 { return atomic.LoadInt64(&a.allocated) }

// MaxAllocated returns the high-water mark of outstanding bytes.
func (a *LimitAllocator) MaxAllocated() int64 { return atomic.LoadInt64(&a.maxUsed) }

func (a *LimitAllocator) count(n int) (c int64) {
	c = atomic.AddInt64(&a.allocated, int64(n))
	for max := atomic.LoadInt64(&a.maxUsed); c > max; max = atomic.LoadInt64(&a.maxUsed) {
		if atomic.CompareAndSwapInt64(&a.maxUsed, max, c) {
			return
		}
	}
	return
}

func (a *LimitAllocator) account(n int) {
	if want := a.count(n); want > a.limit {
		allocated := a.count(-n)
		panic(OutOfMemoryError{
			Requested: n,
			Allocated: allocated,
			Limit:     a.limit,
		})
	}
}

func (a *LimitAllocator) Allocate(size int) []byte {
	a.account(size)
	return a.parent.Allocate(size)
}

func (a *LimitAllocator) Reallocate(size int, b []byte) []byte {
	a.account(size - len(b))
	return a.parent.Reallocate(size, b)
}

func (a *LimitAllocator) Free(b []byte) {
	a.count(-len(b))
	a.parent.Free(b)
}

var _ Allocator = (*LimitAllocator)(nil)
