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
	"unsafe"

	"github.com/JohnCGriffin/overflow"
)

// ScopedAllocation ties an array of T to a scope: allocate it at the top,
// defer Release, and the block goes back to its allocator when the scope
// unwinds. When the data turns out to be worth keeping, TransferToDataContainer
// hands the block off without copying.
//
// Elements of T must not contain pointers; the block is invisible to the
// garbage collector once viewed through Get.
type ScopedAllocation[T any] struct {
	alloc Allocator
	block []byte
	items []T
}

// NewScopedAllocation allocates count elements of T from a, or from the
// default allocator when a is nil. A count of zero (or a zero-sized T)
// allocates nothing.
func NewScopedAllocation[T any](a Allocator, count int) *ScopedAllocation[T] {
	s := &ScopedAllocation[T]{alloc: NonNullAllocator(a)}
	s.init(count)
	return s
}

// NewScopedAllocationForLifetime allocates count elements of T from the
// process-wide default allocator for the given lifetime.
func NewScopedAllocationForLifetime[T any](lt Lifetime, count int) *ScopedAllocation[T] {
	s := &ScopedAllocation[T]{alloc: DefaultAllocatorForLifetime(lt)}
	s.init(count)
	return s
}

func (s *ScopedAllocation[T]) init(count int) {
	assertPointerFree[T]()
	if count <= 0 {
		return
	}
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	size, ok := overflow.Mul(count, elemSize)
	if !ok {
		logError("scoped allocation size overflows", "count", count, "elem_size", elemSize)
		return
	}
	if size == 0 {
		return
	}
	s.block = s.alloc.Allocate(size)
	s.items = unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(s.block))), count)
}

// Get returns the allocated elements. It is nil when nothing was allocated,
// after Release, and after a transfer.
func (s *ScopedAllocation[T]) Get() []T {
	return s.items
}

// Allocator returns the allocator the block came from.
func (s *ScopedAllocation[T]) Allocator() Allocator {
	return s.alloc
}

// Release returns the block to its allocator. It is a no-op when nothing is
// held anymore, so deferring it alongside a transfer is safe.
func (s *ScopedAllocation[T]) Release() {
	if s.block == nil {
		return
	}
	s.alloc.Free(s.block)
	s.block, s.items = nil, nil
}

// TransferToDataContainer moves ownership of the block into a new
// DataContainer whose deleter frees it through the original allocator. The
// scoped allocation is empty afterwards: Get returns nil and Release is a
// no-op. Transferring twice yields a container over a nil payload.
func (s *ScopedAllocation[T]) TransferToDataContainer(wipeable bool) *DataContainer {
	block := s.block
	s.block, s.items = nil, nil
	return NewDataContainer(block, AllocatorDeleter(s.alloc), wipeable, s.alloc)
}
