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
	"math"
	"unsafe"

	"github.com/JohnCGriffin/overflow"
)

// Vector is a growable typed array whose backing store comes from an
// Allocator instead of the Go heap. Capacity grows by powers of two through
// Reallocate, so arenas can extend the block in place.
//
// Elements of T must not contain pointers. A Vector is not safe for
// concurrent use.
type Vector[T any] struct {
	alloc  Allocator
	block  []byte
	data   []T // full-capacity view over block
	length int
}

// NewVector creates an empty vector backed by a. A nil a inherits the
// allocator of the enclosing New call when there is one, and falls back to
// the process default otherwise.
func NewVector[T any](a Allocator) *Vector[T] {
	assertPointerFree[T]()
	if a == nil {
		a = constructionAllocator()
	}
	return &Vector[T]{alloc: NonNullAllocator(a)}
}

// NewVectorN creates a vector holding n zero elements.
func NewVectorN[T any](a Allocator, n int) *Vector[T] {
	v := NewVector[T](a)
	v.Resize(n)
	return v
}

// Len returns the number of elements.
func (v *Vector[T]) Len() int { return v.length }

// Cap returns the element capacity of the current block.
func (v *Vector[T]) Cap() int { return len(v.data) }

// Allocator returns the allocator backing the vector.
func (v *Vector[T]) Allocator() Allocator { return v.alloc }

// At returns element i.
func (v *Vector[T]) At(i int) T { return v.data[:v.length][i] }

// Set replaces element i.
func (v *Vector[T]) Set(i int, val T) { v.data[:v.length][i] = val }

// Data returns the elements as a slice sharing the vector's storage. The
// slice is valid until the next growth, Resize below its length, or Release.
func (v *Vector[T]) Data() []T {
	if v.length == 0 {
		return nil
	}
	return v.data[:v.length:v.length]
}

// Append adds vals at the end, growing as needed.
func (v *Vector[T]) Append(vals ...T) {
	if len(vals) == 0 {
		return
	}
	need := v.length + len(vals)
	v.Reserve(need)
	copy(v.data[v.length:need], vals)
	v.length = need
}

// Reserve grows the capacity to hold at least n elements. It never shrinks.
func (v *Vector[T]) Reserve(n int) {
	if n <= len(v.data) {
		return
	}
	v.grow(n)
}

// Resize sets the length to n. New elements are zero; shrinking zeroes the
// abandoned tail so stale values never resurface through a later growth.
func (v *Vector[T]) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(v.data) {
		v.grow(n)
	}
	if n < v.length {
		v.zeroRange(n, v.length)
	}
	v.length = n
}

// Clear empties the vector, keeping its capacity.
func (v *Vector[T]) Clear() { v.Resize(0) }

// Release returns the block to the allocator. The vector is empty and
// usable afterwards.
func (v *Vector[T]) Release() {
	if v.block != nil {
		v.alloc.Free(v.block)
		v.block = nil
	}
	v.data, v.length = nil, 0
}

func (v *Vector[T]) grow(minCap int) {
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	if elemSize == 0 {
		// Zero-sized elements need no storage, only bookkeeping.
		v.data = make([]T, minCap)
		return
	}

	newCap := nextPowerOf2(minCap)
	size, ok := overflow.Mul(newCap, elemSize)
	if !ok {
		newCap = minCap
		size, ok = overflow.Mul(newCap, elemSize)
		if !ok {
			panic(OutOfMemoryError{Requested: math.MaxInt})
		}
	}

	if v.block == nil {
		v.block = v.alloc.Allocate(size)
	} else {
		v.block = v.alloc.Reallocate(size, v.block)
	}
	v.data = unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(v.block))), newCap)
}

func (v *Vector[T]) zeroRange(from, to int) {
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	if elemSize == 0 || v.block == nil {
		return
	}
	Set(v.block[from*elemSize:to*elemSize], 0)
}

// byteView exposes the used portion of the block for DataContainer payloads.
func (v *Vector[T]) byteView() []byte {
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	if v.length == 0 || elemSize == 0 || v.block == nil {
		return nil
	}
	n := v.length * elemSize
	return v.block[:n:n]
}
