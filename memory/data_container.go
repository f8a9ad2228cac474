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
	"sync/atomic"
	"unsafe"

	"github.com/JohnCGriffin/overflow"
	"github.com/gfxkit/memcore/internal/debug"
)

// overAllocatedPadding is the alignment slack added by the over-allocated
// factories so the payload can start on a 16-byte boundary inside the block.
const overAllocatedPadding = 16

// DataContainer is a reference-counted handle around a payload of bytes. The
// payload is either borrowed from the caller, owned via a caller-supplied
// Deleter, or owned because the factory allocated it. Wipeable containers can
// drop their payload early with WipeData once no consumer needs it anymore;
// the final Release always drops it.
//
// Retain/Release are safe from any goroutine. Access to the payload itself is
// not synchronized; callers coordinate their reads and writes.
type DataContainer struct {
	notifier

	refCount int64

	data       []byte
	block      []byte        // over-allocated mode: the full block backing data
	dataFn     func() []byte // dynamic payload, set by container variants
	deleter    Deleter
	wipeable   bool
	alloc      Allocator
	registered bool // holds an entry in the client-pointer registry
}

// NewDataContainer wraps data without copying it. A non-nil deleter passes
// ownership: the container releases the payload through it when wiped or
// fully released. A nil deleter borrows the bytes; the container never
// touches their ownership. The allocator a becomes the container's binding
// for derived allocations; nil picks the default.
//
// In builds with the assert tag, handing the same payload pointer to two
// owning containers logs an ERROR and returns nil.
func NewDataContainer(data []byte, deleter Deleter, wipeable bool, a Allocator) *DataContainer {
	dc := &DataContainer{
		refCount: 1,
		data:     data,
		deleter:  deleter,
		wipeable: wipeable,
		alloc:    NonNullAllocator(a),
	}
	if len(data) > 0 && deleter != nil && !registerClientPointer(dc) {
		logError("Duplicate client-space pointer passed to NewDataContainer",
			"addr", fmt.Sprintf("%#x", addressOf(data)))
		return nil
	}
	return dc
}

// NewDataContainerCopy allocates elemSize*count bytes and copies up to that
// many bytes from src into the new payload, which the container owns. A
// wipeable payload is allocated from the short-term derivative of a, since it
// is expected to be dropped early; otherwise a itself is used. Invalid sizes
// log an ERROR and return nil.
func NewDataContainerCopy(src []byte, elemSize, count int, wipeable bool, a Allocator) *DataContainer {
	if elemSize < 0 || count < 0 {
		logError("DataContainer copy with negative size", "elem_size", elemSize, "count", count)
		return nil
	}
	size, ok := overflow.Mul(elemSize, count)
	if !ok {
		logError("DataContainer copy size overflows", "elem_size", elemSize, "count", count)
		return nil
	}

	alloc := NonNullAllocator(a)
	payloadAlloc := alloc
	if wipeable {
		payloadAlloc = ForLifetime(alloc, ShortTerm)
	}

	buf := payloadAlloc.Allocate(size)
	copy(buf, src)
	return &DataContainer{
		refCount: 1,
		data:     buf,
		deleter:  AllocatorDeleter(payloadAlloc),
		wipeable: wipeable,
		alloc:    alloc,
	}
}

// NewDataContainerCopyOf is NewDataContainerCopy for a typed source slice.
// Read the payload back with DataOf.
func NewDataContainerCopyOf[T any](src []T, wipeable bool, a Allocator) *DataContainer {
	assertPointerFree[T]()
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	return NewDataContainerCopy(bytesOf(src, elemSize), elemSize, len(src), wipeable, a)
}

// NewDataContainerOverAllocated allocates one block holding both alignment
// slack and the payload, so the payload starts on a 16-byte boundary even for
// size zero. The block travels with the container and is freed with it; the
// payload cannot be wiped early. src, when non-nil, seeds the payload.
func NewDataContainerOverAllocated(size int, src []byte, a Allocator) *DataContainer {
	if size < 0 {
		logError("over-allocated DataContainer with negative size", "size", size)
		return nil
	}
	total, ok := overflow.Add(size, overAllocatedPadding)
	if !ok {
		logError("over-allocated DataContainer size overflows", "size", size)
		return nil
	}

	alloc := NonNullAllocator(a)
	block := alloc.Allocate(total)
	addr := int(addressOf(block))
	shift := roundUpToMultipleOf16(addr) - addr
	data := block[shift : shift+size : shift+size]
	copy(data, src)

	return &DataContainer{
		refCount: 1,
		data:     data,
		block:    block,
		deleter:  AllocatorDeleter(alloc),
		alloc:    alloc,
	}
}

// NewDataContainerOverAllocatedOf is NewDataContainerOverAllocated for count
// elements of T, seeded from src when non-nil.
func NewDataContainerOverAllocatedOf[T any](count int, src []T, a Allocator) *DataContainer {
	assertPointerFree[T]()
	if count < 0 {
		logError("over-allocated DataContainer with negative count", "count", count)
		return nil
	}
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	size, ok := overflow.Mul(elemSize, count)
	if !ok {
		logError("over-allocated DataContainer size overflows", "elem_size", elemSize, "count", count)
		return nil
	}
	return NewDataContainerOverAllocated(size, bytesOf(src, elemSize), a)
}

// Retain increases the reference count by 1.
func (dc *DataContainer) Retain() {
	atomic.AddInt64(&dc.refCount, 1)
}

// Release decreases the reference count by 1. When it reaches zero the
// payload is released regardless of wipeability, receivers are dropped, and
// the container must no longer be used.
func (dc *DataContainer) Release() {
	debug.Assert(atomic.LoadInt64(&dc.refCount) > 0, "memory: DataContainer released below zero")
	if atomic.AddInt64(&dc.refCount, -1) == 0 {
		dc.clear()
		dc.wipe()
	}
}

// Bytes returns the payload for reading, or nil once it was wiped. No
// receivers are notified. Callers must treat the slice as read-only.
func (dc *DataContainer) Bytes() []byte {
	return dc.bytes()
}

// MutableBytes returns the payload for writing, notifying every receiver
// before it does. Asking for mutable access to a nil or wiped payload logs an
// ERROR and returns nil without notifying anyone.
func (dc *DataContainer) MutableBytes() []byte {
	b := dc.bytes()
	if b == nil {
		logError("MutableBytes() called on a nil (or wiped) DataContainer")
		return nil
	}
	dc.notify(dc)
	return b
}

// Len returns the payload length in bytes, zero once wiped.
func (dc *DataContainer) Len() int {
	return len(dc.bytes())
}

// IsWipeable reports whether WipeData may drop the payload early.
func (dc *DataContainer) IsWipeable() bool {
	return dc.wipeable
}

// Allocator returns the allocator bound to the container at creation.
func (dc *DataContainer) Allocator() Allocator {
	return dc.alloc
}

// WipeData drops the payload early when the container is wipeable and owns
// its payload (it has a deleter); otherwise the payload survives. Either way
// the debug-registry claim on the payload pointer is given up, so the bytes
// may be handed to a new owning container.
func (dc *DataContainer) WipeData() {
	unregisterClientPointer(dc)
	if dc.wipeable && dc.deleter != nil {
		dc.wipe()
	}
}

// AddReceiver registers r for notification on mutable payload access.
func (dc *DataContainer) AddReceiver(r Receiver) {
	dc.add(r)
}

// RemoveReceiver unregisters r; unknown receivers are ignored.
func (dc *DataContainer) RemoveReceiver(r Receiver) {
	dc.remove(r)
}

// ReceiverCount returns the number of registered receivers.
func (dc *DataContainer) ReceiverCount() int {
	return dc.count()
}

func (dc *DataContainer) bytes() []byte {
	if dc.dataFn != nil {
		return dc.dataFn()
	}
	return dc.data
}

// wipe releases the payload unconditionally and moves the container to the
// wiped state. The registry entry goes first, while the payload pointer is
// still known. A deleter over a nil payload is never invoked: there is
// nothing to release unless the container holds a block, a dynamic payload,
// or wrapped bytes.
func (dc *DataContainer) wipe() {
	unregisterClientPointer(dc)
	if dc.deleter != nil {
		switch {
		case dc.block != nil:
			dc.deleter(dc.block)
		case dc.dataFn != nil:
			dc.deleter(dc.dataFn())
		case len(dc.data) > 0:
			dc.deleter(dc.data)
		}
		dc.deleter = nil
	}
	dc.data, dc.block, dc.dataFn = nil, nil, nil
}

// DataOf returns the payload of dc viewed as a slice of T, without notifying
// receivers. Nil once the payload was wiped or when T has size zero.
func DataOf[T any](dc *DataContainer) []T {
	return sliceOf[T](dc.Bytes())
}

// MutableDataOf returns the payload of dc viewed as a mutable slice of T. It
// notifies receivers exactly like MutableBytes, and shares its nil behavior.
func MutableDataOf[T any](dc *DataContainer) []T {
	return sliceOf[T](dc.MutableBytes())
}

func sliceOf[T any](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	if elemSize == 0 {
		return nil
	}
	debug.Assert(len(b)%elemSize == 0, "memory: payload length is not a whole number of elements")
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), len(b)/elemSize)
}

func bytesOf[T any](src []T, elemSize int) []byte {
	if len(src) == 0 || elemSize == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&src[0])), len(src)*elemSize)
}
