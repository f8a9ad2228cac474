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

//go:build unix
// +build unix

package memory

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// MmapAllocator allocates anonymous mappings that are not part of the Go
// heap, so large payloads neither count toward GC pacing nor get scanned.
// Mappings are page-aligned and zero-filled by the kernel.
//
// Blocks must be freed through the allocator; Close unmaps whatever is left.
type MmapAllocator struct {
	pagesize int

	mu     sync.Mutex
	mapped map[uintptr][]byte // block base -> full mapping
}

func NewMmapAllocator() *MmapAllocator {
	return &MmapAllocator{
		pagesize: os.Getpagesize(),
		mapped:   make(map[uintptr][]byte),
	}
}

func (a *MmapAllocator) Allocate(size int) []byte {
	if size == 0 {
		return []byte{}
	}
	length := roundToPowerOf2(size, a.pagesize)
	data, err := unix.Mmap(-1, 0, length,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		panic(OutOfMemoryError{Requested: size})
	}

	a.mu.Lock()
	a.mapped[addressOf(data)] = data
	a.mu.Unlock()
	return data[:size:size]
}

func (a *MmapAllocator) Reallocate(size int, b []byte) []byte {
	if size == len(b) {
		return b
	}
	if size == 0 {
		a.Free(b)
		return []byte{}
	}
	// Shrinking within the already-mapped pages keeps the block in place.
	if size < len(b) {
		a.mu.Lock()
		full, ok := a.mapped[addressOf(b)]
		a.mu.Unlock()
		if ok {
			Set(full[size:len(b)], 0)
			return full[:size:size]
		}
	}

	out := a.Allocate(size)
	copy(out, b)
	a.Free(b)
	return out
}

func (a *MmapAllocator) Free(b []byte) {
	if len(b) == 0 {
		return
	}
	ptr := addressOf(b)

	a.mu.Lock()
	full, ok := a.mapped[ptr]
	if ok {
		delete(a.mapped, ptr)
	}
	a.mu.Unlock()

	if !ok {
		logError("freeing a block this allocator did not map", "addr", ptr)
		return
	}
	if err := unix.Munmap(full); err != nil {
		logError("munmap failed", "addr", ptr, "err", err)
	}
}

// MappedBytes returns the total length of live mappings, in bytes.
func (a *MmapAllocator) MappedBytes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := 0
	for _, m := range a.mapped {
		total += len(m)
	}
	return total
}

// Close unmaps every live mapping. The allocator stays usable afterwards,
// but outstanding blocks become invalid.
func (a *MmapAllocator) Close() error {
	a.mu.Lock()
	mapped := a.mapped
	a.mapped = make(map[uintptr][]byte)
	a.mu.Unlock()

	var firstErr error
	for ptr, m := range mapped {
		if err := unix.Munmap(m); err != nil && firstErr == nil {
			firstErr = xerrors.Errorf("memory: unmapping %#x: %w", ptr, err)
		}
	}
	return firstErr
}

var _ Allocator = (*MmapAllocator)(nil)
