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

import "sync"

// DefaultArenaBlockSize is the block size an ArenaAllocator grows by when
// none is configured.
const DefaultArenaBlockSize = 64 * 1024

type arenaBlock struct {
	buf  []byte
	used int
}

// ArenaAllocator carves small allocations out of larger blocks obtained from
// a parent allocator. Free is a no-op except for the most recent allocation,
// which makes it a fit for short-term burst workloads: allocate freely, then
// Reset or Release the whole arena at once.
//
// Blocks handed out are zeroed and 64-byte aligned like every allocator in
// this package. An ArenaAllocator is safe for concurrent use.
type ArenaAllocator struct {
	parent    Allocator
	blockSize int

	mu     sync.Mutex
	blocks []*arenaBlock
}

// NewArenaAllocator creates an arena growing by blockSize-byte blocks taken
// from parent. A nil parent uses the default allocator; a blockSize <= 0 uses
// DefaultArenaBlockSize.
func NewArenaAllocator(parent Allocator, blockSize int) *ArenaAllocator {
	if blockSize <= 0 {
		blockSize = DefaultArenaBlockSize
	}
	return &ArenaAllocator{
		parent:    NonNullAllocator(parent),
		blockSize: roundUpToMultipleOf64(blockSize),
	}
}

func (a *ArenaAllocator) Allocate(size int) []byte {
	if size == 0 {
		return []byte{}
	}

	// Carve offsets stay 64-byte aligned since blocks are and carves are
	// rounded up.
	carve := roundUpToMultipleOf64(size)

	a.mu.Lock()
	defer a.mu.Unlock()

	block := a.tail()
	if block == nil || carve > len(block.buf)-block.used {
		block = a.addBlock(carve)
	}
	start := block.used
	block.used += carve
	return block.buf[start : start+size : start+size]
}

func (a *ArenaAllocator) Reallocate(size int, b []byte) []byte {
	if size == len(b) {
		return b
	}
	if len(b) == 0 {
		return a.Allocate(size)
	}

	a.mu.Lock()
	if block := a.tail(); block != nil && a.isTailAllocation(block, b) {
		// The most recent allocation can grow or shrink in place.
		carve := roundUpToMultipleOf64(size)
		start := block.used - roundUpToMultipleOf64(len(b))
		if size < len(b) || carve <= len(block.buf)-start {
			if size < len(b) {
				Set(block.buf[start+size:block.used], 0)
			}
			block.used = start + carve
			a.mu.Unlock()
			return block.buf[start : start+size : start+size]
		}
	}
	a.mu.Unlock()

	out := a.Allocate(size)
	copy(out, b)
	return out
}

// Free releases nothing unless b is the most recent allocation, whose space
// is then recycled. Everything else is reclaimed by Reset or Release.
func (a *ArenaAllocator) Free(b []byte) {
	if len(b) == 0 {
		return
	}
	a.mu.Lock()
	if block := a.tail(); block != nil && a.isTailAllocation(block, b) {
		start := block.used - roundUpToMultipleOf64(len(b))
		Set(block.buf[start:block.used], 0)
		block.used = start
	}
	a.mu.Unlock()
}

// Reset recycles all arena space without returning blocks to the parent.
// Previously handed-out slices must no longer be used; the space is zeroed so
// future allocations come up clean.
func (a *ArenaAllocator) Reset() {
	a.mu.Lock()
	for _, block := range a.blocks {
		Set(block.buf[:block.used], 0)
		block.used = 0
	}
	a.mu.Unlock()
}

// Release returns every block to the parent allocator. The arena remains
// usable and grows fresh blocks on demand.
func (a *ArenaAllocator) Release() {
	a.mu.Lock()
	blocks := a.blocks
	a.blocks = nil
	a.mu.Unlock()

	for _, block := range blocks {
		a.parent.Free(block.buf)
	}
}

// Reserved returns the total bytes currently held in arena blocks.
func (a *ArenaAllocator) Reserved() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := 0
	for _, block := range a.blocks {
		total += len(block.buf)
	}
	return total
}

func (a *ArenaAllocator) tail() *arenaBlock {
	if len(a.blocks) == 0 {
		return nil
	}
	return a.blocks[len(a.blocks)-1]
}

func (a *ArenaAllocator) isTailAllocation(block *arenaBlock, b []byte) bool {
	end := roundUpToMultipleOf64(len(b))
	start := block.used - end
	return start >= 0 && addressOf(block.buf[start:block.used]) == addressOf(b)
}

func (a *ArenaAllocator) addBlock(size int) *arenaBlock {
	if size < a.blockSize {
		size = a.blockSize
	}
	block := &arenaBlock{buf: a.parent.Allocate(size)}
	a.blocks = append(a.blocks, block)
	return block
}

var _ Allocator = (*ArenaAllocator)(nil)
