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
	"bytes"
	"encoding/binary"
	"runtime"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
)

// Each goroutine gets its own stack of construction allocators so that
// nested New calls inherit the allocator of the object under construction
// without goroutines ever observing each other. The stacks live in a small
// sharded table keyed by goroutine ID; entries are removed as soon as a
// stack drains, so nothing outlives the construction it belongs to.

const ctorShardCount = 16 // power of two

type ctorShard struct {
	mu     sync.Mutex
	stacks map[uint64][]Allocator
}

var ctorShards [ctorShardCount]ctorShard

func init() {
	for i := range ctorShards {
		ctorShards[i].stacks = make(map[uint64][]Allocator)
	}
}

func ctorShardFor(gid uint64) *ctorShard {
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], gid)
	return &ctorShards[xxh3.Hash(key[:])&(ctorShardCount-1)]
}

func pushConstructionAllocator(a Allocator) {
	gid := curGoroutineID()
	s := ctorShardFor(gid)
	s.mu.Lock()
	s.stacks[gid] = append(s.stacks[gid], a)
	s.mu.Unlock()
}

func popConstructionAllocator() {
	gid := curGoroutineID()
	s := ctorShardFor(gid)
	s.mu.Lock()
	stack := s.stacks[gid]
	if n := len(stack); n > 0 {
		if n == 1 {
			delete(s.stacks, gid)
		} else {
			s.stacks[gid] = stack[:n-1]
		}
	}
	s.mu.Unlock()
}

// constructionAllocator returns the allocator of the innermost New call in
// flight on this goroutine, or nil outside of any.
func constructionAllocator() Allocator {
	gid := curGoroutineID()
	s := ctorShardFor(gid)
	s.mu.Lock()
	defer s.mu.Unlock()
	if stack := s.stacks[gid]; len(stack) > 0 {
		return stack[len(stack)-1]
	}
	return nil
}

var goroutinePrefix = []byte("goroutine ")

// curGoroutineID extracts the goroutine ID from the first line of
// runtime.Stack output, "goroutine N [state]:". The runtime offers no direct
// accessor.
func curGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(s, ' '); i > 0 {
		if id, err := strconv.ParseUint(string(s[:i]), 10, 64); err == nil {
			return id
		}
	}
	return 0
}
