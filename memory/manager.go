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

// heapAllocator is the allocator of last resort. Every lifetime resolves to
// it until something else is configured.
var heapAllocator Allocator = NewGoAllocator()

// HeapAllocator returns the built-in heap-backed allocator.
func HeapAllocator() Allocator { return heapAllocator }

// defaults is the process-wide allocator registry. Reads vastly outnumber
// writes; configuration swaps may happen concurrently with allocation.
var defaults = struct {
	sync.RWMutex
	byLifetime [NumLifetimes]Allocator
	lifetime   Lifetime
}{lifetime: MediumTerm}

// DefaultAllocatorForLifetime returns the process-wide default allocator for
// allocations with the given expected lifetime. The result is never nil: an
// unconfigured or unknown lifetime resolves to the built-in heap allocator.
func DefaultAllocatorForLifetime(lt Lifetime) Allocator {
	debug.Assert(lt.valid(), func() string { return "memory: default requested for invalid " + lt.String() })
	if !lt.valid() {
		return heapAllocator
	}
	defaults.RLock()
	a := defaults.byLifetime[lt]
	defaults.RUnlock()
	if a == nil {
		return heapAllocator
	}
	return a
}

// SetDefaultAllocatorForLifetime installs a as the process-wide default for
// the given lifetime. A nil a resets the lifetime to the built-in heap
// allocator. In-flight allocations keep the allocator they already resolved.
func SetDefaultAllocatorForLifetime(lt Lifetime, a Allocator) {
	debug.Assert(lt.valid(), func() string { return "memory: default configured for invalid " + lt.String() })
	if !lt.valid() {
		return
	}
	defaults.Lock()
	defaults.byLifetime[lt] = a
	defaults.Unlock()
}

// DefaultLifetime returns the lifetime assumed when none is stated. It starts
// out as MediumTerm.
func DefaultLifetime() Lifetime {
	defaults.RLock()
	lt := defaults.lifetime
	defaults.RUnlock()
	return lt
}

// SetDefaultLifetime changes the lifetime assumed when none is stated.
func SetDefaultLifetime(lt Lifetime) {
	debug.Assert(lt.valid(), func() string { return "memory: invalid default " + lt.String() })
	if !lt.valid() {
		return
	}
	defaults.Lock()
	defaults.lifetime = lt
	defaults.Unlock()
}

// DefaultAllocator returns the default allocator for the default lifetime.
func DefaultAllocator() Allocator {
	return DefaultAllocatorForLifetime(DefaultLifetime())
}

// NonNullAllocator returns a unless it is nil, in which case the default
// allocator is returned. Code that accepts optional allocators uses it to
// guarantee a usable result.
func NonNullAllocator(a Allocator) Allocator {
	if a != nil {
		return a
	}
	return DefaultAllocator()
}
