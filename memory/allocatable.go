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

import "github.com/gfxkit/memcore/internal/debug"

// Allocatable records which Allocator constructed the object embedding it.
// Construct such objects with New or NewForLifetime; the binding then steers
// every payload allocation made on the object's behalf (NewVector,
// ScopedAllocation, DataContainer factories) to the same allocator.
//
// The binding belongs to the constructed instance, not to its value:
// assigning or copying a bound value leaves the copy unbound, exactly like a
// plain composite-literal or stack value. Allocator reports nil for those.
type Allocatable struct {
	alloc Allocator
	self  *Allocatable
}

// AllocatorSetter is satisfied by pointers to types embedding Allocatable.
// It is the constraint New uses; there is no way to implement it from
// outside this package other than embedding.
type AllocatorSetter interface {
	bindAllocator(a Allocator)
}

func (a *Allocatable) bindAllocator(alloc Allocator) {
	a.alloc = alloc
	a.self = a
}

// Allocator returns the allocator that constructed this instance, or nil for
// unbound instances (plain construction, copies of bound values).
func (a *Allocatable) Allocator() Allocator {
	if a.self != a {
		return nil
	}
	return a.alloc
}

// NonNullAllocator returns the binding, falling back to the default
// allocator for unbound instances.
func (a *Allocatable) NonNullAllocator() Allocator {
	return NonNullAllocator(a.Allocator())
}

// AllocatorForLifetime resolves an allocator for the given expected lifetime
// starting from the binding, so derived allocations of a different lifetime
// stay consistent with how this object was placed.
func (a *Allocatable) AllocatorForLifetime(lt Lifetime) Allocator {
	return ForLifetime(a.Allocator(), lt)
}

// New constructs an object via ctor and binds it to alloc, resolved in this
// order: alloc itself when non-nil, the allocator of the enclosing New call
// on this goroutine (so nested members inherit their owner's allocator), and
// finally the process default.
//
// The resolved allocator is pushed on a per-goroutine stack for the duration
// of ctor; allocator-aware values created inside ctor with a nil allocator
// (NewVector, nested New) pick it up from there. The binding itself becomes
// visible on the returned object only after ctor finished.
//
// Plain construction stays possible for any such type; it simply yields an
// unbound instance whose payload allocations fall back to the defaults.
func New[T any, P interface {
	*T
	AllocatorSetter
}](alloc Allocator, ctor func() P) P {
	if alloc == nil {
		alloc = constructionAllocator()
	}
	alloc = NonNullAllocator(alloc)

	pushConstructionAllocator(alloc)
	defer popConstructionAllocator()

	obj := ctor()
	debug.Assert(obj != nil, "memory: constructor returned nil")
	if obj != nil {
		obj.bindAllocator(alloc)
	}
	return obj
}

// NewForLifetime constructs an object bound to the process-wide default
// allocator for the given lifetime. The explicit lifetime wins over any
// enclosing construction.
func NewForLifetime[T any, P interface {
	*T
	AllocatorSetter
}](lt Lifetime, ctor func() P) P {
	return New[T, P](DefaultAllocatorForLifetime(lt), ctor)
}
