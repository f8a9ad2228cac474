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

import "fmt"

const (
	alignment = 64
)

// Allocator hands out and takes back blocks of memory. Implementations must
// be safe for use from multiple goroutines.
//
// Allocate and Reallocate return zeroed blocks aligned to at least 16 bytes
// (the implementations in this package align to 64) and never return nil for
// a satisfiable request; exhaustion panics with OutOfMemoryError. Free is a
// no-op for nil or empty blocks. Blocks must be freed through the instance
// that allocated them; allocators are compared by interface identity.
type Allocator interface {
	Allocate(size int) []byte
	Reallocate(size int, b []byte) []byte
	Free(b []byte)
}

// LifetimeResolver is implemented by allocators that route allocations of a
// given expected lifetime to dedicated delegates instead of the process-wide
// defaults.
type LifetimeResolver interface {
	AllocatorForLifetime(lt Lifetime) Allocator
}

// ForLifetime resolves the allocator to use for allocations with the given
// expected lifetime. When a resolves lifetimes itself its choice wins;
// otherwise, and for a nil a, the process-wide default for lt is returned.
// The result is never nil.
func ForLifetime(a Allocator, lt Lifetime) Allocator {
	if r, ok := a.(LifetimeResolver); ok {
		if d := r.AllocatorForLifetime(lt); d != nil {
			return d
		}
	}
	return DefaultAllocatorForLifetime(lt)
}

// OutOfMemoryError is the panic value raised when an allocator cannot satisfy
// a request. Allocation failure is fatal by default; allocators with a
// recovery path, such as LimitAllocator, document that callers may recover
// it.
type OutOfMemoryError struct {
	Requested int   // size of the failed request, in bytes
	Allocated int64 // bytes already handed out, when the allocator accounts for them
	Limit     int64 // configured budget, zero when there is none
}

func (e OutOfMemoryError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("memory: allocation of %d bytes exceeds limit (allocated: %d, limit: %d)",
			e.Requested, e.Allocated, e.Limit)
	}
	return fmt.Sprintf("memory: allocation of %d bytes failed", e.Requested)
}
