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

// VectorDataContainer is a DataContainer whose payload is a Vector the
// container owns, for data that is built up incrementally and then handed
// around by reference. The byte payload seen through Bytes/MutableBytes
// tracks the vector's current elements.
//
// Wiping follows the usual gate and releases the vector; so does the final
// Release, unconditionally.
type VectorDataContainer[T any] struct {
	DataContainer
	vec *Vector[T]
}

// NewVectorDataContainer creates a container owning an empty vector backed
// by a (nil meaning the default allocator).
func NewVectorDataContainer[T any](wipeable bool, a Allocator) *VectorDataContainer[T] {
	alloc := NonNullAllocator(a)
	c := &VectorDataContainer[T]{vec: NewVector[T](alloc)}
	c.refCount = 1
	c.wipeable = wipeable
	c.alloc = alloc
	c.dataFn = func() []byte {
		if c.vec == nil {
			return nil
		}
		return c.vec.byteView()
	}
	c.deleter = func([]byte) {
		if c.vec != nil {
			c.vec.Release()
			c.vec = nil
		}
	}
	return c
}

// Vector returns the owned vector for reading, nil once wiped. No receivers
// are notified.
func (c *VectorDataContainer[T]) Vector() *Vector[T] {
	return c.vec
}

// MutableVector returns the owned vector for modification, notifying every
// receiver first. On a wiped container it logs an ERROR and returns nil
// without notifying, like MutableBytes.
func (c *VectorDataContainer[T]) MutableVector() *Vector[T] {
	if c.vec == nil {
		logError("MutableVector() called on a nil (or wiped) VectorDataContainer")
		return nil
	}
	c.notify(&c.DataContainer)
	return c.vec
}
