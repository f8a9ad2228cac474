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

package memory_test

import (
	"fmt"

	"github.com/gfxkit/memcore/memory"
)

func ExampleParseLifetime() {
	lt, _ := memory.ParseLifetime("short-term")
	fmt.Println(lt)

	if _, err := memory.ParseLifetime("eternal"); err != nil {
		fmt.Println(err)
	}

	// Output:
	// short-term
	// memory: unknown lifetime "eternal"
}

func ExampleNewDataContainerCopyOf() {
	samples := []float32{0.5, 0.25, 0.125}
	dc := memory.NewDataContainerCopyOf(samples, false, nil)
	defer dc.Release()

	fmt.Println(dc.Len(), "bytes")
	fmt.Println(memory.DataOf[float32](dc))

	// Output:
	// 12 bytes
	// [0.5 0.25 0.125]
}

func ExampleDataContainer_WipeData() {
	payload := memory.NewDataContainerCopy([]byte{1, 2, 3, 4}, 1, 4, true, nil)

	fmt.Println("before wipe:", payload.Len())
	payload.WipeData()
	fmt.Println("after wipe:", payload.Len())
	payload.Release()

	// Output:
	// before wipe: 4
	// after wipe: 0
}

func ExampleScopedAllocation() {
	histogram := memory.NewScopedAllocation[uint32](nil, 8)
	defer histogram.Release()

	bins := histogram.Get()
	for _, sample := range []int{1, 1, 3, 5, 5, 5} {
		bins[sample]++
	}
	fmt.Println(bins)

	// Output:
	// [0 2 0 1 0 3 0 0]
}

type meshBuilder struct {
	memory.Allocatable
	indices *memory.Vector[uint32]
}

func ExampleNew() {
	arena := memory.NewArenaAllocator(nil, memory.DefaultArenaBlockSize)
	defer arena.Release()

	// Members constructed with a nil allocator inherit the allocator of the
	// object under construction.
	mesh := memory.New[meshBuilder](arena, func() *meshBuilder {
		b := &meshBuilder{indices: memory.NewVector[uint32](nil)}
		b.indices.Append(0, 1, 2, 2, 1, 3)
		return b
	})

	fmt.Println("bound to arena:", mesh.Allocator() == memory.Allocator(arena))
	fmt.Println("indices too:", mesh.indices.Allocator() == memory.Allocator(arena))
	fmt.Println(mesh.indices.Data())

	// Output:
	// bound to arena: true
	// indices too: true
	// [0 1 2 2 1 3]
}

func ExampleFullTracker() {
	mem := memory.NewTrackedAllocator(nil)
	tracker := memory.NewFullTracker()
	mem.SetTracker(tracker)

	b := mem.Allocate(1024)
	fmt.Println("active:", tracker.ActiveAllocationCount(), "bytes:", tracker.ActiveBytes())

	mem.Free(b)
	fmt.Println("active:", tracker.ActiveAllocationCount(), "bytes:", tracker.ActiveBytes())

	// Output:
	// active: 1 bytes: 1024
	// active: 0 bytes: 0
}
