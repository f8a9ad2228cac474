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

//go:build assert
// +build assert

package memory_test

import (
	"testing"

	"github.com/gfxkit/memcore/internal/memtest"
	"github.com/gfxkit/memcore/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientPointerRegistryDuplicate(t *testing.T) {
	lc := memtest.NewLogChecker()
	defer memory.SetLogger(memory.SetLogger(lc.Logger()))

	before := memory.RegisteredClientPointers()
	data := make([]byte, 16)

	first := memory.NewDataContainer(data, memory.NopDeleter, false, nil)
	require.NotNil(t, first)
	assert.Equal(t, before+1, memory.RegisteredClientPointers())

	// A second owning container over the same payload is rejected.
	dup := memory.NewDataContainer(data, memory.NopDeleter, false, nil)
	assert.Nil(t, dup)
	assert.True(t, lc.HasMessage("ERROR", "Duplicate client-space pointer passed to NewDataContainer"))
	assert.Equal(t, before+1, memory.RegisteredClientPointers())

	// Borrowing the same bytes claims no ownership and passes silently.
	logged := lc.Len()
	borrow := memory.NewDataContainer(data, nil, false, nil)
	require.NotNil(t, borrow)
	assert.Equal(t, logged, lc.Len())
	assert.Equal(t, before+1, memory.RegisteredClientPointers())
	borrow.Release()

	first.Release()
	assert.Equal(t, before, memory.RegisteredClientPointers())
}

func TestClientPointerRegistryBorrowedNotRegistered(t *testing.T) {
	before := memory.RegisteredClientPointers()
	data := make([]byte, 16)

	// No deleter means no ownership, so the same bytes may back any number
	// of borrowing containers.
	b1 := memory.NewDataContainer(data, nil, false, nil)
	b2 := memory.NewDataContainer(data, nil, false, nil)
	require.NotNil(t, b1)
	require.NotNil(t, b2)
	assert.Equal(t, before, memory.RegisteredClientPointers())

	b1.Release()
	b2.Release()
}

func TestClientPointerRegistryEmptyNotRegistered(t *testing.T) {
	before := memory.RegisteredClientPointers()

	dc := memory.NewDataContainer(nil, memory.NopDeleter, false, nil)
	require.NotNil(t, dc)
	assert.Equal(t, before, memory.RegisteredClientPointers())
	dc.Release()
}

func TestClientPointerRegistryWipeReleasesEntry(t *testing.T) {
	before := memory.RegisteredClientPointers()
	data := make([]byte, 16)

	dc := memory.NewDataContainer(data, memory.NopDeleter, true, nil)
	require.NotNil(t, dc)
	assert.Equal(t, before+1, memory.RegisteredClientPointers())

	// Wiping releases the payload, so the pointer may be handed out again.
	dc.WipeData()
	assert.Equal(t, before, memory.RegisteredClientPointers())

	again := memory.NewDataContainer(data, memory.NopDeleter, true, nil)
	require.NotNil(t, again)
	assert.Equal(t, before+1, memory.RegisteredClientPointers())

	again.Release()
	dc.Release()
	assert.Equal(t, before, memory.RegisteredClientPointers())
}

func TestClientPointerRegistryWipeNonWipeableReleasesEntry(t *testing.T) {
	lc := memtest.NewLogChecker()
	defer memory.SetLogger(memory.SetLogger(lc.Logger()))

	before := memory.RegisteredClientPointers()
	data := make([]byte, 16)

	deletes := 0
	dc := memory.NewDataContainer(data, func([]byte) { deletes++ }, false, nil)
	require.NotNil(t, dc)
	assert.Equal(t, before+1, memory.RegisteredClientPointers())

	// A non-wipeable owner keeps its payload through WipeData but still
	// gives up the registry claim on the pointer.
	dc.WipeData()
	assert.NotNil(t, dc.Bytes())
	assert.Equal(t, 0, deletes)
	assert.Equal(t, before, memory.RegisteredClientPointers())

	again := memory.NewDataContainer(data, memory.NopDeleter, false, nil)
	require.NotNil(t, again)
	assert.False(t, lc.HasMessage("ERROR", "Duplicate client-space pointer"))
	assert.Equal(t, before+1, memory.RegisteredClientPointers())

	again.Release()
	dc.Release()
	assert.Equal(t, 1, deletes, "the wiped-registry owner still frees its payload exactly once")
	assert.Equal(t, before, memory.RegisteredClientPointers())
}

func TestClientPointerRegistryAllocatedPayloadsNotTracked(t *testing.T) {
	before := memory.RegisteredClientPointers()

	// Factory-allocated payloads are not client pointers.
	dc := memory.NewDataContainerCopy([]byte{1, 2, 3}, 1, 3, false, nil)
	require.NotNil(t, dc)
	over := memory.NewDataContainerOverAllocated(8, nil, nil)
	require.NotNil(t, over)
	assert.Equal(t, before, memory.RegisteredClientPointers())

	dc.Release()
	over.Release()
}
