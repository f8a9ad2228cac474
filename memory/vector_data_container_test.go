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
	"testing"

	"github.com/gfxkit/memcore/internal/memtest"
	"github.com/gfxkit/memcore/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorDataContainer(t *testing.T) {
	mem := memtest.New(nil)
	c := memory.NewVectorDataContainer[uint32](false, mem)
	require.NotNil(t, c)
	assert.Equal(t, memory.Allocator(mem), c.Allocator())

	// Empty vector, empty payload.
	assert.Zero(t, c.Len())
	assert.Nil(t, c.Bytes())

	c.Vector().Append(0x01020304, 0x05060708)
	assert.Equal(t, 2, c.Vector().Len())

	// The byte payload tracks the vector's elements.
	assert.Equal(t, 8, c.Len())
	assert.Equal(t, []uint32{0x01020304, 0x05060708}, memory.DataOf[uint32](&c.DataContainer))

	c.Vector().Append(0x0A0B0C0D)
	assert.Equal(t, 12, c.Len())

	c.Release()
	assert.Equal(t, 0, mem.InUse())
	assert.Nil(t, c.Vector())
}

func TestVectorDataContainerMutableVector(t *testing.T) {
	var r countingReceiver
	c := memory.NewVectorDataContainer[int16](false, nil)
	require.NotNil(t, c)
	c.AddReceiver(&r)

	// Reading does not notify.
	_ = c.Vector()
	_ = c.Bytes()
	assert.Equal(t, 0, r.changes)

	v := c.MutableVector()
	require.NotNil(t, v)
	v.Append(-3, 9)
	assert.Equal(t, 1, r.changes)
	assert.Same(t, &c.DataContainer, r.last)

	// MutableBytes notifies the same receivers.
	b := c.MutableBytes()
	require.NotNil(t, b)
	assert.Equal(t, 2, r.changes)
	assert.Len(t, b, 4)

	c.Release()
}

func TestVectorDataContainerWipe(t *testing.T) {
	lc := memtest.NewLogChecker()
	defer memory.SetLogger(memory.SetLogger(lc.Logger()))

	mem := memtest.New(nil)
	c := memory.NewVectorDataContainer[uint64](true, mem)
	require.NotNil(t, c)
	assert.True(t, c.IsWipeable())

	c.Vector().Append(1, 2, 3)
	require.Equal(t, 1, mem.NumAllocated())

	// The wipe releases the vector's block back to the allocator.
	c.WipeData()
	assert.Equal(t, 0, mem.InUse())
	assert.Nil(t, c.Vector())
	assert.Nil(t, c.Bytes())

	var r countingReceiver
	c.AddReceiver(&r)
	assert.Nil(t, c.MutableVector())
	assert.True(t, lc.HasMessage("ERROR", "MutableVector() called on a nil (or wiped) VectorDataContainer"))
	assert.Equal(t, 0, r.changes)

	c.Release()
	assert.Equal(t, 0, mem.InUse())
}

func TestVectorDataContainerNonWipeable(t *testing.T) {
	mem := memtest.New(nil)
	c := memory.NewVectorDataContainer[byte](false, mem)
	require.NotNil(t, c)

	c.Vector().Append(1, 2, 3)

	// Not wipeable: the data stays until the last reference goes.
	c.WipeData()
	assert.NotNil(t, c.Vector())
	assert.Equal(t, 3, c.Len())

	c.Retain()
	c.Release()
	assert.NotNil(t, c.Vector())

	c.Release()
	assert.Nil(t, c.Vector())
	assert.Equal(t, 0, mem.InUse())
}
