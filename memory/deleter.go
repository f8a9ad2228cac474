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

// Deleter releases the payload of a DataContainer. A nil Deleter marks the
// payload as borrowed: the container will never release it.
type Deleter func(data []byte)

// AllocatorDeleter returns a Deleter that frees the payload through a. The
// allocator is captured at construction, so the deleter keeps it reachable
// for as long as the payload lives. A nil a captures the default allocator.
func AllocatorDeleter(a Allocator) Deleter {
	a = NonNullAllocator(a)
	return func(data []byte) {
		a.Free(data)
	}
}

// NopDeleter releases nothing. It differs from a nil Deleter: the container
// counts as owning its payload (wiping transitions it to the wiped state)
// while the bytes themselves are left alone.
func NopDeleter(data []byte) {}
