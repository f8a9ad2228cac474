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

/*
Package memory provides pluggable memory allocation for buffer-heavy runtimes.

Allocation requests carry an expected Lifetime (ShortTerm, MediumTerm or
LongTerm) that steers them to a suitable Allocator. Process-wide defaults per
lifetime are kept in a registry that always resolves to a usable allocator,
falling back to the built-in heap allocator when nothing was configured.

Types that embed Allocatable record the Allocator that constructed them via
New or NewForLifetime, so their later payload allocations (vectors, data
containers, scoped blocks) can stay on the same allocator without any of the
intermediate code threading it through.

DataContainer is a reference-counted handle around a block of bytes that is
either borrowed from the caller, copied into allocator-owned storage, or
co-allocated with the handle itself. ScopedAllocation ties a typed array to a
scope and can hand its block off to a DataContainer without copying.

Allocators can be composed: TrackedAllocator routes every call through an
optional Tracker (FullTracker detects leaks at teardown) and can delegate
per-lifetime requests, LimitAllocator enforces a byte budget, ArenaAllocator
carves small blocks out of larger ones, and MmapAllocator keeps payloads off
the Go heap entirely.
*/
package memory
