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

package memory

import "sync"

// clientPointers tracks payloads that containers own through caller-supplied
// deleters, to catch the same pointer being handed to two owning containers.
// Check-and-insert is atomic under the registry lock.
var clientPointers = struct {
	sync.Mutex
	m map[uintptr]*DataContainer
}{m: make(map[uintptr]*DataContainer)}

func registerClientPointer(dc *DataContainer) bool {
	ptr := addressOf(dc.data)
	clientPointers.Lock()
	defer clientPointers.Unlock()
	if _, dup := clientPointers.m[ptr]; dup {
		return false
	}
	clientPointers.m[ptr] = dc
	dc.registered = true
	return true
}

func unregisterClientPointer(dc *DataContainer) {
	if !dc.registered || len(dc.data) == 0 {
		return
	}
	clientPointers.Lock()
	delete(clientPointers.m, addressOf(dc.data))
	clientPointers.Unlock()
	dc.registered = false
}

// registeredClientPointers returns the number of live registry entries.
func registeredClientPointers() int {
	clientPointers.Lock()
	defer clientPointers.Unlock()
	return len(clientPointers.m)
}
