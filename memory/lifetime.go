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

// Lifetime is a hint describing how long an allocation is expected to stay
// alive. It is used to select an Allocator, never to reclaim memory by itself.
type Lifetime int

const (
	// ShortTerm is for allocations that are discarded within roughly a frame
	// of work, such as scratch buffers and wipeable payloads.
	ShortTerm Lifetime = iota
	// MediumTerm is for allocations without a clearly bounded life span. It is
	// the initial default lifetime.
	MediumTerm
	// LongTerm is for allocations that live for most of the process, such as
	// registries and caches.
	LongTerm

	// NumLifetimes is the number of distinct Lifetime values.
	NumLifetimes = 3
)

func (lt Lifetime) String() string {
	switch lt {
	case ShortTerm:
		return "short-term"
	case MediumTerm:
		return "medium-term"
	case LongTerm:
		return "long-term"
	}
	return fmt.Sprintf("Lifetime(%d)", int(lt))
}

func (lt Lifetime) valid() bool {
	return lt >= ShortTerm && lt <= LongTerm
}

// ParseLifetime converts a textual lifetime name, as produced by
// Lifetime.String, back into a Lifetime. Bare "short", "medium" and "long"
// are accepted as well.
func ParseLifetime(s string) (Lifetime, error) {
	switch s {
	case "short-term", "short":
		return ShortTerm, nil
	case "medium-term", "medium":
		return MediumTerm, nil
	case "long-term", "long":
		return LongTerm, nil
	}
	return 0, fmt.Errorf("memory: unknown lifetime %q", s)
}
