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

	"github.com/gfxkit/memcore/memory"
	"github.com/stretchr/testify/assert"
)

func TestLifetimeString(t *testing.T) {
	tests := []struct {
		lt  memory.Lifetime
		exp string
	}{
		{memory.ShortTerm, "short-term"},
		{memory.MediumTerm, "medium-term"},
		{memory.LongTerm, "long-term"},
		{memory.Lifetime(42), "Lifetime(42)"},
	}
	for _, test := range tests {
		assert.Equal(t, test.exp, test.lt.String())
	}
}

func TestParseLifetime(t *testing.T) {
	tests := []struct {
		in  string
		exp memory.Lifetime
	}{
		{"short-term", memory.ShortTerm},
		{"short", memory.ShortTerm},
		{"medium-term", memory.MediumTerm},
		{"medium", memory.MediumTerm},
		{"long-term", memory.LongTerm},
		{"long", memory.LongTerm},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			lt, err := memory.ParseLifetime(test.in)
			assert.NoError(t, err)
			assert.Equal(t, test.exp, lt)
		})
	}

	_, err := memory.ParseLifetime("forever")
	assert.Error(t, err)
}
