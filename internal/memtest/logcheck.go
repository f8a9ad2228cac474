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

package memtest

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// LogChecker is an slog.Handler that records everything logged through it,
// so tests can assert that a diagnostic was (or was not) emitted. Install it
// with memory.SetLogger(lc.Logger()) and restore the previous logger in a
// defer.
type LogChecker struct {
	mu      sync.Mutex
	records []capturedRecord
}

type capturedRecord struct {
	level slog.Level
	text  string // message plus flattened attrs
}

func NewLogChecker() *LogChecker { return &LogChecker{} }

// Logger returns a logger writing into the checker.
func (c *LogChecker) Logger() *slog.Logger { return slog.New(c) }

func (c *LogChecker) Enabled(context.Context, slog.Level) bool { return true }

func (c *LogChecker) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		sb.WriteByte(' ')
		sb.WriteString(a.String())
		return true
	})
	c.mu.Lock()
	c.records = append(c.records, capturedRecord{level: r.Level, text: sb.String()})
	c.mu.Unlock()
	return nil
}

func (c *LogChecker) WithAttrs([]slog.Attr) slog.Handler { return c }
func (c *LogChecker) WithGroup(string) slog.Handler      { return c }

// HasMessage reports whether a record at the given level ("ERROR", "WARN",
// ...) contains substr in its message or attributes.
func (c *LogChecker) HasMessage(level, substr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.level.String() == level && strings.Contains(r.text, substr) {
			return true
		}
	}
	return false
}

// Len returns the number of captured records.
func (c *LogChecker) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Reset forgets everything captured so far.
func (c *LogChecker) Reset() {
	c.mu.Lock()
	c.records = nil
	c.mu.Unlock()
}

var _ slog.Handler = (*LogChecker)(nil)
