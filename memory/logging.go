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

import (
	"log/slog"
	"sync/atomic"
)

// Misuse of the package (duplicate client pointers, mutable access to wiped
// containers, stray frees) is reported at ERROR level rather than returned as
// an error; the offending operation yields a nil result.
var pkgLogger atomic.Pointer[slog.Logger]

// SetLogger replaces the logger used for package diagnostics and returns the
// previous one. A nil logger restores slog.Default.
func SetLogger(l *slog.Logger) *slog.Logger {
	return pkgLogger.Swap(l)
}

func logger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

func logError(msg string, args ...any) {
	logger().Error(msg, args...)
}
