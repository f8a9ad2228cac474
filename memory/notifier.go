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

import "sync"

// Receiver is notified when a DataContainer hands out mutable access to its
// payload. Receivers run synchronously on the accessing goroutine, before
// the mutable view is returned.
type Receiver interface {
	OnDataChanged(dc *DataContainer)
}

// notifier maintains an ordered receiver list. Registration is synchronized;
// notification runs outside the lock so receivers may add or remove
// themselves.
type notifier struct {
	mu        sync.Mutex
	receivers []Receiver
}

func (n *notifier) add(r Receiver) {
	if r == nil {
		return
	}
	n.mu.Lock()
	n.receivers = append(n.receivers, r)
	n.mu.Unlock()
}

func (n *notifier) remove(r Receiver) {
	n.mu.Lock()
	for i, cur := range n.receivers {
		if cur == r {
			n.receivers = append(n.receivers[:i], n.receivers[i+1:]...)
			break
		}
	}
	n.mu.Unlock()
}

func (n *notifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.receivers)
}

func (n *notifier) clear() {
	n.mu.Lock()
	n.receivers = nil
	n.mu.Unlock()
}

func (n *notifier) notify(dc *DataContainer) {
	n.mu.Lock()
	receivers := make([]Receiver, len(n.receivers))
	copy(receivers, n.receivers)
	n.mu.Unlock()

	for _, r := range receivers {
		r.OnDataChanged(dc)
	}
}
