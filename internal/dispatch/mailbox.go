/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package dispatch

import (
	"sync"
	"sync/atomic"

	"github.com/phuonguno98/unopulse/pkg/metrics"
)

// Mailbox is a bounded FIFO of snapshots. When full, Put evicts the oldest
// undelivered snapshot instead of blocking, so the reader always catches up
// to the most recent state.
type Mailbox struct {
	mu      sync.Mutex
	ch      chan *metrics.Snapshot
	closed  bool
	dropped atomic.Uint64
}

// NewMailbox creates a mailbox holding at most capacity snapshots.
func NewMailbox(capacity int) *Mailbox {
	if capacity < 1 {
		capacity = 1
	}
	return &Mailbox{ch: make(chan *metrics.Snapshot, capacity)}
}

// Put enqueues s without blocking. It reports whether an older snapshot was
// evicted to make room. Put on a closed mailbox is a no-op.
func (m *Mailbox) Put(s *metrics.Snapshot) (evicted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}

	for {
		select {
		case m.ch <- s:
			return evicted
		default:
		}

		// Full: drop the oldest. The reader may have emptied a slot in the
		// meantime, in which case the send above succeeds on the next pass.
		select {
		case <-m.ch:
			evicted = true
			m.dropped.Add(1)
		default:
		}
	}
}

// C returns the receive side. It is closed after Close once drained.
func (m *Mailbox) C() <-chan *metrics.Snapshot {
	return m.ch
}

// Len returns the number of undelivered snapshots.
func (m *Mailbox) Len() int {
	return len(m.ch)
}

// Dropped returns how many snapshots were evicted unread.
func (m *Mailbox) Dropped() uint64 {
	return m.dropped.Load()
}

// Close stops accepting snapshots. Snapshots already queued stay readable.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	close(m.ch)
}
