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

package probe

import (
	"sync/atomic"
	"time"

	"github.com/phuonguno98/unopulse/pkg/metrics"
)

// Result is one completed probe attempt. A published Result is never
// modified again.
type Result struct {
	Seq         uint64
	Reachable   bool
	Latency     time.Duration
	CompletedAt time.Time
	Reason      FailReason
}

// AsLatency converts the result for a snapshot. A nil result means no probe
// has completed yet.
func (r *Result) AsLatency() metrics.Latency {
	if r == nil {
		return metrics.Latency{State: metrics.LatencyPending}
	}
	if !r.Reachable {
		return metrics.Latency{
			State:      metrics.LatencyUnreachable,
			MeasuredAt: r.CompletedAt,
			Reason:     r.Reason.String(),
		}
	}
	return metrics.Latency{
		State:      metrics.LatencyReachable,
		RTT:        r.Latency,
		MeasuredAt: r.CompletedAt,
	}
}

// Slot holds the latest published Result. The probe is the only writer;
// any number of readers may call Load concurrently.
type Slot struct {
	latest atomic.Pointer[Result]
}

// Store publishes r, replacing whatever was there.
func (s *Slot) Store(r *Result) {
	s.latest.Store(r)
}

// Load returns the latest published Result, or nil before the first one.
func (s *Slot) Load() *Result {
	return s.latest.Load()
}
