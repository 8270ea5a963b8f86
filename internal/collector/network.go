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

package collector

import (
	"fmt"
	"time"

	"github.com/phuonguno98/unopulse/pkg/metrics"
)

// counterDelta is the previous call's raw byte counters.
type counterDelta struct {
	prev   metrics.NetworkIOStats
	primed bool
}

// NetworkCollector derives upload/download throughput from interface byte
// counters. Loopback traffic is excluded.
type NetworkCollector struct {
	delta counterDelta
}

// NewNetworkCollector creates a new network collector instance.
func NewNetworkCollector() *NetworkCollector {
	return &NetworkCollector{}
}

// Sample returns bytes/sec since the previous successful call. The first
// successful call reports zero throughput.
func (n *NetworkCollector) Sample() (metrics.Throughput, error) {
	ioCounters, err := netIOCounters(true)
	if err != nil {
		return metrics.Throughput{}, fmt.Errorf("failed to get network I/O counters: %w", err)
	}

	current := metrics.NetworkIOStats{Timestamp: time.Now()}
	for _, counter := range ioCounters {
		if IsLoopback(counter.Name) {
			continue
		}
		current.BytesSent += counter.BytesSent
		current.BytesRecv += counter.BytesRecv
	}

	if !n.delta.primed {
		n.delta = counterDelta{prev: current, primed: true}
		return metrics.Throughput{Available: true}, nil
	}

	up, down := metrics.CalculateThroughput(n.delta.prev, current)
	n.delta.prev = current

	return metrics.Throughput{Available: true, UpBps: up, DownBps: down}, nil
}

// IsLoopback reports whether an interface is excluded from throughput totals.
func IsLoopback(interfaceName string) bool {
	switch interfaceName {
	case "lo", "lo0", "Loopback", "Loopback Pseudo-Interface 1":
		return true
	}
	return false
}

// Name returns the collector name for logging purposes.
func (n *NetworkCollector) Name() string {
	return "Network"
}
