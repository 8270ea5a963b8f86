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

	"github.com/phuonguno98/unopulse/pkg/metrics"
)

// MemoryCollector collects physical memory and swap usage.
type MemoryCollector struct{}

// NewMemoryCollector creates a new memory collector instance.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Sample gathers RAM and swap usage. It fails only when both are unreadable.
func (m *MemoryCollector) Sample() (metrics.MemoryStats, error) {
	var stats metrics.MemoryStats

	vmStat, vmErr := memVirtual()
	if vmErr == nil && vmStat.Total > 0 {
		stats.RAM = metrics.Usage{Available: true, Used: vmStat.Used, Total: vmStat.Total}
		stats.Free = vmStat.Available
	}

	swap, swapErr := memSwap()
	if swapErr == nil {
		// A host without swap reports 0/0, which is a valid reading.
		stats.Swap = metrics.Usage{Available: true, Used: swap.Used, Total: swap.Total}
	}

	if !stats.RAM.Available && !stats.Swap.Available {
		return metrics.MemoryStats{}, fmt.Errorf("failed to get memory stats: ram: %v, swap: %v", vmErr, swapErr)
	}

	return stats, nil
}

// Name returns the collector name for logging purposes.
func (m *MemoryCollector) Name() string {
	return "Memory"
}
