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

// Package collector holds the OS metric adapters. Each adapter reads one
// metric family and keeps whatever delta state it needs privately.
package collector

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// Source produces one reading per call. A non-nil error means the whole
// family is unavailable for this call; partial failures are reported
// through the reading's own availability flags.
type Source[T any] interface {
	Sample() (T, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func() (T, error)

// Sample calls f.
func (f SourceFunc[T]) Sample() (T, error) {
	return f()
}

// Dependency injection points for testing
var (
	cpuTimes       = cpu.Times
	cpuInfo        = cpu.Info
	cpuCounts      = cpu.Counts
	memVirtual     = mem.VirtualMemory
	memSwap        = mem.SwapMemory
	diskPartitions = disk.Partitions
	diskUsage      = disk.Usage
	netIOCounters  = net.IOCounters
	hostUptime     = host.Uptime
)

// DetectCores returns the logical core count. It is meant to be called once
// at startup; the result fixes the per-core width for the process lifetime.
func DetectCores() int {
	n, err := cpuCounts(true)
	if err != nil || n < 1 {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	return n
}
