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
	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUCollector collects total and per-core utilization and clock frequency.
type CPUCollector struct {
	cores       int
	prevTotal   metrics.CPUTimeStats
	prevPerCore []metrics.CPUTimeStats
}

// NewCPUCollector creates a CPU collector reporting exactly cores per-core values.
func NewCPUCollector(cores int) *CPUCollector {
	if cores < 1 {
		cores = 1
	}
	return &CPUCollector{
		cores:       cores,
		prevPerCore: make([]metrics.CPUTimeStats, cores),
	}
}

// Sample gathers current CPU metrics. The first call only records a baseline
// and reports 0% utilization.
func (c *CPUCollector) Sample() (metrics.CPUStats, error) {
	now := time.Now()

	totals, err := cpuTimes(false)
	if err != nil {
		return metrics.CPUStats{}, fmt.Errorf("failed to get CPU times: %w", err)
	}
	if len(totals) == 0 {
		return metrics.CPUStats{}, fmt.Errorf("no CPU time stats available")
	}

	current := toTimeStats(&totals[0], now)
	stats := metrics.CPUStats{
		Available:    true,
		TotalPercent: metrics.CalculateCPUUtilization(&c.prevTotal, &current),
		FrequencyMHz: c.frequency(),
		PerCore:      c.perCore(now),
	}
	c.prevTotal = current

	return stats, nil
}

// perCore returns one gauge per captured core. Cores the OS did not report
// this call are unavailable.
func (c *CPUCollector) perCore(now time.Time) []metrics.Gauge {
	gauges := make([]metrics.Gauge, c.cores)

	times, err := cpuTimes(true)
	if err != nil {
		return gauges
	}

	for i := 0; i < c.cores && i < len(times); i++ {
		current := toTimeStats(&times[i], now)
		gauges[i] = metrics.Available(metrics.CalculateCPUUtilization(&c.prevPerCore[i], &current))
		c.prevPerCore[i] = current
	}

	return gauges
}

// frequency returns the current clock of the first package.
func (c *CPUCollector) frequency() metrics.Gauge {
	infos, err := cpuInfo()
	if err != nil || len(infos) == 0 || infos[0].Mhz <= 0 {
		return metrics.Gauge{}
	}
	return metrics.Available(infos[0].Mhz)
}

func toTimeStats(t *cpu.TimesStat, now time.Time) metrics.CPUTimeStats {
	return metrics.CPUTimeStats{
		User:      t.User,
		Nice:      t.Nice,
		System:    t.System,
		Idle:      t.Idle,
		IOWait:    t.Iowait,
		Irq:       t.Irq,
		SoftIrq:   t.Softirq,
		Steal:     t.Steal,
		Timestamp: now,
	}
}

// Name returns the collector name for logging purposes.
func (c *CPUCollector) Name() string {
	return "CPU"
}
