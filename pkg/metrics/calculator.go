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

package metrics

import (
	"fmt"
	"time"
)

// CalculateCPUUtilization calculates CPU utilization percentage from two CPU time snapshots.
// Formula: 100 * (1 - ΔIdle / ΔTotal)
func CalculateCPUUtilization(prev, current *CPUTimeStats) float64 {
	if prev.Timestamp.IsZero() {
		return 0.0
	}

	deltaTotal := current.total() - prev.total()
	deltaIdle := (current.Idle + current.IOWait) - (prev.Idle + prev.IOWait)

	if deltaTotal <= 0 {
		return 0.0
	}

	util := 100.0 * (1.0 - deltaIdle/deltaTotal)
	switch {
	case util < 0:
		return 0.0
	case util > 100:
		return 100.0
	}
	return util
}

func (c *CPUTimeStats) total() float64 {
	return c.User + c.Nice + c.System + c.Idle + c.IOWait + c.Irq + c.SoftIrq + c.Steal
}

// CalculateThroughput calculates upload and download rates in bytes per second.
// Formula: ΔBytes / Δt
// A zero previous timestamp (first sample) or a counter that went backwards
// (interface reset) yields zero.
func CalculateThroughput(prev, current NetworkIOStats) (upBps, downBps float64) {
	if prev.Timestamp.IsZero() {
		return 0, 0
	}

	deltaTime := current.Timestamp.Sub(prev.Timestamp).Seconds()
	if deltaTime <= 0 {
		return 0, 0
	}

	if current.BytesSent < prev.BytesSent || current.BytesRecv < prev.BytesRecv {
		return 0, 0
	}

	upBps = float64(current.BytesSent-prev.BytesSent) / deltaTime
	downBps = float64(current.BytesRecv-prev.BytesRecv) / deltaTime
	return upBps, downBps
}

// UsagePercent returns used/total as a percentage.
func UsagePercent(used, total uint64) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(used) / float64(total) * 100.0
}

// Band is a coarse health classification used for coloring.
type Band int

const (
	BandGood Band = iota
	BandWarn
	BandCritical
)

// String returns the band label.
func (b Band) String() string {
	switch b {
	case BandWarn:
		return "warn"
	case BandCritical:
		return "critical"
	default:
		return "good"
	}
}

// Usage band thresholds (percent).
const (
	WarnPercent     = 50.0
	CriticalPercent = 80.0
)

// LatencyWarn is the round trip at which latency stops being good.
const LatencyWarn = 100 * time.Millisecond

// ClassifyPercent bands a 0-100 usage value.
func ClassifyPercent(pct float64) Band {
	switch {
	case pct < WarnPercent:
		return BandGood
	case pct < CriticalPercent:
		return BandWarn
	default:
		return BandCritical
	}
}

// ClassifyLatency bands a latency reading. Unreachable is critical; a pending
// reading is reported as warn until the first probe completes.
func ClassifyLatency(l Latency) Band {
	switch l.State {
	case LatencyUnreachable:
		return BandCritical
	case LatencyPending:
		return BandWarn
	}
	if l.RTT < LatencyWarn {
		return BandGood
	}
	return BandWarn
}

// FormatBytes converts bytes to a human-readable 1024-based string, e.g. "1.00 GB".
func FormatBytes(b float64) string {
	const unit = 1024.0
	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	i := 0
	for b >= unit && i < len(units)-1 {
		b /= unit
		i++
	}
	return fmt.Sprintf("%.2f %s", b, units[i])
}

// FormatRate formats a bytes-per-second rate, e.g. "12.30 KB/s".
func FormatRate(bps float64) string {
	return FormatBytes(bps) + "/s"
}
