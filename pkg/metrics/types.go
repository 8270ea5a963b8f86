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
	"encoding/json"
	"time"
)

// Gauge is a single numeric reading that may be unavailable.
type Gauge struct {
	Value float64
	Valid bool
}

// Available returns a valid gauge holding v.
func Available(v float64) Gauge {
	return Gauge{Value: v, Valid: true}
}

// MarshalJSON encodes an unavailable gauge as null.
func (g Gauge) MarshalJSON() ([]byte, error) {
	if !g.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(g.Value)
}

// Snapshot is one tick's worth of telemetry. It is read-only once built;
// consumers must not mutate it or the slices it holds.
type Snapshot struct {
	Seq       uint64       `json:"seq"`
	Timestamp time.Time    `json:"timestamp"`
	System    SystemStats  `json:"system"`
	CPU       CPUStats     `json:"cpu"`
	Memory    MemoryStats  `json:"memory"`
	Storage   StorageStats `json:"storage"`
	Network   NetworkStats `json:"network"`
}

// SystemStats identifies the host.
type SystemStats struct {
	Available bool          `json:"available"`
	Hostname  string        `json:"hostname"`
	Uptime    time.Duration `json:"uptime_ns"`
}

// CPUStats holds processor utilization. PerCore always has the core count
// captured at startup, even when the reading is unavailable.
type CPUStats struct {
	Available    bool    `json:"available"`
	TotalPercent float64 `json:"total_pct"`
	FrequencyMHz Gauge   `json:"frequency_mhz"`
	PerCore      []Gauge `json:"per_core_pct"`
}

// FreePercent returns the idle share of the processor.
func (c CPUStats) FreePercent() float64 {
	return 100.0 - c.TotalPercent
}

// Usage is a used/total pair in bytes.
type Usage struct {
	Available bool   `json:"available"`
	Used      uint64 `json:"used_bytes"`
	Total     uint64 `json:"total_bytes"`
}

// Percent returns used as a share of total, or 0 when total is zero.
func (u Usage) Percent() float64 {
	return UsagePercent(u.Used, u.Total)
}

// MemoryStats holds physical memory and swap usage.
type MemoryStats struct {
	RAM  Usage  `json:"ram"`
	Free uint64 `json:"ram_available_bytes"`
	Swap Usage  `json:"swap"`
}

// DriveUsage is capacity usage of one mounted drive.
type DriveUsage struct {
	Device     string `json:"device"`
	Mountpoint string `json:"mountpoint"`
	Filesystem string `json:"filesystem"`
	Used       uint64 `json:"used_bytes"`
	Total      uint64 `json:"total_bytes"`
}

// Percent returns the used share of the drive.
func (d DriveUsage) Percent() float64 {
	return UsagePercent(d.Used, d.Total)
}

// StorageStats is the drive set enumerated during one tick.
type StorageStats struct {
	Available bool         `json:"available"`
	Drives    []DriveUsage `json:"drives"`
}

// Throughput is the network rate derived from counter deltas.
type Throughput struct {
	Available bool    `json:"available"`
	UpBps     float64 `json:"up_bps"`
	DownBps   float64 `json:"down_bps"`
}

// LatencyState tells whether the last probe reached its target.
type LatencyState int

const (
	// LatencyPending means no probe has completed yet.
	LatencyPending LatencyState = iota
	LatencyReachable
	LatencyUnreachable
)

// String returns a short label for the state.
func (s LatencyState) String() string {
	switch s {
	case LatencyReachable:
		return "reachable"
	case LatencyUnreachable:
		return "unreachable"
	default:
		return "pending"
	}
}

// MarshalText encodes the state as its label.
func (s LatencyState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Latency is the last known probe result. RTT is meaningful only when
// State is LatencyReachable.
type Latency struct {
	State      LatencyState  `json:"state"`
	RTT        time.Duration `json:"rtt_ns"`
	MeasuredAt time.Time     `json:"measured_at"`
	Reason     string        `json:"reason,omitempty"`
}

// Milliseconds returns the round trip in fractional milliseconds.
func (l Latency) Milliseconds() float64 {
	return float64(l.RTT) / float64(time.Millisecond)
}

// NetworkStats combines throughput and latency.
type NetworkStats struct {
	Throughput Throughput `json:"throughput"`
	Latency    Latency    `json:"latency"`
}

// NetworkIOStats holds raw byte counters for delta calculations.
type NetworkIOStats struct {
	BytesSent uint64
	BytesRecv uint64
	Timestamp time.Time
}

// CPUTimeStats represents CPU time statistics for delta calculations.
type CPUTimeStats struct {
	User      float64
	Nice      float64
	System    float64
	Idle      float64
	IOWait    float64
	Irq       float64
	SoftIrq   float64
	Steal     float64
	Timestamp time.Time
}
