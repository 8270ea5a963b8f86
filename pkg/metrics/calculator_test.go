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
	"math"
	"testing"
	"time"
)

func TestCalculateCPUUtilization(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		prev     CPUTimeStats
		current  CPUTimeStats
		expected float64
	}{
		{
			name: "Normal usage",
			prev: CPUTimeStats{
				User: 100, System: 50, Idle: 800, IOWait: 10,
				Timestamp: now,
			},
			current: CPUTimeStats{
				User: 110, System: 60, Idle: 810, IOWait: 15,
				Timestamp: now.Add(1 * time.Second),
			},
			// Total Delta = 10 + 10 + 10 + 5 = 35, idle-like delta = 10 + 5 = 15
			// Util = 100 * (1 - 15/35) = 57.142857
			expected: 57.142857142857146,
		},
		{
			name: "Nice counts as busy",
			prev: CPUTimeStats{
				Nice: 0, Idle: 100,
				Timestamp: now,
			},
			current: CPUTimeStats{
				Nice: 50, Idle: 150,
				Timestamp: now.Add(1 * time.Second),
			},
			expected: 50.0,
		},
		{
			name: "Zero timestamp (First run)",
			prev: CPUTimeStats{},
			current: CPUTimeStats{
				User:      100,
				Timestamp: now,
			},
			expected: 0.0,
		},
		{
			name: "No change (Zero delta total)",
			prev: CPUTimeStats{
				User: 100, Idle: 100,
				Timestamp: now,
			},
			current: CPUTimeStats{
				User: 100, Idle: 100,
				Timestamp: now.Add(1 * time.Second),
			},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateCPUUtilization(&tt.prev, &tt.current)
			if math.Abs(got-tt.expected) > 0.00001 {
				t.Errorf("CalculateCPUUtilization() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCalculateThroughput(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		prev     NetworkIOStats
		current  NetworkIOStats
		wantUp   float64
		wantDown float64
	}{
		{
			name:     "Normal",
			prev:     NetworkIOStats{BytesSent: 1000, BytesRecv: 5000, Timestamp: now},
			current:  NetworkIOStats{BytesSent: 3000, BytesRecv: 9000, Timestamp: now.Add(2 * time.Second)},
			wantUp:   1000,
			wantDown: 2000,
		},
		{
			name:    "First run",
			prev:    NetworkIOStats{},
			current: NetworkIOStats{BytesSent: 3000, BytesRecv: 9000, Timestamp: now},
		},
		{
			name:    "Zero elapsed",
			prev:    NetworkIOStats{BytesSent: 1, Timestamp: now},
			current: NetworkIOStats{BytesSent: 2, Timestamp: now},
		},
		{
			name:    "Counter reset",
			prev:    NetworkIOStats{BytesSent: 5000, BytesRecv: 5000, Timestamp: now},
			current: NetworkIOStats{BytesSent: 10, BytesRecv: 6000, Timestamp: now.Add(time.Second)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up, down := CalculateThroughput(tt.prev, tt.current)
			if math.Abs(up-tt.wantUp) > 0.00001 || math.Abs(down-tt.wantDown) > 0.00001 {
				t.Errorf("CalculateThroughput() = (%v, %v), want (%v, %v)", up, down, tt.wantUp, tt.wantDown)
			}
		})
	}
}

func TestClassifyPercent(t *testing.T) {
	tests := []struct {
		pct  float64
		want Band
	}{
		{0, BandGood},
		{49.9, BandGood},
		{50, BandWarn},
		{79.9, BandWarn},
		{80, BandCritical},
		{100, BandCritical},
	}
	for _, tt := range tests {
		if got := ClassifyPercent(tt.pct); got != tt.want {
			t.Errorf("ClassifyPercent(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

func TestClassifyLatency(t *testing.T) {
	tests := []struct {
		name string
		in   Latency
		want Band
	}{
		{"Fast", Latency{State: LatencyReachable, RTT: 20 * time.Millisecond}, BandGood},
		{"Slow", Latency{State: LatencyReachable, RTT: 150 * time.Millisecond}, BandWarn},
		{"Unreachable", Latency{State: LatencyUnreachable}, BandCritical},
		{"Pending", Latency{}, BandWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyLatency(tt.in); got != tt.want {
				t.Errorf("ClassifyLatency() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00 B"},
		{1023, "1023.00 B"},
		{1024, "1.00 KB"},
		{1073741824, "1.00 GB"},
		{1.5 * 1024 * 1024, "1.50 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FormatRate(2048); got != "2.00 KB/s" {
		t.Errorf("FormatRate(2048) = %q", got)
	}
}

func TestGauge_MarshalJSON(t *testing.T) {
	data, err := json.Marshal([]Gauge{Available(12.5), {}})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[12.5,null]" {
		t.Errorf("json = %s, want [12.5,null]", data)
	}
}

func TestUsage_Percent(t *testing.T) {
	if got := (Usage{Used: 25, Total: 100}).Percent(); got != 25 {
		t.Errorf("Percent() = %v, want 25", got)
	}
	if got := (Usage{Used: 25}).Percent(); got != 0 {
		t.Errorf("Percent() with zero total = %v, want 0", got)
	}
}
