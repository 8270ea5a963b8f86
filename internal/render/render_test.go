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

package render

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/phuonguno98/unopulse/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *metrics.Snapshot {
	return &metrics.Snapshot{
		Seq:       1,
		Timestamp: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		System:    metrics.SystemStats{Available: true, Hostname: "box", Uptime: 26*time.Hour + 5*time.Minute},
		CPU: metrics.CPUStats{
			Available:    true,
			TotalPercent: 42,
			FrequencyMHz: metrics.Available(2400),
			PerCore: []metrics.Gauge{
				metrics.Available(10), metrics.Available(20), metrics.Available(90), {},
				metrics.Available(55),
			},
		},
		Memory: metrics.MemoryStats{
			RAM:  metrics.Usage{Available: true, Used: 4 << 30, Total: 8 << 30},
			Free: 4 << 30,
			Swap: metrics.Usage{Available: true},
		},
		Storage: metrics.StorageStats{Available: true, Drives: []metrics.DriveUsage{
			{Device: "/dev/sda1", Mountpoint: "/", Used: 50, Total: 100},
		}},
		Network: metrics.NetworkStats{
			Throughput: metrics.Throughput{Available: true, UpBps: 2048, DownBps: 1024},
			Latency:    metrics.Latency{State: metrics.LatencyReachable, RTT: 23 * time.Millisecond},
		},
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		mode  string
		isTTY bool
		want  string
	}{
		{ModeAuto, true, ModeTUI},
		{ModeAuto, false, ModePlain},
		{ModeTUI, false, ModeTUI},
		{ModePlain, true, ModePlain},
		{ModeNone, true, ModeNone},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.mode, tt.isTTY))
		})
	}
}

func TestFormatLine(t *testing.T) {
	line := FormatLine(sampleSnapshot(), true)

	assert.Contains(t, line, "2024-05-01 10:30:00")
	assert.Contains(t, line, "cpu=42.0%[10,20,90,-,55]")
	assert.Contains(t, line, "ram=50.0%")
	assert.Contains(t, line, "disk[/]=50.0%")
	assert.Contains(t, line, "down=1.00KB/s")
	assert.Contains(t, line, "up=2.00KB/s")
	assert.Contains(t, line, "ping=23ms")
}

func TestFormatLine_Unavailable(t *testing.T) {
	s := &metrics.Snapshot{
		Timestamp: time.Now(),
		Network:   metrics.NetworkStats{Latency: metrics.Latency{State: metrics.LatencyUnreachable}},
	}
	line := FormatLine(s, false)

	assert.Contains(t, line, "cpu=N/A")
	assert.Contains(t, line, "ram=N/A")
	assert.Contains(t, line, "disk=N/A")
	assert.Contains(t, line, "net=N/A")
	assert.Contains(t, line, "ping=Offline")
}

func TestPlain_Consume(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlain(&buf, false)
	assert.Equal(t, "plain", p.Name())

	require.NoError(t, p.Consume(context.Background(), sampleSnapshot()))
	require.NoError(t, p.Consume(context.Background(), sampleSnapshot()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "cpu=42.0% ")
	assert.NotContains(t, lines[0], "cpu=42.0%[")
	assert.Contains(t, lines[0], "disk[/]=50.0%")

	buf.Reset()
	withCores := NewPlain(&buf, true)
	require.NoError(t, withCores.Consume(context.Background(), sampleSnapshot()))
	assert.Contains(t, buf.String(), "cpu=42.0%[10,20,90,-,55]")
}

func TestLatencyText(t *testing.T) {
	assert.Equal(t, "-- ms", latencyText(metrics.Latency{}))
	assert.Equal(t, "Offline", latencyText(metrics.Latency{State: metrics.LatencyUnreachable}))
	assert.Equal(t, "100 ms", latencyText(metrics.Latency{State: metrics.LatencyReachable, RTT: 100 * time.Millisecond}))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0h 5m", formatUptime(5*time.Minute+30*time.Second))
	assert.Equal(t, "1d 2h 5m", formatUptime(26*time.Hour+5*time.Minute))
}

func TestRenderBody(t *testing.T) {
	body := renderBody(sampleSnapshot(), viewOptions{showPerCore: true, pingTarget: "8.8.8.8:53"})

	assert.Contains(t, body, "CPU")
	assert.Contains(t, body, "2400 MHz")
	assert.Contains(t, body, "C4")
	assert.Contains(t, body, "MEMORY")
	assert.Contains(t, body, "Swap none")
	assert.Contains(t, body, "STORAGE")
	assert.Contains(t, body, "NETWORK")
	assert.Contains(t, body, "8.8.8.8:53")
	assert.Contains(t, body, "23 ms")

	hidden := renderBody(sampleSnapshot(), viewOptions{showPerCore: false})
	assert.NotContains(t, hidden, "C4")

	waiting := renderBody(nil, viewOptions{})
	assert.Contains(t, waiting, "Waiting")
}

func TestRenderBody_Unavailable(t *testing.T) {
	body := renderBody(&metrics.Snapshot{}, viewOptions{showPerCore: true})
	assert.GreaterOrEqual(t, strings.Count(body, notAvailable), 4)
	assert.Contains(t, body, "-- ms")
}

func TestRenderCoreGrid_FourColumns(t *testing.T) {
	cores := make([]metrics.Gauge, 10)
	grid := renderCoreGrid(cores)
	assert.Len(t, strings.Split(grid, "\n"), 3)
}

func TestHeader(t *testing.T) {
	header := renderHeader(sampleSnapshot())
	assert.Contains(t, header, "box")
	assert.Contains(t, header, "1d 2h 5m")
	assert.Contains(t, renderHeader(nil), notAvailable)
}

func TestBar(t *testing.T) {
	assert.Equal(t, "", Bar(50, 0))
	assert.Equal(t, 10, strings.Count(Bar(150, 10), "█"))
	assert.Equal(t, 10, strings.Count(Bar(-5, 10), "░"))
	assert.Equal(t, 5, strings.Count(Bar(50, 10), "█"))
}

func TestModel_Update(t *testing.T) {
	quit := 0
	m := NewModel(true, "8.8.8.8:53", func() { quit++ })

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(Model)
	assert.True(t, m.ready)
	assert.Equal(t, 37, m.viewport.Height)

	updated, _ = m.Update(snapshotMsg{snap: sampleSnapshot()})
	m = updated.(Model)
	assert.Equal(t, uint64(1), m.snap.Seq)
	assert.Contains(t, m.View(), "box")
	assert.Contains(t, m.View(), "hide cores")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m = updated.(Model)
	assert.False(t, m.showPerCore)
	assert.Contains(t, m.View(), "show cores")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = updated.(Model)
	assert.Equal(t, 1, quit)
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "", m.View())
}

func TestModel_CtrlCQuits(t *testing.T) {
	quit := false
	m := NewModel(false, "", func() { quit = true })
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, quit)
	require.NotNil(t, cmd)
}

func TestModel_ViewBeforeResize(t *testing.T) {
	m := NewModel(true, "", nil)
	assert.Contains(t, m.View(), "Waiting")
}

func TestTUI_RunAndConsume(t *testing.T) {
	var out bytes.Buffer
	tui := NewTUI(TUIOptions{Input: strings.NewReader(""), Output: &out, PingTarget: "x:1"})
	assert.Equal(t, "tui", tui.Name())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- tui.Run(ctx) }()

	consumed := make(chan struct{})
	go func() {
		_ = tui.Consume(context.Background(), sampleSnapshot())
		close(consumed)
	}()

	select {
	case <-consumed:
	case <-time.After(2 * time.Second):
		t.Fatal("Consume did not return while program was running")
	}

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// After the program exits, Consume must not block.
	done := make(chan struct{})
	go func() {
		_ = tui.Consume(context.Background(), sampleSnapshot())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume blocked after program exit")
	}
}
