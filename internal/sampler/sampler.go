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

// Package sampler owns the tick loop that turns adapter readings into
// snapshots.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phuonguno98/unopulse/internal/collector"
	"github.com/phuonguno98/unopulse/internal/probe"
	"github.com/phuonguno98/unopulse/pkg/metrics"
)

// Publisher accepts finished snapshots. It must not block.
type Publisher interface {
	Publish(s *metrics.Snapshot)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(s *metrics.Snapshot)

// Publish calls f.
func (f PublisherFunc) Publish(s *metrics.Snapshot) {
	f(s)
}

// Options configures a Sampler. A nil source leaves its family unavailable.
type Options struct {
	Interval time.Duration
	// Cores fixes the per-core width of every snapshot.
	Cores int

	CPU     collector.Source[metrics.CPUStats]
	Memory  collector.Source[metrics.MemoryStats]
	Storage collector.Source[metrics.StorageStats]
	Network collector.Source[metrics.Throughput]
	System  collector.Source[metrics.SystemStats]

	// Latency is read once per tick; it is never waited on.
	Latency *probe.Slot

	Publisher Publisher
	Logger    *slog.Logger
}

// Sampler builds one snapshot per tick.
type Sampler struct {
	opts   Options
	logger *slog.Logger
	seq    uint64
}

// New validates opts and creates a Sampler.
func New(opts Options) (*Sampler, error) {
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("sample interval must be positive, got %v", opts.Interval)
	}
	if opts.Cores < 1 {
		return nil, fmt.Errorf("core count must be at least 1, got %d", opts.Cores)
	}
	if opts.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{opts: opts, logger: logger}, nil
}

// Run ticks once immediately and then on every interval until ctx is done.
// A tick that overruns the interval is followed by at most one immediate
// tick; missed ticks are not queued.
func (s *Sampler) Run(ctx context.Context) error {
	s.logger.Info("Sampler started", "interval", s.opts.Interval, "cores", s.opts.Cores)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.Tick(time.Now())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sampler stopped", "ticks", s.seq)
			return nil
		case now := <-ticker.C:
			s.Tick(now)
		}
	}
}

// Tick samples every source, publishes the snapshot and returns it.
// Tick is not safe for concurrent use.
func (s *Sampler) Tick(now time.Time) *metrics.Snapshot {
	s.seq++
	snap := &metrics.Snapshot{
		Seq:       s.seq,
		Timestamp: now,
	}

	snap.CPU, _ = read(s.logger, "CPU", s.opts.CPU)
	snap.CPU.PerCore = fitCores(snap.CPU.PerCore, s.opts.Cores)
	snap.Memory, _ = read(s.logger, "Memory", s.opts.Memory)
	snap.Storage, _ = read(s.logger, "Storage", s.opts.Storage)
	snap.Network.Throughput, _ = read(s.logger, "Network", s.opts.Network)
	snap.System, _ = read(s.logger, "System", s.opts.System)

	var latest *probe.Result
	if s.opts.Latency != nil {
		latest = s.opts.Latency.Load()
	}
	snap.Network.Latency = latest.AsLatency()

	s.opts.Publisher.Publish(snap)
	return snap
}

// read calls src and converts errors and panics into the zero reading.
func read[T any](logger *slog.Logger, name string, src collector.Source[T]) (v T, ok bool) {
	if src == nil {
		return v, false
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Debug("Adapter panicked", "collector", name, "panic", r)
			var zero T
			v, ok = zero, false
		}
	}()

	reading, err := src.Sample()
	if err != nil {
		logger.Debug("Adapter unavailable", "collector", name, "error", err)
		return v, false
	}
	return reading, true
}

// fitCores returns exactly n gauges; missing cores are unavailable.
func fitCores(g []metrics.Gauge, n int) []metrics.Gauge {
	if len(g) == n {
		return g
	}
	out := make([]metrics.Gauge, n)
	copy(out, g)
	return out
}
