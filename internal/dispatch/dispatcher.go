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

// Package dispatch fans snapshots out to consumers. Each consumer drains its
// own Mailbox on its own goroutine, so a stalled consumer never holds up the
// producer or its peers.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/phuonguno98/unopulse/pkg/metrics"
)

// Consumer receives snapshots in tick order. Snapshots are shared between
// consumers and must not be modified. A consumer that also implements
// io.Closer is closed by Dispatcher.Close after its mailbox drains.
type Consumer interface {
	Name() string
	Consume(ctx context.Context, s *metrics.Snapshot) error
}

// ConsumerStats reports delivery counters for one consumer.
type ConsumerStats struct {
	Name      string
	Delivered uint64
	Dropped   uint64
	Failed    uint64
}

// Options configures a Dispatcher.
type Options struct {
	// InboxSize is the per-consumer mailbox capacity.
	InboxSize int
	Logger    *slog.Logger
}

type route struct {
	consumer  Consumer
	box       *Mailbox
	done      chan struct{}
	delivered atomic.Uint64
	failed    atomic.Uint64
}

// Dispatcher delivers every published snapshot to every registered consumer.
type Dispatcher struct {
	inboxSize int
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	routes []*route
	closed bool
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	if opts.InboxSize < 1 {
		opts.InboxSize = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		inboxSize: opts.InboxSize,
		logger:    opts.Logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Register adds c and starts its delivery goroutine. Snapshots published
// before registration are not replayed.
func (d *Dispatcher) Register(c Consumer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("dispatcher closed, cannot register %s", c.Name())
	}

	r := &route{
		consumer: c,
		box:      NewMailbox(d.inboxSize),
		done:     make(chan struct{}),
	}
	d.routes = append(d.routes, r)
	go d.deliver(r)

	d.logger.Debug("Consumer registered", "consumer", c.Name(), "inbox", d.inboxSize)
	return nil
}

// Publish hands s to every consumer's mailbox. It never blocks on a consumer.
func (d *Dispatcher) Publish(s *metrics.Snapshot) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return
	}
	for _, r := range d.routes {
		if r.box.Put(s) {
			d.logger.Debug("Consumer behind, dropped oldest snapshot",
				"consumer", r.consumer.Name(),
				"seq", s.Seq)
		}
	}
}

// Stats returns per-consumer counters in registration order.
func (d *Dispatcher) Stats() []ConsumerStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := make([]ConsumerStats, 0, len(d.routes))
	for _, r := range d.routes {
		stats = append(stats, ConsumerStats{
			Name:      r.consumer.Name(),
			Delivered: r.delivered.Load(),
			Dropped:   r.box.Dropped(),
			Failed:    r.failed.Load(),
		})
	}
	return stats
}

// Close stops accepting snapshots, lets each consumer drain what is queued,
// then closes consumers that implement io.Closer. If ctx ends first, the
// context passed to Consume is canceled and consumers still running are
// left unclosed.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	routes := d.routes
	d.mu.Unlock()

	for _, r := range routes {
		r.box.Close()
	}

	var firstErr error
	for _, r := range routes {
		if !r.drained(ctx) {
			d.cancel()
			d.logger.Warn("Consumer did not drain before shutdown deadline", "consumer", r.consumer.Name())
			if firstErr == nil {
				firstErr = fmt.Errorf("consumer %s did not drain: %w", r.consumer.Name(), ctx.Err())
			}
			continue
		}

		if closer, ok := r.consumer.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				d.logger.Error("Failed to close consumer", "consumer", r.consumer.Name(), "error", err)
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to close %s: %w", r.consumer.Name(), err)
				}
			}
		}
	}

	d.cancel()
	return firstErr
}

// drained waits for the route to finish or ctx to end. A route that already
// finished counts as drained even when ctx has ended too.
func (r *route) drained(ctx context.Context) bool {
	select {
	case <-r.done:
		return true
	default:
	}

	select {
	case <-r.done:
		return true
	case <-ctx.Done():
		return false
	}
}

func (d *Dispatcher) deliver(r *route) {
	defer close(r.done)

	for s := range r.box.C() {
		if err := d.consume(r.consumer, s); err != nil {
			r.failed.Add(1)
			d.logger.Debug("Consumer failed", "consumer", r.consumer.Name(), "seq", s.Seq, "error", err)
			continue
		}
		r.delivered.Add(1)
	}
}

func (d *Dispatcher) consume(c Consumer, s *metrics.Snapshot) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in consumer: %v", rec)
		}
	}()
	return c.Consume(d.ctx, s)
}
