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

// Package probe measures reachability of a TCP endpoint on its own schedule
// and publishes the latest outcome through a Slot.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
)

// Dialer opens a connection. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, network, address string) (net.Conn, error)

// DialContext calls f.
func (f DialerFunc) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return f(ctx, network, address)
}

// FailReason categorizes why a probe attempt failed.
type FailReason int

const (
	FailNone FailReason = iota
	FailUnknown
	FailTimeout
	FailRefused
	FailUnreachable
	FailDNS
	FailCanceled
)

// String returns a human-readable description of the failure reason.
func (r FailReason) String() string {
	switch r {
	case FailNone:
		return ""
	case FailTimeout:
		return "connection timed out"
	case FailRefused:
		return "connection refused"
	case FailUnreachable:
		return "host unreachable"
	case FailDNS:
		return "name resolution failed"
	case FailCanceled:
		return "canceled"
	default:
		return "unknown error"
	}
}

// State is the probe's position in its loop.
type State int32

const (
	StateIdle State = iota
	StateProbing
)

func (s State) String() string {
	if s == StateProbing {
		return "probing"
	}
	return "idle"
}

// Options configures a Probe.
type Options struct {
	// Address is the host:port to connect to.
	Address  string
	Interval time.Duration
	Timeout  time.Duration
	// Dialer defaults to a plain *net.Dialer.
	Dialer Dialer
	// Slot defaults to a fresh Slot.
	Slot   *Slot
	Logger *slog.Logger
}

// Probe runs one bounded TCP connect per interval.
type Probe struct {
	address  string
	interval time.Duration
	timeout  time.Duration
	dialer   Dialer
	slot     *Slot
	logger   *slog.Logger

	state atomic.Int32
	seq   atomic.Uint64
}

// New validates opts and creates a Probe.
func New(opts Options) (*Probe, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("probe address is required")
	}
	if _, _, err := net.SplitHostPort(opts.Address); err != nil {
		return nil, fmt.Errorf("invalid probe address %q: %w", opts.Address, err)
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("probe interval must be positive, got %v", opts.Interval)
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("probe timeout must be positive, got %v", opts.Timeout)
	}

	p := &Probe{
		address:  opts.Address,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		dialer:   opts.Dialer,
		slot:     opts.Slot,
		logger:   opts.Logger,
	}
	if p.dialer == nil {
		p.dialer = &net.Dialer{}
	}
	if p.slot == nil {
		p.slot = &Slot{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

// Slot returns the slot results are published to.
func (p *Probe) Slot() *Slot {
	return p.slot
}

// State reports whether an attempt is in flight.
func (p *Probe) State() State {
	return State(p.state.Load())
}

// Run probes immediately and then once per interval until ctx is done.
// Failures never stop the loop.
func (p *Probe) Run(ctx context.Context) error {
	p.logger.Info("Latency probe started",
		"target", p.address,
		"interval", p.interval,
		"timeout", p.timeout)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.ProbeOnce(ctx)

		select {
		case <-ctx.Done():
			p.logger.Info("Latency probe stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// ProbeOnce makes a single attempt and publishes its outcome. It returns the
// published result, or nil when ctx ended mid-attempt; such an attempt is
// abandoned and the slot keeps its previous value.
func (p *Probe) ProbeOnce(ctx context.Context) *Result {
	if ctx.Err() != nil {
		return nil
	}

	p.state.Store(int32(StateProbing))
	defer p.state.Store(int32(StateIdle))

	attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	conn, err := p.dialer.DialContext(attemptCtx, "tcp", p.address)
	elapsed := time.Since(start)
	if conn != nil {
		_ = conn.Close()
	}

	if ctx.Err() != nil {
		return nil
	}

	result := &Result{
		Seq:         p.seq.Add(1),
		CompletedAt: time.Now(),
	}
	if err != nil {
		result.Reason = categorize(err)
		p.logger.Debug("Probe failed",
			"target", p.address,
			"reason", result.Reason.String(),
			"error", err)
	} else {
		result.Reachable = true
		result.Latency = elapsed
	}

	p.slot.Store(result)
	return result
}

// categorize maps a dial error to a FailReason.
func categorize(err error) FailReason {
	if err == nil {
		return FailNone
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailTimeout
	}
	if errors.Is(err, context.Canceled) {
		return FailCanceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return FailTimeout
		}
		return FailDNS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return FailRefused
	}
	if errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return FailUnreachable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailTimeout
	}

	// Platform errors that do not map onto syscall values.
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return FailTimeout
	case strings.Contains(errStr, "refused"):
		return FailRefused
	case strings.Contains(errStr, "no route to host"),
		strings.Contains(errStr, "network is unreachable"),
		strings.Contains(errStr, "host is down"):
		return FailUnreachable
	}

	return FailUnknown
}
