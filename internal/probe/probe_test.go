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

package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/phuonguno98/unopulse/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pipeDialer() DialerFunc {
	return func(context.Context, string, string) (net.Conn, error) {
		client, server := net.Pipe()
		_ = server.Close()
		return client, nil
	}
}

func newTestProbe(t *testing.T, d Dialer, timeout time.Duration) *Probe {
	t.Helper()
	p, err := New(Options{
		Address:  "127.0.0.1:53",
		Interval: 10 * time.Millisecond,
		Timeout:  timeout,
		Dialer:   d,
		Logger:   quietLogger(),
	})
	require.NoError(t, err)
	return p
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing address", Options{Interval: time.Second, Timeout: time.Second}},
		{"address without port", Options{Address: "8.8.8.8", Interval: time.Second, Timeout: time.Second}},
		{"zero interval", Options{Address: "8.8.8.8:53", Timeout: time.Second}},
		{"zero timeout", Options{Address: "8.8.8.8:53", Interval: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			assert.Error(t, err)
		})
	}

	p, err := New(Options{Address: "8.8.8.8:53", Interval: time.Second, Timeout: time.Second})
	require.NoError(t, err)
	assert.NotNil(t, p.Slot())
	assert.Equal(t, StateIdle, p.State())
}

func TestSlot_EmptyUntilStored(t *testing.T) {
	var s Slot
	assert.Nil(t, s.Load())
	assert.Equal(t, metrics.LatencyPending, s.Load().AsLatency().State)

	r := &Result{Seq: 1, Reachable: true, Latency: 5 * time.Millisecond}
	s.Store(r)
	assert.Same(t, r, s.Load())
	// Repeated reads without a new publish see the same value.
	assert.Same(t, s.Load(), s.Load())
}

func TestProbeOnce_Success(t *testing.T) {
	p := newTestProbe(t, pipeDialer(), time.Second)

	r := p.ProbeOnce(context.Background())
	require.NotNil(t, r)
	assert.True(t, r.Reachable)
	assert.Equal(t, FailNone, r.Reason)
	assert.Equal(t, uint64(1), r.Seq)
	assert.Same(t, r, p.Slot().Load())

	lat := r.AsLatency()
	assert.Equal(t, metrics.LatencyReachable, lat.State)
	assert.Equal(t, r.Latency, lat.RTT)
	assert.Equal(t, StateIdle, p.State())
}

func TestProbeOnce_Refused(t *testing.T) {
	refused := DialerFunc(func(context.Context, string, string) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	})
	p := newTestProbe(t, refused, time.Second)

	r := p.ProbeOnce(context.Background())
	require.NotNil(t, r)
	assert.False(t, r.Reachable)
	assert.Equal(t, FailRefused, r.Reason)
	assert.Zero(t, r.Latency)

	lat := r.AsLatency()
	assert.Equal(t, metrics.LatencyUnreachable, lat.State)
	assert.Equal(t, "connection refused", lat.Reason)
	assert.Zero(t, lat.RTT)
}

func TestProbeOnce_TimeoutIsBounded(t *testing.T) {
	hang := DialerFunc(func(ctx context.Context, _, _ string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	p := newTestProbe(t, hang, 30*time.Millisecond)

	start := time.Now()
	r := p.ProbeOnce(context.Background())
	require.NotNil(t, r)
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, r.Reachable)
	assert.Equal(t, FailTimeout, r.Reason)
}

func TestProbeOnce_AbandonedOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	hang := DialerFunc(func(dctx context.Context, _, _ string) (net.Conn, error) {
		close(started)
		<-dctx.Done()
		return nil, dctx.Err()
	})
	p := newTestProbe(t, hang, 10*time.Second)

	prev := &Result{Seq: 41, Reachable: true, Latency: time.Millisecond}
	p.Slot().Store(prev)

	go func() {
		<-started
		cancel()
	}()

	assert.Nil(t, p.ProbeOnce(ctx))
	assert.Same(t, prev, p.Slot().Load())
	assert.Nil(t, p.ProbeOnce(ctx))
}

func TestProbe_StateWhileProbing(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	blocking := DialerFunc(func(context.Context, string, string) (net.Conn, error) {
		close(entered)
		<-release
		return nil, errors.New("boom")
	})
	p := newTestProbe(t, blocking, time.Second)

	done := make(chan struct{})
	go func() {
		p.ProbeOnce(context.Background())
		close(done)
	}()

	<-entered
	assert.Equal(t, StateProbing, p.State())
	close(release)
	<-done
	assert.Equal(t, StateIdle, p.State())
}

func TestRun_PublishesUntilCanceled(t *testing.T) {
	var calls atomic.Int32
	counting := DialerFunc(func(ctx context.Context, network, addr string) (net.Conn, error) {
		calls.Add(1)
		return pipeDialer()(ctx, network, addr)
	})
	p := newTestProbe(t, counting, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, p.Run(ctx))
	}()

	// Readers race with the writer; the slot must stay consistent.
	deadline := time.Now().Add(200 * time.Millisecond)
	var lastSeq uint64
	for time.Now().Before(deadline) {
		if r := p.Slot().Load(); r != nil {
			assert.GreaterOrEqual(t, r.Seq, lastSeq)
			lastSeq = r.Seq
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	wg.Wait()

	assert.GreaterOrEqual(t, calls.Load(), int32(2))
	assert.GreaterOrEqual(t, lastSeq, uint64(1))
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailReason
	}{
		{"nil", nil, FailNone},
		{"deadline", fmt.Errorf("dial: %w", context.DeadlineExceeded), FailTimeout},
		{"canceled", context.Canceled, FailCanceled},
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}, FailDNS},
		{"dns timeout", &net.DNSError{Err: "timeout", Name: "slow", IsTimeout: true}, FailTimeout},
		{"refused", os.NewSyscallError("connect", syscall.ECONNREFUSED), FailRefused},
		{"host unreachable", os.NewSyscallError("connect", syscall.EHOSTUNREACH), FailUnreachable},
		{"net unreachable", os.NewSyscallError("connect", syscall.ENETUNREACH), FailUnreachable},
		{"string timeout", errors.New("i/o timeout"), FailTimeout},
		{"string host down", errors.New("host is down"), FailUnreachable},
		{"other", errors.New("weird"), FailUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, categorize(tt.err))
		})
	}
}

func TestFailReason_String(t *testing.T) {
	assert.Equal(t, "connection timed out", FailTimeout.String())
	assert.Equal(t, "name resolution failed", FailDNS.String())
	assert.Equal(t, "unknown error", FailUnknown.String())
	assert.Equal(t, "probing", StateProbing.String())
}
