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
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/phuonguno98/unopulse/pkg/metrics"
)

// Plain writes one summary line per snapshot, for pipes and log files.
type Plain struct {
	mu          sync.Mutex
	w           io.Writer
	showPerCore bool
}

// NewPlain creates a line renderer writing to w.
func NewPlain(w io.Writer, showPerCore bool) *Plain {
	return &Plain{w: w, showPerCore: showPerCore}
}

// Name implements dispatch.Consumer.
func (p *Plain) Name() string {
	return "plain"
}

// Consume writes the summary line for s.
func (p *Plain) Consume(_ context.Context, s *metrics.Snapshot) error {
	line := FormatLine(s, p.showPerCore)

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := io.WriteString(p.w, line+"\n"); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}
	return nil
}

// FormatLine renders s without color.
func FormatLine(s *metrics.Snapshot, showPerCore bool) string {
	parts := []string{s.Timestamp.Format("2006-01-02 15:04:05")}

	if s.CPU.Available {
		cpu := fmt.Sprintf("cpu=%.1f%%", s.CPU.TotalPercent)
		if showPerCore {
			cores := make([]string, len(s.CPU.PerCore))
			for i, g := range s.CPU.PerCore {
				cores[i] = "-"
				if g.Valid {
					cores[i] = fmt.Sprintf("%.0f", g.Value)
				}
			}
			cpu += "[" + strings.Join(cores, ",") + "]"
		}
		parts = append(parts, cpu)
	} else {
		parts = append(parts, "cpu="+notAvailable)
	}

	parts = append(parts, "ram="+usageText(s.Memory.RAM), "swap="+usageText(s.Memory.Swap))

	if s.Storage.Available {
		for _, d := range s.Storage.Drives {
			parts = append(parts, fmt.Sprintf("disk[%s]=%.1f%%", d.Mountpoint, d.Percent()))
		}
	} else {
		parts = append(parts, "disk="+notAvailable)
	}

	if tp := s.Network.Throughput; tp.Available {
		parts = append(parts,
			"down="+strings.ReplaceAll(metrics.FormatRate(tp.DownBps), " ", ""),
			"up="+strings.ReplaceAll(metrics.FormatRate(tp.UpBps), " ", ""))
	} else {
		parts = append(parts, "net="+notAvailable)
	}

	parts = append(parts, "ping="+strings.ReplaceAll(latencyText(s.Network.Latency), " ", ""))

	return strings.Join(parts, " ")
}

func usageText(u metrics.Usage) string {
	if !u.Available {
		return notAvailable
	}
	return fmt.Sprintf("%.1f%%", u.Percent())
}
