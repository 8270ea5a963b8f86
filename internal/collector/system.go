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
	"os"
	"time"

	"github.com/phuonguno98/unopulse/pkg/metrics"
)

var osHostname = os.Hostname

// SystemCollector reports hostname and uptime.
type SystemCollector struct{}

// NewSystemCollector creates a new system collector instance.
func NewSystemCollector() *SystemCollector {
	return &SystemCollector{}
}

// Sample reads hostname and uptime.
func (s *SystemCollector) Sample() (metrics.SystemStats, error) {
	name, err := osHostname()
	if err != nil {
		return metrics.SystemStats{}, fmt.Errorf("failed to get hostname: %w", err)
	}

	uptime, err := hostUptime()
	if err != nil {
		return metrics.SystemStats{}, fmt.Errorf("failed to get uptime: %w", err)
	}

	return metrics.SystemStats{
		Available: true,
		Hostname:  name,
		Uptime:    time.Duration(uptime) * time.Second,
	}, nil
}

// Name returns the collector name for logging purposes.
func (s *SystemCollector) Name() string {
	return "System"
}
