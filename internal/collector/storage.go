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
	"sort"

	"github.com/phuonguno98/unopulse/pkg/metrics"
	"github.com/shirou/gopsutil/v3/disk"
)

// StorageCollector reports capacity usage of mounted drives. The drive set is
// enumerated on every call because removable drives come and go.
type StorageCollector struct{}

// NewStorageCollector creates a new storage collector instance.
func NewStorageCollector() *StorageCollector {
	return &StorageCollector{}
}

// Sample enumerates partitions and reads usage for each. A drive whose usage
// cannot be read is left out of this call's set.
func (s *StorageCollector) Sample() (metrics.StorageStats, error) {
	partitions, err := diskPartitions(false)
	if err != nil {
		return metrics.StorageStats{}, fmt.Errorf("failed to get disk partitions: %w", err)
	}

	drives := make([]metrics.DriveUsage, 0, len(partitions))
	seen := make(map[string]bool)

	for i := range partitions {
		p := &partitions[i]
		if !IsMonitoredPartition(p) || seen[p.Device] {
			continue
		}
		seen[p.Device] = true

		usage, err := diskUsage(p.Mountpoint)
		if err != nil || usage.Total == 0 {
			continue
		}

		drives = append(drives, metrics.DriveUsage{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			Filesystem: p.Fstype,
			Used:       usage.Used,
			Total:      usage.Total,
		})
	}

	sort.Slice(drives, func(i, j int) bool {
		return drives[i].Mountpoint < drives[j].Mountpoint
	})

	return metrics.StorageStats{Available: true, Drives: drives}, nil
}

// IsMonitoredPartition filters out optical drives and partitions without a filesystem.
func IsMonitoredPartition(p *disk.PartitionStat) bool {
	if p.Fstype == "" {
		return false
	}
	for _, opt := range p.Opts {
		if opt == "cdrom" {
			return false
		}
	}
	return true
}

// Name returns the collector name for logging purposes.
func (s *StorageCollector) Name() string {
	return "Storage"
}
