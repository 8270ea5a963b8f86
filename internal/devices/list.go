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

// Package devices enumerates the drives, interfaces and processors the
// sampler will see, for the list-devices command.
package devices

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phuonguno98/unopulse/internal/collector"
	"github.com/phuonguno98/unopulse/pkg/metrics"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/net"
)

// Dependency injection points for testing
var (
	diskPartitions = disk.Partitions
	diskUsage      = disk.Usage
	netInterfaces  = net.Interfaces
	cpuInfo        = cpu.Info
	cpuCounts      = cpu.Counts
)

// DriveInfo describes one partition.
type DriveInfo struct {
	Device     string
	Mountpoint string
	Filesystem string
	Used       uint64
	Total      uint64
	// Monitored is false for partitions the storage adapter skips.
	Monitored bool
}

// InterfaceInfo describes one network interface.
type InterfaceInfo struct {
	Name       string
	MacAddress string
	Addresses  []string
	// Counted is false for interfaces left out of throughput totals.
	Counted bool
}

// ProcessorInfo summarizes the CPU.
type ProcessorInfo struct {
	Model         string
	LogicalCores  int
	PhysicalCores int
	MHz           float64
}

// ListDrives returns every partition with its usage, sorted by mountpoint.
func ListDrives() ([]DriveInfo, error) {
	partitions, err := diskPartitions(false)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk partitions: %w", err)
	}

	drives := make([]DriveInfo, 0, len(partitions))
	seen := make(map[string]bool)

	for i := range partitions {
		p := &partitions[i]
		// Skip duplicate devices
		if seen[p.Device] {
			continue
		}
		seen[p.Device] = true

		info := DriveInfo{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			Filesystem: p.Fstype,
			Monitored:  collector.IsMonitoredPartition(p),
		}
		if usage, err := diskUsage(p.Mountpoint); err == nil {
			info.Used = usage.Used
			info.Total = usage.Total
		} else {
			info.Monitored = false
		}

		drives = append(drives, info)
	}

	sort.Slice(drives, func(i, j int) bool {
		return drives[i].Mountpoint < drives[j].Mountpoint
	})

	return drives, nil
}

// ListInterfaces returns interfaces that have at least one address.
func ListInterfaces() ([]InterfaceInfo, error) {
	interfaces, err := netInterfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to get network interfaces: %w", err)
	}

	networks := make([]InterfaceInfo, 0, len(interfaces))

	for _, iface := range interfaces {
		// Skip interfaces without addresses
		if len(iface.Addrs) == 0 {
			continue
		}

		addresses := make([]string, 0, len(iface.Addrs))
		for _, addr := range iface.Addrs {
			addresses = append(addresses, addr.Addr)
		}

		networks = append(networks, InterfaceInfo{
			Name:       iface.Name,
			MacAddress: iface.HardwareAddr,
			Addresses:  addresses,
			Counted:    !collector.IsLoopback(iface.Name),
		})
	}

	sort.Slice(networks, func(i, j int) bool {
		return networks[i].Name < networks[j].Name
	})

	return networks, nil
}

// Processor returns the CPU model and core counts. A failed model lookup
// still reports core counts.
func Processor() (ProcessorInfo, error) {
	logical, err := cpuCounts(true)
	if err != nil {
		return ProcessorInfo{}, fmt.Errorf("failed to count CPUs: %w", err)
	}

	info := ProcessorInfo{LogicalCores: logical}
	if physical, err := cpuCounts(false); err == nil {
		info.PhysicalCores = physical
	}
	if infos, err := cpuInfo(); err == nil && len(infos) > 0 {
		info.Model = strings.TrimSpace(infos[0].ModelName)
		info.MHz = infos[0].Mhz
	}

	return info, nil
}

// FormatDrivesTable formats drive information as a table.
func FormatDrivesTable(drives []DriveInfo) string {
	var sb strings.Builder

	sb.WriteString("\nDrives:\n")
	sb.WriteString(strings.Repeat("=", 90))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-24s %-22s %-10s %12s %12s  %s\n", "DEVICE", "MOUNTPOINT", "FS", "USED", "SIZE", "MONITORED"))
	sb.WriteString(strings.Repeat("-", 90))
	sb.WriteString("\n")

	for _, d := range drives {
		monitored := "yes"
		if !d.Monitored {
			monitored = "no"
		}
		sb.WriteString(fmt.Sprintf("%-24s %-22s %-10s %12s %12s  %s\n",
			truncate(d.Device, 24),
			truncate(d.Mountpoint, 22),
			truncate(d.Filesystem, 10),
			metrics.FormatBytes(float64(d.Used)),
			metrics.FormatBytes(float64(d.Total)),
			monitored,
		))
	}

	sb.WriteString(strings.Repeat("=", 90))
	sb.WriteString("\n")

	return sb.String()
}

// FormatInterfacesTable formats network interface information as a table.
func FormatInterfacesTable(networks []InterfaceInfo) string {
	var sb strings.Builder

	sb.WriteString("\nNetwork Interfaces:\n")
	sb.WriteString(strings.Repeat("=", 90))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-32s %-17s %-8s %s\n", "INTERFACE", "MAC ADDRESS", "COUNTED", "IP ADDRESSES"))
	sb.WriteString(strings.Repeat("-", 90))
	sb.WriteString("\n")

	for _, n := range networks {
		mac := n.MacAddress
		if mac == "" {
			mac = "N/A"
		}
		counted := "yes"
		if !n.Counted {
			counted = "no"
		}

		firstIP := "N/A"
		if len(n.Addresses) > 0 {
			firstIP = n.Addresses[0]
		}

		sb.WriteString(fmt.Sprintf("%-32s %-17s %-8s %s\n", truncate(n.Name, 32), mac, counted, firstIP))

		// Show additional IPs on separate lines
		for i := 1; i < len(n.Addresses); i++ {
			sb.WriteString(fmt.Sprintf("%-32s %-17s %-8s %s\n", "", "", "", n.Addresses[i]))
		}
	}

	sb.WriteString(strings.Repeat("=", 90))
	sb.WriteString("\n")

	return sb.String()
}

// FormatProcessor formats the CPU summary.
func FormatProcessor(p ProcessorInfo) string {
	model := p.Model
	if model == "" {
		model = "N/A"
	}
	return fmt.Sprintf("\nProcessor: %s\n  Logical cores:  %d\n  Physical cores: %d\n  Clock:          %.0f MHz\n",
		model, p.LogicalCores, p.PhysicalCores, p.MHz)
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
