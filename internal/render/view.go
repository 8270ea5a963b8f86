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
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/phuonguno98/unopulse/pkg/metrics"
)

const (
	notAvailable = "N/A"
	coreColumns  = 4
	barWidth     = 20
)

// viewOptions control what the dashboard body shows.
type viewOptions struct {
	showPerCore bool
	pingTarget  string
}

// renderHeader returns the hostname and uptime line.
func renderHeader(s *metrics.Snapshot) string {
	host, uptime := notAvailable, notAvailable
	if s != nil && s.System.Available {
		host = s.System.Hostname
		uptime = formatUptime(s.System.Uptime)
	}

	stamp := ""
	if s != nil {
		stamp = s.Timestamp.Format("15:04:05")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		TitleStyle.Render("UNOPULSE "),
		LabelStyle.Render(fmt.Sprintf("host %s · up %s · %s", host, uptime, stamp)),
	)
}

// renderBody lays out every metric section of a snapshot.
func renderBody(s *metrics.Snapshot, opts viewOptions) string {
	if s == nil {
		return LabelStyle.Render("Waiting for first sample...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		SectionStyle.Render(renderCPU(s.CPU, opts.showPerCore)),
		SectionStyle.Render(renderMemory(s.Memory)),
		SectionStyle.Render(renderStorage(s.Storage)),
		SectionStyle.Render(renderNetwork(s.Network, opts.pingTarget)),
	)
}

func renderCPU(c metrics.CPUStats, showPerCore bool) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("CPU"))
	b.WriteString("\n")

	if !c.Available {
		b.WriteString(LabelStyle.Render(notAvailable))
		return b.String()
	}

	fmt.Fprintf(&b, "%s %s %s  %s\n",
		LabelStyle.Render("Total"),
		Bar(c.TotalPercent, barWidth),
		percent(c.TotalPercent),
		LabelStyle.Render(fmt.Sprintf("free %.1f%%", c.FreePercent())))

	clock := notAvailable
	if c.FrequencyMHz.Valid {
		clock = fmt.Sprintf("%.0f MHz", c.FrequencyMHz.Value)
	}
	b.WriteString(LabelStyle.Render("Clock " + clock))

	if showPerCore && len(c.PerCore) > 0 {
		b.WriteString("\n")
		b.WriteString(renderCoreGrid(c.PerCore))
	}
	return b.String()
}

// renderCoreGrid draws per-core usage in rows of coreColumns.
func renderCoreGrid(cores []metrics.Gauge) string {
	rows := make([]string, 0, (len(cores)+coreColumns-1)/coreColumns)
	for start := 0; start < len(cores); start += coreColumns {
		end := min(start+coreColumns, len(cores))
		cells := make([]string, 0, coreColumns)
		for i := start; i < end; i++ {
			value := LabelStyle.Render(fmt.Sprintf("%6s", notAvailable))
			if cores[i].Valid {
				value = percent(cores[i].Value)
			}
			cells = append(cells, fmt.Sprintf("%s %s", LabelStyle.Render(fmt.Sprintf("C%-2d", i)), value))
		}
		rows = append(rows, strings.Join(cells, "   "))
	}
	return strings.Join(rows, "\n")
}

func renderMemory(m metrics.MemoryStats) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("MEMORY"))
	b.WriteString("\n")

	if m.RAM.Available {
		fmt.Fprintf(&b, "%s %s %s  %s\n",
			LabelStyle.Render("RAM "),
			Bar(m.RAM.Percent(), barWidth),
			percent(m.RAM.Percent()),
			LabelStyle.Render(fmt.Sprintf("%s / %s, %s available",
				metrics.FormatBytes(float64(m.RAM.Used)),
				metrics.FormatBytes(float64(m.RAM.Total)),
				metrics.FormatBytes(float64(m.Free)))))
	} else {
		b.WriteString(LabelStyle.Render("RAM  " + notAvailable))
		b.WriteString("\n")
	}

	switch {
	case !m.Swap.Available:
		b.WriteString(LabelStyle.Render("Swap " + notAvailable))
	case m.Swap.Total == 0:
		b.WriteString(LabelStyle.Render("Swap none"))
	default:
		fmt.Fprintf(&b, "%s %s %s  %s",
			LabelStyle.Render("Swap"),
			Bar(m.Swap.Percent(), barWidth),
			percent(m.Swap.Percent()),
			LabelStyle.Render(fmt.Sprintf("%s / %s",
				metrics.FormatBytes(float64(m.Swap.Used)),
				metrics.FormatBytes(float64(m.Swap.Total)))))
	}
	return b.String()
}

func renderStorage(st metrics.StorageStats) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("STORAGE"))

	if !st.Available {
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render(notAvailable))
		return b.String()
	}
	if len(st.Drives) == 0 {
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render("No drives"))
		return b.String()
	}

	for _, d := range st.Drives {
		fmt.Fprintf(&b, "\n%s %s %s  %s",
			LabelStyle.Render(fmt.Sprintf("%-12s", truncate(d.Mountpoint, 12))),
			Bar(d.Percent(), barWidth),
			percent(d.Percent()),
			LabelStyle.Render(fmt.Sprintf("%s / %s",
				metrics.FormatBytes(float64(d.Used)),
				metrics.FormatBytes(float64(d.Total)))))
	}
	return b.String()
}

func renderNetwork(n metrics.NetworkStats, target string) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("NETWORK"))
	b.WriteString("\n")

	if n.Throughput.Available {
		fmt.Fprintf(&b, "%s %s   %s %s\n",
			LabelStyle.Render("⬇"),
			ValueStyle.Render(metrics.FormatRate(n.Throughput.DownBps)),
			LabelStyle.Render("⬆"),
			ValueStyle.Render(metrics.FormatRate(n.Throughput.UpBps)))
	} else {
		b.WriteString(LabelStyle.Render("Traffic " + notAvailable))
		b.WriteString("\n")
	}

	b.WriteString(LabelStyle.Render(fmt.Sprintf("Ping %s ", target)))
	b.WriteString(BandStyle(metrics.ClassifyLatency(n.Latency)).Render(latencyText(n.Latency)))
	return b.String()
}

// latencyText describes a latency reading in a few words.
func latencyText(l metrics.Latency) string {
	switch l.State {
	case metrics.LatencyReachable:
		return fmt.Sprintf("%.0f ms", l.Milliseconds())
	case metrics.LatencyUnreachable:
		return "Offline"
	default:
		return "-- ms"
	}
}

func percent(v float64) string {
	return BandStyle(metrics.ClassifyPercent(v)).Render(fmt.Sprintf("%5.1f%%", v))
}

func formatUptime(d time.Duration) string {
	d = d.Truncate(time.Minute)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
