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
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/phuonguno98/unopulse/pkg/metrics"
)

// Dashboard color palette
const (
	ColorFrame      = lipgloss.Color("#2B2B2B")
	ColorHeader     = lipgloss.Color("#3B8ED0")
	ColorTextNormal = lipgloss.Color("#FFFFFF")
	ColorTextDim    = lipgloss.Color("#A0A0A0")
	ColorGood       = lipgloss.Color("#2CC985")
	ColorWarn       = lipgloss.Color("#F2A33C")
	ColorCritical   = lipgloss.Color("#E04F5F")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorHeader).
			Bold(true)

	SectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorFrame).
			Padding(0, 1).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextNormal).
			Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			Padding(0, 1)
)

// BandStyle returns the foreground style for a band.
func BandStyle(b metrics.Band) lipgloss.Style {
	switch b {
	case metrics.BandWarn:
		return lipgloss.NewStyle().Foreground(ColorWarn)
	case metrics.BandCritical:
		return lipgloss.NewStyle().Foreground(ColorCritical)
	default:
		return lipgloss.NewStyle().Foreground(ColorGood)
	}
}

// Bar draws a fixed-width usage bar colored by band.
func Bar(pct float64, width int) string {
	if width < 1 {
		return ""
	}
	switch {
	case pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return BandStyle(metrics.ClassifyPercent(pct)).Render(bar)
}
