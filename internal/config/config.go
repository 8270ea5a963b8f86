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

package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/phuonguno98/unopulse/internal/errors"
)

// Config is the resolved application configuration. It is built once at
// startup; later edits to the file require a restart.
type Config struct {
	RefreshIntervalMs int    `mapstructure:"refresh_interval_ms" yaml:"refresh_interval_ms"`
	PingTarget        string `mapstructure:"ping_target" yaml:"ping_target"`
	PingPort          int    `mapstructure:"ping_port" yaml:"ping_port"`
	PingIntervalMs    int    `mapstructure:"ping_interval_ms" yaml:"ping_interval_ms"`
	PingTimeoutMs     int    `mapstructure:"ping_timeout_ms" yaml:"ping_timeout_ms"`
	ShowPerCore       bool   `mapstructure:"show_per_core" yaml:"show_per_core"`
	InboxSize         int    `mapstructure:"inbox_size" yaml:"inbox_size"`
	Renderer          string `mapstructure:"renderer" yaml:"renderer"`
	HTTPListen        string `mapstructure:"http_listen" yaml:"http_listen"`

	// CSV sink
	LoggingEnabled     bool   `mapstructure:"logging_enabled" yaml:"logging_enabled"`
	CSVPath            string `mapstructure:"csv_path" yaml:"csv_path"`
	CSVBufferSize      int    `mapstructure:"csv_buffer_size" yaml:"csv_buffer_size"`
	CSVFlushIntervalMs int    `mapstructure:"csv_flush_interval_ms" yaml:"csv_flush_interval_ms"`

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`

	// Timezone for CSV timestamps (e.g., "Asia/Ho_Chi_Minh", "Local")
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// Default configuration values.
const (
	DefaultRefreshIntervalMs  = 1000
	DefaultPingTarget         = "8.8.8.8"
	DefaultPingPort           = 53
	DefaultPingIntervalMs     = 1000
	DefaultPingTimeoutMs      = 1000
	DefaultInboxSize          = 1
	DefaultRenderer           = RendererAuto
	DefaultCSVBufferSize      = 100
	DefaultCSVFlushIntervalMs = 5000
	DefaultLogLevel           = "info"
	DefaultTimezone           = "Local"
	DefaultMaxOutputFileSize  = 150 * 1024 * 1024 // 150MB
)

// Allowed ranges.
const (
	MinIntervalMs    = 100
	MaxIntervalMs    = 60 * 60 * 1000
	MinPingTimeoutMs = 100
	MaxPingTimeoutMs = 10_000
	MaxInboxSize     = 64
)

// Renderer modes.
const (
	RendererAuto  = "auto"
	RendererTUI   = "tui"
	RendererPlain = "plain"
	RendererNone  = "none"
)

// Default returns a configuration populated with defaults only.
func Default() *Config {
	return &Config{
		RefreshIntervalMs:  DefaultRefreshIntervalMs,
		PingTarget:         DefaultPingTarget,
		PingPort:           DefaultPingPort,
		PingIntervalMs:     DefaultPingIntervalMs,
		PingTimeoutMs:      DefaultPingTimeoutMs,
		ShowPerCore:        true,
		InboxSize:          DefaultInboxSize,
		Renderer:           DefaultRenderer,
		CSVBufferSize:      DefaultCSVBufferSize,
		CSVFlushIntervalMs: DefaultCSVFlushIntervalMs,
		LogLevel:           DefaultLogLevel,
		Timezone:           DefaultTimezone,
	}
}

// RefreshInterval returns the sampler tick interval.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMs) * time.Millisecond
}

// PingInterval returns the latency probe schedule.
func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.PingIntervalMs) * time.Millisecond
}

// PingTimeout returns the per-attempt connection timeout.
func (c *Config) PingTimeout() time.Duration {
	return time.Duration(c.PingTimeoutMs) * time.Millisecond
}

// CSVFlushInterval returns the maximum time rows stay buffered.
func (c *Config) CSVFlushInterval() time.Duration {
	return time.Duration(c.CSVFlushIntervalMs) * time.Millisecond
}

// PingAddress returns the probe target as host:port.
func (c *Config) PingAddress() string {
	return net.JoinHostPort(c.PingTarget, fmt.Sprint(c.PingPort))
}

// GetDefaultOutputPath generates default output path: <hostname>_<timestamp>.csv
func GetDefaultOutputPath() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	// Clean hostname (remove invalid filename characters)
	hostname = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, hostname)

	filename := fmt.Sprintf("%s_%s.csv", hostname, time.Now().Format("20060102150405"))

	exePath, err := os.Executable()
	if err != nil {
		return filename
	}
	return filepath.Join(filepath.Dir(exePath), filename)
}

var hostnamePattern = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*\.?$`)

// Validate checks every value against its allowed range. It never adjusts a
// value; the first violation is returned as a CONFIG error.
func (c *Config) Validate() error {
	if err := checkInterval("refresh_interval_ms", c.RefreshIntervalMs); err != nil {
		return err
	}
	if err := checkInterval("ping_interval_ms", c.PingIntervalMs); err != nil {
		return err
	}

	if c.PingTimeoutMs < MinPingTimeoutMs || c.PingTimeoutMs > MaxPingTimeoutMs {
		return invalid("ping_timeout_ms", c.PingTimeoutMs,
			fmt.Sprintf("Use a timeout between %d and %d milliseconds", MinPingTimeoutMs, MaxPingTimeoutMs))
	}

	if err := validateTarget(c.PingTarget); err != nil {
		return err
	}

	if c.PingPort < 1 || c.PingPort > 65535 {
		return invalid("ping_port", c.PingPort, "Use a TCP port between 1 and 65535")
	}

	if c.InboxSize < 1 || c.InboxSize > MaxInboxSize {
		return invalid("inbox_size", c.InboxSize, fmt.Sprintf("Use a value between 1 and %d", MaxInboxSize))
	}

	switch c.Renderer {
	case RendererAuto, RendererTUI, RendererPlain, RendererNone:
	default:
		return invalid("renderer", c.Renderer, "Use one of: auto, tui, plain, none")
	}

	if c.HTTPListen != "" {
		if _, _, err := net.SplitHostPort(c.HTTPListen); err != nil {
			return errors.Wrap(err, errors.ErrConfig,
				fmt.Sprintf("Invalid http_listen %q", c.HTTPListen),
				"Use host:port, e.g. 127.0.0.1:8080, or leave empty to disable")
		}
	}

	if c.CSVBufferSize < 1 {
		return invalid("csv_buffer_size", c.CSVBufferSize, "Buffer at least 1 row")
	}
	if c.CSVFlushIntervalMs < MinIntervalMs {
		return invalid("csv_flush_interval_ms", c.CSVFlushIntervalMs,
			fmt.Sprintf("Flush at most every %d milliseconds", MinIntervalMs))
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return invalid("log_level", c.LogLevel, "Use debug, info, warn, or error")
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return errors.Wrap(err, errors.ErrConfig,
				fmt.Sprintf("Invalid timezone %q", c.Timezone),
				"Use an IANA name such as Asia/Ho_Chi_Minh, or Local")
		}
	}

	if c.LoggingEnabled {
		if c.CSVPath == "" {
			return errors.New(errors.ErrConfig, "csv_path cannot be empty when logging is enabled",
				"Set csv_path or omit it to use the default file name")
		}
		if err := ensureOutputDir(c.CSVPath); err != nil {
			return errors.Wrap(err, errors.ErrConfig, "CSV output directory check failed",
				"Create the directory or choose another csv_path")
		}
	}

	return nil
}

func checkInterval(key string, ms int) error {
	if ms < MinIntervalMs || ms > MaxIntervalMs {
		return invalid(key, ms,
			fmt.Sprintf("Use a value between %d and %d milliseconds", MinIntervalMs, MaxIntervalMs))
	}
	return nil
}

func validateTarget(target string) error {
	if target == "" {
		return errors.New(errors.ErrConfig, "ping_target cannot be empty", "Set a host name or IP, e.g. 8.8.8.8")
	}
	if net.ParseIP(target) != nil {
		return nil
	}
	if len(target) > 253 || !hostnamePattern.MatchString(target) {
		return invalid("ping_target", target, "Use a host name or IP address without scheme or port")
	}
	return nil
}

func invalid(key string, value any, suggestion string) error {
	return errors.New(errors.ErrConfig, fmt.Sprintf("Invalid %s: %v", key, value), suggestion)
}

// ensureOutputDir checks that the parent directory of path exists.
func ensureOutputDir(path string) error {
	dir := filepath.Dir(path)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("output path parent is not a directory: %s", dir)
	}

	return nil
}

// String returns a human-readable representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Interval=%v, Ping=%s every %v (timeout %v), Logging=%t, CSV=%s, Renderer=%s, HTTP=%q, Timezone=%s}",
		c.RefreshInterval(), c.PingAddress(), c.PingInterval(), c.PingTimeout(),
		c.LoggingEnabled, c.CSVPath, c.Renderer, c.HTTPListen, c.Timezone)
}
