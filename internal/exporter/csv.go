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

// Package exporter appends snapshots to a CSV file with a fixed column set.
package exporter

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/phuonguno98/unopulse/internal/config"
	"github.com/phuonguno98/unopulse/internal/errors"
	"github.com/phuonguno98/unopulse/pkg/metrics"
)

const (
	bytesPerMB       = 1024 * 1024
	unreachableValue = "unreachable"
	timestampLayout  = "2006-01-02 15:04:05"
)

// CSVExporter writes one row per snapshot. The per-core column count is
// fixed when the exporter is created, so every row has the same width.
type CSVExporter struct {
	mu sync.Mutex

	file      *os.File
	csvWriter *csv.Writer
	bufWriter *bufio.Writer
	logger    *slog.Logger

	header        []string
	cores         int
	bufferSize    int
	flushInterval time.Duration
	location      *time.Location

	pending     int       // Rows written since the last flush
	lastFlush   time.Time // Time of the last flush
	currentSize int64     // Current file size in bytes
	maxFileSize int64
	basePath    string // Base output path
	path        string // Path currently written to
	fileIndex   int    // Index for file rotation
}

// NewCSVExporter opens cfg.CSVPath for appending. An existing file whose
// header does not match the current column set is left untouched and a new
// numbered file is started instead.
func NewCSVExporter(cfg *config.Config, cores int, logger *slog.Logger) (*CSVExporter, error) {
	if cores < 1 {
		return nil, fmt.Errorf("core count must be at least 1, got %d", cores)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", cfg.Timezone, err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	e := &CSVExporter{
		logger:        logger,
		header:        Header(cores),
		cores:         cores,
		bufferSize:    cfg.CSVBufferSize,
		flushInterval: cfg.CSVFlushInterval(),
		location:      loc,
		maxFileSize:   config.DefaultMaxOutputFileSize,
		basePath:      cfg.CSVPath,
		lastFlush:     time.Now(),
	}
	if e.bufferSize < 1 {
		e.bufferSize = 1
	}

	path := cfg.CSVPath
	matches, err := headerMatches(path, e.header)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrSink,
			fmt.Sprintf("Cannot read existing CSV file %s", path),
			"Check file permissions or choose another csv_path")
	}
	if !matches {
		path = e.nextPath()
		logger.Warn("Existing CSV file has a different column set, starting a new file",
			"existing", cfg.CSVPath,
			"new", path)
	}

	if err := e.open(path, os.O_APPEND); err != nil {
		return nil, errors.Wrap(err, errors.ErrSink,
			fmt.Sprintf("Cannot open CSV file %s", path),
			"Check that the directory is writable or choose another csv_path")
	}

	return e, nil
}

// Header returns the column names for the given core count.
func Header(cores int) []string {
	header := make([]string, 0, cores+9)
	header = append(header, "timestamp", "cpu_total_pct")
	for i := 0; i < cores; i++ {
		header = append(header, fmt.Sprintf("cpu_core_%d_pct", i))
	}
	return append(header,
		"ram_used_mb", "ram_total_mb",
		"swap_used_mb", "swap_total_mb",
		"net_up_bps", "net_down_bps",
		"ping_ms")
}

// Name implements dispatch.Consumer.
func (e *CSVExporter) Name() string {
	return "csv"
}

// Path returns the file currently being written.
func (e *CSVExporter) Path() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

// Consume appends one row. Rows are flushed when the buffer size is reached
// or the flush interval has elapsed.
func (e *CSVExporter) Consume(_ context.Context, snapshot *metrics.Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file == nil {
		return fmt.Errorf("CSV exporter has no open file")
	}

	// Check for rotation before writing to avoid going too far over the limit
	if e.currentSize >= e.maxFileSize {
		if err := e.rotateFile(); err != nil {
			e.logger.Error("Failed to rotate file", "error", err)
			return errors.Wrap(err, errors.ErrSink, "Cannot continue CSV logging", "Check that the csv_path directory still exists and is writable")
		}
	}

	row := e.buildRow(snapshot)
	if err := e.csvWriter.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	e.currentSize += rowSize(row)
	e.pending++

	if e.pending >= e.bufferSize || time.Since(e.lastFlush) >= e.flushInterval {
		if err := e.flush(); err != nil {
			return err
		}
	}
	return nil
}

// buildRow builds a CSV row from a snapshot. Unavailable values are empty.
func (e *CSVExporter) buildRow(s *metrics.Snapshot) []string {
	row := make([]string, 0, len(e.header))
	row = append(row, s.Timestamp.In(e.location).Format(timestampLayout))

	if s.CPU.Available {
		row = append(row, formatFloat(s.CPU.TotalPercent))
	} else {
		row = append(row, "")
	}
	for i := 0; i < e.cores; i++ {
		if s.CPU.Available && i < len(s.CPU.PerCore) && s.CPU.PerCore[i].Valid {
			row = append(row, formatFloat(s.CPU.PerCore[i].Value))
		} else {
			row = append(row, "")
		}
	}

	row = append(row, usageColumns(s.Memory.RAM)...)
	row = append(row, usageColumns(s.Memory.Swap)...)

	if tp := s.Network.Throughput; tp.Available {
		row = append(row, formatFloat(tp.UpBps), formatFloat(tp.DownBps))
	} else {
		row = append(row, "", "")
	}

	switch lat := s.Network.Latency; lat.State {
	case metrics.LatencyReachable:
		row = append(row, formatFloat(lat.Milliseconds()))
	case metrics.LatencyUnreachable:
		row = append(row, unreachableValue)
	default:
		row = append(row, "")
	}

	return row
}

func usageColumns(u metrics.Usage) []string {
	if !u.Available {
		return []string{"", ""}
	}
	return []string{
		formatFloat(float64(u.Used) / bytesPerMB),
		formatFloat(float64(u.Total) / bytesPerMB),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func rowSize(row []string) int64 {
	n := 1 // newline
	for _, cell := range row {
		n += len(cell) + 1 // +1 for comma
	}
	return int64(n)
}

// flush flushes the buffered data to disk.
func (e *CSVExporter) flush() error {
	e.csvWriter.Flush()
	if err := e.csvWriter.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}

	if err := e.bufWriter.Flush(); err != nil {
		return fmt.Errorf("buffer writer error: %w", err)
	}

	e.logger.Debug("Flushed to disk", "records", e.pending)
	e.pending = 0
	e.lastFlush = time.Now()
	return nil
}

// Close flushes buffered rows and closes the file.
func (e *CSVExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file == nil {
		return nil
	}

	flushErr := e.flush()
	if flushErr != nil {
		e.logger.Error("Final flush failed", "error", flushErr)
	}

	err := e.file.Close()
	e.file = nil
	if err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	e.logger.Info("CSV exporter closed", "path", e.path)
	return flushErr
}

// open opens path and writes the header if the file is empty.
func (e *CSVExporter) open(path string, mode int) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|mode, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to stat file: %w", err)
	}

	e.file = file
	e.bufWriter = bufio.NewWriterSize(file, 8192) // 8KB buffer
	e.csvWriter = csv.NewWriter(e.bufWriter)
	e.currentSize = stat.Size()
	e.path = path

	if e.currentSize == 0 {
		if err := e.writeHeader(); err != nil {
			_ = file.Close()
			e.file = nil
			return err
		}
	}

	e.logger.Info("CSV exporter writing", "path", path, "columns", len(e.header))
	return nil
}

func (e *CSVExporter) writeHeader() error {
	if err := e.csvWriter.Write(e.header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	e.currentSize += rowSize(e.header)
	return e.flush()
}

// rotateFile continues in the next free numbered file.
func (e *CSVExporter) rotateFile() error {
	e.logger.Info("Rotating output file", "current_size", e.currentSize)

	if err := e.flush(); err != nil {
		return fmt.Errorf("flush before rotate failed: %w", err)
	}
	err := e.file.Close()
	e.file = nil
	if err != nil {
		return fmt.Errorf("close before rotate failed: %w", err)
	}

	newPath := e.nextPath()
	if err := e.open(newPath, os.O_TRUNC); err != nil {
		return fmt.Errorf("failed to open new rotated file: %w", err)
	}

	e.logger.Info("File rotated successfully", "new_path", newPath)
	return nil
}

// nextPath returns base_N.ext for the first N that does not exist yet.
func (e *CSVExporter) nextPath() string {
	ext := filepath.Ext(e.basePath)
	base := strings.TrimSuffix(e.basePath, ext)

	for {
		e.fileIndex++
		candidate := fmt.Sprintf("%s_%d%s", base, e.fileIndex, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// headerMatches reports whether path is missing, empty, or starts with want.
func headerMatches(path string, want []string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	defer f.Close()

	got, err := csv.NewReader(f).Read()
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		// Not parseable as CSV; treat as a different schema.
		return false, nil
	}
	return slices.Equal(got, want), nil
}
