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

package exporter

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phuonguno98/unopulse/internal/config"
	"github.com/phuonguno98/unopulse/internal/errors"
	"github.com/phuonguno98/unopulse/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, name string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.LoggingEnabled = true
	cfg.CSVPath = filepath.Join(t.TempDir(), name)
	cfg.Timezone = "UTC"
	cfg.CSVBufferSize = 10
	cfg.CSVFlushIntervalMs = 100
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func fullSnapshot(ts time.Time, cores int) *metrics.Snapshot {
	perCore := make([]metrics.Gauge, cores)
	for i := range perCore {
		perCore[i] = metrics.Available(float64(10 * (i + 1)))
	}
	return &metrics.Snapshot{
		Timestamp: ts,
		CPU:       metrics.CPUStats{Available: true, TotalPercent: 45.5, PerCore: perCore},
		Memory: metrics.MemoryStats{
			RAM:  metrics.Usage{Available: true, Used: 512 * bytesPerMB, Total: 2048 * bytesPerMB},
			Swap: metrics.Usage{Available: true, Used: 0, Total: 1024 * bytesPerMB},
		},
		Network: metrics.NetworkStats{
			Throughput: metrics.Throughput{Available: true, UpBps: 1500, DownBps: 3000},
			Latency:    metrics.Latency{State: metrics.LatencyReachable, RTT: 12500 * time.Microsecond},
		},
	}
}

func TestHeader(t *testing.T) {
	assert.Equal(t, []string{
		"timestamp", "cpu_total_pct",
		"cpu_core_0_pct", "cpu_core_1_pct",
		"ram_used_mb", "ram_total_mb", "swap_used_mb", "swap_total_mb",
		"net_up_bps", "net_down_bps", "ping_ms",
	}, Header(2))
}

func TestCSVExporter_Export(t *testing.T) {
	cfg := testConfig(t, "export_test.csv")
	exporter, err := NewCSVExporter(cfg, 2, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "csv", exporter.Name())

	now := time.Date(2023, 10, 26, 12, 0, 0, 0, time.UTC)
	require.NoError(t, exporter.Consume(context.Background(), fullSnapshot(now, 2)))
	require.NoError(t, exporter.Close())

	records := readCSV(t, cfg.CSVPath)
	require.Len(t, records, 2, "header + 1 row")
	assert.Equal(t, Header(2), records[0])
	assert.Equal(t, []string{
		"2023-10-26 12:00:00",
		"45.50",
		"10.00", "20.00",
		"512.00", "2048.00",
		"0.00", "1024.00",
		"1500.00", "3000.00",
		"12.50",
	}, records[1])
}

func TestCSVExporter_FixedWidthAcrossFailures(t *testing.T) {
	const cores = 4
	cfg := testConfig(t, "fixed.csv")
	exporter, err := NewCSVExporter(cfg, cores, quietLogger())
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		s := fullSnapshot(start.Add(time.Duration(i)*time.Second), cores)
		switch i % 5 {
		case 1:
			s.Network.Throughput = metrics.Throughput{}
		case 2:
			s.CPU = metrics.CPUStats{}
		case 3:
			s.CPU.PerCore = s.CPU.PerCore[:2]
			s.Network.Latency = metrics.Latency{State: metrics.LatencyUnreachable}
		case 4:
			s.Memory = metrics.MemoryStats{}
			s.Network.Latency = metrics.Latency{}
		}
		require.NoError(t, exporter.Consume(context.Background(), s))
	}
	require.NoError(t, exporter.Close())

	records := readCSV(t, cfg.CSVPath)
	require.Len(t, records, 51)
	width := len(Header(cores))
	for i, rec := range records {
		assert.Len(t, rec, width, "record %d", i)
	}

	// Unavailable network in tick 1 is written as empty cells.
	assert.Equal(t, "", records[2][width-3])
	assert.Equal(t, "", records[2][width-2])
	// Tick 2 has no CPU reading at all.
	assert.Equal(t, "", records[3][1])
	// Tick 3 is unreachable and only reported two cores.
	assert.Equal(t, unreachableValue, records[4][width-1])
	assert.Equal(t, "", records[4][5])
	// Tick 4 has no probe result yet and no memory reading.
	assert.Equal(t, "", records[5][width-1])
	assert.Equal(t, "", records[5][6])
}

func TestCSVExporter_FlushesOnBufferSize(t *testing.T) {
	cfg := testConfig(t, "buffered.csv")
	cfg.CSVBufferSize = 3
	cfg.CSVFlushIntervalMs = 60_000
	exporter, err := NewCSVExporter(cfg, 1, quietLogger())
	require.NoError(t, err)
	defer exporter.Close()

	now := time.Now()
	for i := 0; i < 2; i++ {
		require.NoError(t, exporter.Consume(context.Background(), fullSnapshot(now, 1)))
	}
	assert.Len(t, readCSV(t, cfg.CSVPath), 1, "rows stay buffered below the threshold")

	require.NoError(t, exporter.Consume(context.Background(), fullSnapshot(now, 1)))
	assert.Len(t, readCSV(t, cfg.CSVPath), 4)
}

func TestCSVExporter_FlushesOnInterval(t *testing.T) {
	cfg := testConfig(t, "interval.csv")
	cfg.CSVBufferSize = 1000
	exporter, err := NewCSVExporter(cfg, 1, quietLogger())
	require.NoError(t, err)
	defer exporter.Close()

	exporter.flushInterval = 0
	require.NoError(t, exporter.Consume(context.Background(), fullSnapshot(time.Now(), 1)))
	assert.Len(t, readCSV(t, cfg.CSVPath), 2)
}

func TestCSVExporter_AppendsWithoutSecondHeader(t *testing.T) {
	cfg := testConfig(t, "append.csv")

	for run := 0; run < 2; run++ {
		exporter, err := NewCSVExporter(cfg, 2, quietLogger())
		require.NoError(t, err)
		require.NoError(t, exporter.Consume(context.Background(), fullSnapshot(time.Now(), 2)))
		require.NoError(t, exporter.Close())
	}

	records := readCSV(t, cfg.CSVPath)
	require.Len(t, records, 3)
	assert.Equal(t, Header(2), records[0])
	assert.NotEqual(t, Header(2), records[2])
}

func TestCSVExporter_HeaderMismatchStartsNewFile(t *testing.T) {
	cfg := testConfig(t, "mismatch.csv")

	first, err := NewCSVExporter(cfg, 2, quietLogger())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewCSVExporter(cfg, 4, quietLogger())
	require.NoError(t, err)
	require.NoError(t, second.Consume(context.Background(), fullSnapshot(time.Now(), 4)))
	require.NoError(t, second.Close())

	rotated := filepath.Join(filepath.Dir(cfg.CSVPath), "mismatch_1.csv")
	assert.Equal(t, rotated, second.Path())
	assert.Equal(t, [][]string{Header(2)}, readCSV(t, cfg.CSVPath))
	records := readCSV(t, rotated)
	require.Len(t, records, 2)
	assert.Equal(t, Header(4), records[0])
}

func TestCSVExporter_SizeRotation(t *testing.T) {
	cfg := testConfig(t, "rotate.csv")
	cfg.CSVBufferSize = 1
	exporter, err := NewCSVExporter(cfg, 1, quietLogger())
	require.NoError(t, err)
	exporter.maxFileSize = 200

	for i := 0; i < 10; i++ {
		require.NoError(t, exporter.Consume(context.Background(), fullSnapshot(time.Now(), 1)))
	}
	require.NoError(t, exporter.Close())

	rotated := filepath.Join(filepath.Dir(cfg.CSVPath), "rotate_1.csv")
	records := readCSV(t, rotated)
	require.NotEmpty(t, records)
	assert.Equal(t, Header(1), records[0])
}

func TestCSVExporter_RotationFailureStopsWriting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, os.Mkdir(dir, 0o755))

	cfg := testConfig(t, "gone.csv")
	cfg.CSVPath = filepath.Join(dir, "gone.csv")
	cfg.CSVBufferSize = 1
	exporter, err := NewCSVExporter(cfg, 1, quietLogger())
	require.NoError(t, err)
	exporter.maxFileSize = 200

	require.NoError(t, os.RemoveAll(dir))

	var consumeErr error
	for i := 0; i < 20 && consumeErr == nil; i++ {
		consumeErr = exporter.Consume(context.Background(), fullSnapshot(time.Now(), 1))
	}
	require.Error(t, consumeErr)
	assert.True(t, errors.IsCode(consumeErr, errors.ErrSink))

	assert.Error(t, exporter.Consume(context.Background(), fullSnapshot(time.Now(), 1)))
	assert.NoError(t, exporter.Close())
}

func TestCSVExporter_HeaderWriteFailureReleasesFile(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}

	exporter, err := NewCSVExporter(testConfig(t, "full.csv"), 1, quietLogger())
	require.NoError(t, err)
	require.NoError(t, exporter.Close())

	require.Error(t, exporter.open("/dev/full", os.O_APPEND))
	assert.Nil(t, exporter.file)
	assert.NoError(t, exporter.Close())
}

func TestCSVExporter_ConsumeAfterClose(t *testing.T) {
	exporter, err := NewCSVExporter(testConfig(t, "closed.csv"), 1, quietLogger())
	require.NoError(t, err)
	require.NoError(t, exporter.Close())
	require.NoError(t, exporter.Close())
	assert.Error(t, exporter.Consume(context.Background(), fullSnapshot(time.Now(), 1)))
}

func TestNewCSVExporter_Errors(t *testing.T) {
	cfg := testConfig(t, "bad.csv")

	_, err := NewCSVExporter(cfg, 0, quietLogger())
	assert.Error(t, err)

	cfg.CSVPath = filepath.Join(t.TempDir(), "missing", "dir", "out.csv")
	_, err = NewCSVExporter(cfg, 1, quietLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrSink))

	cfg = testConfig(t, "tz.csv")
	cfg.Timezone = "Not/AZone"
	_, err = NewCSVExporter(cfg, 1, quietLogger())
	assert.Error(t, err)
}
