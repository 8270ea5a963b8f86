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

package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/phuonguno98/unopulse/internal/collector"
	"github.com/phuonguno98/unopulse/internal/dispatch"
	"github.com/phuonguno98/unopulse/internal/exporter"
	"github.com/phuonguno98/unopulse/internal/probe"
	"github.com/phuonguno98/unopulse/internal/render"
	"github.com/phuonguno98/unopulse/internal/sampler"
	"github.com/phuonguno98/unopulse/internal/server"
	"github.com/phuonguno98/unopulse/pkg/version"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long consumers get to drain and close.
const shutdownTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start live monitoring",
	Long: `Start sampling host telemetry and show it in the selected renderer.
Snapshots can also be appended to CSV and served over HTTP.

Examples:
  # Dashboard in the terminal with default settings
  unopulse run

  # Faster refresh, probe a custom target and log to CSV
  unopulse run --refresh-interval-ms 500 --ping-target 1.1.1.1 --ping-port 443 --logging-enabled

  # Headless: CSV plus live API only
  unopulse run --renderer none --logging-enabled -o metrics.csv --http-listen 127.0.0.1:9090`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addConfigFlags(runCmd.Flags())
}

// runMonitor is the main monitoring entry point.
func runMonitor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	mode := render.Select(cfg.Renderer, render.IsTerminal(os.Stdout))

	// The dashboard owns the terminal; unrouted logs would corrupt it.
	var logOut io.Writer = os.Stderr
	if mode == render.ModeTUI {
		logOut = io.Discard
	}
	logger, err := InitLogger(cfg.LogLevel, cfg.LogFile, logOut)
	if err != nil {
		return err
	}

	session := uuid.NewString()
	logger = logger.With("session", session)

	logger.Info("Starting UnoPulse",
		"version", version.Info(),
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
	)
	logger.Info("Configuration loaded", "config", cfg.String(), "renderer", mode)

	checkPlatformCapabilities(logger)

	cores := collector.DetectCores()
	logger.Info("Detected logical cores", "cores", cores)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, initiating shutdown", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	prober, err := probe.New(probe.Options{
		Address:  cfg.PingAddress(),
		Interval: cfg.PingInterval(),
		Timeout:  cfg.PingTimeout(),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	d := dispatch.New(dispatch.Options{InboxSize: cfg.InboxSize, Logger: logger})
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer closeCancel()
		if err := d.Close(closeCtx); err != nil {
			logger.Warn("Consumers did not stop in time", "error", err)
		}
		for _, st := range d.Stats() {
			logger.Info("Consumer summary",
				"consumer", st.Name,
				"delivered", st.Delivered,
				"dropped", st.Dropped,
				"failed", st.Failed,
			)
		}
	}()

	if cfg.LoggingEnabled {
		csvExporter, err := exporter.NewCSVExporter(cfg, cores, logger)
		if err != nil {
			logger.Error("Failed to create CSV exporter", "error", err)
			return err
		}
		if err := d.Register(csvExporter); err != nil {
			return err
		}
		logger.Info("CSV logging enabled", "output", csvExporter.Path())
	}

	var tui *render.TUI
	switch mode {
	case render.ModeTUI:
		tui = render.NewTUI(render.TUIOptions{
			ShowPerCore: cfg.ShowPerCore,
			PingTarget:  cfg.PingTarget,
			OnQuit:      cancel,
		})
		if err := d.Register(tui); err != nil {
			return err
		}
	case render.ModePlain:
		if err := d.Register(render.NewPlain(os.Stdout, cfg.ShowPerCore)); err != nil {
			return err
		}
	}

	var wg sync.WaitGroup

	if cfg.HTTPListen != "" {
		srv := server.New(server.Options{
			Listen:    cfg.HTTPListen,
			InboxSize: cfg.InboxSize,
			Session:   session,
			Stats:     d.Stats,
			Logger:    logger,
		})
		if err := d.Register(srv); err != nil {
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(ctx); err != nil {
				logger.Error("HTTP server stopped with error", "error", err)
				cancel()
			}
		}()
	}

	s, err := sampler.New(sampler.Options{
		Interval:  cfg.RefreshInterval(),
		Cores:     cores,
		CPU:       collector.NewCPUCollector(cores),
		Memory:    collector.NewMemoryCollector(),
		Storage:   collector.NewStorageCollector(),
		Network:   collector.NewNetworkCollector(),
		System:    collector.NewSystemCollector(),
		Latency:   prober.Slot(),
		Publisher: d,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := prober.Run(ctx); err != nil {
			logger.Error("Latency probe stopped with error", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.Run(ctx); err != nil {
			logger.Error("Sampler stopped with error", "error", err)
		}
	}()

	logger.Info("UnoPulse is running", "interval", cfg.RefreshInterval(), "ping", cfg.PingAddress())

	if tui != nil {
		// The dashboard needs the main goroutine's terminal; it returns on quit or cancel.
		if err := tui.Run(ctx); err != nil {
			logger.Error("Dashboard stopped with error", "error", err)
			cancel()
			wg.Wait()
			return err
		}
		cancel()
	} else {
		<-ctx.Done()
	}

	logger.Info("Shutting down...")

	// Stop producers before draining consumers
	wg.Wait()

	logger.Info("Shutdown complete")
	return nil
}

// checkPlatformCapabilities logs platform-specific capability warnings.
func checkPlatformCapabilities(logger *slog.Logger) {
	switch runtime.GOOS {
	case osWindows:
		logger.Info("Running on Windows: loopback pseudo-interfaces are excluded from throughput")
	case osDarwin:
		logger.Info("Running on macOS: Disk metrics may require Full Disk Access or sudo")
	case osLinux:
		logger.Info("Running on Linux: All metrics available")
	default:
		logger.Warn("Running on unsupported platform, some metrics may not work", "os", runtime.GOOS)
	}
}

