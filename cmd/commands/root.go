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
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phuonguno98/unopulse/internal/config"
	"github.com/phuonguno98/unopulse/internal/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	osWindows = "windows"
	osLinux   = "linux"
	osDarwin  = "darwin"
)

var (
	// Global persistent flags (shared by subcommands)
	configPath string
	logLevel   string
	logFile    string
	timezone   string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "unopulse",
	Short: "UnoPulse - Live host telemetry in the terminal",
	Long: `UnoPulse samples CPU, memory, storage and network state at a fixed
interval, probes network latency in the background, and shows the results
as a live terminal dashboard. Samples can also be appended to a CSV file
and streamed over HTTP.

Use 'unopulse run' to begin monitoring.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// No RunE field, so it prints help by default
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file (default: ./"+config.ConfigFileName+" or ~/"+config.GlobalConfigDir+"/"+config.GlobalConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel,
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (empty = stderr)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", config.DefaultTimezone,
		"Timezone for CSV timestamps (e.g., 'Asia/Ho_Chi_Minh', 'Local')")
}

// addConfigFlags registers flags that override configuration keys.
// Flag names are the keys with dashes instead of underscores.
func addConfigFlags(fs *pflag.FlagSet) {
	fs.Int("refresh-interval-ms", config.DefaultRefreshIntervalMs, "Sampling interval in milliseconds")
	fs.String("ping-target", config.DefaultPingTarget, "Latency probe host or IP")
	fs.Int("ping-port", config.DefaultPingPort, "Latency probe TCP port")
	fs.Int("ping-interval-ms", config.DefaultPingIntervalMs, "Latency probe interval in milliseconds")
	fs.Int("ping-timeout-ms", config.DefaultPingTimeoutMs, "Latency probe connect timeout in milliseconds")
	fs.Bool("show-per-core", true, "Show per-core CPU usage")
	fs.Int("inbox-size", config.DefaultInboxSize, "Snapshots buffered per consumer before the oldest is dropped")
	fs.String("renderer", config.DefaultRenderer, "Renderer: auto, tui, plain, none")
	fs.String("http-listen", "", "Serve the live API on host:port (empty = disabled)")
	fs.Bool("logging-enabled", false, "Append every sample to a CSV file")
	fs.StringP("csv-path", "o", "", "CSV file path (default: <hostname>_<timestamp>.csv)")
	fs.Int("csv-buffer-size", config.DefaultCSVBufferSize, "Rows buffered before writing to disk")
	fs.Int("csv-flush-interval-ms", config.DefaultCSVFlushIntervalMs, "Maximum time rows stay buffered in milliseconds")
}

// loadConfig resolves configuration for cmd from file, environment and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := config.Find(configPath)
	if err != nil {
		return nil, err
	}
	return config.Load(path, cmd.Flags())
}

// InitLogger returns a slog.Logger writing text to w, or JSON to fileStr
// when it is set. It is shared by all commands to ensure consistent logging format.
func InitLogger(levelStr, fileStr string, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if fileStr != "" {
		f, err := os.OpenFile(fileStr, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrConfig,
				fmt.Sprintf("Failed to open log file %s", fileStr),
				"Check the directory exists and is writable, or omit --log-file")
		}
		handler = slog.NewJSONHandler(f, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler), nil
}
