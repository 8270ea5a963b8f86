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
	"os"
	"path/filepath"
	"strings"

	"github.com/phuonguno98/unopulse/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is looked up in the working directory.
	ConfigFileName = "unopulse.yaml"
	// GlobalConfigDir is relative to the user's home directory.
	GlobalConfigDir = ".config/unopulse"
	// GlobalConfigFile is the file name inside GlobalConfigDir.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. UNOPULSE_PING_TARGET.
	EnvPrefix = "UNOPULSE"
)

// Find locates the config file:
//  1. explicit path (from --config)
//  2. unopulse.yaml in the working directory
//  3. ~/.config/unopulse/config.yaml
//
// It returns "" when no file exists and none was requested.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.Wrap(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check the path is correct and readable")
		}
		return explicit, nil
	}

	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// Load resolves configuration with precedence flags > environment > file > defaults,
// then validates it. flags may be nil; only flags the user actually set override
// lower layers.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfig,
				"Failed to read config file "+path,
				"Check the file exists and is valid YAML")
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfig, "Failed to bind command-line flags", "")
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfig,
			"Invalid config format",
			"Check value types in "+displayPath(path))
	}

	if cfg.LoggingEnabled && cfg.CSVPath == "" {
		cfg.CSVPath = GetDefaultOutputPath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers every key so environment overrides are honored by Unmarshal.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("refresh_interval_ms", d.RefreshIntervalMs)
	v.SetDefault("ping_target", d.PingTarget)
	v.SetDefault("ping_port", d.PingPort)
	v.SetDefault("ping_interval_ms", d.PingIntervalMs)
	v.SetDefault("ping_timeout_ms", d.PingTimeoutMs)
	v.SetDefault("show_per_core", d.ShowPerCore)
	v.SetDefault("inbox_size", d.InboxSize)
	v.SetDefault("renderer", d.Renderer)
	v.SetDefault("http_listen", d.HTTPListen)
	v.SetDefault("logging_enabled", d.LoggingEnabled)
	v.SetDefault("csv_path", d.CSVPath)
	v.SetDefault("csv_buffer_size", d.CSVBufferSize)
	v.SetDefault("csv_flush_interval_ms", d.CSVFlushIntervalMs)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("timezone", d.Timezone)
}

// bindFlags maps kebab-case flags onto snake_case keys for the flags that were changed.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || !f.Changed {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !isKnownKey(key) {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	return bindErr
}

func isKnownKey(key string) bool {
	switch key {
	case "refresh_interval_ms", "ping_target", "ping_port", "ping_interval_ms", "ping_timeout_ms",
		"show_per_core", "inbox_size", "renderer", "http_listen", "logging_enabled", "csv_path",
		"csv_buffer_size", "csv_flush_interval_ms", "log_level", "log_file", "timezone":
		return true
	}
	return false
}

func displayPath(path string) string {
	if path == "" {
		return "the environment or flags"
	}
	return path
}
