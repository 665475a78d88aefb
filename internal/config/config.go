// Package config loads KiteDB's constructor-level settings from an
// optional YAML file, overlaying it onto a set of sensible defaults.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the settings an embedder may override, each with a
// sensible default so a zero-value Config is never required.
type Config struct {
	PageSize           uint32 `yaml:"page_size"`
	BufferPoolCapacity int    `yaml:"buffer_pool_capacity"`
	LogLevel           string `yaml:"log_level"`
	CompactionCron     string `yaml:"compaction_cron"`
}

// Defaults returns the engine's recommended out-of-the-box settings.
func Defaults() Config {
	return Config{
		PageSize:           4096,
		BufferPoolCapacity: 100,
		LogLevel:           "info",
		CompactionCron:     "",
	}
}

// Load reads a YAML config file from path, overlaying it onto
// Defaults(). An empty path, or a path that does not exist, returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	return cfg, nil
}
