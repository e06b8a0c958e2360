// Package cliconfig loads the optional YAML configuration file shared
// by cmd/xmodem-send and cmd/xmodem-recv, in the style of samoyed's
// deviceid.go (which reads tocalls.yaml via gopkg.in/yaml.v3 with a
// fixed search-path list) — simplified here to a single path the user
// names explicitly with -config-file, since there is no equivalent of
// direwolf's multi-directory data file search for a per-run CLI config.
package cliconfig

import (
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	xmodem "github.com/kvexar/goxmodem"
)

// Config holds the settings either command-line flags or a YAML config
// file can set; flags always take precedence when both are given.
type Config struct {
	Device   string `yaml:"device"`
	Baud     int    `yaml:"baud"`
	LogLevel string `yaml:"log_level"`
}

// Load reads path as YAML if non-empty, returning a zero Config
// otherwise. A missing path is not an error, matching how flags alone
// are sufficient for a single-shot transfer.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cliconfig: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cliconfig: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyOverrides lets command-line flags win over file-sourced values
// when the flag was actually set to something non-zero.
func (c *Config) ApplyOverrides(device string, baud int) {
	if device != "" {
		c.Device = device
	}
	if baud != 0 {
		c.Baud = baud
	}
}

// Logger builds a charmbracelet/log logger at the configured level,
// defaulting to warn (quiet unless something's wrong), matching the
// engine's own default in the xmodem package.
func (c *Config) Logger() xmodem.Logger {
	level := charmlog.WarnLevel
	switch c.LogLevel {
	case "debug":
		level = charmlog.DebugLevel
	case "info":
		level = charmlog.InfoLevel
	case "error":
		level = charmlog.ErrorLevel
	}
	return charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
	})
}
