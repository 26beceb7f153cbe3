// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for andes.
//
// The file only carries ambient settings. The server address and model name
// are always given on the command line.
//
// Configuration file location:
//   - ~/.andes/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/andes/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete andes configuration.
type Config struct {
	Log     LogConfig     `toml:"log"`
	UI      UIConfig      `toml:"ui"`
	Reply   ReplyConfig   `toml:"reply"`
	HTTP    HTTPConfig    `toml:"http"`
	Export  ExportConfig  `toml:"export"`
	History HistoryConfig `toml:"history"`
}

// LogConfig controls the structured log.
type LogConfig struct {
	// File receives log output in terminal UI mode (empty = ~/.andes/andes.log)
	File string `toml:"file"`
	// Level is one of debug, info, warn, error
	Level string `toml:"level"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light"
	Theme string `toml:"theme"`
	// ShowMetrics shows CPU and memory usage in the status bar
	ShowMetrics bool `toml:"show_metrics"`
	// Markdown renders assistant replies with glamour
	Markdown bool `toml:"markdown"`
}

// ReplyConfig controls how server replies are decoded.
type ReplyConfig struct {
	// Strict rejects replies missing any declared field
	Strict bool `toml:"strict"`
}

// HTTPConfig contains transport settings.
type HTTPConfig struct {
	// RequestTimeout is a duration string such as "90s". Empty means none.
	RequestTimeout string `toml:"request_timeout"`
}

// ExportConfig controls transcript export.
type ExportConfig struct {
	// Dir is where transcripts are written (empty = ~/.andes/exports)
	Dir string `toml:"dir"`
	// Format is the default export format: "md" or "json"
	Format string `toml:"format"`
}

// HistoryConfig controls the line REPL's input history.
type HistoryConfig struct {
	// File stores REPL input history (empty = ~/.andes/history)
	File string `toml:"file"`
	// Disabled turns history off
	Disabled bool `toml:"disabled"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme:       "auto",
			ShowMetrics: true,
			Markdown:    true,
		},
		Reply: ReplyConfig{
			Strict: true,
		},
		Export: ExportConfig{
			Format: "md",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the andes configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".andes"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// inConfigDir resolves an optional path, falling back to name inside the
// config directory. A leading "~/" is expanded.
func inConfigDir(path, name string) string {
	if path != "" {
		return expandHome(path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// LogPath returns the resolved log file path.
func (c *Config) LogPath() string {
	return inConfigDir(c.Log.File, "andes.log")
}

// ExportDir returns the resolved export directory.
func (c *Config) ExportDir() string {
	return inConfigDir(c.Export.Dir, "exports")
}

// HistoryPath returns the resolved REPL history path, or "" when disabled.
func (c *Config) HistoryPath() string {
	if c.History.Disabled {
		return ""
	}
	return inConfigDir(c.History.File, "history")
}

// RequestTimeout parses HTTP.RequestTimeout. Zero means no timeout.
func (c *Config) RequestTimeout() time.Duration {
	if c.HTTP.RequestTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.HTTP.RequestTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from path. An empty path means the default
// location, which may be absent. An explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := ConfigPathTOML()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values. Unknown keys are rejected.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return undecodedError(md)
}

// Parse decodes TOML text over the defaults and validates the result.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TOML: %w", err)
	}
	if err := undecodedError(md); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func undecodedError(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return fmt.Errorf("unknown config keys: %s", strings.Join(names, ", "))
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# andes configuration file")
	fmt.Fprintln(&buf, "# Server address and model are passed as flags: andes -o host:port -m model")
	fmt.Fprintln(&buf, "")

	if err := cfg.Encode(&buf); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	validThemes := map[string]bool{"auto": true, "dark": true, "light": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if c.HTTP.RequestTimeout != "" {
		d, err := time.ParseDuration(c.HTTP.RequestTimeout)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{
				Field:   "http.request_timeout",
				Message: fmt.Sprintf("invalid duration '%s'", c.HTTP.RequestTimeout),
			})
		case d < 0:
			errs = append(errs, ValidationError{
				Field:   "http.request_timeout",
				Message: "must not be negative",
			})
		}
	}

	validFormats := map[string]bool{"md": true, "json": true}
	if !validFormats[strings.ToLower(c.Export.Format)] {
		errs = append(errs, ValidationError{
			Field:   "export.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: md, json", c.Export.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
