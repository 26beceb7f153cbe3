// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for andes.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - ValidateErrors: Every problem found by Validate, reported together
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - --config path
//   - ~/.andes/config.toml
//   - Built-in defaults
//
// There are no environment overrides. The server address and model are
// command-line flags only and never appear in the file.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	timeout := cfg.RequestTimeout()
package config
