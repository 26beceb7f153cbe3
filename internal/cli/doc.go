// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and execution for andes.
//
// The root command starts a chat against an Ollama server. It opens the
// full-screen UI on a terminal and falls back to a line-mode REPL with
// --plain or when stdin/stdout is redirected.
//
// # Key Types
//
//   - App: Flag values, loaded config and logger shared by all commands
//   - REPL: Line-mode chat loop over a LineReader
//   - UsageError, ConfigError, CommandError: Errors mapped to exit codes
//
// # Usage
//
//	func main() {
//	    os.Exit(cli.Execute())
//	}
//
// # Commands Overview
//
//   - andes -o HOST -m MODEL: Chat (required flags)
//   - models: List installed models
//   - status: Check the server, a model and local resources
//   - config path|init|show: Manage the config file
//   - version: Build information
//
// Inspection commands accept --json for scripting.
package cli
