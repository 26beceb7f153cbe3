// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the current conversation to a file on request.
//
// Exports are one-way: nothing is ever read back, so a restarted client
// still begins with an empty conversation.
//
// # Key Types
//
//   - Transcript: Snapshot of the conversation plus Context and metadata
//   - Exporter: Format interface
//   - Options: Output directory and metadata switches
//
// # Supported Formats
//
//   - Markdown: Human-readable, with reply statistics
//   - JSON: Machine-readable, every field
//
// # Usage
//
//	t := export.NewTranscript(store, "llama2", "localhost:11434")
//	exp, _ := export.ForFormat("md", nil)
//	path, err := export.ExportToFile(t, exp, &export.Options{OutputDir: dir})
package export
