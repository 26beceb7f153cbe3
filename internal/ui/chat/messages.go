// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types used by the chat view.
package chat

import (
	"time"

	"github.com/jeranaias/andes/internal/ollama"
	"github.com/jeranaias/andes/internal/session"
	"github.com/jeranaias/andes/internal/sysinfo"
)

// =============================================================================
// SEND MESSAGES
// =============================================================================

// SendDoneMsg carries the result of an exchange back to the event loop.
type SendDoneMsg struct {
	Exchange *session.Exchange
	Response *ollama.ChatResponse
	Err      error
}

// =============================================================================
// SERVER MESSAGES
// =============================================================================

// ServerStatusMsg is the result of the startup reachability check.
type ServerStatusMsg struct {
	Running bool
	Err     error
}

// =============================================================================
// CONTEXT MESSAGES
// =============================================================================

// ContextFileMsg replaces the Context with the content of the watched
// context file. It is sent from outside the program with Program.Send.
type ContextFileMsg struct {
	Content string
}

// =============================================================================
// METRICS MESSAGES
// =============================================================================

// MetricsTickMsg triggers a host metrics sample.
type MetricsTickMsg struct {
	Time time.Time
}

// MetricsMsg carries a host metrics sample.
type MetricsMsg struct {
	Snapshot sysinfo.Snapshot
	Err      error
}

// =============================================================================
// ACTION RESULTS
// =============================================================================

// ExportDoneMsg reports the result of a transcript export.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// CopyDoneMsg reports the result of copying the last reply.
type CopyDoneMsg struct {
	Chars int
	Err   error
}
