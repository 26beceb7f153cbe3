// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/andes/internal/export"
	"github.com/jeranaias/andes/internal/session"
	"github.com/jeranaias/andes/internal/sysinfo"
)

// checkTimeout bounds the startup reachability check only. Chat requests
// have no timeout unless one is configured on the client.
const checkTimeout = 5 * time.Second

// metricsInterval is how often host metrics are sampled.
const metricsInterval = time.Second

// StatusChecker reports whether the inference server answers.
type StatusChecker interface {
	CheckRunning(ctx context.Context) error
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// SendCmd runs an exchange off the event loop and reports back with a
// SendDoneMsg. The controller is not touched until the message is handled.
func SendCmd(ctx context.Context, ex *session.Exchange) tea.Cmd {
	return func() tea.Msg {
		resp, err := ex.Run(ctx)
		return SendDoneMsg{Exchange: ex, Response: resp, Err: err}
	}
}

// CheckServerCmd creates a command that checks if the server is running.
func CheckServerCmd(ctx context.Context, checker StatusChecker) tea.Cmd {
	return func() tea.Msg {
		if checker == nil {
			return ServerStatusMsg{Running: false}
		}

		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()

		err := checker.CheckRunning(ctx)
		return ServerStatusMsg{Running: err == nil, Err: err}
	}
}

// =============================================================================
// METRICS
// =============================================================================

// MetricsTickCmd schedules the next metrics sample.
func MetricsTickCmd() tea.Cmd {
	return tea.Tick(metricsInterval, func(t time.Time) tea.Msg {
		return MetricsTickMsg{Time: t}
	})
}

// SampleMetricsCmd takes one host metrics sample.
func SampleMetricsCmd(sampler sysinfo.Sampler) tea.Cmd {
	return func() tea.Msg {
		snap, err := sampler.Sample()
		return MetricsMsg{Snapshot: snap, Err: err}
	}
}

// =============================================================================
// ACTIONS
// =============================================================================

// ExportCmd writes a transcript snapshot to disk.
func ExportCmd(t *export.Transcript, format string, opts *export.Options) tea.Cmd {
	return func() tea.Msg {
		exporter, err := export.ForFormat(format, opts)
		if err != nil {
			return ExportDoneMsg{Err: err}
		}
		path, err := export.ExportToFile(t, exporter, opts)
		return ExportDoneMsg{Path: path, Err: err}
	}
}

// CopyCmd writes text to the clipboard through write.
func CopyCmd(text string, write func(string) error) tea.Cmd {
	return func() tea.Msg {
		if err := write(text); err != nil {
			return CopyDoneMsg{Err: err}
		}
		return CopyDoneMsg{Chars: len([]rune(text))}
	}
}

// =============================================================================
// BATCH COMMANDS
// =============================================================================

// InitCommands returns the commands to run on initialization.
func InitCommands(ctx context.Context, checker StatusChecker, sampler sysinfo.Sampler) tea.Cmd {
	cmds := []tea.Cmd{CheckServerCmd(ctx, checker)}
	if sampler != nil {
		cmds = append(cmds, SampleMetricsCmd(sampler))
	}
	return tea.Batch(cmds...)
}
