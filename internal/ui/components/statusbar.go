// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the andes TUI.
package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/andes/internal/sysinfo"
	"github.com/jeranaias/andes/internal/ui/styles"
	"github.com/jeranaias/andes/internal/util"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the send state as shown in the status bar.
type Status int

const (
	StatusReady Status = iota
	StatusSending
	StatusFailed
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusSending:
		return "Sending..."
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Icon returns the ASCII marker for the status.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusSending:
		return styles.StatusIndicators.Pending
	case StatusFailed:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// Connection is the result of the startup reachability check.
type Connection int

const (
	ConnUnknown Connection = iota
	ConnOnline
	ConnOffline
)

// String returns the display string for the connection state.
func (c Connection) String() string {
	switch c {
	case ConnOnline:
		return "connected"
	case ConnOffline:
		return "offline"
	default:
		return "checking"
	}
}

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the one-line bar at the bottom of the screen.
type StatusBar struct {
	ModelName  string
	Host       string
	Connection Connection
	Status     Status
	Turns      int
	Metrics    *sysinfo.Snapshot // nil hides the metrics section
	Width      int

	theme *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status: StatusReady,
		Width:  80,
		theme:  theme,
	}
}

// View renders the bar for the current width.
func (s *StatusBar) View() string {
	if s.Width < 60 {
		return s.viewNarrow()
	}
	return s.viewWide()
}

// viewNarrow renders "[OK] model [X]".
func (s *StatusBar) viewNarrow() string {
	t := s.theme
	parts := []string{
		s.statusStyle().Render(s.Status.Icon()),
		t.StatusModel.Render(util.TruncateWidth(s.ModelName, 20)),
		s.connectionStyle().Render(s.connectionIcon()),
	}
	return t.StatusBar.Width(s.Width).Render(strings.Join(parts, " "))
}

// viewWide renders
// "model @ host | connected | Ready | 4 turns      CPU 12% MEM 48%".
func (s *StatusBar) viewWide() string {
	t := s.theme
	sep := t.StatusHost.Render(" | ")

	left := t.StatusModel.Render(util.TruncateWidth(s.ModelName, 32)) +
		t.StatusHost.Render(" @ "+util.TruncateWidth(s.Host, 32)) +
		sep + s.connectionStyle().Render(s.connectionIcon()+" "+s.Connection.String()) +
		sep + s.statusStyle().Render(s.Status.String()) +
		sep + t.StatusHost.Render(pluralTurns(s.Turns))

	right := ""
	if s.Metrics != nil {
		right = t.StatusMetrics.Render(s.Metrics.Text())
	}

	// StatusBar pads one column on each side.
	inner := s.Width - 2
	if lipgloss.Width(left) > inner {
		return s.viewNarrow()
	}
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		right = ""
		gap = inner - lipgloss.Width(left)
	}
	filler := lipgloss.NewStyle().Background(styles.SurfaceDim).Render(strings.Repeat(" ", gap))

	return t.StatusBar.Width(s.Width).MaxWidth(s.Width).Render(left + filler + right)
}

func (s *StatusBar) statusStyle() lipgloss.Style {
	switch s.Status {
	case StatusSending:
		return s.theme.SendingText.Background(styles.SurfaceDim)
	case StatusFailed:
		return s.theme.StatusOffline.Bold(true)
	default:
		return s.theme.StatusOnline
	}
}

func (s *StatusBar) connectionStyle() lipgloss.Style {
	if s.Connection == ConnOffline {
		return s.theme.StatusOffline
	}
	if s.Connection == ConnOnline {
		return s.theme.StatusOnline
	}
	return s.theme.StatusHost
}

func (s *StatusBar) connectionIcon() string {
	switch s.Connection {
	case ConnOnline:
		return styles.StatusIndicators.Active
	case ConnOffline:
		return styles.StatusIndicators.Error
	default:
		return styles.StatusIndicators.Pending
	}
}

func pluralTurns(n int) string {
	if n == 1 {
		return "1 turn"
	}
	return strconv.Itoa(n) + " turns"
}
