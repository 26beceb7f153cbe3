// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the andes TUI.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	TurnBody       lipgloss.Style
	TurnStats      lipgloss.Style

	// ==========================================================================
	// INPUT FIELDS
	// ==========================================================================

	FieldLabel       lipgloss.Style
	FieldBox         lipgloss.Style
	FieldBoxFocused  lipgloss.Style
	ContextSummary   lipgloss.Style
	InputPlaceholder lipgloss.Style
	InputPrompt      lipgloss.Style

	// ==========================================================================
	// STATUS AND FEEDBACK
	// ==========================================================================

	StatusBar     lipgloss.Style
	StatusModel   lipgloss.Style
	StatusHost    lipgloss.Style
	StatusOnline  lipgloss.Style
	StatusOffline lipgloss.Style
	StatusMetrics lipgloss.Style
	Spinner       lipgloss.Style
	SendingText   lipgloss.Style
	ErrorBanner   lipgloss.Style
	Notice        lipgloss.Style
	ShortcutKey   lipgloss.Style
	ShortcutDesc  lipgloss.Style

	// ==========================================================================
	// WELCOME
	// ==========================================================================

	WelcomeLogo  lipgloss.Style
	WelcomeSnow  lipgloss.Style
	WelcomeTitle lipgloss.Style
	WelcomeInfo  lipgloss.Style
	WelcomeKey   lipgloss.Style
}

// NewTheme creates a theme. mode is "auto", "dark" or "light"; auto asks
// the terminal for its background.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Transcript
	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.SystemLabel = lipgloss.NewStyle().Bold(true).Foreground(Amber)
	t.TurnBody = lipgloss.NewStyle().Foreground(TextPrimary).PaddingLeft(2)
	t.TurnStats = lipgloss.NewStyle().Foreground(TextMuted).Italic(true).PaddingLeft(2)

	// Input fields
	t.FieldLabel = lipgloss.NewStyle().Foreground(TextSecondary).Bold(true)
	t.FieldBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.FieldBoxFocused = t.FieldBox.
		BorderForeground(Glacier)
	t.ContextSummary = lipgloss.NewStyle().Foreground(Amber).Italic(true)
	t.InputPlaceholder = lipgloss.NewStyle().Foreground(TextMuted)
	t.InputPrompt = lipgloss.NewStyle().Foreground(Glacier).Bold(true)

	// Status and feedback
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.StatusModel = lipgloss.NewStyle().Foreground(Purple).Bold(true).Background(SurfaceDim)
	t.StatusHost = lipgloss.NewStyle().Foreground(TextSecondary).Background(SurfaceDim)
	t.StatusOnline = lipgloss.NewStyle().Foreground(Emerald).Background(SurfaceDim)
	t.StatusOffline = lipgloss.NewStyle().Foreground(Rose).Background(SurfaceDim)
	t.StatusMetrics = lipgloss.NewStyle().Foreground(TextMuted).Background(SurfaceDim)
	t.Spinner = lipgloss.NewStyle().Foreground(Glacier)
	t.SendingText = lipgloss.NewStyle().Foreground(Amber).Italic(true)
	t.ErrorBanner = lipgloss.NewStyle().
		Foreground(Rose).
		Background(RoseDeep).
		Bold(true).
		Padding(0, 1)
	t.Notice = lipgloss.NewStyle().Foreground(Emerald)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Glacier).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)

	// Welcome
	t.WelcomeLogo = lipgloss.NewStyle().Foreground(Slate).Bold(true)
	t.WelcomeSnow = lipgloss.NewStyle().Foreground(Glacier).Bold(true)
	t.WelcomeTitle = lipgloss.NewStyle().Foreground(Glacier).Bold(true)
	t.WelcomeInfo = lipgloss.NewStyle().Foreground(TextSecondary)
	t.WelcomeKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
