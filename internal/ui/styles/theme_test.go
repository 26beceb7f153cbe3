// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the andes TUI.
package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewTheme_Modes(t *testing.T) {
	tests := []struct {
		mode     string
		wantDark bool
	}{
		{"dark", true},
		{"DARK", true},
		{"light", false},
	}

	for _, tc := range tests {
		t.Run(tc.mode, func(t *testing.T) {
			theme := NewTheme(tc.mode)
			if theme == nil {
				t.Fatal("NewTheme() returned nil")
			}
			if theme.IsDark != tc.wantDark {
				t.Errorf("NewTheme(%q).IsDark = %v, want %v", tc.mode, theme.IsDark, tc.wantDark)
			}
			if lipgloss.HasDarkBackground() != tc.wantDark {
				t.Errorf("lipgloss background not forced for mode %q", tc.mode)
			}
		})
	}
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme("dark")

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"UserLabel", theme.UserLabel},
		{"AssistantLabel", theme.AssistantLabel},
		{"TurnBody", theme.TurnBody},
		{"FieldBox", theme.FieldBox},
		{"FieldBoxFocused", theme.FieldBoxFocused},
		{"StatusBar", theme.StatusBar},
		{"ErrorBanner", theme.ErrorBanner},
		{"WelcomeLogo", theme.WelcomeLogo},
	}

	for _, s := range styles {
		rendered := s.style.Render("test")
		if !strings.Contains(rendered, "test") {
			t.Errorf("%s style dropped its content: %q", s.name, rendered)
		}
	}
}

func TestFieldBoxHasBorder(t *testing.T) {
	theme := NewTheme("dark")
	out := theme.FieldBox.Render("x")
	if lipgloss.Height(out) != 3 {
		t.Errorf("FieldBox height = %d, want 3 (border + line + border)", lipgloss.Height(out))
	}
}

// =============================================================================
// LAYOUT TESTS
// =============================================================================

func TestGetLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	theme := NewTheme("dark")
	for _, tc := range tests {
		theme.SetSize(tc.width, 40)
		if got := theme.GetLayoutMode(); got != tc.want {
			t.Errorf("GetLayoutMode() at width %d = %v, want %v", tc.width, got, tc.want)
		}
	}
}

// =============================================================================
// STATUS INDICATOR TESTS
// =============================================================================

func TestStatusIndicatorsAreASCII(t *testing.T) {
	for _, s := range []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Info,
		StatusIndicators.Pending,
		StatusIndicators.Active,
	} {
		for _, r := range s {
			if r > 127 {
				t.Errorf("indicator %q contains non-ASCII rune %q", s, r)
			}
		}
	}
}

func TestRenderHelpersIncludeMarker(t *testing.T) {
	tests := []struct {
		name   string
		out    string
		marker string
	}{
		{"success", RenderSuccess("done"), StatusIndicators.Success},
		{"error", RenderError("boom"), StatusIndicators.Error},
		{"info", RenderInfo("note"), StatusIndicators.Info},
	}

	for _, tc := range tests {
		if !strings.Contains(tc.out, tc.marker) {
			t.Errorf("%s output %q missing marker %q", tc.name, tc.out, tc.marker)
		}
	}
}
