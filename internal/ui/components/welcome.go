// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the andes TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/andes/internal/ui/styles"
)

// =============================================================================
// WELCOME BLOCK
// =============================================================================

// Welcome is the logo block shown while the conversation is empty.
type Welcome struct {
	version   string
	modelName string
	host      string

	width  int
	height int

	theme *styles.Theme
}

// NewWelcome creates a new welcome block.
func NewWelcome(theme *styles.Theme) Welcome {
	return Welcome{
		version: "dev",
		theme:   theme,
	}
}

// SetVersion sets the version string.
func (w *Welcome) SetVersion(version string) {
	w.version = version
}

// SetModelName sets the model name.
func (w *Welcome) SetModelName(name string) {
	w.modelName = name
}

// SetHost sets the server address.
func (w *Welcome) SetHost(host string) {
	w.host = host
}

// SetSize updates the dimensions of the area the block is centered in.
func (w *Welcome) SetSize(width, height int) {
	w.width = width
	w.height = height
}

// View renders the logo block centered in the available area. It degrades
// to fewer lines as the area shrinks.
func (w Welcome) View() string {
	width := w.width
	if width == 0 {
		width = 80
	}
	height := w.height
	if height == 0 {
		height = 20
	}

	var sections []string
	switch {
	case height >= 14 && width >= 44:
		sections = []string{w.renderLogo(), "", w.renderTitle(), "", w.renderInfo(), "", w.renderHints()}
	case height >= 9 && width >= 44:
		sections = []string{w.renderLogo(), w.renderTitle(), w.renderHints()}
	case height >= 4:
		sections = []string{w.renderTitle(), w.renderInfoCompact(), w.renderHints()}
	default:
		sections = []string{w.renderTitle()}
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// =============================================================================
// RENDER HELPERS
// =============================================================================

var logoSnow = []string{
	`           /\`,
	`      /\  /**\    /\`,
}

var logoRock = []string{
	`     /  \/    \  /  \`,
	`    /   /      \/    \`,
	`   /   /   /\   \     \`,
	`  /___/___/  \___\_____\`,
}

// renderLogo renders the mountain range (6 lines).
func (w Welcome) renderLogo() string {
	snow := w.theme.WelcomeSnow.Render(strings.Join(logoSnow, "\n"))
	rock := w.theme.WelcomeLogo.Render(strings.Join(logoRock, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, snow, rock)
}

// renderTitle renders the product name and version.
func (w Welcome) renderTitle() string {
	title := w.theme.WelcomeTitle.Render("A N D E S")
	version := w.theme.WelcomeInfo.Italic(true).Render(" v" + w.version)
	return title + version
}

// renderInfo renders model and host (2 lines).
func (w Welcome) renderInfo() string {
	label := w.theme.WelcomeInfo.Width(8)
	value := w.theme.WelcomeKey

	return lipgloss.JoinVertical(lipgloss.Left,
		label.Render("Model:")+value.Render(orDash(w.modelName)),
		label.Render("Server:")+value.Render(orDash(w.host)),
	)
}

// renderInfoCompact renders "model @ host" on one line.
func (w Welcome) renderInfoCompact() string {
	return w.theme.WelcomeInfo.Render(orDash(w.modelName) + " @ " + orDash(w.host))
}

// renderHints renders the key hints line.
func (w Welcome) renderHints() string {
	key := w.theme.WelcomeKey
	desc := w.theme.WelcomeInfo
	return key.Render("Enter") + desc.Render(" send  ") +
		key.Render("Tab") + desc.Render(" context  ") +
		key.Render("Ctrl+L") + desc.Render(" clear")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
