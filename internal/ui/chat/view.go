// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/andes/internal/model"
	"github.com/jeranaias/andes/internal/util"
)

// minViewportHeight keeps the transcript visible on tiny terminals.
const minViewportHeight = 3

// =============================================================================
// MAIN VIEW
// =============================================================================

// View renders the chat view.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	m.statusBar.Turns = m.ctrl.Store().Len()

	var main string
	if m.ctrl.Store().IsEmpty() {
		main = m.welcome.View()
	} else {
		main = m.viewport.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		main,
		m.renderFeedback(),
		m.renderContextField(),
		m.renderMessageField(),
		m.help.View(m.keyMap),
		m.statusBar.View(),
	)
}

// =============================================================================
// LAYOUT
// =============================================================================

// contextHeight is the number of rows the Context section occupies.
func (m *Model) contextHeight() int {
	if m.contextLocked {
		return 1
	}
	return 4 // label + bordered box
}

// layout sizes the transcript area from the fixed rows around it.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	// feedback + message box + help + status bar
	fixed := 1 + 3 + 1 + 1 + m.contextHeight()
	h := m.height - fixed
	if h < minViewportHeight {
		h = minViewportHeight
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.welcome.SetSize(m.width, h)
}

// updateViewport re-renders the transcript into the viewport.
func (m *Model) updateViewport() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript renders every stored turn in order.
func (m *Model) renderTranscript() string {
	entries := m.ctrl.Store().Entries()
	if len(entries) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, m.renderEntry(e))
	}
	return strings.Join(blocks, "\n\n")
}

// renderEntry renders a role label, the content and any reply stats.
func (m *Model) renderEntry(e model.Entry) string {
	var label string
	switch e.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render(e.Role.DisplayName())
	case model.RoleAssistant:
		label = m.theme.AssistantLabel.Render(e.Role.DisplayName())
	default:
		label = m.theme.SystemLabel.Render(e.Role.DisplayName())
	}

	parts := []string{label, m.renderBody(e.Turn)}
	if e.Stats != nil {
		parts = append(parts, m.theme.TurnStats.Render(e.Stats.Format()))
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderBody(t model.Turn) string {
	if t.Role == model.RoleAssistant && m.renderer != nil {
		out, err := m.renderer.Render(t.Content)
		if err == nil {
			return strings.Trim(out, "\n")
		}
	}
	width := m.width - 2
	if width < 10 {
		width = 10
	}
	return m.theme.TurnBody.Width(width).Render(t.Content)
}

// newRenderer returns a glamour renderer for assistant turns, or nil when
// markdown is disabled.
func newRenderer(enabled, dark bool, width int) *glamour.TermRenderer {
	if !enabled {
		return nil
	}
	if width < 20 {
		width = 20
	}
	style := "light"
	if dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// =============================================================================
// FIELDS AND FEEDBACK
// =============================================================================

// renderFeedback renders the single line between transcript and fields:
// the spinner while sending, else the failure banner, else a notice.
func (m Model) renderFeedback() string {
	width := m.width - 2
	switch {
	case m.ctrl.Busy():
		return " " + m.spinner.View() + " " +
			m.theme.SendingText.Render("Waiting for "+m.ctrl.Model()+"...")
	case m.banner != "":
		return m.theme.ErrorBanner.Render(util.TruncateWidth(m.banner, width))
	case m.notice != "":
		return " " + m.theme.Notice.Render(util.TruncateWidth(m.notice, width))
	default:
		return ""
	}
}

// renderContextField renders the Context input, or its one-line summary
// once the conversation has started.
func (m Model) renderContextField() string {
	if m.contextLocked {
		ctx := util.FirstLine(m.contextInput.Value())
		if ctx == "" {
			ctx = "(none)"
		}
		summary := "Context: " + util.TruncateWidth(ctx, m.width-24) + "  [Tab to edit]"
		return m.theme.ContextSummary.Render(summary)
	}

	box := m.theme.FieldBox
	if m.focus == FieldContext {
		box = m.theme.FieldBoxFocused
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.FieldLabel.Render("Context"),
		box.Width(m.boxWidth()).Render(m.contextInput.View()),
	)
}

// renderMessageField renders the Message input.
func (m Model) renderMessageField() string {
	box := m.theme.FieldBox
	if m.focus == FieldMessage {
		box = m.theme.FieldBoxFocused
	}
	return box.Width(m.boxWidth()).Render(m.messageInput.View())
}

// boxWidth is the lipgloss width of a field box; the border adds two.
func (m Model) boxWidth() int {
	w := m.width - 2
	if w < 12 {
		w = 12
	}
	return w
}
