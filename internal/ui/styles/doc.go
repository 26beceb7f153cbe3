// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the andes TUI.

All colors use Lip Gloss AdaptiveColor so one palette serves light and dark
terminals.

# Colors (colors.go)

  - Glacier - Brand color: logo snow line, focused field border
  - Slate - Logo mountain body
  - Cyan - User turns
  - Purple - Assistant turns
  - Amber - Context and in-flight state
  - Emerald / Rose - Connected and failed states

# Theme (theme.go)

NewTheme builds every lipgloss.Style once. The mode comes from the ui.theme
config key; "auto" defers to termenv background detection.

	theme := styles.NewTheme(cfg.UI.Theme)
	label := theme.UserLabel.Render("You")

# Accessibility

Every status is paired with an ASCII marker from StatusIndicators ([OK],
[X], [!]) so it is never conveyed by color alone.
*/
package styles
