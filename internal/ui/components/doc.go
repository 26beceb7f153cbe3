// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the andes TUI.

# Components

Welcome (welcome.go) - Logo block shown while the conversation is empty. It
drops the logo, then the info lines, as the window shrinks.

StatusBar (statusbar.go) - Bottom bar with model, server, connection state,
send state, turn count and optional host CPU/MEM usage.

# Theme Integration

Every component takes the *styles.Theme built at startup:

	theme := styles.NewTheme(cfg.UI.Theme)
	bar := components.NewStatusBar(theme)
	bar.ModelName = "llama3"
	bar.Width = 120
	fmt.Println(bar.View())
*/
package components
