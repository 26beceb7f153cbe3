// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view for the andes TUI.

The view is a Bubble Tea model wrapped around a session.Controller. The
controller owns the conversation and the send state machine; the view only
mirrors its two fields into the store and renders what the store holds.

# Key Components

## Model (model.go)

Holds the Context and Message fields, the transcript viewport, the sending
spinner, the welcome block and the status bar. Update dispatches keys and
async results.

## Commands (update.go)

tea.Cmd constructors for work done off the event loop:
  - SendCmd runs one Exchange and returns SendDoneMsg
  - CheckServerCmd runs the startup reachability check
  - SampleMetricsCmd and MetricsTickCmd drive the host metrics readout
  - ExportCmd and CopyCmd perform the user actions

## View Rendering (view.go)

Turns are rendered as a role label and content in conversation order.
Assistant turns go through glamour when markdown is enabled. While the
conversation is empty the welcome block replaces the transcript.

# Send Cycle

	Enter -> Controller.Begin -> SendCmd (Exchange.Run) -> SendDoneMsg
	      -> Controller.Complete -> banner or snap-to-bottom

Enter is ignored while a cycle is in flight. A failure shows a one-line
banner until the next send or clear.

# Usage

	ctrl := session.New(session.Config{Client: client, Model: "llama3"})
	m := chat.New(theme, chat.Options{Controller: ctrl, Host: host})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
*/
package chat
