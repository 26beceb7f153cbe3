// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives one request/response cycle against the server.
//
// A Controller owns the send state machine:
//
//	Idle -> Sending -> Succeeded | Failed -> Idle
//
// At most one exchange is in flight at a time. A second Begin while Sending
// returns ErrBusy and leaves the conversation untouched.
//
// # Usage
//
// Synchronous, as the line REPL uses it:
//
//	ctrl := session.New(session.Config{Store: store, Client: client, Model: "llama2"})
//	store.SetPendingInput("hello")
//	out := ctrl.Send(ctx)
//	if out.Failed() {
//	    // the user turn is stored, no reply was appended
//	}
//
// Split, as the terminal UI uses it so the HTTP call runs off the event loop:
//
//	ex, err := ctrl.Begin()
//	resp, err := ex.Run(ctx)      // in a tea.Cmd
//	out := ctrl.Complete(ex, resp, err)
//
// Errors never escape Complete; they are logged and reported in the Outcome.
package session
