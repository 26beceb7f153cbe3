// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation state and request construction.
//
// # Key Types
//
//   - Turn: One role-tagged message (system, user, assistant)
//   - Store: Append-only conversation log plus the live Context and the
//     pending input draft
//   - Entry: A stored Turn with its creation time and reply statistics
//
// # Usage
//
//	store := model.NewStore()
//	store.SetContext("be terse")
//	store.AppendUserTurn("hi")
//	req := model.BuildRequest(store.Context(), store.Turns(), "llama2")
//
// The Context is never stored as a Turn. BuildRequest injects it as the
// first system turn of every request and drops any system turns found in
// history, so editing the Context only affects future sends.
package model
