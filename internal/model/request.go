// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation state and request construction.
package model

import "github.com/jeranaias/andes/internal/ollama"

// BuildRequest produces the request for one send.
//
// A non-empty context becomes the single leading system turn. Every stored
// turn follows in order, except turns whose role is already system.
func BuildRequest(context string, turns []Turn, modelName string) ollama.ChatRequest {
	messages := make([]ollama.Message, 0, len(turns)+1)

	if context != "" {
		messages = append(messages, ollama.NewSystemMessage(context))
	}

	for _, t := range turns {
		if t.Role == RoleSystem {
			continue
		}
		messages = append(messages, t.ToOllama())
	}

	return ollama.ChatRequest{
		Model:    modelName,
		Messages: messages,
		Stream:   false,
	}
}
