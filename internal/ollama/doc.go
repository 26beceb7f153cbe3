// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// Only the non-streaming chat exchange is implemented: one POST to
// /api/chat per send, with the whole reply decoded at once.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - Message: Chat turn with role and content
//   - ChatRequest: Request structure for chat completions
//   - ChatResponse: Response structure with message and metrics
//   - ClientError: Typed error carrying the failure kind
//
// # Usage
//
//	client := ollama.NewClient(&ollama.ClientConfig{
//	    BaseURL:     ollama.BaseURLFromHost("localhost:11434"),
//	    StrictReply: true,
//	})
//	resp, err := client.Chat(ctx, ollama.ChatRequest{
//	    Model:    "llama2",
//	    Messages: []ollama.Message{{Role: "user", Content: "Hello"}},
//	})
//
// # Reply Decoding
//
// Replies are decoded strictly by default: model, created_at, message,
// done and the five timing counters must all be present with the right
// JSON types. Set ClientConfig.StrictReply to false to require only the
// message.
package ollama
