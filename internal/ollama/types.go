// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
package ollama

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Message is one role-tagged turn on the wire.
type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system"
	Content string `json:"content"` // The message content
}

// ChatRequest is the request body for /api/chat endpoint.
type ChatRequest struct {
	Model    string    `json:"model"`    // Model name (e.g., "llama2")
	Messages []Message `json:"messages"` // Turns in send order
	Stream   bool      `json:"stream"`   // Always false for andes
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ChatResponse is the response from /api/chat endpoint.
//
// Only Message is consumed by the conversation; the remaining fields are
// decoded so that a malformed reply can be detected and so the view can
// show generation speed.
type ChatResponse struct {
	Model              string  `json:"model"`
	CreatedAt          string  `json:"created_at"`
	Message            Message `json:"message"`
	Done               bool    `json:"done"`
	DoneReason         string  `json:"done_reason,omitempty"`
	TotalDuration      uint64  `json:"total_duration"`       // nanoseconds
	LoadDuration       uint64  `json:"load_duration"`        // nanoseconds
	PromptEvalCount    uint64  `json:"prompt_eval_count,omitempty"`
	PromptEvalDuration uint64  `json:"prompt_eval_duration"` // nanoseconds
	EvalCount          uint64  `json:"eval_count"`           // tokens generated
	EvalDuration       uint64  `json:"eval_duration"`        // nanoseconds
}

// ModelInfo contains information about a locally available model.
type ModelInfo struct {
	Name       string       `json:"name"`
	ModifiedAt time.Time    `json:"modified_at"`
	Size       int64        `json:"size"`
	Digest     string       `json:"digest"`
	Details    ModelDetails `json:"details,omitempty"`
}

// ModelDetails contains detailed information about a model.
type ModelDetails struct {
	Format            string   `json:"format"`
	Family            string   `json:"family"`
	Families          []string `json:"families"`
	ParameterSize     string   `json:"parameter_size"`
	QuantizationLevel string   `json:"quantization_level"`
}

// ListModelsResponse is the response from /api/tags endpoint.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// OllamaError is the error body Ollama returns with non-200 statuses.
type OllamaError struct {
	Error string `json:"error"`
}

// =============================================================================
// REPLY DECODING
// =============================================================================

// requiredReplyFields lists every top-level field a strict reply must carry.
var requiredReplyFields = []string{
	"model",
	"created_at",
	"message",
	"done",
	"total_duration",
	"load_duration",
	"prompt_eval_duration",
	"eval_count",
	"eval_duration",
}

// requiredMessageFields lists the fields the nested message must carry in
// both strict and relaxed mode.
var requiredMessageFields = []string{"role", "content"}

// DecodeChatResponse parses a /api/chat reply body.
//
// In strict mode every declared field must be present, non-null and of the
// declared type; counters must be non-negative integers. In relaxed mode
// only message.role and message.content are required. Unknown fields are
// ignored in both modes.
func DecodeChatResponse(data []byte, strict bool) (*ChatResponse, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("reply is null")
	}

	if strict {
		if err := requireFields(raw, requiredReplyFields, ""); err != nil {
			return nil, err
		}
	} else if err := requireFields(raw, []string{"message"}, ""); err != nil {
		return nil, err
	}

	var msg map[string]json.RawMessage
	if err := json.Unmarshal(raw["message"], &msg); err != nil {
		return nil, fmt.Errorf("field message: %w", err)
	}
	if err := requireFields(msg, requiredMessageFields, "message."); err != nil {
		return nil, err
	}

	var resp ChatResponse
	if strict {
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}

	// Relaxed: only the message has to decode; bad metadata is dropped.
	if err := json.Unmarshal(raw["message"], &resp.Message); err != nil {
		return nil, fmt.Errorf("field message: %w", err)
	}
	_ = json.Unmarshal(raw["model"], &resp.Model)
	_ = json.Unmarshal(raw["created_at"], &resp.CreatedAt)
	_ = json.Unmarshal(raw["done"], &resp.Done)
	_ = json.Unmarshal(raw["eval_count"], &resp.EvalCount)
	_ = json.Unmarshal(raw["eval_duration"], &resp.EvalDuration)
	_ = json.Unmarshal(raw["total_duration"], &resp.TotalDuration)
	return &resp, nil
}

func requireFields(obj map[string]json.RawMessage, names []string, prefix string) error {
	for _, name := range names {
		v, ok := obj[name]
		if !ok {
			return fmt.Errorf("missing field %s%s", prefix, name)
		}
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return fmt.Errorf("field %s%s is null", prefix, name)
		}
	}
	return nil
}

// =============================================================================
// HELPER METHODS
// =============================================================================

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// TokensPerSecond calculates the generation speed from a response.
func (r *ChatResponse) TokensPerSecond() float64 {
	if r.EvalDuration == 0 {
		return 0
	}
	seconds := float64(r.EvalDuration) / 1e9
	return float64(r.EvalCount) / seconds
}

// TotalTime returns the total generation time.
func (r *ChatResponse) TotalTime() time.Duration {
	return time.Duration(r.TotalDuration)
}

// FormatSize formats the model size in human-readable form.
func (m *ModelInfo) FormatSize() string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case m.Size >= GB:
		return fmt.Sprintf("%.1f GB", float64(m.Size)/GB)
	case m.Size >= MB:
		return fmt.Sprintf("%.1f MB", float64(m.Size)/MB)
	case m.Size >= KB:
		return fmt.Sprintf("%.1f KB", float64(m.Size)/KB)
	default:
		return fmt.Sprintf("%d B", m.Size)
	}
}
