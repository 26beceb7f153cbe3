// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation state and request construction.
package model

import (
	"fmt"
	"time"

	"github.com/jeranaias/andes/internal/ollama"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one role-tagged message in a conversation. Turns are values; the
// Store only ever hands out copies, so a Turn never changes once stored.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewTurn creates a turn.
func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content}
}

// TurnFromOllama converts a wire message into a Turn.
func TurnFromOllama(m ollama.Message) Turn {
	return Turn{Role: Role(m.Role), Content: m.Content}
}

// ToOllama converts the turn to the wire format.
func (t Turn) ToOllama() ollama.Message {
	return ollama.Message{Role: string(t.Role), Content: t.Content}
}

// Preview returns a truncated preview of the content.
// Uses rune-based truncation to handle Unicode correctly.
func (t Turn) Preview(maxLen int) string {
	runes := []rune(t.Content)
	if len(runes) <= maxLen {
		return t.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// ENTRY TYPE
// =============================================================================

// Entry is a stored turn plus the metadata the view and exporter show.
type Entry struct {
	Turn
	At    time.Time   `json:"at"`
	Stats *ReplyStats `json:"stats,omitempty"`
}

// ReplyStats holds the server-reported generation figures for a reply.
type ReplyStats struct {
	Model        string        `json:"model"`
	EvalCount    uint64        `json:"eval_count"`
	TokensPerSec float64       `json:"tokens_per_sec"`
	Total        time.Duration `json:"total_ns"`
	Latency      time.Duration `json:"latency_ns"` // wall clock seen by the client
}

// StatsFromResponse derives reply statistics from a chat response.
func StatsFromResponse(resp *ollama.ChatResponse, latency time.Duration) *ReplyStats {
	if resp == nil {
		return nil
	}
	return &ReplyStats{
		Model:        resp.Model,
		EvalCount:    resp.EvalCount,
		TokensPerSec: resp.TokensPerSecond(),
		Total:        resp.TotalTime(),
		Latency:      latency,
	}
}

// Format renders the statistics as "2.5s | 128 tokens | 51.2 tok/s".
func (s *ReplyStats) Format() string {
	if s == nil {
		return ""
	}
	total := s.Total
	if total == 0 {
		total = s.Latency
	}
	return fmt.Sprintf("%s | %d tokens | %.1f tok/s", formatDuration(total), s.EvalCount, s.TokensPerSec)
}

// formatDuration formats a duration as "850ms" or "2.5s".
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
