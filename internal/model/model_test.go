// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation state and request construction.
package model

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/andes/internal/ollama"
)

// =============================================================================
// STORE TESTS
// =============================================================================

func TestStore_AppendOrder(t *testing.T) {
	s := NewStore()
	s.AppendUserTurn("one")
	s.AppendReplyTurn(NewTurn(RoleAssistant, "two"))
	s.AppendUserTurn("")
	s.AppendReplyTurn(NewTurn(RoleSystem, "four"))
	s.AppendUserTurn("five")

	want := []Turn{
		{RoleUser, "one"},
		{RoleAssistant, "two"},
		{RoleUser, ""},
		{RoleSystem, "four"},
		{RoleUser, "five"},
	}
	assert.Equal(t, want, s.Turns())
	assert.Equal(t, 5, s.Len())
}

func TestStore_AppendUserTurnAllowsEmpty(t *testing.T) {
	s := NewStore()
	turn := s.AppendUserTurn("")

	assert.Equal(t, Turn{Role: RoleUser, Content: ""}, turn)
	assert.Equal(t, []Turn{turn}, s.Turns())
}

func TestStore_ClearKeepsContext(t *testing.T) {
	s := NewStore()
	s.SetContext("be terse")
	s.SetPendingInput("draft")
	s.AppendUserTurn("hi")
	s.AppendReplyTurn(NewTurn(RoleAssistant, "hello"))

	s.Clear()

	assert.True(t, s.IsEmpty())
	assert.Empty(t, s.Turns())
	assert.Equal(t, "", s.PendingInput())
	assert.Equal(t, "be terse", s.Context())
}

func TestStore_ClearIdempotent(t *testing.T) {
	once := NewStore()
	twice := NewStore()
	for _, s := range []*Store{once, twice} {
		s.SetContext("ctx")
		s.SetPendingInput("draft")
		s.AppendUserTurn("hi")
	}

	once.Clear()
	twice.Clear()
	twice.Clear()

	assert.Equal(t, once.Turns(), twice.Turns())
	assert.Equal(t, once.PendingInput(), twice.PendingInput())
	assert.Equal(t, once.Context(), twice.Context())
}

func TestStore_SettersHaveNoSideEffects(t *testing.T) {
	s := NewStore()
	s.AppendUserTurn("hi")

	s.SetContext("a")
	s.SetPendingInput("b")

	assert.Equal(t, "a", s.Context())
	assert.Equal(t, "b", s.PendingInput())
	assert.Equal(t, []Turn{{RoleUser, "hi"}}, s.Turns())
}

func TestStore_TurnsIsACopy(t *testing.T) {
	s := NewStore()
	s.AppendUserTurn("hi")

	turns := s.Turns()
	turns[0].Content = "changed"

	assert.Equal(t, "hi", s.Turns()[0].Content)
}

func TestStore_EntriesCarryMetadata(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.now = func() time.Time { return fixed }

	stats := &ReplyStats{EvalCount: 10, TokensPerSec: 5}
	s.AppendUserTurn("hi")
	s.AppendReply(NewTurn(RoleAssistant, "hello"), stats)

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, fixed, entries[0].At)
	assert.Nil(t, entries[0].Stats)
	assert.Equal(t, stats, entries[1].Stats)
}

func TestStore_LastReply(t *testing.T) {
	s := NewStore()
	_, ok := s.LastReply()
	assert.False(t, ok)

	s.AppendUserTurn("q1")
	s.AppendReplyTurn(NewTurn(RoleAssistant, "a1"))
	s.AppendUserTurn("q2")

	last, ok := s.LastReply()
	require.True(t, ok)
	assert.Equal(t, "a1", last.Content)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AppendUserTurn(fmt.Sprint(i))
			s.SetContext(fmt.Sprint(i))
			_ = s.Turns()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
}

// =============================================================================
// REQUEST BUILDER TESTS
// =============================================================================

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		name    string
		context string
		turns   []Turn
		want    []ollama.Message
	}{
		{
			name:    "context prepended and stored system turn dropped",
			context: "be terse",
			turns: []Turn{
				{RoleUser, "hi"},
				{RoleAssistant, "hello"},
				{RoleSystem, "ignored"},
			},
			want: []ollama.Message{
				{Role: "system", Content: "be terse"},
				{Role: "user", Content: "hi"},
				{Role: "assistant", Content: "hello"},
			},
		},
		{
			name:  "empty context injects nothing",
			turns: []Turn{{RoleUser, "hi"}},
			want:  []ollama.Message{{Role: "user", Content: "hi"}},
		},
		{
			name:    "context only",
			context: "ctx",
			want:    []ollama.Message{{Role: "system", Content: "ctx"}},
		},
		{
			name: "nothing at all",
			want: []ollama.Message{},
		},
		{
			name:    "system turns anywhere are dropped",
			context: "live",
			turns: []Turn{
				{RoleSystem, "old"},
				{RoleUser, "a"},
				{RoleSystem, "older"},
				{RoleUser, ""},
			},
			want: []ollama.Message{
				{Role: "system", Content: "live"},
				{Role: "user", Content: "a"},
				{Role: "user", Content: ""},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := BuildRequest(tc.context, tc.turns, "llama2")

			assert.Equal(t, "llama2", req.Model)
			assert.False(t, req.Stream)
			assert.Equal(t, tc.want, req.Messages)
		})
	}
}

func TestBuildRequest_ContextEditAffectsOnlyFutureSends(t *testing.T) {
	s := NewStore()
	s.SetContext("first")
	s.AppendUserTurn("hi")
	before := BuildRequest(s.Context(), s.Turns(), "m")

	s.SetContext("second")
	after := BuildRequest(s.Context(), s.Turns(), "m")

	assert.Equal(t, "first", before.Messages[0].Content)
	assert.Equal(t, "second", after.Messages[0].Content)
	assert.Len(t, after.Messages, 2)
}

// =============================================================================
// TURN TESTS
// =============================================================================

func TestTurn_Conversions(t *testing.T) {
	turn := TurnFromOllama(ollama.Message{Role: "assistant", Content: "ok"})
	assert.Equal(t, Turn{RoleAssistant, "ok"}, turn)
	assert.Equal(t, ollama.Message{Role: "assistant", Content: "ok"}, turn.ToOllama())
}

func TestTurn_Preview(t *testing.T) {
	tests := []struct {
		content string
		max     int
		want    string
	}{
		{"short", 10, "short"},
		{"hello world", 8, "hello..."},
		{"日本語のテキスト", 5, "日本..."},
		{"abcdef", 3, "abc"},
	}

	for _, tc := range tests {
		got := NewTurn(RoleUser, tc.content).Preview(tc.max)
		if got != tc.want {
			t.Errorf("Preview(%q, %d) = %q, want %q", tc.content, tc.max, got, tc.want)
		}
	}
}

func TestRole_DisplayName(t *testing.T) {
	assert.Equal(t, "You", RoleUser.DisplayName())
	assert.Equal(t, "Assistant", RoleAssistant.DisplayName())
	assert.Equal(t, "System", RoleSystem.DisplayName())
	assert.Equal(t, "tool", Role("tool").DisplayName())
}

func TestReplyStats_Format(t *testing.T) {
	resp := &ollama.ChatResponse{
		Model:         "llama2",
		EvalCount:     128,
		EvalDuration:  uint64(2 * time.Second),
		TotalDuration: uint64(2500 * time.Millisecond),
	}
	stats := StatsFromResponse(resp, 3*time.Second)

	assert.Equal(t, "2.5s | 128 tokens | 64.0 tok/s", stats.Format())
	assert.Nil(t, StatsFromResponse(nil, 0))

	var nilStats *ReplyStats
	assert.Equal(t, "", nilStats.Format())

	fast := &ReplyStats{Latency: 850 * time.Millisecond}
	assert.Equal(t, "850ms | 0 tokens | 0.0 tok/s", fast.Format())
}
