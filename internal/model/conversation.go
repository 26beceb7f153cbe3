// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation state and request construction.
package model

import (
	"sync"
	"time"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// Store holds the conversation log, the live Context and the pending input.
//
// Turns are only ever appended at the tail; Clear is the only other
// mutation of the log. All operations are total and safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	context string
	pending string

	// now is replaceable in tests.
	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries: make([]Entry, 0),
		now:     time.Now,
	}
}

// AppendUserTurn appends {role: user, content: text}. Empty text is allowed.
func (s *Store) AppendUserTurn(text string) Turn {
	turn := NewTurn(RoleUser, text)
	s.append(turn, nil)
	return turn
}

// AppendReplyTurn appends an arbitrary turn, typically the model's reply.
func (s *Store) AppendReplyTurn(turn Turn) {
	s.append(turn, nil)
}

// AppendReply appends a reply turn together with its generation statistics.
func (s *Store) AppendReply(turn Turn, stats *ReplyStats) {
	s.append(turn, stats)
}

func (s *Store) append(turn Turn, stats *ReplyStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{Turn: turn, At: s.now(), Stats: stats})
}

// Clear empties the conversation and the pending input. The Context is kept.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]Entry, 0)
	s.pending = ""
}

// SetContext overwrites the live Context.
func (s *Store) SetContext(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = text
}

// SetPendingInput overwrites the not-yet-sent draft.
func (s *Store) SetPendingInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = text
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Context returns the live Context ("" means none).
func (s *Store) Context() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.context
}

// PendingInput returns the current draft.
func (s *Store) PendingInput() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// Turns returns a copy of the conversation in insertion order.
func (s *Store) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]Turn, len(s.entries))
	for i, e := range s.entries {
		turns[i] = e.Turn
	}
	return turns
}

// Entries returns a copy of the stored entries in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// Len returns the number of stored turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// IsEmpty returns true if there are no turns.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// LastReply returns the most recent assistant turn.
func (s *Store) LastReply() (Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Role == RoleAssistant {
			return s.entries[i].Turn, true
		}
	}
	return Turn{}, false
}
