// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/andes/internal/export"
	"github.com/jeranaias/andes/internal/model"
	"github.com/jeranaias/andes/internal/ollama"
	"github.com/jeranaias/andes/internal/session"
	"github.com/jeranaias/andes/internal/sysinfo"
	"github.com/jeranaias/andes/internal/ui/components"
	"github.com/jeranaias/andes/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type stubChatter struct {
	mu   sync.Mutex
	resp *ollama.ChatResponse
	err  error
	reqs []ollama.ChatRequest
}

func (s *stubChatter) Chat(_ context.Context, req ollama.ChatRequest) (*ollama.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return s.resp, s.err
}

func (s *stubChatter) requests() []ollama.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ollama.ChatRequest(nil), s.reqs...)
}

type stubChecker struct{ err error }

func (c stubChecker) CheckRunning(context.Context) error { return c.err }

type stubSampler struct{}

func (stubSampler) Sample() (sysinfo.Snapshot, error) {
	return sysinfo.Snapshot{CPUPercent: 7, MemPercent: 42}, nil
}

func reply(content string) *ollama.ChatResponse {
	return &ollama.ChatResponse{
		Model:     "llama3",
		CreatedAt: "2024-01-01T00:00:00Z",
		Message:   ollama.Message{Role: "assistant", Content: content},
		Done:      true,
		EvalCount: 12,
	}
}

func newTestModel(t *testing.T, chatter *stubChatter, opts Options) Model {
	t.Helper()
	opts.Controller = session.New(session.Config{Client: chatter, Model: "llama3"})
	if opts.Host == "" {
		opts.Host = "http://localhost:11434"
	}
	m := New(styles.NewTheme("dark"), opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

// collect runs cmd and any batched children, returning their messages.
// Only call it on commands that return immediately.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findSendDone(t *testing.T, cmd tea.Cmd) SendDoneMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if done, ok := msg.(SendDoneMsg); ok {
			return done
		}
	}
	t.Fatal("no SendDoneMsg produced")
	return SendDoneMsg{}
}

// submit focuses the Message field, types text and presses Enter.
func submit(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	if m.Focus() != FieldMessage {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	}
	m = typeText(t, m, text)
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

// roundTrip submits text and feeds the exchange result back.
func roundTrip(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, cmd := submit(t, m, text)
	m, _ = update(t, m, findSendDone(t, cmd))
	return m
}

// =============================================================================
// INITIAL STATE
// =============================================================================

func TestNew_InitialState(t *testing.T) {
	m := newTestModel(t, &stubChatter{}, Options{Context: "be brief"})

	assert.Equal(t, FieldContext, m.Focus())
	assert.False(t, m.ContextLocked())
	assert.Equal(t, "be brief", m.Controller().Store().Context())

	view := m.View()
	assert.Contains(t, view, "A N D E S")
	assert.Contains(t, view, "Context")
	assert.Contains(t, view, "be brief")
}

func TestView_BeforeResize(t *testing.T) {
	m := New(styles.NewTheme("dark"), Options{})
	assert.Equal(t, "Initializing...", m.View())
}

// =============================================================================
// SEND CYCLE
// =============================================================================

func TestSend_Success(t *testing.T) {
	chatter := &stubChatter{resp: reply("Hi there")}
	m := newTestModel(t, chatter, Options{Context: "You are terse."})

	m, cmd := submit(t, m, "Hello")
	require.NotNil(t, cmd)
	assert.True(t, m.Controller().Busy())
	assert.True(t, m.ContextLocked())
	assert.Contains(t, m.View(), "Waiting for llama3")

	m, _ = update(t, m, findSendDone(t, cmd))

	assert.False(t, m.Controller().Busy())
	assert.Empty(t, m.Banner())
	assert.Equal(t, FieldMessage, m.Focus())

	turns := m.Controller().Store().Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, model.NewTurn(model.RoleUser, "Hello"), turns[0])
	assert.Equal(t, model.NewTurn(model.RoleAssistant, "Hi there"), turns[1])

	reqs := chatter.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []ollama.Message{
		{Role: "system", Content: "You are terse."},
		{Role: "user", Content: "Hello"},
	}, reqs[0].Messages)
	assert.False(t, reqs[0].Stream)

	view := m.View()
	assert.Contains(t, view, "You")
	assert.Contains(t, view, "Hi there")
	assert.Contains(t, view, "12 tokens")
	assert.NotContains(t, view, "A N D E S")
}

func TestSend_PendingInputClearedOnSubmit(t *testing.T) {
	m := newTestModel(t, &stubChatter{resp: reply("ok")}, Options{})

	m, _ = submit(t, m, "first")
	assert.Empty(t, m.Controller().Store().PendingInput())
	assert.Contains(t, m.View(), "Type a message...")
}

func TestSend_EnterIgnoredWhileSending(t *testing.T) {
	chatter := &stubChatter{resp: reply("done")}
	m := newTestModel(t, chatter, Options{})

	m, first := submit(t, m, "one")
	require.True(t, m.Controller().Busy())

	m = typeText(t, m, "two")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.Controller().Store().Len())

	m, _ = update(t, m, findSendDone(t, first))
	assert.Equal(t, 2, m.Controller().Store().Len())
	assert.Len(t, chatter.requests(), 1)
}

func TestSend_Failures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not running", ollama.ErrNotRunning, "server not reachable"},
		{"model missing", ollama.ErrModelNotFound, "model not found"},
		{"timeout", ollama.ErrTimeout, "request timed out"},
		{"other", errors.New("boom"), "request failed"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestModel(t, &stubChatter{err: tc.err}, Options{})
			m = roundTrip(t, m, "Hello")

			assert.Contains(t, m.Banner(), tc.want)
			assert.Contains(t, m.Banner(), styles.StatusIndicators.Error)
			assert.Equal(t, components.StatusFailed, m.statusBar.Status)

			turns := m.Controller().Store().Turns()
			require.Len(t, turns, 1)
			assert.Equal(t, model.RoleUser, turns[0].Role)
			assert.Contains(t, m.View(), tc.want)
		})
	}
}

func TestSend_BannerClearedByNextSend(t *testing.T) {
	chatter := &stubChatter{err: ollama.ErrNotRunning}
	m := newTestModel(t, chatter, Options{})
	m = roundTrip(t, m, "one")
	require.NotEmpty(t, m.Banner())

	chatter.mu.Lock()
	chatter.err = nil
	chatter.resp = reply("back")
	chatter.mu.Unlock()

	m, cmd := submit(t, m, "two")
	assert.Empty(t, m.Banner())
	m, _ = update(t, m, findSendDone(t, cmd))
	assert.Empty(t, m.Banner())
	assert.Equal(t, components.StatusReady, m.statusBar.Status)

	// The failed turn stays and is resent as history.
	reqs := chatter.requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].Messages, 2)
}

func TestSend_StaleResultIgnored(t *testing.T) {
	m := newTestModel(t, &stubChatter{resp: reply("x")}, Options{})
	m, cmd := submit(t, m, "one")
	done := findSendDone(t, cmd)
	m, _ = update(t, m, done)
	require.Equal(t, 2, m.Controller().Store().Len())

	m, _ = update(t, m, done)
	assert.Equal(t, 2, m.Controller().Store().Len())
	assert.Empty(t, m.Banner())
}

// =============================================================================
// CLEAR AND CONTEXT
// =============================================================================

func TestClear_KeepsContext(t *testing.T) {
	m := newTestModel(t, &stubChatter{resp: reply("hi")}, Options{Context: "ctx"})
	m = roundTrip(t, m, "hello")
	require.True(t, m.ContextLocked())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})

	store := m.Controller().Store()
	assert.True(t, store.IsEmpty())
	assert.Equal(t, "ctx", store.Context())
	assert.False(t, m.ContextLocked())
	assert.Contains(t, m.View(), "A N D E S")
}

func TestClear_RefusedWhileSending(t *testing.T) {
	m := newTestModel(t, &stubChatter{resp: reply("hi")}, Options{})
	m, cmd := submit(t, m, "hello")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Contains(t, m.Notice(), "Cannot clear")
	assert.Equal(t, 1, m.Controller().Store().Len())

	m, _ = update(t, m, findSendDone(t, cmd))
	assert.Equal(t, 2, m.Controller().Store().Len())
}

func TestTab_UnlocksContext(t *testing.T) {
	chatter := &stubChatter{resp: reply("hi")}
	m := newTestModel(t, chatter, Options{Context: "old"})
	m = roundTrip(t, m, "hello")
	require.True(t, m.ContextLocked())
	assert.Contains(t, m.View(), "Context: old")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, m.ContextLocked())
	assert.Equal(t, FieldContext, m.Focus())

	m = typeText(t, m, "er")
	assert.Equal(t, "older", m.Controller().Store().Context())

	m = roundTrip(t, m, "again")
	reqs := chatter.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "old", reqs[0].Messages[0].Content)
	assert.Equal(t, "older", reqs[1].Messages[0].Content)
}

func TestContextFileMsg(t *testing.T) {
	m := newTestModel(t, &stubChatter{}, Options{})
	m, _ = update(t, m, ContextFileMsg{Content: "from disk"})

	assert.Equal(t, "from disk", m.Controller().Store().Context())
	assert.Contains(t, m.View(), "from disk")
	assert.Contains(t, m.Notice(), "reloaded")
}

// =============================================================================
// STATUS AND METRICS
// =============================================================================

func TestServerStatus(t *testing.T) {
	m := newTestModel(t, &stubChatter{}, Options{Checker: stubChecker{}})
	msgs := collect(CheckServerCmd(context.Background(), stubChecker{}))
	require.Len(t, msgs, 1)
	m, _ = update(t, m, msgs[0])
	assert.Contains(t, m.View(), "connected")

	m, _ = update(t, m, ServerStatusMsg{Running: false, Err: ollama.ErrNotRunning})
	assert.Contains(t, m.View(), "offline")
}

func TestCheckServerCmd_NilChecker(t *testing.T) {
	msg := CheckServerCmd(context.Background(), nil)()
	assert.Equal(t, ServerStatusMsg{Running: false}, msg)
}

func TestMetrics(t *testing.T) {
	m := newTestModel(t, &stubChatter{}, Options{Sampler: stubSampler{}})

	msgs := collect(SampleMetricsCmd(stubSampler{}))
	require.Len(t, msgs, 1)
	m, cmd := update(t, m, msgs[0])
	assert.NotNil(t, cmd, "next tick scheduled")
	assert.Contains(t, m.View(), "CPU 7%")
}

func TestMetricsTick_NoSampler(t *testing.T) {
	m := newTestModel(t, &stubChatter{}, Options{})
	_, cmd := update(t, m, MetricsTickMsg{})
	assert.Nil(t, cmd)
}

// =============================================================================
// ACTIONS
// =============================================================================

func TestCopyLastReply(t *testing.T) {
	var copied string
	write := func(s string) error {
		copied = s
		return nil
	}
	m := newTestModel(t, &stubChatter{resp: reply("copy me")}, Options{Clipboard: write})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Nil(t, cmd)
	assert.Equal(t, "No reply to copy", m.Notice())

	m = roundTrip(t, m, "hi")
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	msgs := collect(cmd)
	require.Len(t, msgs, 1)
	assert.Equal(t, "copy me", copied)

	m, _ = update(t, m, msgs[0])
	assert.Contains(t, m.Notice(), "7 chars")
}

func TestCopyFailure(t *testing.T) {
	write := func(string) error { return errors.New("no clipboard") }
	m := newTestModel(t, &stubChatter{resp: reply("x")}, Options{Clipboard: write})
	m = roundTrip(t, m, "hi")

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	m, _ = update(t, m, collect(cmd)[0])
	assert.Contains(t, m.Notice(), "no clipboard")
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	opts := export.DefaultOptions()
	opts.OutputDir = dir
	m := newTestModel(t, &stubChatter{resp: reply("exported reply")}, Options{
		ExportFormat:  "md",
		ExportOptions: opts,
	})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.Equal(t, "Nothing to export", m.Notice())

	m = roundTrip(t, m, "hi")
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	msgs := collect(cmd)
	require.Len(t, msgs, 1)
	done, ok := msgs[0].(ExportDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.True(t, strings.HasPrefix(done.Path, dir))

	data, err := os.ReadFile(done.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "exported reply")

	m, _ = update(t, m, done)
	assert.Contains(t, m.Notice(), "Exported to")
}

func TestExport_BadFormat(t *testing.T) {
	m := newTestModel(t, &stubChatter{resp: reply("x")}, Options{ExportFormat: "pdf"})
	m = roundTrip(t, m, "hi")

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = update(t, m, collect(cmd)[0])
	assert.Contains(t, m.Notice(), "Export failed")
}

// =============================================================================
// RENDERING
// =============================================================================

func TestMarkdownRendering(t *testing.T) {
	m := newTestModel(t, &stubChatter{resp: reply("some **bold** words")}, Options{Markdown: true})
	m = roundTrip(t, m, "hi")

	view := m.View()
	assert.Contains(t, view, "bold")
	assert.NotContains(t, view, "**bold**")
}

func TestPlainRendering(t *testing.T) {
	m := newTestModel(t, &stubChatter{resp: reply("some **bold** words")}, Options{Markdown: false})
	m = roundTrip(t, m, "hi")
	assert.Contains(t, m.View(), "**bold**")
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, &stubChatter{}, Options{})
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestKeyMapHelp(t *testing.T) {
	k := DefaultKeyMap()
	assert.Len(t, k.ShortHelp(), 6)
	assert.Len(t, k.FullHelp(), 3)
}
