// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReply = `{
	"model": "llama2",
	"created_at": "2024-01-01T00:00:00Z",
	"message": {"role": "assistant", "content": "ok"},
	"done": true,
	"total_duration": 5000000000,
	"load_duration": 1000,
	"prompt_eval_duration": 2000,
	"eval_count": 100,
	"eval_duration": 1000000000
}`

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		role string
	}{
		{"user", NewUserMessage("Hello"), "user"},
		{"assistant", NewAssistantMessage("Hello"), "assistant"},
		{"system", NewSystemMessage("Hello"), "system"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.msg.Role != tc.role {
				t.Errorf("Role = %q, want %q", tc.msg.Role, tc.role)
			}
			if tc.msg.Content != "Hello" {
				t.Errorf("Content = %q, want 'Hello'", tc.msg.Content)
			}
		})
	}
}

func TestChatRequest_WireFormat(t *testing.T) {
	req := ChatRequest{
		Model:    "llama2",
		Messages: []Message{NewSystemMessage("be terse"), NewUserMessage("hi")},
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"model":"llama2","messages":[{"role":"system","content":"be terse"},{"role":"user","content":"hi"}],"stream":false}`,
		string(data))
}

// =============================================================================
// REPLY DECODING TESTS
// =============================================================================

func TestDecodeChatResponse_Strict(t *testing.T) {
	resp, err := DecodeChatResponse([]byte(validReply), true)
	require.NoError(t, err)

	assert.Equal(t, "llama2", resp.Model)
	assert.Equal(t, Message{Role: "assistant", Content: "ok"}, resp.Message)
	assert.True(t, resp.Done)
	assert.EqualValues(t, 100, resp.EvalCount)
	assert.InDelta(t, 100.0, resp.TokensPerSecond(), 0.001)
	assert.Equal(t, 5*time.Second, resp.TotalTime())
}

func TestDecodeChatResponse_StrictRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]any)
	}{
		{"missing model", func(m map[string]any) { delete(m, "model") }},
		{"missing created_at", func(m map[string]any) { delete(m, "created_at") }},
		{"missing done", func(m map[string]any) { delete(m, "done") }},
		{"missing eval_count", func(m map[string]any) { delete(m, "eval_count") }},
		{"missing load_duration", func(m map[string]any) { delete(m, "load_duration") }},
		{"null message", func(m map[string]any) { m["message"] = nil }},
		{"done as string", func(m map[string]any) { m["done"] = "yes" }},
		{"negative counter", func(m map[string]any) { m["eval_duration"] = -1 }},
		{"fractional counter", func(m map[string]any) { m["eval_count"] = 1.5 }},
		{"message without content", func(m map[string]any) { m["message"] = map[string]any{"role": "assistant"} }},
		{"message role not string", func(m map[string]any) { m["message"] = map[string]any{"role": 1, "content": "x"} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var m map[string]any
			require.NoError(t, json.Unmarshal([]byte(validReply), &m))
			tc.mutate(m)
			data, err := json.Marshal(m)
			require.NoError(t, err)

			_, err = DecodeChatResponse(data, true)
			assert.Error(t, err)
		})
	}
}

func TestDecodeChatResponse_IgnoresUnknownFields(t *testing.T) {
	data := strings.Replace(validReply, `"done": true,`, `"done": true, "done_reason": "stop", "extra": [1,2],`, 1)

	resp, err := DecodeChatResponse([]byte(data), true)
	require.NoError(t, err)
	assert.Equal(t, "stop", resp.DoneReason)
}

func TestDecodeChatResponse_Relaxed(t *testing.T) {
	resp, err := DecodeChatResponse([]byte(`{"message":{"role":"assistant","content":"ok"},"done":"weird"}`), false)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message.Content)

	_, err = DecodeChatResponse([]byte(`{"model":"llama2"}`), false)
	assert.Error(t, err)

	_, err = DecodeChatResponse([]byte(`not json`), false)
	assert.Error(t, err)
}

// =============================================================================
// CLIENT TESTS
// =============================================================================

func TestBaseURLFromHost(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"localhost:11434", "http://localhost:11434"},
		{" localhost:11434/ ", "http://localhost:11434"},
		{"http://10.0.0.2:11434", "http://10.0.0.2:11434"},
		{"https://ollama.example", "https://ollama.example"},
	}

	for _, tc := range tests {
		if got := BaseURLFromHost(tc.in); got != tc.want {
			t.Errorf("BaseURLFromHost(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClient_Chat(t *testing.T) {
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		io.WriteString(w, validReply)
	}))
	defer srv.Close()

	client := NewClient(&ClientConfig{BaseURL: srv.URL, StrictReply: true})
	resp, err := client.Chat(context.Background(), ChatRequest{
		Model:    "llama2",
		Messages: []Message{NewUserMessage("hi")},
		Stream:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Message.Content)
	assert.Equal(t, "llama2", got.Model)
	assert.False(t, got.Stream, "stream must always be false on the wire")
	assert.Equal(t, []Message{NewUserMessage("hi")}, got.Messages)
}

func TestClient_ChatMalformedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message":{"role":"assistant","content":"ok"}}`)
	}))
	defer srv.Close()

	strict := NewClient(&ClientConfig{BaseURL: srv.URL, StrictReply: true})
	_, err := strict.Chat(context.Background(), ChatRequest{Model: "llama2"})
	require.Error(t, err)
	assert.True(t, IsInvalidResponse(err))
	assert.Equal(t, "invalid_response", ErrorKind(err))

	relaxed := NewClient(&ClientConfig{BaseURL: srv.URL, StrictReply: false})
	resp, err := relaxed.Chat(context.Background(), ChatRequest{Model: "llama2"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message.Content)
}

func TestClient_ChatStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
		substr string
	}{
		{"model not found", http.StatusNotFound, `{"error":"model 'nope' not found"}`, IsModelNotFound, "model 'nope' not found"},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, func(err error) bool { return errorType(err) == ErrTypeStatus }, "boom"},
		{"plain status", http.StatusBadGateway, `gateway`, func(err error) bool { return errorType(err) == ErrTypeStatus }, "502"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			client := NewClient(&ClientConfig{BaseURL: srv.URL, StrictReply: true})
			_, err := client.Chat(context.Background(), ChatRequest{Model: "nope"})
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected error kind: %v", err)
			assert.Contains(t, err.Error(), tc.substr)
		})
	}
}

func TestClient_ChatNotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(&ClientConfig{BaseURL: url})
	_, err := client.Chat(context.Background(), ChatRequest{Model: "llama2"})
	require.Error(t, err)
	assert.True(t, IsNotRunning(err))
	assert.True(t, errors.Is(err, ErrNotRunning))
}

func TestClient_ChatTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(&ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Chat(context.Background(), ChatRequest{Model: "llama2"})
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "got %v", err)
}

func TestClient_ListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		io.WriteString(w, `{"models":[{"name":"llama2:latest","size":3825819519},{"name":"mistral:7b","size":2048}]}`)
	}))
	defer srv.Close()

	client := NewClient(&ClientConfig{BaseURL: srv.URL})
	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "llama2:latest", models[0].Name)
	assert.Equal(t, "3.6 GB", models[0].FormatSize())
	assert.Equal(t, "2.0 KB", models[1].FormatSize())
}

func TestClient_CheckRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Ollama is running")
	}))
	defer srv.Close()

	client := NewClient(&ClientConfig{BaseURL: srv.URL + "/"})
	assert.NoError(t, client.CheckRunning(context.Background()))
	assert.Equal(t, srv.URL, client.BaseURL())
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrNotRunning, "server not reachable"},
		{ErrModelNotFound, "model not found"},
		{ErrTimeout, "request timed out"},
		{&ClientError{Type: ErrTypeConnection, Message: "reset"}, "connection interrupted"},
		{&ClientError{Type: ErrTypeInvalidResponse, Message: "bad json"}, "unexpected reply"},
		{&ClientError{Type: ErrTypeStatus, Message: "500"}, "server error"},
		{fmt.Errorf("wrapped: %w", ErrTimeout), "request timed out"},
		{io.EOF, "request failed"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Describe(tc.err), tc.err.Error())
	}
}
