// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives one request/response cycle against the server.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/andes/internal/model"
	"github.com/jeranaias/andes/internal/ollama"
)

// =============================================================================
// STATE
// =============================================================================

// State is the send state of a Controller.
type State int

const (
	StateIdle State = iota
	StateSending
	StateSucceeded
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned when a send or clear is requested while an
	// exchange is in flight.
	ErrBusy = errors.New("a message is already being sent")

	// ErrStaleExchange is reported when Complete is called with an
	// exchange the controller is not waiting for.
	ErrStaleExchange = errors.New("exchange is not in flight")
)

// Chatter performs a single non-streaming chat call.
type Chatter interface {
	Chat(ctx context.Context, req ollama.ChatRequest) (*ollama.ChatResponse, error)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Config wires a Controller to its collaborators.
type Config struct {
	Store  *model.Store
	Client Chatter
	Model  string
	Logger *zap.Logger
}

// Controller owns the send state machine for one conversation.
type Controller struct {
	mu      sync.Mutex
	state   State
	current *Exchange
	last    Outcome
	seq     int

	store  *model.Store
	client Chatter
	model  string
	logger *zap.Logger
	id     string

	now func() time.Time
}

// New creates an idle controller. A nil logger discards log output.
func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := cfg.Store
	if store == nil {
		store = model.NewStore()
	}
	id := uuid.NewString()

	return &Controller{
		state:  StateIdle,
		store:  store,
		client: cfg.Client,
		model:  cfg.Model,
		id:     id,
		logger: logger.With(zap.String("session", id), zap.String("model", cfg.Model)),
		now:    time.Now,
	}
}

// SessionID returns the identifier attached to every log line.
func (c *Controller) SessionID() string {
	return c.id
}

// Model returns the model name sent with every request.
func (c *Controller) Model() string {
	return c.model
}

// Store returns the conversation store the controller writes to.
func (c *Controller) Store() *model.Store {
	return c.store
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether an exchange is in flight.
func (c *Controller) Busy() bool {
	return c.State() == StateSending
}

// LastOutcome returns the result of the most recent completed exchange.
// It is reset by Begin and Clear.
func (c *Controller) LastOutcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Clear wipes the conversation and pending input. Refused while Sending so
// a late reply never lands in a cleared conversation.
func (c *Controller) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSending {
		return ErrBusy
	}
	c.store.Clear()
	c.last = Outcome{}
	c.logger.Debug("conversation.cleared")
	return nil
}

// =============================================================================
// SEND CYCLE
// =============================================================================

// Exchange is one in-flight request. It is created by Begin and finished by
// Complete.
type Exchange struct {
	// Request is the exact body that will be posted.
	Request ollama.ChatRequest

	// Turn is the user turn appended by Begin.
	Turn model.Turn

	client  Chatter
	seq     int
	started time.Time
}

// Run performs the HTTP call. It does not touch the store and may run on
// any goroutine.
func (e *Exchange) Run(ctx context.Context) (*ollama.ChatResponse, error) {
	if e.client == nil {
		return nil, errors.New("no client configured")
	}
	return e.client.Chat(ctx, e.Request)
}

// Begin moves Idle to Sending. The pending input is appended as a user turn
// without validation, the request is built from the conversation after
// that append, and the pending input is cleared.
func (c *Controller) Begin() (*Exchange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSending {
		return nil, ErrBusy
	}

	turn := c.store.AppendUserTurn(c.store.PendingInput())
	sysContext := c.store.Context()
	req := model.BuildRequest(sysContext, c.store.Turns(), c.model)
	c.store.SetPendingInput("")

	c.seq++
	ex := &Exchange{
		Request: req,
		Turn:    turn,
		client:  c.client,
		seq:     c.seq,
		started: c.now(),
	}
	c.current = ex
	c.state = StateSending
	c.last = Outcome{}

	c.logger.Info("send.begin",
		zap.Int("seq", ex.seq),
		zap.Int("turns", len(req.Messages)),
		zap.Bool("has_context", sysContext != ""),
	)

	return ex, nil
}

// Complete moves Sending to Succeeded or Failed and then back to Idle.
// On success the reply's message is appended; on failure nothing is
// appended. The error is logged here and reported only via the Outcome.
func (c *Controller) Complete(ex *Exchange, resp *ollama.ChatResponse, err error) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ex == nil || c.current != ex || c.state != StateSending {
		c.logger.Warn("send.stale", zap.Error(ErrStaleExchange))
		return Outcome{State: StateFailed, Err: ErrStaleExchange}
	}

	latency := c.now().Sub(ex.started)
	c.current = nil
	c.state = StateIdle

	if err == nil && resp == nil {
		err = errors.New("empty reply")
	}

	if err != nil {
		out := Outcome{State: StateFailed, Err: err, Latency: latency}
		c.last = out
		c.logger.Error("send.failed",
			zap.Int("seq", ex.seq),
			zap.Duration("latency", latency),
			zap.String("kind", ollama.ErrorKind(err)),
			zap.Error(err),
		)
		return out
	}

	reply := model.TurnFromOllama(resp.Message)
	stats := model.StatsFromResponse(resp, latency)
	c.store.AppendReply(reply, stats)

	out := Outcome{State: StateSucceeded, Reply: reply, Stats: stats, Latency: latency}
	c.last = out
	c.logger.Info("send.ok",
		zap.Int("seq", ex.seq),
		zap.Duration("latency", latency),
		zap.Uint64("eval_count", resp.EvalCount),
		zap.String("done_reason", resp.DoneReason),
	)
	return out
}

// Send runs a whole cycle synchronously. A send while Sending reports
// ErrBusy in the Outcome and changes nothing.
func (c *Controller) Send(ctx context.Context) Outcome {
	ex, err := c.Begin()
	if err != nil {
		return Outcome{State: StateFailed, Err: err}
	}
	resp, err := ex.Run(ctx)
	return c.Complete(ex, resp, err)
}

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome is the result of one send cycle as seen by the view.
type Outcome struct {
	State   State
	Reply   model.Turn
	Stats   *model.ReplyStats
	Err     error
	Latency time.Duration
}

// Failed reports whether the cycle ended without a reply.
func (o Outcome) Failed() bool {
	return o.State == StateFailed
}

// Succeeded reports whether a reply was appended.
func (o Outcome) Succeeded() bool {
	return o.State == StateSucceeded
}

// IsZero reports whether no cycle has completed yet.
func (o Outcome) IsZero() bool {
	return o.State == StateIdle && o.Err == nil
}
