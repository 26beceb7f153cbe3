// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/andes/internal/export"
	"github.com/jeranaias/andes/internal/ollama"
	"github.com/jeranaias/andes/internal/session"
	"github.com/jeranaias/andes/internal/sysinfo"
	"github.com/jeranaias/andes/internal/ui/components"
	"github.com/jeranaias/andes/internal/ui/styles"
)

// =============================================================================
// FOCUS
// =============================================================================

// Field identifies the input field that receives keystrokes.
type Field int

const (
	FieldContext Field = iota
	FieldMessage
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a chat Model.
type Options struct {
	// Controller owns the conversation and the send state machine.
	Controller *session.Controller

	// Checker is used for the startup reachability check. May be nil.
	Checker StatusChecker

	// Sampler provides host metrics for the status bar. Nil hides them.
	Sampler sysinfo.Sampler

	// Context is the initial Context field value.
	Context string

	Host     string
	Version  string
	Markdown bool

	ExportFormat  string
	ExportOptions *export.Options

	// Clipboard writes text to the system clipboard. Defaults to
	// clipboard.WriteAll.
	Clipboard func(string) error

	// Ctx is the parent of every request context. Cancelling it aborts an
	// in-flight exchange; only shutdown should do that.
	Ctx context.Context

	Logger *zap.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctx    context.Context
	ctrl   *session.Controller
	logger *zap.Logger

	// Collaborators
	checker   StatusChecker
	sampler   sysinfo.Sampler
	clipboard func(string) error

	// Styling
	theme    *styles.Theme
	renderer *glamour.TermRenderer
	markdown bool

	// Dimensions
	width  int
	height int
	ready  bool

	// UI Components
	contextInput textinput.Model
	messageInput textinput.Model
	viewport     viewport.Model
	spinner      spinner.Model
	help         help.Model
	welcome      components.Welcome
	statusBar    *components.StatusBar

	keyMap KeyMap

	// Field state
	focus         Field
	contextLocked bool // collapsed to a summary after the first send

	// Feedback
	banner string // last send failure, cleared by the next send or clear
	notice string // transient confirmation line

	exportFormat  string
	exportOptions *export.Options
	host          string
}

// New creates a new chat model.
func New(theme *styles.Theme, opts Options) Model {
	ctx := opts.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctrl := opts.Controller
	if ctrl == nil {
		ctrl = session.New(session.Config{Logger: logger})
	}
	write := opts.Clipboard
	if write == nil {
		write = clipboard.WriteAll
	}
	exportOpts := opts.ExportOptions
	if exportOpts == nil {
		exportOpts = export.DefaultOptions()
	}

	ci := textinput.New()
	ci.Prompt = "  "
	ci.Placeholder = "Optional system context for the model..."
	ci.PlaceholderStyle = theme.InputPlaceholder
	ci.CharLimit = 0
	ci.SetValue(opts.Context)
	ci.Focus()
	ctrl.Store().SetContext(opts.Context)

	mi := textinput.New()
	mi.Prompt = "> "
	mi.PromptStyle = theme.InputPrompt
	mi.Placeholder = "Type a message..."
	mi.PlaceholderStyle = theme.InputPlaceholder
	mi.CharLimit = 0

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII frames render on every terminal
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	h := help.New()
	h.ShortSeparator = "  "
	h.Styles.ShortKey = theme.ShortcutKey
	h.Styles.ShortDesc = theme.ShortcutDesc

	welcome := components.NewWelcome(theme)
	welcome.SetModelName(ctrl.Model())
	welcome.SetHost(opts.Host)
	if opts.Version != "" {
		welcome.SetVersion(opts.Version)
	}

	bar := components.NewStatusBar(theme)
	bar.ModelName = ctrl.Model()
	bar.Host = opts.Host

	return Model{
		ctx:           ctx,
		ctrl:          ctrl,
		logger:        logger,
		checker:       opts.Checker,
		sampler:       opts.Sampler,
		clipboard:     write,
		theme:         theme,
		markdown:      opts.Markdown,
		contextInput:  ci,
		messageInput:  mi,
		viewport:      vp,
		spinner:       sp,
		help:          h,
		welcome:       welcome,
		statusBar:     bar,
		keyMap:        DefaultKeyMap(),
		focus:         FieldContext,
		exportFormat:  opts.ExportFormat,
		exportOptions: exportOpts,
		host:          opts.Host,
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, InitCommands(m.ctx, m.checker, m.sampler))
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SendDoneMsg:
		return m.handleSendDone(msg)

	case ServerStatusMsg:
		return m.handleServerStatus(msg)

	case ContextFileMsg:
		m.contextInput.SetValue(msg.Content)
		m.ctrl.Store().SetContext(msg.Content)
		m.notice = "Context reloaded from file"
		m.updateViewport()
		return m, nil

	case MetricsTickMsg:
		if m.sampler == nil {
			return m, nil
		}
		return m, SampleMetricsCmd(m.sampler)

	case MetricsMsg:
		if msg.Err == nil {
			snap := msg.Snapshot
			m.statusBar.Metrics = &snap
		}
		return m, MetricsTickCmd()

	case ExportDoneMsg:
		if msg.Err != nil {
			m.notice = styles.StatusIndicators.Error + " Export failed: " + msg.Err.Error()
			m.logger.Warn("export.failed", zap.Error(msg.Err))
		} else {
			m.notice = styles.StatusIndicators.Success + " Exported to " + msg.Path
			m.logger.Info("export.ok", zap.String("path", msg.Path))
		}
		return m, nil

	case CopyDoneMsg:
		if msg.Err != nil {
			m.notice = styles.StatusIndicators.Error + " Copy failed: " + msg.Err.Error()
		} else {
			m.notice = fmt.Sprintf("%s Copied reply (%d chars)", styles.StatusIndicators.Success, msg.Chars)
		}
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.Busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.theme.SetSize(msg.Width, msg.Height)
	m.help.Width = msg.Width
	m.statusBar.Width = msg.Width

	fieldWidth := msg.Width - 6
	if fieldWidth < 10 {
		fieldWidth = 10
	}
	m.contextInput.Width = fieldWidth
	m.messageInput.Width = fieldWidth

	m.renderer = newRenderer(m.markdown, m.theme.IsDark, msg.Width-4)
	m.layout()
	m.updateViewport()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Submit):
		if m.focus == FieldContext {
			return m.setFocus(FieldMessage)
		}
		return m.submit()

	case key.Matches(msg, m.keyMap.SwitchField):
		if m.focus == FieldMessage {
			m.contextLocked = false
			m.layout()
			return m.setFocus(FieldContext)
		}
		return m.setFocus(FieldMessage)

	case key.Matches(msg, m.keyMap.Clear):
		return m.clear()

	case key.Matches(msg, m.keyMap.Copy):
		reply, ok := m.ctrl.Store().LastReply()
		if !ok || reply.Content == "" {
			m.notice = "No reply to copy"
			return m, nil
		}
		return m, CopyCmd(reply.Content, m.clipboard)

	case key.Matches(msg, m.keyMap.Export):
		if m.ctrl.Store().IsEmpty() {
			m.notice = "Nothing to export"
			return m, nil
		}
		t := export.NewTranscript(m.ctrl.Store(), m.ctrl.Model(), m.host)
		t.ID = m.ctrl.SessionID()
		return m, ExportCmd(t, m.exportFormat, m.exportOptions)

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	return m.updateFocused(msg)
}

// submit starts a send cycle. Enter while a cycle is in flight is ignored.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.ctrl.Busy() {
		return m, nil
	}

	store := m.ctrl.Store()
	store.SetContext(m.contextInput.Value())
	store.SetPendingInput(m.messageInput.Value())

	ex, err := m.ctrl.Begin()
	if errors.Is(err, session.ErrBusy) {
		return m, nil
	}

	m.messageInput.Reset()
	m.banner = ""
	m.notice = ""
	m.contextLocked = true
	m.statusBar.Status = components.StatusSending
	m.layout()
	m.updateViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(m.spinner.Tick, SendCmd(m.ctx, ex))
}

func (m Model) handleSendDone(msg SendDoneMsg) (tea.Model, tea.Cmd) {
	out := m.ctrl.Complete(msg.Exchange, msg.Response, msg.Err)
	if errors.Is(out.Err, session.ErrStaleExchange) {
		return m, nil
	}

	if out.Failed() {
		m.banner = failureText(out.Err)
		m.statusBar.Status = components.StatusFailed
		m.updateViewport()
		return m, nil
	}

	m.banner = ""
	m.statusBar.Status = components.StatusReady
	m.updateViewport()
	m.viewport.GotoBottom()
	return m.setFocus(FieldMessage)
}

func (m Model) handleServerStatus(msg ServerStatusMsg) (tea.Model, tea.Cmd) {
	if msg.Running {
		m.statusBar.Connection = components.ConnOnline
	} else {
		m.statusBar.Connection = components.ConnOffline
		m.logger.Warn("server.unreachable", zap.String("host", m.host), zap.Error(msg.Err))
	}
	return m, nil
}

// clear wipes the conversation. Refused while a send is in flight.
func (m Model) clear() (tea.Model, tea.Cmd) {
	if err := m.ctrl.Clear(); err != nil {
		m.notice = "Cannot clear while a message is being sent"
		return m, nil
	}

	m.messageInput.Reset()
	m.banner = ""
	m.notice = ""
	m.contextLocked = false
	m.statusBar.Status = components.StatusReady
	m.layout()
	m.updateViewport()
	return m.setFocus(FieldMessage)
}

// =============================================================================
// FIELD HANDLING
// =============================================================================

func (m Model) setFocus(f Field) (tea.Model, tea.Cmd) {
	m.focus = f
	if f == FieldContext {
		m.messageInput.Blur()
		return m, m.contextInput.Focus()
	}
	m.contextInput.Blur()
	return m, m.messageInput.Focus()
}

// updateFocused forwards a message to the focused field and mirrors the
// field value into the store.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	store := m.ctrl.Store()
	if m.focus == FieldContext {
		m.contextInput, cmd = m.contextInput.Update(msg)
		if m.contextInput.Value() != store.Context() {
			store.SetContext(m.contextInput.Value())
		}
		return m, cmd
	}

	m.messageInput, cmd = m.messageInput.Update(msg)
	store.SetPendingInput(m.messageInput.Value())
	return m, cmd
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Focus returns the focused field.
func (m Model) Focus() Field {
	return m.focus
}

// ContextLocked reports whether the Context field is collapsed.
func (m Model) ContextLocked() bool {
	return m.contextLocked
}

// Banner returns the failure banner text, empty when there is none.
func (m Model) Banner() string {
	return m.banner
}

// Notice returns the transient notice line.
func (m Model) Notice() string {
	return m.notice
}

// Controller returns the session controller.
func (m Model) Controller() *session.Controller {
	return m.ctrl
}

// failureText is the one-line banner for a failed send.
func failureText(err error) string {
	msg := styles.StatusIndicators.Error + " Send failed: " + ollama.Describe(err)
	if err != nil {
		msg += " (" + err.Error() + ")"
	}
	return msg
}
