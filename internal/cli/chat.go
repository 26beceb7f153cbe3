// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat for andes.
//
// Used with --plain or when stdin/stdout is not a terminal. Each input line
// is one send; replies are printed as they complete.
//
// Interactive Commands:
//
//	/help, /h           Show available commands
//	/clear, /c          Clear the conversation (context is kept)
//	/context [text]     Show or replace the context
//	/export [md|json]   Write the transcript to the export directory
//	/quit, /q, /exit    Exit
//	Ctrl+D              Exit
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/andes/internal/config"
	"github.com/jeranaias/andes/internal/export"
	"github.com/jeranaias/andes/internal/ollama"
	"github.com/jeranaias/andes/internal/session"
	"github.com/jeranaias/andes/internal/util"
)

// =============================================================================
// INPUT
// =============================================================================

// LineReader reads one line of user input per call. io.EOF ends the session.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI. An empty historyFile disables history.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadLine reads a line of input with the given prompt.
func (c *ChatCLI) ReadLine(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	c.SaveHistory()
	return c.line.Close()
}

// scanReader reads lines from a non-terminal stream such as a pipe.
type scanReader struct {
	scanner *bufio.Scanner
}

// NewScanReader returns a LineReader over r that ignores prompts.
func NewScanReader(r io.Reader) LineReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &scanReader{scanner: s}
}

func (s *scanReader) ReadLine(string) (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scanReader) Close() error { return nil }

// =============================================================================
// REPL
// =============================================================================

// REPLOptions configures a REPL.
type REPLOptions struct {
	Controller   *session.Controller
	Input        LineReader
	Output       io.Writer
	Host         string
	Markdown     bool
	Width        int
	ExportFormat string
	ExportOpts   *export.Options
	Logger       *zap.Logger
}

// REPL is the line-mode chat loop.
type REPL struct {
	ctrl       *session.Controller
	in         LineReader
	out        io.Writer
	host       string
	renderer   *glamour.TermRenderer
	width      int
	format     string
	exportOpts *export.Options
	logger     *zap.Logger

	started time.Time
	sent    int
	failed  int
}

// NewREPL creates a REPL. Markdown rendering is only used when requested
// and the renderer can be built.
func NewREPL(opts REPLOptions) *REPL {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	width := opts.Width
	if width <= 0 {
		width = 80
	}
	exportOpts := opts.ExportOpts
	if exportOpts == nil {
		exportOpts = export.DefaultOptions()
	}
	format := opts.ExportFormat
	if format == "" {
		format = "md"
	}

	r := &REPL{
		ctrl:       opts.Controller,
		in:         opts.Input,
		out:        opts.Output,
		host:       opts.Host,
		width:      width,
		format:     format,
		exportOpts: exportOpts,
		logger:     logger,
	}
	if opts.Markdown {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width-4),
		)
		if err != nil {
			logger.Warn("markdown renderer unavailable", zap.Error(err))
		} else {
			r.renderer = renderer
		}
	}
	return r
}

// Run reads lines until EOF, /quit or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	r.started = time.Now()
	r.printHeader()

	for {
		if ctx.Err() != nil {
			r.printSummary()
			return nil
		}

		line, err := r.in.ReadLine("andes> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				r.printSummary()
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if !r.handleCommand(input) {
				r.printSummary()
				return nil
			}
			continue
		}

		r.send(ctx, line)
	}
}

func (r *REPL) send(ctx context.Context, text string) {
	r.ctrl.Store().SetPendingInput(text)
	outcome := r.ctrl.Send(ctx)
	r.sent++

	if outcome.Failed() {
		r.failed++
		fmt.Fprintf(r.out, "%s %s\n", ErrorStyle.Render("[X] Send failed:"), describeFailure(outcome.Err))
		return
	}

	fmt.Fprintln(r.out, AssistantStyle.Render(r.ctrl.Model()+":"))
	fmt.Fprintln(r.out, r.renderReply(outcome.Reply.Content))
	if outcome.Stats != nil {
		fmt.Fprintln(r.out, DimStyle.Render(outcome.Stats.Format()))
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) renderReply(content string) string {
	if r.renderer == nil {
		return content
	}
	out, err := r.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// handleCommand runs a slash command and reports whether to keep going.
func (r *REPL) handleCommand(input string) bool {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch cmd {
	case "/quit", "/q", "/exit":
		return false

	case "/help", "/h":
		r.printHelp()

	case "/clear", "/c":
		if err := r.ctrl.Clear(); err != nil {
			fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			return true
		}
		fmt.Fprintln(r.out, SuccessStyle.Render("[OK]")+" Conversation cleared")

	case "/context":
		store := r.ctrl.Store()
		if rest == "" {
			if store.Context() == "" {
				fmt.Fprintln(r.out, DimStyle.Render("(no context)"))
			} else {
				fmt.Fprintln(r.out, store.Context())
			}
			return true
		}
		store.SetContext(rest)
		fmt.Fprintln(r.out, SuccessStyle.Render("[OK]")+" Context updated")

	case "/export":
		format := r.format
		if rest != "" {
			format = rest
		}
		path, err := r.export(format)
		if err != nil {
			fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			return true
		}
		fmt.Fprintf(r.out, "%s Exported to %s\n", SuccessStyle.Render("[OK]"), path)

	default:
		fmt.Fprintf(r.out, "%s unknown command %s (try /help)\n", WarningStyle.Render("[!]"), cmd)
	}
	return true
}

func (r *REPL) export(format string) (string, error) {
	exporter, err := export.ForFormat(format, r.exportOpts)
	if err != nil {
		return "", err
	}
	t := export.NewTranscript(r.ctrl.Store(), r.ctrl.Model(), r.host)
	t.ID = r.ctrl.SessionID()
	return export.ExportToFile(t, exporter, r.exportOpts)
}

func (r *REPL) printHeader() {
	fmt.Fprintln(r.out, TitleStyle.Render("andes")+DimStyle.Render(" "+r.ctrl.Model()+" @ "+r.host))
	if ctx := r.ctrl.Store().Context(); ctx != "" {
		fmt.Fprintln(r.out, DimStyle.Render("context: ")+util.TruncateWidth(util.FirstLine(ctx), r.width-10))
	}
	fmt.Fprintln(r.out, DimStyle.Render("Type /help for commands, Ctrl+D to exit"))
	fmt.Fprintln(r.out)
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, TitleStyle.Render("Commands"))
	rows := [][2]string{
		{"/clear", "Clear the conversation (context is kept)"},
		{"/context", "Show or replace the context"},
		{"/export", "Write the transcript (md or json)"},
		{"/help", "Show this help"},
		{"/quit", "Exit"},
	}
	for _, row := range rows {
		fmt.Fprintf(r.out, "  %s %s\n", RenderLabel(row[0]), row[1])
	}
}

func (r *REPL) printSummary() {
	fmt.Fprintln(r.out, RenderSeparator(min(r.width, 40)))
	fmt.Fprintf(r.out, "%s %d sent, %d failed, %d turns, %s\n",
		DimStyle.Render("Session:"),
		r.sent, r.failed, r.ctrl.Store().Len(),
		time.Since(r.started).Round(time.Second))
}

// describeFailure renders a send failure for the user.
func describeFailure(err error) string {
	if err == nil {
		return "unknown error"
	}
	return fmt.Sprintf("%s (%v)", ollama.Describe(err), err)
}
