// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Root command and chat entry point for andes.
//
// Examples:
//
//	andes -o localhost:11434 -m llama3.2               Full-screen chat
//	andes -o localhost:11434 -m llama3.2 --plain       Line-mode chat
//	andes -o gpu-box:11434 -m qwen2.5 --context-file notes.md
//	echo "hi" | andes -o localhost:11434 -m llama3.2   One-shot via pipe
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync/atomic"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/andes/internal/config"
	"github.com/jeranaias/andes/internal/contextfile"
	"github.com/jeranaias/andes/internal/export"
	"github.com/jeranaias/andes/internal/logging"
	"github.com/jeranaias/andes/internal/ollama"
	"github.com/jeranaias/andes/internal/session"
	"github.com/jeranaias/andes/internal/sysinfo"
	"github.com/jeranaias/andes/internal/ui/chat"
	"github.com/jeranaias/andes/internal/ui/styles"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// skipConfig marks commands that must work without a readable config file.
const skipConfig = "skipConfig"

// App holds flag values and the collaborators shared by all commands.
type App struct {
	Host        string
	Model       string
	Context     string
	ContextFile string
	Plain       bool
	ConfigPath  string
	Verbose     bool

	cfg    *config.Config
	logger *zap.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// isTerminal reports whether the full-screen UI can run.
	isTerminal func() bool
	// newLineReader builds the REPL input for an interactive terminal.
	newLineReader func(historyFile string) LineReader
}

// NewApp returns an App bound to the process streams.
func NewApp() *App {
	return &App{
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		isTerminal: CanRunTUI,
		newLineReader: func(historyFile string) LineReader {
			return NewChatCLI(historyFile)
		},
	}
}

// Config returns the loaded configuration, or the defaults before loading.
func (a *App) Config() *config.Config {
	if a.cfg == nil {
		return config.Default()
	}
	return a.cfg
}

// Logger returns the command logger, or a no-op logger before setup.
func (a *App) Logger() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

// NewRootCmd builds the andes command tree.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "andes",
		Short: "Chat with a model on an Ollama server",
		Long: `andes is a small chat client for an Ollama-compatible server.

Each message is sent together with the whole conversation so far and an
optional context that is delivered to the model as a system message.`,
		Example: `  andes -o localhost:11434 -m llama3.2
  andes -o localhost:11434 -m llama3.2 --context "Answer in one sentence."
  andes -o localhost:11434 -m llama3.2 --context-file prompt.md --plain`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if app.logger != nil {
				_ = app.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runChat(cmd.Context())
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Field: "flags", Reason: err.Error()}
	})
	root.SetIn(app.stdin)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	flags := root.Flags()
	flags.StringVarP(&app.Host, "ollama-url", "o", "", "Ollama server host:port or URL (required)")
	flags.StringVarP(&app.Model, "model", "m", "", "Model name (required)")
	flags.StringVar(&app.Context, "context", "", "Initial context sent as a system message")
	flags.StringVar(&app.ContextFile, "context-file", "", "File holding the context; reloaded when it changes")
	flags.BoolVar(&app.Plain, "plain", false, "Use line mode instead of the full-screen UI")
	_ = root.MarkFlagRequired("ollama-url")
	_ = root.MarkFlagRequired("model")
	root.MarkFlagsMutuallyExclusive("context", "context-file")

	pflags := root.PersistentFlags()
	pflags.StringVar(&app.ConfigPath, "config", "", "Config file (default ~/.andes/config.toml)")
	pflags.BoolVarP(&app.Verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(
		newModelsCmd(app),
		newStatusCmd(app),
		newConfigCmd(app),
		newVersionCmd(app),
	)
	return root
}

// setup loads the config and builds the logger for cmd.
func (a *App) setup(cmd *cobra.Command) error {
	if cmd.Annotations[skipConfig] == "true" {
		a.cfg = config.Default()
	} else {
		cfg, err := config.Load(a.ConfigPath)
		if err != nil {
			return &ConfigError{Path: a.ConfigPath, Err: err}
		}
		a.cfg = cfg
	}

	opts := logging.Options{
		Level:   a.cfg.Log.Level,
		Verbose: a.Verbose,
	}
	switch {
	case cmd == cmd.Root() && a.fullScreen():
		// The terminal belongs to the UI; logs go to the file.
		opts.File = a.cfg.LogPath()
	case a.cfg.Log.File != "":
		opts.File = a.cfg.LogPath()
	case !a.Verbose:
		opts.Level = "warn"
	}

	logger, err := logging.New(opts)
	if err != nil {
		return &ConfigError{Path: a.ConfigPath, Err: err}
	}
	a.logger = logger.With(zap.String("cmd", cmd.Name()))
	return nil
}

func (a *App) fullScreen() bool {
	return !a.Plain && a.isTerminal()
}

// =============================================================================
// CHAT
// =============================================================================

func (a *App) runChat(parent context.Context) error {
	host, err := requireValue("--ollama-url", a.Host, "andes -o localhost:11434 -m llama3.2")
	if err != nil {
		return err
	}
	modelName, err := requireValue("--model", a.Model, "andes -o localhost:11434 -m llama3.2")
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := a.Config()
	logger := a.Logger()

	client := ollama.NewClient(&ollama.ClientConfig{
		BaseURL:     ollama.BaseURLFromHost(host),
		Timeout:     cfg.RequestTimeout(),
		StrictReply: cfg.Reply.Strict,
	})
	ctrl := session.New(session.Config{
		Client: client,
		Model:  modelName,
		Logger: logger,
	})
	ctrl.Store().SetContext(a.Context)

	logger.Info("chat.start",
		zap.String("host", client.BaseURL()),
		zap.String("model", modelName),
		zap.Bool("tui", a.fullScreen()),
		zap.Duration("timeout", cfg.RequestTimeout()),
	)

	if a.fullScreen() {
		return a.runTUI(ctx, ctrl, client, host)
	}
	return a.runREPL(ctx, ctrl, host)
}

// watchContext starts a watcher for --context-file. onChange receives every
// later version of the file. A nil watcher means no file was given.
func (a *App) watchContext(onChange func(string)) (*contextfile.Watcher, string, error) {
	if a.ContextFile == "" {
		return nil, "", nil
	}
	w, err := contextfile.New(a.ContextFile, onChange, a.Logger())
	if err != nil {
		return nil, "", NewUsageError("--context-file", a.ContextFile, err.Error(), "")
	}
	content, err := w.Start()
	if err != nil {
		_ = w.Close()
		return nil, "", NewUsageError("--context-file", a.ContextFile, err.Error(), "")
	}
	return w, content, nil
}

func (a *App) exportOptions() *export.Options {
	opts := export.DefaultOptions()
	opts.OutputDir = a.Config().ExportDir()
	return opts
}

func (a *App) runTUI(ctx context.Context, ctrl *session.Controller, client *ollama.Client, host string) error {
	cfg := a.Config()
	theme := styles.NewTheme(cfg.UI.Theme)

	var sampler sysinfo.Sampler
	if cfg.UI.ShowMetrics {
		sampler = sysinfo.Host{}
	}

	var program atomic.Pointer[tea.Program]
	w, initial, err := a.watchContext(func(content string) {
		if p := program.Load(); p != nil {
			p.Send(chat.ContextFileMsg{Content: content})
		}
	})
	if err != nil {
		return err
	}
	contextText := a.Context
	if w != nil {
		contextText = initial
		ctrl.Store().SetContext(initial)
	}

	m := chat.New(theme, chat.Options{
		Controller:    ctrl,
		Checker:       client,
		Sampler:       sampler,
		Context:       contextText,
		Host:          host,
		Version:       Version,
		Markdown:      cfg.UI.Markdown,
		ExportFormat:  cfg.Export.Format,
		ExportOptions: a.exportOptions(),
		Ctx:           ctx,
		Logger:        a.Logger(),
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	program.Store(p)
	if w != nil {
		defer w.Close()
	}

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (a *App) runREPL(ctx context.Context, ctrl *session.Controller, host string) error {
	cfg := a.Config()

	w, initial, err := a.watchContext(func(content string) {
		ctrl.Store().SetContext(content)
	})
	if err != nil {
		return err
	}
	if w != nil {
		defer w.Close()
		ctrl.Store().SetContext(initial)
	}

	var in LineReader
	if a.isTerminal() {
		in = a.newLineReader(cfg.HistoryPath())
	} else {
		in = NewScanReader(a.stdin)
	}
	defer in.Close()

	repl := NewREPL(REPLOptions{
		Controller:   ctrl,
		Input:        in,
		Output:       a.stdout,
		Host:         host,
		Markdown:     cfg.UI.Markdown && IsStdoutTTY(),
		Width:        GetTerminalWidth(),
		ExportFormat: cfg.Export.Format,
		ExportOpts:   a.exportOptions(),
		Logger:       a.Logger(),
	})
	return repl.Run(ctx)
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCmd(app *App) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			data := VersionData{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			if jsonOut {
				return NewJSONResponse("version", data).Print(cmd.OutOrStdout())
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "andes %s\n", data.Version)
			fmt.Fprintf(out, "  %s %s\n", RenderLabel("Commit:"), data.GitCommit)
			fmt.Fprintf(out, "  %s %s\n", RenderLabel("Built:"), data.BuildDate)
			fmt.Fprintf(out, "  %s %s\n", RenderLabel("Go:"), data.GoVersion)
			fmt.Fprintf(out, "  %s %s\n", RenderLabel("Platform:"), data.Platform)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// =============================================================================
// ENTRY POINT
// =============================================================================

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	app := NewApp()
	return app.Run(NewRootCmd(app))
}

// Run executes root, reports any error on stderr and returns the exit code.
func (a *App) Run(root *cobra.Command) int {
	cmd, err := root.ExecuteC()
	err = classifyError(err)
	if err != nil {
		DisplayError(a.stderr, err, jsonRequested(cmd))
	}
	return GetExitCode(err)
}

// classifyError turns cobra's argument and required-flag errors into usage
// errors.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, prefix := range []string{"required flag", "unknown command", "accepts ", "unknown shorthand", "if any flags in the group"} {
		if strings.HasPrefix(msg, prefix) {
			return &UsageError{Field: "arguments", Reason: msg}
		}
	}
	return err
}

// jsonRequested reports whether cmd was run with --json.
func jsonRequested(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	f := cmd.Flags().Lookup("json")
	return f != nil && f.Value.String() == "true"
}
