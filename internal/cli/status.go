// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Server inspection commands for andes.
//
// Command: status
// Short:   Check the server, the model and local resources
//
// Command: models
// Short:   List the models installed on the server
//
// Examples:
//
//	andes status -o localhost:11434 -m llama3.2
//	andes status -o localhost:11434 --json
//	andes models -o localhost:11434
package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/andes/internal/ollama"
	"github.com/jeranaias/andes/internal/sysinfo"
	"github.com/jeranaias/andes/internal/util"
)

// inspectTimeout bounds each request made by the inspection commands.
const inspectTimeout = 10 * time.Second

// serverClient is the part of the Ollama client used by the inspection
// commands.
type serverClient interface {
	CheckRunning(ctx context.Context) error
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
}

// inspectFlags are shared by status and models.
type inspectFlags struct {
	host    string
	jsonOut bool
}

func (f *inspectFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.host, "ollama-url", "o", "", "Ollama server host:port or URL (required)")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("ollama-url")
}

func (f *inspectFlags) client(app *App) (serverClient, string, error) {
	host, err := requireValue("--ollama-url", f.host, "andes status -o localhost:11434")
	if err != nil {
		return nil, "", err
	}
	c := ollama.NewClient(&ollama.ClientConfig{
		BaseURL:     ollama.BaseURLFromHost(host),
		Timeout:     inspectTimeout,
		StrictReply: app.Config().Reply.Strict,
	})
	return c, c.BaseURL(), nil
}

// =============================================================================
// MODELS
// =============================================================================

func newModelsCmd(app *App) *cobra.Command {
	var flags inspectFlags
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models installed on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := flags.client(app)
			if err != nil {
				return err
			}
			return runModels(cmd.Context(), client, cmd.OutOrStdout(), flags.jsonOut, app.Logger())
		},
	}
	flags.bind(cmd)
	return cmd
}

func runModels(ctx context.Context, client serverClient, out io.Writer, jsonOut bool, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return OutputJSON(out, jsonOut, "models", func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, inspectTimeout)
		defer cancel()

		models, err := client.ListModels(ctx)
		if err != nil {
			logger.Warn("models.list_failed", zap.Error(err))
			return nil, err
		}
		sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })

		data := make([]ModelData, 0, len(models))
		for i := range models {
			m := &models[i]
			d := ModelData{
				Name:          m.Name,
				Size:          m.Size,
				SizeHuman:     m.FormatSize(),
				Family:        m.Details.Family,
				ParameterSize: m.Details.ParameterSize,
				Quantization:  m.Details.QuantizationLevel,
			}
			if !m.ModifiedAt.IsZero() {
				d.ModifiedAt = m.ModifiedAt.UTC().Format(time.RFC3339)
			}
			data = append(data, d)
		}

		if !jsonOut {
			printModels(out, models, time.Now())
		}
		return data, nil
	})
}

func printModels(out io.Writer, models []ollama.ModelInfo, now time.Time) {
	if len(models) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No models installed. Pull one with: ollama pull llama3.2"))
		return
	}

	nameWidth := len("NAME")
	for _, m := range models {
		nameWidth = max(nameWidth, util.StringWidth(m.Name))
	}
	nameWidth = min(nameWidth, 40)

	header := fmt.Sprintf("%s  %-9s  %-10s  %-7s  %-8s  %s",
		util.PadRight("NAME", nameWidth), "SIZE", "FAMILY", "PARAMS", "QUANT", "MODIFIED")
	fmt.Fprintln(out, TitleStyle.Render(header))
	for i := range models {
		m := &models[i]
		fmt.Fprintf(out, "%s  %-9s  %-10s  %-7s  %-8s  %s\n",
			util.PadRight(util.TruncateWidth(m.Name, nameWidth), nameWidth),
			m.FormatSize(),
			orDash(m.Details.Family),
			orDash(m.Details.ParameterSize),
			orDash(m.Details.QuantizationLevel),
			DimStyle.Render(formatAge(m.ModifiedAt, now)),
		)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// =============================================================================
// STATUS
// =============================================================================

func newStatusCmd(app *App) *cobra.Command {
	var flags inspectFlags
	var modelName string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the server, the model and local resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, baseURL, err := flags.client(app)
			if err != nil {
				return err
			}
			return runStatus(cmd.Context(), statusInput{
				client:  client,
				host:    baseURL,
				model:   modelName,
				sampler: sysinfo.Host{},
				out:     cmd.OutOrStdout(),
				jsonOut: flags.jsonOut,
				logger:  app.Logger(),
			})
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVarP(&modelName, "model", "m", "", "Also check that this model is installed")
	return cmd
}

type statusInput struct {
	client  serverClient
	host    string
	model   string
	sampler sysinfo.Sampler
	out     io.Writer
	jsonOut bool
	logger  *zap.Logger
}

// runStatus reports on the server. An unreachable server or a missing
// model is returned as an error after the report is printed.
func runStatus(ctx context.Context, in statusInput) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return OutputJSON(in.out, in.jsonOut, "status", func() (interface{}, error) {
		data := StatusData{Host: in.host, Model: in.model}

		if in.sampler != nil {
			if snap, err := in.sampler.Sample(); err == nil {
				data.CPUPercent = snap.CPUPercent
				data.MemPercent = snap.MemPercent
				data.MemUsedGB = snap.MemUsedGB
				data.MemTotalGB = snap.MemTotalGB
			} else {
				in.logger.Debug("status.sample_failed", zap.Error(err))
			}
		}

		ctx, cancel := context.WithTimeout(ctx, inspectTimeout)
		defer cancel()

		var result error
		if err := in.client.CheckRunning(ctx); err != nil {
			data.Error = ollama.Describe(err)
			result = err
		} else {
			data.Reachable = true
			models, err := in.client.ListModels(ctx)
			if err != nil {
				data.Error = ollama.Describe(err)
				result = err
			} else {
				data.Models = len(models)
				if in.model != "" {
					_, found := findModel(models, in.model)
					data.ModelFound = &found
					if !found {
						result = &ollama.ClientError{
							Type:    ollama.ErrTypeModelNotFound,
							Message: fmt.Sprintf("model %q is not installed", in.model),
						}
					}
				}
			}
		}

		if !in.jsonOut {
			printStatus(in.out, data)
		}
		if result != nil {
			return nil, result
		}
		return data, nil
	})
}

func printStatus(out io.Writer, d StatusData) {
	fmt.Fprintln(out, TitleStyle.Render("andes status"))
	fmt.Fprintln(out, RenderSeparator(40))

	server := "reachable"
	if !d.Reachable {
		server = "unreachable"
		if d.Error != "" {
			server += " (" + d.Error + ")"
		}
	}
	fmt.Fprintf(out, "%s %s %s\n", RenderLabel("Server:"), RenderStatus(d.Reachable), ValueStyle.Render(d.Host))
	fmt.Fprintf(out, "%s %s\n", RenderLabel(""), DimStyle.Render(server))

	if d.Reachable {
		fmt.Fprintf(out, "%s %d installed\n", RenderLabel("Models:"), d.Models)
	}
	if d.ModelFound != nil {
		state := "installed"
		if !*d.ModelFound {
			state = "not installed"
		}
		fmt.Fprintf(out, "%s %s %s (%s)\n", RenderLabel("Model:"), RenderStatus(*d.ModelFound), d.Model, state)
	}

	fmt.Fprintf(out, "%s %s %3.0f%%\n", RenderLabel("CPU:"), sysinfo.Bar(d.CPUPercent, 20), d.CPUPercent)
	fmt.Fprintf(out, "%s %s %3.0f%% %s\n", RenderLabel("Memory:"), sysinfo.Bar(d.MemPercent, 20), d.MemPercent,
		DimStyle.Render(fmt.Sprintf("(%.1f / %.1f GB)", d.MemUsedGB, d.MemTotalGB)))
}
