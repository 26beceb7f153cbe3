// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared helper functions used across multiple CLI commands.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/andes/internal/ollama"
)

// formatAge formats how long ago t was, e.g. "3d ago".
func formatAge(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// modelMatches reports whether an installed model name satisfies the
// requested name. A request without a tag matches the ":latest" tag.
func modelMatches(installed, requested string) bool {
	if installed == requested {
		return true
	}
	if !strings.Contains(requested, ":") {
		return installed == requested+":latest"
	}
	return false
}

// findModel returns the installed model matching name.
func findModel(models []ollama.ModelInfo, name string) (ollama.ModelInfo, bool) {
	for _, m := range models {
		if modelMatches(m.Name, name) {
			return m, true
		}
	}
	return ollama.ModelInfo{}, false
}

// requireValue rejects a flag value that is empty after trimming.
func requireValue(flag, value, example string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", NewUsageError(flag, value, "must not be empty", example)
	}
	return v, nil
}
