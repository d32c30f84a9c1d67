// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package outline

import (
	"fmt"
	"strings"
)

const (
	defaultTokenRatio  = 0.25
	defaultTokenBudget = 1024
	maxLineLength      = 100
)

// RenderConfig configures outline rendering.
type RenderConfig struct {
	TokenBudget float64 // Maximum tokens for the outline (default 1024)
	TokenRatio  float64 // Tokens per character (default 0.25)
}

// Render produces the outline text for LLM context, one section per file,
// adding files until the token budget is reached. It returns "" when the
// report has no symbols.
func Render(r *Report, cfg RenderConfig) string {
	if r == nil || len(r.Symbols) == 0 {
		return ""
	}
	budget := cfg.TokenBudget
	if budget == 0 {
		budget = defaultTokenBudget
	}
	ratio := cfg.TokenRatio
	if ratio == 0 {
		ratio = defaultTokenRatio
	}

	var order []string
	byFile := make(map[string][]Symbol)
	for _, s := range r.Symbols {
		if _, ok := byFile[s.File]; !ok {
			order = append(order, s.File)
		}
		byFile[s.File] = append(byFile[s.File], s)
	}

	var buf strings.Builder
	buf.WriteString("## File Outline\n\n")
	used := float64(buf.Len()) * ratio

	for _, file := range order {
		var section strings.Builder
		section.WriteString(file + "\n")
		for _, s := range byFile[file] {
			line := fmt.Sprintf("  %d: %s %s", s.Line, s.Kind, s.Name)
			if len(line) > maxLineLength {
				line = line[:maxLineLength-3] + "..."
			}
			section.WriteString(line + "\n")
		}

		cost := float64(section.Len()) * ratio
		if used+cost > budget {
			break
		}
		buf.WriteString(section.String())
		used += cost
	}
	return buf.String()
}
