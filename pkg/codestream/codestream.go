// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package codestream is the public entry point for running streaming
// front-end edit sessions. A Service owns the LLM client, the project
// workspace, the interaction history, and the HTTP front end.
package codestream

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petar-djukic/codestream/internal/outline"
	"github.com/petar-djukic/codestream/pkg/types"
)

// Error types for the codestream API.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLLMFailure    = errors.New("LLM client setup failed")
)

// LLM providers.
const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
)

// Config configures a Service.
type Config struct {
	Provider      string        // "bedrock" (default) or "openai"
	Model         string        // Model ID (required)
	Region        string        // AWS region (required for bedrock)
	Profile       string        // AWS credential profile (optional)
	OpenAIAPIKey  string        // API key (required for openai)
	OpenAIBaseURL string        // OpenAI-compatible endpoint override (optional)
	MaxTokens     int           // Maximum tokens for the LLM response (default 4096)
	Timeout       time.Duration // LLM request timeout (default 5m)

	WorkspaceDir string // Parent directory of projects; empty disables persistence
	AutoCommit   bool   // Commit every saved session
	DirtyCommit  bool   // Commit manual edits before a save
	HistoryLimit int    // Interaction history entries kept (default 1000)

	Registerer prometheus.Registerer // Metrics registry (default: a private registry)
	Gatherer   prometheus.Gatherer   // Served on /metrics; must match Registerer when set
	Logger     *slog.Logger
}

// EditRequest is one edit instruction against the three front-end files.
type EditRequest struct {
	Prompt    string
	Seed      types.Seed
	ProjectID string // Optional; persists the result when the service has a workspace
}

// EditResult holds the outcome of Service.Edit.
type EditResult struct {
	SessionID string
	Files     map[string]string          // Final content per canonical filename
	Changed   []string                   // Files that differ from the seed, in scan order
	Stats     map[string]types.DiffStats // Cumulative per-file diff stats
	Usage     types.TokenUsage           // Tokens consumed
	Commit    string                     // Commit hash when the result was committed
	Problems  []outline.Problem          // Syntax errors found in changed files
}
