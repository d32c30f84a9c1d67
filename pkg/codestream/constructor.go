// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package codestream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petar-djukic/codestream/internal/agent"
	"github.com/petar-djukic/codestream/internal/events"
	"github.com/petar-djukic/codestream/internal/history"
	"github.com/petar-djukic/codestream/internal/llm"
	"github.com/petar-djukic/codestream/internal/metrics"
	"github.com/petar-djukic/codestream/internal/outline"
	"github.com/petar-djukic/codestream/internal/server"
	"github.com/petar-djukic/codestream/internal/workspace"
)

const (
	defaultMaxTokens  = 4096
	defaultLLMTimeout = 5 * time.Minute
)

// Service runs edit sessions. It is safe for concurrent use.
type Service struct {
	runner    *agent.Runner
	server    *server.Server
	history   *history.Ring
	workspace *workspace.Workspace
}

// New validates the config, initializes the LLM client for the configured
// provider, and returns a ready-to-use Service. No network call is made.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	applyDefaults(&cfg)

	streamer, err := newStreamer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMFailure, err)
	}
	return newService(cfg, streamer)
}

func newStreamer(ctx context.Context, cfg Config) (llm.Streamer, error) {
	if cfg.Provider == ProviderOpenAI {
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.OpenAIBaseURL,
			Timeout:   cfg.Timeout,
			MaxTokens: cfg.MaxTokens,
		})
	}
	return llm.NewClient(ctx, llm.ClientConfig{
		ModelID:   cfg.Model,
		Region:    cfg.Region,
		Profile:   cfg.Profile,
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
	})
}

// newService wires the components around an already constructed streamer.
func newService(cfg Config, streamer llm.Streamer) (*Service, error) {
	ring := history.NewRing(cfg.HistoryLimit)

	var ws *workspace.Workspace
	if cfg.WorkspaceDir != "" {
		ws = workspace.New(workspace.Config{
			Root:        cfg.WorkspaceDir,
			AutoCommit:  cfg.AutoCommit,
			DirtyCommit: cfg.DirtyCommit,
			Logger:      cfg.Logger,
		})
	}

	runner, err := agent.NewRunner(agent.Deps{
		LLM:       streamer,
		Workspace: ws,
		History:   ring,
		Metrics:   metrics.New(cfg.Registerer),
		Outline:   outline.NewAnalyzer(),
		Logger:    cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	srv := server.New(server.Config{
		Runner:    runner,
		History:   ring,
		Workspace: ws,
		Gatherer:  cfg.Gatherer,
		Logger:    cfg.Logger,
	})
	return &Service{runner: runner, server: srv, history: ring, workspace: ws}, nil
}

// Edit runs one session and writes its events to out as NDJSON.
func (s *Service) Edit(ctx context.Context, req EditRequest, out io.Writer) (*EditResult, error) {
	rr, err := s.runner.Run(ctx, agent.Request{
		Prompt:    req.Prompt,
		Seed:      req.Seed,
		ProjectID: req.ProjectID,
	}, events.NewEncoder(out))
	if rr == nil || rr.Session == nil {
		return &EditResult{}, err
	}
	res := &EditResult{
		SessionID: rr.Session.SessionID,
		Files:     rr.Session.Files,
		Changed:   rr.Session.Changed,
		Stats:     rr.Session.Stats,
		Usage:     rr.Usage,
		Problems:  rr.Problems,
	}
	if rr.Saved != nil {
		res.Commit = rr.Saved.Commit
	}
	return res, err
}

// Undo reverts the last session commit of a project.
func (s *Service) Undo(projectID string) error {
	if s.workspace == nil {
		return fmt.Errorf("%w: no workspace directory configured", ErrInvalidConfig)
	}
	return s.workspace.Undo(projectID)
}

// History returns the interaction log, oldest first.
func (s *Service) History() []history.Entry {
	return s.history.Entries()
}

// Handler returns the HTTP handler serving the chat API.
func (s *Service) Handler() http.Handler {
	return s.server.Handler()
}

// ListenAndServe serves the chat API on addr until ctx is cancelled.
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	return s.server.ListenAndServe(ctx, addr)
}

// validateConfig checks that required fields are present.
func validateConfig(cfg Config) error {
	switch cfg.Provider {
	case "", ProviderBedrock:
		if cfg.Region == "" {
			return fmt.Errorf("Region is required for the bedrock provider")
		}
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return fmt.Errorf("OpenAIAPIKey is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if cfg.Model == "" {
		return fmt.Errorf("Model is required")
	}
	if cfg.MaxTokens < 0 {
		return fmt.Errorf("MaxTokens must not be negative")
	}
	if cfg.Registerer != nil && cfg.Gatherer == nil {
		return fmt.Errorf("Gatherer is required when Registerer is set")
	}
	return nil
}

// applyDefaults fills in zero-value fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderBedrock
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultLLMTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Registerer == nil {
		reg := prometheus.NewRegistry()
		cfg.Registerer, cfg.Gatherer = reg, reg
	}
}
