// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package agent runs one edit request end to end: prompt construction,
// LLM streaming, event reconstruction, and persistence of the final files.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/petar-djukic/codestream/internal/filestore"
	"github.com/petar-djukic/codestream/internal/history"
	"github.com/petar-djukic/codestream/internal/llm"
	"github.com/petar-djukic/codestream/internal/metrics"
	"github.com/petar-djukic/codestream/internal/outline"
	"github.com/petar-djukic/codestream/internal/stream"
	"github.com/petar-djukic/codestream/internal/workspace"
	"github.com/petar-djukic/codestream/pkg/types"
)

// ErrPersist wraps a failure to save the final files after a clean stream.
var ErrPersist = errors.New("persisting session result")

// Deps holds injected dependencies for the runner.
type Deps struct {
	LLM          llm.Streamer         // Required
	Workspace    *workspace.Workspace // nil disables persistence
	History      history.Log          // nil discards
	Metrics      *metrics.Metrics     // nil records nothing
	Outline      *outline.Analyzer    // nil skips the outline and syntax checks
	Logger       *slog.Logger
	SystemPrompt string // Rendered from the default template when empty
}

// Request is one edit request.
type Request struct {
	SessionID string     // Generated when empty
	Prompt    string     // User instruction
	Seed      types.Seed // Current file contents
	ProjectID string     // Workspace project; empty skips persistence
}

// RunResult holds the outcome of a Runner.Run invocation.
type RunResult struct {
	Session  *stream.Result
	Usage    types.TokenUsage
	Retries  int
	Problems []outline.Problem    // Syntax errors in changed files
	Saved    *workspace.SaveResult // nil when nothing was persisted
}

// Runner executes edit requests. It is safe for concurrent use; each Run
// owns its own session.
type Runner struct {
	deps   Deps
	system string
	logger *slog.Logger
}

// NewRunner creates a Runner with the given dependencies.
func NewRunner(deps Deps) (*Runner, error) {
	if deps.LLM == nil {
		return nil, fmt.Errorf("agent: LLM streamer is required")
	}

	system := deps.SystemPrompt
	if system == "" {
		var err error
		system, err = llm.RenderSystemPrompt(llm.DefaultTemplateData())
		if err != nil {
			return nil, fmt.Errorf("rendering system prompt: %w", err)
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{deps: deps, system: system, logger: logger}, nil
}

// Run streams the LLM response for req into out. Files are persisted only
// when the stream finished cleanly and at least one file changed. On an
// upstream failure the returned error wraps stream.ErrUpstream and the
// client has already received one error event.
func (r *Runner) Run(ctx context.Context, req Request, out stream.Emitter) (*RunResult, error) {
	finish := r.deps.Metrics.SessionStarted()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session := stream.NewSession(stream.Config{
		ID:      req.SessionID,
		Seed:    req.Seed,
		Prompt:  req.Prompt,
		History: r.deps.History,
		Logger:  r.logger,
	})
	logger := r.logger.With("session_id", session.ID(), "project", req.ProjectID)
	logger.Info("session started", "prompt_bytes", len(req.Prompt))

	snapshot := filestore.New(req.Seed).Snapshot()
	messages := llm.ConstructMessages(llm.FilesFromSnapshot(snapshot), req.Prompt)
	if text := r.outlineText(ctx, snapshot); text != "" {
		messages = append([]types.Message{{Role: types.RoleUser, Content: text}}, messages...)
	}
	tokens, results := r.deps.LLM.SendPrompt(ctx, r.system, messages)
	src := stream.FromChannel(tokens, results)

	observed := stream.EmitterFunc(func(ev types.Event) error {
		r.deps.Metrics.ObserveEvent(ev)
		return out.Emit(ev)
	})

	sessionResult, err := session.Run(ctx, src, observed)
	result := &RunResult{Session: sessionResult}
	if resp := src.Response(); resp != nil {
		result.Usage = resp.Usage
		result.Retries = resp.Retries
	}

	if err != nil {
		finish(status(err))
		logger.Warn("session ended early", "error", err)
		return result, err
	}

	result.Problems = r.check(ctx, sessionResult)
	if len(result.Problems) > 0 {
		logger.Warn("edited files have syntax errors", "problems", result.Problems)
	}

	if err := r.persist(req, result); err != nil {
		finish(metrics.StatusPersistFail)
		logger.Error("persist failed", "error", err)
		return result, err
	}

	finish(metrics.StatusOK)
	logger.Info("session finished",
		"changed", sessionResult.Changed,
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens)
	return result, nil
}

func (r *Runner) persist(req Request, result *RunResult) error {
	if r.deps.Workspace == nil || req.ProjectID == "" || len(result.Session.Changed) == 0 {
		return nil
	}
	saved, err := r.deps.Workspace.Save(req.ProjectID, result.Session.Files, result.Session.Changed, req.Prompt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	result.Saved = saved
	return nil
}

// outlineText renders the symbol outline of the seed files.
func (r *Runner) outlineText(ctx context.Context, files map[string]string) string {
	if r.deps.Outline == nil {
		return ""
	}
	report, err := r.deps.Outline.Analyze(ctx, files)
	if err != nil {
		r.logger.Debug("outline skipped", "error", err)
		return ""
	}
	return outline.Render(report, outline.RenderConfig{})
}

// check parses the changed files and returns their syntax problems.
func (r *Runner) check(ctx context.Context, res *stream.Result) []outline.Problem {
	if r.deps.Outline == nil || len(res.Changed) == 0 {
		return nil
	}
	changed := make(map[string]string, len(res.Changed))
	for _, name := range res.Changed {
		changed[name] = res.Files[name]
	}
	report, err := r.deps.Outline.Analyze(ctx, changed)
	if err != nil {
		r.logger.Debug("syntax check skipped", "error", err)
		return nil
	}
	return report.Problems
}

func status(err error) string {
	switch {
	case errors.Is(err, stream.ErrUpstream):
		return metrics.StatusUpstream
	case errors.Is(err, stream.ErrEmit):
		return metrics.StatusDisconnect
	default:
		return metrics.StatusFailed
	}
}
