// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package stream reconstructs discrete edit events from a raw LLM token
// stream. A Session owns the tokenizer buffer, the edit state machine and
// the in-memory file store for exactly one request.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/petar-djukic/codestream/internal/diffstat"
	"github.com/petar-djukic/codestream/internal/events"
	"github.com/petar-djukic/codestream/internal/filestore"
	"github.com/petar-djukic/codestream/internal/history"
	"github.com/petar-djukic/codestream/internal/linebuf"
	"github.com/petar-djukic/codestream/pkg/types"
)

const tracerName = "github.com/petar-djukic/codestream/internal/stream"

var (
	// ErrUpstream wraps a failure of the chunk source.
	ErrUpstream = errors.New("upstream stream failed")

	// ErrEmit wraps a failure to deliver an event downstream.
	ErrEmit = errors.New("emitting event")
)

// Emitter receives events in production order.
type Emitter interface {
	Emit(types.Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(types.Event) error

// Emit calls f(ev).
func (f EmitterFunc) Emit(ev types.Event) error { return f(ev) }

// Config configures a Session.
type Config struct {
	ID      string      // Session ID (generated if empty)
	Seed    types.Seed  // Initial file contents
	Prompt  string      // User prompt, recorded to History when non-empty
	History history.Log // Interaction log (nil discards)
	Logger  *slog.Logger
}

// Result is the state of the session when Run returns.
type Result struct {
	SessionID string
	Files     map[string]string          // Final content per canonical filename
	Initial   map[string]string          // Seed content per canonical filename
	Changed   []string                   // Files whose content differs from the seed, in scan order
	Stats     map[string]types.DiffStats // Cumulative diff stats per filename
}

// Session processes one request's stream. It is not safe for concurrent
// use; sessions never share mutable state.
type Session struct {
	id      string
	tok     linebuf.Tokenizer
	store   *filestore.Store
	stats   *diffstat.Tracker
	machine *Machine
	initial map[string]string
	prompt  string
	history history.Log
	logger  *slog.Logger
}

// NewSession creates a session seeded from cfg.
func NewSession(cfg Config) *Session {
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session_id", id)

	hist := cfg.History
	if hist == nil {
		hist = history.Discard
	}

	store := filestore.New(cfg.Seed)
	stats := diffstat.NewTracker()
	return &Session{
		id:      id,
		store:   store,
		stats:   stats,
		machine: NewMachine(store, stats, logger),
		initial: store.Snapshot(),
		prompt:  cfg.Prompt,
		history: hist,
		logger:  logger,
	}
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Run consumes src until it is exhausted and delivers events to out. There
// is one suspension point: waiting on src.Next.
//
// If src fails, the open block is discarded, a single EditFailed carrying
// the error is emitted and Run returns an error wrapping ErrUpstream. If out
// fails, Run stops and returns an error wrapping ErrEmit. The Result is
// returned in every case and reflects only edits completed before the
// stop; callers persist it only when err is nil.
func (s *Session) Run(ctx context.Context, src ChunkSource, out Emitter) (*Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "stream.Session.Run")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", s.id))

	if s.prompt != "" {
		s.history.Append(history.Entry{Role: types.RoleUser, Content: s.prompt})
	}

	err := s.run(ctx, src, out)
	result := s.result()
	span.SetAttributes(
		attribute.Int("session.changed_files", len(result.Changed)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}
	return result, nil
}

func (s *Session) run(ctx context.Context, src ChunkSource, out Emitter) error {
	chunks := 0
	for {
		chunk, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.logger.Error("stream error", "error", err, "chunks", chunks, "state", s.machine.State().String())
			s.machine.Abort()
			if emitErr := s.emit(out, types.EditFailed{Message: err.Error()}); emitErr != nil {
				return emitErr
			}
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		chunks++

		for _, line := range s.tok.Feed(chunk) {
			if err := s.emitAll(out, s.machine.Consume(line)); err != nil {
				return err
			}
		}
	}

	s.logger.Debug("stream exhausted", "chunks", chunks, "pending_bytes", s.tok.Pending())
	return s.emitAll(out, s.machine.Finish(s.tok.Flush()))
}

func (s *Session) emitAll(out Emitter, evs []types.Event) error {
	for _, ev := range evs {
		if err := s.emit(out, ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) emit(out Emitter, ev types.Event) error {
	if t, ok := ev.(types.AssistantText); ok {
		s.history.Append(history.Entry{Role: types.RoleAssistant, Content: events.Sanitize(t.Text)})
	}
	if err := out.Emit(ev); err != nil {
		s.logger.Warn("emit failed", "state", string(ev.State()), "error", err)
		return fmt.Errorf("%w: %v", ErrEmit, err)
	}
	return nil
}

func (s *Session) result() *Result {
	files := s.store.Snapshot()
	var changed []string
	for _, f := range s.store.Files() {
		if files[f.Name] != s.initial[f.Name] {
			changed = append(changed, f.Name)
		}
	}
	return &Result{
		SessionID: s.id,
		Files:     files,
		Initial:   s.initial,
		Changed:   changed,
		Stats:     s.stats.Totals(),
	}
}
