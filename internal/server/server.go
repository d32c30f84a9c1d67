// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package server exposes edit sessions over HTTP with gin. The streaming
// endpoint writes one NDJSON record per event and flushes after each.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/petar-djukic/codestream/internal/agent"
	"github.com/petar-djukic/codestream/internal/history"
	"github.com/petar-djukic/codestream/internal/stream"
	"github.com/petar-djukic/codestream/internal/workspace"
)

const (
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second
)

// Runner executes one edit request; *agent.Runner implements it.
type Runner interface {
	Run(ctx context.Context, req agent.Request, out stream.Emitter) (*agent.RunResult, error)
}

// Config wires the server's dependencies.
type Config struct {
	Runner      Runner               // Required
	History     *history.Ring        // nil disables the history routes
	Workspace   *workspace.Workspace // nil disables the project routes
	Gatherer    prometheus.Gatherer  // nil uses prometheus.DefaultGatherer
	Logger      *slog.Logger
	ServiceName string // otel service name (default "codestream")
}

// Server is the HTTP front end.
type Server struct {
	cfg    Config
	logger *slog.Logger
	engine *gin.Engine
}

// New builds the router.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "codestream"
	}

	s := &Server{cfg: cfg, logger: cfg.Logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(s.requestLogger())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.POST("/agent-chat/stream", s.handleChatStream)
	api.POST("/agent-chat", s.handleChat)
	if cfg.History != nil {
		api.GET("/agent-history", s.handleHistory)
		api.POST("/agent-history/clear", s.handleHistoryClear)
	}
	if cfg.Workspace != nil {
		api.GET("/projects/:id/files", s.handleProjectFiles)
		api.POST("/projects/:id/undo", s.handleProjectUndo)
	}

	s.engine = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// requestLogger assigns a request ID and logs each request with slog.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", id)
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDHeader)
}
