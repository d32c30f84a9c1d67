// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/petar-djukic/codestream/internal/agent"
	"github.com/petar-djukic/codestream/internal/events"
	gitpkg "github.com/petar-djukic/codestream/internal/git"
	"github.com/petar-djukic/codestream/internal/outline"
	"github.com/petar-djukic/codestream/internal/stream"
	"github.com/petar-djukic/codestream/internal/workspace"
	"github.com/petar-djukic/codestream/pkg/types"
)

// chatRequest is the body of both chat endpoints.
type chatRequest struct {
	Prompt    string            `json:"prompt"`
	Files     map[string]string `json:"files"`
	ProjectID projectID         `json:"projectId"`
}

// projectID accepts a JSON string or number.
type projectID string

func (p *projectID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = projectID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("projectId must be a string or number")
	}
	*p = projectID(n.String())
	return nil
}

// seed maps request files to canonical files. Each file may be keyed by
// its type ("html") or its canonical name ("index.html"); a non-empty
// type key wins.
func (r chatRequest) seed() types.Seed {
	pick := func(f types.CanonicalFile) string {
		if v := r.Files[string(f.Type)]; v != "" {
			return v
		}
		return r.Files[f.Name]
	}
	var s types.Seed
	for _, f := range types.CanonicalFiles {
		switch f.Name {
		case types.IndexHTML:
			s.HTML = pick(f)
		case types.FrontendJS:
			s.JS = pick(f)
		case types.StylesCSS:
			s.CSS = pick(f)
		}
	}
	return s
}

// bindChat decodes the request and resolves the seed. Without files, a
// project's saved files are used.
func (s *Server) bindChat(c *gin.Context) (agent.Request, bool) {
	var body chatRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return agent.Request{}, false
	}
	if strings.TrimSpace(body.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required"})
		return agent.Request{}, false
	}

	req := agent.Request{
		SessionID: requestID(c),
		Prompt:    body.Prompt,
		Seed:      body.seed(),
		ProjectID: string(body.ProjectID),
	}
	if s.cfg.Workspace == nil {
		req.ProjectID = ""
	}
	if body.Files == nil && req.ProjectID != "" {
		seed, err := s.cfg.Workspace.Load(req.ProjectID)
		if err != nil {
			s.writeProjectError(c, err)
			return agent.Request{}, false
		}
		req.Seed = seed
	}
	return req, true
}

func (s *Server) handleChatStream(c *gin.Context) {
	req, ok := s.bindChat(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()

	// The response is committed; failures are reported in-band or logged.
	_, err := s.cfg.Runner.Run(c.Request.Context(), req, events.NewEncoder(c.Writer))
	if err != nil {
		s.logger.Warn("stream session failed", "request_id", req.SessionID, "error", err)
	}
}

// chatResponse is the non-streaming reply.
type chatResponse struct {
	Messages     []string          `json:"messages"`
	ChangedFiles []changedFile     `json:"changedFiles"`
	Events       []events.Record   `json:"events"`
	Problems     []outline.Problem `json:"problems,omitempty"`
}

type changedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (s *Server) handleChat(c *gin.Context) {
	req, ok := s.bindChat(c)
	if !ok {
		return
	}

	resp := chatResponse{Messages: []string{}, Events: []events.Record{}}
	collect := stream.EmitterFunc(func(ev types.Event) error {
		rec, err := events.ToRecord(ev)
		if err != nil {
			return err
		}
		resp.Events = append(resp.Events, rec)
		if t, ok := ev.(types.AssistantText); ok {
			resp.Messages = append(resp.Messages, events.Sanitize(t.Text))
		}
		return nil
	})

	result, err := s.cfg.Runner.Run(c.Request.Context(), req, collect)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, stream.ErrUpstream) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": fmt.Sprintf("Agent error: %v", err)})
		return
	}

	resp.Problems = result.Problems
	for _, f := range types.CanonicalFiles {
		resp.ChangedFiles = append(resp.ChangedFiles, changedFile{
			Path:    f.Name,
			Content: result.Session.Files[f.Name],
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": s.cfg.History.Entries()})
}

func (s *Server) handleHistoryClear(c *gin.Context) {
	s.cfg.History.Clear()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleProjectFiles(c *gin.Context) {
	seed, err := s.cfg.Workspace.Load(c.Param("id"))
	if err != nil {
		s.writeProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, seed)
}

func (s *Server) handleProjectUndo(c *gin.Context) {
	if err := s.cfg.Workspace.Undo(c.Param("id")); err != nil {
		s.writeProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) writeProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workspace.ErrInvalidProject):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gitpkg.ErrNoGit):
		c.JSON(http.StatusNotFound, gin.H{"error": "project has no history"})
	case errors.Is(err, gitpkg.ErrNotCodestreamCommit):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.logger.Error("project operation failed", "project", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
