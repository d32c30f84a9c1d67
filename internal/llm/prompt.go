// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/petar-djukic/codestream/pkg/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TemplateData holds the values injected into the system prompt template.
type TemplateData struct {
	Files []string // Editable filenames, in scan order
	Extra string   // Operator instructions appended verbatim (optional)
}

// DefaultTemplateData lists the canonical files.
func DefaultTemplateData() TemplateData {
	names := make([]string, 0, len(types.CanonicalFiles))
	for _, f := range types.CanonicalFiles {
		names = append(names, f.Name)
	}
	return TemplateData{Files: names}
}

// RenderSystemPrompt renders the system prompt template with the given data.
func RenderSystemPrompt(data TemplateData) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/system.tmpl")
	if err != nil {
		return "", fmt.Errorf("parsing system template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing system template: %w", err)
	}

	return buf.String(), nil
}

// ConstructMessages builds the provider-neutral conversation for one edit
// request. The message order is:
//  1. User message with the current file contents
//  2. User message with the task
//
// Files with empty content are listed so the model knows they exist.
func ConstructMessages(files []types.FileContent, userPrompt string) []types.Message {
	var messages []types.Message

	if len(files) > 0 {
		var buf strings.Builder
		buf.WriteString("## Current Files\n\n")
		for _, f := range files {
			buf.WriteString(formatFileContent(f))
			buf.WriteString("\n")
		}
		messages = append(messages, types.Message{Role: types.RoleUser, Content: buf.String()})
	}

	messages = append(messages, types.Message{Role: types.RoleUser, Content: userPrompt})
	return messages
}

// formatFileContent writes a file as filename line plus fence, the same
// shape the model is asked to answer in. Line numbers are omitted so the
// model copies SEARCH text verbatim.
func formatFileContent(f types.FileContent) string {
	var buf strings.Builder
	buf.WriteString(f.Path)
	buf.WriteString("\n```")
	buf.WriteString(string(f.Type))
	buf.WriteString("\n")
	if f.Content != "" {
		buf.WriteString(f.Content)
		if !strings.HasSuffix(f.Content, "\n") {
			buf.WriteString("\n")
		}
	}
	buf.WriteString("```\n")
	return buf.String()
}

// FilesFromSnapshot lists a store snapshot as prompt files in scan order.
func FilesFromSnapshot(snapshot map[string]string) []types.FileContent {
	files := make([]types.FileContent, 0, len(types.CanonicalFiles))
	for _, f := range types.CanonicalFiles {
		files = append(files, types.FileContent{Path: f.Name, Type: f.Type, Content: snapshot[f.Name]})
	}
	return files
}
