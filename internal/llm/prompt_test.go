// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"strings"
	"testing"

	"github.com/petar-djukic/codestream/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSystemPrompt(t *testing.T) {
	tests := []struct {
		name     string
		data     TemplateData
		contains []string
		excludes []string
	}{
		{
			name: "includes edit format markers",
			data: DefaultTemplateData(),
			contains: []string{
				"<<<<<<< SEARCH",
				"=======",
				">>>>>>> REPLACE",
			},
		},
		{
			name:     "lists files in scan order",
			data:     DefaultTemplateData(),
			contains: []string{"index.html, frontend.js, styles.css"},
			excludes: []string{"<no value>"},
		},
		{
			name:     "appends extra instructions",
			data:     TemplateData{Files: []string{"index.html"}, Extra: "Prefer semantic HTML."},
			contains: []string{"Prefer semantic HTML."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderSystemPrompt(tt.data)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, result, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, result, s)
			}
		})
	}
}

func TestConstructMessages(t *testing.T) {
	files := []types.FileContent{
		{Path: types.IndexHTML, Type: types.FileHTML, Content: "<p>hi</p>"},
		{Path: types.StylesCSS, Type: types.FileCSS, Content: ""},
	}

	msgs := ConstructMessages(files, "make it blue")

	require.Len(t, msgs, 2)
	assert.Equal(t, types.RoleUser, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "index.html\n```html\n<p>hi</p>\n```\n")
	assert.Contains(t, msgs[0].Content, "styles.css\n```css\n```\n")
	assert.NotContains(t, msgs[0].Content, "│")
	assert.Equal(t, types.Message{Role: types.RoleUser, Content: "make it blue"}, msgs[1])
}

func TestConstructMessages_NoFiles(t *testing.T) {
	msgs := ConstructMessages(nil, "hello")
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
}

func TestFilesFromSnapshot(t *testing.T) {
	files := FilesFromSnapshot(map[string]string{types.FrontendJS: "x()"})

	require.Len(t, files, 3)
	var names []string
	for _, f := range files {
		names = append(names, f.Path)
	}
	assert.Equal(t, "index.html,frontend.js,styles.css", strings.Join(names, ","))
	assert.Equal(t, "x()", files[1].Content)
	assert.Equal(t, types.FileJS, files[1].Type)
}
