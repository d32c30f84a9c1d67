// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package events

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/petar-djukic/codestream/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var css = types.CanonicalFile{Name: types.StylesCSS, Type: types.FileCSS}

func TestEncoder_WireShapes(t *testing.T) {
	tests := []struct {
		name string
		ev   types.Event
		want string
	}{
		{
			name: "restate",
			ev:   types.AssistantText{Text: "I'll make the text blue.\n"},
			want: `{"state":"restate","data":{"restate":"I'll make the text blue.\n"}}`,
		},
		{
			name: "signpost",
			ev:   types.EditStarted{Target: css},
			want: `{"state":"signpost","data":{"signpost":"","target_files":["css"]}}`,
		},
		{
			name: "tool progress",
			ev:   types.EditProgress{FileName: types.StylesCSS, Line: "Updating the color"},
			want: `{"state":"tool_progress","data":{"filename":"styles.css","content":"Updating the color"}}`,
		},
		{
			name: "tool result",
			ev: types.EditCompleted{
				Target:  css,
				Stats:   types.DiffStats{Additions: 1, Deletions: 1},
				Content: "body{color:blue}",
			},
			want: `{"state":"tool_result","data":{"target_files":["css"],"diff_stats":{"css":{"additions":1,"deletions":1}},"filename":"styles.css","updated_content":"body{color:blue}"}}`,
		},
		{
			name: "error",
			ev:   types.EditFailed{Message: "edit_fail: SEARCH block did not match any open files"},
			want: `{"state":"error","data":{"message":"edit_fail: SEARCH block did not match any open files"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewEncoder(&buf).Emit(tt.ev))
			assert.Equal(t, tt.want+"\n", buf.String())
		})
	}
}

func TestEncoder_PreservesOrderOneRecordPerLine(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Emit(types.AssistantText{Text: "a\nb"}))
	require.NoError(t, enc.Emit(types.EditStarted{Target: css}))
	require.NoError(t, enc.Emit(types.EditFailed{Message: "x"}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	var states []types.EventState
	for _, l := range lines {
		var rec struct {
			State types.EventState `json:"state"`
		}
		require.NoError(t, json.Unmarshal([]byte(l), &rec))
		states = append(states, rec.State)
	}
	assert.Equal(t, []types.EventState{types.StateRestate, types.StateSignpost, types.StateError}, states)
}

func TestEncoder_FlushesBufferedWriter(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	require.NoError(t, NewEncoder(bw).Emit(types.EditFailed{Message: "x"}))
	assert.NotEmpty(t, buf.String())
}

func TestEncoder_DoesNotEscapeHTML(t *testing.T) {
	var buf bytes.Buffer
	html := types.CanonicalFile{Name: types.IndexHTML, Type: types.FileHTML}
	require.NoError(t, NewEncoder(&buf).Emit(types.EditCompleted{Target: html, Content: "<p>hi</p>"}))
	assert.Contains(t, buf.String(), `"updated_content":"<p>hi</p>"`)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"I edited tmp/aider_ab12cd/styles.css for you.", "I edited styles.css for you."},
		{"Workspace tmp/aider_x9 is ready", "Workspace  is ready"},
		{"no paths here", "no paths here"},
		{"", ""},
		{"tmp/aider_a/index.html and tmp/aider_b/frontend.js", "index.html and frontend.js"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in))
	}
}

func TestEncoder_SanitizesRestateOnly(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Emit(types.AssistantText{Text: "see tmp/aider_q1/index.html"}))
	require.NoError(t, enc.Emit(types.EditProgress{FileName: types.IndexHTML, Line: "tmp/aider_q1/x"}))

	out := buf.String()
	assert.Contains(t, out, `"restate":"see index.html"`)
	assert.Contains(t, out, `"content":"tmp/aider_q1/x"`)
}
