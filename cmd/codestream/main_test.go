// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "codestream "+version+"\n", out)
}

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	css := writeFile(t, dir, "styles.css", "body { color: red; }\n")
	transcript := writeFile(t, dir, "response.txt",
		"Switching to blue.\nstyles.css\n```css\n<<<<<<< SEARCH\nbody { color: red; }\n=======\nbody { color: blue; }\n>>>>>>> REPLACE\n```\n")

	out, err := execute(t, "replay", "--transcript", transcript, "--css", css, "--chunk-size", "7")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"state":"restate"`)
	assert.Contains(t, lines[1], `"state":"signpost"`)
	assert.Contains(t, lines[2], `"updated_content":"body { color: blue; }"`)
}

func TestReplay_SavesProject(t *testing.T) {
	dir := t.TempDir()
	root := t.TempDir()
	transcript := writeFile(t, dir, "response.txt", "index.html\n```html\n<h1>Hi</h1>\n```\n")

	_, err := execute(t, "replay", "-t", transcript, "--project", "demo",
		"--workspace-dir", root, "--auto-commit=false", "-o", filepath.Join(dir, "events.ndjson"))
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(root, "demo", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hi</h1>\n", string(b))

	events, err := os.ReadFile(filepath.Join(dir, "events.ndjson"))
	require.NoError(t, err)
	assert.Contains(t, string(events), `"state":"tool_result"`)
}

func TestReplay_MissingTranscript(t *testing.T) {
	_, err := execute(t, "replay", "--transcript", filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorContains(t, err, "opening transcript")
}

func TestUndo_RequiresWorkspace(t *testing.T) {
	_, err := execute(t, "undo", "--project", "demo", "--workspace-dir", "")
	assert.ErrorContains(t, err, "requires --workspace-dir")
}
