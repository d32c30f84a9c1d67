// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_ValidRepo(t *testing.T) {
	dir := initTestRepo(t)

	repo, err := Open(Config{WorkDir: dir, AutoCommit: true, DirtyCommit: true})
	require.NoError(t, err)
	assert.NotNil(t, repo)
}

func TestOpen_NotARepo(t *testing.T) {
	_, err := Open(Config{WorkDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrNoGit)
}

func TestOpenOrInit(t *testing.T) {
	t.Run("initializes with root commit", func(t *testing.T) {
		dir := t.TempDir()

		repo, err := OpenOrInit(Config{WorkDir: dir})
		require.NoError(t, err)

		count, err := repo.commitCount()
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		msg, err := repo.lastCommitMessage()
		require.NoError(t, err)
		assert.Equal(t, initCommitMsg, msg)
	})

	t.Run("reopens existing", func(t *testing.T) {
		dir := initTestRepo(t)

		repo, err := OpenOrInit(Config{WorkDir: dir})
		require.NoError(t, err)

		count, err := repo.commitCount()
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestIsDirty_CleanRepo(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	dirty, err := repo.IsDirty()
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestIsDirty_WithUnstagedChanges(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>edited by hand</p>\n"), 0o644))

	dirty, err := repo.IsDirty()
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestIsDirty_WithUntrackedFiles(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "styles.css"), []byte("body {}\n"), 0o644))

	dirty, err := repo.IsDirty()
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestIsCodestreamCommit(t *testing.T) {
	t.Run("session commit", func(t *testing.T) {
		dir := initTestRepo(t)
		addFileAndCommit(t, dir, "styles.css", "body {}\n", "style: test\n\n"+generatedTrailer)

		repo, err := Open(Config{WorkDir: dir})
		require.NoError(t, err)

		ok, err := repo.IsCodestreamCommit()
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("manual commit", func(t *testing.T) {
		dir := initTestRepo(t)

		repo, err := Open(Config{WorkDir: dir})
		require.NoError(t, err)

		ok, err := repo.IsCodestreamCommit()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no commits", func(t *testing.T) {
		dir := t.TempDir()
		_, err := gogit.PlainInit(dir, false)
		require.NoError(t, err)

		repo, err := Open(Config{WorkDir: dir})
		require.NoError(t, err)

		ok, err := repo.IsCodestreamCommit()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGenerateMessage(t *testing.T) {
	tests := []struct {
		name       string
		prompt     string
		files      []string
		wantPrefix string
	}{
		{
			name:       "add feature",
			prompt:     "Add a dark mode toggle",
			files:      []string{"frontend.js"},
			wantPrefix: "feat:",
		},
		{
			name:       "fix bug",
			prompt:     "Fix the broken submit button",
			files:      []string{"frontend.js"},
			wantPrefix: "fix:",
		},
		{
			name:       "styling",
			prompt:     "Make the text color blue",
			files:      []string{"styles.css"},
			wantPrefix: "style:",
		},
		{
			name:       "refactor",
			prompt:     "Refactor the event handlers",
			files:      []string{"frontend.js", "index.html"},
			wantPrefix: "refactor:",
		},
		{
			name:       "default to feat",
			prompt:     "Make the thing work better",
			files:      []string{"index.html"},
			wantPrefix: "feat:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := GenerateMessage(tt.prompt, tt.files)
			assert.True(t, strings.HasPrefix(msg, tt.wantPrefix), msg)
			assert.Contains(t, msg, generatedTrailer)
			assert.LessOrEqual(t, len(firstLineOf(msg)), maxSubjectLength)
		})
	}
}

func TestGenerateMessage_LongPromptTruncated(t *testing.T) {
	longPrompt := "Add a very long feature that does many things and should be truncated because the commit message subject line must not exceed seventy-two characters"
	msg := GenerateMessage(longPrompt, []string{"index.html"})

	firstLine := firstLineOf(msg)
	assert.LessOrEqual(t, len(firstLine), maxSubjectLength)
	assert.Contains(t, firstLine, "...")
}

func TestGenerateMessage_EmptyAndMultilinePrompt(t *testing.T) {
	assert.Equal(t, "feat: update project files", firstLineOf(GenerateMessage("  ", nil)))
	assert.Equal(t, "feat: add a header and a footer", firstLineOf(GenerateMessage("Add a header\nand a footer", nil)))
}

func TestGenerateMessage_IncludesFiles(t *testing.T) {
	msg := GenerateMessage("Add feature", []string{"index.html", "styles.css"})
	assert.Contains(t, msg, "Modified files:")
	assert.Contains(t, msg, "- index.html")
	assert.Contains(t, msg, "- styles.css")
}

func TestInferCommitType(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
	}{
		{"fix the bug", "fix"},
		{"add a feature", "feat"},
		{"refactor the handler", "refactor"},
		{"change the font", "style"},
		{"update documentation", "docs"},
		{"optimize performance", "perf"},
		{"something generic", "feat"},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, inferCommitType(tt.prompt))
		})
	}
}

// initTestRepo creates a temp dir with a git repo holding one manual
// commit of index.html and returns the directory path.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	addFileAndCommit(t, dir, "index.html", "<p>hi</p>\n", "initial commit")
	return dir
}

// addFileAndCommit writes a file and commits it with the given message.
func addFileAndCommit(t *testing.T, dir, name, content, msg string) {
	t.Helper()

	r, err := gogit.PlainOpen(dir)
	require.NoError(t, err)

	wt, err := r.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))

	_, err = wt.Add(name)
	require.NoError(t, err)

	_, err = wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@test.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
}

func firstLineOf(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
