// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleDirty_CleanRepo(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir, DirtyCommit: true})
	require.NoError(t, err)

	require.NoError(t, repo.HandleDirty())

	count, err := repo.commitCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHandleDirty_CommitsDirtyFiles(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir, DirtyCommit: true})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "styles.css"), []byte("p {}\n"), 0o644))

	require.NoError(t, repo.HandleDirty())

	dirty, err := repo.IsDirty()
	require.NoError(t, err)
	assert.False(t, dirty)

	count, err := repo.commitCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	msg, err := repo.lastCommitMessage()
	require.NoError(t, err)
	assert.Equal(t, dirtyCommitMsg, msg)
}

func TestHandleDirty_ReturnsErrorWhenDisabled(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir, DirtyCommit: false})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "styles.css"), []byte("p {}\n"), 0o644))

	assert.ErrorIs(t, repo.HandleDirty(), ErrDirtyWorkTree)
}

func TestAutoCommit_StagesAndCommits(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir, AutoCommit: true})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "frontend.js"), []byte("console.log(1);\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "styles.css"), []byte("body {}\n"), 0o644))

	hash, err := repo.AutoCommit([]string{"frontend.js", "styles.css"}, "Add a click counter")
	require.NoError(t, err)
	assert.Len(t, hash, 40)

	dirty, err := repo.IsDirty()
	require.NoError(t, err)
	assert.False(t, dirty)

	msg, err := repo.lastCommitMessage()
	require.NoError(t, err)
	assert.Contains(t, msg, generatedTrailer)
	assert.Contains(t, msg, "feat:")
}

func TestAutoCommit_OnlyStagesSpecifiedFiles(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir, AutoCommit: true})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "styles.css"), []byte("p {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch\n"), 0o644))

	_, err = repo.AutoCommit([]string{"styles.css"}, "Add styles")
	require.NoError(t, err)

	dirty, err := repo.IsDirty()
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestAutoCommit_NothingChanged(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir, AutoCommit: true})
	require.NoError(t, err)

	hash, err := repo.AutoCommit([]string{"index.html"}, "No-op")
	require.NoError(t, err)
	assert.Empty(t, hash)

	count, err := repo.commitCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAutoCommit_DisabledIsNoop(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir, AutoCommit: false})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "styles.css"), []byte("p {}\n"), 0o644))

	hash, err := repo.AutoCommit([]string{"styles.css"}, "Add styles")
	require.NoError(t, err)
	assert.Empty(t, hash)

	dirty, err := repo.IsDirty()
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestUndo_RevertsSessionCommit(t *testing.T) {
	dir := initTestRepo(t)
	addFileAndCommit(t, dir, "index.html", "<p>changed</p>\n", "feat: change\n\n"+generatedTrailer)

	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	require.NoError(t, repo.Undo())

	count, err := repo.commitCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	content, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>\n", string(content))
}

func TestUndo_RefusesManualCommit(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Undo(), ErrNotCodestreamCommit)

	count, err := repo.commitCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUndo_FirstSessionInNewProject(t *testing.T) {
	dir := t.TempDir()
	repo, err := OpenOrInit(Config{WorkDir: dir, AutoCommit: true})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>v1</p>\n"), 0o644))
	_, err = repo.AutoCommit([]string{"index.html"}, "Create page")
	require.NoError(t, err)

	require.NoError(t, repo.Undo())

	count, err := repo.commitCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAutoCommit_IntegrationWithHandleDirty(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir, AutoCommit: true, DirtyCommit: true})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>by hand</p>\n"), 0o644))
	require.NoError(t, repo.HandleDirty())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "styles.css"), []byte("p { color: blue; }\n"), 0o644))
	_, err = repo.AutoCommit([]string{"styles.css"}, "Make paragraphs blue")
	require.NoError(t, err)

	count, err := repo.commitCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	ok, err := repo.IsCodestreamCommit()
	require.NoError(t, err)
	assert.True(t, ok)
}
