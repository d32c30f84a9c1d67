// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package workspace persists session results to disk, one directory per
// project, and optionally records each save as a git commit.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	gitpkg "github.com/petar-djukic/codestream/internal/git"
	"github.com/petar-djukic/codestream/pkg/types"
)

// ErrInvalidProject is returned for project IDs that are not safe
// directory names.
var ErrInvalidProject = errors.New("invalid project ID")

var projectIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Config configures a Workspace.
type Config struct {
	Root        string // Parent directory of all projects
	AutoCommit  bool   // Commit every save
	DirtyCommit bool   // Commit manual edits found before a save
	Logger      *slog.Logger
}

// Workspace reads and writes project files. Saves to one project are
// serialized; different projects proceed independently.
type Workspace struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// SaveResult describes a completed save.
type SaveResult struct {
	Dir     string   // Project directory
	Written []string // Files written, in scan order
	Commit  string   // Commit hash, "" if none was made
}

// New creates a workspace rooted at cfg.Root.
func New(cfg Config) *Workspace {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{cfg: cfg, logger: logger, locks: make(map[string]*sync.Mutex)}
}

// Dir returns the directory for projectID.
func (w *Workspace) Dir(projectID string) (string, error) {
	if !projectIDPattern.MatchString(projectID) || projectID == "." || projectID == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidProject, projectID)
	}
	return filepath.Join(w.cfg.Root, projectID), nil
}

// Load reads the canonical files of a project. Missing files and missing
// projects load as empty content.
func (w *Workspace) Load(projectID string) (types.Seed, error) {
	dir, err := w.Dir(projectID)
	if err != nil {
		return types.Seed{}, err
	}

	read := func(name string) (string, error) {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", name, err)
		}
		return string(b), nil
	}

	var seed types.Seed
	if seed.HTML, err = read(types.IndexHTML); err != nil {
		return types.Seed{}, err
	}
	if seed.JS, err = read(types.FrontendJS); err != nil {
		return types.Seed{}, err
	}
	if seed.CSS, err = read(types.StylesCSS); err != nil {
		return types.Seed{}, err
	}
	return seed, nil
}

// Save writes the named files of a project atomically and, when enabled,
// commits them with a message derived from prompt. Only names listed in
// changed are written; files maps canonical names to content.
func (w *Workspace) Save(projectID string, files map[string]string, changed []string, prompt string) (*SaveResult, error) {
	dir, err := w.Dir(projectID)
	if err != nil {
		return nil, err
	}

	lock := w.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating project directory: %w", err)
	}

	var repo *gitpkg.Repo
	if w.cfg.AutoCommit {
		repo, err = gitpkg.OpenOrInit(gitpkg.Config{
			WorkDir:     dir,
			AutoCommit:  true,
			DirtyCommit: w.cfg.DirtyCommit,
		})
		if err != nil {
			return nil, err
		}
		if err := repo.HandleDirty(); err != nil {
			return nil, fmt.Errorf("handling manual changes: %w", err)
		}
	}

	result := &SaveResult{Dir: dir}
	for _, f := range types.CanonicalFiles {
		if !contains(changed, f.Name) {
			continue
		}
		if err := atomicWrite(filepath.Join(dir, f.Name), []byte(withNewline(files[f.Name]))); err != nil {
			return result, err
		}
		result.Written = append(result.Written, f.Name)
	}

	if repo != nil && len(result.Written) > 0 {
		hash, err := repo.AutoCommit(result.Written, prompt)
		if err != nil {
			return result, fmt.Errorf("auto-commit: %w", err)
		}
		result.Commit = hash
	}

	w.logger.Info("project saved", "project", projectID, "files", result.Written, "commit", result.Commit)
	return result, nil
}

// Undo reverts the project's last session commit.
func (w *Workspace) Undo(projectID string) error {
	dir, err := w.Dir(projectID)
	if err != nil {
		return err
	}

	lock := w.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := gitpkg.Open(gitpkg.Config{WorkDir: dir})
	if err != nil {
		return err
	}
	return repo.Undo()
}

func (w *Workspace) projectLock(projectID string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		w.locks[projectID] = l
	}
	return l
}

// withNewline restores the single trailing newline the store strips.
func withNewline(content string) string {
	if content == "" {
		return ""
	}
	return content + "\n"
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// atomicWrite writes data to a temp file in the target directory and
// renames it into place. Existing permissions are preserved; new files
// get 0644.
func atomicWrite(path string, data []byte) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".codestream-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}

	success = true
	return nil
}
