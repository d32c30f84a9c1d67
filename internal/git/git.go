// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package git versions saved project workspaces. Each project directory is
// its own repository; every successful stream session becomes one commit
// that can be undone.
package git

import (
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	generatedTrailer = "Generated-By: codestream"
	dirtyCommitMsg   = "codestream: save manual changes before edit"
	initCommitMsg    = "codestream: initialize project"
)

// ErrNotCodestreamCommit is returned when undo targets a commit that a
// stream session did not make.
var ErrNotCodestreamCommit = errors.New("not a codestream commit")

// ErrDirtyWorkTree is returned when uncommitted changes exist and DirtyCommit is false.
var ErrDirtyWorkTree = errors.New("uncommitted changes exist")

// ErrNoGit is returned when the working directory is not a git repository.
var ErrNoGit = errors.New("not a git repository")

// Config configures git integration behavior.
type Config struct {
	WorkDir     string // Project directory
	AutoCommit  bool   // Create commits after sessions
	DirtyCommit bool   // Commit manual edits before a session's commit
}

// Repo wraps a go-git repository for the operations we need.
type Repo struct {
	repo *gogit.Repository
	cfg  Config
}

// Open opens an existing git repository at the configured work directory.
// Returns ErrNoGit if the directory is not a git repository.
func Open(cfg Config) (*Repo, error) {
	r, err := gogit.PlainOpen(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	return &Repo{repo: r, cfg: cfg}, nil
}

// OpenOrInit opens the repository at cfg.WorkDir, initializing a new one
// when none exists yet.
func OpenOrInit(cfg Config) (*Repo, error) {
	r, err := gogit.PlainOpen(cfg.WorkDir)
	if !errors.Is(err, gogit.ErrRepositoryNotExists) {
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
		}
		return &Repo{repo: r, cfg: cfg}, nil
	}

	r, err = gogit.PlainInit(cfg.WorkDir, false)
	if err != nil {
		return nil, fmt.Errorf("initializing repository: %w", err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	// Root commit so the first session's commit can be undone.
	_, err = wt.Commit(initCommitMsg, &gogit.CommitOptions{
		Author:            signature(),
		AllowEmptyCommits: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating root commit: %w", err)
	}
	return &Repo{repo: r, cfg: cfg}, nil
}

// IsDirty returns true if the working tree has uncommitted changes
// (either staged or unstaged).
func (r *Repo) IsDirty() (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("getting status: %w", err)
	}

	return !status.IsClean(), nil
}

// IsCodestreamCommit reports whether HEAD carries the Generated-By trailer.
// A repository without commits reports false.
func (r *Repo) IsCodestreamCommit() (bool, error) {
	msg, err := r.lastCommitMessage()
	if errors.Is(err, errNoHead) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.Contains(msg, generatedTrailer), nil
}

var errNoHead = errors.New("repository has no commits")

// lastCommitMessage returns the message of the HEAD commit.
func (r *Repo) lastCommitMessage() (string, error) {
	commit, err := r.headCommit()
	if err != nil {
		return "", err
	}
	return commit.Message, nil
}

func (r *Repo) headCommit() (*object.Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, errNoHead
		}
		return nil, fmt.Errorf("getting HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("getting commit: %w", err)
	}
	return commit, nil
}

// commitCount returns the total number of commits reachable from HEAD.
func (r *Repo) commitCount() (int, error) {
	if _, err := r.headCommit(); errors.Is(err, errNoHead) {
		return 0, nil
	}
	iter, err := r.repo.Log(&gogit.LogOptions{})
	if err != nil {
		return 0, err
	}
	count := 0
	err = iter.ForEach(func(c *object.Commit) error {
		count++
		return nil
	})
	return count, err
}
