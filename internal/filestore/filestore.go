// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package filestore keeps the in-memory content of the canonical files for
// one stream session. Every stored value is stripped of trailing newlines so
// that a newline-only change never registers as an edit.
package filestore

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/codestream/pkg/types"
)

// Store maps canonical filenames to their current content. It is owned by a
// single session and is not safe for concurrent use.
type Store struct {
	files    []types.CanonicalFile
	contents map[string]string
}

// New creates a store seeded with the caller's initial content.
func New(seed types.Seed) *Store {
	s := &Store{
		files:    types.CanonicalFiles,
		contents: make(map[string]string, len(types.CanonicalFiles)),
	}
	for _, f := range s.files {
		s.contents[f.Name] = Canonicalize(seed.ForFile(f.Name))
	}
	return s
}

// Canonicalize strips trailing newline characters.
func Canonicalize(content string) string {
	return strings.TrimRight(content, "\n")
}

// Files returns the canonical files in scan order.
func (s *Store) Files() []types.CanonicalFile {
	return s.files
}

// Content returns the current content of name, or "" for unknown names.
func (s *Store) Content(name string) string {
	return s.contents[name]
}

// Set replaces the content of a canonical file. Unknown filenames are
// rejected because the file set is fixed for the session.
func (s *Store) Set(name, content string) error {
	if _, ok := s.contents[name]; !ok {
		return fmt.Errorf("unknown file %q", name)
	}
	s.contents[name] = Canonicalize(content)
	return nil
}

// Snapshot returns a copy of the current contents.
func (s *Store) Snapshot() map[string]string {
	out := make(map[string]string, len(s.contents))
	for k, v := range s.contents {
		out[k] = v
	}
	return out
}

// Seed returns the current contents in the type-keyed seed shape.
func (s *Store) Seed() types.Seed {
	return types.Seed{
		HTML: s.contents[types.IndexHTML],
		CSS:  s.contents[types.StylesCSS],
		JS:   s.contents[types.FrontendJS],
	}
}
