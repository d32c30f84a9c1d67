// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/petar-djukic/codestream/internal/filestore"
	"github.com/petar-djukic/codestream/pkg/types"
)

var (
	// ErrNoMatch is returned when no file contains the SEARCH text.
	ErrNoMatch = errors.New("SEARCH block did not match any open files")

	// ErrEmptySearch is returned for a patch whose SEARCH half is empty.
	// An empty search text would match every file.
	ErrEmptySearch = errors.New("SEARCH block is empty")
)

// FileSource exposes the files a patch may resolve against. The file store
// satisfies it.
type FileSource interface {
	Files() []types.CanonicalFile
	Content(name string) string
}

// Apply resolves patch against files and returns the new content of the
// matched file. Files are scanned in their fixed order and the first one
// containing the SEARCH text verbatim wins; only its first occurrence is
// replaced. Apply never mutates files; the caller stores the result.
//
// When nothing matches, the returned error is a *Diagnostic wrapping
// ErrNoMatch.
func Apply(patch types.Patch, files FileSource) (*types.ApplyResult, error) {
	if patch.SearchText == "" {
		return nil, ErrEmptySearch
	}

	for _, f := range files.Files() {
		content := files.Content(f.Name)
		m := exactMatch(content, patch.SearchText)
		if m == nil {
			continue
		}

		// Replace the matched region with the new content.
		result := content[:m.start] + patch.ReplaceText + content[m.end:]

		return &types.ApplyResult{
			FileName: f.Name,
			Content:  filestore.Canonicalize(result),
		}, nil
	}

	return nil, buildDiagnostic(files, patch.SearchText)
}

// Matches returns every file containing the SEARCH text, in scan order.
// More than one entry means Apply resolved an ambiguous patch by order.
func Matches(patch types.Patch, files FileSource) []string {
	if patch.SearchText == "" {
		return nil
	}
	var names []string
	for _, f := range files.Files() {
		if strings.Contains(files.Content(f.Name), patch.SearchText) {
			names = append(names, f.Name)
		}
	}
	return names
}

// Diagnostic describes why a patch matched nothing, with the closest
// region found across all files for logging.
type Diagnostic struct {
	SearchText       string  // What we searched for
	ClosestFile      string  // File holding the closest match (empty if none)
	ClosestMatch     string  // Best partial match found (empty if none)
	Similarity       float64 // Similarity score of closest match
	ClosestLineStart int     // Starting line of the closest match (1-based)
	ClosestLineEnd   int     // Ending line of the closest match (1-based)
}

func (d *Diagnostic) Error() string {
	if d.ClosestMatch == "" {
		return ErrNoMatch.Error()
	}
	return fmt.Sprintf("%s (closest match in %s at lines %d-%d, similarity %.2f)",
		ErrNoMatch, d.ClosestFile, d.ClosestLineStart, d.ClosestLineEnd, d.Similarity)
}

func (d *Diagnostic) Unwrap() error {
	return ErrNoMatch
}

// buildDiagnostic finds the closest region to search over every file.
func buildDiagnostic(files FileSource, search string) *Diagnostic {
	d := &Diagnostic{SearchText: search}
	for _, f := range files.Files() {
		closest, sim, lineStart, lineEnd := findClosestMatch(files.Content(f.Name), search)
		if sim > d.Similarity {
			d.ClosestFile = f.Name
			d.ClosestMatch = closest
			d.Similarity = sim
			d.ClosestLineStart = lineStart
			d.ClosestLineEnd = lineEnd
		}
	}
	return d
}
