// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

// Patch is a parsed SEARCH/REPLACE block. It names no file; the applicator
// resolves the target by locating SearchText in the file store.
type Patch struct {
	SearchText  string
	ReplaceText string
}

// ApplyResult describes a successfully applied patch.
type ApplyResult struct {
	FileName string // File whose content contained the search text
	Content  string // Full new content of that file, newline-stripped
}

// DiffStats counts added and removed lines.
type DiffStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Add returns the element-wise sum of s and o.
func (s DiffStats) Add(o DiffStats) DiffStats {
	return DiffStats{
		Additions: s.Additions + o.Additions,
		Deletions: s.Deletions + o.Deletions,
	}
}

// Total returns additions plus deletions.
func (s DiffStats) Total() int {
	return s.Additions + s.Deletions
}

// IsZero reports whether no lines changed.
func (s DiffStats) IsZero() bool {
	return s.Additions == 0 && s.Deletions == 0
}
