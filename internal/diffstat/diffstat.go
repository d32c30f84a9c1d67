// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package diffstat counts added and removed lines between two versions of a
// file using a minimal line-level edit script.
package diffstat

import (
	"strings"
	"unicode/utf8"

	"github.com/petar-djukic/codestream/pkg/types"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// surrogateLo and surrogateHi bound the UTF-16 surrogate range, which is
// skipped when assigning one rune per distinct line.
const (
	surrogateLo = 0xD800
	surrogateHi = 0xDFFF
)

// Compute returns the added and removed line counts turning oldContent into
// newContent. Lines are aligned in order, so a changed line counts as one
// deletion plus one addition and reordered lines are not matched across
// each other. Compute(x, x) is always zero.
func Compute(oldContent, newContent string) types.DiffStats {
	if oldContent == newContent {
		return types.DiffStats{}
	}

	a, b := encodeLines(splitLines(oldContent), splitLines(newContent))

	dmp := diffmatchpatch.New()
	// No deadline and no half-match shortcut: the bisection then yields a
	// minimal edit script.
	dmp.DiffTimeout = 0

	var stats types.DiffStats
	for _, d := range dmp.DiffMainRunes(a, b, false) {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			stats.Additions += n
		case diffmatchpatch.DiffDelete:
			stats.Deletions += n
		}
	}
	return stats
}

// splitLines splits content into lines. Empty content has no lines, and a
// trailing newline does not produce an extra empty line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

// encodeLines maps each distinct line to a single rune so the character
// diff runs over whole lines.
func encodeLines(oldLines, newLines []string) ([]rune, []rune) {
	index := make(map[string]rune, len(oldLines)+len(newLines))
	next := rune(1)
	encode := func(lines []string) []rune {
		out := make([]rune, len(lines))
		for i, line := range lines {
			r, ok := index[line]
			if !ok {
				r = next
				index[line] = r
				next++
				if next == surrogateLo {
					next = surrogateHi + 1
				}
			}
			out[i] = r
		}
		return out
	}
	return encode(oldLines), encode(newLines)
}

// Tracker accumulates diff stats per filename across the edits of one
// session. It is not safe for concurrent use.
type Tracker struct {
	totals map[string]types.DiffStats
}

// NewTracker creates an empty accumulator.
func NewTracker() *Tracker {
	return &Tracker{totals: make(map[string]types.DiffStats)}
}

// Add records stats for one completed edit of filename and returns the new
// cumulative total for that file.
func (t *Tracker) Add(filename string, stats types.DiffStats) types.DiffStats {
	total := t.totals[filename].Add(stats)
	t.totals[filename] = total
	return total
}

// Get returns the cumulative stats for filename.
func (t *Tracker) Get(filename string) types.DiffStats {
	return t.totals[filename]
}

// Totals returns a copy of all per-file totals.
func (t *Tracker) Totals() map[string]types.DiffStats {
	out := make(map[string]types.DiffStats, len(t.totals))
	for k, v := range t.totals {
		out[k] = v
	}
	return out
}
