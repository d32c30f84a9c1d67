// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package editformat classifies the content of a fenced block as either a
// SEARCH/REPLACE patch or whole-file content.
package editformat

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/codestream/pkg/types"
)

const (
	markerSearch  = "<<<<<<< SEARCH"
	markerDivider = "======="
	markerReplace = ">>>>>>> REPLACE"
	fenceMarker   = "```"
)

// BlockKind tags the variant held by a Block.
type BlockKind int

const (
	BlockFullContent BlockKind = iota // Whole-file replacement
	BlockPatch                        // SEARCH/REPLACE patch
)

func (k BlockKind) String() string {
	switch k {
	case BlockFullContent:
		return "full_content"
	case BlockPatch:
		return "patch"
	default:
		return "unknown"
	}
}

// Block is the parsed form of one fence's content: exactly one of Patch or
// Content is meaningful, selected by Kind.
type Block struct {
	Kind    BlockKind
	Patch   types.Patch // Set when Kind == BlockPatch
	Content string      // Set when Kind == BlockFullContent
}

// ParseError describes why fence content is not a well-formed patch. It is
// informational: the caller falls back to whole-file content.
type ParseError struct {
	Line    int    // 1-based line within the fence where the problem was found
	Message string // What went wrong
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
}

// ParseBlock classifies fence content. A patch needs the SEARCH marker as
// its first non-blank line, then the divider, then the REPLACE marker, in
// that order. Anything else is whole-file content.
func ParseBlock(content string) Block {
	p, err := ParsePatch(content)
	if err != nil {
		return Block{Kind: BlockFullContent, Content: content}
	}
	return Block{Kind: BlockPatch, Patch: p}
}

// ParsePatch extracts the search and replace halves of a SEARCH/REPLACE
// block. Neither half keeps a trailing newline, so they line up with the
// newline-stripped file store. Lines after the REPLACE marker are ignored.
func ParsePatch(content string) (types.Patch, error) {
	lines := strings.Split(content, "\n")

	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i == len(lines) || !isMarker(lines[i], markerSearch) {
		return types.Patch{}, &ParseError{Line: i + 1, Message: "missing <<<<<<< SEARCH marker"}
	}
	searchIdx := i
	i++

	// Collect search text until ======= divider.
	start := i
	for i < len(lines) && !isMarker(lines[i], markerDivider) {
		i++
	}
	if i == len(lines) {
		return types.Patch{}, &ParseError{Line: searchIdx + 1, Message: "unclosed block: missing ======= divider"}
	}
	search := strings.Join(lines[start:i], "\n")
	i++

	// Collect replacement text until >>>>>>> REPLACE marker.
	start = i
	for i < len(lines) && !isMarker(lines[i], markerReplace) {
		i++
	}
	if i == len(lines) {
		return types.Patch{}, &ParseError{Line: searchIdx + 1, Message: "unclosed block: missing >>>>>>> REPLACE marker"}
	}
	replace := strings.Join(lines[start:i], "\n")

	return types.Patch{SearchText: search, ReplaceText: replace}, nil
}

// IsFence reports whether a line opens or closes a fenced block (``` with
// an optional language tag).
func IsFence(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), fenceMarker)
}

// FenceLanguage returns the language tag of an opening fence line, or "".
func FenceLanguage(line string) string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, fenceMarker) {
		return ""
	}
	return strings.TrimSpace(strings.TrimLeft(trimmed, "`"))
}

// isMarker checks if a line matches a marker, allowing leading/trailing whitespace.
func isMarker(line, marker string) bool {
	return strings.TrimSpace(line) == marker
}
