// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package history keeps a bounded, append-only log of user prompts and
// assistant narration for UI replay. Stream sessions write to it and never
// read it.
package history

import (
	"sync"

	"github.com/petar-djukic/codestream/pkg/types"
)

// DefaultLimit caps the number of retained entries.
const DefaultLimit = 1000

// Entry is one logged message.
type Entry struct {
	Role    types.MessageRole `json:"role"`
	Content string            `json:"content"`
}

// Log is the write side used by stream sessions.
type Log interface {
	Append(Entry)
}

// Discard is a Log that drops every entry.
var Discard Log = discard{}

type discard struct{}

func (discard) Append(Entry) {}

// Ring is a bounded Log that drops the oldest entries once full. It is
// safe for concurrent use across sessions.
type Ring struct {
	mu      sync.Mutex
	limit   int
	entries []Entry
}

// NewRing creates a ring holding at most limit entries. A non-positive
// limit uses DefaultLimit.
func NewRing(limit int) *Ring {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Ring{limit: limit}
}

// Append records e. Entries with a role other than user, assistant, or
// system are ignored.
func (r *Ring) Append(e Entry) {
	switch e.Role {
	case types.RoleUser, types.RoleAssistant, types.RoleSystem:
	default:
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	if over := len(r.entries) - r.limit; over > 0 {
		r.entries = append(r.entries[:0:0], r.entries[over:]...)
	}
}

// Entries returns a copy of the retained entries, oldest first.
func (r *Ring) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Clear drops every entry.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// Len returns the number of retained entries.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
