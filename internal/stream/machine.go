// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package stream

import (
	"errors"
	"log/slog"
	"path"
	"strings"

	"github.com/petar-djukic/codestream/internal/diffstat"
	"github.com/petar-djukic/codestream/internal/editformat"
	"github.com/petar-djukic/codestream/internal/editor"
	"github.com/petar-djukic/codestream/internal/filestore"
	"github.com/petar-djukic/codestream/pkg/types"
)

// editFailPrefix prefixes every patch failure message sent to the UI.
const editFailPrefix = "edit_fail: "

// State is the grammar position of the machine.
type State int

const (
	// AwaitingFile: free assistant text; watching for a filename line.
	AwaitingFile State = iota
	// PreFence: a target was announced; waiting for the opening fence.
	PreFence
	// InFence: accumulating fence content until the closing fence.
	InFence
)

func (s State) String() string {
	switch s {
	case AwaitingFile:
		return "awaiting_file"
	case PreFence:
		return "pre_fence"
	case InFence:
		return "in_fence"
	default:
		return "unknown"
	}
}

// Machine recognizes filename markers, fences and their content over a
// sequence of complete lines and turns them into edit events. It mutates
// the file store when an edit completes. A Machine belongs to one session
// and is not safe for concurrent use.
type Machine struct {
	store  *filestore.Store
	stats  *diffstat.Tracker
	logger *slog.Logger

	state  State
	target types.CanonicalFile
	text   strings.Builder // pending free text
	fence  []string        // content lines of the open fence
}

// NewMachine creates a machine in the AwaitingFile state.
func NewMachine(store *filestore.Store, stats *diffstat.Tracker, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{store: store, stats: stats, logger: logger}
}

// State returns the current grammar position.
func (m *Machine) State() State {
	return m.state
}

// Consume feeds one complete line and returns the events it produced, in
// order.
func (m *Machine) Consume(line string) []types.Event {
	switch m.state {
	case AwaitingFile:
		return m.consumeText(line)
	case PreFence:
		return m.consumePreFence(line)
	default:
		return m.consumeFence(line)
	}
}

func (m *Machine) consumeText(line string) []types.Event {
	file, ok := fileMarker(line)
	if !ok {
		m.text.WriteString(line)
		m.text.WriteByte('\n')
		return nil
	}

	// Flush accumulated assistant text before switching to the edit.
	var events []types.Event
	if ev, ok := m.takeText(""); ok {
		events = append(events, ev)
	}

	m.state = PreFence
	m.target = file
	m.logger.Debug("tool_start", "filename", file.Name)
	return append(events, types.EditStarted{Target: file})
}

func (m *Machine) consumePreFence(line string) []types.Event {
	if editformat.IsFence(line) {
		m.state = InFence
		m.fence = m.fence[:0]
		m.logger.Debug("fence_open", "filename", m.target.Name, "lang", editformat.FenceLanguage(line))
		return nil
	}
	if strings.TrimSpace(line) == "" {
		return nil
	}
	return []types.Event{types.EditProgress{FileName: m.target.Name, Line: line}}
}

func (m *Machine) consumeFence(line string) []types.Event {
	if !editformat.IsFence(line) {
		m.fence = append(m.fence, line)
		return nil
	}
	return []types.Event{m.finalize()}
}

// Finish handles the unterminated tail returned by the tokenizer at end of
// stream. A tail that is itself a closing fence completes the open block;
// whatever free text remains is emitted as one final AssistantText.
func (m *Machine) Finish(tail string) []types.Event {
	var events []types.Event

	switch {
	case m.state == InFence && editformat.IsFence(tail):
		events = append(events, m.finalize())
		tail = ""
	case m.state == InFence:
		m.logger.Warn("stream ended inside fence; block discarded",
			"filename", m.target.Name, "lines", len(m.fence))
		m.reset()
	case m.state == PreFence:
		m.logger.Debug("stream ended before fence opened", "filename", m.target.Name)
		m.reset()
	}

	if ev, ok := m.takeText(tail); ok {
		events = append(events, ev)
	}
	return events
}

// Abort drops any open block without applying it. Used when the upstream
// source fails mid-stream.
func (m *Machine) Abort() {
	if m.state == InFence {
		m.logger.Debug("discarding partial fence", "filename", m.target.Name, "lines", len(m.fence))
	}
	m.reset()
	m.text.Reset()
}

// finalize applies the closed fence and returns the machine to
// AwaitingFile.
func (m *Machine) finalize() types.Event {
	defer m.reset()

	content := strings.Join(m.fence, "\n")
	block := editformat.ParseBlock(content)

	if block.Kind == editformat.BlockFullContent {
		m.logger.Debug("fence_close", "filename", m.target.Name, "bytes", len(content))
		return m.complete(m.target, block.Content)
	}

	result, err := editor.Apply(block.Patch, m.store)
	if err != nil {
		var diag *editor.Diagnostic
		if errors.As(err, &diag) {
			m.logger.Warn("patch did not match",
				"announced", m.target.Name,
				"closest_file", diag.ClosestFile,
				"similarity", diag.Similarity)
		} else {
			m.logger.Warn("patch rejected", "announced", m.target.Name, "error", err)
		}
		return types.EditFailed{Message: editFailPrefix + rootCause(err)}
	}

	if matches := editor.Matches(block.Patch, m.store); len(matches) > 1 {
		m.logger.Warn("patch matched several files; first in scan order used",
			"files", matches, "resolved", result.FileName)
	}

	// The patch may resolve to a file other than the announced target.
	file, _ := types.LookupFile(result.FileName)
	m.logger.Debug("fence_close", "filename", file.Name, "announced", m.target.Name, "patch", true)
	return m.complete(file, result.Content)
}

// complete stores content for file and builds the completion event.
func (m *Machine) complete(file types.CanonicalFile, content string) types.Event {
	content = filestore.Canonicalize(content)
	stats := diffstat.Compute(m.store.Content(file.Name), content)
	if err := m.store.Set(file.Name, content); err != nil {
		return types.EditFailed{Message: editFailPrefix + err.Error()}
	}
	m.stats.Add(file.Name, stats)
	return types.EditCompleted{Target: file, Stats: stats, Content: content}
}

// takeText returns pending free text plus extra as one AssistantText, if
// any non-blank text is present, and clears the pending buffer.
func (m *Machine) takeText(extra string) (types.Event, bool) {
	text := m.text.String() + extra
	m.text.Reset()
	if strings.TrimSpace(text) == "" {
		return nil, false
	}
	return types.AssistantText{Text: text}, true
}

func (m *Machine) reset() {
	m.state = AwaitingFile
	m.target = types.CanonicalFile{}
	m.fence = m.fence[:0]
}

// fileMarker reports whether line names a canonical file. The line is
// trimmed and reduced to its path basename; anything else is free text.
func fileMarker(line string) (types.CanonicalFile, bool) {
	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return types.CanonicalFile{}, false
	}
	return types.LookupFile(path.Base(stripped))
}

// rootCause returns the sentinel message for known editor errors so the
// UI sees a stable string.
func rootCause(err error) string {
	switch {
	case errors.Is(err, editor.ErrNoMatch):
		return editor.ErrNoMatch.Error()
	case errors.Is(err, editor.ErrEmptySearch):
		return editor.ErrEmptySearch.Error()
	default:
		return err.Error()
	}
}
