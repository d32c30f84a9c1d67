// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

// EventState is the discriminant written on the wire for each event.
type EventState string

const (
	StateRestate      EventState = "restate"
	StateSignpost     EventState = "signpost"
	StateToolProgress EventState = "tool_progress"
	StateToolResult   EventState = "tool_result"
	StateError        EventState = "error"
)

// Event is one observable protocol moment produced by the edit state
// machine. Values are never mutated after creation.
type Event interface {
	State() EventState
}

// AssistantText carries free narration between edits.
type AssistantText struct {
	Text string
}

// EditStarted announces that an edit has begun on a canonical file.
type EditStarted struct {
	Target CanonicalFile
}

// EditProgress forwards a narration line seen after the filename marker
// but before the fenced payload.
type EditProgress struct {
	FileName string
	Line     string
}

// EditCompleted reports a finished edit. Content is the full new content
// of the file, newline-stripped. Stats covers this edit only.
type EditCompleted struct {
	Target  CanonicalFile
	Stats   DiffStats
	Content string
}

// EditFailed reports an edit that could not be applied, or a session
// failure. File state is left as it was before the attempt.
type EditFailed struct {
	Message string
}

func (AssistantText) State() EventState { return StateRestate }
func (EditStarted) State() EventState   { return StateSignpost }
func (EditProgress) State() EventState  { return StateToolProgress }
func (EditCompleted) State() EventState { return StateToolResult }
func (EditFailed) State() EventState    { return StateError }
