// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package events serializes edit events as newline-delimited JSON records.
package events

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"github.com/petar-djukic/codestream/pkg/types"
)

// workspacePrefix matches temporary workspace directories echoed back by
// the model, with or without a trailing separator.
var workspacePrefix = regexp.MustCompile(`tmp/aider_[^/\s]+/?`)

// Sanitize removes temporary workspace path fragments from assistant text.
func Sanitize(text string) string {
	if text == "" {
		return text
	}
	return workspacePrefix.ReplaceAllString(text, "")
}

// Record is one line of output.
type Record struct {
	State types.EventState `json:"state"`
	Data  any              `json:"data"`
}

type restateData struct {
	Restate string `json:"restate"`
}

type signpostData struct {
	Signpost    string           `json:"signpost"`
	TargetFiles []types.FileType `json:"target_files"`
}

type progressData struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type toolResultData struct {
	TargetFiles    []types.FileType                   `json:"target_files"`
	DiffStats      map[types.FileType]types.DiffStats `json:"diff_stats"`
	Filename       string                             `json:"filename"`
	UpdatedContent string                             `json:"updated_content"`
}

type errorData struct {
	Message string `json:"message"`
}

// ToRecord maps an event to its wire shape. AssistantText is sanitized.
func ToRecord(ev types.Event) (Record, error) {
	switch e := ev.(type) {
	case types.AssistantText:
		return Record{State: e.State(), Data: restateData{Restate: Sanitize(e.Text)}}, nil
	case types.EditStarted:
		return Record{State: e.State(), Data: signpostData{
			TargetFiles: []types.FileType{e.Target.Type},
		}}, nil
	case types.EditProgress:
		return Record{State: e.State(), Data: progressData{Filename: e.FileName, Content: e.Line}}, nil
	case types.EditCompleted:
		return Record{State: e.State(), Data: toolResultData{
			TargetFiles:    []types.FileType{e.Target.Type},
			DiffStats:      map[types.FileType]types.DiffStats{e.Target.Type: e.Stats},
			Filename:       e.Target.Name,
			UpdatedContent: e.Content,
		}}, nil
	case types.EditFailed:
		return Record{State: e.State(), Data: errorData{Message: e.Message}}, nil
	default:
		return Record{}, fmt.Errorf("unknown event type %T", ev)
	}
}

// Encoder writes one JSON record per line, in the order events are given.
type Encoder struct {
	w   io.Writer
	enc *json.Encoder
}

// NewEncoder returns an encoder writing to w. If w also implements
// Flush() (an http.Flusher or bufio.Writer-like sink), it is flushed after
// every record.
func NewEncoder(w io.Writer) *Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Encoder{w: w, enc: enc}
}

// Emit encodes ev as a single line.
func (e *Encoder) Emit(ev types.Event) error {
	rec, err := ToRecord(ev)
	if err != nil {
		return err
	}
	if err := e.enc.Encode(rec); err != nil {
		return fmt.Errorf("writing %s record: %w", rec.State, err)
	}
	switch f := e.w.(type) {
	case interface{ Flush() }:
		f.Flush()
	case interface{ Flush() error }:
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flushing %s record: %w", rec.State, err)
		}
	}
	return nil
}
