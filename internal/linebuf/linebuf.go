// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package linebuf turns an arbitrarily chunked text stream into complete
// lines. The lines produced for a given character stream do not depend on
// where the chunk boundaries fall.
package linebuf

import "strings"

// Tokenizer holds the unterminated tail of the stream between Feed calls.
// The zero value is ready to use.
type Tokenizer struct {
	buf strings.Builder
}

// Feed appends chunk to the buffer and returns every line that is now
// complete, without its terminating newline. A trailing "\r" is kept; the
// grammar above this layer trims whitespace where it matters.
func (t *Tokenizer) Feed(chunk string) []string {
	if strings.IndexByte(chunk, '\n') < 0 {
		t.buf.WriteString(chunk)
		return nil
	}

	t.buf.WriteString(chunk)
	pending := t.buf.String()
	t.buf.Reset()

	var lines []string
	for {
		i := strings.IndexByte(pending, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, pending[:i])
		pending = pending[i+1:]
	}
	t.buf.WriteString(pending)
	return lines
}

// Flush returns the unterminated remainder and empties the buffer. Call it
// once, after the source is exhausted.
func (t *Tokenizer) Flush() string {
	rest := t.buf.String()
	t.buf.Reset()
	return rest
}

// Pending reports how many bytes are buffered without a newline.
func (t *Tokenizer) Pending() int {
	return t.buf.Len()
}
