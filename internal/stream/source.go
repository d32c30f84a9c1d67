// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/petar-djukic/codestream/pkg/types"
)

// ChunkSource yields the upstream text chunks in order. Next returns io.EOF
// once the source is exhausted; any other error is an upstream failure.
type ChunkSource interface {
	Next(ctx context.Context) (string, error)
}

// ChannelSource adapts the (tokens, result) channel pair returned by the
// llm clients.
type ChannelSource struct {
	tokens   <-chan string
	results  <-chan *types.StreamResponse
	done     bool
	response *types.StreamResponse
}

// FromChannel returns a source reading tokens until the channel closes and
// then consulting results: a StreamResponse carrying Err, or a missing
// response, is reported as an upstream failure.
func FromChannel(tokens <-chan string, results <-chan *types.StreamResponse) *ChannelSource {
	return &ChannelSource{tokens: tokens, results: results}
}

// Response returns the final StreamResponse once the source has reported
// io.EOF or an upstream error, and nil before that.
func (c *ChannelSource) Response() *types.StreamResponse {
	return c.response
}

// Next implements ChunkSource.
func (c *ChannelSource) Next(ctx context.Context) (string, error) {
	if c.done {
		return "", io.EOF
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case tok, ok := <-c.tokens:
		if ok {
			return tok, nil
		}
	}

	c.done = true
	if c.results == nil {
		return "", io.EOF
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case resp, ok := <-c.results:
		if !ok || resp == nil {
			return "", errors.New("upstream closed without a response")
		}
		c.response = resp
		if resp.Err != nil {
			return "", resp.Err
		}
		return "", io.EOF
	}
}

// sliceSource replays fixed chunks.
type sliceSource struct {
	chunks []string
	err    error
}

// FromStrings returns a source yielding chunks in order.
func FromStrings(chunks ...string) ChunkSource {
	return &sliceSource{chunks: chunks}
}

// FailingAfter returns a source yielding chunks and then err instead of
// io.EOF.
func FailingAfter(err error, chunks ...string) ChunkSource {
	return &sliceSource{chunks: chunks, err: err}
}

func (s *sliceSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.chunks) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}

// readerSource cuts a reader into fixed-size chunks.
type readerSource struct {
	r   io.Reader
	buf []byte
}

// DefaultChunkSize is used by FromReader for non-positive sizes.
const DefaultChunkSize = 64

// FromReader returns a source reading r in chunks of at most size bytes,
// for replaying recorded transcripts.
func FromReader(r io.Reader, size int) ChunkSource {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &readerSource{r: r, buf: make([]byte, size)}
}

func (s *readerSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n, err := s.r.Read(s.buf)
	if n > 0 {
		return string(s.buf[:n]), nil
	}
	if err == nil {
		return "", nil
	}
	if errors.Is(err, io.EOF) {
		return "", io.EOF
	}
	return "", fmt.Errorf("reading transcript: %w", err)
}
