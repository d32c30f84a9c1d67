// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/petar-djukic/codestream/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, src ChunkSource) ([]string, error) {
	t.Helper()
	var out []string
	for {
		c, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
}

func TestFromChannel(t *testing.T) {
	t.Run("clean finish", func(t *testing.T) {
		tokens := make(chan string, 2)
		results := make(chan *types.StreamResponse, 1)
		tokens <- "a"
		tokens <- "b"
		close(tokens)
		results <- &types.StreamResponse{FullText: "ab"}

		src := FromChannel(tokens, results)
		got, err := drain(t, src)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)

		_, err = src.Next(context.Background())
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("response error", func(t *testing.T) {
		tokens := make(chan string)
		results := make(chan *types.StreamResponse, 1)
		close(tokens)
		results <- &types.StreamResponse{Err: errors.New("throttled")}

		_, err := drain(t, FromChannel(tokens, results))
		assert.EqualError(t, err, "throttled")
	})

	t.Run("results closed without response", func(t *testing.T) {
		tokens := make(chan string)
		results := make(chan *types.StreamResponse)
		close(tokens)
		close(results)

		_, err := drain(t, FromChannel(tokens, results))
		assert.Error(t, err)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := FromChannel(make(chan string), nil).Next(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFailingAfter(t *testing.T) {
	got, err := drain(t, FailingAfter(errors.New("cut"), "x", "y"))
	assert.Equal(t, []string{"x", "y"}, got)
	assert.EqualError(t, err, "cut")
}

func TestFromReader(t *testing.T) {
	got, err := drain(t, FromReader(strings.NewReader("abcdefg"), 3))
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "def", "g"}, got)

	got, err = drain(t, FromReader(iotest.OneByteReader(strings.NewReader("hi")), 0))
	require.NoError(t, err)
	assert.Equal(t, "hi", strings.Join(got, ""))

	_, err = drain(t, FromReader(iotest.ErrReader(errors.New("disk")), 8))
	assert.ErrorContains(t, err, "reading transcript: disk")
}

func TestFromChannel_Response(t *testing.T) {
	tokens := make(chan string)
	results := make(chan *types.StreamResponse, 1)
	close(tokens)
	results <- &types.StreamResponse{FullText: "", Usage: types.TokenUsage{InputTokens: 5}}

	src := FromChannel(tokens, results)
	assert.Nil(t, src.Response())

	_, err := drain(t, src)
	require.NoError(t, err)
	require.NotNil(t, src.Response())
	assert.Equal(t, 5, src.Response().Usage.InputTokens)
}
