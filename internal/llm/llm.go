// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package llm streams completions from AWS Bedrock (ConverseStream) or an
// OpenAI-compatible endpoint. Both clients share one channel contract:
// tokens arrive on the first channel, which closes when the stream ends,
// and the final StreamResponse (with Err set on failure) arrives on the
// second.
package llm

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/petar-djukic/codestream/pkg/types"
)

const (
	defaultTimeout   = 300 * time.Second
	defaultMaxTokens = 4096
	maxRetryAttempts = 3
	baseRetryDelay   = 1 * time.Second
)

// ErrLLMFailure indicates the LLM call failed (network, auth, rate limit).
var ErrLLMFailure = errors.New("LLM failure")

// Streamer sends a prompt and streams the response.
type Streamer interface {
	SendPrompt(ctx context.Context, system string, messages []types.Message) (<-chan string, <-chan *types.StreamResponse)
}

// retryDelay returns the backoff before the given attempt (1-based).
func retryDelay(attempt int) time.Duration {
	return baseRetryDelay * time.Duration(math.Pow(2, float64(attempt-1)))
}

// waitRetry sleeps before a retry attempt or returns early on cancellation.
func waitRetry(ctx context.Context, attempt int) error {
	select {
	case <-time.After(retryDelay(attempt)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
