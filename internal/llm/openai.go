// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/petar-djukic/codestream/pkg/types"
	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the OpenAI-compatible client.
type OpenAIConfig struct {
	APIKey    string        // API key (required)
	Model     string        // Model name (required)
	BaseURL   string        // Override for OpenAI-compatible servers (optional)
	Timeout   time.Duration // Request timeout (default 300s)
	MaxTokens int           // Max completion tokens (default 4096)
}

// chatStream is the subset of *openai.ChatCompletionStream used here.
type chatStream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// OpenAIClient streams chat completions through go-openai.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	timeout   time.Duration
	maxTokens int

	mu    sync.Mutex
	usage types.TokenUsage
}

// NewOpenAIClient creates a client from cfg.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", ErrLLMFailure)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model is required", ErrLLMFailure)
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		timeout:   timeout,
		maxTokens: maxTokens,
	}, nil
}

// SendPrompt implements Streamer.
func (o *OpenAIClient) SendPrompt(ctx context.Context, system string, messages []types.Message) (<-chan string, <-chan *types.StreamResponse) {
	tokenCh := make(chan string, 64)
	resultCh := make(chan *types.StreamResponse, 1)

	go func() {
		defer close(resultCh)

		response, err := o.sendWithRetry(ctx, o.request(system, messages), tokenCh)
		if err != nil {
			close(tokenCh)
			resultCh <- &types.StreamResponse{Err: err}
			return
		}

		o.mu.Lock()
		o.usage.InputTokens += response.Usage.InputTokens
		o.usage.OutputTokens += response.Usage.OutputTokens
		o.mu.Unlock()

		resultCh <- response
	}()

	return tokenCh, resultCh
}

// CumulativeUsage returns the total token usage across all calls.
func (o *OpenAIClient) CumulativeUsage() types.TokenUsage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.usage
}

func (o *OpenAIClient) request(system string, messages []types.Message) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:               o.model,
		MaxCompletionTokens: o.maxTokens,
		Stream:              true,
		StreamOptions:       &openai.StreamOptions{IncludeUsage: true},
	}
	if system != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: system,
		})
	}
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case types.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case types.RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return req
}

func (o *OpenAIClient) sendWithRetry(ctx context.Context, req openai.ChatCompletionRequest, tokenCh chan<- string) (*types.StreamResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetryAttempts; attempt++ {
		if attempt > 0 {
			if err := waitRetry(ctx, attempt); err != nil {
				return nil, fmt.Errorf("%w: context cancelled during retry: %v", ErrLLMFailure, err)
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		stream, err := o.client.CreateChatCompletionStream(callCtx, req)
		if err != nil {
			cancel()
			if isRateLimited(err) {
				lastErr = err
				continue
			}
			return nil, o.classifyError(err)
		}

		response := consumeChatStream(callCtx, stream, tokenCh)
		response.Retries = attempt
		if response.Err != nil {
			response.Err = o.classifyError(response.Err)
		}
		cancel()
		return response, nil
	}

	return nil, fmt.Errorf("%w: rate limited after %d retries: %v", ErrLLMFailure, maxRetryAttempts, lastErr)
}

func (o *OpenAIClient) classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: credential or permission issue: %v", ErrLLMFailure, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: model not found: %s", ErrLLMFailure, o.model)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out after %s", ErrLLMFailure, o.timeout)
	}
	return fmt.Errorf("%w: %v", ErrLLMFailure, err)
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

// consumeChatStream mirrors consumeStream for the OpenAI wire format. Recv
// returns io.EOF on a clean finish.
func consumeChatStream(ctx context.Context, stream chatStream, tokenCh chan<- string) *types.StreamResponse {
	defer close(tokenCh)
	defer stream.Close()

	var text strings.Builder
	response := &types.StreamResponse{}

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			response.FullText = text.String()
			return response
		}
		if err != nil {
			response.FullText = text.String()
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			response.Err = err
			return response
		}

		if chunk.Usage != nil {
			response.Usage.InputTokens = chunk.Usage.PromptTokens
			response.Usage.OutputTokens = chunk.Usage.CompletionTokens
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}

		token := chunk.Choices[0].Delta.Content
		text.WriteString(token)
		select {
		case tokenCh <- token:
		case <-ctx.Done():
			response.FullText = text.String()
			response.Err = ctx.Err()
			return response
		}
	}
}
