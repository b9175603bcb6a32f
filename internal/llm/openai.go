/*-------------------------------------------------------------------------
 *
 * openai.go
 *    OpenAI-compatible language model client for RelayAgent
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/llm/openai.go
 *
 *-------------------------------------------------------------------------
 */

package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/relaybot/RelayAgent/internal/metrics"
)

/* OpenAIClient implements Client against any OpenAI-compatible endpoint */
type OpenAIClient struct {
	client  *openai.Client
	timeout time.Duration
}

/* NewOpenAIClient creates a client with the given API key */
func NewOpenAIClient(apiKey string, timeout time.Duration) *OpenAIClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenAIClient{
		client:  openai.NewClient(apiKey),
		timeout: timeout,
	}
}

/* NewOpenAIClientWithBaseURL creates a client against a custom endpoint,
 * e.g. a mock server in tests or a self-hosted compatible gateway */
func NewOpenAIClientWithBaseURL(apiKey, baseURL string, timeout time.Duration) *OpenAIClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		timeout: timeout,
	}
}

/* Complete performs one chat completion round-trip */
func (c *OpenAIClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	if req.Model == "" {
		return nil, ErrEmptyModel
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Tools:       req.Tools,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		metrics.RecordLLMCall(req.Model, "error")
		return nil, fmt.Errorf("model invocation failed: model='%s', message_count=%d, tool_count=%d, error=%w",
			req.Model, len(req.Messages), len(req.Tools), err)
	}

	metrics.RecordLLMCall(req.Model, "ok")
	metrics.RecordLLMTokens(req.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	out := &Response{
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		out.ToolCalls = resp.Choices[0].Message.ToolCalls
	}

	return out, nil
}
