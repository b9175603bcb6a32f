/*-------------------------------------------------------------------------
 *
 * client.go
 *    Language model client boundary for RelayAgent
 *
 * Defines the single round-trip completion contract used by the
 * tool-calling loop. Retries, if any, belong to the concrete client;
 * the orchestration core never retries a model call.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/llm/client.go
 *
 *-------------------------------------------------------------------------
 */

package llm

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

/* Default per-call timeout when the configuration does not set one */
const DefaultTimeout = 60 * time.Second

var ErrEmptyModel = errors.New("model name is empty")

/* Request is one completion round-trip */
type Request struct {
	Model       string
	Messages    []openai.ChatCompletionMessage
	Tools       []openai.Tool
	Temperature float64
	MaxTokens   int
}

/* Usage reports token consumption for one call */
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

/* Response is the model's answer: content, tool calls, or neither */
type Response struct {
	Content   string
	ToolCalls []openai.ToolCall
	Usage     Usage
}

/* Client is the language model collaborator interface */
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}
