/*-------------------------------------------------------------------------
 *
 * loop.go
 *    Bounded tool-calling completion loop for RelayAgent
 *
 * Drives the language model through zero or more rounds of tool calls
 * with an explicit depth counter. Every turn terminates in a persisted
 * assistant message: a normal reply (SENT), a fixed fallback (FAILED),
 * or the depth-limit apology (FAILED). The calling consumer never has
 * to handle a turn with no reply.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/completion/loop.go
 *
 *-------------------------------------------------------------------------
 */

package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/relaybot/RelayAgent/internal/actions"
	"github.com/relaybot/RelayAgent/internal/db"
	"github.com/relaybot/RelayAgent/internal/knowledge"
	"github.com/relaybot/RelayAgent/internal/llm"
	"github.com/relaybot/RelayAgent/internal/metrics"
	"github.com/relaybot/RelayAgent/internal/workflow"
)

/* Fixed user-facing texts for the abnormal terminal states */
const (
	tooComplexText = "Lo siento, tu solicitud es demasiado compleja para procesarla en este momento. " +
		"¿Podrías dividirla en pasos más simples?"
	emptyReplyText  = "Lo siento, no pude generar una respuesta. ¿Podrías reformular tu mensaje?"
	toolFailureText = "Lo siento, ocurrió un problema al ejecutar una de las acciones solicitadas. " +
		"Por favor, inténtalo de nuevo más tarde."
	internalErrorText = "Lo siento, ocurrió un error inesperado. Por favor, inténtalo de nuevo."
)

/* ActionDispatcher is what the loop needs from the action layer */
type ActionDispatcher interface {
	Dispatch(ctx context.Context, toolName actions.ToolName, arguments map[string]interface{},
		activeIntegrations []db.Integration, callerID string) actions.ActionResult
}

/* MessageStore persists finished assistant messages */
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *db.Message) (uuid.UUID, error)
}

/* DeliveryQueue hands finished messages to the channel senders */
type DeliveryQueue interface {
	EnqueueForSending(ctx context.Context, job *db.DeliveryJob) error
}

/* UsageRecorder accounts token consumption per turn */
type UsageRecorder interface {
	RecordUsage(ctx context.Context, agentID uuid.UUID, userID string, promptTokens, completionTokens int)
}

/* Turn is one inbound user message with its surrounding state */
type Turn struct {
	Agent              *db.Agent
	ConversationID     uuid.UUID
	UserID             string
	Utterance          string
	History            []db.Message
	ActiveIntegrations []db.Integration
	WorkflowResult     *workflow.Result
	Now                time.Time
}

/* Reply is the persisted outcome of one turn */
type Reply struct {
	MessageID uuid.UUID
	Content   string
	Status    string
	Rounds    int
	Usage     llm.Usage
}

/* Loop owns the model conversation mechanics for one agent process */
type Loop struct {
	client             llm.Client
	dispatcher         ActionDispatcher
	store              MessageStore
	delivery           DeliveryQueue
	usage              UsageRecorder
	retriever          knowledge.Retriever
	maxDepth           int
	knowledgeTopK      int
	chunkMaxChars      int
	toolResultMaxChars int
}

/* NewLoop wires the completion loop; retriever may be nil to disable
 * knowledge retrieval */
func NewLoop(client llm.Client, dispatcher ActionDispatcher, store MessageStore,
	delivery DeliveryQueue, usage UsageRecorder, retriever knowledge.Retriever,
	maxDepth, knowledgeTopK, chunkMaxChars, toolResultMaxChars int) *Loop {
	return &Loop{
		client:             client,
		dispatcher:         dispatcher,
		store:              store,
		delivery:           delivery,
		usage:              usage,
		retriever:          retriever,
		maxDepth:           maxDepth,
		knowledgeTopK:      knowledgeTopK,
		chunkMaxChars:      chunkMaxChars,
		toolResultMaxChars: toolResultMaxChars,
	}
}

/* Respond runs the full loop for one turn. It always persists and
 * enqueues exactly one assistant message, even on internal failure. */
func (l *Loop) Respond(ctx context.Context, turn *Turn) (reply *Reply, err error) {
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			metrics.ErrorWithContext(ctx, "Completion loop panicked", fmt.Errorf("panic: %v", r), nil)
			reply, err = l.finish(ctx, turn, started, internalErrorText, db.MessageStatusFailed, 0, llm.Usage{})
		}
	}()

	reply, err = l.run(ctx, turn, started)
	if err != nil {
		metrics.ErrorWithContext(ctx, "Completion loop failed", err, map[string]interface{}{
			"conversation_id": turn.ConversationID.String(),
		})
		return l.finish(ctx, turn, started, internalErrorText, db.MessageStatusFailed, 0, llm.Usage{})
	}
	return reply, nil
}

func (l *Loop) run(ctx context.Context, turn *Turn, started time.Time) (*Reply, error) {
	toolsDisabled := turn.WorkflowResult != nil &&
		turn.WorkflowResult.UserIntent == workflow.UserIntentSimpleConfirmation

	var tools []openai.Tool
	if !toolsDisabled {
		tools = actions.ToolCatalog(activeTypes(turn.ActiveIntegrations))
	}

	workflowContext := ""
	if turn.WorkflowResult != nil {
		workflowContext = turn.WorkflowResult.EnhancedContext
	}

	system := BuildSystemMessage(PromptInput{
		Agent:              turn.Agent,
		Now:                turn.Now,
		Tools:              tools,
		ActiveIntegrations: turn.ActiveIntegrations,
		Knowledge:          l.retrieveKnowledge(ctx, turn),
		WorkflowContext:    workflowContext,
		ToolsDisabled:      toolsDisabled,
	})

	messages := make([]openai.ChatCompletionMessage, 0, len(turn.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleSystem, Content: system,
	})
	messages = append(messages, BuildHistory(turn.History)...)
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: turn.Utterance,
	})

	var totalUsage llm.Usage
	anyToolFailure := false

	for round := 0; ; round++ {
		resp, err := l.client.Complete(ctx, &llm.Request{
			Model:       turn.Agent.ModelName,
			Messages:    messages,
			Tools:       tools,
			Temperature: turn.Agent.Temperature,
			MaxTokens:   turn.Agent.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("model call failed: round='%d', error=%w", round, err)
		}

		totalUsage.PromptTokens += resp.Usage.PromptTokens
		totalUsage.CompletionTokens += resp.Usage.CompletionTokens
		totalUsage.TotalTokens += resp.Usage.TotalTokens

		switch {
		case len(resp.ToolCalls) > 0:
			metrics.RecordCompletionRound("tool_calls")
			messages = append(messages, assistantToolCallMessage(resp))
			for _, call := range resp.ToolCalls {
				text, failed := l.executeToolCall(ctx, turn, call)
				if failed {
					anyToolFailure = true
				}
				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					ToolCallID: call.ID,
					Content:    text,
				})
			}
			if round+1 > l.maxDepth {
				metrics.WarnWithContext(ctx, "Completion depth limit reached", map[string]interface{}{
					"conversation_id": turn.ConversationID.String(),
					"max_depth":       l.maxDepth,
				})
				return l.finish(ctx, turn, started, tooComplexText, db.MessageStatusFailed, round+1, totalUsage)
			}

		case resp.Content != "":
			metrics.RecordCompletionRound("content")
			return l.finish(ctx, turn, started, resp.Content, db.MessageStatusSent, round+1, totalUsage)

		default:
			metrics.RecordCompletionRound("empty")
			text := emptyReplyText
			if anyToolFailure {
				text = toolFailureText
			}
			return l.finish(ctx, turn, started, text, db.MessageStatusFailed, round+1, totalUsage)
		}
	}
}

/* executeToolCall parses and dispatches one requested call. Malformed
 * arguments are an error for that call only, never for the round. */
func (l *Loop) executeToolCall(ctx context.Context, turn *Turn, call openai.ToolCall) (string, bool) {
	toolName := actions.ToolName(call.Function.Name)
	ctx = metrics.WithToolName(ctx, call.Function.Name)

	var arguments map[string]interface{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &arguments); err != nil {
			metrics.WarnWithContext(ctx, "Tool call arguments unparseable", map[string]interface{}{
				"tool_call_id": call.ID,
				"error":        err.Error(),
			})
			return fmt.Sprintf("Tool %s failed: invalid arguments: %s", toolName, err.Error()), true
		}
	}

	result := l.dispatcher.Dispatch(ctx, toolName, arguments, turn.ActiveIntegrations, turn.UserID)
	if !result.Success {
		return fmt.Sprintf("Tool %s failed: %s", toolName, result.Error), true
	}
	return l.formatToolResult(toolName, result.Result), false
}

/* formatToolResult renders a bounded textual result for the model */
func (l *Loop) formatToolResult(toolName actions.ToolName, result interface{}) string {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("Tool %s succeeded but the result could not be serialized.", toolName)
	}
	text := string(data)
	if l.toolResultMaxChars > 0 && len(text) > l.toolResultMaxChars {
		cut := l.toolResultMaxChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "... (truncated)"
	}
	return fmt.Sprintf("Tool %s result: %s", toolName, text)
}

/* finish persists the assistant message, enqueues delivery, and
 * records usage. This is the single exit path for every turn. */
func (l *Loop) finish(ctx context.Context, turn *Turn, started time.Time,
	content, status string, rounds int, usage llm.Usage) (*Reply, error) {
	responseTime := time.Since(started).Milliseconds()
	tokenCount := usage.TotalTokens

	msg := &db.Message{
		ConversationID: turn.ConversationID,
		AgentID:        turn.Agent.ID,
		Role:           "assistant",
		Content:        content,
		Status:         status,
		ResponseTimeMs: &responseTime,
		TokenCount:     &tokenCount,
		Metadata:       db.JSONBMap{},
	}
	messageID, err := l.store.CreateMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("assistant message persist failed: conversation_id='%s', error=%w",
			turn.ConversationID, err)
	}

	if l.delivery != nil {
		job := &db.DeliveryJob{
			ConversationID: turn.ConversationID,
			MessageID:      messageID,
			AgentID:        turn.Agent.ID,
			RecipientID:    turn.UserID,
		}
		if err := l.delivery.EnqueueForSending(ctx, job); err != nil {
			metrics.ErrorWithContext(ctx, "Delivery enqueue failed", err, map[string]interface{}{
				"message_id": messageID.String(),
			})
		}
	}

	if l.usage != nil {
		l.usage.RecordUsage(ctx, turn.Agent.ID, turn.UserID, usage.PromptTokens, usage.CompletionTokens)
	}

	metrics.RecordTurn(status, time.Since(started))
	metrics.InfoWithContext(ctx, "Turn completed", map[string]interface{}{
		"conversation_id":  turn.ConversationID.String(),
		"status":           status,
		"rounds":           rounds,
		"response_time_ms": responseTime,
		"total_tokens":     tokenCount,
	})

	return &Reply{
		MessageID: messageID,
		Content:   content,
		Status:    status,
		Rounds:    rounds,
		Usage:     usage,
	}, nil
}

/* retrieveKnowledge is best-effort: retrieval errors degrade to an
 * answer without the knowledge section */
func (l *Loop) retrieveKnowledge(ctx context.Context, turn *Turn) string {
	if l.retriever == nil {
		return ""
	}
	chunks, err := l.retriever.Retrieve(ctx, turn.Agent.ID, turn.Utterance, l.knowledgeTopK)
	if err != nil {
		metrics.WarnWithContext(ctx, "Knowledge retrieval failed", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}
	return knowledge.FormatChunks(chunks, l.knowledgeTopK, l.chunkMaxChars)
}

/* assistantToolCallMessage rebuilds the assistant turn that requested
 * the tool calls so result attribution resolves by tool_call_id */
func assistantToolCallMessage(resp *llm.Response) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role:      openai.ChatMessageRoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	}
}

func activeTypes(integrations []db.Integration) map[actions.IntegrationType]bool {
	types := make(map[actions.IntegrationType]bool, len(integrations))
	for _, integration := range integrations {
		if integration.Status == db.IntegrationStatusActive {
			types[actions.IntegrationType(integration.Type)] = true
		}
	}
	return types
}
