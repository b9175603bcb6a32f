/*-------------------------------------------------------------------------
 *
 * loop_test.go
 *    Tests for the bounded tool-calling completion loop
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 *-------------------------------------------------------------------------
 */

package completion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaybot/RelayAgent/internal/actions"
	"github.com/relaybot/RelayAgent/internal/db"
	"github.com/relaybot/RelayAgent/internal/llm"
	"github.com/relaybot/RelayAgent/internal/workflow"
)

/* scriptedClient returns queued responses and records every request */
type scriptedClient struct {
	responses []*llm.Response
	err       error
	requests  []*llm.Request
}

func (c *scriptedClient) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	/* snapshot the history: the loop mutates its slice between rounds */
	copied := *req
	copied.Messages = append([]openai.ChatCompletionMessage(nil), req.Messages...)
	c.requests = append(c.requests, &copied)

	if c.err != nil {
		return nil, c.err
	}
	if len(c.responses) == 0 {
		return &llm.Response{}, nil
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

/* recordingDispatcher returns scripted results per tool name */
type recordingDispatcher struct {
	results map[actions.ToolName]actions.ActionResult
	calls   []actions.ToolName
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, toolName actions.ToolName,
	arguments map[string]interface{}, activeIntegrations []db.Integration, callerID string) actions.ActionResult {
	d.calls = append(d.calls, toolName)
	if result, ok := d.results[toolName]; ok {
		return result
	}
	return actions.ActionResult{Success: false, Error: "no scripted result"}
}

type memoryStore struct {
	messages []*db.Message
}

func (s *memoryStore) CreateMessage(ctx context.Context, msg *db.Message) (uuid.UUID, error) {
	msg.ID = uuid.New()
	s.messages = append(s.messages, msg)
	return msg.ID, nil
}

type recordingQueue struct {
	jobs []*db.DeliveryJob
}

func (q *recordingQueue) EnqueueForSending(ctx context.Context, job *db.DeliveryJob) error {
	q.jobs = append(q.jobs, job)
	return nil
}

type recordingUsage struct {
	prompt, completion int
}

func (u *recordingUsage) RecordUsage(ctx context.Context, agentID uuid.UUID, userID string,
	promptTokens, completionTokens int) {
	u.prompt += promptTokens
	u.completion += completionTokens
}

func testAgent() *db.Agent {
	return &db.Agent{
		ID:                 uuid.MustParse("44444444-4444-4444-4444-444444444444"),
		Name:               "reception-bot",
		SystemInstructions: "Eres la recepcionista virtual de la clínica.",
		ModelName:          "gpt-4o",
		Temperature:        0.7,
		MaxTokens:          512,
	}
}

func calendarIntegration() db.Integration {
	return db.Integration{
		Type:     "calendar",
		Provider: "google",
		Status:   db.IntegrationStatusActive,
	}
}

type loopFixture struct {
	loop       *Loop
	client     *scriptedClient
	dispatcher *recordingDispatcher
	store      *memoryStore
	queue      *recordingQueue
	usage      *recordingUsage
}

func newLoopFixture(client *scriptedClient, dispatcher *recordingDispatcher, maxDepth int) *loopFixture {
	f := &loopFixture{
		client:     client,
		dispatcher: dispatcher,
		store:      &memoryStore{},
		queue:      &recordingQueue{},
		usage:      &recordingUsage{},
	}
	f.loop = NewLoop(client, dispatcher, f.store, f.queue, f.usage, nil, maxDepth, 5, 1500, 4000)
	return f
}

func testTurn() *Turn {
	return &Turn{
		Agent:              testAgent(),
		ConversationID:     uuid.MustParse("55555555-5555-5555-5555-555555555555"),
		UserID:             "user-7",
		Utterance:          "quiero cambiar mi cita",
		ActiveIntegrations: []db.Integration{calendarIntegration()},
		Now:                time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRespondContentTerminates(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		{Content: "Tu cita sigue agendada para el martes.", Usage: llm.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}},
	}}
	f := newLoopFixture(client, &recordingDispatcher{}, 5)

	reply, err := f.loop.Respond(context.Background(), testTurn())

	require.NoError(t, err)
	assert.Equal(t, db.MessageStatusSent, reply.Status)
	assert.Equal(t, "Tu cita sigue agendada para el martes.", reply.Content)
	assert.Equal(t, 1, reply.Rounds)

	require.Len(t, f.store.messages, 1)
	assert.Equal(t, "assistant", f.store.messages[0].Role)
	assert.Equal(t, db.MessageStatusSent, f.store.messages[0].Status)

	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, reply.MessageID, f.queue.jobs[0].MessageID)
	assert.Equal(t, "user-7", f.queue.jobs[0].RecipientID)

	assert.Equal(t, 100, f.usage.prompt)
	assert.Equal(t, 20, f.usage.completion)
}

func TestRespondToolRoundHistoryOrdering(t *testing.T) {
	toolCalls := []openai.ToolCall{
		{
			ID:   "call_1",
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      string(actions.ToolGetBookedCalendarEvents),
				Arguments: `{"maxResults":5}`,
			},
		},
		{
			ID:   "call_2",
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      string(actions.ToolCheckCalendarAvailability),
				Arguments: `{not json`,
			},
		},
	}
	client := &scriptedClient{responses: []*llm.Response{
		{ToolCalls: toolCalls},
		{Content: "Listo."},
	}}
	dispatcher := &recordingDispatcher{results: map[actions.ToolName]actions.ActionResult{
		actions.ToolGetBookedCalendarEvents: {
			Success: true,
			Result:  map[string]interface{}{"events": []interface{}{}},
		},
	}}
	f := newLoopFixture(client, dispatcher, 5)

	reply, err := f.loop.Respond(context.Background(), testTurn())

	require.NoError(t, err)
	assert.Equal(t, db.MessageStatusSent, reply.Status)
	assert.Equal(t, 2, reply.Rounds)

	/* only the well-formed call reaches the dispatcher */
	assert.Equal(t, []actions.ToolName{actions.ToolGetBookedCalendarEvents}, dispatcher.calls)

	/* second request must carry: ... user, assistant(tool_calls), tool, tool */
	require.Len(t, client.requests, 2)
	history := client.requests[1].Messages
	n := len(history)
	require.GreaterOrEqual(t, n, 4)

	assistantMsg := history[n-3]
	assert.Equal(t, openai.ChatMessageRoleAssistant, assistantMsg.Role)
	require.Len(t, assistantMsg.ToolCalls, 2)

	first, second := history[n-2], history[n-1]
	assert.Equal(t, openai.ChatMessageRoleTool, first.Role)
	assert.Equal(t, "call_1", first.ToolCallID)
	assert.Contains(t, first.Content, "result")

	assert.Equal(t, openai.ChatMessageRoleTool, second.Role)
	assert.Equal(t, "call_2", second.ToolCallID)
	assert.Contains(t, second.Content, "invalid arguments")
}

func TestRespondDepthLimit(t *testing.T) {
	toolCall := openai.ToolCall{
		ID:   "call_loop",
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      string(actions.ToolGetBookedCalendarEvents),
			Arguments: `{}`,
		},
	}
	client := &scriptedClient{responses: []*llm.Response{
		{ToolCalls: []openai.ToolCall{toolCall}},
		{ToolCalls: []openai.ToolCall{toolCall}},
		{ToolCalls: []openai.ToolCall{toolCall}},
		{ToolCalls: []openai.ToolCall{toolCall}},
	}}
	dispatcher := &recordingDispatcher{results: map[actions.ToolName]actions.ActionResult{
		actions.ToolGetBookedCalendarEvents: {Success: true, Result: map[string]interface{}{}},
	}}
	f := newLoopFixture(client, dispatcher, 2)

	reply, err := f.loop.Respond(context.Background(), testTurn())

	require.NoError(t, err)
	assert.Equal(t, db.MessageStatusFailed, reply.Status)
	assert.Equal(t, tooComplexText, reply.Content)
	/* rounds 0, 1, 2 ran; round 3 was refused */
	assert.Len(t, client.requests, 3)

	/* the apology still reaches the user */
	require.Len(t, f.store.messages, 1)
	require.Len(t, f.queue.jobs, 1)
}

func TestRespondEmptyResponseFallback(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{{}}}
	f := newLoopFixture(client, &recordingDispatcher{}, 5)

	reply, err := f.loop.Respond(context.Background(), testTurn())

	require.NoError(t, err)
	assert.Equal(t, db.MessageStatusFailed, reply.Status)
	assert.Equal(t, emptyReplyText, reply.Content)
}

func TestRespondFallbackAfterToolFailure(t *testing.T) {
	toolCall := openai.ToolCall{
		ID:   "call_fail",
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      string(actions.ToolGetBookedCalendarEvents),
			Arguments: `{}`,
		},
	}
	client := &scriptedClient{responses: []*llm.Response{
		{ToolCalls: []openai.ToolCall{toolCall}},
		{},
	}}
	dispatcher := &recordingDispatcher{results: map[actions.ToolName]actions.ActionResult{
		actions.ToolGetBookedCalendarEvents: {Success: false, Error: "calendar down"},
	}}
	f := newLoopFixture(client, dispatcher, 5)

	reply, err := f.loop.Respond(context.Background(), testTurn())

	require.NoError(t, err)
	assert.Equal(t, db.MessageStatusFailed, reply.Status)
	/* the fallback must not imply the action succeeded */
	assert.Equal(t, toolFailureText, reply.Content)
}

func TestRespondModelErrorStillReplies(t *testing.T) {
	client := &scriptedClient{err: errors.New("rate limited")}
	f := newLoopFixture(client, &recordingDispatcher{}, 5)

	reply, err := f.loop.Respond(context.Background(), testTurn())

	require.NoError(t, err)
	assert.Equal(t, db.MessageStatusFailed, reply.Status)
	assert.Equal(t, internalErrorText, reply.Content)
	require.Len(t, f.store.messages, 1)
	require.Len(t, f.queue.jobs, 1)
}

func TestRespondSimpleConfirmationDisablesTools(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		{Content: "¡Perfecto, quedamos así!"},
	}}
	f := newLoopFixture(client, &recordingDispatcher{}, 5)

	turn := testTurn()
	turn.Utterance = "ok"
	turn.WorkflowResult = &workflow.Result{UserIntent: workflow.UserIntentSimpleConfirmation}

	reply, err := f.loop.Respond(context.Background(), turn)

	require.NoError(t, err)
	assert.Equal(t, db.MessageStatusSent, reply.Status)
	require.Len(t, client.requests, 1)
	assert.Empty(t, client.requests[0].Tools)
}

func TestRespondWorkflowAnnexInSystemMessage(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		{Content: "Tu cita del martes puede moverse al jueves."},
	}}
	f := newLoopFixture(client, &recordingDispatcher{}, 5)

	turn := testTurn()
	turn.WorkflowResult = &workflow.Result{
		WorkflowExecuted: true,
		WorkflowName:     "rescheduleAppointment",
		EnhancedContext:  "WORKFLOW CONTEXT (rescheduleAppointment):\nEXACT EVENT ID: evt_42\n",
		UserIntent:       "reschedule_appointment",
	}

	_, err := f.loop.Respond(context.Background(), turn)

	require.NoError(t, err)
	require.Len(t, client.requests, 1)
	system := client.requests[0].Messages[0]
	assert.Equal(t, openai.ChatMessageRoleSystem, system.Role)
	assert.Contains(t, system.Content, "EXACT EVENT ID: evt_42")
}

func TestFormatToolResultTruncates(t *testing.T) {
	f := newLoopFixture(&scriptedClient{}, &recordingDispatcher{}, 5)
	f.loop.toolResultMaxChars = 40

	long := strings.Repeat("x", 500)
	text := f.loop.formatToolResult(actions.ToolGetBookedCalendarEvents, map[string]interface{}{"blob": long})

	assert.LessOrEqual(t, len(text), 40+len("Tool getMyBookedCalendarEvents result: ")+len("... (truncated)"))
	assert.Contains(t, text, "... (truncated)")
}

func TestFormatToolResultTruncatesOnRuneBoundary(t *testing.T) {
	f := newLoopFixture(&scriptedClient{}, &recordingDispatcher{}, 5)
	f.loop.toolResultMaxChars = 10

	/* "ñ" is two bytes; the cut at byte 10 lands mid-rune */
	text := f.loop.formatToolResult(actions.ToolGetBookedCalendarEvents,
		map[string]interface{}{"x": "mañana"})

	assert.True(t, utf8.ValidString(text))
	assert.Contains(t, text, "... (truncated)")
}
