/*-------------------------------------------------------------------------
 *
 * executor_test.go
 *    Tests for the workflow step executor
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 *-------------------------------------------------------------------------
 */

package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaybot/RelayAgent/internal/actions"
	"github.com/relaybot/RelayAgent/internal/db"
)

/* fakeDispatcher returns scripted results per tool, in call order */
type fakeDispatcher struct {
	results map[actions.ToolName][]actions.ActionResult
	calls   []actions.ToolName
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, toolName actions.ToolName,
	arguments map[string]interface{}, activeIntegrations []db.Integration, callerID string) actions.ActionResult {
	f.calls = append(f.calls, toolName)

	queued := f.results[toolName]
	if len(queued) == 0 {
		return actions.ActionResult{Success: false, Error: "no scripted result"}
	}
	result := queued[0]
	f.results[toolName] = queued[1:]
	return result
}

func eventsResult(ids ...string) actions.ActionResult {
	events := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		events = append(events, map[string]interface{}{
			"id":      id,
			"summary": "Dental checkup",
			"start":   "2026-09-02T10:00:00-06:00",
		})
	}
	return actions.ActionResult{Success: true, Result: map[string]interface{}{"events": events}}
}

func TestRunRetriesWithLinearBackoff(t *testing.T) {
	dispatcher := &fakeDispatcher{results: map[actions.ToolName][]actions.ActionResult{
		actions.ToolGetBookedCalendarEvents: {
			{Success: false, Error: "transient"},
			{Success: false, Error: "transient"},
			eventsResult("evt_1"),
		},
	}}

	executor := NewExecutor(dispatcher, time.Second)
	var slept []time.Duration
	executor.sleep = func(d time.Duration) { slept = append(slept, d) }

	workflow := &Definition{
		Name: "retryProbe",
		Steps: []Step{
			{
				Tool:           actions.ToolGetBookedCalendarEvents,
				Required:       true,
				RetryOnFailure: true,
				MaxRetries:     2,
			},
		},
	}

	results := executor.Run(context.Background(), workflow, ExecContext{Now: time.Now()}, nil)

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, 2, results[0].RetryAttempts)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, slept)
	assert.Len(t, dispatcher.calls, 3)
}

func TestRunRetriesExhausted(t *testing.T) {
	dispatcher := &fakeDispatcher{results: map[actions.ToolName][]actions.ActionResult{
		actions.ToolGetBookedCalendarEvents: {
			{Success: false, Error: "down"},
			{Success: false, Error: "down"},
			{Success: false, Error: "down"},
		},
	}}

	executor := NewExecutor(dispatcher, time.Second)
	executor.sleep = func(time.Duration) {}

	workflow := &Definition{
		Name: "retryProbe",
		Steps: []Step{
			{
				Tool:           actions.ToolGetBookedCalendarEvents,
				Required:       true,
				RetryOnFailure: true,
				MaxRetries:     2,
			},
		},
	}

	results := executor.Run(context.Background(), workflow, ExecContext{Now: time.Now()}, nil)

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, 2, results[0].RetryAttempts)
	assert.Equal(t, "down", results[0].Error)
}

func TestRunNoRetryWhenDisabled(t *testing.T) {
	dispatcher := &fakeDispatcher{results: map[actions.ToolName][]actions.ActionResult{
		actions.ToolLookupCustomer: {
			{Success: false, Error: "boom"},
		},
	}}

	executor := NewExecutor(dispatcher, time.Second)
	executor.sleep = func(time.Duration) { t.Fatal("sleep must not be called") }

	workflow := &Definition{
		Name: "noRetry",
		Steps: []Step{
			{Tool: actions.ToolLookupCustomer, Required: false},
		},
	}

	results := executor.Run(context.Background(), workflow, ExecContext{Now: time.Now()}, nil)

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Zero(t, results[0].RetryAttempts)
	assert.Len(t, dispatcher.calls, 1)
}

func TestRunConditionalSkipsWithoutAppointments(t *testing.T) {
	dispatcher := &fakeDispatcher{results: map[actions.ToolName][]actions.ActionResult{
		actions.ToolGetBookedCalendarEvents: {eventsResult()},
	}}

	executor := NewExecutor(dispatcher, time.Second)
	catalog := NewCatalog()

	results := executor.Run(context.Background(), catalog.ByName(WorkflowReschedule),
		ExecContext{Now: time.Now()}, nil)

	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Skipped)
	assert.False(t, results[1].Success)
	/* availability must never have been dispatched */
	assert.Equal(t, []actions.ToolName{actions.ToolGetBookedCalendarEvents}, dispatcher.calls)
}

func TestRunConditionalExecutesWithAppointments(t *testing.T) {
	dispatcher := &fakeDispatcher{results: map[actions.ToolName][]actions.ActionResult{
		actions.ToolGetBookedCalendarEvents: {eventsResult("evt_9")},
		actions.ToolCheckCalendarAvailability: {
			{Success: true, Result: map[string]interface{}{"slots": []interface{}{"2026-09-03T09:00"}}},
		},
	}}

	executor := NewExecutor(dispatcher, time.Second)
	catalog := NewCatalog()

	results := executor.Run(context.Background(), catalog.ByName(WorkflowReschedule),
		ExecContext{Now: time.Now()}, nil)

	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Skipped)
	assert.True(t, results[1].Success)
}

func TestRunRequiredFailureContinues(t *testing.T) {
	dispatcher := &fakeDispatcher{results: map[actions.ToolName][]actions.ActionResult{
		actions.ToolLookupCustomer: {
			{Success: false, Error: "crm unreachable"},
		},
		actions.ToolCreateSupportTicket: {
			{Success: true, Result: map[string]interface{}{"ticketId": "T-77"}},
		},
	}}

	executor := NewExecutor(dispatcher, time.Second)
	executor.sleep = func(time.Duration) {}

	workflow := &Definition{
		Name: "continueProbe",
		Steps: []Step{
			{Tool: actions.ToolLookupCustomer, Required: true},
			{Tool: actions.ToolCreateSupportTicket, Required: false},
		},
	}

	results := executor.Run(context.Background(), workflow, ExecContext{Now: time.Now()}, nil)

	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.True(t, results[1].Success)
}
