/*-------------------------------------------------------------------------
 *
 * dispatcher_test.go
 *    Tests for the action dispatcher
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 *-------------------------------------------------------------------------
 */

package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaybot/RelayAgent/internal/db"
)

/* stubExecutor returns a fixed outcome, or panics when told to */
type stubExecutor struct {
	result     interface{}
	err        error
	panicValue interface{}
	lastAction string
	lastParams map[string]interface{}
}

func (s *stubExecutor) Execute(ctx context.Context, integration *db.Integration,
	action string, parameters map[string]interface{}, callerID string) (interface{}, error) {
	s.lastAction = action
	s.lastParams = parameters
	if s.panicValue != nil {
		panic(s.panicValue)
	}
	return s.result, s.err
}

func activeCalendarIntegration() db.Integration {
	return db.Integration{
		ID:       uuid.MustParse("33333333-3333-3333-3333-333333333333"),
		Type:     "calendar",
		Provider: "google",
		Status:   db.IntegrationStatusActive,
	}
}

func TestDispatchUnmappedTool(t *testing.T) {
	dispatcher := NewDispatcher(nil, time.Second)

	result := dispatcher.Dispatch(context.Background(), ToolName("openPodBayDoors"), nil, nil, "u1")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, ErrUnmappedTool.Error())
	assert.Contains(t, result.Error, "openPodBayDoors")
}

func TestDispatchIntegrationUnavailable(t *testing.T) {
	dispatcher := NewDispatcher(nil, time.Second)

	/* active integrations carry messaging only, tool needs calendar */
	integrations := []db.Integration{{
		Type:     "messaging",
		Provider: "whatsapp",
		Status:   db.IntegrationStatusActive,
	}}

	result := dispatcher.Dispatch(context.Background(), ToolGetBookedCalendarEvents, nil, integrations, "u1")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, ErrIntegrationUnavailable.Error())
}

func TestDispatchSkipsInactiveIntegration(t *testing.T) {
	dispatcher := NewDispatcher(nil, time.Second)
	stub := &stubExecutor{result: "ignored"}
	dispatcher.RegisterExecutor(IntegrationCalendar, ProviderGoogle, stub)

	inactive := activeCalendarIntegration()
	inactive.Status = "DISABLED"

	result := dispatcher.Dispatch(context.Background(), ToolGetBookedCalendarEvents, nil,
		[]db.Integration{inactive}, "u1")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, ErrIntegrationUnavailable.Error())
}

func TestDispatchSuccess(t *testing.T) {
	dispatcher := NewDispatcher(nil, time.Second)
	stub := &stubExecutor{result: map[string]interface{}{"events": []interface{}{}}}
	dispatcher.RegisterExecutor(IntegrationCalendar, ProviderGoogle, stub)

	args := map[string]interface{}{"maxResults": 5}
	result := dispatcher.Dispatch(context.Background(), ToolGetBookedCalendarEvents, args,
		[]db.Integration{activeCalendarIntegration()}, "u1")

	require.True(t, result.Success)
	assert.Equal(t, "list_events", stub.lastAction)
	assert.Equal(t, args, stub.lastParams)
}

func TestDispatchNoExecutorRegistered(t *testing.T) {
	dispatcher := NewDispatcher(nil, time.Second)

	result := dispatcher.Dispatch(context.Background(), ToolGetBookedCalendarEvents, nil,
		[]db.Integration{activeCalendarIntegration()}, "u1")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, ErrNoExecutor.Error())
}

func TestDispatchExecutorErrorBecomesResult(t *testing.T) {
	dispatcher := NewDispatcher(nil, time.Second)
	dispatcher.RegisterExecutor(IntegrationCalendar, ProviderGoogle,
		&stubExecutor{err: errors.New("provider quota exceeded")})

	result := dispatcher.Dispatch(context.Background(), ToolGetBookedCalendarEvents, nil,
		[]db.Integration{activeCalendarIntegration()}, "u1")

	assert.False(t, result.Success)
	assert.Equal(t, "provider quota exceeded", result.Error)
	assert.Contains(t, result.Details, "duration_ms")
}

func TestDispatchExecutorPanicIsContained(t *testing.T) {
	dispatcher := NewDispatcher(nil, time.Second)
	dispatcher.RegisterExecutor(IntegrationCalendar, ProviderGoogle,
		&stubExecutor{panicValue: "nil map write"})

	result := dispatcher.Dispatch(context.Background(), ToolGetBookedCalendarEvents, nil,
		[]db.Integration{activeCalendarIntegration()}, "u1")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "executor panic")
	assert.Contains(t, result.Error, "nil map write")
}
