/*-------------------------------------------------------------------------
 *
 * matcher_test.go
 *    Tests for the workflow matcher
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 *-------------------------------------------------------------------------
 */

package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	return NewMatcher(NewCatalog())
}

func TestMatchNoTriggers(t *testing.T) {
	matcher := newTestMatcher(t)

	outcome := matcher.Match(context.Background(), "xyzzy frobnicate", nil)

	assert.Nil(t, outcome.Workflow)
	assert.False(t, outcome.SimpleConfirmation)
	assert.Zero(t, outcome.Score)
}

func TestMatchSimpleConfirmationWithoutContext(t *testing.T) {
	matcher := newTestMatcher(t)

	tests := []struct {
		name      string
		utterance string
	}{
		{"spanish si", "sí"},
		{"ok", "ok"},
		{"vale", "vale"},
		{"thumbs up emoji", "👍"},
		{"with surrounding whitespace", "  ok  "},
		{"uppercase", "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := matcher.Match(context.Background(), tt.utterance, []string{
				"Tu pedido ha sido enviado.",
			})
			assert.True(t, outcome.SimpleConfirmation)
			assert.Nil(t, outcome.Workflow)
		})
	}
}

func TestMatchConfirmationForcesRescheduleWithContext(t *testing.T) {
	matcher := newTestMatcher(t)

	outcome := matcher.Match(context.Background(), "ok", []string{
		"Tienes una cita el martes a las 10:00.",
		"¿Te gustaría cambiar tu cita a otra fecha?",
	})

	require.NotNil(t, outcome.Workflow)
	assert.Equal(t, WorkflowReschedule, outcome.Workflow.Name)
	assert.False(t, outcome.SimpleConfirmation)
	assert.Equal(t, 800.0, outcome.Score)
}

func TestMatchConfirmationContextWindowIsThreeTurns(t *testing.T) {
	matcher := newTestMatcher(t)

	/* The reschedule indicator is four turns back, outside the window */
	outcome := matcher.Match(context.Background(), "ok", []string{
		"¿Te gustaría cambiar tu cita?",
		"Entendido.",
		"Algo más de contexto.",
		"¿En qué más puedo ayudarte?",
	})

	assert.True(t, outcome.SimpleConfirmation)
	assert.Nil(t, outcome.Workflow)
}

func TestMatchRescheduleVerbOverride(t *testing.T) {
	matcher := newTestMatcher(t)

	outcome := matcher.Match(context.Background(), "quiero cambiar mi cita", nil)

	require.NotNil(t, outcome.Workflow)
	assert.Equal(t, WorkflowReschedule, outcome.Workflow.Name)
	/* verb override (+1000) plus existing-appointment ask (+200) */
	assert.GreaterOrEqual(t, outcome.Score, 1000.0)
}

func TestMatchEnglishReschedule(t *testing.T) {
	matcher := newTestMatcher(t)

	outcome := matcher.Match(context.Background(), "i need to reschedule my appointment", nil)

	require.NotNil(t, outcome.Workflow)
	assert.Equal(t, WorkflowReschedule, outcome.Workflow.Name)
}

func TestMatchCustomerService(t *testing.T) {
	matcher := newTestMatcher(t)

	outcome := matcher.Match(context.Background(), "necesito ayuda con un problema", nil)

	require.NotNil(t, outcome.Workflow)
	assert.Equal(t, WorkflowService, outcome.Workflow.Name)
	assert.Greater(t, outcome.Score, matchThreshold)
}

func TestMatchVIPUrgency(t *testing.T) {
	matcher := newTestMatcher(t)

	outcome := matcher.Match(context.Background(), "tengo una queja urgente", nil)

	require.NotNil(t, outcome.Workflow)
	assert.Equal(t, WorkflowVIPSupport, outcome.Workflow.Name)
}

func TestMatchScheduleAppointment(t *testing.T) {
	matcher := newTestMatcher(t)

	outcome := matcher.Match(context.Background(), "quisiera agendar una cita para mañana", nil)

	require.NotNil(t, outcome.Workflow)
	assert.Equal(t, WorkflowSchedule, outcome.Workflow.Name)
}

func TestGenericScoreBonuses(t *testing.T) {
	matcher := newTestMatcher(t)
	catalog := matcher.catalog

	schedule := catalog.ByName(WorkflowSchedule)

	/* single-word trigger with word boundary: len*priority plus 30% */
	base := matcher.genericScore("quiero una cita", schedule)
	assert.InDelta(t, float64(len("cita")*schedule.Priority)*1.3, base, 0.01)

	/* substring without boundary gets no boundary bonus */
	noBoundary := matcher.genericScore("quiero una citación", schedule)
	assert.InDelta(t, float64(len("cita")*schedule.Priority), noBoundary, 0.01)
}

func TestGenericScoreMultiWordBonus(t *testing.T) {
	matcher := newTestMatcher(t)
	cancel := matcher.catalog.ByName(WorkflowCancel)

	/* "cancel my appointment": multi-word trigger carries +50%, and the
	 * boundary regex matches too, so the total is base*1.8 plus the
	 * single-word "appointment"-free remainder */
	score := matcher.genericScore("please cancel my appointment", cancel)
	base := float64(len("cancel my appointment") * cancel.Priority)
	assert.InDelta(t, base*1.8, score, 0.01)
}
