/*-------------------------------------------------------------------------
 *
 * predicates_test.go
 *    Tests for step conditional predicates
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
)

func TestEvaluateHasExistingAppointments(t *testing.T) {
	tests := []struct {
		name    string
		results []StepResult
		want    bool
	}{
		{
			"no prior steps",
			nil,
			false,
		},
		{
			"listing succeeded with events",
			[]StepResult{{
				StepName: "getMyBookedCalendarEvents",
				Success:  true,
				Result: map[string]interface{}{
					"events": []interface{}{map[string]interface{}{"id": "evt_1"}},
				},
			}},
			true,
		},
		{
			"listing succeeded with empty events",
			[]StepResult{{
				StepName: "getMyBookedCalendarEvents",
				Success:  true,
				Result:   map[string]interface{}{"events": []interface{}{}},
			}},
			false,
		},
		{
			"listing failed",
			[]StepResult{{
				StepName: "getMyBookedCalendarEvents",
				Success:  false,
				Error:    "calendar down",
			}},
			false,
		},
		{
			"unrelated step with events shape",
			[]StepResult{{
				StepName: "lookupCustomer",
				Success:  true,
				Result: map[string]interface{}{
					"events": []interface{}{map[string]interface{}{"id": "evt_1"}},
				},
			}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(context.Background(), PredicateHasExistingAppointments, EvalContext{Results: tt.results})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateProfilePredicates(t *testing.T) {
	premium := &UserProfile{IsPremiumUser: true}
	existing := &UserProfile{IsExistingClient: true}

	assert.True(t, Evaluate(context.Background(), PredicateIsPremiumUser, EvalContext{Profile: premium}))
	assert.False(t, Evaluate(context.Background(), PredicateIsPremiumUser, EvalContext{Profile: existing}))
	assert.True(t, Evaluate(context.Background(), PredicateIsExistingClient, EvalContext{Profile: existing}))

	/* nil profile must fail closed, not panic */
	assert.False(t, Evaluate(context.Background(), PredicateIsPremiumUser, EvalContext{}))
	assert.False(t, Evaluate(context.Background(), PredicateIsExistingClient, EvalContext{}))
}

func TestEvaluateTimePredicates(t *testing.T) {
	tuesdayMorning := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	tuesdayNight := time.Date(2026, 9, 1, 22, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)

	assert.True(t, Evaluate(context.Background(), PredicateIsBusinessHours, EvalContext{Now: tuesdayMorning}))
	assert.False(t, Evaluate(context.Background(), PredicateIsBusinessHours, EvalContext{Now: tuesdayNight}))
	assert.False(t, Evaluate(context.Background(), PredicateIsBusinessHours, EvalContext{Now: saturday}))

	assert.True(t, Evaluate(context.Background(), PredicateIsWeekend, EvalContext{Now: saturday}))
	assert.False(t, Evaluate(context.Background(), PredicateIsWeekend, EvalContext{Now: tuesdayMorning}))
}

func TestEvaluateUrgency(t *testing.T) {
	assert.True(t, Evaluate(context.Background(), PredicateIsUrgentRequest, EvalContext{Utterance: "es URGENTE por favor"}))
	assert.True(t, Evaluate(context.Background(), PredicateIsUrgentRequest, EvalContext{Utterance: "need this asap"}))
	assert.False(t, Evaluate(context.Background(), PredicateIsUrgentRequest, EvalContext{Utterance: "cuando puedas"}))
}

func TestEvaluateUnknownPredicateFailsClosed(t *testing.T) {
	assert.False(t, Evaluate(context.Background(), Predicate("hasTimeTravel"), EvalContext{}))
}
