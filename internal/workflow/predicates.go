/*-------------------------------------------------------------------------
 *
 * predicates.go
 *    Step conditional predicates for RelayAgent
 *
 * Closed vocabulary of named preconditions evaluated against prior step
 * results, the derived user profile, the raw utterance, and the wall
 * clock. Catalog entries naming a predicate that no longer exists
 * evaluate to false (fail-closed) with a warning, never an error.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/workflow/predicates.go
 *
 *-------------------------------------------------------------------------
 */

package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/relaybot/RelayAgent/internal/actions"
	"github.com/relaybot/RelayAgent/internal/metrics"
)

/* Predicate names one step precondition */
type Predicate string

const (
	PredicateNone                    Predicate = ""
	PredicateHasExistingAppointments Predicate = "hasExistingAppointments"
	PredicateIsPremiumUser           Predicate = "isPremiumUser"
	PredicateIsExistingClient        Predicate = "isExistingClient"
	PredicateIsBusinessHours         Predicate = "isBusinessHours"
	PredicateIsWeekend               Predicate = "isWeekend"
	PredicateIsUrgentRequest         Predicate = "isUrgentRequest"
)

/* EvalContext is the typed input a predicate is evaluated against */
type EvalContext struct {
	Results   []StepResult
	Profile   *UserProfile
	Utterance string
	Now       time.Time
}

var urgencyTerms = []string{
	"urgente", "urgent", "emergencia", "emergency", "inmediato", "immediately",
	"ahora mismo", "right now", "asap", "cuanto antes",
}

/* Evaluate resolves one predicate against the evaluation context */
func Evaluate(ctx context.Context, predicate Predicate, eval EvalContext) bool {
	switch predicate {
	case PredicateNone:
		return true

	case PredicateHasExistingAppointments:
		return hasExistingAppointments(eval.Results)

	case PredicateIsPremiumUser:
		return eval.Profile != nil && eval.Profile.IsPremiumUser

	case PredicateIsExistingClient:
		return eval.Profile != nil && eval.Profile.IsExistingClient

	case PredicateIsBusinessHours:
		hour := eval.Now.Hour()
		weekday := eval.Now.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday && hour >= 9 && hour < 18

	case PredicateIsWeekend:
		weekday := eval.Now.Weekday()
		return weekday == time.Saturday || weekday == time.Sunday

	case PredicateIsUrgentRequest:
		lower := strings.ToLower(eval.Utterance)
		for _, term := range urgencyTerms {
			if strings.Contains(lower, term) {
				return true
			}
		}
		return false

	default:
		/* Fail closed for predicate names with no implementation */
		metrics.WarnWithContext(ctx, "Unknown step predicate, evaluating to false", map[string]interface{}{
			"predicate": string(predicate),
		})
		return false
	}
}

/* hasExistingAppointments is true when a prior calendar listing step
 * succeeded with a non-empty events array */
func hasExistingAppointments(results []StepResult) bool {
	for _, result := range results {
		if result.StepName != string(actions.ToolGetBookedCalendarEvents) || !result.Success {
			continue
		}
		if events := extractEvents(result.Result); len(events) > 0 {
			return true
		}
	}
	return false
}

/* extractEvents pulls the events array out of a calendar listing result */
func extractEvents(result interface{}) []interface{} {
	m, ok := result.(map[string]interface{})
	if !ok {
		return nil
	}
	events, ok := m["events"].([]interface{})
	if !ok {
		return nil
	}
	return events
}
