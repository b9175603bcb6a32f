/*-------------------------------------------------------------------------
 *
 * matcher.go
 *    Workflow matcher for RelayAgent
 *
 * Scores the catalog against an incoming utterance using trigger
 * keywords, phrase and word-boundary bonuses, and category heuristics.
 * The reschedule flow is scored by a dedicated override because short
 * confirmations ("sí", "ok") are indistinguishable from noise without
 * the prior assistant turns, and must win decisively when that context
 * is present.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/workflow/matcher.go
 *
 *-------------------------------------------------------------------------
 */

package workflow

import (
	"context"
	"regexp"
	"strings"

	"github.com/relaybot/RelayAgent/internal/metrics"
)

/* Minimum score a workflow must exceed to be selected */
const matchThreshold = 10.0

/* RecentContextTurns is how many trailing assistant turns the matcher inspects */
const RecentContextTurns = 3

/* MatchOutcome is the matcher's decision for one utterance */
type MatchOutcome struct {
	Workflow           *Definition
	Score              float64
	SimpleConfirmation bool
	Reason             string
}

var confirmationTokens = map[string]bool{
	"sí": true, "si": true, "ok": true, "okay": true, "vale": true,
	"yes": true, "claro": true, "dale": true, "perfecto": true,
	"sure": true, "de acuerdo": true, "👍": true, "✅": true,
}

var rescheduleVerbs = []string{
	"cambiar", "reagendar", "reprogramar", "mover", "reschedule", "change", "move",
}

var rescheduleIndicators = []string{
	"would you like to change", "te gustaría cambiar", "quieres cambiar",
	"reagendar", "reprogramar", "cambiar tu cita", "reschedule",
	"nueva fecha", "nuevo horario", "new date", "new time",
}

var existingAppointmentAsks = []string{
	"mi cita", "mis citas", "my appointment", "my appointments",
	"tengo una cita", "qué citas", "what appointments", "cuándo es mi",
}

var appointmentTerms = []string{
	"cita", "appointment", "agenda", "calendario", "calendar", "reservar", "booking",
}

var serviceTerms = []string{
	"ayuda", "help", "soporte", "support", "problema", "issue", "queja",
}

/* Matcher scores the workflow catalog against utterances */
type Matcher struct {
	catalog  *Catalog
	boundary map[string]*regexp.Regexp
}

/* NewMatcher creates a matcher, pre-compiling word-boundary patterns */
func NewMatcher(catalog *Catalog) *Matcher {
	boundary := make(map[string]*regexp.Regexp)
	for _, workflow := range catalog.Workflows() {
		for _, trigger := range workflow.Triggers {
			if _, ok := boundary[trigger]; !ok {
				boundary[trigger] = regexp.MustCompile(`\b` + regexp.QuoteMeta(trigger) + `\b`)
			}
		}
	}
	return &Matcher{catalog: catalog, boundary: boundary}
}

/* Match scores the catalog against an utterance and the most recent
 * assistant turns, returning the single best workflow above threshold,
 * a simple-confirmation outcome, or no workflow at all */
func (m *Matcher) Match(ctx context.Context, utterance string, recentAssistantTurns []string) MatchOutcome {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	recent := lastN(recentAssistantTurns, RecentContextTurns)

	/* Bare confirmations bypass scoring entirely: with reschedule context
	 * they force the reschedule flow, without it no workflow runs */
	if confirmationTokens[lower] {
		if hasRescheduleContext(recent) {
			workflow := m.catalog.ByName(WorkflowReschedule)
			metrics.RecordWorkflowMatch(WorkflowReschedule, "confirmation_context")
			metrics.InfoWithContext(ctx, "Confirmation with reschedule context, forcing reschedule workflow", map[string]interface{}{
				"utterance": utterance,
			})
			return MatchOutcome{Workflow: workflow, Score: 800, Reason: "confirmation with reschedule context"}
		}
		metrics.RecordWorkflowMatch("none", "simple_confirmation")
		return MatchOutcome{SimpleConfirmation: true, Reason: "simple confirmation, no workflow executed"}
	}

	var best *Definition
	var bestScore float64

	for i := range m.catalog.Workflows() {
		workflow := &m.catalog.Workflows()[i]

		var score float64
		if workflow.Name == WorkflowReschedule {
			score = rescheduleScore(lower, recent)
		} else {
			score = m.genericScore(lower, workflow) + categoryBonus(lower, workflow)
		}

		if score > bestScore {
			bestScore = score
			best = workflow
		}
	}

	if best == nil || bestScore <= matchThreshold {
		metrics.RecordWorkflowMatch("none", "below_threshold")
		return MatchOutcome{Reason: "no workflow above threshold"}
	}

	metrics.RecordWorkflowMatch(best.Name, "matched")
	metrics.DebugWithContext(ctx, "Workflow matched", map[string]interface{}{
		"workflow": best.Name,
		"score":    bestScore,
	})
	return MatchOutcome{Workflow: best, Score: bestScore, Reason: "matched"}
}

/* genericScore applies trigger-keyword scoring with phrase and
 * word-boundary bonuses */
func (m *Matcher) genericScore(lower string, workflow *Definition) float64 {
	var score float64
	for _, trigger := range workflow.Triggers {
		if !strings.Contains(lower, trigger) {
			continue
		}
		inc := float64(len(trigger) * workflow.Priority)
		score += inc
		if strings.Contains(trigger, " ") {
			score += inc * 0.5
		}
		if re := m.boundary[trigger]; re != nil && re.MatchString(lower) {
			score += inc * 0.3
		}
	}
	return score
}

/* categoryBonus applies domain-term bonuses and the generic-name malus */
func categoryBonus(lower string, workflow *Definition) float64 {
	var bonus float64

	hasAppointmentTerms := containsAny(lower, appointmentTerms)
	hasServiceTerms := containsAny(lower, serviceTerms)

	if hasAppointmentTerms && workflow.Category == CategoryAppointments {
		bonus += 20
	}
	if hasServiceTerms && workflow.Category == CategoryCustomerService {
		bonus += 15
	}
	if strings.Contains(strings.ToLower(workflow.Name), "vip") && containsAny(lower, urgencyTerms) {
		bonus += 50
	}
	if workflow.Name == WorkflowGeneral && (hasAppointmentTerms || hasServiceTerms) {
		bonus -= 10
	}

	return bonus
}

/* rescheduleScore is the override scoring for the reschedule flow */
func rescheduleScore(lower string, recentAssistantTurns []string) float64 {
	var score float64

	if containsAny(lower, rescheduleVerbs) {
		score += 1000
	}
	if len(lower) <= 10 && confirmationTokens[lower] && hasRescheduleContext(recentAssistantTurns) {
		score += 800
	}
	if containsAny(lower, existingAppointmentAsks) {
		score += 200
	}

	return score
}

/* hasRescheduleContext reports whether any recent assistant turn carried
 * reschedule-indicator language */
func hasRescheduleContext(recentAssistantTurns []string) bool {
	for _, turn := range recentAssistantTurns {
		lower := strings.ToLower(turn)
		if containsAny(lower, rescheduleIndicators) {
			return true
		}
	}
	return false
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func lastN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
