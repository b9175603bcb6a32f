/*-------------------------------------------------------------------------
 *
 * runner.go
 *    Workflow runner for RelayAgent
 *
 * Orchestrates matcher and executor for one turn: derives the user
 * profile for context-aware workflows, executes the matched steps,
 * renders the human-readable enhanced context consumed by the language
 * model, and appends intent- and profile-conditioned instructions.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/workflow/runner.go
 *
 *-------------------------------------------------------------------------
 */

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/relaybot/RelayAgent/internal/actions"
	"github.com/relaybot/RelayAgent/internal/db"
	"github.com/relaybot/RelayAgent/internal/metrics"
)

/* UserIntentSimpleConfirmation marks a bare confirmation turn: the
 * completion loop still answers, but without the tool layer */
const UserIntentSimpleConfirmation = "simple_confirmation"

var intentByWorkflow = map[string]string{
	WorkflowReschedule: "reschedule_appointment",
	WorkflowSchedule:   "schedule_appointment",
	WorkflowCancel:     "cancel_appointment",
	WorkflowVIPSupport: "urgent_support",
	WorkflowService:    "customer_service",
	WorkflowSales:      "sales_inquiry",
	WorkflowGeneral:    "general_inquiry",
}

/* Runner drives matcher and executor for one conversation turn */
type Runner struct {
	matcher  *Matcher
	executor *Executor
	queries  *db.Queries
}

/* NewRunner creates a workflow runner; queries may be nil in tests,
 * which disables profile derivation and run persistence */
func NewRunner(matcher *Matcher, executor *Executor, queries *db.Queries) *Runner {
	return &Runner{matcher: matcher, executor: executor, queries: queries}
}

/* Run matches and, when a workflow wins, executes it and renders the
 * enhanced context annex for the completion loop */
func (r *Runner) Run(ctx context.Context, execCtx ExecContext, recentAssistantTurns []string) *Result {
	started := time.Now()

	outcome := r.matcher.Match(ctx, execCtx.Utterance, recentAssistantTurns)

	if outcome.SimpleConfirmation {
		return &Result{
			WorkflowExecuted: false,
			UserIntent:       UserIntentSimpleConfirmation,
			ExecutionTimeMs:  time.Since(started).Milliseconds(),
		}
	}

	if outcome.Workflow == nil {
		return &Result{
			WorkflowExecuted: false,
			UserIntent:       "general_inquiry",
			ExecutionTimeMs:  time.Since(started).Milliseconds(),
		}
	}

	workflow := outcome.Workflow

	var profile *UserProfile
	if workflow.ContextAware {
		profile = r.buildProfile(ctx, execCtx)
	}

	results := r.executor.Run(ctx, workflow, execCtx, profile)

	var sb strings.Builder
	writeNarrative(&sb, workflow, results)
	writeInstructions(&sb, workflow, results, profile)

	result := &Result{
		WorkflowExecuted: true,
		WorkflowName:     workflow.Name,
		Category:         workflow.Category,
		Results:          results,
		EnhancedContext:  sb.String(),
		ExecutionTimeMs:  time.Since(started).Milliseconds(),
		UserIntent:       intentByWorkflow[workflow.Name],
	}

	r.recordRun(ctx, execCtx, result, started)
	return result
}

/* buildProfile derives the ephemeral user profile for context-aware runs */
func (r *Runner) buildProfile(ctx context.Context, execCtx ExecContext) *UserProfile {
	profile := &UserProfile{PreferredLanguage: "es", LastActivity: execCtx.Now}
	if r.queries == nil {
		return profile
	}

	if count, err := r.queries.CountConversationsByUser(ctx, execCtx.AgentID, execCtx.UserID); err == nil {
		profile.IsExistingClient = count > 1
	} else {
		metrics.WarnWithContext(ctx, "Profile derivation: conversation count failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	for _, name := range []string{WorkflowSchedule, WorkflowReschedule} {
		if count, err := r.queries.CountWorkflowExecutions(ctx, execCtx.ConversationID, name); err == nil {
			profile.AppointmentHistory += count
		}
	}

	if conv, err := r.queries.GetConversation(ctx, execCtx.ConversationID); err == nil {
		profile.LastActivity = conv.LastActivityAt
		if premium, ok := conv.Metadata["premium"].(bool); ok {
			profile.IsPremiumUser = premium
		}
		if lang, ok := conv.Metadata["language"].(string); ok && lang != "" {
			profile.PreferredLanguage = lang
		}
	}

	return profile
}

/* recordRun persists the audit row and metrics for one workflow run */
func (r *Runner) recordRun(ctx context.Context, execCtx ExecContext, result *Result, started time.Time) {
	failed := 0
	for _, step := range result.Results {
		if !step.Success && !step.Skipped {
			failed++
		}
	}

	status := "ok"
	if failed > 0 {
		status = "partial"
	}
	metrics.RecordWorkflowExecution(result.WorkflowName, status, time.Since(started))

	if r.queries == nil {
		return
	}
	record := &db.WorkflowExecutionRecord{
		WorkflowName:   result.WorkflowName,
		ConversationID: execCtx.ConversationID,
		Executed:       true,
		StepCount:      len(result.Results),
		FailedSteps:    failed,
		UserIntent:     result.UserIntent,
		DurationMs:     result.ExecutionTimeMs,
	}
	if err := r.queries.CreateWorkflowExecutionRecord(ctx, record); err != nil {
		metrics.ErrorWithContext(ctx, "Workflow execution record persist failed", err, map[string]interface{}{
			"workflow": result.WorkflowName,
		})
	}
}

/* writeNarrative renders one structured block per executed step */
func writeNarrative(sb *strings.Builder, workflow *Definition, results []StepResult) {
	fmt.Fprintf(sb, "WORKFLOW CONTEXT (%s):\n", workflow.Name)

	for _, step := range results {
		if step.Skipped {
			continue
		}
		if !step.Success {
			fmt.Fprintf(sb, "Step %s failed: %s\n", step.StepName, step.Error)
			continue
		}

		switch step.StepName {
		case string(actions.ToolGetBookedCalendarEvents):
			writeEventsBlock(sb, step.Result)
		case string(actions.ToolCheckCalendarAvailability):
			writeSlotsBlock(sb, step.Result)
		case string(actions.ToolLookupCustomer):
			writeCustomerBlock(sb, step.Result)
		case string(actions.ToolCreateSupportTicket):
			writeTicketBlock(sb, step.Result)
		default:
			fmt.Fprintf(sb, "Step %s completed: %s\n", step.StepName, compactJSON(step.Result))
		}
	}
}

/* writeEventsBlock enumerates booked events with their exact identifiers
 * called out so the model cannot fabricate or reuse stale ones */
func writeEventsBlock(sb *strings.Builder, result interface{}) {
	events := extractEvents(result)
	if len(events) == 0 {
		sb.WriteString("The user has no booked appointments.\n")
		return
	}

	fmt.Fprintf(sb, "The user has %d booked appointment(s):\n", len(events))
	for _, raw := range events {
		event, _ := raw.(map[string]interface{})
		id, _ := event["id"].(string)
		summary, _ := event["summary"].(string)
		start, _ := event["start"].(string)
		fmt.Fprintf(sb, "- %q at %s — EXACT EVENT ID: %s\n", summary, start, id)
	}
	sb.WriteString("These event IDs are the only valid identifiers for this user's appointments.\n")
}

func writeSlotsBlock(sb *strings.Builder, result interface{}) {
	m, _ := result.(map[string]interface{})
	slots, _ := m["slots"].([]interface{})
	if len(slots) == 0 {
		sb.WriteString("No free slots were found in the requested range.\n")
		return
	}
	sb.WriteString("Available slots:\n")
	for _, slot := range slots {
		fmt.Fprintf(sb, "- %v\n", slot)
	}
}

func writeCustomerBlock(sb *strings.Builder, result interface{}) {
	m, ok := result.(map[string]interface{})
	if !ok || len(m) == 0 {
		sb.WriteString("No customer record was found.\n")
		return
	}
	fmt.Fprintf(sb, "Customer record: %s\n", compactJSON(m))
}

func writeTicketBlock(sb *strings.Builder, result interface{}) {
	m, _ := result.(map[string]interface{})
	if id, ok := m["ticketId"].(string); ok && id != "" {
		fmt.Fprintf(sb, "Support ticket created — TICKET ID: %s\n", id)
		return
	}
	fmt.Fprintf(sb, "Support ticket created: %s\n", compactJSON(result))
}

/* writeInstructions appends category-, profile-, and workflow-specific
 * directives for the downstream model */
func writeInstructions(sb *strings.Builder, workflow *Definition, results []StepResult, profile *UserProfile) {
	sb.WriteString("\nINSTRUCTIONS:\n")

	switch workflow.Category {
	case CategoryAppointments:
		if hasExistingAppointments(results) {
			sb.WriteString("- The user already has appointments booked. Prioritize updating an existing appointment over creating a new one.\n")
		}
	case CategoryCustomerService:
		sb.WriteString("- Acknowledge the issue before proposing a resolution.\n")
	case CategorySales:
		sb.WriteString("- Quote availability and prices only from the inventory results above; never guess stock.\n")
	case CategorySupport:
		sb.WriteString("- Reference the ticket identifier above in your reply.\n")
	}

	if workflow.Name == WorkflowReschedule {
		sb.WriteString("- To reschedule, call updateGoogleCalendarEvent with the EXACT EVENT ID listed above, verbatim.\n")
		sb.WriteString("- Never invent an identifier or substitute a short numeric placeholder for an event ID.\n")
		sb.WriteString("- If more than one appointment is listed, ask the user which one to change before acting.\n")
	}
	if workflow.Name == WorkflowVIPSupport {
		sb.WriteString("- Surface the VIP contact channel and commit to a follow-up.\n")
	}

	if profile != nil {
		if profile.IsPremiumUser {
			sb.WriteString("- This is a premium client: offer the priority support channel.\n")
		}
		if profile.IsExistingClient {
			sb.WriteString("- Returning client: skip introductory explanations.\n")
		} else {
			sb.WriteString("- New client: use a welcoming tone and briefly explain how the process works.\n")
		}
	}
}

func compactJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
