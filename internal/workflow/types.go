/*-------------------------------------------------------------------------
 *
 * types.go
 *    Workflow data model for RelayAgent
 *
 * Defines workflow definitions, steps, step results, the derived user
 * profile, and the terminal workflow result. Definitions are immutable:
 * the catalog is built once at process start and shared read-only.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/workflow/types.go
 *
 *-------------------------------------------------------------------------
 */

package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/relaybot/RelayAgent/internal/actions"
	"github.com/relaybot/RelayAgent/internal/db"
)

/* Category classifies a workflow's business domain */
type Category string

const (
	CategoryAppointments    Category = "appointments"
	CategoryCustomerService Category = "customer_service"
	CategorySales           Category = "sales"
	CategorySupport         Category = "support"
)

/* Definition is one named, ordered, conditional procedure */
type Definition struct {
	Name         string
	Triggers     []string
	Priority     int
	Steps        []Step
	Category     Category
	ContextAware bool
}

/* Step is one external-action invocation within a workflow */
type Step struct {
	Tool           actions.ToolName
	Action         string
	Required       bool
	Conditional    Predicate
	Parameters     map[string]interface{}
	RetryOnFailure bool
	MaxRetries     int
}

/* StepResult records the outcome of one executed (or skipped) step */
type StepResult struct {
	StepName      string
	Success       bool
	Skipped       bool
	Result        interface{}
	Error         string
	RetryAttempts int
}

/* UserProfile is derived once per workflow run when the workflow is
 * context-aware; it is never persisted by this core */
type UserProfile struct {
	IsExistingClient   bool
	IsPremiumUser      bool
	AppointmentHistory int
	PreferredLanguage  string
	LastActivity       time.Time
}

/* Result is the terminal output of one runner invocation */
type Result struct {
	WorkflowExecuted bool
	WorkflowName     string
	Category         Category
	Results          []StepResult
	EnhancedContext  string
	ExecutionTimeMs  int64
	UserIntent       string
}

/* ExecContext carries the per-turn inputs a workflow run needs */
type ExecContext struct {
	ConversationID uuid.UUID
	AgentID        uuid.UUID
	UserID         string
	Utterance      string
	Integrations   []db.Integration
	Now            time.Time
}
