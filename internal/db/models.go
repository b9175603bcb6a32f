/*-------------------------------------------------------------------------
 *
 * models.go
 *    Database models for RelayAgent
 *
 * Defines data structures for agents, conversations, messages,
 * integrations, inbound/delivery/action jobs, usage records, and
 * workflow execution records.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/db/models.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

/* Message status values */
const (
	MessageStatusSent   = "SENT"
	MessageStatusFailed = "FAILED"
)

/* Integration status values */
const (
	IntegrationStatusActive   = "ACTIVE"
	IntegrationStatusInactive = "INACTIVE"
)

type Agent struct {
	ID                 uuid.UUID `db:"id"`
	TenantID           uuid.UUID `db:"tenant_id"`
	Name               string    `db:"name"`
	SystemInstructions string    `db:"system_instructions"`
	ModelName          string    `db:"model_name"`
	Temperature        float64   `db:"temperature"`
	MaxTokens          int       `db:"max_tokens"`
	Config             JSONBMap  `db:"config"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

type Conversation struct {
	ID             uuid.UUID `db:"id"`
	AgentID        uuid.UUID `db:"agent_id"`
	UserID         string    `db:"user_id"`
	Channel        string    `db:"channel"`
	Metadata       JSONBMap  `db:"metadata"`
	CreatedAt      time.Time `db:"created_at"`
	LastActivityAt time.Time `db:"last_activity_at"`
}

type Message struct {
	ID             uuid.UUID `db:"id"`
	ConversationID uuid.UUID `db:"conversation_id"`
	AgentID        uuid.UUID `db:"agent_id"`
	Role           string    `db:"role"`
	Content        string    `db:"content"`
	Status         string    `db:"status"`
	ResponseTimeMs *int64    `db:"response_time_ms"`
	TokenCount     *int      `db:"token_count"`
	Metadata       JSONBMap  `db:"metadata"`
	CreatedAt      time.Time `db:"created_at"`
}

type Integration struct {
	ID           uuid.UUID      `db:"id"`
	AgentID      uuid.UUID      `db:"agent_id"`
	Type         string         `db:"type"`
	Provider     string         `db:"provider"`
	Name         string         `db:"name"`
	Status       string         `db:"status"`
	Capabilities pq.StringArray `db:"capabilities"`
	Config       JSONBMap       `db:"config"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

/* InboundJob is one queued inbound user message awaiting a turn */
type InboundJob struct {
	ID             int64      `db:"id"`
	MessageID      uuid.UUID  `db:"message_id"`
	ConversationID uuid.UUID  `db:"conversation_id"`
	AgentID        uuid.UUID  `db:"agent_id"`
	UserID         string     `db:"user_id"`
	Content        string     `db:"content"`
	Status         string     `db:"status"`
	RetryCount     int        `db:"retry_count"`
	MaxRetries     int        `db:"max_retries"`
	CreatedAt      time.Time  `db:"created_at"`
	StartedAt      *time.Time `db:"started_at"`
	CompletedAt    *time.Time `db:"completed_at"`
}

/* DeliveryJob is one assistant message queued for channel delivery */
type DeliveryJob struct {
	ID             int64      `db:"id"`
	ConversationID uuid.UUID  `db:"conversation_id"`
	MessageID      uuid.UUID  `db:"message_id"`
	AgentID        uuid.UUID  `db:"agent_id"`
	RecipientID    string     `db:"recipient_id"`
	Status         string     `db:"status"`
	CreatedAt      time.Time  `db:"created_at"`
	DeliveredAt    *time.Time `db:"delivered_at"`
}

/* ActionJob is one asynchronous action invocation */
type ActionJob struct {
	ID            int64      `db:"id"`
	CorrelationID uuid.UUID  `db:"correlation_id"`
	IntegrationID uuid.UUID  `db:"integration_id"`
	Action        string     `db:"action"`
	Parameters    JSONBMap   `db:"parameters"`
	CallerID      string     `db:"caller_id"`
	CallbackURL   *string    `db:"callback_url"`
	Status        string     `db:"status"`
	Result        JSONBMap   `db:"result"`
	ErrorMessage  *string    `db:"error_message"`
	CreatedAt     time.Time  `db:"created_at"`
	CompletedAt   *time.Time `db:"completed_at"`
}

type UsageRecord struct {
	ID           int64     `db:"id"`
	AgentID      uuid.UUID `db:"agent_id"`
	UserID       string    `db:"user_id"`
	InputTokens  int       `db:"input_tokens"`
	OutputTokens int       `db:"output_tokens"`
	CreatedAt    time.Time `db:"created_at"`
}

/* WorkflowExecutionRecord is the persisted audit row for one workflow run */
type WorkflowExecutionRecord struct {
	ID             int64     `db:"id"`
	WorkflowName   string    `db:"workflow_name"`
	ConversationID uuid.UUID `db:"conversation_id"`
	Executed       bool      `db:"executed"`
	StepCount      int       `db:"step_count"`
	FailedSteps    int       `db:"failed_steps"`
	UserIntent     string    `db:"user_intent"`
	DurationMs     int64     `db:"duration_ms"`
	CreatedAt      time.Time `db:"created_at"`
}
