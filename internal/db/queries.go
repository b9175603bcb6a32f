/*-------------------------------------------------------------------------
 *
 * queries.go
 *    Database queries for RelayAgent
 *
 * Provides query functions for agents, conversations, messages,
 * integrations, job queues, usage records, and workflow execution
 * records.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/db/queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

/* Agent queries */
const (
	getAgentByIDQuery = `SELECT * FROM relayagent.agents WHERE id = $1`
)

/* Conversation queries */
const (
	getConversationQuery = `SELECT * FROM relayagent.conversations WHERE id = $1`

	touchConversationQuery = `
		UPDATE relayagent.conversations SET last_activity_at = NOW() WHERE id = $1`

	countConversationsByUserQuery = `
		SELECT COUNT(*) FROM relayagent.conversations
		WHERE agent_id = $1 AND user_id = $2`
)

/* Message queries */
const (
	createMessageQuery = `
		INSERT INTO relayagent.messages
		(id, conversation_id, agent_id, role, content, status, response_time_ms, token_count, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
		RETURNING created_at`

	getRecentMessagesQuery = `
		SELECT * FROM relayagent.messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	updateMessageStatusQuery = `
		UPDATE relayagent.messages SET status = $2 WHERE id = $1`
)

/* Integration queries */
const (
	getIntegrationByIDQuery = `SELECT * FROM relayagent.integrations WHERE id = $1`

	listActiveIntegrationsQuery = `
		SELECT * FROM relayagent.integrations
		WHERE agent_id = $1 AND status = $2
		ORDER BY created_at ASC`
)

/* Inbound job queries */
const (
	claimInboundJobQuery = `
		UPDATE relayagent.inbound_jobs
		SET status = 'running', started_at = NOW()
		WHERE id = (
			SELECT id FROM relayagent.inbound_jobs
			WHERE status = 'queued'
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING *`

	updateInboundJobQuery = `
		UPDATE relayagent.inbound_jobs
		SET status = $2, retry_count = $3, completed_at = $4
		WHERE id = $1`
)

/* Delivery queries */
const (
	enqueueDeliveryQuery = `
		INSERT INTO relayagent.delivery_jobs
		(conversation_id, message_id, agent_id, recipient_id, status)
		VALUES ($1, $2, $3, $4, 'queued')
		RETURNING id, created_at`
)

/* Action job queries */
const (
	createActionJobQuery = `
		INSERT INTO relayagent.action_jobs
		(correlation_id, integration_id, action, parameters, caller_id, callback_url, status)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, 'queued')
		RETURNING id, created_at`

	claimActionJobQuery = `
		UPDATE relayagent.action_jobs
		SET status = 'running'
		WHERE id = (
			SELECT id FROM relayagent.action_jobs
			WHERE status = 'queued'
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING *`

	updateActionJobQuery = `
		UPDATE relayagent.action_jobs
		SET status = $2, result = $3::jsonb, error_message = $4, completed_at = $5
		WHERE id = $1`
)

/* Usage and workflow telemetry queries */
const (
	createUsageRecordQuery = `
		INSERT INTO relayagent.usage_records (agent_id, user_id, input_tokens, output_tokens)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	createWorkflowExecutionQuery = `
		INSERT INTO relayagent.workflow_executions
		(workflow_name, conversation_id, executed, step_count, failed_steps, user_intent, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	countWorkflowExecutionsQuery = `
		SELECT COUNT(*) FROM relayagent.workflow_executions
		WHERE conversation_id = $1 AND workflow_name = $2 AND executed = TRUE`
)

/* Queries wraps database access for all RelayAgent tables */
type Queries struct {
	DB *sqlx.DB
}

func NewQueries(db *sqlx.DB) *Queries {
	return &Queries{DB: db}
}

/* GetAgentByID loads an agent by ID */
func (q *Queries) GetAgentByID(ctx context.Context, id uuid.UUID) (*Agent, error) {
	var agent Agent
	if err := q.DB.GetContext(ctx, &agent, getAgentByIDQuery, id); err != nil {
		return nil, fmt.Errorf("agent lookup failed: agent_id='%s', error=%w", id.String(), err)
	}
	return &agent, nil
}

/* GetConversation loads a conversation by ID */
func (q *Queries) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var conv Conversation
	if err := q.DB.GetContext(ctx, &conv, getConversationQuery, id); err != nil {
		return nil, fmt.Errorf("conversation lookup failed: conversation_id='%s', error=%w", id.String(), err)
	}
	return &conv, nil
}

/* TouchConversation bumps a conversation's last activity timestamp */
func (q *Queries) TouchConversation(ctx context.Context, id uuid.UUID) error {
	_, err := q.DB.ExecContext(ctx, touchConversationQuery, id)
	return err
}

/* CountConversationsByUser counts conversations a user has with an agent */
func (q *Queries) CountConversationsByUser(ctx context.Context, agentID uuid.UUID, userID string) (int, error) {
	var count int
	if err := q.DB.GetContext(ctx, &count, countConversationsByUserQuery, agentID, userID); err != nil {
		return 0, fmt.Errorf("conversation count failed: agent_id='%s', user_id='%s', error=%w",
			agentID.String(), userID, err)
	}
	return count, nil
}

/* CreateMessage persists a message and returns its ID */
func (q *Queries) CreateMessage(ctx context.Context, msg *Message) (uuid.UUID, error) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.Metadata == nil {
		msg.Metadata = JSONBMap{}
	}
	row := q.DB.QueryRowxContext(ctx, createMessageQuery,
		msg.ID, msg.ConversationID, msg.AgentID, msg.Role, msg.Content, msg.Status,
		msg.ResponseTimeMs, msg.TokenCount, msg.Metadata)
	if err := row.Scan(&msg.CreatedAt); err != nil {
		return uuid.Nil, fmt.Errorf("message create failed: conversation_id='%s', role='%s', error=%w",
			msg.ConversationID.String(), msg.Role, err)
	}
	return msg.ID, nil
}

/* GetRecentMessages returns the most recent messages, oldest first */
func (q *Queries) GetRecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error) {
	var messages []Message
	if err := q.DB.SelectContext(ctx, &messages, getRecentMessagesQuery, conversationID, limit); err != nil {
		return nil, fmt.Errorf("recent messages lookup failed: conversation_id='%s', limit=%d, error=%w",
			conversationID.String(), limit, err)
	}

	/* Query returns newest first; callers want chronological order */
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

/* UpdateMessageStatus updates a message's delivery status */
func (q *Queries) UpdateMessageStatus(ctx context.Context, messageID uuid.UUID, status string) error {
	if _, err := q.DB.ExecContext(ctx, updateMessageStatusQuery, messageID, status); err != nil {
		return fmt.Errorf("message status update failed: message_id='%s', status='%s', error=%w",
			messageID.String(), status, err)
	}
	return nil
}

/* GetIntegrationByID loads an integration by ID */
func (q *Queries) GetIntegrationByID(ctx context.Context, id uuid.UUID) (*Integration, error) {
	var integration Integration
	if err := q.DB.GetContext(ctx, &integration, getIntegrationByIDQuery, id); err != nil {
		return nil, fmt.Errorf("integration lookup failed: integration_id='%s', error=%w", id.String(), err)
	}
	return &integration, nil
}

/* ListActiveIntegrations lists an agent's ACTIVE integrations */
func (q *Queries) ListActiveIntegrations(ctx context.Context, agentID uuid.UUID) ([]Integration, error) {
	var integrations []Integration
	if err := q.DB.SelectContext(ctx, &integrations, listActiveIntegrationsQuery, agentID, IntegrationStatusActive); err != nil {
		return nil, fmt.Errorf("integration listing failed: agent_id='%s', error=%w", agentID.String(), err)
	}
	return integrations, nil
}

/* ClaimInboundJob claims the oldest queued inbound job, if any */
func (q *Queries) ClaimInboundJob(ctx context.Context) (*InboundJob, error) {
	var job InboundJob
	err := q.DB.GetContext(ctx, &job, claimInboundJobQuery)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("inbound job claim failed: error=%w", err)
	}
	return &job, nil
}

/* UpdateInboundJob updates an inbound job after processing */
func (q *Queries) UpdateInboundJob(ctx context.Context, id int64, status string, retryCount int, completedAt *time.Time) error {
	if _, err := q.DB.ExecContext(ctx, updateInboundJobQuery, id, status, retryCount, completedAt); err != nil {
		return fmt.Errorf("inbound job update failed: job_id=%d, status='%s', error=%w", id, status, err)
	}
	return nil
}

/* EnqueueDelivery queues an assistant message for channel delivery */
func (q *Queries) EnqueueDelivery(ctx context.Context, job *DeliveryJob) error {
	row := q.DB.QueryRowxContext(ctx, enqueueDeliveryQuery,
		job.ConversationID, job.MessageID, job.AgentID, job.RecipientID)
	if err := row.Scan(&job.ID, &job.CreatedAt); err != nil {
		return fmt.Errorf("delivery enqueue failed: conversation_id='%s', message_id='%s', error=%w",
			job.ConversationID.String(), job.MessageID.String(), err)
	}
	return nil
}

/* CreateActionJob queues an asynchronous action invocation */
func (q *Queries) CreateActionJob(ctx context.Context, job *ActionJob) error {
	if job.Parameters == nil {
		job.Parameters = JSONBMap{}
	}
	row := q.DB.QueryRowxContext(ctx, createActionJobQuery,
		job.CorrelationID, job.IntegrationID, job.Action, job.Parameters, job.CallerID, job.CallbackURL)
	if err := row.Scan(&job.ID, &job.CreatedAt); err != nil {
		return fmt.Errorf("action job create failed: correlation_id='%s', action='%s', error=%w",
			job.CorrelationID.String(), job.Action, err)
	}
	return nil
}

/* ClaimActionJob claims the oldest queued action job, if any */
func (q *Queries) ClaimActionJob(ctx context.Context) (*ActionJob, error) {
	var job ActionJob
	err := q.DB.GetContext(ctx, &job, claimActionJobQuery)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("action job claim failed: error=%w", err)
	}
	return &job, nil
}

/* UpdateActionJob records the outcome of an asynchronous action */
func (q *Queries) UpdateActionJob(ctx context.Context, id int64, status string, result JSONBMap, errorMsg *string, completedAt *time.Time) error {
	if result == nil {
		result = JSONBMap{}
	}
	if _, err := q.DB.ExecContext(ctx, updateActionJobQuery, id, status, result, errorMsg, completedAt); err != nil {
		return fmt.Errorf("action job update failed: job_id=%d, status='%s', error=%w", id, status, err)
	}
	return nil
}

/* CreateUsageRecord persists token usage for one turn */
func (q *Queries) CreateUsageRecord(ctx context.Context, rec *UsageRecord) error {
	row := q.DB.QueryRowxContext(ctx, createUsageRecordQuery,
		rec.AgentID, rec.UserID, rec.InputTokens, rec.OutputTokens)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("usage record create failed: agent_id='%s', error=%w", rec.AgentID.String(), err)
	}
	return nil
}

/* CreateWorkflowExecutionRecord persists the audit row for one workflow run */
func (q *Queries) CreateWorkflowExecutionRecord(ctx context.Context, rec *WorkflowExecutionRecord) error {
	row := q.DB.QueryRowxContext(ctx, createWorkflowExecutionQuery,
		rec.WorkflowName, rec.ConversationID, rec.Executed, rec.StepCount, rec.FailedSteps,
		rec.UserIntent, rec.DurationMs)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("workflow execution record create failed: workflow='%s', conversation_id='%s', error=%w",
			rec.WorkflowName, rec.ConversationID.String(), err)
	}
	return nil
}

/* CountWorkflowExecutions counts prior executed runs of a workflow in a conversation */
func (q *Queries) CountWorkflowExecutions(ctx context.Context, conversationID uuid.UUID, workflowName string) (int, error) {
	var count int
	if err := q.DB.GetContext(ctx, &count, countWorkflowExecutionsQuery, conversationID, workflowName); err != nil {
		return 0, fmt.Errorf("workflow execution count failed: conversation_id='%s', workflow='%s', error=%w",
			conversationID.String(), workflowName, err)
	}
	return count, nil
}
