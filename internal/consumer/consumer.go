/*-------------------------------------------------------------------------
 *
 * consumer.go
 *    Inbound turn consumer for RelayAgent
 *
 * Provides the worker pool that claims queued inbound messages and
 * processes each as one conversation turn: workflow matching and
 * execution first, then the tool-calling completion loop. Configurable
 * concurrency with graceful shutdown.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/consumer/consumer.go
 *
 *-------------------------------------------------------------------------
 */

package consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relaybot/RelayAgent/internal/completion"
	"github.com/relaybot/RelayAgent/internal/db"
	"github.com/relaybot/RelayAgent/internal/metrics"
	"github.com/relaybot/RelayAgent/internal/utils"
	"github.com/relaybot/RelayAgent/internal/workflow"
)

const (
	jobStatusQueued = "queued"
	jobStatusDone   = "done"
	jobStatusFailed = "failed"
)

/* Consumer claims inbound jobs and runs the per-turn pipeline */
type Consumer struct {
	queries       *db.Queries
	runner        *workflow.Runner
	loop          *completion.Loop
	workers       int
	pollInterval  time.Duration
	historyWindow int
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

func NewConsumer(queries *db.Queries, runner *workflow.Runner, loop *completion.Loop,
	workers, historyWindow int) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		queries:       queries,
		runner:        runner,
		loop:          loop,
		workers:       workers,
		pollInterval:  time.Second,
		historyWindow: historyWindow,
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (c *Consumer) Start() {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.work()
	}
	metrics.InfoWithContext(c.ctx, "Inbound consumer started", map[string]interface{}{
		"workers": c.workers,
	})
}

func (c *Consumer) Stop() {
	c.cancel()
	c.wg.Wait()
}

func (c *Consumer) work() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			job, err := c.queries.ClaimInboundJob(c.ctx)
			if err != nil || job == nil {
				continue
			}
			c.processJob(job)
		}
	}
}

func (c *Consumer) processJob(job *db.InboundJob) {
	ctx := metrics.WithRequestID(c.ctx, utils.NewRequestID())
	ctx = metrics.WithConversationID(ctx, job.ConversationID)
	ctx = metrics.WithAgentID(ctx, job.AgentID)

	err := c.processTurn(ctx, job)
	if err != nil {
		metrics.ErrorWithContext(ctx, "Turn processing failed", err, map[string]interface{}{
			"job_id":      job.ID,
			"retry_count": job.RetryCount,
		})
	}

	status, retryCount, completedAt := jobOutcome(job, err, time.Now())

	if updateErr := c.queries.UpdateInboundJob(ctx, job.ID, status, retryCount, completedAt); updateErr != nil {
		metrics.ErrorWithContext(ctx, "Inbound job update failed", updateErr, map[string]interface{}{
			"job_id": job.ID,
		})
	}
}

/* jobOutcome decides the next queue state for a processed job: done on
 * success, requeued with an incremented retry count while retries
 * remain, failed once they are exhausted */
func jobOutcome(job *db.InboundJob, err error, now time.Time) (string, int, *time.Time) {
	if err == nil {
		return jobStatusDone, job.RetryCount, &now
	}
	if job.RetryCount >= job.MaxRetries {
		return jobStatusFailed, job.RetryCount, &now
	}
	return jobStatusQueued, job.RetryCount + 1, nil
}

/* processTurn runs one full conversation turn for a claimed job */
func (c *Consumer) processTurn(ctx context.Context, job *db.InboundJob) error {
	agent, err := c.queries.GetAgentByID(ctx, job.AgentID)
	if err != nil {
		return fmt.Errorf("agent load failed: agent_id='%s', error=%w", job.AgentID, err)
	}

	integrations, err := c.queries.ListActiveIntegrations(ctx, job.AgentID)
	if err != nil {
		return fmt.Errorf("integration list failed: agent_id='%s', error=%w", job.AgentID, err)
	}

	history, err := c.queries.GetRecentMessages(ctx, job.ConversationID, c.historyWindow)
	if err != nil {
		return fmt.Errorf("history load failed: conversation_id='%s', error=%w", job.ConversationID, err)
	}
	history = dropMessage(history, job.MessageID)

	now := time.Now()
	wfResult := c.runner.Run(ctx, workflow.ExecContext{
		ConversationID: job.ConversationID,
		AgentID:        job.AgentID,
		UserID:         job.UserID,
		Utterance:      job.Content,
		Integrations:   integrations,
		Now:            now,
	}, assistantTurns(history))

	reply, err := c.loop.Respond(ctx, &completion.Turn{
		Agent:              agent,
		ConversationID:     job.ConversationID,
		UserID:             job.UserID,
		Utterance:          job.Content,
		History:            history,
		ActiveIntegrations: integrations,
		WorkflowResult:     wfResult,
		Now:                now,
	})
	if err != nil {
		return fmt.Errorf("completion failed: conversation_id='%s', error=%w", job.ConversationID, err)
	}

	if err := c.queries.TouchConversation(ctx, job.ConversationID); err != nil {
		metrics.WarnWithContext(ctx, "Conversation touch failed", map[string]interface{}{
			"conversation_id": job.ConversationID.String(),
			"error":           err.Error(),
		})
	}

	metrics.DebugWithContext(ctx, "Turn processed", map[string]interface{}{
		"message_id": reply.MessageID.String(),
		"status":     reply.Status,
		"rounds":     reply.Rounds,
	})
	return nil
}

/* dropMessage removes the in-flight user message from loaded history
 * so the prompt does not repeat the utterance */
func dropMessage(messages []db.Message, id uuid.UUID) []db.Message {
	filtered := messages[:0]
	for _, msg := range messages {
		if msg.ID != id {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

/* assistantTurns extracts assistant contents, oldest first, for the
 * matcher's recent-context heuristics */
func assistantTurns(messages []db.Message) []string {
	var turns []string
	for _, msg := range messages {
		if msg.Role == "assistant" || msg.Role == "agent" {
			turns = append(turns, msg.Content)
		}
	}
	return turns
}
