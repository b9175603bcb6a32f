/*-------------------------------------------------------------------------
 *
 * sink.go
 *    Usage accounting sink for RelayAgent
 *
 * Persists per-turn token usage for billing and quota checks. Failures
 * here are logged and swallowed: accounting must never break a reply.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/telemetry/sink.go
 *
 *-------------------------------------------------------------------------
 */

package telemetry

import (
	"context"

	"github.com/google/uuid"

	"github.com/relaybot/RelayAgent/internal/db"
	"github.com/relaybot/RelayAgent/internal/metrics"
)

/* Sink persists usage rows and mirrors them to Prometheus */
type Sink struct {
	queries *db.Queries
}

func NewSink(queries *db.Queries) *Sink {
	return &Sink{queries: queries}
}

/* RecordUsage writes one usage row; errors are logged, not returned */
func (s *Sink) RecordUsage(ctx context.Context, agentID uuid.UUID, userID string, promptTokens, completionTokens int) {
	if promptTokens == 0 && completionTokens == 0 {
		return
	}
	record := &db.UsageRecord{
		AgentID:      agentID,
		UserID:       userID,
		InputTokens:  promptTokens,
		OutputTokens: completionTokens,
	}
	if err := s.queries.CreateUsageRecord(ctx, record); err != nil {
		metrics.ErrorWithContext(ctx, "Usage record persist failed", err, map[string]interface{}{
			"agent_id": agentID.String(),
			"user_id":  userID,
		})
	}
}
