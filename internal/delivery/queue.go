/*-------------------------------------------------------------------------
 *
 * queue.go
 *    Outbound delivery queue for RelayAgent
 *
 * Assistant replies are not pushed to channels inline; they are queued
 * and picked up by the channel-specific senders. The completion loop
 * only ever talks to the Queue interface.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/delivery/queue.go
 *
 *-------------------------------------------------------------------------
 */

package delivery

import (
	"context"
	"fmt"

	"github.com/relaybot/RelayAgent/internal/db"
	"github.com/relaybot/RelayAgent/internal/metrics"
)

/* Queue accepts finished assistant messages for channel delivery */
type Queue interface {
	EnqueueForSending(ctx context.Context, job *db.DeliveryJob) error
}

/* DBQueue is the PostgreSQL-backed delivery queue */
type DBQueue struct {
	queries *db.Queries
}

func NewDBQueue(queries *db.Queries) *DBQueue {
	return &DBQueue{queries: queries}
}

/* EnqueueForSending appends one delivery job for the channel senders */
func (q *DBQueue) EnqueueForSending(ctx context.Context, job *db.DeliveryJob) error {
	if err := q.queries.EnqueueDelivery(ctx, job); err != nil {
		return fmt.Errorf("delivery enqueue failed: message_id='%s', error=%w", job.MessageID, err)
	}
	metrics.RecordDeliveryEnqueued("queued")
	metrics.DebugWithContext(ctx, "Delivery job enqueued", map[string]interface{}{
		"message_id":   job.MessageID.String(),
		"recipient_id": job.RecipientID,
	})
	return nil
}
