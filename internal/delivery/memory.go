/*-------------------------------------------------------------------------
 *
 * memory.go
 *    In-memory delivery queue
 *
 * Channel-backed Queue for local runs and tests; drops on overflow
 * instead of blocking the completion loop.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/delivery/memory.go
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

/* MemoryQueue buffers delivery jobs in a channel */
type MemoryQueue struct {
	jobs chan *db.DeliveryJob
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	return &MemoryQueue{jobs: make(chan *db.DeliveryJob, capacity)}
}

func (q *MemoryQueue) EnqueueForSending(ctx context.Context, job *db.DeliveryJob) error {
	select {
	case q.jobs <- job:
		metrics.RecordDeliveryEnqueued("queued")
		return nil
	default:
		metrics.RecordDeliveryEnqueued("dropped")
		return fmt.Errorf("delivery enqueue failed: message_id='%s', error=queue full", job.MessageID)
	}
}

/* Jobs exposes the buffered channel for the draining side */
func (q *MemoryQueue) Jobs() <-chan *db.DeliveryJob {
	return q.jobs
}
