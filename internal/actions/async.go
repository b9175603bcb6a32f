/*-------------------------------------------------------------------------
 *
 * async.go
 *    Asynchronous action execution for RelayAgent
 *
 * Fire-and-forget action invocations: the caller gets a correlation id
 * immediately, a worker pool drains the queued jobs, and the eventual
 * result is logged and, when a callback URL was supplied, POSTed back.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/actions/async.go
 *
 *-------------------------------------------------------------------------
 */

package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relaybot/RelayAgent/internal/db"
	"github.com/relaybot/RelayAgent/internal/metrics"
	"github.com/relaybot/RelayAgent/internal/utils"
)

/* ExecuteAsync queues an action and returns its correlation id */
func (d *Dispatcher) ExecuteAsync(ctx context.Context, integrationID uuid.UUID, action string, parameters map[string]interface{}, callerID string, callbackURL *string) (uuid.UUID, error) {
	job := &db.ActionJob{
		CorrelationID: utils.NewCorrelationID(),
		IntegrationID: integrationID,
		Action:        action,
		Parameters:    db.JSONBMap(parameters),
		CallerID:      callerID,
		CallbackURL:   callbackURL,
	}

	if err := d.queries.CreateActionJob(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("async action enqueue failed: integration_id='%s', action='%s', error=%w",
			integrationID.String(), action, err)
	}

	metrics.RecordActionDispatch(action, "async", "queued")
	metrics.InfoWithContext(ctx, "Async action queued", map[string]interface{}{
		"correlation_id": job.CorrelationID.String(),
		"integration_id": integrationID.String(),
		"action":         action,
		"caller_id":      callerID,
	})

	return job.CorrelationID, nil
}

/* AsyncWorker drains queued action jobs */
type AsyncWorker struct {
	queries      *db.Queries
	dispatcher   *Dispatcher
	httpClient   *http.Client
	workers      int
	pollInterval time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

/* NewAsyncWorker creates a worker pool for asynchronous actions */
func NewAsyncWorker(queries *db.Queries, dispatcher *Dispatcher, workers int, pollInterval time.Duration) *AsyncWorker {
	if workers <= 0 {
		workers = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AsyncWorker{
		queries:      queries,
		dispatcher:   dispatcher,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		workers:      workers,
		pollInterval: pollInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (w *AsyncWorker) Start() {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.work()
	}
}

func (w *AsyncWorker) Stop() {
	w.cancel()
	w.wg.Wait()
}

func (w *AsyncWorker) work() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			job, err := w.queries.ClaimActionJob(w.ctx)
			if err != nil || job == nil {
				continue
			}
			w.processJob(job)
		}
	}
}

func (w *AsyncWorker) processJob(job *db.ActionJob) {
	ctx := metrics.WithCorrelationID(w.ctx, job.CorrelationID.String())

	result := w.dispatcher.Execute(ctx, job.IntegrationID, job.Action, job.Parameters, job.CallerID)

	status := "done"
	var errorMsg *string
	if !result.Success {
		status = "failed"
		msg := result.Error
		errorMsg = &msg
	}

	now := time.Now()
	resultMap := db.JSONBMap{"success": result.Success}
	if result.Result != nil {
		resultMap["result"] = result.Result
	}
	if result.Error != "" {
		resultMap["error"] = result.Error
	}

	if err := w.queries.UpdateActionJob(ctx, job.ID, status, resultMap, errorMsg, &now); err != nil {
		metrics.ErrorWithContext(ctx, "Async action job update failed", err, map[string]interface{}{
			"job_id": job.ID,
		})
	}

	metrics.RecordActionDispatch(job.Action, "async", status)
	metrics.InfoWithContext(ctx, "Async action completed", map[string]interface{}{
		"job_id":  job.ID,
		"action":  job.Action,
		"status":  status,
		"success": result.Success,
	})

	if job.CallbackURL != nil && *job.CallbackURL != "" {
		w.postCallback(ctx, *job.CallbackURL, job.CorrelationID, result)
	}
}

/* postCallback POSTs the eventual result to the caller-supplied URL */
func (w *AsyncWorker) postCallback(ctx context.Context, url string, correlationID uuid.UUID, result ActionResult) {
	payload := map[string]interface{}{
		"correlationId": correlationID.String(),
		"success":       result.Success,
		"result":        result.Result,
		"error":         result.Error,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		metrics.ErrorWithContext(ctx, "Callback payload marshal failed", err, nil)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		metrics.ErrorWithContext(ctx, "Callback request build failed", err, map[string]interface{}{"url": url})
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		metrics.ErrorWithContext(ctx, "Callback POST failed", err, map[string]interface{}{"url": url})
		return
	}
	defer resp.Body.Close()

	metrics.InfoWithContext(ctx, "Callback delivered", map[string]interface{}{
		"url":    url,
		"status": resp.StatusCode,
	})
}
