/*-------------------------------------------------------------------------
 *
 * executor.go
 *    Workflow step executor for RelayAgent
 *
 * Runs a workflow's steps in declared order against a shared, growing
 * result set. Ordering is a correctness requirement: later steps'
 * conditionals read earlier results. A required step that exhausts its
 * retries does not abort the run; the failure stays visible to the
 * narrative stage.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/workflow/executor.go
 *
 *-------------------------------------------------------------------------
 */

package workflow

import (
	"context"
	"time"

	"github.com/relaybot/RelayAgent/internal/actions"
	"github.com/relaybot/RelayAgent/internal/db"
	"github.com/relaybot/RelayAgent/internal/metrics"
)

/* ActionDispatcher is the dispatcher boundary the executor depends on */
type ActionDispatcher interface {
	Dispatch(ctx context.Context, toolName actions.ToolName, arguments map[string]interface{}, activeIntegrations []db.Integration, callerID string) actions.ActionResult
}

/* Executor runs workflow steps with bounded linear-backoff retry */
type Executor struct {
	dispatcher  ActionDispatcher
	backoffBase time.Duration
	sleep       func(time.Duration)
}

/* NewExecutor creates an executor; backoffBase is the linear retry unit */
func NewExecutor(dispatcher ActionDispatcher, backoffBase time.Duration) *Executor {
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	return &Executor{
		dispatcher:  dispatcher,
		backoffBase: backoffBase,
		sleep:       time.Sleep,
	}
}

/* Run executes every step sequentially and returns all step results */
func (e *Executor) Run(ctx context.Context, workflow *Definition, execCtx ExecContext, profile *UserProfile) []StepResult {
	results := make([]StepResult, 0, len(workflow.Steps))

	for _, step := range workflow.Steps {
		if step.Conditional != PredicateNone {
			eval := EvalContext{
				Results:   results,
				Profile:   profile,
				Utterance: execCtx.Utterance,
				Now:       execCtx.Now,
			}
			if !Evaluate(ctx, step.Conditional, eval) {
				metrics.DebugWithContext(ctx, "Workflow step skipped by conditional", map[string]interface{}{
					"workflow":    workflow.Name,
					"step":        string(step.Tool),
					"conditional": string(step.Conditional),
				})
				results = append(results, StepResult{
					StepName: string(step.Tool),
					Skipped:  true,
				})
				continue
			}
		}

		results = append(results, e.executeStep(ctx, workflow, step, execCtx))
	}

	return results
}

/* executeStep dispatches one step, retrying with linear backoff */
func (e *Executor) executeStep(ctx context.Context, workflow *Definition, step Step, execCtx ExecContext) StepResult {
	arguments := make(map[string]interface{}, len(step.Parameters))
	for k, v := range step.Parameters {
		arguments[k] = v
	}

	maxRetries := 0
	if step.RetryOnFailure {
		maxRetries = step.MaxRetries
	}

	var result actions.ActionResult
	retries := 0
	for {
		result = e.dispatcher.Dispatch(ctx, step.Tool, arguments, execCtx.Integrations, execCtx.UserID)
		if result.Success || retries >= maxRetries {
			break
		}

		retries++
		metrics.RecordWorkflowStepRetry(workflow.Name, string(step.Tool))
		metrics.WarnWithContext(ctx, "Workflow step failed, retrying", map[string]interface{}{
			"workflow": workflow.Name,
			"step":     string(step.Tool),
			"attempt":  retries,
			"max":      maxRetries,
			"error":    result.Error,
		})
		e.sleep(e.backoffBase * time.Duration(retries))
	}

	stepResult := StepResult{
		StepName:      string(step.Tool),
		Success:       result.Success,
		Result:        result.Result,
		Error:         result.Error,
		RetryAttempts: retries,
	}

	if !result.Success {
		metrics.WarnWithContext(ctx, "Workflow step failed", map[string]interface{}{
			"workflow": workflow.Name,
			"step":     string(step.Tool),
			"required": step.Required,
			"retries":  retries,
			"error":    result.Error,
		})
	}

	return stepResult
}
