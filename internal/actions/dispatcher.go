/*-------------------------------------------------------------------------
 *
 * dispatcher.go
 *    Action dispatcher for RelayAgent
 *
 * Resolves abstract tool names against the conversation's active
 * integrations, delegates to the registered provider executor, and
 * normalizes every outcome (including executor panics and timeouts)
 * into an ActionResult. Failures here are contained: a failed dispatch
 * is data for the caller, never a thrown error.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/actions/dispatcher.go
 *
 *-------------------------------------------------------------------------
 */

package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relaybot/RelayAgent/internal/db"
	"github.com/relaybot/RelayAgent/internal/metrics"
)

/* ActionResult is the normalized outcome of one action invocation */
type ActionResult struct {
	Success bool                   `json:"success"`
	Result  interface{}            `json:"result,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

/* Executor performs the concrete provider call for one integration */
type Executor interface {
	Execute(ctx context.Context, integration *db.Integration, action string, parameters map[string]interface{}, callerID string) (interface{}, error)
}

/* executorKey identifies one provider executor */
type executorKey struct {
	Type     IntegrationType
	Provider Provider
}

/* Dispatcher resolves and executes abstract tool invocations */
type Dispatcher struct {
	queries   *db.Queries
	executors map[executorKey]Executor
	timeout   time.Duration
}

/* NewDispatcher creates a dispatcher with the given per-call timeout */
func NewDispatcher(queries *db.Queries, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		queries:   queries,
		executors: make(map[executorKey]Executor),
		timeout:   timeout,
	}
}

/* RegisterExecutor registers the executor for an integration type/provider pair */
func (d *Dispatcher) RegisterExecutor(integrationType IntegrationType, provider Provider, executor Executor) {
	d.executors[executorKey{integrationType, provider}] = executor
}

/* Dispatch resolves a tool name against active integrations and executes it.
 * All failures come back as ActionResult{Success:false}; the only contract
 * is that the caller always gets a result it can narrate. */
func (d *Dispatcher) Dispatch(ctx context.Context, toolName ToolName, arguments map[string]interface{}, activeIntegrations []db.Integration, callerID string) ActionResult {
	binding, ok := Resolve(toolName)
	if !ok {
		metrics.RecordActionDispatch(string(toolName), "sync", "unmapped")
		metrics.WarnWithContext(ctx, "Action dispatch failed: unmapped tool", map[string]interface{}{
			"tool": string(toolName),
		})
		return ActionResult{
			Success: false,
			Error:   fmt.Sprintf("%s: tool='%s'", ErrUnmappedTool.Error(), toolName),
		}
	}

	integration := findActiveIntegration(activeIntegrations, binding)
	if integration == nil {
		metrics.RecordActionDispatch(string(toolName), "sync", "unavailable")
		metrics.WarnWithContext(ctx, "Action dispatch failed: integration unavailable", map[string]interface{}{
			"tool":     string(toolName),
			"type":     string(binding.Type),
			"provider": string(binding.Provider),
		})
		return ActionResult{
			Success: false,
			Error:   fmt.Sprintf("%s: type='%s', provider='%s'", ErrIntegrationUnavailable.Error(), binding.Type, binding.Provider),
			Details: map[string]interface{}{"tool": string(toolName)},
		}
	}

	result := d.execute(ctx, integration, binding.Action, arguments, callerID)

	status := "ok"
	if !result.Success {
		status = "error"
	}
	metrics.RecordActionDispatch(string(toolName), "sync", status)
	metrics.InfoWithContext(ctx, "Action dispatched", map[string]interface{}{
		"tool":           string(toolName),
		"integration_id": integration.ID.String(),
		"action":         binding.Action,
		"caller_id":      callerID,
		"success":        result.Success,
	})

	return result
}

/* Execute runs a concrete action against an integration looked up by ID */
func (d *Dispatcher) Execute(ctx context.Context, integrationID uuid.UUID, action string, parameters map[string]interface{}, callerID string) ActionResult {
	integration, err := d.queries.GetIntegrationByID(ctx, integrationID)
	if err != nil {
		return ActionResult{
			Success: false,
			Error:   fmt.Sprintf("integration lookup failed: %v", err),
		}
	}
	if integration.Status != db.IntegrationStatusActive {
		return ActionResult{
			Success: false,
			Error:   fmt.Sprintf("%s: integration_id='%s', status='%s'", ErrIntegrationInactive.Error(), integrationID.String(), integration.Status),
		}
	}

	result := d.execute(ctx, integration, action, parameters, callerID)

	status := "ok"
	if !result.Success {
		status = "error"
	}
	metrics.RecordActionDispatch(action, "direct", status)

	return result
}

/* execute delegates to the provider executor with timeout and panic containment */
func (d *Dispatcher) execute(ctx context.Context, integration *db.Integration, action string, parameters map[string]interface{}, callerID string) (result ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ErrorWithContext(ctx, "Executor panicked", fmt.Errorf("%v", r), map[string]interface{}{
				"integration_id": integration.ID.String(),
				"action":         action,
			})
			result = ActionResult{
				Success: false,
				Error:   fmt.Sprintf("executor panic: action='%s', panic=%v", action, r),
			}
		}
	}()

	key := executorKey{IntegrationType(integration.Type), Provider(integration.Provider)}
	executor, ok := d.executors[key]
	if !ok {
		return ActionResult{
			Success: false,
			Error:   fmt.Sprintf("%s: type='%s', provider='%s'", ErrNoExecutor.Error(), integration.Type, integration.Provider),
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	started := time.Now()
	out, err := executor.Execute(execCtx, integration, action, parameters, callerID)
	if err != nil {
		/* A hung provider hitting the deadline is a failed result, not a crash */
		return ActionResult{
			Success: false,
			Error:   err.Error(),
			Details: map[string]interface{}{
				"action":      action,
				"duration_ms": time.Since(started).Milliseconds(),
			},
		}
	}

	return ActionResult{Success: true, Result: out}
}

/* findActiveIntegration picks the first ACTIVE integration matching a binding */
func findActiveIntegration(integrations []db.Integration, binding Binding) *db.Integration {
	for i := range integrations {
		if integrations[i].Status != db.IntegrationStatusActive {
			continue
		}
		if IntegrationType(integrations[i].Type) == binding.Type && Provider(integrations[i].Provider) == binding.Provider {
			return &integrations[i]
		}
	}
	return nil
}
