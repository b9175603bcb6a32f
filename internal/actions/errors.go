/*-------------------------------------------------------------------------
 *
 * errors.go
 *    Action dispatch error taxonomy
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/actions/errors.go
 *
 *-------------------------------------------------------------------------
 */

package actions

import "errors"

var (
	/* ErrUnmappedTool means the function name has no known integration mapping */
	ErrUnmappedTool = errors.New("tool name has no integration mapping")

	/* ErrIntegrationUnavailable means the mapped type/provider is not active for the agent */
	ErrIntegrationUnavailable = errors.New("required integration is not active")

	/* ErrNoExecutor means no provider executor is registered for the integration */
	ErrNoExecutor = errors.New("no executor registered for integration")

	/* ErrIntegrationInactive means the referenced integration exists but is not ACTIVE */
	ErrIntegrationInactive = errors.New("integration is not active")
)
