/*-------------------------------------------------------------------------
 *
 * bridge.go
 *    HTTP bridge executor for external integrations
 *
 * RelayAgent does not speak provider protocols itself: each integration
 * record carries the endpoint of a provider bridge (Google Calendar,
 * WhatsApp, HubSpot, ...) that translates one generic action envelope
 * into the provider's API. The bridge executor posts the envelope and
 * decodes the bridge's verdict.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/actions/bridge.go
 *
 *-------------------------------------------------------------------------
 */

package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/relaybot/RelayAgent/internal/db"
)

/* bridge response bodies are bounded to keep a misbehaving bridge from
 * ballooning memory */
const maxBridgeResponseBytes = 1 << 20

/* HTTPBridgeExecutor executes actions against a provider bridge */
type HTTPBridgeExecutor struct {
	httpClient *http.Client
}

func NewHTTPBridgeExecutor(httpClient *http.Client) *HTTPBridgeExecutor {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPBridgeExecutor{httpClient: httpClient}
}

type bridgeRequest struct {
	Action     string                 `json:"action"`
	Parameters map[string]interface{} `json:"parameters"`
	CallerID   string                 `json:"callerId"`
}

type bridgeResponse struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result"`
	Error   string      `json:"error"`
}

/* Execute posts one action envelope to the integration's bridge URL.
 * The caller owns the deadline via ctx. */
func (e *HTTPBridgeExecutor) Execute(ctx context.Context, integration *db.Integration,
	action string, parameters map[string]interface{}, callerID string) (interface{}, error) {
	endpoint, ok := integration.Config["endpoint"].(string)
	if !ok || endpoint == "" {
		return nil, fmt.Errorf("bridge execute failed: integration_id='%s', error=no endpoint configured",
			integration.ID)
	}

	body, err := json.Marshal(bridgeRequest{
		Action:     action,
		Parameters: parameters,
		CallerID:   callerID,
	})
	if err != nil {
		return nil, fmt.Errorf("bridge execute failed: action='%s', error=%w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("bridge execute failed: endpoint='%s', error=%w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token, ok := integration.Config["auth_token"].(string); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bridge execute failed: endpoint='%s', error=%w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBridgeResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("bridge response read failed: endpoint='%s', error=%w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bridge execute failed: endpoint='%s', status='%d'", endpoint, resp.StatusCode)
	}

	var verdict bridgeResponse
	if err := json.Unmarshal(data, &verdict); err != nil {
		return nil, fmt.Errorf("bridge response decode failed: endpoint='%s', error=%w", endpoint, err)
	}
	if !verdict.Success {
		if verdict.Error == "" {
			verdict.Error = "bridge reported failure without detail"
		}
		return nil, fmt.Errorf("bridge action failed: action='%s', error=%s", action, verdict.Error)
	}
	return verdict.Result, nil
}
