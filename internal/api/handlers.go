/*-------------------------------------------------------------------------
 *
 * handlers.go
 *    HTTP handlers for the RelayAgent API
 *
 * Operational surface for the orchestration engine: synchronous and
 * asynchronous action execution, tool and workflow catalog inspection,
 * a match debugging endpoint, and conversation reads. Turn processing
 * itself is queue-driven and never goes through HTTP.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/api/handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/relaybot/RelayAgent/internal/actions"
	"github.com/relaybot/RelayAgent/internal/db"
	"github.com/relaybot/RelayAgent/internal/utils"
	"github.com/relaybot/RelayAgent/internal/workflow"
)

type Handlers struct {
	queries    *db.Queries
	dispatcher *actions.Dispatcher
	matcher    *workflow.Matcher
	catalog    *workflow.Catalog
}

func NewHandlers(queries *db.Queries, dispatcher *actions.Dispatcher,
	matcher *workflow.Matcher, catalog *workflow.Catalog) *Handlers {
	return &Handlers{
		queries:    queries,
		dispatcher: dispatcher,
		matcher:    matcher,
		catalog:    catalog,
	}
}

/* Register mounts all API routes on the given subrouter */
func (h *Handlers) Register(router *mux.Router) {
	router.HandleFunc("/actions/execute", h.ExecuteAction).Methods("POST")
	router.HandleFunc("/actions/execute-async", h.ExecuteActionAsync).Methods("POST")
	router.HandleFunc("/tools", h.ListTools).Methods("GET")
	router.HandleFunc("/workflows", h.ListWorkflows).Methods("GET")
	router.HandleFunc("/workflows/match", h.MatchWorkflow).Methods("POST")
	router.HandleFunc("/agents/{id}/integrations", h.ListIntegrations).Methods("GET")
	router.HandleFunc("/conversations/{id}/messages", h.GetMessages).Methods("GET")
}

type executeActionRequest struct {
	IntegrationID uuid.UUID              `json:"integrationId"`
	Action        string                 `json:"action"`
	Parameters    map[string]interface{} `json:"parameters"`
	CallerID      string                 `json:"callerId"`
	CallbackURL   *string                `json:"callbackUrl,omitempty"`
}

/* ExecuteAction runs one integration action synchronously */
func (h *Handlers) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req executeActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid request body", err), requestID))
		return
	}
	if req.IntegrationID == uuid.Nil || req.Action == "" {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "integrationId and action are required", nil), requestID))
		return
	}

	result := h.dispatcher.Execute(r.Context(), req.IntegrationID, req.Action, req.Parameters, req.CallerID)
	respondJSON(w, http.StatusOK, result)
}

type asyncActionResponse struct {
	CorrelationID uuid.UUID `json:"correlationId"`
	Status        string    `json:"status"`
}

/* ExecuteActionAsync enqueues one integration action and returns its
 * correlation ID immediately */
func (h *Handlers) ExecuteActionAsync(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req executeActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid request body", err), requestID))
		return
	}
	if req.IntegrationID == uuid.Nil || req.Action == "" {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "integrationId and action are required", nil), requestID))
		return
	}

	correlationID, err := h.dispatcher.ExecuteAsync(r.Context(), req.IntegrationID, req.Action,
		req.Parameters, req.CallerID, req.CallbackURL)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "action enqueue failed", err), requestID))
		return
	}

	respondJSON(w, http.StatusAccepted, asyncActionResponse{
		CorrelationID: correlationID,
		Status:        "queued",
	})
}

type toolResponse struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Provider    string `json:"provider"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

/* ListTools returns the closed tool registry */
func (h *Handlers) ListTools(w http.ResponseWriter, r *http.Request) {
	names := actions.AllToolNames()
	tools := make([]toolResponse, 0, len(names))
	for _, name := range names {
		binding, _ := actions.Resolve(name)
		tools = append(tools, toolResponse{
			Name:        string(name),
			Type:        string(binding.Type),
			Provider:    string(binding.Provider),
			Action:      binding.Action,
			Description: actions.ToolDescription(name),
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tools": tools})
}

type workflowStepResponse struct {
	Tool        string `json:"tool"`
	Required    bool   `json:"required"`
	Conditional string `json:"conditional,omitempty"`
	MaxRetries  int    `json:"maxRetries"`
}

type workflowResponse struct {
	Name         string                 `json:"name"`
	Category     string                 `json:"category"`
	Priority     int                    `json:"priority"`
	Triggers     []string               `json:"triggers"`
	ContextAware bool                   `json:"contextAware"`
	Steps        []workflowStepResponse `json:"steps"`
}

/* ListWorkflows returns the static workflow catalog */
func (h *Handlers) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	definitions := h.catalog.Workflows()
	workflows := make([]workflowResponse, 0, len(definitions))
	for _, def := range definitions {
		steps := make([]workflowStepResponse, 0, len(def.Steps))
		for _, step := range def.Steps {
			steps = append(steps, workflowStepResponse{
				Tool:        string(step.Tool),
				Required:    step.Required,
				Conditional: string(step.Conditional),
				MaxRetries:  step.MaxRetries,
			})
		}
		workflows = append(workflows, workflowResponse{
			Name:         def.Name,
			Category:     string(def.Category),
			Priority:     def.Priority,
			Triggers:     def.Triggers,
			ContextAware: def.ContextAware,
			Steps:        steps,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"workflows": workflows})
}

type matchRequest struct {
	Utterance            string   `json:"utterance"`
	RecentAssistantTurns []string `json:"recentAssistantTurns"`
}

type matchResponse struct {
	Workflow           string  `json:"workflow,omitempty"`
	Score              float64 `json:"score"`
	SimpleConfirmation bool    `json:"simpleConfirmation"`
	Reason             string  `json:"reason"`
}

/* MatchWorkflow scores an utterance against the catalog without
 * executing anything; used for tuning trigger lists */
func (h *Handlers) MatchWorkflow(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid request body", err), requestID))
		return
	}
	if req.Utterance == "" {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "utterance is required", nil), requestID))
		return
	}

	outcome := h.matcher.Match(r.Context(), req.Utterance, req.RecentAssistantTurns)
	resp := matchResponse{
		Score:              outcome.Score,
		SimpleConfirmation: outcome.SimpleConfirmation,
		Reason:             outcome.Reason,
	}
	if outcome.Workflow != nil {
		resp.Workflow = outcome.Workflow.Name
	}
	respondJSON(w, http.StatusOK, resp)
}

/* ListIntegrations returns an agent's active integrations */
func (h *Handlers) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	agentID, err := utils.ParsePathID("agent_id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid agent id", err), requestID))
		return
	}

	integrations, err := h.queries.ListActiveIntegrations(r.Context(), agentID)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "integration list failed", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"integrations": integrations})
}

/* GetMessages returns the most recent messages of a conversation */
func (h *Handlers) GetMessages(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	conversationID, err := utils.ParsePathID("conversation_id", mux.Vars(r)["id"])
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid conversation id", err), requestID))
		return
	}

	messages, err := h.queries.GetRecentMessages(r.Context(), conversationID, 50)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "message load failed", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}
