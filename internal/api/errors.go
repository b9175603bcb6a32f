/*-------------------------------------------------------------------------
 *
 * errors.go
 *    HTTP error envelope for the RelayAgent API
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/api/errors.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"net/http"
)

/* APIError carries an HTTP status with the message returned to callers */
type APIError struct {
	Code      int
	Message   string
	Err       error
	RequestID string
}

var (
	ErrBadRequest = NewError(http.StatusBadRequest, "invalid request", nil)
	ErrNotFound   = NewError(http.StatusNotFound, "resource not found", nil)
	ErrInternal   = NewError(http.StatusInternalServerError, "internal error", nil)
)

func NewError(code int, message string, err error) *APIError {
	return &APIError{Code: code, Message: message, Err: err}
}

/* WrapError attaches the request ID without mutating the sentinel */
func WrapError(apiErr *APIError, requestID string) *APIError {
	return &APIError{
		Code:      apiErr.Code,
		Message:   apiErr.Message,
		Err:       apiErr.Err,
		RequestID: requestID,
	}
}

/* ErrorResponse is the JSON error body */
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err *APIError) {
	response := ErrorResponse{
		Error: err.Message,
		Code:  err.Code,
	}
	if err.Err != nil {
		response.Message = err.Err.Error()
	}
	if err.RequestID != "" {
		w.Header().Set("X-Request-ID", err.RequestID)
	}
	respondJSON(w, err.Code, response)
}
