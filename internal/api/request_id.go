/*-------------------------------------------------------------------------
 *
 * request_id.go
 *    Request ID middleware for the RelayAgent API
 *
 * Provides request ID generation and context management for tracking
 * requests across the API with correlation support.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/api/request_id.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"context"
	"net/http"

	"github.com/relaybot/RelayAgent/internal/metrics"
	"github.com/relaybot/RelayAgent/internal/utils"
)

type contextKey string

const requestIDKey contextKey = "request_id"

/* RequestIDMiddleware adds a unique request ID to each request */
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = utils.NewRequestID()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = metrics.WithRequestID(ctx, requestID)
		r = r.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r)
	})
}

/* GetRequestID gets the request ID from context */
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
