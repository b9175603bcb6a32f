/*-------------------------------------------------------------------------
 *
 * middleware.go
 *    HTTP middleware for the RelayAgent API
 *
 * Provides logging, recovery, CORS, and security header middleware for
 * the RelayAgent HTTP API server.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/api/middleware.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/relaybot/RelayAgent/internal/metrics"
)

/* statusRecorder captures the response status for logging */
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

/* LoggingMiddleware logs each request with duration and status and
 * feeds the HTTP request metrics */
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		duration := time.Since(started)
		metrics.RecordHTTPRequest(r.Method, r.URL.Path, fmt.Sprintf("%d", recorder.status), duration)
		metrics.InfoWithContext(r.Context(), "Request handled", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      recorder.status,
			"duration_ms": duration.Milliseconds(),
		})
	})
}

/* RecoveryMiddleware converts handler panics into a 500 response */
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				requestID := GetRequestID(r.Context())
				metrics.ErrorWithContext(r.Context(), "Handler panicked",
					fmt.Errorf("panic: %v", rec), map[string]interface{}{
						"path": r.URL.Path,
					})
				respondError(w, WrapError(ErrInternal, requestID))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

/* CORSMiddleware adds CORS headers */
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

/* SecurityHeadersMiddleware adds security headers to all responses */
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}
