/*-------------------------------------------------------------------------
 *
 * log_context.go
 *    Log context helpers for structured logging
 *
 * Provides helpers for consistent structured logging with request_id,
 * conversation_id, agent_id, tool_name, and correlation_id fields across
 * all components.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/metrics/log_context.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	requestIDKey      contextKey = "request_id"
	conversationIDKey contextKey = "conversation_id"
	agentIDKey        contextKey = "agent_id"
	toolNameKey       contextKey = "tool_name"
	correlationIDKey  contextKey = "correlation_id"
)

/* WithRequestID adds a request ID to the log context */
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

/* WithConversationID adds a conversation ID to the log context */
func WithConversationID(ctx context.Context, conversationID uuid.UUID) context.Context {
	return context.WithValue(ctx, conversationIDKey, conversationID.String())
}

/* WithAgentID adds an agent ID to the log context */
func WithAgentID(ctx context.Context, agentID uuid.UUID) context.Context {
	return context.WithValue(ctx, agentIDKey, agentID.String())
}

/* WithToolName adds a tool name to the log context */
func WithToolName(ctx context.Context, toolName string) context.Context {
	return context.WithValue(ctx, toolNameKey, toolName)
}

/* WithCorrelationID adds an async correlation ID to the log context */
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

/* GetRequestIDFromContext gets the request ID from context */
func GetRequestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, requestIDKey)
}

/* LoggerFromContext creates a zerolog logger with fields from context */
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	logger := log.Logger

	for _, key := range []contextKey{requestIDKey, conversationIDKey, agentIDKey, toolNameKey, correlationIDKey} {
		if v := stringFromContext(ctx, key); v != "" {
			logger = logger.With().Str(string(key), v).Logger()
		}
	}

	return logger
}

/* LogWithContext logs a message with context fields */
func LogWithContext(ctx context.Context, level zerolog.Level, message string, fields map[string]interface{}) {
	logger := LoggerFromContext(ctx)
	event := logger.WithLevel(level)

	for key, value := range fields {
		event = event.Interface(key, value)
	}

	event.Msg(message)
}

/* DebugWithContext logs a debug message with context */
func DebugWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.DebugLevel, message, fields)
}

/* InfoWithContext logs an info message with context */
func InfoWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.InfoLevel, message, fields)
}

/* WarnWithContext logs a warning message with context */
func WarnWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.WarnLevel, message, fields)
}

/* ErrorWithContext logs an error message with context */
func ErrorWithContext(ctx context.Context, message string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	LogWithContext(ctx, zerolog.ErrorLevel, message, fields)
}
