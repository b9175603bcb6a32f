/*-------------------------------------------------------------------------
 *
 * ids.go
 *    Identifier helpers for RelayAgent
 *
 * One place for the identifier conventions of the engine: request ids
 * attached to inbound HTTP requests and claimed jobs, correlation ids
 * for asynchronous action invocations, and path-variable parsing with
 * the field name carried in the error.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/utils/ids.go
 *
 *-------------------------------------------------------------------------
 */

package utils

import (
	"fmt"

	"github.com/google/uuid"
)

/* NewRequestID returns the id attached to one inbound HTTP request or
 * one claimed job for log correlation */
func NewRequestID() string {
	return uuid.New().String()
}

/* NewCorrelationID identifies one asynchronous action invocation */
func NewCorrelationID() uuid.UUID {
	return uuid.New()
}

/* ParsePathID parses a uuid path variable, naming the field on failure */
func ParsePathID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("id parse failed: field='%s', value='%s', error=%w", field, value, err)
	}
	return id, nil
}

/* IsValidID reports whether a string is a well-formed uuid */
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
