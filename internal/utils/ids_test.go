/*-------------------------------------------------------------------------
 *
 * ids_test.go
 *    Tests for identifier helpers
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 *-------------------------------------------------------------------------
 */

package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestID(t *testing.T) {
	id := NewRequestID()
	assert.True(t, IsValidID(id))
	assert.NotEqual(t, id, NewRequestID())
}

func TestNewCorrelationID(t *testing.T) {
	assert.NotEqual(t, uuid.Nil, NewCorrelationID())
}

func TestParsePathID(t *testing.T) {
	want := uuid.MustParse("88888888-8888-8888-8888-888888888888")

	id, err := ParsePathID("agent_id", want.String())
	require.NoError(t, err)
	assert.Equal(t, want, id)

	_, err = ParsePathID("agent_id", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field='agent_id'")
	assert.Contains(t, err.Error(), "value='not-a-uuid'")
}

func TestIsValidID(t *testing.T) {
	assert.True(t, IsValidID("88888888-8888-8888-8888-888888888888"))
	assert.False(t, IsValidID("nope"))
	assert.False(t, IsValidID(""))
}
