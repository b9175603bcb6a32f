/*-------------------------------------------------------------------------
 *
 * retriever_test.go
 *    Tests for knowledge chunk formatting
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 *-------------------------------------------------------------------------
 */

package knowledge

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func chunk(id, content string, similarity float64) RetrievedChunk {
	return RetrievedChunk{
		DocumentID: uuid.MustParse("66666666-6666-6666-6666-666666666666"),
		ChunkID:    id,
		Content:    content,
		Similarity: similarity,
	}
}

func TestFormatChunksEmpty(t *testing.T) {
	assert.Equal(t, "", FormatChunks(nil, 5, 100))
	assert.Equal(t, "", FormatChunks([]RetrievedChunk{chunk("c1", "hello", 0.9)}, 0, 100))
}

func TestFormatChunksHonorsTopK(t *testing.T) {
	chunks := []RetrievedChunk{
		chunk("c1", "first", 0.95),
		chunk("c2", "second", 0.80),
		chunk("c3", "third", 0.60),
	}

	out := FormatChunks(chunks, 2, 100)

	assert.Contains(t, out, "RELEVANT KNOWLEDGE:")
	assert.Contains(t, out, "[1] (doc=66666666-6666-6666-6666-666666666666 chunk=c1 similarity=0.95)")
	assert.Contains(t, out, "[2]")
	assert.NotContains(t, out, "third")
}

func TestFormatChunksTruncates(t *testing.T) {
	long := strings.Repeat("a", 200)

	out := FormatChunks([]RetrievedChunk{chunk("c1", long, 0.5)}, 5, 50)

	assert.Contains(t, out, strings.Repeat("a", 50)+"...")
	assert.NotContains(t, out, strings.Repeat("a", 51))
}

func TestFormatChunksTruncatesOnRuneBoundary(t *testing.T) {
	/* every rune is two bytes, so an odd cut lands mid-rune */
	long := strings.Repeat("ñ", 40)

	out := FormatChunks([]RetrievedChunk{chunk("c1", long, 0.5)}, 5, 51)

	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, strings.Repeat("ñ", 25)+"...")
}
