/*-------------------------------------------------------------------------
 *
 * retriever.go
 *    Knowledge retrieval boundary for RelayAgent
 *
 * The retriever collaborator supplies chunks already ranked by
 * similarity; this core only truncates and formats them for prompt
 * assembly.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/knowledge/retriever.go
 *
 *-------------------------------------------------------------------------
 */

package knowledge

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

/* RetrievedChunk is one ranked knowledge fragment */
type RetrievedChunk struct {
	DocumentID uuid.UUID
	ChunkID    string
	Content    string
	Similarity float64
}

/* Retriever supplies ranked chunks for an utterance */
type Retriever interface {
	Retrieve(ctx context.Context, agentID uuid.UUID, query string, topK int) ([]RetrievedChunk, error)
}

/* FormatChunks renders up to topK chunks, each truncated to maxChars,
 * tagged with provenance and similarity score */
func FormatChunks(chunks []RetrievedChunk, topK, maxChars int) string {
	if len(chunks) == 0 || topK <= 0 {
		return ""
	}
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}

	var sb strings.Builder
	sb.WriteString("RELEVANT KNOWLEDGE:\n")
	for i, chunk := range chunks {
		content := chunk.Content
		if maxChars > 0 && len(content) > maxChars {
			cut := maxChars
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut] + "..."
		}
		sb.WriteString(fmt.Sprintf("[%d] (doc=%s chunk=%s similarity=%.2f)\n%s\n",
			i+1, chunk.DocumentID.String(), chunk.ChunkID, chunk.Similarity, content))
	}
	return sb.String()
}
