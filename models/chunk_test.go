package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunk(t *testing.T) {
	embedding := []float32{0.1, 0.2, 0.3}

	chunk := NewChunk("doc.pdf", "some chunk content", 4, embedding)

	assert.NotEqual(t, uuid.Nil, chunk.ID)
	assert.Equal(t, "doc.pdf", chunk.DocumentName)
	assert.Equal(t, "some chunk content", chunk.Content)
	assert.Equal(t, 4, chunk.ChunkIndex)
	assert.Equal(t, embedding, chunk.Embedding)
	assert.WithinDuration(t, time.Now().UTC(), chunk.CreatedAt, time.Second)

	var meta ChunkMetadata
	require.NoError(t, json.Unmarshal(chunk.Metadata, &meta))
	assert.Equal(t, len("some chunk content"), meta.Length)
	assert.False(t, meta.ProcessedAt.IsZero())
}

func TestNewChunkMetadataLengthCountsRunes(t *testing.T) {
	content := strings.Repeat("щ", 25)

	chunk := NewChunk("doc.pdf", content, 0, nil)

	var meta ChunkMetadata
	require.NoError(t, json.Unmarshal(chunk.Metadata, &meta))
	assert.Equal(t, 25, meta.Length)
}

func TestChunkTableName(t *testing.T) {
	assert.Equal(t, "document_chunks", Chunk{}.TableName())
}

func TestChunkIDsAreUnique(t *testing.T) {
	a := NewChunk("doc.pdf", "content a", 0, nil)
	b := NewChunk("doc.pdf", "content b", 1, nil)
	assert.NotEqual(t, a.ID, b.ID)
}
