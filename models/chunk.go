package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Chunk represents one retrievable passage of a document together with its
// embedding vector. Chunks are created only by the ingestion pipeline; a
// re-ingestion of the same document name replaces the full set.
type Chunk struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Content      string          `json:"content" db:"content"`
	Embedding    []float32       `json:"embedding" db:"embedding"`
	DocumentName string          `json:"document_name" db:"document_name"`
	ChunkIndex   int             `json:"chunk_index" db:"chunk_index"`
	Metadata     json.RawMessage `json:"metadata,omitempty" db:"metadata"` // JSONB, advisory only
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Chunk model
func (Chunk) TableName() string {
	return "document_chunks"
}

// ChunkMetadata is the advisory metadata recorded per chunk at ingestion
// time. Retrieval never consults it.
type ChunkMetadata struct {
	Length      int       `json:"length"`
	ProcessedAt time.Time `json:"processed_at"`
}

// NewChunk creates a new Chunk instance with metadata describing the
// ingestion run.
func NewChunk(documentName, content string, index int, embedding []float32) *Chunk {
	now := time.Now().UTC()
	meta, _ := json.Marshal(ChunkMetadata{
		Length:      len([]rune(content)),
		ProcessedAt: now,
	})
	return &Chunk{
		ID:           uuid.New(),
		Content:      content,
		Embedding:    embedding,
		DocumentName: documentName,
		ChunkIndex:   index,
		Metadata:     meta,
		CreatedAt:    now,
	}
}

// SearchResult pairs a retrieved chunk's content with its similarity score.
type SearchResult struct {
	Content      string  `json:"content"`
	DocumentName string  `json:"document_name"`
	ChunkIndex   int     `json:"chunk_index"`
	Similarity   float64 `json:"similarity"`
}

// DocumentInfo summarizes an ingested document for listing.
type DocumentInfo struct {
	DocumentName string    `json:"document_name"`
	ChunkCount   int       `json:"chunk_count"`
	LastIngested time.Time `json:"last_ingested"`
}
