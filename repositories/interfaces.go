// Package repositories defines the persistence interfaces the core services
// depend on. Implementations live in subpackages (postgres).
package repositories

import (
	"context"

	"github.com/spassist/sp-assistant/models"
)

// SearchFilter narrows a similarity search. A nil DocumentName searches
// across all documents.
type SearchFilter struct {
	DocumentName *string
}

// ChunkRepository persists document chunks and answers similarity queries
// over their embedding vectors.
type ChunkRepository interface {
	// InsertChunks inserts a batch of chunk rows. Rows must all carry
	// embeddings of the store's configured dimension.
	InsertChunks(ctx context.Context, chunks []*models.Chunk) error

	// DeleteDocument removes all chunks for the named document. Deleting a
	// document with no chunks is a no-op, not an error.
	DeleteDocument(ctx context.Context, documentName string) error

	// Search returns at most matchCount chunks whose cosine similarity to
	// queryEmbedding is at or above matchThreshold, ordered by descending
	// similarity.
	Search(ctx context.Context, queryEmbedding []float32, matchThreshold float64, matchCount int, filter SearchFilter) ([]models.SearchResult, error)

	// ListDocuments returns a summary of every ingested document.
	ListDocuments(ctx context.Context) ([]models.DocumentInfo, error)

	// CountByDocument returns the number of chunks stored for a document.
	CountByDocument(ctx context.Context, documentName string) (int, error)
}
