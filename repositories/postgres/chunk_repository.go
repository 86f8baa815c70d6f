package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spassist/sp-assistant/models"
	"github.com/spassist/sp-assistant/repositories"
	"go.uber.org/zap"
)

// ChunkRepository implements the repositories.ChunkRepository interface on
// PostgreSQL with the pgvector extension.
type ChunkRepository struct {
	db        *DB
	dimension int
	logger    *zap.Logger
}

// NewChunkRepository creates a new chunk repository. dimension is the fixed
// embedding dimension every stored and query vector must have.
func NewChunkRepository(db *DB, dimension int, logger *zap.Logger) repositories.ChunkRepository {
	return &ChunkRepository{
		db:        db,
		dimension: dimension,
		logger:    logger,
	}
}

// InsertChunks inserts a batch of chunk rows
func (r *ChunkRepository) InsertChunks(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	query := `
		INSERT INTO document_chunks (id, content, embedding, document_name, chunk_index, metadata, created_at)
		VALUES ($1, $2, $3::vector, $4, $5, $6, $7)
	`

	for _, chunk := range chunks {
		// Mixed dimensions corrupt similarity search; reject before writing.
		if len(chunk.Embedding) != r.dimension {
			return fmt.Errorf("embedding dimension mismatch for %s[%d]: got %d, store requires %d",
				chunk.DocumentName, chunk.ChunkIndex, len(chunk.Embedding), r.dimension)
		}

		var metadata interface{}
		if len(chunk.Metadata) > 0 {
			metadata = []byte(chunk.Metadata)
		}

		_, err := r.db.ExecContext(ctx, query,
			chunk.ID,
			chunk.Content,
			formatVector(chunk.Embedding),
			chunk.DocumentName,
			chunk.ChunkIndex,
			metadata,
			chunk.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s[%d]: %w", chunk.DocumentName, chunk.ChunkIndex, err)
		}
	}

	r.logger.Debug("chunks inserted",
		zap.String("document_name", chunks[0].DocumentName),
		zap.Int("count", len(chunks)))
	return nil
}

// DeleteDocument removes all chunks for the named document
func (r *ChunkRepository) DeleteDocument(ctx context.Context, documentName string) error {
	query := `DELETE FROM document_chunks WHERE document_name = $1`

	result, err := r.db.ExecContext(ctx, query, documentName)
	if err != nil {
		return fmt.Errorf("failed to delete chunks for %s: %w", documentName, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	// Zero rows is fine: deleting an unknown document is a no-op.
	r.logger.Debug("document chunks deleted",
		zap.String("document_name", documentName),
		zap.Int64("rows", rowsAffected))
	return nil
}

// Search returns the top matchCount chunks above matchThreshold, ordered by
// descending cosine similarity
func (r *ChunkRepository) Search(ctx context.Context, queryEmbedding []float32, matchThreshold float64, matchCount int, filter repositories.SearchFilter) ([]models.SearchResult, error) {
	if len(queryEmbedding) != r.dimension {
		return nil, fmt.Errorf("query embedding dimension mismatch: got %d, store requires %d",
			len(queryEmbedding), r.dimension)
	}

	query := `
		SELECT content, document_name, chunk_index, 1 - (embedding <=> $1::vector) AS similarity
		FROM document_chunks
		WHERE 1 - (embedding <=> $1::vector) >= $2
			AND ($4::text IS NULL OR document_name = $4)
		ORDER BY embedding <=> $1::vector
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query,
		formatVector(queryEmbedding),
		matchThreshold,
		matchCount,
		filter.DocumentName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var res models.SearchResult
		if err := rows.Scan(&res.Content, &res.DocumentName, &res.ChunkIndex, &res.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search rows: %w", err)
	}

	return results, nil
}

// ListDocuments returns a summary of every ingested document
func (r *ChunkRepository) ListDocuments(ctx context.Context) ([]models.DocumentInfo, error) {
	query := `
		SELECT document_name, COUNT(*) AS chunk_count, MAX(created_at) AS last_ingested
		FROM document_chunks
		GROUP BY document_name
		ORDER BY document_name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.DocumentInfo
	for rows.Next() {
		var doc models.DocumentInfo
		if err := rows.Scan(&doc.DocumentName, &doc.ChunkCount, &doc.LastIngested); err != nil {
			return nil, fmt.Errorf("failed to scan document info: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return docs, nil
}

// CountByDocument returns the number of chunks stored for a document
func (r *ChunkRepository) CountByDocument(ctx context.Context, documentName string) (int, error) {
	query := `SELECT COUNT(*) FROM document_chunks WHERE document_name = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, documentName).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks for %s: %w", documentName, err)
	}

	return count, nil
}

// formatVector renders a float32 slice as a pgvector literal, e.g.
// "[0.1,0.2,0.3]". lib/pq has no native vector support, so vectors cross the
// wire as text and are cast with ::vector.
func formatVector(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
