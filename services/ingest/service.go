// Package ingest implements the document ingestion pipeline: it turns raw
// document text into embedded, persisted chunks. Ingesting a document name
// that already exists replaces its previous chunk set.
package ingest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/spassist/sp-assistant/config"
	"github.com/spassist/sp-assistant/models"
	"github.com/spassist/sp-assistant/repositories"
	"github.com/spassist/sp-assistant/services"
	"github.com/spassist/sp-assistant/services/chunker"
	"github.com/spassist/sp-assistant/services/providers"
	"go.uber.org/zap"
)

// Result summarizes a completed ingestion run.
type Result struct {
	DocumentName    string `json:"documentName"`
	ChunksProcessed int    `json:"chunksProcessed"`
}

// Service orchestrates the ingestion pipeline
type Service struct {
	chunker    *chunker.Chunker
	embedder   providers.Embedder
	repo       repositories.ChunkRepository
	batchSize  int
	batchDelay time.Duration
	logger     *zap.Logger
}

// NewService creates a new ingestion service
func NewService(ch *chunker.Chunker, embedder providers.Embedder, repo repositories.ChunkRepository, cfg config.IngestionConfig, logger *zap.Logger) *Service {
	return &Service{
		chunker:    ch,
		embedder:   embedder,
		repo:       repo,
		batchSize:  cfg.BatchSize,
		batchDelay: cfg.BatchDelay,
		logger:     logger,
	}
}

// IngestDocument runs the full pipeline for one document: delete any previous
// chunks for the name, split the text into passages, embed and insert them in
// batches. Batches are sequential; embeddings within a batch run concurrently.
// A failure anywhere stops the run, leaving already-inserted batches in place.
func (s *Service) IngestDocument(ctx context.Context, documentName, text string) (*Result, error) {
	if strings.TrimSpace(documentName) == "" {
		return nil, services.ErrEmptyDocumentName
	}
	if strings.TrimSpace(text) == "" {
		return nil, services.ErrEmptyDocumentText
	}

	s.logger.Info("starting document ingestion",
		zap.String("document_name", documentName),
		zap.Int("text_length", len([]rune(text))))

	// Best-effort cleanup: a delete failure must not block re-ingestion of a
	// document that was never stored.
	if err := s.repo.DeleteDocument(ctx, documentName); err != nil {
		s.logger.Warn("failed to delete existing chunks, continuing",
			zap.String("document_name", documentName),
			zap.Error(err))
	}

	passages := s.chunker.Chunk(text)
	if len(passages) == 0 {
		s.logger.Info("document produced no chunks",
			zap.String("document_name", documentName))
		return &Result{DocumentName: documentName, ChunksProcessed: 0}, nil
	}

	s.logger.Info("document chunked",
		zap.String("document_name", documentName),
		zap.Int("chunk_count", len(passages)))

	processed := 0
	for start := 0; start < len(passages); start += s.batchSize {
		end := start + s.batchSize
		if end > len(passages) {
			end = len(passages)
		}

		chunks, err := s.processBatch(ctx, documentName, passages[start:end], start)
		if err != nil {
			return nil, services.NewDomainError(services.ErrorTypeIngestion, "failed to embed chunk batch", err).
				WithDetail("document_name", documentName).
				WithDetail("batch_start", start)
		}

		if err := s.repo.InsertChunks(ctx, chunks); err != nil {
			return nil, services.NewDomainError(services.ErrorTypeIngestion, "failed to insert chunk batch", err).
				WithDetail("document_name", documentName).
				WithDetail("batch_start", start)
		}

		processed += len(chunks)
		s.logger.Debug("batch persisted",
			zap.String("document_name", documentName),
			zap.Int("batch_start", start),
			zap.Int("processed", processed))

		// Pause between batches to stay under the embedding provider's rate
		// limit. No pause after the final batch.
		if end < len(passages) {
			select {
			case <-time.After(s.batchDelay):
			case <-ctx.Done():
				return nil, services.NewDomainError(services.ErrorTypeIngestion, "ingestion cancelled", ctx.Err()).
					WithDetail("document_name", documentName)
			}
		}
	}

	s.logger.Info("document ingestion complete",
		zap.String("document_name", documentName),
		zap.Int("chunks_processed", processed))

	return &Result{DocumentName: documentName, ChunksProcessed: processed}, nil
}

// processBatch embeds a slice of passages concurrently and assembles chunk
// rows. indexOffset is the chunk index of the first passage in the batch;
// result order matches passage order regardless of embedding completion
// order.
func (s *Service) processBatch(ctx context.Context, documentName string, passages []string, indexOffset int) ([]*models.Chunk, error) {
	chunks := make([]*models.Chunk, len(passages))
	errs := make([]error, len(passages))

	var wg sync.WaitGroup
	for i, passage := range passages {
		wg.Add(1)
		go func(i int, passage string) {
			defer wg.Done()
			embedding, err := s.embedder.EmbedPassage(ctx, passage)
			if err != nil {
				errs[i] = err
				return
			}
			chunks[i] = models.NewChunk(documentName, passage, indexOffset+i, embedding)
		}(i, passage)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return chunks, nil
}

// DeleteDocument removes all stored chunks for a document. Unknown documents
// return ErrDocumentNotFound.
func (s *Service) DeleteDocument(ctx context.Context, documentName string) error {
	if strings.TrimSpace(documentName) == "" {
		return services.ErrEmptyDocumentName
	}

	count, err := s.repo.CountByDocument(ctx, documentName)
	if err != nil {
		return services.WrapInternal("failed to count document chunks", err)
	}
	if count == 0 {
		return services.ErrDocumentNotFound
	}

	if err := s.repo.DeleteDocument(ctx, documentName); err != nil {
		return services.WrapInternal("failed to delete document", err)
	}

	s.logger.Info("document deleted",
		zap.String("document_name", documentName),
		zap.Int("chunks_removed", count))
	return nil
}

// ListDocuments returns a summary of every ingested document.
func (s *Service) ListDocuments(ctx context.Context) ([]models.DocumentInfo, error) {
	docs, err := s.repo.ListDocuments(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to list documents", err)
	}
	return docs, nil
}
