// Package app wires the application together: configuration, database,
// provider clients, and the core services, in one central injection point.
package app

import (
	"context"
	"fmt"

	"github.com/spassist/sp-assistant/config"
	"github.com/spassist/sp-assistant/repositories"
	"github.com/spassist/sp-assistant/repositories/postgres"
	"github.com/spassist/sp-assistant/services/chat"
	"github.com/spassist/sp-assistant/services/chunker"
	"github.com/spassist/sp-assistant/services/ingest"
	"github.com/spassist/sp-assistant/services/providers"
	"github.com/spassist/sp-assistant/services/providers/jina"
	"github.com/spassist/sp-assistant/services/providers/openrouter"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repositories
	Chunks repositories.ChunkRepository

	// Providers
	Embedder providers.Embedder
	Streamer providers.ChatStreamer

	// Services
	IngestService *ingest.Service
	ChatService   *chat.Service
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initProviders(cfg)
	deps.initServices(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection, the chunk store schema,
// and the chunk repository
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	d.DB = db

	if err := db.InitSchema(ctx, cfg.Providers.Jina.Dimension); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Chunks = postgres.NewChunkRepository(db, cfg.Providers.Jina.Dimension, d.Logger)

	d.Logger.Info("chunk store initialized",
		zap.Int("embedding_dimension", cfg.Providers.Jina.Dimension))
	return nil
}

// initProviders initializes the embedding and completion provider clients.
// One embedder instance serves both ingestion and retrieval so passages and
// queries always share an embedding space.
func (d *Dependencies) initProviders(cfg *config.Config) {
	d.Embedder = jina.NewClient(cfg.Providers.Jina)
	d.Streamer = openrouter.NewClient(cfg.Providers.OpenRouter)

	d.Logger.Info("provider clients initialized",
		zap.String("embedding_model", cfg.Providers.Jina.Model),
		zap.String("completion_model", cfg.Providers.OpenRouter.Model))
}

// initServices initializes the core services
func (d *Dependencies) initServices(cfg *config.Config) {
	ch := chunker.New(cfg.Ingestion.MaxChunkSize, cfg.Ingestion.MinChunkLength)

	d.IngestService = ingest.NewService(ch, d.Embedder, d.Chunks, cfg.Ingestion, d.Logger)
	d.ChatService = chat.NewService(d.Embedder, d.Chunks, d.Streamer, cfg.Retrieval, d.Logger)

	d.Logger.Info("services initialized")
}

// Close releases all held resources
func (d *Dependencies) Close() error {
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
