package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/burrow/pkg/adapter"
	"github.com/m-mizutani/burrow/pkg/agent"
	"github.com/m-mizutani/burrow/pkg/chunk"
	"github.com/m-mizutani/burrow/pkg/embedding"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/repository"
)

// config holds configuration values. It is populated once from flags and
// environment variables when a command starts and is immutable afterwards.
type config struct {
	// Repository
	project  string
	database string
	inMemory bool

	// Upload archive
	bucket string

	// Adapters
	geminiProject       string
	geminiLocation      string
	generativeModel     string
	embeddingModel      string
	embeddingDimensions int64

	// Pipeline
	chunkSize    int64
	chunkOverlap int64
	tokenBudget  int64
	topK         int64
	agentsPath   string

	logLevel string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.BoolFlag{
			Name:        "memory",
			Usage:       "Use the in-process memory store instead of Firestore (no persistence)",
			Sources:     cli.EnvVars("BURROW_MEMORY_STORE"),
			Destination: &cfg.inMemory,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("BURROW_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("BURROW_GEMINI_PROJECT"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("BURROW_GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "generative-model",
			Usage:       "Default generation model (agents may override)",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("BURROW_GENERATIVE_MODEL"),
			Destination: &cfg.generativeModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model",
			Value:       "gemini-embedding-001",
			Sources:     cli.EnvVars("BURROW_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
		&cli.IntFlag{
			Name:        "embedding-dimensions",
			Usage:       "Requested embedding dimensionality (0 = model default)",
			Value:       768,
			Sources:     cli.EnvVars("BURROW_EMBEDDING_DIMENSIONS"),
			Destination: &cfg.embeddingDimensions,
		},
	}
}

// pipelineFlags returns flags for the ingestion and chat pipeline
func pipelineFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Chunk window size in characters",
			Value:       chunk.DefaultSize,
			Sources:     cli.EnvVars("BURROW_CHUNK_SIZE"),
			Destination: &cfg.chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Usage:       "Overlap between consecutive chunks in characters",
			Value:       chunk.DefaultOverlap,
			Sources:     cli.EnvVars("BURROW_CHUNK_OVERLAP"),
			Destination: &cfg.chunkOverlap,
		},
		&cli.IntFlag{
			Name:        "token-budget",
			Usage:       "Token budget for one assembled prompt",
			Value:       4000,
			Sources:     cli.EnvVars("BURROW_TOKEN_BUDGET"),
			Destination: &cfg.tokenBudget,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of memories retrieved per query",
			Value:       5,
			Sources:     cli.EnvVars("BURROW_TOP_K"),
			Destination: &cfg.topK,
		},
		&cli.StringFlag{
			Name:        "agents",
			Usage:       "Path to a YAML file with agent definitions",
			Sources:     cli.EnvVars("BURROW_AGENTS_FILE"),
			Destination: &cfg.agentsPath,
		},
	}
}

// archiveFlags returns flags for the raw upload archive
func archiveFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for archiving raw uploads (empty disables archiving)",
			Sources:     cli.EnvVars("BURROW_BUCKET"),
			Destination: &cfg.bucket,
		},
	}
}

// newRepository creates a new repository instance
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.inMemory {
		return repository.NewMemory(), nil
	}

	if cfg.project == "" {
		return nil, goerr.Wrap(model.ErrInvalidConfig, "project is required (or use --memory)")
	}
	if cfg.database == "" {
		return nil, goerr.Wrap(model.ErrInvalidConfig, "database is required")
	}

	repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.Wrap(model.ErrInvalidConfig, "gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.Wrap(model.ErrInvalidConfig, "gemini-location is required")
	}

	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation,
		adapter.WithGenerativeModel(cfg.generativeModel),
		adapter.WithEmbeddingModel(cfg.embeddingModel),
		adapter.WithEmbeddingDimensions(int32(cfg.embeddingDimensions)),
	)
}

// newGateway creates the embedding gateway, probing the provider dimension
func (cfg *config) newGateway(ctx context.Context, gemini adapter.Gemini) (*embedding.Gateway, error) {
	gateway, err := embedding.New(ctx, gemini)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedding gateway")
	}
	return gateway, nil
}

// newRegistry creates the agent registry, loading the agents file if set
func (cfg *config) newRegistry() (*agent.Registry, error) {
	registry := agent.New()

	if cfg.agentsPath == "" {
		return registry, nil
	}

	configs, err := agent.LoadFile(cfg.agentsPath)
	if err != nil {
		return nil, err
	}
	for _, c := range configs {
		if err := registry.Create(c); err != nil {
			return nil, goerr.Wrap(err, "failed to register agent", goerr.V("agent_id", c.ID))
		}
	}
	return registry, nil
}

// newStorage creates the upload archive adapter, nil when no bucket is set
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}
