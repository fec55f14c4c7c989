package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Yates-Labs/prdupe/internal/adapter"
	"github.com/Yates-Labs/prdupe/internal/config"
	"github.com/Yates-Labs/prdupe/internal/explain"
	githubmodel "github.com/Yates-Labs/prdupe/internal/github"
	"github.com/Yates-Labs/prdupe/internal/rag"
	"github.com/Yates-Labs/prdupe/internal/rag/store"
)

// Build assembles a Pipeline from configuration. Missing credentials degrade
// the pipeline instead of failing it: without an OpenAI key checks are
// lexical-only and the store serves cleanup alone. Without a repository only
// local diffs can be checked.
func Build(ctx context.Context, cfg config.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	logger := p.logger

	source, err := buildSource(cfg.GitHub)
	if err != nil {
		return nil, err
	}

	embedder := buildEmbedder(cfg.Embedding, logger)

	vectors, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	pipelineOpts := []Option{
		WithLogger(logger),
		WithIndexLimit(cfg.GitHub.IndexLimit),
		WithIndexOptions(rag.IndexOptions{
			BatchSize:    cfg.Embedding.BatchSize,
			SkipExisting: true,
		}),
	}
	if cfg.Explain.Enabled {
		llm, err := explain.NewLLM(cfg.Explain.LLM)
		if err != nil {
			logger.Warn("explanations disabled", "provider", cfg.Explain.LLM.Provider, "error", err)
		} else {
			pipelineOpts = append(pipelineOpts, WithGenerator(explain.NewGenerator(llm, cfg.Explain.LLM)))
		}
	}
	pipelineOpts = append(pipelineOpts, opts...)

	var src adapter.Source
	if source != nil {
		src = source
	}

	pipeline, err := NewPipeline(src, embedder, vectors, cfg.Dedup, pipelineOpts...)
	if err != nil {
		_ = vectors.Close()
		return nil, err
	}
	return pipeline, nil
}

func buildSource(cfg config.GitHubConfig) (*adapter.GitHubAdapter, error) {
	if cfg.Repository == "" {
		return nil, nil
	}

	owner, repo, err := ParseRepository(cfg.Repository)
	if err != nil {
		return nil, err
	}

	source := adapter.NewGitHubAdapter(githubmodel.NewClient(cfg.Token), owner, repo)
	if cfg.SearchResults > 0 {
		source.SearchResults = cfg.SearchResults
	}
	return source, nil
}

func buildEmbedder(cfg config.EmbeddingConfig, logger *slog.Logger) rag.Embedder {
	if !cfg.Enabled {
		return nil
	}
	if cfg.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, using lexical search only")
		return nil
	}

	openai, err := rag.NewOpenAIEmbedderWithKey(cfg.APIKey, cfg.Model, cfg.Dimension)
	if err != nil {
		logger.Warn("embedder unavailable, using lexical search only", "error", err)
		return nil
	}
	if cfg.RequestsPerSecond > 0 {
		return rag.NewRateLimitedEmbedder(openai, cfg.RequestsPerSecond, cfg.Burst)
	}
	return openai
}

func buildStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (rag.VectorStore, error) {
	collectionOpts := rag.CollectionOptions{
		MaxRecords: cfg.Store.MaxRecords,
		Logger:     logger,
	}

	switch cfg.Store.Backend {
	case config.BackendFile:
		storage, err := store.NewFileStorage(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open embedding file: %w", err)
		}
		return rag.OpenCollection(ctx, storage, collectionOpts), nil

	case config.BackendSQLite:
		storage, err := store.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open embedding database: %w", err)
		}
		return rag.OpenCollection(ctx, storage, collectionOpts), nil

	case config.BackendMemory:
		return rag.OpenCollection(ctx, nil, collectionOpts), nil

	case config.BackendMilvus:
		milvusCfg := cfg.Milvus
		milvusCfg.Dimension = cfg.Embedding.Dimension
		milvusCfg.MaxRecords = cfg.Store.MaxRecords
		milvus, err := rag.NewMilvusStore(ctx, milvusCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to milvus: %w", err)
		}
		return milvus, nil
	}

	return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalidConfig, cfg.Store.Backend)
}
