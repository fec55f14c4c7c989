package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Yates-Labs/prdupe/internal/rag"
	"github.com/Yates-Labs/prdupe/internal/textsim"
)

// Engine fuses embedding and lexical similarity into duplicate verdicts.
// It is safe for concurrent use if its collaborators are.
type Engine struct {
	embedder rag.Embedder
	store    rag.VectorStore
	searcher LexicalSearcher
	config   Config

	logger *slog.Logger
	now    func() time.Time
}

// Option customizes an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source used for records without a creation time
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine. embedder and store may be nil for a
// lexical-only engine; searcher may be nil for a vector-only one.
func NewEngine(embedder rag.Embedder, store rag.VectorStore, searcher LexicalSearcher, config Config, opts ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		embedder: embedder,
		store:    store,
		searcher: searcher,
		config:   config,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.config
}

// FindDuplicates ranks existing pull requests and issues by similarity to
// item. Failures of either signal are logged and the other signal is used
// alone; when both fail the verdict is empty.
func (e *Engine) FindDuplicates(ctx context.Context, item Item) Verdict {
	log := e.logger.With(
		"run_id", uuid.NewString(),
		"kind", string(item.Kind),
		"number", item.Number,
	)

	var (
		vector     []float32
		lexicalErr error
		lexical    []Candidate
	)

	// Neither stage returns an error to the group, so one failing never
	// cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		v, err := e.embed(ctx, item)
		if errors.Is(err, errNoEmbedder) {
			return nil
		}
		if err != nil {
			log.Warn("embedding failed, continuing with lexical search only", "error", err)
			return nil
		}
		vector = v
		return nil
	})
	g.Go(func() error {
		lexical, lexicalErr = e.searchLexical(ctx, item)
		if lexicalErr != nil {
			log.Warn("lexical search failed", "error", lexicalErr)
		}
		return nil
	})
	_ = g.Wait()

	var vectorHits []rag.Match
	if vector != nil {
		e.remember(ctx, log, item, vector)
		vectorHits = e.searchVector(ctx, log, vector)
	}

	candidates := mergeCandidates(item, vectorHits, lexical, e.config)
	verdict := Verdict{
		Candidates: candidates,
		Threshold:  e.config.Threshold,
	}
	if top, ok := verdict.Top(); ok && top.Similarity >= e.config.DuplicateThreshold {
		verdict.IsDuplicate = true
	}

	log.Info("duplicate check complete",
		"vector_hits", len(vectorHits),
		"lexical_hits", len(lexical),
		"candidates", len(candidates),
		"is_duplicate", verdict.IsDuplicate)

	return verdict
}

// Cleanup evicts cached embeddings older than the given number of days
func (e *Engine) Cleanup(ctx context.Context, olderThanDays int) int {
	if e.store == nil {
		return 0
	}

	removed, err := e.store.EvictOlderThan(ctx, olderThanDays)
	if err != nil {
		e.logger.Error("cleanup failed", "older_than_days", olderThanDays, "error", err)
		return 0
	}

	e.logger.Info("cleanup complete", "older_than_days", olderThanDays, "removed", removed)
	return removed
}

var errNoEmbedder = errors.New("no embedder configured")

func (e *Engine) embed(ctx context.Context, item Item) ([]float32, error) {
	if e.embedder == nil || e.store == nil {
		return nil, errNoEmbedder
	}

	text := rag.BuildEmbeddingText(item.Title, item.Body)
	if text == "" {
		return nil, rag.ErrEmptyTexts
	}

	embeddings, err := e.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 || len(embeddings[0].Vector) == 0 {
		return nil, fmt.Errorf("%w: empty vector", rag.ErrEmbeddingFailed)
	}
	return embeddings[0].Vector, nil
}

// remember caches the item's embedding so later checks can find it. Items
// without a number (a local diff) are not cached.
func (e *Engine) remember(ctx context.Context, log *slog.Logger, item Item, vector []float32) {
	if item.Number <= 0 {
		return
	}

	created := item.CreatedAt
	if created.IsZero() {
		created = e.now()
	}

	doc := rag.Document{
		Kind:      item.Kind,
		Number:    item.Number,
		Title:     item.Title,
		Body:      item.Body,
		CreatedAt: created,
	}
	if err := e.store.Upsert(ctx, doc.Record(vector)); err != nil {
		log.Warn("failed to cache embedding", "error", err)
	}
}

func (e *Engine) searchVector(ctx context.Context, log *slog.Logger, vector []float32) []rag.Match {
	threshold := e.config.Threshold * e.config.VectorThresholdFactor

	matches, err := e.store.QuerySimilar(ctx, vector, threshold, e.config.VectorCandidateLimit)
	if err != nil {
		if errors.Is(err, rag.ErrDimensionMismatch) {
			log.Error("embedding cache holds vectors of a different dimension; run cleanup or reindex", "error", err)
		} else {
			log.Warn("vector search failed", "error", err)
		}
		return nil
	}
	return matches
}

func (e *Engine) searchLexical(ctx context.Context, item Item) ([]Candidate, error) {
	if e.searcher == nil {
		return nil, nil
	}

	keywords := textsim.Keywords(item.Title+" "+item.Body, e.config.MaxKeywords)
	if len(keywords) == 0 {
		return nil, nil
	}

	return e.searcher.Search(ctx, LexicalQuery{
		Keywords: strings.Join(keywords, " "),
		Title:    item.Title,
		Body:     item.Body,
	})
}
