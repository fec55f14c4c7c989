package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Yates-Labs/prdupe/internal/adapter"
	"github.com/Yates-Labs/prdupe/internal/dedup"
	"github.com/Yates-Labs/prdupe/internal/diff"
	"github.com/Yates-Labs/prdupe/internal/explain"
	githubmodel "github.com/Yates-Labs/prdupe/internal/github"
	"github.com/Yates-Labs/prdupe/internal/rag"
)

var (
	ErrNoSource   = errors.New("no repository source configured")
	ErrNoEmbedder = errors.New("indexing requires an embedder and a vector store")
)

const defaultIndexLimit = 200

// Report is the outcome of checking one pull request, issue or local change
type Report struct {
	Item    dedup.Item    `json:"item"`
	Verdict dedup.Verdict `json:"verdict"`
	Diff    DiffSummary   `json:"diff"`

	// References are issue/PR numbers the item body links to
	References []int `json:"references"`

	// Explanation is nil when explanations are disabled or failed
	Explanation *explain.Explanation `json:"explanation,omitempty"`
}

// DiffSummary is what the diff parser derives from a change
type DiffSummary struct {
	Stats    diff.Stats `json:"stats"`
	Files    []string   `json:"files"`
	Language string     `json:"language,omitempty"`
	Changes  []string   `json:"changes"`
}

// Pipeline wires a repository source, the deduplication engine and the
// optional explanation generator into the check, index and cleanup flows.
type Pipeline struct {
	source    adapter.Source
	embedder  rag.Embedder
	store     rag.VectorStore
	engine    *dedup.Engine
	generator *explain.Generator

	indexOptions rag.IndexOptions
	indexLimit   int
	logger       *slog.Logger
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithLogger sets the pipeline and engine logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithGenerator enables LLM explanations of non-empty verdicts
func WithGenerator(g *explain.Generator) Option {
	return func(p *Pipeline) {
		p.generator = g
	}
}

// WithIndexOptions overrides batching for Index
func WithIndexOptions(opts rag.IndexOptions) Option {
	return func(p *Pipeline) {
		p.indexOptions = opts
	}
}

// WithIndexLimit bounds how many recent PRs and issues Index fetches
func WithIndexLimit(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.indexLimit = n
		}
	}
}

// NewPipeline creates a pipeline. source may be nil for local diffs with
// no repository; embedder and store may be nil for lexical-only checks.
func NewPipeline(source adapter.Source, embedder rag.Embedder, store rag.VectorStore, cfg dedup.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		source:       source,
		embedder:     embedder,
		store:        store,
		indexOptions: rag.DefaultIndexOptions(),
		indexLimit:   defaultIndexLimit,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	var searcher dedup.LexicalSearcher
	if source != nil {
		searcher = source
		if cfg.RepositoryURL == "" {
			cfg.RepositoryURL = source.RepositoryURL()
		}
	}

	engine, err := dedup.NewEngine(embedder, store, searcher, cfg, dedup.WithLogger(p.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	p.engine = engine

	return p, nil
}

// Close releases the vector store
func (p *Pipeline) Close() error {
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}

// Check fetches a pull request or issue and reports likely duplicates.
// For pull requests the diff is fetched too; a failed diff fetch is logged
// and the check continues on title and body.
func (p *Pipeline) Check(ctx context.Context, ref adapter.ItemRef) (*Report, error) {
	if p.source == nil {
		return nil, ErrNoSource
	}

	item, err := p.source.FetchItem(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s #%d: %w", ref.Kind, ref.Number, err)
	}

	var rawDiff string
	if ref.Kind == rag.KindPR {
		rawDiff, err = p.source.FetchDiff(ctx, ref.Number)
		if err != nil {
			p.logger.Warn("failed to fetch diff, continuing without it",
				"number", ref.Number, "rate_limited", githubmodel.IsRateLimited(err), "error", err)
			rawDiff = ""
		}
	}

	return p.CheckChange(ctx, item, rawDiff), nil
}

// CheckChange reports likely duplicates of item, summarizing rawDiff when
// one is given. It never fails; degraded signals are logged.
func (p *Pipeline) CheckChange(ctx context.Context, item dedup.Item, rawDiff string) *Report {
	report := &Report{
		Item:       item,
		Verdict:    p.engine.FindDuplicates(ctx, item),
		Diff:       AnalyzeDiff(rawDiff),
		References: githubmodel.ParseBodyReferences(item.Body),
	}

	if p.generator != nil && len(report.Verdict.Candidates) > 0 {
		report.Explanation = p.explain(ctx, report)
	}

	return report
}

func (p *Pipeline) explain(ctx context.Context, report *Report) *explain.Explanation {
	prompt, err := explain.AssemblePrompt(report.Item, report.Verdict, report.Diff.Changes)
	if err != nil {
		p.logger.Warn("skipping explanation", "error", err)
		return nil
	}

	itemID := rag.RecordID(report.Item.Kind, report.Item.Number)
	if report.Item.Number <= 0 {
		itemID = "local"
	}

	explanation, err := p.generator.Generate(ctx, itemID, prompt)
	if err != nil {
		p.logger.Warn("explanation failed", "item", itemID, "error", err)
		return nil
	}
	return explanation
}

// Index embeds recent pull requests and issues that are not cached yet
func (p *Pipeline) Index(ctx context.Context) (int, error) {
	if p.source == nil {
		return 0, ErrNoSource
	}
	if p.embedder == nil || p.store == nil {
		return 0, ErrNoEmbedder
	}

	docs, err := p.source.FetchDocuments(ctx, p.indexLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to list repository items: %w", err)
	}
	p.logger.Info("indexing repository items", "fetched", len(docs), "limit", p.indexLimit)

	indexed, err := rag.IndexItems(ctx, docs, p.embedder, p.store, p.indexOptions)
	if err != nil {
		return indexed, fmt.Errorf("failed to index items: %w", err)
	}

	p.logger.Info("indexing complete", "indexed", indexed, "skipped", len(docs)-indexed)
	return indexed, nil
}

// Cleanup evicts cached embeddings older than the given number of days
func (p *Pipeline) Cleanup(ctx context.Context, olderThanDays int) int {
	return p.engine.Cleanup(ctx, olderThanDays)
}

// AnalyzeDiff summarizes unified diff text. Function changes use the
// language of the changed files when they all share one.
func AnalyzeDiff(rawDiff string) DiffSummary {
	summary := DiffSummary{
		Stats:   diff.DiffStats(rawDiff),
		Files:   []string{},
		Changes: []string{},
	}
	if rawDiff == "" {
		return summary
	}

	files := diff.ParseFiles(rawDiff)
	for _, f := range files {
		if path := f.Path(); path != "" {
			summary.Files = append(summary.Files, path)
		}
	}

	summary.Language = commonLanguage(summary.Files)
	summary.Changes = diff.ExtractFunctionChanges(rawDiff, summary.Language)
	return summary
}

// commonLanguage returns the language every path maps to, or ""
func commonLanguage(paths []string) string {
	language := ""
	for i, path := range paths {
		l := diff.LanguageFromPath(path)
		if l == "" {
			return ""
		}
		if i == 0 {
			language = l
		} else if l != language {
			return ""
		}
	}
	return language
}
