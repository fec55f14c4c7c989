// Package config loads prdupe settings from an optional YAML file and the
// environment. Environment variables win over the file; the file wins over
// defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Yates-Labs/prdupe/internal/dedup"
	"github.com/Yates-Labs/prdupe/internal/explain"
	"github.com/Yates-Labs/prdupe/internal/rag"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// DefaultFile is read when Load is called without a path and it exists
const DefaultFile = ".prdupe.yaml"

// Store backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMilvus = "milvus"
	BackendMemory = "memory"
)

// Config is the complete prdupe configuration
type Config struct {
	GitHub    GitHubConfig     `yaml:"github"`
	Embedding EmbeddingConfig  `yaml:"embedding"`
	Store     StoreConfig      `yaml:"store"`
	Milvus    rag.MilvusConfig `yaml:"milvus"`
	Dedup     dedup.Config     `yaml:"dedup"`
	Explain   ExplainConfig    `yaml:"explain"`
}

// GitHubConfig selects the repository and bounds API usage
type GitHubConfig struct {
	// Repository is "owner/repo" or a GitHub URL
	Repository string `yaml:"repository"`

	// SearchResults bounds results per search query
	SearchResults int `yaml:"search_results"`

	// IndexLimit bounds how many recent PRs and issues index fetches
	IndexLimit int `yaml:"index_limit"`

	Token string `yaml:"-"`
}

// EmbeddingConfig configures the OpenAI embedder
type EmbeddingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`

	// Client-side request rate; zero disables limiting
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`

	// BatchSize is the number of texts per embedding request when indexing
	BatchSize int `yaml:"batch_size"`

	APIKey string `yaml:"-"`
}

// StoreConfig selects where embeddings are cached
type StoreConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	MaxRecords int    `yaml:"max_records"`

	// RetentionDays is the default age for cleanup
	RetentionDays int `yaml:"retention_days"`
}

// ExplainConfig enables LLM explanations of verdicts
type ExplainConfig struct {
	Enabled bool              `yaml:"enabled"`
	LLM     explain.LLMConfig `yaml:",inline"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		GitHub: GitHubConfig{
			SearchResults: 20,
			IndexLimit:    200,
		},
		Embedding: EmbeddingConfig{
			Enabled:           true,
			Model:             "text-embedding-3-small",
			Dimension:         1536,
			RequestsPerSecond: 5,
			Burst:             1,
			BatchSize:         rag.DefaultIndexOptions().BatchSize,
		},
		Store: StoreConfig{
			Backend:       BackendFile,
			Path:          ".prdupe/embeddings.json",
			MaxRecords:    rag.DefaultMaxRecords,
			RetentionDays: 90,
		},
		Milvus:  rag.DefaultMilvusConfig(),
		Dedup:   dedup.DefaultConfig(),
		Explain: ExplainConfig{LLM: explain.DefaultLLMConfig()},
	}
}

// Load builds a configuration from defaults, the YAML file at path and the
// environment. An empty path reads DefaultFile if present.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no config file; defaults and environment only
	default:
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides cfg with environment variables
func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}
	if v := getenv("PRDUPE_REPOSITORY"); v != "" {
		cfg.GitHub.Repository = v
	}

	if v := getenv("OPENAI_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := getenv("PRDUPE_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}

	if v := getenv("PRDUPE_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := getenv("PRDUPE_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}

	if v := getenv("MILVUS_ADDRESS"); v != "" {
		cfg.Milvus.Address = v
	}
	if v := getenv("MILVUS_COLLECTION"); v != "" {
		cfg.Milvus.CollectionName = v
	}

	if v := getenv("PRDUPE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: PRDUPE_THRESHOLD: %v", ErrInvalidConfig, err)
		}
		cfg.Dedup.Threshold = f
	}
	if v := getenv("PRDUPE_DUPLICATE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: PRDUPE_DUPLICATE_THRESHOLD: %v", ErrInvalidConfig, err)
		}
		cfg.Dedup.DuplicateThreshold = f
	}

	if v := getenv("PRDUPE_EXPLAIN_PROVIDER"); v != "" {
		cfg.Explain.LLM.Provider = explain.Provider(v)
	}
	if v := getenv("PRDUPE_EXPLAIN_MODEL"); v != "" {
		cfg.Explain.LLM.Model = v
	}

	// The explanation key follows the selected provider
	switch explain.Provider(strings.ToLower(string(cfg.Explain.LLM.Provider))) {
	case explain.ProviderAnthropic:
		cfg.Explain.LLM.APIKey = getenv("ANTHROPIC_API_KEY")
	case explain.ProviderOpenAI, "":
		cfg.Explain.LLM.APIKey = cfg.Embedding.APIKey
	}

	cfg.Milvus.Dimension = cfg.Embedding.Dimension
	cfg.Milvus.MaxRecords = cfg.Store.MaxRecords
	return nil
}

// Validate checks the configuration for values no component can use
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("%w: store.path is required for the %s backend", ErrInvalidConfig, c.Store.Backend)
		}
	case BackendMilvus:
		if c.Milvus.Address == "" || c.Milvus.CollectionName == "" {
			return fmt.Errorf("%w: milvus.address and milvus.collection are required", ErrInvalidConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	if c.Store.MaxRecords <= 0 {
		return fmt.Errorf("%w: store.max_records must be positive", ErrInvalidConfig)
	}
	if c.Store.RetentionDays < 0 {
		return fmt.Errorf("%w: store.retention_days must not be negative", ErrInvalidConfig)
	}

	if c.Embedding.Enabled {
		if c.Embedding.Model == "" || c.Embedding.Dimension <= 0 {
			return fmt.Errorf("%w: embedding.model and a positive embedding.dimension are required", ErrInvalidConfig)
		}
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: embedding.requests_per_second must not be negative", ErrInvalidConfig)
	}

	if c.GitHub.SearchResults <= 0 || c.GitHub.IndexLimit <= 0 {
		return fmt.Errorf("%w: github.search_results and github.index_limit must be positive", ErrInvalidConfig)
	}

	if err := c.Dedup.Validate(); err != nil {
		return fmt.Errorf("%w: dedup: %v", ErrInvalidConfig, err)
	}
	return nil
}
