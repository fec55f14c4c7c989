package dedup

import (
	"fmt"
)

// Config holds configuration for the deduplication engine
type Config struct {
	// Threshold is the minimum combined similarity for a candidate to be reported
	// Default: 0.85
	Threshold float64 `yaml:"threshold"`

	// VectorThresholdFactor lowers Threshold for the vector query, trading
	// precision for recall since results are filtered again after merging
	// Default: 0.7
	VectorThresholdFactor float64 `yaml:"vector_threshold_factor"`

	// VectorCandidateLimit caps how many records the vector query returns
	// Default: 20
	VectorCandidateLimit int `yaml:"vector_candidate_limit"`

	// DuplicateThreshold is the top score needed to flag an outright duplicate.
	// It is independent of Threshold: weaker matches are reported as similar.
	// Default: 0.9
	DuplicateThreshold float64 `yaml:"duplicate_threshold"`

	// MaxCandidates caps the verdict
	// Default: 10
	MaxCandidates int `yaml:"max_candidates"`

	// VectorWeight and LexicalWeight blend the two scores when both sources
	// report the same candidate
	// Default: 0.7 / 0.3
	VectorWeight  float64 `yaml:"vector_weight"`
	LexicalWeight float64 `yaml:"lexical_weight"`

	// MaxKeywords bounds the lexical search query
	// Default: 6
	MaxKeywords int `yaml:"max_keywords"`

	// RepositoryURL is used to build links for candidates only the vector
	// cache knows about, e.g. https://github.com/owner/repo
	RepositoryURL string `yaml:"repository_url"`
}

// DefaultConfig returns the default deduplication configuration
func DefaultConfig() Config {
	return Config{
		Threshold:             0.85,
		VectorThresholdFactor: 0.7,
		VectorCandidateLimit:  20,
		DuplicateThreshold:    0.9,
		MaxCandidates:         10,
		VectorWeight:          0.7,
		LexicalWeight:         0.3,
		MaxKeywords:           6,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.Threshold <= 0.0 || c.Threshold > 1.0 {
		return fmt.Errorf("threshold must be in (0.0, 1.0] (got %.2f)", c.Threshold)
	}
	if c.VectorThresholdFactor <= 0.0 || c.VectorThresholdFactor > 1.0 {
		return fmt.Errorf("vector_threshold_factor must be in (0.0, 1.0] (got %.2f)", c.VectorThresholdFactor)
	}
	if c.VectorCandidateLimit <= 0 {
		return fmt.Errorf("vector_candidate_limit must be positive (got %d)", c.VectorCandidateLimit)
	}
	if c.DuplicateThreshold < 0.0 || c.DuplicateThreshold > 1.0 {
		return fmt.Errorf("duplicate_threshold must be between 0.0 and 1.0 (got %.2f)", c.DuplicateThreshold)
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("max_candidates must be positive (got %d)", c.MaxCandidates)
	}
	if c.VectorWeight < 0 || c.LexicalWeight < 0 {
		return fmt.Errorf("weights cannot be negative (got %.2f, %.2f)", c.VectorWeight, c.LexicalWeight)
	}
	if c.VectorWeight+c.LexicalWeight == 0 {
		return fmt.Errorf("vector_weight and lexical_weight cannot both be zero")
	}
	if c.MaxKeywords <= 0 {
		return fmt.Errorf("max_keywords must be positive (got %d)", c.MaxKeywords)
	}
	return nil
}
