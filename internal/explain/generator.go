package explain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrGenerationFailed = errors.New("explanation generation failed")
)

// Explanation is a generated account of why an item does or does not
// duplicate existing work.
type Explanation struct {
	// ItemID identifies the item this explanation describes (e.g. "pr:12")
	ItemID string `json:"item_id"`

	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`

	// Model is the LLM model used to generate this explanation
	Model string `json:"model"`
}

// Generator invokes an LLM on an already-assembled prompt.
type Generator struct {
	llm    LLM
	config LLMConfig
	now    func() time.Time
}

// NewGenerator creates an explanation generator with the given LLM implementation.
func NewGenerator(llm LLM, config LLMConfig) *Generator {
	return &Generator{
		llm:    llm,
		config: config,
		now:    time.Now,
	}
}

// Generate creates an explanation by invoking the LLM with prompt.
// It does not perform retrieval or prompt construction.
func (g *Generator) Generate(ctx context.Context, itemID string, prompt string) (*Explanation, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("%w: LLM is required", ErrGenerationFailed)
	}
	if itemID == "" {
		return nil, fmt.Errorf("%w: item ID is required", ErrGenerationFailed)
	}
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrGenerationFailed)
	}

	text, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: LLM invocation failed: %w", ErrGenerationFailed, err)
	}

	return &Explanation{
		ItemID:      itemID,
		Text:        text,
		GeneratedAt: g.now(),
		Model:       g.config.Model,
	}, nil
}
