package explain

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Yates-Labs/prdupe/internal/dedup"
	"github.com/Yates-Labs/prdupe/internal/rag"
)

func sampleItem() dedup.Item {
	return dedup.Item{
		Kind:   rag.KindPR,
		Number: 12,
		Title:  "Add retry to webhook delivery",
		Body:   "Retries failed webhook deliveries with backoff.",
	}
}

func sampleVerdict() dedup.Verdict {
	return dedup.Verdict{
		Threshold:   0.85,
		IsDuplicate: true,
		Candidates: []dedup.Candidate{
			{Kind: rag.KindPR, Number: 5, Title: "Retry webhook deliveries", Similarity: 0.93, Status: dedup.StatusMerged},
			{Kind: rag.KindIssue, Number: 3, Title: "Webhooks are dropped", Similarity: 0.87},
		},
	}
}

func TestGenerator_Generate_Success(t *testing.T) {
	mockLLM := NewMockLLM("PR #5 already covers this work.")
	config := DefaultLLMConfig()
	config.Model = "test-model"

	gen := NewGenerator(mockLLM, config)
	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	gen.now = func() time.Time { return fixed }

	prompt, err := AssemblePrompt(sampleItem(), sampleVerdict(), nil)
	if err != nil {
		t.Fatalf("unexpected prompt assembly error: %v", err)
	}

	explanation, err := gen.Generate(context.Background(), "pr:12", prompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if explanation.ItemID != "pr:12" {
		t.Errorf("expected item ID pr:12, got %s", explanation.ItemID)
	}
	if explanation.Text != "PR #5 already covers this work." {
		t.Errorf("unexpected explanation text: %s", explanation.Text)
	}
	if explanation.Model != "test-model" {
		t.Errorf("expected model test-model, got %s", explanation.Model)
	}
	if !explanation.GeneratedAt.Equal(fixed) {
		t.Errorf("expected generated at %v, got %v", fixed, explanation.GeneratedAt)
	}
	if !strings.Contains(mockLLM.LastPrompt, "pr #12") {
		t.Error("prompt does not name the item")
	}
}

func TestGenerator_Generate_MissingInputs(t *testing.T) {
	tests := []struct {
		name   string
		llm    LLM
		itemID string
		prompt string
	}{
		{"nil LLM", nil, "pr:1", "p"},
		{"empty item ID", NewMockLLM("x"), "", "p"},
		{"empty prompt", NewMockLLM("x"), "pr:1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewGenerator(tt.llm, DefaultLLMConfig())
			_, err := gen.Generate(context.Background(), tt.itemID, tt.prompt)
			if !errors.Is(err, ErrGenerationFailed) {
				t.Errorf("expected ErrGenerationFailed, got %v", err)
			}
		})
	}
}

func TestGenerator_Generate_LLMError(t *testing.T) {
	llmErr := errors.New("API rate limit exceeded")
	gen := NewGenerator(NewMockLLMWithError(llmErr), DefaultLLMConfig())

	_, err := gen.Generate(context.Background(), "pr:1", "some prompt")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
	if !errors.Is(err, llmErr) {
		t.Errorf("expected the LLM error to stay reachable, got %v", err)
	}
}

func TestGenerator_Generate_DeterministicMock(t *testing.T) {
	mockLLM := &MockLLM{}
	gen := NewGenerator(mockLLM, DefaultLLMConfig())

	prompt, err := AssemblePrompt(sampleItem(), sampleVerdict(), []string{"Added to retry: backoff()"})
	if err != nil {
		t.Fatalf("unexpected prompt assembly error: %v", err)
	}

	explanation, err := gen.Generate(context.Background(), "pr:12", prompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(explanation.Text, "pr #12") {
		t.Errorf("expected explanation to mention pr #12, got: %s", explanation.Text)
	}
	if !strings.Contains(explanation.Text, "2 existing items") {
		t.Errorf("expected explanation to count 2 candidates, got: %s", explanation.Text)
	}
}

func TestMockLLM_Generate(t *testing.T) {
	tests := []struct {
		name     string
		mock     *MockLLM
		prompt   string
		wantErr  bool
		wantText string
	}{
		{
			name:     "fixed response",
			mock:     NewMockLLM("Fixed explanation"),
			prompt:   "Any prompt",
			wantText: "Fixed explanation",
		},
		{
			name:    "error response",
			mock:    NewMockLLMWithError(errors.New("mock error")),
			prompt:  "Any prompt",
			wantErr: true,
		},
		{
			name:     "auto-generated response",
			mock:     &MockLLM{},
			prompt:   "**Item:** issue #4\n\n**Candidates:**\n- pr #1\n- pr #2\n- pr #3\n\n- not a candidate",
			wantText: "issue #4 was compared against 3 existing items",
		},
		{
			name:     "no markers",
			mock:     &MockLLM{},
			prompt:   "plain",
			wantText: "unknown was compared against 0 existing items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := tt.mock.Generate(context.Background(), tt.prompt)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !strings.Contains(text, tt.wantText) {
				t.Errorf("expected text to contain %q, got %q", tt.wantText, text)
			}
			if tt.mock.LastPrompt != tt.prompt {
				t.Errorf("expected LastPrompt to be %q, got %q", tt.prompt, tt.mock.LastPrompt)
			}
		})
	}
}

func TestNewLLM(t *testing.T) {
	llm, err := NewLLM(LLMConfig{Provider: ProviderMock})
	if err != nil {
		t.Fatalf("unexpected error for mock provider: %v", err)
	}
	if _, ok := llm.(*MockLLM); !ok {
		t.Errorf("expected *MockLLM, got %T", llm)
	}

	if _, err := NewLLM(LLMConfig{Provider: "llama"}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for unknown provider, got %v", err)
	}

	_, err = NewLLM(LLMConfig{Provider: ProviderAnthropic, APIKey: "k"})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for missing model, got %v", err)
	}

	llm, err = NewLLM(LLMConfig{Provider: "Anthropic", APIKey: "k", Model: "claude-sonnet-4-5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := llm.(*AnthropicLLM); !ok {
		t.Errorf("expected *AnthropicLLM, got %T", llm)
	}
}

func TestOpenAILLM_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("OPENAI_API_KEY") == "" {
		t.Skip("OPENAI_API_KEY not set")
	}

	llm, err := NewOpenAILLM(DefaultLLMConfig())
	if err != nil {
		t.Fatalf("failed to create LLM: %v", err)
	}

	text, err := llm.Generate(context.Background(), "Reply with the single word: ok")
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if text == "" {
		t.Error("expected non-empty response")
	}
}

func TestAnthropicLLM_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		t.Skip("ANTHROPIC_API_KEY not set")
	}

	llm, err := NewAnthropicLLM(LLMConfig{Model: "claude-sonnet-4-5", MaxTokens: 64})
	if err != nil {
		t.Fatalf("failed to create LLM: %v", err)
	}

	text, err := llm.Generate(context.Background(), "Reply with the single word: ok")
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if text == "" {
		t.Error("expected non-empty response")
	}
}
