package explain

import (
	"context"
	"fmt"
	"strings"
)

// MockLLM is a deterministic LLM implementation for testing.
// It returns predictable responses based on prompt content.
type MockLLM struct {
	// Response is the fixed text returned by Generate.
	// If empty, a default response is generated from the prompt.
	Response string

	// Error, if set, is returned by Generate instead of a response.
	Error error

	// LastPrompt stores the most recent prompt passed to Generate.
	LastPrompt string
}

// NewMockLLM creates a mock LLM with the given fixed response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock LLM that always returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

// Generate returns the configured response or generates a deterministic one.
func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.LastPrompt = prompt

	if m.Error != nil {
		return "", m.Error
	}
	if m.Response != "" {
		return m.Response, nil
	}

	return generateMockResponse(prompt), nil
}

// generateMockResponse names the item and counts the listed candidates.
func generateMockResponse(prompt string) string {
	item := "unknown"
	if _, rest, ok := strings.Cut(prompt, itemMarker); ok {
		line, _, _ := strings.Cut(rest, "\n")
		item = strings.TrimSpace(line)
	}

	return fmt.Sprintf("%s was compared against %d existing items. "+
		"The closest matches share wording in their titles and descriptions. ",
		item, countCandidateBullets(prompt))
}

func countCandidateBullets(prompt string) int {
	_, remainder, ok := strings.Cut(prompt, candidatesMarker)
	if !ok {
		return 0
	}
	// Take content until the next blank line.
	remainder, _, _ = strings.Cut(strings.TrimLeft(remainder, "\n"), "\n\n")

	count := 0
	for _, line := range strings.Split(remainder, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "- ") {
			count++
		}
	}
	return count
}
