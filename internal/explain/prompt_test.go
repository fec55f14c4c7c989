package explain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Yates-Labs/prdupe/internal/dedup"
	"github.com/Yates-Labs/prdupe/internal/rag"
)

func TestAssemblePrompt_MissingItem(t *testing.T) {
	_, err := AssemblePrompt(dedup.Item{Kind: rag.KindPR, Number: 1}, sampleVerdict(), nil)
	if !errors.Is(err, ErrMissingItem) {
		t.Fatalf("expected ErrMissingItem, got %v", err)
	}
}

func TestAssemblePrompt_NoCandidates(t *testing.T) {
	_, err := AssemblePrompt(sampleItem(), dedup.Verdict{Threshold: 0.85}, nil)
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}

func TestAssemblePrompt_Smoke(t *testing.T) {
	prompt, err := AssemblePrompt(sampleItem(), sampleVerdict(), []string{"Added to deliver: retry()"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := []string{
		"**Item:** pr #12",
		"**Title:** Add retry to webhook delivery",
		"Retries failed webhook deliveries with backoff.",
		"**Verdict:** likely duplicate (reporting threshold 0.85)",
		"- pr #5 [merged] (similarity 0.93): Retry webhook deliveries",
		"- issue #3 [unknown] (similarity 0.87): Webhooks are dropped",
		"**Code Changes:**\n- Added to deliver: retry()",
		"# Task",
	}
	for _, want := range checks {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\n%s", want, prompt)
		}
	}

	// Candidates keep verdict order
	if strings.Index(prompt, "pr #5") > strings.Index(prompt, "issue #3") {
		t.Error("candidates reordered")
	}
}

func TestAssemblePrompt_NoChanges(t *testing.T) {
	verdict := sampleVerdict()
	verdict.IsDuplicate = false

	item := sampleItem()
	item.Number = 0
	item.Body = ""

	prompt, err := AssemblePrompt(item, verdict, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(prompt, "**Code Changes:**") {
		t.Error("prompt should not include changes section when none provided")
	}
	if !strings.Contains(prompt, "**Item:** local change") {
		t.Error("expected unnumbered item to be labeled as a local change")
	}
	if !strings.Contains(prompt, "**Description:**\n(none)") {
		t.Error("expected empty body placeholder")
	}
	if !strings.Contains(prompt, "related work found") {
		t.Error("expected non-duplicate verdict wording")
	}
}

func TestAssemblePrompt_TruncatesChanges(t *testing.T) {
	changes := make([]string, maxChangeLines+5)
	for i := range changes {
		changes[i] = fmt.Sprintf("change %d", i)
	}

	prompt, err := AssemblePrompt(sampleItem(), sampleVerdict(), changes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(prompt, "- ... and 5 more") {
		t.Error("expected truncation marker")
	}
	if strings.Contains(prompt, fmt.Sprintf("change %d\n", maxChangeLines)) {
		t.Error("expected changes past the limit to be dropped")
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"héllo wörld", 5, "héllo..."},
	}

	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestItemLabel(t *testing.T) {
	if got := ItemLabel(rag.KindIssue, 4); got != "issue #4" {
		t.Errorf("ItemLabel = %q, want issue #4", got)
	}
	if got := ItemLabel(rag.KindPR, 0); got != "local change" {
		t.Errorf("ItemLabel = %q, want local change", got)
	}
}
