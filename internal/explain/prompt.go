package explain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Yates-Labs/prdupe/internal/dedup"
	"github.com/Yates-Labs/prdupe/internal/rag"
)

var (
	ErrMissingItem  = errors.New("item with a title or body required")
	ErrNoCandidates = errors.New("verdict has no candidates to explain")
)

const (
	itemMarker       = "**Item:**"
	candidatesMarker = "**Candidates:**"

	maxBodyRunes   = 600
	maxChangeLines = 20
)

// systemPrompt fixes the model's role for every explanation request. The
// per-verdict data travels in the user message built by AssemblePrompt.
const systemPrompt = "You are a maintainer triaging contributions to a software repository. " +
	"You explain duplicate-detection verdicts to the author of a pull request or issue. " +
	"Refer to items as they are labeled (for example \"pr #12\" or \"issue #4\") and " +
	"never invent numbers, titles or statuses that are not listed. " +
	"Reply in plain prose without headings or lists."

// AssemblePrompt builds an explanation prompt from the item under review,
// its ranked candidates and an optional summary of its code changes.
func AssemblePrompt(item dedup.Item, verdict dedup.Verdict, changes []string) (string, error) {
	if strings.TrimSpace(item.Title) == "" && strings.TrimSpace(item.Body) == "" {
		return "", ErrMissingItem
	}
	if len(verdict.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	var b strings.Builder

	b.WriteString("Explain whether the change under review duplicates existing pull ")
	b.WriteString("requests or issues, based on the similarity results below.\n\n")

	b.WriteString("# Change Under Review\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n\n", itemMarker, ItemLabel(item.Kind, item.Number)))
	b.WriteString(fmt.Sprintf("**Title:** %s\n\n", orNone(item.Title)))
	b.WriteString(fmt.Sprintf("**Description:**\n%s\n\n", orNone(truncateRunes(strings.TrimSpace(item.Body), maxBodyRunes))))

	verdictText := "related work found"
	if verdict.IsDuplicate {
		verdictText = "likely duplicate"
	}
	b.WriteString(fmt.Sprintf("**Verdict:** %s (reporting threshold %.2f)\n\n", verdictText, verdict.Threshold))

	b.WriteString(candidatesMarker + "\n")
	for _, c := range verdict.Candidates {
		status := string(c.Status)
		if status == "" {
			status = "unknown"
		}
		b.WriteString(fmt.Sprintf("- %s [%s] (similarity %.2f): %s\n",
			ItemLabel(c.Kind, c.Number), status, c.Similarity, orNone(c.Title)))
	}
	b.WriteString("\n")

	if len(changes) > 0 {
		b.WriteString("**Code Changes:**\n")
		for i, change := range changes {
			if i == maxChangeLines {
				b.WriteString(fmt.Sprintf("- ... and %d more\n", len(changes)-maxChangeLines))
				break
			}
			b.WriteString(fmt.Sprintf("- %s\n", change))
		}
		b.WriteString("\n")
	}

	b.WriteString("# Task\n\n")
	b.WriteString("Write one short paragraph that:\n")
	b.WriteString("1. Names the candidate most likely to cover the same work, if any\n")
	b.WriteString("2. Explains what overlaps and what differs\n")
	b.WriteString("3. Recommends closing, linking or keeping the change\n\n")
	b.WriteString("Base every statement on the data above. Similarity scores are heuristic; ")
	b.WriteString("do not claim two changes are equivalent unless their descriptions say so.\n")

	return b.String(), nil
}

// ItemLabel renders "pr #12", "issue #4" or "local change" for unnumbered items
func ItemLabel(kind rag.Kind, number int) string {
	if number <= 0 {
		return "local change"
	}
	return fmt.Sprintf("%s #%d", kind, number)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
