package dedup

import (
	"context"
	"time"

	"github.com/Yates-Labs/prdupe/internal/rag"
)

// Status is the lifecycle state of a candidate
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
	StatusMerged Status = "merged"
	StatusDraft  Status = "draft"

	// StatusUnknown marks candidates only the vector cache knows about
	StatusUnknown Status = ""
)

// Item is the pull request or issue being checked
type Item struct {
	Kind      rag.Kind  `json:"kind"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Candidate is an existing pull request or issue resembling the item
type Candidate struct {
	Kind       rag.Kind `json:"kind"`
	Number     int      `json:"number"`
	Title      string   `json:"title"`
	Similarity float64  `json:"similarity"`
	Status     Status   `json:"status,omitempty"`
	URL        string   `json:"url,omitempty"`
}

// Verdict is the outcome of one duplicate check
type Verdict struct {
	Candidates  []Candidate `json:"candidates"`
	IsDuplicate bool        `json:"isDuplicate"`
	Threshold   float64     `json:"threshold"`
}

// Top returns the best candidate, if any
func (v Verdict) Top() (Candidate, bool) {
	if len(v.Candidates) == 0 {
		return Candidate{}, false
	}
	return v.Candidates[0], true
}

// LexicalQuery is what the engine hands to a LexicalSearcher
type LexicalQuery struct {
	// Keywords is a space-separated keyword string for full-text search
	Keywords string
	Title    string
	Body     string
}

// LexicalSearcher finds candidates by text. Implementations report their own
// similarity score per candidate.
type LexicalSearcher interface {
	Search(ctx context.Context, q LexicalQuery) ([]Candidate, error)
}
