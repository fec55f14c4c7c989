package rag

import (
	"strings"
	"time"
	"unicode"
)

// MaxExcerptRunes bounds the body text kept alongside a vector
const MaxExcerptRunes = 8000

// Document is a pull request or issue about to be embedded
type Document struct {
	Kind      Kind
	Number    int
	Title     string
	Body      string
	CreatedAt time.Time
}

// ID returns the record ID the document is stored under
func (d Document) ID() string {
	return RecordID(d.Kind, d.Number)
}

// EmbeddingText returns the text sent to the embedder
func (d Document) EmbeddingText() string {
	return BuildEmbeddingText(d.Title, d.Body)
}

// Record pairs the document with its vector
func (d Document) Record(vector []float32) EmbeddingRecord {
	return EmbeddingRecord{
		ID:          d.ID(),
		Kind:        d.Kind,
		Number:      d.Number,
		Title:       d.Title,
		BodyExcerpt: SanitizeExcerpt(d.Body),
		Vector:      vector,
		CreatedAt:   d.CreatedAt,
	}
}

// BuildEmbeddingText joins a title and body the way every caller embeds them
func BuildEmbeddingText(title, body string) string {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if body == "" {
		return title
	}
	return title + "\n\n" + body
}

// SanitizeExcerpt drops control characters other than newlines and tabs,
// trims the text and cuts it to MaxExcerptRunes
func SanitizeExcerpt(body string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r == '\r' || unicode.IsControl(r) || r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, body)
	cleaned = strings.TrimSpace(cleaned)

	runes := []rune(cleaned)
	if len(runes) > MaxExcerptRunes {
		return string(runes[:MaxExcerptRunes])
	}
	return cleaned
}
