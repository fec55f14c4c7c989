package rag

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestRecordID(t *testing.T) {
	if got := RecordID(KindPR, 42); got != "pr:42" {
		t.Errorf("RecordID() = %q, want pr:42", got)
	}
	if got := RecordID(KindIssue, 7); got != "issue:7" {
		t.Errorf("RecordID() = %q, want issue:7", got)
	}
}

func TestBuildEmbeddingText(t *testing.T) {
	tests := []struct {
		title, body string
		want        string
	}{
		{"Add rate limiting", "Adds a token bucket.", "Add rate limiting\n\nAdds a token bucket."},
		{"Add rate limiting", "", "Add rate limiting"},
		{"  padded  ", "  body  ", "padded\n\nbody"},
	}

	for _, tt := range tests {
		if got := BuildEmbeddingText(tt.title, tt.body); got != tt.want {
			t.Errorf("BuildEmbeddingText(%q, %q) = %q, want %q", tt.title, tt.body, got, tt.want)
		}
	}
}

func TestSanitizeExcerpt(t *testing.T) {
	got := SanitizeExcerpt("  line one\r\nline\x00 two\x07\tend  ")
	want := "line one\nline two\tend"
	if got != want {
		t.Errorf("SanitizeExcerpt() = %q, want %q", got, want)
	}
}

func TestSanitizeExcerpt_Truncates(t *testing.T) {
	body := strings.Repeat("é", MaxExcerptRunes+500)

	got := SanitizeExcerpt(body)
	if n := utf8.RuneCountInString(got); n != MaxExcerptRunes {
		t.Errorf("Expected %d runes, got %d", MaxExcerptRunes, n)
	}
	if !utf8.ValidString(got) {
		t.Error("Expected valid UTF-8 after truncation")
	}
}

func TestDocument_Record(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := Document{Kind: KindIssue, Number: 9, Title: "Crash on start", Body: "Stack trace\x00", CreatedAt: created}

	rec := doc.Record([]float32{1, 2, 3})

	if rec.ID != "issue:9" || rec.Kind != KindIssue || rec.Number != 9 {
		t.Errorf("Unexpected identity: %+v", rec)
	}
	if rec.BodyExcerpt != "Stack trace" {
		t.Errorf("Expected sanitized excerpt, got %q", rec.BodyExcerpt)
	}
	if !rec.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, created)
	}
	if len(rec.Vector) != 3 {
		t.Errorf("Expected vector to be kept, got %v", rec.Vector)
	}
	if doc.EmbeddingText() != "Crash on start\n\nStack trace\x00" {
		t.Errorf("Unexpected embedding text %q", doc.EmbeddingText())
	}
}
