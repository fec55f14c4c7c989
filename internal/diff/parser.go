// Package diff turns raw unified-diff text into structured, addressable hunks
// and derives the summaries the duplicate checker needs from them.
//
// Diffs are untrusted input. Nothing in this package returns an error or
// panics on malformed text: lines that cannot be placed are dropped.
package diff

import (
	"regexp"
	"strconv"
	"strings"
)

var hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// Parse converts unified-diff text into an ordered list of hunks.
// Multi-file diffs are flattened in input order; use ParseFiles to keep the
// file boundaries.
func Parse(text string) []Hunk {
	p := newParser()
	p.run(text)
	return p.hunks
}

// ParseFiles converts unified-diff text into per-file hunk lists.
// Files without hunks (binary changes, mode changes) are kept with an empty
// hunk list so callers can still report them.
func ParseFiles(text string) []FileDiff {
	p := newParser()
	p.run(text)

	files := p.files
	offset := 0
	for _, owner := range p.owners {
		if owner < 0 {
			// hunks seen before any file header get an anonymous file
			files = append([]FileDiff{{}}, files...)
			offset = 1
			break
		}
	}

	for i, h := range p.hunks {
		idx := 0
		if p.owners[i] >= 0 {
			idx = p.owners[i] + offset
		}
		files[idx].Hunks = append(files[idx].Hunks, h)
	}
	return files
}

// parser is a single-pass line scanner. Only a hunk header closes the open
// hunk; metadata lines are skipped without affecting it. A "---" or "+++"
// line is a changed line while the open hunk still expects lines on that
// side, and a file header otherwise.
type parser struct {
	hunks  []Hunk
	owners []int
	files  []FileDiff

	cur        int
	file       int
	sawOld     bool
	notAdded   int
	notRemoved int

	// set by "diff --git" until the next hunk header
	atFileHeader bool
}

func newParser() *parser {
	return &parser{cur: -1, file: -1}
}

func (p *parser) run(text string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		p.feed(strings.TrimSuffix(line, "\r"))
	}
}

func (p *parser) feed(line string) {
	switch {
	case strings.HasPrefix(line, "diff --git"):
		oldPath, newPath := parseGitHeader(line)
		p.startFile(FileDiff{OldPath: oldPath, NewPath: newPath})
		p.atFileHeader = true
		return
	case strings.HasPrefix(line, "---") && p.expecting(LineRemoved):
		// "-- comment" removed inside a hunk, not a header
		p.appendLine(LineRemoved, line[1:])
		return
	case strings.HasPrefix(line, "+++") && p.expecting(LineAdded):
		p.appendLine(LineAdded, line[1:])
		return
	case strings.HasPrefix(line, "---"):
		// A plain "diff -u" concatenation has no "diff --git" lines, so a
		// second "---" header starts the next file.
		if p.file < 0 || p.sawOld || p.fileHasHunks() {
			p.startFile(FileDiff{})
		}
		p.files[p.file].OldPath = headerPath(line[3:], "a/")
		p.sawOld = true
		return
	case strings.HasPrefix(line, "+++"):
		if p.file < 0 {
			p.startFile(FileDiff{})
		}
		p.files[p.file].NewPath = headerPath(line[3:], "b/")
		return
	case strings.HasPrefix(line, "index "):
		return
	}

	if m := hunkHeaderPattern.FindStringSubmatch(line); m != nil {
		p.openHunk(m)
		return
	}

	if p.cur < 0 || line == "" {
		return
	}

	switch line[0] {
	case '+':
		p.appendLine(LineAdded, line[1:])
	case '-':
		p.appendLine(LineRemoved, line[1:])
	case ' ':
		p.appendLine(LineContext, line[1:])
	}
}

// expecting reports whether the open hunk's header leaves room for another
// line of type t
func (p *parser) expecting(t LineType) bool {
	if p.cur < 0 || p.atFileHeader {
		return false
	}
	h := p.hunks[p.cur]
	if t == LineRemoved {
		return p.notAdded < h.OldLineCount
	}
	return p.notRemoved < h.NewLineCount
}

func (p *parser) startFile(f FileDiff) {
	p.files = append(p.files, f)
	p.file = len(p.files) - 1
	p.sawOld = false
}

func (p *parser) fileHasHunks() bool {
	for _, owner := range p.owners {
		if owner == p.file {
			return true
		}
	}
	return false
}

func (p *parser) openHunk(m []string) {
	p.hunks = append(p.hunks, Hunk{
		OldStart:     atoi(m[1], 0),
		OldLineCount: atoi(m[2], 1),
		NewStart:     atoi(m[3], 0),
		NewLineCount: atoi(m[4], 1),
		Lines:        []Line{},
	})
	p.owners = append(p.owners, p.file)
	p.cur = len(p.hunks) - 1
	p.atFileHeader = false
	p.notAdded = 0
	p.notRemoved = 0
}

// appendLine numbers the line from the count of prior lines on its own side
// of the hunk, not from a running counter.
func (p *parser) appendLine(t LineType, content string) {
	h := &p.hunks[p.cur]

	number := h.NewStart + p.notRemoved
	if t == LineRemoved {
		number = h.OldStart + p.notAdded
	}

	h.Lines = append(h.Lines, Line{Type: t, Content: content, LineNumber: number})

	if t != LineRemoved {
		p.notRemoved++
	}
	if t != LineAdded {
		p.notAdded++
	}
}

func atoi(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// parseGitHeader extracts both paths from "diff --git a/<old> b/<new>"
func parseGitHeader(line string) (string, string) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "diff --git"))
	idx := strings.LastIndex(rest, " b/")
	if idx < 0 {
		return "", ""
	}
	return strings.TrimPrefix(rest[:idx], "a/"), rest[idx+3:]
}

// headerPath cleans the path of a "---" or "+++" header line
func headerPath(rest, prefix string) string {
	rest = strings.TrimSpace(rest)
	if tab := strings.IndexByte(rest, '\t'); tab >= 0 {
		rest = rest[:tab]
	}
	if rest == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(rest, prefix)
}
