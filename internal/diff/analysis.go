package diff

import (
	"fmt"
	"strings"
)

// MaxFunctionChanges caps the function summary. The summary is meant to be
// lossy.
const MaxFunctionChanges = 10

// ExtractChangedLines flattens every added and removed line, keeping hunk
// order and in-hunk order
func ExtractChangedLines(text string) ChangedLines {
	changed := ChangedLines{Added: []string{}, Removed: []string{}}
	for _, h := range Parse(text) {
		for _, line := range h.Lines {
			switch line.Type {
			case LineAdded:
				changed.Added = append(changed.Added, line.Content)
			case LineRemoved:
				changed.Removed = append(changed.Removed, line.Content)
			}
		}
	}
	return changed
}

// DiffStats counts added and removed lines
func DiffStats(text string) Stats {
	var stats Stats
	for _, h := range Parse(text) {
		for _, line := range h.Lines {
			switch line.Type {
			case LineAdded:
				stats.Additions++
			case LineRemoved:
				stats.Deletions++
			}
		}
	}
	stats.Changes = stats.Additions + stats.Deletions
	return stats
}

// ExtractFunctionChanges summarizes which functions a diff touches.
//
// Each added or removed line is matched against the signature patterns for
// languageHint (all languages when the hint is empty). A match becomes the
// current function for the rest of its hunk, and later non-blank lines are
// attributed to it. Only the first MaxFunctionChanges entries are returned.
func ExtractFunctionChanges(text, languageHint string) []string {
	patterns := patternsFor(languageHint)
	changes := []string{}

	for _, h := range Parse(text) {
		current := ""
		for _, line := range h.Lines {
			if line.Type == LineContext {
				continue
			}

			if name := matchFunction(line.Content, patterns); name != "" {
				current = name
				if line.Type == LineAdded {
					changes = append(changes, fmt.Sprintf("Added function: %s", name))
				} else {
					changes = append(changes, fmt.Sprintf("Modified function: %s", name))
				}
			} else if current != "" {
				content := strings.TrimSpace(line.Content)
				if content == "" {
					continue
				}
				if line.Type == LineAdded {
					changes = append(changes, fmt.Sprintf("Added to %s: %s", current, content))
				} else {
					changes = append(changes, fmt.Sprintf("Removed from %s: %s", current, content))
				}
			}

			if len(changes) >= MaxFunctionChanges {
				return changes[:MaxFunctionChanges]
			}
		}
	}

	return changes
}

// SimplifyForAnalysis shrinks diff text before it goes to a length-limited
// consumer. File metadata is dropped; hunk headers and every added or removed
// line are kept verbatim; context lines survive only if they are not blank.
func SimplifyForAnalysis(text string) string {
	if text == "" {
		return ""
	}

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if isMetadata(line) || line == "" {
			continue
		}

		switch line[0] {
		case '@':
			if strings.HasPrefix(line, "@@") {
				kept = append(kept, line)
			}
		case '+', '-':
			kept = append(kept, line)
		case ' ':
			if strings.TrimSpace(line) != "" {
				kept = append(kept, line)
			}
		}
	}

	return strings.Join(kept, "\n")
}

func isMetadata(line string) bool {
	return strings.HasPrefix(line, "diff --git") ||
		strings.HasPrefix(line, "index ") ||
		strings.HasPrefix(line, "---") ||
		strings.HasPrefix(line, "+++")
}
