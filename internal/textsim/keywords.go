package textsim

import (
	"strings"
	"unicode/utf8"
)

const minKeywordLength = 3

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "this": {}, "that": {},
	"from": {}, "into": {}, "when": {}, "then": {}, "than": {}, "are": {},
	"was": {}, "were": {}, "has": {}, "have": {}, "had": {}, "not": {},
	"but": {}, "all": {}, "any": {}, "can": {}, "should": {}, "would": {},
	"could": {}, "will": {}, "there": {}, "their": {}, "they": {}, "them": {},
	"its": {}, "our": {}, "you": {}, "your": {}, "what": {}, "which": {},
	"who": {}, "how": {}, "why": {}, "also": {}, "some": {}, "more": {},
	"only": {}, "just": {}, "does": {}, "did": {}, "been": {}, "being": {},
	"about": {}, "after": {}, "before": {}, "other": {}, "these": {},
	"those": {}, "use": {}, "using": {}, "used": {}, "via": {}, "fix": {},
	"fixes": {}, "add": {}, "adds": {}, "update": {}, "updates": {},
}

// Keywords extracts up to max distinctive words from text in order of first
// appearance. Stop words and words shorter than three letters are dropped.
// A max of zero or less means no limit.
func Keywords(text string, max int) []string {
	var keywords []string
	seen := make(map[string]bool)

	for _, word := range strings.Fields(Normalize(text)) {
		if utf8.RuneCountInString(word) < minKeywordLength {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if max > 0 && len(keywords) >= max {
			break
		}
	}

	return keywords
}
