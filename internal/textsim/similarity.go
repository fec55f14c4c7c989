// Package textsim scores how alike two short texts are without any external
// model. It backs the lexical half of duplicate detection.
package textsim

import (
	"strings"
	"unicode"
)

// Weights of the two signals combined by Similarity. Shared vocabulary counts
// for more than character overlap; both are tunable.
var (
	WordWeight     = 0.7
	SequenceWeight = 0.3
)

// Normalize lowercases s, turns punctuation into spaces, collapses whitespace
// runs and trims the result
func Normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// Similarity returns a score in [0,1]. Either side normalizing to the empty
// string scores 0, identical normalized strings score exactly 1.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	score := WordWeight*jaccard(strings.Fields(na), strings.Fields(nb)) +
		SequenceWeight*sequenceScore([]rune(na), []rune(nb))

	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

func jaccard(a, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, w := range a {
		set[w] = true
	}

	union := len(set)
	intersection := 0
	seen := make(map[string]bool, len(b))
	for _, w := range b {
		if seen[w] {
			continue
		}
		seen[w] = true
		if set[w] {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// sequenceScore walks the shorter string in order, finding each rune in the
// longer one at or after the previous match
func sequenceScore(a, b []rune) float64 {
	shorter, longer := a, b
	if len(a) > len(b) || (len(a) == len(b) && string(a) > string(b)) {
		shorter, longer = longer, shorter
	}
	if len(longer) == 0 {
		return 0
	}

	matches := 0
	cursor := 0
	for _, r := range shorter {
		for i := cursor; i < len(longer); i++ {
			if longer[i] == r {
				matches++
				cursor = i + 1
				break
			}
		}
	}

	return float64(matches) / float64(len(longer))
}
