package dedup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Yates-Labs/prdupe/internal/rag"
)

type candidateKey struct {
	kind   rag.Kind
	number int
}

// vectorSignal is what the embedding cache knows about a candidate
type vectorSignal struct {
	similarity float64
	title      string
}

// merged holds both signals for one candidate. Field provenance:
//   - similarity: vector alone, lexical alone, or the blended score when both
//     are present (never below the vector score)
//   - title, status, url: lexical when present, otherwise derived from the
//     vector record with an unknown status
type merged struct {
	key     candidateKey
	vector  *vectorSignal
	lexical *Candidate
}

func (m *merged) similarity(cfg Config) float64 {
	switch {
	case m.vector != nil && m.lexical != nil:
		v, l := m.vector.similarity, m.lexical.Similarity
		blended := v*cfg.VectorWeight + l*cfg.LexicalWeight
		if blended > v {
			return blended
		}
		return v
	case m.vector != nil:
		return m.vector.similarity
	case m.lexical != nil:
		return m.lexical.Similarity
	}
	return 0
}

func (m *merged) candidate(cfg Config) Candidate {
	c := Candidate{
		Kind:       m.key.kind,
		Number:     m.key.number,
		Similarity: m.similarity(cfg),
	}
	if m.lexical != nil {
		c.Title = m.lexical.Title
		c.Status = m.lexical.Status
		c.URL = m.lexical.URL
		return c
	}
	if m.vector != nil {
		c.Title = m.vector.title
	}
	c.Status = StatusUnknown
	c.URL = buildURL(cfg.RepositoryURL, m.key.kind, m.key.number)
	return c
}

// mergeCandidates unions both result sets by (kind, number), drops the item
// itself, keeps scores at or above the threshold and returns at most
// MaxCandidates, best first
func mergeCandidates(self Item, vectorHits []rag.Match, lexicalHits []Candidate, cfg Config) []Candidate {
	selfKey := candidateKey{kind: self.Kind, number: self.Number}
	byKey := make(map[candidateKey]*merged)
	var order []candidateKey

	get := func(k candidateKey) *merged {
		m, ok := byKey[k]
		if !ok {
			m = &merged{key: k}
			byKey[k] = m
			order = append(order, k)
		}
		return m
	}

	for _, hit := range vectorHits {
		k := candidateKey{kind: hit.Record.Kind, number: hit.Record.Number}
		if k == selfKey {
			continue
		}
		m := get(k)
		if m.vector == nil || hit.Similarity > m.vector.similarity {
			m.vector = &vectorSignal{similarity: hit.Similarity, title: hit.Record.Title}
		}
	}

	for i := range lexicalHits {
		hit := lexicalHits[i]
		k := candidateKey{kind: hit.Kind, number: hit.Number}
		if k == selfKey {
			continue
		}
		m := get(k)
		if m.lexical == nil || hit.Similarity > m.lexical.Similarity {
			m.lexical = &hit
		}
	}

	candidates := make([]Candidate, 0, len(order))
	for _, k := range order {
		c := byKey[k].candidate(cfg)
		if c.Similarity >= cfg.Threshold {
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		if candidates[i].Kind != candidates[j].Kind {
			return candidates[i].Kind == rag.KindPR
		}
		return candidates[i].Number < candidates[j].Number
	})

	if len(candidates) > cfg.MaxCandidates {
		candidates = candidates[:cfg.MaxCandidates]
	}
	return candidates
}

// buildURL links a candidate on the repository web UI
func buildURL(repoURL string, kind rag.Kind, number int) string {
	base := strings.TrimSuffix(strings.TrimSpace(repoURL), "/")
	if base == "" {
		return ""
	}
	if kind == rag.KindIssue {
		return fmt.Sprintf("%s/issues/%d", base, number)
	}
	return fmt.Sprintf("%s/pull/%d", base, number)
}
