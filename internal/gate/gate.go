// Package gate implements the keyword scope pre-filter: a cheap check that
// decides whether a query is worth a retrieval pass at all.
package gate

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// DefaultThreshold is the partial-ratio score (0-100) a token/term pair must
// exceed to count as a fuzzy match.
const DefaultThreshold = 80

// Gate matches query tokens against a fixed domain vocabulary. It is a pure
// function of its input and the vocabulary; tokens and terms are compared
// case-insensitively.
type Gate struct {
	vocabulary []string
	threshold  int
}

// New creates a gate over the given vocabulary. Entries are lowercased and
// blank entries dropped. threshold <= 0 selects DefaultThreshold.
func New(vocabulary []string, threshold int) *Gate {
	vocab := make([]string, 0, len(vocabulary))
	for _, v := range vocabulary {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			vocab = append(vocab, v)
		}
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Gate{vocabulary: vocab, threshold: threshold}
}

// InScope reports whether the query is topically in scope for retrieval.
// Exact token matches short-circuit; otherwise every token is fuzzy-scored
// against every vocabulary entry. O(tokens x vocabulary), fine for the small
// vocabularies this is built for.
func (g *Gate) InScope(query string) bool {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 || len(g.vocabulary) == 0 {
		return false
	}

	for _, tok := range tokens {
		for _, term := range g.vocabulary {
			if tok == term {
				return true
			}
		}
	}

	for _, tok := range tokens {
		for _, term := range g.vocabulary {
			if partialRatio(tok, term) > g.threshold {
				return true
			}
		}
	}

	return false
}

// partialRatio scores the best Levenshtein similarity between the shorter
// string and every equally sized window of the longer one, on a 0-100 scale.
// A token that appears verbatim inside a multi-word vocabulary entry scores
// 100.
func partialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	var best float32
	needle := string(short)
	for i := 0; i+len(short) <= len(long); i++ {
		sim, err := edlib.StringsSimilarity(needle, string(long[i:i+len(short)]), edlib.Levenshtein)
		if err != nil {
			return 0
		}
		if sim > best {
			best = sim
		}
	}
	return int(best * 100)
}
