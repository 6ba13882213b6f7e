package score

import (
	"context"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Band buckets a 0-100 score for presentation. The cutoffs are shared by
// every caller that interprets a score.
type Band string

const (
	BandStrong  Band = "strong"
	BandPartial Band = "partial"
	BandWeak    Band = "weak"
)

// BandFor maps a score to its presentation band: >=80 strong, 50-79 partial,
// below 50 weak.
func BandFor(score int) Band {
	switch {
	case score >= 80:
		return BandStrong
	case score >= 50:
		return BandPartial
	default:
		return BandWeak
	}
}

// Lexical compares a candidate answer against the reference using a
// token-sort ratio: both sides are case-folded, split on whitespace, sorted
// and rejoined before a normalized edit-distance ratio. Word order never
// affects the result.
func Lexical(candidate, reference string) int {
	return fuzzy.TokenSortRatio(strings.ToLower(candidate), strings.ToLower(reference))
}

// LexicalScorer adapts Lexical to the session scorer contract. It is
// deterministic and produces no feedback text.
type LexicalScorer struct{}

func (LexicalScorer) Score(_ context.Context, _, reference, candidate string) (int, string) {
	return Lexical(candidate, reference), ""
}
