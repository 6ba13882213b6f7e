package score

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// CoveredThreshold is the per-reference token-set score at or above which a
// reference answer counts as covered by an essay.
const CoveredThreshold = 40

// CoverageReport describes how much of a reference set an essay touches.
type CoverageReport struct {
	Covered      []bool
	CoveredCount int
	Percent      int
}

// Coverage scores a free-form essay against each reference answer
// independently using a token-set ratio, which is insensitive to word order
// and duplicate tokens and so looser than the token-sort ratio used for
// single answers.
func Coverage(essay string, references []string) CoverageReport {
	report := CoverageReport{Covered: make([]bool, len(references))}
	if len(references) == 0 {
		return report
	}
	lowered := strings.ToLower(essay)
	for i, ref := range references {
		if fuzzy.TokenSetRatio(lowered, strings.ToLower(ref)) >= CoveredThreshold {
			report.Covered[i] = true
			report.CoveredCount++
		}
	}
	report.Percent = report.CoveredCount * 100 / len(references)
	return report
}
