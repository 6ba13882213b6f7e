package score_test

import (
	"testing"

	"recall-drill/internal/score"
)

func TestLexicalIgnoresTokenOrder(t *testing.T) {
	if got := score.Lexical("the cat sat", "sat the cat"); got != 100 {
		t.Fatalf("expected 100 for reordered tokens, got %d", got)
	}
}

func TestLexicalIgnoresCase(t *testing.T) {
	if got := score.Lexical("PARIS", "paris"); got != 100 {
		t.Fatalf("expected 100 for case-only difference, got %d", got)
	}
}

func TestLexicalDifferentAnswersBelowHundred(t *testing.T) {
	if got := score.Lexical("london", "paris"); got >= 100 {
		t.Fatalf("expected a partial score for different answers, got %d", got)
	}
}

func TestBandFor(t *testing.T) {
	cases := []struct {
		score int
		want  score.Band
	}{
		{100, score.BandStrong},
		{80, score.BandStrong},
		{79, score.BandPartial},
		{50, score.BandPartial},
		{49, score.BandWeak},
		{0, score.BandWeak},
	}
	for _, c := range cases {
		if got := score.BandFor(c.score); got != c.want {
			t.Fatalf("BandFor(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestCoverageCountsReferencesTouchedByEssay(t *testing.T) {
	essay := "The mitochondria is the powerhouse of the cell and photosynthesis happens in chloroplasts"
	references := []string{
		"mitochondria is the powerhouse of the cell", // every token appears in the essay
		"zzz qqq vvv kkk",                            // shares nothing with the essay
	}

	report := score.Coverage(essay, references)
	if !report.Covered[0] {
		t.Fatalf("expected first reference to be covered")
	}
	if report.Covered[1] {
		t.Fatalf("expected second reference to be uncovered")
	}
	if report.CoveredCount != 1 || report.Percent != 50 {
		t.Fatalf("expected 1 covered / 50%%, got %d / %d%%", report.CoveredCount, report.Percent)
	}
}

func TestCoverageEmptyReferences(t *testing.T) {
	report := score.Coverage("anything", nil)
	if report.CoveredCount != 0 || report.Percent != 0 || len(report.Covered) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}
