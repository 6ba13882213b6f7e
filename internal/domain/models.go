package domain

import (
	"strings"
	"time"
)

// ResultLabel is the self-assessment recorded against a question.
type ResultLabel string

const (
	// ResultNone marks a question that has never been answered. Backing
	// stores may hold it as an empty or blank cell.
	ResultNone      ResultLabel = ""
	ResultCorrect   ResultLabel = "Correct"
	ResultPartial   ResultLabel = "Partial"
	ResultIncorrect ResultLabel = "Incorrect"
)

// ParseResultLabel maps a stored result cell to a label. Blank cells and
// unknown values both read as ResultNone so legacy sheets keep loading.
func ParseResultLabel(raw string) ResultLabel {
	switch strings.TrimSpace(raw) {
	case string(ResultCorrect):
		return ResultCorrect
	case string(ResultPartial):
		return ResultPartial
	case string(ResultIncorrect):
		return ResultIncorrect
	default:
		return ResultNone
	}
}

// Answered reports whether the label represents a recorded review.
func (l ResultLabel) Answered() bool {
	return l == ResultCorrect || l == ResultPartial || l == ResultIncorrect
}

// QuestionRecord is one row of a deck, immutable once loaded. OriginalPosition
// is the row's offset in the unfiltered source collection and is used only to
// target write-back, never for display order.
type QuestionRecord struct {
	Subject          string
	Question         string
	ReferenceAnswer  string
	LastResult       ResultLabel
	LastReviewedAt   time.Time // zero means never reviewed
	UserAnswer       string
	OriginalPosition int
}

// FilteredSet is an ordered working set of records plus the index-aligned
// mapping back to each record's original row. The two sequences must never
// desynchronize: a grade written through a stale mapping lands on the wrong
// question's row.
type FilteredSet struct {
	Records    []QuestionRecord
	RowMapping []int
}

// Len returns the number of records in the set.
func (s FilteredSet) Len() int { return len(s.Records) }

// GradedAnswer is the outcome of scoring a submitted answer.
type GradedAnswer struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback,omitempty"`
}

// Mission is one checklist item in the study tracker.
type Mission struct {
	ID             int
	Description    string
	Subject        string
	Done           bool
	CompletedAt    time.Time // zero until completed
	ElapsedMinutes int       // zero means not logged
}

// TimeLogEntry is one append-only study-time record.
type TimeLogEntry struct {
	Date    time.Time
	Subject string
	Minutes int
}

// DayTotal aggregates logged minutes for a single calendar day.
type DayTotal struct {
	Date    time.Time `json:"date"`
	Minutes int       `json:"minutes"`
}
