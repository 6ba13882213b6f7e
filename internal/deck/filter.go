package deck

import (
	"sort"
	"time"

	"recall-drill/internal/domain"
)

// Recency buckets records by their last review relative to "now".
type Recency int

const (
	RecencyAny Recency = iota
	// RecencyToday matches reviews on the same calendar day.
	RecencyToday
	// RecencyThisWeek matches reviews within the last 7 days.
	RecencyThisWeek
	// RecencyThisMonth matches reviews within the last 30 days.
	RecencyThisMonth
	// RecencyStale matches reviews older than 60 days and records that were
	// never reviewed.
	RecencyStale
)

// ParseRecency maps a wire/config value to a bucket; unknown values mean no
// recency filtering.
func ParseRecency(raw string) Recency {
	switch raw {
	case "today":
		return RecencyToday
	case "week":
		return RecencyThisWeek
	case "month":
		return RecencyThisMonth
	case "stale":
		return RecencyStale
	default:
		return RecencyAny
	}
}

// FilterOptions narrows a deck into a working set. A blank Subject keeps all
// subjects; an empty Statuses set keeps all results.
type FilterOptions struct {
	Subject  string
	Statuses []domain.ResultLabel
	Recency  Recency
	Now      time.Time // zero means time.Now()
}

// Filter applies status, recency and subject filters in order, preserving the
// relative order of the input. The returned RowMapping holds each surviving
// record's position in the original, unfiltered collection, index-aligned
// with Records.
func Filter(records []domain.QuestionRecord, opts FilterOptions) domain.FilteredSet {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	set := domain.FilteredSet{
		Records:    make([]domain.QuestionRecord, 0, len(records)),
		RowMapping: make([]int, 0, len(records)),
	}
	for i, rec := range records {
		if !matchesStatus(rec.LastResult, opts.Statuses) {
			continue
		}
		if !matchesRecency(rec.LastReviewedAt, opts.Recency, now) {
			continue
		}
		if opts.Subject != "" && rec.Subject != opts.Subject {
			continue
		}
		rec.OriginalPosition = i
		set.Records = append(set.Records, rec)
		set.RowMapping = append(set.RowMapping, i)
	}
	return set
}

// Subjects lists the distinct subjects present after applying the status and
// recency filters, sorted. Subject selection is offered against this list so
// the picker never shows a subject with zero matching questions.
func Subjects(records []domain.QuestionRecord, statuses []domain.ResultLabel, recency Recency, now time.Time) []string {
	if now.IsZero() {
		now = time.Now()
	}
	seen := make(map[string]struct{})
	for _, rec := range records {
		if rec.Subject == "" {
			continue
		}
		if !matchesStatus(rec.LastResult, statuses) {
			continue
		}
		if !matchesRecency(rec.LastReviewedAt, recency, now) {
			continue
		}
		seen[rec.Subject] = struct{}{}
	}
	subjects := make([]string, 0, len(seen))
	for s := range seen {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	return subjects
}

// matchesStatus applies OR semantics over the selected labels. Selecting
// ResultNone matches every record without a recorded review, however the
// store represented the empty state.
func matchesStatus(label domain.ResultLabel, statuses []domain.ResultLabel) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == domain.ResultNone && !label.Answered() {
			return true
		}
		if s == label {
			return true
		}
	}
	return false
}

func matchesRecency(reviewedAt time.Time, recency Recency, now time.Time) bool {
	switch recency {
	case RecencyAny:
		return true
	case RecencyToday:
		if reviewedAt.IsZero() {
			return false
		}
		y1, m1, d1 := reviewedAt.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case RecencyThisWeek:
		return !reviewedAt.IsZero() && !reviewedAt.Before(now.AddDate(0, 0, -7))
	case RecencyThisMonth:
		return !reviewedAt.IsZero() && !reviewedAt.Before(now.AddDate(0, 0, -30))
	case RecencyStale:
		// Never-reviewed records always land here.
		return reviewedAt.IsZero() || reviewedAt.Before(now.AddDate(0, 0, -60))
	default:
		return true
	}
}
