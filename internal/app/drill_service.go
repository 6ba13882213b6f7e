package app

import (
	"context"
	"strings"
	"time"

	"recall-drill/internal/deck"
	"recall-drill/internal/domain"
)

// DeckStore abstracts where decks live (Google Sheets, Postgres mirror,
// memory). Load must fail outright on missing columns rather than return a
// partial deck. WriteResult targets a record's original row; last writer
// wins, there is no cross-session locking.
type DeckStore interface {
	Load(ctx context.Context, deckID string) ([]domain.QuestionRecord, error)
	WriteResult(ctx context.Context, deckID string, originalPosition int, label domain.ResultLabel, reviewedAt time.Time, userAnswer string) error
}

// Scorer compares a candidate answer against the reference. Implementations
// must degrade rather than fail: a broken grading call returns a zero score
// with placeholder feedback.
type Scorer interface {
	Score(ctx context.Context, question, reference, candidate string) (score int, feedback string)
}

// DrillService contains the drill use cases: start a session over a filtered
// set, score submissions, and record self-assessments back to the deck.
type DrillService struct {
	decks  DeckStore
	scorer Scorer
	now    func() time.Time
}

func NewDrillService(decks DeckStore, scorer Scorer) *DrillService {
	return &DrillService{decks: decks, scorer: scorer, now: time.Now}
}

// NewDrillServiceWithClock is test-only for deterministic timestamps.
func NewDrillServiceWithClock(decks DeckStore, scorer Scorer, now func() time.Time) *DrillService {
	return &DrillService{decks: decks, scorer: scorer, now: now}
}

// StartSession loads a deck, applies the filters and returns a fresh session
// cursor. Establishing a new set always resets the cursor; an empty result
// yields a session that is already complete with zero total.
func (s *DrillService) StartSession(ctx context.Context, deckID string, opts deck.FilterOptions) (*Session, error) {
	rows, err := s.decks.Load(ctx, deckID)
	if err != nil {
		return nil, domain.Surface("load deck", err)
	}
	if opts.Now.IsZero() {
		opts.Now = s.now()
	}
	return newSession(deckID, deck.Filter(rows, opts), s.now), nil
}

// Subjects lists the subjects available in a deck after status and recency
// filtering, so a subject picker never offers an empty choice.
func (s *DrillService) Subjects(ctx context.Context, deckID string, statuses []domain.ResultLabel, recency deck.Recency) ([]string, error) {
	rows, err := s.decks.Load(ctx, deckID)
	if err != nil {
		return nil, domain.Surface("load deck", err)
	}
	return deck.Subjects(rows, statuses, recency, s.now()), nil
}

// Submit scores the answer for the current question and moves the session to
// the scored phase. The score is computed at most once per question visit:
// submitting again before an assessment returns the cached grade without
// re-invoking the scorer.
func (s *DrillService) Submit(ctx context.Context, sess *Session, text string) (domain.GradedAnswer, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch sess.phase {
	case PhaseComplete:
		return domain.GradedAnswer{}, domain.ErrSessionComplete
	case PhaseScored:
		return sess.grade, nil
	}
	if strings.TrimSpace(text) == "" {
		return domain.GradedAnswer{}, domain.ErrEmptyAnswer
	}

	rec := sess.set.Records[sess.idx]
	value, feedback := s.scorer.Score(ctx, rec.Question, rec.ReferenceAnswer, text)
	sess.answer = text
	sess.grade = domain.GradedAnswer{Score: value, Feedback: feedback}
	sess.phase = PhaseScored
	return sess.grade, nil
}

// Assess records the user's self-assessment for the scored question and
// advances the cursor. On a write failure the session stays in the scored
// phase so the same assessment can be retried; a graded answer is never
// silently dropped.
func (s *DrillService) Assess(ctx context.Context, sess *Session, label domain.ResultLabel) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.phase == PhaseComplete {
		return domain.ErrSessionComplete
	}
	if sess.phase != PhaseScored {
		return domain.ErrNotScored
	}
	if !label.Answered() {
		return domain.ErrInvalidLabel
	}

	position := sess.set.RowMapping[sess.idx]
	reviewedAt := s.now()
	if err := s.decks.WriteResult(ctx, sess.deckID, position, label, reviewedAt, sess.answer); err != nil {
		return domain.Surface("record result", err)
	}

	// Mirror the write into the working set so a redraw shows fresh data
	// without reloading the deck.
	sess.set.Records[sess.idx].LastResult = label
	sess.set.Records[sess.idx].LastReviewedAt = reviewedAt
	sess.set.Records[sess.idx].UserAnswer = sess.answer
	sess.advanceLocked()
	return nil
}
