package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"recall-drill/internal/app"
	"recall-drill/internal/deck"
	"recall-drill/internal/domain"
)

type fakeDeckStore struct {
	mu         sync.Mutex
	rows       map[string][]domain.QuestionRecord
	failWrites bool
	writes     []writeCall
}

type writeCall struct {
	deckID     string
	position   int
	label      domain.ResultLabel
	reviewedAt time.Time
	userAnswer string
}

func (s *fakeDeckStore) Load(_ context.Context, deckID string) ([]domain.QuestionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.rows[deckID]
	if !ok {
		return nil, domain.ErrDeckNotFound
	}
	out := make([]domain.QuestionRecord, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *fakeDeckStore) WriteResult(_ context.Context, deckID string, position int, label domain.ResultLabel, reviewedAt time.Time, userAnswer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errors.New("timestamp cell write failed")
	}
	s.writes = append(s.writes, writeCall{deckID, position, label, reviewedAt, userAnswer})
	rows := s.rows[deckID]
	rows[position].LastResult = label
	rows[position].LastReviewedAt = reviewedAt
	rows[position].UserAnswer = userAnswer
	return nil
}

type countingScorer struct {
	calls int
	value int
}

func (s *countingScorer) Score(_ context.Context, _, _, _ string) (int, string) {
	s.calls++
	return s.value, ""
}

var testClock = func() time.Time {
	return time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
}

func newTestDrill(questions int) (*app.DrillService, *fakeDeckStore, *countingScorer) {
	rows := make([]domain.QuestionRecord, questions)
	for i := range rows {
		rows[i] = domain.QuestionRecord{
			Subject:          "History",
			Question:         "question " + string(rune('a'+i)),
			ReferenceAnswer:  "answer " + string(rune('a'+i)),
			OriginalPosition: i,
		}
	}
	store := &fakeDeckStore{rows: map[string][]domain.QuestionRecord{"deck-1": rows}}
	scorer := &countingScorer{value: 72}
	return app.NewDrillServiceWithClock(store, scorer, testClock), store, scorer
}

func TestSubmitScoresOncePerVisit(t *testing.T) {
	ctx := context.Background()
	drill, store, scorer := newTestDrill(3)

	sess, err := drill.StartSession(ctx, "deck-1", deck.FilterOptions{Now: testClock()})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if sess.Phase() != app.PhaseAnswering {
		t.Fatalf("expected answering phase, got %s", sess.Phase())
	}

	grade, err := drill.Submit(ctx, sess, "my answer")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if grade.Score != 72 {
		t.Fatalf("expected score 72, got %d", grade.Score)
	}

	// A redraw re-submits; the cached grade comes back without another
	// scorer call.
	again, err := drill.Submit(ctx, sess, "my answer")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again != grade {
		t.Fatalf("expected cached grade, got %+v", again)
	}
	if scorer.calls != 1 {
		t.Fatalf("scorer invoked %d times, want 1", scorer.calls)
	}

	if err := drill.Assess(ctx, sess, domain.ResultPartial); err != nil {
		t.Fatalf("assess: %v", err)
	}
	if current, _ := sess.Progress(); current != 2 {
		t.Fatalf("expected cursor at question 2, got %d", current)
	}
	if sess.Phase() != app.PhaseAnswering {
		t.Fatalf("expected answering phase after assess, got %s", sess.Phase())
	}
	if len(store.writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(store.writes))
	}
	w := store.writes[0]
	if w.position != 0 || w.label != domain.ResultPartial || w.userAnswer != "my answer" {
		t.Fatalf("unexpected write: %+v", w)
	}
	if !w.reviewedAt.Equal(testClock()) {
		t.Fatalf("expected clock timestamp, got %v", w.reviewedAt)
	}
}

func TestSubmitRejectsBlankAnswer(t *testing.T) {
	ctx := context.Background()
	drill, _, scorer := newTestDrill(1)
	sess, _ := drill.StartSession(ctx, "deck-1", deck.FilterOptions{Now: testClock()})

	if _, err := drill.Submit(ctx, sess, "   \n\t"); !errors.Is(err, domain.ErrEmptyAnswer) {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}
	if sess.Phase() != app.PhaseAnswering {
		t.Fatalf("blank submit must not change phase, got %s", sess.Phase())
	}
	if scorer.calls != 0 {
		t.Fatalf("scorer must not run for blank answers")
	}
}

func TestAssessRequiresScoredPhase(t *testing.T) {
	ctx := context.Background()
	drill, _, _ := newTestDrill(1)
	sess, _ := drill.StartSession(ctx, "deck-1", deck.FilterOptions{Now: testClock()})

	if err := drill.Assess(ctx, sess, domain.ResultCorrect); !errors.Is(err, domain.ErrNotScored) {
		t.Fatalf("expected ErrNotScored, got %v", err)
	}
}

func TestAssessRejectsUnknownLabel(t *testing.T) {
	ctx := context.Background()
	drill, _, _ := newTestDrill(1)
	sess, _ := drill.StartSession(ctx, "deck-1", deck.FilterOptions{Now: testClock()})
	if _, err := drill.Submit(ctx, sess, "a"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := drill.Assess(ctx, sess, domain.ResultNone); !errors.Is(err, domain.ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}
}

func TestWriteFailureKeepsSessionInScoredPhase(t *testing.T) {
	ctx := context.Background()
	drill, store, _ := newTestDrill(2)
	sess, _ := drill.StartSession(ctx, "deck-1", deck.FilterOptions{Now: testClock()})

	if _, err := drill.Submit(ctx, sess, "attempt"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	store.failWrites = true
	err := drill.Assess(ctx, sess, domain.ResultCorrect)
	var surfaced *domain.SurfacedError
	if !errors.As(err, &surfaced) {
		t.Fatalf("expected SurfacedError, got %v", err)
	}
	if sess.Phase() != app.PhaseScored {
		t.Fatalf("failed write must not advance, phase is %s", sess.Phase())
	}
	if current, _ := sess.Progress(); current != 1 {
		t.Fatalf("cursor moved after failed write: %d", current)
	}

	// The same assessment succeeds once the store recovers.
	store.failWrites = false
	if err := drill.Assess(ctx, sess, domain.ResultCorrect); err != nil {
		t.Fatalf("retry assess: %v", err)
	}
	if current, _ := sess.Progress(); current != 2 {
		t.Fatalf("expected advance after retry, got %d", current)
	}
}

func TestJumpDoesNotInvokeScorerOrWriter(t *testing.T) {
	ctx := context.Background()
	drill, store, scorer := newTestDrill(5)
	sess, _ := drill.StartSession(ctx, "deck-1", deck.FilterOptions{Now: testClock()})

	if err := sess.JumpTo(5); err != nil {
		t.Fatalf("jump: %v", err)
	}
	current, total := sess.Progress()
	if current != 5 || total != 5 {
		t.Fatalf("expected position 5 of 5, got %d of %d", current, total)
	}
	if scorer.calls != 0 || len(store.writes) != 0 {
		t.Fatalf("jump must not score or write")
	}

	if err := sess.JumpTo(6); !errors.Is(err, domain.ErrInvalidJump) {
		t.Fatalf("expected ErrInvalidJump, got %v", err)
	}
	if err := sess.JumpTo(0); !errors.Is(err, domain.ErrInvalidJump) {
		t.Fatalf("expected ErrInvalidJump, got %v", err)
	}
}

func TestCompletionAndReset(t *testing.T) {
	ctx := context.Background()
	drill, store, _ := newTestDrill(2)
	sess, _ := drill.StartSession(ctx, "deck-1", deck.FilterOptions{Now: testClock()})

	for i := 0; i < 2; i++ {
		if _, err := drill.Submit(ctx, sess, "answer"); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if err := drill.Assess(ctx, sess, domain.ResultCorrect); err != nil {
			t.Fatalf("assess %d: %v", i, err)
		}
	}
	if sess.Phase() != app.PhaseComplete {
		t.Fatalf("expected complete, got %s", sess.Phase())
	}
	if _, err := drill.Submit(ctx, sess, "late"); !errors.Is(err, domain.ErrSessionComplete) {
		t.Fatalf("expected ErrSessionComplete, got %v", err)
	}

	sess.Reset()
	if sess.Phase() != app.PhaseAnswering {
		t.Fatalf("expected answering after reset, got %s", sess.Phase())
	}
	if current, _ := sess.Progress(); current != 1 {
		t.Fatalf("expected cursor back at 1, got %d", current)
	}
	// Reset does not erase previously recorded results.
	if len(store.writes) != 2 {
		t.Fatalf("expected 2 recorded writes to survive reset, got %d", len(store.writes))
	}
	rec, err := sess.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if rec.LastResult != domain.ResultCorrect {
		t.Fatalf("recorded result lost after reset: %+v", rec)
	}
}

func TestSkipAdvancesWithoutWriting(t *testing.T) {
	ctx := context.Background()
	drill, store, _ := newTestDrill(2)
	sess, _ := drill.StartSession(ctx, "deck-1", deck.FilterOptions{Now: testClock()})

	if err := sess.Skip(); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if current, _ := sess.Progress(); current != 2 {
		t.Fatalf("expected cursor at 2, got %d", current)
	}
	if len(store.writes) != 0 {
		t.Fatalf("skip must not write")
	}
	if err := sess.Skip(); err != nil {
		t.Fatalf("skip to end: %v", err)
	}
	if sess.Phase() != app.PhaseComplete {
		t.Fatalf("expected complete after skipping past end")
	}
	if err := sess.Skip(); !errors.Is(err, domain.ErrSessionComplete) {
		t.Fatalf("expected ErrSessionComplete, got %v", err)
	}
}

func TestEmptyFilteredSetIsImmediatelyComplete(t *testing.T) {
	ctx := context.Background()
	drill, _, _ := newTestDrill(3)
	sess, err := drill.StartSession(ctx, "deck-1", deck.FilterOptions{Subject: "Nonexistent", Now: testClock()})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if sess.Phase() != app.PhaseComplete {
		t.Fatalf("empty set should load complete, got %s", sess.Phase())
	}
	if _, total := sess.Progress(); total != 0 {
		t.Fatalf("expected zero total, got %d", total)
	}
}

func TestStartSessionSurfacesLoadFailure(t *testing.T) {
	ctx := context.Background()
	drill, _, _ := newTestDrill(1)
	_, err := drill.StartSession(ctx, "missing-deck", deck.FilterOptions{})
	var surfaced *domain.SurfacedError
	if !errors.As(err, &surfaced) {
		t.Fatalf("expected SurfacedError, got %v", err)
	}
	if !errors.Is(err, domain.ErrDeckNotFound) {
		t.Fatalf("expected wrapped ErrDeckNotFound, got %v", err)
	}
}
