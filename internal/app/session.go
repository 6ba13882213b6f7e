package app

import (
	"sync"
	"time"

	"recall-drill/internal/domain"
)

// Phase is the drill session's position in the answer/score/record loop.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseAnswering Phase = "answering"
	PhaseScored    Phase = "scored"
	PhaseComplete  Phase = "complete"
)

// Session is a cursor over a filtered question set. It owns every state
// transition; callers never mutate the cursor directly. All state belongs to
// one user and one connection, the mutex only guards against transport-level
// interleaving.
type Session struct {
	mu        sync.Mutex
	deckID    string
	set       domain.FilteredSet
	idx       int
	phase     Phase
	answer    string
	grade     domain.GradedAnswer
	startedAt time.Time
	now       func() time.Time
}

func newSession(deckID string, set domain.FilteredSet, now func() time.Time) *Session {
	s := &Session{
		deckID:    deckID,
		set:       set,
		phase:     PhaseAnswering,
		startedAt: now(),
		now:       now,
	}
	if set.Len() == 0 {
		s.phase = PhaseComplete
	}
	return s
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Current returns the question under the cursor.
func (s *Session) Current() (domain.QuestionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx >= s.set.Len() {
		return domain.QuestionRecord{}, domain.ErrSessionComplete
	}
	return s.set.Records[s.idx], nil
}

// Progress reports the 1-based position and the set size, clamped so the
// completed state still reads "N of N".
func (s *Session) Progress() (current, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total = s.set.Len()
	current = s.idx + 1
	if current > total {
		current = total
	}
	return current, total
}

// Skip advances past the current question without recording anything.
func (s *Session) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseComplete {
		return domain.ErrSessionComplete
	}
	s.advanceLocked()
	return nil
}

// JumpTo moves the cursor to question n (1-based). The target must be within
// the set; jumping resets any pending answer and cached score.
func (s *Session) JumpTo(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > s.set.Len() {
		return domain.ErrInvalidJump
	}
	s.idx = n - 1
	s.resetVisitLocked()
	s.phase = PhaseAnswering
	return nil
}

// Reset returns the cursor to the first question. Previously recorded
// results are untouched and the set is not reloaded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx = 0
	s.resetVisitLocked()
	if s.set.Len() == 0 {
		s.phase = PhaseComplete
	} else {
		s.phase = PhaseAnswering
	}
}

// ReferenceAnswers returns the reference answer of every question in the
// set, in set order.
func (s *Session) ReferenceAnswers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := make([]string, len(s.set.Records))
	for i, rec := range s.set.Records {
		refs[i] = rec.ReferenceAnswer
	}
	return refs
}

// ElapsedMinutes recomputes study time from the session start on demand;
// there is no background ticking.
func (s *Session) ElapsedMinutes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.now().Sub(s.startedAt).Minutes())
}

func (s *Session) advanceLocked() {
	s.idx++
	s.resetVisitLocked()
	if s.idx >= s.set.Len() {
		s.phase = PhaseComplete
	} else {
		s.phase = PhaseAnswering
	}
}

func (s *Session) resetVisitLocked() {
	s.answer = ""
	s.grade = domain.GradedAnswer{}
}
