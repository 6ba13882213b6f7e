package memory

import (
	"context"
	"sync"
	"time"

	"recall-drill/internal/domain"
)

// DeckStore keeps decks in an in-memory map (useful for tests/demos).
type DeckStore struct {
	mu    sync.RWMutex
	decks map[string][]domain.QuestionRecord
}

func NewDeckStore(decks map[string][]domain.QuestionRecord) *DeckStore {
	store := &DeckStore{decks: make(map[string][]domain.QuestionRecord, len(decks))}
	for id, rows := range decks {
		copied := make([]domain.QuestionRecord, len(rows))
		copy(copied, rows)
		for i := range copied {
			copied[i].OriginalPosition = i
		}
		store.decks[id] = copied
	}
	return store
}

func (s *DeckStore) Load(_ context.Context, deckID string) ([]domain.QuestionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.decks[deckID]
	if !ok {
		return nil, domain.ErrDeckNotFound
	}
	out := make([]domain.QuestionRecord, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *DeckStore) WriteResult(_ context.Context, deckID string, originalPosition int, label domain.ResultLabel, reviewedAt time.Time, userAnswer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.decks[deckID]
	if !ok {
		return domain.ErrDeckNotFound
	}
	if originalPosition < 0 || originalPosition >= len(rows) {
		return domain.ErrRowNotFound
	}
	rows[originalPosition].LastResult = label
	rows[originalPosition].LastReviewedAt = reviewedAt
	rows[originalPosition].UserAnswer = userAnswer
	return nil
}
