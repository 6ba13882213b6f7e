package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"recall-drill/internal/domain"
)

type countingStore struct {
	mu    sync.Mutex
	inner *DeckStore
	loads int
}

func (s *countingStore) Load(ctx context.Context, deckID string) ([]domain.QuestionRecord, error) {
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
	return s.inner.Load(ctx, deckID)
}

func (s *countingStore) WriteResult(ctx context.Context, deckID string, pos int, label domain.ResultLabel, reviewedAt time.Time, userAnswer string) error {
	return s.inner.WriteResult(ctx, deckID, pos, label, reviewedAt, userAnswer)
}

func sampleDeck() map[string][]domain.QuestionRecord {
	return map[string][]domain.QuestionRecord{
		"deck-1": {
			{Subject: "History", Question: "q1", ReferenceAnswer: "a1"},
			{Subject: "History", Question: "q2", ReferenceAnswer: "a2"},
		},
	}
}

func TestDeckCacheServesFromCacheWithinTTL(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{inner: NewDeckStore(sampleDeck())}
	cache := NewDeckCache(inner, 5*time.Minute)

	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	if _, err := cache.Load(ctx, "deck-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := cache.Load(ctx, "deck-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if inner.loads != 1 {
		t.Fatalf("expected 1 backing load, got %d", inner.loads)
	}

	// TTL plus jitter is at most 10% over; an hour later the entry is gone.
	now = now.Add(time.Hour)
	if _, err := cache.Load(ctx, "deck-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if inner.loads != 2 {
		t.Fatalf("expected reload after expiry, got %d loads", inner.loads)
	}
}

func TestDeckCacheMirrorsWritesIntoCachedRows(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{inner: NewDeckStore(sampleDeck())}
	cache := NewDeckCache(inner, 5*time.Minute)

	if _, err := cache.Load(ctx, "deck-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	reviewedAt := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	if err := cache.WriteResult(ctx, "deck-1", 1, domain.ResultCorrect, reviewedAt, "my answer"); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := cache.Load(ctx, "deck-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if inner.loads != 1 {
		t.Fatalf("write should not evict the cache, got %d loads", inner.loads)
	}
	if rows[1].LastResult != domain.ResultCorrect || rows[1].UserAnswer != "my answer" {
		t.Fatalf("cached row not updated: %+v", rows[1])
	}
	if rows[0].LastResult != domain.ResultNone {
		t.Fatalf("write leaked onto the wrong row: %+v", rows[0])
	}
}

func TestDeckStoreWriteByOriginalPosition(t *testing.T) {
	ctx := context.Background()
	store := NewDeckStore(sampleDeck())

	reviewedAt := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	if err := store.WriteResult(ctx, "deck-1", 0, domain.ResultIncorrect, reviewedAt, "wrong guess"); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := store.Load(ctx, "deck-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rows[0].LastResult != domain.ResultIncorrect || !rows[0].LastReviewedAt.Equal(reviewedAt) {
		t.Fatalf("write did not land on row 0: %+v", rows[0])
	}
	if rows[1].LastResult != domain.ResultNone {
		t.Fatalf("write landed on the wrong row: %+v", rows[1])
	}

	if err := store.WriteResult(ctx, "deck-1", 99, domain.ResultCorrect, reviewedAt, ""); err != domain.ErrRowNotFound {
		t.Fatalf("expected ErrRowNotFound, got %v", err)
	}
	if err := store.WriteResult(ctx, "missing", 0, domain.ResultCorrect, reviewedAt, ""); err != domain.ErrDeckNotFound {
		t.Fatalf("expected ErrDeckNotFound, got %v", err)
	}
}
