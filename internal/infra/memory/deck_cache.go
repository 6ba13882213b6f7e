package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"recall-drill/internal/app"
	"recall-drill/internal/domain"
	"golang.org/x/sync/singleflight"
)

// DeckCache wraps a DeckStore with a TTL cache so redraw-heavy clients do
// not hammer the backing spreadsheet. Writes go straight through and are
// mirrored into the cached rows so the next load sees them.
type DeckCache struct {
	inner app.DeckStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedDeck
}

type cachedDeck struct {
	rows      []domain.QuestionRecord
	expiresAt time.Time
}

func NewDeckCache(inner app.DeckStore, ttl time.Duration) *DeckCache {
	return &DeckCache{
		inner: inner,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedDeck),
	}
}

func (c *DeckCache) Load(ctx context.Context, deckID string) ([]domain.QuestionRecord, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[deckID]; ok && entry.expiresAt.After(now) {
		rows := copyRows(entry.rows)
		c.mu.RUnlock()
		return rows, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(deckID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[deckID]; ok && entry.expiresAt.After(now) {
			rows := copyRows(entry.rows)
			c.mu.RUnlock()
			return rows, nil
		}
		c.mu.RUnlock()

		rows, err := c.inner.Load(ctx, deckID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[deckID] = cachedDeck{
			rows:      copyRows(rows),
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuestionRecord), nil
}

func (c *DeckCache) WriteResult(ctx context.Context, deckID string, originalPosition int, label domain.ResultLabel, reviewedAt time.Time, userAnswer string) error {
	if err := c.inner.WriteResult(ctx, deckID, originalPosition, label, reviewedAt, userAnswer); err != nil {
		return err
	}
	c.mu.Lock()
	if entry, ok := c.cache[deckID]; ok && originalPosition >= 0 && originalPosition < len(entry.rows) {
		entry.rows[originalPosition].LastResult = label
		entry.rows[originalPosition].LastReviewedAt = reviewedAt
		entry.rows[originalPosition].UserAnswer = userAnswer
	}
	c.mu.Unlock()
	return nil
}

func (c *DeckCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func copyRows(rows []domain.QuestionRecord) []domain.QuestionRecord {
	out := make([]domain.QuestionRecord, len(rows))
	copy(out, rows)
	return out
}
