package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"recall-drill/internal/app"
	"recall-drill/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// DeckCache caches deck rows in Redis (one JSON blob per deck) and falls
// back to the inner store on a miss. Writes pass through to the inner store
// and invalidate the cached blob so the next load reflects them.
type DeckCache struct {
	client *redis.Client
	inner  app.DeckStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewDeckCache(client *redis.Client, inner app.DeckStore, ttl time.Duration) *DeckCache {
	return &DeckCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type cachedRecord struct {
	Subject         string    `json:"subject"`
	Question        string    `json:"question"`
	ReferenceAnswer string    `json:"answer"`
	LastResult      string    `json:"result"`
	LastReviewedAt  time.Time `json:"reviewedAt"`
	UserAnswer      string    `json:"userAnswer,omitempty"`
	Position        int       `json:"position"`
}

func (c *DeckCache) Load(ctx context.Context, deckID string) ([]domain.QuestionRecord, error) {
	key := c.key(deckID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		if rows, err := decodeRows(raw); err == nil {
			return rows, nil
		}
	}

	result, err, _ := c.sf.Do(deckID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			if rows, err := decodeRows(raw); err == nil {
				return rows, nil
			}
		}

		rows, err := c.inner.Load(ctx, deckID)
		if err != nil {
			return nil, err
		}

		if raw, err := encodeRows(rows); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
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
	// Invalidate rather than patch: the blob is cheap to rebuild and a stale
	// patch could desynchronize positions.
	_ = c.client.Del(ctx, c.key(deckID)).Err()
	return nil
}

func (c *DeckCache) key(deckID string) string {
	return "deck:" + deckID + ":rows"
}

func (c *DeckCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func encodeRows(rows []domain.QuestionRecord) ([]byte, error) {
	out := make([]cachedRecord, len(rows))
	for i, r := range rows {
		out[i] = cachedRecord{
			Subject:         r.Subject,
			Question:        r.Question,
			ReferenceAnswer: r.ReferenceAnswer,
			LastResult:      string(r.LastResult),
			LastReviewedAt:  r.LastReviewedAt,
			UserAnswer:      r.UserAnswer,
			Position:        r.OriginalPosition,
		}
	}
	return json.Marshal(out)
}

func decodeRows(raw []byte) ([]domain.QuestionRecord, error) {
	var cached []cachedRecord
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, err
	}
	rows := make([]domain.QuestionRecord, len(cached))
	for i, r := range cached {
		rows[i] = domain.QuestionRecord{
			Subject:          r.Subject,
			Question:         r.Question,
			ReferenceAnswer:  r.ReferenceAnswer,
			LastResult:       domain.ParseResultLabel(r.LastResult),
			LastReviewedAt:   r.LastReviewedAt,
			UserAnswer:       r.UserAnswer,
			OriginalPosition: r.Position,
		}
	}
	return rows, nil
}
