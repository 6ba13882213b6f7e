package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"recall-drill/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// DeckStore reads and writes deck rows mirrored into Postgres. Row position
// within a deck is the write-back key, matching the spreadsheet layout the
// rows were imported from.
type DeckStore struct {
	pool *pgxpool.Pool
}

func NewDeckStore(pool *pgxpool.Pool) *DeckStore {
	return &DeckStore{pool: pool}
}

func (s *DeckStore) Load(ctx context.Context, deckID string) ([]domain.QuestionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT position, subject, question, answer, result, reviewed_at, user_answer
		FROM deck_rows
		WHERE deck_id=$1
		ORDER BY position`, deckID)
	if err != nil {
		return nil, fmt.Errorf("load deck: %w", err)
	}
	defer rows.Close()

	var records []domain.QuestionRecord
	for rows.Next() {
		var (
			position   int
			subject    string
			question   string
			answer     string
			result     string
			reviewedAt sql.NullTime
			userAnswer string
		)
		if err := rows.Scan(&position, &subject, &question, &answer, &result, &reviewedAt, &userAnswer); err != nil {
			return nil, fmt.Errorf("scan deck row: %w", err)
		}
		rec := domain.QuestionRecord{
			Subject:          subject,
			Question:         question,
			ReferenceAnswer:  answer,
			LastResult:       domain.ParseResultLabel(result),
			UserAnswer:       userAnswer,
			OriginalPosition: position,
		}
		if reviewedAt.Valid {
			rec.LastReviewedAt = reviewedAt.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load deck: %w", err)
	}
	if len(records) == 0 {
		return nil, domain.ErrDeckNotFound
	}
	return records, nil
}

func (s *DeckStore) WriteResult(ctx context.Context, deckID string, originalPosition int, label domain.ResultLabel, reviewedAt time.Time, userAnswer string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE deck_rows
		SET result=$3, reviewed_at=$4, user_answer=$5
		WHERE deck_id=$1 AND position=$2`,
		deckID, originalPosition, string(label), reviewedAt, userAnswer)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRowNotFound
	}
	return nil
}
