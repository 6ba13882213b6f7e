package sheets

import (
	"context"
	"fmt"
	"time"

	"recall-drill/internal/domain"
	gsheets "google.golang.org/api/sheets/v4"
)

// Required deck columns. The header row names them; data starts on row 2.
const (
	colSubject    = "Subject"
	colQuestion   = "Question"
	colAnswer     = "Answer"
	colResult     = "Result"
	colDate       = "Date"
	colUserAnswer = "UserAnswer"

	timestampLayout = "2006-01-02 15:04:05"
)

// DeckRef points a deck id at a worksheet inside a spreadsheet.
type DeckRef struct {
	SpreadsheetID string
	Worksheet     string
}

// DeckStore loads decks from and writes results back to Google Sheets
// worksheets. Concurrent editors of the same sheet are not coordinated;
// last writer wins.
type DeckStore struct {
	svc     *gsheets.Service
	catalog map[string]DeckRef
}

func NewDeckStore(svc *gsheets.Service, catalog map[string]DeckRef) *DeckStore {
	return &DeckStore{svc: svc, catalog: catalog}
}

// Topics lists the worksheet titles of the spreadsheet backing a deck.
func (s *DeckStore) Topics(ctx context.Context, deckID string) ([]string, error) {
	ref, ok := s.catalog[deckID]
	if !ok {
		return nil, domain.ErrDeckNotFound
	}
	doc, err := s.svc.Spreadsheets.Get(ref.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list worksheets: %w", err)
	}
	titles := make([]string, 0, len(doc.Sheets))
	for _, sheet := range doc.Sheets {
		titles = append(titles, sheet.Properties.Title)
	}
	return titles, nil
}

func (s *DeckStore) Load(ctx context.Context, deckID string) ([]domain.QuestionRecord, error) {
	ref, ok := s.catalog[deckID]
	if !ok {
		return nil, domain.ErrDeckNotFound
	}
	resp, err := s.svc.Spreadsheets.Values.Get(ref.SpreadsheetID, ref.Worksheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("load worksheet: %w", err)
	}

	header, err := headerIndexes(deckID, resp.Values)
	if err != nil {
		return nil, err
	}

	records := make([]domain.QuestionRecord, 0, len(resp.Values)-1)
	for i, row := range resp.Values[1:] {
		rec := domain.QuestionRecord{
			Subject:          cell(row, header[colSubject]),
			Question:         cell(row, header[colQuestion]),
			ReferenceAnswer:  cell(row, header[colAnswer]),
			LastResult:       domain.ParseResultLabel(cell(row, header[colResult])),
			OriginalPosition: i,
		}
		// Unparsable or blank dates read as never reviewed.
		if ts, err := time.ParseInLocation(timestampLayout, cell(row, header[colDate]), time.Local); err == nil {
			rec.LastReviewedAt = ts
		}
		if idx, ok := header[colUserAnswer]; ok {
			rec.UserAnswer = cell(row, idx)
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteResult updates the result and timestamp cells of the record's
// original row, plus the raw user answer. The UserAnswer column is created
// on first use, immediately after the Date column. Each cell is written
// separately; a failure after the first write is reported as an error, it is
// never silently ignored.
func (s *DeckStore) WriteResult(ctx context.Context, deckID string, originalPosition int, label domain.ResultLabel, reviewedAt time.Time, userAnswer string) error {
	ref, ok := s.catalog[deckID]
	if !ok {
		return domain.ErrDeckNotFound
	}
	resp, err := s.svc.Spreadsheets.Values.Get(ref.SpreadsheetID, ref.Worksheet+"!1:1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	header, err := headerIndexes(deckID, resp.Values)
	if err != nil {
		return err
	}

	answerCol, ok := header[colUserAnswer]
	if !ok {
		answerCol = header[colDate] + 1
		if err := s.updateCell(ctx, ref, 1, answerCol, colUserAnswer); err != nil {
			return fmt.Errorf("create %s column: %w", colUserAnswer, err)
		}
	}

	// Row 1 is the header, so data row N lives at sheet row N+2.
	row := originalPosition + 2
	if err := s.updateCell(ctx, ref, row, header[colResult], string(label)); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if err := s.updateCell(ctx, ref, row, header[colDate], reviewedAt.Format(timestampLayout)); err != nil {
		return fmt.Errorf("write timestamp: %w", err)
	}
	if err := s.updateCell(ctx, ref, row, answerCol, userAnswer); err != nil {
		return fmt.Errorf("write user answer: %w", err)
	}
	return nil
}

func (s *DeckStore) updateCell(ctx context.Context, ref DeckRef, row, col int, value string) error {
	rng := fmt.Sprintf("%s!%s%d", ref.Worksheet, columnLetter(col), row)
	vr := &gsheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := s.svc.Spreadsheets.Values.Update(ref.SpreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// headerIndexes maps required column names to zero-based indexes, failing the
// whole load when any is missing.
func headerIndexes(deckID string, values [][]interface{}) (map[string]int, error) {
	required := []string{colSubject, colQuestion, colAnswer, colResult, colDate}
	if len(values) == 0 {
		return nil, &domain.MissingColumnsError{Deck: deckID, Columns: required}
	}
	header := make(map[string]int, len(values[0]))
	for i, v := range values[0] {
		if name, ok := v.(string); ok {
			header[name] = i
		}
	}
	var missing []string
	for _, name := range required {
		if _, ok := header[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.MissingColumnsError{Deck: deckID, Columns: missing}
	}
	return header, nil
}

func cell(row []interface{}, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	if s, ok := row[index].(string); ok {
		return s
	}
	return fmt.Sprint(row[index])
}
