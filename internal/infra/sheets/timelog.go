package sheets

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"recall-drill/internal/domain"
	gsheets "google.golang.org/api/sheets/v4"
)

// TimeLog appends (date, subject, minutes) rows to a worksheet and reads
// them back for the display aggregates.
type TimeLog struct {
	svc           *gsheets.Service
	spreadsheetID string
	worksheet     string
}

func NewTimeLog(svc *gsheets.Service, spreadsheetID, worksheet string) *TimeLog {
	return &TimeLog{svc: svc, spreadsheetID: spreadsheetID, worksheet: worksheet}
}

func (l *TimeLog) Append(ctx context.Context, entry domain.TimeLogEntry) error {
	vr := &gsheets.ValueRange{Values: [][]interface{}{{
		entry.Date.Format(dateLayout),
		entry.Subject,
		strconv.Itoa(entry.Minutes),
	}}}
	_, err := l.svc.Spreadsheets.Values.Append(l.spreadsheetID, l.worksheet, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append time log: %w", err)
	}
	return nil
}

func (l *TimeLog) Entries(ctx context.Context) ([]domain.TimeLogEntry, error) {
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, l.worksheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("load time log: %w", err)
	}
	if len(resp.Values) <= 1 {
		return nil, nil
	}
	entries := make([]domain.TimeLogEntry, 0, len(resp.Values)-1)
	for _, row := range resp.Values[1:] {
		date, err := time.ParseInLocation(dateLayout, cell(row, 0), time.Local)
		if err != nil {
			continue
		}
		minutes, err := strconv.Atoi(cell(row, 2))
		if err != nil {
			continue
		}
		entries = append(entries, domain.TimeLogEntry{Date: date, Subject: cell(row, 1), Minutes: minutes})
	}
	return entries, nil
}
