package sheets

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"recall-drill/internal/domain"
	gsheets "google.golang.org/api/sheets/v4"
)

// Mission sheet columns, fixed order: ID, Description, Subject, Status,
// CompletedAt, ElapsedMinutes.
const (
	missionColID = iota
	missionColDescription
	missionColSubject
	missionColStatus
	missionColCompletedAt
	missionColElapsed

	missionStatusDone    = "Done"
	missionStatusPending = "Pending"

	dateLayout = "2006-01-02"
)

// MissionStore keeps the study checklist in a worksheet. Rows are appended
// on creation and updated in place on completion, never deleted.
type MissionStore struct {
	svc           *gsheets.Service
	spreadsheetID string
	worksheet     string
}

func NewMissionStore(svc *gsheets.Service, spreadsheetID, worksheet string) *MissionStore {
	return &MissionStore{svc: svc, spreadsheetID: spreadsheetID, worksheet: worksheet}
}

func (s *MissionStore) List(ctx context.Context) ([]domain.Mission, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.worksheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("load missions: %w", err)
	}
	if len(resp.Values) <= 1 {
		return nil, nil
	}
	missions := make([]domain.Mission, 0, len(resp.Values)-1)
	for _, row := range resp.Values[1:] {
		id, err := strconv.Atoi(cell(row, missionColID))
		if err != nil {
			continue
		}
		mission := domain.Mission{
			ID:          id,
			Description: cell(row, missionColDescription),
			Subject:     cell(row, missionColSubject),
			Done:        cell(row, missionColStatus) == missionStatusDone,
		}
		if ts, err := time.ParseInLocation(dateLayout, cell(row, missionColCompletedAt), time.Local); err == nil {
			mission.CompletedAt = ts
		}
		if minutes, err := strconv.Atoi(cell(row, missionColElapsed)); err == nil {
			mission.ElapsedMinutes = minutes
		}
		missions = append(missions, mission)
	}
	return missions, nil
}

func (s *MissionStore) Append(ctx context.Context, mission domain.Mission) error {
	vr := &gsheets.ValueRange{Values: [][]interface{}{{
		strconv.Itoa(mission.ID),
		mission.Description,
		mission.Subject,
		missionStatusPending,
		"",
		"",
	}}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.worksheet, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append mission: %w", err)
	}
	return nil
}

func (s *MissionStore) Complete(ctx context.Context, id int, completedAt time.Time, elapsedMinutes int) error {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.worksheet).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("load missions: %w", err)
	}
	row := -1
	if len(resp.Values) > 1 {
		for i, r := range resp.Values[1:] {
			if cell(r, missionColID) == strconv.Itoa(id) {
				row = i + 2
				break
			}
		}
	}
	if row < 0 {
		return domain.ErrMissionNotFound
	}

	elapsed := ""
	if elapsedMinutes > 0 {
		elapsed = strconv.Itoa(elapsedMinutes)
	}
	rng := fmt.Sprintf("%s!%s%d:%s%d",
		s.worksheet, columnLetter(missionColStatus), row, columnLetter(missionColElapsed), row)
	vr := &gsheets.ValueRange{Values: [][]interface{}{{
		missionStatusDone,
		completedAt.Format(dateLayout),
		elapsed,
	}}}
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("complete mission: %w", err)
	}
	return nil
}
