package app

import (
	"context"
	"time"

	"recall-drill/internal/domain"
)

// MissionStore holds the study checklist. Creation is append-only; missions
// are never deleted by this service.
type MissionStore interface {
	List(ctx context.Context) ([]domain.Mission, error)
	Append(ctx context.Context, mission domain.Mission) error
	Complete(ctx context.Context, id int, completedAt time.Time, elapsedMinutes int) error
}

// TimeLog is an append-only study-time log, read back only for display
// aggregates.
type TimeLog interface {
	Append(ctx context.Context, entry domain.TimeLogEntry) error
	Entries(ctx context.Context) ([]domain.TimeLogEntry, error)
}

// MissionService is a minimal state machine over the ordered checklist.
type MissionService struct {
	missions MissionStore
	timelog  TimeLog
	now      func() time.Time
}

func NewMissionService(missions MissionStore, timelog TimeLog) *MissionService {
	return &MissionService{missions: missions, timelog: timelog, now: time.Now}
}

// NewMissionServiceWithClock is test-only for deterministic timestamps.
func NewMissionServiceWithClock(missions MissionStore, timelog TimeLog, now func() time.Time) *MissionService {
	return &MissionService{missions: missions, timelog: timelog, now: now}
}

// NextPending returns the first incomplete mission in checklist order, or
// ok=false when everything is done.
func (s *MissionService) NextPending(ctx context.Context) (domain.Mission, bool, error) {
	missions, err := s.missions.List(ctx)
	if err != nil {
		return domain.Mission{}, false, domain.Surface("load missions", err)
	}
	for _, m := range missions {
		if !m.Done {
			return m, true, nil
		}
	}
	return domain.Mission{}, false, nil
}

// Create appends a new mission. Ids grow monotonically (max existing + 1, or
// 1 for an empty list) and are never reused.
func (s *MissionService) Create(ctx context.Context, description, subject string) (int, error) {
	missions, err := s.missions.List(ctx)
	if err != nil {
		return 0, domain.Surface("load missions", err)
	}
	id := 1
	for _, m := range missions {
		if m.ID >= id {
			id = m.ID + 1
		}
	}
	mission := domain.Mission{ID: id, Description: description, Subject: subject}
	if err := s.missions.Append(ctx, mission); err != nil {
		return 0, domain.Surface("create mission", err)
	}
	return id, nil
}

// Complete marks a mission done. When elapsed minutes are supplied they are
// stored on the mission and forwarded to the time log under the mission's
// subject.
func (s *MissionService) Complete(ctx context.Context, id, elapsedMinutes int) error {
	missions, err := s.missions.List(ctx)
	if err != nil {
		return domain.Surface("load missions", err)
	}
	var mission *domain.Mission
	for i := range missions {
		if missions[i].ID == id {
			mission = &missions[i]
			break
		}
	}
	if mission == nil {
		return domain.ErrMissionNotFound
	}

	completedAt := s.now()
	if err := s.missions.Complete(ctx, id, completedAt, elapsedMinutes); err != nil {
		return domain.Surface("complete mission", err)
	}
	if elapsedMinutes > 0 && s.timelog != nil {
		entry := domain.TimeLogEntry{Date: completedAt, Subject: mission.Subject, Minutes: elapsedMinutes}
		if err := s.timelog.Append(ctx, entry); err != nil {
			return domain.Surface("log study time", err)
		}
	}
	return nil
}

// WeeklySummary aggregates logged minutes per calendar day for the last 7
// days including today, oldest day first. Days without entries appear with
// zero minutes so a bar display stays aligned.
func (s *MissionService) WeeklySummary(ctx context.Context) ([]domain.DayTotal, error) {
	entries, err := s.timelog.Entries(ctx)
	if err != nil {
		return nil, domain.Surface("load time log", err)
	}
	today := dayOf(s.now())
	totals := make([]domain.DayTotal, 7)
	for i := range totals {
		totals[i].Date = today.AddDate(0, 0, i-6)
	}
	for _, e := range entries {
		day := dayOf(e.Date)
		offset := int(day.Sub(today.AddDate(0, 0, -6)).Hours() / 24)
		if offset >= 0 && offset < 7 {
			totals[offset].Minutes += e.Minutes
		}
	}
	return totals, nil
}

// TodayTotal sums the minutes logged on the current calendar day.
func (s *MissionService) TodayTotal(ctx context.Context) (int, error) {
	entries, err := s.timelog.Entries(ctx)
	if err != nil {
		return 0, domain.Surface("load time log", err)
	}
	today := dayOf(s.now())
	total := 0
	for _, e := range entries {
		if dayOf(e.Date).Equal(today) {
			total += e.Minutes
		}
	}
	return total, nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
