package memory

import (
	"context"
	"sync"
	"time"

	"recall-drill/internal/domain"
)

// MissionStore keeps the study checklist in memory.
type MissionStore struct {
	mu       sync.RWMutex
	missions []domain.Mission
}

func NewMissionStore(missions []domain.Mission) *MissionStore {
	copied := make([]domain.Mission, len(missions))
	copy(copied, missions)
	return &MissionStore{missions: copied}
}

func (s *MissionStore) List(_ context.Context) ([]domain.Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Mission, len(s.missions))
	copy(out, s.missions)
	return out, nil
}

func (s *MissionStore) Append(_ context.Context, mission domain.Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missions = append(s.missions, mission)
	return nil
}

func (s *MissionStore) Complete(_ context.Context, id int, completedAt time.Time, elapsedMinutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.missions {
		if s.missions[i].ID == id {
			s.missions[i].Done = true
			s.missions[i].CompletedAt = completedAt
			s.missions[i].ElapsedMinutes = elapsedMinutes
			return nil
		}
	}
	return domain.ErrMissionNotFound
}

// TimeLogStore is an append-only in-memory study-time log.
type TimeLogStore struct {
	mu      sync.RWMutex
	entries []domain.TimeLogEntry
}

func NewTimeLogStore() *TimeLogStore {
	return &TimeLogStore{}
}

func (s *TimeLogStore) Append(_ context.Context, entry domain.TimeLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *TimeLogStore) Entries(_ context.Context) ([]domain.TimeLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TimeLogEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}
