package unit

import (
	"context"
	"sync"
	"time"

	"offboard/internal/occupancy/models"
	"offboard/pkg/domain"
	dErrors "offboard/pkg/domain-errors"
)

// Clock supplies the current time; injectable for tests.
type Clock func() time.Time

// InMemoryStore keeps units in a map. Used by unit tests and local runs.
type InMemoryStore struct {
	mu    sync.RWMutex
	units map[domain.UnitID]*models.Unit
	clock Clock
}

// MemoryOption configures an InMemoryStore.
type MemoryOption func(*InMemoryStore)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) MemoryOption {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewMemory(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		units: make(map[domain.UnitID]*models.Unit),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add seeds a unit. Test helper, not part of the store contract.
func (s *InMemoryStore) Add(u *models.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.units[u.ID] = &cp
}

func (s *InMemoryStore) GetByID(_ context.Context, unitID domain.UnitID) (*models.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[unitID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *InMemoryStore) SetVacant(_ context.Context, unitID domain.UnitID, updatedBy domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[unitID]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "unit not found")
	}
	u.OccupancyStatus = models.StatusVacant
	u.UpdatedBy = updatedBy
	u.UpdatedAt = s.clock()
	return nil
}
