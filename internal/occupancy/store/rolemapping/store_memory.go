package rolemapping

import (
	"context"
	"sync"
	"time"

	"offboard/internal/occupancy/models"
	"offboard/pkg/domain"
	dErrors "offboard/pkg/domain-errors"
)

// InMemoryStore keeps role and delegation mappings in slices. The active
// lookup mirrors the business rule of at most one active mapping per pair:
// it returns the first active hit.
type InMemoryStore struct {
	mu          sync.RWMutex
	mappings    []*models.RoleMapping
	delegations []*models.DelegationMapping
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{}
}

// Add seeds a role mapping. Test helper.
func (s *InMemoryStore) Add(m *models.RoleMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.mappings = append(s.mappings, &cp)
}

// AddDelegation seeds a delegation mapping. Test helper.
func (s *InMemoryStore) AddDelegation(d *models.DelegationMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.delegations = append(s.delegations, &cp)
}

func (s *InMemoryStore) FindActive(_ context.Context, unitID domain.UnitID, userID domain.UserID) (*models.RoleMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.mappings {
		if m.Active && m.UnitID == unitID && m.UserID == userID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) Deactivate(_ context.Context, mappingID int64, endDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.mappings {
		if m.ID == mappingID {
			m.Active = false
			end := endDate
			m.EndDate = &end
			return nil
		}
	}
	return dErrors.New(dErrors.CodeNotFound, "role mapping not found")
}

func (s *InMemoryStore) HasOtherActiveOwner(_ context.Context, userID domain.UserID, exclude domain.UnitID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.mappings {
		if m.Active && m.UserID == userID && m.UnitID != exclude &&
			(m.Role == models.RoleOwner || m.Role == models.RolePermitHolder) {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) ListActiveDelegations(_ context.Context, unitID domain.UnitID, grantorID domain.UserID) ([]*models.DelegationMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.DelegationMapping
	for _, d := range s.delegations {
		if d.Active && d.UnitID == unitID && d.GrantorID == grantorID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) DeactivateDelegation(_ context.Context, delegationID int64, endDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.delegations {
		if d.ID == delegationID {
			d.Active = false
			end := endDate
			d.EndDate = &end
			return nil
		}
	}
	return dErrors.New(dErrors.CodeNotFound, "delegation mapping not found")
}

// FindByID returns a mapping regardless of activity. Test helper.
func (s *InMemoryStore) FindByID(id int64) *models.RoleMapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.mappings {
		if m.ID == id {
			cp := *m
			return &cp
		}
	}
	return nil
}
