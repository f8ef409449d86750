package terms

import (
	"context"
	"sort"
	"sync"
	"time"

	"offboard/internal/occupancy/models"
)

// InMemoryStore keeps the four occupancy term shapes in slices and answers
// the due-term queries with the same filters the SQL store applies: record
// active, parent request active and of the matching role kind, end date
// non-null and on or before asOf. Results are ordered by (unit, user) so
// resolution is deterministic.
type InMemoryStore struct {
	mu        sync.RWMutex
	moveOuts  []*models.OwnerMoveOut
	leases    []*models.TenantLease
	contracts []*models.CompanyLease
	permits   []*models.OwnerPermit
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{}
}

// Seed helpers for tests.

func (s *InMemoryStore) AddOwnerMoveOut(r *models.OwnerMoveOut) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.moveOuts = append(s.moveOuts, &cp)
}

func (s *InMemoryStore) AddTenantLease(r *models.TenantLease) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.leases = append(s.leases, &cp)
}

func (s *InMemoryStore) AddCompanyLease(r *models.CompanyLease) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.contracts = append(s.contracts, &cp)
}

func (s *InMemoryStore) AddOwnerPermit(r *models.OwnerPermit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.permits = append(s.permits, &cp)
}

func (s *InMemoryStore) DueOwnerMoveOuts(_ context.Context, asOf time.Time) ([]*models.OwnerMoveOut, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.OwnerMoveOut
	for _, r := range s.moveOuts {
		if r.Active && r.RequestActive && r.RequestRole == models.RoleOwner && models.TermDue(r.EndDate(), asOf) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitID != out[j].UnitID {
			return out[i].UnitID < out[j].UnitID
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *InMemoryStore) DueTenantLeases(_ context.Context, asOf time.Time) ([]*models.TenantLease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TenantLease
	for _, r := range s.leases {
		if r.Active && r.RequestActive && r.RequestRole == models.RoleTenant && models.TermDue(r.EndDate(), asOf) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitID != out[j].UnitID {
			return out[i].UnitID < out[j].UnitID
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *InMemoryStore) DueCompanyLeases(_ context.Context, asOf time.Time) ([]*models.CompanyLease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CompanyLease
	for _, r := range s.contracts {
		if r.Active && r.RequestActive && r.RequestRole == models.RoleCompanyTenant && models.TermDue(r.EndDate(), asOf) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitID != out[j].UnitID {
			return out[i].UnitID < out[j].UnitID
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *InMemoryStore) DueOwnerPermits(_ context.Context, asOf time.Time) ([]*models.OwnerPermit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.OwnerPermit
	for _, r := range s.permits {
		if r.Active && r.RequestActive && r.RequestRole == models.RolePermitHolder && models.TermDue(r.EndDate(), asOf) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitID != out[j].UnitID {
			return out[i].UnitID < out[j].UnitID
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}
