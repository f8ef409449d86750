package delegated

import (
	"context"
	"sync"

	"offboard/internal/occupancy/models"
	"offboard/pkg/domain"
	dErrors "offboard/pkg/domain-errors"
)

// InMemoryStore keeps delegated-access records (access cards, POA, visitor
// requests) in slices.
type InMemoryStore struct {
	mu       sync.RWMutex
	cards    []*models.AccessCardRequest
	poaReqs  []*models.POARequest
	grants   []*models.POAGrant
	visitors []*models.VisitorRequest
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{}
}

// Seed helpers for tests.

func (s *InMemoryStore) AddAccessCardRequest(r *models.AccessCardRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.cards = append(s.cards, &cp)
}

func (s *InMemoryStore) AddPOARequest(r *models.POARequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.poaReqs = append(s.poaReqs, &cp)
}

func (s *InMemoryStore) AddPOAGrant(g *models.POAGrant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	s.grants = append(s.grants, &cp)
}

func (s *InMemoryStore) AddVisitorRequest(v *models.VisitorRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.visitors = append(s.visitors, &cp)
}

func (s *InMemoryStore) ListAccessCardRequests(_ context.Context, unitID domain.UnitID, userID domain.UserID) (map[models.AccessCardStatus][]*models.AccessCardRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	grouped := make(map[models.AccessCardStatus][]*models.AccessCardRequest)
	for _, r := range s.cards {
		if r.Active && r.UnitID == unitID && r.UserID == userID {
			cp := *r
			grouped[r.Status] = append(grouped[r.Status], &cp)
		}
	}
	return grouped, nil
}

func (s *InMemoryStore) CancelAccessCardRequest(_ context.Context, requestID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.cards {
		if r.ID == requestID {
			if r.Status != models.CardStatusOpen && r.Status != models.CardStatusPending {
				return dErrors.New(dErrors.CodeConflict, "access card request not locally cancellable")
			}
			r.Status = models.CardStatusCancelled
			r.Active = false
			return nil
		}
	}
	return dErrors.New(dErrors.CodeNotFound, "access card request not found")
}

func (s *InMemoryStore) ListPOARequests(_ context.Context, unitID domain.UnitID, userID domain.UserID) ([]*models.POARequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.POARequest
	for _, r := range s.poaReqs {
		if r.Active && r.UnitID == unitID && r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) CancelPOARequest(_ context.Context, requestID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.poaReqs {
		if r.ID == requestID {
			if r.Status.Terminal() {
				return nil
			}
			r.Status = models.POAStatusCancelled
			r.Active = false
			return nil
		}
	}
	return dErrors.New(dErrors.CodeNotFound, "poa request not found")
}

func (s *InMemoryStore) DeactivatePOAGrants(_ context.Context, unitID domain.UnitID, grantorID domain.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, g := range s.grants {
		if g.Active && g.UnitID == unitID && g.GrantorID == grantorID {
			g.Active = false
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) DeactivateVisitorRequests(_ context.Context, unitID domain.UnitID, createdBy domain.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.visitors {
		if v.Active && v.UnitID == unitID && v.CreatedBy == createdBy {
			v.Active = false
			n++
		}
	}
	return n, nil
}

// CardByID returns a card request regardless of state. Test helper.
func (s *InMemoryStore) CardByID(id int64) *models.AccessCardRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.cards {
		if r.ID == id {
			cp := *r
			return &cp
		}
	}
	return nil
}

// POARequestByID returns a POA request regardless of state. Test helper.
func (s *InMemoryStore) POARequestByID(id int64) *models.POARequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.poaReqs {
		if r.ID == id {
			cp := *r
			return &cp
		}
	}
	return nil
}
