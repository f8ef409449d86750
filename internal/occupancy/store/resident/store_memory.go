package resident

import (
	"context"
	"sync"

	"offboard/internal/occupancy/models"
	"offboard/pkg/domain"
	dErrors "offboard/pkg/domain-errors"
)

// InMemoryStore answers the owner-exit questions from maps and slices.
type InMemoryStore struct {
	mu       sync.RWMutex
	emails   map[domain.UserID]string
	bookings []*models.Booking
	// bookingUnits maps booking id to the unit it belongs to, so "other
	// active booking" can exclude the unit being processed.
	bookingUnits map[int64]domain.UnitID
	updates      []*models.ProfileUpdateRequest
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		emails:       make(map[domain.UserID]string),
		bookingUnits: make(map[int64]domain.UnitID),
	}
}

// SetEmail seeds a user's email. Test helper.
func (s *InMemoryStore) SetEmail(userID domain.UserID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails[userID] = email
}

// AddBooking seeds a booking tied to a unit. Test helper.
func (s *InMemoryStore) AddBooking(b *models.Booking, unitID domain.UnitID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bookings = append(s.bookings, &cp)
	s.bookingUnits[b.ID] = unitID
}

// AddProfileUpdate seeds a pending identity amendment. Test helper.
func (s *InMemoryStore) AddProfileUpdate(r *models.ProfileUpdateRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.updates = append(s.updates, &cp)
}

func (s *InMemoryStore) EmailByUser(_ context.Context, userID domain.UserID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email, ok := s.emails[userID]
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "user email not found")
	}
	return email, nil
}

func (s *InMemoryStore) HasOtherActiveBooking(_ context.Context, email string, exclude domain.UnitID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.Active && b.Email == email && s.bookingUnits[b.ID] != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) ListPendingProfileUpdates(_ context.Context, userID domain.UserID) ([]*models.ProfileUpdateRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ProfileUpdateRequest
	for _, r := range s.updates {
		if r.UserID == userID && r.Status == models.ProfileUpdatePending {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkProfileUpdateApproved(_ context.Context, requestID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.updates {
		if r.ID == requestID {
			r.Status = models.ProfileUpdateApproved
			return nil
		}
	}
	return dErrors.New(dErrors.CodeNotFound, "profile update request not found")
}

// UpdateByID returns an amendment request regardless of state. Test helper.
func (s *InMemoryStore) UpdateByID(id int64) *models.ProfileUpdateRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.updates {
		if r.ID == id {
			cp := *r
			return &cp
		}
	}
	return nil
}
