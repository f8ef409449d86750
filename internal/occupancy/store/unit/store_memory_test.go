package unit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"offboard/internal/occupancy/models"
	"offboard/pkg/domain"
	dErrors "offboard/pkg/domain-errors"
)

type UnitStoreSuite struct {
	suite.Suite
	ctx   context.Context
	now   time.Time
	store *InMemoryStore
}

func TestUnitStoreSuite(t *testing.T) {
	suite.Run(t, new(UnitStoreSuite))
}

func (s *UnitStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 1, 2, 0, 5, 0, 0, time.UTC)
	s.store = NewMemory(WithClock(func() time.Time { return s.now }))
}

func (s *UnitStoreSuite) TestGetByID() {
	s.store.Add(&models.Unit{ID: 55, Number: "A-55", OccupancyStatus: models.StatusTenant})

	s.Run("returns a copy of the stored unit", func() {
		u, err := s.store.GetByID(s.ctx, 55)
		s.Require().NoError(err)
		s.Require().NotNil(u)
		u.OccupancyStatus = models.StatusOwner

		again, err := s.store.GetByID(s.ctx, 55)
		s.Require().NoError(err)
		s.Equal(models.StatusTenant, again.OccupancyStatus)
	})

	s.Run("missing unit is nil, not an error", func() {
		u, err := s.store.GetByID(s.ctx, 999)
		s.NoError(err)
		s.Nil(u)
	})
}

func (s *UnitStoreSuite) TestSetVacant() {
	s.store.Add(&models.Unit{ID: 55, OccupancyStatus: models.StatusTenant, UpdatedAt: s.now.Add(-24 * time.Hour)})

	s.Run("flips status and stamps the actor", func() {
		s.Require().NoError(s.store.SetVacant(s.ctx, 55, 1))

		u, err := s.store.GetByID(s.ctx, 55)
		s.Require().NoError(err)
		s.Equal(models.StatusVacant, u.OccupancyStatus)
		s.Equal(domain.UserID(1), u.UpdatedBy)
		s.True(u.UpdatedAt.Equal(s.now))
	})

	s.Run("missing unit is not found", func() {
		err := s.store.SetVacant(s.ctx, 999, 1)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
