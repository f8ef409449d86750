package deallocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"offboard/internal/eligibility"
	"offboard/internal/occupancy/models"
	"offboard/internal/occupancy/store/delegated"
	"offboard/internal/occupancy/store/resident"
	"offboard/internal/occupancy/store/rolemapping"
	"offboard/internal/occupancy/store/terms"
	"offboard/internal/occupancy/store/unit"
	"offboard/internal/runguard"
	"offboard/pkg/domain"
	"offboard/pkg/platform/audit"
	auditmemory "offboard/pkg/platform/audit/store/memory"
	"offboard/pkg/requestcontext"
)

type stubMinter struct {
	token string
	err   error
}

func (m stubMinter) Mint(string, time.Time) (string, error) {
	return m.token, m.err
}

type brokenSource struct{}

func (brokenSource) Kind() domain.SourceKind { return domain.SourceOwnerPermit }

func (brokenSource) DueTerms(context.Context, time.Time) ([]models.TermCandidate, error) {
	return nil, errors.New("connection refused")
}

type PipelineSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	lease    *runguard.InMemoryLease
	units    *unit.InMemoryStore
	roles    *rolemapping.InMemoryStore
	terms    *terms.InMemoryStore
	audits   *auditmemory.Store
	pipeline *Pipeline
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func (s *PipelineSuite) SetupTest() {
	s.now = time.Date(2025, 1, 2, 0, 5, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.lease = runguard.NewMemoryLease(runguard.WithClock(func() time.Time { return s.now }))
	s.units = unit.NewMemory()
	s.roles = rolemapping.NewMemory()
	s.terms = terms.NewMemory()
	s.audits = auditmemory.New()

	revoker := NewRevoker(
		s.units, s.roles, delegated.NewMemory(), resident.NewMemory(),
		&fakeAccessClient{}, &fakeIdentityClient{},
		WithAuditPublisher(s.audits),
	)
	s.pipeline = NewPipeline(
		runguard.New(s.lease),
		eligibility.New(eligibility.Sources(s.terms)),
		revoker,
		stubMinter{token: "test-token"},
		1,
		WithPipelineAuditPublisher(s.audits),
		WithWindow(30*time.Minute),
	)
}

func (s *PipelineSuite) actionsSeen() []audit.Action {
	var out []audit.Action
	for _, e := range s.audits.Events() {
		out = append(out, e.Action)
	}
	return out
}

func (s *PipelineSuite) seedDueTenancy(unitID domain.UnitID, userID domain.UserID) {
	end := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.units.Add(&models.Unit{ID: unitID, OccupancyStatus: models.StatusTenant})
	s.roles.Add(&models.RoleMapping{ID: int64(unitID), UnitID: unitID, UserID: userID, Role: models.RoleTenant, Active: true})
	s.terms.AddTenantLease(&models.TenantLease{
		ID: int64(unitID), UnitID: unitID, UserID: userID,
		Active: true, RequestActive: true, RequestRole: models.RoleTenant,
		LeaseEndDate: &end,
	})
}

// TestRunRevokesDuePairs drives a tick end to end against memory stores.
func (s *PipelineSuite) TestRunRevokesDuePairs() {
	s.seedDueTenancy(55, 9)
	s.seedDueTenancy(56, 10)

	s.pipeline.RunDailyDeallocation(s.ctx)

	for _, id := range []domain.UnitID{55, 56} {
		u, err := s.units.GetByID(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(models.StatusVacant, u.OccupancyStatus)
	}

	actions := s.actionsSeen()
	s.Equal(audit.ActionRunStarted, actions[0])
	s.Equal(audit.ActionRunCompleted, actions[len(actions)-1])
	s.Contains(actions, audit.ActionPairRevoked)
	s.Contains(actions, audit.ActionUnitVacated)
}

// TestGuardDenialSkipsRun verifies a held lease turns the tick into a no-op.
func (s *PipelineSuite) TestGuardDenialSkipsRun() {
	s.seedDueTenancy(55, 9)
	holder := s.lease.SharedWith("another-process")
	ok, err := holder.Acquire(s.ctx, JobName, time.Hour)
	s.Require().NoError(err)
	s.Require().True(ok)

	s.pipeline.RunDailyDeallocation(s.ctx)

	u, err := s.units.GetByID(s.ctx, 55)
	s.Require().NoError(err)
	s.Equal(models.StatusTenant, u.OccupancyStatus, "denied run must not touch any pair")
	s.Equal([]audit.Action{audit.ActionRunDenied}, s.actionsSeen())
}

// TestGuardFailClosed verifies a coordination-store outage denies the run.
func (s *PipelineSuite) TestGuardFailClosed() {
	s.seedDueTenancy(55, 9)
	s.lease.SetFailing(true)

	s.pipeline.RunDailyDeallocation(s.ctx)

	u, err := s.units.GetByID(s.ctx, 55)
	s.Require().NoError(err)
	s.Equal(models.StatusTenant, u.OccupancyStatus)
}

// TestResolveFailureAbortsRun verifies an eligibility error stops the run
// before any pair is touched.
func (s *PipelineSuite) TestResolveFailureAbortsRun() {
	s.seedDueTenancy(55, 9)
	broken := append(eligibility.Sources(s.terms), brokenSource{})
	s.pipeline.resolver = eligibility.New(broken)

	s.pipeline.RunDailyDeallocation(s.ctx)

	u, err := s.units.GetByID(s.ctx, 55)
	s.Require().NoError(err)
	s.Equal(models.StatusTenant, u.OccupancyStatus)

	actions := s.actionsSeen()
	s.Contains(actions, audit.ActionRunStarted)
	s.NotContains(actions, audit.ActionRunCompleted)
}

// TestMintFailureDegradesOnly verifies a token-minting failure never blocks
// local revocation.
func (s *PipelineSuite) TestMintFailureDegradesOnly() {
	s.seedDueTenancy(55, 9)
	s.pipeline.minter = stubMinter{err: errors.New("signing key unavailable")}

	s.pipeline.RunDailyDeallocation(s.ctx)

	u, err := s.units.GetByID(s.ctx, 55)
	s.Require().NoError(err)
	s.Equal(models.StatusVacant, u.OccupancyStatus)
}

// TestGuardFailedPairNotAuditedAsRevoked verifies a pair whose saga never
// reached the occupancy transition is accounted as failed, not revoked: no
// compliance event may assert a revocation that did not happen.
func (s *PipelineSuite) TestGuardFailedPairNotAuditedAsRevoked() {
	s.seedDueTenancy(55, 9)
	roles := &failingRoleStore{
		InMemoryStore: s.roles,
		findErr:       errors.New("role_mappings: connection reset"),
	}
	s.pipeline.revoker = NewRevoker(
		s.units, roles, delegated.NewMemory(), resident.NewMemory(),
		&fakeAccessClient{}, &fakeIdentityClient{},
		WithAuditPublisher(s.audits),
	)

	s.pipeline.RunDailyDeallocation(s.ctx)

	u, err := s.units.GetByID(s.ctx, 55)
	s.Require().NoError(err)
	s.Equal(models.StatusTenant, u.OccupancyStatus)

	actions := s.actionsSeen()
	s.NotContains(actions, audit.ActionPairRevoked, "unrevoked pair must not enter the compliance trail")
	s.NotContains(actions, audit.ActionUnitVacated)
	s.Contains(actions, audit.ActionRunCompleted, "one bad pair does not abort the run")
}

// TestDuplicatePairAcrossSources verifies the second hit of one pair in a
// single run is a guarded no-op, not a double revocation.
func (s *PipelineSuite) TestDuplicatePairAcrossSources() {
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.units.Add(&models.Unit{ID: 55, OccupancyStatus: models.StatusOwner})
	s.roles.Add(&models.RoleMapping{ID: 1, UnitID: 55, UserID: 9, Role: models.RoleOwner, Active: true})
	s.terms.AddOwnerMoveOut(&models.OwnerMoveOut{
		ID: 1, UnitID: 55, UserID: 9,
		Active: true, RequestActive: true, RequestRole: models.RoleOwner,
		VacatingDate: &end,
	})
	s.terms.AddOwnerPermit(&models.OwnerPermit{
		ID: 2, UnitID: 55, UserID: 9,
		Active: true, RequestActive: true, RequestRole: models.RolePermitHolder,
		PermitExpiryDate: &end,
	})

	s.pipeline.RunDailyDeallocation(s.ctx)

	var revoked, already int
	for _, e := range s.audits.Events() {
		switch e.Action {
		case audit.ActionPairRevoked:
			revoked++
		case audit.ActionPairAlreadyRevoked:
			already++
		}
	}
	s.Equal(1, revoked)
	s.Equal(1, already)
}
