package runguard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type GuardSuite struct {
	suite.Suite
	ctx   context.Context
	now   time.Time
	lease *InMemoryLease
	guard *Guard
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardSuite))
}

func (s *GuardSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 1, 2, 0, 5, 0, 0, time.UTC)
	s.lease = NewMemoryLease(
		WithHolder("process-a"),
		WithClock(func() time.Time { return s.now }),
	)
	s.guard = New(s.lease)
}

// TestExclusivity verifies that within one window exactly one process
// acquires the guard, and a second process is denied.
func (s *GuardSuite) TestExclusivity() {
	other := New(s.lease.SharedWith("process-b"))

	s.Run("first process acquires", func() {
		s.True(s.guard.TryAcquire(s.ctx, "daily_deallocation", 30*time.Minute))
	})

	s.Run("second process is denied within the window", func() {
		s.False(other.TryAcquire(s.ctx, "daily_deallocation", 30*time.Minute))
	})

	s.Run("same process is denied on re-entry too", func() {
		s.False(s.guard.TryAcquire(s.ctx, "daily_deallocation", 30*time.Minute))
	})

	s.Run("either process acquires after the window elapses", func() {
		s.now = s.now.Add(31 * time.Minute)
		s.True(other.TryAcquire(s.ctx, "daily_deallocation", 30*time.Minute))
	})
}

// TestFailClosed verifies a coordination-store error denies the run rather
// than risking a duplicate.
func (s *GuardSuite) TestFailClosed() {
	s.lease.SetFailing(true)
	s.False(s.guard.TryAcquire(s.ctx, "daily_deallocation", 30*time.Minute))

	s.lease.SetFailing(false)
	s.True(s.guard.TryAcquire(s.ctx, "daily_deallocation", 30*time.Minute))
}

// TestJobIsolation verifies leases are keyed by job name.
func (s *GuardSuite) TestJobIsolation() {
	s.True(s.guard.TryAcquire(s.ctx, "daily_deallocation", 30*time.Minute))
	s.True(s.guard.TryAcquire(s.ctx, "weekly_report", 30*time.Minute))
}

// TestRenewAndRelease exercises the remaining lease surface.
func (s *GuardSuite) TestRenewAndRelease() {
	s.Run("renew extends a held lease", func() {
		ok, err := s.lease.Acquire(s.ctx, "daily_deallocation", 10*time.Minute)
		s.Require().NoError(err)
		s.Require().True(ok)

		s.now = s.now.Add(5 * time.Minute)
		ok, err = s.lease.Renew(s.ctx, "daily_deallocation", 10*time.Minute)
		s.NoError(err)
		s.True(ok)

		s.now = s.now.Add(8 * time.Minute)
		ok, err = s.lease.Acquire(s.ctx, "daily_deallocation", 10*time.Minute)
		s.NoError(err)
		s.False(ok, "renewed lease should still be held")
	})

	s.Run("renew by a non-holder fails", func() {
		other := s.lease.SharedWith("process-b")
		ok, err := other.Renew(s.ctx, "daily_deallocation", 10*time.Minute)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("release by a non-holder leaves the lease in place", func() {
		other := s.lease.SharedWith("process-b")
		s.Require().NoError(other.Release(s.ctx, "daily_deallocation"))

		ok, err := other.Acquire(s.ctx, "daily_deallocation", 10*time.Minute)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("release by the holder frees the lease", func() {
		s.guard.Release(s.ctx, "daily_deallocation")
		s.True(s.guard.TryAcquire(s.ctx, "daily_deallocation", 10*time.Minute))
	})
}
