package requestnum

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"offboard/internal/occupancy/models"
	"offboard/pkg/domain"
	dErrors "offboard/pkg/domain-errors"
)

type GeneratorSuite struct {
	suite.Suite
	ctx context.Context
	tx  *InMemoryTx
	gen *Generator
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

func (s *GeneratorSuite) SetupTest() {
	s.ctx = context.Background()
	s.tx = NewMemoryTx()
	s.tx.AddUnit(55)
	s.gen = New(s.tx, WithClock(func() time.Time {
		return time.Date(2025, 1, 2, 0, 5, 0, 0, time.UTC)
	}))
}

// TestSequencePerUnit verifies numbers are contiguous per unit and prefix,
// starting at 1.
func (s *GeneratorSuite) TestSequencePerUnit() {
	for i := 1; i <= 3; i++ {
		req, err := s.gen.CreateRequest(s.ctx, 55, "MO-55-", "move_out")
		s.Require().NoError(err)
		s.Equal(fmt.Sprintf("MO-55-%d", i), req.Number)
	}

	s.Run("another prefix numbers independently", func() {
		req, err := s.gen.CreateRequest(s.ctx, 55, "VR-55-", "visitor")
		s.Require().NoError(err)
		s.Equal("VR-55-1", req.Number)
	})

	s.Run("another unit numbers independently", func() {
		s.tx.AddUnit(56)
		req, err := s.gen.CreateRequest(s.ctx, 56, "MO-56-", "move_out")
		s.Require().NoError(err)
		s.Equal("MO-56-1", req.Number)
	})
}

// TestMissingUnitFailsWholeTransaction verifies numbering is never silently
// skipped: an unknown unit aborts and persists nothing.
func (s *GeneratorSuite) TestMissingUnitFailsWholeTransaction() {
	req, err := s.gen.CreateRequest(s.ctx, 999, "MO-999-", "move_out")
	s.Nil(req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Empty(s.tx.Requests())
}

// TestNilUnitRejected pins the bad-request path.
func (s *GeneratorSuite) TestNilUnitRejected() {
	_, err := s.gen.CreateRequest(s.ctx, 0, "MO-0-", "move_out")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

// TestMalformedTailsIgnored verifies non-numeric tails never poison the
// sequence.
func (s *GeneratorSuite) TestMalformedTailsIgnored() {
	for _, n := range []string{"MO-55-legacy", "MO-55-7", "MO-55--2", "OTHER-1"} {
		s.seed(55, n)
	}

	req, err := s.gen.CreateRequest(s.ctx, 55, "MO-55-", "move_out")
	s.Require().NoError(err)
	s.Equal("MO-55-8", req.Number)
}

func (s *GeneratorSuite) seed(unitID domain.UnitID, number string) {
	s.T().Helper()
	err := s.tx.RunInTx(s.ctx, func(st Store) error {
		return st.InsertRequest(s.ctx, &models.UnitRequest{UnitID: unitID, Number: number, Kind: "seed"})
	})
	s.Require().NoError(err)
}

// TestConcurrentWritersGetDistinctNumbers is the core atomicity property: N
// concurrent writers end up with N distinct, contiguous numbers.
func (s *GeneratorSuite) TestConcurrentWritersGetDistinctNumbers() {
	const writers = 20

	var wg sync.WaitGroup
	results := make(chan string, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := s.gen.CreateRequest(s.ctx, 55, "MO-55-", "move_out")
			s.NoError(err)
			if req != nil {
				results <- req.Number
			}
		}()
	}
	wg.Wait()
	close(results)

	var numbers []string
	for n := range results {
		numbers = append(numbers, n)
	}
	sort.Strings(numbers)

	s.Require().Len(numbers, writers)
	seen := make(map[string]struct{}, writers)
	for _, n := range numbers {
		_, dup := seen[n]
		s.False(dup, "duplicate number %s", n)
		seen[n] = struct{}{}
	}
	for i := 1; i <= writers; i++ {
		s.Contains(seen, fmt.Sprintf("MO-55-%d", i))
	}
}

// TestFailedInsertConsumesNoNumber verifies rollback semantics: a failing
// transaction leaves the sequence where it was.
func (s *GeneratorSuite) TestFailedInsertConsumesNoNumber() {
	_, err := s.gen.CreateRequest(s.ctx, 55, "MO-55-", "move_out")
	s.Require().NoError(err)

	failErr := errors.New("constraint violation")
	err = s.tx.RunInTx(s.ctx, func(st Store) error {
		if err := st.LockUnit(s.ctx, 55); err != nil {
			return err
		}
		return failErr
	})
	s.Require().ErrorIs(err, failErr)

	req, err := s.gen.CreateRequest(s.ctx, 55, "MO-55-", "move_out")
	s.Require().NoError(err)
	s.Equal("MO-55-2", req.Number)
}
