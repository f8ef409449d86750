// Package requestnum produces human-readable, per-unit request numbers that
// are strictly increasing with no duplicates under concurrent writers.
//
// Numbering runs inside the same write transaction that persists the new
// request: a pessimistic lock on the unit row serializes writers per unit
// and is held until the number is durably tied to a row. Releasing earlier
// would let two transactions compute the same "next" value before either
// commits.
package requestnum

import (
	"context"
	"strconv"
	"strings"
	"time"

	"offboard/internal/occupancy/models"
	"offboard/pkg/domain"
	dErrors "offboard/pkg/domain-errors"
)

// Store is the transaction-scoped view the generator works through.
type Store interface {
	// LockUnit takes a write lock on the unit row for the remainder of the
	// transaction. A missing unit is derrors.CodeNotFound and must fail the
	// whole transaction; numbering is never silently skipped.
	LockUnit(ctx context.Context, unitID domain.UnitID) error

	// ListNumbers returns existing request numbers for the unit that start
	// with the prefix.
	ListNumbers(ctx context.Context, unitID domain.UnitID, prefix string) ([]string, error)

	// InsertRequest persists the numbered request in the same transaction.
	InsertRequest(ctx context.Context, req *models.UnitRequest) error
}

// Tx provides the transactional boundary. The postgres implementation wraps
// a database transaction; the in-memory one serializes with a coarse lock.
type Tx interface {
	RunInTx(ctx context.Context, fn func(s Store) error) error
}

// Clock supplies the current time; injectable for tests.
type Clock func() time.Time

// Generator allocates the next request number for a unit.
type Generator struct {
	tx    Tx
	clock Clock
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) Option {
	return func(g *Generator) {
		if clock != nil {
			g.clock = clock
		}
	}
}

func New(tx Tx, opts ...Option) *Generator {
	g := &Generator{tx: tx, clock: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CreateRequest allocates the next number under the unit's prefix and
// persists the request, all in one transaction. On any failure the
// transaction rolls back and no number is consumed.
func (g *Generator) CreateRequest(ctx context.Context, unitID domain.UnitID, prefix, kind string) (*models.UnitRequest, error) {
	if unitID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unit id is required")
	}

	var created *models.UnitRequest
	err := g.tx.RunInTx(ctx, func(s Store) error {
		if err := s.LockUnit(ctx, unitID); err != nil {
			return err
		}
		existing, err := s.ListNumbers(ctx, unitID, prefix)
		if err != nil {
			return err
		}
		req := &models.UnitRequest{
			UnitID:    unitID,
			Number:    prefix + strconv.Itoa(nextSuffix(existing, prefix)),
			Kind:      kind,
			CreatedAt: g.clock(),
		}
		if err := s.InsertRequest(ctx, req); err != nil {
			return err
		}
		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// nextSuffix parses the numeric tails of existing numbers and returns
// max+1, starting at 1 when none parse. Numbers that do not carry the
// prefix or whose tail is not numeric are ignored.
func nextSuffix(existing []string, prefix string) int {
	max := 0
	for _, n := range existing {
		tail, ok := strings.CutPrefix(n, prefix)
		if !ok {
			continue
		}
		v, err := strconv.Atoi(tail)
		if err != nil || v <= 0 {
			continue
		}
		if v > max {
			max = v
		}
	}
	return max + 1
}
