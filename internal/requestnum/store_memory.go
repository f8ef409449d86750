package requestnum

import (
	"context"
	"strings"
	"sync"

	"offboard/internal/occupancy/models"
	"offboard/pkg/domain"
	dErrors "offboard/pkg/domain-errors"
)

// InMemoryTx implements Tx over in-process state. RunInTx serializes with a
// coarse mutex, which gives the same per-unit ordering guarantee the
// database lock provides, just with wider scope.
type InMemoryTx struct {
	mu       sync.Mutex
	units    map[domain.UnitID]struct{}
	requests []*models.UnitRequest
	nextID   int64
}

func NewMemoryTx() *InMemoryTx {
	return &InMemoryTx{units: make(map[domain.UnitID]struct{}), nextID: 1}
}

// AddUnit registers a known unit. Test helper.
func (t *InMemoryTx) AddUnit(unitID domain.UnitID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.units[unitID] = struct{}{}
}

// Requests returns a snapshot of persisted requests. Test helper.
func (t *InMemoryTx) Requests() []*models.UnitRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*models.UnitRequest, 0, len(t.requests))
	for _, r := range t.requests {
		cp := *r
		out = append(out, &cp)
	}
	return out
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(s Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	// Stage writes so a failing fn leaves no trace, mirroring rollback.
	staged := make([]*models.UnitRequest, 0, 1)
	s := &memoryStore{tx: t, staged: &staged}
	if err := fn(s); err != nil {
		return err
	}
	for _, r := range staged {
		t.nextID++
		r.ID = t.nextID - 1
		t.requests = append(t.requests, r)
	}
	return nil
}

type memoryStore struct {
	tx     *InMemoryTx
	staged *[]*models.UnitRequest
}

func (s *memoryStore) LockUnit(_ context.Context, unitID domain.UnitID) error {
	if _, ok := s.tx.units[unitID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "unit not found")
	}
	// The enclosing mutex already serializes; nothing more to take.
	return nil
}

func (s *memoryStore) ListNumbers(_ context.Context, unitID domain.UnitID, prefix string) ([]string, error) {
	var out []string
	for _, r := range s.tx.requests {
		if r.UnitID == unitID && strings.HasPrefix(r.Number, prefix) {
			out = append(out, r.Number)
		}
	}
	return out, nil
}

func (s *memoryStore) InsertRequest(_ context.Context, req *models.UnitRequest) error {
	cp := *req
	*s.staged = append(*s.staged, &cp)
	return nil
}
