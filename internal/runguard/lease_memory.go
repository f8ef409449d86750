package runguard

import (
	"context"
	"sync"
	"time"
)

// Clock supplies the current time; injectable for tests.
type Clock func() time.Time

type memoryEntry struct {
	holder    string
	expiresAt time.Time
}

// InMemoryLease implements Lease for a single process. Useful in tests and
// when running without a coordination store (single-instance deployments).
type InMemoryLease struct {
	mu     *sync.Mutex
	leases map[string]memoryEntry
	holder string
	clock  Clock

	// failing simulates a coordination-store outage; Acquire errors while set.
	failing bool
}

// MemoryOption configures an InMemoryLease.
type MemoryOption func(*InMemoryLease)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) MemoryOption {
	return func(l *InMemoryLease) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithHolder overrides the holder token so tests can model two processes
// sharing one in-memory store.
func WithHolder(holder string) MemoryOption {
	return func(l *InMemoryLease) {
		l.holder = holder
	}
}

func NewMemoryLease(opts ...MemoryOption) *InMemoryLease {
	l := &InMemoryLease{
		mu:     &sync.Mutex{},
		leases: make(map[string]memoryEntry),
		holder: "local",
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SharedWith returns a lease view for a different holder over the same
// underlying store. Test helper modelling a second process.
func (l *InMemoryLease) SharedWith(holder string) *InMemoryLease {
	return &InMemoryLease{mu: l.mu, leases: l.leases, holder: holder, clock: l.clock}
}

// SetFailing toggles simulated store failure. Test helper.
func (l *InMemoryLease) SetFailing(failing bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failing = failing
}

func (l *InMemoryLease) Acquire(_ context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failing {
		return false, context.DeadlineExceeded
	}
	now := l.clock()
	if e, ok := l.leases[name]; ok && e.expiresAt.After(now) {
		return false, nil
	}
	l.leases[name] = memoryEntry{holder: l.holder, expiresAt: now.Add(ttl)}
	return true, nil
}

func (l *InMemoryLease) Renew(_ context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	e, ok := l.leases[name]
	if !ok || e.holder != l.holder || !e.expiresAt.After(now) {
		return false, nil
	}
	e.expiresAt = now.Add(ttl)
	l.leases[name] = e
	return true, nil
}

func (l *InMemoryLease) Release(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.leases[name]; ok && e.holder == l.holder {
		delete(l.leases, name)
	}
	return nil
}
