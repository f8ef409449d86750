package memory

import (
	"context"
	"sync"

	"offboard/pkg/platform/audit"
)

// Store keeps audit events in memory. Tests assert against it; local runs
// use it when no broker is configured.
type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a snapshot of everything appended so far.
func (s *Store) Events() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Emit lets the store double as a synchronous Publisher in tests.
func (s *Store) Emit(ctx context.Context, event audit.Event) error {
	return s.Append(ctx, event)
}
