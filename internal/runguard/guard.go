// Package runguard prevents duplicate execution of scheduled jobs across a
// horizontally-scaled fleet. The guard hands out a time-boxed lease keyed by
// job name; within one window exactly one process acquires it.
package runguard

import (
	"context"
	"log/slog"
	"time"
)

// Lease is a distributed, expiring mutual-exclusion token. Acquire must be
// a single atomic check-and-claim in the coordination store; two processes
// observing "unclaimed" concurrently would defeat the guard.
type Lease interface {
	// Acquire claims the lease for ttl. Returns false when another holder
	// already owns it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Renew extends the lease when this process still holds it.
	Renew(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Release drops the lease early when this process holds it. Releasing a
	// lease held by someone else is a no-op.
	Release(ctx context.Context, name string) error
}

// Guard wraps a Lease with the fail-closed policy scheduled jobs need: on
// any coordination-store error the run is denied. A missed run is safe; a
// duplicate run is not. There is no in-tick retry, the next scheduled tick
// retries naturally.
type Guard struct {
	lease  Lease
	logger *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the guard's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func New(lease Lease, opts ...Option) *Guard {
	g := &Guard{lease: lease, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TryAcquire reports whether this process may run the named job within the
// current window. Denial is a normal skip, not an error.
func (g *Guard) TryAcquire(ctx context.Context, jobName string, window time.Duration) bool {
	ok, err := g.lease.Acquire(ctx, jobName, window)
	if err != nil {
		g.logger.Warn("run guard failing closed",
			"job", jobName,
			"error", err,
		)
		return false
	}
	if !ok {
		g.logger.Info("run guard denied, another process holds the lease",
			"job", jobName,
		)
	}
	return ok
}

// Release returns the lease early, typically after a run finishes well
// before the window elapses would matter. Errors are logged, not returned:
// the lease expires on its own.
func (g *Guard) Release(ctx context.Context, jobName string) {
	if err := g.lease.Release(ctx, jobName); err != nil {
		g.logger.Warn("run guard release failed, lease will expire on its own",
			"job", jobName,
			"error", err,
		)
	}
}
