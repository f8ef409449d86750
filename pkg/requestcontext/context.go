// Package requestcontext provides context accessors for run-scoped values.
//
// The worker sets a run ID and a frozen "now" at the start of each scheduled
// run; services read them without depending on scheduling code. Tests inject
// fixed times the same way:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	asOf := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"
)

type (
	runIDKey   struct{}
	runTimeKey struct{}
)

// WithRunID tags the context with the identifier of the current run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunID returns the current run identifier, or "" when unset.
func RunID(ctx context.Context) string {
	if v, ok := ctx.Value(runIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithTime freezes "now" for the duration of a run or test.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, runTimeKey{}, t)
}

// Now returns the frozen run time when present, falling back to wall-clock
// time. Date comparisons inside a run must all observe the same instant.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(runTimeKey{}).(time.Time); ok {
		return v
	}
	return time.Now()
}
