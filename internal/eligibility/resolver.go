package eligibility

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"offboard/internal/occupancy/models"
	dErrors "offboard/pkg/domain-errors"
)

// Resolver scans all term sources and yields due (unit, user, kind)
// candidates. Any source failure fails the whole resolution: a partial
// candidate list would silently skip revocations, so the run aborts and the
// next tick retries.
type Resolver struct {
	sources []TermSource
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func New(sources []TermSource, opts ...Option) *Resolver {
	r := &Resolver{sources: sources, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DueUnitUserPairs returns every candidate whose term elapsed as of asOf
// (date-only comparison). Sources are queried concurrently but results keep
// the canonical source order, and each source's own order, so a run
// processes pairs deterministically. Duplicate pairs across kinds are
// returned as-is; the saga's guard step makes processing them idempotent.
func (r *Resolver) DueUnitUserPairs(ctx context.Context, asOf time.Time) ([]models.TermCandidate, error) {
	perSource := make([][]models.TermCandidate, len(r.sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range r.sources {
		g.Go(func() error {
			found, err := src.DueTerms(ctx, asOf)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeUnavailable, "resolve due terms for "+src.Kind().String())
			}
			perSource[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []models.TermCandidate
	for i, found := range perSource {
		r.logger.Debug("eligibility source resolved",
			"kind", r.sources[i].Kind(),
			"candidates", len(found),
		)
		out = append(out, found...)
	}
	return out, nil
}
