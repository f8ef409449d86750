package deallocation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"offboard/internal/deallocation/metrics"
	"offboard/internal/eligibility"
	"offboard/internal/runguard"
	"offboard/pkg/domain"
	"offboard/pkg/platform/audit"
	"offboard/pkg/requestcontext"
)

// JobName keys the run-guard lease shared by every worker in the fleet.
const JobName = "daily_deallocation"

// TokenMinter issues the per-run downstream bearer token.
type TokenMinter interface {
	Mint(systemUserID string, now time.Time) (string, error)
}

// Pipeline is the fire-and-forget daily entry point: guard, resolve,
// revoke. It returns nothing and communicates only via logs, metrics and
// audit events.
type Pipeline struct {
	guard        *runguard.Guard
	resolver     *eligibility.Resolver
	revoker      *Revoker
	minter       TokenMinter
	publisher    audit.Publisher
	logger       *slog.Logger
	window       time.Duration
	systemUserID domain.UserID
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets the pipeline's logger.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPipelineAuditPublisher sets the audit sink.
func WithPipelineAuditPublisher(publisher audit.Publisher) PipelineOption {
	return func(p *Pipeline) {
		if publisher != nil {
			p.publisher = publisher
		}
	}
}

// WithWindow overrides the guard window (default 30 minutes).
func WithWindow(window time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if window > 0 {
			p.window = window
		}
	}
}

func NewPipeline(
	guard *runguard.Guard,
	resolver *eligibility.Resolver,
	revoker *Revoker,
	minter TokenMinter,
	systemUserID domain.UserID,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		guard:        guard,
		resolver:     resolver,
		revoker:      revoker,
		minter:       minter,
		publisher:    audit.NopPublisher{},
		logger:       slog.Default(),
		window:       30 * time.Minute,
		systemUserID: systemUserID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunDailyDeallocation executes one scheduled tick. Guard denial is a
// normal skip. An eligibility failure aborts before any pair is touched;
// the next tick retries. A pair's failure never affects the others.
func (p *Pipeline) RunDailyDeallocation(ctx context.Context) {
	now := requestcontext.Now(ctx)
	runID := uuid.NewString()
	ctx = requestcontext.WithRunID(requestcontext.WithTime(ctx, now), runID)
	log := p.logger.With("run", runID, "job", JobName)

	if !p.guard.TryAcquire(ctx, JobName, p.window) {
		metrics.RunsDenied.Inc()
		p.emit(ctx, audit.Event{Category: audit.CategoryOperations, Action: audit.ActionRunDenied, ActorID: p.systemUserID})
		return
	}
	metrics.RunsStarted.Inc()
	started := time.Now()
	defer func() {
		metrics.RunDuration.Observe(time.Since(started).Seconds())
	}()
	log.Info("deallocation run granted", "as_of", now.Format("2006-01-02"))
	p.emit(ctx, audit.Event{Category: audit.CategoryOperations, Action: audit.ActionRunStarted, ActorID: p.systemUserID})

	bearer, err := p.minter.Mint(p.systemUserID.String(), now)
	if err != nil {
		// Downstream calls will fail auth and log individually; local
		// revocation still proceeds.
		log.Warn("integration token minting failed, downstream steps will degrade", "error", err)
	}

	pairs, err := p.resolver.DueUnitUserPairs(ctx, now)
	if err != nil {
		metrics.RunsAborted.Inc()
		log.Error("eligibility resolution failed, aborting run before touching any pair", "error", err)
		return
	}
	log.Info("eligibility resolved", "candidates", len(pairs))

	// Sequential on purpose: downstream latency dominates and one slow or
	// failing subsystem should not multiply its blast radius.
	revoked, already, flagged, failed := 0, 0, 0, 0
	for _, pair := range pairs {
		report := p.revoker.Revoke(ctx, pair.UnitID, pair.UserID, Input{
			Source:       pair.Kind,
			ActingUserID: p.systemUserID,
			Bearer:       bearer,
		})
		switch {
		case report.ManualFollowUp:
			flagged++
			metrics.PairsProcessed.WithLabelValues(metrics.OutcomeManualFollowUp).Inc()
		case report.AlreadyRevoked:
			already++
			metrics.PairsProcessed.WithLabelValues(metrics.OutcomeAlreadyRevoked).Inc()
		case report.Vacated:
			revoked++
			metrics.PairsProcessed.WithLabelValues(metrics.OutcomeRevoked).Inc()
			p.emit(ctx, audit.Event{
				Category: audit.CategoryCompliance,
				Action:   audit.ActionPairRevoked,
				UnitID:   pair.UnitID, UserID: pair.UserID,
				Source: pair.Kind, ActorID: p.systemUserID,
			})
		default:
			// The saga bailed out before the occupancy transition, most
			// often a guard-step store error. The pair stays occupied and
			// the compliance trail must not claim otherwise.
			failed++
			metrics.PairsProcessed.WithLabelValues(metrics.OutcomeFailed).Inc()
			log.Warn("pair left unrevoked",
				"unit", pair.UnitID,
				"user", pair.UserID,
				"failed_steps", report.FailedSteps(),
			)
		}
	}

	log.Info("deallocation run completed",
		"revoked", revoked,
		"already_revoked", already,
		"manual_follow_up", flagged,
		"failed", failed,
	)
	p.emit(ctx, audit.Event{Category: audit.CategoryOperations, Action: audit.ActionRunCompleted, ActorID: p.systemUserID})
}

func (p *Pipeline) emit(ctx context.Context, event audit.Event) {
	event.Timestamp = requestcontext.Now(ctx)
	event.RunID = requestcontext.RunID(ctx)
	if err := p.publisher.Emit(ctx, event); err != nil {
		p.logger.Warn("audit emit failed", "action", event.Action, "error", err)
	}
}
