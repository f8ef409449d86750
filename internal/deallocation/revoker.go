package deallocation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"offboard/internal/deallocation/metrics"
	"offboard/internal/integration/accesscontrol"
	"offboard/internal/occupancy/models"
	"offboard/internal/occupancy/ports"
	"offboard/pkg/domain"
	"offboard/pkg/platform/audit"
	"offboard/pkg/requestcontext"
)

// AccessControlClient is the downstream access-card system surface the saga
// needs.
type AccessControlClient interface {
	RequestsByUnit(ctx context.Context, bearer string, unitID domain.UnitID, userID domain.UserID) (map[string][]accesscontrol.CardRequest, error)
	CreateCancellation(ctx context.Context, bearer, cardKind string, unitID domain.UnitID, actions []string) error
}

// IdentityClient is the downstream identity-service surface the owner
// handover uses.
type IdentityClient interface {
	UpdateProfileOnResale(ctx context.Context, bearer string, userID domain.UserID, payload map[string]any) error
	UpdateCommunicationDetailsOnResale(ctx context.Context, bearer string, userID domain.UserID, payload map[string]any) error
}

// Input carries the per-run parameters shared by every pair in a run.
type Input struct {
	Source       domain.SourceKind
	ActingUserID domain.UserID
	Bearer       string
}

// Revoker executes the revocation saga for one (unit, user) pair at a time.
type Revoker struct {
	units     ports.UnitStore
	roles     ports.RoleMappingStore
	delegated ports.DelegatedAccessStore
	residents ports.ResidentStore
	access    AccessControlClient
	identity  IdentityClient
	publisher audit.Publisher
	logger    *slog.Logger
}

// Option configures a Revoker.
type Option func(*Revoker)

// WithLogger sets the revoker's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Revoker) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithAuditPublisher sets the audit sink.
func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(r *Revoker) {
		if publisher != nil {
			r.publisher = publisher
		}
	}
}

func NewRevoker(
	units ports.UnitStore,
	roles ports.RoleMappingStore,
	delegated ports.DelegatedAccessStore,
	residents ports.ResidentStore,
	access AccessControlClient,
	identity IdentityClient,
	opts ...Option,
) *Revoker {
	r := &Revoker{
		units:     units,
		roles:     roles,
		delegated: delegated,
		residents: residents,
		access:    access,
		identity:  identity,
		publisher: audit.NopPublisher{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Revoke runs the saga for one pair. It never returns an error: every step
// records its own outcome in the report, failures surface as logs, and only
// the role-mapping step gates the occupancy transition. Calling Revoke
// again for an already-revoked pair is a safe no-op (the guard step
// short-circuits), which makes duplicate eligibility hits and duplicate
// runs harmless.
func (r *Revoker) Revoke(ctx context.Context, unitID domain.UnitID, userID domain.UserID, in Input) *RevocationReport {
	report := &RevocationReport{UnitID: unitID, UserID: userID, Source: in.Source}
	log := r.logger.With("unit", unitID, "user", userID, "source", in.Source)
	now := requestcontext.Now(ctx)

	// Step 1: guard. No active role mapping means a previous run (or a
	// duplicate eligibility hit in this run) already revoked the pair.
	mapping, err := r.roles.FindActive(ctx, unitID, userID)
	if err != nil {
		r.fail(report, log, StepGuard, err)
		return report
	}
	if mapping == nil {
		report.AlreadyRevoked = true
		report.add(StepGuard, StepSkipped, "no active role mapping")
		r.emit(ctx, audit.Event{
			Category: audit.CategoryOperations,
			Action:   audit.ActionPairAlreadyRevoked,
			UnitID:   unitID, UserID: userID,
			Source: in.Source, ActorID: in.ActingUserID,
		})
		return report
	}
	if want := models.RoleForSource(in.Source); mapping.Role != want {
		// Data drift: the elapsed term does not terminate the role the
		// user actually holds. Revoking it anyway would strip the wrong
		// role, so the pair is left for an operator.
		r.fail(report, log, StepGuard, fmt.Errorf("active role %q cannot be terminated by source %q", mapping.Role, in.Source))
		return report
	}
	report.add(StepGuard, StepSuccess, "")

	// Step 2: delegated access cards, local fast path then downstream slow
	// path. Neither blocks the rest of the saga.
	r.cancelAccessCardsLocal(ctx, report, log, unitID, userID)
	r.cancelAccessCardsDownstream(ctx, report, log, unitID, userID, in.Bearer)

	// Step 3: power of attorney.
	r.cancelPowerOfAttorney(ctx, report, log, unitID, userID)

	// Step 4: visitor requests.
	if n, err := r.delegated.DeactivateVisitorRequests(ctx, unitID, userID); err != nil {
		r.fail(report, log, StepVisitorRequests, err)
	} else if n == 0 {
		report.add(StepVisitorRequests, StepSkipped, "none active")
	} else {
		report.add(StepVisitorRequests, StepSuccess, "")
	}

	// Step 5: service requests. Explicit extension point for subsystems
	// that do not exist yet; kept so the step order stays stable when one
	// arrives.
	report.add(StepServiceRequests, StepSkipped, "no service subsystems registered")

	// Owner handover runs before the role mapping is removed so the "other
	// active owner mapping" check still sees the state the user exits from.
	if in.Source.IsOwner() {
		r.ownerHandover(ctx, report, log, unitID, userID, in.Bearer)
	}

	// Step 6: role mapping and delegated authority. Critical: a failure
	// here leaves a resident with an active role on a unit about to read
	// vacant, so the transition is withheld and the pair flagged.
	if !r.removeRoleMapping(ctx, report, log, unitID, userID, mapping, now) {
		report.ManualFollowUp = true
		r.emit(ctx, audit.Event{
			Category: audit.CategoryOperations,
			Action:   audit.ActionManualFollowUp,
			UnitID:   unitID, UserID: userID,
			Source:  in.Source,
			ActorID: in.ActingUserID,
			Reason:  "role mapping removal failed, occupancy transition withheld",
		})
		return report
	}

	// Step 7: occupancy transition, only now that nobody holds the role.
	if err := r.units.SetVacant(ctx, unitID, in.ActingUserID); err != nil {
		r.fail(report, log, StepOccupancyTransition, err)
		report.ManualFollowUp = true
		return report
	}
	report.add(StepOccupancyTransition, StepSuccess, "")
	report.Vacated = true

	r.emit(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		Action:   audit.ActionUnitVacated,
		UnitID:   unitID, UserID: userID,
		Source: in.Source, ActorID: in.ActingUserID,
	})
	log.Info("pair revoked, unit vacated")
	return report
}

func (r *Revoker) cancelAccessCardsLocal(ctx context.Context, report *RevocationReport, log *slog.Logger, unitID domain.UnitID, userID domain.UserID) {
	grouped, err := r.delegated.ListAccessCardRequests(ctx, unitID, userID)
	if err != nil {
		r.fail(report, log, StepAccessCardsLocal, err)
		return
	}
	cancelled := 0
	var firstErr error
	for _, status := range []models.AccessCardStatus{models.CardStatusOpen, models.CardStatusPending} {
		for _, req := range grouped[status] {
			if err := r.delegated.CancelAccessCardRequest(ctx, req.ID); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				log.Warn("local access card cancellation failed", "request", req.ID, "error", err)
				continue
			}
			cancelled++
		}
	}
	switch {
	case firstErr != nil:
		r.fail(report, log, StepAccessCardsLocal, firstErr)
	case cancelled == 0:
		report.add(StepAccessCardsLocal, StepSkipped, "no open or pending requests")
	default:
		report.add(StepAccessCardsLocal, StepSuccess, "")
	}
}

// cancelAccessCardsDownstream raises cancellation requests for cards the
// downstream system already programmed; those cannot be undone locally.
func (r *Revoker) cancelAccessCardsDownstream(ctx context.Context, report *RevocationReport, log *slog.Logger, unitID domain.UnitID, userID domain.UserID, bearer string) {
	grouped, err := r.access.RequestsByUnit(ctx, bearer, unitID, userID)
	if err != nil {
		r.fail(report, log, StepAccessCardsRemote, err)
		return
	}

	kinds := make(map[string]struct{})
	for status, reqs := range grouped {
		if status != string(models.CardStatusCompleted) {
			continue
		}
		for _, req := range reqs {
			kinds[req.CardKind] = struct{}{}
		}
	}
	if len(kinds) == 0 {
		report.add(StepAccessCardsRemote, StepSkipped, "no programmed cards downstream")
		return
	}

	var firstErr error
	for kind := range kinds {
		if err := r.access.CreateCancellation(ctx, bearer, kind, unitID, []string{"deactivate"}); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			log.Warn("downstream card cancellation failed", "card_kind", kind, "error", err)
		}
	}
	if firstErr != nil {
		r.fail(report, log, StepAccessCardsRemote, firstErr)
		return
	}
	report.add(StepAccessCardsRemote, StepSuccess, "")
}

func (r *Revoker) cancelPowerOfAttorney(ctx context.Context, report *RevocationReport, log *slog.Logger, unitID domain.UnitID, userID domain.UserID) {
	reqs, err := r.delegated.ListPOARequests(ctx, unitID, userID)
	if err != nil {
		r.fail(report, log, StepPowerOfAttorney, err)
		return
	}
	var firstErr error
	for _, req := range reqs {
		if req.Status.Terminal() {
			continue
		}
		if err := r.delegated.CancelPOARequest(ctx, req.ID); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			log.Warn("poa request cancellation failed", "request", req.ID, "error", err)
		}
	}
	if _, err := r.delegated.DeactivatePOAGrants(ctx, unitID, userID); err != nil {
		if firstErr == nil {
			firstErr = err
		}
		log.Warn("poa grant deactivation failed", "error", err)
	}
	if firstErr != nil {
		r.fail(report, log, StepPowerOfAttorney, firstErr)
		return
	}
	report.add(StepPowerOfAttorney, StepSuccess, "")
}

// ownerHandover auto-approves a departing owner's pending profile
// amendments, but only when this was their last tie to the community: no
// other active owner mapping and no other active booking under their email.
func (r *Revoker) ownerHandover(ctx context.Context, report *RevocationReport, log *slog.Logger, unitID domain.UnitID, userID domain.UserID, bearer string) {
	stillOwner, err := r.roles.HasOtherActiveOwner(ctx, userID, unitID)
	if err != nil {
		r.fail(report, log, StepOwnerHandover, err)
		return
	}
	if stillOwner {
		report.add(StepOwnerHandover, StepSkipped, "user still owns another unit")
		return
	}

	email, err := r.residents.EmailByUser(ctx, userID)
	if err != nil {
		r.fail(report, log, StepOwnerHandover, err)
		return
	}
	hasBooking, err := r.residents.HasOtherActiveBooking(ctx, email, unitID)
	if err != nil {
		r.fail(report, log, StepOwnerHandover, err)
		return
	}
	if hasBooking {
		report.add(StepOwnerHandover, StepSkipped, "another active booking under same email")
		return
	}

	pending, err := r.residents.ListPendingProfileUpdates(ctx, userID)
	if err != nil {
		r.fail(report, log, StepOwnerHandover, err)
		return
	}
	if len(pending) == 0 {
		report.add(StepOwnerHandover, StepSkipped, "no pending profile updates")
		return
	}

	approved := 0
	for _, upd := range pending {
		var callErr error
		switch upd.Kind {
		case models.ProfileUpdateCommunication:
			callErr = r.identity.UpdateCommunicationDetailsOnResale(ctx, bearer, userID, upd.Payload)
		default:
			callErr = r.identity.UpdateProfileOnResale(ctx, bearer, userID, upd.Payload)
		}
		if callErr != nil {
			// One failed approval does not roll back the others.
			log.Warn("profile update auto-approval failed", "request", upd.ID, "error", callErr)
			continue
		}
		if err := r.residents.MarkProfileUpdateApproved(ctx, upd.ID); err != nil {
			log.Warn("profile update status write failed", "request", upd.ID, "error", err)
			continue
		}
		approved++
	}
	if approved < len(pending) {
		report.add(StepOwnerHandover, StepFailed, "some profile updates not approved")
		metrics.StepFailures.WithLabelValues(string(StepOwnerHandover)).Inc()
		return
	}
	report.add(StepOwnerHandover, StepSuccess, "")
}

func (r *Revoker) removeRoleMapping(ctx context.Context, report *RevocationReport, log *slog.Logger, unitID domain.UnitID, userID domain.UserID, mapping *models.RoleMapping, now time.Time) bool {
	if err := r.roles.Deactivate(ctx, mapping.ID, now); err != nil {
		log.Error("role mapping removal failed, flagging pair for manual follow-up",
			"mapping", mapping.ID,
			"error", err,
		)
		report.add(StepRoleMappingRemoval, StepFailed, err.Error())
		metrics.StepFailures.WithLabelValues(string(StepRoleMappingRemoval)).Inc()
		return false
	}

	delegations, err := r.roles.ListActiveDelegations(ctx, unitID, userID)
	if err != nil {
		log.Error("delegation lookup failed, flagging pair for manual follow-up", "error", err)
		report.add(StepRoleMappingRemoval, StepFailed, err.Error())
		metrics.StepFailures.WithLabelValues(string(StepRoleMappingRemoval)).Inc()
		return false
	}
	for _, d := range delegations {
		if err := r.roles.DeactivateDelegation(ctx, d.ID, now); err != nil {
			log.Error("delegation removal failed, flagging pair for manual follow-up",
				"delegation", d.ID,
				"error", err,
			)
			report.add(StepRoleMappingRemoval, StepFailed, err.Error())
			metrics.StepFailures.WithLabelValues(string(StepRoleMappingRemoval)).Inc()
			return false
		}
	}
	report.add(StepRoleMappingRemoval, StepSuccess, "")
	return true
}

func (r *Revoker) fail(report *RevocationReport, log *slog.Logger, step Step, err error) {
	log.Warn("saga step failed", "step", step, "error", err)
	report.add(step, StepFailed, err.Error())
	metrics.StepFailures.WithLabelValues(string(step)).Inc()
}

func (r *Revoker) emit(ctx context.Context, event audit.Event) {
	event.Timestamp = requestcontext.Now(ctx)
	event.RunID = requestcontext.RunID(ctx)
	if err := r.publisher.Emit(ctx, event); err != nil {
		r.logger.Warn("audit emit failed", "action", event.Action, "error", err)
	}
}
