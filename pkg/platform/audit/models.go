// Package audit captures key pipeline actions as transport-agnostic events
// so stores and sinks can fan out. De-allocation is a destructive,
// unattended process; its trail is the only user-visible record of what
// happened and why.
package audit

import (
	"context"
	"time"

	"offboard/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: a resident
	// losing access to a unit. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events for debugging and operator
	// follow-up. Shorter retention, may be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture a pipeline action.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	RunID     string
	UnitID    domain.UnitID
	UserID    domain.UserID
	Action    Action
	Source    domain.SourceKind
	Reason    string
	// ActorID is the system identity the pipeline acts as.
	ActorID domain.UserID
}

// Action names an auditable pipeline action.
type Action string

const (
	ActionRunStarted         Action = "deallocation_run_started"
	ActionRunDenied          Action = "deallocation_run_denied"
	ActionRunCompleted       Action = "deallocation_run_completed"
	ActionPairRevoked        Action = "pair_revoked"
	ActionPairAlreadyRevoked Action = "pair_already_revoked"
	ActionManualFollowUp     Action = "pair_flagged_manual_follow_up"
	ActionUnitVacated        Action = "unit_vacated"
)

// Publisher emits audit events. Implementations must be safe for
// concurrent use; a failing publisher must never fail the pipeline.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// NopPublisher discards events; used when no sink is configured.
type NopPublisher struct{}

func (NopPublisher) Emit(context.Context, Event) error { return nil }
