// Package deallocation drives the multi-step revocation saga that ends a
// resident's stay: delegated access is withdrawn, the role mapping is
// closed, and the unit is flipped to VACANT. Steps commit individually;
// partial completion is a designed-for outcome, recorded per step rather
// than hidden behind a single error.
package deallocation

import (
	"offboard/pkg/domain"
)

// Step names a saga step in execution order.
type Step string

const (
	StepGuard               Step = "guard"
	StepAccessCardsLocal    Step = "access_cards_local"
	StepAccessCardsRemote   Step = "access_cards_downstream"
	StepPowerOfAttorney     Step = "power_of_attorney"
	StepVisitorRequests     Step = "visitor_requests"
	StepServiceRequests     Step = "service_requests"
	StepOwnerHandover       Step = "owner_handover"
	StepRoleMappingRemoval  Step = "role_mapping_removal"
	StepOccupancyTransition Step = "occupancy_transition"
)

// StepStatus is the outcome of one step.
type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepSkipped StepStatus = "skipped"
	StepFailed  StepStatus = "failed"
)

// StepResult records what one step did, with a reason when it failed or
// was skipped.
type StepResult struct {
	Step   Step
	Status StepStatus
	Detail string
}

// RevocationReport aggregates the saga's per-step results for one pair.
type RevocationReport struct {
	UnitID domain.UnitID
	UserID domain.UserID
	Source domain.SourceKind
	Steps  []StepResult

	// AlreadyRevoked is set when the guard step found no active role
	// mapping and the saga short-circuited.
	AlreadyRevoked bool

	// Vacated is set when the occupancy transition committed.
	Vacated bool

	// ManualFollowUp flags a pair whose role-mapping removal failed: the
	// unit still reads occupied and an operator must intervene.
	ManualFollowUp bool
}

func (r *RevocationReport) add(step Step, status StepStatus, detail string) {
	r.Steps = append(r.Steps, StepResult{Step: step, Status: status, Detail: detail})
}

// StatusOf returns the recorded status for a step, or "" when it never ran.
func (r *RevocationReport) StatusOf(step Step) StepStatus {
	for _, s := range r.Steps {
		if s.Step == step {
			return s.Status
		}
	}
	return ""
}

// FailedSteps lists the steps that failed, in order.
func (r *RevocationReport) FailedSteps() []Step {
	var out []Step
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			out = append(out, s.Step)
		}
	}
	return out
}
