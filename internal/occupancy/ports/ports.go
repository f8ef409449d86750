// Package ports defines shared store interfaces for the occupancy module.
// Interfaces live here because they are consumed by several services
// (eligibility, deallocation, requestnum) with independent implementations.
package ports

import (
	"context"
	"time"

	"offboard/internal/occupancy/models"
	"offboard/pkg/domain"
)

// UnitStore reads and transitions units.
type UnitStore interface {
	// GetByID returns nil when the unit does not exist.
	GetByID(ctx context.Context, unitID domain.UnitID) (*models.Unit, error)

	// SetVacant flips the occupancy status to VACANT and stamps updatedBy.
	// Returns derrors.CodeNotFound when the unit does not exist.
	SetVacant(ctx context.Context, unitID domain.UnitID, updatedBy domain.UserID) error
}

// RoleMappingStore manages unit/user role mappings and delegations.
type RoleMappingStore interface {
	// FindActive returns the active mapping for the pair, or nil.
	FindActive(ctx context.Context, unitID domain.UnitID, userID domain.UserID) (*models.RoleMapping, error)

	// Deactivate clears the active flag and stamps the end date.
	Deactivate(ctx context.Context, mappingID int64, endDate time.Time) error

	// HasOtherActiveOwner reports whether the user holds an active owner
	// mapping on any unit other than the one given.
	HasOtherActiveOwner(ctx context.Context, userID domain.UserID, exclude domain.UnitID) (bool, error)

	// ListActiveDelegations returns delegation mappings granted by the user
	// for the unit.
	ListActiveDelegations(ctx context.Context, unitID domain.UnitID, grantorID domain.UserID) ([]*models.DelegationMapping, error)

	// DeactivateDelegation clears a delegation mapping.
	DeactivateDelegation(ctx context.Context, delegationID int64, endDate time.Time) error
}

// TermStore surfaces due occupancy term records, one method per shape.
// Each filters on its own activity flag, the parent request's activity and
// role kind, and a non-null end date on or before asOf (date-only).
type TermStore interface {
	DueOwnerMoveOuts(ctx context.Context, asOf time.Time) ([]*models.OwnerMoveOut, error)
	DueTenantLeases(ctx context.Context, asOf time.Time) ([]*models.TenantLease, error)
	DueCompanyLeases(ctx context.Context, asOf time.Time) ([]*models.CompanyLease, error)
	DueOwnerPermits(ctx context.Context, asOf time.Time) ([]*models.OwnerPermit, error)
}

// DelegatedAccessStore manages access-card, POA and visitor records.
type DelegatedAccessStore interface {
	// ListAccessCardRequests returns the pair's card requests grouped by status.
	ListAccessCardRequests(ctx context.Context, unitID domain.UnitID, userID domain.UserID) (map[models.AccessCardStatus][]*models.AccessCardRequest, error)

	// CancelAccessCardRequest locally cancels an open or pending request.
	CancelAccessCardRequest(ctx context.Context, requestID int64) error

	// ListPOARequests returns the pair's active POA requests.
	ListPOARequests(ctx context.Context, unitID domain.UnitID, userID domain.UserID) ([]*models.POARequest, error)

	// CancelPOARequest transitions a non-terminal POA request to cancelled.
	CancelPOARequest(ctx context.Context, requestID int64) error

	// DeactivatePOAGrants clears all active grants by the user for the unit.
	DeactivatePOAGrants(ctx context.Context, unitID domain.UnitID, grantorID domain.UserID) (int, error)

	// DeactivateVisitorRequests clears all active visitor requests the user
	// created for the unit, returning how many were touched.
	DeactivateVisitorRequests(ctx context.Context, unitID domain.UnitID, createdBy domain.UserID) (int, error)
}

// ResidentStore answers the owner-exit questions: contact details, other
// bookings and pending identity amendments.
type ResidentStore interface {
	EmailByUser(ctx context.Context, userID domain.UserID) (string, error)
	HasOtherActiveBooking(ctx context.Context, email string, exclude domain.UnitID) (bool, error)
	ListPendingProfileUpdates(ctx context.Context, userID domain.UserID) ([]*models.ProfileUpdateRequest, error)
	MarkProfileUpdateApproved(ctx context.Context, requestID int64) error
}
