package models

import (
	"time"

	"offboard/pkg/domain"
)

// TermCandidate is a (unit, user) pair whose occupancy term has elapsed,
// tagged with the source kind that surfaced it.
type TermCandidate struct {
	UnitID domain.UnitID
	UserID domain.UserID
	Kind   domain.SourceKind
}

// The four occupancy term shapes below are created by the move-in, renewal
// and move-out workflows and are only read here. Each names its end date
// differently; EndDate() normalizes access for the resolver.

// OwnerMoveOut records an owner's declared vacating date.
type OwnerMoveOut struct {
	ID            int64
	UnitID        domain.UnitID
	UserID        domain.UserID
	Active        bool
	RequestActive bool
	RequestRole   RoleKind
	VacatingDate  *time.Time
}

// TenantLease is an individual tenant's lease.
type TenantLease struct {
	ID            int64
	UnitID        domain.UnitID
	UserID        domain.UserID
	Active        bool
	RequestActive bool
	RequestRole   RoleKind
	LeaseEndDate  *time.Time
}

// CompanyLease is a lease held by a company for a designated occupant.
type CompanyLease struct {
	ID              int64
	UnitID          domain.UnitID
	UserID          domain.UserID
	Active          bool
	RequestActive   bool
	RequestRole     RoleKind
	ContractEndDate *time.Time
}

// OwnerPermit is a time-bounded occupancy permit issued to an owner.
type OwnerPermit struct {
	ID               int64
	UnitID           domain.UnitID
	UserID           domain.UserID
	Active           bool
	RequestActive    bool
	RequestRole      RoleKind
	PermitExpiryDate *time.Time
}

func (r OwnerMoveOut) EndDate() *time.Time { return r.VacatingDate }
func (r TenantLease) EndDate() *time.Time  { return r.LeaseEndDate }
func (r CompanyLease) EndDate() *time.Time { return r.ContractEndDate }
func (r OwnerPermit) EndDate() *time.Time  { return r.PermitExpiryDate }

// DateOnly strips the time-of-day portion for calendar comparisons.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TermDue reports whether an end date qualifies as elapsed as of a given
// day. A nil end date never qualifies; equality on the day does.
func TermDue(end *time.Time, asOf time.Time) bool {
	if end == nil {
		return false
	}
	return !DateOnly(*end).After(DateOnly(asOf))
}
