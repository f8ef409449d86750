package models

import (
	"time"

	"offboard/pkg/domain"
)

// RoleKind is the role a user holds against a unit.
type RoleKind string

const (
	RoleOwner         RoleKind = "owner"
	RoleTenant        RoleKind = "tenant"
	RoleCompanyTenant RoleKind = "company_tenant"
	RolePermitHolder  RoleKind = "permit_holder"
)

// RoleForSource maps an eligibility source kind to the role it terminates.
func RoleForSource(kind domain.SourceKind) RoleKind {
	switch kind {
	case domain.SourceTenantLease:
		return RoleTenant
	case domain.SourceCompanyLease:
		return RoleCompanyTenant
	case domain.SourceOwnerPermit:
		return RolePermitHolder
	default:
		return RoleOwner
	}
}

// RoleMapping ties a user to a unit under a role. At most one active mapping
// per (unit, user) pair is a business rule enforced by the move-in workflows,
// not by a database constraint; readers must treat "the active mapping" as a
// lookup, never a scan-and-pick.
type RoleMapping struct {
	ID        int64
	UnitID    domain.UnitID
	UserID    domain.UserID
	Role      RoleKind
	Active    bool
	StartDate time.Time
	EndDate   *time.Time
}

// DelegationMapping grants a family member or service person access on
// behalf of a resident. Revocation of the grantor deactivates these too.
type DelegationMapping struct {
	ID        int64
	UnitID    domain.UnitID
	GrantorID domain.UserID
	GranteeID domain.UserID
	Kind      string // family | service
	Active    bool
	EndDate   *time.Time
}
