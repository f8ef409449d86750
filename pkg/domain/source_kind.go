package domain

import "fmt"

// SourceKind names the occupancy-term source a due pair was discovered from.
// The same (unit, user) pair may legitimately surface from more than one
// kind in a single run.
type SourceKind string

const (
	SourceOwnerMoveOut SourceKind = "owner_move_out"
	SourceTenantLease  SourceKind = "tenant_lease"
	SourceCompanyLease SourceKind = "company_lease"
	SourceOwnerPermit  SourceKind = "owner_permit"
)

// SourceKinds lists all kinds in their canonical resolution order.
var SourceKinds = []SourceKind{
	SourceOwnerMoveOut,
	SourceTenantLease,
	SourceCompanyLease,
	SourceOwnerPermit,
}

// ParseSourceKind validates a source kind string.
func ParseSourceKind(s string) (SourceKind, error) {
	k := SourceKind(s)
	switch k {
	case SourceOwnerMoveOut, SourceTenantLease, SourceCompanyLease, SourceOwnerPermit:
		return k, nil
	}
	return "", fmt.Errorf("unknown source kind: %s", s)
}

// IsOwner reports whether the kind represents an owner-flavored exit, which
// triggers the owner-specific profile handover checks.
func (k SourceKind) IsOwner() bool {
	return k == SourceOwnerMoveOut || k == SourceOwnerPermit
}

func (k SourceKind) String() string { return string(k) }
