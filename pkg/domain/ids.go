// Package domain holds shared domain primitives: typed identifiers and
// enumerations used across modules. Keeping them here avoids import cycles
// between stores, services and integrations.
package domain

import (
	"fmt"
	"strconv"
)

// UnitID identifies a residential unit.
type UnitID int64

// UserID identifies a platform user (resident, owner, company contact).
type UserID int64

// ParseUnitID validates and returns a UnitID from its decimal form.
func ParseUnitID(s string) (UnitID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid unit id: %q", s)
	}
	return UnitID(n), nil
}

// ParseUserID validates and returns a UserID from its decimal form.
func ParseUserID(s string) (UserID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid user id: %q", s)
	}
	return UserID(n), nil
}

func (u UnitID) String() string { return strconv.FormatInt(int64(u), 10) }
func (u UserID) String() string { return strconv.FormatInt(int64(u), 10) }

// IsNil reports whether the ID carries no value.
func (u UnitID) IsNil() bool { return u == 0 }

// IsNil reports whether the ID carries no value.
func (u UserID) IsNil() bool { return u == 0 }
