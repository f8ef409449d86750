package models

import (
	"time"

	"offboard/pkg/domain"
)

// AccessCardStatus is the lifecycle state of an access-card request.
type AccessCardStatus string

const (
	CardStatusOpen      AccessCardStatus = "open"
	CardStatusPending   AccessCardStatus = "pending"
	CardStatusCompleted AccessCardStatus = "completed"
	CardStatusCancelled AccessCardStatus = "cancelled"
)

// AccessCardRequest is a resident's request for a physical access card.
// Open and pending requests can be cancelled locally; completed ones already
// exist in the downstream access-control system and need a downstream
// cancellation request instead.
type AccessCardRequest struct {
	ID       int64
	UnitID   domain.UnitID
	UserID   domain.UserID
	CardKind string
	Status   AccessCardStatus
	Active   bool
}

// POAStatus is the lifecycle state of a power-of-attorney request.
type POAStatus string

const (
	POAStatusDraft     POAStatus = "draft"
	POAStatusSubmitted POAStatus = "submitted"
	POAStatusApproved  POAStatus = "approved"
	POAStatusCancelled POAStatus = "cancelled"
	POAStatusExpired   POAStatus = "expired"
)

// Terminal reports whether the status admits no further transitions.
func (s POAStatus) Terminal() bool {
	return s == POAStatusCancelled || s == POAStatusExpired
}

// POARequest is a pending or granted power-of-attorney petition.
type POARequest struct {
	ID     int64
	UnitID domain.UnitID
	UserID domain.UserID
	Status POAStatus
	Active bool
}

// POAGrant is an in-force power-of-attorney.
type POAGrant struct {
	ID        int64
	UnitID    domain.UnitID
	GrantorID domain.UserID
	Active    bool
}

// VisitorRequest authorizes a visitor, created by a resident for a unit.
type VisitorRequest struct {
	ID        int64
	UnitID    domain.UnitID
	CreatedBy domain.UserID
	VisitDate time.Time
	Active    bool
}

// ProfileUpdateStatus tracks an identity-service profile amendment request.
type ProfileUpdateStatus string

const (
	ProfileUpdatePending  ProfileUpdateStatus = "pending"
	ProfileUpdateApproved ProfileUpdateStatus = "approved"
)

// ProfileUpdateKind distinguishes the two identity-service endpoints.
type ProfileUpdateKind string

const (
	ProfileUpdateProfile       ProfileUpdateKind = "profile"
	ProfileUpdateCommunication ProfileUpdateKind = "communication"
)

// ProfileUpdateRequest is a pending amendment a departing owner filed
// against their identity record. Auto-approved best-effort on final exit.
type ProfileUpdateRequest struct {
	ID      int64
	UserID  domain.UserID
	Kind    ProfileUpdateKind
	Payload map[string]any
	Status  ProfileUpdateStatus
}

// Booking is any other active stay tied to an email address, used to decide
// whether an exiting owner still has a relationship with the community.
type Booking struct {
	ID     int64
	Email  string
	Active bool
}

// UnitRequest is any back-office request filed against a unit; its Number is
// produced by the unit-scoped sequence generator.
type UnitRequest struct {
	ID        int64
	UnitID    domain.UnitID
	Number    string
	Kind      string
	CreatedAt time.Time
}
