// Package models defines the occupancy domain entities: units, role
// mappings, term records and delegated-access records. Entities are plain
// structs; behavior that needs storage lives in the store packages.
package models

import (
	"time"

	"offboard/pkg/domain"
)

// OccupancyStatus describes who currently holds a unit.
type OccupancyStatus string

const (
	StatusVacant     OccupancyStatus = "VACANT"
	StatusOwner      OccupancyStatus = "OWNER"
	StatusTenant     OccupancyStatus = "TENANT"
	StatusHHOUnit    OccupancyStatus = "HHO_UNIT"
	StatusHHOCompany OccupancyStatus = "HHO_COMPANY"
)

// Unit is a residential unit. The de-allocation pipeline is the only
// automated writer of the VACANT transition; everything else reaching
// OccupancyStatus goes through the move-in/renewal workflows.
type Unit struct {
	ID              domain.UnitID
	Number          string
	OccupancyStatus OccupancyStatus
	UpdatedBy       domain.UserID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
