// Package storage defines the persistence gateway shared by every backend.
package storage

import (
	"context"
	"time"

	"github.com/OCAP2/vessels/internal/autopilot"
	"github.com/OCAP2/vessels/internal/docking"
	"github.com/OCAP2/vessels/internal/schedule"
	"github.com/OCAP2/vessels/internal/transport"
	"github.com/OCAP2/vessels/internal/vessel"
)

// DefaultFlushInterval is how often queued writes are applied in the background.
const DefaultFlushInterval = 2 * time.Second

// Backend is the interface all storage implementations must satisfy.
// Writes are best effort and may be applied later; reads observe every
// write queued before them.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error
	Flush(ctx context.Context) error
	Pending() int

	// Interiors
	SaveInterior(v *vessel.Vessel) error
	LoadInterior(shipID int) (vessel.Interior, bool, error)

	// Docking records
	docking.Recorder

	// Manifest and roster, replaced as a whole on save
	SaveCargo(v *vessel.Vessel) error
	LoadCargo(shipID int) ([]vessel.CargoItem, error)
	SaveCrew(v *vessel.Vessel) error
	LoadCrew(shipID int) ([]vessel.CrewMember, error)

	// DeleteVessel drops the interior, manifest and roster kept for a
	// ship id, so a vessel later loaded into the same slot starts clean.
	DeleteVessel(shipID int) error

	// Navigation
	autopilot.Store
	LoadNavigation() ([]autopilot.Waypoint, []autopilot.Route, error)

	// Schedules
	schedule.Store
	LoadSchedules() ([]schedule.Schedule, error)

	// Vehicles
	transport.Store
	LoadVehicles() ([]*transport.Vehicle, error)
}
