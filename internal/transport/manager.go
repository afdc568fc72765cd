package transport

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCAP2/vessels/internal/docking"
	"github.com/OCAP2/vessels/internal/vessel"
)

var (
	ErrVesselMoving  = errors.New("vessel is neither stationary nor docked")
	ErrOccupied      = errors.New("vehicle has passengers")
	ErrAlreadyLoaded = errors.New("vehicle already aboard a vessel")
	ErrCapacity      = errors.New("vessel vehicle capacity reached")
	ErrNotLoaded     = errors.New("vehicle is not aboard a vessel")
	ErrOrphaned      = errors.New("vehicle parent vessel not found")
	ErrNoUnloadRoom  = errors.New("vessel has no unloading compartment")
	ErrTerrain       = errors.New("terrain incompatible with vehicle")
)

// Error is a validation failure. Reason is shown to the player as is.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string { return e.Reason }

func (e *Error) Unwrap() error { return e.Err }

func fail(err error, format string, args ...any) error {
	return &Error{Reason: fmt.Sprintf(format, args...), Err: err}
}

// Reason extracts the player-facing text from err.
func Reason(err error) string {
	var te *Error
	if errors.As(err, &te) {
		return te.Reason
	}
	return err.Error()
}

// Store persists vehicle state.
type Store interface {
	SaveVehicle(v *Vehicle) error
}

// Manager carries vehicles on and off vessels.
type Manager struct {
	vessels  *vessel.Registry
	vehicles *Vehicles
	store    Store
	notifier vessel.Notifier
	log      *slog.Logger
}

// NewManager creates a manager. store and notifier may be nil.
func NewManager(vessels *vessel.Registry, vehicles *Vehicles, store Store, notifier vessel.Notifier, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		vessels:  vessels,
		vehicles: vehicles,
		store:    store,
		notifier: notifier,
		log:      log.With("component", "transport"),
	}
}

func holding(v *vessel.Vessel) bool {
	return v.IsDocked() || v.IsStationary()
}

func (m *Manager) save(vh *Vehicle) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveVehicle(vh); err != nil {
		m.log.Error("Failed to save vehicle", "vehicle", vh.ID, "error", err)
	}
}

func (m *Manager) notify(v *vessel.Vessel, format string, args ...any) {
	if m.notifier != nil {
		m.notifier.SendToVessel(v, fmt.Sprintf(format, args...))
	}
}

// Loaded lists the vehicles aboard v.
func (m *Manager) Loaded(v *vessel.Vessel) []*Vehicle {
	return m.vehicles.LoadedOn(v.ID)
}

// Load puts vh aboard v.
func (m *Manager) Load(vh *Vehicle, v *vessel.Vessel) error {
	switch {
	case !holding(v):
		return fail(ErrVesselMoving, "The vessel must be stationary or docked to load vehicles.")
	case vh.Passengers > 0:
		return fail(ErrOccupied, "You cannot load an occupied vehicle. Dismount first.")
	case vh.ParentVessel > 0:
		return fail(ErrAlreadyLoaded, "That vehicle is already loaded on a vessel.")
	case vh.State == Damaged:
		return fail(ErrDamaged, "That vehicle is too damaged to load safely.")
	case len(m.vehicles.LoadedOn(v.ID)) >= v.Class.VehicleCapacity():
		return fail(ErrCapacity, "The vessel cannot carry any more vehicles.")
	}

	vh.ParentVessel = v.ID
	vh.State = OnVessel
	m.SyncWithVessel(vh, v)
	m.save(vh)

	m.notify(v, "%s has been loaded onto the vessel.", vh.Name)
	m.log.Info("Vehicle loaded", "vehicle", vh.ID, "name", vh.Name, "vessel", v.ID)
	return nil
}

// Unload puts vh ashore from its parent vessel and returns that vessel.
// A missing parent is repaired by clearing the stale reference; the call
// still fails.
func (m *Manager) Unload(vh *Vehicle) (*vessel.Vessel, error) {
	if vh.ParentVessel <= 0 {
		return nil, fail(ErrNotLoaded, "That vehicle is not loaded on a vessel.")
	}

	v, ok := m.vessels.Get(vh.ParentVessel)
	if !ok {
		m.log.Warn("Cleared orphaned vehicle", "vehicle", vh.ID, "vessel", vh.ParentVessel)
		vh.ParentVessel = 0
		vh.State = Idle
		m.save(vh)
		return nil, fail(ErrOrphaned, "Error: Parent vessel not found. Vehicle state reset.")
	}

	if !holding(v) {
		return nil, fail(ErrVesselMoving, "The vessel must be stationary or docked to unload vehicles.")
	}

	room, ok := v.Room(docking.FindDockingRoom(v))
	if !ok {
		return nil, fail(ErrNoUnloadRoom, "Cannot find a suitable location to unload the vehicle.")
	}
	if !vh.CanTraverse(room.Sector) {
		return nil, fail(ErrTerrain, "The terrain here is not suitable for %s.", vh.Name)
	}

	vh.ParentVessel = 0
	vh.State = Idle
	vh.Room = room.Vnum
	vh.X, vh.Y, vh.Z = v.X, v.Y, v.Z
	m.save(vh)

	m.notify(v, "%s has been unloaded from the vessel.", vh.Name)
	m.log.Info("Vehicle unloaded", "vehicle", vh.ID, "name", vh.Name, "vessel", v.ID, "room", room.Vnum)
	return v, nil
}

// SyncWithVessel copies v's position onto vh when vh is aboard v.
func (m *Manager) SyncWithVessel(vh *Vehicle, v *vessel.Vessel) {
	if vh.ParentVessel != v.ID {
		return
	}
	vh.X, vh.Y, vh.Z = v.X, v.Y, v.Z
}

// SyncAllLoaded brings every vehicle aboard v to v's position. Run after
// every vessel position change.
func (m *Manager) SyncAllLoaded(v *vessel.Vessel) {
	for _, vh := range m.vehicles.LoadedOn(v.ID) {
		m.SyncWithVessel(vh, v)
	}
}
