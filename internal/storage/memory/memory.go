// Package memory implements the storage.Backend interface with in-process
// maps, optionally exported to a JSON file on close and read back on init.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/OCAP2/vessels/internal/autopilot"
	"github.com/OCAP2/vessels/internal/docking"
	"github.com/OCAP2/vessels/internal/model"
	"github.com/OCAP2/vessels/internal/model/convert"
	"github.com/OCAP2/vessels/internal/schedule"
	"github.com/OCAP2/vessels/internal/transport"
	"github.com/OCAP2/vessels/internal/vessel"
)

// Config holds in-memory storage backend settings.
type Config struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// Backend keeps every table in memory. Writes apply immediately.
type Backend struct {
	cfg Config

	interiors map[int]model.ShipInterior
	docks     []model.ShipDocking
	cargo     map[int][]model.ShipCargo
	crew      map[int][]model.ShipCrew
	waypoints map[int]model.ShipWaypoint
	routes    map[int]model.ShipRoute
	links     map[int][]model.ShipRouteWaypoint
	schedules map[int]model.ShipSchedule // keyed by ship
	vehicles  map[int]model.VehicleData

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend.
func New(cfg Config) *Backend {
	b := &Backend{cfg: cfg}
	b.reset()
	return b
}

func (b *Backend) reset() {
	b.interiors = make(map[int]model.ShipInterior)
	b.docks = nil
	b.cargo = make(map[int][]model.ShipCargo)
	b.crew = make(map[int][]model.ShipCrew)
	b.waypoints = make(map[int]model.ShipWaypoint)
	b.routes = make(map[int]model.ShipRoute)
	b.links = make(map[int][]model.ShipRouteWaypoint)
	b.schedules = make(map[int]model.ShipSchedule)
	b.vehicles = make(map[int]model.VehicleData)
}

// Init reads a previous export from OutputDir when one exists.
func (b *Backend) Init() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.importFile()
}

// Close exports the tables when OutputDir is set.
func (b *Backend) Close() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exportFile()
}

// Flush is a no-op; memory writes are immediate.
func (b *Backend) Flush(context.Context) error { return nil }

func (b *Backend) Pending() int { return 0 }

// GetExportedFilePath returns the path of the last export, if any.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

func (b *Backend) SaveInterior(v *vessel.Vessel) error {
	row := convert.InteriorToShipInterior(v)
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.interiors[row.ShipID]; ok {
		row.ID, row.CreatedAt = prev.ID, prev.CreatedAt
	} else {
		row.ID = uint(len(b.interiors) + 1)
		row.CreatedAt = time.Now()
	}
	row.UpdatedAt = time.Now()
	b.interiors[row.ShipID] = row
	return nil
}

func (b *Backend) LoadInterior(shipID int) (vessel.Interior, bool, error) {
	b.mu.RLock()
	row, ok := b.interiors[shipID]
	b.mu.RUnlock()
	if !ok {
		return vessel.Interior{}, false, nil
	}
	in, err := convert.ShipInteriorToInterior(row)
	if err != nil {
		return vessel.Interior{}, false, err
	}
	return in, true, nil
}

func (b *Backend) RecordDock(rec docking.Record) error {
	row := convert.RecordToShipDocking(rec)
	b.mu.Lock()
	defer b.mu.Unlock()
	row.ID = uint(len(b.docks) + 1)
	b.docks = append(b.docks, row)
	return nil
}

func (b *Backend) CompleteDock(ref string, at time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.docks {
		if b.docks[i].Ref == ref {
			b.complete(i, at)
		}
	}
	return nil
}

func (b *Backend) complete(i int, at time.Time) {
	b.docks[i].DockStatus = docking.StatusCompleted
	b.docks[i].UndockTime = &at
}

func (b *Backend) CompleteOrphanDocks(live func(ship1, ship2 int) bool) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	n := 0
	for i, row := range b.docks {
		if row.DockStatus == docking.StatusActive && !live(row.Ship1ID, row.Ship2ID) {
			b.complete(i, now)
			n++
		}
	}
	return n, nil
}

// Docks returns every docking record in insertion order.
func (b *Backend) Docks() []docking.Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]docking.Record, len(b.docks))
	for i, row := range b.docks {
		out[i] = convert.ShipDockingToRecord(row)
	}
	return out
}

func (b *Backend) SaveCargo(v *vessel.Vessel) error {
	rows := convert.CargoToShipCargo(v.ID, v.Cargo)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cargo[v.ID] = rows
	return nil
}

func (b *Backend) LoadCargo(shipID int) ([]vessel.CargoItem, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return convert.ShipCargoToItems(b.cargo[shipID]), nil
}

func (b *Backend) SaveCrew(v *vessel.Vessel) error {
	rows := convert.CrewToShipCrew(v.ID, v.Crew)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.crew[v.ID] = rows
	return nil
}

func (b *Backend) LoadCrew(shipID int) ([]vessel.CrewMember, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return convert.ShipCrewToMembers(b.crew[shipID]), nil
}

func (b *Backend) DeleteVessel(shipID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.interiors, shipID)
	delete(b.cargo, shipID)
	delete(b.crew, shipID)
	return nil
}

func (b *Backend) SaveWaypoint(wp autopilot.Waypoint) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.waypoints[wp.ID] = convert.WaypointToShipWaypoint(wp)
	return nil
}

func (b *Backend) DeleteWaypoint(id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.waypoints, id)
	return nil
}

func (b *Backend) SaveRoute(r *autopilot.Route) error {
	row, links := convert.RouteToShipRoute(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[row.ID] = row
	b.links[row.ID] = links
	return nil
}

func (b *Backend) DeleteRoute(id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.routes, id)
	delete(b.links, id)
	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (b *Backend) LoadNavigation() ([]autopilot.Waypoint, []autopilot.Route, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	waypoints := make([]autopilot.Waypoint, 0, len(b.waypoints))
	byID := make(map[int]autopilot.Waypoint, len(b.waypoints))
	for _, id := range sortedKeys(b.waypoints) {
		wp := convert.ShipWaypointToWaypoint(b.waypoints[id])
		waypoints = append(waypoints, wp)
		byID[id] = wp
	}
	routes := make([]autopilot.Route, 0, len(b.routes))
	for _, id := range sortedKeys(b.routes) {
		routes = append(routes, convert.ShipRouteToRoute(b.routes[id], b.links[id], byID))
	}
	return waypoints, routes, nil
}

func (b *Backend) SaveSchedule(s schedule.Schedule) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.schedules[s.VesselID] = convert.ScheduleToShipSchedule(s)
	return nil
}

func (b *Backend) DeleteSchedule(vesselID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.schedules, vesselID)
	return nil
}

func (b *Backend) LoadSchedules() ([]schedule.Schedule, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]schedule.Schedule, 0, len(b.schedules))
	for _, ship := range sortedKeys(b.schedules) {
		out = append(out, convert.ShipScheduleToSchedule(b.schedules[ship]))
	}
	return out, nil
}

func (b *Backend) SaveVehicle(v *transport.Vehicle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vehicles[v.ID] = convert.VehicleToVehicleData(v)
	return nil
}

func (b *Backend) LoadVehicles() ([]*transport.Vehicle, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*transport.Vehicle, 0, len(b.vehicles))
	for _, id := range sortedKeys(b.vehicles) {
		out = append(out, convert.VehicleDataToVehicle(b.vehicles[id]))
	}
	return out, nil
}
