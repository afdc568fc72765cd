package gormstorage

import (
	"errors"
	"fmt"

	"github.com/OCAP2/vessels/internal/autopilot"
	"github.com/OCAP2/vessels/internal/model"
	"github.com/OCAP2/vessels/internal/model/convert"
	"github.com/OCAP2/vessels/internal/schedule"
	"github.com/OCAP2/vessels/internal/transport"
	"github.com/OCAP2/vessels/internal/vessel"

	"gorm.io/gorm"
)

// LoadInterior returns the stored room graph of a ship. ok is false when
// none was saved.
func (b *Backend) LoadInterior(shipID int) (vessel.Interior, bool, error) {
	b.flushForRead("interior")

	var row model.ShipInterior
	err := b.deps.DB.Where("ship_id = ?", shipID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return vessel.Interior{}, false, nil
	}
	if err != nil {
		return vessel.Interior{}, false, fmt.Errorf("failed to load interior of ship %d: %w", shipID, err)
	}
	in, err := convert.ShipInteriorToInterior(row)
	if err != nil {
		return vessel.Interior{}, false, err
	}
	return in, true, nil
}

func (b *Backend) LoadCargo(shipID int) ([]vessel.CargoItem, error) {
	b.flushForRead("cargo")

	var rows []model.ShipCargo
	if err := b.deps.DB.Where("ship_id = ?", shipID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load cargo of ship %d: %w", shipID, err)
	}
	return convert.ShipCargoToItems(rows), nil
}

func (b *Backend) LoadCrew(shipID int) ([]vessel.CrewMember, error) {
	b.flushForRead("crew")

	var rows []model.ShipCrew
	if err := b.deps.DB.Where("ship_id = ?", shipID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load crew of ship %d: %w", shipID, err)
	}
	return convert.ShipCrewToMembers(rows), nil
}

// LoadNavigation returns every waypoint and every route with its
// waypoints in sequence order.
func (b *Backend) LoadNavigation() ([]autopilot.Waypoint, []autopilot.Route, error) {
	b.flushForRead("navigation")
	db := b.deps.DB

	var wpRows []model.ShipWaypoint
	if err := db.Order("id").Find(&wpRows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load waypoints: %w", err)
	}
	var routeRows []model.ShipRoute
	if err := db.Order("id").Find(&routeRows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load routes: %w", err)
	}
	var linkRows []model.ShipRouteWaypoint
	if err := db.Order("route_id, sequence_num").Find(&linkRows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load route waypoints: %w", err)
	}

	waypoints := make([]autopilot.Waypoint, len(wpRows))
	byID := make(map[int]autopilot.Waypoint, len(wpRows))
	for i, row := range wpRows {
		waypoints[i] = convert.ShipWaypointToWaypoint(row)
		byID[row.ID] = waypoints[i]
	}
	links := make(map[int][]model.ShipRouteWaypoint)
	for _, l := range linkRows {
		links[l.RouteID] = append(links[l.RouteID], l)
	}
	routes := make([]autopilot.Route, len(routeRows))
	for i, row := range routeRows {
		routes[i] = convert.ShipRouteToRoute(row, links[row.ID], byID)
	}
	return waypoints, routes, nil
}

func (b *Backend) LoadSchedules() ([]schedule.Schedule, error) {
	b.flushForRead("schedules")

	var rows []model.ShipSchedule
	if err := b.deps.DB.Order("ship_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load schedules: %w", err)
	}
	out := make([]schedule.Schedule, len(rows))
	for i, row := range rows {
		out[i] = convert.ShipScheduleToSchedule(row)
	}
	return out, nil
}

func (b *Backend) LoadVehicles() ([]*transport.Vehicle, error) {
	b.flushForRead("vehicles")

	var rows []model.VehicleData
	if err := b.deps.DB.Order("vehicle_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load vehicles: %w", err)
	}
	out := make([]*transport.Vehicle, len(rows))
	for i, row := range rows {
		out[i] = convert.VehicleDataToVehicle(row)
	}
	return out, nil
}
