package convert

import (
	"encoding/json"
	"fmt"

	"github.com/OCAP2/vessels/internal/autopilot"
	"github.com/OCAP2/vessels/internal/docking"
	"github.com/OCAP2/vessels/internal/model"
	"github.com/OCAP2/vessels/internal/schedule"
	"github.com/OCAP2/vessels/internal/terrain"
	"github.com/OCAP2/vessels/internal/transport"
	"github.com/OCAP2/vessels/internal/vessel"
)

// ShipInteriorToInterior decodes a stored interior. Connection endpoints
// carry ship as their vessel id.
func ShipInteriorToInterior(row model.ShipInterior) (vessel.Interior, error) {
	var data model.RoomData
	if len(row.RoomData) > 0 {
		if err := json.Unmarshal(row.RoomData, &data); err != nil {
			return vessel.Interior{}, fmt.Errorf("decode room data for ship %d: %w", row.ShipID, err)
		}
	}

	in := vessel.Interior{
		Class:       row.VesselType,
		Name:        row.VesselName,
		Rooms:       make([]vessel.Compartment, len(data.Rooms)),
		Connections: make([]vessel.Connection, 0, len(data.Connections)),
		Bridge:      row.BridgeRoom,
		Entrance:    row.EntranceRoom,
		Quarters:    data.Quarters,
	}
	for i, r := range data.Rooms {
		in.Rooms[i] = vessel.Compartment{
			Index:          i,
			Vnum:           r.Vnum,
			Type:           vessel.RoomType(r.Type),
			Name:           r.Name,
			Description:    r.Description,
			VehicleCapable: r.VehicleCapable,
			Indoor:         r.Indoor,
			Sector:         terrain.Sector(r.Sector),
		}
	}
	for _, c := range data.Connections {
		if c.From < 0 || c.From >= len(in.Rooms) || c.To < 0 || c.To >= len(in.Rooms) {
			return vessel.Interior{}, fmt.Errorf("ship %d: connection %d-%d outside %d rooms", row.ShipID, c.From, c.To, len(in.Rooms))
		}
		in.Connections = append(in.Connections, vessel.Connection{
			From:   vessel.RoomRef{Vessel: row.ShipID, Room: c.From},
			To:     vessel.RoomRef{Vessel: row.ShipID, Room: c.To},
			Dir:    vessel.Direction(c.Dir),
			Hatch:  c.Hatch,
			Locked: c.Locked,
		})
	}
	for _, room := range []int{row.CargoRoom1, row.CargoRoom2, row.CargoRoom3, row.CargoRoom4, row.CargoRoom5} {
		if room != vessel.NoRoom {
			in.CargoRooms = append(in.CargoRooms, room)
		}
	}
	return in, nil
}

func ShipDockingToRecord(row model.ShipDocking) docking.Record {
	return docking.Record{
		Ref:        row.Ref,
		Ship1:      row.Ship1ID,
		Ship2:      row.Ship2ID,
		Room1:      row.DockRoom1,
		Room2:      row.DockRoom2,
		DockType:   row.DockType,
		Status:     row.DockStatus,
		X:          row.DockX,
		Y:          row.DockY,
		Z:          row.DockZ,
		DockedAt:   row.DockTime,
		UndockedAt: row.UndockTime,
	}
}

func ShipCargoToItems(rows []model.ShipCargo) []vessel.CargoItem {
	out := make([]vessel.CargoItem, len(rows))
	for i, r := range rows {
		out[i] = vessel.CargoItem{
			Room:   r.CargoRoom,
			ItemID: r.ItemID,
			Name:   r.ItemName,
			Count:  r.ItemCount,
			Weight: r.ItemWeight,
		}
	}
	return out
}

func ShipCrewToMembers(rows []model.ShipCrew) []vessel.CrewMember {
	out := make([]vessel.CrewMember, len(rows))
	for i, r := range rows {
		out[i] = vessel.CrewMember{
			NpcID:  r.NpcID,
			Name:   r.NpcName,
			Role:   r.CrewRole,
			Room:   r.AssignedRoom,
			Status: r.Status,
		}
	}
	return out
}

func ShipWaypointToWaypoint(row model.ShipWaypoint) autopilot.Waypoint {
	return autopilot.Waypoint{
		ID:        row.ID,
		X:         row.X,
		Y:         row.Y,
		Z:         row.Z,
		Name:      row.Name,
		Tolerance: row.Tolerance,
		WaitTime:  row.WaitTime,
		Flags:     row.Flags,
	}
}

// ShipRouteToRoute rebuilds a route from its row and links, which must be
// sorted by sequence. Links to unknown waypoints are skipped.
func ShipRouteToRoute(row model.ShipRoute, links []model.ShipRouteWaypoint, waypoints map[int]autopilot.Waypoint) autopilot.Route {
	r := autopilot.Route{
		ID:       row.ID,
		VesselID: row.ShipID,
		Name:     row.Name,
		Loop:     row.Loop,
		Active:   row.Active,
	}
	for _, l := range links {
		if wp, ok := waypoints[l.WaypointID]; ok {
			r.Waypoints = append(r.Waypoints, wp)
		}
	}
	return r
}

func ShipScheduleToSchedule(row model.ShipSchedule) schedule.Schedule {
	return schedule.Schedule{
		ID:            row.ID,
		VesselID:      row.ShipID,
		RouteID:       row.RouteID,
		IntervalHours: row.IntervalHours,
		NextDeparture: row.NextDeparture,
		Enabled:       row.Enabled,
		Paused:        row.Paused,
	}
}

func VehicleDataToVehicle(row model.VehicleData) *transport.Vehicle {
	return &transport.Vehicle{
		ID:            row.VehicleID,
		Type:          transport.Type(row.VehicleType),
		State:         transport.State(row.VehicleState),
		Name:          row.Name,
		Room:          row.Room,
		X:             row.X,
		Y:             row.Y,
		Z:             row.Z,
		Direction:     vessel.Direction(row.Direction),
		MaxPassengers: row.MaxPassengers,
		Passengers:    row.Passengers,
		MaxWeight:     row.MaxWeight,
		Weight:        row.Weight,
		BaseSpeed:     row.BaseSpeed,
		Speed:         row.Speed,
		Terrain:       transport.Terrain(row.Terrain),
		Condition:     row.Condition,
		MaxCondition:  row.MaxCondition,
		Owner:         row.Owner,
		ParentVessel:  row.ParentVessel,
	}
}
