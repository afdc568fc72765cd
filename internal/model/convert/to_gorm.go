// Package convert maps between the engine's domain types and the GORM models.
package convert

import (
	"encoding/json"

	"github.com/OCAP2/vessels/internal/autopilot"
	"github.com/OCAP2/vessels/internal/docking"
	"github.com/OCAP2/vessels/internal/model"
	"github.com/OCAP2/vessels/internal/schedule"
	"github.com/OCAP2/vessels/internal/transport"
	"github.com/OCAP2/vessels/internal/vessel"
	"gorm.io/datatypes"
)

// intsToJSON encodes a list of ints, "[]" when empty.
func intsToJSON(list []int) datatypes.JSON {
	if len(list) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(list)
	return datatypes.JSON(data)
}

// cargoRoom returns the i-th cargo hold or vessel.NoRoom.
func cargoRoom(rooms []int, i int) int {
	if i < len(rooms) {
		return rooms[i]
	}
	return vessel.NoRoom
}

// InteriorToShipInterior converts a vessel's interior to its table row.
// Docking gangways are not part of the row.
func InteriorToShipInterior(v *vessel.Vessel) model.ShipInterior {
	in := v.Snapshot()

	vnums := make([]int, len(in.Rooms))
	data := model.RoomData{
		Rooms:       make([]model.RoomRecord, len(in.Rooms)),
		Connections: make([]model.ConnectionRecord, len(in.Connections)),
		Quarters:    in.Quarters,
	}
	for i, r := range in.Rooms {
		vnums[i] = r.Vnum
		data.Rooms[i] = model.RoomRecord{
			Vnum:           r.Vnum,
			Type:           int(r.Type),
			Name:           r.Name,
			Description:    r.Description,
			VehicleCapable: r.VehicleCapable,
			Indoor:         r.Indoor,
			Sector:         int(r.Sector),
		}
	}
	for i, c := range in.Connections {
		data.Connections[i] = model.ConnectionRecord{
			From:   c.From.Room,
			To:     c.To.Room,
			Dir:    int(c.Dir),
			Hatch:  c.Hatch,
			Locked: c.Locked,
		}
	}
	roomData, _ := json.Marshal(data)

	return model.ShipInterior{
		ShipID:       v.ID,
		VesselType:   v.Class.String(),
		VesselName:   v.Name,
		NumRooms:     len(in.Rooms),
		RoomVnums:    intsToJSON(vnums),
		BridgeRoom:   in.Bridge,
		EntranceRoom: in.Entrance,
		CargoRoom1:   cargoRoom(in.CargoRooms, 0),
		CargoRoom2:   cargoRoom(in.CargoRooms, 1),
		CargoRoom3:   cargoRoom(in.CargoRooms, 2),
		CargoRoom4:   cargoRoom(in.CargoRooms, 3),
		CargoRoom5:   cargoRoom(in.CargoRooms, 4),
		RoomData:     datatypes.JSON(roomData),
	}
}

// RecordToShipDocking converts a docking record to its table row.
func RecordToShipDocking(r docking.Record) model.ShipDocking {
	return model.ShipDocking{
		Ref:        r.Ref,
		Ship1ID:    r.Ship1,
		Ship2ID:    r.Ship2,
		DockRoom1:  r.Room1,
		DockRoom2:  r.Room2,
		DockType:   r.DockType,
		DockStatus: r.Status,
		DockX:      r.X,
		DockY:      r.Y,
		DockZ:      r.Z,
		DockTime:   r.DockedAt,
		UndockTime: r.UndockedAt,
	}
}

// CargoToShipCargo converts a vessel's manifest to rows.
func CargoToShipCargo(shipID int, items []vessel.CargoItem) []model.ShipCargo {
	out := make([]model.ShipCargo, len(items))
	for i, it := range items {
		out[i] = model.ShipCargo{
			ShipID:     shipID,
			CargoRoom:  it.Room,
			ItemID:     it.ItemID,
			ItemName:   it.Name,
			ItemCount:  it.Count,
			ItemWeight: it.Weight,
		}
	}
	return out
}

// CrewToShipCrew converts a vessel's roster to rows.
func CrewToShipCrew(shipID int, crew []vessel.CrewMember) []model.ShipCrew {
	out := make([]model.ShipCrew, len(crew))
	for i, m := range crew {
		out[i] = model.ShipCrew{
			ShipID:       shipID,
			NpcID:        m.NpcID,
			NpcName:      m.Name,
			CrewRole:     m.Role,
			AssignedRoom: m.Room,
			Status:       m.Status,
		}
	}
	return out
}

func WaypointToShipWaypoint(w autopilot.Waypoint) model.ShipWaypoint {
	return model.ShipWaypoint{
		ID:        w.ID,
		Name:      w.Name,
		X:         w.X,
		Y:         w.Y,
		Z:         w.Z,
		Tolerance: w.Tolerance,
		WaitTime:  w.WaitTime,
		Flags:     w.Flags,
	}
}

// RouteToShipRoute converts a route to its row and its ordered waypoint links.
func RouteToShipRoute(r *autopilot.Route) (model.ShipRoute, []model.ShipRouteWaypoint) {
	links := make([]model.ShipRouteWaypoint, len(r.Waypoints))
	for i, wp := range r.Waypoints {
		links[i] = model.ShipRouteWaypoint{
			RouteID:     r.ID,
			WaypointID:  wp.ID,
			SequenceNum: i,
		}
	}
	return model.ShipRoute{
		ID:     r.ID,
		ShipID: r.VesselID,
		Name:   r.Name,
		Loop:   r.Loop,
		Active: r.Active,
	}, links
}

func ScheduleToShipSchedule(s schedule.Schedule) model.ShipSchedule {
	return model.ShipSchedule{
		ID:            s.ID,
		ShipID:        s.VesselID,
		RouteID:       s.RouteID,
		IntervalHours: s.IntervalHours,
		NextDeparture: s.NextDeparture,
		Enabled:       s.Enabled,
		Paused:        s.Paused,
	}
}

func VehicleToVehicleData(v *transport.Vehicle) model.VehicleData {
	return model.VehicleData{
		VehicleID:     v.ID,
		VehicleType:   int(v.Type),
		VehicleState:  int(v.State),
		Name:          v.Name,
		Room:          v.Room,
		X:             v.X,
		Y:             v.Y,
		Z:             v.Z,
		Direction:     int(v.Direction),
		MaxPassengers: v.MaxPassengers,
		Passengers:    v.Passengers,
		MaxWeight:     v.MaxWeight,
		Weight:        v.Weight,
		BaseSpeed:     v.BaseSpeed,
		Speed:         v.Speed,
		Terrain:       int(v.Terrain),
		Condition:     v.Condition,
		MaxCondition:  v.MaxCondition,
		Owner:         v.Owner,
		ParentVessel:  v.ParentVessel,
	}
}
