package vessel

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrInteriorMismatch = errors.New("interior belongs to another vessel")

// Interior is a detached copy of a vessel's room graph. Docking gangways
// are never part of it. Class and Name record the vessel it was built for;
// both are empty on interiors saved without them.
type Interior struct {
	Class       string
	Name        string
	Rooms       []Compartment
	Connections []Connection
	Bridge      int
	Entrance    int
	CargoRooms  []int
	Quarters    []int
}

// Snapshot copies the interior for persistence.
func (v *Vessel) Snapshot() Interior {
	return Interior{
		Class:       v.Class.String(),
		Name:        v.Name,
		Rooms:       slices.Clone(v.Rooms),
		Connections: v.InteriorConnections(),
		Bridge:      v.Bridge,
		Entrance:    v.Entrance,
		CargoRooms:  slices.Clone(v.CargoRooms),
		Quarters:    slices.Clone(v.Quarters),
	}
}

// Restore installs a persisted interior, re-homing every compartment and
// link onto this vessel's id. Docking state is reset. An interior built
// for a different class or name is refused.
func (v *Vessel) Restore(in Interior) error {
	if in.Class != "" && (in.Class != v.Class.String() || !strings.EqualFold(in.Name, v.Name)) {
		return fmt.Errorf("%w: %s %q", ErrInteriorMismatch, in.Class, in.Name)
	}
	if len(in.Rooms) > MaxShipRooms {
		return ErrRoomBudget
	}
	if len(in.Connections) > MaxConnections {
		return ErrConnectionBudget
	}
	v.ResetInterior()
	v.ClearDocking()

	v.Rooms = slices.Clone(in.Rooms)
	for i := range v.Rooms {
		v.Rooms[i].Index = i
	}
	v.Connections = make([]Connection, 0, len(in.Connections))
	for _, c := range in.Connections {
		if c.From.Vessel != c.To.Vessel {
			continue
		}
		c.From.Vessel, c.To.Vessel = v.ID, v.ID
		v.Connections = append(v.Connections, c)
	}
	v.Bridge = in.Bridge
	v.Entrance = in.Entrance
	v.CargoRooms = slices.Clone(in.CargoRooms)
	v.Quarters = slices.Clone(in.Quarters)
	v.SyncRoomCoordinates()
	return nil
}
