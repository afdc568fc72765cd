package vessel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OCAP2/vessels/internal/geo"
)

const (
	MaxShipRooms         = 20
	MaxConnections       = 40
	MaxCargoRooms        = 5
	MaxQuarters          = 10
	MaxSlots             = 10
	MaxSpeed             = 30
	MaxVehiclesPerVessel = 10

	// NoVessel marks an undocked vessel.
	NoVessel = -1
)

var (
	ErrRoomBudget       = errors.New("interior room limit reached")
	ErrConnectionBudget = errors.New("interior connection limit reached")
	ErrNoCargoRoom      = errors.New("vessel has no cargo hold")
	ErrCargoNotFound    = errors.New("cargo item not aboard")
	ErrCrewAssigned     = errors.New("npc already serves aboard")
)

// Notifier delivers a line of text to everyone aboard a vessel.
type Notifier interface {
	SendToVessel(v *Vessel, msg string)
}

// Armor is one hull quadrant.
type Armor struct {
	Current int `yaml:"current"`
	Max     int `yaml:"max"`
}

// Quadrants groups the four hull facings.
type Quadrants struct {
	Fore      Armor `yaml:"fore"`
	Rear      Armor `yaml:"rear"`
	Port      Armor `yaml:"port"`
	Starboard Armor `yaml:"starboard"`
}

// DamagePercent is the share of total hull armor lost, 0 to 100.
func (q Quadrants) DamagePercent() int {
	cur := q.Fore.Current + q.Rear.Current + q.Port.Current + q.Starboard.Current
	maxArmor := q.Fore.Max + q.Rear.Max + q.Port.Max + q.Starboard.Max
	if maxArmor <= 0 {
		return 0
	}
	return 100 - cur*100/maxArmor
}

// EquipmentSlot is a mounted fitting such as a cannon or ram.
type EquipmentSlot struct {
	Type        string `yaml:"type"`
	Position    string `yaml:"position"`
	Weight      int    `yaml:"weight"`
	Description string `yaml:"description"`
	Timer       int    `yaml:"-"`
}

// CrewRating describes how well a crew performs its duty.
type CrewRating struct {
	Name        string `yaml:"name"`
	SpeedAdjust int    `yaml:"speedAdjust"`
	GunAdjust   int    `yaml:"gunAdjust"`
	RepairSpeed int    `yaml:"repairSpeed"`
}

// CargoItem is a manifest line stored in one of the cargo holds.
type CargoItem struct {
	Room   int
	ItemID int
	Name   string
	Count  int
	Weight int
}

// CrewMember is an NPC assigned to the vessel.
type CrewMember struct {
	NpcID  int
	Name   string
	Role   string
	Room   int
	Status string
}

// Vessel is a ship, boat or airship with a generated interior.
type Vessel struct {
	ID      int
	ShortID string
	Owner   string
	Name    string
	Class   Class

	X, Y, Z    float64
	Heading    int
	SetHeading int
	Speed      int
	SetSpeed   int
	MinSpeed   int
	MaxSpeed   int

	Armor   Quadrants
	Slots   []EquipmentSlot
	Sailing CrewRating
	Gunnery CrewRating

	DockedTo    int
	DockingRoom int

	Rooms       []Compartment
	Connections []Connection
	Bridge      int
	Entrance    int
	CargoRooms  []int
	Quarters    []int

	Cargo []CargoItem
	Crew  []CrewMember
}

// Position returns the vessel location.
func (v *Vessel) Position() geo.Position {
	return geo.Position{X: v.X, Y: v.Y, Z: v.Z}
}

// SetPosition moves the vessel and keeps every compartment's coordinates in step.
func (v *Vessel) SetPosition(x, y, z float64) {
	v.X, v.Y, v.Z = x, y, z
	v.SyncRoomCoordinates()
}

// SyncRoomCoordinates copies the vessel grid position onto each compartment.
func (v *Vessel) SyncRoomCoordinates() {
	for i := range v.Rooms {
		v.Rooms[i].X = int(v.X)
		v.Rooms[i].Y = int(v.Y)
	}
}

func (v *Vessel) IsDocked() bool { return v.DockedTo != NoVessel }

// IsStationary reports whether the vessel is at a standstill.
func (v *Vessel) IsStationary() bool { return v.Speed == 0 }

func (v *Vessel) HasInterior() bool { return len(v.Rooms) > 0 }

// Room returns the compartment at index idx.
func (v *Vessel) Room(idx int) (*Compartment, bool) {
	if idx < 0 || idx >= len(v.Rooms) {
		return nil, false
	}
	return &v.Rooms[idx], true
}

// Ref addresses compartment idx of this vessel.
func (v *Vessel) Ref(idx int) RoomRef {
	return RoomRef{Vessel: v.ID, Room: idx}
}

// RoomByType returns the first compartment of type t.
func (v *Vessel) RoomByType(t RoomType) (*Compartment, bool) {
	for i := range v.Rooms {
		if v.Rooms[i].Type == t {
			return &v.Rooms[i], true
		}
	}
	return nil, false
}

// RoomByVnum finds a compartment by its world room number.
func (v *Vessel) RoomByVnum(vnum int) (*Compartment, bool) {
	for i := range v.Rooms {
		if v.Rooms[i].Vnum == vnum {
			return &v.Rooms[i], true
		}
	}
	return nil, false
}

// Exit finds the connection leaving room in direction dir and where it leads.
func (v *Vessel) Exit(room int, dir Direction) (*Connection, RoomRef, bool) {
	from := v.Ref(room)
	for i := range v.Connections {
		if to, ok := v.Connections[i].Traverse(from, dir); ok {
			return &v.Connections[i], to, true
		}
	}
	return nil, RoomRef{}, false
}

// DirectionFree reports whether room has no exit in direction dir.
func (v *Vessel) DirectionFree(room int, dir Direction) bool {
	_, _, used := v.Exit(room, dir)
	return !used
}

// AddConnection appends a link, enforcing the connection budget.
func (v *Vessel) AddConnection(c Connection) error {
	if len(v.Connections) >= MaxConnections {
		return ErrConnectionBudget
	}
	v.Connections = append(v.Connections, c)
	return nil
}

// InteriorConnections returns the links that stay within this vessel.
func (v *Vessel) InteriorConnections() []Connection {
	out := make([]Connection, 0, len(v.Connections))
	for _, c := range v.Connections {
		if !c.Docking() {
			out = append(out, c)
		}
	}
	return out
}

// RemoveDockingConnections drops every gangway to partner and reports how many went.
func (v *Vessel) RemoveDockingConnections(partner int) int {
	kept := v.Connections[:0]
	removed := 0
	for _, c := range v.Connections {
		if c.Docking() && (c.From.Vessel == partner || c.To.Vessel == partner) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	v.Connections = kept
	return removed
}

// ClearDocking resets the docking fields.
func (v *Vessel) ClearDocking() {
	v.DockedTo = NoVessel
	v.DockingRoom = NoRoom
}

// ResetInterior discards every compartment and connection.
func (v *Vessel) ResetInterior() {
	v.Rooms = nil
	v.Connections = nil
	v.Bridge = NoRoom
	v.Entrance = NoRoom
	v.CargoRooms = nil
	v.Quarters = nil
}

func (v *Vessel) matches(name string) bool {
	return strings.HasPrefix(strings.ToLower(v.Name), strings.ToLower(name))
}

// AddCargo stows an item in the given hold, or the first hold when room is NoRoom.
func (v *Vessel) AddCargo(item CargoItem) error {
	if len(v.CargoRooms) == 0 {
		return ErrNoCargoRoom
	}
	if item.Room == NoRoom {
		item.Room = v.CargoRooms[0]
	}
	found := false
	for _, r := range v.CargoRooms {
		if r == item.Room {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("room %d is not a cargo hold: %w", item.Room, ErrNoCargoRoom)
	}
	if item.Count <= 0 {
		item.Count = 1
	}
	for i := range v.Cargo {
		c := &v.Cargo[i]
		if c.ItemID == item.ItemID && c.Room == item.Room {
			c.Count += item.Count
			c.Weight += item.Weight
			return nil
		}
	}
	v.Cargo = append(v.Cargo, item)
	return nil
}

// RemoveCargo takes count units of an item off the manifest.
func (v *Vessel) RemoveCargo(itemID, count int) error {
	for i := range v.Cargo {
		c := &v.Cargo[i]
		if c.ItemID != itemID {
			continue
		}
		if count <= 0 || count >= c.Count {
			v.Cargo = append(v.Cargo[:i], v.Cargo[i+1:]...)
			return nil
		}
		per := c.Weight / c.Count
		c.Count -= count
		c.Weight -= per * count
		return nil
	}
	return ErrCargoNotFound
}

// AssignCrew adds an NPC to the roster.
func (v *Vessel) AssignCrew(m CrewMember) error {
	for _, c := range v.Crew {
		if c.NpcID == m.NpcID {
			return ErrCrewAssigned
		}
	}
	if m.Status == "" {
		m.Status = "active"
	}
	v.Crew = append(v.Crew, m)
	return nil
}

// UnassignCrew removes an NPC from the roster.
func (v *Vessel) UnassignCrew(npcID int) bool {
	for i, c := range v.Crew {
		if c.NpcID == npcID {
			v.Crew = append(v.Crew[:i], v.Crew[i+1:]...)
			return true
		}
	}
	return false
}

// CrewByRole lists the roster entries holding role.
func (v *Vessel) CrewByRole(role string) []CrewMember {
	var out []CrewMember
	for _, c := range v.Crew {
		if strings.EqualFold(c.Role, role) {
			out = append(out, c)
		}
	}
	return out
}
