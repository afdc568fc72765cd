package vessel

import "github.com/OCAP2/vessels/internal/terrain"

// RoomType is the purpose of a compartment.
type RoomType int

const (
	Bridge RoomType = iota
	Quarters
	Cargo
	Engineering
	Weapons
	Medical
	MessHall
	Corridor
	Airlock
	Deck
)

var roomTypeNames = [...]string{"Bridge", "Quarters", "Cargo", "Engineering", "Weapons", "Medical", "Mess Hall", "Corridor", "Airlock", "Deck"}

func (t RoomType) String() string {
	if t < 0 || int(t) >= len(roomTypeNames) {
		return "Unknown"
	}
	return roomTypeNames[t]
}

// NoRoom marks an absent compartment index.
const NoRoom = -1

// RoomRef addresses a compartment by vessel id and interior index.
type RoomRef struct {
	Vessel int
	Room   int
}

// Compartment is one room of a vessel interior.
type Compartment struct {
	Index          int
	Vnum           int
	Type           RoomType
	Name           string
	Description    string
	VehicleCapable bool
	Indoor         bool
	Sector         terrain.Sector

	// world coordinates, kept in step with the owning vessel
	X, Y int
}

// Connection is a single link between two compartments. The reverse
// traversal uses Dir.Opposite(). A link whose endpoints lie on different
// vessels is a docking gangway.
type Connection struct {
	From   RoomRef
	To     RoomRef
	Dir    Direction
	Hatch  bool
	Locked bool
}

// Docking reports whether the connection crosses between vessels.
func (c Connection) Docking() bool {
	return c.From.Vessel != c.To.Vessel
}

// Traverse returns the far side of the connection when leaving at from in
// direction dir.
func (c Connection) Traverse(from RoomRef, dir Direction) (RoomRef, bool) {
	if c.From == from && c.Dir == dir {
		return c.To, true
	}
	if c.To == from && c.Dir.Opposite() == dir {
		return c.From, true
	}
	return RoomRef{}, false
}
