package vessel

import (
	"fmt"
	"strings"

	"github.com/OCAP2/vessels/internal/terrain"
	"gopkg.in/yaml.v3"
)

// Class is the hull category of a vessel. It drives interior size,
// vehicle capacity and which sectors the vessel can navigate.
type Class int

const (
	Raft Class = iota
	Boat
	Ship
	Warship
	Airship
	Submarine
	Transport
	Magical
)

// Classes lists every class in declaration order.
var Classes = []Class{Raft, Boat, Ship, Warship, Airship, Submarine, Transport, Magical}

type classInfo struct {
	name            string
	baseRooms       int
	maxRooms        int
	vehicleCapacity int
	maxAltitude     int
}

var classTable = [...]classInfo{
	Raft:      {"Raft", 1, 2, 2, 0},
	Boat:      {"Boat", 2, 4, 4, 0},
	Ship:      {"Ship", 3, 8, MaxVehiclesPerVessel, 0},
	Warship:   {"Warship", 5, 15, MaxVehiclesPerVessel, 0},
	Airship:   {"Airship", 4, 10, MaxVehiclesPerVessel, 500},
	Submarine: {"Submarine", 4, 12, MaxVehiclesPerVessel, 0},
	Transport: {"Transport", 6, 20, MaxVehiclesPerVessel, 0},
	Magical:   {"Magical Vessel", 3, 10, MaxVehiclesPerVessel, 1000},
}

func (c Class) valid() bool { return c >= 0 && int(c) < len(classTable) }

func (c Class) info() classInfo {
	if !c.valid() {
		return classTable[Ship]
	}
	return classTable[c]
}

func (c Class) String() string {
	if !c.valid() {
		return "Unknown"
	}
	return classTable[c].name
}

// BaseRooms is the number of mandatory compartments, bridge included.
func (c Class) BaseRooms() int { return c.info().baseRooms }

// MaxRooms caps the interior size for the class.
func (c Class) MaxRooms() int { return c.info().maxRooms }

// VehicleCapacity is how many land vehicles the class can carry.
func (c Class) VehicleCapacity() int { return c.info().vehicleCapacity }

// ParseClass resolves a class by name, case-insensitively.
func ParseClass(name string) (Class, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, info := range classTable {
		if strings.ToLower(info.name) == n {
			return Class(i), nil
		}
	}
	if n == "magical" {
		return Magical, nil
	}
	return Ship, fmt.Errorf("unknown vessel class: %q", name)
}

// UnmarshalYAML lets templates name their class.
func (c *Class) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseClass(value.Value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML writes the class by name.
func (c Class) MarshalYAML() (any, error) {
	return c.String(), nil
}

// terrainSpeed holds the percentage speed each class manages per sector.
// Missing sectors are impassable.
var terrainSpeed = map[Class]map[terrain.Sector]int{
	Raft: {
		terrain.WaterSwim: 100, terrain.River: 100, terrain.Marshland: 75,
		terrain.Seaport: 60, terrain.Beach: 50,
	},
	Boat: {
		terrain.WaterSwim: 100, terrain.River: 100, terrain.WaterNoSwim: 75,
		terrain.Marshland: 80, terrain.Seaport: 70, terrain.Beach: 60,
	},
	Ship: {
		terrain.Ocean: 100, terrain.WaterNoSwim: 100, terrain.WaterSwim: 75,
		terrain.Seaport: 80, terrain.River: 50,
	},
	Warship: {
		terrain.Ocean: 100, terrain.WaterNoSwim: 100, terrain.WaterSwim: 75,
		terrain.Seaport: 80, terrain.River: 50,
	},
	Submarine: {
		terrain.Underwater: 100, terrain.Ocean: 100, terrain.WaterNoSwim: 90,
		terrain.Seaport: 90, terrain.WaterSwim: 50, terrain.River: 40,
	},
	Transport: {
		terrain.Ocean: 100, terrain.WaterNoSwim: 90, terrain.Seaport: 70,
		terrain.WaterSwim: 60, terrain.River: 60,
	},
}

// TerrainSpeed is the percentage of normal speed the class manages in a
// sector, reduced by weather severity. Zero means impassable.
func (c Class) TerrainSpeed(s terrain.Sector, weather int) int {
	mod := c.baseTerrainSpeed(s)
	if mod == 0 {
		return 0
	}
	if weather > 0 {
		if c == Airship {
			mod -= weather * 10
		}
		if c != Submarine || s != terrain.Underwater {
			mod -= weather * 5
		}
	}
	return max(0, min(mod, 150))
}

func (c Class) baseTerrainSpeed(s terrain.Sector) int {
	switch c {
	case Airship:
		switch s {
		case terrain.Inside, terrain.Underwater, terrain.Cave:
			return 0
		case terrain.City:
			return 80
		}
		return 100
	case Magical:
		switch s {
		case terrain.Inside:
			return 0
		case terrain.Underwater, terrain.Lava:
			return 80
		}
		return 100
	}
	return terrainSpeed[c][s]
}

// CanNavigate reports whether the class may enter a sector at altitude z.
// Flying classes above 100 pass over any open sector up to their ceiling.
func (c Class) CanNavigate(s terrain.Sector, z float64) bool {
	ceiling := c.info().maxAltitude
	if ceiling > 0 && z > 100 {
		if z > float64(ceiling) {
			return false
		}
		return s != terrain.Inside
	}
	return c.baseTerrainSpeed(s) > 0
}
