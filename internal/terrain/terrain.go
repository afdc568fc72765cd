package terrain

import "strings"

// Sector classifies the surface at a map position.
type Sector int

const (
	Inside Sector = iota
	City
	Field
	Forest
	Hills
	Mountain
	WaterSwim
	WaterNoSwim
	Flying
	Underwater
	Road
	Desert
	Ocean
	Marshland
	HighMountain
	Beach
	Seaport
	Cave
	Jungle
	Tundra
	Taiga
	Lava
	River
)

var sectorNames = [...]string{
	Inside:       "Inside",
	City:         "City",
	Field:        "Field",
	Forest:       "Forest",
	Hills:        "Hills",
	Mountain:     "Mountains",
	WaterSwim:    "Water (Swim)",
	WaterNoSwim:  "Water (No Swim)",
	Flying:       "In Flight",
	Underwater:   "Underwater",
	Road:         "Road",
	Desert:       "Desert",
	Ocean:        "Ocean",
	Marshland:    "Marshland",
	HighMountain: "High Mountain",
	Beach:        "Beach",
	Seaport:      "Seaport",
	Cave:         "Cave",
	Jungle:       "Jungle",
	Tundra:       "Tundra",
	Taiga:        "Taiga",
	Lava:         "Lava",
	River:        "River",
}

func (s Sector) String() string {
	if s < 0 || int(s) >= len(sectorNames) {
		return "Unknown"
	}
	return sectorNames[s]
}

// ParseSector resolves a sector by its display name or a compact key such as "water_swim".
func ParseSector(name string) (Sector, bool) {
	key := normalize(name)
	for i, n := range sectorNames {
		if normalize(n) == key {
			return Sector(i), true
		}
	}
	switch key {
	case "waterswim":
		return WaterSwim, true
	case "waternoswim":
		return WaterNoSwim, true
	case "mountain":
		return Mountain, true
	case "flying":
		return Flying, true
	}
	return Inside, false
}

func normalize(s string) string {
	r := strings.NewReplacer(" ", "", "_", "", "(", "", ")", "", "-", "")
	return strings.ToLower(r.Replace(s))
}

// Lookup resolves the sector at a wilderness coordinate.
type Lookup interface {
	SectorAt(x, y int) Sector
}

// Weather reports local weather severity at a coordinate; 0 is clear.
type Weather interface {
	WeatherAt(x, y int) int
}

// Describe turns a weather severity into the text shown to players.
func Describe(severity int) string {
	switch {
	case severity <= 0:
		return "Clear skies"
	case severity == 1:
		return "Overcast with light rain"
	case severity == 2:
		return "Heavy rain and rough seas"
	default:
		return "A raging storm"
	}
}

// Uniform reports the same sector everywhere.
type Uniform Sector

func (u Uniform) SectorAt(int, int) Sector { return Sector(u) }

// FixedWeather reports the same severity everywhere.
type FixedWeather int

func (w FixedWeather) WeatherAt(int, int) int { return int(w) }

// Grid is a sparse sector map with a fallback for unset cells.
type Grid struct {
	Default Sector
	cells   map[[2]int]Sector
}

// NewGrid creates an empty grid that answers def for every cell.
func NewGrid(def Sector) *Grid {
	return &Grid{Default: def, cells: make(map[[2]int]Sector)}
}

// Set assigns a sector to a single cell.
func (g *Grid) Set(x, y int, s Sector) {
	g.cells[[2]int{x, y}] = s
}

// Fill assigns a sector to every cell of the inclusive rectangle.
func (g *Grid) Fill(x1, y1, x2, y2 int, s Sector) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	for x := x1; x <= x2; x++ {
		for y := y1; y <= y2; y++ {
			g.cells[[2]int{x, y}] = s
		}
	}
}

func (g *Grid) SectorAt(x, y int) Sector {
	if s, ok := g.cells[[2]int{x, y}]; ok {
		return s
	}
	return g.Default
}
