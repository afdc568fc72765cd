// Package interior builds and navigates the compartment graph inside a vessel.
package interior

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/OCAP2/vessels/internal/vessel"
)

// Config tunes interior generation.
type Config struct {
	OptionalRoomChance int // percent per extra room roll
	CrossLinkChance    int // percent per adjacent pair
	HatchOneIn         int // a cross-link is a hatch one time in N
	VnumBase           int
}

// DefaultConfig returns the stock generation settings.
func DefaultConfig() Config {
	return Config{
		OptionalRoomChance: 30,
		CrossLinkChance:    40,
		HatchOneIn:         4,
		VnumBase:           70000,
	}
}

// Generator creates vessel interiors from a seeded random source.
type Generator struct {
	cfg Config
	rng *rand.Rand
	log *slog.Logger
}

// NewGenerator creates a generator. A nil logger falls back to slog.Default.
func NewGenerator(cfg Config, rng *rand.Rand, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	if cfg.HatchOneIn <= 0 {
		cfg.HatchOneIn = 1
	}
	return &Generator{cfg: cfg, rng: rng, log: log.With("component", "interior")}
}

func (g *Generator) roll(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

// Generate builds the interior of v if it has none. It reports whether
// anything was generated. On budget exhaustion the interior is rolled back
// to empty and the error returned.
func (g *Generator) Generate(v *vessel.Vessel) (bool, error) {
	if v.HasInterior() {
		return false, nil
	}

	v.ResetInterior()
	if err := g.build(v); err != nil {
		v.ResetInterior()
		g.log.Error("Interior generation failed", "vessel", v.Name, "id", v.ID, "error", err)
		return false, err
	}

	g.log.Info("Generated interior",
		"vessel", v.Name, "id", v.ID, "class", v.Class.String(),
		"rooms", len(v.Rooms), "connections", len(v.Connections))
	return true, nil
}

func (g *Generator) build(v *vessel.Vessel) error {
	if err := g.addRoom(v, vessel.Bridge); err != nil {
		return err
	}
	for _, t := range mandatoryRooms[v.Class] {
		if err := g.addRoom(v, t); err != nil {
			return err
		}
	}

	for len(v.Rooms) < v.Class.MaxRooms() {
		if g.roll(1, 100) > g.cfg.OptionalRoomChance {
			break
		}
		if err := g.addRoom(v, g.optionalRoom(v.Class)); err != nil {
			return err
		}
	}

	if v.Entrance == vessel.NoRoom {
		if len(v.Rooms) > 1 {
			v.Entrance = 1
		} else {
			v.Entrance = v.Bridge
		}
	}

	return g.connect(v)
}

func (g *Generator) optionalRoom(c vessel.Class) vessel.RoomType {
	if c == vessel.Warship && g.roll(1, 3) == 1 {
		return vessel.Weapons
	}
	if c == vessel.Transport && g.roll(1, 2) == 1 {
		return vessel.Cargo
	}
	return commonRooms[g.roll(1, len(commonRooms))-1]
}

func (g *Generator) addRoom(v *vessel.Vessel, t vessel.RoomType) error {
	if len(v.Rooms) >= vessel.MaxShipRooms {
		return vessel.ErrRoomBudget
	}
	tmpl := roomTemplates[t]
	idx := len(v.Rooms)

	v.Rooms = append(v.Rooms, vessel.Compartment{
		Index:          idx,
		Vnum:           g.cfg.VnumBase + v.ID*vessel.MaxShipRooms + idx,
		Type:           t,
		Name:           fmt.Sprintf(tmpl.name, v.Name),
		Description:    fmt.Sprintf(tmpl.description, v.Name),
		VehicleCapable: true,
		Indoor:         tmpl.indoor,
		Sector:         tmpl.sector,
		X:              int(v.X),
		Y:              int(v.Y),
	})

	switch t {
	case vessel.Bridge:
		v.Bridge = idx
	case vessel.Cargo:
		if len(v.CargoRooms) < vessel.MaxCargoRooms {
			v.CargoRooms = append(v.CargoRooms, idx)
		}
	case vessel.Quarters:
		if len(v.Quarters) < vessel.MaxQuarters {
			v.Quarters = append(v.Quarters, idx)
		}
	case vessel.Airlock:
		if v.Entrance == vessel.NoRoom {
			v.Entrance = idx
		}
	}
	return nil
}

func link(v *vessel.Vessel, from, to int, dir vessel.Direction, hatch bool) error {
	return v.AddConnection(vessel.Connection{
		From:  v.Ref(from),
		To:    v.Ref(to),
		Dir:   dir,
		Hatch: hatch,
	})
}

// freeBetween finds the first spoke direction open leaving a and arriving at b.
func freeBetween(v *vessel.Vessel, a, b int) (vessel.Direction, bool) {
	for _, d := range spokes {
		if v.DirectionFree(a, d) && v.DirectionFree(b, d.Opposite()) {
			return d, true
		}
	}
	return vessel.North, false
}

func (g *Generator) connect(v *vessel.Vessel) error {
	n := len(v.Rooms)
	if n <= 1 {
		return nil
	}

	if n <= 3 {
		for i := 0; i < n-1; i++ {
			if err := link(v, i, i+1, vessel.North, false); err != nil {
				return err
			}
		}
		return nil
	}

	// hub and spoke from the bridge; past eight spokes a room hangs off the
	// earliest room that still has a free direction
	for i := 1; i < n; i++ {
		if i <= len(spokes) {
			if err := link(v, v.Bridge, i, spokes[i-1], false); err != nil {
				return err
			}
			continue
		}
		attached := false
		for parent := 1; parent < i && !attached; parent++ {
			if d, ok := freeBetween(v, parent, i); ok {
				if err := link(v, parent, i, d, false); err != nil {
					return err
				}
				attached = true
			}
		}
		if !attached {
			return fmt.Errorf("no free direction to attach room %d", i)
		}
	}

	for i := 1; i < n-1; i++ {
		if g.roll(1, 100) > g.cfg.CrossLinkChance {
			continue
		}
		if len(v.Connections) >= vessel.MaxConnections {
			break
		}
		d, ok := freeBetween(v, i, i+1)
		if !ok {
			continue
		}
		hatch := g.rng.Intn(g.cfg.HatchOneIn) == 0
		if err := link(v, i, i+1, d, hatch); err != nil {
			return err
		}
	}
	return nil
}
