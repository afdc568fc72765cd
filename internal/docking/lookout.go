package docking

import (
	"fmt"
	"strings"

	"github.com/OCAP2/vessels/internal/geo"
	"github.com/OCAP2/vessels/internal/interior"
	"github.com/OCAP2/vessels/internal/terrain"
	"github.com/OCAP2/vessels/internal/vessel"
)

// LookOutside describes the surroundings of v as seen from compartment room.
func (c *Coordinator) LookOutside(v *vessel.Vessel, room int) (string, error) {
	if !interior.HasOutsideView(v, room) {
		return "", fail(ErrNoView, "You can't see outside from here.")
	}

	x, y := int(v.X), int(v.Y)
	weather := 0
	if c.deps.Weather != nil {
		weather = c.deps.Weather.WeatherAt(x, y)
	}

	var b strings.Builder
	b.WriteString("\nLooking outside:\n")
	b.WriteString("================\n")
	fmt.Fprintf(&b, "Position: [%d, %d] Altitude: %d\n", x, y, int(v.Z))
	fmt.Fprintf(&b, "Terrain: %s\n", c.deps.Terrain.SectorAt(x, y))
	fmt.Fprintf(&b, "Weather: %s\n", terrain.Describe(weather))

	b.WriteString("\nNearby vessels:\n")
	pos := v.Position()
	seen := c.deps.Registry.Near(v, SightRange)
	for _, o := range seen {
		fmt.Fprintf(&b, "  %s - bearing %d degrees, range %.1f\n",
			o.Name, geo.Bearing(pos, o.Position()), geo.Range(pos, o.Position()))
	}
	if len(seen) == 0 {
		b.WriteString("  No vessels in sight.\n")
	}
	return b.String(), nil
}
