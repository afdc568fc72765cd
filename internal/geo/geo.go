package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/wroge/wgs84"
)

// World coordinates are flat units on the wilderness grid. For export they are
// treated as EPSG:3857 metres multiplied by a configurable scale.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Position is a point in world space.
type Position struct {
	X, Y, Z float64
}

// ParsePosition parses "x,y" or "x,y,z" into a Position.
func ParsePosition(coords string) (Position, error) {
	parts := strings.Split(coords, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return Position{}, ErrInvalidCoordinates
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Position{}, ErrInvalidCoordinates
		}
		vals[i] = v
	}
	return Position{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// Range is the 3D euclidean distance between two positions.
func Range(a, b Position) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	dz := b.Z - a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Bearing is the compass bearing in whole degrees from a to b, 0 being north (+Y)
// and 90 east (+X).
func Bearing(from, to Position) int {
	dx := to.X - from.X
	dy := to.Y - from.Y
	if dx == 0 && dy == 0 {
		return 0
	}
	deg := math.Atan2(dx, dy) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return int(math.Floor(deg+1e-9)) % 360
}

// Unit2D returns the normalized planar direction from a to b and the planar distance.
// A zero-length vector yields (0, 0, 0).
func Unit2D(from, to Position) (ux, uy, dist float64) {
	dx := to.X - from.X
	dy := to.Y - from.Y
	dist = math.Hypot(dx, dy)
	if dist == 0 {
		return 0, 0, 0
	}
	return dx / dist, dy / dist, dist
}

// LonLat projects a world position to WGS84 longitude and latitude.
func LonLat(p Position, scale float64) (lon, lat float64) {
	if scale == 0 {
		scale = 1
	}
	epsg := wgs84.EPSG()
	f := epsg.Transform(3857, 4326)
	lon, lat, _ = f(p.X*scale, p.Y*scale, 0)
	return lon, lat
}
