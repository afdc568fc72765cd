package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
)

// RouteLine builds a LineString through the given positions in order.
func RouteLine(points []Position) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, fmt.Errorf("route must have at least 2 points, got %d", len(points))
	}

	flat := make([]float64, 0, len(points)*3)
	for _, p := range points {
		flat = append(flat, p.X, p.Y, p.Z)
	}

	seq := geom.NewSequence(flat, geom.DimXYZ)
	return geom.NewLineString(seq)
}

// RouteLength is the planar length of the path through points. When loop is
// set the closing leg back to the first point is included.
func RouteLength(points []Position, loop bool) float64 {
	if loop && len(points) > 1 {
		points = append(append([]Position(nil), points...), points[0])
	}
	ls, err := RouteLine(points)
	if err != nil {
		return 0
	}
	return ls.Length()
}
