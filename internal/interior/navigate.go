package interior

import (
	"errors"
	"strings"

	"github.com/OCAP2/vessels/internal/vessel"
)

var (
	ErrNoExit  = errors.New("no exit in that direction")
	ErrBlocked = errors.New("exit is blocked by a locked hatch")
	ErrNoHatch = errors.New("exit has no hatch")
)

// Move follows the exit from room in direction dir. Docking gangways lead
// onto the partner vessel.
func Move(v *vessel.Vessel, room int, dir vessel.Direction) (vessel.RoomRef, error) {
	conn, to, ok := v.Exit(room, dir)
	if !ok {
		return vessel.RoomRef{}, ErrNoExit
	}
	if conn.Hatch && conn.Locked {
		return vessel.RoomRef{}, ErrBlocked
	}
	return to, nil
}

// Blocked reports whether the exit from room in direction dir is a locked hatch.
func Blocked(v *vessel.Vessel, room int, dir vessel.Direction) bool {
	conn, _, ok := v.Exit(room, dir)
	return ok && conn.Hatch && conn.Locked
}

// SetHatch locks or unlocks the hatch leaving room in direction dir.
func SetHatch(v *vessel.Vessel, room int, dir vessel.Direction, locked bool) error {
	conn, _, ok := v.Exit(room, dir)
	if !ok {
		return ErrNoExit
	}
	if !conn.Hatch {
		return ErrNoHatch
	}
	conn.Locked = locked
	return nil
}

// LockHatches seals every interior hatch and returns how many changed.
func LockHatches(v *vessel.Vessel) int {
	return setAllHatches(v, true)
}

// UnlockHatches opens every interior hatch and returns how many changed.
func UnlockHatches(v *vessel.Vessel) int {
	return setAllHatches(v, false)
}

func setAllHatches(v *vessel.Vessel, locked bool) int {
	changed := 0
	for i := range v.Connections {
		c := &v.Connections[i]
		if c.Hatch && c.Locked != locked {
			c.Locked = locked
			changed++
		}
	}
	return changed
}

// HasOutsideView reports whether the compartment looks out of the hull:
// the bridge, any deck, or any open-air room.
func HasOutsideView(v *vessel.Vessel, room int) bool {
	c, ok := v.Room(room)
	if !ok {
		return false
	}
	if c.Type == vessel.Bridge || !c.Indoor {
		return true
	}
	return strings.Contains(c.Name, "Deck")
}

// Reachable marks every compartment reachable from the bridge over interior links.
func Reachable(v *vessel.Vessel) []bool {
	seen := make([]bool, len(v.Rooms))
	if v.Bridge < 0 || v.Bridge >= len(v.Rooms) {
		return seen
	}

	adj := make([][]int, len(v.Rooms))
	for _, c := range v.InteriorConnections() {
		if c.From.Room < len(adj) && c.To.Room < len(adj) {
			adj[c.From.Room] = append(adj[c.From.Room], c.To.Room)
			adj[c.To.Room] = append(adj[c.To.Room], c.From.Room)
		}
	}

	queue := []int{v.Bridge}
	seen[v.Bridge] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// FullyConnected reports whether every compartment can be reached from the bridge.
func FullyConnected(v *vessel.Vessel) bool {
	if !v.HasInterior() {
		return false
	}
	for _, ok := range Reachable(v) {
		if !ok {
			return false
		}
	}
	return true
}
