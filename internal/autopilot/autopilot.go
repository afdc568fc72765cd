// Package autopilot steers vessels along stored waypoint routes.
package autopilot

import (
	"errors"
	"time"

	"github.com/OCAP2/vessels/internal/geo"
)

const (
	MaxWaypointsPerRoute = 20
	MaxRoutesPerShip     = 5
	NameLength           = 64
	DefaultTolerance     = 5.0

	// NoPilot marks an autopilot without an NPC at the helm.
	NoPilot = -1
)

var (
	ErrEmptyRoute       = errors.New("route has no waypoints")
	ErrRouteFull        = errors.New("route waypoint limit reached")
	ErrBadIndex         = errors.New("waypoint index out of range")
	ErrDocked           = errors.New("vessel is docked")
	ErrNotEngaged       = errors.New("autopilot is not traveling or waiting")
	ErrNotPaused        = errors.New("autopilot is not paused")
	ErrWaypointNotFound = errors.New("waypoint not found")
	ErrRouteNotFound    = errors.New("route not found")
	ErrTooManyRoutes    = errors.New("vessel route limit reached")
	ErrNameRequired     = errors.New("name is required")
	ErrInvalidPilot     = errors.New("npc cannot pilot a vessel")
	ErrPilotAssigned    = errors.New("vessel already has a pilot")
	ErrNoPilot          = errors.New("vessel has no pilot")
)

// State is the autopilot lifecycle state.
type State int

const (
	Off State = iota
	Traveling
	Waiting
	Paused
	Complete
)

var stateNames = [...]string{"off", "traveling", "waiting", "paused", "complete"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Waypoint is a named navigation point.
type Waypoint struct {
	ID        int
	X, Y, Z   float64
	Name      string
	Tolerance float64
	WaitTime  int // ticks to hold on arrival
	Flags     int
}

// Position returns the waypoint location.
func (w Waypoint) Position() geo.Position {
	return geo.Position{X: w.X, Y: w.Y, Z: w.Z}
}

// ArrivalRadius is the tolerance, or DefaultTolerance when unset.
func (w Waypoint) ArrivalRadius() float64 {
	if w.Tolerance <= 0 {
		return DefaultTolerance
	}
	return w.Tolerance
}

func truncateName(name string) string {
	r := []rune(name)
	if len(r) > NameLength-1 {
		return string(r[:NameLength-1])
	}
	return name
}

// Route is an ordered list of waypoints.
type Route struct {
	ID        int
	VesselID  int // owning vessel, 0 when shared
	Name      string
	Waypoints []Waypoint
	Loop      bool
	Active    bool
}

// AddWaypoint appends wp and returns its index.
func (r *Route) AddWaypoint(wp Waypoint) (int, error) {
	if len(r.Waypoints) >= MaxWaypointsPerRoute {
		return -1, ErrRouteFull
	}
	wp.Name = truncateName(wp.Name)
	r.Waypoints = append(r.Waypoints, wp)
	return len(r.Waypoints) - 1, nil
}

// RemoveWaypoint drops the waypoint at idx, shifting the rest down.
func (r *Route) RemoveWaypoint(idx int) error {
	if idx < 0 || idx >= len(r.Waypoints) {
		return ErrBadIndex
	}
	r.Waypoints = append(r.Waypoints[:idx], r.Waypoints[idx+1:]...)
	return nil
}

func (r *Route) Clear() { r.Waypoints = nil }

// Positions lists the waypoint locations in order.
func (r *Route) Positions() []geo.Position {
	out := make([]geo.Position, len(r.Waypoints))
	for i, wp := range r.Waypoints {
		out[i] = wp.Position()
	}
	return out
}

// Length is the distance covered by one pass of the route, including the
// closing leg for looping routes.
func (r *Route) Length() float64 {
	return geo.RouteLength(r.Positions(), r.Loop)
}

// Autopilot is the per-vessel navigation state.
type Autopilot struct {
	VesselID      int
	State         State
	Route         *Route
	Index         int
	TickCounter   int
	WaitRemaining int
	LastUpdate    time.Time
	PilotID       int
}

func newAutopilot(vesselID int) *Autopilot {
	return &Autopilot{VesselID: vesselID, PilotID: NoPilot}
}

// Current is the waypoint being steered for.
func (a *Autopilot) Current() (Waypoint, bool) {
	if a.Route == nil || a.Index < 0 || a.Index >= len(a.Route.Waypoints) {
		return Waypoint{}, false
	}
	return a.Route.Waypoints[a.Index], true
}

// Engaged reports whether the autopilot holds a route it has not finished.
func (a *Autopilot) Engaged() bool {
	return a.State == Traveling || a.State == Waiting || a.State == Paused
}

// Start begins route from its first waypoint.
func (a *Autopilot) Start(route *Route, now time.Time) error {
	if route == nil || len(route.Waypoints) == 0 {
		return ErrEmptyRoute
	}
	a.Route = route
	a.Index = 0
	a.WaitRemaining = 0
	a.State = Traveling
	a.LastUpdate = now
	return nil
}

// Pause holds a traveling or waiting autopilot in place.
func (a *Autopilot) Pause() error {
	if a.State != Traveling && a.State != Waiting {
		return ErrNotEngaged
	}
	a.State = Paused
	return nil
}

// Resume continues a paused route toward the same waypoint.
func (a *Autopilot) Resume() error {
	if a.State != Paused {
		return ErrNotPaused
	}
	a.State = Traveling
	return nil
}

// Stop disengages and forgets the route.
func (a *Autopilot) Stop() {
	a.State = Off
	a.Route = nil
	a.Index = 0
	a.WaitRemaining = 0
}

// advance moves to the next waypoint. It reports false once a non-looping
// route is done.
func (a *Autopilot) advance() bool {
	next := a.Index + 1
	if next >= len(a.Route.Waypoints) {
		if a.Route.Loop {
			a.Index = 0
			a.State = Traveling
			return true
		}
		a.State = Complete
		return false
	}
	a.Index = next
	a.State = Traveling
	return true
}
