package autopilot

import (
	"log/slog"
	"slices"
	"strings"
)

// Store persists navigation data. Calls are expected to be write-behind.
type Store interface {
	SaveWaypoint(wp Waypoint) error
	DeleteWaypoint(id int) error
	SaveRoute(r *Route) error
	DeleteRoute(id int) error
}

// Navigator owns the waypoint and route catalogue.
type Navigator struct {
	waypoints map[int]*Waypoint
	routes    map[int]*Route
	nextWP    int
	nextRoute int
	store     Store
	log       *slog.Logger
}

// NewNavigator creates an empty catalogue. store may be nil.
func NewNavigator(store Store, log *slog.Logger) *Navigator {
	if log == nil {
		log = slog.Default()
	}
	return &Navigator{
		waypoints: make(map[int]*Waypoint),
		routes:    make(map[int]*Route),
		nextWP:    1,
		nextRoute: 1,
		store:     store,
		log:       log.With("component", "navigator"),
	}
}

// Load replaces the catalogue with persisted data.
func (n *Navigator) Load(waypoints []Waypoint, routes []Route) {
	n.waypoints = make(map[int]*Waypoint, len(waypoints))
	n.routes = make(map[int]*Route, len(routes))
	n.nextWP, n.nextRoute = 1, 1
	for _, wp := range waypoints {
		n.waypoints[wp.ID] = &wp
		n.nextWP = max(n.nextWP, wp.ID+1)
	}
	for _, r := range routes {
		r.Waypoints = slices.Clone(r.Waypoints)
		n.routes[r.ID] = &r
		n.nextRoute = max(n.nextRoute, r.ID+1)
	}
}

func (n *Navigator) persist(what string, id int, err error) {
	if err != nil {
		n.log.Error("Failed to persist navigation data", "kind", what, "id", id, "error", err)
	}
}

// CreateWaypoint adds a waypoint and returns it with its id.
func (n *Navigator) CreateWaypoint(wp Waypoint) (Waypoint, error) {
	wp.Name = truncateName(strings.TrimSpace(wp.Name))
	if wp.Name == "" {
		return Waypoint{}, ErrNameRequired
	}
	if wp.Tolerance <= 0 {
		wp.Tolerance = DefaultTolerance
	}
	wp.ID = n.nextWP
	n.nextWP++
	stored := wp
	n.waypoints[wp.ID] = &stored
	if n.store != nil {
		n.persist("waypoint", wp.ID, n.store.SaveWaypoint(wp))
	}
	return wp, nil
}

// DeleteWaypoint removes a waypoint and drops it from every route.
func (n *Navigator) DeleteWaypoint(id int) error {
	if _, ok := n.waypoints[id]; !ok {
		return ErrWaypointNotFound
	}
	delete(n.waypoints, id)
	for _, r := range n.sortedRoutes() {
		before := len(r.Waypoints)
		r.Waypoints = slices.DeleteFunc(r.Waypoints, func(wp Waypoint) bool { return wp.ID == id })
		if len(r.Waypoints) != before && n.store != nil {
			n.persist("route", r.ID, n.store.SaveRoute(r))
		}
	}
	if n.store != nil {
		n.persist("waypoint", id, n.store.DeleteWaypoint(id))
	}
	return nil
}

func (n *Navigator) Waypoint(id int) (Waypoint, bool) {
	wp, ok := n.waypoints[id]
	if !ok {
		return Waypoint{}, false
	}
	return *wp, true
}

// Waypoints lists every waypoint by id.
func (n *Navigator) Waypoints() []Waypoint {
	out := make([]Waypoint, 0, len(n.waypoints))
	for _, wp := range n.waypoints {
		out = append(out, *wp)
	}
	slices.SortFunc(out, func(a, b Waypoint) int { return a.ID - b.ID })
	return out
}

// CreateRoute adds an empty route owned by vesselID (0 for shared).
func (n *Navigator) CreateRoute(vesselID int, name string, loop bool) (*Route, error) {
	name = truncateName(strings.TrimSpace(name))
	if name == "" {
		return nil, ErrNameRequired
	}
	if vesselID != 0 {
		owned := 0
		for _, r := range n.routes {
			if r.VesselID == vesselID {
				owned++
			}
		}
		if owned >= MaxRoutesPerShip {
			return nil, ErrTooManyRoutes
		}
	}
	r := &Route{ID: n.nextRoute, VesselID: vesselID, Name: name, Loop: loop, Active: true}
	n.nextRoute++
	n.routes[r.ID] = r
	if n.store != nil {
		n.persist("route", r.ID, n.store.SaveRoute(r))
	}
	return r, nil
}

func (n *Navigator) DeleteRoute(id int) error {
	if _, ok := n.routes[id]; !ok {
		return ErrRouteNotFound
	}
	delete(n.routes, id)
	if n.store != nil {
		n.persist("route", id, n.store.DeleteRoute(id))
	}
	return nil
}

// AddToRoute appends a stored waypoint to a route.
func (n *Navigator) AddToRoute(routeID, waypointID int) (*Route, error) {
	r, ok := n.routes[routeID]
	if !ok {
		return nil, ErrRouteNotFound
	}
	wp, ok := n.waypoints[waypointID]
	if !ok {
		return nil, ErrWaypointNotFound
	}
	if _, err := r.AddWaypoint(*wp); err != nil {
		return nil, err
	}
	if n.store != nil {
		n.persist("route", r.ID, n.store.SaveRoute(r))
	}
	return r, nil
}

// RemoveFromRoute drops the waypoint at idx from a route.
func (n *Navigator) RemoveFromRoute(routeID, idx int) error {
	r, ok := n.routes[routeID]
	if !ok {
		return ErrRouteNotFound
	}
	if err := r.RemoveWaypoint(idx); err != nil {
		return err
	}
	if n.store != nil {
		n.persist("route", r.ID, n.store.SaveRoute(r))
	}
	return nil
}

func (n *Navigator) Route(id int) (*Route, bool) {
	r, ok := n.routes[id]
	return r, ok
}

// RouteByName finds a route by case-insensitive name.
func (n *Navigator) RouteByName(name string) (*Route, bool) {
	name = strings.TrimSpace(name)
	for _, r := range n.sortedRoutes() {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return nil, false
}

// Routes lists every route by id.
func (n *Navigator) Routes() []*Route {
	return n.sortedRoutes()
}

func (n *Navigator) sortedRoutes() []*Route {
	out := make([]*Route, 0, len(n.routes))
	for _, r := range n.routes {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *Route) int { return a.ID - b.ID })
	return out
}
