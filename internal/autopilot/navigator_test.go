package autopilot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	ops []string
	err error
}

func (s *fakeStore) record(op string) error {
	s.ops = append(s.ops, op)
	return s.err
}

func (s *fakeStore) SaveWaypoint(Waypoint) error { return s.record("save waypoint") }
func (s *fakeStore) DeleteWaypoint(int) error    { return s.record("delete waypoint") }
func (s *fakeStore) SaveRoute(*Route) error      { return s.record("save route") }
func (s *fakeStore) DeleteRoute(int) error       { return s.record("delete route") }

func TestNavigator_Waypoints(t *testing.T) {
	store := &fakeStore{}
	n := NewNavigator(store, nil)

	_, err := n.CreateWaypoint(Waypoint{Name: "  "})
	assert.ErrorIs(t, err, ErrNameRequired)

	a, err := n.CreateWaypoint(Waypoint{Name: "Harbor", X: 1, Y: 2})
	require.NoError(t, err)
	b, err := n.CreateWaypoint(Waypoint{Name: "Reef", X: 5, Y: 5, Tolerance: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)
	assert.Equal(t, DefaultTolerance, a.Tolerance)
	assert.Equal(t, 2.0, b.Tolerance)

	got, ok := n.Waypoint(a.ID)
	require.True(t, ok)
	assert.Equal(t, "Harbor", got.Name)

	list := n.Waypoints()
	require.Len(t, list, 2)
	assert.Equal(t, []int{1, 2}, []int{list[0].ID, list[1].ID})

	assert.ErrorIs(t, n.DeleteWaypoint(42), ErrWaypointNotFound)
	require.NoError(t, n.DeleteWaypoint(a.ID))
	_, ok = n.Waypoint(a.ID)
	assert.False(t, ok)

	assert.Equal(t, []string{"save waypoint", "save waypoint", "delete waypoint"}, store.ops)
}

func TestNavigator_Routes(t *testing.T) {
	store := &fakeStore{}
	n := NewNavigator(store, nil)
	wp1, _ := n.CreateWaypoint(Waypoint{Name: "one", X: 1})
	wp2, _ := n.CreateWaypoint(Waypoint{Name: "two", X: 2})

	r, err := n.CreateRoute(3, "Patrol", true)
	require.NoError(t, err)
	assert.True(t, r.Loop)
	assert.True(t, r.Active)
	assert.Equal(t, 3, r.VesselID)

	_, err = n.AddToRoute(r.ID, 99)
	assert.ErrorIs(t, err, ErrWaypointNotFound)
	_, err = n.AddToRoute(99, wp1.ID)
	assert.ErrorIs(t, err, ErrRouteNotFound)

	_, err = n.AddToRoute(r.ID, wp1.ID)
	require.NoError(t, err)
	_, err = n.AddToRoute(r.ID, wp2.ID)
	require.NoError(t, err)
	_, err = n.AddToRoute(r.ID, wp1.ID)
	require.NoError(t, err)
	assert.Len(t, r.Waypoints, 3)

	found, ok := n.RouteByName("patrol")
	require.True(t, ok)
	assert.Same(t, r, found)
	_, ok = n.RouteByName("nowhere")
	assert.False(t, ok)

	require.NoError(t, n.RemoveFromRoute(r.ID, 1))
	assert.Equal(t, []int{wp1.ID, wp1.ID}, []int{r.Waypoints[0].ID, r.Waypoints[1].ID})
	assert.ErrorIs(t, n.RemoveFromRoute(r.ID, 5), ErrBadIndex)
	assert.ErrorIs(t, n.RemoveFromRoute(99, 0), ErrRouteNotFound)

	// deleting a waypoint drops it from every route
	require.NoError(t, n.DeleteWaypoint(wp1.ID))
	assert.Empty(t, r.Waypoints)

	require.NoError(t, n.DeleteRoute(r.ID))
	assert.ErrorIs(t, n.DeleteRoute(r.ID), ErrRouteNotFound)
	assert.Empty(t, n.Routes())
	assert.Equal(t, "delete route", store.ops[len(store.ops)-1])
}

func TestNavigator_RouteLimitPerVessel(t *testing.T) {
	n := NewNavigator(nil, nil)
	for range MaxRoutesPerShip {
		_, err := n.CreateRoute(1, "r", false)
		require.NoError(t, err)
	}
	_, err := n.CreateRoute(1, "r", false)
	assert.ErrorIs(t, err, ErrTooManyRoutes)

	_, err = n.CreateRoute(2, "r", false)
	assert.NoError(t, err)
	_, err = n.CreateRoute(0, "shared", false)
	assert.NoError(t, err)

	_, err = n.CreateRoute(2, "", false)
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestNavigator_StoreErrorsAreNotFatal(t *testing.T) {
	n := NewNavigator(&fakeStore{err: errors.New("db down")}, nil)
	wp, err := n.CreateWaypoint(Waypoint{Name: "x"})
	require.NoError(t, err)
	r, err := n.CreateRoute(0, "y", false)
	require.NoError(t, err)
	_, err = n.AddToRoute(r.ID, wp.ID)
	assert.NoError(t, err)
}

func TestNavigator_Load(t *testing.T) {
	n := NewNavigator(nil, nil)
	wps := []Waypoint{{ID: 4, Name: "a"}, {ID: 9, Name: "b"}}
	routes := []Route{{ID: 7, Name: "loop", Loop: true, Waypoints: []Waypoint{wps[1], wps[0]}}}
	n.Load(wps, routes)

	assert.Len(t, n.Waypoints(), 2)
	r, ok := n.Route(7)
	require.True(t, ok)
	assert.Equal(t, "b", r.Waypoints[0].Name)

	// loaded slices are not shared with the caller
	routes[0].Waypoints[0].Name = "changed"
	assert.Equal(t, "b", r.Waypoints[0].Name)

	wp, err := n.CreateWaypoint(Waypoint{Name: "c"})
	require.NoError(t, err)
	assert.Equal(t, 10, wp.ID)
	nr, err := n.CreateRoute(0, "next", false)
	require.NoError(t, err)
	assert.Equal(t, 8, nr.ID)
}
