package command

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/vessels/internal/autopilot"
	"github.com/OCAP2/vessels/internal/dispatcher"
	"github.com/OCAP2/vessels/internal/docking"
	"github.com/OCAP2/vessels/internal/terrain"
	"github.com/OCAP2/vessels/internal/transport"
	"github.com/OCAP2/vessels/internal/vessel"
	"github.com/OCAP2/vessels/internal/world"
)

type fixture struct {
	w      *world.State
	d      *dispatcher.Dispatcher
	gull   *vessel.Vessel
	raven  *vessel.Vessel
	helm   *world.Actor // on the Gull's bridge
	walker *world.Actor // ashore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := world.New(world.Deps{
		Config: world.DefaultConfig(),
		Rand:   rand.New(rand.NewSource(1)),
		Logger: log,
		Now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	d, err := dispatcher.New(log)
	require.NoError(t, err)
	Register(d, w, Options{})

	f := &fixture{w: w, d: d}
	f.gull, err = w.LoadShip("ship", "Gull", "", 0, 0, 0)
	require.NoError(t, err)
	f.raven, err = w.LoadShip("ship", "Raven", "", 1, 0, 0)
	require.NoError(t, err)

	f.helm, err = w.AddActor(world.Actor{
		Passenger: transport.Passenger{ID: 1, Aboard: f.gull.Ref(f.gull.Bridge)},
		Name:      "Ann",
		Level:     100,
	})
	require.NoError(t, err)
	f.walker, err = w.AddActor(world.Actor{Passenger: transport.Passenger{ID: 2}, Name: "Ben"})
	require.NoError(t, err)
	return f
}

func (f *fixture) run(t *testing.T, actor int, line string) string {
	t.Helper()
	e, err := dispatcher.Parse(actor, line)
	require.NoError(t, err)
	out, err := f.d.Dispatch(e)
	require.NoError(t, err, line)
	return out
}

func offBridge(v *vessel.Vessel) int {
	for i := range v.Rooms {
		if i != v.Bridge {
			return i
		}
	}
	return vessel.NoRoom
}

func TestRegister_AllVerbs(t *testing.T) {
	f := newFixture(t)
	for _, verb := range []string{
		"dock", "undock", "board", "look", "rooms", "ship",
		"autopilot", "ap", "setwaypoint", "listwaypoints", "delwaypoint",
		"createroute", "addtoroute", "listroutes", "delroute", "setroute",
		"assignpilot", "unassignpilot", "setschedule", "clearschedule", "showschedule",
		"enter", "exit", "texit", "go", "tstatus", "loadvehicle", "unloadvehicle",
		"launch", "sink",
	} {
		assert.True(t, f.d.HasHandler(verb), verb)
	}
}

func TestUnknownActor(t *testing.T) {
	f := newFixture(t)
	_, err := f.d.Dispatch(dispatcher.Event{ActorID: 99, Command: "dock"})
	assert.ErrorIs(t, err, ErrUnknownActor)
}

func TestDock_Refusals(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "You must be on a vessel to dock.", f.run(t, 2, "dock Raven"))
	assert.Equal(t, "You must be on a vessel to undock.", f.run(t, 2, "undock"))

	f.w.MoveTo(2, f.gull.Ref(offBridge(f.gull)))
	assert.Equal(t, "You must be at the helm to control docking.", f.run(t, 2, "dock Raven"))
	assert.Equal(t, "You must be at the helm to control undocking.", f.run(t, 2, "undock"))

	assert.Equal(t, "No vessel by that name is nearby.", f.run(t, 1, "dock Kraken"))
	assert.Equal(t, "You cannot dock with your own vessel!", f.run(t, 1, "dock Gull"))
}

func TestDock_ListDockUndock(t *testing.T) {
	f := newFixture(t)

	list := f.run(t, 1, "dock")
	assert.Contains(t, list, "Vessels within docking range:")
	assert.Contains(t, list, "Raven (ID: "+f.raven.ShortID+")")

	f.raven.SetPosition(40, 0, 0)
	assert.Contains(t, f.run(t, 1, "dock"), "No vessels in range.")
	assert.Equal(t, "Target vessel is too far away for docking!", f.run(t, 1, "dock raven"))
	f.raven.SetPosition(1, 0, 0)

	assert.Equal(t, "You bring Gull alongside Raven.", f.run(t, 1, "dock raven"))
	assert.Equal(t, f.raven.ID, f.gull.DockedTo)
	assert.Contains(t, f.run(t, 1, "ship rooms"), "Docked with: Raven")

	assert.Equal(t, "You have successfully undocked from Raven.", f.run(t, 1, "undock"))
	assert.False(t, f.gull.IsDocked())
}

func TestBoard(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "Board which vessel?", f.run(t, 1, "board"))
	assert.Equal(t, "No vessel by that name is nearby.", f.run(t, 1, "board Kraken"))
	assert.Equal(t, "You must be on a ship to board another vessel!", f.run(t, 2, "board Raven"))

	assert.Equal(t, "You leap across to the enemy vessel!", f.run(t, 1, "board Raven"))
	assert.Equal(t, f.raven.ID, f.helm.Aboard.Vessel)
	assert.Contains(t, f.w.Messages(f.helm.ID), "BATTLE STATIONS! Prepare to repel boarders!")
}

func TestLookAndRooms(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "Look where? Try 'look outside'.", f.run(t, 1, "look"))
	assert.Equal(t, "You need to be on a vessel to look outside.", f.run(t, 2, "look outside"))
	assert.Equal(t, "You must be on a vessel to see its layout.", f.run(t, 2, "rooms"))
	assert.Equal(t, "Usage: ship rooms", f.run(t, 1, "ship"))

	layout := f.run(t, 1, "ship rooms")
	assert.Contains(t, layout, "Interior layout of Gull:")
	assert.Contains(t, layout, "[BRIDGE] [YOU ARE HERE]")
	assert.Equal(t, layout, f.run(t, 1, "rooms"))

	view := f.run(t, 1, "look out")
	assert.NotEmpty(t, view)
}

func TestWaypointsAndRoutes(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "No waypoints have been set.", f.run(t, 2, "listwaypoints"))
	assert.Equal(t, "Waypoint 1 'cape' set at (10.0, 0.0, 0.0).", f.run(t, 2, "setwaypoint cape 10 0"))
	assert.Equal(t, "Waypoint 2 'home' set at (0.0, 0.0, 0.0).", f.run(t, 1, "setwaypoint home"))
	assert.Equal(t, "You must be on a vessel to mark its position, or give coordinates.", f.run(t, 2, "setwaypoint here"))
	assert.Equal(t, "Give both x and y coordinates.", f.run(t, 2, "setwaypoint bad 3"))
	assert.Equal(t, "Coordinates must be numbers.", f.run(t, 2, "setwaypoint bad x y"))
	assert.Equal(t, "Waypoint 3 'reef' set at (5.0, 5.0, 2.0).", f.run(t, 2, "setwaypoint reef 5 5 2 3"))

	wp, ok := f.w.Navigator.Waypoint(3)
	require.True(t, ok)
	assert.Equal(t, 3, wp.WaitTime)
	assert.Contains(t, f.run(t, 2, "listwaypoints"), "wait 3")

	assert.Equal(t, "Route 1 'harbor run' created (looping).", f.run(t, 1, "createroute harbor run loop"))
	assert.Equal(t, "Waypoint 'cape' added to route 'harbor run' as stop 1.", f.run(t, 1, "addtoroute 1 cape"))
	assert.Equal(t, "Waypoint 'home' added to route 'harbor run' as stop 2.", f.run(t, 1, "addtoroute 1 2"))
	assert.Equal(t, "No such waypoint.", f.run(t, 1, "addtoroute 1 atlantis"))
	assert.Equal(t, "No such route.", f.run(t, 1, "addtoroute 9 cape"))

	r, ok := f.w.Navigator.RouteByName("harbor run")
	require.True(t, ok)
	assert.Equal(t, f.gull.ID, r.VesselID)

	routes := f.run(t, 1, "listroutes")
	assert.Contains(t, routes, "harbor run")
	assert.Contains(t, routes, "[Gull]")
	assert.Contains(t, routes, "1) cape (10.0, 0.0, 0.0)")

	assert.Equal(t, "Waypoint 'cape' deleted.", f.run(t, 1, "delwaypoint cape"))
	assert.Len(t, r.Waypoints, 1, "deletion cascades into routes")

	assert.Equal(t, "Route 'harbor run' deleted.", f.run(t, 1, "delroute harbor run"))
	assert.Equal(t, "No routes have been created.", f.run(t, 1, "listroutes"))
}

func TestSetWaypoint_CommaCoordinates(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "Waypoint 1 'buoy' set at (4.0, 6.0, 0.0).", f.run(t, 2, "setwaypoint buoy 4,6"))
	assert.Equal(t, "Waypoint 2 'wreck' set at (1.5, -2.0, -3.0).", f.run(t, 2, "setwaypoint wreck 1.5,-2,-3"))
	assert.Equal(t, "Give both x and y coordinates.", f.run(t, 2, "setwaypoint bad 1,2,3,4"))
}

func TestAutopilot(t *testing.T) {
	f := newFixture(t)
	f.run(t, 1, "setwaypoint cape 10 0")
	f.run(t, 1, "createroute patrol")
	f.run(t, 1, "addtoroute patrol cape")

	assert.Equal(t, "You must be on a vessel to use the autopilot.", f.run(t, 2, "autopilot on"))
	assert.Equal(t, "Engage the autopilot on which route?", f.run(t, 1, "autopilot on"))
	assert.Equal(t, "No such route.", f.run(t, 1, "autopilot on atlantis"))

	f.w.MoveTo(2, f.gull.Ref(offBridge(f.gull)))
	assert.Equal(t, "You must be at the helm to control the autopilot.", f.run(t, 2, "autopilot on patrol"))
	assert.Contains(t, f.run(t, 2, "autopilot status"), "State: off")

	assert.Equal(t, "Autopilot engaged on route 'patrol'.", f.run(t, 1, "ap on patrol"))
	f.w.Tick(context.Background())
	assert.Greater(t, f.gull.X, 0.0)

	assert.Equal(t, "Autopilot paused.", f.run(t, 1, "autopilot pause"))
	assert.Equal(t, "The autopilot is not running.", f.run(t, 1, "autopilot pause"))
	assert.Equal(t, "Autopilot resumed.", f.run(t, 1, "autopilot resume"))
	assert.Equal(t, "The autopilot is not paused.", f.run(t, 1, "autopilot resume"))
	assert.Equal(t, "Autopilot disengaged.", f.run(t, 1, "autopilot off"))

	ap, ok := f.w.Autopilot.Get(f.gull.ID)
	require.True(t, ok)
	assert.Equal(t, autopilot.Off, ap.State)

	assert.Equal(t, "Course set. Gull follows route 'patrol'.", f.run(t, 1, "setroute patrol"))
	assert.Equal(t, autopilot.Traveling, ap.State)
	assert.Equal(t, "Autopilot engaged on route 'patrol'.", f.run(t, 1, "autopilot on"), "restarts the current route")
	assert.Equal(t, "Usage: autopilot <on [route]|off|pause|resume|status>", f.run(t, 1, "autopilot spin"))
}

func TestAutopilot_Docked(t *testing.T) {
	f := newFixture(t)
	f.run(t, 1, "setwaypoint cape 10 0")
	f.run(t, 1, "createroute patrol")
	f.run(t, 1, "addtoroute patrol cape")
	f.run(t, 1, "dock raven")

	assert.Equal(t, "The vessel is docked. Undock first.", f.run(t, 1, "autopilot on patrol"))
	assert.Equal(t, "The vessel is docked. Undock first.", f.run(t, 1, "setroute patrol"))
	assert.Equal(t, "You must be on a vessel to set a course.", f.run(t, 2, "setroute patrol"))
	assert.Equal(t, "No such route.", f.run(t, 1, "setroute atlantis"))
}

func TestPilots(t *testing.T) {
	f := newFixture(t)
	_, err := f.w.AddActor(world.Actor{
		Passenger: transport.Passenger{ID: 7, Aboard: f.gull.Ref(offBridge(f.gull))},
		Name:      "Old Pete",
		NPC:       true,
	})
	require.NoError(t, err)

	assert.Equal(t, "You must be on a vessel to assign a pilot.", f.run(t, 2, "assignpilot pete"))
	assert.Equal(t, "There is nobody by that name aboard.", f.run(t, 1, "assignpilot Long John"))
	assert.Equal(t, "That is not someone who can pilot a vessel.", f.run(t, 1, "assignpilot 2"))

	assert.Equal(t, "Old Pete takes the helm of Gull.", f.run(t, 1, "assignpilot old pete"))
	assert.Equal(t, "This vessel already has a pilot.", f.run(t, 1, "assignpilot 7"))
	assert.Len(t, f.gull.CrewByRole(autopilot.RolePilot), 1)

	assert.Equal(t, "Old Pete is relieved of the helm.", f.run(t, 1, "unassignpilot"))
	assert.Equal(t, "This vessel has no pilot.", f.run(t, 1, "unassignpilot"))
	assert.Empty(t, f.gull.CrewByRole(autopilot.RolePilot))
}

func TestSchedule(t *testing.T) {
	f := newFixture(t)
	f.run(t, 1, "setwaypoint cape 10 0")
	f.run(t, 1, "createroute ferry")
	f.run(t, 1, "createroute empty")
	f.run(t, 1, "addtoroute ferry cape")

	assert.Equal(t, "This vessel has no schedule.", f.run(t, 1, "showschedule"))
	assert.Equal(t, "You must be on a vessel to see its schedule.", f.run(t, 2, "showschedule"))
	assert.Equal(t, "You must be on a vessel to set a schedule.", f.run(t, 2, "setschedule ferry 2"))
	assert.Equal(t, "The interval must be a number of hours.", f.run(t, 1, "setschedule ferry often"))
	assert.Equal(t, "The interval must be between 1 and 24 hours.", f.run(t, 1, "setschedule ferry 30"))
	assert.Equal(t, "That route has no waypoints.", f.run(t, 1, "setschedule empty 2"))
	assert.Equal(t, "No such route.", f.run(t, 1, "setschedule atlantis 2"))

	assert.Equal(t, "Schedule set: route 'ferry' departs every 2 hours, next departure at 02:00.",
		f.run(t, 1, "setschedule ferry 2"))

	show := f.run(t, 1, "showschedule")
	assert.Contains(t, show, "Schedule for Gull:")
	assert.Contains(t, show, "Route: ferry")
	assert.Contains(t, show, "Status: active")

	assert.Equal(t, "Schedule paused.", f.run(t, 1, "setschedule pause"))
	assert.Contains(t, f.run(t, 1, "showschedule"), "Status: paused")
	assert.Equal(t, "Schedule resumed.", f.run(t, 1, "setschedule resume"))

	// departs on the hour
	f.w.Tick(context.Background())
	f.w.Tick(context.Background())
	ap, ok := f.w.Autopilot.Get(f.gull.ID)
	require.True(t, ok)
	assert.Equal(t, autopilot.Traveling, ap.State)

	assert.Equal(t, "Schedule cleared.", f.run(t, 1, "clearschedule"))
	assert.Equal(t, "This vessel has no schedule.", f.run(t, 1, "clearschedule"))
}

func TestTransport_RideVehicle(t *testing.T) {
	f := newFixture(t)
	f.w.Vehicles.Create(transport.Cart, "old cart")

	assert.Equal(t, "Enter what?", f.run(t, 2, "enter"))
	assert.Equal(t, "There is no transport here to enter.", f.run(t, 2, "enter zeppelin"))
	assert.Equal(t, "To board a vessel, use the 'board' command.\nVessel: Gull", f.run(t, 2, "enter gull"))
	assert.Equal(t, "You are not in any transport.", f.run(t, 2, "exit"))
	assert.Equal(t, "You need to be in a transport to use this command.", f.run(t, 2, "go north"))

	assert.Equal(t, "You climb onto old cart.", f.run(t, 2, "enter old cart"))
	assert.Equal(t, "You are already in a transport. Exit first.", f.run(t, 2, "enter old cart"))
	assert.Contains(t, f.run(t, 2, "tstatus"), "=== Transport Status (Vehicle) ===")
	assert.Contains(t, f.run(t, 2, "tstatus"), "You are currently riding this cart.")
	assert.Equal(t, "That is not a direction.", f.run(t, 2, "go sideways"))

	assert.Equal(t, "You dismount from old cart.", f.run(t, 2, "texit"))
	assert.Zero(t, f.walker.Vehicle)
}

func TestTransport_WalkVessel(t *testing.T) {
	f := newFixture(t)
	assert.Contains(t, f.run(t, 1, "tstatus"), "=== Transport Status (Vessel) ===")
	assert.Equal(t, "To leave a vessel, cross over at the docking gangway.", f.run(t, 1, "exit"))

	for _, dir := range vessel.Directions {
		c, to, ok := f.gull.Exit(f.gull.Bridge, dir)
		if !ok || c.Docking() {
			continue
		}
		out := f.run(t, 1, "go "+dir.String())
		assert.Contains(t, out, "You go "+dir.String())
		assert.Equal(t, to, f.helm.Aboard)
		return
	}
	t.Fatal("bridge has no exits")
}

func TestLoadUnloadVehicle(t *testing.T) {
	f := newFixture(t)
	cart := f.w.Vehicles.Create(transport.Cart, "old cart")
	far := f.w.Vehicles.Create(transport.Wagon, "far wagon")
	far.X = 100

	assert.Equal(t, "You must be on a vessel to load vehicles.", f.run(t, 2, "loadvehicle old cart"))
	assert.Equal(t, "You must be on a vessel to unload vehicles.", f.run(t, 2, "unloadvehicle"))
	assert.Equal(t, "Load which vehicle?", f.run(t, 1, "loadvehicle"))
	assert.Equal(t, "There is no vehicle here to load.", f.run(t, 1, "loadvehicle far wagon"))
	assert.Equal(t, "There is no vehicle here to load.", f.run(t, 1, "loadvehicle barge"))
	assert.Equal(t, "There are no vehicles loaded on this vessel.", f.run(t, 1, "unloadvehicle"))

	f.helm.Vehicle = cart.ID
	assert.Equal(t, "You cannot load a vehicle you are riding. Dismount first.", f.run(t, 1, "loadvehicle old cart"))
	f.helm.Vehicle = 0

	assert.Equal(t, "You load old cart onto Gull.", f.run(t, 1, "loadvehicle old cart"))
	assert.Equal(t, f.gull.ID, cart.ParentVessel)
	assert.Equal(t, "That vehicle is already loaded on a vessel.", f.run(t, 1, "loadvehicle old cart"))

	list := f.run(t, 1, "unloadvehicle")
	assert.Contains(t, list, "Vehicles loaded on Gull:")
	assert.Contains(t, list, "  1. old cart [cart]")
	assert.Equal(t, "Invalid vehicle number. Use 'unloadvehicle' to see the list.", f.run(t, 1, "unloadvehicle 5"))

	room := docking.FindDockingRoom(f.gull)
	f.gull.Rooms[room].Sector = terrain.Field
	assert.Equal(t, "You unload old cart from Gull.", f.run(t, 1, "unloadvehicle 1"))
	assert.Zero(t, cart.ParentVessel)
}

func TestLaunchAndSink(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "Usage: launch <template> <x> <y> <name>", f.run(t, 1, "launch ship 1"))
	assert.Equal(t, "Coordinates must be numbers.", f.run(t, 1, "launch ship a b Sea Wolf"))
	assert.Equal(t, "There is no vessel template called 'galleon'.", f.run(t, 1, "launch galleon 5 5 Sea Wolf"))

	out := f.run(t, 1, "launch warship 5 5 Sea Wolf")
	assert.Contains(t, out, "Sea Wolf is launched")
	v, ok := f.w.Registry.FindByName("Sea Wolf")
	require.True(t, ok)
	assert.Equal(t, "Ann", v.Owner)

	assert.Equal(t, "Sink which vessel?", f.run(t, 1, "sink"))
	assert.Equal(t, "No vessel by that name exists.", f.run(t, 1, "sink Kraken"))
	assert.Equal(t, "Sea Wolf slips beneath the waves.", f.run(t, 1, "sink sea wolf"))
	_, ok = f.w.Registry.FindByName("Sea Wolf")
	assert.False(t, ok)
}

func TestRateLimitedRegistration(t *testing.T) {
	f := newFixture(t)
	d, err := dispatcher.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	Register(d, f.w, Options{RatePerSecond: 1, Burst: 1})

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err = d.Dispatch(dispatcher.Event{ActorID: 1, Command: "rooms", Timestamp: at})
	require.NoError(t, err)
	_, err = d.Dispatch(dispatcher.Event{ActorID: 1, Command: "rooms", Timestamp: at})
	assert.ErrorIs(t, err, dispatcher.ErrThrottled)
}
