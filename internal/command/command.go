// Package command registers the player-facing verbs on a dispatcher.
// Handlers run on the engine goroutine. Validation failures are returned
// as reply text; only internal faults are errors.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/OCAP2/vessels/internal/autopilot"
	"github.com/OCAP2/vessels/internal/dispatcher"
	"github.com/OCAP2/vessels/internal/vessel"
	"github.com/OCAP2/vessels/internal/world"
)

var ErrUnknownActor = errors.New("command from unknown actor")

// Options tune registration.
type Options struct {
	// RatePerSecond and Burst throttle each actor per verb. Zero disables.
	RatePerSecond float64
	Burst         int
}

type handlerFunc func(a *world.Actor, e dispatcher.Event) (string, error)

type handlers struct {
	w *world.State
}

// Register adds every verb to d.
func Register(d *dispatcher.Dispatcher, w *world.State, opts Options) {
	h := &handlers{w: w}

	common := []dispatcher.Option{dispatcher.Logged()}
	if opts.RatePerSecond > 0 {
		burst := max(opts.Burst, 1)
		common = append(common, dispatcher.RateLimited(rate.Limit(opts.RatePerSecond), burst))
	}
	reg := func(verb string, fn handlerFunc, extra ...dispatcher.Option) {
		d.Register(verb, h.with(fn), append(extra, common...)...)
	}

	// docking
	reg("dock", h.dock)
	reg("undock", h.undock)
	reg("board", h.board)
	reg("look", h.look)
	reg("rooms", h.rooms)
	reg("ship", h.ship)

	// navigation
	reg("autopilot", h.autopilot, dispatcher.Aliases("ap"))
	reg("setwaypoint", h.setWaypoint)
	reg("listwaypoints", h.listWaypoints)
	reg("delwaypoint", h.delWaypoint)
	reg("createroute", h.createRoute)
	reg("addtoroute", h.addToRoute)
	reg("listroutes", h.listRoutes)
	reg("delroute", h.delRoute)
	reg("setroute", h.setRoute)
	reg("assignpilot", h.assignPilot)
	reg("unassignpilot", h.unassignPilot)
	reg("setschedule", h.setSchedule)
	reg("clearschedule", h.clearSchedule)
	reg("showschedule", h.showSchedule)

	// transport
	reg("enter", h.enter)
	reg("exit", h.exit, dispatcher.Aliases("texit"))
	reg("go", h.goDir)
	reg("tstatus", h.status)
	reg("loadvehicle", h.loadVehicle)
	reg("unloadvehicle", h.unloadVehicle)

	// fleet
	reg("launch", h.launch)
	reg("sink", h.sink)
}

func (h *handlers) with(fn handlerFunc) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (string, error) {
		a, ok := h.w.Actor(e.ActorID)
		if !ok {
			return "", fmt.Errorf("%w: %d", ErrUnknownActor, e.ActorID)
		}
		return fn(a, e)
	}
}

// vesselOf returns the vessel a stands on.
func (h *handlers) vesselOf(a *world.Actor) (*vessel.Vessel, bool) {
	if !a.AboardVessel() {
		return nil, false
	}
	return h.w.Registry.Get(a.Aboard.Vessel)
}

func atHelm(a *world.Actor, v *vessel.Vessel) bool {
	return a.Aboard.Vessel == v.ID && a.Aboard.Room == v.Bridge
}

func (h *handlers) route(arg string) (*autopilot.Route, bool) {
	if id, err := strconv.Atoi(arg); err == nil {
		return h.w.Navigator.Route(id)
	}
	return h.w.Navigator.RouteByName(arg)
}

func (h *handlers) waypoint(arg string) (autopilot.Waypoint, bool) {
	if id, err := strconv.Atoi(arg); err == nil {
		return h.w.Navigator.Waypoint(id)
	}
	for _, wp := range h.w.Navigator.Waypoints() {
		if strings.EqualFold(wp.Name, arg) {
			return wp, true
		}
	}
	return autopilot.Waypoint{}, false
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, s := range args {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func (h *handlers) launch(a *world.Actor, e dispatcher.Event) (string, error) {
	if len(e.Args) < 4 {
		return "Usage: launch <template> <x> <y> <name>", nil
	}
	xy, err := parseFloats(e.Args[1:3])
	if err != nil {
		return "Coordinates must be numbers.", nil
	}
	v, err := h.w.LoadShip(e.Args[0], e.Rest(3), a.Name, xy[0], xy[1], 0)
	switch {
	case errors.Is(err, world.ErrUnknownTemplate):
		return fmt.Sprintf("There is no vessel template called '%s'.", e.Args[0]), nil
	case errors.Is(err, vessel.ErrRegistryFull):
		return "The seas are too crowded to launch another vessel.", nil
	case err != nil:
		return fmt.Sprintf("The launch fails: %v", err), nil
	}
	return fmt.Sprintf("%s is launched (ID %s) with %d compartments.", v.Name, v.ShortID, len(v.Rooms)), nil
}

func (h *handlers) sink(_ *world.Actor, e dispatcher.Event) (string, error) {
	if len(e.Args) == 0 {
		return "Sink which vessel?", nil
	}
	v, ok := h.w.Registry.FindByName(e.Rest(0))
	if !ok {
		return "No vessel by that name exists.", nil
	}
	name := v.Name
	if err := h.w.SinkShip(v.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s slips beneath the waves.", name), nil
}
