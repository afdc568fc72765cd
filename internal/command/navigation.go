package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OCAP2/vessels/internal/autopilot"
	"github.com/OCAP2/vessels/internal/dispatcher"
	"github.com/OCAP2/vessels/internal/geo"
	"github.com/OCAP2/vessels/internal/schedule"
	"github.com/OCAP2/vessels/internal/vessel"
	"github.com/OCAP2/vessels/internal/world"
)

func autopilotReason(err error) string {
	switch {
	case errors.Is(err, autopilot.ErrDocked):
		return "The vessel is docked. Undock first."
	case errors.Is(err, autopilot.ErrEmptyRoute):
		return "That route has no waypoints."
	case errors.Is(err, autopilot.ErrNotEngaged):
		return "The autopilot is not running."
	case errors.Is(err, autopilot.ErrNotPaused):
		return "The autopilot is not paused."
	case errors.Is(err, autopilot.ErrRouteNotFound):
		return "No such route."
	case errors.Is(err, autopilot.ErrWaypointNotFound):
		return "No such waypoint."
	case errors.Is(err, autopilot.ErrRouteFull):
		return fmt.Sprintf("A route holds at most %d waypoints.", autopilot.MaxWaypointsPerRoute)
	case errors.Is(err, autopilot.ErrTooManyRoutes):
		return "This vessel cannot hold any more routes."
	case errors.Is(err, autopilot.ErrNameRequired):
		return "You must give it a name."
	case errors.Is(err, autopilot.ErrInvalidPilot):
		return "That is not someone who can pilot a vessel."
	case errors.Is(err, autopilot.ErrPilotAssigned):
		return "This vessel already has a pilot."
	case errors.Is(err, autopilot.ErrNoPilot):
		return "This vessel has no pilot."
	case errors.Is(err, vessel.ErrCrewAssigned):
		return "They already serve aboard this vessel."
	case errors.Is(err, schedule.ErrBadInterval):
		return fmt.Sprintf("The interval must be between %d and %d hours.", schedule.IntervalMin, schedule.IntervalMax)
	case errors.Is(err, schedule.ErrNoSchedule):
		return "This vessel has no schedule."
	}
	return err.Error()
}

// helm returns the vessel a controls, or the refusal to show.
func (h *handlers) helm(a *world.Actor, what string) (*vessel.Vessel, string) {
	v, ok := h.vesselOf(a)
	if !ok {
		return nil, fmt.Sprintf("You must be on a vessel to %s.", what)
	}
	if !atHelm(a, v) {
		return nil, fmt.Sprintf("You must be at the helm to %s.", what)
	}
	return v, ""
}

func (h *handlers) autopilot(a *world.Actor, e dispatcher.Event) (string, error) {
	v, ok := h.vesselOf(a)
	if !ok {
		return "You must be on a vessel to use the autopilot.", nil
	}
	if len(e.Args) == 0 {
		return "Usage: autopilot <on [route]|off|pause|resume|status>", nil
	}
	sub := strings.ToLower(e.Args[0])
	if sub == "status" {
		return h.w.Autopilot.Status(v), nil
	}
	if !atHelm(a, v) {
		return "You must be at the helm to control the autopilot.", nil
	}

	switch sub {
	case "on", "engage":
		var r *autopilot.Route
		if len(e.Args) > 1 {
			if r, ok = h.route(e.Rest(1)); !ok {
				return "No such route.", nil
			}
		} else if ap, ok := h.w.Autopilot.Get(v.ID); ok && ap.Route != nil {
			r = ap.Route
		} else {
			return "Engage the autopilot on which route?", nil
		}
		if err := h.w.Autopilot.Start(v, r, h.w.Now()); err != nil {
			return autopilotReason(err), nil
		}
		return fmt.Sprintf("Autopilot engaged on route '%s'.", r.Name), nil
	case "off", "disengage":
		h.w.Autopilot.Stop(v)
		return "Autopilot disengaged.", nil
	case "pause":
		if err := h.w.Autopilot.Pause(v); err != nil {
			return autopilotReason(err), nil
		}
		return "Autopilot paused.", nil
	case "resume":
		if err := h.w.Autopilot.Resume(v); err != nil {
			return autopilotReason(err), nil
		}
		return "Autopilot resumed.", nil
	}
	return "Usage: autopilot <on [route]|off|pause|resume|status>", nil
}

// setWaypoint handles "setwaypoint <name> [x y [z [wait]]]" and
// "setwaypoint <name> x,y[,z]". Without coordinates the vessel's current
// position is used.
func (h *handlers) setWaypoint(a *world.Actor, e dispatcher.Event) (string, error) {
	if len(e.Args) == 0 {
		return "Usage: setwaypoint <name> [x y [z [wait]]]", nil
	}
	wp := autopilot.Waypoint{Name: e.Args[0]}

	switch coords := e.Args[1:]; {
	case len(coords) == 0:
		v, ok := h.vesselOf(a)
		if !ok {
			return "You must be on a vessel to mark its position, or give coordinates.", nil
		}
		wp.X, wp.Y, wp.Z = v.X, v.Y, v.Z
	case len(coords) == 1:
		p, err := geo.ParsePosition(coords[0])
		if err != nil {
			return "Give both x and y coordinates.", nil
		}
		wp.X, wp.Y, wp.Z = p.X, p.Y, p.Z
	default:
		nums, err := parseFloats(coords[:min(len(coords), 3)])
		if err != nil {
			return "Coordinates must be numbers.", nil
		}
		wp.X, wp.Y = nums[0], nums[1]
		if len(nums) > 2 {
			wp.Z = nums[2]
		}
		if len(coords) > 3 {
			wait, err := strconv.Atoi(coords[3])
			if err != nil || wait < 0 {
				return "The wait must be a whole number of ticks.", nil
			}
			wp.WaitTime = wait
		}
	}

	wp, err := h.w.Navigator.CreateWaypoint(wp)
	if err != nil {
		return autopilotReason(err), nil
	}
	return fmt.Sprintf("Waypoint %d '%s' set at (%.1f, %.1f, %.1f).", wp.ID, wp.Name, wp.X, wp.Y, wp.Z), nil
}

func (h *handlers) listWaypoints(_ *world.Actor, _ dispatcher.Event) (string, error) {
	wps := h.w.Navigator.Waypoints()
	if len(wps) == 0 {
		return "No waypoints have been set.", nil
	}
	var b strings.Builder
	b.WriteString("Waypoints:\n")
	for _, wp := range wps {
		fmt.Fprintf(&b, "  %3d. %-20s (%.1f, %.1f, %.1f)", wp.ID, wp.Name, wp.X, wp.Y, wp.Z)
		if wp.WaitTime > 0 {
			fmt.Fprintf(&b, " wait %d", wp.WaitTime)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (h *handlers) delWaypoint(_ *world.Actor, e dispatcher.Event) (string, error) {
	if len(e.Args) == 0 {
		return "Delete which waypoint?", nil
	}
	wp, ok := h.waypoint(e.Rest(0))
	if !ok {
		return "No such waypoint.", nil
	}
	if err := h.w.Navigator.DeleteWaypoint(wp.ID); err != nil {
		return autopilotReason(err), nil
	}
	return fmt.Sprintf("Waypoint '%s' deleted.", wp.Name), nil
}

// createRoute handles "createroute <name> [loop]". Routes made aboard a
// vessel belong to it.
func (h *handlers) createRoute(a *world.Actor, e dispatcher.Event) (string, error) {
	if len(e.Args) == 0 {
		return "Usage: createroute <name> [loop]", nil
	}
	args := e.Args
	loop := false
	if n := len(args); n > 1 && strings.EqualFold(args[n-1], "loop") {
		loop = true
		args = args[:n-1]
	}
	owner := 0
	if v, ok := h.vesselOf(a); ok {
		owner = v.ID
	}
	r, err := h.w.Navigator.CreateRoute(owner, strings.Join(args, " "), loop)
	if err != nil {
		return autopilotReason(err), nil
	}
	kind := "one-way"
	if r.Loop {
		kind = "looping"
	}
	return fmt.Sprintf("Route %d '%s' created (%s).", r.ID, r.Name, kind), nil
}

func (h *handlers) addToRoute(_ *world.Actor, e dispatcher.Event) (string, error) {
	if len(e.Args) < 2 {
		return "Usage: addtoroute <route> <waypoint>", nil
	}
	r, ok := h.route(e.Args[0])
	if !ok {
		return "No such route.", nil
	}
	wp, ok := h.waypoint(e.Rest(1))
	if !ok {
		return "No such waypoint.", nil
	}
	r, err := h.w.Navigator.AddToRoute(r.ID, wp.ID)
	if err != nil {
		return autopilotReason(err), nil
	}
	return fmt.Sprintf("Waypoint '%s' added to route '%s' as stop %d.", wp.Name, r.Name, len(r.Waypoints)), nil
}

func (h *handlers) listRoutes(_ *world.Actor, _ dispatcher.Event) (string, error) {
	routes := h.w.Navigator.Routes()
	if len(routes) == 0 {
		return "No routes have been created.", nil
	}
	var b strings.Builder
	b.WriteString("Routes:\n")
	for _, r := range routes {
		fmt.Fprintf(&b, "  %3d. %-20s %2d waypoints, %.1f units", r.ID, r.Name, len(r.Waypoints), r.Length())
		if r.Loop {
			b.WriteString(", looping")
		}
		if r.VesselID != 0 {
			if v, ok := h.w.Registry.Get(r.VesselID); ok {
				fmt.Fprintf(&b, " [%s]", v.Name)
			}
		}
		b.WriteString("\n")
		for i, wp := range r.Waypoints {
			fmt.Fprintf(&b, "       %d) %s (%.1f, %.1f, %.1f)\n", i+1, wp.Name, wp.X, wp.Y, wp.Z)
		}
	}
	return b.String(), nil
}

func (h *handlers) delRoute(_ *world.Actor, e dispatcher.Event) (string, error) {
	if len(e.Args) == 0 {
		return "Delete which route?", nil
	}
	r, ok := h.route(e.Rest(0))
	if !ok {
		return "No such route.", nil
	}
	name := r.Name
	if err := h.w.DeleteRoute(r.ID); err != nil {
		return autopilotReason(err), nil
	}
	return fmt.Sprintf("Route '%s' deleted.", name), nil
}

func (h *handlers) setRoute(a *world.Actor, e dispatcher.Event) (string, error) {
	v, refusal := h.helm(a, "set a course")
	if v == nil {
		return refusal, nil
	}
	if len(e.Args) == 0 {
		return "Follow which route?", nil
	}
	r, ok := h.route(e.Rest(0))
	if !ok {
		return "No such route.", nil
	}
	if err := h.w.StartRoute(v.ID, r.ID); err != nil {
		return autopilotReason(err), nil
	}
	return fmt.Sprintf("Course set. %s follows route '%s'.", v.Name, r.Name), nil
}

// pilotTarget resolves an NPC aboard v by id or name.
func (h *handlers) pilotTarget(v *vessel.Vessel, arg string) (int, bool) {
	if id, err := strconv.Atoi(arg); err == nil {
		return id, true
	}
	for _, id := range h.w.ActorsAboard(v.ID) {
		if npc, ok := h.w.Actor(id); ok && npc.NPC && strings.EqualFold(npc.Name, arg) {
			return id, true
		}
	}
	return 0, false
}

func (h *handlers) assignPilot(a *world.Actor, e dispatcher.Event) (string, error) {
	v, ok := h.vesselOf(a)
	if !ok {
		return "You must be on a vessel to assign a pilot.", nil
	}
	if len(e.Args) == 0 {
		return "Assign whom as pilot?", nil
	}
	npc, ok := h.pilotTarget(v, e.Rest(0))
	if !ok {
		return "There is nobody by that name aboard.", nil
	}
	if err := h.w.AssignPilot(v.ID, npc); err != nil {
		return autopilotReason(err), nil
	}
	return fmt.Sprintf("%s takes the helm of %s.", h.w.NPCName(npc), v.Name), nil
}

func (h *handlers) unassignPilot(a *world.Actor, _ dispatcher.Event) (string, error) {
	v, ok := h.vesselOf(a)
	if !ok {
		return "You must be on a vessel to relieve its pilot.", nil
	}
	npc, err := h.w.UnassignPilot(v.ID)
	if err != nil {
		return autopilotReason(err), nil
	}
	return fmt.Sprintf("%s is relieved of the helm.", h.w.NPCName(npc)), nil
}

// setSchedule handles "setschedule <route> <interval>" and
// "setschedule pause|resume".
func (h *handlers) setSchedule(a *world.Actor, e dispatcher.Event) (string, error) {
	v, refusal := h.helm(a, "set a schedule")
	if v == nil {
		return refusal, nil
	}
	if len(e.Args) == 1 {
		switch strings.ToLower(e.Args[0]) {
		case "pause":
			if err := h.w.Schedule.Pause(v.ID); err != nil {
				return autopilotReason(err), nil
			}
			return "Schedule paused.", nil
		case "resume":
			if err := h.w.Schedule.Unpause(v.ID); err != nil {
				return autopilotReason(err), nil
			}
			return "Schedule resumed.", nil
		}
	}
	if len(e.Args) < 2 {
		return "Usage: setschedule <route> <interval hours>", nil
	}
	last := len(e.Args) - 1
	interval, err := strconv.Atoi(e.Args[last])
	if err != nil {
		return "The interval must be a number of hours.", nil
	}
	r, ok := h.route(strings.Join(e.Args[:last], " "))
	if !ok {
		return "No such route.", nil
	}
	if len(r.Waypoints) == 0 {
		return autopilotReason(autopilot.ErrEmptyRoute), nil
	}
	s, err := h.w.Schedule.Set(v.ID, r.ID, interval, h.w.Clock.Hour())
	if err != nil {
		return autopilotReason(err), nil
	}
	return fmt.Sprintf("Schedule set: route '%s' departs every %d hours, next departure at %02d:00.",
		r.Name, s.IntervalHours, s.NextDeparture), nil
}

func (h *handlers) clearSchedule(a *world.Actor, _ dispatcher.Event) (string, error) {
	v, refusal := h.helm(a, "clear the schedule")
	if v == nil {
		return refusal, nil
	}
	if err := h.w.Schedule.Clear(v.ID); err != nil {
		return autopilotReason(err), nil
	}
	return "Schedule cleared.", nil
}

func (h *handlers) showSchedule(a *world.Actor, _ dispatcher.Event) (string, error) {
	v, ok := h.vesselOf(a)
	if !ok {
		return "You must be on a vessel to see its schedule.", nil
	}
	s, ok := h.w.Schedule.Get(v.ID)
	if !ok {
		return autopilotReason(schedule.ErrNoSchedule), nil
	}
	route := fmt.Sprintf("#%d", s.RouteID)
	if r, ok := h.w.Navigator.Route(s.RouteID); ok {
		route = r.Name
	}
	status := "active"
	switch {
	case !s.Enabled:
		status = "disabled"
	case s.Paused:
		status = "paused"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Schedule for %s:\n", v.Name)
	fmt.Fprintf(&b, "  Route: %s\n", route)
	fmt.Fprintf(&b, "  Interval: every %d hours\n", s.IntervalHours)
	fmt.Fprintf(&b, "  Next departure: %02d:00 (now %02d:00)\n", s.NextDeparture, h.w.Clock.Hour())
	fmt.Fprintf(&b, "  Status: %s\n", status)
	return b.String(), nil
}
