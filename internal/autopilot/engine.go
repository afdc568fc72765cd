package autopilot

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/OCAP2/vessels/internal/geo"
	"github.com/OCAP2/vessels/internal/terrain"
	"github.com/OCAP2/vessels/internal/vessel"
)

// RolePilot is the crew roster role given to assigned pilots.
const RolePilot = "pilot"

// NPCLookup answers questions about non-player characters.
type NPCLookup interface {
	IsValidPilot(npcID int) bool
	NPCName(npcID int) string
}

// Engine drives every vessel's autopilot once per tick.
type Engine struct {
	registry *vessel.Registry
	terrain  terrain.Lookup
	notifier vessel.Notifier
	log      *slog.Logger
	pilots   map[int]*Autopilot

	// OnMoved runs after each autopilot step changes a vessel's position.
	OnMoved func(v *vessel.Vessel)
}

// NewEngine creates an engine. lookup defaults to open ocean; notifier may be nil.
func NewEngine(registry *vessel.Registry, lookup terrain.Lookup, notifier vessel.Notifier, log *slog.Logger) *Engine {
	if lookup == nil {
		lookup = terrain.Uniform(terrain.Ocean)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		registry: registry,
		terrain:  lookup,
		notifier: notifier,
		log:      log.With("component", "autopilot"),
		pilots:   make(map[int]*Autopilot),
	}
}

// Get returns the autopilot for a vessel if one was ever set up.
func (e *Engine) Get(vesselID int) (*Autopilot, bool) {
	ap, ok := e.pilots[vesselID]
	return ap, ok
}

// For returns the vessel's autopilot, creating an idle one on first use.
func (e *Engine) For(vesselID int) *Autopilot {
	ap, ok := e.pilots[vesselID]
	if !ok {
		ap = newAutopilot(vesselID)
		e.pilots[vesselID] = ap
	}
	return ap
}

// Remove forgets a vessel's autopilot.
func (e *Engine) Remove(vesselID int) {
	delete(e.pilots, vesselID)
}

// Active counts autopilots that are traveling, waiting or paused.
func (e *Engine) Active() int {
	n := 0
	for _, ap := range e.pilots {
		if ap.Engaged() {
			n++
		}
	}
	return n
}

// Start engages v's autopilot on route.
func (e *Engine) Start(v *vessel.Vessel, route *Route, now time.Time) error {
	if v.IsDocked() {
		return ErrDocked
	}
	if err := e.For(v.ID).Start(route, now); err != nil {
		return err
	}
	e.log.Info("Autopilot engaged", "vessel", v.ID, "route", route.Name)
	return nil
}

// StartRoute engages a vessel by id.
func (e *Engine) StartRoute(vesselID int, route *Route, now time.Time) error {
	v, ok := e.registry.Get(vesselID)
	if !ok {
		return vessel.ErrNotFound
	}
	return e.Start(v, route, now)
}

func (e *Engine) Pause(v *vessel.Vessel) error {
	return e.For(v.ID).Pause()
}

// Resume continues a paused autopilot. Docked vessels stay paused.
func (e *Engine) Resume(v *vessel.Vessel) error {
	if v.IsDocked() {
		return ErrDocked
	}
	return e.For(v.ID).Resume()
}

func (e *Engine) Stop(v *vessel.Vessel) {
	if ap, ok := e.pilots[v.ID]; ok {
		ap.Stop()
	}
}

// PauseForDocking pauses any running autopilot on the docked pair.
func (e *Engine) PauseForDocking(vs ...*vessel.Vessel) {
	for _, v := range vs {
		ap, ok := e.pilots[v.ID]
		if !ok || ap.Pause() != nil {
			continue
		}
		e.notify(v, "The autopilot disengages as the vessel docks.")
		e.log.Info("Autopilot paused for docking", "vessel", v.ID)
	}
}

// DetachRoute stops every autopilot following routeID and reports how many.
func (e *Engine) DetachRoute(routeID int) int {
	n := 0
	for _, ap := range e.pilots {
		if ap.Route != nil && ap.Route.ID == routeID {
			ap.Stop()
			n++
		}
	}
	return n
}

// AssignPilot puts an NPC at the helm of a vessel and enters them in the
// crew roster.
func (e *Engine) AssignPilot(vesselID, npcID int, npcs NPCLookup) error {
	v, ok := e.registry.Get(vesselID)
	if !ok {
		return vessel.ErrNotFound
	}
	if npcs == nil || !npcs.IsValidPilot(npcID) {
		return ErrInvalidPilot
	}
	ap := e.For(vesselID)
	if ap.PilotID != NoPilot {
		return ErrPilotAssigned
	}
	err := v.AssignCrew(vessel.CrewMember{
		NpcID: npcID,
		Name:  npcs.NPCName(npcID),
		Role:  RolePilot,
		Room:  v.Bridge,
	})
	if err != nil {
		return err
	}
	ap.PilotID = npcID
	return nil
}

// RestorePilot puts the roster's pilot back at the helm after a reload
// and returns their NPC id. ok is false when the roster has no pilot.
func (e *Engine) RestorePilot(v *vessel.Vessel) (int, bool) {
	crew := v.CrewByRole(RolePilot)
	if len(crew) == 0 {
		return NoPilot, false
	}
	e.For(v.ID).PilotID = crew[0].NpcID
	return crew[0].NpcID, true
}

// UnassignPilot relieves the pilot and returns their NPC id.
func (e *Engine) UnassignPilot(vesselID int) (int, error) {
	ap, ok := e.pilots[vesselID]
	if !ok || ap.PilotID == NoPilot {
		return NoPilot, ErrNoPilot
	}
	npc := ap.PilotID
	ap.PilotID = NoPilot
	if v, ok := e.registry.Get(vesselID); ok {
		v.UnassignCrew(npc)
	}
	return npc, nil
}

// Tick advances every autopilot by one step, in registry slot order.
func (e *Engine) Tick(now time.Time) {
	e.registry.Each(func(v *vessel.Vessel) {
		ap, ok := e.pilots[v.ID]
		if !ok {
			return
		}
		switch ap.State {
		case Traveling:
			ap.TickCounter++
			e.travel(v, ap)
		case Waiting:
			ap.TickCounter++
			e.wait(v, ap)
		default:
			return
		}
		ap.LastUpdate = now
	})
}

func (e *Engine) travel(v *vessel.Vessel, ap *Autopilot) {
	wp, ok := ap.Current()
	if !ok {
		e.log.Warn("Autopilot lost its waypoint", "vessel", v.ID, "index", ap.Index)
		ap.Stop()
		return
	}
	if e.arrived(v, wp) {
		e.arrive(v, ap, wp)
		return
	}
	if !e.step(v, wp) {
		return
	}
	if e.arrived(v, wp) {
		e.arrive(v, ap, wp)
	}
}

func (e *Engine) arrived(v *vessel.Vessel, wp Waypoint) bool {
	return geo.Range(v.Position(), wp.Position()) <= wp.ArrivalRadius()
}

// step moves v toward wp by its speed without overshooting.
func (e *Engine) step(v *vessel.Vessel, wp Waypoint) bool {
	pos, target := v.Position(), wp.Position()
	dist := geo.Range(pos, target)
	if dist == 0 {
		return false
	}

	speed := float64(v.Speed)
	if speed <= 0 {
		speed = 1
	}
	frac := math.Min(speed, dist) / dist

	nx := pos.X + (target.X-pos.X)*frac
	ny := pos.Y + (target.Y-pos.Y)*frac
	nz := pos.Z + (target.Z-pos.Z)*frac

	sector := e.terrain.SectorAt(int(math.Round(nx)), int(math.Round(ny)))
	if !v.Class.CanNavigate(sector, nz) {
		e.log.Debug("Autopilot blocked by terrain", "vessel", v.ID, "x", nx, "y", ny, "sector", sector.String())
		return false
	}

	v.Heading = geo.Bearing(pos, target)
	v.SetPosition(nx, ny, nz)
	if e.OnMoved != nil {
		e.OnMoved(v)
	}
	return true
}

func (e *Engine) arrive(v *vessel.Vessel, ap *Autopilot, wp Waypoint) {
	if wp.WaitTime > 0 {
		ap.State = Waiting
		ap.WaitRemaining = wp.WaitTime
		e.log.Info("Arrived at waypoint, holding", "vessel", v.ID, "waypoint", wp.Name, "wait", wp.WaitTime)
		e.notify(v, fmt.Sprintf("Arrived at waypoint '%s'. Holding position.", wp.Name))
		return
	}
	e.log.Debug("Arrived at waypoint", "vessel", v.ID, "waypoint", wp.Name)
	e.next(v, ap)
}

func (e *Engine) wait(v *vessel.Vessel, ap *Autopilot) {
	ap.WaitRemaining--
	if ap.WaitRemaining > 0 {
		return
	}
	ap.WaitRemaining = 0
	e.next(v, ap)
}

func (e *Engine) next(v *vessel.Vessel, ap *Autopilot) {
	wrapped := ap.Index == len(ap.Route.Waypoints)-1
	if !ap.advance() {
		e.log.Info("Route complete", "vessel", v.ID, "route", ap.Route.Name)
		e.notify(v, fmt.Sprintf("Autopilot: route '%s' complete.", ap.Route.Name))
		return
	}
	if wrapped {
		e.log.Info("Route looping", "vessel", v.ID, "route", ap.Route.Name)
	}
}

func (e *Engine) notify(v *vessel.Vessel, msg string) {
	if e.notifier != nil {
		e.notifier.SendToVessel(v, msg)
	}
}

// Status renders the autopilot report for v.
func (e *Engine) Status(v *vessel.Vessel) string {
	ap := e.For(v.ID)
	var b strings.Builder
	b.WriteString("=== Autopilot Status ===\n")
	fmt.Fprintf(&b, "State: %s\n", ap.State)
	if ap.Route != nil {
		fmt.Fprintf(&b, "Route: %s (%d waypoints", ap.Route.Name, len(ap.Route.Waypoints))
		if ap.Route.Loop {
			b.WriteString(", looping")
		}
		fmt.Fprintf(&b, ", %.1f units)\n", ap.Route.Length())
	} else {
		b.WriteString("Route: none\n")
	}
	if wp, ok := ap.Current(); ok && ap.Engaged() {
		fmt.Fprintf(&b, "Next waypoint: %s at (%.1f, %.1f, %.1f), %.1f away\n",
			wp.Name, wp.X, wp.Y, wp.Z, geo.Range(v.Position(), wp.Position()))
	}
	if ap.State == Waiting {
		fmt.Fprintf(&b, "Holding: %d ticks remaining\n", ap.WaitRemaining)
	}
	if ap.PilotID != NoPilot {
		name := fmt.Sprintf("#%d", ap.PilotID)
		for _, c := range v.CrewByRole(RolePilot) {
			if c.NpcID == ap.PilotID && c.Name != "" {
				name = c.Name
			}
		}
		fmt.Fprintf(&b, "Pilot: %s\n", name)
	} else {
		b.WriteString("Pilot: none\n")
	}
	return b.String()
}
