// Package docking links and unlinks the interiors of two vessels.
package docking

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/OCAP2/vessels/internal/geo"
	"github.com/OCAP2/vessels/internal/terrain"
	"github.com/OCAP2/vessels/internal/vessel"
	"github.com/google/uuid"
)

const (
	MaxDockingRange        = 2.0
	MaxDockingSpeed        = 2
	BaseBoardingDifficulty = 15
	SightRange             = 50.0

	TypeStandard = "standard"

	StatusActive    = "active"
	StatusCompleted = "completed"
)

var (
	ErrSameVessel    = errors.New("cannot dock a vessel with itself")
	ErrOutOfRange    = errors.New("vessels out of docking range")
	ErrTooFast       = errors.New("vessel moving too fast to dock")
	ErrAlreadyDocked = errors.New("vessel already docked")
	ErrNoInterior    = errors.New("vessel has no docking compartment")
	ErrNoGangway     = errors.New("no free direction for a gangway")
	ErrNotDocked     = errors.New("vessel is not docked")
	ErrNotAboard     = errors.New("actor is not aboard a vessel")
	ErrNoView        = errors.New("compartment has no outside view")
)

// Error is a validation failure. Reason is shown to the player as is.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string { return e.Reason }

func (e *Error) Unwrap() error { return e.Err }

func fail(err error, reason string) error {
	return &Error{Reason: reason, Err: err}
}

// Reason extracts the player-facing text from err, falling back to err.Error().
func Reason(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return err.Error()
}

// Record is the audit row written for every dock.
type Record struct {
	Ref        string
	Ship1      int
	Ship2      int
	Room1      int
	Room2      int
	DockType   string
	Status     string
	X, Y, Z    float64
	DockedAt   time.Time
	UndockedAt *time.Time
}

// Recorder persists docking records.
type Recorder interface {
	RecordDock(rec Record) error
	CompleteDock(ref string, at time.Time) error
	CompleteOrphanDocks(live func(ship1, ship2 int) bool) (int, error)
}

// Combat starts fights and deals damage on behalf of boarders.
type Combat interface {
	StartCombat(attacker, defender int)
	ApplyDamage(attacker, target, amount int)
}

// Actors locates and moves characters between compartments.
type Actors interface {
	Occupants(ref vessel.RoomRef) []int
	MoveTo(actorID int, ref vessel.RoomRef)
	SendToActor(actorID int, msg string)
}

// Deps wires a Coordinator. Recorder, Combat, Actors, Weather and the hooks
// are optional.
type Deps struct {
	Registry *vessel.Registry
	Notifier vessel.Notifier
	Recorder Recorder
	Combat   Combat
	Actors   Actors
	Terrain  terrain.Lookup
	Weather  terrain.Weather
	Rand     *rand.Rand
	Logger   *slog.Logger
	Now      func() time.Time

	// OnDocked runs after both vessels are linked.
	OnDocked func(a, b *vessel.Vessel)
	// OnMoved runs whenever docking repositions a vessel.
	OnMoved func(v *vessel.Vessel)
}

type pair struct{ lo, hi int }

func pairOf(a, b int) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

// Coordinator runs the per-pair docking state machine.
type Coordinator struct {
	deps   Deps
	log    *slog.Logger
	active map[pair]string
}

// NewCoordinator creates a coordinator.
func NewCoordinator(deps Deps) *Coordinator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Terrain == nil {
		deps.Terrain = terrain.Uniform(terrain.Ocean)
	}
	return &Coordinator{
		deps:   deps,
		log:    deps.Logger.With("component", "docking"),
		active: make(map[pair]string),
	}
}

func (c *Coordinator) notify(v *vessel.Vessel, format string, args ...any) {
	if c.deps.Notifier != nil {
		c.deps.Notifier.SendToVessel(v, fmt.Sprintf(format, args...))
	}
}

func (c *Coordinator) moved(v *vessel.Vessel) {
	if c.deps.OnMoved != nil {
		c.deps.OnMoved(v)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// InRange lists the vessels close enough to a to dock with.
func (c *Coordinator) InRange(a *vessel.Vessel) []*vessel.Vessel {
	return c.deps.Registry.Near(a, MaxDockingRange)
}

// Initiate validates and docks a with b. Every precondition is checked
// against current state; a failure leaves both vessels untouched.
func (c *Coordinator) Initiate(a, b *vessel.Vessel) error {
	if a.ID == b.ID {
		return fail(ErrSameVessel, "You cannot dock with your own vessel!")
	}
	if geo.Range(a.Position(), b.Position()) > MaxDockingRange {
		return fail(ErrOutOfRange, "Target vessel is too far away for docking!")
	}
	if abs(a.Speed) > MaxDockingSpeed || abs(b.Speed) > MaxDockingSpeed {
		return fail(ErrTooFast, "Ships must be nearly stationary to dock!")
	}
	if a.IsDocked() {
		return fail(ErrAlreadyDocked, "You must undock from your current vessel first!")
	}
	if b.IsDocked() {
		return fail(ErrAlreadyDocked, "Target vessel is already docked to another ship!")
	}
	return c.Complete(a, b)
}

// Complete links the docking compartments of a and b, aligns b alongside a
// and brings both to a halt.
func (c *Coordinator) Complete(a, b *vessel.Vessel) error {
	dock1 := FindDockingRoom(a)
	dock2 := FindDockingRoom(b)
	if dock1 == vessel.NoRoom || dock2 == vessel.NoRoom {
		c.log.Error("Ships lack docking rooms", "ship1", a.Name, "ship2", b.Name)
		return fail(ErrNoInterior, "Docking failed - no suitable connection points!")
	}

	dir, ok := gangwayDirection(a, dock1, b, dock2)
	if !ok {
		return fail(ErrNoGangway, "No available connection point for docking!")
	}

	gangway := vessel.Connection{From: a.Ref(dock1), To: b.Ref(dock2), Dir: dir}
	if err := a.AddConnection(gangway); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrNoGangway, err), "No available connection point for docking!")
	}
	if err := b.AddConnection(gangway); err != nil {
		a.RemoveDockingConnections(b.ID)
		return fail(fmt.Errorf("%w: %w", ErrNoGangway, err), "No available connection point for docking!")
	}

	a.DockedTo, a.DockingRoom = b.ID, dock1
	b.DockedTo, b.DockingRoom = a.ID, dock2

	b.SetPosition(a.X+0.5, a.Y, a.Z)
	a.Speed, a.SetSpeed = 0, 0
	b.Speed, b.SetSpeed = 0, 0
	c.moved(b)

	rec := Record{
		Ref:      uuid.NewString(),
		Ship1:    a.ID,
		Ship2:    b.ID,
		Room1:    a.Rooms[dock1].Vnum,
		Room2:    b.Rooms[dock2].Vnum,
		DockType: TypeStandard,
		Status:   StatusActive,
		X:        a.X,
		Y:        a.Y,
		Z:        a.Z,
		DockedAt: c.deps.Now(),
	}
	c.active[pairOf(a.ID, b.ID)] = rec.Ref
	if c.deps.Recorder != nil {
		if err := c.deps.Recorder.RecordDock(rec); err != nil {
			c.log.Error("Failed to record docking", "ref", rec.Ref, "error", err)
		}
	}

	c.notify(a, "Docking complete with %s.", b.Name)
	c.notify(b, "Docking complete with %s.", a.Name)

	if c.deps.OnDocked != nil {
		c.deps.OnDocked(a, b)
	}

	c.log.Info("Ships docked",
		"ship1", a.Name, "id1", a.ID, "ship2", b.Name, "id2", b.ID,
		"direction", dir.String(), "ref", rec.Ref)
	return nil
}

func gangwayDirection(a *vessel.Vessel, room1 int, b *vessel.Vessel, room2 int) (vessel.Direction, bool) {
	for _, d := range vessel.Directions {
		if a.DirectionFree(room1, d) && b.DirectionFree(room2, d.Opposite()) {
			return d, true
		}
	}
	return vessel.North, false
}

// Undock separates a from its partner and returns the partner. A partner
// that no longer exists or no longer points back is treated as an orphan:
// a's docking state is reset and a nil partner is returned without error.
func (c *Coordinator) Undock(a *vessel.Vessel) (*vessel.Vessel, error) {
	if !a.IsDocked() {
		return nil, fail(ErrNotDocked, "Your vessel is not docked.")
	}

	partnerID := a.DockedTo
	b, ok := c.deps.Registry.Get(partnerID)
	if !ok || b.DockedTo != a.ID {
		a.RemoveDockingConnections(partnerID)
		if ok {
			b.RemoveDockingConnections(a.ID)
		}
		a.ClearDocking()
		c.completeRecord(a.ID, partnerID)
		c.log.Warn("Cleared orphaned docking state", "ship", a.Name, "id", a.ID, "partner", partnerID)
		return nil, nil
	}

	a.RemoveDockingConnections(b.ID)
	b.RemoveDockingConnections(a.ID)
	a.ClearDocking()
	b.ClearDocking()

	b.SetPosition(a.X+3.0, a.Y+1.0, b.Z)
	a.SyncRoomCoordinates()
	c.moved(b)

	c.completeRecord(a.ID, b.ID)

	c.notify(a, "Undocking complete.")
	c.notify(b, "%s has undocked.", a.Name)
	c.log.Info("Ships undocked", "ship1", a.Name, "id1", a.ID, "ship2", b.Name, "id2", b.ID)
	return b, nil
}

// Severed closes out the record for a link that was cut without an undock,
// such as when one side sinks.
func (c *Coordinator) Severed(a, b int) {
	c.completeRecord(a, b)
}

func (c *Coordinator) completeRecord(a, b int) {
	key := pairOf(a, b)
	ref, ok := c.active[key]
	if !ok {
		return
	}
	delete(c.active, key)
	if c.deps.Recorder == nil {
		return
	}
	if err := c.deps.Recorder.CompleteDock(ref, c.deps.Now()); err != nil {
		c.log.Error("Failed to complete docking record", "ref", ref, "error", err)
	}
}

// Linked reports whether a and b are both live and docked to each other.
func (c *Coordinator) Linked(a, b int) bool {
	va, ok := c.deps.Registry.Get(a)
	if !ok {
		return false
	}
	vb, ok := c.deps.Registry.Get(b)
	if !ok {
		return false
	}
	return va.DockedTo == b && vb.DockedTo == a
}

// CleanupOrphans completes every active record whose vessels are no longer
// docked to each other.
func (c *Coordinator) CleanupOrphans() (int, error) {
	for key := range c.active {
		if !c.Linked(key.lo, key.hi) {
			delete(c.active, key)
		}
	}
	if c.deps.Recorder == nil {
		return 0, nil
	}
	n, err := c.deps.Recorder.CompleteOrphanDocks(c.Linked)
	if err != nil {
		return n, fmt.Errorf("complete orphan docks: %w", err)
	}
	if n > 0 {
		c.log.Info("Docking records cleaned", "count", n)
	}
	return n, nil
}

// FindDockingRoom picks the compartment a gangway attaches to: an airlock,
// the entrance, a deck, any non-bridge room, then the bridge.
func FindDockingRoom(v *vessel.Vessel) int {
	if !v.HasInterior() {
		return vessel.NoRoom
	}
	for i, r := range v.Rooms {
		if strings.Contains(strings.ToLower(r.Name), "airlock") {
			return i
		}
	}
	if _, ok := v.Room(v.Entrance); ok {
		return v.Entrance
	}
	for i, r := range v.Rooms {
		if strings.Contains(strings.ToLower(r.Name), "deck") {
			return i
		}
	}
	for i := range v.Rooms {
		if i != v.Bridge {
			return i
		}
	}
	if _, ok := v.Room(v.Bridge); ok {
		return v.Bridge
	}
	return vessel.NoRoom
}
