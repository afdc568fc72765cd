package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/OCAP2/vessels/internal/interior"
	"github.com/OCAP2/vessels/internal/terrain"
	"github.com/OCAP2/vessels/internal/vessel"
)

// Kind tags the Transport variants.
type Kind int

const (
	KindVehicle Kind = iota + 1
	KindVessel
)

func (k Kind) String() string {
	switch k {
	case KindVehicle:
		return "vehicle"
	case KindVessel:
		return "vessel"
	}
	return "unknown"
}

var (
	ErrAlreadyRiding = errors.New("passenger already in a transport")
	ErrNotRiding     = errors.New("passenger not in this transport")
	ErrUnsupported   = errors.New("operation not supported by this transport")
)

// Passenger is the transport-facing view of a character.
type Passenger struct {
	ID      int
	Vehicle int            // vehicle ridden, 0 when none
	Aboard  vessel.RoomRef // Vessel is vessel.NoVessel when not aboard
}

// AboardVessel reports whether the passenger stands in a vessel compartment.
func (p *Passenger) AboardVessel() bool {
	return p.Aboard.Vessel != vessel.NoVessel
}

// Transport is the capability shared by land vehicles and vessels.
type Transport interface {
	Kind() Kind
	Name() string
	Enter(p *Passenger) (string, error)
	Exit(p *Passenger) (string, error)
	Go(p *Passenger, dir vessel.Direction) (string, error)
	Status(p *Passenger) string
}

// LandVehicle drives a Vehicle over the world grid.
type LandVehicle struct {
	V       *Vehicle
	Terrain terrain.Lookup
	Store   Store
	Log     *slog.Logger // defaults to slog.Default
}

func (t *LandVehicle) Kind() Kind   { return KindVehicle }
func (t *LandVehicle) Name() string { return t.V.Name }

func (t *LandVehicle) Enter(p *Passenger) (string, error) {
	if p.Vehicle != 0 {
		return "", fail(ErrAlreadyRiding, "You are already in a transport. Exit first.")
	}
	if !t.V.Operational() {
		return "", fail(ErrDamaged, "That %s is too damaged to use.", t.V.Type)
	}
	if err := t.V.AddPassenger(); err != nil {
		return "", fail(err, "The %s is full. There is no room for you.", t.V.Type)
	}
	p.Vehicle = t.V.ID
	t.save()
	return fmt.Sprintf("You climb onto %s.", t.V.Name), nil
}

func (t *LandVehicle) Exit(p *Passenger) (string, error) {
	if p.Vehicle != t.V.ID {
		return "", fail(ErrNotRiding, "You are not in any transport.")
	}
	if err := t.V.RemovePassenger(); err != nil {
		return "", fail(err, "You fail to exit the %s.", t.V.Type)
	}
	p.Vehicle = 0
	t.save()
	return fmt.Sprintf("You dismount from %s.", t.V.Name), nil
}

func (t *LandVehicle) Go(p *Passenger, dir vessel.Direction) (string, error) {
	if p.Vehicle != t.V.ID {
		return "", fail(ErrNotRiding, "You need to be in a transport to use this command.")
	}
	if !t.V.Operational() {
		return "", fail(ErrDamaged, "The %s is too damaged to move.", t.V.Type)
	}
	if err := t.V.Move(dir, t.Terrain); err != nil {
		return "", fail(err, "The %s cannot travel %s from here.", t.V.Type, dir)
	}
	t.save()
	return fmt.Sprintf("You drive the %s %s.\nCurrent position: (%d, %d)",
		t.V.Type, dir, int(t.V.X), int(t.V.Y)), nil
}

func (t *LandVehicle) save() {
	if t.Store == nil {
		return
	}
	if err := t.Store.SaveVehicle(t.V); err != nil {
		log := t.Log
		if log == nil {
			log = slog.Default()
		}
		log.Error("Failed to save vehicle", "vehicle", t.V.ID, "error", err)
	}
}

func conditionSummary(v *Vehicle) string {
	switch pct := v.ConditionPercent(); {
	case pct >= 75:
		return fmt.Sprintf("The %s is in good condition.", v.Type)
	case pct >= 50:
		return fmt.Sprintf("The %s shows some wear but is functional.", v.Type)
	case pct >= 25:
		return fmt.Sprintf("The %s is in poor condition and needs repair.", v.Type)
	case pct > 0:
		return fmt.Sprintf("The %s is badly damaged and barely functional.", v.Type)
	}
	return fmt.Sprintf("The %s is broken and cannot be used.", v.Type)
}

func (t *LandVehicle) Status(p *Passenger) string {
	v := t.V
	var b strings.Builder
	b.WriteString("\n=== Transport Status (Vehicle) ===\n\n")
	fmt.Fprintf(&b, "Name: %s\n", v.Name)
	fmt.Fprintf(&b, "Type: %s\n", v.Type)
	fmt.Fprintf(&b, "State: %s\n\n", v.State)
	fmt.Fprintf(&b, "Position: (%d, %d)\n", int(v.X), int(v.Y))
	fmt.Fprintf(&b, "Speed: %d (base %d)\n\n", v.Speed, v.BaseSpeed)
	fmt.Fprintf(&b, "Passengers: %d / %d\n", v.Passengers, v.MaxPassengers)
	fmt.Fprintf(&b, "Cargo: %d / %d lbs\n\n", v.Weight, v.MaxWeight)
	fmt.Fprintf(&b, "Condition: %d / %d (%d%%)\n", v.Condition, v.MaxCondition, v.ConditionPercent())
	b.WriteString(conditionSummary(v) + "\n")
	if p != nil && p.Vehicle == v.ID {
		fmt.Fprintf(&b, "\nYou are currently riding this %s.\n", v.Type)
	}
	return b.String()
}

// VesselTransport walks a passenger through a vessel's compartments.
type VesselTransport struct {
	V        *vessel.Vessel
	Registry *vessel.Registry
}

func (t *VesselTransport) Kind() Kind   { return KindVessel }
func (t *VesselTransport) Name() string { return t.V.Name }

func (t *VesselTransport) Enter(*Passenger) (string, error) {
	return "", fail(ErrUnsupported, "To board a vessel, use the 'board' command.\nVessel: %s", t.V.Name)
}

func (t *VesselTransport) Exit(*Passenger) (string, error) {
	return "", fail(ErrUnsupported, "To leave a vessel, cross over at the docking gangway.")
}

func (t *VesselTransport) Go(p *Passenger, dir vessel.Direction) (string, error) {
	if p.Aboard.Vessel != t.V.ID {
		return "", fail(ErrNotRiding, "You are not in any transport.")
	}
	to, err := interior.Move(t.V, p.Aboard.Room, dir)
	switch {
	case errors.Is(err, interior.ErrBlocked):
		return "", fail(err, "That way is blocked!")
	case err != nil:
		return "", fail(err, "You can't go that way.")
	}
	p.Aboard = to

	dest := t.V
	if to.Vessel != t.V.ID && t.Registry != nil {
		if other, ok := t.Registry.Get(to.Vessel); ok {
			dest = other
		}
	}
	room, ok := dest.Room(to.Room)
	if !ok {
		return fmt.Sprintf("You go %s.", dir), nil
	}
	if dest != t.V {
		return fmt.Sprintf("You cross the gangway onto %s.\n%s", dest.Name, room.Name), nil
	}
	return fmt.Sprintf("You go %s.\n%s", dir, room.Name), nil
}

func (t *VesselTransport) Status(p *Passenger) string {
	v := t.V
	var b strings.Builder
	b.WriteString("\n=== Transport Status (Vessel) ===\n\n")
	fmt.Fprintf(&b, "Name: %s\n", v.Name)
	fmt.Fprintf(&b, "ID: %s\n", v.ShortID)
	fmt.Fprintf(&b, "Owner: %s\n\n", v.Owner)
	fmt.Fprintf(&b, "Position: (%.1f, %.1f, %.1f)\n", v.X, v.Y, v.Z)
	fmt.Fprintf(&b, "Heading: %d degrees\n", v.Heading)
	fmt.Fprintf(&b, "Speed: %d / %d\n\n", v.Speed, v.MaxSpeed)
	fmt.Fprintf(&b, "Rooms: %d\n", len(v.Rooms))
	if v.IsDocked() {
		b.WriteString("Docked: Yes\n")
	} else {
		b.WriteString("Docked: No\n")
	}
	if p != nil && p.Aboard.Vessel == v.ID {
		b.WriteString("\nYou are currently aboard this vessel.\n")
	}
	return b.String()
}
