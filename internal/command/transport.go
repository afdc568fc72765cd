package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OCAP2/vessels/internal/dispatcher"
	"github.com/OCAP2/vessels/internal/docking"
	"github.com/OCAP2/vessels/internal/geo"
	"github.com/OCAP2/vessels/internal/transport"
	"github.com/OCAP2/vessels/internal/vessel"
	"github.com/OCAP2/vessels/internal/world"
)

func (h *handlers) enter(a *world.Actor, e dispatcher.Event) (string, error) {
	if len(e.Args) == 0 {
		return "Enter what?", nil
	}
	name := e.Rest(0)

	if vh, ok := h.w.Vehicles.FindByName(name); ok && vh.ParentVessel == 0 && !a.AboardVessel() {
		return h.reply(h.w.VehicleTransport(vh).Enter(&a.Passenger))
	}
	if v, ok := h.w.Registry.FindByName(name); ok {
		t := &transport.VesselTransport{V: v, Registry: h.w.Registry}
		return h.reply(t.Enter(&a.Passenger))
	}
	return "There is no transport here to enter.", nil
}

func (h *handlers) exit(a *world.Actor, _ dispatcher.Event) (string, error) {
	t, err := h.w.TransportFor(a)
	if errors.Is(err, world.ErrNoTransport) {
		return "You are not in any transport.", nil
	}
	if err != nil {
		return "", err
	}
	return h.reply(t.Exit(&a.Passenger))
}

func (h *handlers) goDir(a *world.Actor, e dispatcher.Event) (string, error) {
	if len(e.Args) == 0 {
		return "Go which way?", nil
	}
	dir, err := vessel.ParseDirection(e.Args[0])
	if err != nil {
		return "That is not a direction.", nil
	}
	t, err := h.w.TransportFor(a)
	if errors.Is(err, world.ErrNoTransport) {
		return "You need to be in a transport to use this command.", nil
	}
	if err != nil {
		return "", err
	}
	return h.reply(t.Go(&a.Passenger, dir))
}

func (h *handlers) status(a *world.Actor, _ dispatcher.Event) (string, error) {
	t, err := h.w.TransportFor(a)
	if errors.Is(err, world.ErrNoTransport) {
		return "You are not in any transport.", nil
	}
	if err != nil {
		return "", err
	}
	return t.Status(&a.Passenger), nil
}

// reply turns a transport refusal into reply text.
func (h *handlers) reply(msg string, err error) (string, error) {
	if err != nil {
		return transport.Reason(err), nil
	}
	return msg, nil
}

// loadVehicle handles "loadvehicle <name>". The vehicle must stand ashore
// within docking range of the actor's vessel.
func (h *handlers) loadVehicle(a *world.Actor, e dispatcher.Event) (string, error) {
	v, ok := h.vesselOf(a)
	if !ok {
		return "You must be on a vessel to load vehicles.", nil
	}
	if len(e.Args) == 0 {
		return "Load which vehicle?", nil
	}
	vh, ok := h.w.Vehicles.FindByName(e.Rest(0))
	if !ok || (vh.ParentVessel == 0 && geo.Range(v.Position(), geo.Position{X: vh.X, Y: vh.Y, Z: vh.Z}) > docking.MaxDockingRange) {
		return "There is no vehicle here to load.", nil
	}
	if a.Vehicle == vh.ID {
		return "You cannot load a vehicle you are riding. Dismount first.", nil
	}
	if err := h.w.Transport.Load(vh, v); err != nil {
		return transport.Reason(err), nil
	}
	return fmt.Sprintf("You load %s onto %s.", vh.Name, v.Name), nil
}

// unloadVehicle lists the vehicles aboard, or unloads the nth.
func (h *handlers) unloadVehicle(a *world.Actor, e dispatcher.Event) (string, error) {
	v, ok := h.vesselOf(a)
	if !ok {
		return "You must be on a vessel to unload vehicles.", nil
	}
	loaded := h.w.Transport.Loaded(v)
	if len(loaded) == 0 {
		return "There are no vehicles loaded on this vessel.", nil
	}

	if len(e.Args) == 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Vehicles loaded on %s:\n", v.Name)
		for i, vh := range loaded {
			fmt.Fprintf(&b, "  %d. %s [%s]\n", i+1, vh.Name, vh.Type)
		}
		b.WriteString("Use 'unloadvehicle <number>' to unload a specific vehicle.\n")
		return b.String(), nil
	}

	n, err := strconv.Atoi(e.Args[0])
	if err != nil || n < 1 || n > len(loaded) {
		return "Invalid vehicle number. Use 'unloadvehicle' to see the list.", nil
	}
	vh := loaded[n-1]
	if _, err := h.w.Transport.Unload(vh); err != nil {
		return transport.Reason(err), nil
	}
	return fmt.Sprintf("You unload %s from %s.", vh.Name, v.Name), nil
}
