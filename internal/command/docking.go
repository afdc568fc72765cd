package command

import (
	"fmt"
	"strings"

	"github.com/OCAP2/vessels/internal/dispatcher"
	"github.com/OCAP2/vessels/internal/docking"
	"github.com/OCAP2/vessels/internal/interior"
	"github.com/OCAP2/vessels/internal/vessel"
	"github.com/OCAP2/vessels/internal/world"
)

func (h *handlers) dock(a *world.Actor, e dispatcher.Event) (string, error) {
	v, ok := h.vesselOf(a)
	if !ok {
		return "You must be on a vessel to dock.", nil
	}
	if !atHelm(a, v) {
		return "You must be at the helm to control docking.", nil
	}

	if len(e.Args) == 0 {
		var b strings.Builder
		b.WriteString("Vessels within docking range:\n")
		near := h.w.Docking.InRange(v)
		for _, o := range near {
			fmt.Fprintf(&b, "  %s (ID: %s)\n", o.Name, o.ShortID)
		}
		if len(near) == 0 {
			b.WriteString("  No vessels in range.\n")
		}
		return b.String(), nil
	}

	target, ok := h.w.Registry.FindByName(e.Rest(0))
	if !ok {
		return "No vessel by that name is nearby.", nil
	}
	if err := h.w.Docking.Initiate(v, target); err != nil {
		return docking.Reason(err), nil
	}
	return fmt.Sprintf("You bring %s alongside %s.", v.Name, target.Name), nil
}

func (h *handlers) undock(a *world.Actor, _ dispatcher.Event) (string, error) {
	v, ok := h.vesselOf(a)
	if !ok {
		return "You must be on a vessel to undock.", nil
	}
	if !atHelm(a, v) {
		return "You must be at the helm to control undocking.", nil
	}
	partner, err := h.w.Docking.Undock(v)
	if err != nil {
		return docking.Reason(err), nil
	}
	if partner == nil {
		return "Docking records cleaned.", nil
	}
	return fmt.Sprintf("You have successfully undocked from %s.", partner.Name), nil
}

func (h *handlers) board(a *world.Actor, e dispatcher.Event) (string, error) {
	if len(e.Args) == 0 {
		return "Board which vessel?", nil
	}
	target, ok := h.w.Registry.FindByName(e.Rest(0))
	if !ok {
		return "No vessel by that name is nearby.", nil
	}
	res, err := h.w.Docking.Board(a.Boarder(), target)
	if err != nil {
		return docking.Reason(err), nil
	}
	if res.Boarded {
		return "You leap across to the enemy vessel!", nil
	}
	msg := "You fail to board the enemy vessel!"
	if res.Fell {
		msg += fmt.Sprintf("\nYou lose your footing and fall into the water! (%d damage)", res.Damage)
	}
	return msg, nil
}

func (h *handlers) look(a *world.Actor, e dispatcher.Event) (string, error) {
	if len(e.Args) == 0 || (e.Args[0] != "outside" && e.Args[0] != "out") {
		return "Look where? Try 'look outside'.", nil
	}
	v, ok := h.vesselOf(a)
	if !ok {
		return "You need to be on a vessel to look outside.", nil
	}
	view, err := h.w.Docking.LookOutside(v, a.Aboard.Room)
	if err != nil {
		return docking.Reason(err), nil
	}
	return view, nil
}

func (h *handlers) rooms(a *world.Actor, _ dispatcher.Event) (string, error) {
	v, ok := h.vesselOf(a)
	if !ok {
		return "You must be on a vessel to see its layout.", nil
	}
	partner := ""
	if v.IsDocked() {
		if p, ok := h.w.Registry.Get(v.DockedTo); ok {
			partner = p.Name
		}
	}
	here := vessel.NoRoom
	if a.Aboard.Vessel == v.ID {
		here = a.Aboard.Room
	}
	return interior.Layout(v, here, partner), nil
}

// ship dispatches "ship <subcommand>".
func (h *handlers) ship(a *world.Actor, e dispatcher.Event) (string, error) {
	if len(e.Args) > 0 && strings.EqualFold(e.Args[0], "rooms") {
		return h.rooms(a, e)
	}
	return "Usage: ship rooms", nil
}
