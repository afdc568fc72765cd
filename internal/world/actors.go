package world

import (
	"errors"
	"slices"

	"github.com/OCAP2/vessels/internal/docking"
	"github.com/OCAP2/vessels/internal/transport"
	"github.com/OCAP2/vessels/internal/vessel"
)

var (
	ErrActorExists   = errors.New("actor already present")
	ErrActorNotFound = errors.New("actor not found")
)

// Actor is a player or NPC. The embedded Passenger carries the actor's
// position: the vessel compartment they stand in and the vehicle they ride.
type Actor struct {
	transport.Passenger
	Name  string
	Level int
	NPC   bool

	outbox []string
}

// Boarder is the actor as seen by a boarding attempt.
func (a *Actor) Boarder() docking.Boarder {
	return docking.Boarder{ID: a.ID, Name: a.Name, Level: a.Level, Location: a.Aboard}
}

// Ashore is the location of an actor standing on no vessel.
var Ashore = vessel.RoomRef{Vessel: vessel.NoVessel, Room: vessel.NoRoom}

// AddActor places a character in the world.
func (s *State) AddActor(a Actor) (*Actor, error) {
	if _, ok := s.actors[a.ID]; ok {
		return nil, ErrActorExists
	}
	if a.Aboard == (vessel.RoomRef{}) {
		a.Aboard = Ashore
	}
	s.actors[a.ID] = &a
	return &a, nil
}

func (s *State) Actor(id int) (*Actor, bool) {
	a, ok := s.actors[id]
	return a, ok
}

// Occupants lists the ids of actors standing in ref, ascending.
func (s *State) Occupants(ref vessel.RoomRef) []int {
	var ids []int
	for id, a := range s.actors {
		if a.Aboard == ref {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// ActorsAboard lists the ids of actors anywhere on vessel id, ascending.
func (s *State) ActorsAboard(id int) []int {
	var ids []int
	for aid, a := range s.actors {
		if a.Aboard.Vessel == id {
			ids = append(ids, aid)
		}
	}
	slices.Sort(ids)
	return ids
}

func (s *State) MoveTo(actorID int, ref vessel.RoomRef) {
	if a, ok := s.actors[actorID]; ok {
		a.Aboard = ref
	}
}

func (s *State) SendToActor(actorID int, msg string) {
	if a, ok := s.actors[actorID]; ok {
		a.outbox = append(a.outbox, msg)
	}
}

// SendToVessel delivers msg to everyone aboard v.
func (s *State) SendToVessel(v *vessel.Vessel, msg string) {
	s.log.Debug("Vessel message", "vessel", v.ID, "message", msg)
	for _, id := range s.ActorsAboard(v.ID) {
		s.SendToActor(id, msg)
	}
}

// Messages returns and clears an actor's pending messages.
func (s *State) Messages(actorID int) []string {
	a, ok := s.actors[actorID]
	if !ok {
		return nil
	}
	out := a.outbox
	a.outbox = nil
	return out
}

// IsValidPilot accepts any NPC present in the world.
func (s *State) IsValidPilot(npcID int) bool {
	a, ok := s.actors[npcID]
	return ok && a.NPC
}

func (s *State) NPCName(npcID int) string {
	if a, ok := s.actors[npcID]; ok {
		return a.Name
	}
	return ""
}
