package docking

import (
	"github.com/OCAP2/vessels/internal/geo"
	"github.com/OCAP2/vessels/internal/interior"
	"github.com/OCAP2/vessels/internal/vessel"
)

// Boarder is the character attempting a hostile boarding.
type Boarder struct {
	ID       int
	Name     string
	Level    int
	Location vessel.RoomRef
}

// BoardingResult describes how a boarding attempt went.
type BoardingResult struct {
	Boarded bool
	Fell    bool
	Damage  int
	Room    vessel.RoomRef
}

// BoardingDifficulty rates how hard target is to board, 5 to 95.
func BoardingDifficulty(target *vessel.Vessel) int {
	d := BaseBoardingDifficulty + abs(target.Speed)*2

	switch target.Class {
	case vessel.Warship:
		d += 10
	case vessel.Transport:
		d -= 5
	case vessel.Raft:
		d -= 10
	}

	switch dmg := target.Armor.DamagePercent(); {
	case dmg > 50:
		d -= 10
	case dmg > 25:
		d -= 5
	}

	return min(max(d, 5), 95)
}

func (c *Coordinator) roll(lo, hi int) int {
	return lo + c.deps.Rand.Intn(hi-lo+1)
}

// Board attempts to carry actor across to target. Skill is the actor's level.
func (c *Coordinator) Board(actor Boarder, target *vessel.Vessel) (BoardingResult, error) {
	from, ok := c.deps.Registry.Get(actor.Location.Vessel)
	if !ok {
		return BoardingResult{}, fail(ErrNotAboard, "You must be on a ship to board another vessel!")
	}
	if from.ID == target.ID {
		return BoardingResult{}, fail(ErrSameVessel, "You are already aboard that vessel!")
	}
	if geo.Range(from.Position(), target.Position()) > MaxDockingRange {
		return BoardingResult{}, fail(ErrOutOfRange, "The target vessel is too far away!")
	}
	if from.DockedTo == target.ID {
		return BoardingResult{}, fail(ErrAlreadyDocked, "You're already docked with that vessel!")
	}

	room := FindDockingRoom(target)
	if room == vessel.NoRoom {
		return BoardingResult{}, fail(ErrNoInterior, "You can't find a way onto that vessel!")
	}

	difficulty := BoardingDifficulty(target)
	if c.roll(1, 100) > actor.Level*100/difficulty {
		res := BoardingResult{}
		if c.roll(1, 100) <= 10 {
			res.Fell = true
			res.Damage = c.roll(1, 6) + c.roll(1, 6)
			if c.deps.Combat != nil {
				c.deps.Combat.ApplyDamage(actor.ID, actor.ID, res.Damage)
			}
		}
		c.log.Info("Boarding failed", "actor", actor.Name, "target", target.Name, "difficulty", difficulty, "fell", res.Fell)
		return res, nil
	}

	dest := target.Ref(room)
	if c.deps.Actors != nil {
		c.deps.Actors.MoveTo(actor.ID, dest)
		for _, id := range c.deps.Actors.Occupants(dest) {
			if id == actor.ID {
				continue
			}
			c.deps.Actors.SendToActor(id, "You are under attack by boarders!")
			if c.deps.Combat != nil {
				c.deps.Combat.StartCombat(actor.ID, id)
			}
		}
	}

	c.notify(target, "WARNING: Hostile boarders detected!")
	c.repelBoarders(target)

	c.log.Info("Vessel boarded", "actor", actor.Name, "target", target.Name, "room", room, "difficulty", difficulty)
	return BoardingResult{Boarded: true, Room: dest}, nil
}

func (c *Coordinator) repelBoarders(v *vessel.Vessel) {
	interior.LockHatches(v)
	c.notify(v, "BATTLE STATIONS! Prepare to repel boarders!")
}
