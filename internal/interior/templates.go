package interior

import (
	"github.com/OCAP2/vessels/internal/terrain"
	"github.com/OCAP2/vessels/internal/vessel"
)

type roomTemplate struct {
	name        string
	description string
	indoor      bool
	sector      terrain.Sector
}

// Names and descriptions take the vessel name for %s.
var roomTemplates = map[vessel.RoomType]roomTemplate{
	vessel.Bridge: {
		"The Bridge of %s",
		"This is the command center of %s. Navigation charts cover the walls,\n" +
			"and the ship's wheel stands prominently at the center. Through the windows,\n" +
			"you can see the vast expanse beyond.",
		true, terrain.Inside,
	},
	vessel.Quarters: {
		"Crew Quarters aboard %s",
		"These are the crew quarters of %s. Hammocks and bunks line the walls,\n" +
			"with personal effects stored in sea chests. The air carries the scent\n" +
			"of salt and tar.",
		true, terrain.Inside,
	},
	vessel.Cargo: {
		"Cargo Hold of %s",
		"This cavernous cargo hold of %s is filled with crates, barrels, and\n" +
			"various supplies. The wooden beams creak softly with the ship's movement.\n" +
			"Shadows dance in the dim light filtering through the hatches above.",
		true, terrain.Inside,
	},
	vessel.Engineering: {
		"Engine Room of %s",
		"The heart of %s beats here in the engine room. Massive machinery fills\n" +
			"the space, with pipes and gauges covering every surface. The air is thick\n" +
			"with the smell of oil and the heat of working engines.",
		true, terrain.Inside,
	},
	vessel.Weapons: {
		"Weapons Bay of %s",
		"This is the weapons bay of %s. Cannons line the walls, their brass\n" +
			"fittings gleaming. Racks of ammunition and powder kegs are secured\n" +
			"against the bulkheads. Gun ports can be opened for battle.",
		true, terrain.Inside,
	},
	vessel.Medical: {
		"Medical Bay of %s",
		"The medical bay of %s is equipped with beds and medical supplies.\n" +
			"Clean white sheets cover the bunks, and cabinets hold bandages,\n" +
			"potions, and surgical instruments.",
		true, terrain.Inside,
	},
	vessel.MessHall: {
		"Mess Hall of %s",
		"The mess hall of %s serves as the social center of the vessel.\n" +
			"Long tables with benches fill the room, and the lingering aroma\n" +
			"of recent meals permeates the air.",
		true, terrain.Inside,
	},
	vessel.Corridor: {
		"Corridor aboard %s",
		"This narrow corridor aboard %s connects different sections of the ship.\n" +
			"Lanterns provide dim illumination, and the walls are lined with\n" +
			"doors leading to various compartments.",
		true, terrain.Inside,
	},
	vessel.Airlock: {
		"Airlock of %s",
		"This is an airlock chamber of %s, designed for transitioning between\n" +
			"the ship's interior and the outside. Heavy doors seal this compartment\n" +
			"from both sides.",
		true, terrain.Inside,
	},
	vessel.Deck: {
		"Main Deck of %s",
		"You stand on the main deck of %s. The wind whips across the open space,\n" +
			"and you can see the horizon stretching endlessly in all directions.\n" +
			"Rigging and masts tower above you.",
		false, terrain.WaterSwim,
	},
}

// mandatoryRooms follow the bridge for each class.
var mandatoryRooms = map[vessel.Class][]vessel.RoomType{
	vessel.Raft:      nil,
	vessel.Boat:      {vessel.Quarters},
	vessel.Ship:      {vessel.Quarters, vessel.Cargo, vessel.Deck},
	vessel.Warship:   {vessel.Weapons, vessel.Weapons, vessel.Quarters, vessel.Engineering, vessel.Deck},
	vessel.Transport: {vessel.Cargo, vessel.Cargo, vessel.Cargo, vessel.Quarters, vessel.MessHall},
	vessel.Submarine: {vessel.Airlock, vessel.Engineering, vessel.Quarters},
	vessel.Airship:   {vessel.Deck, vessel.Engineering, vessel.Quarters},
	vessel.Magical:   {vessel.Quarters, vessel.Cargo},
}

var commonRooms = [...]vessel.RoomType{vessel.Quarters, vessel.Corridor, vessel.Cargo, vessel.MessHall, vessel.Medical}

// spokes is the bridge fan-out order. Up and down are never used inside a hull.
var spokes = [...]vessel.Direction{
	vessel.North, vessel.East, vessel.South, vessel.West,
	vessel.Northeast, vessel.Southeast, vessel.Southwest, vessel.Northwest,
}
