// Package transport covers land vehicles, carrying them aboard vessels,
// and the unified enter/exit/go surface shared by vehicles and vessels.
package transport

import (
	"errors"

	"github.com/OCAP2/vessels/internal/terrain"
	"github.com/OCAP2/vessels/internal/vessel"
)

// Type is the kind of land vehicle.
type Type int

const (
	Cart Type = iota + 1
	Wagon
	Mount
	Carriage
)

var typeNames = map[Type]string{Cart: "cart", Wagon: "wagon", Mount: "mount", Carriage: "carriage"}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "unknown"
}

// ParseType resolves a vehicle type name.
func ParseType(name string) (Type, bool) {
	for t, n := range typeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// State is a vehicle's lifecycle state.
type State int

const (
	Idle State = iota
	Moving
	Loaded
	Hitched
	Damaged
	OnVessel
)

var stateNames = [...]string{"idle", "moving", "loaded", "hitched", "damaged", "on vessel"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terrain is a bitfield of the ground a vehicle can cross.
type Terrain uint8

const (
	Road Terrain = 1 << iota
	Plains
	Forest
	Hills
	Mountain
	Desert
	Swamp

	AllTerrain = Road | Plains | Forest | Hills | Mountain | Desert | Swamp
)

const (
	ConditionMax    = 100
	ConditionFair   = 50
	ConditionBroken = 0

	GridMin = -1024
	GridMax = 1024

	speedModLoaded  = 75
	speedModDamaged = 50
)

var (
	ErrInvalidTransition = errors.New("invalid vehicle state transition")
	ErrVehicleFull       = errors.New("vehicle is full")
	ErrNoPassengers      = errors.New("vehicle has no passengers")
	ErrOverweight        = errors.New("vehicle cannot carry that much weight")
	ErrNotEnoughWeight   = errors.New("vehicle does not carry that much weight")
	ErrDamaged           = errors.New("vehicle is damaged")
	ErrCannotMove        = errors.New("vehicle cannot move that way")
)

type defaults struct {
	passengers int
	weight     int
	speed      int
	terrain    Terrain
}

var typeDefaults = map[Type]defaults{
	Cart:     {2, 500, 2, Road | Plains},
	Wagon:    {6, 2000, 1, Road | Plains},
	Mount:    {1, 200, 4, Road | Plains | Forest | Hills},
	Carriage: {4, 800, 2, Road},
}

// TerrainFor maps a map sector to the capability needed to cross it.
// Water, air and lava map to zero: no land vehicle crosses them.
func TerrainFor(s terrain.Sector) Terrain {
	switch s {
	case terrain.Road:
		return Road
	case terrain.Field, terrain.City, terrain.Inside:
		return Plains
	case terrain.Forest, terrain.Jungle, terrain.Taiga:
		return Forest
	case terrain.Hills, terrain.Beach:
		return Hills
	case terrain.Mountain, terrain.HighMountain, terrain.Cave:
		return Mountain
	case terrain.Desert, terrain.Tundra:
		return Desert
	case terrain.Marshland:
		return Swamp
	}
	return 0
}

var terrainSpeedMod = map[Terrain]int{
	Road:     150,
	Plains:   100,
	Forest:   75,
	Hills:    75,
	Mountain: 50,
	Swamp:    50,
	Desert:   75,
}

// Vehicle is a cart, wagon, mount or carriage.
type Vehicle struct {
	ID    int
	Type  Type
	State State
	Name  string

	Room      int // world room vnum, -1 when none
	X, Y, Z   float64
	Direction vessel.Direction

	MaxPassengers int
	Passengers    int
	MaxWeight     int
	Weight        int

	BaseSpeed int
	Speed     int
	Terrain   Terrain

	Condition    int
	MaxCondition int

	Owner        string
	ParentVessel int // 0 when not aboard a vessel
}

// New creates a vehicle with the stock figures for its type. Unknown
// types get cart figures.
func New(id int, t Type, name string) *Vehicle {
	d, ok := typeDefaults[t]
	if !ok {
		d = typeDefaults[Cart]
	}
	return &Vehicle{
		ID:            id,
		Type:          t,
		State:         Idle,
		Name:          name,
		Room:          -1,
		MaxPassengers: d.passengers,
		MaxWeight:     d.weight,
		BaseSpeed:     d.speed,
		Speed:         d.speed,
		Terrain:       d.terrain,
		Condition:     ConditionMax,
		MaxCondition:  ConditionMax,
	}
}

// SetState moves the vehicle to s. Damaged vehicles only go back to idle;
// hitched vehicles only unhitch or take damage.
func (v *Vehicle) SetState(s State) error {
	if s < Idle || s > OnVessel {
		return ErrInvalidTransition
	}
	switch v.State {
	case Damaged:
		if s != Idle && s != Damaged {
			return ErrInvalidTransition
		}
	case Hitched:
		if s != Idle && s != Hitched && s != Damaged {
			return ErrInvalidTransition
		}
	}
	v.State = s
	return nil
}

func (v *Vehicle) settle() {
	if v.State != Idle && v.State != Loaded {
		return
	}
	if v.Passengers > 0 || v.Weight > 0 {
		v.State = Loaded
	} else {
		v.State = Idle
	}
}

func (v *Vehicle) CanAddPassenger() bool {
	return v.State != Damaged && v.Passengers < v.MaxPassengers
}

func (v *Vehicle) AddPassenger() error {
	if v.State == Damaged {
		return ErrDamaged
	}
	if !v.CanAddPassenger() {
		return ErrVehicleFull
	}
	v.Passengers++
	v.settle()
	return nil
}

func (v *Vehicle) RemovePassenger() error {
	if v.Passengers <= 0 {
		return ErrNoPassengers
	}
	v.Passengers--
	v.settle()
	return nil
}

func (v *Vehicle) CanAddWeight(w int) bool {
	return w >= 0 && v.State != Damaged && v.Weight+w <= v.MaxWeight
}

func (v *Vehicle) AddWeight(w int) error {
	if !v.CanAddWeight(w) {
		return ErrOverweight
	}
	v.Weight += w
	v.settle()
	return nil
}

func (v *Vehicle) RemoveWeight(w int) error {
	if w < 0 || v.Weight < w {
		return ErrNotEnoughWeight
	}
	v.Weight -= w
	v.settle()
	return nil
}

// Damage lowers condition, breaking the vehicle at zero. It returns the new condition.
func (v *Vehicle) Damage(amount int) int {
	v.Condition = max(v.Condition-max(amount, 0), ConditionBroken)
	if v.Condition <= ConditionBroken {
		v.State = Damaged
	}
	return v.Condition
}

// Repair raises condition up to the maximum and clears the damaged state.
func (v *Vehicle) Repair(amount int) int {
	v.Condition = min(v.Condition+max(amount, 0), v.MaxCondition)
	if v.State == Damaged && v.Condition > ConditionBroken {
		v.State = Idle
		v.settle()
	}
	return v.Condition
}

func (v *Vehicle) Operational() bool {
	return v.Condition > ConditionBroken && v.State != Damaged
}

// ConditionPercent is condition as a share of its maximum.
func (v *Vehicle) ConditionPercent() int {
	if v.MaxCondition <= 0 {
		return 0
	}
	return v.Condition * 100 / v.MaxCondition
}

// EffectiveSpeed applies wear and load penalties to the base speed.
func (v *Vehicle) EffectiveSpeed() int {
	if v.State == Damaged || v.State == Hitched {
		return 0
	}
	speed := v.BaseSpeed
	if v.Condition < ConditionFair {
		speed = speed * speedModDamaged / 100
	}
	if v.Weight > v.MaxWeight*75/100 || v.Passengers == v.MaxPassengers {
		speed = speed * speedModLoaded / 100
	}
	return max(speed, 1)
}

// CanTraverse reports whether the vehicle can cross sector s.
func (v *Vehicle) CanTraverse(s terrain.Sector) bool {
	need := TerrainFor(s)
	return need != 0 && v.Terrain&need != 0
}

// SpeedModifier is the percentage of base speed the vehicle makes in s.
func (v *Vehicle) SpeedModifier(s terrain.Sector) int {
	return terrainSpeedMod[TerrainFor(s)]
}

func (v *Vehicle) destination(dir vessel.Direction) (x, y float64, ok bool) {
	dx, dy := dir.Delta()
	if dx == 0 && dy == 0 {
		return 0, 0, false
	}
	x, y = v.X+float64(dx), v.Y+float64(dy)
	if x < GridMin || x > GridMax || y < GridMin || y > GridMax {
		return 0, 0, false
	}
	return x, y, true
}

// CanMove reports whether a step in dir is possible over lookup's terrain.
func (v *Vehicle) CanMove(dir vessel.Direction, lookup terrain.Lookup) bool {
	if !v.Operational() || v.State == Hitched || v.ParentVessel != 0 {
		return false
	}
	x, y, ok := v.destination(dir)
	if !ok {
		return false
	}
	return v.CanTraverse(lookup.SectorAt(int(x), int(y)))
}

// Move steps the vehicle one grid cell in dir.
func (v *Vehicle) Move(dir vessel.Direction, lookup terrain.Lookup) error {
	if !v.CanMove(dir, lookup) {
		return ErrCannotMove
	}
	x, y, _ := v.destination(dir)
	sector := lookup.SectorAt(int(x), int(y))

	v.X, v.Y = x, y
	v.Direction = dir
	v.Speed = max(v.BaseSpeed*v.SpeedModifier(sector)/100, 1)
	v.State = Idle
	v.settle()
	return nil
}
