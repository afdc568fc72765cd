package transport

import (
	"io"
	"log/slog"
	"testing"

	"github.com/OCAP2/vessels/internal/terrain"
	"github.com/OCAP2/vessels/internal/vessel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	saved []int
	err   error
}

func (s *fakeStore) SaveVehicle(v *Vehicle) error {
	s.saved = append(s.saved, v.ID)
	return s.err
}

type fakeNotifier struct {
	sent []string
}

func (n *fakeNotifier) SendToVessel(_ *vessel.Vessel, msg string) {
	n.sent = append(n.sent, msg)
}

type fixture struct {
	vessels  *vessel.Registry
	vehicles *Vehicles
	store    *fakeStore
	notifier *fakeNotifier
	mgr      *Manager
}

func newFixture() *fixture {
	f := &fixture{
		vessels:  vessel.NewRegistry(10),
		vehicles: NewVehicles(),
		store:    &fakeStore{},
		notifier: &fakeNotifier{},
	}
	f.mgr = NewManager(f.vessels, f.vehicles, f.store, f.notifier, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

// launch creates a vessel with a single plains-friendly compartment.
func (f *fixture) launch(t *testing.T, c vessel.Class, name string) *vessel.Vessel {
	t.Helper()
	v, err := f.vessels.Load(vessel.DefaultTemplate(c), name, "", 12, 34, 0)
	require.NoError(t, err)
	v.Rooms = []vessel.Compartment{
		{Index: 0, Vnum: 70000, Type: vessel.Bridge, Name: "Bridge", Sector: terrain.Inside, Indoor: true},
		{Index: 1, Vnum: 70001, Type: vessel.Deck, Name: "Main Deck", Sector: terrain.Field},
	}
	v.Bridge, v.Entrance = 0, 1
	return v
}

func TestTerrainFor(t *testing.T) {
	tests := []struct {
		sector terrain.Sector
		want   Terrain
	}{
		{terrain.Road, Road},
		{terrain.Field, Plains},
		{terrain.City, Plains},
		{terrain.Inside, Plains},
		{terrain.Forest, Forest},
		{terrain.Jungle, Forest},
		{terrain.Taiga, Forest},
		{terrain.Hills, Hills},
		{terrain.Beach, Hills},
		{terrain.Mountain, Mountain},
		{terrain.HighMountain, Mountain},
		{terrain.Cave, Mountain},
		{terrain.Desert, Desert},
		{terrain.Tundra, Desert},
		{terrain.Marshland, Swamp},
		{terrain.WaterSwim, 0},
		{terrain.WaterNoSwim, 0},
		{terrain.Ocean, 0},
		{terrain.Underwater, 0},
		{terrain.River, 0},
		{terrain.Flying, 0},
		{terrain.Lava, 0},
	}
	for _, tt := range tests {
		t.Run(tt.sector.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, TerrainFor(tt.sector))
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	tests := []struct {
		typ        Type
		passengers int
		weight     int
		speed      int
		terrain    Terrain
	}{
		{Cart, 2, 500, 2, Road | Plains},
		{Wagon, 6, 2000, 1, Road | Plains},
		{Mount, 1, 200, 4, Road | Plains | Forest | Hills},
		{Carriage, 4, 800, 2, Road},
		{Type(99), 2, 500, 2, Road | Plains},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			v := New(1, tt.typ, "test")
			assert.Equal(t, tt.passengers, v.MaxPassengers)
			assert.Equal(t, tt.weight, v.MaxWeight)
			assert.Equal(t, tt.speed, v.BaseSpeed)
			assert.Equal(t, tt.terrain, v.Terrain)
			assert.Equal(t, ConditionMax, v.Condition)
			assert.Equal(t, Idle, v.State)
			assert.Equal(t, -1, v.Room)

			parsed, ok := ParseType(tt.typ.String())
			assert.Equal(t, tt.typ != Type(99), ok)
			if ok {
				assert.Equal(t, tt.typ, parsed)
			}
		})
	}
}

func TestVehicle_SetState(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{Idle, Moving, true},
		{Damaged, Idle, true},
		{Damaged, Moving, false},
		{Damaged, OnVessel, false},
		{Hitched, Idle, true},
		{Hitched, Damaged, true},
		{Hitched, Loaded, false},
		{Idle, State(42), false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			v := New(1, Cart, "c")
			v.State = tt.from
			err := v.SetState(tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, v.State)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, v.State)
			}
		})
	}
}

func TestVehicle_PassengersAndWeight(t *testing.T) {
	v := New(1, Cart, "Cart")

	require.NoError(t, v.AddPassenger())
	assert.Equal(t, Loaded, v.State)
	require.NoError(t, v.AddPassenger())
	assert.ErrorIs(t, v.AddPassenger(), ErrVehicleFull)

	require.NoError(t, v.RemovePassenger())
	require.NoError(t, v.RemovePassenger())
	assert.Equal(t, Idle, v.State)
	assert.ErrorIs(t, v.RemovePassenger(), ErrNoPassengers)

	require.NoError(t, v.AddWeight(500))
	assert.Equal(t, Loaded, v.State)
	assert.ErrorIs(t, v.AddWeight(1), ErrOverweight)
	assert.ErrorIs(t, v.AddWeight(-1), ErrOverweight)
	assert.ErrorIs(t, v.RemoveWeight(501), ErrNotEnoughWeight)
	require.NoError(t, v.RemoveWeight(500))
	assert.Equal(t, Idle, v.State)
}

func TestVehicle_DamageRepair(t *testing.T) {
	v := New(1, Wagon, "Wagon")

	assert.Equal(t, 40, v.Damage(60))
	assert.True(t, v.Operational())
	assert.Equal(t, 0, v.Damage(100))
	assert.Equal(t, Damaged, v.State)
	assert.False(t, v.Operational())
	assert.ErrorIs(t, v.AddPassenger(), ErrDamaged)
	assert.Zero(t, v.EffectiveSpeed())

	assert.Equal(t, 30, v.Repair(30))
	assert.Equal(t, Idle, v.State)
	assert.Equal(t, 100, v.Repair(500))
	assert.Equal(t, 100, v.Damage(-5))
}

func TestVehicle_EffectiveSpeed(t *testing.T) {
	v := New(1, Mount, "Horse")
	assert.Equal(t, 4, v.EffectiveSpeed())

	v.Condition = 40
	assert.Equal(t, 2, v.EffectiveSpeed())

	require.NoError(t, v.AddPassenger())
	assert.Equal(t, 1, v.EffectiveSpeed())

	v.State = Hitched
	assert.Zero(t, v.EffectiveSpeed())
}

func TestVehicle_Move(t *testing.T) {
	grid := terrain.NewGrid(terrain.Field)
	grid.Set(0, 1, terrain.Road)
	grid.Set(1, 0, terrain.Ocean)
	grid.Set(-1, 0, terrain.Forest)

	v := New(1, Cart, "Cart")

	require.NoError(t, v.Move(vessel.North, grid))
	assert.Equal(t, 0.0, v.X)
	assert.Equal(t, 1.0, v.Y)
	assert.Equal(t, vessel.North, v.Direction)
	assert.Equal(t, 3, v.Speed)

	require.NoError(t, v.Move(vessel.South, grid))
	assert.Equal(t, 2, v.Speed)

	assert.ErrorIs(t, v.Move(vessel.East, grid), ErrCannotMove)
	assert.ErrorIs(t, v.Move(vessel.West, grid), ErrCannotMove)
	assert.ErrorIs(t, v.Move(vessel.Up, grid), ErrCannotMove)

	v.X = GridMax
	assert.False(t, v.CanMove(vessel.East, terrain.Uniform(terrain.Road)))

	v.X = 0
	v.ParentVessel = 3
	assert.False(t, v.CanMove(vessel.North, grid))
}

func TestVehicles_Registry(t *testing.T) {
	r := NewVehicles()
	a := r.Create(Cart, "Red Cart")
	b := r.Create(Wagon, "Blue Wagon")
	r.Add(&Vehicle{ID: 10, Name: "Old Mount", Room: -1})
	c := r.Create(Mount, "Grey Mount")

	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)
	assert.Equal(t, 11, c.ID)
	assert.Equal(t, 4, r.Len())

	got, ok := r.FindByName("blue")
	require.True(t, ok)
	assert.Same(t, b, got)
	_, ok = r.FindByName("")
	assert.False(t, ok)

	a.ParentVessel = 5
	c.ParentVessel = 5
	loaded := r.LoadedOn(5)
	require.Len(t, loaded, 2)
	assert.Equal(t, []int{1, 11}, []int{loaded[0].ID, loaded[1].ID})

	b.Room = 3001
	assert.Equal(t, []*Vehicle{b}, r.InRoom(3001))

	r.Remove(10)
	assert.Equal(t, 3, r.Len())
}

func TestLoad_CapacityAndSync(t *testing.T) {
	f := newFixture()
	v := f.launch(t, vessel.Ship, "Wanderer")
	require.Equal(t, 10, v.Class.VehicleCapacity())

	for i := 0; i < 10; i++ {
		vh := f.vehicles.Create(Cart, "cart")
		require.NoError(t, f.mgr.Load(vh, v))
		assert.Equal(t, v.ID, vh.ParentVessel)
		assert.Equal(t, OnVessel, vh.State)
		assert.Equal(t, v.X, vh.X)
		assert.Equal(t, v.Y, vh.Y)
		assert.Equal(t, v.Z, vh.Z)
	}

	extra := f.vehicles.Create(Cart, "one too many")
	err := f.mgr.Load(extra, v)
	assert.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, "The vessel cannot carry any more vehicles.", Reason(err))
	assert.Zero(t, extra.ParentVessel)
	assert.Len(t, f.mgr.Loaded(v), 10)
	assert.Len(t, f.store.saved, 10)
	assert.Contains(t, f.notifier.sent, "cart has been loaded onto the vessel.")
}

func TestLoad_SmallHullCapacity(t *testing.T) {
	f := newFixture()
	raft := f.launch(t, vessel.Raft, "Driftwood")
	for i := 0; i < 2; i++ {
		require.NoError(t, f.mgr.Load(f.vehicles.Create(Mount, "mule"), raft))
	}
	assert.ErrorIs(t, f.mgr.Load(f.vehicles.Create(Mount, "mule"), raft), ErrCapacity)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(v *vessel.Vessel, vh *Vehicle)
		err    error
		reason string
	}{
		{"vessel moving", func(v *vessel.Vessel, _ *Vehicle) { v.Speed = 4 }, ErrVesselMoving, "The vessel must be stationary or docked to load vehicles."},
		{"occupied", func(_ *vessel.Vessel, vh *Vehicle) { vh.Passengers = 1 }, ErrOccupied, "You cannot load an occupied vehicle. Dismount first."},
		{"already aboard", func(_ *vessel.Vessel, vh *Vehicle) { vh.ParentVessel = 9 }, ErrAlreadyLoaded, "That vehicle is already loaded on a vessel."},
		{"damaged", func(_ *vessel.Vessel, vh *Vehicle) { vh.Damage(200) }, ErrDamaged, "That vehicle is too damaged to load safely."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			v := f.launch(t, vessel.Ship, "Wanderer")
			vh := f.vehicles.Create(Cart, "Cart")
			tt.setup(v, vh)

			err := f.mgr.Load(vh, v)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.reason, Reason(err))
			assert.Empty(t, f.store.saved)
		})
	}
}

func TestLoad_MovingButDocked(t *testing.T) {
	f := newFixture()
	v := f.launch(t, vessel.Ship, "Wanderer")
	v.Speed = 1
	v.DockedTo = 2
	assert.NoError(t, f.mgr.Load(f.vehicles.Create(Cart, "Cart"), v))
}

func TestUnload(t *testing.T) {
	f := newFixture()
	v := f.launch(t, vessel.Ship, "Wanderer")
	vh := f.vehicles.Create(Cart, "Cart")
	require.NoError(t, f.mgr.Load(vh, v))

	v.SetPosition(50, 60, 0)
	f.mgr.SyncAllLoaded(v)
	assert.Equal(t, 50.0, vh.X)

	got, err := f.mgr.Unload(vh)
	require.NoError(t, err)
	assert.Same(t, v, got)
	assert.Zero(t, vh.ParentVessel)
	assert.Equal(t, Idle, vh.State)
	assert.Equal(t, 70001, vh.Room)
	assert.Equal(t, 50.0, vh.X)
	assert.Equal(t, 60.0, vh.Y)
	assert.Contains(t, f.notifier.sent, "Cart has been unloaded from the vessel.")

	// no longer follows the vessel
	v.SetPosition(0, 0, 0)
	f.mgr.SyncAllLoaded(v)
	assert.Equal(t, 50.0, vh.X)

	_, err = f.mgr.Unload(vh)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestUnload_Validation(t *testing.T) {
	t.Run("orphaned", func(t *testing.T) {
		f := newFixture()
		vh := f.vehicles.Create(Cart, "Cart")
		vh.ParentVessel = 7
		vh.State = OnVessel

		_, err := f.mgr.Unload(vh)
		assert.ErrorIs(t, err, ErrOrphaned)
		assert.Equal(t, "Error: Parent vessel not found. Vehicle state reset.", Reason(err))
		assert.Zero(t, vh.ParentVessel)
		assert.Equal(t, Idle, vh.State)
		assert.Equal(t, []int{vh.ID}, f.store.saved)
	})

	t.Run("moving", func(t *testing.T) {
		f := newFixture()
		v := f.launch(t, vessel.Ship, "Wanderer")
		vh := f.vehicles.Create(Cart, "Cart")
		require.NoError(t, f.mgr.Load(vh, v))
		v.Speed = 3

		_, err := f.mgr.Unload(vh)
		assert.ErrorIs(t, err, ErrVesselMoving)
		assert.Equal(t, v.ID, vh.ParentVessel)
	})

	t.Run("terrain", func(t *testing.T) {
		f := newFixture()
		v := f.launch(t, vessel.Ship, "Wanderer")
		v.Rooms[1].Sector = terrain.WaterSwim
		vh := f.vehicles.Create(Carriage, "Coach")
		require.NoError(t, f.mgr.Load(vh, v))

		_, err := f.mgr.Unload(vh)
		assert.ErrorIs(t, err, ErrTerrain)
		assert.Equal(t, "The terrain here is not suitable for Coach.", Reason(err))
		assert.Equal(t, v.ID, vh.ParentVessel)
	})

	t.Run("no compartments", func(t *testing.T) {
		f := newFixture()
		v := f.launch(t, vessel.Ship, "Wanderer")
		vh := f.vehicles.Create(Cart, "Cart")
		require.NoError(t, f.mgr.Load(vh, v))
		v.ResetInterior()

		_, err := f.mgr.Unload(vh)
		assert.ErrorIs(t, err, ErrNoUnloadRoom)
	})
}

func TestSyncWithVessel_OnlyParent(t *testing.T) {
	f := newFixture()
	v := f.launch(t, vessel.Ship, "Wanderer")
	other := f.launch(t, vessel.Ship, "Other")
	vh := f.vehicles.Create(Cart, "Cart")
	vh.X, vh.Y = 1, 2

	f.mgr.SyncWithVessel(vh, v)
	assert.Equal(t, 1.0, vh.X)

	require.NoError(t, f.mgr.Load(vh, v))
	other.SetPosition(99, 99, 0)
	f.mgr.SyncWithVessel(vh, other)
	assert.Equal(t, v.X, vh.X)
	assert.Equal(t, v.Y, vh.Y)
}
