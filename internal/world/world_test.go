package world

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/vessels/internal/autopilot"
	"github.com/OCAP2/vessels/internal/docking"
	"github.com/OCAP2/vessels/internal/storage/memory"
	"github.com/OCAP2/vessels/internal/telemetry"
	"github.com/OCAP2/vessels/internal/transport"
	"github.com/OCAP2/vessels/internal/vessel"
)

type recordingSink struct {
	batches [][]telemetry.Sample
	err     error
}

func (r *recordingSink) Publish(_ context.Context, s []telemetry.Sample) error {
	r.batches = append(r.batches, s)
	return r.err
}
func (r *recordingSink) Close() error { return nil }

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newWorld(t *testing.T, store *memory.Backend, mutate ...func(*Deps)) *State {
	t.Helper()
	deps := Deps{
		Config: DefaultConfig(),
		Rand:   rand.New(rand.NewSource(1)),
		Now:    func() time.Time { return fixedNow },
	}
	if store != nil {
		deps.Storage = store
	}
	for _, m := range mutate {
		m(&deps)
	}
	w, err := New(deps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestClock(t *testing.T) {
	tests := []struct {
		name         string
		ticksPerHour int
		startHour    int
		ticks        int
		wantHour     int
		wantHours    int64
	}{
		{"one pulse per hour", 1, 0, 5, 5, 5},
		{"four pulses per hour", 4, 0, 9, 2, 2},
		{"wraps past midnight", 1, 22, 3, 1, 25},
		{"zero rate treated as one", 0, 0, 2, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClock(tt.ticksPerHour, tt.startHour)
			for range tt.ticks {
				c.Advance()
			}
			assert.Equal(t, int64(tt.ticks), c.Tick())
			assert.Equal(t, tt.wantHour, c.Hour())
			assert.Equal(t, tt.wantHours, c.Hours())
		})
	}
}

func TestState_Template(t *testing.T) {
	w := newWorld(t, nil, func(d *Deps) {
		d.Templates = map[string]vessel.Template{"Cutter": {Key: "cutter", Class: vessel.Boat, MaxSpeed: 5}}
	})

	tmpl, err := w.Template("CUTTER")
	require.NoError(t, err)
	assert.Equal(t, vessel.Boat, tmpl.Class)

	tmpl, err = w.Template("warship")
	require.NoError(t, err)
	assert.Equal(t, vessel.Warship, tmpl.Class)

	_, err = w.Template("dragon")
	assert.ErrorIs(t, err, ErrUnknownTemplate)

	_, err = w.LoadShip("dragon", "Smaug", "me", 0, 0, 0)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
	assert.Zero(t, w.Registry.Len())
}

func TestState_LoadShipGeneratesAndRestores(t *testing.T) {
	store := memory.New(memory.Config{})
	w1 := newWorld(t, store)

	v, err := w1.LoadShip("ship", "Sea Wolf", "captain", 10, 20, 0)
	require.NoError(t, err)
	require.True(t, v.HasInterior())
	assert.Equal(t, 1, v.ID)
	require.NoError(t, v.AssignCrew(vessel.CrewMember{NpcID: 5, Name: "Bosun", Role: "crew", Room: v.Bridge}))
	require.NoError(t, w1.SaveAll(context.Background()))

	names := func(v *vessel.Vessel) []string {
		var out []string
		for _, r := range v.Rooms {
			out = append(out, r.Name)
		}
		return out
	}

	// a fresh world with a different seed restores rather than regenerates
	w2 := newWorld(t, store, func(d *Deps) { d.Rand = rand.New(rand.NewSource(99)) })
	v2, err := w2.LoadShip("ship", "Sea Wolf", "captain", 30, 40, 0)
	require.NoError(t, err)
	assert.Equal(t, names(v), names(v2))
	assert.Equal(t, v.Bridge, v2.Bridge)
	assert.Len(t, v2.Connections, len(v.Connections))
	assert.Equal(t, 30, v2.Rooms[0].X)
	require.Len(t, v2.Crew, 1)
	assert.Equal(t, "Bosun", v2.Crew[0].Name)
}

func TestState_LoadShipRegistryFull(t *testing.T) {
	w := newWorld(t, nil, func(d *Deps) { d.Config.Capacity = 1 })
	_, err := w.LoadShip("boat", "One", "", 0, 0, 0)
	require.NoError(t, err)
	_, err = w.LoadShip("boat", "Two", "", 0, 0, 0)
	assert.ErrorIs(t, err, vessel.ErrRegistryFull)
}

func TestState_ActorsAndMessages(t *testing.T) {
	w := newWorld(t, nil)
	v, err := w.LoadShip("ship", "Gull", "", 0, 0, 0)
	require.NoError(t, err)

	a, err := w.AddActor(Actor{Passenger: transport.Passenger{ID: 1, Aboard: v.Ref(v.Bridge)}, Name: "Ann"})
	require.NoError(t, err)
	_, err = w.AddActor(Actor{Passenger: transport.Passenger{ID: 1}})
	assert.ErrorIs(t, err, ErrActorExists)
	b, err := w.AddActor(Actor{Passenger: transport.Passenger{ID: 2}, Name: "Ben"})
	require.NoError(t, err)
	assert.Equal(t, Ashore, b.Aboard)

	w.SendToVessel(v, "All hands!")
	assert.Equal(t, []string{"All hands!"}, w.Messages(a.ID))
	assert.Empty(t, w.Messages(a.ID), "outbox is drained")
	assert.Empty(t, w.Messages(b.ID))
	assert.Nil(t, w.Messages(42))

	assert.Equal(t, []int{1}, w.Occupants(v.Ref(v.Bridge)))
	w.MoveTo(2, v.Ref(v.Bridge))
	assert.Equal(t, []int{1, 2}, w.Occupants(v.Ref(v.Bridge)))

	_, _ = w.AddActor(Actor{Passenger: transport.Passenger{ID: 7}, Name: "Old Pete", NPC: true})
	assert.True(t, w.IsValidPilot(7))
	assert.False(t, w.IsValidPilot(1))
	assert.Equal(t, "Old Pete", w.NPCName(7))
}

func TestState_TransportFor(t *testing.T) {
	w := newWorld(t, nil)
	v, err := w.LoadShip("ship", "Gull", "", 0, 0, 0)
	require.NoError(t, err)
	cart := w.Vehicles.Create(transport.Cart, "old cart")

	tests := []struct {
		name     string
		actor    Actor
		wantKind transport.Kind
		wantErr  error
	}{
		{"ashore", Actor{Passenger: transport.Passenger{ID: 1, Aboard: Ashore}}, 0, ErrNoTransport},
		{"aboard vessel", Actor{Passenger: transport.Passenger{ID: 2, Aboard: v.Ref(0)}}, transport.KindVessel, nil},
		{"riding", Actor{Passenger: transport.Passenger{ID: 3, Aboard: Ashore, Vehicle: cart.ID}}, transport.KindVehicle, nil},
		{"missing vehicle", Actor{Passenger: transport.Passenger{ID: 4, Aboard: Ashore, Vehicle: 99}}, 0, ErrNoTransport},
		{"missing vessel", Actor{Passenger: transport.Passenger{ID: 5, Aboard: vessel.RoomRef{Vessel: 77}}}, 0, ErrNoTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.actor
			tr, err := w.TransportFor(&a)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, a.Vehicle, "stale vehicle reference cleared")
				assert.False(t, a.AboardVessel(), "stale vessel reference cleared")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, tr.Kind())
		})
	}
}

func addRoute(t *testing.T, w *State, vesselID int, loop bool, points ...[2]float64) *autopilot.Route {
	t.Helper()
	r, err := w.Navigator.CreateRoute(vesselID, "patrol", loop)
	require.NoError(t, err)
	for _, p := range points {
		wp, err := w.Navigator.CreateWaypoint(autopilot.Waypoint{Name: "wp", X: p[0], Y: p[1], Tolerance: 0.5})
		require.NoError(t, err)
		_, err = w.Navigator.AddToRoute(r.ID, wp.ID)
		require.NoError(t, err)
	}
	return r
}

func TestState_TickMovesVesselAndCargo(t *testing.T) {
	w := newWorld(t, nil)
	v, err := w.LoadShip("transport", "Hauler", "", 0, 0, 0)
	require.NoError(t, err)

	wagon := w.Vehicles.Create(transport.Wagon, "wagon")
	require.NoError(t, w.Transport.Load(wagon, v))

	r := addRoute(t, w, v.ID, false, [2]float64{10, 0})
	require.NoError(t, w.StartRoute(v.ID, r.ID))

	for range 3 {
		w.Tick(context.Background())
	}
	assert.InDelta(t, 3.0, v.X, 1e-9)
	assert.Equal(t, v.X, wagon.X, "carried vehicles follow the vessel")
	assert.Equal(t, int64(3), w.Clock.Tick())

	assert.ErrorIs(t, w.StartRoute(v.ID, 999), autopilot.ErrRouteNotFound)
}

func TestState_ScheduleDepartsOnTheHour(t *testing.T) {
	w := newWorld(t, nil)
	v, err := w.LoadShip("ship", "Ferry", "", 0, 0, 0)
	require.NoError(t, err)
	r := addRoute(t, w, v.ID, true, [2]float64{20, 0}, [2]float64{0, 0})

	_, err = w.Schedule.Set(v.ID, r.ID, 2, w.Clock.Hour())
	require.NoError(t, err)

	w.Tick(context.Background())
	ap, ok := w.Autopilot.Get(v.ID)
	assert.False(t, ok && ap.Engaged())

	w.Tick(context.Background()) // hour 2, departs
	ap, ok = w.Autopilot.Get(v.ID)
	require.True(t, ok)
	assert.Equal(t, autopilot.Traveling, ap.State)
	assert.Zero(t, v.X, "the autopilot moves from the next pulse")

	w.Tick(context.Background())
	assert.InDelta(t, 1.0, v.X, 1e-9)

	s, _ := w.Schedule.Get(v.ID)
	assert.Equal(t, 4, s.NextDeparture)
}

func TestState_DockingPausesAutopilot(t *testing.T) {
	w := newWorld(t, nil)
	a, err := w.LoadShip("ship", "Alpha", "", 0, 0, 0)
	require.NoError(t, err)
	b, err := w.LoadShip("ship", "Bravo", "", 1, 0, 0)
	require.NoError(t, err)

	r := addRoute(t, w, a.ID, false, [2]float64{50, 0})
	require.NoError(t, w.StartRoute(a.ID, r.ID))
	require.NoError(t, w.Docking.Initiate(a, b))

	ap, _ := w.Autopilot.Get(a.ID)
	assert.Equal(t, autopilot.Paused, ap.State)
	assert.ErrorIs(t, w.Autopilot.Resume(a), autopilot.ErrDocked)

	// deleting the route stops the paused autopilot
	require.NoError(t, w.DeleteRoute(r.ID))
	assert.Equal(t, autopilot.Off, ap.State)
}

func TestState_SinkShip(t *testing.T) {
	store := memory.New(memory.Config{})
	w := newWorld(t, store)

	a, err := w.LoadShip("ship", "Alpha", "", 0, 0, 0)
	require.NoError(t, err)
	b, err := w.LoadShip("ship", "Bravo", "", 1, 0, 0)
	require.NoError(t, err)
	require.NoError(t, w.Docking.Initiate(a, b))

	cart := w.Vehicles.Create(transport.Cart, "cart")
	require.NoError(t, w.Transport.Load(cart, b))
	_, err = w.Schedule.Set(b.ID, 1, 6, 0)
	require.NoError(t, err)
	sailor, err := w.AddActor(Actor{Passenger: transport.Passenger{ID: 1, Aboard: b.Ref(0)}, Name: "Sailor"})
	require.NoError(t, err)
	w.Messages(sailor.ID)

	require.NoError(t, w.SinkShip(b.ID))

	_, ok := w.Registry.Get(b.ID)
	assert.False(t, ok)
	assert.False(t, a.IsDocked(), "partner is released")
	_, ok = w.Schedule.Get(b.ID)
	assert.False(t, ok)
	assert.Zero(t, cart.ParentVessel)
	assert.Equal(t, transport.Idle, cart.State)
	assert.Equal(t, Ashore, sailor.Aboard)
	assert.Len(t, w.Messages(sailor.ID), 1)

	docks := store.Docks()
	require.Len(t, docks, 1)
	assert.Equal(t, docking.StatusCompleted, docks[0].Status)

	assert.ErrorIs(t, w.SinkShip(b.ID), vessel.ErrNotFound)
}

func TestState_SinkThenReloadSlot(t *testing.T) {
	store := memory.New(memory.Config{})
	w := newWorld(t, store)

	iron, err := w.LoadShip("transport", "Ironclad", "", 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, iron.AddCargo(vessel.CargoItem{Room: vessel.NoRoom, ItemID: 9, Name: "powder", Count: 3}))
	require.NoError(t, iron.AssignCrew(vessel.CrewMember{NpcID: 5, Name: "Gunner", Role: "crew", Room: iron.Bridge}))
	require.NoError(t, w.SaveAll(context.Background()))
	id := iron.ID

	require.NoError(t, w.SinkShip(id))
	_, ok, err := store.LoadInterior(id)
	require.NoError(t, err)
	assert.False(t, ok, "sunk vessel's interior is deleted")

	raft, err := w.LoadShip("raft", "Driftwood", "", 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, id, raft.ID, "slot is reused")
	assert.LessOrEqual(t, len(raft.Rooms), vessel.Raft.MaxRooms())
	assert.NotContains(t, raft.Rooms[raft.Bridge].Name, "Ironclad")
	assert.Empty(t, raft.Cargo)
	assert.Empty(t, raft.Crew)

	in, ok, err := store.LoadInterior(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Raft", in.Class)
	assert.Equal(t, "Driftwood", in.Name)
}

func TestState_LoadShipIgnoresForeignInterior(t *testing.T) {
	store := memory.New(memory.Config{})
	w1 := newWorld(t, store)
	_, err := w1.LoadShip("warship", "Ironclad", "", 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, w1.SaveAll(context.Background()))

	// a later session launches a different vessel into slot 1
	w2 := newWorld(t, store)
	raft, err := w2.LoadShip("raft", "Driftwood", "", 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, raft.ID)
	assert.LessOrEqual(t, len(raft.Rooms), vessel.Raft.MaxRooms())
	assert.NotContains(t, raft.Rooms[raft.Bridge].Name, "Ironclad")
}

func TestState_PilotSurvivesReload(t *testing.T) {
	store := memory.New(memory.Config{})
	w1 := newWorld(t, store)
	v, err := w1.LoadShip("ship", "Sea Wolf", "", 0, 0, 0)
	require.NoError(t, err)
	_, err = w1.AddActor(Actor{Passenger: transport.Passenger{ID: 42, Aboard: v.Ref(v.Bridge)}, Name: "Helmsman", NPC: true})
	require.NoError(t, err)

	require.NoError(t, w1.AssignPilot(v.ID, 42))
	crew, err := store.LoadCrew(v.ID)
	require.NoError(t, err)
	require.Len(t, crew, 1, "roster is saved on assignment")
	assert.Equal(t, autopilot.RolePilot, crew[0].Role)

	w2 := newWorld(t, store)
	require.NoError(t, w2.LoadAll(context.Background()))
	v2, err := w2.LoadShip("ship", "Sea Wolf", "", 0, 0, 0)
	require.NoError(t, err)
	_, err = w2.AddActor(Actor{Passenger: transport.Passenger{ID: 42, Aboard: v2.Ref(v2.Bridge)}, Name: "Helmsman", NPC: true})
	require.NoError(t, err)

	assert.Equal(t, 42, w2.Autopilot.For(v2.ID).PilotID)
	assert.ErrorIs(t, w2.AssignPilot(v2.ID, 42), autopilot.ErrPilotAssigned)

	npc, err := w2.UnassignPilot(v2.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, npc)
	crew, err = store.LoadCrew(v2.ID)
	require.NoError(t, err)
	assert.Empty(t, crew, "roster is saved on relief")

	require.NoError(t, w2.AssignPilot(v2.ID, 42))
}

func TestState_TelemetryCadence(t *testing.T) {
	sink := &recordingSink{err: errors.New("influx down")}
	w := newWorld(t, nil, func(d *Deps) {
		d.Telemetry = sink
		d.Config.TelemetryEveryTicks = 2
	})
	_, err := w.LoadShip("boat", "Skiff", "", 5, 5, 0)
	require.NoError(t, err)

	for range 5 {
		w.Tick(context.Background())
	}
	require.Len(t, sink.batches, 2, "sink errors do not stop publishing")
	smp := sink.batches[1][0]
	assert.Equal(t, "Skiff", smp.Name)
	assert.Equal(t, int64(4), smp.Tick)
	assert.Equal(t, "off", smp.Autopilot)
	assert.Equal(t, fixedNow, smp.Time)
}

func TestState_LoadAll(t *testing.T) {
	store := memory.New(memory.Config{})
	require.NoError(t, store.RecordDock(docking.Record{Ref: "stale", Ship1: 1, Ship2: 2, Status: docking.StatusActive, DockedAt: fixedNow}))
	require.NoError(t, store.SaveWaypoint(autopilot.Waypoint{ID: 3, Name: "Harbor", X: 4}))
	require.NoError(t, store.SaveRoute(&autopilot.Route{ID: 2, Name: "run", Waypoints: []autopilot.Waypoint{{ID: 3, Name: "Harbor", X: 4}}}))
	cart := transport.New(6, transport.Cart, "cart")
	cart.ParentVessel = 1
	cart.State = transport.OnVessel
	require.NoError(t, store.SaveVehicle(cart))

	w := newWorld(t, store)
	require.NoError(t, w.LoadAll(context.Background()))

	docks := store.Docks()
	require.Len(t, docks, 1)
	assert.Equal(t, docking.StatusCompleted, docks[0].Status, "docking state is not carried across restarts")

	r, ok := w.Navigator.Route(2)
	require.True(t, ok)
	require.Len(t, r.Waypoints, 1)
	assert.Equal(t, "Harbor", r.Waypoints[0].Name)

	vh, ok := w.Vehicles.Get(6)
	require.True(t, ok)

	v, err := w.LoadShip("transport", "Hauler", "", 12, 13, 0)
	require.NoError(t, err)
	assert.Equal(t, v.X, vh.X, "vehicles aboard sync when their vessel loads")
	assert.Equal(t, v.Y, vh.Y)
}

func TestState_WithoutStorage(t *testing.T) {
	w := newWorld(t, nil)
	assert.Nil(t, w.Storage())
	assert.NoError(t, w.LoadAll(context.Background()))
	assert.NoError(t, w.SaveAll(context.Background()))

	attrs := w.ContextAttrs()
	require.Len(t, attrs, 2)
	assert.Equal(t, "tick", attrs[0].Key)
}
