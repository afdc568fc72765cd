package transport

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/OCAP2/vessels/internal/terrain"
	"github.com/OCAP2/vessels/internal/vessel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPassenger(id int) *Passenger {
	return &Passenger{ID: id, Aboard: vessel.RoomRef{Vessel: vessel.NoVessel, Room: vessel.NoRoom}}
}

func TestLandVehicle_EnterGoExit(t *testing.T) {
	store := &fakeStore{}
	cart := New(4, Cart, "Red Cart")
	var tr Transport = &LandVehicle{V: cart, Terrain: terrain.Uniform(terrain.Road), Store: store}
	p := newPassenger(1)

	assert.Equal(t, KindVehicle, tr.Kind())
	assert.Equal(t, "Red Cart", tr.Name())

	_, err := tr.Go(p, vessel.North)
	assert.Equal(t, "You need to be in a transport to use this command.", Reason(err))

	msg, err := tr.Enter(p)
	require.NoError(t, err)
	assert.Equal(t, "You climb onto Red Cart.", msg)
	assert.Equal(t, 4, p.Vehicle)
	assert.Equal(t, 1, cart.Passengers)

	_, err = tr.Enter(p)
	assert.ErrorIs(t, err, ErrAlreadyRiding)

	msg, err = tr.Go(p, vessel.Northeast)
	require.NoError(t, err)
	assert.Equal(t, "You drive the cart northeast.\nCurrent position: (1, 1)", msg)

	status := tr.Status(p)
	assert.Contains(t, status, "=== Transport Status (Vehicle) ===")
	assert.Contains(t, status, "Passengers: 1 / 2")
	assert.Contains(t, status, "The cart is in good condition.")
	assert.Contains(t, status, "You are currently riding this cart.")

	msg, err = tr.Exit(p)
	require.NoError(t, err)
	assert.Equal(t, "You dismount from Red Cart.", msg)
	assert.Zero(t, p.Vehicle)
	assert.NotEmpty(t, store.saved)

	_, err = tr.Exit(p)
	assert.ErrorIs(t, err, ErrNotRiding)
}

func TestLandVehicle_SaveFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	store := &fakeStore{err: errors.New("disk full")}
	cart := New(4, Cart, "Red Cart")
	tr := &LandVehicle{V: cart, Terrain: terrain.Uniform(terrain.Road), Store: store,
		Log: slog.New(slog.NewTextHandler(&buf, nil))}
	p := newPassenger(1)

	_, err := tr.Enter(p)
	require.NoError(t, err)
	_, err = tr.Go(p, vessel.North)
	require.NoError(t, err, "a failed save does not undo the move")

	assert.NotEmpty(t, store.saved)
	assert.Contains(t, buf.String(), "Failed to save vehicle")
	assert.Contains(t, buf.String(), "vehicle=4")
	assert.Contains(t, buf.String(), "disk full")
}

func TestLandVehicle_Refusals(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		horse := New(1, Mount, "Horse")
		tr := &LandVehicle{V: horse, Terrain: terrain.Uniform(terrain.Road)}
		_, err := tr.Enter(newPassenger(1))
		require.NoError(t, err)
		_, err = tr.Enter(newPassenger(2))
		assert.Equal(t, "The mount is full. There is no room for you.", Reason(err))
	})

	t.Run("damaged", func(t *testing.T) {
		cart := New(1, Cart, "Cart")
		cart.Damage(100)
		tr := &LandVehicle{V: cart, Terrain: terrain.Uniform(terrain.Road)}
		_, err := tr.Enter(newPassenger(1))
		assert.Equal(t, "That cart is too damaged to use.", Reason(err))
	})

	t.Run("impassable", func(t *testing.T) {
		cart := New(1, Cart, "Cart")
		tr := &LandVehicle{V: cart, Terrain: terrain.Uniform(terrain.Ocean)}
		p := newPassenger(1)
		_, err := tr.Enter(p)
		require.NoError(t, err)
		_, err = tr.Go(p, vessel.West)
		assert.Equal(t, "The cart cannot travel west from here.", Reason(err))
	})
}

func TestVesselTransport_Go(t *testing.T) {
	reg := vessel.NewRegistry(5)
	a, err := reg.Load(vessel.DefaultTemplate(vessel.Ship), "Alpha", "", 0, 0, 0)
	require.NoError(t, err)
	b, err := reg.Load(vessel.DefaultTemplate(vessel.Ship), "Bravo", "", 0, 0, 0)
	require.NoError(t, err)

	a.Rooms = []vessel.Compartment{{Index: 0, Name: "Bridge"}, {Index: 1, Name: "Hold"}}
	b.Rooms = []vessel.Compartment{{Index: 0, Name: "Bravo Deck"}}
	require.NoError(t, a.AddConnection(vessel.Connection{From: a.Ref(0), To: a.Ref(1), Dir: vessel.North, Hatch: true}))
	gangway := vessel.Connection{From: a.Ref(1), To: b.Ref(0), Dir: vessel.East}
	require.NoError(t, a.AddConnection(gangway))
	require.NoError(t, b.AddConnection(gangway))

	var tr Transport = &VesselTransport{V: a, Registry: reg}
	p := &Passenger{ID: 1, Aboard: a.Ref(0)}

	assert.Equal(t, KindVessel, tr.Kind())

	msg, err := tr.Go(p, vessel.North)
	require.NoError(t, err)
	assert.Equal(t, "You go north.\nHold", msg)
	assert.Equal(t, a.Ref(1), p.Aboard)

	_, err = tr.Go(p, vessel.West)
	assert.Equal(t, "You can't go that way.", Reason(err))

	msg, err = tr.Go(p, vessel.East)
	require.NoError(t, err)
	assert.Equal(t, "You cross the gangway onto Bravo.\nBravo Deck", msg)
	assert.Equal(t, b.Ref(0), p.Aboard)

	_, err = tr.Go(p, vessel.West)
	assert.ErrorIs(t, err, ErrNotRiding)

	a.Connections[0].Locked = true
	p.Aboard = a.Ref(1)
	_, err = tr.Go(p, vessel.South)
	assert.Equal(t, "That way is blocked!", Reason(err))
}

func TestVesselTransport_EnterExitStatus(t *testing.T) {
	reg := vessel.NewRegistry(5)
	v, err := reg.Load(vessel.DefaultTemplate(vessel.Warship), "Thunder", "Mira", 1, 2, 3)
	require.NoError(t, err)
	tr := &VesselTransport{V: v, Registry: reg}

	_, err = tr.Enter(newPassenger(1))
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Contains(t, Reason(err), "Vessel: Thunder")
	_, err = tr.Exit(newPassenger(1))
	assert.ErrorIs(t, err, ErrUnsupported)

	p := &Passenger{ID: 1, Aboard: v.Ref(0)}
	status := tr.Status(p)
	assert.Contains(t, status, "=== Transport Status (Vessel) ===")
	assert.Contains(t, status, "ID: "+v.ShortID)
	assert.Contains(t, status, "Owner: Mira")
	assert.Contains(t, status, "Position: (1.0, 2.0, 3.0)")
	assert.Contains(t, status, "Docked: No")
	assert.Contains(t, status, "You are currently aboard this vessel.")
	assert.NotContains(t, tr.Status(newPassenger(2)), "currently aboard")
}
