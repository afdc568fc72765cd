package vessel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OCAP2/vessels/internal/geo"
	"github.com/google/uuid"
)

var (
	ErrRegistryFull = errors.New("vessel registry is full")
	ErrNameInUse    = errors.New("a vessel with that name already exists")
	ErrNotFound     = errors.New("vessel not found")
	ErrSlotInUse    = errors.New("vessel id already in use")
)

// Registry is the fixed-capacity table of live vessels. Iteration follows
// slot order. It is not safe for concurrent use; the engine loop owns it.
type Registry struct {
	slots []*Vessel
	count int
}

// NewRegistry creates a registry with room for capacity vessels.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = 500
	}
	return &Registry{slots: make([]*Vessel, capacity)}
}

// Cap is the number of slots.
func (r *Registry) Cap() int { return len(r.slots) }

// Len is the number of live vessels.
func (r *Registry) Len() int { return r.count }

// Load places a new vessel built from tmpl in the first free slot.
// The vessel id is its slot index plus one.
func (r *Registry) Load(tmpl Template, name, owner string, x, y, z float64) (*Vessel, error) {
	for i, s := range r.slots {
		if s == nil {
			return r.place(i, tmpl, name, owner, x, y, z)
		}
	}
	return nil, ErrRegistryFull
}

// LoadWithID restores a vessel into the slot matching a previously issued id.
func (r *Registry) LoadWithID(id int, tmpl Template, name, owner string, x, y, z float64) (*Vessel, error) {
	if id < 1 || id > len(r.slots) {
		return nil, fmt.Errorf("vessel id %d out of range: %w", id, ErrRegistryFull)
	}
	if r.slots[id-1] != nil {
		return nil, ErrSlotInUse
	}
	return r.place(id-1, tmpl, name, owner, x, y, z)
}

func (r *Registry) place(slot int, tmpl Template, name, owner string, x, y, z float64) (*Vessel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = tmpl.Name
	}
	if name == "" {
		return nil, errors.New("vessel name is required")
	}
	for _, s := range r.slots {
		if s != nil && strings.EqualFold(s.Name, name) {
			return nil, ErrNameInUse
		}
	}

	v := tmpl.build()
	v.ID = slot + 1
	v.ShortID = strings.ToUpper(uuid.NewString()[:8])
	v.Name = name
	v.Owner = owner
	v.SetPosition(x, y, z)

	r.slots[slot] = v
	r.count++
	return v, nil
}

// Get returns the vessel with the given id.
func (r *Registry) Get(id int) (*Vessel, bool) {
	if id < 1 || id > len(r.slots) {
		return nil, false
	}
	v := r.slots[id-1]
	return v, v != nil
}

// FindByName finds a vessel by exact name, falling back to the first prefix match in slot order.
func (r *Registry) FindByName(name string) (*Vessel, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	for _, v := range r.slots {
		if v != nil && strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	for _, v := range r.slots {
		if v != nil && v.matches(name) {
			return v, true
		}
	}
	return nil, false
}

// Each calls fn for every live vessel in slot order.
func (r *Registry) Each(fn func(*Vessel)) {
	for _, v := range r.slots {
		if v != nil {
			fn(v)
		}
	}
}

// Vessels returns the live vessels in slot order.
func (r *Registry) Vessels() []*Vessel {
	out := make([]*Vessel, 0, r.count)
	r.Each(func(v *Vessel) { out = append(out, v) })
	return out
}

// Near lists other vessels within rng of v, in slot order.
func (r *Registry) Near(v *Vessel, rng float64) []*Vessel {
	var out []*Vessel
	pos := v.Position()
	r.Each(func(o *Vessel) {
		if o.ID != v.ID && geo.Range(pos, o.Position()) <= rng {
			out = append(out, o)
		}
	})
	return out
}

// Remove sinks a vessel. Any docking link is severed on the partner's side
// as well. The removed vessel is returned with its docking fields intact so
// callers can close out records.
func (r *Registry) Remove(id int) (*Vessel, error) {
	v, ok := r.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if v.IsDocked() {
		if partner, ok := r.Get(v.DockedTo); ok && partner.DockedTo == v.ID {
			partner.RemoveDockingConnections(v.ID)
			partner.ClearDocking()
		}
	}
	r.slots[id-1] = nil
	r.count--
	return v, nil
}
