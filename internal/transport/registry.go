package transport

import (
	"sort"
	"strings"
)

// Vehicles indexes every live vehicle by id.
type Vehicles struct {
	byID   map[int]*Vehicle
	nextID int
}

func NewVehicles() *Vehicles {
	return &Vehicles{byID: make(map[int]*Vehicle), nextID: 1}
}

// Create builds and registers a new vehicle.
func (r *Vehicles) Create(t Type, name string) *Vehicle {
	v := New(0, t, name)
	r.Add(v)
	return v
}

// Add registers v, assigning an id when it has none.
func (r *Vehicles) Add(v *Vehicle) {
	if v.ID <= 0 {
		v.ID = r.nextID
	}
	if v.ID >= r.nextID {
		r.nextID = v.ID + 1
	}
	r.byID[v.ID] = v
}

func (r *Vehicles) Get(id int) (*Vehicle, bool) {
	v, ok := r.byID[id]
	return v, ok
}

func (r *Vehicles) Remove(id int) {
	delete(r.byID, id)
}

func (r *Vehicles) Len() int { return len(r.byID) }

// All returns every vehicle ordered by id.
func (r *Vehicles) All() []*Vehicle {
	return r.filter(func(*Vehicle) bool { return true })
}

// LoadedOn returns the vehicles carried by vessel id, ordered by id.
func (r *Vehicles) LoadedOn(vesselID int) []*Vehicle {
	return r.filter(func(v *Vehicle) bool { return v.ParentVessel == vesselID })
}

// InRoom returns the vehicles standing in world room vnum.
func (r *Vehicles) InRoom(room int) []*Vehicle {
	return r.filter(func(v *Vehicle) bool { return v.ParentVessel == 0 && v.Room == room })
}

// FindByName matches a vehicle name case-insensitively, exact first then by prefix.
func (r *Vehicles) FindByName(name string) (*Vehicle, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, false
	}
	all := r.All()
	for _, v := range all {
		if strings.ToLower(v.Name) == name {
			return v, true
		}
	}
	for _, v := range all {
		if strings.HasPrefix(strings.ToLower(v.Name), name) {
			return v, true
		}
	}
	return nil, false
}

func (r *Vehicles) filter(keep func(*Vehicle) bool) []*Vehicle {
	out := make([]*Vehicle, 0, len(r.byID))
	for _, v := range r.byID {
		if keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
