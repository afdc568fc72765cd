package vessel

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is the blueprint a vessel is launched from.
type Template struct {
	Key      string          `yaml:"key"`
	Name     string          `yaml:"name"`
	Class    Class           `yaml:"class"`
	Armor    int             `yaml:"armor"`
	MinSpeed int             `yaml:"minSpeed"`
	MaxSpeed int             `yaml:"maxSpeed"`
	Slots    []EquipmentSlot `yaml:"slots"`
	Sailing  CrewRating      `yaml:"sailing"`
	Gunnery  CrewRating      `yaml:"gunnery"`
}

type templateFile struct {
	Templates []Template `yaml:"templates"`
}

var defaultMaxSpeed = map[Class]int{
	Raft: 3, Boat: 5, Ship: 8, Warship: 10, Airship: 15, Submarine: 6, Transport: 6, Magical: 20,
}

// DefaultTemplate is the stock blueprint for a class.
func DefaultTemplate(c Class) Template {
	return Template{
		Key:      strings.ToLower(c.String()),
		Class:    c,
		Armor:    100,
		MinSpeed: -1,
		MaxSpeed: defaultMaxSpeed[c],
		Sailing:  CrewRating{Name: "Green", SpeedAdjust: 0, RepairSpeed: 1},
		Gunnery:  CrewRating{Name: "Green", GunAdjust: 0},
	}
}

// LoadTemplates parses a YAML template list keyed by template key.
func LoadTemplates(r io.Reader) (map[string]Template, error) {
	var f templateFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]Template{}, nil
		}
		return nil, fmt.Errorf("failed to decode vessel templates: %w", err)
	}

	out := make(map[string]Template, len(f.Templates))
	for i, t := range f.Templates {
		if t.Key == "" {
			return nil, fmt.Errorf("template %d has no key", i)
		}
		key := strings.ToLower(t.Key)
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("duplicate template key %q", t.Key)
		}
		if len(t.Slots) > MaxSlots {
			return nil, fmt.Errorf("template %q has %d slots, max %d", t.Key, len(t.Slots), MaxSlots)
		}
		if t.MaxSpeed == 0 {
			t.MaxSpeed = defaultMaxSpeed[t.Class]
		}
		if t.Armor == 0 {
			t.Armor = 100
		}
		t.Key = key
		out[key] = t
	}
	return out, nil
}

func (t Template) build() *Vessel {
	maxSpeed := min(t.MaxSpeed, MaxSpeed)
	minSpeed := t.MinSpeed
	if minSpeed > maxSpeed {
		minSpeed = maxSpeed
	}
	slots := t.Slots
	if len(slots) > MaxSlots {
		slots = slots[:MaxSlots]
	}
	quad := Armor{Current: t.Armor, Max: t.Armor}

	return &Vessel{
		Name:        t.Name,
		Class:       t.Class,
		MinSpeed:    minSpeed,
		MaxSpeed:    maxSpeed,
		Armor:       Quadrants{Fore: quad, Rear: quad, Port: quad, Starboard: quad},
		Slots:       append([]EquipmentSlot(nil), slots...),
		Sailing:     t.Sailing,
		Gunnery:     t.Gunnery,
		DockedTo:    NoVessel,
		DockingRoom: NoRoom,
		Bridge:      NoRoom,
		Entrance:    NoRoom,
	}
}
