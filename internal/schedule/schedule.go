// Package schedule departs vessels on their routes at fixed in-world hours.
package schedule

import (
	"errors"
	"log/slog"
	"slices"
)

const (
	HoursPerDay = 24
	IntervalMin = 1
	IntervalMax = 24
)

var (
	ErrBadInterval = errors.New("interval must be between 1 and 24 hours")
	ErrNoSchedule  = errors.New("vessel has no schedule")
)

// Clock reports in-world time.
type Clock interface {
	// Hour is the hour of day, 0 to 23.
	Hour() int
	// Hours counts in-world hours since the epoch.
	Hours() int64
}

// Starter engages a vessel's autopilot on a route.
type Starter interface {
	StartRoute(vesselID, routeID int) error
}

// Store persists schedules.
type Store interface {
	SaveSchedule(s Schedule) error
	DeleteSchedule(vesselID int) error
}

// Schedule is one vessel's recurring departure.
type Schedule struct {
	ID            int
	VesselID      int
	RouteID       int
	IntervalHours int
	NextDeparture int
	Enabled       bool
	Paused        bool

	firedAt int64
}

// Due reports whether the schedule departs at hour.
func (s *Schedule) Due(hour int) bool {
	return s.Enabled && !s.Paused && s.NextDeparture == hour
}

// NextDeparture is the hour of day interval hours after hour.
func NextDeparture(hour, interval int) int {
	return (hour + interval) % HoursPerDay
}

// Trigger holds every vessel schedule and fires them on the hour.
type Trigger struct {
	schedules map[int]*Schedule
	nextID    int
	starter   Starter
	store     Store
	log       *slog.Logger
}

// NewTrigger creates a trigger. store may be nil.
func NewTrigger(starter Starter, store Store, log *slog.Logger) *Trigger {
	if log == nil {
		log = slog.Default()
	}
	return &Trigger{
		schedules: make(map[int]*Schedule),
		nextID:    1,
		starter:   starter,
		store:     store,
		log:       log.With("component", "schedule"),
	}
}

func (t *Trigger) save(s *Schedule) {
	if t.store == nil {
		return
	}
	if err := t.store.SaveSchedule(*s); err != nil {
		t.log.Error("Failed to save schedule", "vessel", s.VesselID, "error", err)
	}
}

// Set gives a vessel a schedule departing every interval hours, the first
// departure falling interval hours after hour. An existing schedule is replaced.
func (t *Trigger) Set(vesselID, routeID, interval, hour int) (Schedule, error) {
	if interval < IntervalMin || interval > IntervalMax {
		return Schedule{}, ErrBadInterval
	}
	s, ok := t.schedules[vesselID]
	if !ok {
		s = &Schedule{ID: t.nextID, VesselID: vesselID, firedAt: -1}
		t.nextID++
		t.schedules[vesselID] = s
	}
	s.RouteID = routeID
	s.IntervalHours = interval
	s.NextDeparture = NextDeparture(hour, interval)
	s.Enabled = true
	s.Paused = false
	t.save(s)
	return *s, nil
}

// Clear removes a vessel's schedule.
func (t *Trigger) Clear(vesselID int) error {
	if _, ok := t.schedules[vesselID]; !ok {
		return ErrNoSchedule
	}
	delete(t.schedules, vesselID)
	if t.store != nil {
		if err := t.store.DeleteSchedule(vesselID); err != nil {
			t.log.Error("Failed to delete schedule", "vessel", vesselID, "error", err)
		}
	}
	return nil
}

func (t *Trigger) Get(vesselID int) (Schedule, bool) {
	s, ok := t.schedules[vesselID]
	if !ok {
		return Schedule{}, false
	}
	return *s, true
}

func (t *Trigger) Pause(vesselID int) error   { return t.setPaused(vesselID, true) }
func (t *Trigger) Unpause(vesselID int) error { return t.setPaused(vesselID, false) }

func (t *Trigger) setPaused(vesselID int, paused bool) error {
	s, ok := t.schedules[vesselID]
	if !ok {
		return ErrNoSchedule
	}
	s.Paused = paused
	t.save(s)
	return nil
}

// All lists schedules ordered by vessel id.
func (t *Trigger) All() []Schedule {
	out := make([]Schedule, 0, len(t.schedules))
	for _, s := range t.schedules {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b Schedule) int { return a.VesselID - b.VesselID })
	return out
}

// Load replaces the schedules with persisted ones.
func (t *Trigger) Load(list []Schedule) {
	t.schedules = make(map[int]*Schedule, len(list))
	t.nextID = 1
	for _, s := range list {
		s.firedAt = -1
		t.schedules[s.VesselID] = &s
		t.nextID = max(t.nextID, s.ID+1)
	}
}

// Tick fires every due schedule at most once per in-world hour.
func (t *Trigger) Tick(clock Clock) int {
	hour, abs := clock.Hour(), clock.Hours()
	fired := 0
	for _, sched := range t.All() {
		s := t.schedules[sched.VesselID]
		if !s.Due(hour) || s.firedAt == abs {
			continue
		}
		s.firedAt = abs
		fired++
		if err := t.starter.StartRoute(s.VesselID, s.RouteID); err != nil {
			t.log.Warn("Scheduled departure failed", "vessel", s.VesselID, "route", s.RouteID, "error", err)
		} else {
			t.log.Info("Scheduled departure", "vessel", s.VesselID, "route", s.RouteID, "hour", hour)
		}
		s.NextDeparture = NextDeparture(hour, s.IntervalHours)
		t.save(s)
	}
	return fired
}
