package world

import "sync/atomic"

// HoursPerDay matches the schedule trigger's day length.
const HoursPerDay = 24

// Clock counts pulses and derives in-world hours from them. The tick is
// read from logging goroutines, so it is atomic.
type Clock struct {
	tick         atomic.Int64
	ticksPerHour int64
	startHour    int64
}

// NewClock creates a clock at tick zero showing startHour.
func NewClock(ticksPerHour, startHour int) *Clock {
	if ticksPerHour < 1 {
		ticksPerHour = 1
	}
	return &Clock{ticksPerHour: int64(ticksPerHour), startHour: int64(startHour % HoursPerDay)}
}

// Advance moves to the next pulse and returns it.
func (c *Clock) Advance() int64 { return c.tick.Add(1) }

func (c *Clock) Tick() int64 { return c.tick.Load() }

// Hours counts in-world hours since the epoch.
func (c *Clock) Hours() int64 {
	return c.startHour + c.tick.Load()/c.ticksPerHour
}

// Hour is the hour of day, 0 to 23.
func (c *Clock) Hour() int {
	return int(c.Hours() % HoursPerDay)
}
