package world

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/vessels/internal/world"

// stats mirrors world counters for the metric callback, which runs off
// the engine goroutine.
type stats struct {
	vessels    atomic.Int64
	autopilots atomic.Int64
	tick       atomic.Int64
}

func (st *stats) update(s *State) {
	st.vessels.Store(int64(s.Registry.Len()))
	st.autopilots.Store(int64(s.Autopilot.Active()))
	st.tick.Store(s.Clock.Tick())
}

func (s *State) registerMetrics() (metric.Registration, error) {
	m := otel.Meter(instrumentationName)

	vessels, err := m.Int64ObservableGauge("vessels.active",
		metric.WithDescription("Vessels in the registry"))
	if err != nil {
		return nil, err
	}
	autopilots, err := m.Int64ObservableGauge("vessels.autopilots.engaged",
		metric.WithDescription("Autopilots traveling, waiting or paused"))
	if err != nil {
		return nil, err
	}
	pending, err := m.Int64ObservableGauge("vessels.storage.pending",
		metric.WithDescription("Queued storage writes not yet applied"))
	if err != nil {
		return nil, err
	}
	ticks, err := m.Int64ObservableCounter("vessels.ticks",
		metric.WithDescription("Pulses run since start"))
	if err != nil {
		return nil, err
	}

	return m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(vessels, s.stats.vessels.Load())
		o.ObserveInt64(autopilots, s.stats.autopilots.Load())
		o.ObserveInt64(ticks, s.stats.tick.Load())
		if s.store != nil {
			o.ObserveInt64(pending, int64(s.store.Pending()))
		}
		return nil
	}, vessels, autopilots, pending, ticks)
}
