// Package telemetry publishes periodic vessel position samples to
// time-series and live-map consumers.
package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/OCAP2/vessels/internal/geo"
	"github.com/OCAP2/vessels/internal/vessel"
)

// Sample is one vessel's state at a pulse.
type Sample struct {
	VesselID  int       `json:"vesselId"`
	Name      string    `json:"name"`
	Class     string    `json:"class"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
	Lon       float64   `json:"lon"`
	Lat       float64   `json:"lat"`
	Heading   int       `json:"heading"`
	Speed     int       `json:"speed"`
	Autopilot string    `json:"autopilot"`
	Docked    bool      `json:"docked"`
	Tick      int64     `json:"tick"`
	Time      time.Time `json:"time"`
}

// NewSample captures v. scale converts grid units to projected metres.
func NewSample(v *vessel.Vessel, autopilot string, tick int64, at time.Time, scale float64) Sample {
	lon, lat := geo.LonLat(v.Position(), scale)
	return Sample{
		VesselID:  v.ID,
		Name:      v.Name,
		Class:     v.Class.String(),
		X:         v.X,
		Y:         v.Y,
		Z:         v.Z,
		Lon:       lon,
		Lat:       lat,
		Heading:   v.Heading,
		Speed:     v.Speed,
		Autopilot: autopilot,
		Docked:    v.IsDocked(),
		Tick:      tick,
		Time:      at,
	}
}

// Sink receives batches of samples.
type Sink interface {
	Publish(ctx context.Context, samples []Sample) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, []Sample) error { return nil }
func (Nop) Close() error                            { return nil }

// Multi fans a batch out to several sinks. Every sink is tried.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, samples []Sample) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, samples); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
