// Package world owns the simulation state: every vessel, vehicle, actor
// and the subsystems that act on them. It is driven from one goroutine.
package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/OCAP2/vessels/internal/autopilot"
	"github.com/OCAP2/vessels/internal/docking"
	"github.com/OCAP2/vessels/internal/interior"
	"github.com/OCAP2/vessels/internal/schedule"
	"github.com/OCAP2/vessels/internal/storage"
	"github.com/OCAP2/vessels/internal/telemetry"
	"github.com/OCAP2/vessels/internal/terrain"
	"github.com/OCAP2/vessels/internal/transport"
	"github.com/OCAP2/vessels/internal/vessel"
)

var (
	ErrUnknownTemplate = errors.New("unknown vessel template")
	ErrNoTransport     = errors.New("not in any transport")
)

// Config tunes the world.
type Config struct {
	Capacity            int
	TicksPerHour        int
	StartHour           int
	TelemetryEveryTicks int
	CleanupEveryTicks   int
	MapScale            float64
	Interior            interior.Config
}

// DefaultConfig is a 500-slot world at one pulse per in-world hour.
func DefaultConfig() Config {
	return Config{
		Capacity:            500,
		TicksPerHour:        1,
		TelemetryEveryTicks: 10,
		CleanupEveryTicks:   60,
		MapScale:            1,
		Interior:            interior.DefaultConfig(),
	}
}

// Deps wires a State. Everything but Config is optional.
type Deps struct {
	Config    Config
	Templates map[string]vessel.Template
	Storage   storage.Backend
	Terrain   terrain.Lookup
	Weather   terrain.Weather
	Combat    docking.Combat
	Telemetry telemetry.Sink
	Rand      *rand.Rand
	Logger    *slog.Logger
	Now       func() time.Time
}

// State is the whole world. It is not safe for concurrent use.
type State struct {
	Registry  *vessel.Registry
	Vehicles  *transport.Vehicles
	Generator *interior.Generator
	Docking   *docking.Coordinator
	Transport *transport.Manager
	Autopilot *autopilot.Engine
	Navigator *autopilot.Navigator
	Schedule  *schedule.Trigger
	Clock     *Clock
	Terrain   terrain.Lookup

	cfg       Config
	templates map[string]vessel.Template
	store     storage.Backend
	telemetry telemetry.Sink
	actors    map[int]*Actor
	now       func() time.Time
	log       *slog.Logger

	stats   stats
	metrics metric.Registration
}

// New builds a world from deps.
func New(deps Deps) (*State, error) {
	cfg := deps.Config
	if cfg.TelemetryEveryTicks <= 0 {
		cfg.TelemetryEveryTicks = DefaultConfig().TelemetryEveryTicks
	}
	if cfg.CleanupEveryTicks <= 0 {
		cfg.CleanupEveryTicks = DefaultConfig().CleanupEveryTicks
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	lookup := deps.Terrain
	if lookup == nil {
		lookup = terrain.Uniform(terrain.Ocean)
	}
	sink := deps.Telemetry
	if sink == nil {
		sink = telemetry.Nop{}
	}

	s := &State{
		Registry:  vessel.NewRegistry(cfg.Capacity),
		Vehicles:  transport.NewVehicles(),
		Clock:     NewClock(cfg.TicksPerHour, cfg.StartHour),
		Terrain:   lookup,
		cfg:       cfg,
		templates: make(map[string]vessel.Template, len(deps.Templates)),
		store:     deps.Storage,
		telemetry: sink,
		actors:    make(map[int]*Actor),
		now:       now,
		log:       log,
	}
	for k, t := range deps.Templates {
		s.templates[strings.ToLower(k)] = t
	}

	s.Generator = interior.NewGenerator(cfg.Interior, rng, log)
	s.Transport = transport.NewManager(s.Registry, s.Vehicles, s.store, s, log)
	s.Autopilot = autopilot.NewEngine(s.Registry, lookup, s, log)
	s.Autopilot.OnMoved = s.Transport.SyncAllLoaded
	s.Navigator = autopilot.NewNavigator(s.store, log)
	s.Schedule = schedule.NewTrigger(s, s.store, log)
	s.Docking = docking.NewCoordinator(docking.Deps{
		Registry: s.Registry,
		Notifier: s,
		Recorder: s.store,
		Combat:   deps.Combat,
		Actors:   s,
		Terrain:  lookup,
		Weather:  deps.Weather,
		Rand:     rng,
		Logger:   log,
		Now:      now,
		OnDocked: func(a, b *vessel.Vessel) { s.Autopilot.PauseForDocking(a, b) },
		OnMoved:  s.Transport.SyncAllLoaded,
	})

	reg, err := s.registerMetrics()
	if err != nil {
		return nil, fmt.Errorf("register world metrics: %w", err)
	}
	s.metrics = reg
	return s, nil
}

func (s *State) Now() time.Time { return s.now() }

// Storage returns the persistence backend, nil when running without one.
func (s *State) Storage() storage.Backend { return s.store }

// ContextAttrs reports the pulse and in-world hour for log records.
func (s *State) ContextAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int64("tick", s.Clock.Tick()),
		slog.Int("hour", s.Clock.Hour()),
	}
}

// Template resolves a template key, falling back to a class name.
func (s *State) Template(name string) (vessel.Template, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if t, ok := s.templates[key]; ok {
		return t, nil
	}
	c, err := vessel.ParseClass(key)
	if err != nil {
		return vessel.Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	return vessel.DefaultTemplate(c), nil
}

// LoadShip launches a vessel, restoring its persisted interior or
// generating a new one, then loads its cargo manifest and crew roster.
// A vessel whose interior cannot be built is removed again.
func (s *State) LoadShip(templateName, name, owner string, x, y, z float64) (*vessel.Vessel, error) {
	tmpl, err := s.Template(templateName)
	if err != nil {
		return nil, err
	}
	v, err := s.Registry.Load(tmpl, name, owner, x, y, z)
	if err != nil {
		return nil, err
	}

	restored := s.restoreInterior(v)
	if !restored {
		if _, err := s.Generator.Generate(v); err != nil {
			_, _ = s.Registry.Remove(v.ID)
			return nil, fmt.Errorf("generate interior for %s: %w", v.Name, err)
		}
		s.persist("interior", v.ID, s.saveInterior(v))
	}
	s.loadManifest(v)
	if npc, ok := s.Autopilot.RestorePilot(v); ok {
		s.log.Debug("Pilot restored", "vessel", v.ID, "npc", npc)
	}

	for _, vh := range s.Vehicles.LoadedOn(v.ID) {
		s.Transport.SyncWithVessel(vh, v)
	}

	s.log.Info("Vessel loaded", "vessel", v.ID, "name", v.Name, "class", v.Class.String(),
		"rooms", len(v.Rooms), "restored", restored)
	return v, nil
}

func (s *State) restoreInterior(v *vessel.Vessel) bool {
	if s.store == nil {
		return false
	}
	in, ok, err := s.store.LoadInterior(v.ID)
	if err != nil {
		s.log.Error("Failed to load interior", "vessel", v.ID, "error", err)
		return false
	}
	if !ok || len(in.Rooms) == 0 {
		return false
	}
	if err := v.Restore(in); err != nil {
		s.log.Warn("Discarding persisted interior", "vessel", v.ID, "error", err)
		return false
	}
	return true
}

func (s *State) loadManifest(v *vessel.Vessel) {
	if s.store == nil {
		return
	}
	cargo, err := s.store.LoadCargo(v.ID)
	if err != nil {
		s.log.Error("Failed to load cargo", "vessel", v.ID, "error", err)
	}
	crew, err := s.store.LoadCrew(v.ID)
	if err != nil {
		s.log.Error("Failed to load crew", "vessel", v.ID, "error", err)
	}
	v.Cargo, v.Crew = cargo, crew
}

func (s *State) saveInterior(v *vessel.Vessel) error {
	if s.store == nil {
		return nil
	}
	return s.store.SaveInterior(v)
}

func (s *State) persist(what string, id int, err error) {
	if err != nil {
		s.log.Error("Failed to persist", "kind", what, "id", id, "error", err)
	}
}

// SinkShip removes a vessel from the world. Its docking link is severed
// and recorded, its autopilot and schedule are dropped, carried vehicles
// are cleared and everyone aboard ends up in the water. Its stored
// interior, manifest and roster are deleted.
func (s *State) SinkShip(id int) error {
	v, err := s.Registry.Remove(id)
	if err != nil {
		return err
	}
	if v.IsDocked() {
		s.Docking.Severed(v.ID, v.DockedTo)
	}
	s.Autopilot.Remove(id)
	if err := s.Schedule.Clear(id); err != nil && !errors.Is(err, schedule.ErrNoSchedule) {
		s.log.Warn("Failed to clear schedule", "vessel", id, "error", err)
	}
	for _, vh := range s.Vehicles.LoadedOn(id) {
		_, _ = s.Transport.Unload(vh)
	}
	for _, aid := range s.ActorsAboard(id) {
		s.SendToActor(aid, fmt.Sprintf("%s sinks beneath you! You are thrown into the water.", v.Name))
		s.MoveTo(aid, Ashore)
	}
	if s.store != nil {
		s.persist("vessel", id, s.store.DeleteVessel(id))
	}
	s.log.Info("Vessel sunk", "vessel", id, "name", v.Name)
	return nil
}

// AssignPilot puts an NPC at the helm and saves the crew roster.
func (s *State) AssignPilot(vesselID, npcID int) error {
	if err := s.Autopilot.AssignPilot(vesselID, npcID, s); err != nil {
		return err
	}
	s.saveCrew(vesselID)
	return nil
}

// UnassignPilot relieves the pilot and saves the crew roster.
func (s *State) UnassignPilot(vesselID int) (int, error) {
	npc, err := s.Autopilot.UnassignPilot(vesselID)
	if err != nil {
		return npc, err
	}
	s.saveCrew(vesselID)
	return npc, nil
}

func (s *State) saveCrew(vesselID int) {
	v, ok := s.Registry.Get(vesselID)
	if !ok || s.store == nil {
		return
	}
	s.persist("crew", vesselID, s.store.SaveCrew(v))
}

// StartRoute engages a vessel's autopilot on a stored route.
func (s *State) StartRoute(vesselID, routeID int) error {
	r, ok := s.Navigator.Route(routeID)
	if !ok {
		return autopilot.ErrRouteNotFound
	}
	return s.Autopilot.StartRoute(vesselID, r, s.now())
}

// DeleteRoute removes a route and stops every autopilot following it.
func (s *State) DeleteRoute(routeID int) error {
	if err := s.Navigator.DeleteRoute(routeID); err != nil {
		return err
	}
	if n := s.Autopilot.DetachRoute(routeID); n > 0 {
		s.log.Info("Autopilots stopped by route deletion", "route", routeID, "count", n)
	}
	return nil
}

// Tick runs one pulse: the clock advances, autopilots step, then due
// schedules fire. Telemetry and the orphan sweep run on their own cadence.
func (s *State) Tick(ctx context.Context) {
	tick := s.Clock.Advance()
	s.Autopilot.Tick(s.now())
	s.Schedule.Tick(s.Clock)

	if tick%int64(s.cfg.TelemetryEveryTicks) == 0 {
		s.publish(ctx, tick)
	}
	if tick%int64(s.cfg.CleanupEveryTicks) == 0 {
		s.sweep()
	}
	s.stats.update(s)
}

// Samples captures every live vessel for telemetry.
func (s *State) Samples(tick int64) []telemetry.Sample {
	at := s.now()
	out := make([]telemetry.Sample, 0, s.Registry.Len())
	s.Registry.Each(func(v *vessel.Vessel) {
		state := autopilot.Off
		if ap, ok := s.Autopilot.Get(v.ID); ok {
			state = ap.State
		}
		out = append(out, telemetry.NewSample(v, state.String(), tick, at, s.cfg.MapScale))
	})
	return out
}

func (s *State) publish(ctx context.Context, tick int64) {
	samples := s.Samples(tick)
	if len(samples) == 0 {
		return
	}
	if err := s.telemetry.Publish(ctx, samples); err != nil {
		s.log.WarnContext(ctx, "Telemetry publish failed", "vessels", len(samples), "error", err)
	}
}

func (s *State) sweep() {
	if _, err := s.Docking.CleanupOrphans(); err != nil {
		s.log.Error("Orphan docking sweep failed", "error", err)
	}
}

// LoadAll reads navigation data, schedules and vehicles from storage and
// closes out docking records left active by a previous run.
func (s *State) LoadAll(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	var errs []error

	wps, routes, err := s.store.LoadNavigation()
	if err != nil {
		errs = append(errs, fmt.Errorf("load navigation: %w", err))
	} else {
		s.Navigator.Load(wps, routes)
	}

	scheds, err := s.store.LoadSchedules()
	if err != nil {
		errs = append(errs, fmt.Errorf("load schedules: %w", err))
	} else {
		s.Schedule.Load(scheds)
	}

	vehicles, err := s.store.LoadVehicles()
	if err != nil {
		errs = append(errs, fmt.Errorf("load vehicles: %w", err))
	}
	for _, vh := range vehicles {
		s.Vehicles.Add(vh)
	}

	closed, err := s.Docking.CleanupOrphans()
	if err != nil {
		errs = append(errs, err)
	}

	s.log.InfoContext(ctx, "World loaded",
		"waypoints", len(wps), "routes", len(routes), "schedules", len(scheds),
		"vehicles", len(vehicles), "staleDocks", closed)
	return errors.Join(errs...)
}

// SaveAll writes every vessel's interior, manifest and roster plus every
// vehicle, then waits for the backend to apply them.
func (s *State) SaveAll(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	var errs []error
	s.Registry.Each(func(v *vessel.Vessel) {
		if v.HasInterior() {
			errs = append(errs, s.store.SaveInterior(v))
		}
		errs = append(errs, s.store.SaveCargo(v), s.store.SaveCrew(v))
	})
	for _, vh := range s.Vehicles.All() {
		errs = append(errs, s.store.SaveVehicle(vh))
	}
	errs = append(errs, s.store.Flush(ctx))
	return errors.Join(errs...)
}

// TransportFor returns whatever a is riding or standing aboard.
func (s *State) TransportFor(a *Actor) (transport.Transport, error) {
	if a.Vehicle != 0 {
		vh, ok := s.Vehicles.Get(a.Vehicle)
		if !ok {
			s.log.Warn("Actor riding a missing vehicle", "actor", a.ID, "vehicle", a.Vehicle)
			a.Vehicle = 0
			return nil, ErrNoTransport
		}
		return s.VehicleTransport(vh), nil
	}
	if a.AboardVessel() {
		v, ok := s.Registry.Get(a.Aboard.Vessel)
		if !ok {
			s.log.Warn("Actor aboard a missing vessel", "actor", a.ID, "vessel", a.Aboard.Vessel)
			a.Aboard = Ashore
			return nil, ErrNoTransport
		}
		return &transport.VesselTransport{V: v, Registry: s.Registry}, nil
	}
	return nil, ErrNoTransport
}

// VehicleTransport wraps a land vehicle for the unified transport commands.
func (s *State) VehicleTransport(vh *transport.Vehicle) transport.Transport {
	return &transport.LandVehicle{V: vh, Terrain: s.Terrain, Store: s.store, Log: s.log}
}

// Close unregisters metrics and closes the telemetry sink. Storage is
// owned by the caller.
func (s *State) Close() error {
	var errs []error
	if s.metrics != nil {
		errs = append(errs, s.metrics.Unregister())
	}
	errs = append(errs, s.telemetry.Close())
	return errors.Join(errs...)
}
