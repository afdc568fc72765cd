// Package engine runs the simulation loop. World state is touched only
// from the goroutine inside Run; everything else talks to it through
// Submit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/OCAP2/vessels/internal/dispatcher"
)

const instrumentationName = "github.com/OCAP2/vessels/internal/engine"

var ErrStopped = errors.New("engine stopped")

// Replies for dispatcher refusals that are not handler faults.
const (
	UnknownCommandReply = "Huh?!?"
	ThrottledReply      = "You are doing that too quickly. Slow down."
)

// World is the part of world.State the loop drives.
type World interface {
	Tick(ctx context.Context)
	Messages(actorID int) []string
	SaveAll(ctx context.Context) error
}

// Dispatcher routes parsed commands.
type Dispatcher interface {
	Dispatch(e dispatcher.Event) (string, error)
}

// Config tunes the loop.
type Config struct {
	PulseInterval time.Duration
	InboxSize     int
	SaveTimeout   time.Duration
}

// DefaultConfig is one pulse per second.
func DefaultConfig() Config {
	return Config{
		PulseInterval: time.Second,
		InboxSize:     64,
		SaveTimeout:   30 * time.Second,
	}
}

type result struct {
	text string
	err  error
}

type request struct {
	actorID int
	line    string
	reply   chan result
}

// Engine owns the pulse ticker and the command inbox.
type Engine struct {
	world World
	disp  Dispatcher
	cfg   Config
	log   *slog.Logger

	inbox chan request
	done  chan struct{}

	// AfterSave runs once SaveAll returns during shutdown.
	AfterSave func(ctx context.Context) error

	pulseTime metric.Float64Histogram
}

// New wires an engine around w and d. Zero Config fields take defaults.
func New(w World, d Dispatcher, cfg Config, log *slog.Logger) (*Engine, error) {
	def := DefaultConfig()
	if cfg.PulseInterval <= 0 {
		cfg.PulseInterval = def.PulseInterval
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = def.InboxSize
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = def.SaveTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	hist, err := otel.Meter(instrumentationName).Float64Histogram("engine.pulse.duration",
		metric.WithDescription("Time spent running one pulse"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("creating pulse histogram: %w", err)
	}

	return &Engine{
		world:     w,
		disp:      d,
		cfg:       cfg,
		log:       log,
		inbox:     make(chan request, cfg.InboxSize),
		done:      make(chan struct{}),
		pulseTime: hist,
	}, nil
}

// Run drives pulses and commands until ctx is cancelled, then saves the
// world. It must be called once.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.PulseInterval)
	defer ticker.Stop()

	e.log.Info("Engine started", "pulse", e.cfg.PulseInterval)

	for {
		select {
		case <-ctx.Done():
			return e.shutdown(ctx)
		case <-ticker.C:
			e.pulse(ctx)
		case req := <-e.inbox:
			text, err := e.handle(req.actorID, req.line)
			req.reply <- result{text: text, err: err}
		}
	}
}

// Submit queues a command line for actorID and waits for the reply. Any
// messages delivered to the actor while it ran follow the reply text.
func (e *Engine) Submit(ctx context.Context, actorID int, line string) (string, error) {
	req := request{actorID: actorID, line: line, reply: make(chan result, 1)}

	select {
	case e.inbox <- req:
	case <-e.done:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.text, res.err
	case <-e.done:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} { return e.done }

func (e *Engine) pulse(ctx context.Context) {
	start := time.Now()
	e.world.Tick(ctx)
	e.pulseTime.Record(ctx, float64(time.Since(start).Microseconds())/1000)
}

func (e *Engine) handle(actorID int, line string) (string, error) {
	ev, err := dispatcher.Parse(actorID, line)
	if errors.Is(err, dispatcher.ErrEmpty) {
		return e.withMessages(actorID, ""), nil
	}
	if err != nil {
		return "", err
	}

	text, err := e.disp.Dispatch(ev)
	switch {
	case errors.Is(err, dispatcher.ErrUnknownCommand):
		text, err = UnknownCommandReply, nil
	case errors.Is(err, dispatcher.ErrThrottled):
		text, err = ThrottledReply, nil
	case err != nil:
		e.log.Error("Command failed", "actor", actorID, "command", ev.Command, "error", err)
		return "", err
	}
	return e.withMessages(actorID, text), nil
}

func (e *Engine) withMessages(actorID int, text string) string {
	msgs := e.world.Messages(actorID)
	if len(msgs) == 0 {
		return text
	}
	parts := make([]string, 0, len(msgs)+1)
	if text != "" {
		parts = append(parts, strings.TrimRight(text, "\n"))
	}
	parts = append(parts, msgs...)
	return strings.Join(parts, "\n")
}

func (e *Engine) shutdown(ctx context.Context) error {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.SaveTimeout)
	defer cancel()

	e.log.Info("Engine stopping, saving world")
	var errs []error
	if err := e.world.SaveAll(saveCtx); err != nil {
		errs = append(errs, fmt.Errorf("save world: %w", err))
	}
	if e.AfterSave != nil {
		if err := e.AfterSave(saveCtx); err != nil {
			errs = append(errs, fmt.Errorf("after save: %w", err))
		}
	}
	return errors.Join(errs...)
}
