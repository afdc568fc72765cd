package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrThrottled      = errors.New("command rate exceeded")
	ErrEmpty          = errors.New("empty command")
)

// Event is one command typed by an actor.
type Event struct {
	ActorID   int
	Command   string
	Args      []string
	Timestamp time.Time
}

// Rest joins the arguments from index i on.
func (e Event) Rest(i int) string {
	if i >= len(e.Args) {
		return ""
	}
	return strings.Join(e.Args[i:], " ")
}

// Parse splits a command line into an event. The verb is lower-cased.
func Parse(actorID int, line string) (Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Event{}, ErrEmpty
	}
	return Event{
		ActorID:   actorID,
		Command:   strings.ToLower(fields[0]),
		Args:      fields[1:],
		Timestamp: time.Now(),
	}, nil
}

// HandlerFunc processes an event and returns the reply text.
type HandlerFunc func(Event) (string, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged  bool
	limit   rate.Limit
	burst   int
	aliases []string
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// RateLimited allows each actor r commands per second with the given burst.
func RateLimited(r rate.Limit, burst int) Option {
	return func(c *config) {
		c.limit = r
		c.burst = burst
	}
}

// Aliases registers extra verbs for the same handler.
func Aliases(names ...string) Option {
	return func(c *config) {
		c.aliases = append(c.aliases, names...)
	}
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger

	// OTEL metrics
	processed metric.Int64Counter
	failed    metric.Int64Counter
	throttled metric.Int64Counter
	latency   metric.Float64Histogram
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}

	m := meter()

	var err error

	d.processed, err = m.Int64Counter(
		"dispatcher.commands.processed",
		metric.WithDescription("Total commands processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.commands.failed",
		metric.WithDescription("Total commands whose handler returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	d.throttled, err = m.Int64Counter(
		"dispatcher.commands.throttled",
		metric.WithDescription("Total commands refused by the per-actor rate limit"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating throttled counter: %w", err)
	}

	d.latency, err = m.Float64Histogram(
		"dispatcher.commands.duration",
		metric.WithDescription("Command handling time"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating latency histogram: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given command with optional configuration.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	command = strings.ToLower(command)
	handler := d.withMetrics(command, h)

	if cfg.logged {
		handler = d.withLogging(command, handler)
	}

	if cfg.limit > 0 {
		handler = d.withRateLimit(command, cfg.limit, cfg.burst, handler)
	}

	d.handlers[command] = handler
	for _, alias := range cfg.aliases {
		d.handlers[strings.ToLower(alias)] = handler
	}
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (string, error) {
	h, ok := d.handlers[e.Command]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.handlers[strings.ToLower(command)]
	return ok
}

// Commands lists every registered verb, sorted.
func (d *Dispatcher) Commands() []string {
	out := make([]string, 0, len(d.handlers))
	for c := range d.handlers {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (d *Dispatcher) withMetrics(command string, h HandlerFunc) HandlerFunc {
	cmdAttr := metric.WithAttributes(attribute.String("command", command))
	return func(e Event) (string, error) {
		start := time.Now()
		result, err := h(e)
		ctx := context.Background()
		d.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, cmdAttr)
		d.processed.Add(ctx, 1, cmdAttr)
		if err != nil {
			d.failed.Add(ctx, 1, cmdAttr)
		}
		return result, err
	}
}

func (d *Dispatcher) withRateLimit(command string, r rate.Limit, burst int, h HandlerFunc) HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[int]*rate.Limiter)
	)
	cmdAttr := metric.WithAttributes(attribute.String("command", command))

	return func(e Event) (string, error) {
		mu.Lock()
		l, ok := limiters[e.ActorID]
		if !ok {
			l = rate.NewLimiter(r, burst)
			limiters[e.ActorID] = l
		}
		mu.Unlock()

		at := e.Timestamp
		if at.IsZero() {
			at = time.Now()
		}
		if !l.AllowN(at, 1) {
			d.throttled.Add(context.Background(), 1, cmdAttr)
			return "", fmt.Errorf("%w: %s", ErrThrottled, command)
		}
		return h(e)
	}
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (string, error) {
		start := time.Now()
		d.logger.Debug("handling command", "command", command, "actor", e.ActorID, "args", len(e.Args))

		result, err := h(e)

		if err != nil {
			d.logger.Error("command failed", "command", command, "actor", e.ActorID, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("command complete", "command", command, "actor", e.ActorID, "duration", time.Since(start))
		}

		return result, err
	}
}
