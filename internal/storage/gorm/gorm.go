// Package gormstorage implements the storage.Backend interface on any GORM
// database. Writes are turned into ops on an internal queue and applied by a
// background writer goroutine.
package gormstorage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/vessels/internal/database"
	"github.com/OCAP2/vessels/internal/queue"
	"github.com/OCAP2/vessels/internal/storage"

	"gorm.io/gorm"
)

// MaxAttempts is how often a failing op is tried before it is dropped.
const MaxAttempts = 3

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Log           *slog.Logger
	FlushInterval time.Duration
}

// op is one queued write. apply must be safe to run more than once.
type op struct {
	name     string
	attempts int
	apply    func(db *gorm.DB) error
}

// Backend implements storage.Backend with write-behind persistence.
type Backend struct {
	deps     Dependencies
	ops      *queue.Queue[*op]
	drainMu  sync.Mutex
	stopChan chan struct{}
	stopped  chan struct{}
	log      *slog.Logger
}

// New creates a GORM storage backend. Init must be called before use.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = storage.DefaultFlushInterval
	}
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		deps: deps,
		ops:  queue.New[*op](),
		log:  log.With("component", "storage", "dialect", dialect(deps.DB)),
	}
}

func dialect(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "none"
	}
	return db.Dialector.Name()
}

// DB exposes the underlying connection.
func (b *Backend) DB() *gorm.DB { return b.deps.DB }

// Init migrates the schema and starts the writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("gorm storage: no database")
	}
	if err := database.Setup(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.stopChan = make(chan struct{})
	b.stopped = make(chan struct{})
	go b.writer()
	b.log.Info("Storage initialized", "flushInterval", b.deps.FlushInterval)
	return nil
}

// Close stops the writer and applies whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		<-b.stopped
		b.stopChan = nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return b.Flush(ctx)
}

// Pending reports how many writes are queued.
func (b *Backend) Pending() int { return b.ops.Len() }

func (b *Backend) enqueue(name string, apply func(db *gorm.DB) error) error {
	b.ops.Push(&op{name: name, apply: apply})
	return nil
}

// writer drains the queue every flush interval.
func (b *Backend) writer() {
	defer close(b.stopped)
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if b.ops.Empty() {
				continue
			}
			start := time.Now()
			n, _, err := b.drain(context.Background())
			if err != nil {
				b.log.Warn("Write cycle stopped early", "applied", n, "pending", b.ops.Len(), "error", err)
				continue
			}
			b.log.Debug("Write cycle complete", "applied", n, "duration", time.Since(start))
		}
	}
}

// drain applies queued ops in order until the queue is empty or an op
// fails. A failed op goes back to the head together with everything
// behind it and err is set. An op that has used up its attempts is
// dropped instead and reported in dropped.
func (b *Backend) drain(ctx context.Context) (applied int, dropped, err error) {
	b.drainMu.Lock()
	defer b.drainMu.Unlock()

	ops := b.ops.GetAndEmpty()
	for i, o := range ops {
		if err := ctx.Err(); err != nil {
			b.ops.PushFront(ops[i:]...)
			return applied, dropped, err
		}
		applyErr := o.apply(b.deps.DB)
		if applyErr == nil {
			applied++
			continue
		}
		o.attempts++
		if o.attempts >= MaxAttempts {
			b.log.Error("Dropping write after repeated failures", "op", o.name, "attempts", o.attempts, "error", applyErr)
			dropped = errors.Join(dropped, fmt.Errorf("%s: %w", o.name, applyErr))
			continue
		}
		b.log.Warn("Write failed, will retry", "op", o.name, "attempt", o.attempts, "error", applyErr)
		b.ops.PushFront(ops[i:]...)
		return applied, dropped, fmt.Errorf("%s: %w", o.name, applyErr)
	}
	return applied, dropped, nil
}

// Flush applies every queued write before returning. Ops that keep
// failing are retried up to MaxAttempts and then dropped; their errors
// are returned.
func (b *Backend) Flush(ctx context.Context) error {
	var errs error
	for !b.ops.Empty() {
		_, dropped, _ := b.drain(ctx)
		errs = errors.Join(errs, dropped)
		if err := ctx.Err(); err != nil {
			return errors.Join(errs, err)
		}
	}
	return errs
}

// flushForRead makes queued writes visible to a read.
func (b *Backend) flushForRead(what string) {
	if b.ops.Empty() {
		return
	}
	if err := b.Flush(context.Background()); err != nil {
		b.log.Warn("Flush before read failed", "read", what, "error", err)
	}
}
