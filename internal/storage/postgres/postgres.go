// Package postgres implements the storage.Backend interface on PostgreSQL,
// delegating the write-behind queue to the GORM backend.
package postgres

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/OCAP2/vessels/internal/database"
	gormstorage "github.com/OCAP2/vessels/internal/storage/gorm"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the Postgres backend. DB is
// opened from Config when nil.
type Dependencies struct {
	DB            *gorm.DB
	Config        database.PostgresConfig
	Log           *slog.Logger
	FlushInterval time.Duration
	MaxOpenConns  int
}

// Backend wraps the GORM backend with Postgres connection handling.
type Backend struct {
	*gormstorage.Backend
	db   *gorm.DB
	deps Dependencies
}

// New connects to Postgres and creates the backend.
func New(deps Dependencies) (*Backend, error) {
	db := deps.DB
	if db == nil {
		var err error
		db, err = database.OpenPostgres(deps.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres at %s:%s: %w", deps.Config.Host, deps.Config.Port, err)
		}
	}
	if deps.MaxOpenConns <= 0 {
		deps.MaxOpenConns = 10
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:            db,
			Log:           deps.Log,
			FlushInterval: deps.FlushInterval,
		}),
		db:   db,
		deps: deps,
	}, nil
}

// Init validates the connection, then migrates and starts the writer.
func (b *Backend) Init() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(b.deps.MaxOpenConns)
	return b.Backend.Init()
}

// Close stops the writer, flushes and closes the connection pool.
func (b *Backend) Close() error {
	err := b.Backend.Close()
	if sqlDB, dbErr := b.db.DB(); dbErr == nil {
		if closeErr := sqlDB.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
