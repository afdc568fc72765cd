package main

import (
	"fmt"

	"github.com/OCAP2/vessels/internal/config"
	"github.com/OCAP2/vessels/internal/database"
	"github.com/OCAP2/vessels/internal/storage"
	"github.com/OCAP2/vessels/internal/storage/memory"
	pgstorage "github.com/OCAP2/vessels/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/vessels/internal/storage/sqlite"
)

func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		backend, err := pgstorage.New(pgstorage.Dependencies{
			Config:        config.Postgres(),
			Log:           SlogManager.Component("postgres"),
			FlushInterval: storageCfg.FlushInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Postgres backend: %w", err)
		}
		Logger.Info("Postgres storage backend initialized")
		return backend, nil

	case "sqlite":
		return newSQLite(storageCfg)

	case "auto":
		// Postgres when reachable, else in-memory SQLite dumped to disk.
		m := database.NewManager(config.Postgres(), ZLogger.With().Str("component", "database").Logger())
		if err := m.Connect(); err != nil {
			return nil, err
		}
		if !m.ShouldSaveLocal {
			backend, err := pgstorage.New(pgstorage.Dependencies{
				DB:            m.DB,
				Log:           SlogManager.Component("postgres"),
				FlushInterval: storageCfg.FlushInterval,
			})
			if err != nil {
				return nil, err
			}
			Logger.Info("Postgres storage backend initialized", "mode", "auto")
			return backend, nil
		}
		m.SqlDB.Close()
		storageCfg.SQLite.Path = ""
		return newSQLite(storageCfg)

	default:
		Logger.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(memory.Config{
			OutputDir:      storageCfg.Memory.OutputDir,
			CompressOutput: storageCfg.Memory.CompressOutput,
		}), nil
	}
}

func newSQLite(storageCfg config.StorageConfig) (storage.Backend, error) {
	backend, err := sqlitestorage.New(sqlitestorage.Config{
		Path:          storageCfg.SQLite.Path,
		DumpPath:      storageCfg.SQLite.DumpPath,
		DumpInterval:  storageCfg.SQLite.DumpInterval,
		FlushInterval: storageCfg.FlushInterval,
	}, SlogManager.Component("sqlite"))
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
	}
	Logger.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.Path, "dumpPath", storageCfg.SQLite.DumpPath)
	return backend, nil
}

// setupDB migrates the configured Postgres schema and exits.
func setupDB() error {
	m := database.NewManager(config.Postgres(), ZLogger.With().Str("component", "database").Logger())
	if err := m.Connect(); err != nil {
		return err
	}
	defer m.SqlDB.Close()
	if m.ShouldSaveLocal {
		return fmt.Errorf("postgres at %s:%s is unreachable, not migrating", m.Postgres.Host, m.Postgres.Port)
	}
	if err := m.Setup(); err != nil {
		return err
	}
	Logger.Info("DB setup complete.")
	return nil
}
