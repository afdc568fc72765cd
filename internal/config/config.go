package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/OCAP2/vessels/internal/database"
	"github.com/OCAP2/vessels/internal/interior"
	"github.com/OCAP2/vessels/internal/telemetry"
)

const (
	FileName  = "vesseld.cfg.json"
	EnvPrefix = "VESSELD"
)

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and tunes the persistence backend.
type StorageConfig struct {
	Type          string        `json:"type" mapstructure:"type"` // memory, sqlite, postgres or auto
	FlushInterval time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
	Memory        MemoryConfig  `json:"memory" mapstructure:"memory"`
	SQLite        SQLiteConfig  `json:"sqlite" mapstructure:"sqlite"`
}

// EngineConfig drives the simulation loop.
type EngineConfig struct {
	PulseInterval     time.Duration `json:"pulseInterval" mapstructure:"pulseInterval"`
	Capacity          int           `json:"capacity" mapstructure:"capacity"`
	TicksPerHour      int           `json:"ticksPerHour" mapstructure:"ticksPerHour"`
	StartHour         int           `json:"startHour" mapstructure:"startHour"`
	CleanupEveryTicks int           `json:"cleanupEveryTicks" mapstructure:"cleanupEveryTicks"`
	Seed              int64         `json:"seed" mapstructure:"seed"` // 0 seeds from the clock
	Templates         string        `json:"templates" mapstructure:"templates"`
	MapScale          float64       `json:"mapScale" mapstructure:"mapScale"`
}

// TelemetryConfig holds the position feed settings.
type TelemetryConfig struct {
	EveryTicks int                       `json:"everyTicks" mapstructure:"everyTicks"`
	Influx     telemetry.InfluxConfig    `json:"influx" mapstructure:"influx"`
	WebSocket  telemetry.WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// DispatcherConfig throttles player commands.
type DispatcherConfig struct {
	RatePerSecond float64 `json:"ratePerSecond" mapstructure:"ratePerSecond"`
	Burst         int     `json:"burst" mapstructure:"burst"`
}

// Ship is one vessel launched at boot.
type Ship struct {
	Template string  `json:"template" mapstructure:"template"`
	Name     string  `json:"name" mapstructure:"name"`
	Owner    string  `json:"owner" mapstructure:"owner"`
	X        float64 `json:"x" mapstructure:"x"`
	Y        float64 `json:"y" mapstructure:"y"`
	Z        float64 `json:"z" mapstructure:"z"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. A .env file
// there, if any, is loaded into the environment first; VESSELD_* variables
// override file values.
func Load(configDir string) error {
	if err := godotenv.Load(filepath.Join(configDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("logToConsole", true)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "vessels")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.flushInterval", "2s")
	viper.SetDefault("storage.memory.outputDir", "./data")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "./data/vessels.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("engine.pulseInterval", "1s")
	viper.SetDefault("engine.capacity", 500)
	viper.SetDefault("engine.ticksPerHour", 1)
	viper.SetDefault("engine.startHour", 0)
	viper.SetDefault("engine.cleanupEveryTicks", 60)
	viper.SetDefault("engine.seed", 0)
	viper.SetDefault("engine.templates", "")
	viper.SetDefault("engine.mapScale", 1.0)

	def := interior.DefaultConfig()
	viper.SetDefault("interior.optionalRoomChance", def.OptionalRoomChance)
	viper.SetDefault("interior.crossLinkChance", def.CrossLinkChance)
	viper.SetDefault("interior.hatchOneIn", def.HatchOneIn)
	viper.SetDefault("interior.vnumBase", def.VnumBase)

	viper.SetDefault("telemetry.everyTicks", 10)
	viper.SetDefault("telemetry.influx.enabled", false)
	viper.SetDefault("telemetry.influx.protocol", "http")
	viper.SetDefault("telemetry.influx.host", "localhost")
	viper.SetDefault("telemetry.influx.port", "8086")
	viper.SetDefault("telemetry.influx.token", "supersecrettoken")
	viper.SetDefault("telemetry.influx.org", "vessels")
	viper.SetDefault("telemetry.influx.bucket", telemetry.DefaultBucket)
	viper.SetDefault("telemetry.influx.backupPath", "./data/telemetry_backup.lp.gz")
	viper.SetDefault("telemetry.websocket.enabled", false)
	viper.SetDefault("telemetry.websocket.url", "ws://localhost:5000/api/vessels")
	viper.SetDefault("telemetry.websocket.secret", "")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "vesseld")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("console.name", "Harbourmaster")

	viper.SetDefault("dispatcher.ratePerSecond", 4.0)
	viper.SetDefault("dispatcher.burst", 8)
}

// Storage returns the persistence settings.
func Storage() StorageConfig {
	return StorageConfig{
		Type:          strings.ToLower(viper.GetString("storage.type")),
		FlushInterval: viper.GetDuration("storage.flushInterval"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// Postgres returns the db.* connection settings.
func Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// Engine returns the simulation loop settings.
func Engine() EngineConfig {
	return EngineConfig{
		PulseInterval:     viper.GetDuration("engine.pulseInterval"),
		Capacity:          viper.GetInt("engine.capacity"),
		TicksPerHour:      viper.GetInt("engine.ticksPerHour"),
		StartHour:         viper.GetInt("engine.startHour"),
		CleanupEveryTicks: viper.GetInt("engine.cleanupEveryTicks"),
		Seed:              viper.GetInt64("engine.seed"),
		Templates:         viper.GetString("engine.templates"),
		MapScale:          viper.GetFloat64("engine.mapScale"),
	}
}

// Interior returns the room generator settings.
func Interior() interior.Config {
	return interior.Config{
		OptionalRoomChance: viper.GetInt("interior.optionalRoomChance"),
		CrossLinkChance:    viper.GetInt("interior.crossLinkChance"),
		HatchOneIn:         viper.GetInt("interior.hatchOneIn"),
		VnumBase:           viper.GetInt("interior.vnumBase"),
	}
}

// Telemetry returns the position feed settings.
func Telemetry() TelemetryConfig {
	return TelemetryConfig{
		EveryTicks: viper.GetInt("telemetry.everyTicks"),
		Influx: telemetry.InfluxConfig{
			Enabled:    viper.GetBool("telemetry.influx.enabled"),
			Protocol:   viper.GetString("telemetry.influx.protocol"),
			Host:       viper.GetString("telemetry.influx.host"),
			Port:       viper.GetString("telemetry.influx.port"),
			Token:      viper.GetString("telemetry.influx.token"),
			Org:        viper.GetString("telemetry.influx.org"),
			Bucket:     viper.GetString("telemetry.influx.bucket"),
			BackupPath: viper.GetString("telemetry.influx.backupPath"),
		},
		WebSocket: telemetry.WebSocketConfig{
			Enabled: viper.GetBool("telemetry.websocket.enabled"),
			URL:     viper.GetString("telemetry.websocket.url"),
			Secret:  viper.GetString("telemetry.websocket.secret"),
		},
	}
}

// OTel returns the OpenTelemetry settings.
func OTel() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// Dispatcher returns the command throttle settings.
func Dispatcher() DispatcherConfig {
	return DispatcherConfig{
		RatePerSecond: viper.GetFloat64("dispatcher.ratePerSecond"),
		Burst:         viper.GetInt("dispatcher.burst"),
	}
}

// Fleet returns the ships to launch at boot.
func Fleet() ([]Ship, error) {
	var ships []Ship
	if err := viper.UnmarshalKey("fleet", &ships); err != nil {
		return nil, fmt.Errorf("error reading fleet: %w", err)
	}
	return ships, nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
