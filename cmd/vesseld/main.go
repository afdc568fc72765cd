package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/OCAP2/vessels/internal/command"
	"github.com/OCAP2/vessels/internal/config"
	"github.com/OCAP2/vessels/internal/dispatcher"
	"github.com/OCAP2/vessels/internal/engine"
	"github.com/OCAP2/vessels/internal/logging"
	intOtel "github.com/OCAP2/vessels/internal/otel"
	"github.com/OCAP2/vessels/internal/telemetry"
	"github.com/OCAP2/vessels/internal/transport"
	"github.com/OCAP2/vessels/internal/vessel"
	"github.com/OCAP2/vessels/internal/world"
)

const ServiceName = "vesseld"

// ConsoleActorID is the actor stdin commands run as unless a line says otherwise.
const ConsoleActorID = 1

var (
	configDir = pflag.StringP("config", "c", ".", "directory holding "+config.FileName)
	_         = pflag.String("log-level", "", "override logLevel")

	SessionStartTime = time.Now()

	SlogManager *logging.SlogManager
	Logger      *slog.Logger
	ZLogger     zerolog.Logger

	LogFile       *os.File
	GraylogWriter io.WriteCloser
	OTelProvider  *intOtel.Provider

	// World is set once the world is built; log records carry its clock.
	World atomic.Pointer[world.State]
)

func main() {
	pflag.Parse()

	if err := run(pflag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(logging.Options{Level: "info"})
	Logger = SlogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", *configDir)
	}
	if err := viper.BindPFlag("logLevel", pflag.Lookup("log-level")); err != nil {
		return err
	}

	if len(args) > 0 && strings.EqualFold(args[0], "setupdb") {
		initLogging()
		defer closeLogging()
		return setupDB()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := initWorld(ctx)
	if err != nil {
		closeLogging()
		return err
	}
	defer closeLogging()
	defer func() {
		if err := w.Close(); err != nil {
			Logger.Error("Failed to close world", "error", err)
		}
		if store := w.Storage(); store != nil {
			if err := store.Close(); err != nil {
				Logger.Error("Failed to close storage backend", "error", err)
			}
		}
	}()

	d, err := dispatcher.New(logging.NewCommandLogger(ZLogger, "dispatcher"))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	dcfg := config.Dispatcher()
	command.Register(d, w, command.Options{RatePerSecond: dcfg.RatePerSecond, Burst: dcfg.Burst})
	Logger.Info("Commands registered", "count", len(d.Commands()))

	ecfg := config.Engine()
	eng, err := engine.New(w, d, engine.Config{PulseInterval: ecfg.PulseInterval}, SlogManager.Component("engine"))
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	eng.AfterSave = SlogManager.Flush

	go func() {
		name := viper.GetString("console.name")
		if err := runConsole(ctx, os.Stdin, os.Stdout, eng, ConsoleActorID); err != nil && !errors.Is(err, engine.ErrStopped) {
			Logger.Error("Console stopped", "actor", name, "error", err)
		}
	}()

	Logger.Info("Starting up...", "pulse", ecfg.PulseInterval)
	return eng.Run(ctx)
}

// initLogging opens the session log file and the optional GELF and OTel
// sinks, then rebuilds the logger.
func initLogging() {
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
	}

	if LogFile == nil {
		path := logging.LogFilePath(logsDir, ServiceName, SessionStartTime)
		if _, err := os.Stat(path); err == nil {
			os.Rename(path, path+".old")
		}
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			Logger.Error("Failed to create/open log file!", "error", err, "path", path)
		} else {
			LogFile = f
			Logger.Info("Begin logging in logs directory", "path", path)
		}
	}

	var fileOut io.Writer
	if LogFile != nil {
		fileOut = LogFile
	}

	if viper.GetBool("graylog.enabled") && GraylogWriter == nil {
		gw, err := logging.NewGraylogWriter(viper.GetString("graylog.address"), ServiceName)
		if err != nil {
			Logger.Error("Failed to set up Graylog", "error", err)
		} else {
			GraylogWriter = gw
		}
	}

	otelCfg := config.OTel()
	if otelCfg.Enabled && OTelProvider == nil {
		p, err := intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    fileOut,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			OTelProvider = p
			Logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
		}
	}

	opts := logging.Options{
		Level:   viper.GetString("logLevel"),
		File:    fileOut,
		Console: viper.GetBool("logToConsole"),
	}
	if GraylogWriter != nil {
		opts.Graylog = GraylogWriter
	}
	if OTelProvider != nil {
		opts.Provider = OTelProvider.LoggerProvider()
	}
	opts.Context = contextAttrs
	SlogManager.Setup(opts)
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)

	var zout io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if fileOut != nil {
		zout = zerolog.MultiLevelWriter(zout, zerolog.ConsoleWriter{Out: fileOut, TimeFormat: time.RFC3339, NoColor: true})
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	ZLogger = zerolog.New(zout).Level(lvl).With().Timestamp().Logger()
}

func contextAttrs() []slog.Attr {
	if w := World.Load(); w != nil {
		return w.ContextAttrs()
	}
	return nil
}

func closeLogging() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := SlogManager.Flush(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "flush logs: %v\n", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown otel: %v\n", err)
		}
	}
	if GraylogWriter != nil {
		GraylogWriter.Close()
	}
	if LogFile != nil {
		LogFile.Close()
	}
}

// initWorld builds storage, telemetry and the world, restores persisted
// state and launches the configured fleet.
func initWorld(ctx context.Context) (*world.State, error) {
	initLogging()

	store, err := createStorageBackend(config.Storage())
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return nil, err
	}
	if err := store.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		return nil, err
	}

	templates, err := loadTemplates(config.Engine().Templates)
	if err != nil {
		store.Close()
		return nil, err
	}

	ecfg := config.Engine()
	tcfg := config.Telemetry()
	seed := ecfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	w, err := world.New(world.Deps{
		Config: world.Config{
			Capacity:            ecfg.Capacity,
			TicksPerHour:        ecfg.TicksPerHour,
			StartHour:           ecfg.StartHour,
			TelemetryEveryTicks: tcfg.EveryTicks,
			CleanupEveryTicks:   ecfg.CleanupEveryTicks,
			MapScale:            ecfg.MapScale,
			Interior:            config.Interior(),
		},
		Templates: templates,
		Storage:   store,
		Telemetry: createTelemetrySink(ctx, tcfg, ecfg.MapScale),
		Rand:      rand.New(rand.NewSource(seed)),
		Logger:    SlogManager.Component("world"),
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create world: %w", err)
	}

	World.Store(w)

	if err := w.LoadAll(ctx); err != nil {
		Logger.Warn("World restored with errors", "error", err)
	}
	if err := launchFleet(w); err != nil {
		Logger.Warn("Fleet launched with errors", "error", err)
	}

	if _, err := w.AddActor(world.Actor{
		Passenger: transport.Passenger{ID: ConsoleActorID},
		Name:      viper.GetString("console.name"),
		Level:     100,
	}); err != nil {
		Logger.Warn("Failed to add console actor", "error", err)
	}

	Logger.Info("World ready", "vessels", w.Registry.Len(), "capacity", w.Registry.Cap(), "vehicles", w.Vehicles.Len(), "storage", config.Storage().Type)
	return w, nil
}

func loadTemplates(path string) (map[string]vessel.Template, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open vessel templates: %w", err)
	}
	defer f.Close()

	templates, err := vessel.LoadTemplates(f)
	if err != nil {
		return nil, err
	}
	Logger.Info("Loaded vessel templates", "path", path, "count", len(templates))
	return templates, nil
}

func launchFleet(w *world.State) error {
	fleet, err := config.Fleet()
	if err != nil {
		return err
	}
	var errs []error
	for _, s := range fleet {
		v, err := w.LoadShip(s.Template, s.Name, s.Owner, s.X, s.Y, s.Z)
		if err != nil {
			errs = append(errs, fmt.Errorf("launch %s: %w", s.Name, err))
			continue
		}
		Logger.Info("Vessel launched", "name", v.Name, "id", v.ID, "class", v.Class.String())
	}
	return errors.Join(errs...)
}

// createTelemetrySink connects the enabled feeds. A feed that cannot
// connect is skipped.
func createTelemetrySink(ctx context.Context, cfg config.TelemetryConfig, scale float64) telemetry.Sink {
	var sinks telemetry.Multi

	if cfg.Influx.Enabled {
		influx := telemetry.NewInfluxSink(cfg.Influx, ZLogger.With().Str("component", "influx").Logger())
		if err := influx.Connect(ctx); err != nil {
			Logger.Error("Failed to initialize InfluxDB telemetry", "error", err)
		} else {
			sinks = append(sinks, influx)
		}
	}

	if cfg.WebSocket.Enabled {
		ws := telemetry.NewWebSocketSink(cfg.WebSocket, Logger)
		if err := ws.Connect(telemetry.Hello{Server: ServiceName, Scale: scale}); err != nil {
			Logger.Error("Failed to connect live-map websocket", "error", err, "url", cfg.WebSocket.URL)
			ws.Close()
		} else {
			sinks = append(sinks, ws)
		}
	}

	if len(sinks) == 0 {
		return telemetry.Nop{}
	}
	return sinks
}
