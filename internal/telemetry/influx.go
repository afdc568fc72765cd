package telemetry

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

const (
	DefaultBucket = "vessel_telemetry"
	Measurement   = "vessel_position"

	retentionSeconds = 60 * 60 * 24 * 90
)

// InfluxConfig holds InfluxDB connection settings.
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

func (c InfluxConfig) url() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// InfluxSink writes samples to InfluxDB, or to a gzip line-protocol backup
// file when the server cannot be reached at connect time.
type InfluxSink struct {
	cfg    InfluxConfig
	log    zerolog.Logger
	client influxdb2.Client
	writer influxdb2_api.WriteAPI

	mu         sync.Mutex
	backupFile *os.File
	backup     *gzip.Writer
	valid      bool
}

// NewInfluxSink creates an unconnected sink.
func NewInfluxSink(cfg InfluxConfig, log zerolog.Logger) *InfluxSink {
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	return &InfluxSink{cfg: cfg, log: log}
}

// Valid reports whether points go to the server rather than the backup file.
func (s *InfluxSink) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid
}

// Connect pings the server and prepares the org, bucket and writer.
func (s *InfluxSink) Connect(ctx context.Context) error {
	if !s.cfg.Enabled {
		return errors.New("influx telemetry is disabled")
	}

	s.client = influxdb2.NewClientWithOptions(s.cfg.url(), s.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	running, err := s.client.Ping(ctx)
	if err != nil || !running {
		s.log.Warn().Err(err).Str("backupPath", s.cfg.BackupPath).
			Msg("InfluxDB unreachable, writing telemetry to backup file")
		return s.openBackup()
	}

	if err := s.setupBucket(ctx); err != nil {
		return err
	}
	s.writer = s.client.WriteAPI(s.cfg.Org, s.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			s.log.Error().Err(writeErr).Str("bucket", s.cfg.Bucket).Msg("Error sending telemetry to InfluxDB")
		}
	}(s.writer.Errors())

	s.mu.Lock()
	s.valid = true
	s.mu.Unlock()
	s.log.Info().Str("bucket", s.cfg.Bucket).Msg("InfluxDB telemetry initialized")
	return nil
}

func (s *InfluxSink) openBackup() error {
	if s.cfg.BackupPath == "" {
		return errors.New("influx unreachable and no backup path configured")
	}
	f, err := os.OpenFile(s.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	s.mu.Lock()
	s.backupFile = f
	s.backup = gzip.NewWriter(f)
	s.mu.Unlock()
	return nil
}

func (s *InfluxSink) setupBucket(ctx context.Context) error {
	orgs := s.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, s.cfg.Org)
	if err != nil {
		s.log.Info().Str("org", s.cfg.Org).Msg("Organization not found, creating")
		if org, err = orgs.CreateOrganizationWithName(ctx, s.cfg.Org); err != nil {
			return fmt.Errorf("create organization %q: %w", s.cfg.Org, err)
		}
	}

	buckets := s.client.BucketsAPI()
	if _, err := buckets.FindBucketByName(ctx, s.cfg.Bucket); err == nil {
		return nil
	}
	s.log.Info().Str("bucket", s.cfg.Bucket).Msg("Bucket not found, creating")
	rule := domain.RetentionRuleTypeExpire
	_, err = buckets.CreateBucketWithName(ctx, org, s.cfg.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: retentionSeconds,
	})
	if err != nil {
		return fmt.Errorf("create bucket %q: %w", s.cfg.Bucket, err)
	}
	return nil
}

// SamplePoint converts a sample to an InfluxDB point.
func SamplePoint(smp Sample) *influxdb2_write.Point {
	return influxdb2.NewPoint(Measurement,
		map[string]string{
			"vessel_id": strconv.Itoa(smp.VesselID),
			"name":      smp.Name,
			"class":     smp.Class,
		},
		map[string]any{
			"x":         smp.X,
			"y":         smp.Y,
			"z":         smp.Z,
			"lon":       smp.Lon,
			"lat":       smp.Lat,
			"heading":   smp.Heading,
			"speed":     smp.Speed,
			"autopilot": smp.Autopilot,
			"docked":    smp.Docked,
			"tick":      smp.Tick,
		},
		smp.Time,
	)
}

func (s *InfluxSink) Publish(ctx context.Context, samples []Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.valid {
		for _, smp := range samples {
			s.writer.WritePoint(SamplePoint(smp))
		}
		return nil
	}
	if s.backup == nil {
		return errors.New("influx client not initialized and backup writer not available")
	}
	for _, smp := range samples {
		line := influxdb2_write.PointToLineProtocol(SamplePoint(smp), time.Nanosecond)
		if _, err := s.backup.Write([]byte(line + "\n")); err != nil {
			return fmt.Errorf("error writing telemetry backup: %w", err)
		}
	}
	return nil
}

// Close flushes pending points and closes the client or backup file.
func (s *InfluxSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer != nil {
		s.writer.Flush()
	}
	if s.client != nil {
		s.client.Close()
	}
	if s.backup == nil {
		return nil
	}
	err := errors.Join(s.backup.Close(), s.backupFile.Close())
	s.backup, s.backupFile = nil, nil
	return err
}
