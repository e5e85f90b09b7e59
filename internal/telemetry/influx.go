// Package telemetry exports flight snapshots to InfluxDB.
package telemetry

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"drone-city-sim/internal/config"
	"drone-city-sim/internal/sim"
)

// Measurement is the InfluxDB measurement every snapshot is written to.
const Measurement = "drone"

var (
	ErrDisabled = errors.New("influx exporter is disabled")
	ErrClosed   = errors.New("influx exporter is closed")
)

// Manager handles the InfluxDB connection and writes. When the server cannot be
// reached, points go to a gzip compressed line protocol backup file instead.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Logger       zerolog.Logger

	cfg        config.InfluxConfig
	backupFile *os.File

	// mu guards the writers against Close running alongside Run.
	mu      sync.Mutex
	closed  bool
	written int
}

func NewManager(cfg config.InfluxConfig, log zerolog.Logger) *Manager {
	if cfg.Every <= 0 {
		cfg.Every = 1
	}
	return &Manager{cfg: cfg, Logger: log}
}

// Connect establishes a connection to InfluxDB, falling back to the backup file.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.cfg.URL,
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		if m.BackupWriter == nil {
			m.Logger.Info().Str("backupPath", m.cfg.BackupPath).
				Msg("Failed to initialize InfluxDB client, writing to backup file")

			file, err := os.OpenFile(m.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("error creating backup file: %w", err)
			}
			m.backupFile = file
			m.BackupWriter = gzip.NewWriter(file)
		}
		m.Logger.Warn().Msg("InfluxDB client failed to initialize, using backup writer")
		return nil
	}

	m.IsValid = true
	if err := m.ensureBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) ensureBucket(ctx context.Context) error {
	if _, err := m.Client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err == nil {
		return nil
	}

	org, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.Logger.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
		org, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, m.cfg.Org)
		if err != nil {
			return fmt.Errorf("creating organization %s: %w", m.cfg.Org, err)
		}
	}

	m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")
	rule := domain.RetentionRuleTypeExpire
	_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, org, m.cfg.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: 60 * 60 * 24 * 30,
	})
	if err != nil {
		return fmt.Errorf("creating bucket %s: %w", m.cfg.Bucket, err)
	}
	return nil
}

func (m *Manager) createWriter() {
	m.Writer = m.Client.WriteAPI(m.cfg.Org, m.cfg.Bucket)
	errorsCh := m.Writer.Errors()
	go func() {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}()
}

// Point converts a snapshot into a line protocol point tagged with the flight phase.
func Point(st sim.Snapshot) *influxdb2_write.Point {
	fields := map[string]interface{}{
		"x":        st.Position.X,
		"y":        st.Position.Y,
		"z":        st.Position.Z,
		"altitude": st.Altitude,
		"battery":  st.Battery,
		"wind_kmh": st.WindKmh,
		"lat":      st.Lat,
		"lon":      st.Lon,
		"alert":    st.Alert,
		"tick":     int64(st.Tick),
	}
	if st.HazardDistance >= 0 {
		fields["hazard_distance"] = st.HazardDistance
	}
	if st.Status != "" {
		fields["status"] = st.Status
	}
	return influxdb2.NewPoint(Measurement, map[string]string{"phase": st.Phase}, fields, st.TS)
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writePoint(point)
}

func (m *Manager) writePoint(point *influxdb2_write.Point) error {
	if m.closed {
		return ErrClosed
	}
	if m.IsValid {
		m.Writer.WritePoint(point)
		return nil
	}
	if m.BackupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}

	// PointToLineProtocol already terminates the record with a newline.
	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Run writes every Nth snapshot received on ch until ch closes or ctx ends.
func (m *Manager) Run(ctx context.Context, ch <-chan sim.Snapshot) error {
	n := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-ch:
			if !ok {
				return nil
			}
			n++
			if (n-1)%m.cfg.Every != 0 {
				continue
			}
			m.mu.Lock()
			err := m.writePoint(Point(st))
			if err == nil {
				m.written++
			}
			m.mu.Unlock()
			if errors.Is(err, ErrClosed) {
				return nil
			}
			if err != nil {
				m.Logger.Error().Err(err).Uint64("tick", st.Tick).Msg("Error writing telemetry")
			}
		}
	}
}

// Written is the number of points handed to a writer by Run.
func (m *Manager) Written() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written
}

// Close flushes pending writes. Writes after Close fail with ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}
	if m.BackupWriter != nil {
		if err := m.BackupWriter.Close(); err != nil {
			return fmt.Errorf("closing backup writer: %w", err)
		}
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		if err := m.backupFile.Close(); err != nil {
			return fmt.Errorf("closing backup file: %w", err)
		}
		m.backupFile = nil
	}
	return nil
}
