// Package recorder persists simulation events to SQLite or PostgreSQL
// through gorm. Events are buffered and written in batches.
package recorder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/golangdaddy/trafficsim/config"
	"github.com/golangdaddy/trafficsim/traffic"
)

// Run is one simulation run
type Run struct {
	ID         uint `gorm:"primarykey"`
	CreatedAt  time.Time
	FinishedAt *time.Time
	Network    string `gorm:"size:128"`
	Seed       uint64
	Delta      float64
	Ticks      uint64
	Spawned    int
	Despawned  int
	Admitted   int
}

// EventRecord is one traffic.Event of a run
type EventRecord struct {
	ID          uint    `gorm:"primarykey"`
	RunID       uint    `gorm:"index"`
	Tick        uint64  `gorm:"index"`
	Time        float64
	Kind        string `gorm:"size:32;index"`
	Vehicle     uint64
	VehicleKind string `gorm:"size:8"`
	Lane        int
	Cross       int
	Phase       string `gorm:"size:16"`
}

// ErrNoRun is returned when events are flushed before StartRun
var ErrNoRun = errors.New("no run started")

// Recorder buffers events of the current run and writes them in batches
type Recorder struct {
	db        *gorm.DB
	log       zerolog.Logger
	batchSize int

	mu      sync.Mutex
	run     *Run
	buf     []EventRecord
	failing bool   // Last batch write failed
	dropped uint64 // Events lost to failed writes
}

// Open connects to the database named by cfg and migrates the schema
func Open(cfg config.RecorderConfig, log zerolog.Logger) (*Recorder, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		})
	default:
		return nil, fmt.Errorf("unknown recorder driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        max(cfg.BatchSize, 1),
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	log.Info().Str("driver", cfg.Driver).Msg("connected to recorder database")
	return New(db, cfg.BatchSize, log)
}

// New wraps an open database
func New(db *gorm.DB, batchSize int, log zerolog.Logger) (*Recorder, error) {
	if err := db.AutoMigrate(&Run{}, &EventRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate recorder schema: %w", err)
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Recorder{
		db:        db,
		log:       log,
		batchSize: batchSize,
	}, nil
}

// StartRun creates the run that following events belong to
func (r *Recorder) StartRun(network string, seed uint64, delta float64) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := &Run{Network: network, Seed: seed, Delta: delta}
	if err := r.db.Create(run).Error; err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}
	r.run = run
	r.buf = r.buf[:0]
	return run.ID, nil
}

// OnEvent buffers an event and writes the buffer once it is full. Write
// errors are logged; the simulation keeps going.
func (r *Recorder) OnEvent(e traffic.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.run == nil {
		return
	}

	rec := EventRecord{
		RunID:   r.run.ID,
		Tick:    e.Tick,
		Time:    e.Time,
		Kind:    e.Kind.String(),
		Vehicle: uint64(e.Vehicle),
		Lane:    int(e.Lane),
		Cross:   int(e.Cross),
	}
	if e.Vehicle != traffic.NoVehicle {
		rec.VehicleKind = e.VehicleKind.String()
	}
	if e.Kind == traffic.EventPhaseChanged {
		rec.Phase = e.Phase.String()
	}
	r.buf = append(r.buf, rec)

	if len(r.buf) < r.batchSize {
		return
	}
	n := len(r.buf)
	err := r.flush()
	switch {
	case err != nil:
		r.dropped += uint64(n)
		if !r.failing {
			r.log.Error().Err(err).Int("events", n).Msg("failed to write events, dropping batches until writes succeed")
		}
		r.failing = true
	case r.failing:
		r.log.Warn().Uint64("dropped", r.dropped).Msg("event writes recovered")
		r.failing = false
	}
}

// Dropped returns the number of events lost to failed batch writes
func (r *Recorder) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Flush writes buffered events. The buffer is emptied even when the write
// fails.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush()
}

func (r *Recorder) flush() error {
	if len(r.buf) == 0 {
		return nil
	}
	if r.run == nil {
		return ErrNoRun
	}
	err := r.db.CreateInBatches(r.buf, r.batchSize).Error
	n := len(r.buf)
	r.buf = r.buf[:0]
	if err != nil {
		return fmt.Errorf("failed to insert %d events: %w", n, err)
	}
	return nil
}

// FinishRun flushes and stores the final totals of the run
func (r *Recorder) FinishRun(stats traffic.Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.run == nil {
		return ErrNoRun
	}
	if err := r.flush(); err != nil {
		return err
	}

	now := time.Now().UTC()
	err := r.db.Model(r.run).Updates(map[string]any{
		"finished_at": now,
		"ticks":       stats.Tick,
		"spawned":     stats.Spawned,
		"despawned":   stats.Despawned,
		"admitted":    stats.Admitted,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", r.run.ID, err)
	}
	return nil
}

// Counts returns the number of stored events per kind for a run
func (r *Recorder) Counts(runID uint) (map[string]int64, error) {
	var rows []struct {
		Kind  string
		Count int64
	}
	err := r.db.Model(&EventRecord{}).
		Select("kind, count(*) as count").
		Where("run_id = ?", runID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Kind] = row.Count
	}
	return counts, nil
}

// LoadRun returns a stored run
func (r *Recorder) LoadRun(runID uint) (Run, error) {
	var run Run
	if err := r.db.First(&run, runID).Error; err != nil {
		return run, fmt.Errorf("failed to load run %d: %w", runID, err)
	}
	return run, nil
}

// Close flushes pending events and closes the connection
func (r *Recorder) Close() error {
	flushErr := r.Flush()

	sqlDB, err := r.db.DB()
	if err != nil {
		return errors.Join(flushErr, err)
	}
	return errors.Join(flushErr, sqlDB.Close())
}
