// Package scheduler triggers periodic reminder scans.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
)

// ErrScanInProgress is returned when a scan is requested while another runs.
var ErrScanInProgress = appErrors.New("REMINDER_SCAN_RUNNING", http.StatusConflict, "reminder scan already running")

// Scanner runs one reminder pass and reports how many reminders it wrote.
type Scanner interface {
	RunScan(ctx context.Context) (int, error)
}

type scanRecorder interface {
	RecordReminderScan(outcome string)
}

// Config lists the cron specs and bounds a single scan.
type Config struct {
	Specs    []string
	Timezone string
	Timeout  time.Duration
}

// ReminderScheduler fires the scanner on each cron spec and never lets two scans overlap.
type ReminderScheduler struct {
	scanner Scanner
	engine  *cron.Cron
	cfg     Config
	metrics scanRecorder
	logger  *zap.Logger

	running atomic.Bool
	mu      sync.Mutex
	started bool
}

// New validates the specs and timezone and registers the jobs.
func New(scanner Scanner, cfg Config, metrics scanRecorder, logger *zap.Logger) (*ReminderScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
		}
		loc = l
	}

	s := &ReminderScheduler{
		scanner: scanner,
		engine:  cron.New(cron.WithLocation(loc)),
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
	for _, spec := range cfg.Specs {
		spec := spec
		if _, err := s.engine.AddFunc(spec, func() { s.fire(spec) }); err != nil {
			return nil, fmt.Errorf("add reminder job %q: %w", spec, err)
		}
	}
	return s, nil
}

// Start begins firing scheduled jobs.
func (s *ReminderScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.engine.Start()
	s.started = true
	s.logger.Sugar().Infow("reminder scheduler started", "jobs", len(s.cfg.Specs), "timezone", s.cfg.Timezone)
}

// Stop halts the cron engine and waits for a running scan or ctx.
func (s *ReminderScheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	done := s.engine.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("reminder scheduler stop timed out")
	}
	s.logger.Sugar().Infow("reminder scheduler stopped")
}

// Entries reports the next fire time of each job.
func (s *ReminderScheduler) Entries() []time.Time {
	entries := s.engine.Entries()
	out := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Next)
	}
	return out
}

// RunOnce runs a scan now unless one is already running.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.record("skipped")
		return 0, ErrScanInProgress
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	sent, err := s.scanner.RunScan(ctx)
	if err != nil {
		s.record("failed")
		return sent, err
	}
	s.record("completed")
	return sent, nil
}

func (s *ReminderScheduler) fire(spec string) {
	s.logger.Sugar().Infow("reminder scan triggered", "spec", spec)
	sent, err := s.RunOnce(context.Background())
	switch {
	case errors.Is(err, ErrScanInProgress):
		s.logger.Sugar().Infow("reminder scan skipped, previous run still active", "spec", spec)
	case err != nil:
		s.logger.Sugar().Errorw("reminder scan failed", "spec", spec, "sent", sent, "error", err)
	default:
		s.logger.Sugar().Infow("reminder scan finished", "spec", spec, "sent", sent)
	}
}

func (s *ReminderScheduler) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordReminderScan(outcome)
	}
}
