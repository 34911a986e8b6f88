// Package scheduler runs background reconciliation on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DefaultSpec    = "@every 5m"
	defaultTimeout = 2 * time.Minute
)

// Syncer is the job target.
type Syncer interface {
	SyncNow(ctx context.Context) error
}

// Scheduler manages the periodic sync job.
type Scheduler struct {
	cron    *cron.Cron
	syncer  Syncer
	spec    string
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a scheduler. An empty spec means DefaultSpec; runs that overlap
// a still-running sync are skipped.
func New(spec string, timeout time.Duration, s Syncer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec == "" {
		spec = DefaultSpec
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))

	return &Scheduler{
		cron:    c,
		syncer:  s,
		spec:    spec,
		timeout: timeout,
		logger:  logger.Named("scheduler"),
	}
}

// Start schedules the job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runSync); err != nil {
		return fmt.Errorf("schedule sync %q: %w", s.spec, err)
	}
	s.logger.Info("starting scheduler", zap.String("spec", s.spec))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runSync() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.syncer.SyncNow(ctx); err != nil {
		s.logger.Warn("background sync failed", zap.Error(err), zap.Duration("dur", time.Since(start)))
		return
	}
	s.logger.Info("background sync done", zap.Duration("dur", time.Since(start)))
}
