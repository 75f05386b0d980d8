// Package scheduler runs the periodic re-evaluation of dynamic groups.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ajg707/laurx-portal/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Refresher re-evaluates every dynamic group and reports how many were refreshed.
type Refresher interface {
	RefreshDynamicGroups(ctx context.Context) (int, error)
}

// Scheduler manages the refresh job.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	log       *logger.Logger
	schedule  string
	timeout   time.Duration
}

// New builds the scheduler. Jobs never overlap: a run still in progress
// makes the next tick skip.
func New(refresher Refresher, log *logger.Logger, schedule string, timeout time.Duration) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	log = log.Component("scheduler")
	cronLogger := cron.PrintfLogger(log)
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))
	return &Scheduler{
		cron:      c,
		refresher: refresher,
		log:       log,
		schedule:  schedule,
		timeout:   timeout,
	}
}

// Start registers the refresh job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return fmt.Errorf("schedule group refresh %q: %w", s.schedule, err)
	}
	s.log.Info().Str("schedule", s.schedule).Msg("scheduled dynamic group refresh")
	s.cron.Start()
	return nil
}

// Stop stops the cron loop; the returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.refresher.RefreshDynamicGroups(ctx)
	if err != nil {
		s.log.Error().Err(err).Int("refreshed", n).Msg("dynamic group refresh failed")
		return
	}
	s.log.Info().Int("refreshed", n).Dur("took", time.Since(start)).Msg("dynamic groups refreshed")
}
