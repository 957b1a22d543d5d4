package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/toannhu96/gia-vang-365/internal/config"
)

const jobTimeout = 2 * time.Minute

// SnapshotJob persists the current gold price into history.
type SnapshotJob interface {
	RecordSnapshot(ctx context.Context) error
}

// Broadcaster pushes the current prices to every subscribed chat.
type Broadcaster interface {
	Broadcast(ctx context.Context) error
}

// Scheduler runs the periodic snapshot and daily broadcast jobs.
// All specs are evaluated in the configured timezone, so "0 7 * * *"
// means 7AM Hanoi time regardless of the host clock.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func New(cfg config.SchedulerConfig, snapshots SnapshotJob, broadcaster Broadcaster, logger *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone %q: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
	}

	if _, err := s.cron.AddFunc(cfg.SnapshotSpec, s.job("price snapshot", snapshots.RecordSnapshot)); err != nil {
		return nil, fmt.Errorf("register snapshot job: %w", err)
	}

	// The broadcaster is absent when the bot is disabled; the snapshot
	// history still accumulates so the API keeps working.
	if broadcaster != nil {
		if _, err := s.cron.AddFunc(cfg.BroadcastSpec, s.job("price broadcast", broadcaster.Broadcast)); err != nil {
			return nil, fmt.Errorf("register broadcast job: %w", err)
		}
	}

	return s, nil
}

func (s *Scheduler) job(name string, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		s.logger.Info("scheduler: job started", "job", name)
		if err := run(ctx); err != nil {
			s.logger.Error("scheduler: job failed", "job", name, "error", err)
			return
		}
		s.logger.Info("scheduler: job finished", "job", name)
	}
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with jobs still running")
	}
	s.logger.Info("scheduler stopped")
}
