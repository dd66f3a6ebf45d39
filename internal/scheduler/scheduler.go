// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper deletes read notifications created before a cutoff.
type Sweeper interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler wraps a seconds-resolution cron.
type Scheduler struct {
	c   *cron.Cron
	log *slog.Logger
	now func() time.Time
}

// New returns a stopped scheduler.
func New(log *slog.Logger) *Scheduler {
	return &Scheduler{
		c:   cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		log: log.With("component", "scheduler"),
		now: time.Now,
	}
}

// AddNotificationCleanup registers the sweep of read notifications older
// than maxAge on the given spec ("0 0 0 * * *" is midnight UTC daily).
func (s *Scheduler) AddNotificationCleanup(spec string, repo Sweeper, maxAge time.Duration) error {
	_, err := s.c.AddFunc(spec, func() { s.cleanup(repo, maxAge) })
	if err != nil {
		return fmt.Errorf("scheduler: add notification cleanup %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) cleanup(repo Sweeper, maxAge time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	cutoff := s.now().UTC().Add(-maxAge)
	n, err := repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("notification cleanup failed", "error", err)
		return
	}
	s.log.Info("notification cleanup", "deleted", n, "cutoff", cutoff)
}

// Start runs the jobs in the background.
func (s *Scheduler) Start() { s.c.Start() }

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.c.Stop().Done():
	case <-ctx.Done():
	}
}
