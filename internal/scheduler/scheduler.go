// Package scheduler runs the poll-sync job on an in-process cron
// schedule, so alerts still land in the store when Telegram webhooks are
// not configured (e.g. local development behind NAT).
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// syncTimeout bounds one scheduled sync run; the HTTP request lifecycle
// is not available here to do it for us.
const syncTimeout = 2 * time.Minute

// Scheduler wraps a cron runner around the poll-sync job.
type Scheduler struct {
	cron *cron.Cron
	run  func(ctx context.Context) error
}

// New registers runSync under the given cron expression. An invalid
// expression is a configuration error and is returned to the caller.
func New(schedule string, runSync func(ctx context.Context) error) (*Scheduler, error) {
	s := &Scheduler{cron: cron.New(), run: runSync}

	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		if err := s.run(ctx); err != nil {
			slog.Error("scheduled sync failed", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins executing the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("sync scheduler started")
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("sync scheduler stopped")
}
