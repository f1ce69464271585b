package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	apidomain "github.com/plumesocial/plume/internal/api/domain"
	"github.com/plumesocial/plume/internal/worker/domain"
)

const reaperBatchSize = 100

// OverdueStore lists scheduled messages whose eta has passed
type OverdueStore interface {
	ListOverdueSchedules(ctx context.Context, cutoff time.Time, limit int) ([]domain.OverdueSchedule, error)
}

// JobBus re-enqueues delivery jobs
type JobBus interface {
	PublishJob(ctx context.Context, body []byte, delay time.Duration) error
}

// Reaper periodically scans for messages still marked scheduled past their
// eta and re-enqueues their jobs. Queue deliveries can be lost across broker
// restarts or dropped on worker crash; the reaper is the backstop that keeps
// delivery at-least-once. Re-enqueued jobs reuse the stored task id, so the
// worker's claim check stays intact and a canceled schedule is never revived.
type Reaper struct {
	logger      *slog.Logger
	storage     OverdueStore
	jobs        JobBus
	schedule    string
	gracePeriod time.Duration
	cron        *cron.Cron
	now         func() time.Time
}

// NewReaper creates a new reaper instance
func NewReaper(logger *slog.Logger, storage OverdueStore, jobs JobBus, schedule string, gracePeriod time.Duration) *Reaper {
	return &Reaper{
		logger:      logger,
		storage:     storage,
		jobs:        jobs,
		schedule:    schedule,
		gracePeriod: gracePeriod,
		cron:        cron.New(),
		now:         time.Now,
	}
}

// Start registers the scan on the cron schedule and starts the scheduler
func (r *Reaper) Start() error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := r.Sweep(ctx); err != nil {
			r.logger.Error("Reaper sweep failed",
				slog.String("error", err.Error()),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register reaper schedule: %w", err)
	}

	r.cron.Start()
	r.logger.Info("Reaper started",
		slog.String("schedule", r.schedule),
		slog.Duration("grace_period", r.gracePeriod),
	)
	return nil
}

// Stop stops the cron scheduler and waits for a running sweep to finish
func (r *Reaper) Stop() {
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	r.logger.Info("Reaper stopped")
}

// Sweep re-enqueues every schedule overdue by more than the grace period.
// The grace period keeps the reaper from racing jobs that are merely in
// flight between the delay queue and a worker.
func (r *Reaper) Sweep(ctx context.Context) error {
	cutoff := r.now().Add(-r.gracePeriod)

	overdue, err := r.storage.ListOverdueSchedules(ctx, cutoff, reaperBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list overdue schedules: %w", err)
	}

	if len(overdue) == 0 {
		return nil
	}

	r.logger.Warn("Found overdue schedules",
		slog.Int("count", len(overdue)),
		slog.Time("cutoff", cutoff),
	)

	var requeued int
	for _, sched := range overdue {
		body, err := json.Marshal(apidomain.JobMessage{
			TaskID:    sched.TaskID,
			MessageID: sched.MessageID,
			Text:      sched.Text,
		})
		if err != nil {
			r.logger.Error("Failed to marshal reaped job",
				slog.String("message_id", sched.MessageID),
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := r.jobs.PublishJob(ctx, body, 0); err != nil {
			r.logger.Error("Failed to re-enqueue overdue schedule",
				slog.String("message_id", sched.MessageID),
				slog.String("task_id", sched.TaskID),
				slog.String("error", err.Error()),
			)
			continue
		}
		requeued++
	}

	r.logger.Info("Reaper sweep completed",
		slog.Int("overdue", len(overdue)),
		slog.Int("requeued", requeued),
	)
	return nil
}
