package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/plumesocial/plume/internal/api/domain"
	"github.com/plumesocial/plume/internal/api/model"
)

// Broker enqueues delivery jobs. A zero delay means immediate dispatch.
type Broker interface {
	PublishJob(ctx context.Context, body []byte, delay time.Duration) error
}

// Store is the subset of the message store the scheduler needs
type Store interface {
	GetMessageByID(ctx context.Context, messageID, username string) (*model.Message, error)
	MarkScheduled(ctx context.Context, messageID, taskID string, scheduledTime time.Time) (*model.Message, error)
	MarkUnscheduledByTaskID(ctx context.Context, taskID, username string) (*model.Message, error)
}

// Scheduler implements the schedule/unschedule boundary operations
type Scheduler struct {
	store  Store
	broker Broker
	logger *slog.Logger
	now    func() time.Time
}

// NewScheduler creates a new Scheduler
func NewScheduler(store Store, broker Broker, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:  store,
		broker: broker,
		logger: logger,
		now:    time.Now,
	}
}

// Schedule enqueues a delivery job for the message at startAt and commits
// the scheduled state. Scheduling is a two-phase operation: the job is
// enqueued first, then the record transition is committed; if the commit
// fails the enqueued job is orphaned on the broker but carries a task id
// the record never adopted, so the worker's pre-delivery check drops it.
func (s *Scheduler) Schedule(ctx context.Context, username, messageID string, startAt time.Time) (*model.Message, error) {
	msg, err := s.store.GetMessageByID(ctx, messageID, username)
	if err != nil {
		return nil, err
	}

	now := s.now()
	taskID := domain.NewTaskID(messageID, now)

	delay := startAt.Sub(now)
	if delay < 0 {
		delay = 0
	}

	payload, err := json.Marshal(domain.JobMessage{
		TaskID:    taskID,
		MessageID: messageID,
		Text:      msg.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job payload: %w", err)
	}

	if err := s.broker.PublishJob(ctx, payload, delay); err != nil {
		return nil, fmt.Errorf("failed to enqueue delivery job: %w", err)
	}

	scheduledTime := startAt
	if delay == 0 {
		scheduledTime = now
	}

	updated, err := s.store.MarkScheduled(ctx, messageID, taskID, scheduledTime)
	if err != nil {
		// Compensating cancel: the record never adopted this task id, so
		// the worker will refuse the job at its pre-delivery check.
		s.logger.Error("Failed to commit scheduled state, enqueued job will be dropped at dispatch",
			slog.String("message_id", messageID),
			slog.String("task_id", taskID),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to commit scheduled state: %w", err)
	}

	s.logger.Info("Message scheduled",
		slog.String("message_id", messageID),
		slog.String("task_id", taskID),
		slog.Time("scheduled_time", scheduledTime),
		slog.Duration("delay", delay),
	)

	return updated, nil
}

// Unschedule cancels the delivery job pinned to taskID and reverts the
// owning message to unscheduled. Cancellation is best-effort: a job that
// has already started executing may still post (the worker checks the task
// id once, immediately before the delivery call).
func (s *Scheduler) Unschedule(ctx context.Context, username, taskID string) (*model.Message, error) {
	updated, err := s.store.MarkUnscheduledByTaskID(ctx, taskID, username)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Message unscheduled",
		slog.String("message_id", updated.ID),
		slog.String("task_id", taskID),
	)

	return updated, nil
}
