package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	apidomain "github.com/plumesocial/plume/internal/api/domain"
	"github.com/plumesocial/plume/internal/worker/domain"
)

// processJob executes a single delivery job. It re-reads the message row
// before touching the network: the schedule recorded there must still name
// this job's task id, otherwise the job was canceled or replaced while it
// sat in the queue and is dropped without side effects. After the outbound
// post, exactly one terminal status event is published per job.
func (w *Worker) processJob(ctx context.Context, job *domain.Job) error {
	w.logger.Info("Processing job",
		slog.String("task_id", job.TaskID),
		slog.String("message_id", job.MessageID),
	)

	delivery, err := w.storage.GetDelivery(ctx, job.MessageID)
	if err != nil {
		// Read failure happens before any side effect, so a requeue is safe
		return domain.NewRetryableError(fmt.Errorf("failed to load message: %w", err))
	}

	if delivery == nil {
		w.logger.Warn("Message no longer exists",
			slog.String("message_id", job.MessageID),
		)
		return domain.ErrJobSuperseded
	}

	if delivery.ScheduleStatus != apidomain.ScheduleStatusScheduled || delivery.TaskID != job.TaskID {
		w.logger.Info("Schedule no longer matches job",
			slog.String("task_id", job.TaskID),
			slog.String("live_task_id", delivery.TaskID),
			slog.String("schedule_status", delivery.ScheduleStatus),
		)
		return domain.ErrJobSuperseded
	}

	// The stored text is authoritative; the queued copy may predate an edit
	text := delivery.Text

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	publishErr := w.publisher.Publish(jobCtx, text)

	status := apidomain.ScheduleStatusPosted
	if publishErr != nil {
		status = apidomain.ScheduleStatusFailed
		w.logger.Error("Failed to publish note",
			slog.String("task_id", job.TaskID),
			slog.String("message_id", job.MessageID),
			slog.String("error", publishErr.Error()),
		)
	}

	if err := w.publishStatusEvent(ctx, job.MessageID, status); err != nil {
		// The outbound post already happened (or terminally failed), so a
		// requeue would double-post. Log loudly and ack; the reconciler
		// will not see this message again until the reaper re-enqueues it.
		w.logger.Error("Failed to publish status event",
			slog.String("task_id", job.TaskID),
			slog.String("message_id", job.MessageID),
			slog.String("status", status),
			slog.String("error", err.Error()),
		)
	}

	if publishErr != nil {
		w.logger.Info("Job resolved as failed",
			slog.String("task_id", job.TaskID),
			slog.String("message_id", job.MessageID),
		)
	}

	// Both outcomes are terminal for this job; the status event carries the
	// result, so the queue message is always acked
	return nil
}

// publishStatusEvent emits a terminal status event onto the status exchange
func (w *Worker) publishStatusEvent(ctx context.Context, messageID, status string) error {
	event := apidomain.StatusEvent{
		MessageID: messageID,
		Status:    status,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	return w.events.PublishStatusWithRetry(ctx, body)
}
