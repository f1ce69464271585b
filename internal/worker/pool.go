package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/plumesocial/plume/internal/worker/domain"
)

// spawnWorkerPool spawns N worker goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop is the main processing loop for each worker goroutine
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case job, ok := <-w.jobsChan:
			if !ok {
				w.logger.Info("Worker goroutine stopping - jobsChan closed",
					slog.String("worker_name", workerName),
				)
				return
			}

			w.logger.Info("Worker received job",
				slog.String("worker_name", workerName),
				slog.String("task_id", job.TaskID),
				slog.String("message_id", job.MessageID),
			)

			err := w.processJob(ctx, job)

			channel := w.rabbitClient.GetChannel()
			if channel == nil {
				w.logger.Error("Failed to get RabbitMQ channel for ACK/NACK",
					slog.String("worker_name", workerName),
					slog.String("task_id", job.TaskID),
				)
				continue
			}

			if err != nil {
				// A superseded job is a clean drop, not a failure: the
				// schedule it carried was canceled or replaced
				if errors.Is(err, domain.ErrJobSuperseded) {
					w.logger.Info("Job superseded, dropping",
						slog.String("worker_name", workerName),
						slog.String("task_id", job.TaskID),
					)
					if ackErr := channel.Ack(job.DeliveryTag, false); ackErr != nil {
						w.logger.Error("Failed to ACK superseded job",
							slog.String("task_id", job.TaskID),
							slog.String("error", ackErr.Error()),
						)
					}
					continue
				}

				w.logger.Error("Job processing failed",
					slog.String("worker_name", workerName),
					slog.String("task_id", job.TaskID),
					slog.String("error", err.Error()),
				)

				requeue := w.shouldRequeueJob(err)
				if nackErr := channel.Nack(job.DeliveryTag, false, requeue); nackErr != nil {
					w.logger.Error("Failed to NACK job",
						slog.String("task_id", job.TaskID),
						slog.String("error", nackErr.Error()),
					)
				} else {
					w.logger.Info("Job NACKed",
						slog.String("task_id", job.TaskID),
						slog.Bool("requeue", requeue),
					)
				}
			} else {
				if ackErr := channel.Ack(job.DeliveryTag, false); ackErr != nil {
					w.logger.Error("Failed to ACK job",
						slog.String("task_id", job.TaskID),
						slog.String("error", ackErr.Error()),
					)
				} else {
					w.logger.Info("Job completed",
						slog.String("worker_name", workerName),
						slog.String("task_id", job.TaskID),
					)
				}
			}
		}
	}
}

// shouldRequeueJob determines if a job should be requeued based on the error type
func (w *Worker) shouldRequeueJob(err error) bool {
	if errors.Is(err, domain.ErrInvalidPayload) {
		return false
	}

	// Requeue only transient errors that happened before any status event
	// was published
	var retryableErr *domain.RetryableError
	if errors.As(err, &retryableErr) {
		return true
	}

	return false
}
