package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/plumesocial/plume/internal/api/domain"
	workerdomain "github.com/plumesocial/plume/internal/worker/domain"
)

// setupConsumer sets up the RabbitMQ consumer with QoS and returns the delivery channel
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	channel := w.rabbitClient.GetChannel()
	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is nil")
	}

	// Limit unacknowledged deliveries per consumer so slow nostr relays do
	// not pile up in-flight jobs
	err := channel.Qos(
		w.prefetch, // prefetch count
		0,          // prefetch size
		false,      // global
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	w.logger.Info("RabbitMQ QoS configured",
		slog.Int("prefetch_count", w.prefetch),
	)

	deliveries, err := w.rabbitClient.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", w.workerID),
	)

	return deliveries, nil
}

// startJobDispatcher listens to RabbitMQ deliveries and dispatches parsed
// jobs to the worker pool
func (w *Worker) startJobDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Job dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Job dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			var msg domain.JobMessage
			if err := json.Unmarshal(delivery.Body, &msg); err != nil {
				w.logger.Error("Failed to parse job JSON",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				// NACK without requeue - malformed payloads can never succeed
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed job",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if msg.TaskID == "" || msg.MessageID == "" {
				w.logger.Error("Job missing task_id or message_id",
					slog.String("body", string(delivery.Body)),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK job with missing fields",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			job := &workerdomain.Job{
				TaskID:      msg.TaskID,
				MessageID:   msg.MessageID,
				Text:        msg.Text,
				DeliveryTag: delivery.DeliveryTag,
			}

			select {
			case w.jobsChan <- job:
				w.logger.Debug("Job dispatched to worker pool",
					slog.String("task_id", job.TaskID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Job dispatcher stopped while dispatching job")
				// NACK with requeue so the job survives the shutdown
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK job on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}
