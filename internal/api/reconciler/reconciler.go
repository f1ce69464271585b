package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/plumesocial/plume/internal/api/domain"
	"github.com/plumesocial/plume/internal/api/dto"
	"github.com/plumesocial/plume/internal/api/model"
)

// resubscribeDelay is how long the loop sleeps after losing its event
// subscription before trying again
const resubscribeDelay = time.Second

// Store applies terminal outcomes to message records
type Store interface {
	ApplyStatusEvent(ctx context.Context, messageID, status string) (*model.Message, error)
}

// Broadcaster fans a payload out to live client connections
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Subscriber yields the stream of status events from the event bus
type Subscriber interface {
	ConsumeStatus(consumerTag string) (<-chan amqp.Delivery, error)
}

// Reconciler subscribes to the status event bus, applies each terminal
// outcome to the persisted record, and forwards the updated record to the
// connection fan-out. A single malformed or stale event never terminates
// the loop.
type Reconciler struct {
	store      Store
	subscriber Subscriber
	hub        Broadcaster
	logger     *slog.Logger
}

// NewReconciler creates a new Reconciler
func NewReconciler(store Store, subscriber Subscriber, hub Broadcaster, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:      store,
		subscriber: subscriber,
		hub:        hub,
		logger:     logger,
	}
}

// Run consumes status events until ctx is canceled. If the delivery channel
// closes it sleeps briefly and resubscribes.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info("Status reconciler started")

	for {
		deliveries, err := r.subscriber.ConsumeStatus("status-reconciler")
		if err != nil {
			r.logger.Error("Failed to subscribe to status events, retrying",
				slog.Any("error", err),
			)
			select {
			case <-ctx.Done():
				r.logger.Info("Status reconciler stopped")
				return
			case <-time.After(resubscribeDelay):
				continue
			}
		}

		if !r.consume(ctx, deliveries) {
			r.logger.Info("Status reconciler stopped")
			return
		}

		r.logger.Warn("Status event stream closed, resubscribing")
		select {
		case <-ctx.Done():
			r.logger.Info("Status reconciler stopped")
			return
		case <-time.After(resubscribeDelay):
		}
	}
}

// consume drains deliveries until the channel closes (returns true) or the
// context is canceled (returns false)
func (r *Reconciler) consume(ctx context.Context, deliveries <-chan amqp.Delivery) bool {
	for {
		select {
		case <-ctx.Done():
			return false

		case delivery, ok := <-deliveries:
			if !ok {
				return true
			}
			r.handle(ctx, delivery.Body)
		}
	}
}

// handle applies a single status event. Errors are absorbed: stale events
// are dropped silently, everything else is logged and the loop continues.
func (r *Reconciler) handle(ctx context.Context, body []byte) {
	var event domain.StatusEvent
	if err := json.Unmarshal(body, &event); err != nil {
		r.logger.Error("Failed to parse status event",
			slog.String("body", string(body)),
			slog.Any("error", err),
		)
		return
	}

	if event.Status != domain.ScheduleStatusPosted && event.Status != domain.ScheduleStatusFailed {
		r.logger.Error("Status event with unknown outcome",
			slog.String("message_id", event.MessageID),
			slog.String("status", event.Status),
		)
		return
	}

	updated, err := r.store.ApplyStatusEvent(ctx, event.MessageID, event.Status)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			// Record deleted concurrently - the event is stale, drop it
			r.logger.Debug("Dropping status event for deleted message",
				slog.String("message_id", event.MessageID),
			)
			return
		}
		r.logger.Error("Failed to apply status event",
			slog.String("message_id", event.MessageID),
			slog.String("status", event.Status),
			slog.Any("error", err),
		)
		return
	}

	r.logger.Info("Status event reconciled",
		slog.String("message_id", updated.ID),
		slog.String("status", updated.ScheduleStatus),
	)

	payload, err := json.Marshal(dto.MessageFromModel(updated))
	if err != nil {
		r.logger.Error("Failed to marshal reconciled message",
			slog.String("message_id", updated.ID),
			slog.Any("error", err),
		)
		return
	}

	r.hub.Broadcast(payload)
}
