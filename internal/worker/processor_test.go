package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apidomain "github.com/plumesocial/plume/internal/api/domain"
	"github.com/plumesocial/plume/internal/worker/domain"
)

type fakeDeliveryStore struct {
	delivery *domain.Delivery
	err      error
}

func (s *fakeDeliveryStore) GetDelivery(context.Context, string) (*domain.Delivery, error) {
	return s.delivery, s.err
}

type fakePublisher struct {
	published []string
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, content string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, content)
	return nil
}

type fakeEventBus struct {
	events []apidomain.StatusEvent
	err    error
}

func (b *fakeEventBus) PublishStatusWithRetry(_ context.Context, body []byte) error {
	if b.err != nil {
		return b.err
	}
	var event apidomain.StatusEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return err
	}
	b.events = append(b.events, event)
	return nil
}

func newTestWorker(store *fakeDeliveryStore, pub *fakePublisher, bus *fakeEventBus) *Worker {
	return &Worker{
		logger:     slog.New(slog.DiscardHandler),
		storage:    store,
		events:     bus,
		publisher:  pub,
		jobTimeout: time.Second,
	}
}

func scheduledDelivery(taskID string) *domain.Delivery {
	return &domain.Delivery{
		MessageID:      "msg-1",
		Text:           "stored text",
		ScheduleStatus: apidomain.ScheduleStatusScheduled,
		TaskID:         taskID,
	}
}

func testJob(taskID string) *domain.Job {
	return &domain.Job{
		TaskID:    taskID,
		MessageID: "msg-1",
		Text:      "queued text",
	}
}

func TestWorker_ProcessJob(t *testing.T) {
	const taskID = "post-task-msg-1-1770000000"

	t.Run("successful post emits exactly one posted event", func(t *testing.T) {
		store := &fakeDeliveryStore{delivery: scheduledDelivery(taskID)}
		pub := &fakePublisher{}
		bus := &fakeEventBus{}
		w := newTestWorker(store, pub, bus)

		err := w.processJob(context.Background(), testJob(taskID))
		require.NoError(t, err)

		// The stored text wins over the queued copy
		require.Len(t, pub.published, 1)
		assert.Equal(t, "stored text", pub.published[0])

		require.Len(t, bus.events, 1)
		assert.Equal(t, "msg-1", bus.events[0].MessageID)
		assert.Equal(t, apidomain.ScheduleStatusPosted, bus.events[0].Status)
	})

	t.Run("publish failure emits exactly one failed event and acks", func(t *testing.T) {
		store := &fakeDeliveryStore{delivery: scheduledDelivery(taskID)}
		pub := &fakePublisher{err: errors.New("all relays rejected")}
		bus := &fakeEventBus{}
		w := newTestWorker(store, pub, bus)

		err := w.processJob(context.Background(), testJob(taskID))
		require.NoError(t, err)

		require.Len(t, bus.events, 1)
		assert.Equal(t, apidomain.ScheduleStatusFailed, bus.events[0].Status)
	})

	t.Run("canceled schedule is superseded", func(t *testing.T) {
		delivery := scheduledDelivery("")
		delivery.ScheduleStatus = apidomain.ScheduleStatusUnscheduled
		store := &fakeDeliveryStore{delivery: delivery}
		pub := &fakePublisher{}
		bus := &fakeEventBus{}
		w := newTestWorker(store, pub, bus)

		err := w.processJob(context.Background(), testJob(taskID))
		require.ErrorIs(t, err, domain.ErrJobSuperseded)

		assert.Empty(t, pub.published)
		assert.Empty(t, bus.events)
	})

	t.Run("rescheduled message drops the stale job", func(t *testing.T) {
		store := &fakeDeliveryStore{delivery: scheduledDelivery("post-task-msg-1-1770000999")}
		pub := &fakePublisher{}
		bus := &fakeEventBus{}
		w := newTestWorker(store, pub, bus)

		err := w.processJob(context.Background(), testJob(taskID))
		require.ErrorIs(t, err, domain.ErrJobSuperseded)
		assert.Empty(t, pub.published)
	})

	t.Run("deleted message drops the job", func(t *testing.T) {
		store := &fakeDeliveryStore{delivery: nil}
		pub := &fakePublisher{}
		bus := &fakeEventBus{}
		w := newTestWorker(store, pub, bus)

		err := w.processJob(context.Background(), testJob(taskID))
		require.ErrorIs(t, err, domain.ErrJobSuperseded)
		assert.Empty(t, pub.published)
	})

	t.Run("store read failure is retryable", func(t *testing.T) {
		store := &fakeDeliveryStore{err: errors.New("connection refused")}
		pub := &fakePublisher{}
		bus := &fakeEventBus{}
		w := newTestWorker(store, pub, bus)

		err := w.processJob(context.Background(), testJob(taskID))
		require.Error(t, err)

		var retryable *domain.RetryableError
		assert.ErrorAs(t, err, &retryable)
		assert.Empty(t, pub.published)
		assert.Empty(t, bus.events)
	})

	t.Run("status event failure after post still acks", func(t *testing.T) {
		store := &fakeDeliveryStore{delivery: scheduledDelivery(taskID)}
		pub := &fakePublisher{}
		bus := &fakeEventBus{err: errors.New("broker down")}
		w := newTestWorker(store, pub, bus)

		// Requeueing here would double-post; the reaper picks up the gap
		err := w.processJob(context.Background(), testJob(taskID))
		require.NoError(t, err)
		assert.Len(t, pub.published, 1)
	})
}

func TestWorker_ShouldRequeueJob(t *testing.T) {
	w := &Worker{logger: slog.New(slog.DiscardHandler)}

	assert.True(t, w.shouldRequeueJob(domain.NewRetryableError(errors.New("timeout"))))
	assert.False(t, w.shouldRequeueJob(domain.ErrInvalidPayload))
	assert.False(t, w.shouldRequeueJob(errors.New("unknown")))
}
