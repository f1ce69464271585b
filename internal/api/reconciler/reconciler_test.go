package reconciler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumesocial/plume/internal/api/domain"
	"github.com/plumesocial/plume/internal/api/dto"
	"github.com/plumesocial/plume/internal/api/model"
)

type fakeStore struct {
	applied  []appliedEvent
	applyErr error
	result   *model.Message
}

type appliedEvent struct {
	messageID string
	status    string
}

func (s *fakeStore) ApplyStatusEvent(_ context.Context, messageID, status string) (*model.Message, error) {
	s.applied = append(s.applied, appliedEvent{messageID: messageID, status: status})
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	return s.result, nil
}

type fakeHub struct {
	broadcasts [][]byte
}

func (h *fakeHub) Broadcast(payload []byte) {
	h.broadcasts = append(h.broadcasts, payload)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func postedMessage() *model.Message {
	return &model.Message{
		ID:             "msg-1",
		Username:       "alice",
		Sender:         domain.SenderBot,
		Text:           "hello",
		ScheduleStatus: domain.ScheduleStatusPosted,
		CreatedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestReconciler_Handle(t *testing.T) {
	t.Run("posted event is applied and broadcast", func(t *testing.T) {
		store := &fakeStore{result: postedMessage()}
		hub := &fakeHub{}
		r := NewReconciler(store, nil, hub, testLogger())

		body, _ := json.Marshal(domain.StatusEvent{MessageID: "msg-1", Status: domain.ScheduleStatusPosted})
		r.handle(context.Background(), body)

		require.Len(t, store.applied, 1)
		assert.Equal(t, "msg-1", store.applied[0].messageID)
		assert.Equal(t, domain.ScheduleStatusPosted, store.applied[0].status)

		require.Len(t, hub.broadcasts, 1)
		var got dto.MessageDTO
		require.NoError(t, json.Unmarshal(hub.broadcasts[0], &got))
		assert.Equal(t, "msg-1", got.ID)
		assert.Equal(t, domain.ScheduleStatusPosted, got.ScheduleStatus)
	})

	t.Run("failed event keeps schedule fields in broadcast", func(t *testing.T) {
		msg := postedMessage()
		msg.ScheduleStatus = domain.ScheduleStatusFailed
		msg.TaskID = sql.NullString{String: "post-task-msg-1-1770000000", Valid: true}
		msg.ScheduledTime = sql.NullTime{Time: msg.CreatedAt, Valid: true}

		store := &fakeStore{result: msg}
		hub := &fakeHub{}
		r := NewReconciler(store, nil, hub, testLogger())

		body, _ := json.Marshal(domain.StatusEvent{MessageID: "msg-1", Status: domain.ScheduleStatusFailed})
		r.handle(context.Background(), body)

		require.Len(t, hub.broadcasts, 1)
		var got dto.MessageDTO
		require.NoError(t, json.Unmarshal(hub.broadcasts[0], &got))
		assert.Equal(t, domain.ScheduleStatusFailed, got.ScheduleStatus)
		require.NotNil(t, got.TaskID)
		assert.Equal(t, "post-task-msg-1-1770000000", *got.TaskID)
	})

	t.Run("malformed event is dropped", func(t *testing.T) {
		store := &fakeStore{result: postedMessage()}
		hub := &fakeHub{}
		r := NewReconciler(store, nil, hub, testLogger())

		r.handle(context.Background(), []byte("{not json"))

		assert.Empty(t, store.applied)
		assert.Empty(t, hub.broadcasts)
	})

	t.Run("unknown outcome is dropped", func(t *testing.T) {
		store := &fakeStore{result: postedMessage()}
		hub := &fakeHub{}
		r := NewReconciler(store, nil, hub, testLogger())

		body, _ := json.Marshal(domain.StatusEvent{MessageID: "msg-1", Status: "scheduled"})
		r.handle(context.Background(), body)

		assert.Empty(t, store.applied)
		assert.Empty(t, hub.broadcasts)
	})

	t.Run("event for deleted message is dropped silently", func(t *testing.T) {
		store := &fakeStore{applyErr: domain.ErrMessageNotFound}
		hub := &fakeHub{}
		r := NewReconciler(store, nil, hub, testLogger())

		body, _ := json.Marshal(domain.StatusEvent{MessageID: "msg-gone", Status: domain.ScheduleStatusPosted})
		r.handle(context.Background(), body)

		assert.Len(t, store.applied, 1)
		assert.Empty(t, hub.broadcasts)
	})

	t.Run("store failure does not broadcast", func(t *testing.T) {
		store := &fakeStore{applyErr: errors.New("db down")}
		hub := &fakeHub{}
		r := NewReconciler(store, nil, hub, testLogger())

		body, _ := json.Marshal(domain.StatusEvent{MessageID: "msg-1", Status: domain.ScheduleStatusPosted})
		r.handle(context.Background(), body)

		assert.Empty(t, hub.broadcasts)
	})
}

// fakeSubscriber hands out a fresh delivery channel on every subscription and
// publishes each channel to subscribed so the test can drive the stream.
type fakeSubscriber struct {
	subscribed chan chan amqp.Delivery
}

func (s *fakeSubscriber) ConsumeStatus(string) (<-chan amqp.Delivery, error) {
	ch := make(chan amqp.Delivery, 1)
	s.subscribed <- ch
	return ch, nil
}

// signalHub records broadcasts and signals notify after each one, so the test
// can wait for an event to be fully processed before moving on.
type signalHub struct {
	mu         sync.Mutex
	broadcasts [][]byte
	notify     chan struct{}
}

func (h *signalHub) Broadcast(payload []byte) {
	h.mu.Lock()
	h.broadcasts = append(h.broadcasts, payload)
	h.mu.Unlock()
	h.notify <- struct{}{}
}

func TestReconciler_Run_ResubscribesAfterStreamLoss(t *testing.T) {
	store := &fakeStore{result: postedMessage()}
	hub := &signalHub{notify: make(chan struct{}, 4)}
	sub := &fakeSubscriber{subscribed: make(chan chan amqp.Delivery, 2)}
	r := NewReconciler(store, sub, hub, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	waitTimeout := 5 * time.Second

	var stream chan amqp.Delivery
	select {
	case stream = <-sub.subscribed:
	case <-time.After(waitTimeout):
		t.Fatal("reconciler never subscribed")
	}

	body, _ := json.Marshal(domain.StatusEvent{MessageID: "msg-1", Status: domain.ScheduleStatusPosted})
	stream <- amqp.Delivery{Body: body}
	select {
	case <-hub.notify:
	case <-time.After(waitTimeout):
		t.Fatal("first event was never broadcast")
	}

	// Simulate the broker dropping the subscription
	close(stream)

	select {
	case stream = <-sub.subscribed:
	case <-time.After(waitTimeout):
		t.Fatal("reconciler did not resubscribe after the stream closed")
	}

	stream <- amqp.Delivery{Body: body}
	select {
	case <-hub.notify:
	case <-time.After(waitTimeout):
		t.Fatal("event after resubscription was never broadcast")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("reconciler did not stop on context cancellation")
	}

	assert.Len(t, store.applied, 2)
	assert.Len(t, hub.broadcasts, 2)
}
