package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumesocial/plume/internal/api/domain"
	"github.com/plumesocial/plume/internal/api/model"
)

type fakeBroker struct {
	published  []publishedJob
	publishErr error
}

type publishedJob struct {
	body  domain.JobMessage
	delay time.Duration
}

func (b *fakeBroker) PublishJob(_ context.Context, body []byte, delay time.Duration) error {
	if b.publishErr != nil {
		return b.publishErr
	}
	var msg domain.JobMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return err
	}
	b.published = append(b.published, publishedJob{body: msg, delay: delay})
	return nil
}

type fakeStore struct {
	messages     map[string]*model.Message
	markErr      error
	markedTaskID string
	markedTime   time.Time
}

func (s *fakeStore) GetMessageByID(_ context.Context, messageID, username string) (*model.Message, error) {
	msg, ok := s.messages[messageID]
	if !ok || msg.Username != username {
		return nil, domain.ErrMessageNotFound
	}
	return msg, nil
}

func (s *fakeStore) MarkScheduled(_ context.Context, messageID, taskID string, scheduledTime time.Time) (*model.Message, error) {
	if s.markErr != nil {
		return nil, s.markErr
	}
	msg, ok := s.messages[messageID]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	s.markedTaskID = taskID
	s.markedTime = scheduledTime
	updated := *msg
	updated.ScheduleStatus = domain.ScheduleStatusScheduled
	updated.TaskID.String = taskID
	updated.TaskID.Valid = true
	updated.ScheduledTime.Time = scheduledTime
	updated.ScheduledTime.Valid = true
	return &updated, nil
}

func (s *fakeStore) MarkUnscheduledByTaskID(_ context.Context, taskID, username string) (*model.Message, error) {
	for _, msg := range s.messages {
		if msg.TaskID.Valid && msg.TaskID.String == taskID && msg.Username == username {
			updated := *msg
			updated.ScheduleStatus = domain.ScheduleStatusUnscheduled
			updated.TaskID = msg.TaskID
			updated.TaskID.Valid = false
			updated.ScheduledTime.Valid = false
			return &updated, nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestScheduler(store *fakeStore, broker *fakeBroker, now time.Time) *Scheduler {
	s := NewScheduler(store, broker, testLogger())
	s.now = func() time.Time { return now }
	return s
}

func TestScheduler_Schedule(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newStore := func() *fakeStore {
		return &fakeStore{
			messages: map[string]*model.Message{
				"msg-1": {
					ID:       "msg-1",
					Username: "alice",
					Sender:   domain.SenderBot,
					Text:     "hello world",
				},
			},
		}
	}

	t.Run("future start time enqueues with delay", func(t *testing.T) {
		store := newStore()
		broker := &fakeBroker{}
		s := newTestScheduler(store, broker, now)

		startAt := now.Add(90 * time.Minute)
		updated, err := s.Schedule(context.Background(), "alice", "msg-1", startAt)
		require.NoError(t, err)

		require.Len(t, broker.published, 1)
		assert.Equal(t, 90*time.Minute, broker.published[0].delay)
		assert.Equal(t, "msg-1", broker.published[0].body.MessageID)
		assert.Equal(t, "hello world", broker.published[0].body.Text)
		assert.Equal(t, domain.NewTaskID("msg-1", now), broker.published[0].body.TaskID)

		assert.Equal(t, domain.ScheduleStatusScheduled, updated.ScheduleStatus)
		assert.Equal(t, broker.published[0].body.TaskID, updated.TaskID.String)
		assert.Equal(t, startAt, store.markedTime)
	})

	t.Run("past start time dispatches immediately", func(t *testing.T) {
		store := newStore()
		broker := &fakeBroker{}
		s := newTestScheduler(store, broker, now)

		_, err := s.Schedule(context.Background(), "alice", "msg-1", now.Add(-time.Hour))
		require.NoError(t, err)

		require.Len(t, broker.published, 1)
		assert.Equal(t, time.Duration(0), broker.published[0].delay)
		// The recorded eta is now, not the stale requested time
		assert.Equal(t, now, store.markedTime)
	})

	t.Run("unknown message", func(t *testing.T) {
		store := newStore()
		broker := &fakeBroker{}
		s := newTestScheduler(store, broker, now)

		_, err := s.Schedule(context.Background(), "alice", "msg-2", now)
		require.ErrorIs(t, err, domain.ErrMessageNotFound)
		assert.Empty(t, broker.published)
	})

	t.Run("message owned by someone else", func(t *testing.T) {
		store := newStore()
		broker := &fakeBroker{}
		s := newTestScheduler(store, broker, now)

		_, err := s.Schedule(context.Background(), "bob", "msg-1", now)
		require.ErrorIs(t, err, domain.ErrMessageNotFound)
		assert.Empty(t, broker.published)
	})

	t.Run("broker publish failure leaves record untouched", func(t *testing.T) {
		store := newStore()
		broker := &fakeBroker{publishErr: errors.New("broker down")}
		s := newTestScheduler(store, broker, now)

		_, err := s.Schedule(context.Background(), "alice", "msg-1", now.Add(time.Hour))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to enqueue delivery job")
		assert.Empty(t, store.markedTaskID)
	})

	t.Run("commit failure surfaces after enqueue", func(t *testing.T) {
		store := newStore()
		store.markErr = errors.New("db down")
		broker := &fakeBroker{}
		s := newTestScheduler(store, broker, now)

		_, err := s.Schedule(context.Background(), "alice", "msg-1", now.Add(time.Hour))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to commit scheduled state")
		// The job is already on the broker; the record never adopted its
		// task id, so dispatch will drop it
		assert.Len(t, broker.published, 1)
	})
}

func TestScheduler_Unschedule(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	taskID := domain.NewTaskID("msg-1", now)

	store := &fakeStore{
		messages: map[string]*model.Message{
			"msg-1": {
				ID:             "msg-1",
				Username:       "alice",
				ScheduleStatus: domain.ScheduleStatusScheduled,
				TaskID:         sqlNullString(taskID),
			},
		},
	}
	s := newTestScheduler(store, &fakeBroker{}, now)

	t.Run("known task reverts to unscheduled", func(t *testing.T) {
		updated, err := s.Unschedule(context.Background(), "alice", taskID)
		require.NoError(t, err)
		assert.Equal(t, domain.ScheduleStatusUnscheduled, updated.ScheduleStatus)
		assert.False(t, updated.TaskID.Valid)
		assert.False(t, updated.ScheduledTime.Valid)
	})

	t.Run("unknown task", func(t *testing.T) {
		_, err := s.Unschedule(context.Background(), "alice", "post-task-nope-0")
		require.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("task owned by someone else", func(t *testing.T) {
		_, err := s.Unschedule(context.Background(), "bob", taskID)
		require.ErrorIs(t, err, domain.ErrTaskNotFound)
	})
}

func sqlNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
