package domain

import (
	"errors"
	"fmt"
	"time"
)

// Schedule status constants. A message starts unscheduled, moves to
// scheduled when a delivery job is enqueued for it, and ends in posted or
// failed when the worker reports the outcome. Posted and failed are
// terminal; unscheduled is reachable again only via an explicit unschedule
// of a scheduled message.
const (
	ScheduleStatusUnscheduled = "unscheduled"
	ScheduleStatusScheduled   = "scheduled"
	ScheduleStatusPosted      = "posted"
	ScheduleStatusFailed      = "failed"
)

// Sender constants for chat messages
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

var (
	// ErrMessageNotFound is returned when a message does not exist or is
	// not owned by the caller
	ErrMessageNotFound = errors.New("message not found")

	// ErrTaskNotFound is returned when no scheduled message is pinned to
	// the given task id for the caller
	ErrTaskNotFound = errors.New("scheduled task not found")

	// ErrPersonaNotFound is returned when a persona does not exist or is
	// not owned by the caller
	ErrPersonaNotFound = errors.New("persona not found")

	// ErrUserExists is returned when registering an already taken username
	ErrUserExists = errors.New("username already registered")

	// ErrUserNotFound is returned when a user lookup misses
	ErrUserNotFound = errors.New("user not found")
)

// NewTaskID builds the task identifier for a delivery job. Embedding the
// message id and the schedule time keeps the id unique across re-schedules
// of the same message.
func NewTaskID(messageID string, now time.Time) string {
	return fmt.Sprintf("post-task-%s-%d", messageID, now.Unix())
}

// StatusEvent is the transient message workers publish on the event bus
// when a delivery job reaches a terminal outcome. It is not persisted.
type StatusEvent struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"` // posted or failed
}

// JobMessage is the payload of a delivery job on the queue
type JobMessage struct {
	TaskID    string `json:"task_id"`
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}
