package domain

// Job is a delivery job pulled off the queue, paired with its broker
// delivery tag for ack/nack
type Job struct {
	TaskID      string `json:"task_id"`
	MessageID   string `json:"message_id"`
	Text        string `json:"text"`
	DeliveryTag uint64 `json:"-"`
}

// Delivery is the read-side view of a message the worker consults before
// publishing. The worker never writes message rows; it only checks that the
// schedule it is about to execute is still the live one.
type Delivery struct {
	MessageID      string `db:"id"`
	Text           string `db:"text"`
	ScheduleStatus string `db:"schedule_status"`
	TaskID         string `db:"task_id"`
}

// OverdueSchedule is a scheduled message whose eta passed without an
// observed terminal event, as seen by the reaper
type OverdueSchedule struct {
	MessageID string `db:"id"`
	TaskID    string `db:"task_id"`
	Text      string `db:"text"`
}
