package dto

import "time"

// ScheduleRequest asks for a message to be published at StartDate. A
// StartDate at or before now means immediate publication.
type ScheduleRequest struct {
	MessageID string    `json:"message_id" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
}
