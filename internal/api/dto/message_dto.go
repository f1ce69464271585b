package dto

import (
	"time"

	"github.com/plumesocial/plume/internal/api/model"
)

// MessageDTO is the wire shape of a chat message. ScheduledTime and TaskID
// are omitted unless the message is in a state that carries them.
type MessageDTO struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	PersonaName    string     `json:"persona_name"`
	Sender         string     `json:"sender"`
	Text           string     `json:"text"`
	ScheduleStatus string     `json:"schedule_status"`
	ScheduledTime  *time.Time `json:"scheduled_time,omitempty"`
	TaskID         *string    `json:"task_id,omitempty"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
}

// MessageFromModel converts a message row to its wire shape
func MessageFromModel(msg *model.Message) MessageDTO {
	out := MessageDTO{
		ID:             msg.ID,
		Username:       msg.Username,
		PersonaName:    msg.PersonaName,
		Sender:         msg.Sender,
		Text:           msg.Text,
		ScheduleStatus: msg.ScheduleStatus,
		CreatedAt:      msg.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      msg.UpdatedAt.Format(time.RFC3339),
	}

	if msg.ScheduledTime.Valid {
		t := msg.ScheduledTime.Time
		out.ScheduledTime = &t
	}

	if msg.TaskID.Valid {
		id := msg.TaskID.String
		out.TaskID = &id
	}

	return out
}

// MessagesFromModels converts a slice of message rows
func MessagesFromModels(msgs []model.Message) []MessageDTO {
	out := make([]MessageDTO, len(msgs))
	for i := range msgs {
		out[i] = MessageFromModel(&msgs[i])
	}
	return out
}

type ChatRequest struct {
	PersonaName string `json:"persona_name" binding:"required"`
	Text        string `json:"text" binding:"required"`
}

type ListMessagesRequest struct {
	PersonaName string `form:"persona_name" binding:"required"`
}
