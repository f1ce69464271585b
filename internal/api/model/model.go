package model

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Message is a chat message row. ScheduledTime and TaskID are set together
// when the message is scheduled and cleared together otherwise; a failed
// message keeps both for audit.
type Message struct {
	ID             string         `db:"id"`
	Username       string         `db:"username"`
	PersonaName    string         `db:"persona_name"`
	Sender         string         `db:"sender"`
	Text           string         `db:"text"`
	ScheduleStatus string         `db:"schedule_status"`
	ScheduledTime  sql.NullTime   `db:"scheduled_time"`
	TaskID         sql.NullString `db:"task_id"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// Persona is an AI persona row owned by its creator
type Persona struct {
	ID                 string         `db:"id"`
	CreatorID          string         `db:"creator_id"`
	Name               string         `db:"name"`
	Age                int            `db:"age"`
	Role               string         `db:"role"`
	Style              string         `db:"style"`
	DomainKnowledge    pq.StringArray `db:"domain_knowledge"`
	Quirks             string         `db:"quirks"`
	Bio                string         `db:"bio"`
	Lore               string         `db:"lore"`
	Personality        string         `db:"personality"`
	ConversationStyle  string         `db:"conversation_style"`
	EmotionalStability float64        `db:"emotional_stability"`
	Friendliness       float64        `db:"friendliness"`
	Creativity         float64        `db:"creativity"`
	Curiosity          float64        `db:"curiosity"`
	Formality          float64        `db:"formality"`
	Empathy            float64        `db:"empathy"`
	Humor              float64        `db:"humor"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

// User is an account row
type User struct {
	Username       string    `db:"username"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
}
