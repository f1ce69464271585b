package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/plumesocial/plume/internal/api/domain"
	"github.com/plumesocial/plume/internal/api/model"
	"github.com/plumesocial/plume/shared/postgresql"
)

const messageColumns = `
	id, username, persona_name, sender, text,
	schedule_status, scheduled_time, task_id, created_at, updated_at
`

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// --- Messages ---

func (s *Storage) CreateMessage(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (
			id, username, persona_name, sender, text,
			schedule_status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		msg.ID,
		msg.Username,
		msg.PersonaName,
		msg.Sender,
		msg.Text,
		msg.ScheduleStatus,
		msg.CreatedAt,
		msg.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

func (s *Storage) GetMessageByID(ctx context.Context, messageID, username string) (*model.Message, error) {
	var msg model.Message
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE id = $1 AND username = $2
	`

	err := s.db.GetContext(ctx, &msg, query, messageID, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &msg, nil
}

func (s *Storage) ListMessages(ctx context.Context, username, personaName string) ([]model.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE username = $1 AND persona_name = $2 AND sender = $3
		ORDER BY created_at ASC
	`

	var messages []model.Message
	err := s.db.SelectContext(ctx, &messages, query, username, personaName, domain.SenderBot)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// MarkScheduled transitions a message to scheduled, pinning the task id and
// the schedule time in the same atomic update. The database row is the
// commit point of the schedule operation. No schedule_status guard here:
// re-scheduling a posted or failed message is allowed and adopts the new
// task id, which supersedes any earlier job at delivery time.
func (s *Storage) MarkScheduled(ctx context.Context, messageID, taskID string, scheduledTime time.Time) (*model.Message, error) {
	query := `
		UPDATE messages
		SET schedule_status = $1,
		    scheduled_time = $2,
		    task_id = $3,
		    updated_at = NOW()
		WHERE id = $4
		RETURNING ` + messageColumns

	var msg model.Message
	err := s.db.GetContext(ctx, &msg, query, domain.ScheduleStatusScheduled, scheduledTime, taskID, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to mark message scheduled: %w", err)
	}

	return &msg, nil
}

// MarkUnscheduledByTaskID reverts a scheduled message to unscheduled,
// clearing both schedule fields. Clearing task_id is also the cancellation
// primitive: a worker that later receives the job for this task id will
// find no matching scheduled message and drop it.
func (s *Storage) MarkUnscheduledByTaskID(ctx context.Context, taskID, username string) (*model.Message, error) {
	query := `
		UPDATE messages
		SET schedule_status = $1,
		    scheduled_time = NULL,
		    task_id = NULL,
		    updated_at = NOW()
		WHERE task_id = $2 AND username = $3
		RETURNING ` + messageColumns

	var msg model.Message
	err := s.db.GetContext(ctx, &msg, query, domain.ScheduleStatusUnscheduled, taskID, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to unschedule message: %w", err)
	}

	return &msg, nil
}

// ApplyStatusEvent applies a terminal outcome to a message and returns the
// post-update row. A posted outcome clears scheduled_time and task_id; a
// failed outcome keeps both for audit.
func (s *Storage) ApplyStatusEvent(ctx context.Context, messageID, status string) (*model.Message, error) {
	var query string
	switch status {
	case domain.ScheduleStatusPosted:
		query = `
			UPDATE messages
			SET schedule_status = $1,
			    scheduled_time = NULL,
			    task_id = NULL,
			    updated_at = NOW()
			WHERE id = $2
			RETURNING ` + messageColumns
	case domain.ScheduleStatusFailed:
		query = `
			UPDATE messages
			SET schedule_status = $1,
			    updated_at = NOW()
			WHERE id = $2
			RETURNING ` + messageColumns
	default:
		return nil, fmt.Errorf("unknown status event outcome: %q", status)
	}

	var msg model.Message
	err := s.db.GetContext(ctx, &msg, query, status, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to apply status event: %w", err)
	}

	return &msg, nil
}

// --- Personas ---

const personaColumns = `
	id, creator_id, name, age, role, style, domain_knowledge,
	quirks, bio, lore, personality, conversation_style,
	emotional_stability, friendliness, creativity, curiosity,
	formality, empathy, humor, created_at, updated_at
`

func (s *Storage) CreatePersona(ctx context.Context, p *model.Persona) error {
	query := `
		INSERT INTO personas (
			id, creator_id, name, age, role, style, domain_knowledge,
			quirks, bio, lore, personality, conversation_style,
			emotional_stability, friendliness, creativity, curiosity,
			formality, empathy, humor, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $18, $19, $20, $21
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		p.ID, p.CreatorID, p.Name, p.Age, p.Role, p.Style, pq.Array(p.DomainKnowledge),
		p.Quirks, p.Bio, p.Lore, p.Personality, p.ConversationStyle,
		p.EmotionalStability, p.Friendliness, p.Creativity, p.Curiosity,
		p.Formality, p.Empathy, p.Humor, p.CreatedAt, p.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create persona: %w", err)
	}

	return nil
}

func (s *Storage) ListPersonas(ctx context.Context, creatorID string) ([]model.Persona, error) {
	query := `
		SELECT ` + personaColumns + `
		FROM personas
		WHERE creator_id = $1
		ORDER BY created_at ASC
	`

	var personas []model.Persona
	err := s.db.SelectContext(ctx, &personas, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}

	return personas, nil
}

// GetPersonaByName returns the caller's persona with the given name. One
// user can have at most one persona of a given name.
func (s *Storage) GetPersonaByName(ctx context.Context, name, creatorID string) (*model.Persona, error) {
	var p model.Persona
	query := `
		SELECT ` + personaColumns + `
		FROM personas
		WHERE name = $1 AND creator_id = $2
	`

	err := s.db.GetContext(ctx, &p, query, name, creatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPersonaNotFound
		}
		return nil, fmt.Errorf("failed to get persona: %w", err)
	}

	return &p, nil
}

func (s *Storage) UpdatePersona(ctx context.Context, p *model.Persona) (*model.Persona, error) {
	query := `
		UPDATE personas
		SET age = $1, role = $2, style = $3, domain_knowledge = $4,
		    quirks = $5, bio = $6, lore = $7, personality = $8,
		    conversation_style = $9, emotional_stability = $10,
		    friendliness = $11, creativity = $12, curiosity = $13,
		    formality = $14, empathy = $15, humor = $16,
		    updated_at = NOW()
		WHERE name = $17 AND creator_id = $18
		RETURNING ` + personaColumns

	var updated model.Persona
	err := s.db.GetContext(
		ctx, &updated, query,
		p.Age, p.Role, p.Style, pq.Array(p.DomainKnowledge),
		p.Quirks, p.Bio, p.Lore, p.Personality,
		p.ConversationStyle, p.EmotionalStability,
		p.Friendliness, p.Creativity, p.Curiosity,
		p.Formality, p.Empathy, p.Humor,
		p.Name, p.CreatorID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPersonaNotFound
		}
		return nil, fmt.Errorf("failed to update persona: %w", err)
	}

	return &updated, nil
}

func (s *Storage) DeletePersona(ctx context.Context, personaID, creatorID string) error {
	query := `
		DELETE FROM personas
		WHERE id = $1 AND creator_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, personaID, creatorID)
	if err != nil {
		return fmt.Errorf("failed to delete persona: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrPersonaNotFound
	}

	return nil
}

// --- Users ---

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (username, hashed_password, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := s.db.ExecContext(ctx, query, user.Username, user.HashedPassword, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return domain.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	query := `
		SELECT username, hashed_password, created_at
		FROM users
		WHERE username = $1
	`

	err := s.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
