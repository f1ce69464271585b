package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/plumesocial/plume/internal/worker/domain"
)

// Storage handles all database reads for the worker service. The worker
// never mutates message rows; state transitions belong to the API service
// and its status reconciler.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// GetDelivery returns the live schedule view of a message, or nil if the
// message no longer exists
func (s *Storage) GetDelivery(ctx context.Context, messageID string) (*domain.Delivery, error) {
	query := `
		SELECT id, text, schedule_status, COALESCE(task_id, '') AS task_id
		FROM messages
		WHERE id = $1
	`

	var d domain.Delivery
	err := s.db.GetContext(ctx, &d, query, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}

	return &d, nil
}

// ListOverdueSchedules returns messages still marked scheduled whose eta
// passed before the cutoff. These are jobs whose queue delivery was lost
// (broker restart, crashed worker before publishing an outcome) and need
// to be re-enqueued under their original task id.
func (s *Storage) ListOverdueSchedules(ctx context.Context, cutoff time.Time, limit int) ([]domain.OverdueSchedule, error) {
	query := `
		SELECT id, task_id, text
		FROM messages
		WHERE schedule_status = 'scheduled'
		  AND scheduled_time < $1
		ORDER BY scheduled_time ASC
		LIMIT $2
	`

	var overdue []domain.OverdueSchedule
	err := s.db.SelectContext(ctx, &overdue, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue schedules: %w", err)
	}

	return overdue, nil
}
