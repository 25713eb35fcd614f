package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexicycle/pkg/models"
)

const learnerColumns = `id, username, partner_id, language, words_per_day, notification_enabled, notification_hour`

// LearnerRepository handles database operations for learners
type LearnerRepository struct {
	db *sqlx.DB
}

// NewLearnerRepository creates a new repository instance
func NewLearnerRepository(db *sqlx.DB) *LearnerRepository {
	return &LearnerRepository{db: db}
}

// PutLearner inserts a learner or updates the one with the same id
func (r *LearnerRepository) PutLearner(ctx context.Context, l *models.Learner) error {
	query := r.db.Rebind(`
		INSERT INTO learners (` + learnerColumns + `, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			partner_id = excluded.partner_id,
			language = excluded.language,
			words_per_day = excluded.words_per_day,
			notification_enabled = excluded.notification_enabled,
			notification_hour = excluded.notification_hour,
			updated_at = excluded.updated_at
	`)
	ts := now()
	_, err := r.db.ExecContext(ctx, query,
		l.ID,
		l.Username,
		l.PartnerID,
		l.Language,
		l.WordsPerDay,
		l.NotificationEnabled,
		l.NotificationHour,
		ts,
		ts,
	)
	if err != nil {
		return fmt.Errorf("failed to save learner: %w", err)
	}
	return nil
}

// GetLearner returns nil when the learner is unknown
func (r *LearnerRepository) GetLearner(ctx context.Context, id int64) (*models.Learner, error) {
	var l models.Learner
	err := r.db.GetContext(ctx, &l, r.db.Rebind(`SELECT `+learnerColumns+` FROM learners WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learner by ID: %w", err)
	}
	return &l, nil
}

// GetLearnersForNotification returns learners with notifications on at hour
func (r *LearnerRepository) GetLearnersForNotification(ctx context.Context, hour int) ([]models.Learner, error) {
	var learners []models.Learner
	query := r.db.Rebind(`
		SELECT ` + learnerColumns + ` FROM learners
		WHERE notification_enabled = ? AND notification_hour = ?
		ORDER BY id
	`)
	if err := r.db.SelectContext(ctx, &learners, query, true, hour); err != nil {
		return nil, fmt.Errorf("failed to get learners for notification: %w", err)
	}
	return learners, nil
}
