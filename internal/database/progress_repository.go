package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexicycle/pkg/models"
)

const progressColumns = `id, learner_id, word_id, cycle_id, ease_factor, interval_days, repetitions,
	next_due_date, last_reviewed_at, last_quality, times_reviewed, created_at, updated_at`

// ProgressRepository handles database operations for learner progress
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// GetProgress returns nil when the word was never reviewed in the cycle
func (r *ProgressRepository) GetProgress(ctx context.Context, learnerID, wordID, cycleID int64) (*models.ProgressRecord, error) {
	var p models.ProgressRecord
	query := r.db.Rebind(`SELECT ` + progressColumns + ` FROM progress WHERE learner_id = ? AND word_id = ? AND cycle_id = ?`)
	err := r.db.GetContext(ctx, &p, query, learnerID, wordID, cycleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return &p, nil
}

// UpsertProgress inserts the record or updates the one with the same
// learner, word and cycle in place
func (r *ProgressRepository) UpsertProgress(ctx context.Context, p *models.ProgressRecord) error {
	ts := now()
	query := `
		INSERT INTO progress (
			learner_id, word_id, cycle_id, ease_factor, interval_days, repetitions,
			next_due_date, last_reviewed_at, last_quality, times_reviewed, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, word_id, cycle_id) DO UPDATE SET
			ease_factor = excluded.ease_factor,
			interval_days = excluded.interval_days,
			repetitions = excluded.repetitions,
			next_due_date = excluded.next_due_date,
			last_reviewed_at = excluded.last_reviewed_at,
			last_quality = excluded.last_quality,
			times_reviewed = excluded.times_reviewed,
			updated_at = excluded.updated_at
	`
	err := RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(query),
			p.LearnerID,
			p.WordID,
			p.CycleID,
			p.EaseFactor,
			p.Interval,
			p.Repetitions,
			p.NextDueDate,
			p.LastReviewedAt,
			p.LastQuality,
			p.TimesReviewed,
			ts,
			ts,
		)
		if err != nil {
			return err
		}
		var row struct {
			ID        int64     `db:"id"`
			CreatedAt time.Time `db:"created_at"`
		}
		err = tx.GetContext(ctx, &row,
			tx.Rebind(`SELECT id, created_at FROM progress WHERE learner_id = ? AND word_id = ? AND cycle_id = ?`),
			p.LearnerID, p.WordID, p.CycleID)
		p.ID, p.CreatedAt = row.ID, row.CreatedAt
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}
	p.UpdatedAt = ts
	return nil
}

// ListProgress returns a learner's records for one cycle
func (r *ProgressRepository) ListProgress(ctx context.Context, learnerID, cycleID int64) ([]models.ProgressRecord, error) {
	var records []models.ProgressRecord
	query := r.db.Rebind(`SELECT ` + progressColumns + ` FROM progress WHERE learner_id = ? AND cycle_id = ? ORDER BY word_id`)
	if err := r.db.SelectContext(ctx, &records, query, learnerID, cycleID); err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return records, nil
}

// DeleteProgress removes a learner's records for a cycle and returns how many
func (r *ProgressRepository) DeleteProgress(ctx context.Context, learnerID, cycleID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM progress WHERE learner_id = ? AND cycle_id = ?`), learnerID, cycleID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete progress: %w", err)
	}
	return result.RowsAffected()
}
