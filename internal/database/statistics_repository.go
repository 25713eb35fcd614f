package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexicycle/pkg/models"
)

const dailyStatColumns = `id, learner_id, day, words_reviewed, perfect_answers, goal_met, updated_at`

// StatisticsRepository handles database operations for daily statistics
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// AddDailyStat adds to a learner's statistics for day and recomputes goal-met
// from the cumulative word count
func (r *StatisticsRepository) AddDailyStat(ctx context.Context, learnerID int64, day time.Time, wordsReviewed, perfectAnswers, goal int) (*models.DailyStat, error) {
	var st models.DailyStat
	date := models.DateOf(day)
	err := RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO daily_stats (learner_id, day, words_reviewed, perfect_answers, goal_met, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (learner_id, day) DO UPDATE SET
				words_reviewed = daily_stats.words_reviewed + excluded.words_reviewed,
				perfect_answers = daily_stats.perfect_answers + excluded.perfect_answers,
				goal_met = (daily_stats.words_reviewed + excluded.words_reviewed) >= ?,
				updated_at = excluded.updated_at
		`), learnerID, date, wordsReviewed, perfectAnswers, wordsReviewed >= goal, now(), goal)
		if err != nil {
			return err
		}
		return tx.GetContext(ctx, &st,
			tx.Rebind(`SELECT `+dailyStatColumns+` FROM daily_stats WHERE learner_id = ? AND day = ?`), learnerID, date)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update daily statistics: %w", err)
	}
	return &st, nil
}

// ListDailyStats returns a learner's statistics from since onwards, oldest first
func (r *StatisticsRepository) ListDailyStats(ctx context.Context, learnerID int64, since time.Time) ([]models.DailyStat, error) {
	var stats []models.DailyStat
	query := r.db.Rebind(`SELECT ` + dailyStatColumns + ` FROM daily_stats WHERE learner_id = ? AND day >= ? ORDER BY day`)
	if err := r.db.SelectContext(ctx, &stats, query, learnerID, models.DateOf(since)); err != nil {
		return nil, fmt.Errorf("failed to list daily statistics: %w", err)
	}
	return stats, nil
}
