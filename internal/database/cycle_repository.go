package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexicycle/internal/store"
	"github.com/example/lexicycle/pkg/models"
)

const cycleColumns = `id, pairing_key, sequence_number, start_date, end_date, active, created_at`

// CycleRepository handles database operations for cycles and their words
type CycleRepository struct {
	db *sqlx.DB
}

// NewCycleRepository creates a new repository instance
func NewCycleRepository(db *sqlx.DB) *CycleRepository {
	return &CycleRepository{db: db}
}

// GetActiveCycle returns nil when the pairing key has no active cycle
func (r *CycleRepository) GetActiveCycle(ctx context.Context, pairingKey string) (*models.Cycle, error) {
	var c models.Cycle
	query := r.db.Rebind(`SELECT ` + cycleColumns + ` FROM cycles WHERE pairing_key = ? AND active = ?`)
	err := r.db.GetContext(ctx, &c, query, pairingKey, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active cycle: %w", err)
	}
	return &c, nil
}

// ListCycles returns every cycle of a pairing key by sequence number
func (r *CycleRepository) ListCycles(ctx context.Context, pairingKey string) ([]models.Cycle, error) {
	var cycles []models.Cycle
	query := r.db.Rebind(`SELECT ` + cycleColumns + ` FROM cycles WHERE pairing_key = ? ORDER BY sequence_number`)
	if err := r.db.SelectContext(ctx, &cycles, query, pairingKey); err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	return cycles, nil
}

// LatestSequenceNumber returns 0 when the pairing key has no cycles
func (r *CycleRepository) LatestSequenceNumber(ctx context.Context, pairingKey string) (int, error) {
	var latest int
	query := r.db.Rebind(`SELECT COALESCE(MAX(sequence_number), 0) FROM cycles WHERE pairing_key = ?`)
	if err := r.db.GetContext(ctx, &latest, query, pairingKey); err != nil {
		return 0, fmt.Errorf("failed to get latest sequence number: %w", err)
	}
	return latest, nil
}

// RecentCycleWordIDs returns the word ids used by the latest n cycles
func (r *CycleRepository) RecentCycleWordIDs(ctx context.Context, pairingKey string, n int) ([]int64, error) {
	if n <= 0 {
		return nil, nil
	}
	var ids []int64
	query := r.db.Rebind(`
		SELECT DISTINCT word_id FROM cycle_words
		WHERE cycle_id IN (
			SELECT id FROM cycles WHERE pairing_key = ?
			ORDER BY sequence_number DESC
			LIMIT ?
		)
		ORDER BY word_id
	`)
	if err := r.db.SelectContext(ctx, &ids, query, pairingKey, n); err != nil {
		return nil, fmt.Errorf("failed to get recent cycle words: %w", err)
	}
	return ids, nil
}

// CreateCycle stores a cycle with its words at positions 1..n in one
// transaction. The schema's unique indexes turn a concurrent second active
// cycle into store.ErrActiveCycleExists.
func (r *CycleRepository) CreateCycle(ctx context.Context, c *models.Cycle, wordIDs []int64) error {
	c.CreatedAt = now()
	err := RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, tx.Rebind(`
			INSERT INTO cycles (pairing_key, sequence_number, start_date, end_date, active, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id
		`), c.PairingKey, c.SequenceNumber, c.StartDate, c.EndDate, c.Active, c.CreatedAt).Scan(&c.ID)
		if isUniqueViolation(err) {
			return store.ErrActiveCycleExists
		}
		if err != nil {
			return err
		}

		insert := tx.Rebind(`INSERT INTO cycle_words (cycle_id, word_id, position) VALUES (?, ?, ?)`)
		for i, wordID := range wordIDs {
			if _, err := tx.ExecContext(ctx, insert, c.ID, wordID, i+1); err != nil {
				return fmt.Errorf("failed to assign word %d: %w", wordID, err)
			}
		}
		return nil
	})
	if err != nil {
		c.ID = 0
		if errors.Is(err, store.ErrActiveCycleExists) {
			return err
		}
		return fmt.Errorf("failed to create cycle: %w", err)
	}
	return nil
}

// GetCycleAssignments returns a cycle's assignments in position order
func (r *CycleRepository) GetCycleAssignments(ctx context.Context, cycleID int64) ([]models.CycleWordAssignment, error) {
	var assignments []models.CycleWordAssignment
	query := r.db.Rebind(`SELECT cycle_id, word_id, position FROM cycle_words WHERE cycle_id = ? ORDER BY position`)
	if err := r.db.SelectContext(ctx, &assignments, query, cycleID); err != nil {
		return nil, fmt.Errorf("failed to get cycle assignments: %w", err)
	}
	return assignments, nil
}

// DeactivateCycle marks one cycle inactive
func (r *CycleRepository) DeactivateCycle(ctx context.Context, cycleID int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE cycles SET active = ? WHERE id = ?`), false, cycleID)
	if err != nil {
		return fmt.Errorf("failed to deactivate cycle: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return store.ErrCycleNotFound
	}
	return nil
}

// DeactivateAllCycles marks every active cycle of a pairing key inactive
func (r *CycleRepository) DeactivateAllCycles(ctx context.Context, pairingKey string) error {
	query := r.db.Rebind(`UPDATE cycles SET active = ? WHERE pairing_key = ? AND active = ?`)
	if _, err := r.db.ExecContext(ctx, query, false, pairingKey, true); err != nil {
		return fmt.Errorf("failed to deactivate cycles: %w", err)
	}
	return nil
}
