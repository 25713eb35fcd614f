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

// SharedStateRepository handles database operations for pairing key mood state
type SharedStateRepository struct {
	db *sqlx.DB
}

// NewSharedStateRepository creates a new repository instance
func NewSharedStateRepository(db *sqlx.DB) *SharedStateRepository {
	return &SharedStateRepository{db: db}
}

// CreateSharedState fails with store.ErrDuplicate when the key already has one
func (r *SharedStateRepository) CreateSharedState(ctx context.Context, st *models.SharedState) error {
	ts := now()
	query := r.db.Rebind(`
		INSERT INTO shared_states (pairing_key, happiness, health, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query, st.PairingKey, st.Happiness, st.Health, ts, ts)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create shared state: %w", err)
	}
	st.CreatedAt, st.UpdatedAt = ts, ts
	return nil
}

// GetSharedState returns nil when the key has no shared state
func (r *SharedStateRepository) GetSharedState(ctx context.Context, pairingKey string) (*models.SharedState, error) {
	var st models.SharedState
	query := r.db.Rebind(`SELECT pairing_key, happiness, health, created_at, updated_at FROM shared_states WHERE pairing_key = ?`)
	err := r.db.GetContext(ctx, &st, query, pairingKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shared state: %w", err)
	}
	return &st, nil
}

// UpdateHappiness caches the latest happiness value on the shared state
func (r *SharedStateRepository) UpdateHappiness(ctx context.Context, pairingKey string, happiness int) error {
	query := r.db.Rebind(`UPDATE shared_states SET happiness = ?, updated_at = ? WHERE pairing_key = ?`)
	result, err := r.db.ExecContext(ctx, query, happiness, now(), pairingKey)
	if err != nil {
		return fmt.Errorf("failed to update happiness: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}
