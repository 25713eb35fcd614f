// Package database is the SQL implementation of the engine's storage
// capabilities. It runs on SQLite or PostgreSQL through sqlx.
package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Config selects the database driver and location
type Config struct {
	// Type is "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"oneof=sqlite postgres"`
	// URL is a file path for sqlite or a connection string for postgres
	URL string `mapstructure:"url"`
}

const defaultSQLitePath = "data/lexicycle.db"

// Connect opens the database described by cfg and creates the schema
func Connect(cfg Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Type {
	case "postgres":
		if cfg.URL == "" {
			return nil, errors.New("database url is required for postgres")
		}
		db, err = sqlx.Connect("postgres", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	case "sqlite", "":
		path := cfg.URL
		if path == "" {
			path = defaultSQLitePath
		}
		if path != ":memory:" {
			// Create data directory if it doesn't exist
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		db, err = sqlx.Connect("sqlite3", path+"?_foreign_keys=on")
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	if err := InitializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// RunInTx runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back; otherwise, it is committed.
func RunInTx(ctx context.Context, db *sqlx.DB, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a unique constraint failure on
// either supported driver
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// InitializeSchema creates necessary tables if they don't exist
func InitializeSchema(db *sqlx.DB) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		pk = "BIGSERIAL PRIMARY KEY"
	}

	statements := []struct {
		name  string
		query string
	}{
		{"learners", `
			CREATE TABLE IF NOT EXISTS learners (
				id BIGINT PRIMARY KEY,
				username TEXT NOT NULL DEFAULT '',
				partner_id BIGINT,
				language TEXT NOT NULL DEFAULT '',
				words_per_day INTEGER NOT NULL DEFAULT 5,
				notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
				notification_hour INTEGER NOT NULL DEFAULT 9,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`},
		{"words", `
			CREATE TABLE IF NOT EXISTS words (
				id {{PK}},
				term TEXT NOT NULL,
				term_key TEXT NOT NULL UNIQUE,
				difficulty INTEGER NOT NULL DEFAULT 1,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`},
		{"word_translations", `
			CREATE TABLE IF NOT EXISTS word_translations (
				word_id BIGINT NOT NULL REFERENCES words(id) ON DELETE CASCADE,
				lang TEXT NOT NULL,
				translation TEXT NOT NULL,
				PRIMARY KEY (word_id, lang)
			)`},
		{"cycles", `
			CREATE TABLE IF NOT EXISTS cycles (
				id {{PK}},
				pairing_key TEXT NOT NULL,
				sequence_number INTEGER NOT NULL,
				start_date DATE NOT NULL,
				end_date DATE NOT NULL,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP NOT NULL,
				UNIQUE (pairing_key, sequence_number)
			)`},
		// at most one active cycle per pairing key
		{"cycles_active_idx", `
			CREATE UNIQUE INDEX IF NOT EXISTS cycles_one_active
			ON cycles (pairing_key) WHERE active = TRUE`},
		{"cycle_words", `
			CREATE TABLE IF NOT EXISTS cycle_words (
				cycle_id BIGINT NOT NULL REFERENCES cycles(id),
				word_id BIGINT NOT NULL REFERENCES words(id),
				position INTEGER NOT NULL,
				PRIMARY KEY (cycle_id, position),
				UNIQUE (cycle_id, word_id)
			)`},
		{"progress", `
			CREATE TABLE IF NOT EXISTS progress (
				id {{PK}},
				learner_id BIGINT NOT NULL,
				word_id BIGINT NOT NULL REFERENCES words(id),
				cycle_id BIGINT NOT NULL REFERENCES cycles(id),
				ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
				interval_days INTEGER NOT NULL DEFAULT 1,
				repetitions INTEGER NOT NULL DEFAULT 0,
				next_due_date DATE NOT NULL,
				last_reviewed_at TIMESTAMP,
				last_quality INTEGER,
				times_reviewed INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL,
				UNIQUE (learner_id, word_id, cycle_id)
			)`},
		{"daily_stats", `
			CREATE TABLE IF NOT EXISTS daily_stats (
				id {{PK}},
				learner_id BIGINT NOT NULL,
				day DATE NOT NULL,
				words_reviewed INTEGER NOT NULL DEFAULT 0,
				perfect_answers INTEGER NOT NULL DEFAULT 0,
				goal_met BOOLEAN NOT NULL DEFAULT FALSE,
				updated_at TIMESTAMP NOT NULL,
				UNIQUE (learner_id, day)
			)`},
		{"shared_states", `
			CREATE TABLE IF NOT EXISTS shared_states (
				pairing_key TEXT PRIMARY KEY,
				happiness INTEGER NOT NULL DEFAULT 50,
				health INTEGER NOT NULL DEFAULT 100,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`},
	}

	for _, st := range statements {
		if _, err := db.Exec(strings.ReplaceAll(st.query, "{{PK}}", pk)); err != nil {
			return fmt.Errorf("failed to create %s: %w", st.name, err)
		}
	}
	return nil
}
