package database

import (
	"time"

	"github.com/jmoiron/sqlx"
)

// Store bundles every repository behind one value that satisfies the
// engine's storage interfaces
type Store struct {
	*LearnerRepository
	*WordRepository
	*CycleRepository
	*ProgressRepository
	*StatisticsRepository
	*SharedStateRepository

	db *sqlx.DB
}

// NewStore creates all repositories on top of db
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		LearnerRepository:     NewLearnerRepository(db),
		WordRepository:        NewWordRepository(db),
		CycleRepository:       NewCycleRepository(db),
		ProgressRepository:    NewProgressRepository(db),
		StatisticsRepository:  NewStatisticsRepository(db),
		SharedStateRepository: NewSharedStateRepository(db),
		db:                    db,
	}
}

// DB returns the underlying connection
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}
