package models

import "time"

// Scheduling bounds shared by the scheduler and the stores.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 2.5
	MinInterval       = 1
	MaxInterval       = 365
	MinQuality        = 0
	MaxQuality        = 5
)

// ProgressRecord tracks a learner's SM-2 state for one word within one cycle
type ProgressRecord struct {
	ID             int64      `json:"id" db:"id"`
	LearnerID      int64      `json:"learner_id" db:"learner_id"`
	WordID         int64      `json:"word_id" db:"word_id"`
	CycleID        int64      `json:"cycle_id" db:"cycle_id"`
	EaseFactor     float64    `json:"ease_factor" db:"ease_factor"`
	Interval       int        `json:"interval" db:"interval_days"` // Current interval in days
	Repetitions    int        `json:"repetitions" db:"repetitions"`
	NextDueDate    time.Time  `json:"next_due_date" db:"next_due_date"`
	LastReviewedAt *time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	LastQuality    *int       `json:"last_quality" db:"last_quality"` // 0-5 rating of last session
	TimesReviewed  int        `json:"times_reviewed" db:"times_reviewed"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}
