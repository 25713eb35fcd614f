package models

import "time"

// DailyStat is a learner's activity for one calendar day. Updates within the
// same day are additive.
type DailyStat struct {
	ID             int64     `json:"id" db:"id"`
	LearnerID      int64     `json:"learner_id" db:"learner_id"`
	Day            time.Time `json:"day" db:"day"`
	WordsReviewed  int       `json:"words_reviewed" db:"words_reviewed"`
	PerfectAnswers int       `json:"perfect_answers" db:"perfect_answers"`
	GoalMet        bool      `json:"goal_met" db:"goal_met"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
