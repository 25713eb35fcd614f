package models

import "time"

// Cycle is a time-boxed batch of words assigned to a pairing key
type Cycle struct {
	ID             int64     `json:"id" db:"id"`
	PairingKey     string    `json:"pairing_key" db:"pairing_key"`
	SequenceNumber int       `json:"sequence_number" db:"sequence_number"`
	StartDate      time.Time `json:"start_date" db:"start_date"`
	EndDate        time.Time `json:"end_date" db:"end_date"`
	Active         bool      `json:"active" db:"active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether today is past the cycle's end date.
func (c Cycle) Expired(today time.Time) bool {
	return DateOf(today).After(DateOf(c.EndDate))
}

// CycleWordAssignment places a word at a 1-based position within a cycle
type CycleWordAssignment struct {
	CycleID  int64 `json:"cycle_id" db:"cycle_id"`
	WordID   int64 `json:"word_id" db:"word_id"`
	Position int   `json:"position" db:"position"`
}
