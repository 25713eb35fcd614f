package models

import "time"

// Initial values for a pairing key's shared state.
const (
	InitialHappiness = 50
	InitialHealth    = 100
)

// SharedState is the mood-tracking companion record of a pairing key.
// Happiness stored here is a cache of the last computed MoodState.
type SharedState struct {
	PairingKey string    `json:"pairing_key" db:"pairing_key"`
	Happiness  int       `json:"happiness" db:"happiness"`
	Health     int       `json:"health" db:"health"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// MoodState is handed to the presentation layer
type MoodState struct {
	Happiness int `json:"happiness"`
}
