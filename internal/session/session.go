// Package session plans a practice session and records its outcome.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/lexicycle/internal/spaced_repetition"
	"github.com/example/lexicycle/pkg/models"
)

var (
	// ErrInvalidQuality is returned for a quality outside [0,5]
	ErrInvalidQuality = errors.New("quality out of range")
	// ErrUnknownWord is returned for a word that is not part of the session
	ErrUnknownWord = errors.New("word is not part of the session")
)

// Session is one learner's planned activities for a cycle and the results
// reported back so far
type Session struct {
	ID         uuid.UUID
	LearnerID  int64
	PairingKey string
	Cycle      models.Cycle
	// Fallback is set when nothing was due and the whole cycle is practiced
	Fallback   bool
	Activities []models.Activity
	StartedAt  time.Time

	mu      sync.Mutex
	words   map[int64]bool
	results []models.ActivityResult
}

// New creates a session for the given plan
func New(learnerID int64, pairingKey string, cycle models.Cycle, activities []models.Activity, startedAt time.Time) *Session {
	words := make(map[int64]bool, len(activities))
	for _, a := range activities {
		words[a.WordID] = true
	}
	return &Session{
		ID:         uuid.New(),
		LearnerID:  learnerID,
		PairingKey: pairingKey,
		Cycle:      cycle,
		Activities: activities,
		StartedAt:  startedAt,
		words:      words,
	}
}

// Record stores the quality of one completed activity
func (s *Session) Record(wordID int64, quality int) error {
	if quality < models.MinQuality || quality > models.MaxQuality {
		return fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}
	if !s.words[wordID] {
		return fmt.Errorf("%w: %d", ErrUnknownWord, wordID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, models.ActivityResult{WordID: wordID, Quality: quality})
	return nil
}

// RecordAttempts converts the number of attempts into a quality and records it
func (s *Session) RecordAttempts(wordID int64, attempts int, skipped bool) error {
	return s.Record(wordID, spaced_repetition.QualityFromAttempts(attempts, skipped))
}

// Results returns a copy of the results recorded so far
func (s *Session) Results() []models.ActivityResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ActivityResult, len(s.results))
	copy(out, s.results)
	return out
}

// Words returns the distinct word ids of the session
func (s *Session) Words() []int64 {
	ids := make([]int64, 0, len(s.words))
	seen := make(map[int64]bool, len(s.words))
	for _, a := range s.Activities {
		if !seen[a.WordID] {
			seen[a.WordID] = true
			ids = append(ids, a.WordID)
		}
	}
	return ids
}

// Done reports whether every activity has a result
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results) >= len(s.Activities)
}
