// Package engine runs learning sessions end to end: it keeps the pairing
// key's cycle current, plans activities for due words, commits results and
// scores the learners' mood.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/example/lexicycle/internal/cycle"
	"github.com/example/lexicycle/internal/logger"
	"github.com/example/lexicycle/internal/mood"
	"github.com/example/lexicycle/internal/progress"
	"github.com/example/lexicycle/internal/session"
	"github.com/example/lexicycle/internal/spaced_repetition"
	"github.com/example/lexicycle/internal/store"
	"github.com/example/lexicycle/pkg/models"
)

// streakLookbackDays bounds how far back daily statistics are read for streaks
const streakLookbackDays = 400

// Store is everything the engine reads and writes
type Store interface {
	cycle.Store
	progress.Store

	GetLearner(ctx context.Context, id int64) (*models.Learner, error)
	GetCycleWords(ctx context.Context, cycleID int64) ([]models.VocabularyItem, error)
	ListProgress(ctx context.Context, learnerID, cycleID int64) ([]models.ProgressRecord, error)
	DeleteProgress(ctx context.Context, learnerID, cycleID int64) (int64, error)
	ListDailyStats(ctx context.Context, learnerID int64, since time.Time) ([]models.DailyStat, error)
	UpdateHappiness(ctx context.Context, pairingKey string, happiness int) error
}

type Config struct {
	Cycle           cycle.Config
	Progress        progress.Config
	Mood            mood.Config
	SpeechSupported bool
	DefaultLanguage string
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		Cycle:           cycle.DefaultConfig(),
		Progress:        progress.DefaultConfig(),
		Mood:            mood.DefaultConfig(),
		DefaultLanguage: "es",
	}
}

// Option customizes an Engine
type Option func(*Engine)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand makes activity planning deterministic
func WithRand(rnd *rand.Rand) Option {
	return func(e *Engine) { e.rnd = rnd }
}

type Engine struct {
	store      Store
	cfg        Config
	logger     *logger.Logger
	now        func() time.Time
	rnd        *rand.Rand
	cycles     *cycle.Manager
	aggregator *progress.Aggregator
	scorer     *mood.Scorer

	// guards sequencer, whose random source is not safe for concurrent use
	mu        sync.Mutex
	sequencer *session.Sequencer
}

// New wires the engine components on top of s
func New(s Store, cfg Config, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{store: s, cfg: cfg, logger: log, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.DefaultLanguage == "" {
		e.cfg.DefaultLanguage = DefaultConfig().DefaultLanguage
	}

	e.cycles = cycle.NewManager(s, cfg.Cycle, log, e.now)
	e.aggregator = progress.NewAggregator(s, spaced_repetition.NewSM2(), cfg.Progress, log, e.now)
	e.scorer = mood.NewScorer(cfg.Mood)
	e.sequencer = session.NewSequencer(e.rnd, cfg.SpeechSupported)
	return e
}

// Cycle returns the pairing key's active cycle, rotating it when expired
func (e *Engine) Cycle(ctx context.Context, learnerID, partnerID int64) (*cycle.Status, error) {
	return e.cycles.EnsureCycle(ctx, cycle.PairingKey(learnerID, partnerID))
}

// StartSession plans a session over the words currently due for the learner.
// When nothing is due the whole cycle is offered for practice.
func (e *Engine) StartSession(ctx context.Context, learnerID, partnerID int64) (*session.Session, error) {
	key := cycle.PairingKey(learnerID, partnerID)
	status, err := e.cycles.EnsureCycle(ctx, key)
	if err != nil {
		return nil, err
	}

	words, err := e.store.GetCycleWords(ctx, status.Cycle.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle words: %w", err)
	}
	records, err := e.store.ListProgress(ctx, learnerID, status.Cycle.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	now := e.now()
	due, fallback := spaced_repetition.SelectForSession(words, records, now)
	lang, err := e.language(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	repetitions := make(map[int64]int, len(records))
	for _, p := range records {
		repetitions[p.WordID] = p.Repetitions
	}
	adapted := make([]session.AdaptedWord, 0, len(due))
	for _, w := range due {
		adapted = append(adapted, session.AdaptedWord{
			ID:                 w.ID,
			Term:               w.Term,
			Translation:        w.Translation(lang),
			MasteryRepetitions: repetitions[w.ID],
		})
	}

	e.mu.Lock()
	activities := e.sequencer.Build(adapted)
	e.mu.Unlock()

	s := session.New(learnerID, key, status.Cycle, activities, now)
	s.Fallback = fallback
	e.logger.Info("Session started",
		"session_id", s.ID, "learner_id", learnerID, "cycle_id", status.Cycle.ID,
		"words", len(adapted), "activities", len(activities), "fallback", fallback)
	return s, nil
}

// CommitSession saves the results recorded on s
func (e *Engine) CommitSession(ctx context.Context, s *session.Session) (progress.CommitResult, error) {
	return e.aggregator.CommitSession(ctx, s.LearnerID, s.Cycle.ID, s.Results())
}

// Mood scores the learner, together with the partner when there is one, and
// caches the result on the pairing key's shared state
func (e *Engine) Mood(ctx context.Context, learnerID, partnerID int64) (models.MoodState, error) {
	self, err := e.learnerStats(ctx, learnerID)
	if err != nil {
		return models.MoodState{}, err
	}

	var partner *mood.LearnerStats
	if partnerID > 0 && partnerID != learnerID {
		st, err := e.learnerStats(ctx, partnerID)
		if err != nil {
			return models.MoodState{}, err
		}
		partner = &st
	}

	state := e.scorer.Score(self, partner)

	key := cycle.PairingKey(learnerID, partnerID)
	if err := e.store.UpdateHappiness(ctx, key, state.Happiness); err != nil && !errors.Is(err, store.ErrNotFound) {
		e.logger.Warn("Failed to cache happiness", "pairing_key", key, "error", err)
	}
	return state, nil
}

func (e *Engine) learnerStats(ctx context.Context, learnerID int64) (mood.LearnerStats, error) {
	today := models.DateOf(e.now())
	stats, err := e.store.ListDailyStats(ctx, learnerID, today.AddDate(0, 0, -streakLookbackDays))
	if err != nil {
		return mood.LearnerStats{}, fmt.Errorf("failed to list daily statistics: %w", err)
	}
	learner, err := e.store.GetLearner(ctx, learnerID)
	if err != nil {
		return mood.LearnerStats{}, fmt.Errorf("failed to get learner: %w", err)
	}

	st := mood.LearnerStats{
		WordsToday: progress.WordsOn(stats, today),
		StreakDays: progress.Streak(stats, today),
	}
	if learner != nil {
		st.TargetWords = learner.WordsPerDay
	}
	return st, nil
}

// DueCount returns how many words of the active cycle are due for the
// learner. It never creates a cycle; without one nothing is due.
func (e *Engine) DueCount(ctx context.Context, learnerID, partnerID int64) (int, error) {
	active, err := e.store.GetActiveCycle(ctx, cycle.PairingKey(learnerID, partnerID))
	if err != nil {
		return 0, fmt.Errorf("failed to get active cycle: %w", err)
	}
	if active == nil {
		return 0, nil
	}

	words, err := e.store.GetCycleWords(ctx, active.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to get cycle words: %w", err)
	}
	records, err := e.store.ListProgress(ctx, learnerID, active.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to list progress: %w", err)
	}
	return len(spaced_repetition.SelectDue(words, records, e.now())), nil
}

// ForceRotate starts the next cycle of the pairing key immediately
func (e *Engine) ForceRotate(ctx context.Context, learnerID, partnerID int64) (*cycle.Status, error) {
	return e.cycles.ForceRotate(ctx, cycle.PairingKey(learnerID, partnerID))
}

// ResetProgress deletes the learner's progress in the active cycle so every
// word is new again. It returns the number of records removed.
func (e *Engine) ResetProgress(ctx context.Context, learnerID, partnerID int64) (int64, error) {
	active, err := e.store.GetActiveCycle(ctx, cycle.PairingKey(learnerID, partnerID))
	if err != nil {
		return 0, fmt.Errorf("failed to get active cycle: %w", err)
	}
	if active == nil {
		return 0, nil
	}

	n, err := e.store.DeleteProgress(ctx, learnerID, active.ID)
	if err != nil {
		return 0, err
	}
	e.logger.Info("Progress reset", "learner_id", learnerID, "cycle_id", active.ID, "records", n)
	return n, nil
}

func (e *Engine) language(ctx context.Context, learnerID int64) (string, error) {
	learner, err := e.store.GetLearner(ctx, learnerID)
	if err != nil {
		return "", fmt.Errorf("failed to get learner: %w", err)
	}
	if learner == nil || learner.Language == "" {
		return e.cfg.DefaultLanguage, nil
	}
	return learner.Language, nil
}
