package progress

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/lexicycle/internal/logger"
	"github.com/example/lexicycle/internal/spaced_repetition"
	"github.com/example/lexicycle/pkg/models"
)

// Store is the persistence the aggregator needs
type Store interface {
	GetProgress(ctx context.Context, learnerID, wordID, cycleID int64) (*models.ProgressRecord, error)
	UpsertProgress(ctx context.Context, progress *models.ProgressRecord) error
	AddDailyStat(ctx context.Context, learnerID int64, day time.Time, wordsReviewed, perfectAnswers, goal int) (*models.DailyStat, error)
}

// Config controls how sessions are committed
type Config struct {
	// Words reviewed in a day needed to meet the daily goal
	DailyGoal int `mapstructure:"daily_goal" validate:"gte=1"`
	// Maximum number of per-word commits in flight
	Concurrency int `mapstructure:"concurrency" validate:"gte=1"`
}

// DefaultConfig returns the default aggregator configuration
func DefaultConfig() Config {
	return Config{DailyGoal: 5, Concurrency: 4}
}

// CommitResult reports the outcome of a session commit. A failed word never
// prevents the others from being committed.
type CommitResult struct {
	Committed []int64
	Failed    map[int64]error
	Daily     *models.DailyStat
}

// Successes returns the number of words whose progress was saved.
func (r CommitResult) Successes() int { return len(r.Committed) }

// Failures returns the number of words whose progress could not be saved.
func (r CommitResult) Failures() int { return len(r.Failed) }

// Aggregator folds per-activity results into one scheduling update per word
type Aggregator struct {
	store  Store
	sm2    *spaced_repetition.SM2
	cfg    Config
	logger *logger.Logger
	now    func() time.Time
}

// NewAggregator creates an aggregator. now may be nil to use the wall clock.
func NewAggregator(store Store, sm2 *spaced_repetition.SM2, cfg Config, log *logger.Logger, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.DailyGoal <= 0 {
		cfg.DailyGoal = DefaultConfig().DailyGoal
	}
	return &Aggregator{store: store, sm2: sm2, cfg: cfg, logger: log, now: now}
}

// AverageQualities groups results by word and averages their quality,
// rounding half away from zero. Qualities are clamped to [0,5] first.
func AverageQualities(results []models.ActivityResult) map[int64]int {
	sums := make(map[int64]int)
	counts := make(map[int64]int)
	for _, r := range results {
		sums[r.WordID] += spaced_repetition.ClampQuality(r.Quality)
		counts[r.WordID]++
	}

	avg := make(map[int64]int, len(sums))
	for id, sum := range sums {
		avg[id] = int(math.Round(float64(sum) / float64(counts[id])))
	}
	return avg
}

// CommitSession saves one progress update per distinct word in results and
// then adds the session to today's DailyStat. Per-word failures are reported
// in the result; the returned error is only set when the daily statistics
// could not be updated.
func (a *Aggregator) CommitSession(ctx context.Context, learnerID, cycleID int64, results []models.ActivityResult) (CommitResult, error) {
	now := a.now()
	qualities := AverageQualities(results)

	wordIDs := make([]int64, 0, len(qualities))
	for id := range qualities {
		wordIDs = append(wordIDs, id)
	}
	sort.Slice(wordIDs, func(i, j int) bool { return wordIDs[i] < wordIDs[j] })

	res := CommitResult{Failed: make(map[int64]error)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(a.cfg.Concurrency)
	for _, wordID := range wordIDs {
		wordID := wordID
		quality := qualities[wordID]
		g.Go(func() error {
			err := a.commitWord(ctx, learnerID, wordID, cycleID, quality, now)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Error("Failed to commit word progress",
					"learner_id", learnerID, "word_id", wordID, "cycle_id", cycleID, "error", err)
				res.Failed[wordID] = err
				return nil
			}
			res.Committed = append(res.Committed, wordID)
			return nil
		})
	}
	_ = g.Wait()
	sort.Slice(res.Committed, func(i, j int) bool { return res.Committed[i] < res.Committed[j] })

	// perfect answers only count for words whose progress was saved
	committed := make(map[int64]bool, len(res.Committed))
	for _, id := range res.Committed {
		committed[id] = true
	}
	perfect := 0
	for _, r := range results {
		if committed[r.WordID] && r.Quality == int(spaced_repetition.QualityPerfect) {
			perfect++
		}
	}

	daily, err := a.store.AddDailyStat(ctx, learnerID, models.DateOf(now), res.Successes(), perfect, a.cfg.DailyGoal)
	if err != nil {
		return res, fmt.Errorf("failed to update daily statistics: %w", err)
	}
	res.Daily = daily

	a.logger.Info("Session committed",
		"learner_id", learnerID, "cycle_id", cycleID,
		"committed", res.Successes(), "failed", res.Failures(), "words_today", daily.WordsReviewed)
	return res, nil
}

func (a *Aggregator) commitWord(ctx context.Context, learnerID, wordID, cycleID int64, quality int, now time.Time) error {
	progress, err := a.store.GetProgress(ctx, learnerID, wordID, cycleID)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	if progress == nil {
		progress = &models.ProgressRecord{LearnerID: learnerID, WordID: wordID, CycleID: cycleID}
	}

	a.sm2.Apply(progress, quality, now)

	if err := a.store.UpsertProgress(ctx, progress); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}
