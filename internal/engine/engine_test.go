package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lexicycle/internal/database"
	"github.com/example/lexicycle/internal/logger"
	"github.com/example/lexicycle/internal/memstore"
	"github.com/example/lexicycle/pkg/models"
)

var (
	_ Store = (*memstore.Store)(nil)
	_ Store = (*database.Store)(nil)
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) addDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.AddDate(0, 0, n)
}

type fixture struct {
	store  *memstore.Store
	clock  *clock
	engine *Engine
}

func newFixture(t *testing.T, words int) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()
	for i := 0; i < words; i++ {
		_, err := s.UpsertWord(ctx, &models.VocabularyItem{
			Term:         fmt.Sprintf("term-%02d", i),
			Translations: map[string]string{"es": fmt.Sprintf("es-%02d", i), "fr": fmt.Sprintf("fr-%02d", i)},
			Difficulty:   i,
		})
		require.NoError(t, err)
	}
	require.NoError(t, s.PutLearner(ctx, &models.Learner{ID: 1, Username: "ann", Language: "fr", WordsPerDay: 5}))
	require.NoError(t, s.PutLearner(ctx, &models.Learner{ID: 2, Username: "bob", Language: "es", WordsPerDay: 5}))

	c := &clock{t: time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)}
	e := New(s, DefaultConfig(), logger.Nop(), WithClock(c.Now), WithRand(rand.New(rand.NewSource(1))))
	return &fixture{store: s, clock: c, engine: e}
}

func recordAll(t *testing.T, activities []models.Activity, record func(wordID int64, quality int) error, quality int) {
	t.Helper()
	for _, a := range activities {
		require.NoError(t, record(a.WordID, quality))
	}
}

func TestEngine_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 12)

	due, err := f.engine.DueCount(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, due, "no cycle yet")

	s, err := f.engine.StartSession(ctx, 1, 0)
	require.NoError(t, err)
	assert.False(t, s.Fallback)
	assert.Equal(t, "1:1", s.PairingKey)
	assert.Equal(t, 1, s.Cycle.SequenceNumber)
	assert.Len(t, s.Words(), 5)
	assert.Len(t, s.Activities, 15, "new words get three activities each")
	for _, a := range s.Activities {
		assert.Contains(t, a.Translation, "fr-", "learner language is used")
	}

	due, err = f.engine.DueCount(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, due)

	recordAll(t, s.Activities, s.Record, 5)
	res, err := f.engine.CommitSession(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Successes())
	assert.Equal(t, 0, res.Failures())
	require.NotNil(t, res.Daily)
	assert.Equal(t, 5, res.Daily.WordsReviewed, "counts words, not activities")
	assert.Equal(t, 15, res.Daily.PerfectAnswers)
	assert.True(t, res.Daily.GoalMet)

	due, err = f.engine.DueCount(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, due)

	t.Run("nothing due falls back to the whole cycle", func(t *testing.T) {
		again, err := f.engine.StartSession(ctx, 1, 0)
		require.NoError(t, err)
		assert.True(t, again.Fallback)
		assert.Equal(t, s.Cycle.ID, again.Cycle.ID)
		assert.Len(t, again.Words(), 5)
		assert.Len(t, again.Activities, 10)
	})

	t.Run("words are due again the next day", func(t *testing.T) {
		f.clock.addDays(1)
		next, err := f.engine.StartSession(ctx, 1, 0)
		require.NoError(t, err)
		assert.False(t, next.Fallback)
		assert.Len(t, next.Words(), 5)

		records, err := f.store.ListProgress(ctx, 1, s.Cycle.ID)
		require.NoError(t, err)
		require.Len(t, records, 5)
		for _, p := range records {
			assert.Equal(t, 1, p.Repetitions)
			assert.Equal(t, 1, p.TimesReviewed)
		}
	})

	t.Run("cycle rotates after it expires", func(t *testing.T) {
		f.clock.addDays(2)
		next, err := f.engine.StartSession(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, next.Cycle.SequenceNumber)
		assert.False(t, next.Fallback)
		for _, id := range next.Words() {
			assert.NotContains(t, s.Words(), id)
		}
	})
}

func TestEngine_CommitAveragesPerWord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)

	s, err := f.engine.StartSession(ctx, 1, 0)
	require.NoError(t, err)
	words := s.Words()
	require.NoError(t, s.Record(words[0], 5))
	require.NoError(t, s.Record(words[0], 0))
	require.NoError(t, s.Record(words[1], 2))

	res, err := f.engine.CommitSession(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Successes())
	assert.Equal(t, 2, res.Daily.WordsReviewed)
	assert.Equal(t, 1, res.Daily.PerfectAnswers)
	assert.False(t, res.Daily.GoalMet)

	// (5+0)/2 rounds to 3, which passes
	p, err := f.store.GetProgress(ctx, 1, words[0], s.Cycle.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 1, p.Repetitions)
	assert.Equal(t, 3, *p.LastQuality)

	p, err = f.store.GetProgress(ctx, 1, words[1], s.Cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Repetitions)
	assert.Equal(t, 1, p.Interval)
}

func TestEngine_Mood(t *testing.T) {
	ctx := context.Background()

	t.Run("solo", func(t *testing.T) {
		f := newFixture(t, 5)
		state, err := f.engine.Mood(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, state.Happiness)

		for day := 0; day < 7; day++ {
			s, err := f.engine.StartSession(ctx, 1, 0)
			require.NoError(t, err)
			recordAll(t, s.Activities, s.Record, 4)
			_, err = f.engine.CommitSession(ctx, s)
			require.NoError(t, err)
			if day < 6 {
				f.clock.addDays(1)
			}
		}

		state, err = f.engine.Mood(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 80, state.Happiness)

		shared, err := f.store.GetSharedState(ctx, "1:1")
		require.NoError(t, err)
		require.NotNil(t, shared)
		assert.Equal(t, 80, shared.Happiness)
	})

	t.Run("paired learners share one cycle", func(t *testing.T) {
		f := newFixture(t, 10)
		a, err := f.engine.StartSession(ctx, 1, 2)
		require.NoError(t, err)
		b, err := f.engine.StartSession(ctx, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, "1:2", a.PairingKey)
		assert.Equal(t, a.Cycle.ID, b.Cycle.ID)
		for _, act := range b.Activities {
			assert.Contains(t, act.Translation, "es-")
		}

		recordAll(t, a.Activities, a.Record, 5)
		_, err = f.engine.CommitSession(ctx, a)
		require.NoError(t, err)

		// ann: 40 for the full goal, bob: nothing, streak minimum 0, difference 5
		state, err := f.engine.Mood(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, 40, state.Happiness)

		recordAll(t, b.Activities, b.Record, 5)
		_, err = f.engine.CommitSession(ctx, b)
		require.NoError(t, err)

		// 80 daily + 15/7 streak + 5 sync
		state, err = f.engine.Mood(ctx, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, 87, state.Happiness)
	})
}

func TestEngine_ResetAndRotate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 15)

	n, err := f.engine.ResetProgress(ctx, 1, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	s, err := f.engine.StartSession(ctx, 1, 0)
	require.NoError(t, err)
	recordAll(t, s.Activities, s.Record, 5)
	_, err = f.engine.CommitSession(ctx, s)
	require.NoError(t, err)

	n, err = f.engine.ResetProgress(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	due, err := f.engine.DueCount(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, due)

	st, err := f.engine.ForceRotate(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Cycle.SequenceNumber)

	current, err := f.engine.Cycle(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, st.Cycle.ID, current.Cycle.ID)
	assert.Equal(t, 2, current.DaysRemaining)
}

func TestEngine_EmptyPool(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.engine.StartSession(context.Background(), 1, 0)
	assert.Error(t, err)
}
