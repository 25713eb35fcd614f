package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lexicycle/internal/store"
	"github.com/example/lexicycle/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Connect(Config{Type: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	s := NewStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedWords(t *testing.T, s *Store, n int) []int64 {
	t.Helper()
	var ids []int64
	for i := 0; i < n; i++ {
		w := &models.VocabularyItem{
			Term:         fmt.Sprintf("word-%02d", i),
			Translations: map[string]string{"es": fmt.Sprintf("es-%02d", i), "fr": fmt.Sprintf("fr-%02d", i)},
			Difficulty:   n - i,
		}
		_, err := s.UpsertWord(context.Background(), w)
		require.NoError(t, err)
		ids = append(ids, w.ID)
	}
	return ids
}

func TestConnect(t *testing.T) {
	_, err := Connect(Config{Type: "mysql"})
	assert.Error(t, err)

	_, err = Connect(Config{Type: "postgres"})
	assert.Error(t, err)

	s := newTestStore(t)
	// schema creation is idempotent
	require.NoError(t, InitializeSchema(s.DB()))
}

func TestRunInTx(t *testing.T) {
	tests := []struct {
		name      string
		fn        func(ctx context.Context, tx *sqlx.Tx) error
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   bool
		errMsg    string
	}{
		{
			name: "commits on success",
			fn: func(ctx context.Context, tx *sqlx.Tx) error {
				return nil
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit()
			},
		},
		{
			name: "rolls back on error",
			fn: func(ctx context.Context, tx *sqlx.Tx) error {
				return fmt.Errorf("something failed")
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			wantErr: true,
			errMsg:  "something failed",
		},
		{
			name: "begin error",
			fn: func(ctx context.Context, tx *sqlx.Tx) error {
				return nil
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(fmt.Errorf("begin failed"))
			},
			wantErr: true,
			errMsg:  "begin transaction",
		},
		{
			name: "commit error",
			fn: func(ctx context.Context, tx *sqlx.Tx) error {
				return nil
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit().WillReturnError(fmt.Errorf("commit failed"))
			},
			wantErr: true,
			errMsg:  "commit transaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			sqlxDB := sqlx.NewDb(db, "sqlite3")
			tt.setupMock(mock)

			err = RunInTx(context.Background(), sqlxDB, tt.fn)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLearnerRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	got, err := s.GetLearner(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	partner := int64(2)
	require.NoError(t, s.PutLearner(ctx, &models.Learner{ID: 1, Username: "ann", PartnerID: &partner, Language: "es", WordsPerDay: 5, NotificationEnabled: true, NotificationHour: 9}))
	require.NoError(t, s.PutLearner(ctx, &models.Learner{ID: 2, Username: "bob", Language: "fr", WordsPerDay: 5, NotificationEnabled: false, NotificationHour: 9}))
	require.NoError(t, s.PutLearner(ctx, &models.Learner{ID: 3, Username: "cy", Language: "es", WordsPerDay: 8, NotificationEnabled: true, NotificationHour: 20}))

	got, err = s.GetLearner(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ann", got.Username)
	assert.Equal(t, int64(2), got.Partner())

	// update in place
	require.NoError(t, s.PutLearner(ctx, &models.Learner{ID: 1, Username: "anna", Language: "es", WordsPerDay: 7, NotificationEnabled: true, NotificationHour: 9}))
	got, err = s.GetLearner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "anna", got.Username)
	assert.Equal(t, int64(0), got.Partner())
	assert.Equal(t, 7, got.WordsPerDay)

	learners, err := s.GetLearnersForNotification(ctx, 9)
	require.NoError(t, err)
	require.Len(t, learners, 1)
	assert.Equal(t, int64(1), learners[0].ID)
}

func TestWordRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ids := seedWords(t, s, 6)

	t.Run("upsert by term is case insensitive", func(t *testing.T) {
		w := &models.VocabularyItem{Term: "WORD-00", Translations: map[string]string{"es": "nuevo"}, Difficulty: 1}
		created, err := s.UpsertWord(ctx, w)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, ids[0], w.ID)

		words, err := s.ListWords(ctx, nil, 1)
		require.NoError(t, err)
		require.Len(t, words, 1)
		assert.Equal(t, "WORD-00", words[0].Term)
		assert.Equal(t, map[string]string{"es": "nuevo"}, words[0].Translations)
	})

	t.Run("list orders by difficulty and honours exclusions", func(t *testing.T) {
		words, err := s.ListWords(ctx, []int64{ids[5], ids[4]}, 3)
		require.NoError(t, err)
		require.Len(t, words, 3)
		var difficulties []int
		for _, w := range words {
			difficulties = append(difficulties, w.Difficulty)
			assert.NotContains(t, []int64{ids[5], ids[4]}, w.ID)
			assert.NotEmpty(t, w.Translations)
		}
		assert.IsIncreasing(t, difficulties)

		all, err := s.ListWords(ctx, nil, 0)
		require.NoError(t, err)
		assert.Len(t, all, 6)
	})
}

func TestCycleRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ids := seedWords(t, s, 10)

	active, err := s.GetActiveCycle(ctx, "1:1")
	require.NoError(t, err)
	assert.Nil(t, active)

	latest, err := s.LatestSequenceNumber(ctx, "1:1")
	require.NoError(t, err)
	assert.Equal(t, 0, latest)

	c1 := &models.Cycle{PairingKey: "1:1", SequenceNumber: 1, StartDate: day("2024-06-01"), EndDate: day("2024-06-03"), Active: true}
	require.NoError(t, s.CreateCycle(ctx, c1, ids[:5]))
	assert.NotZero(t, c1.ID)

	t.Run("second active cycle is rejected", func(t *testing.T) {
		dup := &models.Cycle{PairingKey: "1:1", SequenceNumber: 2, StartDate: day("2024-06-01"), EndDate: day("2024-06-03"), Active: true}
		err := s.CreateCycle(ctx, dup, ids[5:])
		assert.ErrorIs(t, err, store.ErrActiveCycleExists)
		assert.ErrorIs(t, err, store.ErrDuplicate)

		cycles, err := s.ListCycles(ctx, "1:1")
		require.NoError(t, err)
		assert.Len(t, cycles, 1)
	})

	t.Run("reads back active cycle and its words", func(t *testing.T) {
		active, err := s.GetActiveCycle(ctx, "1:1")
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, c1.ID, active.ID)
		assert.Equal(t, "2024-06-03", active.EndDate.Format("2006-01-02"))
		assert.True(t, active.Active)

		assignments, err := s.GetCycleAssignments(ctx, c1.ID)
		require.NoError(t, err)
		require.Len(t, assignments, 5)
		for i, a := range assignments {
			assert.Equal(t, i+1, a.Position)
			assert.Equal(t, ids[i], a.WordID)
		}

		words, err := s.GetCycleWords(ctx, c1.ID)
		require.NoError(t, err)
		require.Len(t, words, 5)
		assert.Equal(t, ids[0], words[0].ID)
		assert.Equal(t, "es-00", words[0].Translation("es"))
	})

	t.Run("rotation", func(t *testing.T) {
		require.NoError(t, s.DeactivateCycle(ctx, c1.ID))
		assert.ErrorIs(t, s.DeactivateCycle(ctx, 9999), store.ErrCycleNotFound)

		sameSeq := &models.Cycle{PairingKey: "1:1", SequenceNumber: 1, StartDate: day("2024-06-04"), EndDate: day("2024-06-06"), Active: true}
		assert.ErrorIs(t, s.CreateCycle(ctx, sameSeq, ids[5:]), store.ErrActiveCycleExists)

		c2 := &models.Cycle{PairingKey: "1:1", SequenceNumber: 2, StartDate: day("2024-06-04"), EndDate: day("2024-06-06"), Active: true}
		require.NoError(t, s.CreateCycle(ctx, c2, ids[5:]))

		latest, err := s.LatestSequenceNumber(ctx, "1:1")
		require.NoError(t, err)
		assert.Equal(t, 2, latest)

		recent, err := s.RecentCycleWordIDs(ctx, "1:1", 1)
		require.NoError(t, err)
		assert.ElementsMatch(t, ids[5:], recent)

		recent, err = s.RecentCycleWordIDs(ctx, "1:1", 3)
		require.NoError(t, err)
		assert.ElementsMatch(t, ids, recent)

		require.NoError(t, s.DeactivateAllCycles(ctx, "1:1"))
		active, err := s.GetActiveCycle(ctx, "1:1")
		require.NoError(t, err)
		assert.Nil(t, active)
	})

	t.Run("keys are independent", func(t *testing.T) {
		other := &models.Cycle{PairingKey: "2:3", SequenceNumber: 1, StartDate: day("2024-06-01"), EndDate: day("2024-06-03"), Active: true}
		require.NoError(t, s.CreateCycle(ctx, other, ids[:5]))
	})
}

func TestProgressRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ids := seedWords(t, s, 5)
	c := &models.Cycle{PairingKey: "1:1", SequenceNumber: 1, StartDate: day("2024-06-01"), EndDate: day("2024-06-03"), Active: true}
	require.NoError(t, s.CreateCycle(ctx, c, ids))

	got, err := s.GetProgress(ctx, 1, ids[0], c.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	reviewed := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	quality := 5
	p := &models.ProgressRecord{
		LearnerID: 1, WordID: ids[0], CycleID: c.ID,
		EaseFactor: 2.5, Interval: 1, Repetitions: 1,
		NextDueDate:    day("2024-06-02"),
		LastReviewedAt: &reviewed,
		LastQuality:    &quality,
		TimesReviewed:  1,
	}
	require.NoError(t, s.UpsertProgress(ctx, p))
	firstID := p.ID
	assert.NotZero(t, firstID)

	p.Interval, p.Repetitions, p.TimesReviewed, p.EaseFactor = 6, 2, 2, 2.36
	p.NextDueDate = day("2024-06-08")
	require.NoError(t, s.UpsertProgress(ctx, p))
	assert.Equal(t, firstID, p.ID)

	got, err = s.GetProgress(ctx, 1, ids[0], c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 6, got.Interval)
	assert.Equal(t, 2, got.Repetitions)
	assert.Equal(t, 2, got.TimesReviewed)
	assert.InDelta(t, 2.36, got.EaseFactor, 1e-9)
	assert.Equal(t, "2024-06-08", got.NextDueDate.Format("2006-01-02"))
	require.NotNil(t, got.LastQuality)
	assert.Equal(t, 5, *got.LastQuality)
	require.NotNil(t, got.LastReviewedAt)
	assert.True(t, reviewed.Equal(*got.LastReviewedAt))

	require.NoError(t, s.UpsertProgress(ctx, &models.ProgressRecord{LearnerID: 1, WordID: ids[1], CycleID: c.ID, EaseFactor: 2.5, Interval: 1, NextDueDate: day("2024-06-02")}))
	require.NoError(t, s.UpsertProgress(ctx, &models.ProgressRecord{LearnerID: 2, WordID: ids[1], CycleID: c.ID, EaseFactor: 2.5, Interval: 1, NextDueDate: day("2024-06-02")}))

	records, err := s.ListProgress(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	n, err := s.DeleteProgress(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	records, err = s.ListProgress(ctx, 2, c.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStatisticsRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	st, err := s.AddDailyStat(ctx, 1, day("2024-06-01").Add(15*time.Hour), 3, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, st.WordsReviewed)
	assert.Equal(t, 2, st.PerfectAnswers)
	assert.False(t, st.GoalMet)

	st, err = s.AddDailyStat(ctx, 1, day("2024-06-01"), 2, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, st.WordsReviewed)
	assert.Equal(t, 3, st.PerfectAnswers)
	assert.True(t, st.GoalMet)

	_, err = s.AddDailyStat(ctx, 1, day("2024-06-02"), 1, 0, 5)
	require.NoError(t, err)
	_, err = s.AddDailyStat(ctx, 2, day("2024-06-02"), 9, 0, 5)
	require.NoError(t, err)

	stats, err := s.ListDailyStats(ctx, 1, day("2024-05-01"))
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "2024-06-01", stats[0].Day.Format("2006-01-02"))
	assert.Equal(t, "2024-06-02", stats[1].Day.Format("2006-01-02"))

	stats, err = s.ListDailyStats(ctx, 1, day("2024-06-02"))
	require.NoError(t, err)
	assert.Len(t, stats, 1)
}

func TestSharedStateRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	got, err := s.GetSharedState(ctx, "1:2")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, s.UpdateHappiness(ctx, "1:2", 70), store.ErrNotFound)

	require.NoError(t, s.CreateSharedState(ctx, &models.SharedState{PairingKey: "1:2", Happiness: 50, Health: 100}))
	assert.ErrorIs(t, s.CreateSharedState(ctx, &models.SharedState{PairingKey: "1:2", Happiness: 10, Health: 10}), store.ErrDuplicate)

	require.NoError(t, s.UpdateHappiness(ctx, "1:2", 70))
	got, err = s.GetSharedState(ctx, "1:2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 70, got.Happiness)
	assert.Equal(t, 100, got.Health)
}
