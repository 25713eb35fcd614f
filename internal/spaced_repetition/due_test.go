package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/lexicycle/pkg/models"
)

func words(ids ...int64) []models.VocabularyItem {
	out := make([]models.VocabularyItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.VocabularyItem{ID: id})
	}
	return out
}

func ids(items []models.VocabularyItem) []int64 {
	out := make([]int64, 0, len(items))
	for _, w := range items {
		out = append(out, w.ID)
	}
	return out
}

func TestIsDue(t *testing.T) {
	now := time.Date(2024, time.March, 10, 23, 59, 0, 0, time.UTC)

	assert.True(t, IsDue(nil, now), "no record is due")
	assert.True(t, IsDue(&models.ProgressRecord{NextDueDate: now.AddDate(0, 0, -3)}, now))
	assert.True(t, IsDue(&models.ProgressRecord{NextDueDate: time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)}, now))
	assert.False(t, IsDue(&models.ProgressRecord{NextDueDate: time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)}, now))

	// Same calendar day in another zone is still today.
	tokyo := time.FixedZone("JST", 9*3600)
	assert.True(t, IsDue(&models.ProgressRecord{NextDueDate: time.Date(2024, time.March, 10, 22, 0, 0, 0, tokyo)}, now))
}

func TestSelectDue(t *testing.T) {
	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 1)

	t.Run("returns words without progress", func(t *testing.T) {
		progress := []models.ProgressRecord{
			{WordID: 2, NextDueDate: future},
			{WordID: 4, NextDueDate: future},
		}
		got := SelectDue(words(1, 2, 3, 4, 5), progress, now)
		assert.Equal(t, []int64{1, 3, 5}, ids(got))
	})

	t.Run("includes overdue and due today", func(t *testing.T) {
		progress := []models.ProgressRecord{
			{WordID: 1, NextDueDate: now.AddDate(0, 0, -2)},
			{WordID: 2, NextDueDate: now},
			{WordID: 3, NextDueDate: future},
		}
		got := SelectDue(words(1, 2, 3), progress, now)
		assert.Equal(t, []int64{1, 2}, ids(got))
	})
}

func TestSelectForSession(t *testing.T) {
	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 3)
	progress := []models.ProgressRecord{{WordID: 1, NextDueDate: future}, {WordID: 2, NextDueDate: future}}

	got, fallback := SelectForSession(words(1, 2), progress, now)
	assert.True(t, fallback)
	assert.Equal(t, []int64{1, 2}, ids(got))

	got, fallback = SelectForSession(words(1, 2, 3), progress, now)
	assert.False(t, fallback)
	assert.Equal(t, []int64{3}, ids(got))
}
