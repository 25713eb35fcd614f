package spaced_repetition

import (
	"time"

	"github.com/example/lexicycle/pkg/models"
)

// IsDue reports whether a word with the given progress should be reviewed on
// today. A missing record always means due. Only calendar dates are compared.
func IsDue(progress *models.ProgressRecord, today time.Time) bool {
	if progress == nil {
		return true
	}
	return !models.DateOf(progress.NextDueDate).After(models.DateOf(today))
}

// SelectDue returns the cycle words that are due today, in cycle order.
// progress should hold the learner's records for the current cycle.
func SelectDue(cycleWords []models.VocabularyItem, progress []models.ProgressRecord, today time.Time) []models.VocabularyItem {
	byWord := make(map[int64]*models.ProgressRecord, len(progress))
	for i := range progress {
		byWord[progress[i].WordID] = &progress[i]
	}

	due := make([]models.VocabularyItem, 0, len(cycleWords))
	for _, w := range cycleWords {
		if IsDue(byWord[w.ID], today) {
			due = append(due, w)
		}
	}
	return due
}

// SelectForSession is SelectDue with the practice fallback: when nothing is
// due the whole cycle is returned so the learner can always practice.
// The second result reports whether the fallback was used.
func SelectForSession(cycleWords []models.VocabularyItem, progress []models.ProgressRecord, today time.Time) ([]models.VocabularyItem, bool) {
	due := SelectDue(cycleWords, progress, today)
	if len(due) == 0 {
		return cycleWords, true
	}
	return due, false
}
