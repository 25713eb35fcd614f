package progress

import (
	"time"

	"github.com/example/lexicycle/pkg/models"
)

// Streak counts consecutive goal-met calendar days ending today, or ending
// yesterday when today's goal is not met yet. A missed day ends the streak.
func Streak(stats []models.DailyStat, today time.Time) int {
	met := make(map[time.Time]bool, len(stats))
	for _, s := range stats {
		if s.GoalMet {
			met[models.DateOf(s.Day)] = true
		}
	}

	day := models.DateOf(today)
	if !met[day] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for met[day] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// WordsOn returns the words reviewed on the given calendar day.
func WordsOn(stats []models.DailyStat, day time.Time) int {
	d := models.DateOf(day)
	total := 0
	for _, s := range stats {
		if models.DateOf(s.Day).Equal(d) {
			total += s.WordsReviewed
		}
	}
	return total
}
