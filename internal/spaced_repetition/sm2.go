package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/lexicycle/pkg/models"
)

// SM2 implements the SuperMemo-2 variant used to schedule word reviews
type SM2 struct {
	// Ответы с качеством ниже порога сбрасывают кривую обучения
	PassThreshold int
	MinEase       float64
	MaxEase       float64
	MaxInterval   int
	// Интервалы для первого и второго успешного повторения
	FirstInterval  int
	SecondInterval int
}

// NewSM2 returns the scheduler with the standard bounds
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:  3,
		MinEase:        models.MinEaseFactor,
		MaxEase:        models.MaxEaseFactor,
		MaxInterval:    models.MaxInterval,
		FirstInterval:  1,
		SecondInterval: 6,
	}
}

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// State is the scheduling state of one word
type State struct {
	Ease        float64
	Interval    int
	Repetitions int
}

// InitialState is the state assumed for a word that has never been reviewed.
func InitialState() State {
	return State{Ease: models.DefaultEaseFactor, Interval: models.MinInterval}
}

// Result is the outcome of one scheduling step
type Result struct {
	State
	NextDueDate time.Time
}

// ClampQuality forces q into [0,5].
func ClampQuality(q int) int {
	if q < models.MinQuality {
		return models.MinQuality
	}
	if q > models.MaxQuality {
		return models.MaxQuality
	}
	return q
}

// Advance computes the next state from the aggregated quality of one session.
// It must be called once per word per session. today only feeds NextDueDate.
func (sm *SM2) Advance(quality int, prior State, today time.Time) Result {
	quality = ClampQuality(quality)
	if prior.Ease <= 0 {
		prior.Ease = models.DefaultEaseFactor
	}

	next := State{}
	if quality < sm.PassThreshold {
		next.Repetitions = 0
		next.Interval = 1
	} else {
		next.Repetitions = prior.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.Interval = sm.FirstInterval
		case 2:
			next.Interval = sm.SecondInterval
		default:
			next.Interval = int(math.Round(float64(prior.Interval) * prior.Ease))
		}
	}

	q := float64(5 - quality)
	next.Ease = sm.clampEase(prior.Ease + (0.1 - q*(0.08+q*0.02)))
	next.Interval = sm.clampInterval(next.Interval)

	return Result{
		State:       next,
		NextDueDate: models.DateOf(today).AddDate(0, 0, next.Interval),
	}
}

// Apply advances a progress record in place and stamps review metadata.
// A record that was never reviewed starts from InitialState.
func (sm *SM2) Apply(progress *models.ProgressRecord, quality int, now time.Time) {
	prior := InitialState()
	if progress.TimesReviewed > 0 {
		prior = State{Ease: progress.EaseFactor, Interval: progress.Interval, Repetitions: progress.Repetitions}
	}

	res := sm.Advance(quality, prior, now)
	q := ClampQuality(quality)
	reviewedAt := now

	progress.EaseFactor = res.Ease
	progress.Interval = res.Interval
	progress.Repetitions = res.Repetitions
	progress.NextDueDate = res.NextDueDate
	progress.LastReviewedAt = &reviewedAt
	progress.LastQuality = &q
	progress.TimesReviewed++
}

// IsWordMastered determines if a word is considered "mastered"
func (sm *SM2) IsWordMastered(progress *models.ProgressRecord) bool {
	return progress.Repetitions >= 5 &&
		progress.LastQuality != nil && *progress.LastQuality >= int(QualityCorrectHesitation) &&
		progress.Interval >= 30
}

func (sm *SM2) clampEase(ef float64) float64 {
	return math.Min(sm.MaxEase, math.Max(sm.MinEase, ef))
}

func (sm *SM2) clampInterval(days int) int {
	if days < models.MinInterval {
		return models.MinInterval
	}
	if days > sm.MaxInterval {
		return sm.MaxInterval
	}
	return days
}

// QualityFromAttempts maps how a learner got through an exercise to a 0-5
// quality: first attempt 5, second 4, third or later 3, skip or timeout 0.
// Fewer attempts never yield a lower quality.
func QualityFromAttempts(attempts int, skipped bool) int {
	switch {
	case skipped || attempts <= 0:
		return int(QualityBlackout)
	case attempts == 1:
		return int(QualityPerfect)
	case attempts == 2:
		return int(QualityCorrectHesitation)
	default:
		return int(QualityCorrectDifficult)
	}
}
