// Package mood turns aggregated learning statistics into a 0-100 happiness
// value. It is a pure function of its inputs and never touches storage.
package mood

import (
	"math"

	"github.com/example/lexicycle/pkg/models"
)

// Config holds the product-tuning constants of the happiness formula.
type Config struct {
	DefaultTarget int `mapstructure:"default_target" validate:"gte=1"`

	SoloDailyPoints        float64 `mapstructure:"solo_daily_points" validate:"gte=0"`
	StreakPointsPerWeek    float64 `mapstructure:"streak_points_per_week" validate:"gte=0"`
	SoloStreakCap          float64 `mapstructure:"solo_streak_cap" validate:"gte=0"`
	ConsistencyPoints      float64 `mapstructure:"consistency_points" validate:"gte=0"`
	ConsistencyRatio       float64 `mapstructure:"consistency_ratio" validate:"gte=0,lte=1"`
	PairedDailyPoints      float64 `mapstructure:"paired_daily_points" validate:"gte=0"`
	PairedStreakPoints     float64 `mapstructure:"paired_streak_points" validate:"gte=0"`
	SyncPoints             float64 `mapstructure:"sync_points" validate:"gte=0"`
	SyncMaxWordDifference  int     `mapstructure:"sync_max_word_difference" validate:"gte=0"`
	StreakDaysForFullBonus int     `mapstructure:"streak_days_for_full_bonus" validate:"gte=1"`
}

// DefaultConfig returns the default mood configuration
func DefaultConfig() Config {
	return Config{
		DefaultTarget:          5,
		SoloDailyPoints:        60,
		StreakPointsPerWeek:    10,
		SoloStreakCap:          30,
		ConsistencyPoints:      10,
		ConsistencyRatio:       0.5,
		PairedDailyPoints:      80,
		PairedStreakPoints:     15,
		SyncPoints:             5,
		SyncMaxWordDifference:  2,
		StreakDaysForFullBonus: 7,
	}
}

// LearnerStats is the per-learner input of the scorer
type LearnerStats struct {
	WordsToday  int
	TargetWords int
	StreakDays  int
}

// Scorer computes happiness values
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer. Zero-valued limits that would divide by zero
// are replaced with the defaults.
func NewScorer(cfg Config) *Scorer {
	def := DefaultConfig()
	if cfg.DefaultTarget <= 0 {
		cfg.DefaultTarget = def.DefaultTarget
	}
	if cfg.StreakDaysForFullBonus <= 0 {
		cfg.StreakDaysForFullBonus = def.StreakDaysForFullBonus
	}
	return &Scorer{cfg: cfg}
}

// Score returns the happiness for a solo learner (partner nil) or a pair.
func (s *Scorer) Score(self LearnerStats, partner *LearnerStats) models.MoodState {
	var points float64
	if partner == nil {
		points = s.solo(self)
	} else {
		points = s.paired(self, *partner)
	}
	return models.MoodState{Happiness: clamp(int(math.Round(points)))}
}

func (s *Scorer) solo(st LearnerStats) float64 {
	target := s.target(st)
	points := s.cfg.SoloDailyPoints * s.dailyRatio(st)

	weeks := float64(nonNegative(st.StreakDays)) / float64(s.cfg.StreakDaysForFullBonus)
	points += math.Min(s.cfg.SoloStreakCap, weeks*s.cfg.StreakPointsPerWeek)

	if float64(st.WordsToday) >= float64(target)*s.cfg.ConsistencyRatio {
		points += s.cfg.ConsistencyPoints
	}
	return points
}

func (s *Scorer) paired(a, b LearnerStats) float64 {
	half := s.cfg.PairedDailyPoints / 2
	points := half*s.dailyRatio(a) + half*s.dailyRatio(b)

	// the weaker partner's streak decides the bonus
	weakest := min(nonNegative(a.StreakDays), nonNegative(b.StreakDays))
	points += s.cfg.PairedStreakPoints * math.Min(1, float64(weakest)/float64(s.cfg.StreakDaysForFullBonus))

	diff := a.WordsToday - b.WordsToday
	if diff < 0 {
		diff = -diff
	}
	if diff <= s.cfg.SyncMaxWordDifference {
		points += s.cfg.SyncPoints
	}
	return points
}

func (s *Scorer) target(st LearnerStats) int {
	if st.TargetWords <= 0 {
		return s.cfg.DefaultTarget
	}
	return st.TargetWords
}

func (s *Scorer) dailyRatio(st LearnerStats) float64 {
	return math.Min(1, float64(nonNegative(st.WordsToday))/float64(s.target(st)))
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clamp(h int) int {
	if h < 0 {
		return 0
	}
	if h > 100 {
		return 100
	}
	return h
}
