package session

import (
	"math/rand"
	"time"

	"github.com/example/lexicycle/pkg/models"
)

// AdaptedWord is a due word resolved to the learner's language and mastery
type AdaptedWord struct {
	ID                 int64
	Term               string
	Translation        string
	MasteryRepetitions int
}

// Tier groups words by how well they are known
type Tier string

const (
	TierNew      Tier = "new"
	TierLearning Tier = "learning"
	TierFamiliar Tier = "familiar"
)

// TierOf returns the mastery tier for a repetition count
func TierOf(repetitions int) Tier {
	switch {
	case repetitions <= 2:
		return TierNew
	case repetitions <= 5:
		return TierLearning
	default:
		return TierFamiliar
	}
}

type weightedMode struct {
	mode   models.ActivityMode
	weight int
}

// tierModes lists the eligible modes per tier with their relative weights
var tierModes = map[Tier][]weightedMode{
	TierNew: {
		{models.ModeListening, 3},
		{models.ModeMultipleChoice, 3},
		{models.ModeFlashcard, 2},
	},
	TierLearning: {
		{models.ModeMultipleChoice, 2},
		{models.ModeListening, 2},
		{models.ModeSentence, 3},
		{models.ModeSpeaking, 1},
		{models.ModeFlashcard, 1},
	},
	TierFamiliar: {
		{models.ModeSentence, 3},
		{models.ModeSpeaking, 3},
		{models.ModeMultipleChoice, 1},
	},
}

// productionModes ask the learner to produce the term rather than recognize it
var productionModes = map[models.ActivityMode]bool{
	models.ModeSentence: true,
	models.ModeSpeaking: true,
}

// IsProduction reports whether mode asks the learner to produce the term
func IsProduction(mode models.ActivityMode) bool {
	return productionModes[mode]
}

// Sequencer expands due words into an interleaved list of activities
type Sequencer struct {
	// SpeechSupported enables pronunciation exercises for familiar words
	SpeechSupported bool
	// Distractors is the number of wrong options in a multiple choice activity
	Distractors int

	rnd *rand.Rand
}

// NewSequencer creates a sequencer. A nil rnd is seeded from the clock.
func NewSequencer(rnd *rand.Rand, speechSupported bool) *Sequencer {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sequencer{SpeechSupported: speechSupported, Distractors: 3, rnd: rnd}
}

// ActivityCount returns how many activities a word gets in one session
func ActivityCount(repetitions int) int {
	if repetitions <= 0 {
		return 3
	}
	return 2
}

// Build picks modes for every word and shuffles the result so that words
// are interleaved rather than drilled in blocks.
func (s *Sequencer) Build(words []AdaptedWord) []models.Activity {
	activities := make([]models.Activity, 0, len(words)*3)
	for _, w := range words {
		for _, mode := range s.modesFor(w) {
			a := models.Activity{
				WordID:      w.ID,
				Term:        w.Term,
				Translation: w.Translation,
				Mode:        mode,
			}
			if mode == models.ModeMultipleChoice {
				a.Options = s.options(w, words)
			}
			activities = append(activities, a)
		}
	}

	s.rnd.Shuffle(len(activities), func(i, j int) {
		activities[i], activities[j] = activities[j], activities[i]
	})
	return activities
}

// modesFor draws distinct modes for one word by weighted choice without
// replacement. Learning words always get one production mode and fill the
// remaining slots with recognition modes.
func (s *Sequencer) modesFor(w AdaptedWord) []models.ActivityMode {
	tier := TierOf(w.MasteryRepetitions)
	var pool []weightedMode
	for _, m := range tierModes[tier] {
		if m.mode == models.ModeSpeaking && !s.SpeechSupported {
			continue
		}
		pool = append(pool, m)
	}

	n := ActivityCount(w.MasteryRepetitions)
	if tier != TierLearning {
		return s.draw(pool, n)
	}

	var production, recognition []weightedMode
	for _, m := range pool {
		if IsProduction(m.mode) {
			production = append(production, m)
		} else {
			recognition = append(recognition, m)
		}
	}
	modes := s.draw(production, 1)
	return append(modes, s.draw(recognition, n-len(modes))...)
}

// draw picks up to n distinct modes from pool by weight
func (s *Sequencer) draw(pool []weightedMode, n int) []models.ActivityMode {
	pool = append([]weightedMode(nil), pool...)
	n = min(n, len(pool))
	modes := make([]models.ActivityMode, 0, n)
	for len(modes) < n {
		total := 0
		for _, m := range pool {
			total += m.weight
		}
		pick := s.rnd.Intn(total)
		for i, m := range pool {
			if pick < m.weight {
				modes = append(modes, m.mode)
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
			pick -= m.weight
		}
	}
	return modes
}

// options returns the correct translation mixed with translations of other
// session words
func (s *Sequencer) options(w AdaptedWord, words []AdaptedWord) []string {
	seen := map[string]bool{w.Translation: true}
	var others []string
	for _, o := range words {
		if o.ID == w.ID || o.Translation == "" || seen[o.Translation] {
			continue
		}
		seen[o.Translation] = true
		others = append(others, o.Translation)
	}
	s.rnd.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})
	if len(others) > s.Distractors {
		others = others[:s.Distractors]
	}

	opts := append(others, w.Translation)
	s.rnd.Shuffle(len(opts), func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})
	return opts
}
