// Package memstore is an in-memory implementation of every storage
// capability the engine uses. It enforces the same uniqueness rules as the
// SQL schema and is safe for concurrent use.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/lexicycle/internal/store"
	"github.com/example/lexicycle/pkg/models"
)

type progressKey struct {
	learnerID, wordID, cycleID int64
}

type dayKey struct {
	learnerID int64
	day       time.Time
}

// Store keeps all entities in maps guarded by one mutex
type Store struct {
	mu sync.Mutex

	nextID      int64
	learners    map[int64]models.Learner
	words       map[int64]models.VocabularyItem
	progress    map[progressKey]models.ProgressRecord
	cycles      map[int64]models.Cycle
	assignments map[int64][]models.CycleWordAssignment
	daily       map[dayKey]models.DailyStat
	shared      map[string]models.SharedState

	now func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		learners:    make(map[int64]models.Learner),
		words:       make(map[int64]models.VocabularyItem),
		progress:    make(map[progressKey]models.ProgressRecord),
		cycles:      make(map[int64]models.Cycle),
		assignments: make(map[int64][]models.CycleWordAssignment),
		daily:       make(map[dayKey]models.DailyStat),
		shared:      make(map[string]models.SharedState),
		now:         time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// PutLearner inserts or replaces a learner
func (s *Store) PutLearner(_ context.Context, l *models.Learner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learners[l.ID] = *l
	return nil
}

// GetLearner returns nil when the learner is unknown
func (s *Store) GetLearner(_ context.Context, id int64) (*models.Learner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.learners[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// GetLearnersForNotification returns learners with notifications on at hour
func (s *Store) GetLearnersForNotification(_ context.Context, hour int) ([]models.Learner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Learner
	for _, l := range s.learners {
		if l.NotificationEnabled && l.NotificationHour == hour {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpsertWord inserts a word or updates the one with the same term.
// It reports whether a new word was created.
func (s *Store) UpsertWord(_ context.Context, w *models.VocabularyItem) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, existing := range s.words {
		if strings.EqualFold(existing.Term, w.Term) {
			w.ID = id
			w.CreatedAt = existing.CreatedAt
			w.UpdatedAt = now
			s.words[id] = copyWord(*w)
			return false, nil
		}
	}
	w.ID = s.id()
	w.CreatedAt, w.UpdatedAt = now, now
	s.words[w.ID] = copyWord(*w)
	return true, nil
}

// ListWords returns up to limit words not in exclude, easiest first.
func (s *Store) ListWords(_ context.Context, exclude []int64, limit int) ([]models.VocabularyItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	skip := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []models.VocabularyItem
	for id, w := range s.words {
		if !skip[id] {
			out = append(out, copyWord(w))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Difficulty != out[j].Difficulty {
			return out[i].Difficulty < out[j].Difficulty
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetCycleWords returns the words assigned to a cycle in position order
func (s *Store) GetCycleWords(_ context.Context, cycleID int64) ([]models.VocabularyItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.VocabularyItem
	for _, a := range s.assignments[cycleID] {
		if w, ok := s.words[a.WordID]; ok {
			out = append(out, copyWord(w))
		}
	}
	return out, nil
}

// GetCycleAssignments returns a cycle's assignments in position order
func (s *Store) GetCycleAssignments(_ context.Context, cycleID int64) ([]models.CycleWordAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CycleWordAssignment(nil), s.assignments[cycleID]...), nil
}

// GetProgress returns nil when the word was never reviewed in the cycle
func (s *Store) GetProgress(_ context.Context, learnerID, wordID, cycleID int64) (*models.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[progressKey{learnerID, wordID, cycleID}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// UpsertProgress inserts the record or replaces the one with the same key
func (s *Store) UpsertProgress(_ context.Context, p *models.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progressKey{p.LearnerID, p.WordID, p.CycleID}
	now := s.now()
	if existing, ok := s.progress[key]; ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	} else {
		p.ID = s.id()
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.progress[key] = *p
	return nil
}

// ListProgress returns a learner's records for one cycle
func (s *Store) ListProgress(_ context.Context, learnerID, cycleID int64) ([]models.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ProgressRecord
	for k, p := range s.progress {
		if k.learnerID == learnerID && k.cycleID == cycleID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WordID < out[j].WordID })
	return out, nil
}

// DeleteProgress removes a learner's records for a cycle and returns how many
func (s *Store) DeleteProgress(_ context.Context, learnerID, cycleID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.progress {
		if k.learnerID == learnerID && k.cycleID == cycleID {
			delete(s.progress, k)
			n++
		}
	}
	return n, nil
}

// GetActiveCycle returns nil when the pairing key has no active cycle
func (s *Store) GetActiveCycle(_ context.Context, pairingKey string) (*models.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cycles {
		if c.PairingKey == pairingKey && c.Active {
			return &c, nil
		}
	}
	return nil, nil
}

// ListCycles returns every cycle of a pairing key by sequence number
func (s *Store) ListCycles(_ context.Context, pairingKey string) ([]models.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cyclesOf(pairingKey), nil
}

func (s *Store) cyclesOf(pairingKey string) []models.Cycle {
	var out []models.Cycle
	for _, c := range s.cycles {
		if c.PairingKey == pairingKey {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out
}

// LatestSequenceNumber returns 0 when the pairing key has no cycles
func (s *Store) LatestSequenceNumber(_ context.Context, pairingKey string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := 0
	for _, c := range s.cycles {
		if c.PairingKey == pairingKey && c.SequenceNumber > latest {
			latest = c.SequenceNumber
		}
	}
	return latest, nil
}

// RecentCycleWordIDs returns the word ids used by the latest n cycles
func (s *Store) RecentCycleWordIDs(_ context.Context, pairingKey string, n int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cycles := s.cyclesOf(pairingKey)
	if len(cycles) > n {
		cycles = cycles[len(cycles)-n:]
	}
	seen := make(map[int64]bool)
	var out []int64
	for _, c := range cycles {
		for _, a := range s.assignments[c.ID] {
			if !seen[a.WordID] {
				seen[a.WordID] = true
				out = append(out, a.WordID)
			}
		}
	}
	return out, nil
}

// CreateCycle stores a cycle with its words at positions 1..n. It fails with
// store.ErrActiveCycleExists when the key already has an active cycle or the
// sequence number is taken.
func (s *Store) CreateCycle(_ context.Context, c *models.Cycle, wordIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cycles {
		if existing.PairingKey != c.PairingKey {
			continue
		}
		if (existing.Active && c.Active) || existing.SequenceNumber == c.SequenceNumber {
			return store.ErrActiveCycleExists
		}
	}

	c.ID = s.id()
	c.CreatedAt = s.now()
	s.cycles[c.ID] = *c
	assignments := make([]models.CycleWordAssignment, 0, len(wordIDs))
	for i, wordID := range wordIDs {
		assignments = append(assignments, models.CycleWordAssignment{CycleID: c.ID, WordID: wordID, Position: i + 1})
	}
	s.assignments[c.ID] = assignments
	return nil
}

// DeactivateCycle marks one cycle inactive
func (s *Store) DeactivateCycle(_ context.Context, cycleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cycles[cycleID]
	if !ok {
		return store.ErrCycleNotFound
	}
	c.Active = false
	s.cycles[cycleID] = c
	return nil
}

// DeactivateAllCycles marks every active cycle of a pairing key inactive
func (s *Store) DeactivateAllCycles(_ context.Context, pairingKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.cycles {
		if c.PairingKey == pairingKey && c.Active {
			c.Active = false
			s.cycles[id] = c
		}
	}
	return nil
}

// AddDailyStat adds to a learner's statistics for day and recomputes goal-met
func (s *Store) AddDailyStat(_ context.Context, learnerID int64, day time.Time, wordsReviewed, perfectAnswers, goal int) (*models.DailyStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := dayKey{learnerID, models.DateOf(day)}
	st, ok := s.daily[key]
	if !ok {
		st = models.DailyStat{ID: s.id(), LearnerID: learnerID, Day: key.day}
	}
	st.WordsReviewed += wordsReviewed
	st.PerfectAnswers += perfectAnswers
	st.GoalMet = st.WordsReviewed >= goal
	st.UpdatedAt = s.now()
	s.daily[key] = st
	return &st, nil
}

// ListDailyStats returns a learner's statistics from since onwards, oldest first
func (s *Store) ListDailyStats(_ context.Context, learnerID int64, since time.Time) ([]models.DailyStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := models.DateOf(since)
	var out []models.DailyStat
	for k, st := range s.daily {
		if k.learnerID == learnerID && !k.day.Before(from) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

// CreateSharedState fails with store.ErrDuplicate when the key already has one
func (s *Store) CreateSharedState(_ context.Context, st *models.SharedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shared[st.PairingKey]; ok {
		return store.ErrDuplicate
	}
	now := s.now()
	st.CreatedAt, st.UpdatedAt = now, now
	s.shared[st.PairingKey] = *st
	return nil
}

// GetSharedState returns nil when the key has no shared state
func (s *Store) GetSharedState(_ context.Context, pairingKey string) (*models.SharedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.shared[pairingKey]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// UpdateHappiness caches the latest happiness value on the shared state
func (s *Store) UpdateHappiness(_ context.Context, pairingKey string, happiness int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.shared[pairingKey]
	if !ok {
		return store.ErrNotFound
	}
	st.Happiness = happiness
	st.UpdatedAt = s.now()
	s.shared[pairingKey] = st
	return nil
}

func copyWord(w models.VocabularyItem) models.VocabularyItem {
	if w.Translations != nil {
		t := make(map[string]string, len(w.Translations))
		for k, v := range w.Translations {
			t[k] = v
		}
		w.Translations = t
	}
	return w
}
