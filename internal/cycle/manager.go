package cycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/lexicycle/internal/logger"
	"github.com/example/lexicycle/internal/store"
	"github.com/example/lexicycle/pkg/models"
)

// ErrEmptyWordPool is returned when there is no vocabulary to build a cycle from
var ErrEmptyWordPool = errors.New("vocabulary pool is empty")

// Store is the persistence the cycle manager needs. CreateCycle must fail
// with store.ErrActiveCycleExists rather than create a second active cycle.
type Store interface {
	GetActiveCycle(ctx context.Context, pairingKey string) (*models.Cycle, error)
	LatestSequenceNumber(ctx context.Context, pairingKey string) (int, error)
	RecentCycleWordIDs(ctx context.Context, pairingKey string, n int) ([]int64, error)
	ListWords(ctx context.Context, exclude []int64, limit int) ([]models.VocabularyItem, error)
	CreateCycle(ctx context.Context, c *models.Cycle, wordIDs []int64) error
	DeactivateCycle(ctx context.Context, cycleID int64) error
	DeactivateAllCycles(ctx context.Context, pairingKey string) error
	CreateSharedState(ctx context.Context, st *models.SharedState) error
}

// Config describes the shape of a cycle
type Config struct {
	// Words assigned to each cycle
	Size int `mapstructure:"size" validate:"gte=1"`
	// Days between start and end date
	LengthDays int `mapstructure:"length_days" validate:"gte=0"`
	// Number of previous cycles whose words are not reused
	RecentExclusion int `mapstructure:"recent_exclusion" validate:"gte=0"`
}

// DefaultConfig returns the default cycle configuration
func DefaultConfig() Config {
	return Config{Size: 5, LengthDays: 2, RecentExclusion: 3}
}

// Status is the active cycle as seen on a given day
type Status struct {
	Cycle         models.Cycle
	DaysRemaining int
	Created       bool
}

// Manager owns the lifecycle of cycles: NoCycle -> Active -> Expired -> Active.
// Calls for the same pairing key are serialized.
type Manager struct {
	store  Store
	cfg    Config
	logger *logger.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a cycle manager. now may be nil to use the wall clock.
func NewManager(s Store, cfg Config, log *logger.Logger, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	if cfg.Size <= 0 {
		cfg.Size = DefaultConfig().Size
	}
	return &Manager{
		store:  s,
		cfg:    cfg,
		logger: log,
		now:    now,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (m *Manager) lock(pairingKey string) func() {
	m.mu.Lock()
	l, ok := m.locks[pairingKey]
	if !ok {
		l = &sync.Mutex{}
		m.locks[pairingKey] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// EnsureCycle returns the active cycle of the pairing key, creating the first
// one or rotating an expired one as needed.
func (m *Manager) EnsureCycle(ctx context.Context, pairingKey string) (*Status, error) {
	unlock := m.lock(pairingKey)
	defer unlock()

	today := models.DateOf(m.now())
	active, err := m.store.GetActiveCycle(ctx, pairingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get active cycle: %w", err)
	}

	if active != nil {
		if !active.Expired(today) {
			return m.status(*active, today, false), nil
		}
		if err := m.store.DeactivateCycle(ctx, active.ID); err != nil {
			return nil, fmt.Errorf("failed to deactivate expired cycle: %w", err)
		}
		m.logger.Info("Cycle expired", "pairing_key", pairingKey, "cycle_id", active.ID, "sequence", active.SequenceNumber)
	}

	return m.createNext(ctx, pairingKey, today)
}

// ForceRotate deactivates every active cycle of the pairing key and starts
// the next one regardless of expiry.
func (m *Manager) ForceRotate(ctx context.Context, pairingKey string) (*Status, error) {
	unlock := m.lock(pairingKey)
	defer unlock()

	if err := m.store.DeactivateAllCycles(ctx, pairingKey); err != nil {
		return nil, fmt.Errorf("failed to deactivate cycles: %w", err)
	}
	m.logger.Info("Cycle rotation forced", "pairing_key", pairingKey)

	return m.createNext(ctx, pairingKey, models.DateOf(m.now()))
}

func (m *Manager) createNext(ctx context.Context, pairingKey string, today time.Time) (*Status, error) {
	latest, err := m.store.LatestSequenceNumber(ctx, pairingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest sequence number: %w", err)
	}

	wordIDs, err := m.pickWords(ctx, pairingKey)
	if err != nil {
		return nil, err
	}

	c := &models.Cycle{
		PairingKey:     pairingKey,
		SequenceNumber: latest + 1,
		StartDate:      today,
		EndDate:        today.AddDate(0, 0, m.cfg.LengthDays),
		Active:         true,
	}
	if err := m.store.CreateCycle(ctx, c, wordIDs); err != nil {
		if !errors.Is(err, store.ErrActiveCycleExists) {
			return nil, fmt.Errorf("failed to create cycle: %w", err)
		}
		// another writer got there first
		winner, getErr := m.store.GetActiveCycle(ctx, pairingKey)
		if getErr != nil || winner == nil {
			return nil, fmt.Errorf("failed to create cycle: %w", err)
		}
		return m.status(*winner, today, false), nil
	}

	m.logger.Info("Cycle created",
		"pairing_key", pairingKey, "cycle_id", c.ID, "sequence", c.SequenceNumber, "words", len(wordIDs))

	m.ensureSharedState(ctx, pairingKey)
	return m.status(*c, today, true), nil
}

// pickWords selects the easiest words not used in recent cycles, falling back
// to an unfiltered pick when too few remain.
func (m *Manager) pickWords(ctx context.Context, pairingKey string) ([]int64, error) {
	recent, err := m.store.RecentCycleWordIDs(ctx, pairingKey, m.cfg.RecentExclusion)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent cycle words: %w", err)
	}

	words, err := m.store.ListWords(ctx, recent, m.cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list words: %w", err)
	}
	if len(words) < m.cfg.Size && len(recent) > 0 {
		m.logger.Warn("Not enough fresh words, reusing recent ones",
			"pairing_key", pairingKey, "fresh", len(words), "wanted", m.cfg.Size)
		words, err = m.store.ListWords(ctx, nil, m.cfg.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to list words: %w", err)
		}
	}
	if len(words) == 0 {
		return nil, ErrEmptyWordPool
	}

	ids := make([]int64, 0, len(words))
	for _, w := range words {
		ids = append(ids, w.ID)
	}
	return ids, nil
}

func (m *Manager) ensureSharedState(ctx context.Context, pairingKey string) {
	err := m.store.CreateSharedState(ctx, &models.SharedState{
		PairingKey: pairingKey,
		Happiness:  models.InitialHappiness,
		Health:     models.InitialHealth,
	})
	if err != nil && !errors.Is(err, store.ErrDuplicate) {
		m.logger.Warn("Failed to create shared state", "pairing_key", pairingKey, "error", err)
	}
}

func (m *Manager) status(c models.Cycle, today time.Time, created bool) *Status {
	remaining := models.DaysBetween(today, c.EndDate)
	if remaining < 0 {
		remaining = 0
	}
	return &Status{Cycle: c, DaysRemaining: remaining, Created: created}
}
