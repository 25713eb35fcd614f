package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/lexicycle/internal/config"
	"github.com/example/lexicycle/internal/logger"
	"github.com/example/lexicycle/pkg/models"
)

// Engine answers what a learner has to review
type Engine interface {
	DueCount(ctx context.Context, learnerID, partnerID int64) (int, error)
	Mood(ctx context.Context, learnerID, partnerID int64) (models.MoodState, error)
}

// Learners finds who should be reminded
type Learners interface {
	GetLearner(ctx context.Context, id int64) (*models.Learner, error)
	GetLearnersForNotification(ctx context.Context, hour int) ([]models.Learner, error)
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, learner models.Learner, count int, mood models.MoodState) error
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	engine    Engine
	learners  Learners
	notifier  Notifier
	window    config.NotificationsConfig
	logger    *logger.Logger
	now       func() time.Time
}

// New creates a new scheduler instance
func New(engine Engine, learners Learners, notifier Notifier, window config.NotificationsConfig, log *logger.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		engine:    engine,
		learners:  learners,
		notifier:  notifier,
		window:    window,
		logger:    log,
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start(ctx context.Context) error {
	// Hourly check for learners who need reminders
	_, err := s.scheduler.Every(1).Hour().Do(func() {
		s.CheckAndSendReminders(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.logger.Info("Reminder scheduler started",
		"start_hour", s.window.StartHour, "end_hour", s.window.EndHour)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// CheckAndSendReminders reminds every learner whose notification hour is now
// and returns how many reminders were sent
func (s *Scheduler) CheckAndSendReminders(ctx context.Context) int {
	if !s.window.Enabled {
		return 0
	}

	currentHour := s.now().UTC().Hour()
	if !s.window.InNotificationWindow(currentHour) {
		s.logger.Debug("Outside notification hours, skipping reminders",
			"hour", currentHour, "start_hour", s.window.StartHour, "end_hour", s.window.EndHour)
		return 0
	}

	learners, err := s.learners.GetLearnersForNotification(ctx, currentHour)
	if err != nil {
		s.logger.Error("Failed to get learners for notification", "hour", currentHour, "error", err)
		return 0
	}

	sent := 0
	for _, l := range learners {
		if ctx.Err() != nil {
			break
		}
		ok, err := s.remind(ctx, l)
		if err != nil {
			s.logger.Error("Failed to send reminder", "learner_id", l.ID, "error", err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent
}

// RunManualCheck forces a check for a specific learner
func (s *Scheduler) RunManualCheck(ctx context.Context, learnerID int64) error {
	l, err := s.learners.GetLearner(ctx, learnerID)
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("learner %d not found", learnerID)
	}
	_, err = s.remind(ctx, *l)
	return err
}

func (s *Scheduler) remind(ctx context.Context, l models.Learner) (bool, error) {
	count, err := s.engine.DueCount(ctx, l.ID, l.Partner())
	if err != nil {
		return false, fmt.Errorf("failed to count due words: %w", err)
	}
	if count == 0 {
		return false, nil
	}

	// Don't announce more than the learner's daily preference
	if l.WordsPerDay > 0 && count > l.WordsPerDay {
		count = l.WordsPerDay
	}

	mood, err := s.engine.Mood(ctx, l.ID, l.Partner())
	if err != nil {
		s.logger.Warn("Failed to score mood for reminder", "learner_id", l.ID, "error", err)
	}

	if err := s.notifier.SendReminder(ctx, l, count, mood); err != nil {
		return false, err
	}
	return true, nil
}
