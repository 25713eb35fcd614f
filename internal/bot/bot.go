package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/lexicycle/internal/logger"
	"github.com/example/lexicycle/pkg/models"
)

// Sender is the part of the Telegram API the notifier needs.
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier delivers review reminders over Telegram
type Notifier struct {
	api    Sender
	logger *logger.Logger
}

// NewNotifier connects to the Telegram Bot API with token
func NewNotifier(token string, log *logger.Logger) (*Notifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}

	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	log.Info("Authorized on Telegram", "account", botAPI.Self.UserName)

	return NewNotifierWithSender(botAPI, log), nil
}

// NewNotifierWithSender wraps an existing sender
func NewNotifierWithSender(api Sender, log *logger.Logger) *Notifier {
	return &Notifier{api: api, logger: log}
}

// SendReminder implements the scheduler.Notifier interface
func (n *Notifier) SendReminder(ctx context.Context, learner models.Learner, count int, mood models.MoodState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// For private chats the Telegram user ID is also the chat ID
	msg := tgbotapi.NewMessage(learner.ID, ReminderText(learner.Username, count, mood))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error("Error sending reminder", "learner_id", learner.ID, "error", err)
		return fmt.Errorf("failed to send reminder: %w", err)
	}

	n.logger.Info("Sent reminder", "learner_id", learner.ID, "words", count)
	return nil
}

// ReminderText renders the reminder shown to a learner
func ReminderText(username string, count int, mood models.MoodState) string {
	var sb strings.Builder

	if username != "" {
		sb.WriteString(fmt.Sprintf("Hi, %s!\n\n", username))
	}

	wordForm := "words"
	if count == 1 {
		wordForm = "word"
	}
	sb.WriteString(fmt.Sprintf("You have *%d* %s to review today.\n", count, wordForm))
	sb.WriteString(fmt.Sprintf("%s Mood: %d/100\n", moodIcon(mood.Happiness), mood.Happiness))

	return sb.String()
}

func moodIcon(happiness int) string {
	switch {
	case happiness >= 80:
		return "😄"
	case happiness >= 50:
		return "🙂"
	case happiness >= 25:
		return "😐"
	default:
		return "😢"
	}
}
