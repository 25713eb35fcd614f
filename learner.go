package main

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/example/lexicycle/pkg/models"
)

// learnerOptions are the flags of `learner set`
type learnerOptions struct {
	ID            int64  `validate:"gt=0"`
	Username      string `validate:"max=64"`
	PartnerID     int64  `validate:"gte=0,nefield=ID"`
	Language      string `validate:"omitempty,min=2,max=8"`
	WordsPerDay   int    `validate:"gte=1,lte=100"`
	Notifications bool
	NotifyHour    int `validate:"gte=0,lte=23"`
}

func (o learnerOptions) learner() models.Learner {
	l := models.Learner{
		ID:                  o.ID,
		Username:            o.Username,
		Language:            o.Language,
		WordsPerDay:         o.WordsPerDay,
		NotificationEnabled: o.Notifications,
		NotificationHour:    o.NotifyHour,
	}
	if o.PartnerID > 0 {
		partner := o.PartnerID
		l.PartnerID = &partner
	}
	return l
}

func newLearnerCommand() *cobra.Command {
	learnerCmd := &cobra.Command{
		Use:   "learner",
		Short: "Manage learners",
	}
	learnerCmd.AddCommand(newLearnerSetCommand())
	return learnerCmd
}

func newLearnerSetCommand() *cobra.Command {
	opts := learnerOptions{WordsPerDay: 5, Notifications: true, NotifyHour: 9}

	command := &cobra.Command{
		Use:   "set",
		Short: "Create or update a learner and their reminder settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validator.New().Struct(opts); err != nil {
				return fmt.Errorf("invalid learner: %w", err)
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			l := opts.learner()
			if err := a.store.PutLearner(cmd.Context(), &l); err != nil {
				return err
			}
			a.log.Info("Learner saved", "learner_id", l.ID, "partner_id", l.Partner(),
				"words_per_day", l.WordsPerDay, "notification_hour", l.NotificationHour)
			fmt.Fprintf(cmd.OutOrStdout(), "Learner %d saved\n", l.ID)
			return nil
		},
	}

	command.Flags().Int64Var(&opts.ID, "id", 0, "learner id (Telegram user id)")
	command.Flags().StringVar(&opts.Username, "username", "", "display name used in reminders")
	command.Flags().Int64Var(&opts.PartnerID, "partner", 0, "partner id, 0 for solo")
	command.Flags().StringVar(&opts.Language, "language", "", "target language code, the configured default when empty")
	command.Flags().IntVar(&opts.WordsPerDay, "words-per-day", opts.WordsPerDay, "daily word target")
	command.Flags().BoolVar(&opts.Notifications, "notifications", opts.Notifications, "send daily reminders")
	command.Flags().IntVar(&opts.NotifyHour, "notify-hour", opts.NotifyHour, "UTC hour for reminders (0-23)")
	_ = command.MarkFlagRequired("id")
	return command
}
