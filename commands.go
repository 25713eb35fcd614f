package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/lexicycle/internal/bot"
	"github.com/example/lexicycle/internal/excel"
	"github.com/example/lexicycle/internal/scheduler"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			notifier, err := bot.NewNotifier(a.cfg.Telegram.Token, a.log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sch := scheduler.New(a.engine, a.store, notifier, a.cfg.Notifications, a.log)
			if err := sch.Start(ctx); err != nil {
				return err
			}
			a.log.Info("Service started. Press Ctrl+C to stop.")

			<-ctx.Done()
			a.log.Info("Received shutdown signal, stopping scheduler")
			sch.Stop()
			a.log.Info("Service stopped successfully")
			return nil
		},
	}
}

func newImportCommand() *cobra.Command {
	importConfig := excel.DefaultImportConfig()
	var translations []string

	command := &cobra.Command{
		Use:   "import <file>",
		Short: "Import vocabulary from an Excel or CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			importConfig.FilePath = args[0]
			if len(translations) > 0 {
				importConfig.TranslationColumns = make(map[string]string, len(translations))
				for _, t := range translations {
					lang, column, ok := strings.Cut(t, "=")
					if !ok {
						return fmt.Errorf("invalid translation column %q, expected lang=column", t)
					}
					importConfig.TranslationColumns[lang] = column
				}
			}

			result, err := excel.NewImporter(a.store, a.log).ImportWords(cmd.Context(), importConfig)
			if err != nil {
				return err
			}

			fmt.Printf("Processed %d rows: %d created, %d updated, %d skipped\n",
				result.TotalProcessed, result.Created, result.Updated, result.Skipped)
			for _, e := range result.Errors {
				fmt.Println("  " + e)
			}
			return nil
		},
	}

	command.Flags().StringVar(&importConfig.SheetName, "sheet", "", "sheet to import, the first one when empty")
	command.Flags().StringVar(&importConfig.TermColumn, "term-column", importConfig.TermColumn, "column with the term")
	command.Flags().StringVar(&importConfig.DifficultyColumn, "difficulty-column", importConfig.DifficultyColumn, "column with the difficulty, empty to skip")
	command.Flags().IntVar(&importConfig.StartRow, "start-row", importConfig.StartRow, "first data row (1-based)")
	command.Flags().StringSliceVar(&translations, "translation", nil, "translation column as lang=column, repeatable")
	return command
}

func newRotateCommand() *cobra.Command {
	var learnerID, partnerID int64

	command := &cobra.Command{
		Use:   "rotate",
		Short: "Close the active cycle and start the next one",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			status, err := a.engine.ForceRotate(cmd.Context(), learnerID, partnerID)
			if err != nil {
				return err
			}
			fmt.Printf("Cycle #%d for %s runs %s to %s\n",
				status.Cycle.SequenceNumber, status.Cycle.PairingKey,
				status.Cycle.StartDate.Format("2006-01-02"), status.Cycle.EndDate.Format("2006-01-02"))
			return nil
		},
	}
	addLearnerFlags(command, &learnerID, &partnerID)
	return command
}

func newMoodCommand() *cobra.Command {
	var learnerID, partnerID int64

	command := &cobra.Command{
		Use:   "mood",
		Short: "Score the mood of a learner or a pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			mood, err := a.engine.Mood(ctx, learnerID, partnerID)
			if err != nil {
				return err
			}
			due, err := a.engine.DueCount(ctx, learnerID, partnerID)
			if err != nil {
				return err
			}
			fmt.Printf("Happiness: %d/100, words due: %d\n", mood.Happiness, due)
			return nil
		},
	}
	addLearnerFlags(command, &learnerID, &partnerID)
	return command
}

func addLearnerFlags(command *cobra.Command, learnerID, partnerID *int64) {
	command.Flags().Int64Var(learnerID, "learner", 0, "learner id")
	command.Flags().Int64Var(partnerID, "partner", 0, "partner id, 0 for solo")
	_ = command.MarkFlagRequired("learner")
}

