package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/lexicycle/internal/config"
	"github.com/example/lexicycle/internal/database"
	"github.com/example/lexicycle/internal/engine"
	"github.com/example/lexicycle/internal/logger"
)

var (
	configFile string
	envFile    string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to execute a command: %+v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "lexicycle",
		Short:         "Vocabulary practice engine with shared learning cycles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCommand.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCommand.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with environment overrides")

	rootCommand.AddCommand(
		newServeCommand(),
		newImportCommand(),
		newLearnerCommand(),
		newRotateCommand(),
		newMoodCommand(),
	)
	return rootCommand
}

// app holds what every command needs
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	store  *database.Store
	engine *engine.Engine
}

func newApp() (*app, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	cfg, err := loader.WithEnvFile(envFile).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	store := database.NewStore(db)

	eng := engine.New(store, engine.Config{
		Cycle:           cfg.Engine.Cycle,
		Progress:        cfg.Engine.Progress,
		Mood:            cfg.Mood,
		SpeechSupported: cfg.Engine.SpeechSupported,
		DefaultLanguage: cfg.Engine.DefaultLanguage,
	}, log)

	return &app{cfg: cfg, log: log, store: store, engine: eng}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Error("Failed to close database", "error", err)
	}
	a.log.Sync()
}
