// Package config loads application settings from a config file, a .env file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/example/lexicycle/internal/cycle"
	"github.com/example/lexicycle/internal/database"
	"github.com/example/lexicycle/internal/mood"
	"github.com/example/lexicycle/internal/progress"
)

type Config struct {
	Database      database.Config     `mapstructure:"database"`
	Log           LogConfig           `mapstructure:"log"`
	Telegram      TelegramConfig      `mapstructure:"telegram"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Engine        EngineConfig        `mapstructure:"engine"`
	Mood          mood.Config         `mapstructure:"mood"`
}

type LogConfig struct {
	// Mode is "production" for JSON logs, anything else for development output
	Mode string `mapstructure:"mode"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// NotificationsConfig bounds the hours in which reminders are sent
type NotificationsConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	StartHour int  `mapstructure:"start_hour" validate:"gte=0,lte=23"`
	EndHour   int  `mapstructure:"end_hour" validate:"gte=0,lte=23"`
}

type EngineConfig struct {
	Cycle    cycle.Config    `mapstructure:"cycle"`
	Progress progress.Config `mapstructure:"progress"`
	// SpeechSupported enables pronunciation activities
	SpeechSupported bool `mapstructure:"speech_supported"`
	// DefaultLanguage is used for learners without a language
	DefaultLanguage string `mapstructure:"default_language" validate:"required"`
}

// envBindings maps config keys to the environment variables the bot has
// always used
var envBindings = map[string]string{
	"database.type":            "DB_TYPE",
	"database.url":             "DATABASE_URL",
	"telegram.token":           "TELEGRAM_BOT_TOKEN",
	"notifications.start_hour": "NOTIFICATION_START_HOUR",
	"notifications.end_hour":   "NOTIFICATION_END_HOUR",
	"log.mode":                 "LOG_MODE",
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
	envFile    string
}

// NewConfigLoader creates a loader. An empty configFile searches for
// config.yaml in the working directory and $HOME/.config/lexicycle.
func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/lexicycle")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
		envFile:    ".env",
	}, nil
}

// WithEnvFile changes the dotenv file read before the environment is bound
func (loader *ConfigLoader) WithEnvFile(path string) *ConfigLoader {
	loader.envFile = path
	return loader
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.url", "data/lexicycle.db")
	v.SetDefault("log.mode", "development")
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.start_hour", 8)
	v.SetDefault("notifications.end_hour", 22)

	cycleCfg := cycle.DefaultConfig()
	v.SetDefault("engine.cycle.size", cycleCfg.Size)
	v.SetDefault("engine.cycle.length_days", cycleCfg.LengthDays)
	v.SetDefault("engine.cycle.recent_exclusion", cycleCfg.RecentExclusion)

	progressCfg := progress.DefaultConfig()
	v.SetDefault("engine.progress.daily_goal", progressCfg.DailyGoal)
	v.SetDefault("engine.progress.concurrency", progressCfg.Concurrency)
	v.SetDefault("engine.speech_supported", false)
	v.SetDefault("engine.default_language", "es")

	moodCfg := mood.DefaultConfig()
	v.SetDefault("mood.default_target", moodCfg.DefaultTarget)
	v.SetDefault("mood.solo_daily_points", moodCfg.SoloDailyPoints)
	v.SetDefault("mood.streak_points_per_week", moodCfg.StreakPointsPerWeek)
	v.SetDefault("mood.solo_streak_cap", moodCfg.SoloStreakCap)
	v.SetDefault("mood.consistency_points", moodCfg.ConsistencyPoints)
	v.SetDefault("mood.consistency_ratio", moodCfg.ConsistencyRatio)
	v.SetDefault("mood.paired_daily_points", moodCfg.PairedDailyPoints)
	v.SetDefault("mood.paired_streak_points", moodCfg.PairedStreakPoints)
	v.SetDefault("mood.sync_points", moodCfg.SyncPoints)
	v.SetDefault("mood.sync_max_word_difference", moodCfg.SyncMaxWordDifference)
	v.SetDefault("mood.streak_days_for_full_bonus", moodCfg.StreakDaysForFullBonus)
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	// a missing .env is fine, the environment may already be set
	if loader.envFile != "" {
		if err := godotenv.Load(loader.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", loader.envFile, err)
		}
	}

	setDefaults(v)

	v.SetEnvPrefix("LEXICYCLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}

// InNotificationWindow reports whether hour falls within the reminder window.
// A window whose end is before its start wraps around midnight.
func (n NotificationsConfig) InNotificationWindow(hour int) bool {
	if n.StartHour <= n.EndHour {
		return hour >= n.StartHour && hour <= n.EndHour
	}
	return hour >= n.StartHour || hour <= n.EndHour
}
