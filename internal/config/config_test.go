package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func load(t *testing.T, configContent, envContent string) (*Config, error) {
	t.Helper()
	dir := t.TempDir()
	configFile := writeFile(t, dir, "config.yaml", configContent)
	loader, err := NewConfigLoader(configFile)
	require.NoError(t, err)
	loader.WithEnvFile(filepath.Join(dir, ".env"))
	if envContent != "" {
		writeFile(t, dir, ".env", envContent)
	}
	return loader.Load()
}

func TestLoad(t *testing.T) {
	// keep values from the developer's shell out of the tests
	for _, env := range envBindings {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}

	t.Run("defaults", func(t *testing.T) {
		cfg, err := load(t, "", "")
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Database.Type)
		assert.Equal(t, "data/lexicycle.db", cfg.Database.URL)
		assert.Equal(t, 5, cfg.Engine.Cycle.Size)
		assert.Equal(t, 2, cfg.Engine.Cycle.LengthDays)
		assert.Equal(t, 3, cfg.Engine.Cycle.RecentExclusion)
		assert.Equal(t, 5, cfg.Engine.Progress.DailyGoal)
		assert.Equal(t, 60.0, cfg.Mood.SoloDailyPoints)
		assert.Equal(t, 7, cfg.Mood.StreakDaysForFullBonus)
		assert.Equal(t, 8, cfg.Notifications.StartHour)
		assert.Equal(t, 22, cfg.Notifications.EndHour)
		assert.Equal(t, "es", cfg.Engine.DefaultLanguage)
	})

	t.Run("config file overrides defaults", func(t *testing.T) {
		cfg, err := load(t, `database:
  type: postgres
  url: postgres://localhost/lexicycle
engine:
  cycle:
    size: 7
  speech_supported: true
mood:
  sync_points: 8
`, "")
		require.NoError(t, err)
		assert.Equal(t, "postgres", cfg.Database.Type)
		assert.Equal(t, 7, cfg.Engine.Cycle.Size)
		assert.True(t, cfg.Engine.SpeechSupported)
		assert.Equal(t, 8.0, cfg.Mood.SyncPoints)
		assert.Equal(t, 2, cfg.Engine.Cycle.LengthDays)
	})

	t.Run("dotenv file sets bot variables", func(t *testing.T) {
		t.Cleanup(func() {
			for _, env := range envBindings {
				os.Unsetenv(env)
			}
		})
		cfg, err := load(t, "", "TELEGRAM_BOT_TOKEN=abc\nNOTIFICATION_START_HOUR=6\nDB_TYPE=sqlite\nDATABASE_URL=/tmp/x.db\n")
		require.NoError(t, err)
		assert.Equal(t, "abc", cfg.Telegram.Token)
		assert.Equal(t, 6, cfg.Notifications.StartHour)
		assert.Equal(t, "/tmp/x.db", cfg.Database.URL)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		_, err := load(t, `database:
  type: mysql
notifications:
  end_hour: 30
`, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "type")
		assert.Contains(t, err.Error(), "end_hour")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := load(t, "engine: [[[", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not be read")
	})
}

func TestNotificationsConfig_InNotificationWindow(t *testing.T) {
	tests := []struct {
		name string
		cfg  NotificationsConfig
		hour int
		want bool
	}{
		{"inside", NotificationsConfig{StartHour: 8, EndHour: 22}, 12, true},
		{"start boundary", NotificationsConfig{StartHour: 8, EndHour: 22}, 8, true},
		{"end boundary", NotificationsConfig{StartHour: 8, EndHour: 22}, 22, true},
		{"before", NotificationsConfig{StartHour: 8, EndHour: 22}, 7, false},
		{"after", NotificationsConfig{StartHour: 8, EndHour: 22}, 23, false},
		{"wrapping late", NotificationsConfig{StartHour: 20, EndHour: 2}, 23, true},
		{"wrapping early", NotificationsConfig{StartHour: 20, EndHour: 2}, 1, true},
		{"wrapping outside", NotificationsConfig{StartHour: 20, EndHour: 2}, 12, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.InNotificationWindow(tt.hour))
		})
	}
}
