package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("SessionTTL converts hours to duration", func(t *testing.T) {
		cfg := &Config{SessionTTLHours: 168}
		assert.Equal(t, 168*time.Hour, cfg.SessionTTL())
	})

	t.Run("LinkTTL converts minutes to duration", func(t *testing.T) {
		cfg := &Config{TelegramLinkTTLMinutes: 5}
		assert.Equal(t, 5*time.Minute, cfg.LinkTTL())
	})
}

func TestLoad(t *testing.T) {
	vars := []string{
		"PORT", "DATABASE_URL", "REDIS_URL", "LOG_LEVEL",
		"SESSION_SECRET", "SESSION_TTL_HOURS",
		"TELEGRAM_LINK_SECRET", "TELEGRAM_LINK_TTL_MINUTES",
		"AI_DAILY_LIMIT",
	}
	originalEnv := map[string]string{}
	for _, k := range vars {
		originalEnv[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	setRequired := func() {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("SESSION_SECRET", "test-session-secret")
		os.Setenv("TELEGRAM_LINK_SECRET", "test-link-secret")
	}

	t.Run("loads config with defaults", func(t *testing.T) {
		setRequired()
		os.Unsetenv("PORT")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("SESSION_TTL_HOURS")
		os.Unsetenv("TELEGRAM_LINK_TTL_MINUTES")
		os.Unsetenv("AI_DAILY_LIMIT")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 168, cfg.SessionTTLHours)
		assert.Equal(t, 5, cfg.TelegramLinkTTLMinutes)
		assert.Equal(t, 10, cfg.AIDailyLimit)
	})

	t.Run("loads custom values", func(t *testing.T) {
		setRequired()
		os.Setenv("PORT", "4000")
		os.Setenv("SESSION_TTL_HOURS", "24")
		os.Setenv("TELEGRAM_LINK_TTL_MINUTES", "10")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 4000, cfg.Port)
		assert.Equal(t, 24, cfg.SessionTTLHours)
		assert.Equal(t, 10, cfg.TelegramLinkTTLMinutes)
	})

	t.Run("fails without link secret", func(t *testing.T) {
		setRequired()
		os.Unsetenv("TELEGRAM_LINK_SECRET")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("fails without database url", func(t *testing.T) {
		setRequired()
		os.Unsetenv("DATABASE_URL")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			RedisURL:               "rediss://localhost:6379",
			SessionSecret:          "a-sufficiently-long-session-secret!!",
			TelegramLinkSecret:     "a-sufficiently-long-telegram-secret!",
			TelegramLinkTTLMinutes: 5,
		}
	}

	t.Run("accepts strong secrets in production", func(t *testing.T) {
		assert.NoError(t, base().Validate(true))
	})

	t.Run("rejects non-positive link TTL", func(t *testing.T) {
		cfg := base()
		cfg.TelegramLinkTTLMinutes = 0
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects short secrets in production", func(t *testing.T) {
		cfg := base()
		cfg.TelegramLinkSecret = "short"
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("rejects known weak secrets in production", func(t *testing.T) {
		cfg := base()
		cfg.SessionSecret = "change-me"
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("allows weak secrets outside production", func(t *testing.T) {
		cfg := base()
		cfg.SessionSecret = "dev"
		cfg.TelegramLinkSecret = "dev"
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("requires webhook secret when bot token set in production", func(t *testing.T) {
		cfg := base()
		cfg.TelegramBotToken = "bot-token"
		cfg.TelegramWebhookSecret = ""
		assert.Error(t, cfg.Validate(true))
	})
}
