package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	SessionSecret   string `env:"SESSION_SECRET,required"`
	SessionTTLHours int    `env:"SESSION_TTL_HOURS" envDefault:"168"`

	FrontendOrigin string `env:"FRONTEND_ORIGIN" envDefault:"http://localhost:5173"`
	BackendOrigin  string `env:"BACKEND_ORIGIN" envDefault:"http://localhost:8080"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	// The link secret signs Telegram deep-link tokens. An empty value would
	// make every link token forgeable, so it is required up front.
	TelegramLinkSecret     string `env:"TELEGRAM_LINK_SECRET,required"`
	TelegramBotToken       string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramBotUsername    string `env:"TELEGRAM_BOT_USERNAME"`
	TelegramWebhookSecret  string `env:"TELEGRAM_WEBHOOK_SECRET"`
	TelegramLinkTTLMinutes int    `env:"TELEGRAM_LINK_TTL_MINUTES" envDefault:"5"`

	OpenRouterAPIKey   string `env:"OPENROUTER_API_KEY"`
	OpenRouterModel    string `env:"OPENROUTER_MODEL" envDefault:"liquid/lfm-2.5-1.2b-thinking:free"`
	OpenRouterBaseURL  string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenRouterSiteURL  string `env:"OPENROUTER_SITE_URL"`
	OpenRouterSiteName string `env:"OPENROUTER_SITE_NAME"`
	AIDailyLimit       int    `env:"AI_DAILY_LIMIT" envDefault:"10"`
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) LinkTTL() time.Duration {
	return time.Duration(c.TelegramLinkTTLMinutes) * time.Minute
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.TelegramLinkTTLMinutes <= 0 {
		return fmt.Errorf("TELEGRAM_LINK_TTL_MINUTES must be positive")
	}

	if isProduction {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}
		if err := validateSecret("TELEGRAM_LINK_SECRET", c.TelegramLinkSecret); err != nil {
			return err
		}

		if c.TelegramBotToken != "" && c.TelegramWebhookSecret == "" {
			return fmt.Errorf("TELEGRAM_WEBHOOK_SECRET is required when TELEGRAM_BOT_TOKEN is set in production")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.OpenRouterAPIKey == "" {
			log.Warn().Msg("OPENROUTER_API_KEY is empty in production: AI insights disabled")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
