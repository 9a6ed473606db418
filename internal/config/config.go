package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name         string `envconfig:"APP_NAME" default:"Penna"`
		Port         int    `envconfig:"PORT" default:"8080"`
		CachePath    string `envconfig:"CACHE_PATH" default:"penna.db"`
		MainCurrency string `envconfig:"MAIN_CURRENCY" default:"USD"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"penna"`
	}

	Session struct {
		JWTSecret string        `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
		TokenTTL  time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	}

	Rates struct {
		BaseURL string `envconfig:"RATES_BASE_URL" default:"https://api.exchangerate-api.com/v4"`
	}

	Telegram struct {
		BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `envconfig:"TELEGRAM_CHAT_ID"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
