package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the API server and the bot.
type Config struct {
	ListenAddr    string
	PublicBaseURL string
	BotToken      string
	MySQLDSN      string
	SQLitePath    string
}

// Load reads configuration from environment variables, applying sane defaults.
// The bot token is optional: without it the REST API still works, only the
// Telegram webhook endpoints refuse requests.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":"+getEnv("PORT", "8080")),
		PublicBaseURL: strings.TrimSuffix(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		SQLitePath:    getEnv("SQLITE_PATH", "veln_game.db"),
	}

	cfg.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")

	return cfg, nil
}

// GameURL is the deep link into the HTTP-served game page, used by the bot's
// inline keyboard.
func (c Config) GameURL() string {
	return c.PublicBaseURL + "/game"
}

// WebhookURL is the address Telegram should deliver updates to.
func (c Config) WebhookURL() string {
	return c.PublicBaseURL + "/webhook"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	// No env file is fine, plain environment variables are enough.
	return nil
}
