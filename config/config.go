package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	LogLevel string

	DefaultVolume     float64
	ProgressCadenceMs int

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	DiscordWebhookID    string
	DiscordWebhookToken string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr: getEnvWithDefault("HTTP_ADDR", "127.0.0.1:8475"),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		DefaultVolume:     getEnvAsFloatWithDefault("DEFAULT_VOLUME", 1.0),
		ProgressCadenceMs: getEnvAsIntWithDefault("PROGRESS_CADENCE_MS", 250),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnvAsIntWithDefault("DB_PORT", 5432),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvAsIntWithDefault("REDIS_PORT", 6379),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvAsIntWithDefault("REDIS_DB", 0),

		DiscordWebhookID:    os.Getenv("DISCORD_WEBHOOK_ID"),
		DiscordWebhookToken: os.Getenv("DISCORD_WEBHOOK_TOKEN"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}

	if c.DefaultVolume < 0 || c.DefaultVolume > 1 {
		return errors.New("DEFAULT_VOLUME must be between 0 and 1")
	}

	if c.ProgressCadenceMs < 50 {
		return errors.New("PROGRESS_CADENCE_MS must be at least 50")
	}

	return nil
}

// WebhookConfigured reports whether service completion announcements go to
// a Discord channel.
func (c *Config) WebhookConfigured() bool {
	return c.DiscordWebhookID != "" && c.DiscordWebhookToken != ""
}

func getEnvAsIntWithDefault(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloatWithDefault(key string, defaultValue float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvWithDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
