package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, loaded from the
// environment with optional .env support.
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Blob        BlobConfig
	Presence    PresenceConfig
	Telegram    TelegramConfig
	Log         LogConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxHeaderBytes int
}

type DatabaseConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
	Issuer   string
}

type BlobConfig struct {
	Dir     string
	BaseURL string
}

type PresenceConfig struct {
	// ClearThreadOnDisconnect drops the viewing pointer when a
	// session closes. Disable to keep the source system's behavior
	// of leaving it stale for quick reconnects.
	ClearThreadOnDisconnect bool
}

type TelegramConfig struct {
	// BotToken enables the Telegram push sink; empty disables push.
	BotToken string
}

type LogConfig struct {
	Level string
}

// Load reads the configuration from the environment. A .env file in
// the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			MaxHeaderBytes: getEnvAsInt("SERVER_MAX_HEADER_BYTES", 1<<20),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DATABASE_DSN", "host=localhost user=user password=password dbname=linkupdb port=5432 sslmode=disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Secret:   getEnv("AUTH_SECRET", ""),
			TokenTTL: getEnvAsDuration("AUTH_TOKEN_TTL", 72*time.Hour),
			Issuer:   getEnv("AUTH_ISSUER", "linkup-backend"),
		},
		Blob: BlobConfig{
			Dir:     getEnv("BLOB_DIR", "./media/message_images"),
			BaseURL: getEnv("BLOB_BASE_URL", "/media/message_images"),
		},
		Presence: PresenceConfig{
			ClearThreadOnDisconnect: getEnvAsBool("PRESENCE_CLEAR_THREAD_ON_DISCONNECT", true),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.Auth.Secret == "" {
		return nil, errors.New("AUTH_SECRET must be set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
