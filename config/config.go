package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/SundayYogurt/visa_admin/internal/helper"
	"github.com/joho/godotenv"
)

const DefaultMaxDownloadBytes = 50 << 20

type Config struct {
	// console
	APIBaseURL       string        `validate:"required,url"`
	SessionFile      string        `validate:"required"`
	DownloadDir      string        `validate:"required"`
	BlobAddr         string        `validate:"required"`
	HTTPTimeout      time.Duration `validate:"gt=0"`
	MaxDownloadBytes int64         `validate:"gt=0"`
	LogLevel         string        `validate:"oneof=debug info warn error"`

	// decision feed; empty broker disables publishing
	KafkaBroker   string
	KafkaTopic    string `validate:"required"`
	KafkaGroupID  string `validate:"required"`
	KafkaUsername string
	KafkaPassword string

	// devserver
	ServerPort    string `validate:"required"`
	DatabaseDSN   string
	AccessSecret  string
	AdminEmail    string
	AdminPassword string
	TokenTTL      time.Duration `validate:"gt=0"`
}

var ErrServerConfig = errors.New("devserver configuration incomplete")

func LoadConfig() (Config, error) {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Overload(); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("env file could not be loaded", "err", err)
		}
	}

	cfg := Config{
		APIBaseURL:       strings.TrimRight(getEnv("VISA_API_BASE_URL", "http://localhost:8000/api"), "/"),
		SessionFile:      getEnv("VISA_SESSION_FILE", defaultSessionFile()),
		DownloadDir:      getEnv("VISA_DOWNLOAD_DIR", "."),
		BlobAddr:         getEnv("VISA_BLOB_ADDR", "127.0.0.1:0"),
		HTTPTimeout:      getDuration("VISA_HTTP_TIMEOUT", 30*time.Second),
		MaxDownloadBytes: getInt64("VISA_MAX_DOWNLOAD_BYTES", DefaultMaxDownloadBytes),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),

		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "visa.review.decisions"),
		KafkaGroupID:  getEnv("KAFKA_GROUP_ID", "visa-admin-watch"),
		KafkaUsername: os.Getenv("KAFKA_USERNAME"),
		KafkaPassword: os.Getenv("KAFKA_PASSWORD"),

		ServerPort:    getEnv("SERVER_PORT", ":8000"),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		AccessSecret:  os.Getenv("ACCESS_SECRET"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		TokenTTL:      getDuration("TOKEN_TTL", 24*time.Hour),
	}

	if err := helper.ValidateStruct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %s", helper.FormatValidationErrors(err))
	}
	return cfg, nil
}

// ServerReady reports whether the devserver can issue tokens.
func (c Config) ServerReady() error {
	var missing []string
	if c.AccessSecret == "" {
		missing = append(missing, "ACCESS_SECRET")
	}
	if c.AdminEmail == "" {
		missing = append(missing, "ADMIN_EMAIL")
	}
	if c.AdminPassword == "" {
		missing = append(missing, "ADMIN_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrServerConfig, strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) KafkaEnabled() bool {
	return c.KafkaBroker != ""
}

func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".visa-admin", "session.json")
	}
	return filepath.Join(home, ".visa-admin", "session.json")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
