package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr    string        `validate:"required"`
	DBFile        string        `validate:"required"`
	AuditLogFile  string        `validate:"required"`
	ReadTimeout   time.Duration `validate:"min=0"`
	MaxLineBytes  int           `validate:"gt=0"`
	LoginAttempts int           `validate:"gt=0"`
	LoginBackoff  time.Duration `validate:"gt=0"`
}

func Load() (*Config, error) {
	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	readTimeout, err := time.ParseDuration(getEnv("READ_TIMEOUT", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}
	loginBackoff, err := time.ParseDuration(getEnv("LOGIN_BACKOFF", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_BACKOFF: %w", err)
	}
	maxLine, err := strconv.Atoi(getEnv("MAX_LINE_BYTES", "65536"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_LINE_BYTES: %w", err)
	}
	loginAttempts, err := strconv.Atoi(getEnv("LOGIN_ATTEMPTS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_ATTEMPTS: %w", err)
	}

	cfg := &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":5000"),
		DBFile:        getEnv("BACKOFFICE_DB", "backoffice.db"),
		AuditLogFile:  getEnv("AUDIT_LOG", "audit.log"),
		ReadTimeout:   readTimeout,
		MaxLineBytes:  maxLine,
		LoginAttempts: loginAttempts,
		LoginBackoff:  loginBackoff,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
