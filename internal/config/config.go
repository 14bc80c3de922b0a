// Package config loads go-peekguard configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds process-level settings. User preferences live in pkg/settings.
type Config struct {
	Addr     string `validate:"required"`
	LogLevel string `validate:"oneof=debug info warn error"`
	LogFile  string

	ModelPath     string        `validate:"required"`
	DetectTimeout time.Duration `validate:"gt=0"`

	// Frame source: snapshot URL, image directory, or neither (uploads only)
	CameraURL string `validate:"omitempty,url"`
	CameraDir string `validate:"excluded_with=CameraURL"`

	DataDir     string `validate:"required"`
	HistoryDB   string
	SettingsKey string

	RedisAddr     string `validate:"omitempty,hostname_port"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	// Start detecting immediately instead of waiting for the UI
	AutoStart bool
	// Use the mock detector (test mode) instead of the ONNX model
	Simulate bool
}

// Load reads .env (if present) and the environment, then validates.
func Load() (*Config, error) {
	// Missing .env is fine; real environment variables still apply
	_ = godotenv.Load()

	dataDir := GetEnv("PEEKGUARD_DATA_DIR", defaultDataDir())

	cfg := &Config{
		Addr:          GetEnv("PEEKGUARD_ADDR", ":8090"),
		LogLevel:      strings.ToLower(GetEnv("LOG_LEVEL", "info")),
		LogFile:       GetEnv("LOG_FILE", ""),
		ModelPath:     GetEnv("MODEL_PATH", "models/version-RFB-320.onnx"),
		DetectTimeout: GetEnvDuration("DETECT_TIMEOUT", 2*time.Second),
		CameraURL:     GetEnv("CAMERA_URL", ""),
		CameraDir:     GetEnv("CAMERA_DIR", ""),
		DataDir:       dataDir,
		HistoryDB:     GetEnv("HISTORY_DB", dataDir+"/history.db"),
		SettingsKey:   GetEnv("SETTINGS_KEY", "peekguard:settings"),
		RedisAddr:     GetEnv("REDIS_ADDR", ""),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       GetEnvInt("REDIS_DB", 0),
		AutoStart:     GetEnvBool("PEEKGUARD_AUTOSTART", false),
		Simulate:      GetEnvBool("PEEKGUARD_SIMULATE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.peekguard"
	}
	return ".peekguard"
}

// GetEnv returns the value of key, or fallback when unset or empty.
func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetEnvInt parses key as an int, or returns fallback.
func GetEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// GetEnvBool parses key as a bool, or returns fallback.
func GetEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// GetEnvDuration parses key as a time.Duration, or returns fallback.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
