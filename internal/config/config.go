// Package config loads server settings from a .env file and WILDCAT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server settings. Command-line flags override it in main.
type Config struct {
	Addr    string
	DBPath  string
	LogPath string
	BaseURL string

	EmailDomain    string
	ModeratorEmail string

	OTPTTL         time.Duration
	OTPCooldown    time.Duration
	OTPMaxAttempts int
	SessionTTL     time.Duration

	StorageBackend  string // local, s3 or gcs
	LocalStorageDir string
	S3Region        string
	S3Bucket        string
	GCSBucket       string
	GCSCredentials  string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPSSL      bool

	RedisAddr     string
	RedisPassword string

	Secure bool // mark cookies Secure
}

// Load reads envFile (if it exists) into the environment and builds a Config.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Addr:    getEnv("WILDCAT_ADDR", ":8080"),
		DBPath:  getEnv("WILDCAT_DB", "wildcat.sqlite3"),
		LogPath: getEnv("WILDCAT_LOG", ""),
		BaseURL: getEnv("WILDCAT_BASE_URL", ""),

		EmailDomain:    getEnv("WILDCAT_EMAIL_DOMAIN", "davidson.edu"),
		ModeratorEmail: getEnv("WILDCAT_MODERATOR_EMAIL", ""),

		StorageBackend:  getEnv("WILDCAT_STORAGE", "local"),
		LocalStorageDir: getEnv("WILDCAT_STORAGE_DIR", "uploads"),
		S3Region:        getEnv("WILDCAT_S3_REGION", "us-east-1"),
		S3Bucket:        getEnv("WILDCAT_S3_BUCKET", ""),
		GCSBucket:       getEnv("WILDCAT_GCS_BUCKET", ""),
		GCSCredentials:  getEnv("WILDCAT_GCS_CREDENTIALS_FILE", ""),

		SMTPHost:     getEnv("WILDCAT_SMTP_HOST", ""),
		SMTPUsername: getEnv("WILDCAT_SMTP_USERNAME", ""),
		SMTPPassword: getEnv("WILDCAT_SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("WILDCAT_SMTP_FROM", ""),

		RedisAddr:     getEnv("WILDCAT_REDIS_ADDR", ""),
		RedisPassword: getEnv("WILDCAT_REDIS_PASSWORD", ""),
	}

	var err error
	if cfg.OTPTTL, err = getEnvDuration("WILDCAT_OTP_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OTPCooldown, err = getEnvDuration("WILDCAT_OTP_COOLDOWN", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getEnvDuration("WILDCAT_SESSION_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OTPMaxAttempts, err = getEnvInt("WILDCAT_OTP_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getEnvInt("WILDCAT_SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.SMTPSSL, err = getEnvBool("WILDCAT_SMTP_SSL", false); err != nil {
		return nil, err
	}
	if cfg.Secure, err = getEnvBool("WILDCAT_SECURE_COOKIES", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("WILDCAT_S3_BUCKET is required for s3 storage")
		}
	case "gcs":
		if c.GCSBucket == "" {
			return errors.New("WILDCAT_GCS_BUCKET is required for gcs storage")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (want local, s3 or gcs)", c.StorageBackend)
	}
	if c.OTPMaxAttempts < 1 {
		return errors.New("OTP max attempts must be at least 1")
	}
	return nil
}

// ModeratorAddress returns the address listing reports go to.
func (c *Config) ModeratorAddress() string {
	if c.ModeratorEmail != "" {
		return c.ModeratorEmail
	}
	return "market@" + strings.TrimPrefix(c.EmailDomain, "@")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
