// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/insightdelivered/bank-transaction-extractor/internal/logging"
)

// Config holds all settings for the HTTP server and the statement engine.
type Config struct {
	Port string

	// Logging
	LogLevel  string
	LogFormat string
	LogDev    bool

	// Statement engine
	MaxUploadBytes int64
	ParseWorkers   int
	DecodeTimeout  time.Duration

	// Password-protected uploads wait this long for their password.
	PendingUploadTTL time.Duration

	// Rate limiting, per server
	RateLimitRPS   float64
	RateLimitBurst int

	problems []string
}

// Load reads .env files (missing files are fine) and then the environment.
// Values that fail to parse are reported by Validate.
func Load(files ...string) *Config {
	// godotenv never overrides variables already set in the environment.
	_ = godotenv.Load(files...)

	c := &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
	c.LogDev = c.getBool("LOG_DEV", false)
	c.MaxUploadBytes = c.getInt64("MAX_UPLOAD_BYTES", 32<<20)
	c.ParseWorkers = int(c.getInt64("PARSE_WORKERS", 4))
	c.DecodeTimeout = c.getDuration("DECODE_TIMEOUT", 30*time.Second)
	c.PendingUploadTTL = c.getDuration("PENDING_UPLOAD_TTL", 10*time.Minute)
	c.RateLimitRPS = c.getFloat("RATE_LIMIT_RPS", 10)
	c.RateLimitBurst = int(c.getInt64("RATE_LIMIT_BURST", 30))
	return c
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	problems := append([]string(nil), c.problems...)
	if _, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("PORT %q is not a number", c.Port))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, "LOG_LEVEL: "+err.Error())
	}
	if f := strings.ToLower(c.LogFormat); f != "json" && f != "console" {
		problems = append(problems, fmt.Sprintf("LOG_FORMAT %q must be json or console", c.LogFormat))
	}
	if c.MaxUploadBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_BYTES must be positive")
	}
	if c.ParseWorkers <= 0 {
		problems = append(problems, "PARSE_WORKERS must be positive")
	}
	if c.DecodeTimeout < 0 {
		problems = append(problems, "DECODE_TIMEOUT must not be negative")
	}
	if c.PendingUploadTTL <= 0 {
		problems = append(problems, "PENDING_UPLOAD_TTL must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		problems = append(problems, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}

// Logging returns the logging settings.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Format = c.LogFormat
	cfg.Development = c.LogDev
	return cfg
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (c *Config) getInt64(key string, fallback int64) int64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s %q is not an integer", key, v))
		return fallback
	}
	return n
}

func (c *Config) getFloat(key string, fallback float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s %q is not a number", key, v))
		return fallback
	}
	return f
}

func (c *Config) getBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s %q is not a boolean", key, v))
		return fallback
	}
	return b
}

func (c *Config) getDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s %q is not a duration", key, v))
		return fallback
	}
	return d
}
