package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds client configuration loaded from the environment.
type Config struct {
	AppEnv        string
	APIBaseURL    string
	RazorpayKeyID string
	RedisURL      string

	HTTPTimeout    time.Duration
	ReadMaxRetries int
	BreakerMinReqs int
	BreakerRatio   float64
	BreakerOpenFor time.Duration

	DebounceWindow    time.Duration
	PolicyMaxQuantity int

	BookingCacheTTL time.Duration

	LogFormat       string
	LogLevel        string
	MetricsEnabled  bool
	TracingEnabled  bool
	TracingEndpoint string
	SamplingRatio   float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:        valueOrDefault(k.String("APP_ENV"), "development"),
		APIBaseURL:    strings.TrimRight(strings.TrimSpace(k.String("API_BASE_URL")), "/"),
		RazorpayKeyID: strings.TrimSpace(k.String("RAZORPAY_KEY_ID")),
		RedisURL:      strings.TrimSpace(k.String("REDIS_URL")),

		HTTPTimeout:    parseDuration(k.String("HTTP_TIMEOUT"), "30s"),
		ReadMaxRetries: parseInt(k.String("READ_MAX_RETRIES"), 3),
		BreakerMinReqs: parseInt(k.String("BREAKER_MIN_REQUESTS"), 10),
		BreakerRatio:   parseFloat(k.String("BREAKER_FAILURE_RATIO"), 0.5),
		BreakerOpenFor: parseDuration(k.String("BREAKER_OPEN_FOR"), "30s"),

		DebounceWindow:    parseDuration(k.String("CART_DEBOUNCE_WINDOW"), "400ms"),
		PolicyMaxQuantity: parseInt(k.String("CART_POLICY_MAX_QUANTITY"), 5),

		BookingCacheTTL: parseDuration(k.String("BOOKING_CACHE_TTL"), "2m"),

		LogFormat:       valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:        valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsEnabled:  parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
		TracingEnabled:  parseBool(k.String("OBS_ENABLE_TRACING"), false),
		TracingEndpoint: strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		SamplingRatio:   parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
	}

	if cfg.APIBaseURL == "" {
		return nil, errors.New("API_BASE_URL is required")
	}
	if cfg.PolicyMaxQuantity < 1 {
		return nil, errors.New("CART_POLICY_MAX_QUANTITY must be at least 1")
	}

	return cfg, nil
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
