package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"flightstats-client/flightstats/infra"
)

var errMissingCredentials = errors.New("missing environment variables: provide FLIGHT_STATS_KEY and FLIGHT_STATS_ID from flightstats.com")

type config struct {
	appEnv   string
	logLevel slog.Level

	credentials infra.Credentials
	baseURL     string

	workers        int
	acquireTimeout time.Duration
	numHours       int
	rateMax        int
	rateWindow     time.Duration
	globalRPS      float64
	globalBurst    int
	httpTimeout    time.Duration
	maxRetries     int
	retryBackoff   time.Duration
	strictExit     bool
	writeEquipment bool

	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration
	statsBucket        string
	statsTrackKeys     bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.appEnv = strings.TrimSpace(getenvDefault("APP_ENV", "dev"))
	switch cfg.appEnv {
	case "dev", "prod":
	default:
		return config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.appEnv)
	}
	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return config{}, err
	}
	cfg.logLevel = level

	cfg.credentials = infra.Credentials{
		AppKey: strings.TrimSpace(os.Getenv("FLIGHT_STATS_KEY")),
		AppID:  strings.TrimSpace(os.Getenv("FLIGHT_STATS_ID")),
	}
	cfg.baseURL = getenvDefault("FLIGHTSTATS_BASE_URL", infra.DefaultBaseURL)

	cfg.workers = getenvIntDefault("FLIGHTSTATS_WORKERS", 10)
	cfg.acquireTimeout = getenvDurationDefault("FLIGHTSTATS_ACQUIRE_TIMEOUT", 0)
	cfg.numHours = getenvIntDefault("FLIGHTSTATS_NUM_HOURS", 6)
	cfg.rateMax = getenvIntDefault("FLIGHTSTATS_RATE_MAX", 60)
	cfg.rateWindow = getenvDurationDefault("FLIGHTSTATS_RATE_WINDOW", 60*time.Second)
	cfg.globalRPS = getenvFloatDefault("FLIGHTSTATS_GLOBAL_RPS", 0)
	cfg.globalBurst = getenvIntDefault("FLIGHTSTATS_GLOBAL_BURST", 1)
	cfg.httpTimeout = getenvDurationDefault("FLIGHTSTATS_HTTP_TIMEOUT", 30*time.Second)
	cfg.maxRetries = getenvIntDefault("FLIGHTSTATS_MAX_RETRIES", 0)
	cfg.retryBackoff = getenvDurationDefault("FLIGHTSTATS_RETRY_BACKOFF", 1*time.Second)
	cfg.strictExit = getenvBoolDefault("FLIGHTSTATS_STRICT_EXIT", false)
	cfg.writeEquipment = getenvBoolDefault("FLIGHTSTATS_WRITE_EQUIPMENT", false)

	cfg.statsRedisAddr = getenvDefault("FLIGHTSTATS_STATS_REDIS_ADDR", "")
	cfg.statsRedisPassword = os.Getenv("FLIGHTSTATS_STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = getenvIntDefault("FLIGHTSTATS_STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("FLIGHTSTATS_STATS_PREFIX", "flightstats:stats")
	cfg.statsTTL = getenvDurationDefault("FLIGHTSTATS_STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("FLIGHTSTATS_STATS_BUCKET", "minute")
	cfg.statsTrackKeys = getenvBoolDefault("FLIGHTSTATS_STATS_TRACK_KEYS", false)

	if err := cfg.credentials.Validate(); err != nil {
		return config{}, errMissingCredentials
	}
	if cfg.workers <= 0 {
		return config{}, errors.New("FLIGHTSTATS_WORKERS must be > 0")
	}
	if cfg.numHours <= 0 {
		return config{}, errors.New("FLIGHTSTATS_NUM_HOURS must be > 0")
	}
	if cfg.rateMax <= 0 {
		return config{}, errors.New("FLIGHTSTATS_RATE_MAX must be > 0")
	}
	if cfg.rateWindow <= 0 {
		return config{}, errors.New("FLIGHTSTATS_RATE_WINDOW must be > 0")
	}
	if cfg.globalRPS < 0 {
		return config{}, errors.New("FLIGHTSTATS_GLOBAL_RPS must be >= 0")
	}
	if cfg.globalBurst <= 0 {
		return config{}, errors.New("FLIGHTSTATS_GLOBAL_BURST must be > 0")
	}
	if cfg.maxRetries < 0 {
		return config{}, errors.New("FLIGHTSTATS_MAX_RETRIES must be >= 0")
	}
	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
