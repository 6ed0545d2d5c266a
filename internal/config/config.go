package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Schedule sources selectable with SCHEDULE_SOURCE.
const (
	ScheduleFromBackend = "backend"
	ScheduleFromOpenF1  = "openf1"
)

// Endpoints enumerates the base URL of every upstream.
type Endpoints struct {
	OpenF1  string // remote statistics API
	Backend string // standings and schedule
	Plot    string // telemetry plots
	Ergast  string // backend upstream
}

type AppConfig struct {
	Endpoints Endpoints

	Port        string // web
	BackendPort string

	// Season served by the backend ("current" or a year).
	Season string
	// ScheduleSource selects where the web schedule page reads from.
	ScheduleSource string

	HTTPTimeout     time.Duration
	FetchMaxRetries int

	// RefreshInterval controls how often the backend reloads its datasets.
	RefreshInterval time.Duration

	// Backend cache retention.
	CacheMaxAge     time.Duration
	CacheMaxHistory int

	CORSAllowOrigins []string
	DisplayLocation  *time.Location

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment with sensible defaults.
// A .env file, if any, must have been loaded by the caller.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Endpoints: Endpoints{
			OpenF1:  getenvDefault("OPENF1_BASE_URL", "https://api.openf1.org/v1"),
			Backend: getenvDefault("BACKEND_BASE_URL", "http://localhost:8000"),
			Plot:    getenvDefault("PLOT_BASE_URL", "http://localhost:8000"),
			Ergast:  getenvDefault("ERGAST_BASE_URL", "https://api.jolpi.ca/ergast/f1"),
		},
		Port:            getenvDefault("PORT", "3000"),
		BackendPort:     getenvDefault("BACKEND_PORT", "8000"),
		Season:          getenvDefault("SEASON", "current"),
		ScheduleSource:  strings.ToLower(getenvDefault("SCHEDULE_SOURCE", ScheduleFromBackend)),
		LogLevel:        getenvDefault("LOG_LEVEL", "info"),
		LogFormat:       getenvDefault("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.FetchMaxRetries, err = getenvInt("FETCH_MAX_RETRIES", 0); err != nil {
		return nil, err
	}
	if cfg.CacheMaxHistory, err = getenvInt("CACHE_MAX_HISTORY", 4); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.CacheMaxAge, err = getenvDuration("CACHE_MAX_AGE", "1h"); err != nil {
		return nil, err
	}

	if cfg.FetchMaxRetries < 0 {
		return nil, fmt.Errorf("invalid FETCH_MAX_RETRIES: must not be negative")
	}
	switch cfg.ScheduleSource {
	case ScheduleFromBackend, ScheduleFromOpenF1:
	default:
		return nil, fmt.Errorf("invalid SCHEDULE_SOURCE %q: use %q or %q",
			cfg.ScheduleSource, ScheduleFromBackend, ScheduleFromOpenF1)
	}

	tz := getenvDefault("DISPLAY_TIMEZONE", "UTC")
	if cfg.DisplayLocation, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}

	cfg.CORSAllowOrigins = splitList(getenvDefault("CORS_ALLOW_ORIGINS",
		"http://localhost:3000,http://localhost:3001"))

	return cfg, nil
}

// SeasonYear resolves Season to a calendar year, using now for "current".
func (c *AppConfig) SeasonYear(now time.Time) (int, error) {
	if c.Season == "" || strings.EqualFold(c.Season, "current") {
		return now.Year(), nil
	}
	year, err := strconv.Atoi(c.Season)
	if err != nil {
		return 0, fmt.Errorf("invalid SEASON %q: %w", c.Season, err)
	}
	return year, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
