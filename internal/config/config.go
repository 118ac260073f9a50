// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the scheduling service.
type Config struct {
	Port                 string
	DatabaseURL          string
	RedisURL             string
	LinkSecret           string         // HMAC secret for candidate link tokens
	Timezone             *time.Location // local zone for availability windows
	DepartmentsFile      string         // YAML interviewer mapping
	PublicBaseURL        string         // base for candidate-facing links
	OrganizerEmail       string         // organizer on calendar invites
	RefreshIntervalHours int            // how often the availability refresher fires
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	linkSecret := os.Getenv("LINK_SECRET")
	if linkSecret == "" {
		return nil, fmt.Errorf("LINK_SECRET is required")
	}

	tzName := os.Getenv("SCHED_TIMEZONE")
	if tzName == "" {
		tzName = "UTC"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("SCHED_TIMEZONE %q: %w", tzName, err)
	}

	departmentsFile := os.Getenv("DEPARTMENTS_FILE")
	if departmentsFile == "" {
		departmentsFile = "departments.yaml"
	}

	port := os.Getenv("SCHEDULER_PORT")
	if port == "" {
		port = "8083"
	}

	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%s", port)
	}

	organizer := os.Getenv("ORGANIZER_EMAIL")
	if organizer == "" {
		organizer = "recruiting@localhost"
	}

	interval := 6
	if s := os.Getenv("REFRESH_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("REFRESH_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	return &Config{
		Port:                 port,
		DatabaseURL:          dbURL,
		RedisURL:             redisURL,
		LinkSecret:           linkSecret,
		Timezone:             loc,
		DepartmentsFile:      departmentsFile,
		PublicBaseURL:        baseURL,
		OrganizerEmail:       organizer,
		RefreshIntervalHours: interval,
	}, nil
}
