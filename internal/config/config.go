// Package config reads engine configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// DatabasePath is the sqlite file holding flights and the airport
	// directory.
	DatabasePath string

	// Upstream endpoints. Empty values select the public services.
	AvwxBaseURL string
	NwsBaseURL  string

	// NwsUserAgent identifies this deployment to api.weather.gov, which
	// requires callers to send one.
	NwsUserAgent string

	HTTPTimeout time.Duration

	// Client-side rate limiting toward each upstream.
	UpstreamRPS   float64
	UpstreamBurst int
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	cfg := &AppConfig{
		DatabasePath: getenvDefault("LOGBOOK_DB", "logbook.db"),
		AvwxBaseURL:  os.Getenv("AVWX_BASE_URL"),
		NwsBaseURL:   os.Getenv("NWS_BASE_URL"),
		NwsUserAgent: getenvDefault("NWS_USER_AGENT", "avlogbook-weather/1.0 (ops@avlogbook.example)"),
	}

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	rpsStr := getenvDefault("UPSTREAM_RPS", "4")
	rps, err := strconv.ParseFloat(rpsStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_RPS: %w", err)
	}
	cfg.UpstreamRPS = rps
	cfg.UpstreamBurst = getenvInt("UPSTREAM_BURST", 4)

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
