// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	QuotaFilePath      string
	DatabasePath       string
	PollIntervalActive time.Duration
	PollIntervalRelax  time.Duration
	ProbeTimeout       time.Duration
	StatusRPCTimeout   time.Duration
	ProcessScanTimeout time.Duration
}

// Default values
const (
	defaultPollIntervalActive = 30 * time.Second
	defaultPollIntervalRelax  = 5 * time.Minute
	defaultProbeTimeout       = 500 * time.Millisecond
	defaultStatusRPCTimeout   = 5 * time.Second
	defaultProcessScanTimeout = 3 * time.Second
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		QuotaFilePath:      getEnvString("QUOTA_FILE_PATH", getDefaultQuotaFilePath()),
		DatabasePath:       getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		PollIntervalActive: getEnvDuration("POLL_INTERVAL_ACTIVE", defaultPollIntervalActive),
		PollIntervalRelax:  getEnvDuration("POLL_INTERVAL_RELAXED", defaultPollIntervalRelax),
		ProbeTimeout:       getEnvDuration("PROBE_TIMEOUT", defaultProbeTimeout),
		StatusRPCTimeout:   getEnvDuration("STATUS_RPC_TIMEOUT", defaultStatusRPCTimeout),
		ProcessScanTimeout: getEnvDuration("PROCESS_SCAN_TIMEOUT", defaultProcessScanTimeout),
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".quota-checker", ".env"),
			filepath.Join(home, ".config", "quota-checker", ".env"),
		)
	}

	return paths
}

// getDefaultQuotaFilePath returns the default path for the snapshot JSON file.
// The path is shared with the editor extension, which reads and writes the
// same file.
func getDefaultQuotaFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "quota.json"
	}
	return filepath.Join(home, ".quota-checker", "quota.json")
}

// getDefaultDatabasePath returns the default path for the SQLite history database.
func getDefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "history.db"
	}
	return filepath.Join(home, ".quota-checker", "history.db")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
