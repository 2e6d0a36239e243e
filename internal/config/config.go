// Package config provides application configuration management with support for
// environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Catalog CatalogConfig
	Storage StorageConfig
	Player  PlayerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	AdvertiseMDNS bool
}

// CatalogConfig holds configuration for the remote story catalog API.
type CatalogConfig struct {
	// BaseURL is the root of the story catalog REST API.
	BaseURL string
	// RequestTimeout bounds a single catalog request.
	RequestTimeout time.Duration
	// RequestsPerSecond throttles outbound catalog traffic.
	RequestsPerSecond float64
	// Burst is the rate limiter burst size.
	Burst int
}

// StorageConfig holds durable storage configuration.
type StorageConfig struct {
	// DataPath is the base directory for the progress database, history journal,
	// search index, and cover cache. Empty disables durable storage entirely:
	// progress operations degrade to no-ops, mirroring a context with no storage
	// medium available.
	DataPath string
}

// PlayerConfig holds playback session policy.
type PlayerConfig struct {
	// CheckpointInterval is how often progress is persisted while playing.
	CheckpointInterval time.Duration
	// CheckpointMinSeconds suppresses checkpoints until this much of a chapter
	// has elapsed, so trivial listens don't churn the store.
	CheckpointMinSeconds float64
	// ResumeMinChapter and ResumeMinSeconds gate the resume offer: progress is
	// offered only when chapter > ResumeMinChapter or timestamp > ResumeMinSeconds.
	ResumeMinChapter int
	ResumeMinSeconds float64
	// ResumeToastTimeout auto-hides an unacted resume offer.
	ResumeToastTimeout time.Duration
	// AllowedRates is the fixed set of selectable playback rates.
	AllowedRates []float64
}

// defaultRates is the selectable playback-rate set.
var defaultRates = []float64{0.5, 0.75, 1.0, 1.25, 1.5, 1.75, 2.0}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for player data storage")
	serverName := flag.String("server-name", "", "Name for the player server")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	advertiseMDNS := flag.String("advertise-mdns", "", "Advertise via mDNS/Zeroconf (default: true)")

	catalogURL := flag.String("catalog-url", "", "Base URL of the story catalog API")
	catalogTimeout := flag.String("catalog-timeout", "", "Catalog request timeout (default: 10s)")
	catalogRPS := flag.String("catalog-rps", "", "Catalog requests per second (default: 4)")

	checkpointInterval := flag.String("checkpoint-interval", "", "Progress checkpoint interval (default: 5s)")
	resumeToastTimeout := flag.String("resume-toast-timeout", "", "Resume offer auto-hide timeout (default: 15s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Name:          getConfigValue(*serverName, "SERVER_NAME", "AudioTruyen Player"),
			Port:          getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AdvertiseMDNS: getBoolConfigValue(*advertiseMDNS, "ADVERTISE_MDNS", true),
		},
		Catalog: CatalogConfig{
			BaseURL:           getConfigValue(*catalogURL, "CATALOG_URL", "https://api.audiotruyen.app"),
			RequestsPerSecond: getFloatConfigValue(*catalogRPS, "CATALOG_RPS", 4),
			Burst:             getIntConfigValue("", "CATALOG_BURST", 8),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Player: PlayerConfig{
			CheckpointMinSeconds: getFloatConfigValue("", "CHECKPOINT_MIN_SECONDS", 5),
			ResumeMinChapter:     getIntConfigValue("", "RESUME_MIN_CHAPTER", 1),
			ResumeMinSeconds:     getFloatConfigValue("", "RESUME_MIN_SECONDS", 10),
			AllowedRates:         defaultRates,
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = parseDurationValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDurationValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDurationValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Catalog.RequestTimeout, err = parseDurationValue(*catalogTimeout, "CATALOG_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.Player.CheckpointInterval, err = parseDurationValue(*checkpointInterval, "CHECKPOINT_INTERVAL", "5s"); err != nil {
		return nil, err
	}
	if cfg.Player.ResumeToastTimeout, err = parseDurationValue(*resumeToastTimeout, "RESUME_TOAST_TIMEOUT", "15s"); err != nil {
		return nil, err
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Catalog.BaseURL == "" {
		return errors.New("catalog base URL is required")
	}

	if c.Player.CheckpointInterval <= 0 {
		return errors.New("checkpoint interval must be positive")
	}

	if len(c.Player.AllowedRates) == 0 {
		return errors.New("allowed playback rates cannot be empty")
	}

	return nil
}

// RateAllowed reports whether rate is in the configured playback-rate set.
func (c *PlayerConfig) RateAllowed(rate float64) bool {
	for _, r := range c.AllowedRates {
		if r == rate {
			return true
		}
	}
	return false
}

// expandDataPath expands ~ and makes the path absolute.
// Empty stays empty: durable storage is optional.
func (c *Config) expandDataPath() error {
	if c.Storage.DataPath == "" {
		return nil
	}

	path := c.Storage.DataPath
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	c.Storage.DataPath = filepath.Clean(path)
	return nil
}

// parseDurationValue resolves a duration from flag, env var, or default.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	str := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), str, err)
	}
	return d, nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
