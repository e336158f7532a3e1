// Package config loads crawler settings from the environment with sensible
// defaults, so the binary runs with zero configuration in development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Source registry
	SourcesConfigPath string // YAML with endpoints, tiers and image pools

	// Fetcher settings
	FetchTimeout     time.Duration // per-request timeout for feed fetches
	FetchConcurrency int           // simultaneous (term, source) fetch tasks
	RetryAttempts    int           // attempts per request before giving up

	// Image resolver settings
	PageFetchConcurrency int           // simultaneous page fetches for preview images
	PageFetchTimeout     time.Duration // per-page timeout during image resolution

	// Pipeline settings
	MaxCandidates int           // articles kept past ranking, before image resolution
	DefaultLimit  int           // result size when the profile doesn't set one
	MaxArticleAge time.Duration // drafts older than this are dropped

	// Snapshot settings
	SnapshotPath string // JSON file holding the last successful result set

	// App settings
	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		SourcesConfigPath:    "configs/sources.yaml",
		FetchTimeout:         10 * time.Second,
		FetchConcurrency:     3,
		RetryAttempts:        3,
		PageFetchConcurrency: 5,
		PageFetchTimeout:     6 * time.Second,
		MaxCandidates:        100,
		DefaultLimit:         20,
		MaxArticleAge:        7 * 24 * time.Hour,
		SnapshotPath:         "last_crawl.json",
	}

	cfg.SourcesConfigPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesConfigPath)
	cfg.SnapshotPath = getEnvOrDefault("SNAPSHOT_PATH", cfg.SnapshotPath)

	if v := getEnvIntOrDefault("FETCH_CONCURRENCY", 0); v > 0 {
		cfg.FetchConcurrency = v
	}
	if v := getEnvIntOrDefault("PAGE_FETCH_CONCURRENCY", 0); v > 0 {
		cfg.PageFetchConcurrency = v
	}
	if v := getEnvIntOrDefault("RETRY_ATTEMPTS", 0); v > 0 {
		cfg.RetryAttempts = v
	}
	if v := getEnvIntOrDefault("MAX_CANDIDATES", 0); v > 0 {
		cfg.MaxCandidates = v
	}
	if v := getEnvIntOrDefault("DEFAULT_LIMIT", 0); v > 0 {
		cfg.DefaultLimit = v
	}
	if v := getEnvIntOrDefault("FETCH_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.FetchTimeout = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("PAGE_FETCH_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.PageFetchTimeout = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("MAX_ARTICLE_AGE_HOURS", 0); v > 0 {
		cfg.MaxArticleAge = time.Duration(v) * time.Hour
	}

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be at least 1")
	}
	if c.PageFetchConcurrency < 1 {
		return fmt.Errorf("PAGE_FETCH_CONCURRENCY must be at least 1")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}
