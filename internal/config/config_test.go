package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 3, cfg.FetchConcurrency)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 100, cfg.MaxCandidates)
	assert.Equal(t, 20, cfg.DefaultLimit)
	assert.Equal(t, 7*24*time.Hour, cfg.MaxArticleAge)
	assert.Equal(t, "last_crawl.json", cfg.SnapshotPath)
	assert.False(t, cfg.Debug)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FETCH_CONCURRENCY", "8")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "30")
	t.Setenv("MAX_ARTICLE_AGE_HOURS", "48")
	t.Setenv("SNAPSHOT_PATH", "/tmp/snap.json")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 48*time.Hour, cfg.MaxArticleAge)
	assert.Equal(t, "/tmp/snap.json", cfg.SnapshotPath)
	assert.True(t, cfg.Debug)
}

func TestLoad_IgnoresInvalidInt(t *testing.T) {
	t.Setenv("FETCH_CONCURRENCY", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.FetchConcurrency)
}

func TestValidate(t *testing.T) {
	cfg := &Config{FetchConcurrency: 1, PageFetchConcurrency: 1, RetryAttempts: 1}
	assert.NoError(t, cfg.Validate())

	cfg.RetryAttempts = 0
	assert.Error(t, cfg.Validate())
}
