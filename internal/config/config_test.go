package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(configFileEnv, "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Feed.CacheTTL)
	assert.Equal(t, 15, cfg.Feed.MaxPosts)
	assert.Equal(t, 30*time.Minute, cfg.Links.CacheTTL)
	assert.Equal(t, "US", cfg.Links.UserCountry)
	assert.Equal(t, "memory", cfg.Analytics.Store)
	assert.Equal(t, 10000, cfg.Analytics.MaxEvents)
	assert.Equal(t, "Lazy Perfectionist", cfg.App.ArtistName)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(configFileEnv, "")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("FEED_CACHE_TTL", "1m")
	t.Setenv("SONGLINK_API_KEY", "secret")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("ANALYTICS_MAX_EVENTS", "not-a-number")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Feed.CacheTTL)
	assert.Equal(t, "secret", cfg.Links.APIKey)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 10000, cfg.Analytics.MaxEvents)
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  artist_name: "Someone Else"
feed:
  url: "https://example.com/feed"
  cache_ttl: 5m
  max_posts: 40
analytics:
  store: postgres
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(configFileEnv, path)
	t.Setenv("FEED_URL", "https://override.example.com/feed")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "Someone Else", cfg.App.ArtistName)
	assert.Equal(t, "https://override.example.com/feed", cfg.Feed.URL)
	assert.Equal(t, 5*time.Minute, cfg.Feed.CacheTTL)
	assert.Equal(t, 15, cfg.Feed.MaxPosts, "max posts is clamped to the feed limit")
	assert.Equal(t, "postgres", cfg.Analytics.Store)
	// untouched sections keep their defaults
	assert.Equal(t, "https://api.song.link", cfg.Links.BaseURL)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(configFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()

	assert.Error(t, err)
}

func TestValidate_UnknownAnalyticsStore(t *testing.T) {
	cfg := Default()
	cfg.Analytics.Store = "mongodb"

	err := cfg.Validate()

	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := Default()

	dsn := cfg.Database.DatabaseDSN()

	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestValidate_RejectsBadURLs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty feed url", mutate: func(c *Config) { c.Feed.URL = "" }},
		{name: "feed url without scheme", mutate: func(c *Config) { c.Feed.URL = "medium.com/feed/@someone" }},
		{name: "ftp links base", mutate: func(c *Config) { c.Links.BaseURL = "ftp://api.song.link" }},
		{name: "spotify api without host", mutate: func(c *Config) { c.Spotify.APIURL = "https://" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			assert.Error(t, cfg.Validate())
		})
	}
}
