package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/pkg/validator"
)

// Config holds all application configuration.
// Values come from defaults, then an optional YAML file (CONFIG_FILE), then environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	App       AppConfig       `yaml:"app"`
	HTTP      HTTPConfig      `yaml:"http"`
	Feed      FeedConfig      `yaml:"feed"`
	Links     LinksConfig     `yaml:"links"`
	Spotify   SpotifyConfig   `yaml:"spotify"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings for durable click analytics
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig holds Redis connection settings. Redis is optional; without it caches stay in memory.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AppConfig holds application-wide settings
type AppConfig struct {
	Environment        string `yaml:"environment"`
	LogLevel           string `yaml:"log_level"`
	ArtistName         string `yaml:"artist_name"`
	RateLimitEnabled   bool   `yaml:"rate_limit_enabled"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	EnableMetrics      bool   `yaml:"enable_metrics"`
}

// HTTPConfig holds settings of the outbound HTTP client
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// FeedConfig configures the blog feed source
type FeedConfig struct {
	URL      string        `yaml:"url"`
	Author   string        `yaml:"author"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	MaxPosts int           `yaml:"max_posts"`
}

// LinksConfig configures the link-aggregation API and its cache
type LinksConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	UserCountry string        `yaml:"user_country"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	CacheSize   int           `yaml:"cache_size"`
}

// SpotifyConfig configures the streaming catalog API
type SpotifyConfig struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	ArtistID     string        `yaml:"artist_id"`
	AccountsURL  string        `yaml:"accounts_url"`
	APIURL       string        `yaml:"api_url"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

// AnalyticsConfig selects where server-side click events are kept
type AnalyticsConfig struct {
	Store     string `yaml:"store"` // memory|postgres
	MaxEvents int    `yaml:"max_events"`
}

const configFileEnv = "CONFIG_FILE"

// Load builds the configuration from defaults, the optional YAML file and the environment
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(configFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "lazyperfectionist",
			Password:        "dev_password_123",
			DBName:          "lazyperfectionist",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
		},
		App: AppConfig{
			Environment:        "development",
			LogLevel:           "info",
			ArtistName:         "Lazy Perfectionist",
			RateLimitPerMinute: 60,
			EnableMetrics:      true,
		},
		HTTP: HTTPConfig{
			Timeout: 20 * time.Second,
		},
		Feed: FeedConfig{
			URL:      "https://medium.com/feed/@lazyperfectist",
			Author:   "Lazy Perfectionist",
			CacheTTL: 15 * time.Minute,
			MaxPosts: 15,
		},
		Links: LinksConfig{
			BaseURL:     "https://api.song.link",
			UserCountry: "US",
			CacheTTL:    30 * time.Minute,
			CacheSize:   1024,
		},
		Spotify: SpotifyConfig{
			AccountsURL: "https://accounts.spotify.com",
			APIURL:      "https://api.spotify.com",
			CacheTTL:    30 * time.Minute,
		},
		Analytics: AnalyticsConfig{
			Store:     "memory",
			MaxEvents: 10000,
		},
	}
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = parseDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = parseDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = parseDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxOpenConns = parseInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = parseInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = parseDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)

	c.Redis.Enabled = parseBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getEnv("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = parseInt("REDIS_DB", c.Redis.DB)

	c.App.Environment = getEnv("APP_ENV", c.App.Environment)
	c.App.LogLevel = getEnv("LOG_LEVEL", c.App.LogLevel)
	c.App.ArtistName = getEnv("ARTIST_NAME", c.App.ArtistName)
	c.App.RateLimitEnabled = parseBool("RATE_LIMIT_ENABLED", c.App.RateLimitEnabled)
	c.App.RateLimitPerMinute = parseInt("RATE_LIMIT_REQUESTS_PER_MINUTE", c.App.RateLimitPerMinute)
	c.App.EnableMetrics = parseBool("ENABLE_METRICS", c.App.EnableMetrics)

	c.HTTP.Timeout = parseDuration("HTTP_CLIENT_TIMEOUT", c.HTTP.Timeout)

	c.Feed.URL = getEnv("FEED_URL", c.Feed.URL)
	c.Feed.Author = getEnv("FEED_AUTHOR", c.Feed.Author)
	c.Feed.CacheTTL = parseDuration("FEED_CACHE_TTL", c.Feed.CacheTTL)
	c.Feed.MaxPosts = parseInt("FEED_MAX_POSTS", c.Feed.MaxPosts)

	c.Links.APIKey = getEnv("SONGLINK_API_KEY", c.Links.APIKey)
	c.Links.BaseURL = getEnv("SONGLINK_BASE_URL", c.Links.BaseURL)
	c.Links.UserCountry = getEnv("SONGLINK_USER_COUNTRY", c.Links.UserCountry)
	c.Links.CacheTTL = parseDuration("LINKS_CACHE_TTL", c.Links.CacheTTL)
	c.Links.CacheSize = parseInt("LINKS_CACHE_SIZE", c.Links.CacheSize)

	c.Spotify.ClientID = getEnv("SPOTIFY_CLIENT_ID", c.Spotify.ClientID)
	c.Spotify.ClientSecret = getEnv("SPOTIFY_CLIENT_SECRET", c.Spotify.ClientSecret)
	c.Spotify.ArtistID = getEnv("SPOTIFY_ARTIST_ID", c.Spotify.ArtistID)
	c.Spotify.AccountsURL = getEnv("SPOTIFY_ACCOUNTS_URL", c.Spotify.AccountsURL)
	c.Spotify.APIURL = getEnv("SPOTIFY_API_URL", c.Spotify.APIURL)
	c.Spotify.CacheTTL = parseDuration("CATALOG_CACHE_TTL", c.Spotify.CacheTTL)

	c.Analytics.Store = getEnv("ANALYTICS_STORE", c.Analytics.Store)
	c.Analytics.MaxEvents = parseInt("ANALYTICS_MAX_EVENTS", c.Analytics.MaxEvents)
}

// Validate rejects settings the services cannot run with and fills the rest with defaults
func (c *Config) Validate() error {
	def := Default()

	c.Analytics.Store = strings.ToLower(strings.TrimSpace(c.Analytics.Store))
	switch c.Analytics.Store {
	case "":
		c.Analytics.Store = def.Analytics.Store
	case "memory", "postgres":
	default:
		return fmt.Errorf("unsupported analytics store: %s", c.Analytics.Store)
	}

	urls := []struct{ name, value string }{
		{"feed url", c.Feed.URL},
		{"songlink base url", c.Links.BaseURL},
		{"spotify accounts url", c.Spotify.AccountsURL},
		{"spotify api url", c.Spotify.APIURL},
	}
	for _, u := range urls {
		if err := validator.ValidateURL(u.value); err != nil {
			return fmt.Errorf("%s %q: %w", u.name, u.value, err)
		}
	}

	if c.Feed.MaxPosts <= 0 || c.Feed.MaxPosts > def.Feed.MaxPosts {
		c.Feed.MaxPosts = def.Feed.MaxPosts
	}
	if c.Feed.CacheTTL <= 0 {
		c.Feed.CacheTTL = def.Feed.CacheTTL
	}
	if c.Links.CacheTTL <= 0 {
		c.Links.CacheTTL = def.Links.CacheTTL
	}
	if c.Links.CacheSize <= 0 {
		c.Links.CacheSize = def.Links.CacheSize
	}
	if c.Spotify.CacheTTL <= 0 {
		c.Spotify.CacheTTL = def.Spotify.CacheTTL
	}
	if c.Analytics.MaxEvents <= 0 {
		c.Analytics.MaxEvents = def.Analytics.MaxEvents
	}
	if c.App.RateLimitPerMinute <= 0 {
		c.App.RateLimitPerMinute = def.App.RateLimitPerMinute
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = def.Server.WriteTimeout
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = def.HTTP.Timeout
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address in host:port format
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions to read environment variables, keeping the current value when unset or malformed

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
