package client

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// FetchMode governs how Query interacts with the cache
type FetchMode string

const (
	// FetchModeCacheFirst serves cached data and refetches only expired
	// entries
	FetchModeCacheFirst FetchMode = "cache-first"
	// FetchModeNoCache never reuses an idle entry and never sets an expiry
	FetchModeNoCache FetchMode = "no-cache"
	// FetchModeCacheAndNetwork serves cached data and always refetches
	FetchModeCacheAndNetwork FetchMode = "cache-and-network"
)

const (
	// DefaultCacheTimeout is the default cache entry lifetime
	DefaultCacheTimeout = 24 * time.Hour
	// DefaultMaxCacheSize is the default cache byte budget
	DefaultMaxCacheSize = 20 * 1024 * 1024
)

// Config holds the recognized client options
type Config struct {
	// URL is the graphql HTTP endpoint
	URL string `env:"GRAPHQL_URL"`
	// WSURL is the socket endpoint; defaults to URL with a ws scheme
	WSURL string `env:"GRAPHQL_WS_URL"`
	// FetchMode is the default fetch mode for queries
	FetchMode FetchMode `env:"GRAPHQL_FETCH_MODE" envDefault:"cache-first"`
	// CacheTimeout is the cache entry lifetime
	CacheTimeout time.Duration `env:"GRAPHQL_CACHE_TIMEOUT" envDefault:"24h"`
	// MaxCacheSize is the cache byte budget
	MaxCacheSize int64 `env:"GRAPHQL_MAX_CACHE_SIZE" envDefault:"20971520"`
	// StrictValidation enforces graphql-over-http content types
	StrictValidation bool `env:"GRAPHQL_STRICT_VALIDATION"`
	// UseFormData sends operations as multipart form fields
	UseFormData bool `env:"GRAPHQL_USE_FORM_DATA"`
	// DocumentIDAsQuery sends document ids as a query parameter
	DocumentIDAsQuery bool `env:"GRAPHQL_DOCUMENT_ID_AS_QUERY"`
}

// ConfigFromEnv loads a config from the environment
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults fills unset values
func (c *Config) setDefaults() {
	if c.FetchMode == "" {
		c.FetchMode = FetchModeCacheFirst
	}

	if c.CacheTimeout == 0 {
		c.CacheTimeout = DefaultCacheTimeout
	}

	if c.MaxCacheSize == 0 {
		c.MaxCacheSize = DefaultMaxCacheSize
	}

	if c.WSURL == "" {
		c.WSURL = deriveWSURL(c.URL)
	}
}

// deriveWSURL maps an HTTP endpoint to its socket equivalent
func deriveWSURL(url string) string {
	switch {
	case strings.HasPrefix(url, "https://"):
		return "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		return "ws://" + strings.TrimPrefix(url, "http://")
	}

	return url
}
