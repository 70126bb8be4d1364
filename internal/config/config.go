// Package config assembles the bot's configuration from YAML and
// environment variables: the shared core settings plus the hotel API,
// search limits and session backend sections.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	coreconfig "hotelscout/core/config"
	coredatabase "hotelscout/core/database"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Session backends.
const (
	SessionsMemory = "memory"
	SessionsRedis  = "redis"
)

// HotelsConfig configures the hotel aggregator API client.
type HotelsConfig struct {
	Host              string `yaml:"host" envconfig:"HOTELS_API_HOST"`
	APIKey            string `yaml:"api_key" envconfig:"HOTELS_API_KEY"`
	TimeoutSeconds    int    `yaml:"timeout_seconds" envconfig:"HOTELS_API_TIMEOUT_SECONDS"`
	RequestsPerSecond int    `yaml:"requests_per_second" envconfig:"HOTELS_API_RPS"`
	Locale            string `yaml:"locale" envconfig:"HOTELS_API_LOCALE"`
}

// Timeout returns the request timeout as a duration.
func (h HotelsConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// SearchConfig bounds what a single search may ask for.
type SearchConfig struct {
	MaxHotels     int `yaml:"max_hotels" envconfig:"SEARCH_MAX_HOTELS"`
	MaxImages     int `yaml:"max_images" envconfig:"SEARCH_MAX_IMAGES"`
	DetailWorkers int `yaml:"detail_workers" envconfig:"SEARCH_DETAIL_WORKERS"`
}

// SessionsConfig selects where conversation state lives. The memory backend
// is the default; redis keeps conversations across restarts.
type SessionsConfig struct {
	Backend   string `yaml:"backend" envconfig:"SESSIONS_BACKEND"`
	RedisAddr string `yaml:"redis_addr" envconfig:"SESSIONS_REDIS_ADDR"`
	RedisDB   int    `yaml:"redis_db" envconfig:"SESSIONS_REDIS_DB"`
	TTLHours  int    `yaml:"ttl_hours" envconfig:"SESSIONS_TTL_HOURS"`
}

// TTL returns the session lifetime; zero means no expiry.
func (s SessionsConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

// Config is the full bot configuration.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Hotels   HotelsConfig        `yaml:"hotels"`
	Search   SearchConfig        `yaml:"search"`
	Sessions SessionsConfig      `yaml:"sessions"`
}

// CoreConfig exposes the embedded core configuration for the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// Load reads the configuration from a YAML file, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(cfg *Config) error {
	if strings.TrimSpace(cfg.Hotels.Host) == "" {
		return fmt.Errorf("hotels.host is required")
	}
	if strings.TrimSpace(cfg.Hotels.APIKey) == "" {
		return fmt.Errorf("hotels.api_key is required")
	}
	if cfg.Hotels.TimeoutSeconds <= 0 {
		cfg.Hotels.TimeoutSeconds = 30
	}
	if cfg.Hotels.RequestsPerSecond <= 0 {
		cfg.Hotels.RequestsPerSecond = 5
	}
	if cfg.Hotels.Locale == "" {
		cfg.Hotels.Locale = "en_US"
	}

	if cfg.Search.MaxHotels <= 0 {
		cfg.Search.MaxHotels = 15
	}
	if cfg.Search.MaxImages <= 0 {
		cfg.Search.MaxImages = 10
	}
	if cfg.Search.DetailWorkers <= 0 {
		cfg.Search.DetailWorkers = 4
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Sessions.Backend))
	if backend == "" {
		backend = SessionsMemory
	}
	switch backend {
	case SessionsMemory:
	case SessionsRedis:
		if strings.TrimSpace(cfg.Sessions.RedisAddr) == "" {
			return fmt.Errorf("sessions.redis_addr is required when sessions.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid sessions.backend %q; allowed: memory, redis", cfg.Sessions.Backend)
	}
	cfg.Sessions.Backend = backend

	if cfg.Sessions.TTLHours < 0 {
		return fmt.Errorf("sessions.ttl_hours must be >= 0")
	}
	return nil
}
