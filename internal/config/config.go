package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Config holds application configuration.
type Config struct {
	// UserID overrides the derived installation identifier.
	UserID string `json:"user_id,omitempty"`

	// TokenNamespace is the informational prefix of issued rental tokens
	// (the part before the @). Validation never depends on it.
	TokenNamespace string `json:"token_namespace,omitempty"`

	// TokenBytes is the number of random bytes behind each rental token.
	TokenBytes int `json:"token_bytes,omitempty"`

	// DefaultTTLHours is the rental lifetime applied when the caller does
	// not pass an explicit TTL. Zero falls back to the built-in default;
	// non-expiring rentals require an explicit request.
	DefaultTTLHours int `json:"default_ttl_hours,omitempty"`

	// StoreTimeoutMS bounds every persona store operation. Operations that
	// exceed it surface a retryable STORE_UNAVAILABLE error.
	StoreTimeoutMS int `json:"store_timeout_ms,omitempty"`

	// DBMaxOpenConns limits open database connections. If set to 1, all
	// database access is serialized. 0 means the sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits idle database connections. 0 means the sql.DB
	// default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		TokenNamespace:  "mp",
		TokenBytes:      16,
		DefaultTTLHours: 720, // 30 days
		StoreTimeoutMS:  5000,
	}
}

// DefaultTTL returns the configured default rental TTL as a duration.
func (c *Config) DefaultTTL() time.Duration {
	return time.Duration(c.DefaultTTLHours) * time.Hour
}

// StoreTimeout returns the configured store operation timeout as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.mindprint.
func Load(baseDir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs; overlay values win if non-zero.
func Merge(base, overlay *Config) *Config {
	result := *overlay

	if result.UserID == "" {
		result.UserID = base.UserID
	}
	if result.TokenNamespace == "" {
		result.TokenNamespace = base.TokenNamespace
	}
	if result.TokenBytes == 0 {
		result.TokenBytes = base.TokenBytes
	}
	if result.DefaultTTLHours == 0 {
		result.DefaultTTLHours = base.DefaultTTLHours
	}
	if result.StoreTimeoutMS == 0 {
		result.StoreTimeoutMS = base.StoreTimeoutMS
	}
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	return &result
}
