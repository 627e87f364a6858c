// Package config loads and validates taggable configuration from defaults,
// an optional YAML file, and TAGGABLE_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the API server and the admin CLI.
// Values are populated by Load.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set TAGGABLE_CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps request bodies accepted by the HTTP server.
	MaxBodyBytes int64

	Tables    Tables
	Rules     Rules
	UserScope UserScope
	Cache     Cache

	// DeleteUnusedTags removes a tag as soon as its last association is detached.
	DeleteUnusedTags bool
}

// Tables names the two tables the store reads and writes.
type Tables struct {
	Tags      string
	Taggables string
}

// Rules are the validation rules applied to tag names on creation.
type Rules struct {
	NameMaxLength int
}

// UserScope controls per-user tag ownership.
type UserScope struct {
	// Enabled turns on user-owned tags. When false every tag is global.
	Enabled bool
	// AllowGlobalTags permits creating tags with no owner.
	AllowGlobalTags bool
	// MixUserAndGlobal makes a user's view include global tags.
	MixUserAndGlobal bool
}

// Cache is a hint for HTTP caches in front of the read-only aggregate endpoints.
type Cache struct {
	Enabled   bool
	KeyPrefix string
	TTL       time.Duration
}

// Load reads configuration and returns a Config. path names an optional YAML
// file; pass "" to rely on defaults and environment variables only.
// Returns an error listing any required settings that are missing.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("TAGGABLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{
		Port:         v.GetString("port"),
		DatabaseURL:  v.GetString("database_url"),
		LogLevel:     v.GetString("log_level"),
		CORSOrigins:  stringList(v, "cors_origins"),
		MaxBodyBytes: v.GetInt64("max_body_bytes"),
		Tables: Tables{
			Tags:      v.GetString("tables.tags"),
			Taggables: v.GetString("tables.taggables"),
		},
		Rules: Rules{
			NameMaxLength: v.GetInt("rules.name_max_length"),
		},
		UserScope: UserScope{
			Enabled:          v.GetBool("user_scope.enabled"),
			AllowGlobalTags:  v.GetBool("user_scope.allow_global_tags"),
			MixUserAndGlobal: v.GetBool("user_scope.mix_user_and_global"),
		},
		Cache: Cache{
			Enabled:   v.GetBool("cache.enabled"),
			KeyPrefix: v.GetString("cache.key_prefix"),
			TTL:       time.Duration(v.GetInt("cache.ttl")) * time.Second,
		},
		DeleteUnusedTags: v.GetBool("delete_unused_tags"),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "TAGGABLE_DATABASE_URL")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required settings not set: %s", strings.Join(missing, ", "))
	}

	if cfg.Tables.Tags == "" || cfg.Tables.Taggables == "" {
		return Config{}, fmt.Errorf("config.Load: table names must not be empty")
	}
	if cfg.Rules.NameMaxLength <= 0 {
		return Config{}, fmt.Errorf("config.Load: rules.name_max_length must be positive, got %d", cfg.Rules.NameMaxLength)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", "http://localhost:5173")
	v.SetDefault("max_body_bytes", 1<<20)

	v.SetDefault("tables.tags", "tags")
	v.SetDefault("tables.taggables", "taggables")
	v.SetDefault("rules.name_max_length", 255)
	v.SetDefault("delete_unused_tags", false)

	v.SetDefault("user_scope.enabled", true)
	v.SetDefault("user_scope.allow_global_tags", true)
	v.SetDefault("user_scope.mix_user_and_global", true)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.key_prefix", "taggable")
	v.SetDefault("cache.ttl", 3600)
}

// stringList reads key as either a YAML list or a comma-separated string.
func stringList(v *viper.Viper, key string) []string {
	if s, ok := v.Get(key).(string); ok {
		return splitCSV(s)
	}
	return v.GetStringSlice(key)
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
