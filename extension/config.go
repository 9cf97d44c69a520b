package extension

import (
	"time"

	"github.com/xraph/gatehouse"
)

// Config holds the Gatehouse extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.gatehouse" or "gatehouse" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for gatehouse routes (default: "/gatehouse").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// GuardName is stamped on seeded roles and permissions (default: "web").
	GuardName string `json:"guard_name" mapstructure:"guard_name" yaml:"guard_name"`

	// AuditAllows records allowed verdicts in the check log as well as denials.
	AuditAllows bool `json:"audit_allows" mapstructure:"audit_allows" yaml:"audit_allows"`

	// CacheTTL bounds the lifetime of a cached capability projection.
	// Zero disables the capability cache unless one is injected.
	CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// CacheSize caps the number of projections held by the in-process cache.
	CacheSize int `json:"cache_size" mapstructure:"cache_size" yaml:"cache_size"`

	// RedisURL selects the shared Redis capability cache instead of the
	// in-process one, e.g. "redis://localhost:6379/0".
	RedisURL string `json:"redis_url" mapstructure:"redis_url" yaml:"redis_url"`

	// CheckLogRetention purges check log entries older than this on start.
	// Zero keeps every entry.
	CheckLogRetention time.Duration `json:"check_log_retention" mapstructure:"check_log_retention" yaml:"check_log_retention"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:  "/gatehouse",
		GuardName: "web",
		CacheTTL:  5 * time.Minute,
		CacheSize: 4096,
	}
}

func (c Config) engineConfig() gatehouse.Config {
	cfg := gatehouse.DefaultConfig()
	if c.GuardName != "" {
		cfg.GuardName = c.GuardName
	}
	cfg.AuditAllows = c.AuditAllows
	return cfg
}
