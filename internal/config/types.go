package config

import "time"

// Config represents the complete workfold configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	State   StateConfig   `yaml:"state"`
	Forge   ForgeConfig   `yaml:"forge"`
	Cache   CacheConfig   `yaml:"cache"`
	API     APIConfig     `yaml:"api,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// StateConfig defines state storage settings.
type StateConfig struct {
	Path string `yaml:"path"`
}

// ForgeConfig defines how to reach the hosting forge.
type ForgeConfig struct {
	// APIBase is the REST API root, e.g. https://api.github.com
	APIBase string `yaml:"api_base"`
	// RawBase is the raw file content root, e.g. https://raw.githubusercontent.com
	RawBase string `yaml:"raw_base"`
	// WebBase is the rendered site root, used for scrape fallback and probes.
	WebBase string `yaml:"web_base"`
	// Token overrides the stored credential when set. Supports ${ENV} expansion.
	Token string `yaml:"token,omitempty"`
	// Timeout bounds every request. The underlying transport default is not
	// trusted; a hung request would stall the whole pipeline otherwise.
	Timeout time.Duration `yaml:"timeout"`
	// Branches is the priority-ordered list of branches tried when fetching
	// the folder config document.
	Branches []string `yaml:"branches"`
	// ConfigPath is the in-repo path of the folder config document.
	ConfigPath string `yaml:"config_path"`
	// RateLimitLowWater triggers a warning when remaining quota drops below it.
	RateLimitLowWater int `yaml:"rate_limit_low_water"`
}

// CacheConfig defines folder-config cache behavior.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// APIConfig defines the local HTTP API server settings.
type APIConfig struct {
	Enabled bool          `yaml:"enabled"`
	Listen  string        `yaml:"listen"`
	Auth    APIAuthConfig `yaml:"auth"`
}

// APIAuthConfig defines API authentication settings.
type APIAuthConfig struct {
	// APIKey is the legacy single bearer token (admin/full access).
	// Prefer Tokens for scoped access.
	APIKey string     `yaml:"api_key"`
	Tokens []APIToken `yaml:"tokens,omitempty"`
}

// APIToken defines a bearer token and its scopes.
type APIToken struct {
	Token  string   `yaml:"token"`
	Scopes []string `yaml:"scopes"`
}
