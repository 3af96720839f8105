package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from configPath. A directory resolves
// to its config.yaml; a missing file is an error (LoadOrDefault tolerates it).
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configPath if it exists, otherwise returns defaults.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	if discovered, err := Discover(); err == nil {
		return Load(discovered)
	}

	cfg := &Config{}
	applyDefaults(cfg)
	return cfg, nil
}

// Discover finds the config file by checking standard locations.
// Priority order: $WORKFOLD_CONFIG, ~/.config/workfold/config.yaml,
// /etc/workfold/config.yaml, ./config.yaml.
func Discover() (string, error) {
	if path := os.Getenv("WORKFOLD_CONFIG"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".config", "workfold", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath, nil
		}
	}

	etcPath := filepath.Join("/etc", "workfold", "config.yaml")
	if _, err := os.Stat(etcPath); err == nil {
		return etcPath, nil
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml", nil
	}

	return "", fmt.Errorf("no config file found")
}

// DefaultStatePath returns the default SQLite path under the user config dir.
func DefaultStatePath() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "workfold", "workfold.db")
	}
	return "workfold.db"
}

// expandEnvVars replaces ${VAR} references with environment values.
// Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "workfold"
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = "INFO"
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = "json"
	}
	if cfg.State.Path == "" {
		cfg.State.Path = DefaultStatePath()
	}
	if cfg.Forge.APIBase == "" {
		cfg.Forge.APIBase = "https://api.github.com"
	}
	if cfg.Forge.RawBase == "" {
		cfg.Forge.RawBase = "https://raw.githubusercontent.com"
	}
	if cfg.Forge.WebBase == "" {
		cfg.Forge.WebBase = "https://github.com"
	}
	if cfg.Forge.Timeout == 0 {
		cfg.Forge.Timeout = 15 * time.Second
	}
	if len(cfg.Forge.Branches) == 0 {
		cfg.Forge.Branches = []string{"main", "master"}
	}
	if cfg.Forge.ConfigPath == "" {
		cfg.Forge.ConfigPath = ".github/workflow-folders.json"
	}
	if cfg.Forge.RateLimitLowWater == 0 {
		cfg.Forge.RateLimitLowWater = 10
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = "127.0.0.1:7838"
	}
}

func validate(cfg *Config) error {
	if cfg.Forge.Timeout < 0 {
		return fmt.Errorf("forge.timeout must not be negative")
	}
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	for i, b := range cfg.Forge.Branches {
		if b == "" {
			return fmt.Errorf("forge.branches[%d] is empty", i)
		}
	}
	if cfg.API.Enabled && cfg.API.Auth.APIKey == "" && len(cfg.API.Auth.Tokens) == 0 {
		return fmt.Errorf("api.enabled requires api.auth.api_key or api.auth.tokens")
	}
	for i, t := range cfg.API.Auth.Tokens {
		if t.Token == "" {
			return fmt.Errorf("api.auth.tokens[%d].token is empty", i)
		}
	}
	return nil
}
