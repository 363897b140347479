// Package config loads client configuration from YAML files with
// environment variable substitution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds the client configuration used by the CLI and host
// applications that prefer file-based setup over functional options.
type Config struct {
	Cluster Cluster  `yaml:"cluster"`
	Cache   CacheCfg `yaml:"cache"`
	Logging Logging  `yaml:"logging"`
}

// Cluster holds connection settings for the search service.
type Cluster struct {
	Address    string            `yaml:"address"`
	Headers    map[string]string `yaml:"headers"`
	TimeoutSec int               `yaml:"timeout_sec"`
	// Warnings controls deprecation warning handling: "permissive" (log)
	// or "strict" (fail the call).
	Warnings string `yaml:"warnings"`
}

// CacheCfg holds optional document cache settings.
type CacheCfg struct {
	// Backend selects the cache: "" (disabled), "lru", or "redis".
	Backend  string   `yaml:"backend"`
	Size     int      `yaml:"size"`
	TTLSec   int      `yaml:"ttl_sec"`
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
}

// Logging holds logging settings.
type Logging struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Cluster.TimeoutSec <= 0 {
		c.Cluster.TimeoutSec = 30
	}
	if c.Cluster.Warnings == "" {
		c.Cluster.Warnings = "permissive"
	}
	if c.Cache.Backend == "lru" && c.Cache.Size <= 0 {
		c.Cache.Size = 1024
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Cluster.Address == "" {
		return fmt.Errorf("cluster.address is required")
	}
	switch c.Cluster.Warnings {
	case "permissive", "strict":
		// ok
	default:
		return fmt.Errorf(
			"cluster.warnings must be \"permissive\" or \"strict\", got %q",
			c.Cluster.Warnings,
		)
	}
	switch c.Cache.Backend {
	case "", "lru":
		// ok
	case "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be \"lru\" or \"redis\", got %q", c.Cache.Backend)
	}
	return nil
}

// expandEnvVars substitutes ${VAR} references with environment values.
// Unset variables expand to an empty string.
var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
