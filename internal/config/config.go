// Package config builds the immutable server configuration from a YAML
// file, the environment and command-line overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	goutils "github.com/jkaninda/go-utils"
	"gopkg.in/yaml.v3"
)

// Config is assembled once at startup and passed to components
// explicitly. It is never mutated afterwards.
type Config struct {
	// Root is the directory all file and shell tools are confined to.
	// Stored absolute and cleaned; must exist.
	Root string `yaml:"root"`

	// Verbose enables debug-level logging.
	Verbose bool `yaml:"verbose"`

	// DefaultTimeoutMs applies to commands that request no timeout.
	DefaultTimeoutMs int `yaml:"default_timeout_ms"`

	Metrics MetricsConfig `yaml:"metrics"`
	Audit   AuditConfig   `yaml:"audit"`
	Papers  PapersConfig  `yaml:"papers"`
}

// MetricsConfig controls the optional metrics listener.
type MetricsConfig struct {
	// Addr is the listen address for /metrics and /healthz. Empty
	// disables the listener.
	Addr string `yaml:"addr"`
}

// AuditConfig controls the invocation audit store.
type AuditConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// PapersConfig controls the arXiv retrieval feature.
type PapersConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Category        string `yaml:"category"`
	MaxResults      int    `yaml:"max_results"`
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// DefaultTimeout returns the configured default command timeout.
func (c *Config) DefaultTimeout() time.Duration {
	if c.DefaultTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.DefaultTimeoutMs) * time.Millisecond
}

// Load assembles the configuration. Precedence, lowest to highest:
// built-in defaults, the YAML file, HOSTBOX_* environment variables,
// then the explicit root argument (empty means unset).
func Load(path, rootArg string) (*Config, error) {
	cfg := &Config{
		DefaultTimeoutMs: 30000,
		Audit: AuditConfig{
			Driver:     "sqlite",
			SQLitePath: "hostbox-audit.db",
		},
		Papers: PapersConfig{
			Category:        "cs.AI",
			MaxResults:      10,
			RefreshSchedule: "@every 15m",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(cfg)

	if rootArg != "" {
		cfg.Root = rootArg
	}
	root, err := resolveRoot(cfg.Root)
	if err != nil {
		return nil, err
	}
	cfg.Root = root
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Root = goutils.Env("HOSTBOX_ROOT", cfg.Root)
	if v := os.Getenv("HOSTBOX_VERBOSE"); v != "" {
		cfg.Verbose, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("HOSTBOX_DEFAULT_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.DefaultTimeoutMs = ms
		}
	}
	cfg.Metrics.Addr = goutils.Env("HOSTBOX_METRICS_ADDR", cfg.Metrics.Addr)
	if v := os.Getenv("HOSTBOX_AUDIT_ENABLED"); v != "" {
		cfg.Audit.Enabled, _ = strconv.ParseBool(v)
	}
	cfg.Audit.Driver = goutils.Env("HOSTBOX_AUDIT_DRIVER", cfg.Audit.Driver)
	cfg.Audit.SQLitePath = goutils.Env("HOSTBOX_AUDIT_SQLITE_PATH", cfg.Audit.SQLitePath)
	cfg.Audit.PostgresDSN = goutils.Env("HOSTBOX_AUDIT_POSTGRES_DSN", cfg.Audit.PostgresDSN)
	cfg.Papers.Endpoint = goutils.Env("HOSTBOX_PAPERS_ENDPOINT", cfg.Papers.Endpoint)
	cfg.Papers.Category = goutils.Env("HOSTBOX_PAPERS_CATEGORY", cfg.Papers.Category)
	cfg.Papers.RefreshSchedule = goutils.Env("HOSTBOX_PAPERS_REFRESH", cfg.Papers.RefreshSchedule)
}

// resolveRoot normalizes the root to an absolute, cleaned path and
// verifies it is an existing directory. Empty defaults to the cwd.
func resolveRoot(root string) (string, error) {
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}
		root = cwd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root %q: %w", root, err)
	}
	abs = filepath.Clean(abs)
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("root directory %s does not exist", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root %s is not a directory", abs)
	}
	return abs, nil
}
