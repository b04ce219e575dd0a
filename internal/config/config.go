package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/trustledger/internal/chain"
	"github.com/cleared-dev/trustledger/internal/ledger"
	"github.com/cleared-dev/trustledger/internal/logger"
	"github.com/cleared-dev/trustledger/internal/reconcile"
)

// FileName is the config file looked up in the workspace root.
const FileName = "trustledger.yaml"

// Config represents the top-level trustledger.yaml configuration.
type Config struct {
	Organization OrganizationConfig `yaml:"organization"`
	Reconcile    reconcile.Config   `yaml:"reconcile"`
	Ledger       LedgerConfig       `yaml:"ledger"`
	Chain        ChainConfig        `yaml:"chain"`
	Log          LogConfig          `yaml:"log"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Git          GitConfig          `yaml:"git"`
}

// OrganizationConfig identifies the organization publishing the chain.
type OrganizationConfig struct {
	Name string `yaml:"name"`
}

// LedgerConfig sets the drift policy used to derive the internal ledger.
type LedgerConfig struct {
	Policy    string `yaml:"policy"` // "modulo" or "mirror"
	DropEvery int    `yaml:"drop_every"`
	TagEvery  int    `yaml:"tag_every"`
	Marker    string `yaml:"marker"`
}

// DriftPolicy returns the configured drift policy. The moduli apply to
// the modulo policy only.
func (c LedgerConfig) DriftPolicy() ledger.Policy {
	if c.Policy == ledger.PolicyMirror {
		return ledger.MirrorPolicy{}
	}
	return ledger.ModuloPolicy{DropEvery: c.DropEvery, TagEvery: c.TagEvery, Marker: c.Marker}
}

// ChainConfig selects the chain storage backend.
type ChainConfig struct {
	Backend string `yaml:"backend"` // "jsonl" or "sqlite"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Options converts to logger options.
func (c LogConfig) Options() logger.Options {
	return logger.Options{Level: c.Level, Format: c.Format}
}

// MetricsConfig controls the Prometheus textfile output.
type MetricsConfig struct {
	TextFile string `yaml:"textfile,omitempty"` // relative to the workspace root
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a trustledger.yaml file from disk. Missing keys keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to defaults when it does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(""), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks values the pipeline cannot run with.
func (c *Config) Validate() error {
	if err := c.Reconcile.Validate(); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	switch c.Ledger.Policy {
	case "", ledger.PolicyModulo, ledger.PolicyMirror:
	default:
		return fmt.Errorf("ledger: unknown policy %q", c.Ledger.Policy)
	}
	if c.Ledger.DropEvery < 0 || c.Ledger.TagEvery < 0 {
		return fmt.Errorf("ledger: moduli must not be negative")
	}
	switch c.Chain.Backend {
	case chain.BackendJSONL, chain.BackendSQLite:
	default:
		return fmt.Errorf("chain: unknown backend %q", c.Chain.Backend)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default(orgName string) *Config {
	policy := ledger.DefaultPolicy()
	return &Config{
		Organization: OrganizationConfig{
			Name: orgName,
		},
		Reconcile: reconcile.DefaultConfig(),
		Ledger: LedgerConfig{
			Policy:    ledger.PolicyModulo,
			DropEvery: policy.DropEvery,
			TagEvery:  policy.TagEvery,
			Marker:    policy.Marker,
		},
		Chain: ChainConfig{
			Backend: chain.BackendJSONL,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logger.FormatText,
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "Trustledger",
			AuthorEmail: "trustledger@localhost",
		},
	}
}
