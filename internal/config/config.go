// Package config loads doitsh's YAML configuration, following a
// load-or-default pattern: a missing file yields defaults silently, a
// malformed one is a hard error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the global doitsh configuration.
type Config struct {
	Audit    AuditConfig    `yaml:"audit"`
	Policy   PolicyConfig   `yaml:"policy"`
	Prompt   PromptConfig   `yaml:"prompt"`
	ReadLine ReadLineConfig `yaml:"readline"`
}

// AuditConfig controls audit log settings.
type AuditConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// PolicyConfig controls the natural-language assistant's confirmation
// policy engine.
type PolicyConfig struct {
	Level1Enabled  bool   `yaml:"level1_enabled"`
	Level2Enabled  bool   `yaml:"level2_enabled"`
	LearnedStore   string `yaml:"learned_store"`
	ReviewAfterUse bool   `yaml:"review_after_use"`
}

// PromptConfig controls the candidate-generating assistant client.
type PromptConfig struct {
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// TimeoutDuration parses the configured timeout or returns the default.
func (p *PromptConfig) TimeoutDuration() time.Duration {
	if p.Timeout != "" {
		if d, err := time.ParseDuration(p.Timeout); err == nil {
			return d
		}
	}
	return DefaultPromptTimeout
}

// DefaultPromptTimeout bounds how long the assistant client waits for a
// candidate command before giving up.
const DefaultPromptTimeout = 60 * time.Second

// ReadLineConfig controls the read-line collaborator.
type ReadLineConfig struct {
	// HistFile overrides $HISTFILE when set.
	HistFile string `yaml:"histfile"`
	// EnableCurDirDisplay overrides $ENABLE_CUR_DIR_DISPLAY when non-nil.
	EnableCurDirDisplay *bool `yaml:"enable_cur_dir_display"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Audit: AuditConfig{
			Path:    filepath.Join(home, ".local", "share", "doitsh", "audit.jsonl"),
			Enabled: true,
		},
		Policy: PolicyConfig{
			Level1Enabled:  true,
			Level2Enabled:  true,
			LearnedStore:   filepath.Join(home, ".config", "doitsh", "learned-policy.yaml"),
			ReviewAfterUse: true,
		},
		Prompt: PromptConfig{
			Model:   "",
			Timeout: DefaultPromptTimeout.String(),
		},
	}
}

// Load reads the config from the standard location
// (~/.config/doitsh/config.yaml). If the file doesn't exist, returns the
// default config.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config from the given path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Audit.Path = expandHome(cfg.Audit.Path)
	cfg.Policy.LearnedStore = expandHome(cfg.Policy.LearnedStore)
	cfg.ReadLine.HistFile = expandHome(cfg.ReadLine.HistFile)

	return cfg, nil
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// ConfigPath returns the standard config file path.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "doitsh", "config.yaml")
}
