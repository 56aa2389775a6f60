// Package config handles the global refinery configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/matsen/refinery/internal/validate"
)

// Config represents configuration stored in
// ~/.config/refinery/config.yml.
type Config struct {
	// CachePath is the SQLite enrichment cache location. Empty means
	// in-memory only.
	CachePath string `yaml:"cache_path,omitempty"`

	// BatchDBPath is the SQLite batch store location. Empty means
	// in-memory only.
	BatchDBPath string `yaml:"batch_db_path,omitempty"`

	// CacheSize bounds the in-memory cache entry count.
	CacheSize int `yaml:"cache_size,omitempty"`

	// Workers is the validation worker pool width.
	Workers int `yaml:"workers,omitempty"`

	// Sources restricts enrichment to the named sources. Empty means
	// all registered sources.
	Sources []string `yaml:"sources,omitempty"`

	// SourcePriority overrides the merge priority order. Sources left
	// out keep their default rank after the listed ones.
	SourcePriority []string `yaml:"source_priority,omitempty"`

	// DefaultMode is the validation mode used when none is given.
	DefaultMode string `yaml:"default_mode,omitempty"`

	// ListenAddr is the API server bind address.
	ListenAddr string `yaml:"listen_addr,omitempty"`

	// WatchDir, when set, is polled for dropped documents by the
	// serve command.
	WatchDir string `yaml:"watch_dir,omitempty"`

	// API credentials. Environment variables take precedence.
	CrossRefToken string `yaml:"crossref_token,omitempty"`
	S2APIKey      string `yaml:"s2_api_key,omitempty"`
	NCBIAPIKey    string `yaml:"ncbi_api_key,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "refinery"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"

	// DefaultListenAddr is the API server default bind address.
	DefaultListenAddr = ":8090"
)

// Path returns the path to the config file. Respects XDG_CONFIG_HOME,
// defaults to ~/.config/refinery/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the config file. A missing file yields the defaults, not
// an error.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads a config file from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config file, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = validate.DefaultWorkers
	}
	if c.DefaultMode == "" {
		c.DefaultMode = string(validate.ModeStandard)
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
}
