// Package config resolves the mnemon environment: data directory layout,
// active store selection and the embedding adapter settings. Store
// multiplexing is a directory lookup above the core; the engine only ever
// sees a resolved database path.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults for the embedding adapter.
const (
	DefaultEmbedEndpoint = "http://localhost:11434"
	DefaultEmbedModel    = "nomic-embed-text"
)

// Config is the resolved runtime configuration for one command.
type Config struct {
	DataDir       string
	Store         string
	EmbedEndpoint string
	EmbedModel    string
	LogLevel      string
}

// fileConfig is the optional <data_root>/config.yaml shape. Env wins over
// the file, the file over defaults.
type fileConfig struct {
	EmbedEndpoint string `yaml:"embed_endpoint"`
	EmbedModel    string `yaml:"embed_model"`
	LogLevel      string `yaml:"log_level"`
}

// Load resolves configuration. storeFlag is the --store value, empty when
// unset; resolution order is flag, MNEMON_STORE, the active file, then
// "default".
func Load(storeFlag string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		EmbedEndpoint: DefaultEmbedEndpoint,
		EmbedModel:    DefaultEmbedModel,
		LogLevel:      "warn",
	}

	cfg.DataDir = strings.TrimSpace(os.Getenv("MNEMON_DATA_DIR"))
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".mnemon")
	}

	if raw, err := os.ReadFile(filepath.Join(cfg.DataDir, "config.yaml")); err == nil {
		var fc fileConfig
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("parse config.yaml: %w", err)
		}
		if fc.EmbedEndpoint != "" {
			cfg.EmbedEndpoint = fc.EmbedEndpoint
		}
		if fc.EmbedModel != "" {
			cfg.EmbedModel = fc.EmbedModel
		}
		if fc.LogLevel != "" {
			cfg.LogLevel = fc.LogLevel
		}
	}

	if v := strings.TrimSpace(os.Getenv("MNEMON_EMBED_ENDPOINT")); v != "" {
		cfg.EmbedEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("MNEMON_EMBED_MODEL")); v != "" {
		cfg.EmbedModel = v
	}
	if v := strings.TrimSpace(os.Getenv("MNEMON_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}

	switch {
	case storeFlag != "":
		cfg.Store = storeFlag
	case strings.TrimSpace(os.Getenv("MNEMON_STORE")) != "":
		cfg.Store = strings.TrimSpace(os.Getenv("MNEMON_STORE"))
	default:
		cfg.Store = activeStore(cfg.DataDir)
	}
	return cfg, nil
}

// DBPath returns the database file for the resolved store.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "data", c.Store, "mnemon.db")
}

func activeStore(dataDir string) string {
	raw, err := os.ReadFile(filepath.Join(dataDir, "active"))
	if err != nil {
		return "default"
	}
	name := strings.TrimSpace(string(raw))
	if name == "" {
		return "default"
	}
	return name
}

// ListStores enumerates store directories under <data_root>/data.
func (c *Config) ListStores() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(c.DataDir, "data"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// CreateStore makes an empty store directory.
func (c *Config) CreateStore(name string) error {
	if !validStoreName(name) {
		return fmt.Errorf("invalid store name %q", name)
	}
	return os.MkdirAll(filepath.Join(c.DataDir, "data", name), 0o755)
}

// SetActive records name in the active file.
func (c *Config) SetActive(name string) error {
	if !validStoreName(name) {
		return fmt.Errorf("invalid store name %q", name)
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.DataDir, "active"), []byte(name+"\n"), 0o644)
}

// RemoveStore deletes a store directory and its database.
func (c *Config) RemoveStore(name string) error {
	if !validStoreName(name) {
		return fmt.Errorf("invalid store name %q", name)
	}
	if name == "default" {
		return fmt.Errorf("refusing to remove the default store")
	}
	return os.RemoveAll(filepath.Join(c.DataDir, "data", name))
}

func validStoreName(name string) bool {
	if name == "" || strings.ContainsAny(name, "/\\.") {
		return false
	}
	return true
}
