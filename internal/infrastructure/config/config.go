// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for memora configuration.
	DefaultConfigDir = ".memora"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default SQLite file name inside the config dir.
	DefaultDatabaseFile = "memora.db"
)

// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
var reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]+`)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
	Matching MatchingConfig `yaml:"matching,omitempty"`
	Tree     TreeConfig     `yaml:"tree,omitempty"`
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
	Log      LogConfig      `yaml:"log,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite graph store.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database. Relative paths are
	// resolved against the config directory.
	Path string `yaml:"path,omitempty"`
}

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// MatchingConfig holds configuration for smart match generation.
type MatchingConfig struct {
	// Limit is the number of matches kept per memorial.
	Limit int `yaml:"limit,omitempty"`
	// Workers bounds concurrent generation during batch regeneration.
	Workers int `yaml:"workers,omitempty"`
	// GenerateOnApproval runs matching in the background when a memorial is approved.
	GenerateOnApproval bool `yaml:"generate_on_approval"`
}

// TreeConfig holds configuration for family tree rendering.
type TreeConfig struct {
	MaxDepth int `yaml:"max_depth,omitempty"`
}

// EmbedderConfig holds configuration for the story embedding provider.
type EmbedderConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	// BaseURL overrides the API endpoint for compatible providers.
	BaseURL string `yaml:"base_url,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant story index.
type QdrantConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // text or json
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		SQLite: SQLiteConfig{
			Path: DefaultDatabaseFile,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Matching: MatchingConfig{
			Limit:              5,
			Workers:            4,
			GenerateOnApproval: true,
		},
		Tree: TreeConfig{
			MaxDepth: 3,
		},
		Embedder: EmbedderConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "memora_stories",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the .memora directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'memora init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.SQLite.Path = cfg.resolveDatabasePath(basePath)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Embedder.APIKey == "" {
		c.Embedder.APIKey = key
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" && c.Qdrant.APIKey == "" {
		c.Qdrant.APIKey = key
	}
	if path := os.Getenv("MEMORA_DB_PATH"); path != "" {
		c.SQLite.Path = path
	}
	if addr := os.Getenv("MEMORA_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

func (c *Config) resolveDatabasePath(basePath string) string {
	p := c.SQLite.Path
	if p == "" {
		p = DefaultDatabaseFile
	}
	if p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(ConfigDir(basePath), p)
}

// StorySearchEnabled reports whether an embedder key is configured.
func (c *Config) StorySearchEnabled() bool {
	return c.Embedder.APIKey != ""
}

// SlogLevel converts the configured level to a slog.Level.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConfigDir returns the path to the .memora config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// SanitizeCollectionName converts a name to a valid Qdrant collection name.
func SanitizeCollectionName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = reNonAlphanumeric.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "memora_stories"
	}
	return name
}
