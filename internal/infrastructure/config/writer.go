package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# Memora Configuration

sqlite:
  path: memora.db

server:
  addr: 127.0.0.1:8080

matching:
  limit: 5
  workers: 4
  generate_on_approval: true

tree:
  max_depth: 3

# Story search is enabled when an embedder API key is set.
embedder:
  provider: openai
  model: text-embedding-3-small
  # api_key: your-api-key (or set OPENAI_API_KEY env var)

qdrant:
  host: localhost
  port: 6334
  collection: memora_stories
  # api_key: your-api-key (for Qdrant Cloud)

log:
  level: info
  format: text
`

// WriteDefault creates the .memora directory and writes the default config
// file. It refuses to overwrite an existing file.
func WriteDefault(basePath string) error {
	if err := os.MkdirAll(ConfigDir(basePath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := ConfigFilePath(basePath)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}

	if _, err := f.WriteString(DefaultConfigYAML); err != nil {
		f.Close()
		return fmt.Errorf("writing config file: %w", err)
	}
	return f.Close()
}

// Exists reports whether a memora config file exists under basePath.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
