package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"hermes/internal/fileutil"
)

// Store persists process-wide settings (output mode, microphone, audio
// quality) between runs.
type Store interface {
	Load() (*Config, error)
	Save(cfg *Config) error
}

// FileStore is a Store backed by a TOML file.
type FileStore struct {
	Path string
}

// NewFileStore returns a FileStore for path, or for the default config
// location when path is empty.
func NewFileStore(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{Path: expanded}, nil
}

// Load reads the settings file, falling back to defaults when it is absent.
func (s *FileStore) Load() (*Config, error) {
	cfg, _, _, err := Load(s.Path)
	return cfg, err
}

// Save validates cfg and replaces the settings file.
func (s *FileStore) Save(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("save config: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.Path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
