package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	// ConfigDir is the directory name under ~/.config.
	ConfigDir = "vswrite-agent"
	// ConfigFile is the config file name.
	ConfigFile = "config.json"
)

// FileSystem abstracts the reads Load performs, for test injection.
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
}

type osFileSystem struct{}

func (osFileSystem) UserHomeDir() (string, error) { return os.UserHomeDir() }

func (osFileSystem) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Loader reads configuration through an injected filesystem.
type Loader struct {
	fs FileSystem
}

// NewLoader creates a Loader backed by the real filesystem.
func NewLoader() *Loader {
	return &Loader{fs: osFileSystem{}}
}

// NewLoaderWithFS creates a Loader with a custom filesystem.
func NewLoaderWithFS(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// Load merges ~/.config/vswrite-agent/config.json over the defaults
// and validates the result. A missing file (or unknown home directory)
// yields the defaults; parse, permission and validation failures are
// errors.
//
// The file is unmarshalled directly over the default struct: present
// keys override defaults even when explicitly zero, absent keys keep
// their defaults.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	homeDir, err := l.fs.UserHomeDir()
	if err != nil {
		return cfg, nil
	}

	data, err := l.fs.ReadFile(filepath.Join(homeDir, ".config", ConfigDir, ConfigFile))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration with the default loader.
func Load() (*Config, error) {
	return NewLoader().Load()
}
