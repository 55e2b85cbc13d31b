package config

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFileSystem implements FileSystem for testing.
type MockFileSystem struct {
	HomeDir     string
	HomeDirErr  error
	Files       map[string][]byte
	ReadFileErr error
}

func (m *MockFileSystem) UserHomeDir() (string, error) {
	return m.HomeDir, m.HomeDirErr
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileErr != nil {
		return nil, m.ReadFileErr
	}
	data, ok := m.Files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

// --- HAPPY PATH TESTS ---

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	// Config file doesn't exist - should return all defaults
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files:   map[string][]byte{}, // Empty - no config file
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Orchestrator.MaxTurns)
	assert.Equal(t, "approve_dangerous", cfg.Orchestrator.ApprovalMode)
	assert.Equal(t, int64(5*1024*1024), cfg.Tools.MaxFileSize)
	assert.Equal(t, 100, cfg.Sessions.MaxSessions)
}

func TestLoad_FullOverride_AllValuesReplaced(t *testing.T) {
	configJSON := `{
		"orchestrator": {"max_turns": 20, "approval_mode": "approve_all"},
		"provider": {"name": "ollama", "max_tokens": 8192, "temperature": 0.2},
		"tools": {"max_file_size": 10485760, "default_shell_timeout": 15},
		"extensions": {"enabled": false, "call_timeout_seconds": 3},
		"sessions": {"max_sessions": 10}
	}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/vswrite-agent/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Orchestrator.MaxTurns)
	assert.Equal(t, "approve_all", cfg.Orchestrator.ApprovalMode)
	assert.Equal(t, "ollama", cfg.Provider.Name)
	assert.Equal(t, int64(10485760), cfg.Tools.MaxFileSize)
	assert.False(t, cfg.Extensions.Enabled)
	assert.Equal(t, 10, cfg.Sessions.MaxSessions)
}

func TestLoad_PartialOverride_MergesWithDefaults(t *testing.T) {
	// Config file only overrides max_turns - rest should be defaults
	configJSON := `{"orchestrator": {"max_turns": 12}}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/vswrite-agent/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Orchestrator.MaxTurns)                 // Overridden
	assert.Equal(t, "approve_dangerous", cfg.Orchestrator.ApprovalMode) // Default
	assert.Equal(t, 4096, cfg.Provider.MaxTokens)                  // Default
	assert.True(t, cfg.Extensions.Enabled)                         // Default
}

func TestLoad_EmptyConfigFile_ReturnsDefaults(t *testing.T) {
	// Empty JSON object - should use all defaults
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/vswrite-agent/config.json": []byte(`{}`),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Orchestrator.MaxTurns)
}

// --- UNHAPPY PATH TESTS ---

func TestLoad_MalformedJSON_ReturnsError(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/vswrite-agent/config.json": []byte(`{invalid json`),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid")
}

func TestLoad_InvalidMergedConfig_ReturnsError(t *testing.T) {
	// Parses fine, fails validation after merge
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/vswrite-agent/config.json": []byte(`{"orchestrator": {"approval_mode": "yolo"}}`),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "approval_mode")
}

func TestLoad_PermissionDenied_ReturnsError(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir:     "/home/user",
		ReadFileErr: os.ErrPermission,
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.True(t, errors.Is(err, os.ErrPermission))
}

func TestLoad_HomeDirError_ReturnsDefaults(t *testing.T) {
	// Can't determine home dir - gracefully fall back to defaults
	fs := &MockFileSystem{
		HomeDirErr: errors.New("homeless"),
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Orchestrator.MaxTurns)
}
