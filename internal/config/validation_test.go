package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_AllDefaults_Pass(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestValidate_Orchestrator(t *testing.T) {
	t.Run("Zero MaxTurns Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Orchestrator.MaxTurns = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_turns")
	})

	t.Run("Unknown ApprovalMode Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Orchestrator.ApprovalMode = "ask_nicely"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "approval_mode")
	})

	t.Run("Every Known ApprovalMode Passes", func(t *testing.T) {
		for _, mode := range ApprovalModes {
			cfg := DefaultConfig()
			cfg.Orchestrator.ApprovalMode = mode
			assert.NoError(t, cfg.Validate(), "mode %q", mode)
		}
	})
}

func TestValidate_Provider(t *testing.T) {
	t.Run("Unknown Name Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Provider.Name = "bard"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "provider.name")
	})

	t.Run("Zero MaxTokens Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Provider.MaxTokens = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_tokens")
	})

	t.Run("Temperature Out Of Range Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Provider.Temperature = 2.5
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "temperature")
	})

	t.Run("Zero Temperature Passes", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Provider.Temperature = 0
		assert.NoError(t, cfg.Validate())
	})
}

func TestValidate_Tools(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Zero_MaxFileSize_Fails", func(c *Config) { c.Tools.MaxFileSize = 0 }},
		{"Zero_MaxReadLines_Fails", func(c *Config) { c.Tools.MaxReadLines = 0 }},
		{"Zero_DefaultShellTimeout_Fails", func(c *Config) { c.Tools.DefaultShellTimeout = 0 }},
		{"Zero_MaxShellTimeout_Fails", func(c *Config) { c.Tools.MaxShellTimeout = 0 }},
		{"Zero_MaxCommandOutput_Fails", func(c *Config) { c.Tools.MaxCommandOutput = 0 }},
		{"Zero_MaxGlobMatches_Fails", func(c *Config) { c.Tools.MaxGlobMatches = 0 }},
		{"Zero_MaxGrepMatches_Fails", func(c *Config) { c.Tools.MaxGrepMatches = 0 }},
		{"Zero_MaxLineLength_Fails", func(c *Config) { c.Tools.MaxLineLength = 0 }},
		{"Zero_MaxResultBytes_Fails", func(c *Config) { c.Tools.MaxResultBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_SemanticConstraints(t *testing.T) {
	t.Run("DefaultShellTimeout_ExceedsMax_Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tools.DefaultShellTimeout = 120
		cfg.Tools.MaxShellTimeout = 60
		if err := cfg.Validate(); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Default_Equals_Max_ShouldPass", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tools.DefaultShellTimeout = 60
		cfg.Tools.MaxShellTimeout = 60
		if err := cfg.Validate(); err != nil {
			t.Errorf("Default == Max should pass: %v", err)
		}
	})
}

func TestValidate_ExtensionsAndSessions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Zero_CallTimeout_Fails", func(c *Config) { c.Extensions.CallTimeoutSeconds = 0 }},
		{"Zero_HookTimeout_Fails", func(c *Config) { c.Extensions.HookTimeoutSeconds = 0 }},
		{"Zero_MaxSessions_Fails", func(c *Config) { c.Sessions.MaxSessions = 0 }},
		{"Zero_MaxAuditEntries_Fails", func(c *Config) { c.Sessions.MaxAuditEntries = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_MultipleErrors_ReportsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Orchestrator.MaxTurns = 0
	cfg.Tools.MaxFileSize = 0
	cfg.Sessions.MaxSessions = 0

	err := cfg.Validate()
	assert.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "max_turns")
	assert.Contains(t, msg, "max_file_size")
	assert.Contains(t, msg, "max_sessions")
}
