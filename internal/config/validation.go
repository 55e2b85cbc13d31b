package config

import (
	"fmt"
)

// ApprovalModes lists the recognised approval_mode values.
var ApprovalModes = []string{
	"auto_approve",
	"approve_writes",
	"approve_dangerous",
	"approve_all",
	"dry_run",
}

// ProviderNames lists the recognised provider backends.
var ProviderNames = []string{"openai", "gemini", "ollama", "openrouter"}

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Orchestrator validation
	if c.Orchestrator.MaxTurns < 1 {
		errs = append(errs, "orchestrator.max_turns must be >= 1")
	}
	if !contains(ApprovalModes, c.Orchestrator.ApprovalMode) {
		errs = append(errs, fmt.Sprintf("orchestrator.approval_mode must be one of %v", ApprovalModes))
	}

	// Provider validation
	if !contains(ProviderNames, c.Provider.Name) {
		errs = append(errs, fmt.Sprintf("provider.name must be one of %v", ProviderNames))
	}
	if c.Provider.MaxTokens < 1 {
		errs = append(errs, "provider.max_tokens must be >= 1")
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 2 {
		errs = append(errs, "provider.temperature must be between 0 and 2")
	}

	// Tools validation
	if c.Tools.MaxFileSize < 1 {
		errs = append(errs, "tools.max_file_size must be >= 1")
	}
	if c.Tools.MaxReadLines < 1 {
		errs = append(errs, "tools.max_read_lines must be >= 1")
	}
	if c.Tools.MaxReadLineLength < 1 {
		errs = append(errs, "tools.max_read_line_length must be >= 1")
	}
	if c.Tools.BinaryDetectionSampleSize < 1 {
		errs = append(errs, "tools.binary_detection_sample_size must be >= 1")
	}
	if c.Tools.DefaultShellTimeout < 1 {
		errs = append(errs, "tools.default_shell_timeout must be >= 1")
	}
	if c.Tools.MaxShellTimeout < 1 {
		errs = append(errs, "tools.max_shell_timeout must be >= 1")
	}
	if c.Tools.MaxCommandOutput < 1 {
		errs = append(errs, "tools.max_command_output must be >= 1")
	}
	if c.Tools.MaxStdoutLines < 1 {
		errs = append(errs, "tools.max_stdout_lines must be >= 1")
	}
	if c.Tools.MaxStderrLines < 1 {
		errs = append(errs, "tools.max_stderr_lines must be >= 1")
	}
	if c.Tools.ShellGracePeriodMs < 0 {
		errs = append(errs, "tools.shell_grace_period_ms must be >= 0")
	}
	if c.Tools.MaxGlobMatches < 1 {
		errs = append(errs, "tools.max_glob_matches must be >= 1")
	}
	if c.Tools.MaxGrepMatches < 1 {
		errs = append(errs, "tools.max_grep_matches must be >= 1")
	}
	if c.Tools.MaxLineLength < 1 {
		errs = append(errs, "tools.max_line_length must be >= 1")
	}
	if c.Tools.MaxResultBytes < 1 {
		errs = append(errs, "tools.max_result_bytes must be >= 1")
	}

	// Semantic validation: Default <= Max constraints
	if c.Tools.DefaultShellTimeout > c.Tools.MaxShellTimeout {
		errs = append(errs, "tools.default_shell_timeout must be <= tools.max_shell_timeout")
	}

	// Extensions validation
	if c.Extensions.CallTimeoutSeconds < 1 {
		errs = append(errs, "extensions.call_timeout_seconds must be >= 1")
	}
	if c.Extensions.HookTimeoutSeconds < 1 {
		errs = append(errs, "extensions.hook_timeout_seconds must be >= 1")
	}

	// Sessions validation
	if c.Sessions.MaxSessions < 1 {
		errs = append(errs, "sessions.max_sessions must be >= 1")
	}
	if c.Sessions.MaxAuditEntries < 1 {
		errs = append(errs, "sessions.max_audit_entries must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
