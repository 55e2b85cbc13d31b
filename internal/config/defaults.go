package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Orchestrator OrchestratorConfig `json:"orchestrator"`
	Provider     ProviderConfig     `json:"provider"`
	Tools        ToolsConfig        `json:"tools"`
	Extensions   ExtensionsConfig   `json:"extensions"`
	Sessions     SessionsConfig     `json:"sessions"`
}

type OrchestratorConfig struct {
	// MaxTurns bounds the provider round-trip loop for one task.
	MaxTurns int `json:"max_turns"` // Default: 8

	// ApprovalMode is one of auto_approve, approve_writes,
	// approve_dangerous, approve_all, dry_run.
	ApprovalMode string `json:"approval_mode"` // Default: "approve_dangerous"
}

type ProviderConfig struct {
	// Name selects the provider backend: openai, gemini, ollama or
	// openrouter.
	Name  string `json:"name"`  // Default: "openai"
	Model string `json:"model"` // Default: "" (backend picks its default)

	MaxTokens   int     `json:"max_tokens"`  // Default: 4096
	Temperature float64 `json:"temperature"` // Default: 0.7

	// Base URL overrides for the OpenAI-compatible backends.
	OpenAIBaseURL     string `json:"openai_base_url"`     // Default: https://api.openai.com/v1
	OpenRouterBaseURL string `json:"openrouter_base_url"` // Default: https://openrouter.ai/api/v1
	OllamaBaseURL     string `json:"ollama_base_url"`     // Default: http://localhost:11434/v1
}

type ToolsConfig struct {
	// File Operations
	MaxFileSize       int64 `json:"max_file_size"`        // Default: 5 * 1024 * 1024 (5MB)
	MaxReadLines      int   `json:"max_read_lines"`       // Default: 4000
	MaxReadLineLength int   `json:"max_read_line_length"` // Default: 2000 (chars before clipping)

	// BinaryDetectionSampleSize is the number of leading bytes inspected
	// for null bytes when deciding whether content is binary.
	BinaryDetectionSampleSize int `json:"binary_detection_sample_size"` // Default: 8192

	// Command Execution
	DefaultShellTimeout int   `json:"default_shell_timeout"` // Default: 30 (seconds)
	MaxShellTimeout     int   `json:"max_shell_timeout"`     // Default: 60 (seconds)
	MaxCommandOutput    int64 `json:"max_command_output"`    // Default: 10000 (bytes)
	MaxStdoutLines      int   `json:"max_stdout_lines"`      // Default: 500
	MaxStderrLines      int   `json:"max_stderr_lines"`      // Default: 100

	// ShellGracePeriodMs is how long a timed out command gets between
	// SIGINT and SIGKILL.
	ShellGracePeriodMs int `json:"shell_grace_period_ms"` // Default: 2000

	// Search
	MaxGlobMatches int `json:"max_glob_matches"` // Default: 500
	MaxGrepMatches int `json:"max_grep_matches"` // Default: 100
	MaxLineLength  int `json:"max_line_length"`  // Default: 200

	// MaxResultBytes caps any single tool result fed back to the
	// provider; longer output is truncated with a marker.
	MaxResultBytes int `json:"max_result_bytes"` // Default: 8000
}

type ExtensionsConfig struct {
	Enabled bool `json:"enabled"` // Default: true

	// Dir is where installed extensions live. Empty means
	// ~/.config/vswrite-agent/extensions.
	Dir string `json:"dir"`

	CallTimeoutSeconds int `json:"call_timeout_seconds"` // Default: 10
	HookTimeoutSeconds int `json:"hook_timeout_seconds"` // Default: 5
}

type SessionsConfig struct {
	// Dir is where session records and audit logs live. Empty means
	// ~/.local/state/vswrite-agent.
	Dir string `json:"dir"`

	MaxSessions     int `json:"max_sessions"`      // Default: 100
	MaxAuditEntries int `json:"max_audit_entries"` // Default: 1000
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			MaxTurns:     8,
			ApprovalMode: "approve_dangerous",
		},
		Provider: ProviderConfig{
			Name:              "openai",
			MaxTokens:         4096,
			Temperature:       0.7,
			OpenAIBaseURL:     "https://api.openai.com/v1",
			OpenRouterBaseURL: "https://openrouter.ai/api/v1",
			OllamaBaseURL:     "http://localhost:11434/v1",
		},
		Tools: ToolsConfig{
			MaxFileSize:               5 * 1024 * 1024,
			MaxReadLines:              4000,
			MaxReadLineLength:         2000,
			BinaryDetectionSampleSize: 8192,
			DefaultShellTimeout:       30,
			MaxShellTimeout:           60,
			MaxCommandOutput:          10000,
			MaxStdoutLines:            500,
			MaxStderrLines:            100,
			ShellGracePeriodMs:        2000,
			MaxGlobMatches:            500,
			MaxGrepMatches:            100,
			MaxLineLength:             200,
			MaxResultBytes:            8000,
		},
		Extensions: ExtensionsConfig{
			Enabled:            true,
			CallTimeoutSeconds: 10,
			HookTimeoutSeconds: 5,
		},
		Sessions: SessionsConfig{
			MaxSessions:     100,
			MaxAuditEntries: 1000,
		},
	}
}
