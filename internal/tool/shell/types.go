package shell

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/vswrite/agentcore/internal/config"
)

// ShellRequest executes a command through the system shell inside the
// workspace. TimeoutSeconds of zero means the configured default; values
// above the configured maximum are clamped down to it.
type ShellRequest struct {
	Command        string `json:"command" mapstructure:"command"`
	WorkingDir     string `json:"cwd,omitempty" mapstructure:"cwd"`
	TimeoutSeconds int    `json:"timeout,omitempty" mapstructure:"timeout"`
}

func (r *ShellRequest) Validate(cfg *config.Config) error {
	if strings.TrimSpace(r.Command) == "" {
		return &CommandRequiredError{}
	}
	if r.TimeoutSeconds < 0 {
		return &NegativeTimeoutError{Value: r.TimeoutSeconds}
	}
	return nil
}

// Timeout returns the effective timeout after defaulting and clamping.
func (r *ShellRequest) Timeout(cfg *config.Config) time.Duration {
	secs := r.TimeoutSeconds
	if secs == 0 {
		secs = cfg.Tools.DefaultShellTimeout
	}
	if secs > cfg.Tools.MaxShellTimeout {
		secs = cfg.Tools.MaxShellTimeout
	}
	return time.Duration(secs) * time.Second
}

// ShellResponse is the result of a local command execution. Output is the
// combined stdout and stderr block, already capped.
type ShellResponse struct {
	ExitCode   int
	Output     string
	WorkingDir string
	Truncated  bool
}

type shellResultJSON struct {
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output"`
}

// Render returns the exit code and combined output as an indented JSON
// object.
func (r *ShellResponse) Render() string {
	out, err := json.MarshalIndent(shellResultJSON{ExitCode: r.ExitCode, Output: r.Output}, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}
