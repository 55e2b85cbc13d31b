package shell

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/vswrite/agentcore/internal/config"
	"github.com/vswrite/agentcore/internal/tool/service/executor"
)

// ShellTool executes commands on the local machine through `sh -c`.
type ShellTool struct {
	fs              fileSystem
	commandExecutor commandExecutor
	resolver        pathResolver
	config          *config.Config
}

// NewShellTool creates a new ShellTool with injected dependencies.
func NewShellTool(fs fileSystem, commandExecutor commandExecutor, resolver pathResolver, cfg *config.Config) *ShellTool {
	if fs == nil {
		panic("fs is required")
	}
	if commandExecutor == nil {
		panic("commandExecutor is required")
	}
	if resolver == nil {
		panic("resolver is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	return &ShellTool{
		fs:              fs,
		commandExecutor: commandExecutor,
		resolver:        resolver,
		config:          cfg,
	}
}

// Run executes a shell command with timeout handling and output collection.
// NOTE: This tool does NOT enforce policy - the caller is responsible for policy checks.
func (t *ShellTool) Run(ctx context.Context, req *ShellRequest) (*ShellResponse, error) {
	if err := req.Validate(t.config); err != nil {
		return nil, err
	}

	workingDir := req.WorkingDir
	if workingDir == "" {
		workingDir = "."
	}

	wdAbs, wdRel, err := t.resolver.Resolve(workingDir)
	if err != nil {
		return nil, err
	}

	info, err := t.fs.Stat(wdAbs)
	if err != nil {
		return nil, &WorkingDirMissingError{Path: wdRel}
	}
	if !info.IsDir() {
		return nil, &WorkingDirMissingError{Path: wdRel}
	}

	timeout := req.Timeout(t.config)

	result, execErr := t.commandExecutor.RunWithTimeout(ctx, []string{"sh", "-c", req.Command}, wdAbs, os.Environ(), timeout)
	if execErr != nil {
		if errors.Is(execErr, executor.ErrTimeout) {
			return nil, &TimeoutError{Seconds: int(timeout.Seconds())}
		}
		if errors.Is(execErr, context.Canceled) || errors.Is(execErr, context.DeadlineExceeded) {
			return nil, execErr
		}
		if result == nil {
			// The command never started.
			return nil, execErr
		}
		// Command ran but exited non-zero; the exit code tells the story.
	}

	output := result.Stdout
	if stderrText := strings.TrimSuffix(result.Stderr, "\n"); stderrText != "" {
		output += "\n--- stderr ---\n" + stderrText
	}

	truncated := result.Truncated
	maxOutput := int(t.config.Tools.MaxCommandOutput)
	if len(output) > maxOutput {
		output = output[:maxOutput] + "...[truncated]"
		truncated = true
	}

	return &ShellResponse{
		ExitCode:   result.ExitCode,
		Output:     output,
		WorkingDir: wdRel,
		Truncated:  truncated,
	}, nil
}
