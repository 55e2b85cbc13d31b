package adapter

import (
	"github.com/vswrite/agentcore/internal/config"
	orchmodel "github.com/vswrite/agentcore/internal/orchestrator/model"
	"github.com/vswrite/agentcore/internal/provider/model"
	"github.com/vswrite/agentcore/internal/tool/directory"
	"github.com/vswrite/agentcore/internal/tool/file"
	"github.com/vswrite/agentcore/internal/tool/fsutil"
	"github.com/vswrite/agentcore/internal/tool/gitutil"
	"github.com/vswrite/agentcore/internal/tool/pathutil"
	"github.com/vswrite/agentcore/internal/tool/search"
	"github.com/vswrite/agentcore/internal/tool/service/executor"
	"github.com/vswrite/agentcore/internal/tool/shell"
)

// This file defines the adapters for the builtin tools. Names, schemas,
// and risk tiers form the contract the model sees; changing them changes
// agent behavior.

// Builtins constructs the eight builtin tools against one workspace root
// and returns their adapters, ready for registration. The root is
// canonicalised here so every tool shares the same view of it.
func Builtins(workspaceRoot string, cfg *config.Config) ([]Tool, error) {
	root, err := pathutil.CanonicaliseRoot(workspaceRoot)
	if err != nil {
		return nil, err
	}

	fs := fsutil.NewOSFileSystem()
	detector := fsutil.NewSystemBinaryDetector(cfg.Tools.BinaryDetectionSampleSize)
	resolver := pathutil.NewResolver(root, fs)
	locks := pathutil.NewPathLocks()

	ignore, err := gitutil.NewIgnoreMatcher(root, fs)
	if err != nil {
		return nil, err
	}

	commandExecutor := executor.NewOSCommandExecutor(cfg, detector)

	return []Tool{
		NewReadFile(file.NewReadFileTool(fs, detector, resolver, cfg)),
		NewWriteFile(file.NewWriteFileTool(fs, detector, resolver, locks, cfg)),
		NewAppendFile(file.NewAppendFileTool(fs, detector, resolver, locks, cfg)),
		NewDeleteFile(file.NewDeleteFileTool(fs, resolver, locks, cfg)),
		NewListDir(directory.NewListDirTool(fs, resolver)),
		NewGlob(search.NewGlobTool(fs, resolver, cfg, root)),
		NewGrep(search.NewGrepTool(fs, ignore, detector, resolver, cfg, root)),
		NewRunShell(shell.NewShellTool(fs, commandExecutor, resolver, cfg)),
	}, nil
}

// NewReadFile creates a read_file adapter.
func NewReadFile(tool *file.ReadFileTool) Tool {
	return NewBaseAdapter(
		"read_file",
		"Read a file with optional line offset and limit.",
		&model.ParameterSchema{
			Type: "object",
			Properties: map[string]model.PropertySchema{
				"path": {
					Type:        "string",
					Description: "Path to the file (relative to workspace)",
				},
				"offset": {
					Type:        "integer",
					Description: "Line number to start reading from (1-based)",
				},
				"limit": {
					Type:        "integer",
					Description: "Maximum number of lines to read",
				},
			},
			Required: []string{"path"},
		},
		orchmodel.RiskSafe,
		tool.Run,
		nil,
	)
}

// NewWriteFile creates a write_file adapter.
func NewWriteFile(tool *file.WriteFileTool) Tool {
	return NewBaseAdapter(
		"write_file",
		"Write content to a file. Creates parent directories if needed.",
		&model.ParameterSchema{
			Type: "object",
			Properties: map[string]model.PropertySchema{
				"path": {
					Type:        "string",
					Description: "Path to write to (relative to workspace)",
				},
				"content": {
					Type:        "string",
					Description: "Content to write",
				},
			},
			Required: []string{"path", "content"},
		},
		orchmodel.RiskWrite,
		tool.Run,
		func(req *file.WriteFileRequest) []orchmodel.SideEffect {
			return []orchmodel.SideEffect{{Kind: "file_write", Target: req.Path}}
		},
	)
}

// NewAppendFile creates an append_file adapter.
func NewAppendFile(tool *file.AppendFileTool) Tool {
	return NewBaseAdapter(
		"append_file",
		"Append content to a file. Creates the file if it doesn't exist.",
		&model.ParameterSchema{
			Type: "object",
			Properties: map[string]model.PropertySchema{
				"path": {
					Type:        "string",
					Description: "Path to append to (relative to workspace)",
				},
				"content": {
					Type:        "string",
					Description: "Content to append",
				},
			},
			Required: []string{"path", "content"},
		},
		orchmodel.RiskWrite,
		tool.Run,
		func(req *file.AppendFileRequest) []orchmodel.SideEffect {
			return []orchmodel.SideEffect{{Kind: "file_append", Target: req.Path}}
		},
	)
}

// NewDeleteFile creates a delete_file adapter.
func NewDeleteFile(tool *file.DeleteFileTool) Tool {
	return NewBaseAdapter(
		"delete_file",
		"Delete a file. Does not delete directories.",
		&model.ParameterSchema{
			Type: "object",
			Properties: map[string]model.PropertySchema{
				"path": {
					Type:        "string",
					Description: "Path to the file to delete (relative to workspace)",
				},
			},
			Required: []string{"path"},
		},
		orchmodel.RiskDangerous,
		tool.Run,
		func(req *file.DeleteFileRequest) []orchmodel.SideEffect {
			return []orchmodel.SideEffect{{Kind: "file_delete", Target: req.Path}}
		},
	)
}

// NewListDir creates a list_dir adapter.
func NewListDir(tool *directory.ListDirTool) Tool {
	return NewBaseAdapter(
		"list_dir",
		"List files and directories at a path.",
		&model.ParameterSchema{
			Type: "object",
			Properties: map[string]model.PropertySchema{
				"path": {
					Type:        "string",
					Description: "Directory path (relative to workspace, defaults to '.')",
				},
			},
			Required: []string{},
		},
		orchmodel.RiskSafe,
		tool.Run,
		nil,
	)
}

// NewGlob creates a glob adapter.
func NewGlob(tool *search.GlobTool) Tool {
	return NewBaseAdapter(
		"glob",
		"Find files matching a glob pattern.",
		&model.ParameterSchema{
			Type: "object",
			Properties: map[string]model.PropertySchema{
				"pattern": {
					Type:        "string",
					Description: "Glob pattern (e.g., '**/*.md', '*.txt')",
				},
				"path": {
					Type:        "string",
					Description: "Base path to search from (relative to workspace)",
				},
			},
			Required: []string{"pattern"},
		},
		orchmodel.RiskSafe,
		tool.Run,
		nil,
	)
}

// NewGrep creates a grep adapter.
func NewGrep(tool *search.GrepTool) Tool {
	return NewBaseAdapter(
		"grep",
		"Search file contents for a pattern.",
		&model.ParameterSchema{
			Type: "object",
			Properties: map[string]model.PropertySchema{
				"pattern": {
					Type:        "string",
					Description: "Search pattern (substring match)",
				},
				"path": {
					Type:        "string",
					Description: "Path to search in (file or directory)",
				},
			},
			Required: []string{"pattern"},
		},
		orchmodel.RiskSafe,
		tool.Run,
		nil,
	)
}

// NewRunShell creates a run_shell adapter.
func NewRunShell(tool *shell.ShellTool) Tool {
	return NewBaseAdapter(
		"run_shell",
		"Execute a shell command inside the workspace.",
		&model.ParameterSchema{
			Type: "object",
			Properties: map[string]model.PropertySchema{
				"command": {
					Type:        "string",
					Description: "Shell command to execute",
				},
				"cwd": {
					Type:        "string",
					Description: "Working directory (relative to workspace)",
				},
				"timeout": {
					Type:        "integer",
					Description: "Timeout in seconds (max 60)",
				},
			},
			Required: []string{"command"},
		},
		orchmodel.RiskDangerous,
		tool.Run,
		func(req *shell.ShellRequest) []orchmodel.SideEffect {
			return []orchmodel.SideEffect{{Kind: "command", Target: req.Command}}
		},
	)
}
