package file

import (
	"context"
	"os"
	"path/filepath"

	"github.com/vswrite/agentcore/internal/config"
)

// fileAppender defines the minimal filesystem operations needed for appends.
type fileAppender interface {
	Stat(path string) (os.FileInfo, error)
	AppendFile(path string, content []byte, perm os.FileMode) error
	EnsureDirs(path string) error
}

// AppendFileTool appends content to workspace files, creating them if absent.
type AppendFileTool struct {
	fileOps        fileAppender
	binaryDetector binaryDetector
	resolver       pathResolver
	locks          pathLocker
	config         *config.Config
}

// NewAppendFileTool creates a new AppendFileTool with injected dependencies.
func NewAppendFileTool(
	fileOps fileAppender,
	binaryDetector binaryDetector,
	resolver pathResolver,
	locks pathLocker,
	cfg *config.Config,
) *AppendFileTool {
	return &AppendFileTool{
		fileOps:        fileOps,
		binaryDetector: binaryDetector,
		resolver:       resolver,
		locks:          locks,
		config:         cfg,
	}
}

// Run appends content to a file inside the workspace, creating it and any
// parent directories if needed. Mutations of the same path are serialised.
//
// Note: ctx is accepted for API consistency but not used - file I/O is synchronous.
func (t *AppendFileTool) Run(ctx context.Context, req *AppendFileRequest) (*AppendFileResponse, error) {
	if err := req.Validate(t.config); err != nil {
		return nil, err
	}

	abs, rel, err := t.resolver.Resolve(req.Path)
	if err != nil {
		return nil, err
	}

	if info, err := t.fileOps.Stat(abs); err == nil && info.IsDir() {
		return nil, &NotAFileError{Path: rel}
	}

	contentBytes := []byte(req.Content)

	if t.binaryDetector.IsBinaryContent(contentBytes) {
		return nil, &BinaryFileError{Path: rel}
	}

	unlock := t.locks.Lock(abs)
	defer unlock()

	parentDir := filepath.Dir(abs)
	if err := t.fileOps.EnsureDirs(parentDir); err != nil {
		return nil, &EnsureDirsError{Path: parentDir, Cause: err}
	}

	if err := t.fileOps.AppendFile(abs, contentBytes, 0o644); err != nil {
		return nil, &AppendError{Path: abs, Cause: err}
	}

	return &AppendFileResponse{
		RelativePath:  rel,
		BytesAppended: len(contentBytes),
	}, nil
}
