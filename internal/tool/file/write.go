package file

import (
	"context"
	"os"
	"path/filepath"

	"github.com/vswrite/agentcore/internal/config"
)

// fileWriter defines the minimal filesystem operations needed for writing files.
type fileWriter interface {
	Stat(path string) (os.FileInfo, error)
	WriteFileAtomic(path string, content []byte, perm os.FileMode) error
	EnsureDirs(path string) error
}

// WriteFileTool creates or overwrites workspace files.
type WriteFileTool struct {
	fileOps        fileWriter
	binaryDetector binaryDetector
	resolver       pathResolver
	locks          pathLocker
	config         *config.Config
}

// NewWriteFileTool creates a new WriteFileTool with injected dependencies.
func NewWriteFileTool(
	fileOps fileWriter,
	binaryDetector binaryDetector,
	resolver pathResolver,
	locks pathLocker,
	cfg *config.Config,
) *WriteFileTool {
	return &WriteFileTool{
		fileOps:        fileOps,
		binaryDetector: binaryDetector,
		resolver:       resolver,
		locks:          locks,
		config:         cfg,
	}
}

// Run writes content to a file inside the workspace, creating parent
// directories as needed and replacing any existing file. The write is atomic
// (temp file + rename) and mutations of the same path are serialised.
//
// Note: ctx is accepted for API consistency but not used - file I/O is synchronous.
func (t *WriteFileTool) Run(ctx context.Context, req *WriteFileRequest) (*WriteFileResponse, error) {
	if err := req.Validate(t.config); err != nil {
		return nil, err
	}

	abs, rel, err := t.resolver.Resolve(req.Path)
	if err != nil {
		return nil, err
	}

	// Refuse to replace a directory.
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

	if err := t.fileOps.WriteFileAtomic(abs, contentBytes, 0o644); err != nil {
		return nil, &WriteError{Path: abs, Cause: err}
	}

	return &WriteFileResponse{
		RelativePath: rel,
		BytesWritten: len(contentBytes),
	}, nil
}
