package file

import (
	"context"
	"os"

	"github.com/vswrite/agentcore/internal/config"
)

// fileRemover defines the minimal filesystem operations needed for deletion.
type fileRemover interface {
	Stat(path string) (os.FileInfo, error)
	Remove(path string) error
}

// DeleteFileTool removes single files. It never touches directories.
type DeleteFileTool struct {
	fileOps  fileRemover
	resolver pathResolver
	locks    pathLocker
	config   *config.Config
}

// NewDeleteFileTool creates a new DeleteFileTool with injected dependencies.
func NewDeleteFileTool(
	fileOps fileRemover,
	resolver pathResolver,
	locks pathLocker,
	cfg *config.Config,
) *DeleteFileTool {
	return &DeleteFileTool{
		fileOps:  fileOps,
		resolver: resolver,
		locks:    locks,
		config:   cfg,
	}
}

// Run deletes a regular file inside the workspace. Directories are refused.
// Mutations of the same path are serialised.
//
// Note: ctx is accepted for API consistency but not used - file I/O is synchronous.
func (t *DeleteFileTool) Run(ctx context.Context, req *DeleteFileRequest) (*DeleteFileResponse, error) {
	if err := req.Validate(t.config); err != nil {
		return nil, err
	}

	abs, rel, err := t.resolver.Resolve(req.Path)
	if err != nil {
		return nil, err
	}

	info, err := t.fileOps.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileMissingError{Path: rel}
		}
		return nil, &StatError{Path: abs, Cause: err}
	}

	if info.IsDir() {
		return nil, &IsDirectoryError{Path: rel}
	}

	unlock := t.locks.Lock(abs)
	defer unlock()

	if err := t.fileOps.Remove(abs); err != nil {
		return nil, &DeleteError{Path: abs, Cause: err}
	}

	return &DeleteFileResponse{RelativePath: rel}, nil
}
