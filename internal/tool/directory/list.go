package directory

import (
	"context"
	"os"
	"sort"
)

// ListDirTool lists the immediate contents of a workspace directory.
type ListDirTool struct {
	fs       fileSystem
	resolver pathResolver
}

// NewListDirTool creates a new ListDirTool with injected dependencies.
func NewListDirTool(fs fileSystem, resolver pathResolver) *ListDirTool {
	return &ListDirTool{fs: fs, resolver: resolver}
}

// Run lists a single directory level. Directories come first with a trailing
// slash, then files, each group sorted by name.
//
// Note: ctx is accepted for API consistency but not used - directory I/O is synchronous.
func (t *ListDirTool) Run(ctx context.Context, req *ListDirRequest) (*ListDirResponse, error) {
	path := req.Path
	if path == "" {
		path = "."
	}

	abs, rel, err := t.resolver.Resolve(path)
	if err != nil {
		return nil, err
	}

	info, err := t.fs.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &DirMissingError{Path: rel}
		}
		return nil, &ListError{Path: abs, Cause: err}
	}
	if !info.IsDir() {
		return nil, &NotADirectoryError{Path: rel}
	}

	entries, err := t.fs.ListDir(abs)
	if err != nil {
		return nil, &ListError{Path: abs, Cause: err}
	}

	var dirs, files []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name()+"/")
		} else {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)

	return &ListDirResponse{
		RelativePath: rel,
		Entries:      append(dirs, files...),
	}, nil
}
