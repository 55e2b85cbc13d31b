package directory

import "os"

// pathResolver resolves a caller-supplied path into workspace-anchored
// absolute and relative forms.
type pathResolver interface {
	Resolve(path string) (abs string, rel string, err error)
}

// fileSystem defines the filesystem operations needed for listing.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ListDir(path string) ([]os.FileInfo, error)
}
