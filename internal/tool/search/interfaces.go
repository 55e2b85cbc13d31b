package search

import "os"

// pathResolver resolves a caller-supplied path into workspace-anchored
// absolute and relative forms.
type pathResolver interface {
	Resolve(path string) (abs string, rel string, err error)
}

// fileSystem defines the minimal filesystem interface needed by search tools.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ListDir(path string) ([]os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}

// ignoreMatcher filters workspace-relative paths through .gitignore rules.
type ignoreMatcher interface {
	ShouldIgnore(relativePath string, isDir bool) bool
}

// binaryDetector reports whether content looks like binary data.
type binaryDetector interface {
	IsBinaryContent(content []byte) bool
}
