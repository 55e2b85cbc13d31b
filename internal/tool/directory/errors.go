package directory

import "fmt"

// DirMissingError is returned when the target directory does not exist.
type DirMissingError struct {
	Path string
}

func (e *DirMissingError) Error() string {
	return "Directory not found: " + e.Path
}

func (e *DirMissingError) FileMissing() bool { return true }

// NotADirectoryError is returned when the target exists but is not a directory.
type NotADirectoryError struct {
	Path string
}

func (e *NotADirectoryError) Error() string {
	return "Not a directory: " + e.Path
}

func (e *NotADirectoryError) InvalidInput() bool { return true }

// ListError is returned when reading the directory fails.
type ListError struct {
	Path  string
	Cause error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("failed to read directory %s: %v", e.Path, e.Cause)
}
func (e *ListError) Unwrap() error { return e.Cause }
func (e *ListError) IOError() bool { return true }
