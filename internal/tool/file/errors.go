package file

import "fmt"

// FileMissingError is returned when the target file does not exist.
type FileMissingError struct {
	Path string
}

func (e *FileMissingError) Error() string {
	return "File not found: " + e.Path
}

func (e *FileMissingError) FileMissing() bool { return true }

// NotAFileError is returned when the target exists but is not a regular file.
type NotAFileError struct {
	Path string
}

func (e *NotAFileError) Error() string {
	return "Not a file: " + e.Path
}

func (e *NotAFileError) InvalidInput() bool { return true }

// IsDirectoryError is returned when a delete targets a directory.
type IsDirectoryError struct {
	Path string
}

func (e *IsDirectoryError) Error() string {
	return "Not a file (cannot delete directories): " + e.Path
}

func (e *IsDirectoryError) InvalidInput() bool { return true }

// BinaryFileError is returned when content is binary and the operation only
// handles text.
type BinaryFileError struct {
	Path string
}

func (e *BinaryFileError) Error() string {
	return "file is binary: " + e.Path
}

func (e *BinaryFileError) InvalidInput() bool { return true }

// TooLargeError is returned when a file exceeds the configured size limit.
type TooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("file too large: %s (size %d, limit %d)", e.Path, e.Size, e.Limit)
}

func (e *TooLargeError) InvalidInput() bool { return true }

// OffsetBeyondEndError is returned when the requested start line is past the
// end of the file.
type OffsetBeyondEndError struct {
	Offset     int
	TotalLines int
}

func (e *OffsetBeyondEndError) Error() string {
	return fmt.Sprintf("Offset %d is beyond file end (file has %d lines)", e.Offset, e.TotalLines)
}

func (e *OffsetBeyondEndError) InvalidInput() bool { return true }

// PathRequiredError is returned when the path argument is empty.
type PathRequiredError struct{}

func (e *PathRequiredError) Error() string { return "path is required" }

func (e *PathRequiredError) InvalidInput() bool { return true }

// NegativeValueError is returned when offset or limit is negative.
type NegativeValueError struct {
	Field string
	Value int
}

func (e *NegativeValueError) Error() string {
	return fmt.Sprintf("%s cannot be negative: %d", e.Field, e.Value)
}

func (e *NegativeValueError) InvalidInput() bool { return true }

// StatError is returned when stat fails for a reason other than absence.
type StatError struct {
	Path  string
	Cause error
}

func (e *StatError) Error() string {
	return fmt.Sprintf("failed to stat %s: %v", e.Path, e.Cause)
}
func (e *StatError) Unwrap() error { return e.Cause }
func (e *StatError) IOError() bool { return true }

// ReadError is returned when reading file content fails.
type ReadError struct {
	Path  string
	Cause error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Cause)
}
func (e *ReadError) Unwrap() error { return e.Cause }
func (e *ReadError) IOError() bool { return true }

// WriteError is returned when writing file content fails.
type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Cause)
}
func (e *WriteError) Unwrap() error { return e.Cause }
func (e *WriteError) IOError() bool { return true }

// AppendError is returned when appending to a file fails.
type AppendError struct {
	Path  string
	Cause error
}

func (e *AppendError) Error() string {
	return fmt.Sprintf("failed to append to %s: %v", e.Path, e.Cause)
}
func (e *AppendError) Unwrap() error { return e.Cause }
func (e *AppendError) IOError() bool { return true }

// DeleteError is returned when deleting a file fails.
type DeleteError struct {
	Path  string
	Cause error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("failed to delete %s: %v", e.Path, e.Cause)
}
func (e *DeleteError) Unwrap() error { return e.Cause }
func (e *DeleteError) IOError() bool { return true }

// EnsureDirsError is returned when parent directory creation fails.
type EnsureDirsError struct {
	Path  string
	Cause error
}

func (e *EnsureDirsError) Error() string {
	return fmt.Sprintf("failed to create directories %s: %v", e.Path, e.Cause)
}
func (e *EnsureDirsError) Unwrap() error { return e.Cause }
func (e *EnsureDirsError) IOError() bool { return true }
