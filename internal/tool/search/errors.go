package search

import "fmt"

// PathMissingError is returned when the search target does not exist.
type PathMissingError struct {
	Path string
}

func (e *PathMissingError) Error() string {
	return "Path not found: " + e.Path
}

func (e *PathMissingError) FileMissing() bool { return true }

// PatternRequiredError is returned when the pattern argument is empty.
type PatternRequiredError struct{}

func (e *PatternRequiredError) Error() string { return "pattern is required" }

func (e *PatternRequiredError) InvalidInput() bool { return true }

// InvalidPatternError is returned when a glob pattern cannot be parsed.
type InvalidPatternError struct {
	Pattern string
	Cause   error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("Invalid glob pattern: %s: %v", e.Pattern, e.Cause)
}
func (e *InvalidPatternError) Unwrap() error      { return e.Cause }
func (e *InvalidPatternError) InvalidInput() bool { return true }

// StatError is returned when stat fails for a reason other than absence.
type StatError struct {
	Path  string
	Cause error
}

func (e *StatError) Error() string {
	return fmt.Sprintf("failed to stat search path %s: %v", e.Path, e.Cause)
}
func (e *StatError) Unwrap() error { return e.Cause }
func (e *StatError) IOError() bool { return true }

// WalkError is returned when traversal fails in a way that cannot be skipped.
type WalkError struct {
	Path  string
	Cause error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("failed to traverse %s: %v", e.Path, e.Cause)
}
func (e *WalkError) Unwrap() error { return e.Cause }
func (e *WalkError) IOError() bool { return true }
