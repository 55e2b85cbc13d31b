package shell

import "fmt"

// TimeoutError is returned when a shell command exceeds its timeout.
type TimeoutError struct {
	Seconds int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Command timed out after %d seconds", e.Seconds)
}

func (e *TimeoutError) Timeout() bool {
	return true
}

// CommandRequiredError is returned when a command is missing.
type CommandRequiredError struct{}

func (e *CommandRequiredError) Error() string {
	return "command cannot be empty"
}

func (e *CommandRequiredError) InvalidInput() bool {
	return true
}

// NegativeTimeoutError is returned when a timeout is negative.
type NegativeTimeoutError struct {
	Value int
}

func (e *NegativeTimeoutError) Error() string {
	return fmt.Sprintf("timeout cannot be negative: %d", e.Value)
}

func (e *NegativeTimeoutError) InvalidInput() bool {
	return true
}

// WorkingDirMissingError is returned when the requested working directory
// does not exist or is not a directory.
type WorkingDirMissingError struct {
	Path string
}

func (e *WorkingDirMissingError) Error() string {
	return "Working directory not found: " + e.Path
}

func (e *WorkingDirMissingError) FileMissing() bool {
	return true
}
