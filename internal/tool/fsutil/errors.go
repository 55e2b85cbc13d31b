package fsutil

import "fmt"

// InvalidOffsetError reports a negative read offset.
type InvalidOffsetError struct {
	Value int64
}

func (e *InvalidOffsetError) Error() string {
	return fmt.Sprintf("offset cannot be negative: %d", e.Value)
}

func (e *InvalidOffsetError) InvalidInput() bool { return true }
