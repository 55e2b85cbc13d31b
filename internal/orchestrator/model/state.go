package model

import (
	"errors"
	"fmt"
)

// SessionState is the orchestrator loop's state machine position.
type SessionState string

const (
	StateIdle             SessionState = "idle"
	StateAwaitingProvider SessionState = "awaiting_provider"
	StateToolCallsPending SessionState = "tool_calls_pending"
	StateAwaitingApproval SessionState = "awaiting_approval"
	StateDispatching      SessionState = "dispatching"
	StateCompleted        SessionState = "completed"
	StateFailed           SessionState = "failed"
	StateCancelled        SessionState = "cancelled"
)

// ErrInvalidTransition is wrapped by every rejected state change.
var ErrInvalidTransition = errors.New("invalid session state transition")

// IsTerminal reports whether no further transitions are possible.
func (s SessionState) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// allowedTransitions encodes the loop:
// Idle -> AwaitingProvider -> {ToolCallsPending | Completed | Failed};
// ToolCallsPending -> AwaitingApproval* -> Dispatching -> AwaitingProvider.
// Cancellation is reachable from every non-terminal state.
var allowedTransitions = map[SessionState]map[SessionState]struct{}{
	StateIdle: {
		StateAwaitingProvider: {},
		StateCancelled:        {},
	},
	StateAwaitingProvider: {
		StateToolCallsPending: {},
		StateCompleted:        {},
		StateFailed:           {},
		StateCancelled:        {},
	},
	StateToolCallsPending: {
		StateAwaitingApproval: {},
		StateDispatching:      {},
		StateFailed:           {},
		StateCancelled:        {},
	},
	StateAwaitingApproval: {
		StateAwaitingApproval: {},
		StateDispatching:      {},
		StateCancelled:        {},
	},
	StateDispatching: {
		StateAwaitingProvider: {},
		StateFailed:           {},
		StateCancelled:        {},
	},
	StateCompleted: {},
	StateFailed:    {},
	StateCancelled: {},
}

// ValidateTransition reports whether from -> to is a legal move.
// Self-transitions outside AwaitingApproval are rejected; re-entering
// AwaitingApproval is legal because each suspended call in a batch
// waits in turn.
func ValidateTransition(from, to SessionState) error {
	allowed, ok := allowedTransitions[from]
	if !ok {
		return fmt.Errorf("%w: unknown source state %q", ErrInvalidTransition, from)
	}
	if _, ok := allowed[to]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
