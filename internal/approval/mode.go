// Package approval classifies tool calls by risk and, depending on the
// configured mode, suspends execution until a human responds.
package approval

import (
	"fmt"

	"github.com/vswrite/agentcore/internal/orchestrator/model"
)

// Mode is the configured approval policy for a session.
type Mode string

const (
	// ModeAutoApprove dispatches everything without asking.
	ModeAutoApprove Mode = "auto_approve"
	// ModeApproveWrites suspends on Write and Dangerous calls.
	ModeApproveWrites Mode = "approve_writes"
	// ModeApproveDangerous suspends only on Dangerous calls. This is
	// the recommended default.
	ModeApproveDangerous Mode = "approve_dangerous"
	// ModeApproveAll suspends on every call regardless of risk.
	ModeApproveAll Mode = "approve_all"
	// ModeDryRun never dispatches; every call returns a synthetic
	// "not executed" result.
	ModeDryRun Mode = "dry_run"
)

// ParseMode validates a configured mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAutoApprove, ModeApproveWrites, ModeApproveDangerous, ModeApproveAll, ModeDryRun:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown approval mode %q", s)
	}
}

// Suspends reports whether a call at the given risk tier requires a
// human response before dispatch under this mode.
func (m Mode) Suspends(risk model.Risk) bool {
	switch m {
	case ModeAutoApprove, ModeDryRun:
		return false
	case ModeApproveWrites:
		return risk >= model.RiskWrite
	case ModeApproveDangerous:
		return risk >= model.RiskDangerous
	case ModeApproveAll:
		return true
	default:
		return true
	}
}
