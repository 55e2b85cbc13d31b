package model

// Risk is the static per-tool risk classification driving approval
// policy. It is derived from the tool's registration, never stored.
type Risk int

const (
	// RiskSafe covers read-only operations.
	RiskSafe Risk = iota
	// RiskWrite covers operations that modify workspace files.
	RiskWrite
	// RiskDangerous covers deletion and arbitrary command execution.
	RiskDangerous
)

func (r Risk) String() string {
	switch r {
	case RiskSafe:
		return "safe"
	case RiskWrite:
		return "write"
	case RiskDangerous:
		return "dangerous"
	default:
		return "unknown"
	}
}

// ParseRisk maps the wire form back to a Risk. Unknown strings map to
// RiskDangerous so a typo in an extension manifest can only make a
// tool harder to run, never easier.
func ParseRisk(s string) Risk {
	switch s {
	case "safe":
		return RiskSafe
	case "write":
		return RiskWrite
	default:
		return RiskDangerous
	}
}
