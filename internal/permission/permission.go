// Package permission evaluates extension capability requests against
// the permission set declared in the extension's manifest. Evaluation
// is a pure function over two closed data shapes, so it is trivially
// safe under concurrency and deterministic regardless of call order.
package permission

import (
	"errors"
	"fmt"
	"slices"
)

// Scope is a filesystem access tier. Tiers are strictly ordered:
// none < project < workspace < system.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeProject
	ScopeWorkspace
	ScopeSystem
)

func (s Scope) String() string {
	switch s {
	case ScopeNone:
		return "none"
	case ScopeProject:
		return "project"
	case ScopeWorkspace:
		return "workspace"
	case ScopeSystem:
		return "system"
	default:
		return "unknown"
	}
}

// ParseScope maps the manifest wire form to a Scope. An empty string
// means no filesystem access was declared.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "none":
		return ScopeNone, nil
	case "project":
		return ScopeProject, nil
	case "workspace":
		return ScopeWorkspace, nil
	case "system":
		return ScopeSystem, nil
	default:
		return ScopeNone, fmt.Errorf("unknown filesystem scope %q", s)
	}
}

// Set is the full grant an extension declared in its manifest.
// Network is declarative only: it is surfaced to the user at install
// time but not enforced at this layer.
type Set struct {
	Tools           []string
	FilesystemScope Scope
	EntityRead      bool
	EntityWrite     bool
	EntityTag       bool
	Settings        bool
	Network         bool
}

// CapabilityKind tags the capability union.
type CapabilityKind int

const (
	KindTool CapabilityKind = iota
	KindFilesystem
	KindEntityRead
	KindEntityWrite
	KindEntityTag
	KindSettings
)

// Capability is one requested right: a named built-in tool, a
// filesystem scope tier, an entity-API operation class, or settings
// access.
type Capability struct {
	Kind  CapabilityKind
	Tool  string // for KindTool
	Scope Scope  // for KindFilesystem
}

// Tool requests permission to invoke the named built-in tool.
func Tool(name string) Capability {
	return Capability{Kind: KindTool, Tool: name}
}

// Filesystem requests access at the given scope tier.
func Filesystem(scope Scope) Capability {
	return Capability{Kind: KindFilesystem, Scope: scope}
}

// EntityRead requests read access to the entity API.
func EntityRead() Capability { return Capability{Kind: KindEntityRead} }

// EntityWrite requests write access to the entity API.
func EntityWrite() Capability { return Capability{Kind: KindEntityWrite} }

// EntityTag requests tag access to the entity API.
func EntityTag() Capability { return Capability{Kind: KindEntityTag} }

// Settings requests access to application settings.
func Settings() Capability { return Capability{Kind: KindSettings} }

// describe renders the grant a denied capability was missing, for the
// user-facing denial message.
func (c Capability) describe() string {
	switch c.Kind {
	case KindTool:
		return fmt.Sprintf("tool %q", c.Tool)
	case KindFilesystem:
		return fmt.Sprintf("filesystem scope %q", c.Scope)
	case KindEntityRead:
		return "entity read access"
	case KindEntityWrite:
		return "entity write access"
	case KindEntityTag:
		return "entity tag access"
	case KindSettings:
		return "settings access"
	default:
		return "unknown capability"
	}
}

// DeniedError reports a capability the extension's manifest does not
// grant. The message names the missing grant so the user can decide
// whether to add it; it is guidance, not just an error code.
type DeniedError struct {
	Capability Capability
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("permission denied: manifest does not grant %s", e.Capability.describe())
}

// Denied marks this error as a permission denial for callers that
// branch on behavior rather than type.
func (e *DeniedError) Denied() bool { return true }

// Allows reports whether set grants capability. Pure and stateless.
func Allows(set Set, capability Capability) bool {
	switch capability.Kind {
	case KindTool:
		return slices.Contains(set.Tools, capability.Tool)
	case KindFilesystem:
		if capability.Scope == ScopeNone {
			return true
		}
		return set.FilesystemScope >= capability.Scope
	case KindEntityRead:
		return set.EntityRead
	case KindEntityWrite:
		return set.EntityWrite
	case KindEntityTag:
		return set.EntityTag
	case KindSettings:
		return set.Settings
	default:
		return false
	}
}

// Check is Allows with a descriptive denial.
func Check(set Set, capability Capability) error {
	if !Allows(set, capability) {
		return &DeniedError{Capability: capability}
	}
	return nil
}

// IsDenied reports whether err carries permission-denial behavior.
func IsDenied(err error) bool {
	var d interface{ Denied() bool }
	return errors.As(err, &d) && d.Denied()
}
