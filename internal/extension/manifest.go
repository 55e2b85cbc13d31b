// Package extension loads, verifies and manages third-party script
// extensions: manifest parsing, signature verification against the
// trusted-publisher registry, sandbox host boot, and registration of
// extension tools into the tool registry.
package extension

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/vswrite/agentcore/internal/permission"
	"github.com/vswrite/agentcore/internal/provider/model"
)

// ManifestFileName is the manifest file inside an extension directory.
const ManifestFileName = "manifest.json"

var (
	idPattern       = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	toolNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	versionPattern  = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

// maxIDLength bounds extension ids; ids become directory names, so
// the charset and length checks also close path traversal.
const maxIDLength = 64

// Manifest is the parsed manifest.json of one extension. The optional
// signature block (Signature, SignatureAlgorithm, PublisherID,
// PublicKey) is stripped before canonicalization for verification.
type Manifest struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Version     string           `json:"version"`
	Description string           `json:"description,omitempty"`
	Permissions PermissionsDecl  `json:"permissions"`
	Tools       []ToolDecl       `json:"tools"`
	Lifecycle   *LifecycleDecl   `json:"lifecycle,omitempty"`

	Signature          string `json:"signature,omitempty"`
	SignatureAlgorithm string `json:"signatureAlgorithm,omitempty"`
	PublisherID        string `json:"publisherId,omitempty"`
	PublicKey          string `json:"publicKey,omitempty"`
}

// PermissionsDecl is the manifest wire form of the permission set.
type PermissionsDecl struct {
	ToolNames       []string     `json:"tools"`
	FilesystemScope string       `json:"filesystemScope,omitempty"`
	Entities        EntitiesDecl `json:"entities"`
	Settings        bool         `json:"settings,omitempty"`
	Network         bool         `json:"network,omitempty"`
}

// EntitiesDecl declares entity-API access flags.
type EntitiesDecl struct {
	Read  bool `json:"read,omitempty"`
	Write bool `json:"write,omitempty"`
	Tag   bool `json:"tag,omitempty"`
}

// ToolDecl declares one tool an extension contributes.
type ToolDecl struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Script      string                 `json:"script"`
	Function    string                 `json:"function,omitempty"`
	Parameters  *model.ParameterSchema `json:"parameters,omitempty"`
	Risk        string                 `json:"risk,omitempty"`
}

// LifecycleDecl lists the lifecycle hooks the extension implements in
// its hooks script.
type LifecycleDecl struct {
	Hooks []string `json:"hooks"`
}

// MalformedError reports a manifest that fails strict parsing or
// schema validation. The extension is not loaded at all.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed manifest: " + e.Reason
}

func (e *MalformedError) InvalidInput() bool { return true }

// hookNames is the closed set of lifecycle hooks the host fires.
var hookNames = map[string]bool{
	"on_activate":      true,
	"on_deactivate":    true,
	"on_project_open":  true,
	"on_project_close": true,
	"on_section_save":  true,
	"on_entity_change": true,
}

// ParseManifest parses manifest bytes in strict mode: unknown
// top-level fields are rejected, and all structural rules (id charset,
// strict semver, snake_case tool names, known hooks) are enforced
// before anything is loaded.
func ParseManifest(raw []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, &MalformedError{Reason: err.Error()}
	}
	if dec.More() {
		return nil, &MalformedError{Reason: "trailing data after manifest document"}
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.ID == "" {
		return &MalformedError{Reason: "id is required"}
	}
	if len(m.ID) > maxIDLength {
		return &MalformedError{Reason: fmt.Sprintf("id exceeds %d characters", maxIDLength)}
	}
	if !idPattern.MatchString(m.ID) {
		return &MalformedError{Reason: fmt.Sprintf("id %q must be lowercase alphanumeric with hyphens", m.ID)}
	}
	if m.Name == "" {
		return &MalformedError{Reason: "name is required"}
	}
	if !versionPattern.MatchString(m.Version) || !semver.IsValid("v"+m.Version) {
		return &MalformedError{Reason: fmt.Sprintf("version %q must be strict major.minor.patch", m.Version)}
	}
	if _, err := permission.ParseScope(m.Permissions.FilesystemScope); err != nil {
		return &MalformedError{Reason: err.Error()}
	}

	seen := make(map[string]bool, len(m.Tools))
	for i := range m.Tools {
		t := &m.Tools[i]
		if !toolNamePattern.MatchString(t.Name) {
			return &MalformedError{Reason: fmt.Sprintf("tool name %q must be lowercase snake_case", t.Name)}
		}
		if seen[t.Name] {
			return &MalformedError{Reason: fmt.Sprintf("duplicate tool name %q", t.Name)}
		}
		seen[t.Name] = true
		if t.Description == "" {
			return &MalformedError{Reason: fmt.Sprintf("tool %q is missing a description", t.Name)}
		}
		if t.Script == "" {
			return &MalformedError{Reason: fmt.Sprintf("tool %q is missing a script reference", t.Name)}
		}
		if strings.Contains(t.Script, "..") || strings.HasPrefix(t.Script, "/") {
			return &MalformedError{Reason: fmt.Sprintf("tool %q script path must stay inside the extension directory", t.Name)}
		}
		if t.Risk != "" && t.Risk != "safe" && t.Risk != "write" && t.Risk != "dangerous" {
			return &MalformedError{Reason: fmt.Sprintf("tool %q has unknown risk %q", t.Name, t.Risk)}
		}
	}

	if m.Lifecycle != nil {
		for _, h := range m.Lifecycle.Hooks {
			if !hookNames[h] {
				return &MalformedError{Reason: fmt.Sprintf("unknown lifecycle hook %q", h)}
			}
		}
	}

	if m.Signature != "" && m.SignatureAlgorithm != "" && m.SignatureAlgorithm != "ed25519" {
		return &MalformedError{Reason: fmt.Sprintf("unsupported signature algorithm %q", m.SignatureAlgorithm)}
	}

	return nil
}

// PermissionSet converts the declared permissions to the evaluator's
// shape. Validation already guaranteed the scope parses.
func (m *Manifest) PermissionSet() permission.Set {
	scope, _ := permission.ParseScope(m.Permissions.FilesystemScope)
	return permission.Set{
		Tools:           m.Permissions.ToolNames,
		FilesystemScope: scope,
		EntityRead:      m.Permissions.Entities.Read,
		EntityWrite:     m.Permissions.Entities.Write,
		EntityTag:       m.Permissions.Entities.Tag,
		Settings:        m.Permissions.Settings,
		Network:         m.Permissions.Network,
	}
}

// HasHook reports whether the manifest declares the given lifecycle
// hook.
func (m *Manifest) HasHook(name string) bool {
	if m.Lifecycle == nil {
		return false
	}
	return slices.Contains(m.Lifecycle.Hooks, name)
}

// QualifiedToolName namespaces an extension tool so it can never
// shadow a built-in.
func QualifiedToolName(extensionID, tool string) string {
	return extensionID + ":" + tool
}
