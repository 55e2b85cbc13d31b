package extension

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/vswrite/agentcore/internal/entity"
	"github.com/vswrite/agentcore/internal/extension/host"
	orchmodel "github.com/vswrite/agentcore/internal/orchestrator/model"
	"github.com/vswrite/agentcore/internal/permission"
	"github.com/vswrite/agentcore/internal/provider/model"
	"github.com/vswrite/agentcore/internal/registry"
)

// HooksFileName is the script holding lifecycle hook functions.
const HooksFileName = "hooks.star"

// maxScriptBytes bounds any single extension script read at load time.
const maxScriptBytes = 1 << 20

// LoadedExtension is one running extension: its manifest snapshot, the
// trust tier computed at load time, the sandbox host, and the
// qualified names its tools were registered under.
type LoadedExtension struct {
	Manifest     *Manifest
	Verification Verification
	Host         *host.Host
	ToolNames    []string
	Dir          string
}

// Tier is the extension's trust tier as verified at load time.
func (le *LoadedExtension) Tier() Tier {
	return le.Verification.Tier
}

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	// Dir is the extensions root; each extension lives in Dir/<id>/.
	Dir      string
	Verifier *Verifier
	Registry *registry.Registry
	Entities *entity.Store

	CallTimeout time.Duration
	HookTimeout time.Duration

	Logger *slog.Logger
}

// Manager owns the loaded-extension table. Load and unload hold the
// manager lock for their full duration, so a dispatch can never
// observe an extension half-registered.
type Manager struct {
	cfg ManagerConfig

	mu     sync.Mutex
	loaded map[string]*LoadedExtension
}

// NewManager creates a manager with nothing loaded.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{cfg: cfg, loaded: make(map[string]*LoadedExtension)}
}

// Load reads, verifies and activates the extension in Dir/<id>. An
// Invalid signature or a malformed manifest means nothing is loaded at
// all: no scripts execute, no tools register.
func (m *Manager) Load(ctx context.Context, id string) (*LoadedExtension, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.loaded[id]; ok {
		return nil, fmt.Errorf("extension %q is already loaded", id)
	}

	dir := filepath.Join(m.cfg.Dir, id)
	manifest, verification, err := m.verifyDir(dir)
	if err != nil {
		return nil, err
	}
	if manifest.ID != id {
		return nil, &MalformedError{Reason: fmt.Sprintf("manifest id %q does not match directory %q", manifest.ID, id)}
	}
	if verification.Tier == TierInvalid {
		return nil, &SignatureInvalidError{ExtensionID: id, Detail: verification.Detail}
	}

	scripts, hooksScript, err := readScripts(dir, manifest)
	if err != nil {
		return nil, err
	}

	h := host.New(host.Config{
		ExtensionID: id,
		Scripts:     scripts,
		HooksScript: hooksScript,
		CallTimeout: m.cfg.CallTimeout,
		HookTimeout: m.cfg.HookTimeout,
		Perms:       m.livePermissions(dir),
		Registry:    m.cfg.Registry,
		Entities:    m.cfg.Entities,
		Logger:      m.cfg.Logger,
	})

	le := &LoadedExtension{
		Manifest:     manifest,
		Verification: verification,
		Host:         h,
		Dir:          dir,
	}

	for i := range manifest.Tools {
		decl := manifest.Tools[i]
		tool := newScriptTool(id, decl, h)
		recheck := m.liveToolCheck(dir)
		if err := m.cfg.Registry.RegisterExtension(id, tool, recheck); err != nil {
			// Roll back what this load registered; the invariant is
			// all-or-nothing activation.
			m.cfg.Registry.Unregister(le.ToolNames...)
			h.Close()
			return nil, err
		}
		le.ToolNames = append(le.ToolNames, tool.Name())
	}

	m.loaded[id] = le
	m.cfg.Logger.Info("extension loaded",
		"extension", id, "version", manifest.Version,
		"tier", verification.Tier, "tools", len(le.ToolNames))

	if manifest.HasHook("on_activate") {
		m.fireHookLocked(ctx, le, "on_activate", nil)
	}
	return le, nil
}

// Unload deactivates one extension: best-effort on_deactivate, host
// shutdown, then atomic tool deregistration. Unloading something that
// is not loaded is a no-op.
func (m *Manager) Unload(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	le, ok := m.loaded[id]
	if !ok {
		return nil
	}

	if le.Manifest.HasHook("on_deactivate") {
		m.fireHookLocked(ctx, le, "on_deactivate", nil)
	}

	m.cfg.Registry.Unregister(le.ToolNames...)
	le.Host.Close()
	delete(m.loaded, id)
	m.cfg.Logger.Info("extension unloaded", "extension", id)
	return nil
}

// LoadAll scans the extensions directory and loads every extension
// that passes verification. One bad extension never blocks the rest.
func (m *Manager) LoadAll(ctx context.Context) []*LoadedExtension {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		if !os.IsNotExist(err) {
			m.cfg.Logger.Warn("cannot read extensions directory", "dir", m.cfg.Dir, "error", err)
		}
		return nil
	}

	var out []*LoadedExtension
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		le, err := m.Load(ctx, e.Name())
		if err != nil {
			m.cfg.Logger.Warn("extension skipped", "extension", e.Name(), "error", err)
			continue
		}
		out = append(out, le)
	}
	return out
}

// List returns the loaded extensions sorted by id.
func (m *Manager) List() []*LoadedExtension {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*LoadedExtension, 0, len(m.loaded))
	for _, le := range m.loaded {
		out = append(out, le)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Manifest.ID < out[j].Manifest.ID })
	return out
}

// Get returns one loaded extension.
func (m *Manager) Get(id string) (*LoadedExtension, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	le, ok := m.loaded[id]
	return le, ok
}

// FireHook runs one lifecycle hook on every loaded extension that
// declares it. Failures are logged and returned in the result map;
// they never abort the triggering event.
func (m *Manager) FireHook(ctx context.Context, hook string, args map[string]any) map[string]host.HookResult {
	m.mu.Lock()
	targets := make([]*LoadedExtension, 0, len(m.loaded))
	for _, le := range m.loaded {
		if le.Manifest.HasHook(hook) {
			targets = append(targets, le)
		}
	}
	m.mu.Unlock()

	results := make(map[string]host.HookResult, len(targets))
	for _, le := range targets {
		res := le.Host.CallHook(ctx, hook, args)
		if !res.Success {
			m.cfg.Logger.Warn("lifecycle hook failed",
				"extension", le.Manifest.ID, "hook", hook, "error", res.Error)
		}
		results[le.Manifest.ID] = res
	}
	return results
}

func (m *Manager) fireHookLocked(ctx context.Context, le *LoadedExtension, hook string, args map[string]any) {
	res := le.Host.CallHook(ctx, hook, args)
	if !res.Success {
		m.cfg.Logger.Warn("lifecycle hook failed",
			"extension", le.Manifest.ID, "hook", hook, "error", res.Error)
	}
}

// VerifyDir parses and verifies the manifest in an extension directory
// without loading anything. Used by the doctor and `ext verify`.
func (m *Manager) VerifyDir(dir string) (*Manifest, Verification, error) {
	return m.verifyDir(dir)
}

func (m *Manager) verifyDir(dir string) (*Manifest, Verification, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return nil, Verification{}, fmt.Errorf("reading manifest: %w", err)
	}
	manifest, err := ParseManifest(raw)
	if err != nil {
		return nil, Verification{}, err
	}
	verification, err := m.cfg.Verifier.Verify(raw)
	if err != nil {
		return nil, Verification{}, err
	}
	return manifest, verification, nil
}

// livePermissions returns a view that re-reads the manifest from disk,
// so editing the manifest revokes a grant without a reload. A manifest
// that no longer parses grants nothing.
func (m *Manager) livePermissions(dir string) func() permission.Set {
	return func() permission.Set {
		raw, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
		if err != nil {
			return permission.Set{}
		}
		manifest, err := ParseManifest(raw)
		if err != nil {
			return permission.Set{}
		}
		return manifest.PermissionSet()
	}
}

// liveToolCheck is the registry recheck: the dispatched tool must
// still be declared by the manifest on disk at call time.
func (m *Manager) liveToolCheck(dir string) registry.RecheckFunc {
	return func(qualifiedName string) error {
		raw, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
		if err != nil {
			return &permission.DeniedError{Capability: permission.Tool(qualifiedName)}
		}
		manifest, err := ParseManifest(raw)
		if err != nil {
			return &permission.DeniedError{Capability: permission.Tool(qualifiedName)}
		}
		for _, t := range manifest.Tools {
			if QualifiedToolName(manifest.ID, t.Name) == qualifiedName {
				return nil
			}
		}
		return &permission.DeniedError{Capability: permission.Tool(qualifiedName)}
	}
}

func readScripts(dir string, manifest *Manifest) (map[string]string, string, error) {
	scripts := make(map[string]string)
	for _, t := range manifest.Tools {
		if _, ok := scripts[t.Script]; ok {
			continue
		}
		src, err := readScript(filepath.Join(dir, t.Script))
		if err != nil {
			return nil, "", fmt.Errorf("tool %q: %w", t.Name, err)
		}
		scripts[t.Script] = src
	}

	var hooksScript string
	if manifest.Lifecycle != nil && len(manifest.Lifecycle.Hooks) > 0 {
		src, err := readScript(filepath.Join(dir, HooksFileName))
		if err != nil {
			return nil, "", fmt.Errorf("lifecycle hooks: %w", err)
		}
		hooksScript = src
	}
	return scripts, hooksScript, nil
}

func readScript(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > maxScriptBytes {
		return "", fmt.Errorf("script %s exceeds %d bytes", filepath.Base(path), maxScriptBytes)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// scriptTool adapts one manifest tool declaration to the registry's
// tool interface; execution goes through the sandbox host.
type scriptTool struct {
	qualified string
	decl      ToolDecl
	host      *host.Host
	risk      orchmodel.Risk
}

func newScriptTool(extensionID string, decl ToolDecl, h *host.Host) *scriptTool {
	return &scriptTool{
		qualified: QualifiedToolName(extensionID, decl.Name),
		decl:      decl,
		host:      h,
		risk:      orchmodel.ParseRisk(decl.Risk),
	}
}

func (t *scriptTool) Name() string        { return t.qualified }
func (t *scriptTool) Description() string { return t.decl.Description }

func (t *scriptTool) Definition() model.ToolDefinition {
	return model.ToolDefinition{
		Name:        t.qualified,
		Description: t.decl.Description,
		Parameters:  t.decl.Parameters,
	}
}

func (t *scriptTool) Risk() orchmodel.Risk { return t.risk }

func (t *scriptTool) Execute(ctx context.Context, args map[string]any) (string, []orchmodel.SideEffect, error) {
	function := t.decl.Function
	if function == "" {
		function = t.decl.Name
	}
	out, err := t.host.CallTool(ctx, t.decl.Script, function, args)
	if err != nil {
		return "", nil, err
	}
	return out, nil, nil
}
