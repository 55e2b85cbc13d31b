// Package registry maps tool names to executable handlers: the eight
// built-ins plus any tools contributed by loaded extensions. Dispatch
// validates arguments against the tool's declared schema, re-checks
// extension permissions per call, and caps result size before the
// output is fed back to the provider.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vswrite/agentcore/internal/orchestrator/adapter"
	orchmodel "github.com/vswrite/agentcore/internal/orchestrator/model"
	"github.com/vswrite/agentcore/internal/provider/model"
	"github.com/vswrite/agentcore/internal/tool/pathutil"
)

// TruncationMarker terminates any tool output clipped to the result
// size cap.
const TruncationMarker = "\n[output truncated]"

// RecheckFunc re-evaluates an extension's permission to run its tool.
// It is called on every dispatch, never cached, so revoking a grant in
// the manifest takes effect on the next call.
type RecheckFunc func(toolName string) error

// DuplicateToolError is returned when registering a name that is
// already taken.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

type entry struct {
	tool    adapter.Tool
	origin  string // extension id, empty for built-ins
	recheck RecheckFunc
}

// Registry is the name -> handler table. Reads (dispatch, definitions)
// vastly outnumber writes (extension load/unload), hence the RWMutex.
type Registry struct {
	mu             sync.RWMutex
	tools          map[string]*entry
	maxResultBytes int
	logger         *slog.Logger
}

// New creates an empty registry. maxResultBytes caps any single tool
// result fed back to the provider; zero disables the cap.
func New(maxResultBytes int, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:          make(map[string]*entry),
		maxResultBytes: maxResultBytes,
		logger:         logger,
	}
}

// Register adds a built-in tool.
func (r *Registry) Register(t adapter.Tool) error {
	return r.register(t, "", nil)
}

// RegisterExtension adds a tool contributed by an extension. The
// recheck function is consulted immediately before every execution.
func (r *Registry) RegisterExtension(extensionID string, t adapter.Tool, recheck RecheckFunc) error {
	return r.register(t, extensionID, recheck)
}

func (r *Registry) register(t adapter.Tool, origin string, recheck RecheckFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return &DuplicateToolError{Name: name}
	}
	r.tools[name] = &entry{tool: t, origin: origin, recheck: recheck}
	return nil
}

// Unregister removes the named tools under one lock acquisition, so an
// extension's tool set disappears atomically: no dispatch can observe
// a partially unloaded extension.
func (r *Registry) Unregister(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		delete(r.tools, name)
	}
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinNames returns the names of the built-in tools, sorted.
// Extension-contributed tools are excluded; their dispatch routes
// through a sandbox host, so they must never appear in a sandbox
// capability table.
func (r *Registry) BuiltinNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name, e := range r.tools {
		if e.origin == "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Risk reports the named tool's static risk classification.
func (r *Registry) Risk(name string) (orchmodel.Risk, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tools[name]
	if !ok {
		return orchmodel.RiskSafe, false
	}
	return e.tool.Risk(), true
}

// Definitions returns every registered tool's provider-facing
// definition, sorted by name for a stable prompt.
func (r *Registry) Definitions() []model.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]model.ToolDefinition, 0, len(r.tools))
	for _, e := range r.tools {
		defs = append(defs, e.tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Dispatch executes one approved tool call and always returns a
// result: failures surface as structured tool errors rather than
// unwinding the caller, so a single failing tool never corrupts the
// session.
func (r *Registry) Dispatch(ctx context.Context, req orchmodel.ToolCallRequest) orchmodel.ToolResult {
	start := time.Now()

	r.mu.RLock()
	e, ok := r.tools[req.Name]
	r.mu.RUnlock()

	if !ok {
		// The orchestrator filters unknown names before the approval
		// gate, so reaching this point is a programming error, not a
		// provider mistake.
		r.logger.Error("dispatch for unregistered tool", "tool", req.Name, "call_id", req.CallID)
		return r.failure(req, start, fmt.Sprintf("no handler registered for tool %q", req.Name))
	}

	if err := validateArgs(req.Name, e.tool.Definition().Parameters, req.Args); err != nil {
		return r.failure(req, start, err.Error())
	}

	if e.recheck != nil {
		if err := e.recheck(req.Name); err != nil {
			r.logger.Warn("extension permission recheck failed",
				"tool", req.Name, "extension", e.origin, "error", err)
			return r.failure(req, start, err.Error())
		}
	}

	content, effects, err := e.tool.Execute(ctx, req.Args)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return r.failure(req, start, fmt.Sprintf("tool %s aborted: %v", req.Name, err))
		}
		if pathutil.IsEscape(err) {
			r.logger.Warn("tool call blocked by path guard",
				"tool", req.Name, "call_id", req.CallID, "error", err)
		}
		return r.failure(req, start, err.Error())
	}

	return orchmodel.ToolResult{
		CallID:      req.CallID,
		Name:        req.Name,
		Content:     r.truncate(content),
		SideEffects: effects,
		DurationMs:  time.Since(start).Milliseconds(),
	}
}

func (r *Registry) failure(req orchmodel.ToolCallRequest, start time.Time, msg string) orchmodel.ToolResult {
	return orchmodel.ToolResult{
		CallID:     req.CallID,
		Name:       req.Name,
		Error:      msg,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

func (r *Registry) truncate(s string) string {
	if r.maxResultBytes <= 0 || len(s) <= r.maxResultBytes {
		return s
	}
	return s[:r.maxResultBytes] + TruncationMarker
}
