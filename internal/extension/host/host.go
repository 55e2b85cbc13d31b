// Package host runs one extension's scripts in an isolated Starlark
// interpreter. Every call executes on a fresh thread against a fresh
// module instance, so no state leaks between calls or between
// extensions; the only way out of the sandbox is the injected
// capability table, which routes through the permission evaluator and
// the tool registry.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/vswrite/agentcore/internal/entity"
	orchmodel "github.com/vswrite/agentcore/internal/orchestrator/model"
	"github.com/vswrite/agentcore/internal/permission"
	"github.com/vswrite/agentcore/internal/registry"
)

// fileOptions enables the imperative Starlark dialect extensions;
// scripts commonly use while loops and top-level control flow.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// ErrHostClosed is returned for calls against an unloaded extension.
var ErrHostClosed = errors.New("extension host is closed")

// TimeoutError reports a script entry point that exceeded its
// execution bound. The call is aborted; the host survives.
type TimeoutError struct {
	ExtensionID string
	EntryPoint  string
	Limit       time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("extension %q: %s exceeded %s execution limit", e.ExtensionID, e.EntryPoint, e.Limit)
}

func (e *TimeoutError) Timeout() bool { return true }

// HookResult is the envelope every lifecycle hook returns.
type HookResult struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Config wires one host instance.
type Config struct {
	ExtensionID string
	// Scripts maps script paths (as referenced by manifest tool
	// declarations) to their source text, read once at load time.
	Scripts map[string]string
	// HooksScript is the hooks.star source, empty when absent.
	HooksScript string

	CallTimeout time.Duration
	HookTimeout time.Duration

	// Perms returns the extension's current permission set. It is
	// consulted on every capability call, so a manifest revocation
	// takes effect immediately.
	Perms    func() permission.Set
	Registry *registry.Registry
	Entities *entity.Store
	Logger   *slog.Logger

	// Dispatch overrides how capability tool calls reach the registry;
	// nil means Registry.Dispatch.
	Dispatch ToolDispatch
}

// Host executes one extension's entry points.
type Host struct {
	cfg Config

	// mu serializes script execution and makes unload mutually
	// exclusive with in-flight calls.
	mu     sync.Mutex
	closed bool
}

// New creates a host. It does not execute anything yet.
func New(cfg Config) *Host {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	if cfg.HookTimeout <= 0 {
		cfg.HookTimeout = 5 * time.Second
	}
	if cfg.Dispatch == nil && cfg.Registry != nil {
		cfg.Dispatch = cfg.Registry.Dispatch
	}
	return &Host{cfg: cfg}
}

// Close marks the host unloadable. It blocks until any in-flight call
// finishes, so no call can observe the extension being removed.
func (h *Host) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}

// CallTool executes a tool handler: the named function in the given
// script, receiving the validated argument map as a single dict
// parameter. The return value is rendered to a string for the
// provider.
func (h *Host) CallTool(ctx context.Context, script, function string, args map[string]any) (string, error) {
	source, ok := h.cfg.Scripts[script]
	if !ok {
		return "", fmt.Errorf("extension %q: script %q not loaded", h.cfg.ExtensionID, script)
	}
	value, err := h.call(ctx, script, source, function, args, h.cfg.CallTimeout)
	if err != nil {
		return "", err
	}
	return renderResult(value)
}

// CallHook executes one lifecycle hook and always returns the
// success/error envelope; a missing hook function counts as failure
// so the manager can log it, but nothing is thrown.
func (h *Host) CallHook(ctx context.Context, hook string, args map[string]any) HookResult {
	if h.cfg.HooksScript == "" {
		return HookResult{Success: false, Error: "extension has no hooks script"}
	}
	value, err := h.call(ctx, "hooks.star", h.cfg.HooksScript, hook, args, h.cfg.HookTimeout)
	if err != nil {
		return HookResult{Success: false, Error: err.Error()}
	}
	rendered, err := renderResult(value)
	if err != nil {
		return HookResult{Success: false, Error: err.Error()}
	}
	return HookResult{Success: true, Result: rendered}
}

// call executes one entry point on a fresh thread. The timeout is a
// hard cancellation boundary: the interpreter is interrupted via
// Thread.Cancel and any in-flight capability call is cut off through
// the derived context, so a runaway script cannot pin the host.
func (h *Host) call(ctx context.Context, scriptName, source, function string, args map[string]any, timeout time.Duration) (starlark.Value, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHostClosed
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	thread := &starlark.Thread{
		Name: h.cfg.ExtensionID + "/" + scriptName,
		Print: func(_ *starlark.Thread, msg string) {
			h.cfg.Logger.Info("extension print", "extension", h.cfg.ExtensionID, "message", msg)
		},
	}
	thread.SetLocal(threadContextKey, callCtx)

	timer := time.AfterFunc(timeout, func() { thread.Cancel("execution timeout") })
	defer timer.Stop()

	globals, err := starlark.ExecFileOptions(fileOptions, thread, scriptName, source, h.predeclared())
	if err != nil {
		return nil, h.mapError(err, function, timeout)
	}

	fn, ok := globals[function]
	if !ok {
		return nil, fmt.Errorf("extension %q: function %q not defined in %s", h.cfg.ExtensionID, function, scriptName)
	}

	argValue, err := toStarlark(args)
	if err != nil {
		return nil, err
	}
	if args == nil {
		argValue = starlark.NewDict(0)
	}

	result, err := starlark.Call(thread, fn, starlark.Tuple{argValue}, nil)
	if err != nil {
		return nil, h.mapError(err, function, timeout)
	}
	return result, nil
}

func (h *Host) mapError(err error, entryPoint string, timeout time.Duration) error {
	if strings.Contains(err.Error(), "execution timeout") {
		return &TimeoutError{ExtensionID: h.cfg.ExtensionID, EntryPoint: entryPoint, Limit: timeout}
	}
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		// Wrap rather than flatten so callers can still branch on the
		// underlying cause (permission denials in particular); the full
		// script backtrace goes to the log.
		h.cfg.Logger.Debug("script error",
			"extension", h.cfg.ExtensionID, "entry_point", entryPoint, "backtrace", evalErr.Backtrace())
		return fmt.Errorf("extension %q: %w", h.cfg.ExtensionID, evalErr)
	}
	return fmt.Errorf("extension %q: %w", h.cfg.ExtensionID, err)
}

// renderResult turns a script return value into the provider-visible
// string: strings pass through, None becomes empty, anything else is
// JSON-encoded.
func renderResult(v starlark.Value) (string, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return "", nil
	case starlark.String:
		return string(v), nil
	default:
		decoded, err := fromStarlark(v)
		if err != nil {
			return "", err
		}
		return encodeJSON(decoded)
	}
}

// ToolDispatch is the seam the capability table uses to reach the
// registry; tests substitute it to observe sandbox calls.
type ToolDispatch func(ctx context.Context, req orchmodel.ToolCallRequest) orchmodel.ToolResult
