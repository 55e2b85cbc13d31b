package approval

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vswrite/agentcore/internal/orchestrator/model"
)

// NotifyFunc delivers an approval-request event to whatever frontend
// collects human responses. It must not block.
type NotifyFunc func(model.ApprovalRequest)

// Gate implements model.Gate. A suspended call blocks on its own
// response channel; independent calls in the same batch proceed.
// There is no response timeout: the wait ends only on a matching
// response or on cancellation of the session context.
type Gate struct {
	mode   Mode
	notify NotifyFunc
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]chan bool
}

// NewGate creates a gate for one session. notify may be nil when no
// frontend is attached; calls requiring approval are then denied
// rather than silently dispatched.
func NewGate(mode Mode, notify NotifyFunc, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		mode:    mode,
		notify:  notify,
		logger:  logger,
		pending: make(map[string]chan bool),
	}
}

// Mode returns the configured approval mode.
func (g *Gate) Mode() Mode { return g.mode }

// Suspends reports whether a call at the given risk would block
// awaiting a human response.
func (g *Gate) Suspends(risk model.Risk) bool { return g.mode.Suspends(risk) }

// Decide blocks until the call may dispatch, was denied, or the
// context is cancelled. Cancellation unblocks immediately and removes
// the pending entry.
func (g *Gate) Decide(ctx context.Context, req model.ToolCallRequest) (model.GateDecision, error) {
	if g.mode == ModeDryRun {
		return model.GateDryRun, nil
	}
	if !g.mode.Suspends(req.Risk) {
		return model.GateDispatch, nil
	}

	if g.notify == nil {
		g.logger.Warn("approval required but no frontend attached; denying",
			"tool", req.Name, "call_id", req.CallID)
		return model.GateDeny, nil
	}

	ch := make(chan bool, 1)
	g.mu.Lock()
	g.pending[req.CallID] = ch
	g.mu.Unlock()

	// Register before notifying so a response racing the event cannot
	// be lost.
	g.notify(model.ApprovalRequest{
		SessionID: req.SessionID,
		CallID:    req.CallID,
		ToolName:  req.Name,
		Risk:      req.Risk.String(),
		Arguments: req.Args,
	})

	select {
	case approved := <-ch:
		g.remove(req.CallID)
		if approved {
			return model.GateDispatch, nil
		}
		return model.GateDeny, nil
	case <-ctx.Done():
		g.remove(req.CallID)
		return model.GateDeny, ctx.Err()
	}
}

// Respond resolves one pending approval request. Responses whose
// CallID matches no pending request are ignored; the return value
// reports whether the response was consumed.
func (g *Gate) Respond(resp model.ApprovalResponse) bool {
	g.mu.Lock()
	ch, ok := g.pending[resp.CallID]
	if ok {
		delete(g.pending, resp.CallID)
	}
	g.mu.Unlock()

	if !ok {
		g.logger.Debug("ignoring approval response with no pending call", "call_id", resp.CallID)
		return false
	}
	ch <- resp.Approved
	return true
}

// PendingCalls returns the call ids currently awaiting a response.
func (g *Gate) PendingCalls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]string, 0, len(g.pending))
	for id := range g.pending {
		ids = append(ids, id)
	}
	return ids
}

func (g *Gate) remove(callID string) {
	g.mu.Lock()
	delete(g.pending, callID)
	g.mu.Unlock()
}
