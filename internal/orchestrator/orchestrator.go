// Package orchestrator runs the agent loop: a state machine that
// alternates provider calls with gated tool dispatch until the
// provider answers in plain text, the turn limit trips, or the
// session is cancelled.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vswrite/agentcore/internal/orchestrator/model"
	pmodel "github.com/vswrite/agentcore/internal/provider/model"
)

// DeniedResultText is fed back to the provider when a human rejects a
// tool call. The wording tells the model the block came from the user,
// not from a tool failure, so it can ask instead of retrying.
const DeniedResultText = "DENIED: Tool execution was blocked by user approval."

// Provider is the narrow slice of the provider surface the loop needs.
type Provider interface {
	Generate(ctx context.Context, req *pmodel.GenerateRequest) (*pmodel.GenerateResponse, error)
}

// Gate extends the decision interface with the static suspension
// check, which drives the AwaitingApproval transitions.
type Gate interface {
	model.Gate
	Suspends(risk model.Risk) bool
}

// Dispatcher extends dispatch with the tool definitions advertised to
// the provider.
type Dispatcher interface {
	model.Dispatcher
	Definitions() []pmodel.ToolDefinition
}

// TurnLimitExceededError terminates a session that never converged.
type TurnLimitExceededError struct {
	MaxTurns int
}

func (e *TurnLimitExceededError) Error() string {
	return fmt.Sprintf("turn limit exceeded: no final answer after %d provider turns", e.MaxTurns)
}

// Config wires one orchestrator run.
type Config struct {
	SessionID    string
	Task         string
	SystemPrompt string
	MaxTurns     int

	Provider   Provider
	Gate       Gate
	Dispatcher Dispatcher
	Auditor    model.Auditor

	// Generate holds optional provider parameters passed through on
	// every call.
	Generate *pmodel.GenerateConfig

	// EventBuffer sizes the event channel; 0 means 64.
	EventBuffer int

	Logger *slog.Logger
}

// Result is the outcome of one completed run.
type Result struct {
	FinalText   string
	State       model.SessionState
	Turns       int
	ToolCalls   int
	TotalTokens int
}

// Orchestrator owns one session's loop. It is not reusable; create a
// new one per session.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger

	state   model.SessionState
	history []model.Message
	events  chan model.Event

	turn      int
	toolCalls int
	tokens    int
}

// New creates an orchestrator in the Idle state.
func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 8
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
	return &Orchestrator{
		cfg:    cfg,
		logger: cfg.Logger,
		state:  model.StateIdle,
		events: make(chan model.Event, cfg.EventBuffer),
	}
}

// Events returns the channel the loop emits on. It is closed when Run
// returns.
func (o *Orchestrator) Events() <-chan model.Event { return o.events }

// State returns the current state machine position.
func (o *Orchestrator) State() model.SessionState { return o.state }

// Run executes the loop to a terminal state. The returned error is
// non-nil for Failed and Cancelled terminals; Completed returns the
// final text in the result.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	defer close(o.events)

	if err := o.cfg.Auditor.SessionStart(o.cfg.SessionID, o.cfg.Task); err != nil {
		o.logger.Error("audit write failed", "error", err)
	}
	o.emit(model.Event{Kind: model.EventSessionStart, Text: o.cfg.Task})

	o.history = []model.Message{{Role: "user", Content: o.cfg.Task}}

	res, err := o.loop(ctx)

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	if auditErr := o.cfg.Auditor.SessionEnd(o.cfg.SessionID, o.state, errMsg); auditErr != nil {
		o.logger.Error("audit write failed", "error", auditErr)
	}
	return res, err
}

func (o *Orchestrator) loop(ctx context.Context) (*Result, error) {
	for o.turn = 1; o.turn <= o.cfg.MaxTurns; o.turn++ {
		// After a refusal the loop is already in AwaitingProvider; the
		// state machine rejects self-transitions.
		if o.state != model.StateAwaitingProvider {
			if err := o.transition(ctx, model.StateAwaitingProvider); err != nil {
				return o.finish("", err)
			}
		} else if ctx.Err() != nil {
			o.toState(model.StateCancelled)
			return o.finish("", ctx.Err())
		}

		response, err := o.callProvider(ctx)
		if err != nil {
			o.toState(model.StateFailed)
			return o.finish("", fmt.Errorf("provider error: %w", err))
		}

		switch response.Content.Type {
		case pmodel.ResponseTypeText:
			o.toState(model.StateCompleted)
			o.emit(model.Event{Kind: model.EventText, Text: response.Content.Text})
			return o.finish(response.Content.Text, nil)

		case pmodel.ResponseTypeToolCall:
			if err := o.transition(ctx, model.StateToolCallsPending); err != nil {
				return o.finish("", err)
			}
			if err := o.runToolBatch(ctx, response.Content.ToolCalls); err != nil {
				return o.finish("", err)
			}

		case pmodel.ResponseTypeRefusal:
			// The refusal is surfaced to the model as context; the loop
			// continues and the turn is spent.
			o.logger.Warn("provider refused to generate", "reason", response.Content.RefusalReason)
			o.history = append(o.history, model.Message{
				Role:    "user",
				Content: fmt.Sprintf("The previous request was refused: %s. Adjust and continue.", response.Content.RefusalReason),
			})

		default:
			o.toState(model.StateFailed)
			return o.finish("", fmt.Errorf("unknown provider response type %q", response.Content.Type))
		}
	}

	o.toState(model.StateFailed)
	return o.finish("", &TurnLimitExceededError{MaxTurns: o.cfg.MaxTurns})
}

func (o *Orchestrator) callProvider(ctx context.Context) (*pmodel.GenerateResponse, error) {
	o.emit(model.Event{Kind: model.EventProviderCall})

	response, err := o.cfg.Provider.Generate(ctx, &pmodel.GenerateRequest{
		System:  o.cfg.SystemPrompt,
		History: o.history,
		Config:  o.cfg.Generate,
		Tools:   o.cfg.Dispatcher.Definitions(),
	})

	tokens := 0
	if response != nil {
		tokens = response.Metadata.TotalTokens
		o.tokens += tokens
	}
	if auditErr := o.cfg.Auditor.ProviderCall(o.cfg.SessionID, o.turn, tokens, err); auditErr != nil {
		o.logger.Error("audit write failed", "error", auditErr)
	}
	return response, err
}

// runToolBatch gates and dispatches one batch of tool calls. Suspended
// calls resolve one at a time; approved and auto-approved calls then
// execute concurrently, and exactly one result per call is fed back.
func (o *Orchestrator) runToolBatch(ctx context.Context, calls []model.ToolCall) error {
	o.history = append(o.history, model.Message{Role: "assistant", ToolCalls: calls})

	results := make([]model.ToolResult, len(calls))
	reqs := make([]model.ToolCallRequest, len(calls))
	dispatchable := make([]int, 0, len(calls))

	// Resolve every gate decision before anything executes: a denial
	// or cancellation mid-batch must not interleave with running tools.
	for i, call := range calls {
		req, ok := o.buildRequest(call)
		reqs[i] = req
		if !ok {
			reqs[i] = model.ToolCallRequest{SessionID: o.cfg.SessionID, CallID: call.ID, Name: call.Name, Args: call.Args}
			results[i] = model.ToolResult{
				CallID: call.ID,
				Name:   call.Name,
				Error:  fmt.Sprintf("unknown tool %q", call.Name),
			}
			o.emit(model.Event{Kind: model.EventToolSkipped, CallID: call.ID, ToolName: call.Name, Text: "unknown tool"})
			continue
		}

		if o.cfg.Gate.Suspends(req.Risk) {
			if err := o.transition(ctx, model.StateAwaitingApproval); err != nil {
				return err
			}
			o.emit(model.Event{
				Kind: model.EventApprovalRequired, CallID: req.CallID,
				ToolName: req.Name, Risk: req.Risk.String(),
			})
		}

		decision, err := o.cfg.Gate.Decide(ctx, req)
		if err != nil {
			// Cancellation while suspended.
			o.toState(model.StateCancelled)
			return err
		}

		switch decision {
		case model.GateDispatch:
			dispatchable = append(dispatchable, i)
		case model.GateDeny:
			results[i] = model.ToolResult{
				CallID:  req.CallID,
				Name:    req.Name,
				Content: DeniedResultText,
				Denied:  true,
			}
			o.emit(model.Event{Kind: model.EventToolSkipped, CallID: req.CallID, ToolName: req.Name, Text: "denied"})
		case model.GateDryRun:
			results[i] = dryRunResult(req)
			o.emit(model.Event{Kind: model.EventToolSkipped, CallID: req.CallID, ToolName: req.Name, Text: "dry-run"})
		}
	}

	if err := o.transition(ctx, model.StateDispatching); err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, i := range dispatchable {
		req := reqs[i]
		o.emit(model.Event{Kind: model.EventToolCallStart, CallID: req.CallID, ToolName: req.Name, Risk: req.Risk.String()})

		wg.Add(1)
		go func(i int, req model.ToolCallRequest) {
			defer wg.Done()
			results[i] = o.cfg.Dispatcher.Dispatch(ctx, req)
		}(i, req)
	}
	wg.Wait()

	for i := range results {
		if auditErr := o.cfg.Auditor.ToolCall(o.cfg.SessionID, reqs[i], results[i]); auditErr != nil {
			o.logger.Error("audit write failed", "error", auditErr)
		}
	}
	for _, i := range dispatchable {
		o.emit(model.Event{Kind: model.EventToolCallComplete, CallID: results[i].CallID, ToolName: results[i].Name})
	}
	o.toolCalls += len(calls)

	o.history = append(o.history, model.Message{Role: "tool", ToolResults: results})
	return nil
}

// buildRequest binds a provider tool call to the session and derives
// its risk. Unknown tools report !ok and never reach the gate.
func (o *Orchestrator) buildRequest(call model.ToolCall) (model.ToolCallRequest, bool) {
	risk, ok := o.cfg.Dispatcher.Risk(call.Name)
	if !ok {
		return model.ToolCallRequest{}, false
	}
	return model.ToolCallRequest{
		SessionID: o.cfg.SessionID,
		CallID:    call.ID,
		Name:      call.Name,
		Args:      call.Args,
		Risk:      risk,
	}, true
}

func dryRunResult(req model.ToolCallRequest) model.ToolResult {
	args, err := json.Marshal(req.Args)
	if err != nil {
		args = []byte("{}")
	}
	return model.ToolResult{
		CallID:  req.CallID,
		Name:    req.Name,
		Content: fmt.Sprintf("[DRY-RUN] Would execute tool '%s' with args: %s", req.Name, args),
	}
}

// transition moves the state machine, checking cancellation first and
// appending the audit record before the new state takes effect.
func (o *Orchestrator) transition(ctx context.Context, to model.SessionState) error {
	if ctx.Err() != nil {
		o.toState(model.StateCancelled)
		return ctx.Err()
	}
	if err := model.ValidateTransition(o.state, to); err != nil {
		o.toState(model.StateFailed)
		return err
	}
	if err := o.cfg.Auditor.Transition(o.cfg.SessionID, o.state, to, o.turn); err != nil {
		o.logger.Error("audit write failed", "error", err)
	}
	o.state = to
	return nil
}

// toState forces a terminal state, recording the transition.
func (o *Orchestrator) toState(to model.SessionState) {
	if o.state == to || o.state.IsTerminal() {
		return
	}
	if err := o.cfg.Auditor.Transition(o.cfg.SessionID, o.state, to, o.turn); err != nil {
		o.logger.Error("audit write failed", "error", err)
	}
	o.state = to
}

func (o *Orchestrator) finish(text string, err error) (*Result, error) {
	switch {
	case err == nil:
		o.emit(model.Event{Kind: model.EventComplete, Text: text})
	case o.state == model.StateCancelled:
		o.emit(model.Event{Kind: model.EventCancelled})
	default:
		o.emit(model.Event{Kind: model.EventError, Text: err.Error()})
	}
	return &Result{
		FinalText:   text,
		State:       o.state,
		Turns:       o.turn,
		ToolCalls:   o.toolCalls,
		TotalTokens: o.tokens,
	}, err
}

// emit never blocks dispatch: when the buffer is full the oldest event
// is dropped in favour of the new one. The audit trail, not this
// channel, is the durable record.
func (o *Orchestrator) emit(ev model.Event) {
	ev.SessionID = o.cfg.SessionID
	ev.Turn = o.turn
	ev.State = o.state
	ev.Time = time.Now()

	select {
	case o.events <- ev:
	default:
		select {
		case <-o.events:
		default:
		}
		select {
		case o.events <- ev:
		default:
		}
	}
}
