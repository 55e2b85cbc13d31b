package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	orchmodel "github.com/vswrite/agentcore/internal/orchestrator/model"
	"github.com/vswrite/agentcore/internal/provider/model"
)

// runFunc executes a tool with a typed request. Tool Run methods match
// this signature directly.
type runFunc[Req, Resp any] func(ctx context.Context, req *Req) (Resp, error)

// effectsFunc derives audit side effects from a decoded request.
type effectsFunc[Req any] func(req *Req) []orchmodel.SideEffect

// renderer is implemented by responses that control their provider-visible
// text. Responses without it are JSON-marshaled.
type renderer interface {
	Render() string
}

// ArgumentError wraps a decode failure for the arguments the model sent.
type ArgumentError struct {
	Tool  string
	Cause error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Cause)
}

func (e *ArgumentError) Unwrap() error {
	return e.Cause
}

func (e *ArgumentError) InvalidInput() bool {
	return true
}

// BaseAdapter bridges a typed tool into the Tool interface. It
// centralizes argument decoding, execution, response rendering, and
// side effect reporting so individual tools stay free of provider
// plumbing.
type BaseAdapter[Req, Resp any] struct {
	name        string
	description string
	definition  model.ToolDefinition
	risk        orchmodel.Risk
	run         runFunc[Req, Resp]
	effects     effectsFunc[Req]
}

// NewBaseAdapter creates an adapter for one tool. The effects function
// may be nil for read-only tools.
func NewBaseAdapter[Req, Resp any](
	name string,
	description string,
	params *model.ParameterSchema,
	risk orchmodel.Risk,
	run runFunc[Req, Resp],
	effects effectsFunc[Req],
) *BaseAdapter[Req, Resp] {
	if run == nil {
		panic("run is required")
	}
	return &BaseAdapter[Req, Resp]{
		name:        name,
		description: description,
		definition: model.ToolDefinition{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
		risk:    risk,
		run:     run,
		effects: effects,
	}
}

func (b *BaseAdapter[Req, Resp]) Name() string {
	return b.name
}

func (b *BaseAdapter[Req, Resp]) Description() string {
	return b.description
}

func (b *BaseAdapter[Req, Resp]) Definition() model.ToolDefinition {
	return b.definition
}

func (b *BaseAdapter[Req, Resp]) Risk() orchmodel.Risk {
	return b.risk
}

// Execute decodes the argument map into the typed request, runs the
// tool, and renders the response. Numeric arguments arrive as float64
// from JSON; mapstructure converts them to the request's field types.
func (b *BaseAdapter[Req, Resp]) Execute(ctx context.Context, args map[string]any) (string, []orchmodel.SideEffect, error) {
	var req Req
	if err := mapstructure.Decode(args, &req); err != nil {
		return "", nil, &ArgumentError{Tool: b.name, Cause: err}
	}

	resp, err := b.run(ctx, &req)
	if err != nil {
		return "", nil, err
	}

	var effects []orchmodel.SideEffect
	if b.effects != nil {
		effects = b.effects(&req)
	}

	if r, ok := any(resp).(renderer); ok {
		return r.Render(), effects, nil
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode %s response: %w", b.name, err)
	}
	return string(encoded), effects, nil
}
