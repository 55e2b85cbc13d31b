package adapter

import (
	"context"

	orchmodel "github.com/vswrite/agentcore/internal/orchestrator/model"
	"github.com/vswrite/agentcore/internal/provider/model"
)

// Tool represents a capability the agent can invoke.
// Each tool must be stateless and safe for concurrent use.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Definition returns the structured tool definition for the provider.
	Definition() model.ToolDefinition

	// Risk classifies what approval tier the tool belongs to.
	Risk() orchmodel.Risk

	// Execute runs the tool with the arguments the model supplied and
	// returns the provider-visible output plus any side effects for the
	// audit log.
	Execute(ctx context.Context, args map[string]any) (string, []orchmodel.SideEffect, error)
}
