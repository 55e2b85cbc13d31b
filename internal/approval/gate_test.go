package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vswrite/agentcore/internal/orchestrator/model"
)

func callReq(risk model.Risk) model.ToolCallRequest {
	return model.ToolCallRequest{
		SessionID: "s1",
		CallID:    "c1",
		Name:      "run_shell",
		Risk:      risk,
	}
}

func TestModeSuspensionMatrix(t *testing.T) {
	tests := []struct {
		mode Mode
		risk model.Risk
		want bool
	}{
		{ModeAutoApprove, model.RiskDangerous, false},
		{ModeApproveWrites, model.RiskSafe, false},
		{ModeApproveWrites, model.RiskWrite, true},
		{ModeApproveWrites, model.RiskDangerous, true},
		{ModeApproveDangerous, model.RiskSafe, false},
		{ModeApproveDangerous, model.RiskWrite, false},
		{ModeApproveDangerous, model.RiskDangerous, true},
		{ModeApproveAll, model.RiskSafe, true},
		{ModeApproveAll, model.RiskWrite, true},
		{ModeApproveAll, model.RiskDangerous, true},
		{ModeDryRun, model.RiskDangerous, false},
	}

	for _, tt := range tests {
		got := tt.mode.Suspends(tt.risk)
		assert.Equal(t, tt.want, got, "%s / %s", tt.mode, tt.risk)
	}
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"auto_approve", "approve_writes", "approve_dangerous", "approve_all", "dry_run"} {
		m, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, Mode(valid), m)
	}
	_, err := ParseMode("yolo")
	assert.Error(t, err)
}

func TestSafeCallNeverSuspends(t *testing.T) {
	for _, mode := range []Mode{ModeAutoApprove, ModeApproveWrites, ModeApproveDangerous} {
		g := NewGate(mode, func(model.ApprovalRequest) { t.Errorf("mode %s asked for approval of a safe call", mode) }, nil)
		decision, err := g.Decide(context.Background(), callReq(model.RiskSafe))
		require.NoError(t, err)
		assert.Equal(t, model.GateDispatch, decision)
	}
}

func TestDryRunNeverDispatches(t *testing.T) {
	g := NewGate(ModeDryRun, nil, nil)
	decision, err := g.Decide(context.Background(), callReq(model.RiskSafe))
	require.NoError(t, err)
	assert.Equal(t, model.GateDryRun, decision)
}

func TestDecideBlocksUntilApproval(t *testing.T) {
	requests := make(chan model.ApprovalRequest, 1)
	g := NewGate(ModeApproveDangerous, func(r model.ApprovalRequest) { requests <- r }, nil)

	done := make(chan model.GateDecision, 1)
	go func() {
		decision, _ := g.Decide(context.Background(), callReq(model.RiskDangerous))
		done <- decision
	}()

	req := <-requests
	assert.Equal(t, "run_shell", req.ToolName)
	assert.Equal(t, "dangerous", req.Risk)

	select {
	case <-done:
		t.Fatal("Decide returned before a response arrived")
	case <-time.After(20 * time.Millisecond):
	}

	require.True(t, g.Respond(model.ApprovalResponse{CallID: req.CallID, Approved: true}))
	assert.Equal(t, model.GateDispatch, <-done)
}

func TestDecideDenial(t *testing.T) {
	requests := make(chan model.ApprovalRequest, 1)
	g := NewGate(ModeApproveAll, func(r model.ApprovalRequest) { requests <- r }, nil)

	done := make(chan model.GateDecision, 1)
	go func() {
		decision, _ := g.Decide(context.Background(), callReq(model.RiskSafe))
		done <- decision
	}()

	req := <-requests
	g.Respond(model.ApprovalResponse{CallID: req.CallID, Approved: false})
	assert.Equal(t, model.GateDeny, <-done)
}

func TestResponseWithUnknownCallIDIsIgnored(t *testing.T) {
	g := NewGate(ModeApproveAll, func(model.ApprovalRequest) {}, nil)
	assert.False(t, g.Respond(model.ApprovalResponse{CallID: "nobody", Approved: true}))
}

func TestCancellationUnblocksDecide(t *testing.T) {
	g := NewGate(ModeApproveDangerous, func(model.ApprovalRequest) {}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := g.Decide(ctx, callReq(model.RiskDangerous))
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancellation did not unblock the gate")
	}
	assert.Empty(t, g.PendingCalls())
}

func TestNoFrontendDenies(t *testing.T) {
	g := NewGate(ModeApproveDangerous, nil, nil)
	decision, err := g.Decide(context.Background(), callReq(model.RiskDangerous))
	require.NoError(t, err)
	assert.Equal(t, model.GateDeny, decision)
}
