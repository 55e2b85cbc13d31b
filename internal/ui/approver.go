// Package ui provides the two approval frontends: a Bubble Tea
// program for interactive sessions and a line-oriented prompt for
// non-interactive --prompt runs.
package ui

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/vswrite/agentcore/internal/approval"
	"github.com/vswrite/agentcore/internal/orchestrator/model"
)

// PlainApprover answers approval requests over plain stdin/stderr.
// Notify never blocks the gate; the read happens on its own goroutine
// and requests are answered one at a time.
type PlainApprover struct {
	gate    *approval.Gate
	scanner *bufio.Scanner
	out     io.Writer

	mu sync.Mutex
}

// NewPlainApprover creates an approver reading decisions from in and
// prompting on out.
func NewPlainApprover(gate *approval.Gate, in io.Reader, out io.Writer) *PlainApprover {
	return &PlainApprover{gate: gate, scanner: bufio.NewScanner(in), out: out}
}

// Notify is the gate's NotifyFunc.
func (a *PlainApprover) Notify(req model.ApprovalRequest) {
	go a.prompt(req)
}

func (a *PlainApprover) prompt(req model.ApprovalRequest) {
	a.mu.Lock()
	defer a.mu.Unlock()

	args, err := json.Marshal(req.Arguments)
	if err != nil {
		args = []byte("{}")
	}
	fmt.Fprintf(a.out, "\nApproval required: %s (%s risk)\n  args: %s\nAllow? [y/N] ", req.ToolName, req.Risk, args)

	approved := false
	if a.scanner.Scan() {
		answer := strings.ToLower(strings.TrimSpace(a.scanner.Text()))
		approved = answer == "y" || answer == "yes"
	}
	a.gate.Respond(model.ApprovalResponse{CallID: req.CallID, Approved: approved})
}
