package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vswrite/agentcore/internal/approval"
	"github.com/vswrite/agentcore/internal/orchestrator/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))

	riskStyles = map[string]lipgloss.Style{
		"safe":      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		"write":     lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		"dangerous": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
)

// Program drives one interactive session: it consumes orchestrator
// events, shows a spinner while the provider thinks, poses approval
// prompts, and renders the final answer as markdown.
type Program struct {
	prog      *tea.Program
	approvals chan model.ApprovalRequest
}

// NewProgram wires the TUI to a session. cancel is invoked when the
// user quits mid-run so the orchestrator unwinds cleanly.
func NewProgram(events <-chan model.Event, gate *approval.Gate, cancel context.CancelFunc) *Program {
	p := &Program{approvals: make(chan model.ApprovalRequest, 8)}

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	p.prog = tea.NewProgram(sessionModel{
		events:    events,
		approvals: p.approvals,
		gate:      gate,
		cancel:    cancel,
		spin:      sp,
		renderer:  renderer,
		status:    "starting",
	})
	return p
}

// Notify is the gate's NotifyFunc; it hands the request to the running
// program without blocking the gate.
func (p *Program) Notify(req model.ApprovalRequest) {
	select {
	case p.approvals <- req:
	default:
	}
}

// Run blocks until the session ends or the user quits.
func (p *Program) Run() error {
	_, err := p.prog.Run()
	return err
}

type sessionModel struct {
	events    <-chan model.Event
	approvals <-chan model.ApprovalRequest
	gate      *approval.Gate
	cancel    context.CancelFunc
	renderer  *glamour.TermRenderer

	spin    spinner.Model
	status  string
	lines   []string
	pending *model.ApprovalRequest
	final   string
	failure string
	done    bool
}

type eventMsg model.Event
type eventsClosedMsg struct{}
type approvalMsg model.ApprovalRequest

func listenEvents(ch <-chan model.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func listenApprovals(ch <-chan model.ApprovalRequest) tea.Cmd {
	return func() tea.Msg {
		return approvalMsg(<-ch)
	}
}

func (m sessionModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, listenEvents(m.events), listenApprovals(m.approvals))
}

func (m sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case approvalMsg:
		req := model.ApprovalRequest(msg)
		m.pending = &req
		return m, listenApprovals(m.approvals)

	case eventMsg:
		m.applyEvent(model.Event(msg))
		return m, listenEvents(m.events)

	case eventsClosedMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *sessionModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pending != nil {
		switch msg.String() {
		case "y", "Y":
			m.gate.Respond(model.ApprovalResponse{CallID: m.pending.CallID, Approved: true})
			m.pending = nil
		case "n", "N", "esc":
			m.gate.Respond(model.ApprovalResponse{CallID: m.pending.CallID, Approved: false})
			m.pending = nil
		}
		return *m, nil
	}

	if msg.String() == "ctrl+c" || msg.String() == "q" {
		if m.cancel != nil {
			m.cancel()
		}
		return *m, tea.Quit
	}
	return *m, nil
}

func (m *sessionModel) applyEvent(ev model.Event) {
	switch ev.Kind {
	case model.EventSessionStart:
		m.status = "thinking"
	case model.EventProviderCall:
		m.status = "thinking"
	case model.EventToolCallStart:
		m.status = "running " + ev.ToolName
		m.lines = append(m.lines, fmt.Sprintf("→ %s %s", ev.ToolName, styleRisk(ev.Risk)))
	case model.EventToolCallComplete:
		m.lines = append(m.lines, dimStyle.Render(fmt.Sprintf("  %s finished", ev.ToolName)))
	case model.EventToolSkipped:
		m.lines = append(m.lines, dimStyle.Render(fmt.Sprintf("  %s skipped (%s)", ev.ToolName, ev.Text)))
	case model.EventComplete:
		m.final = ev.Text
	case model.EventText:
		m.final = ev.Text
	case model.EventError:
		m.failure = ev.Text
	case model.EventCancelled:
		m.failure = "session cancelled"
	}
}

func styleRisk(risk string) string {
	if style, ok := riskStyles[risk]; ok {
		return style.Render(risk)
	}
	return risk
}

func (m sessionModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("vswrite-agent"))
	b.WriteString("\n\n")

	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	switch {
	case m.pending != nil:
		args, err := json.MarshalIndent(m.pending.Arguments, "  ", "  ")
		if err != nil {
			args = []byte("{}")
		}
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("Approval required"))
		b.WriteString(fmt.Sprintf(": %s (%s)\n  %s\n", m.pending.ToolName, styleRisk(m.pending.Risk), args))
		b.WriteString(dimStyle.Render("approve? y/n"))
		b.WriteString("\n")

	case m.failure != "":
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("error: " + m.failure))
		b.WriteString("\n")

	case m.final != "":
		b.WriteString("\n")
		b.WriteString(m.renderMarkdown(m.final))

	default:
		b.WriteString(fmt.Sprintf("\n%s %s\n", m.spin.View(), dimStyle.Render(m.status)))
	}
	return b.String()
}

func (m sessionModel) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text + "\n"
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}
