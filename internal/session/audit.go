package session

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vswrite/agentcore/internal/orchestrator/model"
)

// Entry is one audit record. Tool arguments are never stored raw;
// only a hash prefix survives, enough to correlate without retaining
// content the user typed into a prompt or a file.
type Entry struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Timestamp  time.Time `json:"timestamp"`
	Kind       string    `json:"kind"`
	ToolName   string    `json:"tool_name,omitempty"`
	ArgsHash   string    `json:"args_hash,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Success    bool      `json:"success"`
	DurationMs int64     `json:"duration_ms,omitempty"`
}

// secretPatterns match API-key shapes in summaries; matches are
// replaced before anything is written to disk.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{8,}`),
	regexp.MustCompile(`(?i)\b(api[_-]?key|token|authorization|bearer)(["':=\s]+)[A-Za-z0-9._-]{8,}`),
}

// Redact strips API-key shaped substrings from a summary.
func Redact(s string) string {
	out := s
	out = secretPatterns[0].ReplaceAllString(out, "[REDACTED]")
	out = secretPatterns[1].ReplaceAllString(out, "$1$2[REDACTED]")
	return out
}

// HashArgs produces the stored argument fingerprint: a SHA-256 prefix
// over the JSON form. encoding/json sorts map keys, so equal argument
// maps hash equally regardless of insertion order.
func HashArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:12]
}

// Audit appends session activity to per-session JSONL files. It
// implements the orchestrator's Auditor contract: every method
// completes its write before returning, so the trail is never behind
// the state machine.
type Audit struct {
	store      *Store
	maxEntries int

	mu     sync.Mutex
	counts map[string]int
}

// NewAudit creates an audit writer sharing the session store's state
// directory.
func NewAudit(store *Store, maxEntries int) *Audit {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Audit{store: store, maxEntries: maxEntries, counts: make(map[string]int)}
}

func (a *Audit) SessionStart(sessionID, task string) error {
	return a.append(Entry{
		SessionID: sessionID,
		Kind:      "session_start",
		Summary:   Redact(task),
		Success:   true,
	})
}

func (a *Audit) Transition(sessionID string, from, to model.SessionState, turn int) error {
	return a.append(Entry{
		SessionID: sessionID,
		Kind:      "transition",
		Summary:   fmt.Sprintf("turn %d: %s -> %s", turn, from, to),
		Success:   true,
	})
}

func (a *Audit) ProviderCall(sessionID string, turn int, tokens int, callErr error) error {
	e := Entry{
		SessionID: sessionID,
		Kind:      "provider_call",
		Summary:   fmt.Sprintf("turn %d: %d tokens", turn, tokens),
		Success:   callErr == nil,
	}
	if callErr != nil {
		e.Summary = Redact(fmt.Sprintf("turn %d: %v", turn, callErr))
	}
	return a.append(e)
}

func (a *Audit) ToolCall(sessionID string, req model.ToolCallRequest, res model.ToolResult) error {
	summary := fmt.Sprintf("call %s", req.CallID)
	switch {
	case res.Denied:
		summary += ": denied by user"
	case res.Failed():
		summary += ": " + res.Error
	default:
		for _, se := range res.SideEffects {
			summary += fmt.Sprintf("; %s %s", se.Kind, se.Target)
		}
	}
	return a.append(Entry{
		SessionID:  sessionID,
		Kind:       "tool_call",
		ToolName:   req.Name,
		ArgsHash:   HashArgs(req.Args),
		Summary:    Redact(summary),
		Success:    !res.Failed() && !res.Denied,
		DurationMs: res.DurationMs,
	})
}

func (a *Audit) SessionEnd(sessionID string, state model.SessionState, errMsg string) error {
	return a.append(Entry{
		SessionID: sessionID,
		Kind:      "session_end",
		Summary:   Redact(fmt.Sprintf("%s %s", state, errMsg)),
		Success:   state == model.StateCompleted,
	})
}

// Read returns every entry for one session, in write order.
func (a *Audit) Read(sessionID string) ([]Entry, error) {
	f, err := os.Open(a.store.auditPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

func (a *Audit) append(e Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.counts[e.SessionID] == 0 {
		if existing, err := a.countExisting(e.SessionID); err == nil {
			a.counts[e.SessionID] = existing
		}
	}
	if a.counts[e.SessionID] >= a.maxEntries {
		return nil
	}

	e.ID = uuid.NewString()
	e.Timestamp = time.Now().UTC()

	path := a.store.auditPath(e.SessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(raw, '\n')); err != nil {
		return err
	}
	a.counts[e.SessionID]++
	return nil
}

// countExisting resumes the per-session counter after a restart so the
// cap holds across processes.
func (a *Audit) countExisting(sessionID string) (int, error) {
	f, err := os.Open(a.store.auditPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}
