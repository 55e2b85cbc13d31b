// Package session persists session records and their append-only
// audit trails under the state directory. The session index is a
// single JSON file capped at a configured number of records; each
// session's audit log is a JSONL file beside it.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vswrite/agentcore/internal/orchestrator/model"
)

const indexFileName = "sessions.json"

// Status mirrors the orchestrator's terminal states plus "active".
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Record is one session as persisted in the index.
type Record struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	LastActive    time.Time `json:"last_active"`
	Workspace     string    `json:"workspace"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	ApprovalMode  string    `json:"approval_mode"`
	ToolCallCount int       `json:"tool_call_count"`
	TotalTokens   int       `json:"total_tokens"`
	Status        Status    `json:"status"`
	Error         string    `json:"error,omitempty"`
	Task          string    `json:"task"`
}

// NotFoundError reports a session id absent from the index.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.ID)
}

func (e *NotFoundError) NotFound() bool { return true }

// Store owns the session index. All mutations rewrite the index file
// under the store lock; sessions are small and infrequent, so the
// full-rewrite strategy keeps the file always consistent.
type Store struct {
	dir         string
	maxSessions int

	mu sync.Mutex
}

// NewStore creates a store over a state directory.
func NewStore(dir string, maxSessions int) *Store {
	if maxSessions <= 0 {
		maxSessions = 100
	}
	return &Store{dir: dir, maxSessions: maxSessions}
}

// Dir returns the state directory.
func (s *Store) Dir() string { return s.dir }

// Create registers a new active session and returns its record.
func (s *Store) Create(workspace, provider, modelName, approvalMode, task string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readIndex()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := Record{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		LastActive:   now,
		Workspace:    workspace,
		Provider:     provider,
		Model:        modelName,
		ApprovalMode: approvalMode,
		Status:       StatusActive,
		Task:         task,
	}
	records = append(records, rec)

	// Oldest sessions age out of the index; their audit files go too,
	// so the state directory cannot grow without bound.
	if len(records) > s.maxSessions {
		sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })
		evicted := records[:len(records)-s.maxSessions]
		records = records[len(records)-s.maxSessions:]
		for _, old := range evicted {
			os.Remove(s.auditPath(old.ID))
		}
	}

	if err := s.writeIndex(records); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Get returns one session record.
func (s *Store) Get(id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, &NotFoundError{ID: id}
}

// List returns every session, newest first.
func (s *Store) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
	return records, nil
}

// Update applies fn to the stored record and persists the result.
func (s *Store) Update(id string, fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readIndex()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].ID != id {
			continue
		}
		fn(&records[i])
		records[i].LastActive = time.Now().UTC()
		return s.writeIndex(records)
	}
	return &NotFoundError{ID: id}
}

// Finish moves a session to its terminal status.
func (s *Store) Finish(id string, state model.SessionState, errMsg string) error {
	return s.Update(id, func(r *Record) {
		switch state {
		case model.StateCompleted:
			r.Status = StatusCompleted
		case model.StateCancelled:
			r.Status = StatusCancelled
		default:
			r.Status = StatusFailed
		}
		r.Error = errMsg
	})
}

func (s *Store) indexPath() string {
	return filepath.Join(s.dir, indexFileName)
}

func (s *Store) auditPath(sessionID string) string {
	return filepath.Join(s.dir, "audit", sessionID+".jsonl")
}

func (s *Store) readIndex() ([]Record, error) {
	raw, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("session index corrupt: %w", err)
	}
	return records, nil
}

func (s *Store) writeIndex(records []Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.indexPath())
}
