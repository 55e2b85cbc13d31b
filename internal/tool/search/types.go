package search

import (
	"encoding/json"
	"fmt"
)

// -- Glob --

// GlobRequest matches file names against a glob pattern. Path scopes the
// search; empty means the workspace root. Patterns support *, ?, character
// classes and ** for any number of directories.
type GlobRequest struct {
	Pattern string `json:"pattern" mapstructure:"pattern"`
	Path    string `json:"path,omitempty" mapstructure:"path"`
}

func (r *GlobRequest) Validate() error {
	if r.Pattern == "" {
		return &PatternRequiredError{}
	}
	return nil
}

// GlobResponse lists workspace-relative matches, sorted. Total counts
// matches before the cap was applied.
type GlobResponse struct {
	Matches []string
	Total   int
	Capped  bool
}

// Render returns the matches as an indented JSON array. When the cap was
// hit, a trailing entry reports how many matches were dropped.
func (r *GlobResponse) Render() string {
	entries := r.Matches
	if entries == nil {
		entries = []string{}
	}
	if r.Capped {
		entries = append(entries, fmt.Sprintf("... and %d more files", r.Total-len(r.Matches)))
	}
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(out)
}

// -- Grep --

// GrepRequest searches file contents for a case-insensitive substring.
// Path scopes the search to a file or directory; empty means the workspace
// root.
type GrepRequest struct {
	Pattern string `json:"pattern" mapstructure:"pattern"`
	Path    string `json:"path,omitempty" mapstructure:"path"`
}

func (r *GrepRequest) Validate() error {
	if r.Pattern == "" {
		return &PatternRequiredError{}
	}
	return nil
}

// GrepMatch is one matching line.
type GrepMatch struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

// GrepResponse lists matches in traversal order, globally capped.
type GrepResponse struct {
	Matches []GrepMatch
	Capped  bool
	Cap     int
}

// Render returns the matches as an indented JSON array. When the cap was
// hit, a trailing note object says so.
func (r *GrepResponse) Render() string {
	entries := make([]any, 0, len(r.Matches)+1)
	for _, m := range r.Matches {
		entries = append(entries, m)
	}
	if r.Capped {
		entries = append(entries, map[string]string{
			"note": fmt.Sprintf("Results truncated at %d matches", r.Cap),
		})
	}
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(out)
}
