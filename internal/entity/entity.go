// Package entity reads and writes the project's structured knowledge
// base: entities stored as YAML documents under entities/ and sections
// stored as Markdown with YAML frontmatter under sections/. Extensions
// reach this API through the sandbox capability table, gated by the
// entity read/write/tag permission flags.
package entity

import (
	"fmt"
)

// Type classifies an entity. Unknown wire values map to TypeCustom.
type Type string

const (
	TypeFact         Type = "fact"
	TypeRule         Type = "rule"
	TypeConcept      Type = "concept"
	TypeRelationship Type = "relationship"
	TypeEvent        Type = "event"
	TypeCustom       Type = "custom"
)

// ParseType normalizes a wire value to a known Type.
func ParseType(s string) Type {
	switch Type(s) {
	case TypeFact, TypeRule, TypeConcept, TypeRelationship, TypeEvent:
		return Type(s)
	default:
		return TypeCustom
	}
}

// Entity is one YAML document under entities/.
type Entity struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Type        Type           `yaml:"type" json:"type"`
	Description string         `yaml:"description,omitempty" json:"description"`
	Aliases     []string       `yaml:"aliases,omitempty" json:"aliases"`
	Metadata    map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Tag anchors an entity reference to a character range in a section.
type Tag struct {
	ID       string `yaml:"id" json:"id"`
	EntityID string `yaml:"entity_id" json:"entityId"`
	From     int64  `yaml:"from" json:"from"`
	To       int64  `yaml:"to" json:"to"`
}

// Section is one Markdown file under sections/ plus its frontmatter.
type Section struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Tags    []Tag  `json:"tags"`
	Content string `json:"content"`
}

// Relationships pairs an entity with every section referencing it.
type Relationships struct {
	Entity   Entity    `json:"entity"`
	Sections []Section `json:"sections"`
}

// NotFoundError reports a missing entity or section.
type NotFoundError struct {
	Kind string // "entity" or "section"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) NotFound() bool { return true }
