package entity

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	entitiesDir = "entities"
	sectionsDir = "sections"
)

// Store provides entity and section access rooted at one workspace.
// Entity ids double as file names, so they pass the same restricted
// charset check as extension ids before touching the filesystem.
type Store struct {
	root string
}

// NewStore creates a store over a workspace root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

func validID(id string) error {
	if id == "" || len(id) > 128 {
		return fmt.Errorf("invalid id %q", id)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("invalid id %q", id)
		}
	}
	return nil
}

func (s *Store) entityPath(id string) string {
	return filepath.Join(s.root, entitiesDir, id+".yaml")
}

// Get returns one entity by id.
func (s *Store) Get(id string) (*Entity, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.entityPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "entity", ID: id}
		}
		return nil, err
	}
	var e Entity
	if err := yaml.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("entity %s: %w", id, err)
	}
	e.Type = ParseType(string(e.Type))
	return &e, nil
}

// ListAll returns every entity, sorted by id.
func (s *Store) ListAll() ([]Entity, error) {
	dir := filepath.Join(s.root, entitiesDir)
	items, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entities []Entity
	for _, item := range items {
		name := item.Name()
		if item.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var e Entity
		if err := yaml.Unmarshal(raw, &e); err != nil {
			// One corrupt file must not hide the rest of the store.
			continue
		}
		e.Type = ParseType(string(e.Type))
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
	return entities, nil
}

// ListByType returns entities of one type, sorted by id.
func (s *Store) ListByType(t string) ([]Entity, error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	want := ParseType(t)
	var out []Entity
	for _, e := range all {
		if e.Type == want {
			out = append(out, e)
		}
	}
	return out, nil
}

// Search matches query case-insensitively against entity names,
// descriptions and aliases.
func (s *Store) Search(query string) ([]Entity, error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []Entity
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Description), q) ||
			anyContains(e.Aliases, q) {
			out = append(out, e)
		}
	}
	return out, nil
}

func anyContains(values []string, q string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

// Put writes an entity document, creating entities/ on first use.
func (s *Store) Put(e *Entity) error {
	if err := validID(e.ID); err != nil {
		return err
	}
	e.Type = ParseType(string(e.Type))
	raw, err := yaml.Marshal(e)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(s.root, entitiesDir), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.entityPath(e.ID), raw, 0o644)
}

// Delete removes an entity document. Deleting a missing entity is not
// an error; the result reports whether anything was removed.
func (s *Store) Delete(id string) (bool, error) {
	if err := validID(id); err != nil {
		return false, err
	}
	err := os.Remove(s.entityPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Relationships returns the entity together with every section that
// tags it.
func (s *Store) Relationships(entityID string) (*Relationships, error) {
	e, err := s.Get(entityID)
	if err != nil {
		return nil, err
	}
	sections, err := s.ListSections()
	if err != nil {
		return nil, err
	}
	var related []Section
	for _, sec := range sections {
		for _, tag := range sec.Tags {
			if tag.EntityID == entityID {
				related = append(related, sec)
				break
			}
		}
	}
	return &Relationships{Entity: *e, Sections: related}, nil
}
