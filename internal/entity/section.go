package entity

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const frontmatterDelim = "---"

// frontmatter is the YAML block at the top of a section file. Tags
// live here, not in the Markdown body.
type frontmatter struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title,omitempty"`
	Tags  []Tag  `yaml:"tags,omitempty"`
}

func (s *Store) sectionPath(id string) string {
	return filepath.Join(s.root, sectionsDir, id+".md")
}

// GetSection reads one section with its frontmatter.
func (s *Store) GetSection(id string) (*Section, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.sectionPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "section", ID: id}
		}
		return nil, err
	}
	return parseSection(id, string(raw))
}

// ListSections reads every section, sorted by id.
func (s *Store) ListSections() ([]Section, error) {
	dir := filepath.Join(s.root, sectionsDir)
	items, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sections []Section
	for _, item := range items {
		name := item.Name()
		if item.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		sec, err := parseSection(strings.TrimSuffix(name, ".md"), string(raw))
		if err != nil {
			continue
		}
		sections = append(sections, *sec)
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].ID < sections[j].ID })
	return sections, nil
}

// AddTag appends an entity tag to a section's frontmatter and returns
// the created tag.
func (s *Store) AddTag(sectionID, entityID string, from, to int64) (*Tag, error) {
	fm, body, err := s.readSectionParts(sectionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(entityID); err != nil {
		return nil, err
	}
	tag := Tag{ID: uuid.NewString(), EntityID: entityID, From: from, To: to}
	fm.Tags = append(fm.Tags, tag)
	if err := s.writeSection(sectionID, fm, body); err != nil {
		return nil, err
	}
	return &tag, nil
}

// RemoveTag deletes one tag by id; the result reports whether the tag
// existed.
func (s *Store) RemoveTag(sectionID, tagID string) (bool, error) {
	fm, body, err := s.readSectionParts(sectionID)
	if err != nil {
		return false, err
	}
	kept := fm.Tags[:0]
	removed := false
	for _, t := range fm.Tags {
		if t.ID == tagID {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	if !removed {
		return false, nil
	}
	fm.Tags = kept
	if err := s.writeSection(sectionID, fm, body); err != nil {
		return false, err
	}
	return true, nil
}

// Tags lists a section's tags.
func (s *Store) Tags(sectionID string) ([]Tag, error) {
	fm, _, err := s.readSectionParts(sectionID)
	if err != nil {
		return nil, err
	}
	return fm.Tags, nil
}

func (s *Store) readSectionParts(id string) (*frontmatter, string, error) {
	if err := validID(id); err != nil {
		return nil, "", err
	}
	raw, err := os.ReadFile(s.sectionPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", &NotFoundError{Kind: "section", ID: id}
		}
		return nil, "", err
	}
	fm, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return nil, "", fmt.Errorf("section %s: %w", id, err)
	}
	if fm.ID == "" {
		fm.ID = id
	}
	return fm, body, nil
}

func (s *Store) writeSection(id string, fm *frontmatter, body string) error {
	fmBytes, err := yaml.Marshal(fm)
	if err != nil {
		return err
	}
	content := frontmatterDelim + "\n" + string(fmBytes) + frontmatterDelim + "\n" + body
	if err := os.MkdirAll(filepath.Join(s.root, sectionsDir), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.sectionPath(id), []byte(content), 0o644)
}

func parseSection(id, raw string) (*Section, error) {
	fm, body, err := splitFrontmatter(raw)
	if err != nil {
		return nil, fmt.Errorf("section %s: %w", id, err)
	}
	title := fm.Title
	if title == "" {
		title = id
	}
	return &Section{ID: id, Title: title, Tags: fm.Tags, Content: body}, nil
}

// splitFrontmatter separates the leading YAML block from the Markdown
// body. A file without frontmatter is all body.
func splitFrontmatter(raw string) (*frontmatter, string, error) {
	if !strings.HasPrefix(raw, frontmatterDelim+"\n") {
		return &frontmatter{}, raw, nil
	}
	rest := raw[len(frontmatterDelim)+1:]
	idx := strings.Index(rest, "\n"+frontmatterDelim)
	if idx < 0 {
		return nil, "", fmt.Errorf("unterminated frontmatter")
	}
	head := rest[:idx+1]
	body := rest[idx+1+len(frontmatterDelim):]
	body = strings.TrimPrefix(body, "\n")

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(head), &fm); err != nil {
		return nil, "", err
	}
	return &fm, body, nil
}
