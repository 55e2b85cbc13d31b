package search

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/vswrite/agentcore/internal/config"
)

type mockFileInfo struct {
	name  string
	isDir bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return 0 }
func (m *mockFileInfo) Mode() os.FileMode  { return 0o644 }
func (m *mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

type mockResolver struct {
	root       string
	resolveErr error
}

func (m *mockResolver) Resolve(path string) (string, string, error) {
	if m.resolveErr != nil {
		return "", "", m.resolveErr
	}
	return filepath.Join(m.root, path), filepath.ToSlash(path), nil
}

// mockFS builds a tree from workspace-relative slash paths. Directory
// listings come back sorted by name so traversal order is deterministic.
type mockFS struct {
	root     string
	files    map[string]string
	children map[string]map[string]bool
	listErr  error
	readErr  error
}

func newMockFS(root string, files map[string]string) *mockFS {
	m := &mockFS{
		root:     root,
		files:    make(map[string]string),
		children: map[string]map[string]bool{root: {}},
	}
	for rel, content := range files {
		segments := strings.Split(rel, "/")
		dir := root
		for i, segment := range segments {
			last := i == len(segments)-1
			m.children[dir][segment] = !last
			dir = filepath.Join(dir, segment)
			if !last && m.children[dir] == nil {
				m.children[dir] = map[string]bool{}
			}
		}
		m.files[filepath.Join(root, filepath.FromSlash(rel))] = content
	}
	return m
}

func (m *mockFS) Stat(path string) (os.FileInfo, error) {
	if _, ok := m.children[path]; ok {
		return &mockFileInfo{name: filepath.Base(path), isDir: true}, nil
	}
	if _, ok := m.files[path]; ok {
		return &mockFileInfo{name: filepath.Base(path)}, nil
	}
	return nil, os.ErrNotExist
}

func (m *mockFS) ListDir(path string) ([]os.FileInfo, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	kids, ok := m.children[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	names := make([]string, 0, len(kids))
	for name := range kids {
		names = append(names, name)
	}
	sort.Strings(names)
	infos := make([]os.FileInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, &mockFileInfo{name: name, isDir: kids[name]})
	}
	return infos, nil
}

func (m *mockFS) ReadFile(path string) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	content, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(content), nil
}

type mockIgnore struct {
	ignored map[string]bool
}

func (m *mockIgnore) ShouldIgnore(rel string, isDir bool) bool {
	return m.ignored[rel]
}

type mockDetector struct{}

func (m *mockDetector) IsBinaryContent(content []byte) bool {
	for _, b := range content {
		if b == 0 {
			return true
		}
	}
	return false
}

func manuscriptTree() *mockFS {
	return newMockFS("/workspace", map[string]string{
		"notes.md":                "notes",
		"chapters/one.md":         "one",
		"chapters/two.md":         "two",
		"chapters/drafts/idea.md": "idea",
		"assets/logo.png":         "png",
	})
}

func newGlobTool(fs *mockFS, cfg *config.Config) *GlobTool {
	return NewGlobTool(fs, &mockResolver{root: "/workspace"}, cfg, "/workspace")
}

func TestGlob(t *testing.T) {
	t.Run("doublestar matches at every depth", func(t *testing.T) {
		tool := newGlobTool(manuscriptTree(), config.DefaultConfig())
		resp, err := tool.Run(context.Background(), &GlobRequest{Pattern: "**/*.md"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"chapters/drafts/idea.md", "chapters/one.md", "chapters/two.md", "notes.md"}
		if !reflect.DeepEqual(resp.Matches, want) {
			t.Errorf("matches = %v, want %v", resp.Matches, want)
		}
		if resp.Capped {
			t.Error("expected uncapped result")
		}
		if resp.Total != 4 {
			t.Errorf("total = %d, want 4", resp.Total)
		}
	})

	t.Run("single star stays at base level", func(t *testing.T) {
		tool := newGlobTool(manuscriptTree(), config.DefaultConfig())
		resp, err := tool.Run(context.Background(), &GlobRequest{Pattern: "*.md"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if want := []string{"notes.md"}; !reflect.DeepEqual(resp.Matches, want) {
			t.Errorf("matches = %v, want %v", resp.Matches, want)
		}
	})

	t.Run("directories can match", func(t *testing.T) {
		tool := newGlobTool(manuscriptTree(), config.DefaultConfig())
		resp, err := tool.Run(context.Background(), &GlobRequest{Pattern: "chap*"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if want := []string{"chapters"}; !reflect.DeepEqual(resp.Matches, want) {
			t.Errorf("matches = %v, want %v", resp.Matches, want)
		}
	})

	t.Run("path scopes the search but results stay workspace relative", func(t *testing.T) {
		tool := newGlobTool(manuscriptTree(), config.DefaultConfig())
		resp, err := tool.Run(context.Background(), &GlobRequest{Pattern: "*.md", Path: "chapters"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"chapters/one.md", "chapters/two.md"}
		if !reflect.DeepEqual(resp.Matches, want) {
			t.Errorf("matches = %v, want %v", resp.Matches, want)
		}
	})

	t.Run("cap truncates sorted matches and reports the remainder", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Tools.MaxGlobMatches = 2

		tool := newGlobTool(manuscriptTree(), cfg)
		resp, err := tool.Run(context.Background(), &GlobRequest{Pattern: "**/*.md"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"chapters/drafts/idea.md", "chapters/one.md"}
		if !reflect.DeepEqual(resp.Matches, want) {
			t.Errorf("matches = %v, want %v", resp.Matches, want)
		}
		if !resp.Capped || resp.Total != 4 {
			t.Errorf("capped = %v total = %d, want capped with total 4", resp.Capped, resp.Total)
		}
		if rendered := resp.Render(); !strings.Contains(rendered, `"... and 2 more files"`) {
			t.Errorf("rendered output missing remainder entry: %s", rendered)
		}
	})

	t.Run("renders a json array", func(t *testing.T) {
		resp := &GlobResponse{Matches: []string{"a.md"}}
		if got, want := resp.Render(), "[\n  \"a.md\"\n]"; got != want {
			t.Errorf("Render() = %q, want %q", got, want)
		}
	})

	t.Run("renders empty array for no matches", func(t *testing.T) {
		resp := &GlobResponse{}
		if got := resp.Render(); got != "[]" {
			t.Errorf("Render() = %q, want []", got)
		}
	})

	t.Run("missing base path", func(t *testing.T) {
		tool := newGlobTool(manuscriptTree(), config.DefaultConfig())
		_, err := tool.Run(context.Background(), &GlobRequest{Pattern: "*.md", Path: "nope"})

		var missingErr *PathMissingError
		if !errors.As(err, &missingErr) {
			t.Fatalf("expected PathMissingError, got %v", err)
		}
		if missingErr.Path != "nope" {
			t.Errorf("path = %q, want nope", missingErr.Path)
		}
	})

	t.Run("file base path is rejected", func(t *testing.T) {
		tool := newGlobTool(manuscriptTree(), config.DefaultConfig())
		_, err := tool.Run(context.Background(), &GlobRequest{Pattern: "*.md", Path: "notes.md"})

		var missingErr *PathMissingError
		if !errors.As(err, &missingErr) {
			t.Fatalf("expected PathMissingError, got %v", err)
		}
	})

	t.Run("malformed pattern", func(t *testing.T) {
		tool := newGlobTool(manuscriptTree(), config.DefaultConfig())
		_, err := tool.Run(context.Background(), &GlobRequest{Pattern: "[unclosed"})

		var patternErr *InvalidPatternError
		if !errors.As(err, &patternErr) {
			t.Fatalf("expected InvalidPatternError, got %v", err)
		}
	})

	t.Run("resolver error is propagated", func(t *testing.T) {
		resolveErr := errors.New("path escapes workspace")
		tool := NewGlobTool(manuscriptTree(), &mockResolver{resolveErr: resolveErr}, config.DefaultConfig(), "/workspace")

		_, err := tool.Run(context.Background(), &GlobRequest{Pattern: "*.md"})
		if !errors.Is(err, resolveErr) {
			t.Errorf("expected resolver error, got %v", err)
		}
	})

	t.Run("cancelled context stops the walk", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		tool := newGlobTool(manuscriptTree(), config.DefaultConfig())
		_, err := tool.Run(ctx, &GlobRequest{Pattern: "**/*.md"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestGlobValidation(t *testing.T) {
	tool := newGlobTool(manuscriptTree(), config.DefaultConfig())
	_, err := tool.Run(context.Background(), &GlobRequest{})

	var requiredErr *PatternRequiredError
	if !errors.As(err, &requiredErr) {
		t.Fatalf("expected PatternRequiredError, got %v", err)
	}
}
