package gitutil

import (
	"errors"
	"os"
	"testing"
)

// mockFileSystem is a local mock for gitignore loading.
type mockFileSystem struct {
	files   map[string][]byte
	readErr error
}

func newMockFileSystem() *mockFileSystem {
	return &mockFileSystem{
		files: make(map[string][]byte),
	}
}

func (m *mockFileSystem) createFile(path string, content []byte) {
	m.files[path] = content
}

func (m *mockFileSystem) Stat(path string) (os.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return nil, nil // File exists
	}
	return nil, os.ErrNotExist
}

func (m *mockFileSystem) ReadFile(path string) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	content, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return content, nil
}

func TestLoadGitignore(t *testing.T) {
	workspaceRoot := "/workspace"

	t.Run("load gitignore from workspace root", func(t *testing.T) {
		fs := newMockFileSystem()
		fs.createFile("/workspace/.gitignore", []byte("*.log\n*.tmp\n"))

		matcher, err := NewIgnoreMatcher(workspaceRoot, fs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if matcher == nil {
			t.Fatal("expected non-nil matcher")
		}

		if !matcher.ShouldIgnore("test.log", false) {
			t.Error("expected test.log to be ignored")
		}
		if !matcher.ShouldIgnore("file.tmp", false) {
			t.Error("expected file.tmp to be ignored")
		}
		if matcher.ShouldIgnore("test.txt", false) {
			t.Error("expected test.txt not to be ignored")
		}
	})

	t.Run("non-existent gitignore should not error", func(t *testing.T) {
		fs := newMockFileSystem()

		matcher, err := NewIgnoreMatcher(workspaceRoot, fs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if matcher == nil {
			t.Fatal("expected non-nil matcher")
		}

		if matcher.ShouldIgnore("test.log", false) {
			t.Error("expected no files to be ignored without .gitignore")
		}
	})

	t.Run("comment and blank lines are skipped", func(t *testing.T) {
		fs := newMockFileSystem()
		fs.createFile("/workspace/.gitignore", []byte("# build output\n\n*.log\n"))

		matcher, err := NewIgnoreMatcher(workspaceRoot, fs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !matcher.ShouldIgnore("app.log", false) {
			t.Error("expected app.log to be ignored")
		}
		if matcher.ShouldIgnore("build output", false) {
			t.Error("comment line must not become a pattern")
		}
	})

	t.Run("dotfiles matching gitignore patterns", func(t *testing.T) {
		fs := newMockFileSystem()
		fs.createFile("/workspace/.gitignore", []byte("*.log\n"))

		matcher, err := NewIgnoreMatcher(workspaceRoot, fs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !matcher.ShouldIgnore(".test.log", false) {
			t.Error("expected .test.log to be ignored")
		}
		if matcher.ShouldIgnore(".keep", false) {
			t.Error("expected .keep not to be ignored")
		}
	})
}

func TestNewIgnoreMatcherErrors(t *testing.T) {
	workspaceRoot := "/workspace"

	t.Run("ReadError", func(t *testing.T) {
		fs := newMockFileSystem()
		fs.createFile("/workspace/.gitignore", []byte("*.log"))
		fs.readErr = errors.New("disk failure")

		_, err := NewIgnoreMatcher(workspaceRoot, fs)
		if err == nil {
			t.Error("expected error for read failure")
		}
		var gitErr *GitignoreReadError
		if !errors.As(err, &gitErr) {
			t.Errorf("expected GitignoreReadError, got %T: %v", err, err)
		}
	})
}

func TestShouldIgnoreLogic(t *testing.T) {
	workspaceRoot := "/workspace"

	t.Run("WindowsLineEndings", func(t *testing.T) {
		fs := newMockFileSystem()
		fs.createFile("/workspace/.gitignore", []byte("*.log\r\nnode_modules\r\n"))

		matcher, err := NewIgnoreMatcher(workspaceRoot, fs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !matcher.ShouldIgnore("app.log", false) {
			t.Error("failed to match pattern with CRLF")
		}
		if !matcher.ShouldIgnore("node_modules/foo", false) {
			t.Error("failed to match directory with CRLF")
		}
	})

	t.Run("PathNormalization", func(t *testing.T) {
		fs := newMockFileSystem()
		fs.createFile("/workspace/.gitignore", []byte("*.log"))

		matcher, err := NewIgnoreMatcher(workspaceRoot, fs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !matcher.ShouldIgnore("foo//bar.log", false) {
			t.Error("failed to ignore path with consecutive slashes")
		}
		if !matcher.ShouldIgnore("./baz.log", false) {
			t.Error("failed to ignore path with dot prefix")
		}
	})

	t.Run("DirectoryOnlyPattern", func(t *testing.T) {
		fs := newMockFileSystem()
		fs.createFile("/workspace/.gitignore", []byte("dist/\n"))

		matcher, err := NewIgnoreMatcher(workspaceRoot, fs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !matcher.ShouldIgnore("dist", true) {
			t.Error("expected dist directory to be ignored")
		}
		if matcher.ShouldIgnore("dist", false) {
			t.Error("dir-only pattern must not match a plain file")
		}
	})
}

func TestNoOpMatcher(t *testing.T) {
	m := &NoOpMatcher{}
	if m.ShouldIgnore("anything.log", false) {
		t.Error("NoOpMatcher must never ignore")
	}
	if m.ShouldIgnore("node_modules", true) {
		t.Error("NoOpMatcher must never ignore")
	}
}
