package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vswrite/agentcore/internal/config"
)

// Local mocks shared by the file tool tests.

type mockFileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
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

type mockLocks struct {
	locked []string
}

func (m *mockLocks) Lock(abs string) func() {
	m.locked = append(m.locked, abs)
	return func() {}
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

type mockReadFS struct {
	files   map[string][]byte
	dirs    map[string]bool
	readErr error
}

func newMockReadFS() *mockReadFS {
	return &mockReadFS{files: make(map[string][]byte), dirs: make(map[string]bool)}
}

func (m *mockReadFS) Stat(path string) (os.FileInfo, error) {
	if m.dirs[path] {
		return &mockFileInfo{name: path, isDir: true}, nil
	}
	if content, ok := m.files[path]; ok {
		return &mockFileInfo{name: path, size: int64(len(content))}, nil
	}
	return nil, os.ErrNotExist
}

func (m *mockReadFS) ReadFile(path string) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	content, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return content, nil
}

func newReadTool(fs *mockReadFS, cfg *config.Config) *ReadFileTool {
	return NewReadFileTool(fs, &mockDetector{}, &mockResolver{root: "/workspace"}, cfg)
}

func TestReadFile(t *testing.T) {
	t.Run("numbers every line", func(t *testing.T) {
		fs := newMockReadFS()
		fs.files["/workspace/notes.md"] = []byte("alpha\nbeta\ngamma\n")

		resp, err := newReadTool(fs, config.DefaultConfig()).Run(context.Background(), &ReadFileRequest{Path: "notes.md"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := "     1\talpha\n     2\tbeta\n     3\tgamma\n"
		if resp.Content != expected {
			t.Errorf("expected content %q, got %q", expected, resp.Content)
		}
		if resp.StartLine != 1 || resp.EndLine != 3 {
			t.Errorf("expected lines 1-3, got %d-%d", resp.StartLine, resp.EndLine)
		}
		if resp.Truncated {
			t.Error("full read must not be marked truncated")
		}
	})

	t.Run("offset and limit window", func(t *testing.T) {
		fs := newMockReadFS()
		fs.files["/workspace/notes.md"] = []byte("l1\nl2\nl3\nl4\nl5\n")

		resp, err := newReadTool(fs, config.DefaultConfig()).Run(context.Background(), &ReadFileRequest{Path: "notes.md", Offset: 2, Limit: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := "     2\tl2\n     3\tl3\n"
		if resp.Content != expected {
			t.Errorf("expected content %q, got %q", expected, resp.Content)
		}
		if !resp.Truncated {
			t.Error("windowed read must be marked truncated")
		}
	})

	t.Run("limit capped at configured maximum", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Tools.MaxReadLines = 2
		fs := newMockReadFS()
		fs.files["/workspace/notes.md"] = []byte("l1\nl2\nl3\n")

		resp, err := newReadTool(fs, cfg).Run(context.Background(), &ReadFileRequest{Path: "notes.md", Limit: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.EndLine != 2 {
			t.Errorf("expected read to stop at line 2, got %d", resp.EndLine)
		}
		if !resp.Truncated {
			t.Error("capped read must be marked truncated")
		}
	})

	t.Run("long lines are clipped", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Tools.MaxReadLineLength = 10
		fs := newMockReadFS()
		fs.files["/workspace/notes.md"] = []byte(strings.Repeat("x", 30) + "\n")

		resp, err := newReadTool(fs, cfg).Run(context.Background(), &ReadFileRequest{Path: "notes.md"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := "     1\t" + strings.Repeat("x", 10) + "...[truncated]\n"
		if resp.Content != expected {
			t.Errorf("expected clipped content %q, got %q", expected, resp.Content)
		}
	})

	t.Run("offset beyond end of file", func(t *testing.T) {
		fs := newMockReadFS()
		fs.files["/workspace/notes.md"] = []byte("only\n")

		_, err := newReadTool(fs, config.DefaultConfig()).Run(context.Background(), &ReadFileRequest{Path: "notes.md", Offset: 10})
		var offErr *OffsetBeyondEndError
		if !errors.As(err, &offErr) {
			t.Fatalf("expected OffsetBeyondEndError, got %T: %v", err, err)
		}
		if offErr.Offset != 10 || offErr.TotalLines != 1 {
			t.Errorf("unexpected error detail: %+v", offErr)
		}
	})

	t.Run("binary file rejected", func(t *testing.T) {
		fs := newMockReadFS()
		fs.files["/workspace/data.bin"] = []byte{0x00, 0x01, 't'}

		_, err := newReadTool(fs, config.DefaultConfig()).Run(context.Background(), &ReadFileRequest{Path: "data.bin"})
		var binErr *BinaryFileError
		if !errors.As(err, &binErr) {
			t.Fatalf("expected BinaryFileError, got %T: %v", err, err)
		}
	})

	t.Run("oversized file rejected", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Tools.MaxFileSize = 4
		fs := newMockReadFS()
		fs.files["/workspace/big.txt"] = []byte("12345")

		_, err := newReadTool(fs, cfg).Run(context.Background(), &ReadFileRequest{Path: "big.txt"})
		var sizeErr *TooLargeError
		if !errors.As(err, &sizeErr) {
			t.Fatalf("expected TooLargeError, got %T: %v", err, err)
		}
	})

	t.Run("directory rejected", func(t *testing.T) {
		fs := newMockReadFS()
		fs.dirs["/workspace/subdir"] = true

		_, err := newReadTool(fs, config.DefaultConfig()).Run(context.Background(), &ReadFileRequest{Path: "subdir"})
		var dirErr *NotAFileError
		if !errors.As(err, &dirErr) {
			t.Fatalf("expected NotAFileError, got %T: %v", err, err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		fs := newMockReadFS()

		_, err := newReadTool(fs, config.DefaultConfig()).Run(context.Background(), &ReadFileRequest{Path: "ghost.txt"})
		var missErr *FileMissingError
		if !errors.As(err, &missErr) {
			t.Fatalf("expected FileMissingError, got %T: %v", err, err)
		}
	})

	t.Run("resolver error propagates", func(t *testing.T) {
		fs := newMockReadFS()
		tool := NewReadFileTool(fs, &mockDetector{}, &mockResolver{resolveErr: errors.New("outside workspace")}, config.DefaultConfig())

		_, err := tool.Run(context.Background(), &ReadFileRequest{Path: "../etc/passwd"})
		if err == nil || !strings.Contains(err.Error(), "outside workspace") {
			t.Fatalf("expected resolver error, got %v", err)
		}
	})
}

func TestReadFileValidation(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		name string
		req  ReadFileRequest
	}{
		{"empty path", ReadFileRequest{}},
		{"negative offset", ReadFileRequest{Path: "a.txt", Offset: -1}},
		{"negative limit", ReadFileRequest{Path: "a.txt", Limit: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
