package file

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/vswrite/agentcore/internal/config"
)

// fileReader defines the minimal filesystem operations needed for reading files.
type fileReader interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}

// ReadFileTool reads text files as numbered line ranges.
type ReadFileTool struct {
	fileOps        fileReader
	binaryDetector binaryDetector
	resolver       pathResolver
	config         *config.Config
}

// NewReadFileTool creates a new ReadFileTool with injected dependencies.
func NewReadFileTool(
	fileOps fileReader,
	binaryDetector binaryDetector,
	resolver pathResolver,
	cfg *config.Config,
) *ReadFileTool {
	return &ReadFileTool{
		fileOps:        fileOps,
		binaryDetector: binaryDetector,
		resolver:       resolver,
		config:         cfg,
	}
}

// Run reads a line range of a file inside the workspace. Each returned line
// carries a right-aligned 1-based line number followed by a tab. Long lines
// are clipped, and at most the configured number of lines comes back per
// call. Binary files and oversized files are refused.
//
// Note: ctx is accepted for API consistency but not used - file I/O is synchronous.
func (t *ReadFileTool) Run(ctx context.Context, req *ReadFileRequest) (*ReadFileResponse, error) {
	if err := req.Validate(t.config); err != nil {
		return nil, err
	}

	abs, rel, err := t.resolver.Resolve(req.Path)
	if err != nil {
		return nil, err
	}

	info, err := t.fileOps.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileMissingError{Path: rel}
		}
		return nil, &StatError{Path: abs, Cause: err}
	}

	if info.IsDir() {
		return nil, &NotAFileError{Path: rel}
	}

	maxFileSize := t.config.Tools.MaxFileSize
	if info.Size() > maxFileSize {
		return nil, &TooLargeError{Path: rel, Size: info.Size(), Limit: maxFileSize}
	}

	raw, err := t.fileOps.ReadFile(abs)
	if err != nil {
		return nil, &ReadError{Path: abs, Cause: err}
	}

	if t.binaryDetector.IsBinaryContent(raw) {
		return nil, &BinaryFileError{Path: rel}
	}

	// Offset is a 1-based line number. Limit defaults to, and is capped
	// at, the configured per-call maximum.
	offset := req.Offset
	if offset < 1 {
		offset = 1
	}
	limit := req.Limit
	if limit == 0 || limit > t.config.Tools.MaxReadLines {
		limit = t.config.Tools.MaxReadLines
	}
	maxLineLength := t.config.Tools.MaxReadLineLength

	lines := splitLines(string(raw))

	var b strings.Builder
	lineNum := 0
	for _, line := range lines {
		lineNum++
		if lineNum < offset {
			continue
		}
		if lineNum >= offset+limit {
			// More lines remain past the window.
			lineNum--
			break
		}
		if len(line) > maxLineLength {
			line = line[:maxLineLength] + "...[truncated]"
		}
		fmt.Fprintf(&b, "%6d\t%s\n", lineNum, line)
	}

	if b.Len() == 0 && lineNum < offset {
		return nil, &OffsetBeyondEndError{Offset: offset, TotalLines: lineNum}
	}

	return &ReadFileResponse{
		RelativePath: rel,
		Content:      b.String(),
		StartLine:    offset,
		EndLine:      lineNum,
		Truncated:    lineNum < len(lines),
	}, nil
}

// splitLines splits content on newlines without a trailing phantom line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
