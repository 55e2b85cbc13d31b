package file

import (
	"fmt"

	"github.com/vswrite/agentcore/internal/config"
)

// -- Read File --

// ReadFileRequest asks for a line range of a text file. Offset is a 1-based
// line number; zero means start at the first line. Limit zero means the
// configured per-call maximum.
type ReadFileRequest struct {
	Path   string `json:"path" mapstructure:"path"`
	Offset int    `json:"offset,omitempty" mapstructure:"offset"`
	Limit  int    `json:"limit,omitempty" mapstructure:"limit"`
}

func (r *ReadFileRequest) Validate(cfg *config.Config) error {
	if r.Path == "" {
		return &PathRequiredError{}
	}
	if r.Offset < 0 {
		return &NegativeValueError{Field: "offset", Value: r.Offset}
	}
	if r.Limit < 0 {
		return &NegativeValueError{Field: "limit", Value: r.Limit}
	}
	return nil
}

// ReadFileResponse carries numbered file content. Content holds one
// "%6d\t<line>" row per line read.
type ReadFileResponse struct {
	RelativePath string
	Content      string
	StartLine    int
	EndLine      int
	Truncated    bool
}

// Render returns the numbered content as shown to the model.
func (r *ReadFileResponse) Render() string {
	return r.Content
}

// -- Write File --

type WriteFileRequest struct {
	Path    string `json:"path" mapstructure:"path"`
	Content string `json:"content" mapstructure:"content"`
}

func (r *WriteFileRequest) Validate(cfg *config.Config) error {
	if r.Path == "" {
		return &PathRequiredError{}
	}
	if int64(len(r.Content)) > cfg.Tools.MaxFileSize {
		return &TooLargeError{Path: r.Path, Size: int64(len(r.Content)), Limit: cfg.Tools.MaxFileSize}
	}
	return nil
}

type WriteFileResponse struct {
	RelativePath string
	BytesWritten int
}

func (r *WriteFileResponse) Render() string {
	return fmt.Sprintf("Wrote %d bytes to %s", r.BytesWritten, r.RelativePath)
}

// -- Append File --

type AppendFileRequest struct {
	Path    string `json:"path" mapstructure:"path"`
	Content string `json:"content" mapstructure:"content"`
}

func (r *AppendFileRequest) Validate(cfg *config.Config) error {
	if r.Path == "" {
		return &PathRequiredError{}
	}
	if int64(len(r.Content)) > cfg.Tools.MaxFileSize {
		return &TooLargeError{Path: r.Path, Size: int64(len(r.Content)), Limit: cfg.Tools.MaxFileSize}
	}
	return nil
}

type AppendFileResponse struct {
	RelativePath  string
	BytesAppended int
}

func (r *AppendFileResponse) Render() string {
	return fmt.Sprintf("Appended %d bytes to %s", r.BytesAppended, r.RelativePath)
}

// -- Delete File --

type DeleteFileRequest struct {
	Path string `json:"path" mapstructure:"path"`
}

func (r *DeleteFileRequest) Validate(cfg *config.Config) error {
	if r.Path == "" {
		return &PathRequiredError{}
	}
	return nil
}

type DeleteFileResponse struct {
	RelativePath string
}

func (r *DeleteFileResponse) Render() string {
	return "Deleted " + r.RelativePath
}
