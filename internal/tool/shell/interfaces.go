package shell

import (
	"context"
	"os"
	"time"

	"github.com/vswrite/agentcore/internal/tool/service/executor"
)

// pathResolver resolves a caller-supplied path into workspace-anchored
// absolute and relative forms.
type pathResolver interface {
	Resolve(path string) (abs string, rel string, err error)
}

// fileSystem defines the minimal filesystem interface needed by the shell tool.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
}

// commandExecutor runs a command with a timeout and collects its output.
type commandExecutor interface {
	RunWithTimeout(ctx context.Context, cmd []string, dir string, env []string, timeout time.Duration) (*executor.Result, error)
}
