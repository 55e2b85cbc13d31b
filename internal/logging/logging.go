// Package logging composes the binary's log output: a colorized
// terminal handler on stderr, a JSON file in the state directory, and
// the systemd journal when running as a service.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
	"golang.org/x/term"
)

// level is shared by every handler; --verbose lowers it to debug.
var level = new(slog.LevelVar)

// SetVerbose switches the shared level to debug.
func SetVerbose(verbose bool) {
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// Options configures Setup.
type Options struct {
	// StateDir receives the JSON log file; empty disables file logging.
	StateDir string
	// Stderr overrides the terminal stream, for tests.
	Stderr io.Writer
}

// Setup builds the fanout logger and installs it as slog's default.
// Handler failures degrade rather than abort: a logger the binary
// cannot build should never stop the agent from running.
func Setup(opts Options) *slog.Logger {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var handlers []slog.Handler

	underSystemd := runningUnderSystemd()
	if !underSystemd {
		handlers = append(handlers, tint.NewHandler(stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    !isTerminal(stderr),
		}))
	}

	if opts.StateDir != "" {
		if fileHandler, err := newFileHandler(opts.StateDir); err == nil {
			handlers = append(handlers, fileHandler)
		} else {
			warnTo(handlers, "cannot open log file", err)
		}
	}

	if underSystemd {
		journalHandler, err := slogjournal.NewHandler(&slogjournal.Options{
			ReplaceGroup: toJournalKey,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			warnTo(handlers, "cannot open systemd journal", err)
		} else {
			handlers = append(handlers, journalHandler)
		}
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	slog.SetDefault(logger)
	return logger
}

func newFileHandler(stateDir string) (slog.Handler, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(stateDir, "agent.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}), nil
}

func warnTo(handlers []slog.Handler, msg string, err error) {
	if len(handlers) == 0 {
		return
	}
	record := slog.NewRecord(time.Now(), slog.LevelWarn, msg, 0)
	record.Add("error", err)
	_ = handlers[0].Handle(context.Background(), record)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// runningUnderSystemd checks whether our cgroup belongs to a .service
// unit.
func runningUnderSystemd() bool {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	parts := strings.Split(strings.TrimSpace(string(content)), ":")
	if len(parts) < 3 {
		return false
	}
	return strings.HasSuffix(path.Dir(parts[2]), ".service")
}

// toJournalKey maps attribute keys to journald's uppercase field
// charset.
func toJournalKey(key string) string {
	key = strings.ToUpper(key)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, key)
}
