package search

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/vswrite/agentcore/internal/config"
)

// skipDirs are never descended into during a content search.
var skipDirs = map[string]bool{
	"node_modules": true,
	"target":       true,
	"__pycache__":  true,
	".git":         true,
}

// textExtensions are the file types searched by content. Files without an
// extension are tried as text and skipped if they turn out to be binary.
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".rs": true, ".py": true, ".js": true,
	".ts": true, ".tsx": true, ".jsx": true, ".json": true, ".yaml": true,
	".yml": true, ".toml": true, ".html": true, ".css": true, ".scss": true,
	".vue": true, ".svelte": true, ".go": true,
}

// GrepTool searches file contents for a case-insensitive substring.
type GrepTool struct {
	fs             fileSystem
	ignore         ignoreMatcher
	binaryDetector binaryDetector
	resolver       pathResolver
	config         *config.Config
	workspaceRoot  string
}

// NewGrepTool creates a new GrepTool with injected dependencies.
func NewGrepTool(
	fs fileSystem,
	ignore ignoreMatcher,
	binaryDetector binaryDetector,
	resolver pathResolver,
	cfg *config.Config,
	workspaceRoot string,
) *GrepTool {
	return &GrepTool{
		fs:             fs,
		ignore:         ignore,
		binaryDetector: binaryDetector,
		resolver:       resolver,
		config:         cfg,
		workspaceRoot:  workspaceRoot,
	}
}

// Run searches the scoped file or directory tree. Hidden entries, common
// build directories and gitignored paths are skipped; matching lines are
// clipped and the total match count is capped.
func (t *GrepTool) Run(ctx context.Context, req *GrepRequest) (*GrepResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	searchPath := req.Path
	if searchPath == "" {
		searchPath = "."
	}

	abs, rel, err := t.resolver.Resolve(searchPath)
	if err != nil {
		return nil, err
	}

	info, err := t.fs.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &PathMissingError{Path: rel}
		}
		return nil, &StatError{Path: abs, Cause: err}
	}

	maxMatches := t.config.Tools.MaxGrepMatches
	patternLower := strings.ToLower(req.Pattern)

	var matches []GrepMatch
	if info.IsDir() {
		err = t.searchDir(ctx, abs, patternLower, maxMatches, &matches)
	} else {
		// A directly named file skips the extension filter, but binary
		// content still produces no matches.
		err = t.searchFile(abs, patternLower, maxMatches, true, &matches)
	}
	if err != nil {
		return nil, err
	}

	return &GrepResponse{
		Matches: matches,
		Capped:  len(matches) >= maxMatches,
		Cap:     maxMatches,
	}, nil
}

func (t *GrepTool) searchDir(ctx context.Context, dir, pattern string, maxMatches int, matches *[]GrepMatch) error {
	if len(*matches) >= maxMatches {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	entries, err := t.fs.ListDir(dir)
	if err != nil {
		// Unreadable directories are skipped.
		return nil
	}

	for _, entry := range entries {
		if len(*matches) >= maxMatches {
			return nil
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") || skipDirs[name] {
			continue
		}

		entryAbs := filepath.Join(dir, name)
		if wsRel, err := filepath.Rel(t.workspaceRoot, entryAbs); err == nil {
			if t.ignore.ShouldIgnore(filepath.ToSlash(wsRel), entry.IsDir()) {
				continue
			}
		}

		if entry.IsDir() {
			if err := t.searchDir(ctx, entryAbs, pattern, maxMatches, matches); err != nil {
				return err
			}
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		switch {
		case textExtensions[ext]:
			if err := t.searchFile(entryAbs, pattern, maxMatches, false, matches); err != nil {
				return err
			}
		case ext == "":
			if err := t.searchFile(entryAbs, pattern, maxMatches, true, matches); err != nil {
				return err
			}
		}
	}

	return nil
}

func (t *GrepTool) searchFile(abs, pattern string, maxMatches int, checkBinary bool, matches *[]GrepMatch) error {
	raw, err := t.fs.ReadFile(abs)
	if err != nil {
		// Unreadable files are skipped.
		return nil
	}

	if checkBinary && t.binaryDetector.IsBinaryContent(raw) {
		return nil
	}

	rel := abs
	if wsRel, err := filepath.Rel(t.workspaceRoot, abs); err == nil {
		rel = filepath.ToSlash(wsRel)
	}

	maxLineLength := t.config.Tools.MaxLineLength

	for i, line := range strings.Split(string(raw), "\n") {
		if strings.Contains(strings.ToLower(line), pattern) {
			if len(line) > maxLineLength {
				line = line[:maxLineLength] + "..."
			}
			*matches = append(*matches, GrepMatch{
				File:    rel,
				Line:    i + 1,
				Content: line,
			})
			if len(*matches) >= maxMatches {
				return nil
			}
		}
	}

	return nil
}
