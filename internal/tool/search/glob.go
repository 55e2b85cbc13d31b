package search

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vswrite/agentcore/internal/config"
)

// GlobTool finds workspace files whose base-relative path matches a glob
// pattern.
type GlobTool struct {
	fs            fileSystem
	resolver      pathResolver
	config        *config.Config
	workspaceRoot string
}

// NewGlobTool creates a new GlobTool with injected dependencies.
func NewGlobTool(fs fileSystem, resolver pathResolver, cfg *config.Config, workspaceRoot string) *GlobTool {
	return &GlobTool{
		fs:            fs,
		resolver:      resolver,
		config:        cfg,
		workspaceRoot: workspaceRoot,
	}
}

// Run walks the scoped directory and collects entries matching the pattern,
// sorted by workspace-relative path. Matching covers files and directories,
// and the result list is capped with a count of what was dropped.
func (t *GlobTool) Run(ctx context.Context, req *GlobRequest) (*GlobResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	basePath := req.Path
	if basePath == "" {
		basePath = "."
	}

	absBase, relBase, err := t.resolver.Resolve(basePath)
	if err != nil {
		return nil, err
	}

	info, err := t.fs.Stat(absBase)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &PathMissingError{Path: relBase}
		}
		return nil, &StatError{Path: absBase, Cause: err}
	}
	if !info.IsDir() {
		return nil, &PathMissingError{Path: relBase}
	}

	pattern := path.Clean(filepath.ToSlash(req.Pattern))
	if _, err := path.Match(strings.ReplaceAll(pattern, "**", "*"), ""); err != nil {
		return nil, &InvalidPatternError{Pattern: req.Pattern, Cause: err}
	}

	var matches []string
	if err := t.collect(ctx, absBase, "", pattern, &matches); err != nil {
		return nil, err
	}

	sort.Strings(matches)

	total := len(matches)
	maxMatches := t.config.Tools.MaxGlobMatches
	capped := total > maxMatches
	if capped {
		matches = matches[:maxMatches]
	}

	return &GlobResponse{
		Matches: matches,
		Total:   total,
		Capped:  capped,
	}, nil
}

// collect walks dir, matching each entry's base-relative path against the
// pattern and recording workspace-relative paths for matches.
func (t *GlobTool) collect(ctx context.Context, dir, relToBase, pattern string, matches *[]string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	entries, err := t.fs.ListDir(dir)
	if err != nil {
		// Unreadable subdirectories are skipped, not fatal.
		if relToBase != "" {
			return nil
		}
		return &WalkError{Path: dir, Cause: err}
	}

	for _, entry := range entries {
		entryRel := entry.Name()
		if relToBase != "" {
			entryRel = relToBase + "/" + entry.Name()
		}

		if matchGlob(pattern, entryRel) {
			entryAbs := filepath.Join(dir, entry.Name())
			wsRel, err := filepath.Rel(t.workspaceRoot, entryAbs)
			if err == nil {
				*matches = append(*matches, filepath.ToSlash(wsRel))
			}
		}

		if entry.IsDir() {
			if err := t.collect(ctx, filepath.Join(dir, entry.Name()), entryRel, pattern, matches); err != nil {
				return err
			}
		}
	}

	return nil
}

// matchGlob matches a slash-separated relative path against a glob pattern.
// "**" matches zero or more whole path segments; other segments follow
// path.Match rules and never cross a separator.
func matchGlob(pattern, name string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			// Try consuming zero or more name segments.
			for skip := 0; skip <= len(name); skip++ {
				if matchSegments(pattern[1:], name[skip:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		ok, err := path.Match(pattern[0], name[0])
		if err != nil || !ok {
			return false
		}
		pattern = pattern[1:]
		name = name[1:]
	}
	return len(name) == 0
}
