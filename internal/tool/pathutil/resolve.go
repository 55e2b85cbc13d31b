package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// FileSystem defines the minimal filesystem interface needed for path resolution.
type FileSystem interface {
	Lstat(path string) (os.FileInfo, error)
	Readlink(path string) (string, error)
	UserHomeDir() (string, error)
}

// maxHops bounds symlink chain traversal.
const maxHops = 64

// CanonicaliseRoot canonicalises a workspace root path by making it absolute and resolving symlinks.
// Returns an error if the path doesn't exist or isn't a directory.
func CanonicaliseRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &WorkspaceRootError{Root: root, Cause: err}
	}

	// Resolve symlinks in the workspace root to get canonical path
	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", &WorkspaceRootError{Root: root, Cause: err}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", &WorkspaceRootError{Root: root, Cause: err}
	}
	if !info.IsDir() {
		return "", &NotADirectoryError{Path: resolved}
	}
	return resolved, nil
}

// Resolver validates tool paths against one canonical workspace root.
type Resolver struct {
	root string
	fs   FileSystem
}

// NewResolver creates a Resolver for a canonicalised workspace root.
func NewResolver(root string, fs FileSystem) *Resolver {
	return &Resolver{root: root, fs: fs}
}

// Root returns the workspace root this resolver guards.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve normalises a path and ensures it's within the workspace root.
// It refuses sensitive files (secrets, keys, credential stores), handles
// symlink resolution component-by-component, prevents path traversal, and
// validates that the resolved path stays within the workspace boundary.
// Returns the absolute path, relative path, and any error.
func (r *Resolver) Resolve(path string) (abs string, rel string, err error) {
	if r.root == "" {
		return "", "", ErrWorkspaceRootNotSet
	}

	// Handle tilde expansion
	if strings.HasPrefix(path, "~/") {
		home, err := r.fs.UserHomeDir()
		if err != nil {
			return "", "", &TildeExpansionError{Cause: err}
		}
		path = filepath.Join(home, path[2:])
	}

	// Get absolute path of the input to ensure we can calculate relation to root
	var absInput string
	if filepath.IsAbs(path) {
		absInput = filepath.Clean(path)
	} else {
		absInput = filepath.Join(r.root, path)
	}

	rootAbs := filepath.Clean(r.root)

	// Calculate initial relative path to see if it's lexically within root
	relPath, err := filepath.Rel(rootAbs, absInput)
	if err != nil {
		return "", "", ErrOutsideWorkspace
	}

	// Check for path traversal attempts in the relative path
	if strings.HasPrefix(relPath, "..") {
		return "", "", ErrOutsideWorkspace
	}

	// If the path is just the root, we're done
	if relPath == "." {
		return rootAbs, "", nil
	}

	if reason := sensitiveReason(relPath); reason != "" {
		return "", "", &SensitivePathError{Path: relPath, Reason: reason}
	}

	// Resolve symlinks component-by-component using the relative path.
	// This ensures we only validate components *inside* the workspace.
	resolvedAbs, err := r.resolveRelativePath(relPath)
	if err != nil {
		return "", "", err
	}

	// Calculate final relative path from the resolved absolute path
	finalRel, err := filepath.Rel(rootAbs, resolvedAbs)
	if err != nil {
		return "", "", ErrOutsideWorkspace
	}

	// Normalise to use forward slashes for relative path
	finalRel = filepath.ToSlash(finalRel)
	if finalRel == "." {
		finalRel = ""
	}

	return resolvedAbs, finalRel, nil
}

// resolveRelativePath resolves a relative path component-by-component with symlink resolution.
// It assumes the input relPath is lexically within the workspace (does not start with ..).
// Returns the resolved absolute path or an error if the path escapes the workspace.
func (r *Resolver) resolveRelativePath(relPath string) (string, error) {
	rootAbs := filepath.Clean(r.root)

	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) == 0 {
		return rootAbs, nil
	}

	currentAbs := rootAbs

	// Walk each component, resolving symlinks as we go
	for i := range parts {
		if parts[i] == "" || parts[i] == "." {
			continue
		}

		if parts[i] == ".." {
			if currentAbs == rootAbs {
				// Can't go up from root
				return "", ErrOutsideWorkspace
			}
			currentAbs = filepath.Dir(currentAbs)
			if !isWithinWorkspace(currentAbs, rootAbs) {
				return "", ErrOutsideWorkspace
			}
			continue
		}

		next := filepath.Join(currentAbs, parts[i])

		// Follow symlink chain for this component
		resolved, exists, err := r.followSymlinkChain(next, rootAbs)
		if err != nil {
			return "", err
		}

		if !exists {
			// Component doesn't exist. For intermediate components,
			// append the remainder and let the caller create the
			// directories; for the final component validate the parent.
			if i < len(parts)-1 {
				currentAbs = appendRemainingComponents(currentAbs, parts, i)
				if !isWithinWorkspace(currentAbs, rootAbs) {
					return "", ErrOutsideWorkspace
				}
				return currentAbs, nil
			}
			if !isWithinWorkspace(currentAbs, rootAbs) {
				return "", ErrOutsideWorkspace
			}
			currentAbs = resolved
			continue
		}

		currentAbs = resolved

		// Validate current path is within workspace after each step
		if !isWithinWorkspace(currentAbs, rootAbs) {
			return "", ErrOutsideWorkspace
		}
	}

	return currentAbs, nil
}

// followSymlinkChain follows a symlink chain until it reaches a non-symlink or detects a loop.
// Returns the resolved path, whether the path exists, and any error.
// Returns an error if the chain exceeds maxHops or escapes the workspace.
func (r *Resolver) followSymlinkChain(path string, rootAbs string) (resolved string, exists bool, err error) {
	visited := make(map[string]struct{})
	current := path

	for hopCount := 0; hopCount <= maxHops; hopCount++ {
		if _, seen := visited[current]; seen {
			return "", false, &SymlinkLoopError{Path: current}
		}
		visited[current] = struct{}{}

		info, err := r.fs.Lstat(current)
		if err != nil {
			if os.IsNotExist(err) {
				return current, false, nil
			}
			return "", false, &LstatError{Path: current, Cause: err}
		}

		// If not a symlink, we're done
		if info.Mode()&os.ModeSymlink == 0 {
			if !isWithinWorkspace(current, rootAbs) {
				return "", false, ErrOutsideWorkspace
			}
			return current, true, nil
		}

		linkTarget, err := r.fs.Readlink(current)
		if err != nil {
			return "", false, &ReadlinkError{Path: current, Cause: err}
		}

		// Resolve symlink target to absolute path
		var targetAbs string
		if filepath.IsAbs(linkTarget) {
			targetAbs = filepath.Clean(linkTarget)
		} else {
			// Relative symlink - resolve relative to symlink's directory
			targetAbs = filepath.Clean(filepath.Join(filepath.Dir(current), linkTarget))
		}

		// Reject immediately if the target leaves the workspace
		if !isWithinWorkspace(targetAbs, rootAbs) {
			return "", false, ErrOutsideWorkspace
		}

		current = targetAbs
	}

	return "", false, ErrSymlinkChainTooLong
}

// buildNextPathComponent joins a path component to the current path, handling edge cases.
func buildNextPathComponent(current, part string) string {
	switch current {
	case "":
		return part
	case "/":
		return "/" + part
	default:
		return filepath.Join(current, part)
	}
}

// appendRemainingComponents appends remaining path components to the current path.
func appendRemainingComponents(current string, parts []string, start int) string {
	remaining := parts[start:]
	for j := range remaining {
		if remaining[j] == "" || remaining[j] == "." {
			continue
		}
		current = buildNextPathComponent(current, remaining[j])
	}
	return current
}

// isWithinWorkspace checks if a path is within the workspace root boundary.
// Returns true if the path is the workspace root or a subdirectory/file within it.
func isWithinWorkspace(path, workspaceRoot string) bool {
	workspaceRootAbs := filepath.Clean(workspaceRoot)
	pathAbs := filepath.Clean(path)

	if pathAbs == workspaceRootAbs {
		return true
	}

	rel, err := filepath.Rel(workspaceRootAbs, pathAbs)
	if err != nil {
		return false
	}

	if strings.HasPrefix(rel, "..") {
		return false
	}

	// Ensure it's actually within (not just a sibling)
	workspaceRootWithSep := workspaceRootAbs + string(filepath.Separator)
	return strings.HasPrefix(pathAbs, workspaceRootWithSep)
}
