package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// sensitiveFileNames are file names the agent must never touch,
// matched case-insensitively against the final path component.
// A name also matches when followed by a dot suffix (".env.production").
var sensitiveFileNames = []string{
	// Environment and secrets
	".env",
	".envrc",
	// Credentials and keys
	"credentials",
	"credentials.json",
	".credentials",
	"secrets",
	"secrets.json",
	".secrets",
	// SSH keys
	"id_rsa",
	"id_dsa",
	"id_ecdsa",
	"id_ed25519",
	"authorized_keys",
	"known_hosts",
	// Git credentials
	".git-credentials",
	".gitconfig",
	// NPM tokens
	".npmrc",
	// Keychain
	"keychain.db",
	"keychain-db.sqlite",
}

// sensitiveExtensions are extensions carrying private key material.
var sensitiveExtensions = []string{
	".pem",
	".key",
	".p12",
	".pfx",
	".keystore",
	".jks",
}

// sensitiveDirs are directories whose entire contents are off limits.
var sensitiveDirs = []string{
	".ssh",
	".gnupg",
	".password-store",
	".aws",
	".azure",
	".gcloud",
}

// sensitiveReason reports why a workspace-relative path is refused, or
// "" if it is allowed. Matching is on names, not content: the guard
// runs before any I/O happens.
func sensitiveReason(rel string) string {
	lower := strings.ToLower(filepath.ToSlash(rel))
	name := lower
	if i := strings.LastIndexByte(lower, '/'); i >= 0 {
		name = lower[i+1:]
	}

	for _, pattern := range sensitiveFileNames {
		if name == pattern || strings.HasPrefix(name, pattern+".") {
			return fmt.Sprintf("%q matches sensitive file pattern %q", name, pattern)
		}
	}

	for _, ext := range sensitiveExtensions {
		if strings.HasSuffix(name, ext) {
			return fmt.Sprintf("%q has sensitive extension %q", name, ext)
		}
	}

	for _, dir := range sensitiveDirs {
		if strings.HasPrefix(lower, dir+"/") || strings.Contains(lower, "/"+dir+"/") || name == dir {
			return fmt.Sprintf("path contains sensitive directory %q", dir)
		}
	}

	return ""
}
