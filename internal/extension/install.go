package extension

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Archive limits. A .vsext bundle is a handful of scripts and a
// manifest; anything near these bounds is not a legitimate extension.
const (
	maxArchiveEntries   = 256
	maxArchiveFileBytes = 4 << 20
	maxArchiveTotal     = 32 << 20
)

// InstallError reports why a .vsext archive was rejected. The archive
// is validated completely before anything is written, so a rejected
// install leaves no partial extension behind.
type InstallError struct {
	Archive string
	Reason  string
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("cannot install %s: %s", e.Archive, e.Reason)
}

func (e *InstallError) InvalidInput() bool { return true }

// Install extracts a .vsext archive into the manager's extensions
// directory and returns the installed manifest with its verification.
// It does not load the extension; callers decide when to activate.
func (m *Manager) Install(archivePath string) (*Manifest, Verification, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, Verification{}, &InstallError{Archive: archivePath, Reason: err.Error()}
	}
	defer r.Close()

	if len(r.File) == 0 {
		return nil, Verification{}, &InstallError{Archive: archivePath, Reason: "archive is empty"}
	}
	if len(r.File) > maxArchiveEntries {
		return nil, Verification{}, &InstallError{Archive: archivePath, Reason: fmt.Sprintf("archive has more than %d entries", maxArchiveEntries)}
	}

	manifest, verification, err := m.validateArchive(archivePath, &r.Reader)
	if err != nil {
		return nil, Verification{}, err
	}

	destDir := filepath.Join(m.cfg.Dir, manifest.ID)
	if _, err := os.Stat(destDir); err == nil {
		return nil, Verification{}, &InstallError{Archive: archivePath,
			Reason: fmt.Sprintf("extension %q is already installed; remove it first", manifest.ID)}
	}

	if err := extractAll(&r.Reader, destDir); err != nil {
		// A failed extraction must not leave a half-installed tree the
		// directory scan would later pick up.
		os.RemoveAll(destDir)
		return nil, Verification{}, &InstallError{Archive: archivePath, Reason: err.Error()}
	}

	m.cfg.Logger.Info("extension installed",
		"extension", manifest.ID, "version", manifest.Version, "tier", verification.Tier)
	return manifest, verification, nil
}

// validateArchive checks every entry and the manifest before anything
// touches the extensions directory.
func (m *Manager) validateArchive(archivePath string, r *zip.Reader) (*Manifest, Verification, error) {
	var total uint64
	for _, f := range r.File {
		if err := safeEntryName(f.Name); err != nil {
			return nil, Verification{}, &InstallError{Archive: archivePath, Reason: err.Error()}
		}
		if f.UncompressedSize64 > maxArchiveFileBytes {
			return nil, Verification{}, &InstallError{Archive: archivePath,
				Reason: fmt.Sprintf("entry %s exceeds %d bytes", f.Name, maxArchiveFileBytes)}
		}
		total += f.UncompressedSize64
		if total > maxArchiveTotal {
			return nil, Verification{}, &InstallError{Archive: archivePath,
				Reason: fmt.Sprintf("archive expands past %d bytes", maxArchiveTotal)}
		}
	}

	raw, err := readArchiveFile(r, ManifestFileName)
	if err != nil {
		return nil, Verification{}, &InstallError{Archive: archivePath, Reason: "archive has no manifest.json at its root"}
	}
	manifest, err := ParseManifest(raw)
	if err != nil {
		return nil, Verification{}, err
	}
	verification, err := m.cfg.Verifier.Verify(raw)
	if err != nil {
		return nil, Verification{}, err
	}
	if verification.Tier == TierInvalid {
		return nil, Verification{}, &SignatureInvalidError{ExtensionID: manifest.ID, Detail: verification.Detail}
	}
	return manifest, verification, nil
}

// safeEntryName rejects entry names that would escape the destination
// directory once joined.
func safeEntryName(name string) error {
	if name == "" {
		return fmt.Errorf("archive contains an empty entry name")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return fmt.Errorf("archive entry %q has an absolute path", name)
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("archive entry %q escapes the destination", name)
	}
	return nil
}

func readArchiveFile(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(io.LimitReader(rc, maxArchiveFileBytes))
	}
	return nil, os.ErrNotExist
}

func extractAll(r *zip.Reader, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	for _, f := range r.File {
		target := filepath.Join(destDir, filepath.FromSlash(f.Name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, io.LimitReader(rc, maxArchiveFileBytes))
	return err
}
