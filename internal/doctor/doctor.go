// Package doctor runs environment health checks and produces a
// human-readable report: configuration, workspace, credentials,
// extensions and state directory.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"github.com/vswrite/agentcore/internal/approval"
	"github.com/vswrite/agentcore/internal/config"
	"github.com/vswrite/agentcore/internal/credentials"
	"github.com/vswrite/agentcore/internal/extension"
)

// Severity grades one finding.
type Severity string

const (
	SeverityOK      Severity = "ok"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is one finding in the report.
type Issue struct {
	Severity Severity
	Category string
	Message  string
	Hint     string
}

// Report is the full check outcome.
type Report struct {
	Issues []Issue
}

// Healthy reports whether no error-severity issues were found.
func (r *Report) Healthy() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return false
		}
	}
	return true
}

func (r *Report) add(severity Severity, category, message, hint string) {
	r.Issues = append(r.Issues, Issue{Severity: severity, Category: category, Message: message, Hint: hint})
}

// Options selects what to check against.
type Options struct {
	Config    *config.Config
	ConfigErr error
	Workspace string
	// ExtensionsDir and StateDir are the resolved directories after
	// config defaulting.
	ExtensionsDir string
	StateDir      string
	Verifier      *extension.Verifier
}

// Run executes every check and never fails; problems become issues.
func Run(opts Options) *Report {
	r := &Report{}
	checkConfig(r, opts)
	checkWorkspace(r, opts.Workspace)
	checkCredentials(r, opts.Config)
	checkExtensions(r, opts)
	checkStateDir(r, opts.StateDir)
	return r
}

func checkConfig(r *Report, opts Options) {
	if opts.ConfigErr != nil {
		r.add(SeverityError, "config", fmt.Sprintf("configuration failed to load: %v", opts.ConfigErr),
			"fix or remove ~/.config/vswrite-agent/config.json")
		return
	}
	if opts.Config == nil {
		r.add(SeverityError, "config", "no configuration available", "")
		return
	}
	if _, err := approval.ParseMode(opts.Config.Orchestrator.ApprovalMode); err != nil {
		r.add(SeverityError, "config", err.Error(),
			"approval_mode must be auto_approve, approve_writes, approve_dangerous, approve_all or dry_run")
	} else {
		r.add(SeverityOK, "config", "configuration loads and validates", "")
	}
}

func checkWorkspace(r *Report, workspace string) {
	if workspace == "" {
		r.add(SeverityWarning, "workspace", "no workspace selected", "pass --workspace or run inside a project")
		return
	}
	info, err := os.Stat(workspace)
	switch {
	case err != nil:
		r.add(SeverityError, "workspace", fmt.Sprintf("workspace %s does not exist", workspace), "")
		return
	case !info.IsDir():
		r.add(SeverityError, "workspace", fmt.Sprintf("workspace %s is not a directory", workspace), "")
		return
	}
	r.add(SeverityOK, "workspace", fmt.Sprintf("workspace %s exists", workspace), "")

	if _, err := git.PlainOpen(workspace); err != nil {
		r.add(SeverityWarning, "workspace", "workspace is not a git repository",
			"version control is recommended before letting an agent edit files")
	} else {
		r.add(SeverityOK, "workspace", "git repository detected", "")
	}
}

func checkCredentials(r *Report, cfg *config.Config) {
	if cfg == nil {
		return
	}
	provider := cfg.Provider.Name
	envVar, needed := credentials.EnvVar(provider)
	if !needed {
		r.add(SeverityOK, "credentials", fmt.Sprintf("provider %q needs no API key", provider), "")
		return
	}
	if _, err := credentials.APIKey(provider); err != nil {
		r.add(SeverityError, "credentials", err.Error(), fmt.Sprintf("export %s", envVar))
		return
	}
	r.add(SeverityOK, "credentials", fmt.Sprintf("%s is set", envVar), "")
}

func checkExtensions(r *Report, opts Options) {
	dir := opts.ExtensionsDir
	if dir == "" || opts.Verifier == nil {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			r.add(SeverityOK, "extensions", "no extensions directory; none installed", "")
			return
		}
		r.add(SeverityError, "extensions", fmt.Sprintf("cannot read %s: %v", dir, err), "")
		return
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		count++
		checkOneExtension(r, opts.Verifier, filepath.Join(dir, e.Name()), e.Name())
	}
	if count == 0 {
		r.add(SeverityOK, "extensions", "no extensions installed", "")
	}
}

func checkOneExtension(r *Report, verifier *extension.Verifier, dir, name string) {
	raw, err := os.ReadFile(filepath.Join(dir, extension.ManifestFileName))
	if err != nil {
		r.add(SeverityError, "extensions", fmt.Sprintf("%s: no readable manifest", name), "")
		return
	}
	if _, err := extension.ParseManifest(raw); err != nil {
		r.add(SeverityError, "extensions", fmt.Sprintf("%s: %v", name, err), "")
		return
	}
	verification, err := verifier.Verify(raw)
	if err != nil {
		r.add(SeverityError, "extensions", fmt.Sprintf("%s: %v", name, err), "")
		return
	}
	switch verification.Tier {
	case extension.TierTrusted:
		r.add(SeverityOK, "extensions", fmt.Sprintf("%s: signed by trusted publisher %s", name, verification.PublisherID), "")
	case extension.TierUntrusted:
		r.add(SeverityWarning, "extensions", fmt.Sprintf("%s: valid signature from untrusted publisher %s", name, verification.PublisherID),
			"only install extensions from publishers you trust")
	case extension.TierUnsigned:
		r.add(SeverityWarning, "extensions", fmt.Sprintf("%s: unsigned", name),
			"unsigned extensions cannot be attributed to a publisher")
	case extension.TierInvalid:
		r.add(SeverityError, "extensions", fmt.Sprintf("%s: signature invalid (%s)", name, verification.Detail),
			"the manifest was altered after signing; reinstall the extension")
	}
}

func checkStateDir(r *Report, stateDir string) {
	if stateDir == "" {
		return
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		r.add(SeverityError, "sessions", fmt.Sprintf("state directory %s is not creatable: %v", stateDir, err), "")
		return
	}
	probe := filepath.Join(stateDir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		r.add(SeverityError, "sessions", fmt.Sprintf("state directory %s is not writable: %v", stateDir, err), "")
		return
	}
	os.Remove(probe)
	r.add(SeverityOK, "sessions", fmt.Sprintf("state directory %s is writable", stateDir), "")
}
