package doctor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vswrite/agentcore/internal/config"
	"github.com/vswrite/agentcore/internal/extension"
)

func newVerifier(t *testing.T) *extension.Verifier {
	t.Helper()
	trust, err := extension.NewTrustRegistry(extension.BuiltinPublishers)
	require.NoError(t, err)
	return extension.NewVerifier(trust)
}

func findCategory(r *Report, category string) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Category == category {
			out = append(out, i)
		}
	}
	return out
}

func TestHealthyEnvironment(t *testing.T) {
	workspace := t.TempDir()
	_, err := git.PlainInit(workspace, false)
	require.NoError(t, err)
	t.Setenv("OPENAI_API_KEY", "sk-test-0123456789")

	r := Run(Options{
		Config:    config.DefaultConfig(),
		Workspace: workspace,
		StateDir:  t.TempDir(),
		Verifier:  newVerifier(t),
	})
	assert.True(t, r.Healthy())
}

func TestMissingWorkspaceIsError(t *testing.T) {
	r := Run(Options{
		Config:    config.DefaultConfig(),
		Workspace: filepath.Join(t.TempDir(), "nope"),
	})
	assert.False(t, r.Healthy())
	issues := findCategory(r, "workspace")
	require.NotEmpty(t, issues)
	assert.Equal(t, SeverityError, issues[0].Severity)
}

func TestNonGitWorkspaceIsWarning(t *testing.T) {
	r := Run(Options{
		Config:    config.DefaultConfig(),
		Workspace: t.TempDir(),
	})
	var sawWarning bool
	for _, i := range findCategory(r, "workspace") {
		if i.Severity == SeverityWarning {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning)
}

func TestMissingCredentialIsError(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	r := Run(Options{Config: config.DefaultConfig(), Workspace: t.TempDir()})
	issues := findCategory(r, "credentials")
	require.NotEmpty(t, issues)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Hint, "OPENAI_API_KEY")
}

func TestOllamaNeedsNoCredential(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider.Name = "ollama"

	r := Run(Options{Config: cfg, Workspace: t.TempDir()})
	issues := findCategory(r, "credentials")
	require.NotEmpty(t, issues)
	assert.Equal(t, SeverityOK, issues[0].Severity)
}

func TestBadApprovalModeIsError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Orchestrator.ApprovalMode = "yolo"

	r := Run(Options{Config: cfg, Workspace: t.TempDir()})
	issues := findCategory(r, "config")
	require.NotEmpty(t, issues)
	assert.Equal(t, SeverityError, issues[0].Severity)
}

func TestConfigLoadErrorIsError(t *testing.T) {
	r := Run(Options{ConfigErr: fmt.Errorf("bad json"), Workspace: t.TempDir()})
	issues := findCategory(r, "config")
	require.NotEmpty(t, issues)
	assert.Equal(t, SeverityError, issues[0].Severity)
}

func TestExtensionTiersReported(t *testing.T) {
	extDir := t.TempDir()

	manifest := map[string]any{
		"id": "unsigned-ext", "name": "Unsigned", "version": "1.0.0",
		"permissions": map[string]any{"tools": []string{}, "entities": map[string]any{}},
		"tools":       []any{},
	}
	raw, err := json.Marshal(manifest)
	require.NoError(t, err)
	dir := filepath.Join(extDir, "unsigned-ext")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, extension.ManifestFileName), raw, 0o644))

	broken := filepath.Join(extDir, "broken-ext")
	require.NoError(t, os.MkdirAll(broken, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(broken, extension.ManifestFileName), []byte("{"), 0o644))

	r := Run(Options{
		Config:        config.DefaultConfig(),
		Workspace:     t.TempDir(),
		ExtensionsDir: extDir,
		Verifier:      newVerifier(t),
	})

	issues := findCategory(r, "extensions")
	require.Len(t, issues, 2)
	byMessagePrefix := map[Severity]bool{}
	for _, i := range issues {
		byMessagePrefix[i.Severity] = true
	}
	assert.True(t, byMessagePrefix[SeverityWarning], "unsigned extension warns")
	assert.True(t, byMessagePrefix[SeverityError], "broken manifest errors")
}
