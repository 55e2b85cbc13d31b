package extension

import (
	"archive/zip"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vswrite/agentcore/internal/entity"
	orchmodel "github.com/vswrite/agentcore/internal/orchestrator/model"
	"github.com/vswrite/agentcore/internal/provider/model"
	"github.com/vswrite/agentcore/internal/registry"
)

type fakeTool struct {
	name string
	out  string
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "fake" }
func (f *fakeTool) Definition() model.ToolDefinition {
	return model.ToolDefinition{Name: f.name, Description: "fake"}
}
func (f *fakeTool) Risk() orchmodel.Risk { return orchmodel.RiskSafe }
func (f *fakeTool) Execute(context.Context, map[string]any) (string, []orchmodel.SideEffect, error) {
	return f.out, nil, nil
}

func wordCountManifest() map[string]any {
	return map[string]any{
		"id":      "word-tools",
		"name":    "Word Tools",
		"version": "1.2.0",
		"permissions": map[string]any{
			"tools":           []string{"read_file"},
			"filesystemScope": "project",
			"entities": map[string]any{
				"read": true,
			},
		},
		"tools": []map[string]any{
			{
				"name":        "word_count",
				"description": "Counts words in a file",
				"script":      "main.star",
				"risk":        "safe",
			},
		},
		"lifecycle": map[string]any{
			"hooks": []string{"on_activate", "on_section_save"},
		},
	}
}

const wordCountScript = `
def word_count(args):
    text = tools.read_file(path=args["path"])
    return str(len(text.split()))
`

const hooksScript = `
activations = []

def on_activate(args):
    return "activated"

def on_section_save(args):
    return "saved " + args["section_id"]
`

// writeExtension materializes a manifest map plus scripts under
// dir/<id>/ and returns the extension directory.
func writeExtension(t *testing.T, dir string, manifest map[string]any, scripts map[string]string) string {
	t.Helper()
	id := manifest["id"].(string)
	extDir := filepath.Join(dir, id)
	require.NoError(t, os.MkdirAll(extDir, 0o755))

	raw, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(extDir, ManifestFileName), raw, 0o644))

	for name, src := range scripts {
		require.NoError(t, os.WriteFile(filepath.Join(extDir, name), []byte(src), 0o644))
	}
	return extDir
}

// selfSign adds an embedded-key signature block to a manifest map.
func selfSign(t *testing.T, manifest map[string]any, publisherID string) (map[string]any, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	raw, err := json.Marshal(manifest)
	require.NoError(t, err)
	sig, err := Sign(raw, priv)
	require.NoError(t, err)

	manifest["signature"] = sig
	manifest["signatureAlgorithm"] = "ed25519"
	manifest["publisherId"] = publisherID
	manifest["publicKey"] = base64.StdEncoding.EncodeToString(pub)
	return manifest, priv
}

func newTestManager(t *testing.T) (*Manager, *registry.Registry, string) {
	t.Helper()
	dir := t.TempDir()

	reg := registry.New(0, nil)
	require.NoError(t, reg.Register(&fakeTool{name: "read_file", out: "one two three"}))

	trust, err := NewTrustRegistry(BuiltinPublishers)
	require.NoError(t, err)

	mgr := NewManager(ManagerConfig{
		Dir:         dir,
		Verifier:    NewVerifier(trust),
		Registry:    reg,
		Entities:    entity.NewStore(t.TempDir()),
		CallTimeout: 2 * time.Second,
		HookTimeout: time.Second,
	})
	return mgr, reg, dir
}

func TestLoadRegistersQualifiedTools(t *testing.T) {
	mgr, reg, dir := newTestManager(t)
	writeExtension(t, dir, wordCountManifest(), map[string]string{
		"main.star": wordCountScript,
		"hooks.star": hooksScript,
	})

	le, err := mgr.Load(context.Background(), "word-tools")
	require.NoError(t, err)
	assert.Equal(t, TierUnsigned, le.Tier())
	assert.Equal(t, []string{"word-tools:word_count"}, le.ToolNames)
	assert.Contains(t, reg.Names(), "word-tools:word_count")

	res := reg.Dispatch(context.Background(), orchmodel.ToolCallRequest{
		SessionID: "s1", CallID: "c1", Name: "word-tools:word_count",
		Args: map[string]any{"path": "story.md"},
	})
	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, "3", res.Content)
}

func TestLoadRejectsDoubleLoad(t *testing.T) {
	mgr, _, dir := newTestManager(t)
	writeExtension(t, dir, wordCountManifest(), map[string]string{
		"main.star": wordCountScript,
		"hooks.star": hooksScript,
	})

	_, err := mgr.Load(context.Background(), "word-tools")
	require.NoError(t, err)
	_, err = mgr.Load(context.Background(), "word-tools")
	assert.ErrorContains(t, err, "already loaded")
}

func TestLoadRejectsIDMismatch(t *testing.T) {
	mgr, _, dir := newTestManager(t)
	m := wordCountManifest()
	m["id"] = "word-tools"
	extDir := writeExtension(t, dir, m, map[string]string{
		"main.star": wordCountScript,
		"hooks.star": hooksScript,
	})
	require.NoError(t, os.Rename(extDir, filepath.Join(dir, "other-name")))

	_, err := mgr.Load(context.Background(), "other-name")
	var malformed *MalformedError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Reason, "does not match directory")
}

func TestInvalidSignatureBlocksLoadEntirely(t *testing.T) {
	mgr, reg, dir := newTestManager(t)

	m, _ := selfSign(t, wordCountManifest(), "somebody")
	// Flip a non-signature field after signing.
	m["description"] = "tampered"
	writeExtension(t, dir, m, map[string]string{
		"main.star": wordCountScript,
		"hooks.star": hooksScript,
	})

	_, err := mgr.Load(context.Background(), "word-tools")
	var sigErr *SignatureInvalidError
	require.ErrorAs(t, err, &sigErr)

	// No partial load: nothing registered, nothing listed.
	assert.NotContains(t, reg.Names(), "word-tools:word_count")
	assert.Empty(t, mgr.List())
}

func TestSelfSignedLoadsUntrusted(t *testing.T) {
	mgr, _, dir := newTestManager(t)
	m, _ := selfSign(t, wordCountManifest(), "indie-dev")
	writeExtension(t, dir, m, map[string]string{
		"main.star": wordCountScript,
		"hooks.star": hooksScript,
	})

	le, err := mgr.Load(context.Background(), "word-tools")
	require.NoError(t, err)
	assert.Equal(t, TierUntrusted, le.Tier())
	assert.Equal(t, "indie-dev", le.Verification.PublisherID)
}

func TestUnloadIsIdempotentAndAllowsReload(t *testing.T) {
	mgr, reg, dir := newTestManager(t)
	writeExtension(t, dir, wordCountManifest(), map[string]string{
		"main.star": wordCountScript,
		"hooks.star": hooksScript,
	})

	_, err := mgr.Load(context.Background(), "word-tools")
	require.NoError(t, err)

	require.NoError(t, mgr.Unload(context.Background(), "word-tools"))
	assert.NotContains(t, reg.Names(), "word-tools:word_count")

	// Unloading again is a no-op, and the extension can come back.
	require.NoError(t, mgr.Unload(context.Background(), "word-tools"))
	_, err = mgr.Load(context.Background(), "word-tools")
	require.NoError(t, err)
	assert.Contains(t, reg.Names(), "word-tools:word_count")
}

func TestCapabilityDeniedWithoutGrant(t *testing.T) {
	mgr, reg, dir := newTestManager(t)
	m := wordCountManifest()
	// The manifest grants write_file but the script calls read_file.
	m["permissions"] = map[string]any{"tools": []string{"write_file"}, "entities": map[string]any{}}
	writeExtension(t, dir, m, map[string]string{
		"main.star": wordCountScript,
		"hooks.star": hooksScript,
	})

	_, err := mgr.Load(context.Background(), "word-tools")
	require.NoError(t, err)

	res := reg.Dispatch(context.Background(), orchmodel.ToolCallRequest{
		SessionID: "s1", CallID: "c1", Name: "word-tools:word_count",
		Args: map[string]any{"path": "story.md"},
	})
	require.True(t, res.Failed())
	assert.Contains(t, res.Error, "permission denied")
	assert.Contains(t, res.Error, `tool "read_file"`)
}

func TestCapabilityDeniedWithoutFilesystemScope(t *testing.T) {
	mgr, reg, dir := newTestManager(t)
	m := wordCountManifest()
	// read_file is granted but no filesystem scope is declared.
	perms := m["permissions"].(map[string]any)
	delete(perms, "filesystemScope")
	writeExtension(t, dir, m, map[string]string{
		"main.star": wordCountScript,
		"hooks.star": hooksScript,
	})

	_, err := mgr.Load(context.Background(), "word-tools")
	require.NoError(t, err)

	res := reg.Dispatch(context.Background(), orchmodel.ToolCallRequest{
		SessionID: "s1", CallID: "c1", Name: "word-tools:word_count",
		Args: map[string]any{"path": "story.md"},
	})
	require.True(t, res.Failed())
	assert.Contains(t, res.Error, "permission denied")
	assert.Contains(t, res.Error, `filesystem scope "project"`)
}

func TestExtensionToolRiskClassification(t *testing.T) {
	mgr, reg, dir := newTestManager(t)
	m := wordCountManifest()
	m["tools"] = []map[string]any{
		{"name": "word_count", "description": "Counts words in a file", "script": "main.star", "risk": "safe"},
		{"name": "scramble", "description": "Rewrites a file", "script": "main.star"},
	}
	writeExtension(t, dir, m, map[string]string{
		"main.star": wordCountScript,
		"hooks.star": hooksScript,
	})

	_, err := mgr.Load(context.Background(), "word-tools")
	require.NoError(t, err)

	risk, ok := reg.Risk("word-tools:word_count")
	require.True(t, ok)
	assert.Equal(t, orchmodel.RiskSafe, risk)

	// No declared risk means dangerous; a manifest typo can only make
	// a tool harder to run.
	risk, ok = reg.Risk("word-tools:scramble")
	require.True(t, ok)
	assert.Equal(t, orchmodel.RiskDangerous, risk)
}

func TestManifestEditRevokesToolOnNextDispatch(t *testing.T) {
	mgr, reg, dir := newTestManager(t)
	extDir := writeExtension(t, dir, wordCountManifest(), map[string]string{
		"main.star": wordCountScript,
		"hooks.star": hooksScript,
	})

	_, err := mgr.Load(context.Background(), "word-tools")
	require.NoError(t, err)

	req := orchmodel.ToolCallRequest{
		SessionID: "s1", CallID: "c1", Name: "word-tools:word_count",
		Args: map[string]any{"path": "story.md"},
	}
	require.False(t, reg.Dispatch(context.Background(), req).Failed())

	// Drop the tool declaration on disk; no reload.
	m := wordCountManifest()
	m["tools"] = []map[string]any{}
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(extDir, ManifestFileName), raw, 0o644))

	res := reg.Dispatch(context.Background(), req)
	require.True(t, res.Failed())
	assert.Contains(t, res.Error, "permission denied")
}

func TestFireHook(t *testing.T) {
	mgr, _, dir := newTestManager(t)
	writeExtension(t, dir, wordCountManifest(), map[string]string{
		"main.star": wordCountScript,
		"hooks.star": hooksScript,
	})

	_, err := mgr.Load(context.Background(), "word-tools")
	require.NoError(t, err)

	results := mgr.FireHook(context.Background(), "on_section_save", map[string]any{"section_id": "chapter-1"})
	require.Len(t, results, 1)
	assert.True(t, results["word-tools"].Success)
	assert.Equal(t, "saved chapter-1", results["word-tools"].Result)

	// No extension declares on_project_open; nothing runs.
	assert.Empty(t, mgr.FireHook(context.Background(), "on_project_open", nil))
}

func TestLoadAllSkipsBrokenExtensions(t *testing.T) {
	mgr, _, dir := newTestManager(t)
	writeExtension(t, dir, wordCountManifest(), map[string]string{
		"main.star": wordCountScript,
		"hooks.star": hooksScript,
	})
	// A second directory with an unparseable manifest.
	broken := filepath.Join(dir, "broken-ext")
	require.NoError(t, os.MkdirAll(broken, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(broken, ManifestFileName), []byte("{nope"), 0o644))

	loaded := mgr.LoadAll(context.Background())
	require.Len(t, loaded, 1)
	assert.Equal(t, "word-tools", loaded[0].Manifest.ID)
}

func writeArchive(t *testing.T, path string, files map[string]string) {
	t.Helper()
	out, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(out)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, out.Close())
}

func TestInstallExtractsArchive(t *testing.T) {
	mgr, _, dir := newTestManager(t)

	raw, err := json.Marshal(wordCountManifest())
	require.NoError(t, err)
	archive := filepath.Join(t.TempDir(), "word-tools.vsext")
	writeArchive(t, archive, map[string]string{
		ManifestFileName: string(raw),
		"main.star":      wordCountScript,
		"hooks.star":     hooksScript,
	})

	manifest, verification, err := mgr.Install(archive)
	require.NoError(t, err)
	assert.Equal(t, "word-tools", manifest.ID)
	assert.Equal(t, TierUnsigned, verification.Tier)
	assert.FileExists(t, filepath.Join(dir, "word-tools", "main.star"))

	// Installed extensions load like any other.
	_, err = mgr.Load(context.Background(), "word-tools")
	require.NoError(t, err)
}

func TestInstallRejectsTraversalEntries(t *testing.T) {
	mgr, _, dir := newTestManager(t)

	raw, err := json.Marshal(wordCountManifest())
	require.NoError(t, err)
	archive := filepath.Join(t.TempDir(), "evil.vsext")
	writeArchive(t, archive, map[string]string{
		ManifestFileName:  string(raw),
		"../outside.star": "def f(args):\n    pass\n",
	})

	_, _, err = mgr.Install(archive)
	var installErr *InstallError
	require.ErrorAs(t, err, &installErr)
	assert.Contains(t, installErr.Reason, "escapes")
	assert.NoDirExists(t, filepath.Join(dir, "word-tools"))
}

func TestInstallRejectsMissingManifest(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	archive := filepath.Join(t.TempDir(), "bare.vsext")
	writeArchive(t, archive, map[string]string{"main.star": wordCountScript})

	_, _, err := mgr.Install(archive)
	var installErr *InstallError
	require.ErrorAs(t, err, &installErr)
	assert.Contains(t, installErr.Reason, "manifest.json")
}

func TestInstallRefusesOverwrite(t *testing.T) {
	mgr, _, dir := newTestManager(t)
	writeExtension(t, dir, wordCountManifest(), map[string]string{"main.star": wordCountScript})

	raw, err := json.Marshal(wordCountManifest())
	require.NoError(t, err)
	archive := filepath.Join(t.TempDir(), "word-tools.vsext")
	writeArchive(t, archive, map[string]string{ManifestFileName: string(raw)})

	_, _, err = mgr.Install(archive)
	var installErr *InstallError
	require.ErrorAs(t, err, &installErr)
	assert.Contains(t, installErr.Reason, "already installed")
}
