package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vswrite/agentcore/internal/permission"
)

const validManifest = `{
	"id": "word-tools",
	"name": "Word Tools",
	"version": "1.2.0",
	"permissions": {
		"tools": ["read_file"],
		"filesystemScope": "project",
		"entities": {"read": true}
	},
	"tools": [
		{
			"name": "word_count",
			"description": "Count words in a file",
			"script": "tools.star",
			"parameters": {
				"type": "object",
				"properties": {"path": {"type": "string"}},
				"required": ["path"]
			}
		}
	],
	"lifecycle": {"hooks": ["on_activate", "on_section_save"]}
}`

func TestParseValidManifest(t *testing.T) {
	m, err := ParseManifest([]byte(validManifest))
	require.NoError(t, err)

	assert.Equal(t, "word-tools", m.ID)
	assert.Equal(t, "1.2.0", m.Version)
	require.Len(t, m.Tools, 1)
	assert.Equal(t, "word_count", m.Tools[0].Name)
	assert.True(t, m.HasHook("on_activate"))
	assert.False(t, m.HasHook("on_project_open"))

	set := m.PermissionSet()
	assert.Equal(t, permission.ScopeProject, set.FilesystemScope)
	assert.True(t, set.EntityRead)
	assert.False(t, set.EntityWrite)
}

func TestParseRejectsUnknownTopLevelFields(t *testing.T) {
	raw := `{"id": "a", "name": "A", "version": "1.0.0", "permissions": {}, "tools": [], "surprise": true}`
	_, err := ParseManifest([]byte(raw))
	var malformed *MalformedError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Reason, "surprise")
}

func TestParseValidation(t *testing.T) {
	base := func(id, version, toolName string) string {
		return `{"id": "` + id + `", "name": "X", "version": "` + version + `",
			"permissions": {}, "tools": [{"name": "` + toolName + `", "description": "d", "script": "t.star"}]}`
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"uppercase id", base("BadID", "1.0.0", "tool_a")},
		{"underscore id", base("bad_id", "1.0.0", "tool_a")},
		{"traversal id", base("..", "1.0.0", "tool_a")},
		{"loose version", base("ok-id", "1.0", "tool_a")},
		{"version with prefix", base("ok-id", "v1.0.0", "tool_a")},
		{"camelCase tool", base("ok-id", "1.0.0", "toolA")},
		{"script escape", `{"id": "ok-id", "name": "X", "version": "1.0.0", "permissions": {},
			"tools": [{"name": "t", "description": "d", "script": "../../evil.star"}]}`,
		},
		{"unknown hook", `{"id": "ok-id", "name": "X", "version": "1.0.0", "permissions": {},
			"tools": [], "lifecycle": {"hooks": ["on_big_bang"]}}`,
		},
		{"unknown scope", `{"id": "ok-id", "name": "X", "version": "1.0.0",
			"permissions": {"filesystemScope": "universe"}, "tools": []}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.raw))
			var malformed *MalformedError
			assert.ErrorAs(t, err, &malformed, "manifest should be rejected")
		})
	}
}

func TestQualifiedToolName(t *testing.T) {
	assert.Equal(t, "word-tools:word_count", QualifiedToolName("word-tools", "word_count"))
}
