package permission

import (
	"strings"
	"testing"
)

func TestAllowsTools(t *testing.T) {
	set := Set{Tools: []string{"read_file"}}

	if !Allows(set, Tool("read_file")) {
		t.Error("expected read_file to be allowed")
	}
	if Allows(set, Tool("write_file")) {
		t.Error("expected write_file to be denied")
	}

	set.Tools = []string{"read_file", "write_file"}
	if !Allows(set, Tool("write_file")) {
		t.Error("expected write_file to be allowed after grant")
	}
}

func TestFilesystemScopeOrdering(t *testing.T) {
	tests := []struct {
		name      string
		granted   Scope
		requested Scope
		want      bool
	}{
		{"none grants none", ScopeNone, ScopeNone, true},
		{"none denies project", ScopeNone, ScopeProject, false},
		{"project grants project", ScopeProject, ScopeProject, true},
		{"project denies workspace", ScopeProject, ScopeWorkspace, false},
		{"workspace grants project", ScopeWorkspace, ScopeProject, true},
		{"system grants everything", ScopeSystem, ScopeWorkspace, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Set{FilesystemScope: tt.granted}
			if got := Allows(set, Filesystem(tt.requested)); got != tt.want {
				t.Errorf("Allows(%s, %s) = %v, want %v", tt.granted, tt.requested, got, tt.want)
			}
		})
	}
}

func TestEntityAndSettingsFlags(t *testing.T) {
	set := Set{EntityRead: true, EntityTag: true}

	if !Allows(set, EntityRead()) {
		t.Error("expected entity read to be allowed")
	}
	if Allows(set, EntityWrite()) {
		t.Error("expected entity write to be denied")
	}
	if !Allows(set, EntityTag()) {
		t.Error("expected entity tag to be allowed")
	}
	if Allows(set, Settings()) {
		t.Error("expected settings to be denied")
	}
}

func TestCheckNamesMissingGrant(t *testing.T) {
	set := Set{Tools: []string{"read_file"}}

	err := Check(set, Tool("write_file"))
	if err == nil {
		t.Fatal("expected denial")
	}
	if !strings.Contains(err.Error(), "write_file") {
		t.Errorf("denial should name the missing tool, got %q", err.Error())
	}
	if !IsDenied(err) {
		t.Error("expected IsDenied to report true")
	}
}

func TestAllowsIsDeterministic(t *testing.T) {
	set := Set{Tools: []string{"read_file"}, FilesystemScope: ScopeProject, EntityRead: true}
	caps := []Capability{
		Tool("read_file"),
		Tool("write_file"),
		Filesystem(ScopeProject),
		Filesystem(ScopeSystem),
		EntityRead(),
		EntityWrite(),
	}

	first := make([]bool, len(caps))
	for i, c := range caps {
		first[i] = Allows(set, c)
	}
	// Re-evaluate in reverse; no hidden caching may change outcomes.
	for i := len(caps) - 1; i >= 0; i-- {
		if Allows(set, caps[i]) != first[i] {
			t.Errorf("Allows changed answer for capability %d on re-evaluation", i)
		}
	}
}

func TestParseScope(t *testing.T) {
	for input, want := range map[string]Scope{
		"":          ScopeNone,
		"none":      ScopeNone,
		"project":   ScopeProject,
		"workspace": ScopeWorkspace,
		"system":    ScopeSystem,
	} {
		got, err := ParseScope(input)
		if err != nil || got != want {
			t.Errorf("ParseScope(%q) = %v, %v; want %v", input, got, err, want)
		}
	}

	if _, err := ParseScope("galaxy"); err == nil {
		t.Error("expected error for unknown scope")
	}
}
