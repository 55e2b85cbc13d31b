package directory

import "encoding/json"

// ListDirRequest names the directory to list. An empty path means the
// workspace root.
type ListDirRequest struct {
	Path string `json:"path,omitempty" mapstructure:"path"`
}

// ListDirResponse carries one formatted name per entry: directories first
// with a trailing slash, each group sorted.
type ListDirResponse struct {
	RelativePath string
	Entries      []string
}

// Render returns the entries as an indented JSON array.
func (r *ListDirResponse) Render() string {
	entries := r.Entries
	if entries == nil {
		entries = []string{}
	}
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(out)
}
