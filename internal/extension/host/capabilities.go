package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/vswrite/agentcore/internal/entity"
	orchmodel "github.com/vswrite/agentcore/internal/orchestrator/model"
	"github.com/vswrite/agentcore/internal/permission"
)

// threadContextKey holds the call's context.Context as a thread-local,
// so capability functions inherit the caller's deadline.
const threadContextKey = "agentcore.context"

func threadContext(thread *starlark.Thread) context.Context {
	if ctx, ok := thread.Local(threadContextKey).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

// predeclared builds the capability table injected into every script
// execution. Nothing here holds state; permission checks run against
// the live permission set on every call.
func (h *Host) predeclared() starlark.StringDict {
	return starlark.StringDict{
		"tools":       h.toolsModule(),
		"entities":    h.entitiesModule(),
		"json_encode": starlark.NewBuiltin("json_encode", builtinJSONEncode),
		"json_decode": starlark.NewBuiltin("json_decode", builtinJSONDecode),
	}
}

// toolsModule exposes one function per built-in tool, so scripts write
// tools.read_file(path="x"). Extension-contributed tools are never
// injected: their dispatch routes back through a sandbox host, and a
// script reaching its own qualified tools would re-enter this host's
// execution lock. The permission check happens at call time, not
// table-build time: a grant removed from the manifest fails the next
// call even though the function still exists.
func (h *Host) toolsModule() *starlarkstruct.Module {
	members := starlark.StringDict{}
	if h.cfg.Registry != nil {
		for _, name := range h.cfg.Registry.BuiltinNames() {
			members[name] = starlark.NewBuiltin(name, h.callTool(name))
		}
	}
	return &starlarkstruct.Module{Name: "tools", Members: members}
}

func (h *Host) callTool(name string) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		perms := h.cfg.Perms()
		if err := permission.Check(perms, permission.Tool(name)); err != nil {
			return nil, err
		}
		// Every built-in resolves its paths inside the workspace, so a
		// dispatch needs project-tier filesystem access on top of the
		// named tool grant.
		if err := permission.Check(perms, permission.Filesystem(permission.ScopeProject)); err != nil {
			return nil, err
		}

		toolArgs, err := argsFromCall(name, args, kwargs)
		if err != nil {
			return nil, err
		}

		result := h.cfg.Dispatch(threadContext(thread), orchmodel.ToolCallRequest{
			SessionID: "extension:" + h.cfg.ExtensionID,
			CallID:    uuid.NewString(),
			Name:      name,
			Args:      toolArgs,
		})
		if result.Failed() {
			return nil, fmt.Errorf("%s: %s", name, result.Error)
		}
		return starlark.String(result.Content), nil
	}
}

// argsFromCall accepts either keyword arguments or a single positional
// dict; both map onto the tool's JSON argument object.
func argsFromCall(name string, args starlark.Tuple, kwargs []starlark.Tuple) (map[string]any, error) {
	out := map[string]any{}

	if len(args) > 1 {
		return nil, fmt.Errorf("%s: expected keyword arguments or a single dict", name)
	}
	if len(args) == 1 {
		d, ok := args[0].(*starlark.Dict)
		if !ok {
			return nil, fmt.Errorf("%s: positional argument must be a dict, got %s", name, args[0].Type())
		}
		decoded, err := fromStarlark(d)
		if err != nil {
			return nil, err
		}
		out = decoded.(map[string]any)
	}

	for _, pair := range kwargs {
		key := string(pair[0].(starlark.String))
		val, err := fromStarlark(pair[1])
		if err != nil {
			return nil, err
		}
		out[key] = val
	}
	return out, nil
}

// entitiesModule exposes the knowledge-base API. Read, write and tag
// operations are gated separately so a read-only extension cannot
// mutate the store.
func (h *Host) entitiesModule() *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "entities",
		Members: starlark.StringDict{
			"get":           starlark.NewBuiltin("entities.get", h.entityGet),
			"list":          starlark.NewBuiltin("entities.list", h.entityList),
			"search":        starlark.NewBuiltin("entities.search", h.entitySearch),
			"put":           starlark.NewBuiltin("entities.put", h.entityPut),
			"delete":        starlark.NewBuiltin("entities.delete", h.entityDelete),
			"relationships": starlark.NewBuiltin("entities.relationships", h.entityRelationships),
			"get_section":   starlark.NewBuiltin("entities.get_section", h.sectionGet),
			"list_sections": starlark.NewBuiltin("entities.list_sections", h.sectionList),
			"add_tag":       starlark.NewBuiltin("entities.add_tag", h.tagAdd),
			"remove_tag":    starlark.NewBuiltin("entities.remove_tag", h.tagRemove),
			"get_tags":      starlark.NewBuiltin("entities.get_tags", h.tagList),
		},
	}
}

func (h *Host) checkEntity(capability permission.Capability) error {
	if h.cfg.Entities == nil {
		return fmt.Errorf("entity store is not available")
	}
	return permission.Check(h.cfg.Perms(), capability)
}

func (h *Host) entityGet(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var id string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "id", &id); err != nil {
		return nil, err
	}
	if err := h.checkEntity(permission.EntityRead()); err != nil {
		return nil, err
	}
	e, err := h.cfg.Entities.Get(id)
	if err != nil {
		return nil, err
	}
	return structToStarlark(e)
}

func (h *Host) entityList(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var entityType string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "type?", &entityType); err != nil {
		return nil, err
	}
	if err := h.checkEntity(permission.EntityRead()); err != nil {
		return nil, err
	}
	var (
		list []entity.Entity
		err  error
	)
	if entityType == "" {
		list, err = h.cfg.Entities.ListAll()
	} else {
		list, err = h.cfg.Entities.ListByType(entityType)
	}
	if err != nil {
		return nil, err
	}
	return structToStarlark(list)
}

func (h *Host) entitySearch(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var query string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "query", &query); err != nil {
		return nil, err
	}
	if err := h.checkEntity(permission.EntityRead()); err != nil {
		return nil, err
	}
	hits, err := h.cfg.Entities.Search(query)
	if err != nil {
		return nil, err
	}
	return structToStarlark(hits)
}

func (h *Host) entityPut(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var doc *starlark.Dict
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "entity", &doc); err != nil {
		return nil, err
	}
	if err := h.checkEntity(permission.EntityWrite()); err != nil {
		return nil, err
	}
	decoded, err := fromStarlark(doc)
	if err != nil {
		return nil, err
	}
	var e entity.Entity
	if err := remarshal(decoded, &e); err != nil {
		return nil, fmt.Errorf("invalid entity document: %w", err)
	}
	if err := h.cfg.Entities.Put(&e); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func (h *Host) entityDelete(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var id string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "id", &id); err != nil {
		return nil, err
	}
	if err := h.checkEntity(permission.EntityWrite()); err != nil {
		return nil, err
	}
	removed, err := h.cfg.Entities.Delete(id)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(removed), nil
}

func (h *Host) entityRelationships(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var id string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "id", &id); err != nil {
		return nil, err
	}
	if err := h.checkEntity(permission.EntityRead()); err != nil {
		return nil, err
	}
	rel, err := h.cfg.Entities.Relationships(id)
	if err != nil {
		return nil, err
	}
	return structToStarlark(rel)
}

func (h *Host) sectionGet(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var id string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "id", &id); err != nil {
		return nil, err
	}
	if err := h.checkEntity(permission.EntityRead()); err != nil {
		return nil, err
	}
	sec, err := h.cfg.Entities.GetSection(id)
	if err != nil {
		return nil, err
	}
	return structToStarlark(sec)
}

func (h *Host) sectionList(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	if err := h.checkEntity(permission.EntityRead()); err != nil {
		return nil, err
	}
	sections, err := h.cfg.Entities.ListSections()
	if err != nil {
		return nil, err
	}
	return structToStarlark(sections)
}

func (h *Host) tagAdd(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		sectionID, entityID string
		from, to            int64
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"section_id", &sectionID, "entity_id", &entityID, "from", &from, "to", &to); err != nil {
		return nil, err
	}
	if err := h.checkEntity(permission.EntityTag()); err != nil {
		return nil, err
	}
	tag, err := h.cfg.Entities.AddTag(sectionID, entityID, from, to)
	if err != nil {
		return nil, err
	}
	return structToStarlark(tag)
}

func (h *Host) tagRemove(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var sectionID, tagID string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "section_id", &sectionID, "tag_id", &tagID); err != nil {
		return nil, err
	}
	if err := h.checkEntity(permission.EntityTag()); err != nil {
		return nil, err
	}
	removed, err := h.cfg.Entities.RemoveTag(sectionID, tagID)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(removed), nil
}

func (h *Host) tagList(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var sectionID string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "section_id", &sectionID); err != nil {
		return nil, err
	}
	if err := h.checkEntity(permission.EntityRead()); err != nil {
		return nil, err
	}
	tags, err := h.cfg.Entities.Tags(sectionID)
	if err != nil {
		return nil, err
	}
	return structToStarlark(tags)
}

func builtinJSONEncode(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "value", &v); err != nil {
		return nil, err
	}
	decoded, err := fromStarlark(v)
	if err != nil {
		return nil, err
	}
	s, err := encodeJSON(decoded)
	if err != nil {
		return nil, err
	}
	return starlark.String(s), nil
}

func builtinJSONDecode(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var raw string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "text", &raw); err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return toStarlark(decoded)
}

// encodeJSON renders without HTML escaping so tool output containing
// <, > or & survives the round trip intact.
func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// structToStarlark converts a Go struct through its JSON form into
// guest values, so the guest sees the same field names the HTTP and
// audit surfaces use.
func structToStarlark(v any) (starlark.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return toStarlark(decoded)
}

func remarshal(from any, to any) error {
	raw, err := json.Marshal(from)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, to)
}
