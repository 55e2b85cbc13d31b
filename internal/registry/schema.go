package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vswrite/agentcore/internal/provider/model"
)

// SchemaError reports tool arguments that do not match the tool's
// declared parameter schema. It is fed back to the provider as a tool
// error so the model can retry with corrected arguments.
type SchemaError struct {
	Tool   string
	Issues []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(e.Issues, "; "))
}

func (e *SchemaError) InvalidInput() bool { return true }

// validateArgs checks an argument map against a declared schema:
// required properties present, no undeclared properties, and each
// value's JSON type matching its declaration. A nil schema accepts
// only an empty argument map.
func validateArgs(toolName string, schema *model.ParameterSchema, args map[string]any) error {
	var issues []string

	if schema == nil {
		if len(args) > 0 {
			issues = append(issues, "tool takes no arguments")
		}
		return schemaResult(toolName, issues)
	}

	for _, name := range schema.Required {
		if _, ok := args[name]; !ok {
			issues = append(issues, fmt.Sprintf("missing required property %q", name))
		}
	}

	var extra []string
	for name := range args {
		if _, ok := schema.Properties[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		issues = append(issues, fmt.Sprintf("unknown property %q", name))
	}

	for name, prop := range schema.Properties {
		value, ok := args[name]
		if !ok || value == nil {
			continue
		}
		if issue := checkType(name, prop.Type, value); issue != "" {
			issues = append(issues, issue)
		}
	}

	return schemaResult(toolName, issues)
}

func schemaResult(toolName string, issues []string) error {
	if len(issues) == 0 {
		return nil
	}
	return &SchemaError{Tool: toolName, Issues: issues}
}

// checkType validates one value against a JSON Schema type tag.
// Numbers arrive as float64 from JSON decoding; integers additionally
// require a whole value.
func checkType(name, declared string, value any) string {
	switch declared {
	case "string":
		if _, ok := value.(string); !ok {
			return typeIssue(name, "string", value)
		}
	case "integer":
		switch v := value.(type) {
		case float64:
			if v != float64(int64(v)) {
				return fmt.Sprintf("property %q must be an integer, got %v", name, v)
			}
		case int, int64:
		default:
			return typeIssue(name, "integer", value)
		}
	case "number":
		switch value.(type) {
		case float64, int, int64:
		default:
			return typeIssue(name, "number", value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return typeIssue(name, "boolean", value)
		}
	case "array":
		if _, ok := value.([]any); !ok {
			return typeIssue(name, "array", value)
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return typeIssue(name, "object", value)
		}
	}
	return ""
}

func typeIssue(name, want string, got any) string {
	return fmt.Sprintf("property %q must be a %s, got %T", name, want, got)
}
