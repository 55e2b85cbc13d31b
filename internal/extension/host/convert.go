package host

import (
	"fmt"

	"go.starlark.net/starlark"
)

// toStarlark converts decoded JSON values into their Starlark
// equivalents. Only the shapes JSON can produce are supported; the
// guest never receives host handles or opaque objects.
func toStarlark(v any) (starlark.Value, error) {
	switch v := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(v), nil
	case string:
		return starlark.String(v), nil
	case int:
		return starlark.MakeInt(v), nil
	case int64:
		return starlark.MakeInt64(v), nil
	case float64:
		if v == float64(int64(v)) {
			return starlark.MakeInt64(int64(v)), nil
		}
		return starlark.Float(v), nil
	case []any:
		elems := make([]starlark.Value, len(v))
		for i, e := range v {
			ev, err := toStarlark(e)
			if err != nil {
				return nil, err
			}
			elems[i] = ev
		}
		return starlark.NewList(elems), nil
	case map[string]any:
		d := starlark.NewDict(len(v))
		for k, val := range v {
			sv, err := toStarlark(val)
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported value for sandbox: %T", v)
	}
}

// fromStarlark converts guest values back into JSON-compatible Go
// values.
func fromStarlark(v starlark.Value) (any, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(v), nil
	case starlark.String:
		return string(v), nil
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i, nil
		}
		return nil, fmt.Errorf("integer out of range: %s", v)
	case starlark.Float:
		return float64(v), nil
	case *starlark.List:
		return fromSequence(v.Len(), v.Index)
	case starlark.Tuple:
		return fromSequence(len(v), func(i int) starlark.Value { return v[i] })
	case *starlark.Dict:
		out := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be a string, got %s", item[0].Type())
			}
			val, err := fromStarlark(item[1])
			if err != nil {
				return nil, err
			}
			out[string(key)] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported return value from sandbox: %s", v.Type())
	}
}

func fromSequence(n int, at func(int) starlark.Value) (any, error) {
	out := make([]any, n)
	for i := range n {
		v, err := fromStarlark(at(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
