package scenario

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// ExpandTemplates replaces template placeholders in a string:
//   - {{env.VARIABLE}} from environment variables
//   - {{variable_name}} from the run state
func ExpandTemplates(s string, st *State) (string, error) {
	return expand(s, st, nil)
}

// ExpandPathTemplates is ExpandTemplates for a request path: every
// substituted value is path-escaped so it stays a single segment.
func ExpandPathTemplates(s string, st *State) (string, error) {
	return expand(s, st, url.PathEscape)
}

func expand(s string, st *State, escape func(string) string) (string, error) {
	result := s
	pos := 0
	for {
		start := strings.Index(result[pos:], "{{")
		if start == -1 {
			break
		}
		start += pos
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			return "", fmt.Errorf("unterminated template expression at position %d", start)
		}
		end += start + 2

		expr := strings.TrimSpace(result[start+2 : end-2])
		value, err := resolveExpr(expr, st)
		if err != nil {
			return "", err
		}
		if escape != nil {
			value = escape(value)
		}

		result = result[:start] + value + result[end:]
		// Substituted values are never re-expanded.
		pos = start + len(value)
	}
	return result, nil
}

func resolveExpr(expr string, st *State) (string, error) {
	if envKey, ok := strings.CutPrefix(expr, "env."); ok {
		return os.Getenv(envKey), nil
	}

	if st != nil {
		if val, ok := st.Get(expr); ok {
			return val, nil
		}
	}

	return "", fmt.Errorf("unresolved template expression: %q", expr)
}

// expandValue expands templates in every string inside a decoded YAML/JSON
// value, leaving its structure intact.
func expandValue(v any, st *State) (any, error) {
	switch t := v.(type) {
	case string:
		return ExpandTemplates(t, st)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			ev, err := expandValue(val, st)
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			ev, err := expandValue(val, st)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	default:
		return v, nil
	}
}
