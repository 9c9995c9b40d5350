package scenario

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// jsonPathGet evaluates a simple JSONPath expression against parsed JSON data.
// Supports $, $.field, $.field.nested, $[0], $.array[0] and $.array[0].field.
// Returns a slice of matching values (empty if no match).
func jsonPathGet(doc any, path string) ([]any, error) {
	rest, ok := strings.CutPrefix(path, "$")
	if !ok {
		return nil, fmt.Errorf("JSONPath must start with $: %q", path)
	}
	rest = strings.TrimPrefix(rest, ".")
	if rest == "" {
		return []any{doc}, nil
	}

	current := doc
	for _, seg := range splitPathSegments(rest) {
		if seg == "" {
			continue
		}

		field, indexes, err := parseSegment(seg)
		if err != nil {
			return nil, err
		}
		if field != "" {
			obj, ok := current.(map[string]any)
			if !ok {
				return nil, nil
			}
			if current, ok = obj[field]; !ok {
				return nil, nil
			}
		}
		for _, idx := range indexes {
			arr, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, nil
			}
			current = arr[idx]
		}
	}

	return []any{current}, nil
}

// parseSegment splits "items[0][1]" into "items" and [0 1].
func parseSegment(seg string) (string, []int, error) {
	open := strings.Index(seg, "[")
	if open < 0 {
		return seg, nil, nil
	}
	field := seg[:open]

	var indexes []int
	rest := seg[open:]
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, fmt.Errorf("invalid segment %q", seg)
		}
		closing := strings.Index(rest, "]")
		if closing < 0 {
			return "", nil, fmt.Errorf("unterminated index in %q", seg)
		}
		idx, err := strconv.Atoi(rest[1:closing])
		if err != nil {
			return "", nil, fmt.Errorf("invalid array index in %q: %w", seg, err)
		}
		indexes = append(indexes, idx)
		rest = rest[closing+1:]
	}
	return field, indexes, nil
}

// splitPathSegments splits a path like "field.nested[0].name" into segments.
func splitPathSegments(path string) []string {
	var segments []string
	var current strings.Builder
	depth := 0

	for _, ch := range path {
		switch ch {
		case '[':
			depth++
			current.WriteRune(ch)
		case ']':
			depth--
			current.WriteRune(ch)
		case '.':
			if depth == 0 {
				segments = append(segments, current.String())
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		segments = append(segments, current.String())
	}

	return segments
}

// parseJSONDoc parses a JSON byte slice into a generic structure.
func parseJSONDoc(body []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("response body is not valid JSON: %w", err)
	}
	return doc, nil
}

// ExtractJSONPath extracts a single value from a JSON body.
func ExtractJSONPath(body []byte, path string) (any, error) {
	parsed, err := parseJSONDoc(body)
	if err != nil {
		return nil, err
	}

	results, err := jsonPathGet(parsed, path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath %q: %w", path, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("JSONPath %q: no match found", path)
	}

	return results[0], nil
}
