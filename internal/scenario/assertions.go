package scenario

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// EvaluateBodyAssertions evaluates JSONPath-based body assertions against a
// response body. Paths are checked in sorted order so the first failure
// reported is stable.
func EvaluateBodyAssertions(body []byte, assertions map[string]any) error {
	parsed, err := parseJSONDoc(body)
	if err != nil {
		return err
	}

	for _, path := range sortedKeys(assertions) {
		if err := evaluateOne(parsed, path, assertions[path]); err != nil {
			return err
		}
	}
	return nil
}

func evaluateOne(doc any, path string, expected any) error {
	results, err := jsonPathGet(doc, path)
	if err != nil {
		return fmt.Errorf("invalid JSONPath %q: %w", path, err)
	}

	if ops, ok := expected.(map[string]any); ok {
		return evaluateOperators(path, results, ops)
	}

	if len(results) == 0 {
		return fmt.Errorf("JSONPath %q: no match found", path)
	}
	if !valuesEqual(results[0], expected) {
		return fmt.Errorf("JSONPath %q: expected %v (%T), got %v (%T)", path, expected, expected, results[0], results[0])
	}
	return nil
}

// evaluateOperators processes operator-based assertions like {"eq": v},
// {"not_empty": true}, {"min_length": 1}.
func evaluateOperators(path string, results []any, ops map[string]any) error {
	for _, op := range sortedKeys(ops) {
		expected := ops[op]

		if op == "exists" {
			wantExists, ok := expected.(bool)
			if !ok {
				return fmt.Errorf("JSONPath %q: 'exists' operator requires a boolean value", path)
			}
			if wantExists && len(results) == 0 {
				return fmt.Errorf("JSONPath %q: expected to exist but no match found", path)
			}
			if !wantExists && len(results) > 0 {
				return fmt.Errorf("JSONPath %q: expected not to exist but found %v", path, results[0])
			}
			continue
		}

		if len(results) == 0 {
			return fmt.Errorf("JSONPath %q: no match found for '%s' check", path, op)
		}
		actual := results[0]

		switch op {
		case "eq":
			if !valuesEqual(actual, expected) {
				return fmt.Errorf("JSONPath %q: expected eq %v, got %v", path, expected, actual)
			}

		case "not_empty":
			want, ok := expected.(bool)
			if !ok {
				return fmt.Errorf("JSONPath %q: 'not_empty' operator requires a boolean value", path)
			}
			n, sized := length(actual)
			empty := actual == nil || (sized && n == 0)
			if want && empty {
				return fmt.Errorf("JSONPath %q: expected a non-empty value, got %v", path, actual)
			}
			if !want && !empty {
				return fmt.Errorf("JSONPath %q: expected an empty value, got %v", path, actual)
			}

		case "min_length":
			minLen, err := toFloat64(expected)
			if err != nil {
				return fmt.Errorf("JSONPath %q: 'min_length' requires a numeric value: %w", path, err)
			}
			n, sized := length(actual)
			if !sized {
				return fmt.Errorf("JSONPath %q: 'min_length' requires a string, array or object, got %T", path, actual)
			}
			if float64(n) < minLen {
				return fmt.Errorf("JSONPath %q: expected length >= %v, got %d", path, minLen, n)
			}

		case "gte", "lte":
			actualNum, err := toFloat64(actual)
			if err != nil {
				return fmt.Errorf("JSONPath %q: '%s' requires numeric actual value: %w", path, op, err)
			}
			expectedNum, err := toFloat64(expected)
			if err != nil {
				return fmt.Errorf("JSONPath %q: '%s' requires numeric expected value: %w", path, op, err)
			}
			if op == "gte" && actualNum < expectedNum {
				return fmt.Errorf("JSONPath %q: expected >= %v, got %v", path, expectedNum, actualNum)
			}
			if op == "lte" && actualNum > expectedNum {
				return fmt.Errorf("JSONPath %q: expected <= %v, got %v", path, expectedNum, actualNum)
			}

		case "contains":
			actualStr := fmt.Sprintf("%v", actual)
			expectedStr := fmt.Sprintf("%v", expected)
			if !strings.Contains(actualStr, expectedStr) {
				return fmt.Errorf("JSONPath %q: expected to contain %q, got %q", path, expectedStr, actualStr)
			}

		case "regex":
			pattern, ok := expected.(string)
			if !ok {
				return fmt.Errorf("JSONPath %q: 'regex' operator requires a string pattern", path)
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return fmt.Errorf("JSONPath %q: invalid regex pattern %q: %w", path, pattern, err)
			}
			actualStr := fmt.Sprintf("%v", actual)
			if !re.MatchString(actualStr) {
				return fmt.Errorf("JSONPath %q: value %q does not match regex %q", path, actualStr, pattern)
			}

		default:
			return fmt.Errorf("JSONPath %q: unknown operator %q", path, op)
		}
	}
	return nil
}

// length reports the size of strings, arrays and objects.
func length(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		return len(t), true
	case []any:
		return len(t), true
	case map[string]any:
		return len(t), true
	default:
		return 0, false
	}
}

// valuesEqual compares two values for equality, handling numeric type coercion.
// Values must be the same kind (both numeric or both string) to be equal.
func valuesEqual(actual, expected any) bool {
	actualNum, aErr := toFloat64(actual)
	expectedNum, eErr := toFloat64(expected)

	if aErr == nil && eErr == nil {
		return actualNum == expectedNum
	}
	if (aErr == nil) != (eErr == nil) {
		return false
	}
	return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected)
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not numeric", v, v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
