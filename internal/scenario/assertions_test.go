package scenario

import (
	"strings"
	"testing"
)

const sampleBody = `{
	"storyId": "s1",
	"msg": "Successfully created!",
	"count": 3,
	"empty": "",
	"none": null,
	"stories": [{"id": "s1"}, {"id": "s2"}]
}`

func TestEvaluateBodyAssertionsPass(t *testing.T) {
	tests := []struct {
		name       string
		assertions map[string]any
	}{
		{"equality", map[string]any{"$.msg": "Successfully created!", "$.count": 3}},
		{"eq", map[string]any{"$.count": map[string]any{"eq": 3.0}}},
		{"exists", map[string]any{"$.storyId": map[string]any{"exists": true}, "$.gone": map[string]any{"exists": false}}},
		{"not_empty", map[string]any{"$.storyId": map[string]any{"not_empty": true}, "$.stories": map[string]any{"not_empty": true}}},
		{"empty", map[string]any{"$.empty": map[string]any{"not_empty": false}, "$.none": map[string]any{"not_empty": false}}},
		{"min_length", map[string]any{"$.stories": map[string]any{"min_length": 2}, "$.msg": map[string]any{"min_length": 1}}},
		{"gte lte", map[string]any{"$.count": map[string]any{"gte": 3, "lte": 3}}},
		{"contains", map[string]any{"$.msg": map[string]any{"contains": "created"}}},
		{"regex", map[string]any{"$.storyId": map[string]any{"regex": "^s[0-9]+$"}}},
		{"nested", map[string]any{"$.stories[1].id": "s2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := EvaluateBodyAssertions([]byte(sampleBody), tt.assertions); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEvaluateBodyAssertionsFail(t *testing.T) {
	tests := []struct {
		name       string
		assertions map[string]any
		wantErr    string
	}{
		{"wrong value", map[string]any{"$.msg": "Successfully edited"}, "expected Successfully edited"},
		{"number vs string", map[string]any{"$.count": "3"}, "expected 3"},
		{"missing", map[string]any{"$.gone": "x"}, "no match"},
		{"not_empty on empty", map[string]any{"$.empty": map[string]any{"not_empty": true}}, "non-empty"},
		{"not_empty on null", map[string]any{"$.none": map[string]any{"not_empty": true}}, "non-empty"},
		{"min_length short", map[string]any{"$.stories": map[string]any{"min_length": 5}}, "length >= 5"},
		{"min_length number", map[string]any{"$.count": map[string]any{"min_length": 1}}, "requires a string"},
		{"gte", map[string]any{"$.count": map[string]any{"gte": 4}}, "expected >= 4"},
		{"lte", map[string]any{"$.count": map[string]any{"lte": 2}}, "expected <= 2"},
		{"exists false", map[string]any{"$.msg": map[string]any{"exists": false}}, "expected not to exist"},
		{"exists non-bool", map[string]any{"$.msg": map[string]any{"exists": "yes"}}, "requires a boolean"},
		{"bad regex", map[string]any{"$.msg": map[string]any{"regex": "("}}, "invalid regex"},
		{"unknown op", map[string]any{"$.msg": map[string]any{"startswith": "S"}}, "unknown operator"},
		{"bad path", map[string]any{"msg": "x"}, "invalid JSONPath"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EvaluateBodyAssertions([]byte(sampleBody), tt.assertions)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestEvaluateBodyAssertionsArrayRoot(t *testing.T) {
	if err := EvaluateBodyAssertions([]byte(`[{"id":"1"}]`), map[string]any{"$": map[string]any{"min_length": 1}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := EvaluateBodyAssertions([]byte(`[]`), map[string]any{"$": map[string]any{"min_length": 1}}); err == nil {
		t.Error("expected empty array to fail min_length")
	}
}

func TestEvaluateBodyAssertionsInvalidJSON(t *testing.T) {
	err := EvaluateBodyAssertions([]byte(`<html>`), map[string]any{"$.msg": "x"})
	if err == nil || !strings.Contains(err.Error(), "not valid JSON") {
		t.Errorf("expected invalid JSON error, got %v", err)
	}
}

func TestValuesEqual(t *testing.T) {
	if !valuesEqual(201.0, 201) {
		t.Error("float64 and int should compare numerically")
	}
	if valuesEqual("201", 201) {
		t.Error("string and number should differ")
	}
	if !valuesEqual(true, true) {
		t.Error("bools should compare equal")
	}
}
