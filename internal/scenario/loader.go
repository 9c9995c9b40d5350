package scenario

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// BuiltinName is the file name of the shipped Story Spoiler suite.
const BuiltinName = "storyspoiler.yaml"

// Builtin returns the shipped seven-step Story Spoiler suite.
func Builtin() (*Scenario, error) {
	data, err := builtinFS.ReadFile("builtin/" + BuiltinName)
	if err != nil {
		return nil, fmt.Errorf("reading built-in scenario: %w", err)
	}
	return Parse(data, BuiltinName)
}

// LoadScenario parses a single YAML or JSON scenario file.
// The format is detected by file extension.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes scenario data. name selects the format by extension and is
// used in error messages.
func Parse(data []byte, name string) (*Scenario, error) {
	var s Scenario
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("parsing scenario %s: %w", name, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("parsing scenario %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario format %q (expected .yaml, .yml or .json)", filepath.Ext(name))
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i, st := range s.Steps {
		if st.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if st.Request.Method == "" {
			return fmt.Errorf("step %q: request.method is required", st.Name)
		}
		if st.Request.Path == "" {
			return fmt.Errorf("step %q: request.path is required", st.Name)
		}
		for v, p := range st.Capture {
			if !strings.HasPrefix(p, "$") {
				return fmt.Errorf("step %q: capture %q: JSONPath must start with $", st.Name, v)
			}
		}
	}
	return nil
}

// LoadDir loads all scenario files from a directory, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// LoadPath loads a single file, or every scenario in a directory.
func LoadPath(path string) ([]*Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	s, err := LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return []*Scenario{s}, nil
}
