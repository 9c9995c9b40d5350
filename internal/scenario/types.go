// Package scenario loads and runs declarative request/assert scenarios
// against a Story Spoiler deployment, with variable capture between steps
// and JSONPath body assertions.
package scenario

// Scenario is a complete test scenario loaded from a YAML or JSON file.
type Scenario struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Setup       *Setup            `yaml:"setup,omitempty" json:"setup,omitempty"`
	Variables   map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
	Steps       []Step            `yaml:"steps" json:"steps"`
}

// Setup defines actions taken once before the first step.
type Setup struct {
	// Authenticate logs in with the runner's credentials and attaches the
	// bearer token to every step.
	Authenticate bool `yaml:"authenticate,omitempty" json:"authenticate,omitempty"`
}

// Step is a single request/assert pair within a scenario.
type Step struct {
	Name    string  `yaml:"name" json:"name"`
	Request Request `yaml:"request" json:"request"`

	// Requires lists variables that must be captured and non-empty before
	// the request is sent.
	Requires []string `yaml:"requires,omitempty" json:"requires,omitempty"`
	// Capture maps a variable name to a JSONPath into the response body.
	Capture map[string]string `yaml:"capture,omitempty" json:"capture,omitempty"`
	Assert  *Assert           `yaml:"assert,omitempty" json:"assert,omitempty"`
}

// Request defines the HTTP request to make during a step. Path is relative
// to the runner's base URL.
type Request struct {
	Method  string            `yaml:"method" json:"method"`
	Path    string            `yaml:"path" json:"path"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body    any               `yaml:"body,omitempty" json:"body,omitempty"`
}

// Assert defines the expected results of a step.
type Assert struct {
	Status       int               `yaml:"status,omitempty" json:"status,omitempty"`
	BodyContains string            `yaml:"body_contains,omitempty" json:"body_contains,omitempty"`
	Headers      map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body         map[string]any    `yaml:"body,omitempty" json:"body,omitempty"`
}
