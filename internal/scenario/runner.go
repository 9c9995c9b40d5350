package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/storyspoiler/storyspoiler/internal/client"
)

// ErrSetup marks a failure before any step ran.
var ErrSetup = errors.New("scenario setup failed")

// API is the subset of *client.Client the runner needs.
type API interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
	Do(ctx context.Context, method, path string, body any, headers map[string]string) (*client.Response, error)
}

// StepResult records the outcome of a single step.
type StepResult struct {
	Name     string
	Passed   bool
	Duration time.Duration
	Error    string // empty when passed
}

// Result records the outcome of an entire scenario.
type Result struct {
	ScenarioName string
	Passed       bool
	Steps        []StepResult
	Duration     time.Duration
}

// Failed returns the steps that did not pass.
func (r *Result) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if !s.Passed {
			out = append(out, s)
		}
	}
	return out
}

// Runner executes scenarios against one API client.
type Runner struct {
	api      API
	username string
	password string
	logger   *log.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithCredentials sets the account used when a scenario asks to authenticate.
func WithCredentials(username, password string) Option {
	return func(r *Runner) {
		r.username = username
		r.password = password
	}
}

// WithLogger sets the logger for step progress.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner that sends requests through api.
func NewRunner(api API, opts ...Option) *Runner {
	r := &Runner{api: api, logger: &log.DefaultLogger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a single scenario. Steps run in order and a failing step never
// stops the ones after it. The returned error is non-nil only when setup
// failed, in which case no step was attempted.
func (r *Runner) Run(ctx context.Context, s *Scenario) (*Result, error) {
	start := time.Now()
	result := &Result{
		ScenarioName: s.Name,
		Passed:       true,
	}

	if s.Setup != nil && s.Setup.Authenticate {
		if _, err := r.api.Authenticate(ctx, r.username, r.password); err != nil {
			r.logger.Warn().Str("scenario", s.Name).Err(err).Msg("authentication failed")
			return nil, fmt.Errorf("%w: %w", ErrSetup, err)
		}
		r.logger.Debug().Str("scenario", s.Name).Str("username", r.username).Msg("authenticated")
	}

	st := NewState(s.Variables)
	for i := range s.Steps {
		sr := r.runStep(ctx, &s.Steps[i], st)
		result.Steps = append(result.Steps, sr)
		if !sr.Passed {
			result.Passed = false
			r.logger.Warn().Str("scenario", s.Name).Str("step", sr.Name).Str("error", sr.Error).Msg("step failed")
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (r *Runner) runStep(ctx context.Context, step *Step, st *State) StepResult {
	start := time.Now()
	sr := StepResult{Name: step.Name}
	fail := func(format string, args ...any) StepResult {
		sr.Error = fmt.Sprintf(format, args...)
		sr.Duration = time.Since(start)
		return sr
	}

	if err := st.Require(step.Requires); err != nil {
		return fail("%v", err)
	}

	path, err := ExpandPathTemplates(step.Request.Path, st)
	if err != nil {
		return fail("template expansion in path: %v", err)
	}

	headers := make(map[string]string, len(step.Request.Headers))
	for k, v := range step.Request.Headers {
		expanded, err := ExpandTemplates(v, st)
		if err != nil {
			return fail("template expansion in header %q: %v", k, err)
		}
		headers[k] = expanded
	}

	body, err := expandValue(step.Request.Body, st)
	if err != nil {
		return fail("template expansion in body: %v", err)
	}

	method := strings.ToUpper(step.Request.Method)
	resp, err := r.api.Do(ctx, method, path, body, headers)
	if err != nil {
		return fail("request failed: %v", err)
	}
	r.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", resp.Duration).
		Msg("step request")

	// Status is checked before capture so a wrong status is reported as such
	// rather than as a missing field.
	if step.Assert != nil && step.Assert.Status != 0 && resp.StatusCode != step.Assert.Status {
		return fail("expected status %d, got %d%s", step.Assert.Status, resp.StatusCode, msgSuffix(resp))
	}

	for _, name := range sortedStrings(step.Capture) {
		val, err := ExtractJSONPath(resp.Body, step.Capture[name])
		if err != nil {
			return fail("capture %q: %v", name, err)
		}
		if val == nil {
			return fail("capture %q: %s is null", name, step.Capture[name])
		}
		st.Set(name, fmt.Sprintf("%v", val))
	}

	if step.Assert != nil {
		if err := r.runAssertions(step.Assert, resp, st); err != nil {
			return fail("%v", err)
		}
	}

	sr.Passed = true
	sr.Duration = time.Since(start)
	return sr
}

func (r *Runner) runAssertions(assert *Assert, resp *client.Response, st *State) error {
	if assert.BodyContains != "" {
		want, err := ExpandTemplates(assert.BodyContains, st)
		if err != nil {
			return fmt.Errorf("template expansion in body_contains: %v", err)
		}
		if !strings.Contains(string(resp.Body), want) {
			return fmt.Errorf("body does not contain %q", want)
		}
	}

	for key, expected := range assert.Headers {
		actual := resp.Header.Get(key)
		if actual != expected {
			return fmt.Errorf("header %q: expected %q, got %q", key, expected, actual)
		}
	}

	if len(assert.Body) > 0 {
		expanded := make(map[string]any, len(assert.Body))
		for path, expected := range assert.Body {
			ev, err := expandValue(expected, st)
			if err != nil {
				return fmt.Errorf("template expansion in assertion %q: %v", path, err)
			}
			expanded[path] = ev
		}
		if err := EvaluateBodyAssertions(resp.Body, expanded); err != nil {
			return err
		}
	}

	return nil
}

func msgSuffix(resp *client.Response) string {
	if m := resp.Message(); m != "" {
		return fmt.Sprintf(" (msg: %q)", m)
	}
	return ""
}

func sortedStrings(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
