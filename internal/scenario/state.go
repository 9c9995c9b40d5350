package scenario

import (
	"fmt"
	"sort"
)

// State carries variables between the steps of one run. It is created per
// run and passed explicitly to each step.
type State struct {
	vars map[string]string
}

// NewState returns a State seeded with initial.
func NewState(initial map[string]string) *State {
	s := &State{vars: make(map[string]string, len(initial))}
	for k, v := range initial {
		s.vars[k] = v
	}
	return s
}

// Get returns a variable and whether it is set.
func (s *State) Get(name string) (string, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Set stores a variable.
func (s *State) Set(name, value string) {
	s.vars[name] = value
}

// Require returns an error naming every variable that is unset or empty.
func (s *State) Require(names []string) error {
	var missing []string
	for _, n := range names {
		if s.vars[n] == "" {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("required variables not captured: %v", missing)
}

// Vars returns a copy of all variables.
func (s *State) Vars() map[string]string {
	out := make(map[string]string, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}
