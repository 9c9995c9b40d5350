package scenario

import (
	"fmt"
	"io"
	"time"
)

// Totals accumulates step counts across scenarios.
type Totals struct {
	Passed int
	Failed int
}

// Add merges o into t.
func (t *Totals) Add(o Totals) {
	t.Passed += o.Passed
	t.Failed += o.Failed
}

// WriteResult prints one scenario's PASS/FAIL lines to w and returns its
// counts. A setup error counts as a single failure.
func WriteResult(w io.Writer, s *Scenario, result *Result, err error) Totals {
	var t Totals
	fmt.Fprintf(w, "\n--- %s ---\n", s.Name)
	if s.Description != "" {
		fmt.Fprintf(w, "    %s\n", s.Description)
	}
	fmt.Fprintln(w)

	if err != nil {
		fmt.Fprintf(w, "  ERROR: %v\n", err)
		t.Failed++
		return t
	}

	for _, sr := range result.Steps {
		if sr.Passed {
			fmt.Fprintf(w, "  PASS  %-50s (%s)\n", sr.Name, sr.Duration.Round(time.Millisecond))
			t.Passed++
		} else {
			fmt.Fprintf(w, "  FAIL  %-50s (%s)\n", sr.Name, sr.Duration.Round(time.Millisecond))
			fmt.Fprintf(w, "        %s\n", sr.Error)
			t.Failed++
		}
	}

	fmt.Fprintf(w, "\n  Scenario: %s (%s)\n", passFailLabel(result.Passed), result.Duration.Round(time.Millisecond))
	return t
}

// WriteSummary prints the closing totals line.
func WriteSummary(w io.Writer, t Totals) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Results: %d passed, %d failed, %d total\n", t.Passed, t.Failed, t.Passed+t.Failed)
}

func passFailLabel(passed bool) string {
	if passed {
		return "PASSED"
	}
	return "FAILED"
}
