package checker

import (
	"fmt"

	"github.com/hollis-source/unified-intelligence-cli/dsl/types"
)

// ReportedError is a human-facing type error: expected vs. got, an
// optional source location, and up to three hints.
type ReportedError struct {
	Expected types.Type
	Got      types.Type
	Location string
	Hints    []string
}

func (e *ReportedError) Error() string {
	msg := fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
	if e.Location != "" {
		msg = fmt.Sprintf("%s (at %s)", msg, e.Location)
	}
	for _, h := range e.Hints {
		msg += "\n  hint: " + h
	}
	return msg
}

// NewCompositionMismatch builds a reported error for a failed g∘f
// composition, with the standard three hints.
func NewCompositionMismatch(expected, got types.Type, location string) *ReportedError {
	return &ReportedError{
		Expected: expected,
		Got:      got,
		Location: location,
		Hints: []string{
			"composition g ∘ f requires f's output to match g's input",
			"product f × g never requires matching types — consider parallel composition instead",
			fmt.Sprintf("insert an adapter task of type %s → %s between the two sides", got, expected),
		},
	}
}

// ErrorAccumulator collects type errors during inference without ever
// aborting the walk — matching the original visitor's "never throws"
// contract.
type ErrorAccumulator struct {
	Errors []error
}

func (a *ErrorAccumulator) Add(err error) {
	if err != nil {
		a.Errors = append(a.Errors, err)
	}
}

func (a *ErrorAccumulator) HasErrors() bool { return len(a.Errors) > 0 }
