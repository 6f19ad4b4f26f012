// SPDX-License-Identifier: MPL-2.0

package sld

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mayhemheroes/modus/pkg/logic"
)

var (
	// ErrNoSolutions is the sentinel wrapped by NoSolutionsError.
	ErrNoSolutions = errors.New("no solutions")

	// ErrCycle is the sentinel wrapped by CycleError.
	ErrCycle = errors.New("cycle detected")

	// ErrDepthExceeded is the sentinel wrapped by DepthError.
	ErrDepthExceeded = errors.New("maximum resolution depth exceeded")
)

type (
	// NoSolutionsError is returned when a query has no derivation. Causes holds
	// the distinct errors that cut branches short during the search, so that
	// errors.Is and errors.As also see them.
	NoSolutionsError struct {
		Goal   logic.Atom
		Causes []error
	}

	// CycleError records a call re-entered with the same ground arguments while
	// still active. The branch fails.
	CycleError struct {
		Goal string
	}

	// DepthError records a branch cut off at the depth bound.
	DepthError struct {
		Goal  string
		Depth int
	}
)

func (e *NoSolutionsError) Error() string {
	if len(e.Causes) == 0 {
		return fmt.Sprintf("no solutions for query %s", e.Goal)
	}
	msgs := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		msgs[i] = c.Error()
	}
	return fmt.Sprintf("no solutions for query %s: %s", e.Goal, strings.Join(msgs, "; "))
}

// Unwrap returns ErrNoSolutions followed by the recorded causes.
func (e *NoSolutionsError) Unwrap() []error {
	return append([]error{ErrNoSolutions}, e.Causes...)
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s is already being resolved", e.Goal)
}

// Unwrap returns ErrCycle for errors.Is() compatibility.
func (e *CycleError) Unwrap() error {
	return ErrCycle
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("resolution of %s exceeded maximum depth %d", e.Goal, e.Depth)
}

// Unwrap returns ErrDepthExceeded for errors.Is() compatibility.
func (e *DepthError) Unwrap() error {
	return ErrDepthExceeded
}
