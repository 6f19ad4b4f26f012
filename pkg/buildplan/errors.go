// SPDX-License-Identifier: MPL-2.0

package buildplan

import (
	"errors"
	"fmt"
)

var (
	// ErrInconsistentMerge is returned when one stage identity reduces to two
	// different instruction lists.
	ErrInconsistentMerge = errors.New("inconsistent stage merge")

	// ErrMalformedStage is returned when a proof tree cannot be read as a stage.
	ErrMalformedStage = errors.New("malformed stage")
)

type (
	// InconsistentMergeError reports a stage identity seen with two different
	// definitions. Resolution is pure, so this indicates a bug in the engine.
	InconsistentMergeError struct {
		Key      string
		Existing string
		Got      string
	}

	// StageError reports a proof subtree that does not describe an image.
	StageError struct {
		Key    string
		Reason string
	}
)

func (e *InconsistentMergeError) Error() string {
	return fmt.Sprintf("stage %s reduced inconsistently:\n  first:  %s\n  second: %s", e.Key, e.Existing, e.Got)
}

// Unwrap returns ErrInconsistentMerge for errors.Is() compatibility.
func (e *InconsistentMergeError) Unwrap() error {
	return ErrInconsistentMerge
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Reason)
}

// Unwrap returns ErrMalformedStage for errors.Is() compatibility.
func (e *StageError) Unwrap() error {
	return ErrMalformedStage
}
