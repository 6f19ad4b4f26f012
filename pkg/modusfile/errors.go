// SPDX-License-Identifier: MPL-2.0

package modusfile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mayhemheroes/modus/pkg/logic"
)

var (
	// ErrSyntax is the sentinel wrapped by SyntaxError.
	ErrSyntax = errors.New("syntax error")

	// ErrKindConflict is the sentinel wrapped by KindConflictError.
	ErrKindConflict = errors.New("predicate kind conflict")

	// ErrUnknownPredicate is the sentinel wrapped by UnknownPredicateError.
	ErrUnknownPredicate = errors.New("unknown predicate")
)

type (
	// SyntaxError reports malformed source at a location.
	SyntaxError struct {
		File string
		Pos  logic.Position
		Msg  string
	}

	// KindConflictError reports a predicate that would be both image, layer or
	// logical, or a body whose members combine kinds illegally.
	KindConflictError struct {
		File      string
		Pos       logic.Position
		Predicate string
		Want      logic.Kind
		Got       logic.Kind
		Reason    string
	}

	// UnknownPredicateError reports a query naming a predicate the database does
	// not define with that arity.
	UnknownPredicateError struct {
		Signature string
		// Defined lists the signatures defined under the same name, if any.
		Defined []string
	}
)

func newSyntaxError(file string, pos logic.Position, format string, args ...any) *SyntaxError {
	return &SyntaxError{File: file, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%s: %s", location(e.File), e.Pos, e.Msg)
}

// Unwrap returns ErrSyntax for errors.Is() compatibility.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

func (e *KindConflictError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s:%s: predicate %s: %s", location(e.File), e.Pos, e.Predicate, e.Reason)
	}
	return fmt.Sprintf("%s:%s: predicate %s is %s here but %s elsewhere", location(e.File), e.Pos, e.Predicate, e.Got, e.Want)
}

// Unwrap returns ErrKindConflict for errors.Is() compatibility.
func (e *KindConflictError) Unwrap() error {
	return ErrKindConflict
}

func (e *UnknownPredicateError) Error() string {
	if len(e.Defined) > 0 {
		return fmt.Sprintf("predicate %s is not defined (found %s)", e.Signature, strings.Join(e.Defined, ", "))
	}
	return fmt.Sprintf("predicate %s is not defined", e.Signature)
}

// Unwrap returns ErrUnknownPredicate for errors.Is() compatibility.
func (e *UnknownPredicateError) Unwrap() error {
	return ErrUnknownPredicate
}

func location(file string) string {
	if file == "" {
		return "<input>"
	}
	return file
}
