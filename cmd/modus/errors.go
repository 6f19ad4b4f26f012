// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io/fs"

	"github.com/mayhemheroes/modus/internal/issue"
	"github.com/mayhemheroes/modus/pkg/buildplan"
	"github.com/mayhemheroes/modus/pkg/builtin"
	"github.com/mayhemheroes/modus/pkg/modusfile"
	"github.com/mayhemheroes/modus/pkg/sld"
)

// compileError classifies a failure while reading, resolving or reducing
// resource and attaches the matching issue and suggestions. The result exits
// with ExitCompile.
func compileError(resource string, err error) error {
	if err == nil {
		return nil
	}
	ec := issue.NewErrorContext().WithResource(resource).Wrap(err)
	switch {
	case errors.Is(err, context.Canceled):
		ec.WithOperation("compile")
	case errors.Is(err, fs.ErrNotExist):
		ec.WithOperation("read Modusfile").
			WithIssue(issue.ModusfileNotFoundId).
			WithSuggestion("Check the path passed as FILE")
	case errors.Is(err, fs.ErrPermission):
		ec.WithOperation("access file").
			WithIssue(issue.PermissionDeniedId).
			WithSuggestion("Check the file permissions")
	case errors.Is(err, modusfile.ErrSyntax):
		ec.WithOperation("parse Modusfile").
			WithIssue(issue.SyntaxErrorId).
			WithSuggestion("Clauses end with '.', bodies follow ':-', and literals are double quoted")
	case errors.Is(err, modusfile.ErrKindConflict):
		ec.WithOperation("check predicate kinds").
			WithIssue(issue.KindConflictId).
			WithSuggestion("A predicate must be an image, a layer or logical in every clause")
	case errors.Is(err, modusfile.ErrUnknownPredicate):
		ec.WithOperation("resolve query").
			WithIssue(issue.UnknownPredicateId).
			WithSuggestion("Run 'modus proof FILE' to check that the file defines the predicate")
	case errors.Is(err, builtin.ErrInstantiation):
		ec.WithOperation("resolve query").
			WithIssue(issue.InstantiationId).
			WithSuggestion("Bind the argument before the built-in is called, or quote it in the query")
	case errors.Is(err, sld.ErrNoSolutions):
		ec.WithOperation("resolve query").
			WithIssue(issue.NoSolutionsId).
			WithSuggestions(
				"Run 'modus proof FILE QUERY -v' to trace the search",
				"Raise --max-depth if the search was cut off",
			)
	case errors.Is(err, buildplan.ErrInconsistentMerge):
		ec.WithOperation("build the stage graph").
			WithIssue(issue.InconsistentMergeId)
	case errors.Is(err, buildplan.ErrMalformedStage):
		ec.WithOperation("build the stage graph").
			WithSuggestion("Query an image predicate; layers and logical predicates have no stage")
	default:
		ec.WithOperation("compile")
	}
	return &ExitError{Code: ExitCompile, Err: ec.BuildError()}
}
