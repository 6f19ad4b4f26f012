// SPDX-License-Identifier: MPL-2.0

// Package builtin holds the predicates that resolve by computation instead of
// clause lookup: build primitives (from, run, copy, ...), version ordering,
// string helpers and equality, plus the ::operators that may follow a
// parenthesized expression.
//
// An evaluator receives the call arguments with bindings applied. It either
// returns the ground argument list the call must unify with (one solution),
// reports no solution, or returns an InstantiationError when an input argument
// is still a variable.
package builtin

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mayhemheroes/modus/pkg/logic"
)

// ErrInstantiation is the sentinel wrapped by InstantiationError.
var ErrInstantiation = errors.New("instantiation error")

type (
	// EvalFunc evaluates a built-in. ok=false means the call has no solution.
	EvalFunc func(args []logic.Term) (out []logic.Term, ok bool, err error)

	// Builtin is one entry of the predicate table.
	Builtin struct {
		Name  string
		Arity int
		Kind  logic.Kind
		// RawArgs asks the engine to pass f-strings unrendered.
		RawArgs bool
		eval    EvalFunc
	}

	// InstantiationError is returned when a required input argument is unbound.
	InstantiationError struct {
		Goal string
		Arg  int
	}

	key struct {
		name  string
		arity int
	}
)

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("argument %d of %s must be bound", e.Arg+1, e.Goal)
}

// Unwrap returns ErrInstantiation for errors.Is() compatibility.
func (e *InstantiationError) Unwrap() error {
	return ErrInstantiation
}

var table = map[key]*Builtin{}

func register(b *Builtin) {
	k := key{b.Name, b.Arity}
	if _, dup := table[k]; dup {
		panic("builtin: duplicate registration of " + b.Name)
	}
	table[k] = b
}

// Lookup returns the built-in with the given name and arity.
func Lookup(name string, arity int) (*Builtin, bool) {
	b, ok := table[key{name, arity}]
	return b, ok
}

// IsBuiltin reports whether any arity of name is built in. User clauses may not
// define such names.
func IsBuiltin(name string) bool {
	for k := range table {
		if k.name == name {
			return true
		}
	}
	return false
}

// Names returns every built-in name, sorted and without duplicates.
func Names() []string {
	var names []string
	for k := range table {
		if !slices.Contains(names, k.name) {
			names = append(names, k.name)
		}
	}
	slices.Sort(names)
	return names
}

// Eval runs the evaluator on args.
func (b *Builtin) Eval(args []logic.Term) ([]logic.Term, bool, error) {
	if len(args) != b.Arity {
		return nil, false, fmt.Errorf("builtin %s expects %d arguments, got %d", b.Name, b.Arity, len(args))
	}
	return b.eval(args)
}

// Signature returns "name/arity".
func (b *Builtin) Signature() string {
	return fmt.Sprintf("%s/%d", b.Name, b.Arity)
}

// requireBound returns the constant values of the positions in idx, or an
// InstantiationError naming the first unbound one.
func requireBound(name string, args []logic.Term, idx ...int) ([]string, error) {
	out := make([]string, len(idx))
	for i, pos := range idx {
		c, ok := args[pos].(logic.Constant)
		if !ok {
			return nil, &InstantiationError{Goal: logic.NewAtom(name, args...).String(), Arg: pos}
		}
		out[i] = string(c)
	}
	return out, nil
}

func isBound(t logic.Term) bool {
	_, ok := t.(logic.Constant)
	return ok
}

func constants(values ...string) []logic.Term {
	out := make([]logic.Term, len(values))
	for i, v := range values {
		out[i] = logic.Constant(v)
	}
	return out
}

// check builds an evaluator for a ground test over all arguments.
func check(name string, arity int, test func(vals []string) bool) EvalFunc {
	idx := make([]int, arity)
	for i := range idx {
		idx[i] = i
	}
	return func(args []logic.Term) ([]logic.Term, bool, error) {
		vals, err := requireBound(name, args, idx...)
		if err != nil {
			return nil, false, err
		}
		if !test(vals) {
			return nil, false, nil
		}
		return args, true, nil
	}
}
