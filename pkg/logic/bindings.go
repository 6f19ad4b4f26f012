// SPDX-License-Identifier: MPL-2.0

package logic

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnboundInterpolationVariable is the sentinel wrapped by UnboundInterpolationVariableError.
var ErrUnboundInterpolationVariable = errors.New("unbound interpolation variable")

type (
	// UnboundInterpolationVariableError reports an f-string rendered while one of its
	// embedded variables was still unbound.
	UnboundInterpolationVariableError struct {
		Variable string
		Template string
	}

	// Bindings is a trail-based binding environment. Bindings are undone in
	// reverse order with Undo, which is how the engine backtracks.
	Bindings struct {
		vals  map[Variable]Term
		trail []Variable
	}
)

func (e *UnboundInterpolationVariableError) Error() string {
	return fmt.Sprintf("variable %q is unbound when interpolating %s", e.Variable, e.Template)
}

// Unwrap returns ErrUnboundInterpolationVariable for errors.Is() compatibility.
func (e *UnboundInterpolationVariableError) Unwrap() error {
	return ErrUnboundInterpolationVariable
}

// NewBindings returns an empty environment.
func NewBindings() *Bindings {
	return &Bindings{vals: make(map[Variable]Term)}
}

// Len returns the number of live bindings.
func (b *Bindings) Len() int { return len(b.trail) }

// Bind records v = t. Binding an already bound variable panics: callers must
// Walk first.
func (b *Bindings) Bind(v Variable, t Term) {
	if _, ok := b.vals[v]; ok {
		panic(fmt.Sprintf("logic: variable %s bound twice", v))
	}
	b.vals[v] = t
	b.trail = append(b.trail, v)
}

// Mark returns the current trail position.
func (b *Bindings) Mark() int { return len(b.trail) }

// Undo removes every binding made after mark.
func (b *Bindings) Undo(mark int) {
	for i := len(b.trail) - 1; i >= mark; i-- {
		delete(b.vals, b.trail[i])
	}
	b.trail = b.trail[:mark]
}

// Lookup returns the direct binding of v.
func (b *Bindings) Lookup(v Variable) (Term, bool) {
	t, ok := b.vals[v]
	return t, ok
}

// Walk follows variable bindings until it reaches an unbound variable or a
// non-variable term.
func (b *Bindings) Walk(t Term) Term {
	for {
		v, ok := t.(Variable)
		if !ok {
			return t
		}
		next, bound := b.vals[v]
		if !bound {
			return v
		}
		t = next
	}
}

// Resolve applies the bindings deeply. Embedded f-string variables bound to
// constants become literal text; an f-string without variables left collapses
// to a Constant.
func (b *Bindings) Resolve(t Term) Term {
	t = b.Walk(t)
	f, ok := t.(FString)
	if !ok {
		return t
	}
	parts := make([]Fragment, 0, len(f.Parts))
	for _, p := range f.Parts {
		if p.Var == nil {
			parts = append(parts, p)
			continue
		}
		switch x := b.Resolve(*p.Var).(type) {
		case Constant:
			parts = append(parts, Literal(string(x)))
		case Variable:
			parts = append(parts, Embed(x))
		case FString:
			parts = append(parts, x.Parts...)
		}
	}
	out := NewFString(parts...)
	if out.IsGround() {
		return Constant(out.literal())
	}
	return out
}

// ResolveAtom applies the bindings to every argument of a.
func (b *Bindings) ResolveAtom(a Atom) Atom {
	args := make([]Term, len(a.Args))
	for i, arg := range a.Args {
		args[i] = b.Resolve(arg)
	}
	return a.WithArgs(args)
}

// Interpolate renders f under b. Any embedded variable that is still unbound
// yields an UnboundInterpolationVariableError.
func (b *Bindings) Interpolate(f FString) (string, error) {
	switch x := b.Resolve(f).(type) {
	case Constant:
		return string(x), nil
	case FString:
		return "", &UnboundInterpolationVariableError{Variable: x.Variables()[0].displayName(), Template: f.String()}
	default:
		return "", fmt.Errorf("logic: unexpected interpolation result %T", x)
	}
}

// Materialize resolves t and renders f-strings. It returns the unbound
// interpolation error when an f-string cannot be rendered yet.
func (b *Bindings) Materialize(t Term) (Term, error) {
	switch x := b.Resolve(t).(type) {
	case FString:
		return nil, &UnboundInterpolationVariableError{Variable: x.Variables()[0].displayName(), Template: x.String()}
	default:
		return x, nil
	}
}

// String lists live bindings in trail order, for debugging.
func (b *Bindings) String() string {
	parts := make([]string, 0, len(b.trail))
	for _, v := range b.trail {
		parts = append(parts, fmt.Sprintf("%s = %s", v, b.vals[v]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (f FString) literal() string {
	var sb strings.Builder
	for _, p := range f.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}
