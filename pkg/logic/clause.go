// SPDX-License-Identifier: MPL-2.0

package logic

import (
	"fmt"
	"strings"
)

const (
	// KindLogical marks pure relations without build side effects.
	KindLogical Kind = iota
	// KindLayer marks relations that add instructions to the current image.
	KindLayer
	// KindImage marks relations that produce a container image.
	KindImage
)

type (
	// Kind is the build role of a predicate. It belongs to the predicate
	// definition and is resolved once by the parser.
	Kind uint8

	// Position is a 1-based source location.
	Position struct {
		Line   int
		Column int
	}

	// Atom is a predicate applied to arguments. Kind and Builtin are dispatch
	// tags filled in by the parser; they take no part in equality or printing.
	Atom struct {
		Predicate string
		Args      []Term
		Kind      Kind
		Builtin   bool
		Pos       Position
	}

	// Expression is a clause body element.
	Expression interface {
		String() string
		isExpression()
	}

	// Conjunction requires every item to hold, evaluated left to right.
	Conjunction struct {
		Items []Expression
	}

	// Disjunction holds when any branch holds. Each succeeding branch is a
	// separate solution.
	Disjunction struct {
		Branches []Expression
	}

	// OperatorApplication applies an operator such as ::copy to the image or
	// layers produced by Inner.
	OperatorApplication struct {
		Inner    Expression
		Operator Atom
	}

	// Clause is a fact (nil Body) or a rule.
	Clause struct {
		Head Atom
		Body Expression
	}
)

func (Atom) isExpression()                {}
func (Conjunction) isExpression()         {}
func (Disjunction) isExpression()         {}
func (OperatorApplication) isExpression() {}

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindLayer:
		return "layer"
	case KindImage:
		return "image"
	default:
		return "logical"
	}
}

// String renders "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// NewAtom builds an untagged atom.
func NewAtom(predicate string, args ...Term) Atom {
	return Atom{Predicate: predicate, Args: args}
}

// Signature returns "name/arity".
func (a Atom) Signature() string {
	return fmt.Sprintf("%s/%d", a.Predicate, len(a.Args))
}

// String renders the atom in source syntax. For ground atoms this is also the
// identity key used for stage deduplication and the cycle guard.
func (a Atom) String() string {
	if len(a.Args) == 0 {
		return a.Predicate
	}
	var sb strings.Builder
	sb.WriteString(a.Predicate)
	sb.WriteByte('(')
	for i, arg := range a.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(arg.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// IsGround reports whether every argument is ground.
func (a Atom) IsGround() bool {
	for _, arg := range a.Args {
		if !arg.IsGround() {
			return false
		}
	}
	return true
}

// Equal compares predicate and arguments structurally.
func (a Atom) Equal(b Atom) bool {
	if a.Predicate != b.Predicate || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i].String() != b.Args[i].String() {
			return false
		}
	}
	return true
}

// WithArgs returns a copy of a with new arguments and the same tags.
func (a Atom) WithArgs(args []Term) Atom {
	a.Args = args
	return a
}

// Variables returns the variables of the atom's arguments in order.
func (a Atom) Variables() []Variable {
	var vars []Variable
	for _, arg := range a.Args {
		vars = TermVariables(vars, arg)
	}
	return vars
}

// String joins items with ", ".
func (c Conjunction) String() string {
	parts := make([]string, len(c.Items))
	for i, e := range c.Items {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// String joins branches with "; ".
func (d Disjunction) String() string {
	parts := make([]string, len(d.Branches))
	for i, e := range d.Branches {
		parts[i] = e.String()
	}
	return strings.Join(parts, "; ")
}

// String renders "(inner)::op(args)".
func (o OperatorApplication) String() string {
	return fmt.Sprintf("(%s)::%s", o.Inner, o.Operator)
}

// String renders the clause in source syntax.
func (c Clause) String() string {
	if c.Body == nil {
		return c.Head.String() + "."
	}
	return fmt.Sprintf("%s :- %s.", c.Head, c.Body)
}

// IsFact reports whether the clause has no body.
func (c Clause) IsFact() bool { return c.Body == nil }

// Walk calls fn for every atom of e in left-to-right order, including
// operator atoms after their inner expression.
func Walk(e Expression, fn func(Atom)) {
	switch x := e.(type) {
	case Atom:
		fn(x)
	case Conjunction:
		for _, item := range x.Items {
			Walk(item, fn)
		}
	case Disjunction:
		for _, b := range x.Branches {
			Walk(b, fn)
		}
	case OperatorApplication:
		Walk(x.Inner, fn)
		fn(x.Operator)
	}
}

// Rename returns a copy of the clause whose variables all carry generation gen.
func (c Clause) Rename(gen int) Clause {
	r := renamer(gen)
	out := Clause{Head: r.atom(c.Head)}
	if c.Body != nil {
		out.Body = r.expr(c.Body)
	}
	return out
}

type renamer int

func (r renamer) term(t Term) Term {
	switch x := t.(type) {
	case Variable:
		return Variable{Name: x.Name, Gen: int(r)}
	case FString:
		parts := make([]Fragment, len(x.Parts))
		for i, p := range x.Parts {
			if p.Var != nil {
				parts[i] = Embed(Variable{Name: p.Var.Name, Gen: int(r)})
				continue
			}
			parts[i] = p
		}
		return FString{Parts: parts}
	}
	return t
}

func (r renamer) atom(a Atom) Atom {
	args := make([]Term, len(a.Args))
	for i, arg := range a.Args {
		args[i] = r.term(arg)
	}
	return a.WithArgs(args)
}

func (r renamer) expr(e Expression) Expression {
	switch x := e.(type) {
	case Atom:
		return r.atom(x)
	case Conjunction:
		items := make([]Expression, len(x.Items))
		for i, item := range x.Items {
			items[i] = r.expr(item)
		}
		return Conjunction{Items: items}
	case Disjunction:
		branches := make([]Expression, len(x.Branches))
		for i, b := range x.Branches {
			branches[i] = r.expr(b)
		}
		return Disjunction{Branches: branches}
	case OperatorApplication:
		return OperatorApplication{Inner: r.expr(x.Inner), Operator: r.atom(x.Operator)}
	}
	return e
}
