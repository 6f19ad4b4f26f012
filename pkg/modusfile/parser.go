// SPDX-License-Identifier: MPL-2.0

package modusfile

import (
	"github.com/mayhemheroes/modus/pkg/logic"
)

// The grammar is
//
//	file    ::= clause*
//	clause  ::= atom "." | atom ":-" body "."
//	body    ::= conj (";" conj)*
//	conj    ::= item ("," item)*
//	item    ::= "(" body ")" ("::" atom)*
//	          | term ("=" | "!=") term
//	          | atom
//	atom    ::= ident [ "(" [term ("," term)*] ")" ]
//	term    ::= string | fstring | ident
//
// Identifiers in argument position are variables; "_" is anonymous.

type parser struct {
	file string
	toks []token
	i    int
	anon int
}

func newParser(file, src string) (*parser, error) {
	toks, err := tokenize(file, src)
	if err != nil {
		return nil, err
	}
	return &parser{file: file, toks: toks}, nil
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) peekAt(n int) token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) get() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) eat(kind tokenKind) bool {
	if p.peek().kind == kind {
		p.get()
		return true
	}
	return false
}

func (p *parser) expect(kind tokenKind, context string) (token, error) {
	t := p.peek()
	if t.kind != kind {
		return t, p.errorf(t.pos, "expected %s %s, found %s", kind, context, t.describe())
	}
	return p.get(), nil
}

func (p *parser) errorf(pos logic.Position, format string, args ...any) error {
	return newSyntaxError(p.file, pos, format, args...)
}

func (p *parser) clauses() ([]logic.Clause, error) {
	var out []logic.Clause
	for p.peek().kind != tokEOF {
		c, err := p.clause()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (p *parser) clause() (logic.Clause, error) {
	head, err := p.atom()
	if err != nil {
		return logic.Clause{}, err
	}
	for _, arg := range head.Args {
		if f, ok := arg.(logic.FString); ok {
			return logic.Clause{}, p.errorf(head.Pos, "f-string %s is not allowed in the head of %s", f, head.Predicate)
		}
	}

	switch t := p.get(); t.kind {
	case tokPeriod:
		return logic.Clause{Head: head}, nil
	case tokImplies:
		body, err := p.body()
		if err != nil {
			return logic.Clause{}, err
		}
		if _, err := p.expect(tokPeriod, "at end of rule"); err != nil {
			return logic.Clause{}, err
		}
		return logic.Clause{Head: head, Body: body}, nil
	default:
		return logic.Clause{}, p.errorf(t.pos, "expected '.' or ':-' after %s, found %s", head.Signature(), t.describe())
	}
}

func (p *parser) body() (logic.Expression, error) {
	var branches []logic.Expression
	for {
		conj, err := p.conjunction()
		if err != nil {
			return nil, err
		}
		branches = append(branches, conj)
		if !p.eat(tokSemicolon) {
			break
		}
	}
	if len(branches) == 1 {
		return branches[0], nil
	}
	return logic.Disjunction{Branches: branches}, nil
}

func (p *parser) conjunction() (logic.Expression, error) {
	var items []logic.Expression
	for {
		item, err := p.item()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.eat(tokComma) {
			break
		}
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return logic.Conjunction{Items: items}, nil
}

func (p *parser) item() (logic.Expression, error) {
	t := p.peek()
	switch t.kind {
	case tokLParen:
		p.get()
		inner, err := p.body()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "to close '('"); err != nil {
			return nil, err
		}
		var expr logic.Expression = inner
		for p.eat(tokDoubleColon) {
			op, err := p.atom()
			if err != nil {
				return nil, err
			}
			expr = logic.OperatorApplication{Inner: expr, Operator: op}
		}
		return expr, nil
	case tokString, tokFString:
		return p.equation()
	case tokIdent:
		if next := p.peekAt(1).kind; next == tokEq || next == tokNeq {
			return p.equation()
		}
		return p.atom()
	default:
		return nil, p.errorf(t.pos, "expected a goal, found %s", t.describe())
	}
}

// equation desugars "A = B" into eq(A, B) and "A != B" into neq(A, B).
func (p *parser) equation() (logic.Expression, error) {
	pos := p.peek().pos
	lhs, err := p.term()
	if err != nil {
		return nil, err
	}
	op := p.get()
	var pred string
	switch op.kind {
	case tokEq:
		pred = "eq"
	case tokNeq:
		pred = "neq"
	default:
		return nil, p.errorf(op.pos, "expected '=' or '!=' after %s, found %s", lhs, op.describe())
	}
	rhs, err := p.term()
	if err != nil {
		return nil, err
	}
	a := logic.NewAtom(pred, lhs, rhs)
	a.Pos = pos
	return a, nil
}

func (p *parser) atom() (logic.Atom, error) {
	name, err := p.expect(tokIdent, "for a predicate name")
	if err != nil {
		return logic.Atom{}, err
	}
	a := logic.Atom{Predicate: name.text, Pos: name.pos}
	if !p.eat(tokLParen) {
		return a, nil
	}
	if p.eat(tokRParen) {
		return a, nil
	}
	for {
		arg, err := p.term()
		if err != nil {
			return logic.Atom{}, err
		}
		a.Args = append(a.Args, arg)
		if p.eat(tokRParen) {
			return a, nil
		}
		if _, err := p.expect(tokComma, "between arguments of "+a.Predicate); err != nil {
			return logic.Atom{}, err
		}
	}
}

func (p *parser) term() (logic.Term, error) {
	t := p.get()
	switch t.kind {
	case tokString:
		return logic.Constant(t.text), nil
	case tokFString:
		f := logic.NewFString(t.parts...)
		if f.IsGround() {
			return logic.Constant(literalText(f)), nil
		}
		return f, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return nil, p.errorf(t.pos, "compound term %s(...) is not allowed as an argument", t.text)
		}
		if t.text == logic.AnonymousName {
			p.anon++
			return logic.Anonymous(p.anon), nil
		}
		return logic.Variable{Name: t.text}, nil
	default:
		return nil, p.errorf(t.pos, "expected an argument, found %s", t.describe())
	}
}

func literalText(f logic.FString) string {
	var s string
	for _, part := range f.Parts {
		s += part.Text
	}
	return s
}
