// SPDX-License-Identifier: MPL-2.0

package modusfile

import (
	"fmt"
	"slices"

	"github.com/mayhemheroes/modus/pkg/builtin"
	"github.com/mayhemheroes/modus/pkg/logic"
)

type (
	// Predicate groups the clauses defining one user relation.
	Predicate struct {
		Name  string
		Arity int
		Kind  logic.Kind
		// Clauses are in source order.
		Clauses []logic.Clause
	}

	// Database is a parsed, kind-checked Modusfile. It is read-only after Parse
	// and safe for concurrent use.
	Database struct {
		file    string
		clauses []logic.Clause
		preds   map[string]*Predicate
		order   []string
	}
)

// Parse reads a Modusfile. file is used only in error positions.
func Parse(file, src string) (*Database, error) {
	p, err := newParser(file, src)
	if err != nil {
		return nil, err
	}
	clauses, err := p.clauses()
	if err != nil {
		return nil, err
	}
	db := &Database{file: file, preds: make(map[string]*Predicate)}
	if err := db.define(clauses); err != nil {
		return nil, err
	}
	if err := db.resolveCalls(); err != nil {
		return nil, err
	}
	if err := db.inferKinds(); err != nil {
		return nil, err
	}
	db.tag()
	return db, nil
}

// MustParse is like Parse but panics on error. It is meant for tests and
// embedded sources.
func MustParse(file, src string) *Database {
	db, err := Parse(file, src)
	if err != nil {
		panic(err)
	}
	return db
}

// File returns the name the database was parsed from.
func (db *Database) File() string { return db.file }

// Clauses returns every clause in source order.
func (db *Database) Clauses() []logic.Clause {
	return slices.Clone(db.clauses)
}

// Len returns the number of clauses.
func (db *Database) Len() int { return len(db.clauses) }

// Predicate returns the user predicate called name.
func (db *Database) Predicate(name string) (*Predicate, bool) {
	p, ok := db.preds[name]
	return p, ok
}

// Predicates returns the user predicates in order of first definition.
func (db *Database) Predicates() []*Predicate {
	out := make([]*Predicate, len(db.order))
	for i, name := range db.order {
		out[i] = db.preds[name]
	}
	return out
}

// Signature returns "name/arity".
func (p *Predicate) Signature() string {
	return fmt.Sprintf("%s/%d", p.Name, p.Arity)
}

func (db *Database) define(clauses []logic.Clause) error {
	for _, c := range clauses {
		h := c.Head
		if builtin.IsBuiltin(h.Predicate) {
			return newSyntaxError(db.file, h.Pos, "cannot redefine built-in predicate %s", h.Predicate)
		}
		if _, ok := builtin.LookupOperator(h.Predicate, len(h.Args)); ok {
			return newSyntaxError(db.file, h.Pos, "cannot define %s: the name is reserved for the ::%s operator", h.Signature(), h.Predicate)
		}
		p, ok := db.preds[h.Predicate]
		if !ok {
			p = &Predicate{Name: h.Predicate, Arity: len(h.Args)}
			db.preds[h.Predicate] = p
			db.order = append(db.order, h.Predicate)
		}
		if p.Arity != len(h.Args) {
			return newSyntaxError(db.file, h.Pos, "predicate %s is already defined with arity %d", h.Signature(), p.Arity)
		}
		p.Clauses = append(p.Clauses, c)
		db.clauses = append(db.clauses, c)
	}
	return nil
}

// resolveCalls checks that every body atom names a built-in or a user
// predicate with matching arity, and that operators exist.
func (db *Database) resolveCalls() error {
	var err error
	for _, c := range db.clauses {
		if c.Body == nil {
			continue
		}
		walkOperators(c.Body, func(app logic.OperatorApplication) {
			if err != nil {
				return
			}
			op := app.Operator
			if _, ok := builtin.LookupOperator(op.Predicate, len(op.Args)); !ok {
				err = newSyntaxError(db.file, op.Pos, "unknown operator ::%s", op.Signature())
			}
		})
		forEachCall(c.Body, func(a logic.Atom) {
			if err == nil {
				err = db.checkCall(a)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (db *Database) checkCall(a logic.Atom) error {
	if builtin.IsBuiltin(a.Predicate) {
		if _, ok := builtin.Lookup(a.Predicate, len(a.Args)); !ok {
			return newSyntaxError(db.file, a.Pos, "built-in %s does not take %d arguments", a.Predicate, len(a.Args))
		}
		return nil
	}
	p, ok := db.preds[a.Predicate]
	if !ok {
		return newSyntaxError(db.file, a.Pos, "call to undefined predicate %s", a.Signature())
	}
	if p.Arity != len(a.Args) {
		return newSyntaxError(db.file, a.Pos, "predicate %s called with %d arguments", p.Signature(), len(a.Args))
	}
	return nil
}

// CheckQuery validates a goal against the database and returns it tagged with
// its kind.
func (db *Database) CheckQuery(goal logic.Atom) (logic.Atom, error) {
	if b, ok := builtin.Lookup(goal.Predicate, len(goal.Args)); ok {
		goal.Kind, goal.Builtin = b.Kind, true
		return goal, nil
	}
	p, ok := db.preds[goal.Predicate]
	if !ok || p.Arity != len(goal.Args) {
		e := &UnknownPredicateError{Signature: goal.Signature()}
		if ok {
			e.Defined = []string{p.Signature()}
		}
		return goal, e
	}
	goal.Kind, goal.Builtin = p.Kind, false
	return goal, nil
}

// forEachCall visits predicate calls, skipping operator atoms.
func forEachCall(e logic.Expression, fn func(logic.Atom)) {
	switch x := e.(type) {
	case logic.Atom:
		fn(x)
	case logic.Conjunction:
		for _, item := range x.Items {
			forEachCall(item, fn)
		}
	case logic.Disjunction:
		for _, b := range x.Branches {
			forEachCall(b, fn)
		}
	case logic.OperatorApplication:
		forEachCall(x.Inner, fn)
	}
}

func walkOperators(e logic.Expression, fn func(logic.OperatorApplication)) {
	switch x := e.(type) {
	case logic.Conjunction:
		for _, item := range x.Items {
			walkOperators(item, fn)
		}
	case logic.Disjunction:
		for _, b := range x.Branches {
			walkOperators(b, fn)
		}
	case logic.OperatorApplication:
		walkOperators(x.Inner, fn)
		fn(x)
	}
}
