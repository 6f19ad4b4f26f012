// SPDX-License-Identifier: MPL-2.0

package modusfile

import (
	"fmt"

	"github.com/mayhemheroes/modus/pkg/builtin"
	"github.com/mayhemheroes/modus/pkg/logic"
)

// inferKinds assigns a kind to every user predicate.
//
// Kinds are ordered logical < layer < image. A first pass computes the least
// fixpoint where a predicate takes the largest kind of its clause bodies; a
// second pass checks each body strictly against the result.
func (db *Database) inferKinds() error {
	for changed := true; changed; {
		changed = false
		for _, name := range db.order {
			p := db.preds[name]
			for _, c := range p.Clauses {
				if k := db.looseKind(c.Body); k > p.Kind {
					p.Kind = k
					changed = true
				}
			}
		}
	}

	for _, name := range db.order {
		p := db.preds[name]
		for _, c := range p.Clauses {
			k, err := db.strictKind(p.Signature(), c.Body)
			if err != nil {
				return err
			}
			if k != p.Kind {
				return &KindConflictError{
					File:      db.file,
					Pos:       c.Head.Pos,
					Predicate: p.Signature(),
					Want:      p.Kind,
					Got:       k,
				}
			}
		}
	}
	return nil
}

func (db *Database) callKind(a logic.Atom) logic.Kind {
	if b, ok := builtin.Lookup(a.Predicate, len(a.Args)); ok {
		return b.Kind
	}
	return db.preds[a.Predicate].Kind
}

func (db *Database) looseKind(e logic.Expression) logic.Kind {
	switch x := e.(type) {
	case logic.Atom:
		return db.callKind(x)
	case logic.Conjunction:
		k := logic.KindLogical
		for _, item := range x.Items {
			k = max(k, db.looseKind(item))
		}
		return k
	case logic.Disjunction:
		k := logic.KindLogical
		for _, b := range x.Branches {
			k = max(k, db.looseKind(b))
		}
		return k
	case logic.OperatorApplication:
		op, _ := builtin.LookupOperator(x.Operator.Predicate, len(x.Operator.Args))
		return op.Result
	}
	return logic.KindLogical
}

// strictKind computes the kind of a clause body of pred and rejects bodies
// that mix kinds: an image may only start a conjunction, disjunction branches
// must agree, and operators must receive the kind they expect.
func (db *Database) strictKind(pred string, e logic.Expression) (logic.Kind, error) {
	conflict := func(pos logic.Position, want, got logic.Kind, format string, args ...any) error {
		return &KindConflictError{
			File:      db.file,
			Pos:       pos,
			Predicate: pred,
			Want:      want,
			Got:       got,
			Reason:    fmt.Sprintf(format, args...),
		}
	}

	switch x := e.(type) {
	case nil:
		return logic.KindLogical, nil
	case logic.Atom:
		return db.callKind(x), nil
	case logic.Conjunction:
		k := logic.KindLogical
		for _, item := range x.Items {
			ik, err := db.strictKind(pred, item)
			if err != nil {
				return 0, err
			}
			if ik == logic.KindImage && k != logic.KindLogical {
				return 0, conflict(firstPos(item), k, ik,
					"image %s cannot follow a %s in the same conjunction", describe(item), k)
			}
			if ik != logic.KindLogical && k == logic.KindLogical {
				k = ik
			}
		}
		return k, nil
	case logic.Disjunction:
		first, err := db.strictKind(pred, x.Branches[0])
		if err != nil {
			return 0, err
		}
		for _, b := range x.Branches[1:] {
			bk, err := db.strictKind(pred, b)
			if err != nil {
				return 0, err
			}
			if bk != first {
				return 0, conflict(firstPos(b), first, bk,
					"disjunction branch %s is %s but the first branch is %s", describe(b), bk, first)
			}
		}
		return first, nil
	case logic.OperatorApplication:
		op, _ := builtin.LookupOperator(x.Operator.Predicate, len(x.Operator.Args))
		ik, err := db.strictKind(pred, x.Inner)
		if err != nil {
			return 0, err
		}
		if ik != op.Inner && (op.Inner != logic.KindLayer || ik != logic.KindLogical) {
			return 0, conflict(x.Operator.Pos, op.Inner, ik,
				"operator ::%s expects %s on its left but got %s", op.Name, op.Inner, ik)
		}
		return op.Result, nil
	}
	return logic.KindLogical, nil
}

// tag stores the resolved kinds in every head, call and operator atom.
func (db *Database) tag() {
	for _, name := range db.order {
		p := db.preds[name]
		for i, c := range p.Clauses {
			c.Head.Kind = p.Kind
			if c.Body != nil {
				c.Body = db.tagExpr(c.Body)
			}
			p.Clauses[i] = c
		}
	}
	seen := make(map[string]int, len(db.preds))
	for i, c := range db.clauses {
		name := c.Head.Predicate
		db.clauses[i] = db.preds[name].Clauses[seen[name]]
		seen[name]++
	}
}

func (db *Database) tagExpr(e logic.Expression) logic.Expression {
	switch x := e.(type) {
	case logic.Atom:
		if b, ok := builtin.Lookup(x.Predicate, len(x.Args)); ok {
			x.Kind, x.Builtin = b.Kind, true
			return x
		}
		x.Kind = db.preds[x.Predicate].Kind
		return x
	case logic.Conjunction:
		items := make([]logic.Expression, len(x.Items))
		for i, item := range x.Items {
			items[i] = db.tagExpr(item)
		}
		return logic.Conjunction{Items: items}
	case logic.Disjunction:
		branches := make([]logic.Expression, len(x.Branches))
		for i, b := range x.Branches {
			branches[i] = db.tagExpr(b)
		}
		return logic.Disjunction{Branches: branches}
	case logic.OperatorApplication:
		op, _ := builtin.LookupOperator(x.Operator.Predicate, len(x.Operator.Args))
		x.Operator.Kind = op.Result
		return logic.OperatorApplication{Inner: db.tagExpr(x.Inner), Operator: x.Operator}
	}
	return e
}

func firstPos(e logic.Expression) logic.Position {
	var pos logic.Position
	found := false
	logic.Walk(e, func(a logic.Atom) {
		if !found {
			pos, found = a.Pos, true
		}
	})
	return pos
}

func describe(e logic.Expression) string {
	if a, ok := e.(logic.Atom); ok {
		return a.Signature()
	}
	return "(" + e.String() + ")"
}
