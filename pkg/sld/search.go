// SPDX-License-Identifier: MPL-2.0

package sld

import (
	"context"
	"slices"

	"github.com/mayhemheroes/modus/pkg/builtin"
	"github.com/mayhemheroes/modus/pkg/logic"
)

// search is the state of one query. Success continuations are passed
// explicitly; failure returns to the caller, which tries the next
// alternative. Every continuation returns false to abandon the whole search.
type search struct {
	ctx    context.Context
	e      *Engine
	b      *logic.Bindings
	gen    int
	active []string
	causes []error
	seen   map[string]bool
	err    error
}

func newSearch(ctx context.Context, e *Engine) *search {
	return &search{
		ctx:  ctx,
		e:    e,
		b:    logic.NewBindings(),
		seen: make(map[string]bool),
	}
}

// record keeps a branch failure for the final NoSolutionsError.
func (s *search) record(err error) {
	msg := err.Error()
	if s.seen[msg] || len(s.causes) >= maxCauses {
		return
	}
	s.seen[msg] = true
	s.causes = append(s.causes, err)
}

func (s *search) solveGoal(a logic.Atom, depth int, k func(*Node) bool) bool {
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	if a.Builtin {
		return s.solveBuiltin(a, k)
	}

	call := s.b.ResolveAtom(a)
	if depth >= s.e.maxDepth {
		s.e.logger.Debug("depth bound", "goal", call, "depth", depth)
		s.record(&DepthError{Goal: call.String(), Depth: s.e.maxDepth})
		return true
	}
	var key string
	if call.IsGround() {
		key = call.String()
		if slices.Contains(s.active, key) {
			s.e.logger.Debug("cycle", "goal", key)
			s.record(&CycleError{Goal: key})
			return true
		}
	}

	pred, ok := s.e.db.Predicate(a.Predicate)
	if !ok {
		return true
	}
	s.e.logger.Debug("goal", "call", call, "depth", depth)

	for i, c := range pred.Clauses {
		s.gen++
		rc := c.Rename(s.gen)
		mark := s.b.Mark()
		if !logic.UnifyArgs(rc.Head.Args, a.Args, s.b) {
			continue
		}
		s.e.logger.Debug("clause", "predicate", pred.Signature(), "index", i)

		clause := i
		done := func(children []*Node) bool {
			node := &Node{Kind: a.Kind, Atom: a, Clause: clause, Children: children}
			return s.leave(key, func() bool { return k(node) })
		}
		s.enter(key)
		var more bool
		if rc.Body == nil {
			more = done(nil)
		} else {
			more = s.solveExpr(rc.Body, depth+1, done)
		}
		s.exit(key)
		s.b.Undo(mark)
		if !more {
			return false
		}
	}
	return true
}

// enter, exit and leave maintain the stack of active ground calls. A call is
// active while its body is being resolved, not while its continuation runs.
func (s *search) enter(key string) {
	if key != "" {
		s.active = append(s.active, key)
	}
}

func (s *search) exit(key string) {
	if key != "" {
		s.active = s.active[:len(s.active)-1]
	}
}

func (s *search) leave(key string, k func() bool) bool {
	if key == "" {
		return k()
	}
	s.exit(key)
	more := k()
	s.enter(key)
	return more
}

func (s *search) solveBuiltin(a logic.Atom, k func(*Node) bool) bool {
	b, ok := builtin.Lookup(a.Predicate, len(a.Args))
	if !ok {
		return true
	}
	args := make([]logic.Term, len(a.Args))
	for i, arg := range a.Args {
		if b.RawArgs {
			args[i] = s.b.Resolve(arg)
			continue
		}
		t, err := s.b.Materialize(arg)
		if err != nil {
			s.record(err)
			return true
		}
		args[i] = t
	}

	out, ok, err := b.Eval(args)
	if err != nil {
		s.e.logger.Debug("built-in error", "goal", a, "err", err)
		s.record(err)
		return true
	}
	if !ok {
		return true
	}
	mark := s.b.Mark()
	if !logic.UnifyArgs(out, args, s.b) {
		return true
	}
	more := k(&Node{Kind: b.Kind, Atom: a, Builtin: true, Clause: -1})
	s.b.Undo(mark)
	return more
}

func (s *search) solveExpr(e logic.Expression, depth int, k func([]*Node) bool) bool {
	switch x := e.(type) {
	case logic.Atom:
		return s.solveGoal(x, depth, func(n *Node) bool {
			return k([]*Node{n})
		})
	case logic.Conjunction:
		return s.solveItems(x.Items, nil, depth, k)
	case logic.Disjunction:
		for _, branch := range x.Branches {
			if !s.solveExpr(branch, depth, k) {
				return false
			}
		}
		return true
	case logic.OperatorApplication:
		return s.solveExpr(x.Inner, depth, func(inner []*Node) bool {
			node := &Node{Kind: x.Operator.Kind, Atom: x.Operator, Operator: true, Clause: -1, Children: inner}
			return k([]*Node{node})
		})
	}
	return true
}

func (s *search) solveItems(items []logic.Expression, acc []*Node, depth int, k func([]*Node) bool) bool {
	if len(items) == 0 {
		return k(acc)
	}
	return s.solveExpr(items[0], depth, func(nodes []*Node) bool {
		return s.solveItems(items[1:], slices.Concat(acc, nodes), depth, k)
	})
}

// finalize copies the proof under the current bindings. It fails with an
// InstantiationError or an unbound interpolation error when a term is still
// open.
func (s *search) finalize(goal logic.Atom, root *Node) (*Derivation, error) {
	g, err := s.ground(goal)
	if err != nil {
		return nil, err
	}
	r, err := s.groundNode(root)
	if err != nil {
		return nil, err
	}
	return &Derivation{Goal: g, Root: r}, nil
}

func (s *search) groundNode(n *Node) (*Node, error) {
	a, err := s.ground(n.Atom)
	if err != nil {
		return nil, err
	}
	out := *n
	out.Atom = a
	out.Children = make([]*Node, len(n.Children))
	for i, c := range n.Children {
		if out.Children[i], err = s.groundNode(c); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func (s *search) ground(a logic.Atom) (logic.Atom, error) {
	args := make([]logic.Term, len(a.Args))
	for i, arg := range a.Args {
		t, err := s.b.Materialize(arg)
		if err != nil {
			return a, err
		}
		if !t.IsGround() {
			return a, &builtin.InstantiationError{Goal: s.b.ResolveAtom(a).String(), Arg: i}
		}
		args[i] = t
	}
	return a.WithArgs(args), nil
}
