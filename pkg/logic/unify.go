// SPDX-License-Identifier: MPL-2.0

package logic

// Unify extends b with the most general unifier of x and y. On failure b is
// left exactly as it was.
//
// Constants unify when equal. An f-string that is ground under b behaves like
// the constant it renders to; two non-ground f-strings unify only when their
// fragments line up one to one. A variable is never bound to a term that
// mentions it (occurs check).
func Unify(x, y Term, b *Bindings) bool {
	mark := b.Mark()
	if unify(x, y, b) {
		return true
	}
	b.Undo(mark)
	return false
}

// UnifyArgs unifies two argument lists pairwise.
func UnifyArgs(xs, ys []Term, b *Bindings) bool {
	if len(xs) != len(ys) {
		return false
	}
	mark := b.Mark()
	for i := range xs {
		if !unify(xs[i], ys[i], b) {
			b.Undo(mark)
			return false
		}
	}
	return true
}

func unify(x, y Term, b *Bindings) bool {
	x, y = b.Resolve(x), b.Resolve(y)

	if vx, ok := x.(Variable); ok {
		return bindVar(vx, y, b)
	}
	if vy, ok := y.(Variable); ok {
		return bindVar(vy, x, b)
	}

	switch tx := x.(type) {
	case Constant:
		ty, ok := y.(Constant)
		return ok && tx == ty
	case FString:
		ty, ok := y.(FString)
		if !ok || len(tx.Parts) != len(ty.Parts) {
			return false
		}
		for i := range tx.Parts {
			px, py := tx.Parts[i], ty.Parts[i]
			switch {
			case px.Var == nil && py.Var == nil:
				if px.Text != py.Text {
					return false
				}
			case px.Var != nil && py.Var != nil:
				if !unify(*px.Var, *py.Var, b) {
					return false
				}
			default:
				return false
			}
		}
		return true
	}
	return false
}

func bindVar(v Variable, t Term, b *Bindings) bool {
	if tv, ok := t.(Variable); ok && tv == v {
		return true
	}
	if occurs(v, t, b) {
		return false
	}
	b.Bind(v, t)
	return true
}

func occurs(v Variable, t Term, b *Bindings) bool {
	switch x := b.Walk(t).(type) {
	case Variable:
		return x == v
	case FString:
		for _, p := range x.Parts {
			if p.Var != nil && occurs(v, *p.Var, b) {
				return true
			}
		}
	}
	return false
}
