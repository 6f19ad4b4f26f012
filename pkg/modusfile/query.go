// SPDX-License-Identifier: MPL-2.0

package modusfile

import (
	"github.com/mayhemheroes/modus/pkg/logic"
)

// ParseQuery parses a single goal such as app("ubuntu:18.04", "1.2.5", mode).
// The trailing period is optional. Identifiers are variables and "_" is
// anonymous; f-strings are not accepted.
func ParseQuery(src string) (logic.Atom, error) {
	p, err := newParser("query", src)
	if err != nil {
		return logic.Atom{}, err
	}
	goal, err := p.atom()
	if err != nil {
		return logic.Atom{}, err
	}
	for _, arg := range goal.Args {
		if f, ok := arg.(logic.FString); ok {
			return logic.Atom{}, p.errorf(goal.Pos, "f-string %s is not allowed in a query", f)
		}
	}
	p.eat(tokPeriod)
	if t := p.peek(); t.kind != tokEOF {
		return logic.Atom{}, p.errorf(t.pos, "unexpected %s after query", t.describe())
	}
	return goal, nil
}

// Query parses src and validates it against db.
func (db *Database) Query(src string) (logic.Atom, error) {
	goal, err := ParseQuery(src)
	if err != nil {
		return logic.Atom{}, err
	}
	return db.CheckQuery(goal)
}
