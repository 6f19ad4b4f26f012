// SPDX-License-Identifier: MPL-2.0

package sld

import (
	"github.com/mayhemheroes/modus/pkg/logic"
)

type (
	// Derivation is one successful, fully ground resolution of a query.
	Derivation struct {
		// Index counts derivations of one query from zero.
		Index int
		// Goal is the query with every variable bound.
		Goal logic.Atom
		Root *Node
	}

	// Node is one resolved invocation in a proof tree. After a derivation is
	// complete every Atom is ground.
	Node struct {
		Kind logic.Kind
		Atom logic.Atom
		// Builtin marks built-in predicates, including build primitives.
		Builtin bool
		// Operator marks an operator application; Children are the nodes of the
		// inner expression.
		Operator bool
		// Clause is the index of the clause used within its predicate, or -1.
		Clause   int
		Children []*Node
	}
)

// String returns the atom in source syntax.
func (n *Node) String() string {
	if n.Operator {
		return "::" + n.Atom.String()
	}
	return n.Atom.String()
}

// Key identifies the invocation: predicate and ground arguments.
func (n *Node) Key() string {
	return n.Atom.String()
}

// IsPrimitive reports whether the node is a build primitive such as run or from.
func (n *Node) IsPrimitive() bool {
	return n.Builtin && n.Kind != logic.KindLogical
}

// Walk visits n and its descendants depth first. Returning false from fn skips
// the children of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the tree.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}
