// SPDX-License-Identifier: MPL-2.0

// Package logic defines the term and clause model shared by the Modusfile parser,
// the resolution engine and the build-plan reducer.
//
// A Term is a Constant (string), a Variable, or an FString (an interpolated string
// made of literal fragments and embedded variables). Terms are immutable: applying
// Bindings always returns new terms.
//
// Clause bodies are Expressions: an Atom, a Conjunction, a Disjunction, or an
// OperatorApplication such as (build("x"))::copy("/src", "/dst").
//
// Bindings is the binding environment used during search. It records every binding
// on a trail so that the engine can backtrack with Mark and Undo instead of copying
// maps at every choice point.
package logic
