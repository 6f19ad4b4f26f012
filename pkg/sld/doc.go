// SPDX-License-Identifier: MPL-2.0

// Package sld resolves queries against a modusfile.Database by SLD resolution.
//
// Clauses are tried in source order and every succeeding clause, disjunction
// branch and built-in solution yields a derivation. Each derivation carries a
// proof tree whose atoms are all ground. Calls re-entered with the same ground
// arguments fail (cycle guard) and nesting is bounded by WithMaxDepth; both
// are recorded and reported only when the query has no solution at all.
package sld
