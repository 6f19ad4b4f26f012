// SPDX-License-Identifier: MPL-2.0

// Package modus compiles Modusfile queries into a build plan.
//
// Compile resolves every query against a parsed database, in parallel, and
// reduces the derivations into one plan whose stages are shared across
// queries:
//
//	db, err := modus.LoadFile("Modusfile")
//	...
//	res, err := modus.Compile(ctx, db, []string{`app("alpine:3.19", mode)`})
//	...
//	err = dockerfile.Write(os.Stdout, res.Plan)
package modus
