// SPDX-License-Identifier: MPL-2.0

// Package modusfiletest provides Modusfile fixtures and parse helpers for tests.
//
// This package is separate from testutil to avoid import cycles, since testutil
// carries no dependency on pkg/modusfile.
//
// # Usage
//
//	import "github.com/mayhemheroes/modus/internal/testutil/modusfiletest"
//
//	db := modusfiletest.MustParse(t, modusfiletest.App)
//	goal := modusfiletest.MustQuery(t, db, `app("ubuntu:18.04", "1.2.5", "production")`)
package modusfiletest
