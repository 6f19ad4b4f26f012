// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors for the modus CLI.
//
// An ActionableError names the failed operation, the file or query involved
// and suggestions for fixing it. Each Issue is a Markdown page, rendered with
// glamour, that explains a class of compile failures in more depth.
package issue
