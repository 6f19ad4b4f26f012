// SPDX-License-Identifier: MPL-2.0

// Package dockerfile renders build plans and proofs.
//
// Write emits a multi-stage Dockerfile with one target per derivation, Tree
// draws the unreduced proof of a derivation and Encode serializes a plan as a
// JSON, YAML or TOML document.
package dockerfile
