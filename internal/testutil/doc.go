// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by tests: file and directory
// fixtures that fail the test on error, and a semaphore bounding concurrent
// container builds.
package testutil
