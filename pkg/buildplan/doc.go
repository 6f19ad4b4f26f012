// SPDX-License-Identifier: MPL-2.0

// Package buildplan reduces proof trees to a container build plan.
//
// Every image relation in a derivation becomes a stage identified by its
// predicate and ground arguments, so an image reached twice, within one
// derivation or across several, is built once. Logical relations carry no
// instructions and are dropped. Images pulled with from() are inlined as the
// base reference of the stages built on them.
package buildplan
