// Package pipeline implements the pure transformation stages applied to a
// source snapshot: filter, sort, map, then structural prepend/append.
//
// Stages run in that fixed order over a plain slice; nothing in this
// package is reactive. A Pipeline is compiled once from a Config, which
// validates the criteria and precomputes the mutable-property analysis the
// reconciler uses to bound update cost, then Run is called with each new
// snapshot.
//
// Failures follow an all-or-nothing policy: if any stage fails on any
// item, Run returns a StageError and no partial output.
package pipeline
