// Package compile drives a query tree through the optimizer passes and the
// dialect formatter.
//
// PIPELINE:
//
//	partial-evaluate  closed client-side subtrees become constants
//	expand-objects    object comparisons become key comparisons
//	lift-aggregates   aggregate subqueries join their grouped select
//	format            dialect amenders, then SQL emission
//
// Each pass is timed into the pass-duration histogram and logged at Debug
// with the compilation ID. A failing pass stops the run; no partial SQL is
// returned.
//
// CONCURRENCY:
//
// A Pipeline holds no per-run state and may be shared between goroutines.
// CompileAll fans independent statements out over an errgroup; the context
// is checked between statements, never inside a pass.
package compile
